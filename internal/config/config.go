package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	AppName               = "tasktree"
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "tasktree.db"
	DefaultLogName        = "tasktree.log"
	DefaultStorageKey     = "taskListData"

	// EnvConfigPath overrides the config file location.
	EnvConfigPath = "TASKTREE_CONFIG"
)

type Keymap struct {
	Quit         string `toml:"quit"`
	Up           string `toml:"up"`
	Down         string `toml:"down"`
	Select       string `toml:"select"`
	SwitchPane   string `toml:"switch_pane"`
	Toggle       string `toml:"toggle"`
	AddFolder    string `toml:"add_folder"`
	AddList      string `toml:"add_list"`
	AddTask      string `toml:"add_task"`
	Delete       string `toml:"delete"`
	Edit         string `toml:"edit"`
	Rename       string `toml:"rename"`
	CycleColor   string `toml:"cycle_color"`
	PriorityUp   string `toml:"priority_up"`
	PriorityDown string `toml:"priority_down"`
	DueForward   string `toml:"due_forward"`
	DueBack      string `toml:"due_back"`
	Confirm      string `toml:"confirm"`
	Cancel       string `toml:"cancel"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	// File is the log destination; "-" means stderr.
	File string `toml:"file"`
}

type Config struct {
	DBPath          string   `toml:"db_path"`
	StorageKey      string   `toml:"storage_key"`
	ProtectDefaults bool     `toml:"protect_defaults"`
	Palette         []string `toml:"palette"`
	Log             Log      `toml:"log"`
	Keys            Keymap   `toml:"keys"`
}

// ResolveConfigPath picks the config file: the explicit path if given, then
// $TASKTREE_CONFIG, then the XDG config directory.
func ResolveConfigPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	return filepath.Join(DefaultConfigDir(), DefaultConfigFileName)
}

// DefaultConfigDir uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// LoadOrCreate reads the TOML file at path, writing the defaults there first
// if it does not exist. Relative db and log paths resolve against the config
// file's directory.
func LoadOrCreate(path string) (Config, error) {
	dir := filepath.Dir(path)
	cfg := defaultConfig(dir)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, fmt.Errorf("write default config: %w", err)
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.fillDefaults(dir)
	return cfg, nil
}

func (c *Config) fillDefaults(dir string) {
	if c.DBPath == "" {
		c.DBPath = DefaultDBName
	}
	if c.DBPath != ":memory:" && !filepath.IsAbs(c.DBPath) {
		c.DBPath = filepath.Join(dir, c.DBPath)
	}
	if c.StorageKey == "" {
		c.StorageKey = DefaultStorageKey
	}
	if len(c.Palette) == 0 {
		c.Palette = defaultPalette()
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.File == "" {
		c.Log.File = DefaultLogName
	}
	if c.Log.File != "-" && !filepath.IsAbs(c.Log.File) {
		c.Log.File = filepath.Join(dir, c.Log.File)
	}
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultPalette() []string {
	return []string{"#1976d2", "#388e3c", "#f57c00", "#d32f2f", "#7b1fa2", "#0097a7"}
}

func defaultConfig(dir string) Config {
	return Config{
		DBPath:          filepath.Join(dir, DefaultDBName),
		StorageKey:      DefaultStorageKey,
		ProtectDefaults: true,
		Palette:         defaultPalette(),
		Log: Log{
			Level:  "info",
			Format: "text",
			File:   filepath.Join(dir, DefaultLogName),
		},
		Keys: Keymap{
			Quit:         "q",
			Up:           "k",
			Down:         "j",
			Select:       "enter",
			SwitchPane:   "tab",
			Toggle:       " ",
			AddFolder:    "F",
			AddList:      "L",
			AddTask:      "a",
			Delete:       "d",
			Edit:         "e",
			Rename:       "r",
			CycleColor:   "c",
			PriorityUp:   "+",
			PriorityDown: "-",
			DueForward:   "]",
			DueBack:      "[",
			Confirm:      "enter",
			Cancel:       "esc",
		},
	}
}
