package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"tasktree/internal/config"
	"tasktree/internal/logging"
	"tasktree/internal/storage"
	"tasktree/internal/store"
	"tasktree/internal/ui"
)

type appOptions struct {
	configPath string
	dbPath     string
	logFile    string
	logLevel   string
}

type app struct {
	configPath string
	cfg        config.Config
	log        *log.Logger
	db         *storage.SQLite
	store      *store.Store
	closers    []io.Closer
}

func openApp(opts appOptions) (*app, error) {
	configPath := config.ResolveConfigPath(opts.configPath)
	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	if opts.logFile != "" {
		cfg.Log.File = opts.logFile
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	logger, logCloser, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return nil, err
	}

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		logCloser.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}

	st := store.New(db,
		store.WithLogger(logger),
		store.WithKey(cfg.StorageKey),
		store.WithDefaultProtection(cfg.ProtectDefaults),
	)
	st.Subscribe(func(c store.Change) {
		if _, ok := c.Action.(store.LoadData); ok {
			logger.Info("snapshot loaded",
				"folders", len(c.Next.Folders),
				"lists", len(c.Next.TaskLists),
				"tasks", len(c.Next.Tasks))
		}
	})

	return &app{
		configPath: configPath,
		cfg:        cfg,
		log:        logger,
		db:         db,
		store:      st,
		closers:    []io.Closer{db, logCloser},
	}, nil
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func runTUI(opts appOptions) error {
	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	a.log.Info("starting ui", "db", a.cfg.DBPath)
	return ui.Run(a.store, a.cfg)
}
