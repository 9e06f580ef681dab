package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tasktree/internal/model"
	"tasktree/internal/storage"
	"tasktree/internal/store"
)

func treeCmd(opts *appOptions) *cobra.Command {
	var hideDone bool
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print folders, lists and tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*opts)
			if err != nil {
				return err
			}
			defer a.Close()
			printTree(cmd.OutOrStdout(), a.store.Snapshot(), time.Now(), hideDone)
			return nil
		},
	}
	cmd.Flags().BoolVar(&hideDone, "open", false, "hide completed tasks")
	return cmd
}

func exportCmd(opts *appOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the stored snapshot as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*opts)
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := a.store.Export()
			if err != nil {
				return err
			}
			var out bytes.Buffer
			if err := json.Indent(&out, data, "", "  "); err != nil {
				return err
			}
			out.WriteByte('\n')

			if len(args) == 0 {
				_, err = cmd.OutOrStdout().Write(out.Bytes())
				return err
			}
			return os.WriteFile(args[0], out.Bytes(), 0o644)
		},
	}
}

func importCmd(opts *appOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load a full or partial snapshot from a JSON file",
		Long: `Load a snapshot exported by "tasktree export". Top-level fields present
in the file replace the stored ones; absent fields are kept. A file that
does not parse, does not match the snapshot layout, or would leave a list
without its folder or a task without its list is rejected and nothing
changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			patch, err := store.ParsePatch(data)
			if err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}

			a, err := openApp(*opts)
			if err != nil {
				return err
			}
			defer a.Close()

			load := store.LoadData{Patch: patch}
			if err := store.Validate(a.store.Snapshot(), load); err != nil {
				return fmt.Errorf("import %s: %w", args[0], err)
			}
			if err := a.store.Dispatch(load); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func resetCmd(opts *appOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Replace all folders, lists and tasks with the starter set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("reset discards every folder, list and task; pass --yes to confirm")
			}
			a, err := openApp(*opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.Dispatch(store.LoadData{Patch: store.PatchOf(model.Seed(time.Now()))}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the reset")
	return cmd
}

func infoCmd(opts *appOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show config, database and stored keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*opts)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.db.Entries()
			if err != nil {
				return err
			}
			snap := a.store.Snapshot()
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "config   %s\n", a.configPath)
			fmt.Fprintf(w, "database %s\n", a.cfg.DBPath)
			fmt.Fprintf(w, "contents %d folders, %d lists, %d tasks\n", len(snap.Folders), len(snap.TaskLists), len(snap.Tasks))
			printEntries(w, entries, a.cfg.StorageKey, time.Now())
			return nil
		},
	}
}

func printEntries(w io.Writer, entries []storage.Entry, active string, now time.Time) {
	for _, e := range entries {
		marker := " "
		if e.Key == active {
			marker = "*"
		}
		updated := "never"
		if !e.UpdatedAt.IsZero() {
			updated = humanize.RelTime(e.UpdatedAt, now, "ago", "from now")
		}
		fmt.Fprintf(w, "%s %-20s %8s  %s\n", marker, e.Key, humanize.Bytes(uint64(e.Size)), updated)
	}
}

func printTree(w io.Writer, snap model.Snapshot, now time.Time, hideDone bool) {
	if len(snap.Folders) == 0 {
		fmt.Fprintln(w, "(no folders)")
		return
	}
	today := model.DateOf(now)
	for _, f := range snap.Folders {
		st := snap.FolderStats(f.ID)
		fmt.Fprintf(w, "%s%s [%d/%d]\n", f.Name, defaultMark(f.IsDefault), st.Completed, st.Total)
		for _, l := range snap.TaskListsForFolder(f.ID) {
			marker := " "
			if l.ID == snap.SelectedListID {
				marker = "*"
			}
			ls := snap.ListStats(l.ID)
			fmt.Fprintf(w, " %s %s%s [%d/%d]\n", marker, l.Name, defaultMark(l.IsDefault), ls.Completed, ls.Total)
			for _, t := range snap.TasksForList(l.ID) {
				if hideDone && t.Completed {
					continue
				}
				fmt.Fprintf(w, "     %s\n", taskLine(t, today))
			}
		}
	}
}

func taskLine(t model.Task, today model.Date) string {
	box := "[ ]"
	if t.Completed {
		box = "[x]"
	}
	parts := []string{box, t.Title}
	if t.Priority != model.PriorityNone {
		parts = append(parts, "!"+string(t.Priority))
	}
	for _, tag := range t.Tags {
		parts = append(parts, "#"+tag)
	}
	if t.DueDate != nil {
		due := "today"
		if !t.DueDate.Equal(today.Time) {
			due = humanize.RelTime(t.DueDate.Time, today.Time, "ago", "from now")
		}
		parts = append(parts, "(due "+due+")")
	}
	return strings.Join(parts, " ")
}

func defaultMark(isDefault bool) string {
	if isDefault {
		return " (default)"
	}
	return ""
}
