package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	analyzer "github.com/max-frai/rust-analyzer"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the workspace and re-report problems on every edit",
	Long:  "Loads the workspace, then feeds filesystem events back into the model as change batches, printing layout problems after each batch. Stop with Ctrl-C.",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watchDirs(watcher, ws.dir); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := report(ws); err != nil {
		return err
	}
	slog.Info("watching", "dir", ws.dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "error", err)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op.Has(fsnotify.Create) {
				// New directories need watching too.
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watchDirs(watcher, event.Name)
					continue
				}
			}
			if !ws.applyEvent(event) {
				continue
			}
			if err := report(ws); err != nil {
				if analyzer.IsCanceled(err) {
					continue // a newer event superseded this batch
				}
				return err
			}
		}
	}
}

// watchDirs registers root and every non-skipped directory below it.
func watchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// applyEvent folds one filesystem event into the host as a change batch.
// Returns false when the event is irrelevant to the model.
func (ws *workspace) applyEvent(event fsnotify.Event) bool {
	rel, err := filepath.Rel(ws.dir, event.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if !ws.matches(rel) {
		return false
	}

	change := analyzer.NewChange()
	switch {
	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		id, tracked := ws.byPath[rel]
		if !tracked {
			return false
		}
		change.RemoveFile(localRoot, id, rel)
		delete(ws.byPath, rel)
		slog.Debug("file removed", "path", rel)
	case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
		text, err := os.ReadFile(event.Name)
		if err != nil {
			return false
		}
		if id, tracked := ws.byPath[rel]; tracked {
			change.ChangeFile(id, string(text))
			slog.Debug("file changed", "path", rel)
		} else {
			change.AddFile(localRoot, ws.fileID(rel), rel, string(text))
			slog.Debug("file added", "path", rel)
		}
	default:
		return false
	}
	ws.host.Apply(change)
	return true
}

// report prints the current problem set for the freshest snapshot.
func report(ws *workspace) error {
	a := ws.host.Analysis()
	n, err := printProblems(a)
	if err != nil {
		return err
	}
	slog.Info("revision analyzed", "revision", a.Revision(), "problems", n)
	return nil
}
