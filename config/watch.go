package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Watcher keeps the settings of one role current while the credentials
// file changes on disk. A reload that fails keeps the previous settings.
type Watcher struct {
	path    string
	role    string
	log     *slog.Logger
	fsw     *fsnotify.Watcher
	current atomic.Pointer[Database]
	done    chan struct{}
}

// Watch loads role from path and reloads it on every change of the file
// until ctx is done or Close is called.
func Watch(ctx context.Context, path, role string) (*Watcher, error) {
	db, err := Load(path, role)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: watch: %w", err)
	}
	// Watch the directory: editors and secret mounts replace the file.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		return nil, errors.Join(fmt.Errorf("config: watch: %w", err), fsw.Close())
	}
	w := &Watcher{
		path: filepath.Clean(path),
		role: role,
		log:  slog.Default().With("credentials", path, "role", role),
		fsw:  fsw,
		done: make(chan struct{}),
	}
	w.current.Store(&db)
	go w.loop(ctx)
	return w, nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			_ = w.fsw.Close()
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			db, err := Load(w.path, w.role)
			if err != nil {
				w.log.Warn("credentials reload failed, keeping previous settings", "error", err)
				continue
			}
			w.current.Store(&db)
			w.log.Info("credentials reloaded")
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("credentials watch error", "error", err)
		}
	}
}

// Database returns the current settings.
func (w *Watcher) Database() Database {
	return *w.current.Load()
}

// DSN returns the connection URL of the current settings.
func (w *Watcher) DSN() string {
	return w.Database().DSN()
}

// Close stops watching.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}
