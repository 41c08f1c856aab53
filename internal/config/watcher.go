package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Logger receives reload diagnostics.
type Logger interface {
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{}) {}

// Watcher reloads switches when the configuration file changes.
type Watcher struct {
	path     string
	w        *fsnotify.Watcher
	log      Logger
	onChange func(Switches)
}

// NewWatcher watches path. Each successful reload is applied with Apply and
// passed to onChange; failed reloads keep the current switches.
func NewWatcher(path string, onChange func(Switches), log Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Editors often replace the file, so watch its directory.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}

	if log == nil {
		log = nopLogger{}
	}

	return &Watcher{path: abs, w: w, log: log, onChange: onChange}, nil
}

// Run processes file events until ctx is done.
func (cw *Watcher) Run(ctx context.Context) error {
	defer cw.w.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-cw.w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != cw.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			cw.reload()
		case err, ok := <-cw.w.Errors:
			if !ok {
				return nil
			}
			cw.log.Warn("config watcher: %v", err)
		}
	}
}

func (cw *Watcher) reload() {
	s, err := Load(cw.path)
	if err != nil {
		cw.log.Warn("config reload of %s failed: %v", cw.path, err)
		return
	}

	Apply(s)
	cw.log.Info("config reloaded from %s", cw.path)
	if cw.onChange != nil {
		cw.onChange(s)
	}
}
