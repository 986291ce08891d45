// control/hotreload.go
// Author: momentics <momentics@gmail.com>
//
// Reload hooks and the configuration file watcher that fires them.

package control

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/momentics/hioload-ftpd/internal/logger"
)

// ReloadHooks is a list of callbacks run when configuration changes.
type ReloadHooks struct {
	mu    sync.Mutex
	hooks []func()
}

// Register adds a reload listener.
func (rh *ReloadHooks) Register(fn func()) {
	rh.mu.Lock()
	defer rh.mu.Unlock()
	rh.hooks = append(rh.hooks, fn)
}

// Trigger invokes every hook synchronously, in registration order.
func (rh *ReloadHooks) Trigger() {
	rh.mu.Lock()
	hooks := append([]func(){}, rh.hooks...)
	rh.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

// Len returns the number of registered hooks.
func (rh *ReloadHooks) Len() int {
	rh.mu.Lock()
	defer rh.mu.Unlock()
	return len(rh.hooks)
}

// WatchFile triggers hooks whenever path is written, created or renamed into
// place. The parent directory is watched so editors that replace the file
// atomically are covered. Blocks until ctx is done or the watcher fails.
func WatchFile(ctx context.Context, path string, hooks *ReloadHooks) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	const interesting = fsnotify.Write | fsnotify.Create | fsnotify.Rename
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs || event.Op&interesting == 0 {
				continue
			}
			logger.Debug("Configuration file changed", "path", abs, "op", event.Op.String())
			hooks.Trigger()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}
