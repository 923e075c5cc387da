package filewatch

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// UntilModifyContext returns a context that is canceled
// when one of target files is modified (= written, created, removed, or renamed).
//
// Directories containing target files are watched, so that a file replaced by
// rename (as editors and config map mounts do) is still tracked.
// Changes on other files in these directories are ignored.
//
// # Args
//
// - ctx: context.Context
//
// - targetFilePath ...string: file pathes to be watched.
//
// # Returns
//
// - context.Context: context that is canceled when one of target files is modified.
// context.Cause tells which file is modified.
//
// - func(): cancel function.
//
// - error: error caused when it fails to start watching files.
//
// If error is not nil, both of the the context and the cancel function are nil.
func UntilModifyContext(ctx context.Context, targetFilePath ...string) (context.Context, func(), error) {
	targets := map[string]struct{}{}
	dirs := map[string]struct{}{}
	for _, f := range targetFilePath {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, nil, err
		}
		targets[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	for d := range dirs {
		if err := w.Add(d); err != nil {
			w.Close()
			return nil, nil, err
		}
	}

	cctx, cancel := context.WithCancelCause(ctx)
	go func() {
		defer w.Close()

		for {
			select {
			case <-cctx.Done():
				return
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				cancel(fmt.Errorf("watching files: %w", err))
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				name, err := filepath.Abs(event.Name)
				if err != nil {
					continue
				}
				if _, ok := targets[name]; !ok {
					continue
				}
				if event.Op == fsnotify.Chmod {
					continue
				}
				cancel(fmt.Errorf("%s is updated (%s)", event.Name, event.Op.String()))
				return
			}
		}
	}()

	return cctx, func() { cancel(nil) }, nil
}
