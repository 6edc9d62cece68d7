package filewatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// UntilModifyContext derives a context that is canceled when any of the
// named files changes on disk (written, created, removed or renamed).
//
// The cause of the cancellation names the changed file. The returned
// cancel function stops watching and releases the watcher.
//
// On error, no watch is started and both the context and the cancel
// function are nil.
func UntilModifyContext(ctx context.Context, files ...string) (context.Context, func(), error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	for _, f := range files {
		if err := w.Add(f); err != nil {
			w.Close()
			return nil, nil, err
		}
	}

	cctx, cancel := context.WithCancelCause(ctx)

	// one event is enough. the watch is single-shot.
	go func() {
		defer w.Close()
		select {
		case <-cctx.Done():
		case event, ok := <-w.Events:
			if !ok {
				cancel(errors.New("file watcher is closed"))
				return
			}
			cancel(fmt.Errorf("%s is updated (%s)", event.Name, event.Op))
		case err, ok := <-w.Errors:
			if ok {
				cancel(err)
			}
		}
	}()

	return cctx, func() { cancel(nil) }, nil
}
