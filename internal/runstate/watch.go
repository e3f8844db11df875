package runstate

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"piquant/internal"
)

// Watch waits for the expected files of incomplete runs to appear and calls
// onComplete for each one as it does. It returns when every run has
// completed or ctx is done. The parent directories must already exist.
func Watch(ctx context.Context, logger *internal.Logger, pending []Completion, onComplete func(Completion)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	waiting := make(map[string]Completion)
	for _, c := range pending {
		if c.Complete {
			continue
		}
		dir := filepath.Dir(c.Path)
		if err := watcher.Add(dir); err != nil {
			return err
		}
		waiting[c.Path] = c
	}

	// a file may have appeared before its directory was watched
	for path, c := range waiting {
		if isFile(path) {
			c.Complete = true
			delete(waiting, path)
			onComplete(c)
		}
	}

	for len(waiting) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Rename|fsnotify.Write) == 0 {
				continue
			}
			c, ok := waiting[event.Name]
			if !ok || !isFile(event.Name) {
				continue
			}
			logger.Debug("Observed %s", event.Name)
			c.Complete = true
			delete(waiting, event.Name)
			onComplete(c)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
	return nil
}
