package configfile

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch calls onChange with freshly read values whenever the file is
// written, created or renamed into place. It blocks until ctx is done.
// The parent directory is watched so editors that replace the file are seen.
func (f *File) Watch(ctx context.Context, onChange func(Values)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	target, err := filepath.Abs(f.path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch config directory: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || name != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			values, err := f.Read()
			if err != nil {
				log.Printf("[configfile] reload %s failed: %v", f.path, err)
				continue
			}
			onChange(values)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[configfile] watcher error: %v", err)
		}
	}
}
