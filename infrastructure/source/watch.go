package source

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ahrav/go-luckydraw/internal/ports"
)

// Watch reloads the file each time it is written or replaced and passes
// the labels to onChange. Bursts of events closer together than debounce
// cause a single reload. Load and watcher failures go to onError, which
// may be nil. Watch blocks until ctx is done.
func (f *FileSource) Watch(ctx context.Context, debounce time.Duration, onChange func([]string), onError func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return ports.NewSourceError(f.path, "watch", err)
	}
	defer watcher.Close()

	// Editors often replace the file instead of writing it in place, so the
	// directory is watched and events are filtered by name.
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		return ports.NewSourceError(f.path, "watch", err)
	}

	report := func(err error) {
		if onError != nil {
			onError(err)
		}
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != f.path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			labels, err := f.Load(ctx)
			if err != nil {
				report(err)
				continue
			}
			onChange(labels)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			report(ports.NewSourceError(f.path, "watch", err))
		}
	}
}
