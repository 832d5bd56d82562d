// Package watch hot-reloads the keyword tables when the config file changes,
// so classifier vocabulary can be tuned without a restart.
package watch

import (
	"context"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"rootsource/config"
)

// Watcher monitors the config file and pushes reloaded keyword tables to the
// apply callback.
type Watcher struct {
	path    string
	enabled bool
	apply   func(config.KeywordConfig)
}

func New(path string, enabled bool, apply func(config.KeywordConfig)) *Watcher {
	return &Watcher{path: path, enabled: enabled, apply: apply}
}

func (w *Watcher) Start(ctx context.Context) error {
	if !w.enabled {
		log.Println("keyword watcher disabled")
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case evt := <-watcher.Events:
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if filepath.Clean(evt.Name) != filepath.Clean(w.path) {
					continue
				}
				kw, err := config.LoadKeywordConfig(w.path)
				if err != nil {
					log.Printf("keyword reload failed path=%s err=%v (keeping previous tables)", w.path, err)
					continue
				}
				log.Printf("keyword tables reloaded path=%s categories=%d", w.path, len(kw.Categories))
				w.apply(kw)
			case err := <-watcher.Errors:
				log.Printf("watcher error: %v", err)
			}
		}
	}()
	// Watch the directory: editors replace files on save, which would
	// otherwise drop the watch on the inode.
	return watcher.Add(filepath.Dir(w.path))
}
