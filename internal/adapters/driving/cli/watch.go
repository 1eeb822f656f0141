package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/quizhunter/internal/adapters/driven/corpus"
	"github.com/custodia-labs/quizhunter/internal/core/domain"
	"github.com/custodia-labs/quizhunter/internal/core/ports/driven"
	"github.com/custodia-labs/quizhunter/internal/core/services"
	"github.com/custodia-labs/quizhunter/internal/logger"
)

// watchDebounce collapses the burst of events a single save produces.
var watchDebounce = 500 * time.Millisecond

// watchCorpus calls onChange after path, or any corpus file inside it when it
// is a directory, has been written. It returns when ctx is done.
func watchCorpus(ctx context.Context, path string, onChange func(context.Context) error) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the parent of a file so editors that replace it by rename are seen.
	dir, target := path, ""
	if !info.IsDir() {
		dir, target = filepath.Dir(path), filepath.Clean(path)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	logger.Info("Watching %s for changes", path)

	relevant := func(ev fsnotify.Event) bool {
		if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
			!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
			return false
		}
		if target != "" {
			return filepath.Clean(ev.Name) == target
		}
		ext := strings.ToLower(filepath.Ext(ev.Name))
		return ext == ".json" || ext == ".csv"
	}

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if relevant(ev) {
				logger.Debug("Corpus event: %s", ev)
				timer.Reset(watchDebounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-timer.C:
			if err := onChange(ctx); err != nil {
				logger.Error("Rebuild failed, keeping the current index: %v", err)
			}
		}
	}
}

// reloader rebuilds the engine from its corpus and installs it.
type reloader struct {
	settings *domain.AppSettings
	embedder driven.EmbeddingService
	source   corpus.Source
	target   *services.SwappableRetrieval
}

// reload builds a new engine and swaps it in; the current one keeps serving
// until the new one is ready.
func (r *reloader) reload(ctx context.Context) error {
	logger.Section("Corpus Reload")
	engine, err := buildFromSource(ctx, r.settings, r.embedder, r.source)
	if err != nil {
		return err
	}
	r.target.Swap(engine)
	logger.Info("Swapped in build %s with %d items", engine.BuildID(), engine.Len())
	return nil
}
