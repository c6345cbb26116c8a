package server

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"resumeforge/internal/errors"
	"resumeforge/internal/render"

	"github.com/fsnotify/fsnotify"
)

// resumeCache holds the canonical resume content and the static contact info
// extracted from it. Reloaded by the watcher when the file changes.
type resumeCache struct {
	mu      sync.RWMutex
	path    string
	content string
	info    render.StaticInfo
}

func newResumeCache(path string) *resumeCache {
	return &resumeCache{path: path, info: render.DefaultStaticInfo()}
}

// reload re-reads the canonical resume and re-extracts static info
func (c *resumeCache) reload() error {
	if c.path == "" {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"Canonical resume path is not configured", nil)
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return errors.NewIOError(errors.ErrCodeFileNotReadable,
			"Cannot read canonical resume", err).WithContext("path", c.path)
	}

	content := string(data)
	info := render.ExtractStaticInfo(content)

	c.mu.Lock()
	c.content = content
	c.info = info
	c.mu.Unlock()

	return nil
}

// get returns the cached resume content and static info
func (c *resumeCache) get() (string, render.StaticInfo) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.content, c.info
}

// ResumeWatcher reloads the resume cache when the canonical resume file
// changes on disk.
type ResumeWatcher struct {
	cache    *resumeCache
	watcher  *fsnotify.Watcher
	logger   *errors.Logger
	debounce time.Duration
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewResumeWatcher watches the directory containing the canonical resume.
// Watching the directory rather than the file survives editors that replace
// the file on save.
func NewResumeWatcher(cache *resumeCache, logger *errors.Logger) (*ResumeWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.NewInternalError("WATCHER_CREATE_FAILED",
			"Failed to create file watcher", err)
	}

	dir := filepath.Dir(cache.path)
	if err := watcher.Add(dir); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Warn("Failed to close file watcher", "error", closeErr)
		}
		return nil, errors.NewIOError("WATCH_DIR_FAILED",
			"Failed to watch resume directory", err).WithContext("dir", dir)
	}

	rw := &ResumeWatcher{
		cache:    cache,
		watcher:  watcher,
		logger:   logger,
		debounce: 500 * time.Millisecond,
		done:     make(chan struct{}),
	}

	rw.wg.Add(1)
	go rw.run()

	return rw, nil
}

func (rw *ResumeWatcher) run() {
	defer rw.wg.Done()

	var timer *time.Timer
	target := filepath.Clean(rw.cache.path)

	for {
		select {
		case event, ok := <-rw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			// Debounce bursts of events from a single save
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(rw.debounce, func() {
				if err := rw.cache.reload(); err != nil {
					rw.logger.LogError(err, "Failed to reload canonical resume")
					return
				}
				rw.logger.Info("Canonical resume reloaded", "path", rw.cache.path)
			})

		case err, ok := <-rw.watcher.Errors:
			if !ok {
				return
			}
			rw.logger.LogError(err, "Resume watcher error")

		case <-rw.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// Stop shuts the watcher down and waits for the event loop to exit
func (rw *ResumeWatcher) Stop() error {
	close(rw.done)
	err := rw.watcher.Close()
	rw.wg.Wait()
	return err
}
