package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/kenchiku/pkg/observability"
)

// FileConfig is the YAML overlay applied on top of environment
// configuration. Only a small operational subset is file-configurable.
type FileConfig struct {
	LogLevel     string `yaml:"log_level"`
	CacheEnabled *bool  `yaml:"cache_enabled"`
	CacheTTL     string `yaml:"cache_ttl"`
}

// LoadFile reads and parses a YAML overlay file.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &fc, nil
}

// apply overlays the file values onto cfg.
func (fc *FileConfig) apply(cfg *Config) {
	if fc.LogLevel != "" {
		cfg.Observability.LogLevel = observability.ParseLogLevel(fc.LogLevel)
	}
	if fc.CacheEnabled != nil {
		cfg.Storage.CacheEnabled = *fc.CacheEnabled
	}
	if fc.CacheTTL != "" {
		if ttl, err := time.ParseDuration(fc.CacheTTL); err == nil && ttl > 0 {
			cfg.Storage.CacheTTL = ttl
		}
	}
}

// WatchFile watches the overlay file and re-applies the log level on every
// write until done is closed. Editors replace files on save, so the parent
// directory is watched and events filtered by name.
func WatchFile(path string, logger *observability.Logger, done <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				fc, err := LoadFile(path)
				if err != nil {
					logger.WithError(err).Warn("ignoring unreadable config file change")
					continue
				}
				if fc.LogLevel != "" {
					level := observability.ParseLogLevel(fc.LogLevel)
					logger.SetLevel(level)
					logger.WithField("level", level.String()).Info("log level updated from config file")
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.WithError(err).Warn("config file watcher error")
			case <-done:
				return
			}
		}
	}()
	return nil
}
