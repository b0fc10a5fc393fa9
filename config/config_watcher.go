package config

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Verify at compile time that ConfigWatcher implements Watcher
var _ Watcher = (*ConfigWatcher)(nil)

// ConfigWatcher manages configuration hot reloading. A changed file is
// reloaded, validated, and, only if valid, swapped in atomically; subscribers
// such as the CORS layer pick up the new allow-list on their next request.
type ConfigWatcher struct {
	currentConfig atomic.Value
	configPath    string
	watcher       *fsnotify.Watcher
	logger        *zap.Logger

	mu          sync.Mutex
	subscribers []chan<- *Config
}

// NewConfigWatcher creates a new configuration watcher for the given path.
func NewConfigWatcher(configPath string, logger *zap.Logger) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	cw := &ConfigWatcher{
		configPath: configPath,
		watcher:    watcher,
		logger:     logger,
	}

	initialConfig, err := LoadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial config: %w", err)
	}
	cw.currentConfig.Store(initialConfig)

	if err := watcher.Add(configPath); err != nil {
		return nil, fmt.Errorf("failed to watch config file: %w", err)
	}

	go cw.watchConfig()
	return cw, nil
}

// Subscribe allows components to receive config updates. Safe to call while
// the watch goroutine is already delivering reloads.
func (cw *ConfigWatcher) Subscribe() <-chan *Config {
	ch := make(chan *Config, 1)
	cw.mu.Lock()
	cw.subscribers = append(cw.subscribers, ch)
	cw.mu.Unlock()
	return ch
}

// GetCurrentConfig returns the current configuration thread-safely.
func (cw *ConfigWatcher) GetCurrentConfig() *Config {
	return cw.currentConfig.Load().(*Config)
}

func (cw *ConfigWatcher) watchConfig() {
	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write {
				cw.handleConfigChange()
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Error("Config watcher error", zap.Error(err))
		}
	}
}

func (cw *ConfigWatcher) handleConfigChange() {
	cw.logger.Info("Detected config file change, reloading...")

	newConfig, err := LoadFile(cw.configPath)
	if err != nil {
		cw.logger.Error("Failed to load new config", zap.Error(err))
		return
	}

	cw.currentConfig.Store(newConfig)

	cw.mu.Lock()
	subscribers := make([]chan<- *Config, len(cw.subscribers))
	copy(subscribers, cw.subscribers)
	cw.mu.Unlock()

	for _, sub := range subscribers {
		select {
		case sub <- newConfig:
		default:
			// Skip if subscriber is not ready
		}
	}

	cw.logger.Info("Configuration reloaded successfully")
}

// Close stops the watcher.
func (cw *ConfigWatcher) Close() error {
	return cw.watcher.Close()
}
