package config

// Watcher defines the interface for configuration hot reloading. Components
// that react to configuration changes depend on this interface so tests can
// substitute a static implementation.
type Watcher interface {
	// GetCurrentConfig returns the current configuration
	GetCurrentConfig() *Config

	// Subscribe returns a channel that receives new configurations
	Subscribe() <-chan *Config

	// Close stops the watcher and releases resources
	Close() error
}
