package agentmark

import (
	"go.uber.org/zap"
)

// Option is a functional option for configuring the Engine.
type Option func(*engineConfig)

// engineConfig holds the internal configuration for an Engine.
type engineConfig struct {
	maxDepth       int
	maxConcurrency int
	plugins        map[string]TagPlugin
	logger         *zap.Logger
}

// defaultEngineConfig returns the default engine configuration.
func defaultEngineConfig() *engineConfig {
	return &engineConfig{
		maxDepth:       DefaultMaxDepth,
		maxConcurrency: DefaultMaxConcurrency,
		plugins:        make(map[string]TagPlugin),
		logger:         nil,
	}
}

// WithMaxDepth sets the maximum nesting depth of the transform.
// Use 0 for unlimited depth.
// Default: 100
func WithMaxDepth(depth int) Option {
	return func(c *engineConfig) {
		c.maxDepth = depth
	}
}

// WithMaxConcurrency limits how many extraction tasks of one compilation
// run at once. Use 0 for no limit.
// Default: 0
func WithMaxConcurrency(n int) Option {
	return func(c *engineConfig) {
		c.maxConcurrency = n
	}
}

// WithTagPlugin registers a custom tag plugin under name.
// Built-in tag names cannot be overridden.
func WithTagPlugin(name string, plugin TagPlugin) Option {
	return func(c *engineConfig) {
		c.plugins[name] = plugin
	}
}

// WithLogger sets the logger for the engine.
// Default: nil (no logging)
func WithLogger(logger *zap.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}
