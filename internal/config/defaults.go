package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 5000
	DefaultWSPath          = "/ws"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultLogLevel        = "info"
	DefaultMetricsPath     = "/metrics"
)

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.WSPath == "" {
		c.Server.WSPath = DefaultWSPath
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}
