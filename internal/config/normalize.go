package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePipeline()
	c.normalizePublishing()
	c.normalizeLogging()
	c.normalizeNotifications()
	c.normalizeTracing()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("CURATOR_DATA_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.DataDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ExportDir) == "" {
		c.Paths.ExportDir = defaultExportDir
	}
	if c.Paths.ExportDir, err = expandPath(c.Paths.ExportDir); err != nil {
		return fmt.Errorf("paths.export_dir: %w", err)
	}
	if value, ok := os.LookupEnv("CURATOR_API_BIND"); ok && strings.TrimSpace(value) != "" {
		c.Paths.APIBind = value
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = defaultPipelineWorkers
	}
	if c.Pipeline.MaxNameLength <= 0 {
		c.Pipeline.MaxNameLength = defaultMaxNameLength
	}
	attrs := make([]string, 0, len(c.Pipeline.RequiredAttributes))
	seen := make(map[string]struct{}, len(c.Pipeline.RequiredAttributes))
	for _, attr := range c.Pipeline.RequiredAttributes {
		normalized := strings.ToLower(strings.TrimSpace(attr))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		attrs = append(attrs, normalized)
	}
	c.Pipeline.RequiredAttributes = attrs
}

func (c *Config) normalizePublishing() {
	if c.Publishing.RequestTimeout <= 0 {
		c.Publishing.RequestTimeout = defaultPublishTimeout
	}
	c.Publishing.DefaultKind = strings.ToLower(strings.TrimSpace(c.Publishing.DefaultKind))
	if c.Publishing.DefaultKind == "" {
		c.Publishing.DefaultKind = defaultPublishKind
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	if value, ok := os.LookupEnv("CURATOR_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeTracing() {
	c.Tracing.ServiceName = strings.TrimSpace(c.Tracing.ServiceName)
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = defaultTracingServiceName
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
}
