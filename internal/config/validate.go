package config

import (
	"errors"
	"fmt"
	"strings"
)

var knownPublishKinds = map[string]struct{}{
	"none":    {},
	"file":    {},
	"webhook": {},
	"s3":      {},
}

var knownLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validatePublishing(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Notifications.NtfyTopic != "" && !strings.HasPrefix(c.Notifications.NtfyTopic, "http") {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", c.Notifications.NtfyTopic)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if err := ensurePositiveMap(map[string]int{
		"pipeline.workers":         c.Pipeline.Workers,
		"pipeline.max_name_length": c.Pipeline.MaxNameLength,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePublishing() error {
	if c.Publishing.RequestTimeout <= 0 {
		return errors.New("publishing.request_timeout must be positive (seconds)")
	}
	if _, ok := knownPublishKinds[c.Publishing.DefaultKind]; !ok {
		return fmt.Errorf("publishing.default_kind: unsupported value %q", c.Publishing.DefaultKind)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if _, ok := knownLogLevels[c.Logging.Level]; !ok {
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
