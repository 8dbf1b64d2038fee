package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDetector(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateCamera(); err != nil {
		return err
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

func (c *Config) validateDetector() error {
	parsed, err := url.Parse(c.Detector.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("detector.base_url %q is not a valid URL", c.Detector.BaseURL)
	}
	if c.Detector.AnomalyThreshold <= 0 || c.Detector.AnomalyThreshold >= 1 {
		return errors.New("detector.anomaly_threshold must be between 0 and 1 exclusive")
	}
	return ensurePositiveMap(map[string]int{
		"detector.health_timeout": c.Detector.HealthTimeoutSeconds,
		"detector.detect_timeout": c.Detector.DetectTimeoutSeconds,
	})
}

func (c *Config) validateSync() error {
	return ensurePositiveMap(map[string]int{
		"sync.check_interval":     c.Sync.CheckIntervalSeconds,
		"sync.retry_max_attempts": c.Sync.RetryMaxAttempts,
		"sync.retry_backoff":      c.Sync.RetryBackoffSeconds,
		"sync.page_size":          c.Sync.PageSize,
	})
}

func (c *Config) validateCamera() error {
	if !c.Camera.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Camera.Subsystem) == "" {
		return errors.New("camera.subsystem must be set when camera.enabled is true")
	}
	if c.Camera.MonitorTimeout <= 0 {
		return errors.New("camera.monitor_timeout must be positive")
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
