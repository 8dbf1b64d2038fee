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
	c.normalizeDetector()
	c.normalizeSync()
	c.normalizeCamera()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ImageDir) == "" {
		c.Paths.ImageDir = defaultImageDir
	}
	if c.Paths.ImageDir, err = expandPath(c.Paths.ImageDir); err != nil {
		return fmt.Errorf("paths.image_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("FACET_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeDetector() {
	c.Detector.BaseURL = strings.TrimSpace(c.Detector.BaseURL)
	if c.Detector.BaseURL == "" {
		if value, ok := os.LookupEnv("FACET_DETECTOR_URL"); ok {
			c.Detector.BaseURL = strings.TrimSpace(value)
		}
	}
	if c.Detector.BaseURL == "" {
		c.Detector.BaseURL = defaultDetectorBaseURL
	}
	c.Detector.BaseURL = strings.TrimRight(c.Detector.BaseURL, "/")
	if c.Detector.HealthTimeoutSeconds <= 0 {
		c.Detector.HealthTimeoutSeconds = defaultHealthTimeoutSeconds
	}
	if c.Detector.DetectTimeoutSeconds <= 0 {
		c.Detector.DetectTimeoutSeconds = defaultDetectTimeoutSeconds
	}
	if c.Detector.AnomalyThreshold <= 0 {
		c.Detector.AnomalyThreshold = defaultAnomalyThreshold
	}
}

func (c *Config) normalizeSync() {
	if c.Sync.CheckIntervalSeconds <= 0 {
		c.Sync.CheckIntervalSeconds = defaultSyncCheckInterval
	}
	if c.Sync.RetryMaxAttempts <= 0 {
		c.Sync.RetryMaxAttempts = defaultSyncRetryMaxAttempts
	}
	if c.Sync.RetryBackoffSeconds <= 0 {
		c.Sync.RetryBackoffSeconds = defaultSyncRetryBackoff
	}
	if c.Sync.PageSize <= 0 {
		c.Sync.PageSize = defaultSyncPageSize
	}
}

func (c *Config) normalizeCamera() {
	c.Camera.Subsystem = strings.TrimSpace(c.Camera.Subsystem)
	if c.Camera.Subsystem == "" {
		c.Camera.Subsystem = defaultCameraSubsystem
	}
	if c.Camera.MonitorTimeout <= 0 {
		c.Camera.MonitorTimeout = defaultCameraMonitorTimeout
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
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
