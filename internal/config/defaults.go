package config

const (
	defaultDataDir              = "~/.local/share/facet"
	defaultLogDir               = "~/.local/share/facet/logs"
	defaultImageDir             = "~/.local/share/facet/images"
	defaultAPIBind              = "127.0.0.1:7419"
	defaultDetectorBaseURL      = "http://127.0.0.1:8000"
	defaultHealthTimeoutSeconds = 5
	defaultDetectTimeoutSeconds = 30
	defaultAnomalyThreshold     = 0.3
	defaultSyncCheckInterval    = 5
	defaultSyncRetryMaxAttempts = 3
	defaultSyncRetryBackoff     = 2
	defaultSyncPageSize         = 50
	defaultCameraSubsystem      = "video4linux"
	defaultCameraMonitorTimeout = 5
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
			ImageDir: defaultImageDir,
			APIBind:  defaultAPIBind,
		},
		Detector: Detector{
			BaseURL:              defaultDetectorBaseURL,
			HealthTimeoutSeconds: defaultHealthTimeoutSeconds,
			DetectTimeoutSeconds: defaultDetectTimeoutSeconds,
			AnomalyThreshold:     defaultAnomalyThreshold,
		},
		Sync: Sync{
			CheckIntervalSeconds: defaultSyncCheckInterval,
			RetryMaxAttempts:     defaultSyncRetryMaxAttempts,
			RetryBackoffSeconds:  defaultSyncRetryBackoff,
			PageSize:             defaultSyncPageSize,
		},
		Camera: Camera{
			Subsystem:      defaultCameraSubsystem,
			MonitorTimeout: defaultCameraMonitorTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
