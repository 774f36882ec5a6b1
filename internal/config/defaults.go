package config

const (
	defaultDataDir            = "~/.local/share/curator"
	defaultExportDir          = "~/.local/share/curator/exports"
	defaultAPIBind            = "127.0.0.1:7390"
	defaultPipelineWorkers    = 4
	defaultMaxNameLength      = 200
	defaultPublishTimeout     = 30
	defaultPublishKind        = "none"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultTracingServiceName = "curator"
	defaultNtfyTimeout        = 10
)

var defaultRequiredAttributes = []string{"sku", "name", "brand"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	required := make([]string, len(defaultRequiredAttributes))
	copy(required, defaultRequiredAttributes)
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			ExportDir: defaultExportDir,
			APIBind:   defaultAPIBind,
		},
		Pipeline: Pipeline{
			Workers:            defaultPipelineWorkers,
			MaxNameLength:      defaultMaxNameLength,
			RequiredAttributes: required,
		},
		Publishing: Publishing{
			RequestTimeout: defaultPublishTimeout,
			DefaultKind:    defaultPublishKind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Tracing: Tracing{
			ServiceName: defaultTracingServiceName,
		},
	}
}
