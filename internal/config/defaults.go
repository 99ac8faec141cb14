package config

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// WorkspaceDefaultApplier handles Workspace configuration defaults.
type WorkspaceDefaultApplier struct{}

func (w *WorkspaceDefaultApplier) Domain() string { return "workspace" }

func (w *WorkspaceDefaultApplier) ApplyDefaults(cfg *Config) error {
	// BaseDir stays empty by default; the workspace manager resolves the OS
	// temp dir at runtime so configs remain portable across machines.
	if cfg.Workspace.SubdirName == "" {
		cfg.Workspace.SubdirName = "working"
	}
	if cfg.Workspace.StaleAfter == "" {
		cfg.Workspace.StaleAfter = "24h"
	}
	return nil
}

// GeneratorDefaultApplier handles Generator configuration defaults.
type GeneratorDefaultApplier struct{}

func (g *GeneratorDefaultApplier) Domain() string { return "generator" }

func (g *GeneratorDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Generator.SourceType == "" {
		cfg.Generator.SourceType = SourceTypeAuto
	} else {
		if st := NormalizeSourceType(string(cfg.Generator.SourceType)); st != "" {
			cfg.Generator.SourceType = st
		} else {
			cfg.Generator.SourceType = SourceTypeAuto
		}
	}
	if cfg.Generator.DefaultPackage == "" {
		cfg.Generator.DefaultPackage = "com.example"
	}
	return nil
}

// CompilerDefaultApplier handles Compiler configuration defaults.
type CompilerDefaultApplier struct{}

func (c *CompilerDefaultApplier) Domain() string { return "compiler" }

func (c *CompilerDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Compiler.GoBinary == "" {
		cfg.Compiler.GoBinary = "go"
	}
	if cfg.Compiler.BuildMode == "" {
		cfg.Compiler.BuildMode = BuildModePlugin
	} else {
		if bm := NormalizeBuildMode(string(cfg.Compiler.BuildMode)); bm != "" {
			cfg.Compiler.BuildMode = bm
		} else {
			cfg.Compiler.BuildMode = BuildModePlugin
		}
	}
	if cfg.Compiler.Timeout == "" {
		cfg.Compiler.Timeout = "2m"
	}
	return nil
}

// LoaderDefaultApplier handles Loader configuration defaults.
type LoaderDefaultApplier struct{}

func (l *LoaderDefaultApplier) Domain() string { return "loader" }

func (l *LoaderDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Loader.SymbolName == "" {
		cfg.Loader.SymbolName = "Factories"
	}
	return nil
}

// RetryDefaultApplier handles Retry configuration defaults.
type RetryDefaultApplier struct{}

func (r *RetryDefaultApplier) Domain() string { return "retry" }

func (r *RetryDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Retry.MaxRetries < 0 {
		cfg.Retry.MaxRetries = 0
	}
	if cfg.Retry.MaxRetries == 0 { // default 2 retries (3 total attempts) unless explicitly set >0
		cfg.Retry.MaxRetries = 2
	}

	if cfg.Retry.Backoff == "" {
		cfg.Retry.Backoff = RetryBackoffLinear
	} else {
		cfg.Retry.Backoff = NormalizeRetryBackoff(string(cfg.Retry.Backoff))
		if cfg.Retry.Backoff == "" { // fallback to default if unknown
			cfg.Retry.Backoff = RetryBackoffLinear
		}
	}

	if cfg.Retry.InitialDelay == "" {
		cfg.Retry.InitialDelay = "1s"
	}
	if cfg.Retry.MaxDelay == "" {
		cfg.Retry.MaxDelay = "30s"
	}

	return nil
}

// WatchDefaultApplier handles Watch configuration defaults.
type WatchDefaultApplier struct{}

func (w *WatchDefaultApplier) Domain() string { return "watch" }

func (w *WatchDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Watch == nil {
		return nil // No watch config to apply defaults to
	}

	if cfg.Watch.Debounce == "" {
		cfg.Watch.Debounce = "2s"
	}
	if cfg.Watch.ConcurrentRuns == 0 {
		cfg.Watch.ConcurrentRuns = 2
	}
	if cfg.Watch.QueueSize == 0 {
		cfg.Watch.QueueSize = 100
	}
	if cfg.Watch.JanitorSchedule == "" {
		cfg.Watch.JanitorSchedule = "0 */6 * * *" // Every 6 hours
	}

	return nil
}

// HistoryDefaultApplier handles History configuration defaults.
type HistoryDefaultApplier struct{}

func (h *HistoryDefaultApplier) Domain() string { return "history" }

func (h *HistoryDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.History == nil {
		return nil
	}

	if cfg.History.Path == "" {
		cfg.History.Path = "./structgen-history.db"
	}
	if cfg.History.Keep == 0 {
		cfg.History.Keep = 500
	}

	return nil
}

// NotifyDefaultApplier handles Notify configuration defaults.
type NotifyDefaultApplier struct{}

func (n *NotifyDefaultApplier) Domain() string { return "notify" }

func (n *NotifyDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Notify == nil {
		return nil
	}

	if cfg.Notify.NATSURL == "" {
		cfg.Notify.NATSURL = "nats://localhost:4222"
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = "structgen.runs"
	}

	return nil
}

// MonitoringDefaultApplier handles Monitoring configuration defaults.
type MonitoringDefaultApplier struct{}

func (m *MonitoringDefaultApplier) Domain() string { return "monitoring" }

func (m *MonitoringDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Monitoring == nil {
		cfg.Monitoring = &MonitoringConfig{}
	}

	if cfg.Monitoring.Metrics.Path == "" {
		cfg.Monitoring.Metrics.Path = "/metrics"
	}
	if cfg.Monitoring.Logging.Level == "" {
		cfg.Monitoring.Logging.Level = LogLevelInfo
	} else {
		lvl := NormalizeLogLevel(string(cfg.Monitoring.Logging.Level))
		if lvl != "" {
			cfg.Monitoring.Logging.Level = lvl
		}
	}
	if cfg.Monitoring.Logging.Format == "" {
		cfg.Monitoring.Logging.Format = LogFormatText
	} else {
		fmtVal := NormalizeLogFormat(string(cfg.Monitoring.Logging.Format))
		if fmtVal != "" {
			cfg.Monitoring.Logging.Format = fmtVal
		}
	}

	return nil
}

// SchemaDefaultApplier handles per-schema configuration defaults.
type SchemaDefaultApplier struct{}

func (s *SchemaDefaultApplier) Domain() string { return "schemas" }

func (s *SchemaDefaultApplier) ApplyDefaults(cfg *Config) error {
	for i := range cfg.Schemas {
		if cfg.Schemas[i].Package == "" {
			cfg.Schemas[i].Package = cfg.Generator.DefaultPackage
		}
	}

	return nil
}
