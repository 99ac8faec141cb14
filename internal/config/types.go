package config

import "strings"

// SchemaRef declares one schema the tool should process. Location accepts a
// filesystem path, a file:// or http(s):// URL, or a git+https locator of the
// form git+https://host/repo.git//path/schema.json@ref.
type SchemaRef struct {
	Location string `yaml:"location"`
	Package  string `yaml:"package,omitempty"` // dotted target package, defaults to generator.default_package
	Name     string `yaml:"name,omitempty"`    // root type name override; derived from schema title or filename when empty
}

// WorkspaceConfig controls where generated sources and compiled artifacts live.
type WorkspaceConfig struct {
	// BaseDir is the parent directory for workspaces. Empty means the OS temp dir.
	BaseDir string `yaml:"base_dir,omitempty"`
	// Persistent switches from per-run throwaway directories to a single reused
	// directory under BaseDir. Persistent workspaces are never removed on exit.
	Persistent bool `yaml:"persistent,omitempty"`
	// SubdirName is the directory name used inside BaseDir in persistent mode.
	SubdirName string `yaml:"subdir_name,omitempty"`
	// Keep disables exit-time removal of throwaway workspaces (debugging aid).
	Keep bool `yaml:"keep,omitempty"`
	// StaleAfter is the age threshold the sweep command and the watch-mode
	// janitor use when collecting leftover workspaces from crashed runs.
	StaleAfter string `yaml:"stale_after,omitempty"`
}

// GeneratorConfig holds schema-to-source generation options.
type GeneratorConfig struct {
	SourceType SourceType `yaml:"source_type,omitempty"` // json|yaml|auto
	// DefaultPackage is the dotted package applied to schemas that do not
	// declare one themselves (e.g. "com.example").
	DefaultPackage string `yaml:"default_package,omitempty"`
	// UsePrimitives emits value types for optional fields instead of pointers.
	UsePrimitives bool `yaml:"use_primitives,omitempty"`
	// GenerateBuilders emits fluent WithX setters alongside plain accessors.
	GenerateBuilders bool `yaml:"generate_builders,omitempty"`
}

// SourceType enumerates accepted schema input formats.
type SourceType string

const (
	SourceTypeJSON SourceType = "json"
	SourceTypeYAML SourceType = "yaml"
	SourceTypeAuto SourceType = "auto"
)

// NormalizeSourceType canonicalizes user input returning empty string if unknown.
func NormalizeSourceType(raw string) SourceType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(SourceTypeJSON):
		return SourceTypeJSON
	case string(SourceTypeYAML):
		return SourceTypeYAML
	case string(SourceTypeAuto):
		return SourceTypeAuto
	default:
		return ""
	}
}

// CompilerConfig controls the external toolchain invocation.
type CompilerConfig struct {
	// GoBinary is the compiler executable resolved via PATH when not absolute.
	GoBinary string `yaml:"go_binary,omitempty"`
	// BuildMode selects plugin (loadable artifact) or archive (compile check only).
	BuildMode BuildMode `yaml:"build_mode,omitempty"`
	// Timeout bounds a single compile invocation (duration string).
	Timeout string `yaml:"timeout,omitempty"`
	// Env lists extra KEY=VALUE pairs appended to the compiler environment.
	Env []string `yaml:"env,omitempty"`
}

// BuildMode enumerates supported compiler output modes.
type BuildMode string

const (
	BuildModePlugin  BuildMode = "plugin"
	BuildModeArchive BuildMode = "archive"
)

// NormalizeBuildMode canonicalizes user input returning empty string if unknown.
func NormalizeBuildMode(raw string) BuildMode {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(BuildModePlugin):
		return BuildModePlugin
	case string(BuildModeArchive):
		return BuildModeArchive
	default:
		return ""
	}
}

// LoaderConfig controls how compiled artifacts are opened and resolved.
type LoaderConfig struct {
	// SymbolName is the exported symbol looked up in loaded artifacts.
	SymbolName string `yaml:"symbol_name,omitempty"`
}

// RetryConfig holds the retry policy applied to transient schema fetch failures.
type RetryConfig struct {
	MaxRetries   int              `yaml:"max_retries,omitempty"`   // retry attempts after the first (default 2)
	Backoff      RetryBackoffMode `yaml:"backoff,omitempty"`       // fixed|linear|exponential (default linear)
	InitialDelay string           `yaml:"initial_delay,omitempty"` // duration string (default 1s)
	MaxDelay     string           `yaml:"max_delay,omitempty"`     // cap for exponential (default 30s)
}

// WatchConfig holds watch-mode settings. A nil section disables watch mode
// defaults entirely; the watch command requires it.
type WatchConfig struct {
	// Paths lists directories observed for schema changes.
	Paths []string `yaml:"paths,omitempty"`
	// Debounce is the quiet period after the last filesystem event before a run starts.
	Debounce string `yaml:"debounce,omitempty"`
	// ConcurrentRuns caps parallel generate-and-compile runs.
	ConcurrentRuns int `yaml:"concurrent_runs,omitempty"`
	// QueueSize caps pending change notifications before coalescing drops the oldest.
	QueueSize int `yaml:"queue_size,omitempty"`
	// JanitorSchedule is a cron expression for the stale-workspace sweep.
	JanitorSchedule string `yaml:"janitor_schedule,omitempty"`
	// MetricsAddr, when set, exposes the Prometheus endpoint on this listen address.
	MetricsAddr string `yaml:"metrics_addr,omitempty"`
}

// HistoryConfig controls the run history store.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"` // SQLite database file
	Keep    int    `yaml:"keep,omitempty"` // retained run rows, oldest pruned first
}

// NotifyConfig controls run-completion event publishing.
type NotifyConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// MonitoringConfig represents monitoring and observability configuration.
type MonitoringConfig struct {
	Metrics MonitoringMetrics `yaml:"metrics"`
	Logging MonitoringLogging `yaml:"logging"`
}

// MonitoringMetrics represents metrics configuration.
type MonitoringMetrics struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MonitoringLogging represents logging configuration.
type MonitoringLogging struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}
