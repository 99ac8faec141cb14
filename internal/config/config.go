package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the config filename looked up when none is given.
const DefaultConfigFile = "structgen.yaml"

// Config represents the complete configuration for direct and watch modes.
type Config struct {
	Version    string            `yaml:"version"`
	Workspace  WorkspaceConfig   `yaml:"workspace,omitempty"`
	Generator  GeneratorConfig   `yaml:"generator,omitempty"`
	Compiler   CompilerConfig    `yaml:"compiler,omitempty"`
	Loader     LoaderConfig      `yaml:"loader,omitempty"`
	Retry      RetryConfig       `yaml:"retry,omitempty"`
	Watch      *WatchConfig      `yaml:"watch,omitempty"`
	History    *HistoryConfig    `yaml:"history,omitempty"`
	Notify     *NotifyConfig     `yaml:"notify,omitempty"`
	Monitoring *MonitoringConfig `yaml:"monitoring,omitempty"`
	// Schemas lists the schemas processed when no locations are passed on the
	// command line. CLI arguments take precedence over this block.
	Schemas []SchemaRef `yaml:"schemas,omitempty"`
}

// Load reads, expands, normalizes, defaults and validates a configuration file.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if path, err := loadEnvFile(); err == nil {
		slog.Debug("Loaded environment variables", "path", path)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Version == "" {
		return nil, fmt.Errorf("configuration version is required (expected 1.x)")
	}
	if !strings.HasPrefix(config.Version, "1.") {
		return nil, fmt.Errorf("unsupported configuration version: %s (expected 1.x)", config.Version)
	}

	// Normalization pass (case-fold enumerations, bounds, early coercions)
	if nres, nerr := NormalizeConfig(&config); nerr != nil {
		return nil, fmt.Errorf("normalize: %w", nerr)
	} else if nres != nil && len(nres.Warnings) > 0 {
		for _, w := range nres.Warnings {
			fmt.Fprintf(os.Stderr, "config normalization: %s\n", w)
		}
	}

	// Apply defaults (after normalization so canonical values drive defaults)
	if err := applyDefaults(&config); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// applyDefaults applies default values to configuration
func applyDefaults(config *Config) error {
	applier := NewDefaultApplier()
	return applier.ApplyDefaults(config)
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	return ValidateConfig(config)
}

// Default returns the built-in configuration used when no config file is
// present. Sections that require explicit opt-in (watch, history, notify)
// stay nil.
func Default() *Config {
	cfg := &Config{Version: "1.0"}
	// Defaults cannot fail on an empty config.
	_ = NewDefaultApplier().ApplyDefaults(cfg)
	return cfg
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Version: "1.0",
		Workspace: WorkspaceConfig{
			StaleAfter: "24h",
		},
		Generator: GeneratorConfig{
			SourceType:       SourceTypeAuto,
			DefaultPackage:   "com.example",
			GenerateBuilders: true,
		},
		Compiler: CompilerConfig{
			GoBinary:  "go",
			BuildMode: BuildModePlugin,
			Timeout:   "2m",
		},
		Loader: LoaderConfig{
			SymbolName: "Factories",
		},
		Retry: RetryConfig{
			MaxRetries:   2,
			Backoff:      RetryBackoffLinear,
			InitialDelay: "1s",
			MaxDelay:     "30s",
		},
		Watch: &WatchConfig{
			Paths:           []string{"./schemas"},
			Debounce:        "2s",
			ConcurrentRuns:  2,
			QueueSize:       100,
			JanitorSchedule: "0 */6 * * *",
			MetricsAddr:     ":9090",
		},
		History: &HistoryConfig{
			Enabled: true,
			Path:    "./structgen-history.db",
			Keep:    500,
		},
		Notify: &NotifyConfig{
			Enabled: false,
			NATSURL: "nats://localhost:4222",
			Subject: "structgen.runs",
		},
		Monitoring: &MonitoringConfig{
			Metrics: MonitoringMetrics{
				Enabled: true,
				Path:    "/metrics",
			},
			Logging: MonitoringLogging{
				Level:  "info",
				Format: "text",
			},
		},
		Schemas: []SchemaRef{
			{
				Location: "./schemas/address.json",
				Package:  "com.example",
				Name:     "Address",
			},
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// IsConfigVersion returns true if the config file version field starts with 1.
func IsConfigVersion(configPath string) (bool, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return false, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	expandedData := os.ExpandEnv(string(data))

	var versionCheck struct {
		Version string `yaml:"version"`
	}

	if err := yaml.Unmarshal([]byte(expandedData), &versionCheck); err != nil {
		return false, nil
	}

	return strings.HasPrefix(versionCheck.Version, "1."), nil
}
