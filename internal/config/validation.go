package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// ValidateConfig validates the complete configuration structure.
func ValidateConfig(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

// configurationValidator coordinates validation across all configuration domains.
type configurationValidator struct {
	config *Config
}

// newConfigurationValidator creates a comprehensive configuration validator.
func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

// validate performs comprehensive configuration validation using domain-specific methods.
func (cv *configurationValidator) validate() error {
	// Validate in order of dependencies
	if err := cv.validateGenerator(); err != nil {
		return err
	}
	if err := cv.validateSchemas(); err != nil {
		return err
	}
	if err := cv.validateCompiler(); err != nil {
		return err
	}
	if err := cv.validateRetry(); err != nil {
		return err
	}
	if err := cv.validateWorkspace(); err != nil {
		return err
	}
	if err := cv.validateWatch(); err != nil {
		return err
	}
	if err := cv.validateHistory(); err != nil {
		return err
	}
	if err := cv.validateNotify(); err != nil {
		return err
	}
	return nil
}

// validateGenerator validates generation option settings.
func (cv *configurationValidator) validateGenerator() error {
	switch cv.config.Generator.SourceType {
	case SourceTypeJSON, SourceTypeYAML, SourceTypeAuto:
		// Valid source types
	default:
		return fmt.Errorf("invalid source_type: %s (allowed: json|yaml|auto)", cv.config.Generator.SourceType)
	}

	return validatePackageName("generator.default_package", cv.config.Generator.DefaultPackage)
}

// validateSchemas validates the declared schema list.
func (cv *configurationValidator) validateSchemas() error {
	seen := make(map[string]bool)

	for i, ref := range cv.config.Schemas {
		if strings.TrimSpace(ref.Location) == "" {
			return fmt.Errorf("schemas[%d]: location cannot be empty", i)
		}

		key := ref.Location + "\x00" + ref.Package
		if seen[key] {
			return fmt.Errorf("duplicate schema entry: %s (package %s)", ref.Location, ref.Package)
		}
		seen[key] = true

		if err := validatePackageName(fmt.Sprintf("schemas[%d].package", i), ref.Package); err != nil {
			return err
		}

		if ref.Name != "" {
			if err := validateTypeName(fmt.Sprintf("schemas[%d].name", i), ref.Name); err != nil {
				return err
			}
		}
	}

	return nil
}

// validateCompiler validates toolchain invocation settings.
func (cv *configurationValidator) validateCompiler() error {
	if cv.config.Compiler.GoBinary == "" {
		return errors.New("compiler.go_binary cannot be empty")
	}

	switch cv.config.Compiler.BuildMode {
	case BuildModePlugin, BuildModeArchive:
		// Valid build modes
	default:
		return fmt.Errorf("invalid build_mode: %s (allowed: plugin|archive)", cv.config.Compiler.BuildMode)
	}

	dur, err := time.ParseDuration(cv.config.Compiler.Timeout)
	if err != nil {
		return fmt.Errorf("invalid compiler.timeout: %s: %w", cv.config.Compiler.Timeout, err)
	}
	if dur <= 0 {
		return fmt.Errorf("compiler.timeout must be positive: %s", cv.config.Compiler.Timeout)
	}

	for _, kv := range cv.config.Compiler.Env {
		if !strings.Contains(kv, "=") {
			return fmt.Errorf("compiler.env entry must be KEY=VALUE: %s", kv)
		}
	}

	return nil
}

// validateRetry validates the retry policy.
func (cv *configurationValidator) validateRetry() error {
	switch cv.config.Retry.Backoff {
	case RetryBackoffFixed, RetryBackoffLinear, RetryBackoffExponential:
		// Valid backoff strategies
	default:
		return fmt.Errorf("invalid retry.backoff: %s (allowed: fixed|linear|exponential)", cv.config.Retry.Backoff)
	}

	if cv.config.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries cannot be negative: %d", cv.config.Retry.MaxRetries)
	}

	// Validate initial delay format
	initDur, err := time.ParseDuration(cv.config.Retry.InitialDelay)
	if err != nil {
		return fmt.Errorf("invalid retry.initial_delay: %s: %w", cv.config.Retry.InitialDelay, err)
	}

	// Validate max delay format
	maxDur, err := time.ParseDuration(cv.config.Retry.MaxDelay)
	if err != nil {
		return fmt.Errorf("invalid retry.max_delay: %s: %w", cv.config.Retry.MaxDelay, err)
	}

	// Validate relationship between delays
	if maxDur < initDur {
		return fmt.Errorf("retry.max_delay (%s) must be >= retry.initial_delay (%s)",
			cv.config.Retry.MaxDelay, cv.config.Retry.InitialDelay)
	}

	return nil
}

// validateWorkspace validates workspace placement settings.
func (cv *configurationValidator) validateWorkspace() error {
	sub := cv.config.Workspace.SubdirName
	if strings.ContainsAny(sub, `/\`) || sub == ".." {
		return fmt.Errorf("workspace.subdir_name must be a plain directory name: %s", sub)
	}

	dur, err := time.ParseDuration(cv.config.Workspace.StaleAfter)
	if err != nil {
		return fmt.Errorf("invalid workspace.stale_after: %s: %w", cv.config.Workspace.StaleAfter, err)
	}
	if dur <= 0 {
		return fmt.Errorf("workspace.stale_after must be positive: %s", cv.config.Workspace.StaleAfter)
	}

	return nil
}

// validateWatch validates watch-mode settings.
func (cv *configurationValidator) validateWatch() error {
	// Only validate if watch is configured
	if cv.config.Watch == nil {
		return nil
	}

	w := cv.config.Watch

	dur, err := time.ParseDuration(w.Debounce)
	if err != nil {
		return fmt.Errorf("invalid watch.debounce: %s: %w", w.Debounce, err)
	}
	if dur < 0 {
		return fmt.Errorf("watch.debounce cannot be negative: %s", w.Debounce)
	}

	if w.ConcurrentRuns < 1 {
		return fmt.Errorf("watch.concurrent_runs must be at least 1: %d", w.ConcurrentRuns)
	}
	if w.QueueSize < 1 {
		return fmt.Errorf("watch.queue_size must be at least 1: %d", w.QueueSize)
	}

	if fields := strings.Fields(w.JanitorSchedule); len(fields) != 5 && len(fields) != 6 {
		return fmt.Errorf("invalid watch.janitor_schedule: %s (expected 5 or 6 cron fields)", w.JanitorSchedule)
	}

	return nil
}

// validateHistory validates the run history store settings.
func (cv *configurationValidator) validateHistory() error {
	if cv.config.History == nil {
		return nil
	}

	if cv.config.History.Enabled && cv.config.History.Path == "" {
		return errors.New("history.path is required when history.enabled is true")
	}
	if cv.config.History.Keep < 0 {
		return fmt.Errorf("history.keep cannot be negative: %d", cv.config.History.Keep)
	}

	return nil
}

// validateNotify validates run event publishing settings.
func (cv *configurationValidator) validateNotify() error {
	if cv.config.Notify == nil {
		return nil
	}
	if !cv.config.Notify.Enabled {
		return nil
	}

	url := cv.config.Notify.NATSURL
	if url == "" {
		return errors.New("notify.nats_url is required when notify.enabled is true")
	}
	if !strings.HasPrefix(url, "nats://") && !strings.HasPrefix(url, "tls://") && !strings.HasPrefix(url, "ws://") {
		return fmt.Errorf("invalid notify.nats_url: %s (expected nats://, tls:// or ws:// scheme)", url)
	}

	subject := cv.config.Notify.Subject
	if subject == "" {
		return errors.New("notify.subject is required when notify.enabled is true")
	}
	if strings.ContainsAny(subject, " \t") || strings.HasPrefix(subject, ".") || strings.HasSuffix(subject, ".") {
		return fmt.Errorf("invalid notify.subject: %s", subject)
	}

	return nil
}

// validatePackageName checks a dotted package name (e.g. "com.example").
// Each segment must start with a letter or underscore and contain only
// letters, digits and underscores.
func validatePackageName(field, pkg string) error {
	if pkg == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}
	for _, seg := range strings.Split(pkg, ".") {
		if seg == "" {
			return fmt.Errorf("%s: empty segment in %q", field, pkg)
		}
		for i, r := range seg {
			if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
				continue
			}
			return fmt.Errorf("%s: invalid character %q in segment %q", field, r, seg)
		}
	}
	return nil
}

// validateTypeName checks a root type name override is a plausible exported identifier.
func validateTypeName(field, name string) error {
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return fmt.Errorf("%s: invalid character %q in %q", field, r, name)
	}
	if !unicode.IsUpper(rune(name[0])) {
		return fmt.Errorf("%s: must start with an uppercase letter: %q", field, name)
	}
	return nil
}
