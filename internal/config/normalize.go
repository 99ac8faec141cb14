package config

import (
	"fmt"
	"strings"
)

// NormalizationResult captures adjustments & warnings from normalization pass.
type NormalizationResult struct{ Warnings []string }

// NormalizeConfig performs canonicalization on enumerated and bounded fields prior to default application.
// It mutates the provided config in-place and returns a result describing any coercions.
func NormalizeConfig(c *Config) (*NormalizationResult, error) {
	if c == nil {
		return nil, fmt.Errorf("config nil")
	}
	res := &NormalizationResult{}
	normalizeGenerator(&c.Generator, res)
	normalizeCompiler(&c.Compiler, res)
	normalizeRetry(&c.Retry, res)
	normalizeWatch(c.Watch, res)
	normalizeMonitoring(&c.Monitoring, res)
	return res, nil
}

func normalizeGenerator(g *GeneratorConfig, res *NormalizationResult) {
	if g == nil {
		return
	}
	if st := NormalizeSourceType(string(g.SourceType)); st != "" {
		if g.SourceType != st {
			res.Warnings = append(res.Warnings, warnChanged("generator.source_type", g.SourceType, st))
			g.SourceType = st
		}
	} else if strings.TrimSpace(string(g.SourceType)) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("generator.source_type", string(g.SourceType), string(SourceTypeAuto)))
		g.SourceType = SourceTypeAuto
	}
}

func normalizeCompiler(c *CompilerConfig, res *NormalizationResult) {
	if c == nil {
		return
	}
	// Env stays order-sensitive (later entries win in exec environments).
	c.Env = trimStringSlice(c.Env)
	if bm := NormalizeBuildMode(string(c.BuildMode)); bm != "" {
		if c.BuildMode != bm {
			res.Warnings = append(res.Warnings, warnChanged("compiler.build_mode", c.BuildMode, bm))
			c.BuildMode = bm
		}
	} else if strings.TrimSpace(string(c.BuildMode)) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("compiler.build_mode", string(c.BuildMode), string(BuildModePlugin)))
		c.BuildMode = BuildModePlugin
	}
}

func normalizeRetry(r *RetryConfig, res *NormalizationResult) {
	if r == nil {
		return
	}
	if r.MaxRetries < 0 {
		r.MaxRetries = 0
	}
	if rb := NormalizeRetryBackoff(string(r.Backoff)); rb != "" {
		if r.Backoff != rb {
			res.Warnings = append(res.Warnings, warnChanged("retry.backoff", r.Backoff, rb))
			r.Backoff = rb
		}
	} else if strings.TrimSpace(string(r.Backoff)) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("retry.backoff", string(r.Backoff), string(RetryBackoffLinear)))
		r.Backoff = RetryBackoffLinear
	}
}

func normalizeWatch(w *WatchConfig, res *NormalizationResult) {
	if w == nil {
		return
	}
	w.Paths = normalizeStringSlice("watch.paths", w.Paths, res)
	// bounds
	if w.ConcurrentRuns < 0 {
		w.ConcurrentRuns = 0
	}
	if w.QueueSize < 0 {
		w.QueueSize = 0
	}
}

func normalizeMonitoring(m **MonitoringConfig, res *NormalizationResult) {
	if m == nil || *m == nil {
		return
	}
	cfg := *m
	// Logging level
	if lvl := NormalizeLogLevel(string(cfg.Logging.Level)); lvl != "" {
		if cfg.Logging.Level != lvl {
			res.Warnings = append(res.Warnings, warnChanged("monitoring.logging.level", cfg.Logging.Level, lvl))
			cfg.Logging.Level = lvl
		}
	} else if string(cfg.Logging.Level) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("monitoring.logging.level", string(cfg.Logging.Level), string(LogLevelInfo)))
		cfg.Logging.Level = LogLevelInfo
	}
	// Logging format
	if f := NormalizeLogFormat(string(cfg.Logging.Format)); f != "" {
		if cfg.Logging.Format != f {
			res.Warnings = append(res.Warnings, warnChanged("monitoring.logging.format", cfg.Logging.Format, f))
			cfg.Logging.Format = f
		}
	} else if string(cfg.Logging.Format) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("monitoring.logging.format", string(cfg.Logging.Format), string(LogFormatText)))
		cfg.Logging.Format = LogFormatText
	}
}

func warnChanged(field string, from, to interface{}) string {
	return fmt.Sprintf("normalized %s from '%v' to '%v'", field, from, to)
}

func warnUnknown(field, value, def string) string {
	return fmt.Sprintf("unknown %s '%s', defaulting to %s", field, value, def)
}
