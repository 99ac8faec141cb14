package errors

import (
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if sge, ok := err.(*StructGenError); ok {
		return a.exitCodeFromStructGen(sge)
	}

	return 1
}

// exitCodeFromStructGen maps StructGenError to exit codes.
func (a *CLIErrorAdapter) exitCodeFromStructGen(err *StructGenError) int {
	switch err.Category {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryAuth:
		return 5 // Auth error
	case CategorySchema, CategoryNetwork, CategoryGit:
		return 8 // Schema source error
	case CategoryGeneration, CategoryCompile, CategoryFileSystem:
		return 11 // Pipeline error
	case CategoryLoad:
		return 13 // Artifact load error
	case CategoryWatch, CategoryCleanup:
		return 12 // Runtime error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if sge, ok := err.(*StructGenError); ok {
		return a.formatStructGen(sge)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatStructGen formats a StructGenError for display.
func (a *CLIErrorAdapter) formatStructGen(err *StructGenError) string {
	if a.verbose {
		return err.Error()
	}

	switch err.Category {
	case CategoryConfig, CategoryValidation, CategoryAuth:
		return err.Message
	default:
		return fmt.Sprintf("%s: %s", err.Category, err.Message)
	}
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(exitCode)
}

// shouldLog determines if an error should be logged.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	if sge, ok := err.(*StructGenError); ok {
		return sge.Category == CategoryInternal ||
			sge.Category == CategoryWatch ||
			sge.Severity == SeverityFatal
	}

	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	if sge, ok := err.(*StructGenError); ok {
		level := a.slogLevelFromStructGenSeverity(sge.Severity)
		attrs := []slog.Attr{
			slog.String("category", string(sge.Category)),
		}
		if sge.Retryable {
			attrs = append(attrs, slog.Bool("retryable", true))
		}

		a.logger.LogAttrs(nil, level, sge.Message, attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

// slogLevelFromStructGenSeverity converts StructGenError severity to slog level.
func (a *CLIErrorAdapter) slogLevelFromStructGenSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	case SeverityFatal:
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
