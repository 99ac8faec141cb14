package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeySchema     = "schema"
	KeyWorkspace  = "workspace"
	KeyPath       = "path"
	KeyStage      = "stage"
	KeyPackage    = "package"
	KeyTypeName   = "type"
	KeyArtifact   = "artifact"
	KeyRunID      = "run_id"
	KeyOutcome    = "outcome"
	KeyDurationMS = "duration_ms"
	KeySubject    = "subject"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Schema(s string) slog.Attr       { return slog.String(KeySchema, s) }
func Workspace(w string) slog.Attr    { return slog.String(KeyWorkspace, w) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Package(p string) slog.Attr      { return slog.String(KeyPackage, p) }
func TypeName(n string) slog.Attr     { return slog.String(KeyTypeName, n) }
func Artifact(a string) slog.Attr     { return slog.String(KeyArtifact, a) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
