package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *StructGenError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *StructGenError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func ValidationFailed(field, reason string) *StructGenError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Schema source errors

func SchemaNotFound(location string) *StructGenError {
	return New(CategorySchema, SeverityFatal, "schema source not found").
		WithContext("location", location)
}

func SchemaFetchError(location string, cause error) *StructGenError {
	return WrapRetryable(cause, CategoryNetwork, SeverityWarning, "schema fetch failed").
		WithContext("location", location)
}

// Pipeline errors

func GenerationFailed(schema string, cause error) *StructGenError {
	return Wrap(cause, CategoryGeneration, SeverityFatal, "code generation failed").
		WithContext("schema", schema)
}

func CompileFailed(dir string, cause error) *StructGenError {
	return Wrap(cause, CategoryCompile, SeverityFatal, "compilation failed").
		WithContext("dir", dir)
}

func LoaderFailed(artifact string, cause error) *StructGenError {
	return Wrap(cause, CategoryLoad, SeverityFatal, "artifact load failed").
		WithContext("artifact", artifact)
}

func WorkspaceError(operation string, cause error) *StructGenError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "workspace operation failed").
		WithContext("operation", operation)
}

// Git errors

func GitCloneError(repo string, cause error) *StructGenError {
	return Wrap(cause, CategoryGit, SeverityFatal, "repository clone failed").
		WithContext("repository", repo)
}

func GitAuthError(repo string, cause error) *StructGenError {
	return Wrap(cause, CategoryAuth, SeverityFatal, "git authentication failed").
		WithContext("repository", repo)
}

func GitNetworkError(repo string, cause error) *StructGenError {
	return WrapRetryable(cause, CategoryGit, SeverityWarning, "git network error").
		WithContext("repository", repo)
}

// Network errors

func NetworkTimeout(url string, cause error) *StructGenError {
	return WrapRetryable(cause, CategoryNetwork, SeverityWarning, "network timeout").
		WithContext("url", url)
}

// Cleanup errors

func CleanupFailed(path string, cause error) *StructGenError {
	return Wrap(cause, CategoryCleanup, SeverityWarning, "cleanup failed").
		WithContext("path", path)
}

// Internal errors

func InternalError(message string, cause error) *StructGenError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
