package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestStructGenError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *StructGenError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "configuration invalid"),
			expected: "config (fatal): configuration invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("file not found"), CategoryConfig, SeverityFatal, "failed to load config"),
			expected: "config (fatal): failed to load config: file not found",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := test.err.Error()
			if result != test.expected {
				t.Errorf("Error() = %q, want %q", result, test.expected)
			}
		})
	}
}

func TestStructGenError_WithContext(t *testing.T) {
	err := New(CategoryGit, SeverityWarning, "clone failed").
		WithContext("repository", "schema-repo").
		WithContext("ref", "main")

	if err.Context == nil {
		t.Fatal("Context should not be nil")
	}

	if err.Context["repository"] != "schema-repo" {
		t.Errorf("Context[repository] = %v, want schema-repo", err.Context["repository"])
	}

	if err.Context["ref"] != "main" {
		t.Errorf("Context[ref] = %v, want main", err.Context["ref"])
	}
}

func TestIsCategory(t *testing.T) {
	configErr := New(CategoryConfig, SeverityFatal, "config error")
	compileErr := New(CategoryCompile, SeverityFatal, "compile error")
	standardErr := fmt.Errorf("standard error")

	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		expected bool
	}{
		{"config error matches config category", configErr, CategoryConfig, true},
		{"config error doesn't match compile category", configErr, CategoryCompile, false},
		{"compile error matches compile category", compileErr, CategoryCompile, true},
		{"standard error doesn't match any category", standardErr, CategoryConfig, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsCategory(test.err, test.category)
			if result != test.expected {
				t.Errorf("IsCategory() = %v, want %v", result, test.expected)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	retryableErr := Retryable(CategoryNetwork, SeverityWarning, "timeout")
	nonRetryableErr := New(CategoryConfig, SeverityFatal, "invalid")
	standardErr := fmt.Errorf("standard error")

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"retryable error", retryableErr, true},
		{"non-retryable error", nonRetryableErr, false},
		{"standard error", standardErr, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsRetryable(test.err)
			if result != test.expected {
				t.Errorf("IsRetryable() = %v, want %v", result, test.expected)
			}
		})
	}
}

func TestConvenienceFunctions(t *testing.T) {
	// Test a few convenience functions
	t.Run("ConfigNotFound", func(t *testing.T) {
		err := ConfigNotFound("/path/to/config.yaml")
		if err.Category != CategoryConfig {
			t.Errorf("Category = %v, want %v", err.Category, CategoryConfig)
		}
		if err.Severity != SeverityFatal {
			t.Errorf("Severity = %v, want %v", err.Severity, SeverityFatal)
		}
		if err.Context["path"] != "/path/to/config.yaml" {
			t.Errorf("Context[path] = %v, want /path/to/config.yaml", err.Context["path"])
		}
	})

	t.Run("SchemaNotFound", func(t *testing.T) {
		err := SchemaNotFound("schema/address.json")
		if err.Category != CategorySchema {
			t.Errorf("Category = %v, want %v", err.Category, CategorySchema)
		}
		if err.Severity != SeverityFatal {
			t.Errorf("Severity = %v, want %v", err.Severity, SeverityFatal)
		}
		if err.Context["location"] != "schema/address.json" {
			t.Errorf("Context[location] = %v, want schema/address.json", err.Context["location"])
		}
	})

	t.Run("GenerationFailed", func(t *testing.T) {
		cause := fmt.Errorf("invalid schema")
		err := GenerationFailed("address.json", cause)
		if err.Category != CategoryGeneration {
			t.Errorf("Category = %v, want %v", err.Category, CategoryGeneration)
		}
		if !stdErrors.Is(err, cause) {
			t.Errorf("Cause should match wrapped cause: %v", cause)
		}
		if err.Context["schema"] != "address.json" {
			t.Errorf("Context[schema] = %v, want address.json", err.Context["schema"])
		}
	})

	t.Run("NetworkTimeout", func(t *testing.T) {
		cause := fmt.Errorf("timeout")
		err := NetworkTimeout("https://example.com", cause)
		if err.Category != CategoryNetwork {
			t.Errorf("Category = %v, want %v", err.Category, CategoryNetwork)
		}
		if !err.Retryable {
			t.Error("NetworkTimeout should be retryable")
		}
		if !stdErrors.Is(err, cause) {
			t.Errorf("Cause should match wrapped cause: %v", cause)
		}
	})

	t.Run("ValidationFailed", func(t *testing.T) {
		err := ValidationFailed("generator.sourceType", "unsupported value")
		if err.Category != CategoryValidation {
			t.Errorf("Category = %v, want %v", err.Category, CategoryValidation)
		}
		if err.Context["field"] != "generator.sourceType" {
			t.Errorf("Context[field] = %v, want generator.sourceType", err.Context["field"])
		}
		if err.Context["reason"] != "unsupported value" {
			t.Errorf("Context[reason] = %v, want unsupported value", err.Context["reason"])
		}
	})
}
