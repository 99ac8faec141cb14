package generator

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseJSONSchema(t *testing.T) {
	data := []byte(`{
		"title": "Address",
		"type": "object",
		"description": "A postal address",
		"properties": {
			"addressLine": {"type": "string"},
			"zip": {"type": "integer"},
			"tags": {"type": "array", "items": {"type": "string"}}
		},
		"required": ["addressLine"]
	}`)

	s, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Title != "Address" {
		t.Errorf("Title = %q, want Address", s.Title)
	}
	if !s.IsObject() {
		t.Error("expected object schema")
	}
	if len(s.Properties) != 3 {
		t.Fatalf("expected 3 properties, got %d", len(s.Properties))
	}
	// Property order must match the document.
	for i, want := range []string{"addressLine", "zip", "tags"} {
		if s.Properties[i].Name != want {
			t.Errorf("property %d = %q, want %q", i, s.Properties[i].Name, want)
		}
	}
	if !s.isRequired("addressLine") || s.isRequired("zip") {
		t.Error("required list parsed incorrectly")
	}
	tags := s.Properties[2].Schema
	if tags.Type != "array" || tags.Items == nil || tags.Items.Type != "string" {
		t.Error("array items parsed incorrectly")
	}
}

func TestParseYAMLSchema(t *testing.T) {
	data := []byte(`
title: Person
type: object
properties:
  name:
    type: string
  birthday:
    type: string
    format: date-time
  home:
    type: object
    properties:
      city:
        type: string
`)

	s, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(s.Properties) != 3 {
		t.Fatalf("expected 3 properties, got %d", len(s.Properties))
	}
	if s.Properties[1].Schema.Format != "date-time" {
		t.Errorf("format = %q, want date-time", s.Properties[1].Schema.Format)
	}
	home := s.Properties[2].Schema
	if !home.IsObject() || len(home.Properties) != 1 {
		t.Error("nested object parsed incorrectly")
	}
}

func TestParseUnionType(t *testing.T) {
	s, err := Parse([]byte(`{"type": ["null", "string"]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.Type != "string" {
		t.Errorf("union type = %q, want string", s.Type)
	}
}

func TestParseObjectWithoutExplicitType(t *testing.T) {
	s, err := Parse([]byte(`{"properties": {"a": {"type": "string"}}}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !s.IsObject() {
		t.Error("schema with properties should count as object")
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"empty document", ""},
		{"scalar root", `"just a string"`},
		{"properties not mapping", `{"properties": ["a"]}`},
		{"required not list", `{"required": "name"}`},
		{"type neither scalar nor list", `{"type": {"bad": true}}`},
		{"invalid yaml", "{{{{"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.data)); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}

func TestParseFileMissing(t *testing.T) {
	if _, err := ParseFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thing.yaml")
	if err := os.WriteFile(path, []byte("type: object\nproperties:\n  id:\n    type: integer\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := ParseFile(path)
	if err != nil {
		t.Fatalf("parse file: %v", err)
	}
	if len(s.Properties) != 1 || s.Properties[0].Name != "id" {
		t.Error("file parse lost properties")
	}
}
