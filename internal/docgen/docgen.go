// Package docgen renders a schema into a standalone HTML reference page:
// one property table per object type, with schema descriptions treated as
// Markdown.
package docgen

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/structgen/internal/generator"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}} — schema reference</title>
<style>
body { font-family: sans-serif; max-width: 56rem; margin: 2rem auto; padding: 0 1rem; }
table { border-collapse: collapse; width: 100%; margin-bottom: 2rem; }
th, td { border: 1px solid #ccc; padding: 0.4rem 0.6rem; text-align: left; vertical-align: top; }
th { background: #f5f5f5; }
code { background: #f0f0f0; padding: 0.1rem 0.3rem; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{.Description}}
{{- range .Sections}}
<h2>{{.Name}}</h2>
{{.Description}}
<table>
<tr><th>Property</th><th>Type</th><th>Required</th><th>Description</th></tr>
{{- range .Properties}}
<tr><td><code>{{.Name}}</code></td><td><code>{{.Type}}</code></td><td>{{if .Required}}yes{{else}}no{{end}}</td><td>{{.Description}}</td></tr>
{{- end}}
</table>
{{- end}}
</body>
</html>
`))

type page struct {
	Title       string
	Description template.HTML
	Sections    []section
}

type section struct {
	Name        string
	Description template.HTML
	Properties  []propertyRow
}

type propertyRow struct {
	Name        string
	Type        string
	Required    bool
	Description template.HTML
}

// Render produces the reference page for a parsed schema. fallbackTitle is
// used when the schema declares no title (typically the file base name).
func Render(schema *generator.Schema, fallbackTitle string) ([]byte, error) {
	if schema == nil || !schema.IsObject() {
		return nil, fmt.Errorf("reference pages require an object-typed schema")
	}

	title := schema.Title
	if title == "" {
		title = fallbackTitle
	}

	p := page{Title: title}
	var err error
	if p.Description, err = renderMarkdown(schema.Description); err != nil {
		return nil, err
	}

	if err := appendSections(&p, title, schema); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("rendering reference page: %w", err)
	}
	return buf.Bytes(), nil
}

// appendSections adds one table per object type, walking nested objects
// depth-first so a type's section follows its parent's.
func appendSections(p *page, name string, schema *generator.Schema) error {
	sec := section{Name: name}
	var err error
	if sec.Description, err = renderMarkdown(schema.Description); err != nil {
		return err
	}

	type nestedSection struct {
		name   string
		schema *generator.Schema
	}
	var nested []nestedSection

	for _, prop := range schema.Properties {
		row := propertyRow{
			Name:     prop.Name,
			Type:     typeLabel(prop.Schema),
			Required: isRequired(schema, prop.Name),
		}
		if prop.Schema != nil {
			if row.Description, err = renderMarkdown(prop.Schema.Description); err != nil {
				return err
			}
			if child := objectChild(prop.Schema); child != nil && len(child.Properties) > 0 {
				nested = append(nested, nestedSection{name: name + "." + prop.Name, schema: child})
			}
		}
		sec.Properties = append(sec.Properties, row)
	}

	p.Sections = append(p.Sections, sec)
	for _, n := range nested {
		if err := appendSections(p, n.name, n.schema); err != nil {
			return err
		}
	}
	return nil
}

// renderMarkdown converts a schema description to inline HTML.
func renderMarkdown(md string) (template.HTML, error) {
	if strings.TrimSpace(md) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("rendering description: %w", err)
	}
	// #nosec G203 -- goldmark output over trusted schema text
	return template.HTML(buf.String()), nil
}

// typeLabel formats a property schema's type for the table.
func typeLabel(s *generator.Schema) string {
	if s == nil {
		return "any"
	}
	switch {
	case s.IsObject():
		return "object"
	case s.Type == "array":
		return "array of " + typeLabel(s.Items)
	case s.Type == "string" && s.Format != "":
		return "string (" + s.Format + ")"
	case s.Type == "":
		return "any"
	default:
		return s.Type
	}
}

// objectChild returns the object schema a property ultimately describes,
// looking through one level of array nesting.
func objectChild(s *generator.Schema) *generator.Schema {
	if s.IsObject() {
		return s
	}
	if s.Type == "array" && s.Items != nil && s.Items.IsObject() {
		return s.Items
	}
	return nil
}

func isRequired(s *generator.Schema, name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}
