package generator

import (
	"bytes"
	"fmt"
	"go/format"
	"text/template"
)

var typeTemplate = template.Must(template.New("type").Option("missingkey=error").Parse(`// Code generated by structgen. DO NOT EDIT.

package {{.PackageName}}

import (
{{- range .Imports}}
	{{printf "%q" .}}
{{- end}}
)

// {{.Name}} is generated from a JSON Schema object.
{{- if .Description}}
// {{.Description}}
{{- end}}
type {{.Name}} struct {
{{- range .Fields}}
	{{.Name}} {{.GoType}}
{{- end}}
}

// New{{.Name}} returns an empty {{.Name}}.
func New{{.Name}}() *{{.Name}} {
	return &{{.Name}}{}
}
{{range $f := .Fields}}
func ({{$.Receiver}} *{{$.Name}}) Get{{$f.Accessor}}() {{$f.GoType}} {
	return {{$.Receiver}}.{{$f.Name}}
}

func ({{$.Receiver}} *{{$.Name}}) Set{{$f.Accessor}}(value {{$f.GoType}}) {
	{{$.Receiver}}.{{$f.Name}} = value
}
{{if $.Builders}}
// With{{$f.Accessor}} sets the value and returns the receiver for chaining.
func ({{$.Receiver}} *{{$.Name}}) With{{$f.Accessor}}(value {{$f.GoType}}) *{{$.Name}} {
	{{$.Receiver}}.{{$f.Name}} = value
	return {{$.Receiver}}
}
{{end}}{{end}}
// MarshalJSON keeps the schema's property names on the wire.
func ({{.Receiver}} *{{.Name}}) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, {{len .Fields}})
{{- range .Fields}}
{{- if .Optional}}
	if {{$.Receiver}}.{{.Name}} != nil {
		out[{{printf "%q" .JSONName}}] = {{$.Receiver}}.{{.Name}}
	}
{{- else}}
	out[{{printf "%q" .JSONName}}] = {{$.Receiver}}.{{.Name}}
{{- end}}
{{- end}}
	return json.Marshal(out)
}

// UnmarshalJSON fills only the properties present in the document.
func ({{.Receiver}} *{{.Name}}) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
{{- range .Fields}}
	if value, ok := raw[{{printf "%q" .JSONName}}]; ok {
		if err := json.Unmarshal(value, &{{$.Receiver}}.{{.Name}}); err != nil {
			return err
		}
	}
{{- end}}
	return nil
}
`))

var entryTemplate = template.Must(template.New("entry").Option("missingkey=error").Parse(`// Code generated by structgen. DO NOT EDIT.

package main

import (
	{{.PackageName}} {{printf "%q" .ImportPath}}
)

// Factories exposes a constructor per generated type, keyed by the fully
// qualified schema type name.
var Factories = map[string]func() any{
{{- range .Types}}
	{{printf "%q" .Qualified}}: func() any { return {{$.PackageName}}.New{{.Name}}() },
{{- end}}
}

func main() {}
`))

type entryModel struct {
	PackageName string
	ImportPath  string
	Types       []entryType
}

type entryType struct {
	Qualified string
	Name      string
}

// renderTypeFile renders one type's source file and gofmts it. A formatting
// failure means the emitted source is not valid Go and aborts the run.
func renderTypeFile(model typeModel) ([]byte, error) {
	var buf bytes.Buffer
	if err := typeTemplate.Execute(&buf, model); err != nil {
		return nil, fmt.Errorf("rendering type %s: %w", model.Name, err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting type %s: %w", model.Name, err)
	}
	return src, nil
}

// renderEntryPoint renders the plugin main package exporting Factories.
func renderEntryPoint(targetPackage string, types []typeModel) ([]byte, error) {
	model := entryModel{
		PackageName: PackageName(targetPackage),
		ImportPath:  generatedModule + "/" + PackageDir(targetPackage),
	}
	for _, t := range types {
		model.Types = append(model.Types, entryType{
			Qualified: targetPackage + "." + t.Name,
			Name:      t.Name,
		})
	}

	var buf bytes.Buffer
	if err := entryTemplate.Execute(&buf, model); err != nil {
		return nil, fmt.Errorf("rendering plugin entry point: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting plugin entry point: %w", err)
	}
	return src, nil
}
