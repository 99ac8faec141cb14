package generator

import (
	"fmt"
	"strings"
)

// typeModel is the render input for one generated type.
type typeModel struct {
	Name        string
	Receiver    string
	Description string
	PackageName string
	Builders    bool
	Fields      []fieldModel
	Imports     []string
}

// fieldModel describes one struct field and its generated methods.
type fieldModel struct {
	Name     string // unexported field identifier
	Accessor string // exported method suffix (GetX, SetX, WithX)
	JSONName string // property name as written in the schema
	GoType   string
	// Optional marks nilable fields emitted only when set; required
	// fields and primitive-mode scalars always serialize.
	Optional bool
}

// pending is a queued object schema awaiting flattening.
type pending struct {
	name   string
	schema *Schema
}

// buildTypes flattens the schema tree into one typeModel per object type.
// Nested object properties become named sibling types.
func buildTypes(root *Schema, rootName string, cfg Config) ([]typeModel, error) {
	used := map[string]bool{rootName: true}
	queue := []pending{{name: rootName, schema: root}}

	var types []typeModel
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		model, nested, err := buildType(item, used, cfg)
		if err != nil {
			return nil, err
		}
		types = append(types, model)
		queue = append(queue, nested...)
	}
	return types, nil
}

// buildType converts one object schema into a typeModel, returning any
// nested object schemas it discovered.
func buildType(item pending, used map[string]bool, cfg Config) (typeModel, []pending, error) {
	model := typeModel{
		Name:     item.name,
		Receiver: strings.ToLower(item.name[:1]),
		// Collapse whitespace so multi-line descriptions stay inside one
		// comment line.
		Description: strings.Join(strings.Fields(item.schema.Description), " "),
		Builders:    cfg.GenerateBuilders,
	}

	var nested []pending
	fieldsSeen := map[string]bool{}
	needsTime := false

	for _, prop := range item.schema.Properties {
		field := fieldModel{
			Name:     fieldName(prop.Name),
			Accessor: TypeName(prop.Name),
			JSONName: prop.Name,
		}
		for i := 2; fieldsSeen[field.Name]; i++ {
			field.Name = fmt.Sprintf("%s%d", fieldName(prop.Name), i)
			field.Accessor = fmt.Sprintf("%s%d", TypeName(prop.Name), i)
		}
		fieldsSeen[field.Name] = true

		required := item.schema.isRequired(prop.Name)
		goType, more, err := resolveGoType(item.name, prop.Name, prop.Schema, used, cfg, required)
		if err != nil {
			return typeModel{}, nil, err
		}
		nested = append(nested, more...)

		field.GoType = goType
		field.Optional = !required && nilable(goType)
		if strings.Contains(goType, "time.Time") {
			needsTime = true
		}
		model.Fields = append(model.Fields, field)
	}

	model.Imports = []string{"encoding/json"}
	if needsTime {
		model.Imports = append(model.Imports, "time")
	}
	return model, nested, nil
}

// resolveGoType maps a property schema to a Go type expression. Object
// schemas yield a pointer to a named type and are queued for generation.
func resolveGoType(parentName, propName string, s *Schema, used map[string]bool, cfg Config, required bool) (string, []pending, error) {
	if s == nil {
		return "any", nil, nil
	}

	if s.IsObject() {
		if len(s.Properties) == 0 {
			// Open objects carry arbitrary members.
			return "map[string]any", nil, nil
		}
		name := nestedTypeName(parentName, propName, s, used)
		return "*" + name, []pending{{name: name, schema: s}}, nil
	}

	switch s.Type {
	case "array":
		elem, nested, err := resolveGoType(parentName, propName+" item", s.Items, used, cfg, true)
		if err != nil {
			return "", nil, err
		}
		return "[]" + elem, nested, nil
	case "string":
		if s.Format == "date-time" {
			return scalarType("time.Time", required, cfg), nil, nil
		}
		return scalarType("string", required, cfg), nil, nil
	case "integer":
		return scalarType("int", required, cfg), nil, nil
	case "number":
		return scalarType("float64", required, cfg), nil, nil
	case "boolean":
		return scalarType("bool", required, cfg), nil, nil
	case "", "null":
		return "any", nil, nil
	default:
		return "", nil, fmt.Errorf("property %q has unsupported type %q", propName, s.Type)
	}
}

// scalarType applies the optionality rule: optional scalars are pointers
// unless primitive mode is on.
func scalarType(base string, required bool, cfg Config) string {
	if required || cfg.UsePrimitives {
		return base
	}
	return "*" + base
}

// nestedTypeName picks a free exported name for a nested object, preferring
// the schema title, then the property name, then a parent-prefixed form.
func nestedTypeName(parentName, propName string, s *Schema, used map[string]bool) string {
	candidate := TypeName(propName)
	if s.Title != "" {
		candidate = TypeName(s.Title)
	}
	if used[candidate] {
		candidate = parentName + TypeName(propName)
	}
	for i := 2; used[candidate]; i++ {
		candidate = fmt.Sprintf("%s%s%d", parentName, TypeName(propName), i)
	}
	used[candidate] = true
	return candidate
}

// nilable reports whether a zero value of the type can be nil-checked.
func nilable(goType string) bool {
	return strings.HasPrefix(goType, "*") ||
		strings.HasPrefix(goType, "[]") ||
		strings.HasPrefix(goType, "map[") ||
		goType == "any"
}
