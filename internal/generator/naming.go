package generator

import (
	"go/token"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und, cases.NoLower)

// TypeName converts a schema or property name into an exported Go
// identifier: "first_name", "first-name" and "firstName" all become
// "FirstName". A leading digit gets an "N" prefix.
func TypeName(raw string) string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var b strings.Builder
	for _, p := range parts {
		b.WriteString(titleCaser.String(p))
	}
	name := b.String()
	if name == "" {
		return "Value"
	}
	if unicode.IsDigit(rune(name[0])) {
		name = "N" + name
	}
	return name
}

// fieldName is the unexported form of TypeName, with a suffix when the
// result would collide with a Go keyword.
func fieldName(raw string) string {
	name := TypeName(raw)
	lower := strings.ToLower(name[:1]) + name[1:]
	if token.IsKeyword(lower) {
		lower += "Field"
	}
	return lower
}

// PackageDir maps a dotted target package to its directory path:
// "com.example" becomes "com/example".
func PackageDir(targetPackage string) string {
	segments := packageSegments(targetPackage)
	return strings.Join(segments, "/")
}

// PackageName is the Go package name for a dotted target package: the last
// segment, "com.example" giving "example".
func PackageName(targetPackage string) string {
	segments := packageSegments(targetPackage)
	if len(segments) == 0 {
		return "generated"
	}
	return segments[len(segments)-1]
}

func packageSegments(targetPackage string) []string {
	var segments []string
	for _, seg := range strings.Split(targetPackage, ".") {
		seg = sanitizeSegment(seg)
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

// sanitizeSegment keeps only identifier-safe runes and lowercases the
// result, so the directory path and the package name always agree.
func sanitizeSegment(seg string) string {
	var b strings.Builder
	for _, r := range seg {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	out := b.String()
	if out == "" {
		return ""
	}
	if unicode.IsDigit(rune(out[0])) {
		out = "p" + out
	}
	return out
}

// fileName derives the source file name for a type: "HomeAddress" becomes
// "home_address.go".
func fileName(typeName string) string {
	var b strings.Builder
	for i, r := range typeName {
		if unicode.IsUpper(r) && i > 0 {
			b.WriteRune('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String() + ".go"
}
