package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError represents a schema validation error with context.
type ValidationError struct {
	Model   string
	Field   string
	Message string
	Hint    string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var b strings.Builder

	if e.Model != "" {
		b.WriteString(e.Model)
		if e.Field != "" {
			b.WriteString(".")
			b.WriteString(e.Field)
		}
		b.WriteString(": ")
	}

	b.WriteString(e.Message)

	if e.Hint != "" {
		b.WriteString("\n  hint: ")
		b.WriteString(e.Hint)
	}

	return b.String()
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reservedFieldNames are keywords of the target dialect and its query surface
// that cannot be used as field names.
var reservedFieldNames = map[string]bool{
	"model":      true,
	"enum":       true,
	"type":       true,
	"view":       true,
	"generator":  true,
	"datasource": true,
	"select":     true,
	"include":    true,
	"where":      true,
	"data":       true,
	"orderBy":    true,
	"take":       true,
	"skip":       true,
	"cursor":     true,
	"distinct":   true,
}

// ValidateFieldName checks that a field name is a legal identifier and not a
// reserved keyword of the target dialect.
func ValidateFieldName(name, model string) error {
	if !identifierRe.MatchString(name) {
		return &ValidationError{
			Model:   model,
			Field:   name,
			Message: fmt.Sprintf("invalid field name %q", name),
			Hint:    "field names must match ^[A-Za-z_][A-Za-z0-9_]*$",
		}
	}
	if reservedFieldNames[name] {
		return &ValidationError{
			Model:   model,
			Field:   name,
			Message: fmt.Sprintf("field name %q is a reserved keyword", name),
			Hint:    "rename the field; reserved names collide with the generated query surface",
		}
	}
	return nil
}

// ValidateSchema checks that a top-level schema is an object and that every
// field name is legal. Validation fails on the first violation.
func ValidateSchema(node *Node, model string) error {
	root, _ := node.Unwrap(make(map[Handle]bool))
	if root.Kind() != KindObject {
		return &ValidationError{
			Model:   model,
			Message: fmt.Sprintf("top-level schema must be an object, got %s", root.Kind()),
			Hint:    "wrap fields in Object(...)",
		}
	}
	for _, field := range root.Fields() {
		if err := ValidateFieldName(field.Name, model); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRelations confirms that every field carrying relation metadata
// targets a model present in the schema map.
func ValidateRelations(node *Node, schemas *Map, meta *MetadataTable, model string) error {
	root, _ := node.Unwrap(make(map[Handle]bool))
	if root.Kind() != KindObject {
		return nil // shape errors are ValidateSchema's concern
	}

	// Handles of registered top-level schemas, for identity matching.
	known := make(map[Handle]bool)
	for _, name := range schemas.Names() {
		if target, ok := schemas.Get(name); ok {
			resolved, _ := target.Unwrap(make(map[Handle]bool))
			known[resolved.Handle()] = true
		}
	}

	for _, field := range root.Fields() {
		fm := meta.FieldFor(field.Schema)
		if fm == nil || fm.Relation == "" {
			continue
		}

		target, _ := field.Schema.Unwrap(make(map[Handle]bool))
		if target.Kind() == KindArray {
			target, _ = target.Element().Unwrap(make(map[Handle]bool))
		}
		if target.Kind() != KindObject {
			return &ValidationError{
				Model:   model,
				Field:   field.Name,
				Message: fmt.Sprintf("relation %q must target an object schema, got %s", fm.Relation, target.Kind()),
			}
		}
		if !known[target.Handle()] {
			return &ValidationError{
				Model:   model,
				Field:   field.Name,
				Message: fmt.Sprintf("relation %q targets a model that is not in the schema map", fm.Relation),
				Hint:    "register the target schema under a top-level name",
			}
		}
	}
	return nil
}
