// Package generator compiles validated schema maps into the relational
// data-model dialect: discovery of nested models and enums, per-field type
// mapping, and text emission with inverse-relation synthesis.
package generator

import (
	"fmt"
	"strings"
)

// GenerationError represents a failure to map a schema node to the target
// dialect. It always carries the model and field for diagnosis.
type GenerationError struct {
	Model   string
	Field   string
	Message string
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
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
	return b.String()
}

func generationErrorf(model, field, format string, args ...any) *GenerationError {
	return &GenerationError{Model: model, Field: field, Message: fmt.Sprintf(format, args...)}
}
