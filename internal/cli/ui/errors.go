// Package ui formats CLI output with consistent colors and structure.
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// MessageLevel represents the severity of a message.
type MessageLevel int

const (
	LevelError MessageLevel = iota
	LevelWarning
	LevelSuccess
)

// MessageOptions configures message formatting.
type MessageOptions struct {
	Level   MessageLevel
	Context string
	Problem string
	Hints   []string
	NoColor bool
}

// FormatMessage creates a standardized CLI message with optional hints.
//
// Example output:
//
//	✗ SCHEMA VALIDATION: User.select: field name "select" is a reserved keyword
//	   → rename the field
func FormatMessage(opts MessageOptions) string {
	var b strings.Builder

	var headerColor *color.Color
	var symbol string
	switch opts.Level {
	case LevelError:
		headerColor = color.New(color.FgRed, color.Bold)
		symbol = "✗"
	case LevelWarning:
		headerColor = color.New(color.FgYellow, color.Bold)
		symbol = "⚠"
	case LevelSuccess:
		headerColor = color.New(color.FgGreen, color.Bold)
		symbol = "✓"
	}

	if opts.NoColor {
		headerColor.DisableColor()
	}

	if opts.Context != "" {
		headerColor.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
	} else {
		headerColor.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	for _, hint := range opts.Hints {
		fmt.Fprintf(&b, "   → %s\n", hint)
	}

	return b.String()
}

// PrintError prints a formatted error message.
func PrintError(context string, err error) {
	fmt.Print(FormatMessage(MessageOptions{
		Level:   LevelError,
		Context: context,
		Problem: err.Error(),
	}))
}

// PrintSuccess prints a formatted success message.
func PrintSuccess(message string) {
	fmt.Print(FormatMessage(MessageOptions{
		Level:   LevelSuccess,
		Problem: message,
	}))
}
