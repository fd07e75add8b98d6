package ui

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestFormatMessage(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		opts     MessageOptions
		contains []string
	}{
		{
			name: "error with context",
			opts: MessageOptions{
				Level:   LevelError,
				Context: "schema validation",
				Problem: `User.select: field name "select" is a reserved keyword`,
			},
			contains: []string{
				"✗",
				"SCHEMA VALIDATION",
				`field name "select" is a reserved keyword`,
			},
		},
		{
			name: "error with hints",
			opts: MessageOptions{
				Level:   LevelError,
				Context: "schema load",
				Problem: `unknown schema kind "strin"`,
				Hints:   []string{`did you mean "string"?`},
			},
			contains: []string{
				`→ did you mean "string"?`,
			},
		},
		{
			name: "warning without context",
			opts: MessageOptions{
				Level:   LevelWarning,
				Problem: "literal union loses its value-set constraint",
			},
			contains: []string{
				"⚠",
				"literal union loses its value-set constraint",
			},
		},
		{
			name: "success",
			opts: MessageOptions{
				Level:   LevelSuccess,
				Problem: "3 schemas valid",
			},
			contains: []string{
				"✓",
				"3 schemas valid",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatMessage(tt.opts)

			for _, expected := range tt.contains {
				if !strings.Contains(result, expected) {
					t.Errorf("FormatMessage() output missing expected string:\nExpected to contain: %q\nGot: %q", expected, result)
				}
			}
		})
	}
}

func TestFormatMessageNoColor(t *testing.T) {
	result := FormatMessage(MessageOptions{
		Level:   LevelError,
		Problem: "plain",
		NoColor: true,
	})
	if strings.Contains(result, "\x1b[") {
		t.Errorf("expected no ANSI escapes, got %q", result)
	}
}
