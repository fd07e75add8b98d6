package logging

import "testing"

func TestNew(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		t.Run(level, func(t *testing.T) {
			logger, err := New(level)
			if err != nil {
				t.Fatalf("expected no error for level %q, got %v", level, err)
			}
			if logger == nil {
				t.Fatal("expected logger to be non-nil")
			}
		})
	}
}

func TestNewUnknownLevel(t *testing.T) {
	if _, err := New("verbose"); err == nil {
		t.Error("expected error for unknown level, got nil")
	}
}
