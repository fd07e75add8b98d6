package schema

import (
	"testing"
)

func TestMetadataTable(t *testing.T) {
	t.Run("field metadata keyed by handle", func(t *testing.T) {
		table := NewMetadataTable()
		a := String()
		b := String()
		table.SetField(a, &FieldMetadata{Unique: true})

		if got := table.FieldFor(a); got == nil || !got.Unique {
			t.Error("metadata not found for annotated node")
		}
		if table.FieldFor(b) != nil {
			t.Error("metadata leaked to a different node")
		}
	})

	t.Run("model metadata keyed by handle", func(t *testing.T) {
		table := NewMetadataTable()
		m := Object()
		table.SetModel(m, &ModelMetadata{Map: "users"})

		if got := table.ModelFor(m); got == nil || got.Map != "users" {
			t.Error("model metadata not found")
		}
	})

	t.Run("nil lookups are safe", func(t *testing.T) {
		var table *MetadataTable
		if table.FieldFor(String()) != nil {
			t.Error("nil table returned metadata")
		}
	})
}

func TestCheckDefault(t *testing.T) {
	cases := []struct {
		name    string
		node    *Node
		value   any
		wantErr bool
	}{
		{"uuid valid", UUID(), "7f9c24e5-2c31-4a83-ae2e-e66d2775e9b1", false},
		{"uuid invalid", UUID(), "not-a-uuid", true},
		{"uuid non-string", UUID(), 42, true},
		{"datetime valid", DateString(), "2024-06-01T12:30:00Z", false},
		{"datetime invalid", DateString(), "June 1st", true},
		{"numberString valid", NumberString(), "00042", false},
		{"numberString invalid", NumberString(), "42x", true},
		{"email valid", Email(), "a@b.co", false},
		{"email invalid", Email(), "nope", true},
		{"int valid", Int(), 7, false},
		{"int from json number", Int(), float64(7), false},
		{"int fractional", Int(), 7.5, true},
		{"unrefined accepts anything", String(), "whatever", false},
		{"nil default passes", UUID(), nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckDefault(tc.node, tc.value)
			if tc.wantErr && err == nil {
				t.Error("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
