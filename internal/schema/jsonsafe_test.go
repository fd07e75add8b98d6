package schema

import (
	"math"
	"math/big"
	"reflect"
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestAssertJSONSerializable(t *testing.T) {
	t.Run("plain values pass", func(t *testing.T) {
		values := []any{
			nil,
			true,
			42,
			3.14,
			"hello",
			[]any{1, "two", false, nil},
			map[string]any{"a": 1, "b": "x", "c": []any{true, nil}},
			struct{ Name string }{"x"},
		}
		for _, v := range values {
			if err := AssertJSONSerializable(v); err != nil {
				t.Errorf("value %v: unexpected error: %v", v, err)
			}
		}
	})

	t.Run("date inside array reports indexed path", func(t *testing.T) {
		err := AssertJSONSerializable(map[string]any{"a": []any{1, time.Now()}})
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "root.a[1]") {
			t.Errorf("error %q does not mention root.a[1]", err.Error())
		}
	})

	t.Run("forbidden values fail with path", func(t *testing.T) {
		cases := []struct {
			name  string
			value any
		}{
			{"time", map[string]any{"t": time.Now()}},
			{"bigint", map[string]any{"n": *big.NewInt(7)}},
			{"regexp", map[string]any{"r": *regexp.MustCompile(`a+`)}},
			{"function", map[string]any{"f": func() {}}},
			{"channel", map[string]any{"c": make(chan int)}},
			{"int-keyed map", map[string]any{"m": map[int]string{1: "x"}}},
			{"NaN", map[string]any{"x": math.NaN()}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				err := AssertJSONSerializable(tc.value)
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), "root.") {
					t.Errorf("error %q has no path", err.Error())
				}
			})
		}
	})

	t.Run("cycle detected", func(t *testing.T) {
		self := map[string]any{}
		self["self"] = self
		err := AssertJSONSerializable(self)
		if err == nil {
			t.Fatal("expected cycle error")
		}
		if !strings.Contains(err.Error(), "cycle") {
			t.Errorf("error %q does not mention cycle", err.Error())
		}
	})

	t.Run("shared subtree is not a cycle", func(t *testing.T) {
		shared := map[string]any{"x": 1}
		v := map[string]any{"a": shared, "b": shared}
		if err := AssertJSONSerializable(v); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestMakeJSONSafe(t *testing.T) {
	t.Run("time becomes RFC3339 string", func(t *testing.T) {
		when := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
		out, err := MakeJSONSafe(map[string]any{"d": when})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		m := out.(map[string]any)
		if m["d"] != when.Format(time.RFC3339Nano) {
			t.Errorf("got %v", m["d"])
		}
	})

	t.Run("big int becomes string", func(t *testing.T) {
		out, err := MakeJSONSafe(map[string]any{"n": *big.NewInt(123456789)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.(map[string]any)["n"] != "123456789" {
			t.Errorf("got %v", out)
		}
	})

	t.Run("regexp becomes pattern string", func(t *testing.T) {
		out, err := MakeJSONSafe(map[string]any{"r": *regexp.MustCompile(`a+b`)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.(map[string]any)["r"] != "a+b" {
			t.Errorf("got %v", out)
		}
	})

	t.Run("non-string map keys are stringified", func(t *testing.T) {
		out, err := MakeJSONSafe(map[int]string{7: "seven"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.(map[string]any)["7"] != "seven" {
			t.Errorf("got %v", out)
		}
	})

	t.Run("nil pointer fields are dropped", func(t *testing.T) {
		type record struct {
			Name string
			Note *string
		}
		out, err := MakeJSONSafe(record{Name: "x"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		m := out.(map[string]any)
		if _, present := m["Note"]; present {
			t.Error("nil pointer field was not dropped")
		}
	})

	t.Run("function is unconvertible", func(t *testing.T) {
		if _, err := MakeJSONSafe(map[string]any{"f": func() {}}); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("cycle is preserved by identity", func(t *testing.T) {
		type node struct {
			Name string
			Next *node
		}
		n := &node{Name: "a"}
		n.Next = n

		out, err := MakeJSONSafe(n)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		m := out.(map[string]any)
		next := m["Next"].(map[string]any)
		if reflect.ValueOf(next).Pointer() != reflect.ValueOf(m).Pointer() {
			t.Error("cycle point does not reuse the converted parent")
		}
	})

	t.Run("acyclic output is stable under JSON round-trip", func(t *testing.T) {
		in := map[string]any{
			"when":  time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC),
			"count": 3,
			"tags":  []any{"a", "b"},
		}
		out, err := MakeJSONSafe(in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := AssertJSONSerializable(out); err != nil {
			t.Errorf("converted value is not JSON-serializable: %v", err)
		}
	})
}
