package generator

import (
	"errors"
	"strings"
	"testing"

	"github.com/OtotaO/rainmaker-sub002/internal/schema"
)

func TestCompile(t *testing.T) {
	t.Run("end to end with defaults", func(t *testing.T) {
		meta := schema.NewMetadataTable()
		schemas := schema.NewMap()
		schemas.Set("User", schema.Object(
			schema.Field("id", meta.SetField(schema.UUID(), &schema.FieldMetadata{ID: true})),
			schema.Field("email", schema.Email()),
		))

		out, err := Compile(schemas, meta, DefaultOptions())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "model User {") {
			t.Errorf("missing model block:\n%s", out)
		}
	})

	t.Run("validation failure stops the pipeline", func(t *testing.T) {
		schemas := schema.NewMap()
		schemas.Set("User", schema.Object(schema.Field("select", schema.String())))

		out, err := Compile(schemas, schema.NewMetadataTable(), DefaultOptions())
		if err == nil {
			t.Fatal("expected error")
		}
		if out != "" {
			t.Errorf("no partial output on failure, got %q", out)
		}
		var ve *schema.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("expected ValidationError, got %T", err)
		}
	})

	t.Run("validation can be disabled", func(t *testing.T) {
		schemas := schema.NewMap()
		schemas.Set("User", schema.Object(schema.Field("data", schema.String())))

		opts := DefaultOptions()
		opts.ValidateSchema = false
		if _, err := Compile(schemas, schema.NewMetadataTable(), opts); err != nil {
			t.Errorf("unexpected error with validation off: %v", err)
		}
	})

	t.Run("nil metadata table is tolerated", func(t *testing.T) {
		schemas := schema.NewMap()
		schemas.Set("User", schema.Object(schema.Field("name", schema.String())))

		if _, err := Compile(schemas, nil, DefaultOptions()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestCompileFiltering(t *testing.T) {
	build := func() *schema.Map {
		schemas := schema.NewMap()
		schemas.Set("User", schema.Object(schema.Field("name", schema.String())))
		schemas.Set("UserAudit", schema.Object(schema.Field("at", schema.DateString())))
		schemas.Set("Post", schema.Object(schema.Field("title", schema.String())))
		return schemas
	}

	t.Run("include globs select models", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Include = []string{"User*"}
		out, err := Compile(build(), nil, opts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "model User {") || !strings.Contains(out, "model UserAudit {") {
			t.Errorf("include pattern missed models:\n%s", out)
		}
		if strings.Contains(out, "model Post {") {
			t.Errorf("Post should be filtered out:\n%s", out)
		}
	})

	t.Run("exclude wins over include", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Include = []string{"User*"}
		opts.Exclude = []string{"UserAudit"}
		out, err := Compile(build(), nil, opts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(out, "model UserAudit {") {
			t.Errorf("exclude pattern ignored:\n%s", out)
		}
	})
}
