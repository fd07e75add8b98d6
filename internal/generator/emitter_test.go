package generator

import (
	"errors"
	"strings"
	"testing"

	"github.com/OtotaO/rainmaker-sub002/internal/schema"
)

func emit(t *testing.T, schemas *schema.Map, meta *schema.MetadataTable, defaultSchema string) string {
	t.Helper()
	disc, err := Discover(schemas, meta, nil)
	if err != nil {
		t.Fatalf("discovery failed: %v", err)
	}
	out, err := NewEmitter(disc, meta, defaultSchema, nil).Emit()
	if err != nil {
		t.Fatalf("emit failed: %v", err)
	}
	return out
}

func TestEmitMutualRelation(t *testing.T) {
	meta := schema.NewMetadataTable()
	var user, post *schema.Node
	post = schema.Object(
		schema.Field("id", meta.SetField(schema.UUID(), &schema.FieldMetadata{ID: true})),
		schema.Field("title", schema.String()),
		schema.Field("author", meta.SetField(
			schema.Lazy(func() *schema.Node { return user }),
			&schema.FieldMetadata{Relation: "UserPosts"})),
	)
	user = schema.Object(
		schema.Field("id", meta.SetField(schema.UUID(), &schema.FieldMetadata{ID: true})),
		schema.Field("email", schema.Email()),
		schema.Field("posts", meta.SetField(
			schema.Array(schema.Lazy(func() *schema.Node { return post })),
			&schema.FieldMetadata{Relation: "UserPosts"})),
	)
	schemas := schema.NewMap()
	schemas.Set("User", user)
	schemas.Set("Post", post)

	want := `model User {
  id String @id @db.Uuid
  email String @unique
  posts Post[] @relation("UserPosts")
}

model Post {
  id String @id @db.Uuid
  title String
  authorId String
  author User @relation("UserPosts", fields: [authorId], references: [id])
}
`
	got := emit(t, schemas, meta, "")
	if got != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestEmitIDGuarantee(t *testing.T) {
	schemas := schema.NewMap()
	schemas.Set("Note", schema.Object(schema.Field("body", schema.String())))

	got := emit(t, schemas, schema.NewMetadataTable(), "")
	want := `model Note {
  id String @id @default(uuid())
  body String
}
`
	if got != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestEmitExistingIDFieldIsPromoted(t *testing.T) {
	schemas := schema.NewMap()
	schemas.Set("User", schema.Object(
		schema.Field("id", schema.UUID()),
		schema.Field("email", schema.Email()),
	))

	got := emit(t, schemas, schema.NewMetadataTable(), "")
	want := `model User {
  id String @id @db.Uuid
  email String @unique
}
`
	if got != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
	if strings.Count(got, "\n  id ") != 1 {
		t.Errorf("field id must appear exactly once:\n%s", got)
	}
}

func TestEmitForeignKeyNameCollision(t *testing.T) {
	schemas := schema.NewMap()
	schemas.Set("User", schema.Object(
		schema.Field("postId", schema.String()),
		schema.Field("post", schema.Object(schema.Field("title", schema.String()))),
	))
	meta := schema.NewMetadataTable()

	disc, err := Discover(schemas, meta, nil)
	if err != nil {
		t.Fatalf("discovery failed: %v", err)
	}
	_, err = NewEmitter(disc, meta, "", nil).Emit()
	if err == nil {
		t.Fatal("expected error")
	}
	var ge *GenerationError
	if !errors.As(err, &ge) {
		t.Fatalf("expected GenerationError, got %T", err)
	}
	if ge.Model != "User" || ge.Field != "postId" {
		t.Errorf("got model=%q field=%q", ge.Model, ge.Field)
	}
}

func TestEmitInverseSkippedWhenForeignKeyNameTaken(t *testing.T) {
	schemas := schema.NewMap()
	schemas.Set("User", schema.Object(
		schema.Field("logs", schema.Array(schema.Object(
			schema.Field("userId", schema.String()),
		))),
	))

	got := emit(t, schemas, schema.NewMetadataTable(), "")
	want := `model User {
  id String @id @default(uuid())
  logs UserLogsItem[]
}

model UserLogsItem {
  id String @id @default(uuid())
  userId String
}
`
	if got != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestEmitNestedModelInverse(t *testing.T) {
	schemas := schema.NewMap()
	schemas.Set("User", schema.Object(
		schema.Field("profile", schema.Object(schema.Field("bio", schema.String()))),
	))

	got := emit(t, schemas, schema.NewMetadataTable(), "")
	want := `model User {
  id String @id @default(uuid())
  profileId String
  profile UserProfile @relation(fields: [profileId], references: [id])
}

model UserProfile {
  id String @id @default(uuid())
  bio String
  user User[]
}
`
	if got != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestEmitListInverseCarriesForeignKey(t *testing.T) {
	schemas := schema.NewMap()
	schemas.Set("User", schema.Object(
		schema.Field("logs", schema.Array(schema.Object(schema.Field("value", schema.Number())))),
	))

	got := emit(t, schemas, schema.NewMetadataTable(), "")
	want := `model User {
  id String @id @default(uuid())
  logs UserLogsItem[]
}

model UserLogsItem {
  id String @id @default(uuid())
  value Int
  userId String?
  user User? @relation(fields: [userId], references: [id])
}
`
	if got != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestEmitOptionalSelfRelation(t *testing.T) {
	meta := schema.NewMetadataTable()
	var category *schema.Node
	category = schema.Object(
		schema.Field("name", schema.String()),
		schema.Field("parent", meta.SetField(
			schema.Optional(schema.Lazy(func() *schema.Node { return category })),
			&schema.FieldMetadata{Relation: "CategoryTree"})),
	)
	schemas := schema.NewMap()
	schemas.Set("Category", category)

	got := emit(t, schemas, meta, "")
	if !strings.Contains(got, "parentId String?") {
		t.Errorf("optional relation must have optional foreign key:\n%s", got)
	}
	if !strings.Contains(got, `parent Category? @relation("CategoryTree", fields: [parentId], references: [id])`) {
		t.Errorf("missing optional relation line:\n%s", got)
	}
	// The model already binds the relation name, so no inverse is injected.
	if strings.Contains(got, "Category[]") {
		t.Errorf("self relation must not grow an inverse list:\n%s", got)
	}
}

func TestEmitEnumsBeforeModels(t *testing.T) {
	schemas := schema.NewMap()
	schemas.Set("User", schema.Object(
		schema.Field("role", schema.Enum("ADMIN", "MEMBER")),
	))

	got := emit(t, schemas, schema.NewMetadataTable(), "")
	if !strings.HasPrefix(got, "enum UserRoleEnum { ADMIN MEMBER }\n\n") {
		t.Errorf("enum block must lead the document:\n%s", got)
	}
	if !strings.Contains(got, "role UserRoleEnum\n") {
		t.Errorf("field must reference the enum by name:\n%s", got)
	}
}

func TestEmitBlockAttributes(t *testing.T) {
	t.Run("field index becomes a block index", func(t *testing.T) {
		meta := schema.NewMetadataTable()
		schemas := schema.NewMap()
		schemas.Set("User", schema.Object(
			schema.Field("email", meta.SetField(schema.String(), &schema.FieldMetadata{Index: true})),
		))

		got := emit(t, schemas, meta, "")
		if !strings.Contains(got, "\n\n  @@index([email])\n}") {
			t.Errorf("block attributes must follow a blank line:\n%s", got)
		}
	})

	t.Run("model metadata emits map, schema and composite indexes", func(t *testing.T) {
		meta := schema.NewMetadataTable()
		user := meta.SetModel(schema.Object(
			schema.Field("first", schema.String()),
			schema.Field("last", schema.String()),
		), &schema.ModelMetadata{
			Indexes: [][]string{{"first", "last"}},
			Map:     "app_users",
			Schema:  "auth",
		})
		schemas := schema.NewMap()
		schemas.Set("User", user)

		got := emit(t, schemas, meta, "")
		for _, want := range []string{
			"@@index([first, last])",
			`@@map("app_users")`,
			`@@schema("auth")`,
		} {
			if !strings.Contains(got, want) {
				t.Errorf("missing %s in:\n%s", want, got)
			}
		}
	})

	t.Run("default schema suppresses matching directive", func(t *testing.T) {
		meta := schema.NewMetadataTable()
		user := meta.SetModel(schema.Object(schema.Field("x", schema.String())),
			&schema.ModelMetadata{Schema: "public"})
		schemas := schema.NewMap()
		schemas.Set("User", user)

		got := emit(t, schemas, meta, "public")
		if strings.Contains(got, "@@schema") {
			t.Errorf("redundant @@schema not suppressed:\n%s", got)
		}
	})
}

func TestEmitIsDeterministic(t *testing.T) {
	build := func(meta *schema.MetadataTable) *schema.Map {
		schemas := schema.NewMap()
		schemas.Set("User", schema.Object(
			schema.Field("email", schema.Email()),
			schema.Field("role", schema.Enum("A", "B")),
			schema.Field("profile", schema.Object(schema.Field("bio", schema.String()))),
		))
		return schemas
	}
	meta := schema.NewMetadataTable()
	first := emit(t, build(meta), meta, "")
	for i := 0; i < 5; i++ {
		meta := schema.NewMetadataTable()
		if got := emit(t, build(meta), meta, ""); got != first {
			t.Fatalf("run %d differed:\n%s\nvs:\n%s", i, got, first)
		}
	}
}
