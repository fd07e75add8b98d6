// Package loader reads JSON schema-definition documents into the constrained
// schema vocabulary. It is the boundary where textual kind names meet the
// builder API: legal kinds map onto constructors, forbidden kinds are
// rejected with the JSON-safe alternative named in the error.
package loader

import (
	"bytes"
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"github.com/OtotaO/rainmaker-sub002/internal/schema"
	stringutil "github.com/OtotaO/rainmaker-sub002/internal/util/strings"
)

// nodeSpec is the JSON shape of one schema node.
type nodeSpec struct {
	Kind          string      `json:"kind"`
	Literal       any         `json:"literal,omitempty"`
	Fields        []fieldSpec `json:"fields,omitempty"`
	Element       *nodeSpec   `json:"element,omitempty"`
	Value         *nodeSpec   `json:"value,omitempty"`
	Options       []*nodeSpec `json:"options,omitempty"`
	Discriminator string      `json:"discriminator,omitempty"`
	Inner         *nodeSpec   `json:"inner,omitempty"`
	Values        []string    `json:"values,omitempty"`
	Target        string      `json:"target,omitempty"`
	Meta          *metaSpec   `json:"meta,omitempty"`
}

// fieldSpec is one named field of an object node. Field order in the JSON
// array is preserved through compilation.
type fieldSpec struct {
	Name   string    `json:"name"`
	Schema *nodeSpec `json:"schema"`
	Meta   *metaSpec `json:"meta,omitempty"`
}

// metaSpec carries both field- and model-level metadata; which parts apply
// depends on where it appears.
type metaSpec struct {
	ID        bool       `json:"id,omitempty"`
	Unique    bool       `json:"unique,omitempty"`
	Index     bool       `json:"index,omitempty"`
	UpdatedAt bool       `json:"updatedAt,omitempty"`
	Default   any        `json:"default,omitempty"`
	Relation  string     `json:"relation,omitempty"`
	Map       string     `json:"map,omitempty"`
	DB        string     `json:"db,omitempty"`
	Indexes   [][]string `json:"indexes,omitempty"`
	Schema    string     `json:"schema,omitempty"`
}

// forbiddenKinds maps kind names outside the JSON-safe vocabulary to the
// alternative the error message names.
var forbiddenKinds = map[string]string{
	"date":      "use dateString (an ISO-8601 datetime string)",
	"bigint":    "use numberString (a digit-only string)",
	"map":       "use record (string keys, uniform value schema)",
	"set":       "use array",
	"function":  "functions are not representable in JSON",
	"symbol":    "symbols are not representable in JSON",
	"transform": "use a plain schema kind; transformations are not serializable",
	"effect":    "use a plain schema kind; effects are not serializable",
	"lazy":      "use ref with the target model's name",
}

// knownKinds feeds the did-you-mean hint for typos in kind names.
var knownKinds = []string{
	"string", "number", "int", "boolean", "null", "dateString", "uuid",
	"url", "email", "numberString", "literal", "object", "array", "record",
	"union", "discriminatedUnion", "optional", "nullable", "enum", "ref",
}

// Loader builds a schema map and metadata table from a parsed document.
type Loader struct {
	meta     *schema.MetadataTable
	resolved map[string]*schema.Node
	refs     []ref
}

type ref struct {
	target string
	model  string
	field  string
}

// Load reads and parses a schema-definition file.
func Load(path string) (*schema.Map, *schema.MetadataTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading schema file: %w", err)
	}
	return Parse(data)
}

// Parse builds the schema map from a JSON document of the form
// {"ModelName": {"kind": "object", "fields": [...]}, ...}. Top-level order is
// preserved; forward references through "ref" nodes are allowed.
func Parse(data []byte) (*schema.Map, *schema.MetadataTable, error) {
	names, err := topLevelOrder(data)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing schema document: %w", err)
	}

	var doc map[string]*nodeSpec
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parsing schema document: %w", err)
	}

	l := &Loader{
		meta:     schema.NewMetadataTable(),
		resolved: make(map[string]*schema.Node),
	}

	schemas := schema.NewMap()
	for _, name := range names {
		spec := doc[name]
		if spec == nil {
			return nil, nil, fmt.Errorf("schema %q: missing definition", name)
		}
		node, err := l.build(spec, name, "")
		if err != nil {
			return nil, nil, err
		}
		if spec.Kind == "object" && spec.Meta != nil {
			l.meta.SetModel(node, &schema.ModelMetadata{
				Indexes: spec.Meta.Indexes,
				Map:     spec.Meta.Map,
				Schema:  spec.Meta.Schema,
			})
		}
		schemas.Set(name, node)
		l.resolved[name] = node
	}

	// Refs resolve lazily; confirm every target exists now so a dangling
	// name fails at load time, not mid-traversal.
	for _, r := range l.refs {
		if _, ok := l.resolved[r.target]; !ok {
			hint := "declare the target as a top-level schema"
			if similar := stringutil.Suggest(r.target, names); len(similar) > 0 {
				hint = fmt.Sprintf("did you mean %q?", similar[0])
			}
			return nil, nil, &schema.ValidationError{
				Model:   r.model,
				Field:   r.field,
				Message: fmt.Sprintf("ref targets unknown schema %q", r.target),
				Hint:    hint,
			}
		}
	}

	return schemas, l.meta, nil
}

// build constructs one node from its spec. model and field name the position
// for error messages.
func (l *Loader) build(spec *nodeSpec, model, field string) (*schema.Node, error) {
	if spec == nil {
		return nil, positionErrorf(model, field, "missing schema node")
	}

	if alternative, forbidden := forbiddenKinds[spec.Kind]; forbidden {
		return nil, positionErrorf(model, field, "kind %q is not JSON-safe: %s", spec.Kind, alternative)
	}

	var node *schema.Node
	switch spec.Kind {
	case "string":
		node = schema.String()
	case "number":
		node = schema.Number()
	case "int":
		node = schema.Int()
	case "boolean":
		node = schema.Boolean()
	case "null":
		node = schema.Null()
	case "dateString", "datetime":
		node = schema.DateString()
	case "uuid":
		node = schema.UUID()
	case "url":
		node = schema.URL()
	case "email":
		node = schema.Email()
	case "numberString":
		node = schema.NumberString()

	case "literal":
		node = schema.Literal(spec.Literal)

	case "object":
		fields := make([]schema.ObjectField, 0, len(spec.Fields))
		for _, f := range spec.Fields {
			child, err := l.build(f.Schema, model, f.Name)
			if err != nil {
				return nil, err
			}
			if f.Meta != nil {
				if err := l.attachFieldMeta(child, f.Meta, model, f.Name); err != nil {
					return nil, err
				}
			}
			fields = append(fields, schema.Field(f.Name, child))
		}
		node = schema.Object(fields...)

	case "array":
		element, err := l.build(spec.Element, model, field)
		if err != nil {
			return nil, err
		}
		node = schema.Array(element)

	case "record":
		value, err := l.build(spec.Value, model, field)
		if err != nil {
			return nil, err
		}
		node = schema.Record(value)

	case "union":
		options, err := l.buildOptions(spec.Options, model, field)
		if err != nil {
			return nil, err
		}
		node = schema.Union(options...)

	case "discriminatedUnion":
		if spec.Discriminator == "" {
			return nil, positionErrorf(model, field, "discriminatedUnion requires a discriminator key")
		}
		options, err := l.buildOptions(spec.Options, model, field)
		if err != nil {
			return nil, err
		}
		node = schema.DiscriminatedUnion(spec.Discriminator, options...)

	case "optional":
		inner, err := l.build(spec.Inner, model, field)
		if err != nil {
			return nil, err
		}
		node = schema.Optional(inner)

	case "nullable":
		inner, err := l.build(spec.Inner, model, field)
		if err != nil {
			return nil, err
		}
		node = schema.Nullable(inner)

	case "enum":
		if len(spec.Values) == 0 {
			return nil, positionErrorf(model, field, "enum requires at least one value")
		}
		node = schema.Enum(spec.Values...)

	case "ref":
		if spec.Target == "" {
			return nil, positionErrorf(model, field, "ref requires a target schema name")
		}
		target := spec.Target
		l.refs = append(l.refs, ref{target: target, model: model, field: field})
		resolved := l.resolved
		node = schema.Lazy(func() *schema.Node { return resolved[target] })

	case "":
		return nil, positionErrorf(model, field, "schema node is missing a kind")
	default:
		ve := &schema.ValidationError{
			Model:   model,
			Field:   field,
			Message: fmt.Sprintf("unknown schema kind %q", spec.Kind),
		}
		if similar := stringutil.Suggest(spec.Kind, knownKinds); len(similar) > 0 {
			ve.Hint = fmt.Sprintf("did you mean %q?", similar[0])
		}
		return nil, ve
	}

	return node, nil
}

func (l *Loader) buildOptions(specs []*nodeSpec, model, field string) ([]*schema.Node, error) {
	options := make([]*schema.Node, 0, len(specs))
	for _, s := range specs {
		opt, err := l.build(s, model, field)
		if err != nil {
			return nil, err
		}
		options = append(options, opt)
	}
	return options, nil
}

func (l *Loader) attachFieldMeta(node *schema.Node, spec *metaSpec, model, field string) error {
	if err := schema.CheckDefault(node, spec.Default); err != nil {
		return &schema.ValidationError{Model: model, Field: field, Message: err.Error()}
	}
	l.meta.SetField(node, &schema.FieldMetadata{
		ID:        spec.ID,
		Unique:    spec.Unique,
		Index:     spec.Index,
		UpdatedAt: spec.UpdatedAt,
		Default:   spec.Default,
		Relation:  spec.Relation,
		Map:       spec.Map,
		DB:        spec.DB,
	})
	return nil
}

func positionErrorf(model, field, format string, args ...any) error {
	return &schema.ValidationError{
		Model:   model,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// topLevelOrder extracts the top-level key order of a JSON object document,
// which json.Unmarshal into a map would lose.
func topLevelOrder(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("document root must be a JSON object")
	}

	var names []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v in document", keyTok)
		}
		names = append(names, key)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("schema %q: %w", key, err)
		}
	}
	return names, nil
}
