package schema

import (
	"fmt"
	"math"
	"regexp"

	"github.com/google/uuid"
)

// FieldMetadata annotates a field's schema node with persistence concerns the
// node vocabulary has no words for: keys, uniqueness, defaults, relations.
// It is carried out-of-band in a MetadataTable keyed by node handle, never
// embedded in the node itself.
type FieldMetadata struct {
	ID        bool
	Unique    bool
	Index     bool
	UpdatedAt bool
	Default   any
	Relation  string // relation name; presence marks the field as a relation
	Map       string // column name override (@map)
	DB        string // native database type override (@db.X)
}

// ModelMetadata annotates an object node that is compiled as a model.
type ModelMetadata struct {
	Indexes [][]string // composite indexes, each a list of field names
	Map     string     // table name override (@@map)
	Schema  string     // database schema (@@schema)
}

// MetadataTable is the explicit side channel attaching metadata to nodes by
// handle. A table belongs to one compilation input; the compiler never
// mutates it.
type MetadataTable struct {
	fields map[Handle]*FieldMetadata
	models map[Handle]*ModelMetadata
}

// NewMetadataTable creates an empty metadata table.
func NewMetadataTable() *MetadataTable {
	return &MetadataTable{
		fields: make(map[Handle]*FieldMetadata),
		models: make(map[Handle]*ModelMetadata),
	}
}

// SetField attaches field metadata to a node and returns the node unchanged,
// so attachment composes with schema construction.
func (t *MetadataTable) SetField(node *Node, meta *FieldMetadata) *Node {
	if meta != nil {
		t.fields[node.Handle()] = meta
	}
	return node
}

// FieldFor returns the field metadata attached to a node, or nil.
func (t *MetadataTable) FieldFor(node *Node) *FieldMetadata {
	if t == nil || node == nil {
		return nil
	}
	return t.fields[node.Handle()]
}

// SetModel attaches model metadata to an object node and returns the node.
func (t *MetadataTable) SetModel(node *Node, meta *ModelMetadata) *Node {
	if meta != nil {
		t.models[node.Handle()] = meta
	}
	return node
}

// ModelFor returns the model metadata attached to a node, or nil.
func (t *MetadataTable) ModelFor(node *Node) *ModelMetadata {
	if t == nil || node == nil {
		return nil
	}
	return t.models[node.Handle()]
}

var datetimeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`)
var digitsRe = regexp.MustCompile(`^\d+$`)
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// CheckDefault validates a metadata default value against the refinement of
// the node it annotates. Unrefined nodes accept any default; the generator
// separately rejects non-primitive defaults at emission.
func CheckDefault(node *Node, value any) error {
	if node == nil || value == nil {
		return nil
	}
	s, isString := value.(string)
	switch node.Refinement() {
	case RefineUUID:
		if !isString {
			return fmt.Errorf("default for uuid field must be a string, got %T", value)
		}
		if _, err := uuid.Parse(s); err != nil {
			return fmt.Errorf("default %q is not a valid UUID: %w", s, err)
		}
	case RefineDateTime:
		if !isString || !datetimeRe.MatchString(s) {
			return fmt.Errorf("default %v is not an ISO-8601 datetime string", value)
		}
	case RefineNumberString:
		if !isString || !digitsRe.MatchString(s) {
			return fmt.Errorf("default %v is not a digit-only string", value)
		}
	case RefineEmail:
		if !isString || !emailRe.MatchString(s) {
			return fmt.Errorf("default %v is not an email address", value)
		}
	case RefineInt:
		switch n := value.(type) {
		case int, int32, int64:
		case float64:
			if n != math.Trunc(n) {
				return fmt.Errorf("default %v is not an integer", n)
			}
		default:
			return fmt.Errorf("default for int field must be an integer, got %T", value)
		}
	}
	return nil
}
