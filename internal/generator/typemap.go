package generator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/OtotaO/rainmaker-sub002/internal/schema"
	stringutil "github.com/OtotaO/rainmaker-sub002/internal/util/strings"
)

// FieldType is the mapped dialect type of one field, plus its attribute list.
type FieldType struct {
	DSLType    string
	Attributes []string
	IsList     bool
	IsOptional bool
}

// Render formats the type with its list and optional markers. The dialect
// disallows optional lists, so optionality on a to-many field is expressed by
// absence of rows instead of a marker.
func (ft FieldType) Render() string {
	t := ft.DSLType
	if ft.IsList {
		return t + "[]"
	}
	if ft.IsOptional {
		return t + "?"
	}
	return t
}

// TypeMapper maps schema nodes to dialect column types. It is a pure function
// of the node and the discovery context; a fresh visited set per call makes
// concurrent compilations independent.
type TypeMapper struct {
	disc *Discovery
	meta *schema.MetadataTable
}

// NewTypeMapper creates a type mapper over a completed discovery.
func NewTypeMapper(disc *Discovery, meta *schema.MetadataTable) *TypeMapper {
	return &TypeMapper{disc: disc, meta: meta}
}

// MapField maps one field's schema node to its dialect type and attributes.
// The dispatch is closed over the node kind: any kind without a case is a
// GenerationError carrying the field and model.
func (tm *TypeMapper) MapField(node *schema.Node, fieldName, parentModel string) (FieldType, error) {
	ft, err := tm.mapNode(node, fieldName, parentModel, make(map[schema.Handle]bool))
	if err != nil {
		return FieldType{}, err
	}
	tm.applyMetadata(&ft, node)
	return ft, nil
}

func (tm *TypeMapper) mapNode(node *schema.Node, fieldName, parentModel string, visited map[schema.Handle]bool) (FieldType, error) {
	inner, optional := node.Unwrap(visited)

	ft, err := tm.mapResolved(inner, fieldName, parentModel, visited)
	if err != nil {
		return FieldType{}, err
	}
	if optional && !ft.IsList {
		ft.IsOptional = true
	}
	return ft, nil
}

func (tm *TypeMapper) mapResolved(node *schema.Node, fieldName, parentModel string, visited map[schema.Handle]bool) (FieldType, error) {
	switch node.Kind() {
	case schema.KindString:
		switch node.Refinement() {
		case schema.RefineDateTime:
			return FieldType{DSLType: "DateTime"}, nil
		case schema.RefineUUID:
			return FieldType{DSLType: "String", Attributes: []string{"@db.Uuid"}}, nil
		case schema.RefineEmail:
			return FieldType{DSLType: "String", Attributes: []string{"@unique"}}, nil
		default:
			// URL and NumberString refinements stay plain strings.
			return FieldType{DSLType: "String"}, nil
		}

	case schema.KindNumber:
		return FieldType{DSLType: "Int"}, nil

	case schema.KindBoolean:
		return FieldType{DSLType: "Boolean"}, nil

	case schema.KindNull:
		return FieldType{}, generationErrorf(parentModel, fieldName, "null has no column type; use Nullable(...) around another schema")

	case schema.KindLiteral:
		ft := FieldType{DSLType: "String"}
		if attr, ok := defaultAttribute(node.LiteralValue()); ok {
			ft.Attributes = append(ft.Attributes, attr)
		}
		return ft, nil

	case schema.KindObject:
		name, known := tm.disc.ModelName(node)
		if !known {
			return FieldType{}, generationErrorf(parentModel, fieldName, "object field was not registered as a model")
		}
		ft := FieldType{DSLType: name}
		if fm := tm.meta.FieldFor(node); fm != nil && fm.Relation != "" {
			ft.Attributes = append(ft.Attributes, fmt.Sprintf("@relation(%q)", fm.Relation))
		}
		return ft, nil

	case schema.KindArray:
		elem, err := tm.mapNode(node.Element(), fieldName, parentModel, visited)
		if err != nil {
			return FieldType{}, err
		}
		return FieldType{DSLType: elem.DSLType, Attributes: elem.Attributes, IsList: true}, nil

	case schema.KindUnion:
		return tm.mapUnion(node, fieldName, parentModel)

	case schema.KindDiscriminatedUnion, schema.KindRecord:
		return FieldType{DSLType: "Json", Attributes: []string{"@db.Json"}}, nil

	default:
		return FieldType{}, generationErrorf(parentModel, fieldName, "unsupported node kind %s", node.Kind())
	}
}

// mapUnion classifies a union node. Enum-origin unions map to their
// registered enum name. A union of bare literals maps to String, dropping the
// value-set constraint (the documented fallback for unions built without the
// Enum constructor). A union with any complex option maps to Json, since no
// scalar column can hold the structured variant. A union mixing primitive
// kinds is unsupported.
func (tm *TypeMapper) mapUnion(node *schema.Node, fieldName, parentModel string) (FieldType, error) {
	if node.IsEnum() {
		name, ok := tm.disc.EnumName(node)
		if !ok {
			// Enums reached outside a model field are named by the same rule
			// discovery uses.
			name = parentModel + stringutil.Capitalize(fieldName) + "Enum"
		}
		return FieldType{DSLType: name}, nil
	}

	if len(node.Options()) == 0 {
		return FieldType{}, generationErrorf(parentModel, fieldName, "union must have at least one option")
	}

	allLiterals := true
	hasComplex := false
	for _, opt := range node.Options() {
		resolved, _ := opt.Unwrap(make(map[schema.Handle]bool))
		switch resolved.Kind() {
		case schema.KindLiteral:
		case schema.KindObject, schema.KindArray, schema.KindRecord,
			schema.KindUnion, schema.KindDiscriminatedUnion:
			allLiterals = false
			hasComplex = true
		default:
			allLiterals = false
		}
	}

	switch {
	case hasComplex:
		return FieldType{DSLType: "Json", Attributes: []string{"@db.Json"}}, nil
	case allLiterals:
		return FieldType{DSLType: "String"}, nil
	default:
		return FieldType{}, generationErrorf(parentModel, fieldName, "union mixes primitive kinds and cannot be mapped to a single column")
	}
}

// applyMetadata appends attributes from the field's metadata in a fixed
// order, skipping duplicates already contributed by the type mapping.
func (tm *TypeMapper) applyMetadata(ft *FieldType, node *schema.Node) {
	fm := tm.meta.FieldFor(node)
	if fm == nil {
		return
	}

	var attrs []string
	if fm.ID {
		attrs = append(attrs, "@id")
	}
	if fm.Unique && !hasAttribute(ft.Attributes, "@unique") {
		attrs = append(attrs, "@unique")
	}
	if fm.Default != nil && !hasAttribute(ft.Attributes, "@default") {
		if attr, ok := defaultAttribute(fm.Default); ok {
			attrs = append(attrs, attr)
		}
	}
	if fm.UpdatedAt {
		attrs = append(attrs, "@updatedAt")
	}
	if fm.Map != "" {
		attrs = append(attrs, fmt.Sprintf("@map(%q)", fm.Map))
	}
	if fm.DB != "" {
		attrs = append(attrs, "@db."+fm.DB)
	}

	ft.Attributes = append(attrs, ft.Attributes...)
}

// defaultAttribute renders a @default attribute for a primitive value.
// Non-primitive values produce no attribute.
func defaultAttribute(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return fmt.Sprintf("@default(%q)", v), true
	case bool:
		return fmt.Sprintf("@default(%t)", v), true
	case int, int32, int64:
		return fmt.Sprintf("@default(%d)", v), true
	case float32:
		return fmt.Sprintf("@default(%s)", strconv.FormatFloat(float64(v), 'f', -1, 32)), true
	case float64:
		return fmt.Sprintf("@default(%s)", strconv.FormatFloat(v, 'f', -1, 64)), true
	default:
		return "", false
	}
}

func hasAttribute(attrs []string, name string) bool {
	for _, a := range attrs {
		if a == name || strings.HasPrefix(a, name+"(") {
			return true
		}
	}
	return false
}
