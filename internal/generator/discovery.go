package generator

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/OtotaO/rainmaker-sub002/internal/schema"
	stringutil "github.com/OtotaO/rainmaker-sub002/internal/util/strings"
)

// Cardinality distinguishes to-one from to-many relations.
type Cardinality int

const (
	CardinalityOne Cardinality = iota
	CardinalityMany
)

// String returns the string representation of the cardinality.
func (c Cardinality) String() string {
	if c == CardinalityMany {
		return "many"
	}
	return "one"
}

// Relation records one cross-model reference found during discovery.
type Relation struct {
	FromModel   string
	ToModel     string
	FieldName   string
	Name        string // declared relation name; empty for implicit nested links
	Cardinality Cardinality
	Optional    bool
}

// EnumDef is a named enum discovered from an enum-origin literal union.
type EnumDef struct {
	Name   string
	Values []string
}

// Discovery is the closure of models, enums, and relations reachable from the
// caller-supplied top-level schemas. Model order is caller order followed by
// synthesis order, which fixes the order of the emitted document.
type Discovery struct {
	Models    *schema.Map
	Enums     []EnumDef
	Relations []Relation

	modelNames map[schema.Handle]string
	enumNames  map[schema.Handle]string
}

// ModelName returns the model name registered for an object node.
func (d *Discovery) ModelName(node *schema.Node) (string, bool) {
	name, ok := d.modelNames[node.Handle()]
	return name, ok
}

// EnumName returns the enum name registered for an enum-origin union node.
func (d *Discovery) EnumName(node *schema.Node) (string, bool) {
	name, ok := d.enumNames[node.Handle()]
	return name, ok
}

// Discover walks the validated schema map and computes the full model and
// enum tables. Nested object fields synthesize models named
// parent+Capitalize(field); array-of-object fields append "Item"; enum-origin
// unions register under parent+Capitalize(field)+"Enum". Visited sets are
// keyed by node handle so lazy cycles terminate. Relation names are checked
// for uniqueness per unordered model pair before emission.
func Discover(schemas *schema.Map, meta *schema.MetadataTable, logger *zap.Logger) (*Discovery, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Discovery{
		Models:     schema.NewMap(),
		modelNames: make(map[schema.Handle]string),
		enumNames:  make(map[schema.Handle]string),
	}

	// Register all top-level schemas first so mutual references resolve to
	// their declared names instead of synthesized ones.
	type pending struct {
		name string
		node *schema.Node
	}
	var queue []pending
	for _, name := range schemas.Names() {
		node, _ := schemas.Get(name)
		root, _ := node.Unwrap(make(map[schema.Handle]bool))
		if root.Kind() != schema.KindObject {
			return nil, &schema.ValidationError{
				Model:   name,
				Message: fmt.Sprintf("top-level schema must be an object, got %s", root.Kind()),
			}
		}
		d.Models.Set(name, root)
		d.modelNames[root.Handle()] = name
		queue = append(queue, pending{name: name, node: root})
	}

	visited := make(map[schema.Handle]bool)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if visited[current.node.Handle()] {
			continue
		}
		visited[current.node.Handle()] = true

		for _, field := range current.node.Fields() {
			fieldMeta := meta.FieldFor(field.Schema)
			inner, optional := field.Schema.Unwrap(make(map[schema.Handle]bool))

			switch inner.Kind() {
			case schema.KindObject:
				target, known := d.modelNames[inner.Handle()]
				if !known {
					target = current.name + stringutil.Capitalize(field.Name)
					d.Models.Set(target, inner)
					d.modelNames[inner.Handle()] = target
					queue = append(queue, pending{name: target, node: inner})
					logger.Debug("discovered nested model",
						zap.String("model", target),
						zap.String("parent", current.name),
						zap.String("field", field.Name))
				}
				d.Relations = append(d.Relations, Relation{
					FromModel:   current.name,
					ToModel:     target,
					FieldName:   field.Name,
					Name:        relationName(fieldMeta),
					Cardinality: CardinalityOne,
					Optional:    optional,
				})

			case schema.KindArray:
				element, _ := inner.Element().Unwrap(make(map[schema.Handle]bool))
				if element.Kind() != schema.KindObject {
					continue
				}
				target, known := d.modelNames[element.Handle()]
				if !known {
					target = current.name + stringutil.Capitalize(field.Name) + "Item"
					d.Models.Set(target, element)
					d.modelNames[element.Handle()] = target
					queue = append(queue, pending{name: target, node: element})
					logger.Debug("discovered nested model",
						zap.String("model", target),
						zap.String("parent", current.name),
						zap.String("field", field.Name))
				}
				d.Relations = append(d.Relations, Relation{
					FromModel:   current.name,
					ToModel:     target,
					FieldName:   field.Name,
					Name:        relationName(fieldMeta),
					Cardinality: CardinalityMany,
					Optional:    optional,
				})

			case schema.KindUnion:
				if !inner.IsEnum() {
					continue // generic literal unions are the type mapper's concern
				}
				if _, registered := d.enumNames[inner.Handle()]; registered {
					continue
				}
				values, err := inner.EnumValues()
				if err != nil {
					return nil, generationErrorf(current.name, field.Name, "invalid enum: %v", err)
				}
				name := current.name + stringutil.Capitalize(field.Name) + "Enum"
				d.enumNames[inner.Handle()] = name
				d.Enums = append(d.Enums, EnumDef{Name: name, Values: values})
				logger.Debug("registered enum",
					zap.String("enum", name),
					zap.Strings("values", values))
			}
		}
	}

	if err := d.checkRelationNames(); err != nil {
		return nil, err
	}

	logger.Debug("discovery complete",
		zap.Int("models", d.Models.Len()),
		zap.Int("enums", len(d.Enums)),
		zap.Int("relations", len(d.Relations)))

	return d, nil
}

func relationName(meta *schema.FieldMetadata) string {
	if meta == nil {
		return ""
	}
	return meta.Relation
}

// checkRelationNames enforces relation-name uniqueness per unordered model
// pair. A name may be declared at most once from each side: two declarations
// from the same model, or more than two overall, mean two distinct relations
// are silently sharing a name.
func (d *Discovery) checkRelationNames() error {
	type declaration struct {
		model string
		field string
	}
	seen := make(map[string][]declaration)

	for _, rel := range d.Relations {
		if rel.Name == "" {
			continue
		}
		a, b := rel.FromModel, rel.ToModel
		if a > b {
			a, b = b, a
		}
		key := a + "\x00" + b + "\x00" + rel.Name
		decls := seen[key]

		for _, prev := range decls {
			if prev.model == rel.FromModel {
				return &schema.ValidationError{
					Model:   rel.FromModel,
					Field:   rel.FieldName,
					Message: fmt.Sprintf("relation name %q between %s and %s is already used by field %q", rel.Name, rel.FromModel, rel.ToModel, prev.field),
					Hint:    "give each relation between the same pair of models a distinct name",
				}
			}
		}
		if len(decls) >= 2 {
			return &schema.ValidationError{
				Model:   rel.FromModel,
				Field:   rel.FieldName,
				Message: fmt.Sprintf("relation name %q is declared more than twice between %s and %s", rel.Name, rel.FromModel, rel.ToModel),
				Hint:    "give each relation between the same pair of models a distinct name",
			}
		}
		seen[key] = append(decls, declaration{model: rel.FromModel, field: rel.FieldName})
	}
	return nil
}
