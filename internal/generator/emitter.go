package generator

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/OtotaO/rainmaker-sub002/internal/schema"
	stringutil "github.com/OtotaO/rainmaker-sub002/internal/util/strings"
)

// fieldLine is one emitted field of a model block.
type fieldLine struct {
	name       string
	renderedTy string
	attributes []string
}

func (l fieldLine) render() string {
	parts := []string{l.name, l.renderedTy}
	parts = append(parts, l.attributes...)
	return strings.Join(parts, " ")
}

// modelBlock is one model under assembly. Inverse relations are injected into
// blocks between the field pass and final assembly.
type modelBlock struct {
	name       string
	lines      []fieldLine
	blockAttrs []string
}

func (b *modelBlock) hasField(name string) bool {
	for _, l := range b.lines {
		if l.name == name {
			return true
		}
	}
	return false
}

// promoteID marks an existing field named id as the primary key. It reports
// whether such a field was found.
func (b *modelBlock) promoteID() bool {
	for i, l := range b.lines {
		if l.name == "id" {
			b.lines[i].attributes = append([]string{"@id"}, l.attributes...)
			return true
		}
	}
	return false
}

func (b *modelBlock) hasRelationNamed(relName string) bool {
	needle := fmt.Sprintf("@relation(%q", relName)
	for _, l := range b.lines {
		for _, a := range l.attributes {
			if strings.HasPrefix(a, needle) {
				return true
			}
		}
	}
	return false
}

// inverseObligation records that a relation declared on one model owes a
// matching field on the other side.
type inverseObligation struct {
	targetModel string
	fromModel   string
	relName     string      // empty for implicit nested links
	cardinality Cardinality // cardinality of the originating field
}

// Emitter assembles the final document from a completed discovery.
type Emitter struct {
	disc          *Discovery
	meta          *schema.MetadataTable
	mapper        *TypeMapper
	defaultSchema string
	logger        *zap.Logger
}

// NewEmitter creates an emitter. defaultSchema suppresses redundant @@schema
// directives; pass "" to keep all of them.
func NewEmitter(disc *Discovery, meta *schema.MetadataTable, defaultSchema string, logger *zap.Logger) *Emitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Emitter{
		disc:          disc,
		meta:          meta,
		mapper:        NewTypeMapper(disc, meta),
		defaultSchema: defaultSchema,
		logger:        logger,
	}
}

// Emit produces the document: enum blocks first, then model blocks, in
// discovery order. Identical input always yields byte-identical output.
func (e *Emitter) Emit() (string, error) {
	blocks := make([]*modelBlock, 0, e.disc.Models.Len())
	blockByName := make(map[string]*modelBlock)
	var obligations []inverseObligation

	for _, name := range e.disc.Models.Names() {
		node, _ := e.disc.Models.Get(name)
		block, modelObligations, err := e.buildModel(name, node)
		if err != nil {
			return "", err
		}
		blocks = append(blocks, block)
		blockByName[name] = block
		obligations = append(obligations, modelObligations...)
	}

	e.injectInverses(blockByName, obligations)

	// Synthesized foreign keys can land on a name the source already uses.
	for _, block := range blocks {
		seen := make(map[string]bool, len(block.lines))
		for _, line := range block.lines {
			if seen[line.name] {
				return "", generationErrorf(block.name, line.name,
					"field name appears more than once after relation expansion; rename the field")
			}
			seen[line.name] = true
		}
	}

	var b strings.Builder
	for _, enum := range e.disc.Enums {
		b.WriteString(fmt.Sprintf("enum %s { %s }\n\n", enum.Name, strings.Join(enum.Values, " ")))
	}
	for i, block := range blocks {
		b.WriteString(fmt.Sprintf("model %s {\n", block.name))
		for _, line := range block.lines {
			b.WriteString("  ")
			b.WriteString(line.render())
			b.WriteString("\n")
		}
		if len(block.blockAttrs) > 0 {
			b.WriteString("\n")
			for _, attr := range block.blockAttrs {
				b.WriteString("  ")
				b.WriteString(attr)
				b.WriteString("\n")
			}
		}
		b.WriteString("}\n")
		if i < len(blocks)-1 {
			b.WriteString("\n")
		}
	}

	return b.String(), nil
}

// buildModel emits the field lines of one model and records the inverse
// obligations its relations create.
func (e *Emitter) buildModel(name string, node *schema.Node) (*modelBlock, []inverseObligation, error) {
	block := &modelBlock{name: name}
	var obligations []inverseObligation
	var indexAttrs []string

	for _, field := range node.Fields() {
		fieldMeta := e.meta.FieldFor(field.Schema)
		inner, optional := field.Schema.Unwrap(make(map[schema.Handle]bool))

		if fieldMeta != nil && fieldMeta.Index {
			indexAttrs = append(indexAttrs, fmt.Sprintf("@@index([%s])", field.Name))
		}

		// Relation fields are emitted here rather than through the type
		// mapper because they expand to multiple lines.
		if target, ok := e.relationTarget(inner); ok {
			obligation := e.emitRelation(block, field.Name, target, inner, fieldMeta, optional, name)
			obligations = append(obligations, obligation)
			continue
		}

		ft, err := e.mapper.MapField(field.Schema, field.Name, name)
		if err != nil {
			return nil, nil, err
		}
		block.lines = append(block.lines, fieldLine{
			name:       field.Name,
			renderedTy: ft.Render(),
			attributes: ft.Attributes,
		})
	}

	// Every model must be identifiable: a source field named id is promoted
	// to the primary key, otherwise one is synthesized.
	if !e.hasIDField(block) {
		if block.promoteID() {
			e.logger.Debug("promoted id field", zap.String("model", name))
		} else {
			block.lines = append([]fieldLine{{
				name:       "id",
				renderedTy: "String",
				attributes: []string{"@id", "@default(uuid())"},
			}}, block.lines...)
			e.logger.Debug("synthesized id field", zap.String("model", name))
		}
	}

	block.blockAttrs = append(block.blockAttrs, indexAttrs...)
	if mm := e.meta.ModelFor(node); mm != nil {
		for _, idx := range mm.Indexes {
			block.blockAttrs = append(block.blockAttrs, fmt.Sprintf("@@index([%s])", strings.Join(idx, ", ")))
		}
		if mm.Map != "" {
			block.blockAttrs = append(block.blockAttrs, fmt.Sprintf("@@map(%q)", mm.Map))
		}
		if mm.Schema != "" && mm.Schema != e.defaultSchema {
			block.blockAttrs = append(block.blockAttrs, fmt.Sprintf("@@schema(%q)", mm.Schema))
		}
	}

	return block, obligations, nil
}

// relationTarget resolves an unwrapped field node to a known model name,
// looking through arrays for to-many relations.
func (e *Emitter) relationTarget(inner *schema.Node) (string, bool) {
	switch inner.Kind() {
	case schema.KindObject:
		return e.disc.ModelName(inner)
	case schema.KindArray:
		element, _ := inner.Element().Unwrap(make(map[schema.Handle]bool))
		if element.Kind() != schema.KindObject {
			return "", false
		}
		return e.disc.ModelName(element)
	default:
		return "", false
	}
}

// emitRelation writes the lines for one relation field. A to-one relation
// carries the scalar foreign key and the typed relation field; a to-many
// relation is a bare list with no foreign key on this side.
func (e *Emitter) emitRelation(block *modelBlock, fieldName, target string, inner *schema.Node, fieldMeta *schema.FieldMetadata, optional bool, fromModel string) inverseObligation {
	relName := relationName(fieldMeta)

	if inner.Kind() == schema.KindArray {
		var attrs []string
		if relName != "" {
			attrs = append(attrs, fmt.Sprintf("@relation(%q)", relName))
		}
		block.lines = append(block.lines, fieldLine{
			name:       fieldName,
			renderedTy: target + "[]",
			attributes: attrs,
		})
		return inverseObligation{
			targetModel: target,
			fromModel:   fromModel,
			relName:     relName,
			cardinality: CardinalityMany,
		}
	}

	fkName := fieldName + "Id"
	fkType := "String"
	relType := target
	if optional {
		fkType += "?"
		relType += "?"
	}

	var fkAttrs []string
	if fieldMeta != nil && fieldMeta.Unique {
		fkAttrs = append(fkAttrs, "@unique")
	}
	block.lines = append(block.lines, fieldLine{
		name:       fkName,
		renderedTy: fkType,
		attributes: fkAttrs,
	})

	relAttr := fmt.Sprintf("@relation(fields: [%s], references: [id])", fkName)
	if relName != "" {
		relAttr = fmt.Sprintf("@relation(%q, fields: [%s], references: [id])", relName, fkName)
	}
	block.lines = append(block.lines, fieldLine{
		name:       fieldName,
		renderedTy: relType,
		attributes: []string{relAttr},
	})

	return inverseObligation{
		targetModel: target,
		fromModel:   fromModel,
		relName:     relName,
		cardinality: CardinalityOne,
	}
}

// injectInverses adds each recorded inverse field to its target model,
// skipping targets that already carry a field of the inverse name or a field
// bound to the same relation name (the mutually declared case).
func (e *Emitter) injectInverses(blocks map[string]*modelBlock, obligations []inverseObligation) {
	for _, ob := range obligations {
		block, ok := blocks[ob.targetModel]
		if !ok {
			continue
		}

		inverseName := stringutil.Decapitalize(ob.fromModel)
		if block.hasField(inverseName) {
			continue
		}
		if ob.relName != "" && block.hasRelationNamed(ob.relName) {
			continue
		}

		if ob.cardinality == CardinalityOne {
			// Originating side holds the foreign key; the inverse is a list.
			attrs := []string{}
			if ob.relName != "" {
				attrs = append(attrs, fmt.Sprintf("@relation(%q)", ob.relName))
			}
			block.lines = append(block.lines, fieldLine{
				name:       inverseName,
				renderedTy: ob.fromModel + "[]",
				attributes: attrs,
			})
		} else {
			// Originating side is a list; the inverse carries the foreign
			// key, optional because the source declared nothing about it.
			fkName := inverseName + "Id"
			if block.hasField(fkName) {
				continue
			}
			block.lines = append(block.lines, fieldLine{
				name:       fkName,
				renderedTy: "String?",
			})
			relAttr := fmt.Sprintf("@relation(fields: [%s], references: [id])", fkName)
			if ob.relName != "" {
				relAttr = fmt.Sprintf("@relation(%q, fields: [%s], references: [id])", ob.relName, fkName)
			}
			block.lines = append(block.lines, fieldLine{
				name:       inverseName,
				renderedTy: ob.fromModel + "?",
				attributes: []string{relAttr},
			})
		}

		e.logger.Debug("injected inverse relation",
			zap.String("model", ob.targetModel),
			zap.String("field", inverseName),
			zap.String("relation", ob.relName))
	}
}

// hasIDField reports whether any emitted line carries the @id attribute.
func (e *Emitter) hasIDField(block *modelBlock) bool {
	for _, line := range block.lines {
		for _, attr := range line.attributes {
			if attr == "@id" {
				return true
			}
		}
	}
	return false
}
