// Package schema defines the constrained, JSON-safe schema vocabulary used by
// the generator. Every schema is a tree of Node values built through the
// constructors in builder.go; kinds that cannot be represented in JSON (dates,
// maps, sets, bigints, functions) simply do not exist in this vocabulary.
package schema

import (
	"fmt"
	"sync/atomic"
)

// Kind identifies the variant of a schema node. The set is closed: every
// compiler pass dispatches exhaustively over these values.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBoolean
	KindNull
	KindLiteral
	KindObject
	KindArray
	KindRecord
	KindUnion
	KindDiscriminatedUnion
	KindOptional
	KindNullable
	KindLazy
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindNull:
		return "null"
	case KindLiteral:
		return "literal"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindRecord:
		return "record"
	case KindUnion:
		return "union"
	case KindDiscriminatedUnion:
		return "discriminatedUnion"
	case KindOptional:
		return "optional"
	case KindNullable:
		return "nullable"
	case KindLazy:
		return "lazy"
	default:
		return "unknown"
	}
}

// Refinement narrows a primitive node without changing its JSON representation.
// Refined strings stay strings on the wire; the generator maps them to richer
// column types or attributes.
type Refinement int

const (
	RefineNone Refinement = iota
	RefineDateTime
	RefineUUID
	RefineURL
	RefineEmail
	RefineNumberString
	RefineInt
)

// String returns the string representation of the refinement.
func (r Refinement) String() string {
	switch r {
	case RefineNone:
		return "none"
	case RefineDateTime:
		return "datetime"
	case RefineUUID:
		return "uuid"
	case RefineURL:
		return "url"
	case RefineEmail:
		return "email"
	case RefineNumberString:
		return "numberString"
	case RefineInt:
		return "int"
	default:
		return "unknown"
	}
}

// Handle is the stable identity of a node. Handles are issued from a single
// process-wide counter at construction time, so visited sets and metadata
// tables can be keyed by handle instead of pointer identity.
type Handle int64

var handleCounter atomic.Int64

func nextHandle() Handle {
	return Handle(handleCounter.Add(1))
}

// ObjectField is a single named field of an object node. Field order is
// significant and preserved through compilation.
type ObjectField struct {
	Name   string
	Schema *Node
}

// Node is one schema definition node. Exactly one variant's payload is
// populated, selected by Kind. Nodes are immutable after construction.
type Node struct {
	handle Handle
	kind   Kind

	refinement Refinement

	literal any           // KindLiteral
	fields  []ObjectField // KindObject, ordered
	element *Node         // KindArray
	value   *Node         // KindRecord
	options []*Node       // KindUnion, KindDiscriminatedUnion
	disc    string        // KindDiscriminatedUnion
	inner   *Node         // KindOptional, KindNullable
	thunk   func() *Node  // KindLazy

	// Set when the union was produced by Enum(); generic unions of literals
	// are deliberately not flagged (they compile to String).
	enumOrigin bool
	resolved   *Node // memoized thunk result for KindLazy
}

// Handle returns the node's identity handle.
func (n *Node) Handle() Handle { return n.handle }

// Kind returns the node's variant tag.
func (n *Node) Kind() Kind { return n.kind }

// Refinement returns the primitive refinement, RefineNone when unrefined.
func (n *Node) Refinement() Refinement { return n.refinement }

// LiteralValue returns the fixed value of a literal node.
func (n *Node) LiteralValue() any { return n.literal }

// Fields returns the ordered fields of an object node.
func (n *Node) Fields() []ObjectField { return n.fields }

// FieldSchema returns the schema of the named object field, or nil.
func (n *Node) FieldSchema(name string) *Node {
	for _, f := range n.fields {
		if f.Name == name {
			return f.Schema
		}
	}
	return nil
}

// Element returns the element schema of an array node.
func (n *Node) Element() *Node { return n.element }

// ValueSchema returns the value schema of a record node.
func (n *Node) ValueSchema() *Node { return n.value }

// Options returns the variants of a union or discriminated union node.
func (n *Node) Options() []*Node { return n.options }

// Discriminator returns the discriminator key of a discriminated union node.
func (n *Node) Discriminator() string { return n.disc }

// Inner returns the wrapped schema of an optional or nullable node.
func (n *Node) Inner() *Node { return n.inner }

// IsEnum reports whether this union node was produced by the Enum constructor.
func (n *Node) IsEnum() bool { return n.kind == KindUnion && n.enumOrigin }

// Resolve dereferences a lazy node's thunk, memoizing the result so the thunk
// runs at most once. Non-lazy nodes resolve to themselves.
func (n *Node) Resolve() *Node {
	if n.kind != KindLazy {
		return n
	}
	if n.resolved == nil {
		n.resolved = n.thunk()
	}
	return n.resolved
}

// Unwrap strips Optional, Nullable, and Lazy wrappers, reporting whether an
// Optional or Nullable wrapper was crossed. The visited set, keyed by handle,
// guarantees termination on cyclic lazy graphs.
func (n *Node) Unwrap(visited map[Handle]bool) (inner *Node, optional bool) {
	cur := n
	for {
		if visited[cur.handle] {
			return cur, optional
		}
		switch cur.kind {
		case KindOptional, KindNullable:
			visited[cur.handle] = true
			optional = true
			cur = cur.inner
		case KindLazy:
			visited[cur.handle] = true
			cur = cur.Resolve()
		default:
			return cur, optional
		}
	}
}

// EnumValues returns the string values of an enum-origin union in declaration
// order. It returns an error for any other node.
func (n *Node) EnumValues() ([]string, error) {
	if !n.IsEnum() {
		return nil, fmt.Errorf("node is %s, not an enum union", n.kind)
	}
	values := make([]string, 0, len(n.options))
	for _, opt := range n.options {
		s, ok := opt.literal.(string)
		if !ok {
			return nil, fmt.Errorf("enum option is %T, expected string", opt.literal)
		}
		values = append(values, s)
	}
	return values, nil
}

// Map is an ordered collection of named top-level schemas. Iteration follows
// insertion order, which the generator relies on for deterministic output.
type Map struct {
	names   []string
	schemas map[string]*Node
}

// NewMap creates an empty ordered schema map.
func NewMap() *Map {
	return &Map{schemas: make(map[string]*Node)}
}

// Set adds or replaces a named schema. A replaced name keeps its original
// position.
func (m *Map) Set(name string, node *Node) {
	if _, exists := m.schemas[name]; !exists {
		m.names = append(m.names, name)
	}
	m.schemas[name] = node
}

// Get returns the schema registered under name.
func (m *Map) Get(name string) (*Node, bool) {
	n, ok := m.schemas[name]
	return n, ok
}

// Has reports whether a schema is registered under name.
func (m *Map) Has(name string) bool {
	_, ok := m.schemas[name]
	return ok
}

// Names returns the registered names in insertion order.
func (m *Map) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Len returns the number of registered schemas.
func (m *Map) Len() int { return len(m.names) }
