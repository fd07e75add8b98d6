package schema

// Constructors in this file are the only way to create schema nodes. Kinds
// that have no JSON representation (date, bigint, map, set, function, symbol,
// transform, effect) are not part of the vocabulary at all; callers that need
// them use the JSON-safe alternatives (dateString, int, record, array).

// String creates a plain string node.
func String() *Node {
	return &Node{handle: nextHandle(), kind: KindString}
}

// Number creates a plain number node.
func Number() *Node {
	return &Node{handle: nextHandle(), kind: KindNumber}
}

// Boolean creates a boolean node.
func Boolean() *Node {
	return &Node{handle: nextHandle(), kind: KindBoolean}
}

// Null creates a null node. Null is only meaningful inside unions; a bare
// null field has no relational representation.
func Null() *Node {
	return &Node{handle: nextHandle(), kind: KindNull}
}

// Literal creates a node matching exactly one fixed value.
func Literal(value any) *Node {
	return &Node{handle: nextHandle(), kind: KindLiteral, literal: value}
}

// Object creates an object node from ordered fields.
func Object(fields ...ObjectField) *Node {
	return &Node{handle: nextHandle(), kind: KindObject, fields: fields}
}

// Field pairs a name with a schema for use in Object.
func Field(name string, node *Node) ObjectField {
	return ObjectField{Name: name, Schema: node}
}

// Array creates an array node over the given element schema.
func Array(element *Node) *Node {
	return &Node{handle: nextHandle(), kind: KindArray, element: element}
}

// Record creates a record node: string keys mapping to a uniform value
// schema. This is the JSON-safe stand-in for map types.
func Record(value *Node) *Node {
	return &Node{handle: nextHandle(), kind: KindRecord, value: value}
}

// Union creates an untagged union over the given options. A union of string
// literals built this way compiles to a plain String column; use Enum for a
// named enum.
func Union(options ...*Node) *Node {
	return &Node{handle: nextHandle(), kind: KindUnion, options: options}
}

// DiscriminatedUnion creates a union whose variants are distinguished by the
// named key. It always compiles to a Json column.
func DiscriminatedUnion(key string, variants ...*Node) *Node {
	return &Node{handle: nextHandle(), kind: KindDiscriminatedUnion, disc: key, options: variants}
}

// Optional wraps a schema that may be absent.
func Optional(inner *Node) *Node {
	return &Node{handle: nextHandle(), kind: KindOptional, inner: inner}
}

// Nullable wraps a schema that may be null.
func Nullable(inner *Node) *Node {
	return &Node{handle: nextHandle(), kind: KindNullable, inner: inner}
}

// Lazy defers construction of a schema until first traversal, which is the
// required way to introduce self-referential structures. The thunk runs at
// most once.
func Lazy(thunk func() *Node) *Node {
	return &Node{handle: nextHandle(), kind: KindLazy, thunk: thunk}
}

// Enum creates a union of string literals flagged as enum-origin, which the
// generator registers as a named enum type.
func Enum(values ...string) *Node {
	options := make([]*Node, len(values))
	for i, v := range values {
		options[i] = Literal(v)
	}
	return &Node{handle: nextHandle(), kind: KindUnion, options: options, enumOrigin: true}
}

// DateString creates a string node refined to strict ISO-8601 datetimes.
// This is the JSON-safe alternative to a native date kind.
func DateString() *Node {
	return &Node{handle: nextHandle(), kind: KindString, refinement: RefineDateTime}
}

// UUID creates a string node refined to UUID values.
func UUID() *Node {
	return &Node{handle: nextHandle(), kind: KindString, refinement: RefineUUID}
}

// URL creates a string node refined to absolute URLs.
func URL() *Node {
	return &Node{handle: nextHandle(), kind: KindString, refinement: RefineURL}
}

// Email creates a string node refined to email addresses.
func Email() *Node {
	return &Node{handle: nextHandle(), kind: KindString, refinement: RefineEmail}
}

// NumberString creates a string node refined to digit-only strings. The value
// stays a string so leading zeros survive; it is deliberately not coerced to
// a number.
func NumberString() *Node {
	return &Node{handle: nextHandle(), kind: KindString, refinement: RefineNumberString}
}

// Int creates a number node restricted to integers.
func Int() *Node {
	return &Node{handle: nextHandle(), kind: KindNumber, refinement: RefineInt}
}
