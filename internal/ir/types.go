package ir

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Type is the computed type of a selected or filtered value.
//
// This is a sealed interface - only types in this package implement it.
// Consumers switch exhaustively over Scalar, Collection, Object and Unknown.
type Type interface {
	typeNode()
	String() string
}

// Scalar is a column value type.
type Scalar struct {
	Name     ScalarType
	Nullable bool
}

func (Scalar) typeNode() {}

func (s Scalar) String() string {
	if s.Nullable {
		return string(s.Name) + "?"
	}
	return string(s.Name)
}

// Collection wraps the element type produced by a to-many traversal.
type Collection struct {
	Elem Type
}

func (Collection) typeNode() {}

func (c Collection) String() string {
	return "Array<" + typeString(c.Elem) + ">"
}

// Object is a nested row produced by a to-one embed or a projection root.
type Object struct {
	Shape *Shape
}

func (Object) typeNode() {}

func (o Object) String() string {
	return o.Shape.String()
}

// Unknown is the opaque placeholder used when static resolution fails.
type Unknown struct{}

func (Unknown) typeNode() {}

func (Unknown) String() string { return "unknown" }

// ColumnType returns the value type of a scalar column.
// Relationship columns have no scalar type and yield Unknown.
func ColumnType(c Column) Type {
	if c.IsRelation() {
		return Unknown{}
	}
	return Scalar{Name: c.Type, Nullable: c.Nullable}
}

func typeString(t Type) string {
	if t == nil {
		return "unknown"
	}
	return t.String()
}

// Field is one output key of a Shape.
type Field struct {
	Key  string
	Type Type
}

// Shape is an ordered mapping from output key to type (a resolved row shape).
type Shape struct {
	fields []Field
	index  map[string]int
}

// NewShape creates a shape from fields, applying Set semantics in order.
func NewShape(fields ...Field) *Shape {
	s := &Shape{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		s.Set(f.Key, f.Type)
	}
	return s
}

// F is a shorthand for Field.
// Example: NewShape(F("id", Scalar{Name: TypeString}))
func F(key string, t Type) Field {
	return Field{Key: key, Type: t}
}

// Set adds or replaces a key. Last write wins; a replaced key keeps its
// original position.
func (s *Shape) Set(key string, t Type) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[key]; ok {
		s.fields[i].Type = t
		return
	}
	s.index[key] = len(s.fields)
	s.fields = append(s.fields, Field{Key: key, Type: t})
}

// Get returns the type stored under key.
func (s *Shape) Get(key string) (Type, bool) {
	if s == nil {
		return nil, false
	}
	i, ok := s.index[key]
	if !ok {
		return nil, false
	}
	return s.fields[i].Type, true
}

// Fields returns the fields in insertion order.
func (s *Shape) Fields() []Field {
	if s == nil {
		return nil
	}
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Keys returns the output keys in insertion order.
func (s *Shape) Keys() []string {
	if s == nil {
		return nil
	}
	keys := make([]string, len(s.fields))
	for i, f := range s.fields {
		keys[i] = f.Key
	}
	return keys
}

// Len returns the number of keys.
func (s *Shape) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// String renders the shape as {key: type, ...}.
func (s *Shape) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range s.Fields() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Key)
		b.WriteString(": ")
		b.WriteString(typeString(f.Type))
	}
	b.WriteByte('}')
	return b.String()
}

// Equal reports whether two types are structurally identical, including
// shape key order.
func Equal(a, b Type) bool {
	switch x := a.(type) {
	case Scalar:
		y, ok := b.(Scalar)
		return ok && x == y
	case Collection:
		y, ok := b.(Collection)
		return ok && Equal(x.Elem, y.Elem)
	case Object:
		y, ok := b.(Object)
		return ok && x.Shape.Equal(y.Shape)
	case Unknown:
		_, ok := b.(Unknown)
		return ok
	case nil:
		return b == nil
	default:
		return false
	}
}

// Equal reports whether two shapes have the same keys, order and types.
func (s *Shape) Equal(o *Shape) bool {
	if s.Len() != o.Len() {
		return false
	}
	of := o.Fields()
	for i, f := range s.Fields() {
		if f.Key != of[i].Key || !Equal(f.Type, of[i].Type) {
			return false
		}
	}
	return true
}

// Type kinds used by the map/JSON encoding.
const (
	KindScalar     = "scalar"
	KindCollection = "collection"
	KindObject     = "object"
	KindUnknown    = "unknown"
)

// TypeToMap converts a type to plain maps and slices suitable for
// MarshalCanonical. Shape fields are encoded as an array to keep order.
func TypeToMap(t Type) map[string]any {
	switch v := t.(type) {
	case Scalar:
		m := map[string]any{"kind": KindScalar, "type": string(v.Name)}
		if v.Nullable {
			m["nullable"] = true
		}
		return m
	case Collection:
		return map[string]any{"kind": KindCollection, "elem": TypeToMap(v.Elem)}
	case Object:
		fields := make([]any, 0, v.Shape.Len())
		for _, f := range v.Shape.Fields() {
			fields = append(fields, map[string]any{"key": f.Key, "type": TypeToMap(f.Type)})
		}
		return map[string]any{"kind": KindObject, "fields": fields}
	default:
		return map[string]any{"kind": KindUnknown}
	}
}

// TypeFromMap is the inverse of TypeToMap. It accepts the generic values
// produced by encoding/json.
func TypeFromMap(v any) (Type, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("type: expected object, got %T", v)
	}
	kind, _ := m["kind"].(string)
	switch kind {
	case KindScalar:
		name, _ := m["type"].(string)
		if !ValidScalarTypes[ScalarType(name)] {
			return nil, fmt.Errorf("type: unknown scalar type %q", name)
		}
		nullable, _ := m["nullable"].(bool)
		return Scalar{Name: ScalarType(name), Nullable: nullable}, nil
	case KindCollection:
		elem, err := TypeFromMap(m["elem"])
		if err != nil {
			return nil, fmt.Errorf("collection: %w", err)
		}
		return Collection{Elem: elem}, nil
	case KindObject:
		raw, _ := m["fields"].([]any)
		shape := NewShape()
		for i, rf := range raw {
			fm, ok := rf.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("object field %d: expected object, got %T", i, rf)
			}
			key, _ := fm["key"].(string)
			ft, err := TypeFromMap(fm["type"])
			if err != nil {
				return nil, fmt.Errorf("object field %q: %w", key, err)
			}
			shape.Set(key, ft)
		}
		return Object{Shape: shape}, nil
	case KindUnknown:
		return Unknown{}, nil
	default:
		return nil, fmt.Errorf("type: unknown kind %q", kind)
	}
}

// MarshalType encodes a type as canonical JSON.
func MarshalType(t Type) ([]byte, error) {
	return MarshalCanonical(TypeToMap(t))
}

// UnmarshalType decodes a type produced by MarshalType.
func UnmarshalType(data []byte) (Type, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal type: %w", err)
	}
	return TypeFromMap(raw)
}
