// Package entity defines the value model shared by resolvers, the store and
// the executor. An entity is a field-name keyed map whose values are scalars,
// nested entities, lists of either, or references to other entities that are
// dereferenced only when a query selects them.
package entity

import (
	"fmt"
	"reflect"
	"strconv"
)

// Entity is a single record. The "id" key holds its identifier.
type Entity map[string]any

// ID returns the entity's identifier and whether it is set.
func (e Entity) ID() (int, bool) {
	return AsID(e["id"])
}

// Clone returns a shallow copy so callers can't mutate stored records.
func (e Entity) Clone() Entity {
	if e == nil {
		return nil
	}
	out := make(Entity, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Ref stands in for a related entity stored by identifier.
type Ref struct {
	ID int
}

func (r Ref) String() string { return "ref:" + strconv.Itoa(r.ID) }

// RefTo returns a reference to the entity with the given identifier.
func RefTo(id int) Ref { return Ref{ID: id} }

// Kind classifies a raw value.
type Kind uint8

const (
	KindNull Kind = iota
	KindScalar
	KindList
	KindRef
	KindEntity
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	case KindRef:
		return "ref"
	case KindEntity:
		return "entity"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Classify reports which variant v is. Typed nils are null; maps and structs
// are entities; slices and arrays other than []byte are lists.
func Classify(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case Ref, *Ref:
		if r, ok := v.(*Ref); ok && r == nil {
			return KindNull
		}
		return KindRef
	case Entity, map[string]any:
		if reflect.ValueOf(v).IsNil() {
			return KindNull
		}
		return KindEntity
	case string, bool, int, int32, int64, float32, float64, []byte:
		return KindScalar
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return KindNull
		}
		return Classify(rv.Elem().Interface())
	case reflect.Map:
		if rv.IsNil() {
			return KindNull
		}
		return KindEntity
	case reflect.Struct:
		return KindEntity
	case reflect.Slice:
		if rv.IsNil() {
			return KindNull
		}
		return KindList
	case reflect.Array:
		return KindList
	case reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return KindNull
		}
	}
	return KindScalar
}

// IsNull reports whether v is nil or a typed nil.
func IsNull(v any) bool { return Classify(v) == KindNull }

// AsID extracts an identifier from a Ref or an integral scalar.
func AsID(v any) (int, bool) {
	switch x := v.(type) {
	case Ref:
		return x.ID, true
	case *Ref:
		if x == nil {
			return 0, false
		}
		return x.ID, true
	case int:
		return x, true
	case int32:
		return int(x), true
	case int64:
		return int(x), true
	case float64:
		if x == float64(int(x)) {
			return int(x), true
		}
	case string:
		if n, err := strconv.Atoi(x); err == nil {
			return n, true
		}
	}
	return 0, false
}
