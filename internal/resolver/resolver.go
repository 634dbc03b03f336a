// Package resolver holds the field resolution functions an executor
// dispatches to, keyed by object type name and field name.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hanpama/refgraph/internal/schema"
)

// Func resolves one field. source is the parent object value (nil for root
// fields) and args the bound arguments. A Func may return a Pending value; the
// executor awaits it before completing the field.
type Func func(ctx context.Context, source any, args map[string]any) (any, error)

// LoadFunc translates an identifier into the entity it refers to.
type LoadFunc func(ctx context.Context, id any) (any, error)

// Map is the nested registration form: { TypeName: { field: fn } }.
type Map map[string]map[string]Func

// MissingResolverError reports a root operation field without a resolver.
type MissingResolverError struct {
	Type  string
	Field string
}

func (e *MissingResolverError) Error() string {
	return fmt.Sprintf("no resolver registered for root field %s.%s", e.Type, e.Field)
}

// Table is the mutable registration surface. It is safe for concurrent use,
// but executors read the Bound form produced by Bind.
type Table struct {
	mu      sync.RWMutex
	fields  map[string]map[string]Func
	loaders map[string]LoadFunc
}

func NewTable() *Table {
	return &Table{
		fields:  make(map[string]map[string]Func),
		loaders: make(map[string]LoadFunc),
	}
}

// Register installs fn for typeName.fieldName, replacing any previous entry.
func (t *Table) Register(typeName, fieldName string, fn Func) {
	t.mu.Lock()
	defer t.mu.Unlock()
	byField, ok := t.fields[typeName]
	if !ok {
		byField = make(map[string]Func)
		t.fields[typeName] = byField
	}
	byField[fieldName] = fn
}

// Lookup returns the resolver for typeName.fieldName or nil.
func (t *Table) Lookup(typeName, fieldName string) Func {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fields[typeName][fieldName]
}

// Load registers every entry of m.
func (t *Table) Load(m Map) {
	for typeName, byField := range m {
		for fieldName, fn := range byField {
			t.Register(typeName, fieldName, fn)
		}
	}
}

// RegisterLoader installs the reference loader for an object type.
func (t *Table) RegisterLoader(typeName string, fn LoadFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loaders[typeName] = fn
}

// Loader returns the reference loader for typeName or nil.
func (t *Table) Loader(typeName string) LoadFunc {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.loaders[typeName]
}

// Bind resolves the table's string keys against r into a Bound indexed by
// type id and field index. Keys naming unknown types or fields, loaders on
// non-object types, and root fields without a resolver are reported together.
func (t *Table) Bind(r *schema.Registry) (*Bound, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	b := &Bound{
		fields:  make([][]Func, r.Len()),
		loaders: make([]LoadFunc, r.Len()),
	}
	var errs []error

	for _, typeName := range sortedKeys(t.fields) {
		typ, err := r.Lookup(typeName)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		row := make([]Func, len(typ.Fields))
		for fieldName, fn := range t.fields[typeName] {
			f := typ.Field(fieldName)
			if f == nil {
				errs = append(errs, &schema.UnknownFieldError{Type: typeName, Field: fieldName})
				continue
			}
			row[f.Index] = fn
		}
		b.fields[typ.ID] = row
	}

	for _, typeName := range sortedKeys(t.loaders) {
		typ, err := r.Lookup(typeName)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if typ.Kind != schema.TypeKindObject {
			errs = append(errs, fmt.Errorf("loader registered for %s type %s", typ.Kind, typeName))
			continue
		}
		b.loaders[typ.ID] = t.loaders[typeName]
	}

	for _, root := range []*schema.Type{r.QueryType(), r.MutationType()} {
		if root == nil {
			continue
		}
		for _, f := range root.Fields {
			if b.Field(root.ID, f.Index) == nil {
				errs = append(errs, &MissingResolverError{Type: root.Name, Field: f.Name})
			}
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return b, nil
}

// Bound is the interned, read-only dispatch form of a Table.
type Bound struct {
	fields  [][]Func
	loaders []LoadFunc
}

// Field returns the resolver for the field at index idx of type id, or nil.
func (b *Bound) Field(id schema.TypeID, idx int) Func {
	if int(id) >= len(b.fields) {
		return nil
	}
	row := b.fields[id]
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}

// Loader returns the reference loader of type id, or nil.
func (b *Bound) Loader(id schema.TypeID) LoadFunc {
	if int(id) >= len(b.loaders) {
		return nil
	}
	return b.loaders[id]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
