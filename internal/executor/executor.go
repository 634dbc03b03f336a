package executor

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hanpama/refgraph/internal/entity"
	"github.com/hanpama/refgraph/internal/eventbus"
	"github.com/hanpama/refgraph/internal/events"
	"github.com/hanpama/refgraph/internal/resolver"
	"github.com/hanpama/refgraph/internal/schema"
)

// ErrSchemaNotLoaded is returned for requests executed before LoadSchema.
var ErrSchemaNotLoaded = errors.New("schema not loaded")

// ErrNilRequest is reported when Execute is given no request.
var ErrNilRequest = errors.New("nil request")

// Executor answers requests against a type registry and a resolver table.
// It is safe for concurrent use.
type Executor struct {
	mu       sync.RWMutex
	registry *schema.Registry
	table    *resolver.Table
	bound    *resolver.Bound
	bindErr  error

	parallelism int
}

// Option configures an Executor.
type Option func(*Executor)

// WithParallelism resolves up to n sibling query fields concurrently. Values
// below 2 resolve siblings one at a time, in selection order. Mutation root
// fields are always resolved one at a time.
func WithParallelism(n int) Option {
	return func(e *Executor) { e.parallelism = n }
}

// New binds table against registry. Either may be nil and supplied later via
// LoadSchema and LoadResolvers.
func New(registry *schema.Registry, table *resolver.Table, opts ...Option) (*Executor, error) {
	if table == nil {
		table = resolver.NewTable()
	}
	e := &Executor{registry: registry, table: table, parallelism: 1}
	for _, opt := range opts {
		opt(e)
	}
	if registry != nil {
		if err := e.rebind(); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// LoadSchema registers copies of types into a fresh registry with the default
// root type names and makes it the executor's schema. The caller's types are
// left untouched. Builtin scalars in types are skipped.
func (e *Executor) LoadSchema(types []*schema.Type) error {
	r := schema.NewRegistry()
	for _, t := range types {
		if t.Kind == schema.TypeKindScalar && schema.IsBuiltinScalar(t.Name) {
			continue
		}
		if err := r.Register(t.Clone()); err != nil {
			return err
		}
	}
	if err := r.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.registry = r
	e.mu.Unlock()
	// Binding errors surface from LoadResolvers and Execute.
	_ = e.rebind()
	return nil
}

// LoadResolvers adds m to the resolver table. The returned error reflects
// whether the table now binds against the loaded schema; requests fail with
// the same error until it does.
func (e *Executor) LoadResolvers(m resolver.Map) error {
	e.table.Load(m)
	return e.rebind()
}

// LoadLoaders adds type-level reference loaders.
func (e *Executor) LoadLoaders(m map[string]resolver.LoadFunc) error {
	for typeName, fn := range m {
		e.table.RegisterLoader(typeName, fn)
	}
	return e.rebind()
}

// Registry returns the loaded schema, or nil.
func (e *Executor) Registry() *schema.Registry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry
}

func (e *Executor) rebind() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.registry == nil {
		return nil
	}
	e.bound, e.bindErr = e.table.Bind(e.registry)
	return e.bindErr
}

// Execute runs req. Field-level failures are reported next to partial data;
// request-level failures (no schema, unbound resolvers, unknown root type,
// cancellation) produce null data and a single error.
func (e *Executor) Execute(ctx context.Context, req *Request) *Response {
	e.mu.RLock()
	registry, bound, bindErr := e.registry, e.bound, e.bindErr
	e.mu.RUnlock()

	if req == nil {
		return abort(ErrNilRequest)
	}
	if registry == nil {
		return abort(ErrSchemaNotLoaded)
	}
	if bound == nil {
		return abort(bindErr)
	}

	op := req.Operation
	if op == "" {
		op = Query
	}
	typeName := req.TypeName
	if typeName == "" {
		switch op {
		case Query:
			typeName = registry.QueryTypeName()
		case Mutation:
			typeName = registry.MutationTypeName()
		default:
			return abort(fmt.Errorf("unsupported operation type: %s", op))
		}
	}
	rootType, err := registry.Lookup(typeName)
	if err != nil {
		return abort(err)
	}
	if rootType.Kind != schema.TypeKindObject {
		return abort(fmt.Errorf("root type %s is not an object type", typeName))
	}

	for _, sel := range req.Selection {
		if f := rootType.Field(sel.Name); f != nil && bound.Field(rootType.ID, f.Index) == nil {
			return abort(&resolver.MissingResolverError{Type: rootType.Name, Field: f.Name})
		}
	}

	if err := ctx.Err(); err != nil {
		return abort(err)
	}

	st := &execution{
		ctx:         ctx,
		registry:    registry,
		bound:       bound,
		variables:   req.Variables,
		parallelism: e.parallelism,
		errorPaths:  make(map[string]struct{}),
		events:      eventbus.Enabled(),
	}
	data := st.executeSelection(rootType, req.Selection, req.RootValue, Path{}, op == Mutation)

	if st.aborted != nil {
		return abort(st.aborted)
	}
	res := &Response{Errors: st.errors}
	if data != nil {
		res.Data = data
	}
	return res
}

func abort(err error) *Response {
	return &Response{Errors: []GraphQLError{locate(err, nil)}}
}

// execution is the state of one request.
type execution struct {
	ctx         context.Context
	registry    *schema.Registry
	bound       *resolver.Bound
	variables   map[string]any
	parallelism int
	events      bool

	mu         sync.Mutex
	errors     []GraphQLError
	errorPaths map[string]struct{}
	aborted    error
}

func (st *execution) addError(path Path, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.errors = append(st.errors, locate(err, path))
	st.errorPaths[path.String()] = struct{}{}
}

func (st *execution) hasErrorAt(path Path) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	_, ok := st.errorPaths[path.String()]
	return ok
}

func (st *execution) abort(err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.aborted == nil {
		st.aborted = err
	}
}

func (st *execution) isAborted() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.aborted != nil
}

// executeSelection resolves every selection against source. It returns nil
// when a non-null field came back null, so the caller nulls this object.
func (st *execution) executeSelection(parent *schema.Type, sels []*Selection, source any, path Path, serial bool) map[string]any {
	values := make([]any, len(sels))
	bubbled := make([]bool, len(sels))

	if serial || st.parallelism < 2 || len(sels) < 2 {
		for i, sel := range sels {
			if st.isAborted() {
				return nil
			}
			values[i], bubbled[i] = st.executeField(parent, sel, source, path.append(sel.ResponseName()))
		}
	} else {
		var g errgroup.Group
		g.SetLimit(st.parallelism)
		for i, sel := range sels {
			g.Go(func() error {
				values[i], bubbled[i] = st.executeField(parent, sel, source, path.append(sel.ResponseName()))
				return nil
			})
		}
		g.Wait()
	}

	out := make(map[string]any, len(sels))
	for i, sel := range sels {
		if bubbled[i] {
			return nil
		}
		out[sel.ResponseName()] = values[i]
	}
	return out
}

// executeField resolves and shapes one field. The second result reports a
// null in non-null position that must propagate to the parent.
func (st *execution) executeField(parent *schema.Type, sel *Selection, source any, path Path) (any, bool) {
	if sel.Name == "__typename" {
		return parent.Name, false
	}

	field := parent.Field(sel.Name)
	if field == nil {
		st.addError(path, &schema.UnknownFieldError{Type: parent.Name, Field: sel.Name})
		return nil, false
	}

	named, err := st.registry.Lookup(field.Type.GetNamedType())
	if err != nil {
		return st.fail(path, field.Type, err)
	}
	if shapeErr := checkShape(parent, field, named, sel); shapeErr != nil {
		return st.fail(path, field.Type, shapeErr)
	}

	args, err := bindArguments(st.registry, parent, field, sel.Arguments, st.variables)
	if err != nil {
		return st.fail(path, field.Type, err)
	}

	value, err := st.resolve(parent, field, source, args, path)
	if err != nil {
		if ctxErr := st.ctx.Err(); ctxErr != nil {
			st.abort(ctxErr)
			return nil, false
		}
		return st.fail(path, field.Type, &ResolverExecutionError{Type: parent.Name, Field: field.Name, Err: err})
	}

	v, _ := st.completeValue(parent, field, field.Type, sel, value, path)
	return v, v == nil && field.Type.IsNonNull()
}

// fail records err at path and nulls the field.
func (st *execution) fail(path Path, typ *schema.TypeRef, err error) (any, bool) {
	st.addError(path, err)
	return nil, typ.IsNonNull()
}

func checkShape(parent *schema.Type, field *schema.Field, named *schema.Type, sel *Selection) error {
	leaf := named.Kind != schema.TypeKindObject
	if leaf == (len(sel.Children) == 0) {
		return nil
	}
	return &SelectionShapeError{Type: parent.Name, Field: field.Name, FieldType: field.Type.String(), Leaf: leaf}
}

// resolve invokes the field's resolver, or reads the field off source when
// none is registered, and joins a pending result.
func (st *execution) resolve(parent *schema.Type, field *schema.Field, source any, args map[string]any, path Path) (value any, err error) {
	var start time.Time
	if st.events {
		start = time.Now()
		eventbus.Publish(st.ctx, events.ResolverStart{TypeName: parent.Name, FieldName: field.Name, Path: path.String()})
		defer func() {
			eventbus.Publish(st.ctx, events.ResolverFinish{
				TypeName:  parent.Name,
				FieldName: field.Name,
				Path:      path.String(),
				Err:       err,
				Duration:  time.Since(start),
			})
		}()
	}
	defer func() {
		if p := recover(); p != nil {
			value, err = nil, fmt.Errorf("resolver panic: %v", p)
		}
	}()

	if fn := st.bound.Field(parent.ID, field.Index); fn != nil {
		value, err = fn(st.ctx, source, args)
	} else {
		value, err = resolver.Default(st.ctx, source, field.Name)
	}
	if err != nil {
		return nil, err
	}
	return resolver.Join(st.ctx, value)
}

// completeValue shapes value by typ. The second result reports that the null
// it returns was caused by an error already recorded.
func (st *execution) completeValue(parent *schema.Type, field *schema.Field, typ *schema.TypeRef, sel *Selection, value any, path Path) (any, bool) {
	if typ.IsNonNull() {
		v, errored := st.completeValue(parent, field, typ.Unwrap(), sel, value, path)
		if v == nil {
			if !errored && !st.hasErrorAt(path) {
				st.addError(path, &NonNullViolationError{Type: parent.Name, Field: field.Name})
			}
			return nil, true
		}
		return v, false
	}

	if entity.IsNull(value) {
		return nil, false
	}

	if typ.IsList() {
		return st.completeList(parent, field, typ, sel, value, path)
	}

	named := st.registry.Type(typ.GetNamedType())
	if named.Kind != schema.TypeKindObject {
		v, err := serializeLeaf(named.Name, value)
		if err != nil {
			st.addError(path, &ResolverExecutionError{Type: parent.Name, Field: field.Name, Err: err})
			return nil, true
		}
		return v, false
	}

	switch entity.Classify(value) {
	case entity.KindRef, entity.KindScalar:
		deref, err := st.dereference(named, value)
		if err != nil {
			if ctxErr := st.ctx.Err(); ctxErr != nil {
				st.abort(ctxErr)
				return nil, true
			}
			st.addError(path, err)
			return nil, true
		}
		if entity.IsNull(deref) {
			return nil, false
		}
		if k := entity.Classify(deref); k != entity.KindEntity {
			st.addError(path, &UnresolvedReferenceError{Type: named.Name, ID: value, Err: fmt.Errorf("loader returned a %s", k)})
			return nil, true
		}
		value = deref
	case entity.KindList:
		st.addError(path, &ResolverExecutionError{
			Type:  parent.Name,
			Field: field.Name,
			Err:   fmt.Errorf("expected an object for %s, got %T", named.Name, value),
		})
		return nil, true
	}

	obj := st.executeSelection(named, sel.Children, value, path, false)
	if obj == nil {
		return nil, true
	}
	return obj, false
}

func (st *execution) completeList(parent *schema.Type, field *schema.Field, typ *schema.TypeRef, sel *Selection, value any, path Path) (any, bool) {
	items, ok := value.([]any)
	if !ok {
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			st.addError(path, &ResolverExecutionError{
				Type:  parent.Name,
				Field: field.Name,
				Err:   fmt.Errorf("expected list value, got %T", value),
			})
			return nil, true
		}
		items = make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
	}

	inner := typ.Unwrap()
	out := make([]any, len(items))
	for i, item := range items {
		if st.isAborted() {
			return nil, true
		}
		v, _ := st.completeValue(parent, field, inner, sel, item, path.append(i))
		if v == nil && inner.IsNonNull() {
			return nil, true
		}
		out[i] = v
	}
	return out, false
}

// dereference turns an identifier in object position into an entity using
// the target type's loader.
func (st *execution) dereference(target *schema.Type, ref any) (any, error) {
	load := st.bound.Loader(target.ID)
	if load == nil {
		return nil, &UnresolvedReferenceError{Type: target.Name, ID: refID(ref)}
	}
	v, err := load(st.ctx, refID(ref))
	if err == nil {
		v, err = resolver.Join(st.ctx, v)
	}
	if err != nil {
		return nil, &UnresolvedReferenceError{Type: target.Name, ID: refID(ref), Err: err}
	}
	return v, nil
}

// refID unwraps entity.Ref so loaders see the bare identifier.
func refID(ref any) any {
	switch r := ref.(type) {
	case entity.Ref:
		return r.ID
	case *entity.Ref:
		return r.ID
	}
	return ref
}
