package resolver

import (
	"context"
	"sync"
)

// Value returns a Func that always resolves to val.
func Value(val any) Func {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		return val, nil
	}
}

// Error returns a Func that always fails with err.
func Error(err error) Func {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		return nil, err
	}
}

// Call is one recorded resolver invocation.
type Call struct {
	ObjectType string
	Field      string
	Source     any
	Args       map[string]any
}

// Recorder logs resolver invocations in the order they happen.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

// Wrap returns a copy of m whose resolvers record each call before running.
func (r *Recorder) Wrap(m Map) Map {
	out := make(Map, len(m))
	for typeName, byField := range m {
		wrapped := make(map[string]Func, len(byField))
		for fieldName, fn := range byField {
			wrapped[fieldName] = r.wrap(typeName, fieldName, fn)
		}
		out[typeName] = wrapped
	}
	return out
}

func (r *Recorder) wrap(typeName, fieldName string, fn Func) Func {
	return func(ctx context.Context, source any, args map[string]any) (any, error) {
		r.mu.Lock()
		r.calls = append(r.calls, Call{ObjectType: typeName, Field: fieldName, Source: source, Args: args})
		r.mu.Unlock()
		return fn(ctx, source, args)
	}
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Fields returns "Type.field" for each recorded call.
func (r *Recorder) Fields() []string {
	calls := r.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.ObjectType + "." + c.Field
	}
	return out
}

// Reset clears the recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}
