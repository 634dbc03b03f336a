package executor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/refgraph/internal/entity"
	"github.com/hanpama/refgraph/internal/resolver"
	"github.com/hanpama/refgraph/internal/schema"
)

const peopleSDL = `
type Query {
  person(id: ID!): Person
  people(limit: Int = 10): [Person!]!
}

type Person {
  id: ID!
  name: String
  age: Int
  friend: Person
}
`

var people = []entity.Entity{
	{"id": 1, "name": "Jen", "age": 31, "friend": 2},
	{"id": 2, "name": "Chris", "age": 29, "friend": 1},
}

func findPerson(id any) (any, error) {
	n, ok := entity.AsID(id)
	if !ok {
		return nil, fmt.Errorf("invalid person id %v", id)
	}
	for _, p := range people {
		if p["id"] == n {
			return p, nil
		}
	}
	return nil, nil
}

func peopleResolvers() resolver.Map {
	return resolver.Map{
		"Query": {
			"person": func(ctx context.Context, source any, args map[string]any) (any, error) {
				return findPerson(args["id"])
			},
			"people": func(ctx context.Context, source any, args map[string]any) (any, error) {
				limit := args["limit"].(int)
				if limit > len(people) {
					limit = len(people)
				}
				return people[:limit], nil
			},
		},
	}
}

func peopleLoaders() map[string]resolver.LoadFunc {
	return map[string]resolver.LoadFunc{
		"Person": func(ctx context.Context, id any) (any, error) { return findPerson(id) },
	}
}

// newTestExecutor builds an executor from SDL, resolvers and loaders and
// fails the test if they do not bind.
func newTestExecutor(t *testing.T, sdl string, m resolver.Map, loaders map[string]resolver.LoadFunc, opts ...Option) *Executor {
	t.Helper()
	r, err := schema.BuildFromSDL(sdl)
	require.NoError(t, err)
	tbl := resolver.NewTable()
	tbl.Load(m)
	for typeName, fn := range loaders {
		tbl.RegisterLoader(typeName, fn)
	}
	e, err := New(r, tbl, opts...)
	require.NoError(t, err)
	return e
}

func located(code, message string, path ...PathElement) GraphQLError {
	var p Path
	if len(path) > 0 {
		p = Path(path)
	}
	return GraphQLError{Message: message, Path: p, Extensions: map[string]any{"code": code}}
}

func assertResponse(t *testing.T, want, got *Response) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Response mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_PersonFriendScenario(t *testing.T) {
	e := newTestExecutor(t, peopleSDL, peopleResolvers(), peopleLoaders())

	got := e.Execute(context.Background(), &Request{
		Operation: Query,
		Selection: []*Selection{
			Field("person", Field("name"), Field("friend", Field("name"))).WithArgs(map[string]any{"id": 1}),
		},
	})

	assertResponse(t, &Response{
		Data: map[string]any{
			"person": map[string]any{
				"name":   "Jen",
				"friend": map[string]any{"name": "Chris"},
			},
		},
	}, got)
}

func TestExecute_ExactSelectionShape(t *testing.T) {
	e := newTestExecutor(t, peopleSDL, peopleResolvers(), peopleLoaders())

	got := e.Execute(context.Background(), &Request{
		Selection: []*Selection{
			Field("people", Field("id"), Field("name"), Field("friend", Field("id"), Field("friend", Field("name")))),
		},
	})

	assertResponse(t, &Response{
		Data: map[string]any{
			"people": []any{
				map[string]any{"id": 1, "name": "Jen", "friend": map[string]any{"id": 2, "friend": map[string]any{"name": "Jen"}}},
				map[string]any{"id": 2, "name": "Chris", "friend": map[string]any{"id": 1, "friend": map[string]any{"name": "Chris"}}},
			},
		},
	}, got)
}

func TestExecute_AliasesAndTypename(t *testing.T) {
	e := newTestExecutor(t, peopleSDL, peopleResolvers(), peopleLoaders())

	got := e.Execute(context.Background(), &Request{
		Selection: []*Selection{
			Field("person", Field("__typename"), Field("name").As("displayName")).WithArgs(map[string]any{"id": "2"}).As("chris"),
			Field("person", Field("name")).WithArgs(map[string]any{"id": "1"}).As("jen"),
		},
	})

	assertResponse(t, &Response{
		Data: map[string]any{
			"chris": map[string]any{"__typename": "Person", "displayName": "Chris"},
			"jen":   map[string]any{"name": "Jen"},
		},
	}, got)
}

func TestExecute_ArgumentsAndVariables(t *testing.T) {
	var rec resolver.Recorder
	e := newTestExecutor(t, peopleSDL, rec.Wrap(peopleResolvers()), peopleLoaders())

	got := e.Execute(context.Background(), &Request{
		Selection: []*Selection{
			Field("person", Field("name")).WithArgs(map[string]any{"id": Variable{Name: "pid"}, "unused": true}),
			Field("people", Field("name")),
			Field("people", Field("name")).WithArgs(map[string]any{"limit": Variable{Name: "limit"}}).As("first"),
		},
		Variables: map[string]any{"pid": float64(2), "limit": float64(1)},
	})

	assertResponse(t, &Response{
		Data: map[string]any{
			"person": map[string]any{"name": "Chris"},
			"people": []any{map[string]any{"name": "Jen"}, map[string]any{"name": "Chris"}},
			"first":  []any{map[string]any{"name": "Jen"}},
		},
	}, got)

	wantCalls := []resolver.Call{
		{ObjectType: "Query", Field: "person", Args: map[string]any{"id": 2}},
		{ObjectType: "Query", Field: "people", Args: map[string]any{"limit": 10}},
		{ObjectType: "Query", Field: "people", Args: map[string]any{"limit": 1}},
	}
	if diff := cmp.Diff(wantCalls, rec.Calls()); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_NullableNull(t *testing.T) {
	e := newTestExecutor(t, peopleSDL, peopleResolvers(), peopleLoaders())

	got := e.Execute(context.Background(), &Request{
		Selection: []*Selection{
			Field("person", Field("name")).WithArgs(map[string]any{"id": 42}),
		},
	})

	assertResponse(t, &Response{Data: map[string]any{"person": nil}}, got)
}

func TestExecute_UnknownFieldKeepsSiblings(t *testing.T) {
	e := newTestExecutor(t, peopleSDL, peopleResolvers(), peopleLoaders())

	got := e.Execute(context.Background(), &Request{
		Selection: []*Selection{
			Field("person", Field("name"), Field("nickname"), Field("age")).WithArgs(map[string]any{"id": 1}),
		},
	})

	assertResponse(t, &Response{
		Data: map[string]any{
			"person": map[string]any{"name": "Jen", "nickname": nil, "age": 31},
		},
		Errors: []GraphQLError{
			located(CodeUnknownField, "Cannot query field 'nickname' on type 'Person'", "person", "nickname"),
		},
	}, got)
}

func TestExecute_DefaultResolverReadsStructs(t *testing.T) {
	type pet struct {
		Name    string `json:"name"`
		Species string
	}
	e := newTestExecutor(t, `
type Query { pet: Pet }
type Pet { name: String species: String }
`, resolver.Map{"Query": {"pet": resolver.Value(&pet{Name: "Rex", Species: "dog"})}}, nil)

	got := e.Execute(context.Background(), &Request{
		Selection: []*Selection{Field("pet", Field("name"), Field("species"))},
	})

	assertResponse(t, &Response{Data: map[string]any{"pet": map[string]any{"name": "Rex", "species": "dog"}}}, got)
}

func TestExecute_PendingResults(t *testing.T) {
	e := newTestExecutor(t, `
type Query { later: String soon: Int nested: String }
`, resolver.Map{"Query": {
		"later": func(ctx context.Context, source any, args map[string]any) (any, error) {
			return resolver.Go(ctx, func(ctx context.Context) (any, error) { return "done", nil }), nil
		},
		"soon": func(ctx context.Context, source any, args map[string]any) (any, error) {
			return resolver.Thunk(func(ctx context.Context) (any, error) { return 7, nil }), nil
		},
		"nested": func(ctx context.Context, source any, args map[string]any) (any, error) {
			return resolver.Thunk(func(ctx context.Context) (any, error) {
				return resolver.Go(ctx, func(ctx context.Context) (any, error) { return nil, errors.New("late failure") }), nil
			}), nil
		},
	}}, nil)

	got := e.Execute(context.Background(), &Request{
		Selection: []*Selection{Field("later"), Field("soon"), Field("nested")},
	})

	assertResponse(t, &Response{
		Data:   map[string]any{"later": "done", "soon": 7, "nested": nil},
		Errors: []GraphQLError{located(CodeResolverError, "late failure", "nested")},
	}, got)
}

func TestExecute_RootValue(t *testing.T) {
	e := newTestExecutor(t, `type Query { greeting: String }`, resolver.Map{"Query": {
		"greeting": func(ctx context.Context, source any, args map[string]any) (any, error) {
			return "hello " + source.(string), nil
		},
	}}, nil)

	got := e.Execute(context.Background(), &Request{
		Selection: []*Selection{Field("greeting")},
		RootValue: "world",
	})

	assertResponse(t, &Response{Data: map[string]any{"greeting": "hello world"}}, got)
}
