package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/refgraph/internal/executor"
	"github.com/hanpama/refgraph/internal/language"
	"github.com/hanpama/refgraph/internal/schema"
)

type fixture struct {
	catalog *Catalog
	exec    *executor.Executor
}

func newFixture(t *testing.T, opts ...executor.Option) *fixture {
	t.Helper()
	s, err := Seed()
	require.NoError(t, err)
	c := New(s)
	e, err := c.Executor(opts...)
	require.NoError(t, err)
	return &fixture{catalog: c, exec: e}
}

func (f *fixture) run(t *testing.T, query string, variables map[string]any) *executor.Response {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	req, err := language.BuildRequest(doc, "", variables)
	require.NoError(t, err)
	return f.exec.Execute(f.catalog.WithLoaders(context.Background(), req.Operation), req)
}

func assertResponse(t *testing.T, want, got *executor.Response) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Response mismatch (-want +got):\n%s", diff)
	}
}

func TestPersonFriend(t *testing.T) {
	f := newFixture(t)

	got := f.run(t, `{ person(id: 1) { name friend { name } } }`, nil)

	assertResponse(t, &executor.Response{
		Data: map[string]any{
			"person": map[string]any{"name": "Jen", "friend": map[string]any{"name": "Chris"}},
		},
	}, got)
}

func TestCreateProduct(t *testing.T) {
	f := newFixture(t)

	got := f.run(t, `mutation { createProduct(product: {name: "example"}) { id name description } }`, nil)
	assertResponse(t, &executor.Response{
		Data: map[string]any{
			"createProduct": map[string]any{"id": 2, "name": "example", "description": nil},
		},
	}, got)

	got = f.run(t, `{ products { id name } }`, nil)
	assertResponse(t, &executor.Response{
		Data: map[string]any{
			"products": []any{
				map[string]any{"id": 1, "name": "Avengers - End game"},
				map[string]any{"id": 2, "name": "example"},
			},
		},
	}, got)
}

func TestMutationsRunInDocumentOrder(t *testing.T) {
	f := newFixture(t, executor.WithParallelism(4))

	got := f.run(t, `
mutation ($second: ProductInput!) {
  first: createProduct(product: {name: "a"}) { id }
  second: createProduct(product: $second) { id name }
  renamed: updateProduct(id: 2, update: {name: "a2"}) { id name }
}`, map[string]any{"second": map[string]any{"name": "b", "description": "bee"}})

	assertResponse(t, &executor.Response{
		Data: map[string]any{
			"first":   map[string]any{"id": 2},
			"second":  map[string]any{"id": 3, "name": "b"},
			"renamed": map[string]any{"id": 2, "name": "a2"},
		},
	}, got)
}

func TestUnknownFieldKeepsSiblings(t *testing.T) {
	f := newFixture(t)

	got := f.run(t, `{ person(id: 2) { name nickname } }`, nil)

	assertResponse(t, &executor.Response{
		Data: map[string]any{"person": map[string]any{"name": "Chris", "nickname": nil}},
		Errors: []executor.GraphQLError{{
			Message:    "Cannot query field 'nickname' on type 'Person'",
			Path:       executor.Path{"person", "nickname"},
			Extensions: map[string]any{"code": executor.CodeUnknownField},
		}},
	}, got)
}

func TestReferencesAreDereferenced(t *testing.T) {
	f := newFixture(t, executor.WithParallelism(4))

	got := f.run(t, `{
  reviews { title product { name } }
  people { name friends { name friend { name } } }
  product(id: 1) { reviews { title grade } }
  missing: product(id: 42) { name }
}`, nil)

	assertResponse(t, &executor.Response{
		Data: map[string]any{
			"reviews": []any{
				map[string]any{"title": "Best movie", "product": map[string]any{"name": "Avengers - End game"}},
			},
			"people": []any{
				map[string]any{"name": "Jen", "friends": []any{
					map[string]any{"name": "Chris", "friend": map[string]any{"name": "Jen"}},
				}},
				map[string]any{"name": "Chris", "friends": []any{
					map[string]any{"name": "Jen", "friend": map[string]any{"name": "Chris"}},
				}},
			},
			"product": map[string]any{"reviews": []any{map[string]any{"title": "Best movie", "grade": 5}}},
			"missing": nil,
		},
	}, got)
}

func TestCreateReview(t *testing.T) {
	f := newFixture(t)

	got := f.run(t, `mutation ($review: ReviewInput!) { createReview(review: $review) { id grade product { name } } }`,
		map[string]any{"review": map[string]any{"title": "Too long", "grade": float64(3), "productId": "1"}})
	assertResponse(t, &executor.Response{
		Data: map[string]any{
			"createReview": map[string]any{"id": 2, "grade": 3, "product": map[string]any{"name": "Avengers - End game"}},
		},
	}, got)

	got = f.run(t, `{ product(id: "1") { reviews { title } } }`, nil)
	assertResponse(t, &executor.Response{
		Data: map[string]any{
			"product": map[string]any{"reviews": []any{
				map[string]any{"title": "Best movie"},
				map[string]any{"title": "Too long"},
			}},
		},
	}, got)
}

func TestCreateReviewRejectsUnknownProduct(t *testing.T) {
	f := newFixture(t)

	got := f.run(t, `mutation { createReview(review: {title: "Lost", productId: 99}) { id } }`, nil)

	assertResponse(t, &executor.Response{
		Errors: []executor.GraphQLError{{
			Message:    "cannot review product 99: products 99: not found",
			Path:       executor.Path{"createReview"},
			Extensions: map[string]any{"code": executor.CodeResolverError},
		}},
	}, got)

	reviews, err := f.catalog.Store().Collection(Reviews)
	require.NoError(t, err)
	require.Equal(t, 1, reviews.Len())
}

func TestUpdateUnknownProductIsNull(t *testing.T) {
	f := newFixture(t)

	got := f.run(t, `mutation { updateProduct(id: 9, update: {name: "x"}) { id } }`, nil)

	assertResponse(t, &executor.Response{Data: map[string]any{"updateProduct": nil}}, got)
}

func TestIntrospection(t *testing.T) {
	f := newFixture(t)

	got := f.run(t, `{ __type(name: "ReviewInput") { inputFields { name } } }`, nil)

	assertResponse(t, &executor.Response{
		Data: map[string]any{
			"__type": map[string]any{"inputFields": []any{
				map[string]any{"name": "title"},
				map[string]any{"name": "grade"},
				map[string]any{"name": "productId"},
			}},
		},
	}, got)
}

func TestSchemaRenders(t *testing.T) {
	r, err := New(nil).Schema()
	require.NoError(t, err)

	sdl := schema.Render(r)

	require.True(t, strings.Contains(sdl, "type Person {"), sdl)
	require.True(t, strings.Contains(sdl, "createReview(review: ReviewInput!): Review!"), sdl)
	require.False(t, strings.Contains(sdl, "__"), sdl)
}

func TestCreateReviewRejectsOutOfRangeGrade(t *testing.T) {
	f := newFixture(t)

	got := f.run(t, `mutation ($g: Int) { createReview(review: {title: "t", grade: $g, productId: 1}) { grade } }`,
		map[string]any{"g": float64(1e20)})

	assertResponse(t, &executor.Response{
		Errors: []executor.GraphQLError{{
			Message:    "argument 'review' cannot be coerced: field 'grade': cannot coerce 1e+20 (float64) to Int",
			Path:       executor.Path{"createReview"},
			Extensions: map[string]any{"code": executor.CodeArgumentCoercion},
		}},
	}, got)

	reviews, err := f.catalog.Store().Collection(Reviews)
	require.NoError(t, err)
	require.Equal(t, 1, reviews.Len())
}
