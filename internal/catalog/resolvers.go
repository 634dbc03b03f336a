package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/hanpama/refgraph/internal/entity"
	"github.com/hanpama/refgraph/internal/resolver"
	"github.com/hanpama/refgraph/internal/store"
)

// Resolvers returns the catalog's field resolvers. Fields without one
// (Review.product, Person.friends and all scalars) are read off the parent
// entity.
func (c *Catalog) Resolvers() resolver.Map {
	return resolver.Map{
		"Query": {
			"products": c.list(Products),
			"product":  c.get(Products),
			"reviews":  c.list(Reviews),
			"person":   c.get(People),
			"people":   c.list(People),
		},
		"Mutation": {
			"createProduct": c.createProduct,
			"updateProduct": c.updateProduct,
			"createReview":  c.createReview,
		},
		"Product": {
			"reviews": c.productReviews,
		},
		"Person": {
			"friend": c.personFriend,
		},
	}
}

func (c *Catalog) collection(name string) (*store.Collection, error) {
	return c.store.Collection(name)
}

func (c *Catalog) list(name string) resolver.Func {
	return func(ctx context.Context, _ any, _ map[string]any) (any, error) {
		col, err := c.collection(name)
		if err != nil {
			return nil, err
		}
		return col.List(), nil
	}
}

// get looks an entity up by the id argument; an unknown id resolves to null.
func (c *Catalog) get(name string) resolver.Func {
	return func(ctx context.Context, _ any, args map[string]any) (any, error) {
		id, ok := entity.AsID(args["id"])
		if !ok {
			return nil, nil
		}
		e, err := c.store.Load(ctx, name, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return e, err
	}
}

func (c *Catalog) createProduct(ctx context.Context, _ any, args map[string]any) (any, error) {
	col, err := c.collection(Products)
	if err != nil {
		return nil, err
	}
	input, _ := args["product"].(map[string]any)
	return col.Insert(fromInput(input, "name", "description")), nil
}

func (c *Catalog) updateProduct(ctx context.Context, _ any, args map[string]any) (any, error) {
	col, err := c.collection(Products)
	if err != nil {
		return nil, err
	}
	id, ok := entity.AsID(args["id"])
	if !ok {
		return nil, nil
	}
	input, _ := args["update"].(map[string]any)
	e, err := col.Update(id, fromInput(input, "name", "description"))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return e, err
}

func (c *Catalog) createReview(ctx context.Context, _ any, args map[string]any) (any, error) {
	input, _ := args["review"].(map[string]any)
	productID, ok := entity.AsID(input["productId"])
	if !ok {
		return nil, fmt.Errorf("invalid product id %v", input["productId"])
	}
	products, err := c.collection(Products)
	if err != nil {
		return nil, err
	}
	if _, err := products.Get(productID); err != nil {
		return nil, fmt.Errorf("cannot review product %d: %w", productID, err)
	}

	reviews, err := c.collection(Reviews)
	if err != nil {
		return nil, err
	}
	review := fromInput(input, "title", "grade")
	review["product"] = productID
	return reviews.Insert(review), nil
}

func (c *Catalog) productReviews(ctx context.Context, source any, _ map[string]any) (any, error) {
	product, ok := source.(entity.Entity)
	if !ok {
		return nil, fmt.Errorf("unexpected product source %T", source)
	}
	id, _ := product.ID()
	reviews, err := c.collection(Reviews)
	if err != nil {
		return nil, err
	}
	return reviews.Filter(func(r entity.Entity) bool {
		ref, ok := entity.AsID(r["product"])
		return ok && ref == id
	}), nil
}

// personFriend loads Person.friend through the request's loaders.
func (c *Catalog) personFriend(ctx context.Context, source any, _ map[string]any) (any, error) {
	person, ok := source.(entity.Entity)
	if !ok {
		return nil, fmt.Errorf("unexpected person source %T", source)
	}
	id, ok := entity.AsID(person["friend"])
	if !ok {
		return nil, nil
	}
	return c.store.Load(ctx, People, id)
}

// fromInput copies the keys present in input. Absent optional fields stay
// absent rather than becoming null.
func fromInput(input map[string]any, keys ...string) entity.Entity {
	out := make(entity.Entity, len(keys))
	for _, k := range keys {
		if v, ok := input[k]; ok {
			out[k] = v
		}
	}
	return out
}
