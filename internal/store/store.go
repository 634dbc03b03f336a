// Package store is the in-memory stand-in for a database: named collections
// of entities with monotonically assigned integer identifiers.
package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hanpama/refgraph/internal/entity"
)

var (
	// ErrNotFound is wrapped by lookups of identifiers a collection does not hold.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateID is returned when seed data repeats an identifier.
	ErrDuplicateID = errors.New("duplicate id")
)

// Collection is an ordered, concurrency-safe sequence of entities. Writes are
// serialized; readers always receive copies so a concurrent append is never
// observed half done.
type Collection struct {
	name string

	mu    sync.RWMutex
	items []entity.Entity
	index map[int]int // id -> position in items
	maxID int
}

// NewCollection creates a collection holding copies of seed. Seed entities
// without an id get one assigned in order.
func NewCollection(name string, seed ...entity.Entity) (*Collection, error) {
	c := &Collection{name: name, index: make(map[int]int, len(seed))}
	for _, e := range seed {
		e = e.Clone()
		id, ok := e.ID()
		if !ok {
			id = c.maxID + 1
			e["id"] = id
		}
		if _, dup := c.index[id]; dup {
			return nil, fmt.Errorf("%s %d: %w", name, id, ErrDuplicateID)
		}
		c.append(id, e)
	}
	return c, nil
}

func (c *Collection) Name() string { return c.name }

func (c *Collection) append(id int, e entity.Entity) {
	c.index[id] = len(c.items)
	c.items = append(c.items, e)
	if id > c.maxID {
		c.maxID = id
	}
}

// Insert stores a copy of e under the next identifier (current max + 1) and
// returns the stored record. Any id already present on e is overwritten.
func (c *Collection) Insert(e entity.Entity) entity.Entity {
	rec := e.Clone()
	if rec == nil {
		rec = entity.Entity{}
	}
	c.mu.Lock()
	id := c.maxID + 1
	rec["id"] = id
	c.append(id, rec)
	c.mu.Unlock()
	return rec.Clone()
}

// Update merges patch into the entity with the given id. The id itself cannot
// be changed.
func (c *Collection) Update(id int, patch entity.Entity) (entity.Entity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pos, ok := c.index[id]
	if !ok {
		return nil, c.notFound(id)
	}
	rec := c.items[pos].Clone()
	for k, v := range patch {
		if k == "id" {
			continue
		}
		rec[k] = v
	}
	c.items[pos] = rec
	return rec.Clone(), nil
}

// Get returns a copy of the entity with the given id.
func (c *Collection) Get(id int) (entity.Entity, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pos, ok := c.index[id]
	if !ok {
		return nil, c.notFound(id)
	}
	return c.items[pos].Clone(), nil
}

// GetMany looks up several identifiers under a single read lock. The result
// slices are aligned with ids; errs is nil when every id was found.
func (c *Collection) GetMany(ids []int) ([]entity.Entity, []error) {
	out := make([]entity.Entity, len(ids))
	var errs []error
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i, id := range ids {
		pos, ok := c.index[id]
		if !ok {
			if errs == nil {
				errs = make([]error, len(ids))
			}
			errs[i] = c.notFound(id)
			continue
		}
		out[i] = c.items[pos].Clone()
	}
	return out, errs
}

// List returns copies of all entities in insertion order.
func (c *Collection) List() []entity.Entity {
	return c.Filter(nil)
}

// Filter returns copies of the entities keep accepts, in insertion order.
// A nil keep accepts everything.
func (c *Collection) Filter(keep func(entity.Entity) bool) []entity.Entity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]entity.Entity, 0, len(c.items))
	for _, e := range c.items {
		if keep == nil || keep(e) {
			out = append(out, e.Clone())
		}
	}
	return out
}

// Len reports the number of stored entities.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// MaxID reports the largest identifier assigned so far.
func (c *Collection) MaxID() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxID
}

func (c *Collection) notFound(id int) error {
	return fmt.Errorf("%s %d: %w", c.name, id, ErrNotFound)
}

// Store groups collections by name.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*Collection
}

func New() *Store {
	return &Store{collections: make(map[string]*Collection)}
}

// Add registers c under its name.
func (s *Store) Add(c *Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.collections[c.name]; exists {
		return fmt.Errorf("collection %q already exists", c.name)
	}
	s.collections[c.name] = c
	return nil
}

// Collection returns the collection registered under name.
func (s *Store) Collection(name string) (*Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", name, ErrNotFound)
	}
	return c, nil
}

// Names returns the registered collection names, sorted.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
