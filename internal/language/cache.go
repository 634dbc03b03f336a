package language

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// DocumentCache keeps parsed documents keyed by query text. Parsed documents
// are only read after parsing, so one may be shared by concurrent requests.
type DocumentCache struct {
	docs *cache.Cache
}

// NewDocumentCache returns a cache whose entries expire ttl after they were
// parsed. A ttl of zero or less keeps entries forever.
func NewDocumentCache(ttl time.Duration) *DocumentCache {
	if ttl <= 0 {
		return &DocumentCache{docs: cache.New(cache.NoExpiration, 0)}
	}
	return &DocumentCache{docs: cache.New(ttl, 2*ttl)}
}

// Parse returns the cached document for query, parsing it on a miss. Parse
// errors are not cached. A nil cache always parses.
func (c *DocumentCache) Parse(query string) (*QueryDocument, error) {
	if c == nil {
		return ParseQuery(query)
	}
	if v, ok := c.docs.Get(query); ok {
		return v.(*QueryDocument), nil
	}
	doc, err := ParseQuery(query)
	if err != nil {
		return nil, err
	}
	c.docs.SetDefault(query, doc)
	return doc, nil
}

func (c *DocumentCache) Len() int {
	if c == nil {
		return 0
	}
	return c.docs.ItemCount()
}
