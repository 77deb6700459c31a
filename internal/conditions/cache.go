package conditions

import (
	"strings"
	"sync"

	"github.com/arzttarif/tarifengine/internal/catalog"
)

// RequestCache is the request-scoped table-content memoisation (§4.7
// "a request-scoped table-content cache memoises (table-name-tuple,
// type, lang) for get_table_content"). One instance lives for the
// duration of one request; it is not safe to share across requests.
type RequestCache struct {
	mu     sync.Mutex
	tables map[tableCacheKey][]catalog.TableEntry
}

type tableCacheKey struct {
	names string
	typ   catalog.TableType
	lang  string
}

// NewRequestCache returns an empty, ready-to-use RequestCache.
func NewRequestCache() *RequestCache {
	return &RequestCache{tables: map[tableCacheKey][]catalog.TableEntry{}}
}

// TableEntries returns the union of rows across every named table of the
// given type/language, memoised for the lifetime of the request.
func (c *RequestCache) TableEntries(store *catalog.Store, names []string, typ catalog.TableType, lang string) []catalog.TableEntry {
	key := tableCacheKey{names: strings.Join(names, ","), typ: typ, lang: lang}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.tables[key]; ok {
		return cached
	}
	var out []catalog.TableEntry
	for _, name := range names {
		out = append(out, store.TableEntries(name, typ, lang)...)
	}
	c.tables[key] = out
	return out
}
