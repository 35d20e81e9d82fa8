// Package stmtcache caches prepared statement descriptions keyed by the
// exact SQL text that produced them.
package stmtcache

import (
	"strconv"

	"github.com/vireodb/pgc/pgproto"
)

// Statement describes a statement prepared on the server: its
// session-unique name, the SQL it was prepared from, and the parameter and
// result metadata reported by Describe. Once populated the metadata is
// never modified.
type Statement struct {
	Name              string
	SQL               string
	ParameterOIDs     []uint32
	FieldDescriptions []pgproto.FieldDescription
}

// Cache holds one Statement per SQL text. There is no eviction: server-side
// prepared statements are cheap and handles must stay valid until they are
// explicitly closed or the session ends.
type Cache struct {
	m            map[string]*Statement
	prepareCount int
}

func New() *Cache {
	return &Cache{m: make(map[string]*Statement)}
}

// Get returns the cached Statement for sql, if any.
func (c *Cache) Get(sql string) (*Statement, bool) {
	ps, ok := c.m[sql]
	return ps, ok
}

// Put stores ps under its SQL text.
func (c *Cache) Put(ps *Statement) {
	c.m[ps.SQL] = ps
}

// Remove evicts the Statement for sql.
func (c *Cache) Remove(sql string) {
	delete(c.m, sql)
}

// Len returns the number of cached statements.
func (c *Cache) Len() int {
	return len(c.m)
}

// All returns every cached statement.
func (c *Cache) All() []*Statement {
	statements := make([]*Statement, 0, len(c.m))
	for _, ps := range c.m {
		statements = append(statements, ps)
	}
	return statements
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.m = make(map[string]*Statement)
	c.prepareCount = 0
}

// NextStatementName generates the next statement name. Names are "s"
// followed by a counter that increases monotonically within the session.
func (c *Cache) NextStatementName() string {
	c.prepareCount++
	return "s" + strconv.Itoa(c.prepareCount)
}
