package stmtcache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireodb/pgc/stmtcache"
)

func TestCacheGetPut(t *testing.T) {
	c := stmtcache.New()

	_, ok := c.Get("select 1")
	assert.False(t, ok)

	ps := &stmtcache.Statement{Name: c.NextStatementName(), SQL: "select 1"}
	c.Put(ps)

	got, ok := c.Get("select 1")
	require.True(t, ok)
	assert.Same(t, ps, got)
	assert.Equal(t, 1, c.Len())

	c.Remove("select 1")
	_, ok = c.Get("select 1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestNextStatementNameIsMonotonic(t *testing.T) {
	c := stmtcache.New()

	assert.Equal(t, "s1", c.NextStatementName())
	assert.Equal(t, "s2", c.NextStatementName())
	assert.Equal(t, "s3", c.NextStatementName())
}

func TestClear(t *testing.T) {
	c := stmtcache.New()

	c.Put(&stmtcache.Statement{Name: c.NextStatementName(), SQL: "select 1"})
	c.Put(&stmtcache.Statement{Name: c.NextStatementName(), SQL: "select 2"})
	assert.Equal(t, 2, c.Len())
	assert.Len(t, c.All(), 2)

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, "s1", c.NextStatementName())
}
