package pgtype_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireodb/pgc/pgtype"
)

func TestHstoreTranscode(t *testing.T) {
	text := func(s string) pgtype.Text {
		return pgtype.Text{String: s, Status: pgtype.Present}
	}

	values := []*pgtype.Hstore{
		{Map: map[string]pgtype.Text{}, Status: pgtype.Present},
		{Map: map[string]pgtype.Text{"foo": text("bar")}, Status: pgtype.Present},
		{Map: map[string]pgtype.Text{"foo": text("bar"), "baz": text("quz")}, Status: pgtype.Present},
		{Map: map[string]pgtype.Text{"NULL": text("NULL")}, Status: pgtype.Present},
		{Map: map[string]pgtype.Text{"a  spacey key": text("with  a  spacey  value")}, Status: pgtype.Present},
		{Map: map[string]pgtype.Text{`quo"te`: text(`b\s`)}, Status: pgtype.Present},
		{Map: map[string]pgtype.Text{"k": {Status: pgtype.Null}}, Status: pgtype.Present},
	}

	for _, v := range values {
		testSuccessfulTranscode(t, v)
	}

	testNullTranscode(t, &pgtype.Hstore{})
}

func TestHstoreSetAndAssignTo(t *testing.T) {
	var h pgtype.Hstore
	require.NoError(t, h.Set(map[string]string{"a": "1", "b": "2"}))

	var m map[string]string
	require.NoError(t, h.AssignTo(&m))
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, m)

	val := "x"
	require.NoError(t, h.Set(map[string]*string{"present": &val, "missing": nil}))

	var pm map[string]*string
	require.NoError(t, h.AssignTo(&pm))
	require.Contains(t, pm, "present")
	require.Contains(t, pm, "missing")
	assert.Equal(t, "x", *pm["present"])
	assert.Nil(t, pm["missing"])

	// A NULL value cannot be assigned into a plain string map.
	var broken map[string]string
	assert.Error(t, h.AssignTo(&broken))
}
