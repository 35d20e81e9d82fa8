package pgtype_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireodb/pgc/pgtype"
)

func TestTextTranscode(t *testing.T) {
	testSuccessfulTranscode(t, &pgtype.Text{String: "", Status: pgtype.Present})
	testSuccessfulTranscode(t, &pgtype.Text{String: "foo", Status: pgtype.Present})
	testSuccessfulTranscode(t, &pgtype.Text{String: "héllo wörld", Status: pgtype.Present})
	testNullTranscode(t, &pgtype.Text{})
}

func TestVarcharTranscode(t *testing.T) {
	testSuccessfulTranscode(t, &pgtype.Varchar{String: "foo", Status: pgtype.Present})
	testNullTranscode(t, &pgtype.Varchar{})
}

func TestBPCharTranscode(t *testing.T) {
	testSuccessfulTranscode(t, &pgtype.BPChar{String: "foo  ", Status: pgtype.Present})
}

func TestNameTranscode(t *testing.T) {
	testSuccessfulTranscode(t, &pgtype.Name{String: "pg_catalog", Status: pgtype.Present})
}

func TestTextSet(t *testing.T) {
	type stringAlias string

	successfulTests := []struct {
		source interface{}
		result pgtype.Text
	}{
		{source: "foo", result: pgtype.Text{String: "foo", Status: pgtype.Present}},
		{source: []byte("bar"), result: pgtype.Text{String: "bar", Status: pgtype.Present}},
		{source: stringAlias("baz"), result: pgtype.Text{String: "baz", Status: pgtype.Present}},
		{source: (*string)(nil), result: pgtype.Text{Status: pgtype.Null}},
	}

	for i, tt := range successfulTests {
		var d pgtype.Text
		require.NoErrorf(t, d.Set(tt.source), "%d", i)
		assert.Equalf(t, tt.result, d, "%d", i)
	}
}

func TestTextAssignTo(t *testing.T) {
	type stringAlias string

	src := &pgtype.Text{String: "foo", Status: pgtype.Present}

	var s string
	require.NoError(t, src.AssignTo(&s))
	assert.Equal(t, "foo", s)

	var b []byte
	require.NoError(t, src.AssignTo(&b))
	assert.Equal(t, []byte("foo"), b)

	var alias stringAlias
	require.NoError(t, src.AssignTo(&alias))
	assert.Equal(t, stringAlias("foo"), alias)

	var ps *string
	nullSrc := &pgtype.Text{Status: pgtype.Null}
	require.NoError(t, nullSrc.AssignTo(&ps))
	assert.Nil(t, ps)
}
