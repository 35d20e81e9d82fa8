package pgtype_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireodb/pgc/pgtype"
)

func TestBoolTranscode(t *testing.T) {
	testSuccessfulTranscode(t, &pgtype.Bool{Bool: false, Status: pgtype.Present})
	testSuccessfulTranscode(t, &pgtype.Bool{Bool: true, Status: pgtype.Present})
	testNullTranscode(t, &pgtype.Bool{})
}

func TestBoolSet(t *testing.T) {
	successfulTests := []struct {
		source interface{}
		result pgtype.Bool
	}{
		{source: true, result: pgtype.Bool{Bool: true, Status: pgtype.Present}},
		{source: false, result: pgtype.Bool{Bool: false, Status: pgtype.Present}},
		{source: "true", result: pgtype.Bool{Bool: true, Status: pgtype.Present}},
		{source: "f", result: pgtype.Bool{Bool: false, Status: pgtype.Present}},
		{source: nil, result: pgtype.Bool{Status: pgtype.Null}},
	}

	for i, tt := range successfulTests {
		var d pgtype.Bool
		require.NoErrorf(t, d.Set(tt.source), "%d", i)
		assert.Equalf(t, tt.result, d, "%d", i)
	}
}

func TestBoolAssignTo(t *testing.T) {
	var b bool
	src := &pgtype.Bool{Bool: true, Status: pgtype.Present}
	require.NoError(t, src.AssignTo(&b))
	assert.True(t, b)

	var pb *bool
	src = &pgtype.Bool{Status: pgtype.Null}
	require.NoError(t, src.AssignTo(&pb))
	assert.Nil(t, pb)
}

func TestBoolTextWireFormat(t *testing.T) {
	ci := pgtype.NewConnInfo()

	buf, err := pgtype.Bool{Bool: true, Status: pgtype.Present}.EncodeText(ci, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("t"), buf)

	buf, err = pgtype.Bool{Bool: false, Status: pgtype.Present}.EncodeText(ci, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("f"), buf)
}
