package pgtype_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireodb/pgc/pgtype"
)

func TestUUIDTranscode(t *testing.T) {
	testSuccessfulTranscode(t, &pgtype.UUID{
		Bytes:  [16]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
		Status: pgtype.Present,
	})
	testNullTranscode(t, &pgtype.UUID{})
}

func TestUUIDSet(t *testing.T) {
	var u pgtype.UUID

	require.NoError(t, u.Set("00010203-0405-0607-0809-0a0b0c0d0e0f"))
	assert.Equal(t, [16]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}, u.Bytes)

	require.NoError(t, u.Set([]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}))
	assert.Equal(t, pgtype.Present, u.Status)

	assert.Error(t, u.Set("not-a-uuid"))
	assert.Error(t, u.Set([]byte{1, 2, 3}))
}

func TestUUIDAssignTo(t *testing.T) {
	src := &pgtype.UUID{
		Bytes:  [16]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
		Status: pgtype.Present,
	}

	var s string
	require.NoError(t, src.AssignTo(&s))
	assert.Equal(t, "00010203-0405-0607-0809-0a0b0c0d0e0f", s)

	var b [16]byte
	require.NoError(t, src.AssignTo(&b))
	assert.Equal(t, src.Bytes, b)
}

func TestUUIDBinaryWireFormatIsRaw(t *testing.T) {
	ci := pgtype.NewConnInfo()

	raw := [16]byte{0xde, 0xad, 0xbe, 0xef, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}
	buf, err := pgtype.UUID{Bytes: raw, Status: pgtype.Present}.EncodeBinary(ci, nil)
	require.NoError(t, err)
	assert.Equal(t, raw[:], buf)
}
