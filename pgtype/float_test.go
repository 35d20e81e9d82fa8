package pgtype_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireodb/pgc/pgtype"
)

func TestFloat4Transcode(t *testing.T) {
	testSuccessfulTranscode(t, &pgtype.Float4{Float: -1, Status: pgtype.Present})
	testSuccessfulTranscode(t, &pgtype.Float4{Float: 0, Status: pgtype.Present})
	testSuccessfulTranscode(t, &pgtype.Float4{Float: 0.00001, Status: pgtype.Present})
	testSuccessfulTranscode(t, &pgtype.Float4{Float: 9999.99, Status: pgtype.Present})
	testSuccessfulTranscode(t, &pgtype.Float4{Float: math.MaxFloat32, Status: pgtype.Present})
	testSuccessfulTranscode(t, &pgtype.Float4{Float: math.SmallestNonzeroFloat32, Status: pgtype.Present})
	testNullTranscode(t, &pgtype.Float4{})
}

func TestFloat8Transcode(t *testing.T) {
	testSuccessfulTranscode(t, &pgtype.Float8{Float: -1, Status: pgtype.Present})
	testSuccessfulTranscode(t, &pgtype.Float8{Float: 0, Status: pgtype.Present})
	testSuccessfulTranscode(t, &pgtype.Float8{Float: 0.00001, Status: pgtype.Present})
	testSuccessfulTranscode(t, &pgtype.Float8{Float: 9999.99, Status: pgtype.Present})
	testSuccessfulTranscode(t, &pgtype.Float8{Float: math.MaxFloat64, Status: pgtype.Present})
	testSuccessfulTranscode(t, &pgtype.Float8{Float: math.SmallestNonzeroFloat64, Status: pgtype.Present})
	testNullTranscode(t, &pgtype.Float8{})
}

func TestFloat8AssignTo(t *testing.T) {
	src := &pgtype.Float8{Float: 2.5, Status: pgtype.Present}

	var f64 float64
	require.NoError(t, src.AssignTo(&f64))
	assert.Equal(t, 2.5, f64)

	var f32 float32
	require.NoError(t, src.AssignTo(&f32))
	assert.Equal(t, float32(2.5), f32)

	wholeSrc := &pgtype.Float8{Float: 3, Status: pgtype.Present}
	var i int64
	require.NoError(t, wholeSrc.AssignTo(&i))
	assert.Equal(t, int64(3), i)
}
