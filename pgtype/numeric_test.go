package pgtype_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireodb/pgc/pgtype"
)

// numericEq compares through the text rendering so internal big.Int
// representation differences do not matter.
func numericEq(a, b pgtype.Value) bool {
	an := a.(*pgtype.Numeric)
	bn := b.(*pgtype.Numeric)
	if an.Status != bn.Status || an.NaN != bn.NaN {
		return false
	}
	if an.Status != pgtype.Present || an.NaN {
		return true
	}
	abuf, aerr := an.EncodeText(nil, []byte{})
	bbuf, berr := bn.EncodeText(nil, []byte{})
	return aerr == nil && berr == nil && string(abuf) == string(bbuf)
}

func mustParseNumeric(t *testing.T, s string) *pgtype.Numeric {
	t.Helper()
	n := &pgtype.Numeric{}
	require.NoError(t, n.Set(s))
	return n
}

func TestNumericTranscode(t *testing.T) {
	for _, s := range []string{
		"0",
		"1",
		"-1",
		"10000",
		"3.14159265358979",
		"-0.00000123",
		"1234567890123456789012345678901234567890",
		"0.000000000000000000000000000000000000001",
		"12345678901234.567890123456789",
	} {
		testSuccessfulTranscodeEqFunc(t, mustParseNumeric(t, s), numericEq)
	}

	testSuccessfulTranscodeEqFunc(t, &pgtype.Numeric{NaN: true, Status: pgtype.Present}, numericEq)
	testNullTranscode(t, &pgtype.Numeric{})
}

func TestNumericTextRendering(t *testing.T) {
	for _, tt := range []struct {
		src  string
		want string
	}{
		{src: "1.5", want: "1.5"},
		{src: "-1.5", want: "-1.5"},
		{src: "0.05", want: "0.05"},
		{src: "-0.05", want: "-0.05"},
		{src: "1e2", want: "100"},
		{src: "42", want: "42"},
	} {
		buf, err := mustParseNumeric(t, tt.src).EncodeText(nil, []byte{})
		require.NoErrorf(t, err, "%s", tt.src)
		assert.Equalf(t, tt.want, string(buf), "%s", tt.src)
	}
}

func TestNumericSet(t *testing.T) {
	n := &pgtype.Numeric{}
	require.NoError(t, n.Set(int64(42)))
	assert.Equal(t, big.NewInt(42), n.Int)
	assert.Equal(t, int32(0), n.Exp)

	require.NoError(t, n.Set(float64(1.25)))
	buf, err := n.EncodeText(nil, []byte{})
	require.NoError(t, err)
	assert.Equal(t, "1.25", string(buf))

	require.NoError(t, n.Set(big.NewInt(7)))
	assert.Equal(t, big.NewInt(7), n.Int)
}

func TestNumericAssignTo(t *testing.T) {
	var f float64
	require.NoError(t, mustParseNumeric(t, "3.25").AssignTo(&f))
	assert.Equal(t, 3.25, f)

	var i int64
	require.NoError(t, mustParseNumeric(t, "42").AssignTo(&i))
	assert.Equal(t, int64(42), i)

	// Fractional numerics do not assign to integers.
	assert.Error(t, mustParseNumeric(t, "3.25").AssignTo(&i))

	var s string
	require.NoError(t, mustParseNumeric(t, "-0.5").AssignTo(&s))
	assert.Equal(t, "-0.5", s)
}
