package pgtype_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireodb/pgc/pgtype"
)

func timestampEq(a, b pgtype.Value) bool {
	at := a.(*pgtype.Timestamp)
	bt := b.(*pgtype.Timestamp)
	return at.Status == bt.Status && at.InfinityModifier == bt.InfinityModifier && at.Time.Equal(bt.Time)
}

func timestamptzEq(a, b pgtype.Value) bool {
	at := a.(*pgtype.Timestamptz)
	bt := b.(*pgtype.Timestamptz)
	return at.Status == bt.Status && at.InfinityModifier == bt.InfinityModifier && at.Time.Equal(bt.Time)
}

func dateEq(a, b pgtype.Value) bool {
	at := a.(*pgtype.Date)
	bt := b.(*pgtype.Date)
	return at.Status == bt.Status && at.InfinityModifier == bt.InfinityModifier && at.Time.Equal(bt.Time)
}

func TestTimestampTranscode(t *testing.T) {
	for _, tim := range []time.Time{
		time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1905, 2, 2, 12, 34, 56, 123456000, time.UTC),
		time.Date(2013, 7, 4, 13, 14, 15, 0, time.UTC),
		time.Date(2216, 12, 25, 1, 2, 3, 654321000, time.UTC),
	} {
		testSuccessfulTranscodeEqFunc(t, &pgtype.Timestamp{Time: tim, Status: pgtype.Present}, timestampEq)
	}

	testSuccessfulTranscodeEqFunc(t, &pgtype.Timestamp{InfinityModifier: pgtype.Infinity, Status: pgtype.Present}, timestampEq)
	testSuccessfulTranscodeEqFunc(t, &pgtype.Timestamp{InfinityModifier: pgtype.NegativeInfinity, Status: pgtype.Present}, timestampEq)
	testNullTranscode(t, &pgtype.Timestamp{})
}

func TestTimestampBinaryWireFormatEpoch(t *testing.T) {
	ci := pgtype.NewConnInfo()

	// 2000-01-01 00:00:00 UTC is the PostgreSQL epoch: zero microseconds.
	buf, err := pgtype.Timestamp{Time: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), Status: pgtype.Present}.EncodeBinary(ci, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0}, buf)

	// One second later.
	buf, err = pgtype.Timestamp{Time: time.Date(2000, 1, 1, 0, 0, 1, 0, time.UTC), Status: pgtype.Present}.EncodeBinary(ci, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0x0f, 0x42, 0x40}, buf)
}

func TestTimestampEncodeRejectsNonUTC(t *testing.T) {
	ci := pgtype.NewConnInfo()

	est, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata not available")
	}

	_, err = pgtype.Timestamp{Time: time.Date(2000, 1, 1, 0, 0, 0, 0, est), Status: pgtype.Present}.EncodeBinary(ci, nil)
	assert.Error(t, err)
}

func TestTimestamptzTranscode(t *testing.T) {
	for _, tim := range []time.Time{
		time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2013, 7, 4, 13, 14, 15, 123456000, time.UTC),
	} {
		testSuccessfulTranscodeEqFunc(t, &pgtype.Timestamptz{Time: tim, Status: pgtype.Present}, timestamptzEq)
	}

	testNullTranscode(t, &pgtype.Timestamptz{})
}

func TestTimestamptzDecodeTextOffsets(t *testing.T) {
	ci := pgtype.NewConnInfo()

	for _, tt := range []struct {
		src  string
		want time.Time
	}{
		{src: "2013-07-04 13:14:15+00", want: time.Date(2013, 7, 4, 13, 14, 15, 0, time.UTC)},
		{src: "2013-07-04 13:14:15-05", want: time.Date(2013, 7, 4, 18, 14, 15, 0, time.UTC)},
		{src: "2013-07-04 13:14:15+05:30", want: time.Date(2013, 7, 4, 7, 44, 15, 0, time.UTC)},
	} {
		var ts pgtype.Timestamptz
		require.NoErrorf(t, ts.DecodeText(ci, []byte(tt.src)), "%s", tt.src)
		assert.Truef(t, ts.Time.Equal(tt.want), "%s: %v", tt.src, ts.Time)
	}
}

func TestDateTranscode(t *testing.T) {
	for _, tim := range []time.Time{
		time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1900, 12, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2038, 1, 19, 0, 0, 0, 0, time.UTC),
	} {
		testSuccessfulTranscodeEqFunc(t, &pgtype.Date{Time: tim, Status: pgtype.Present}, dateEq)
	}

	testSuccessfulTranscodeEqFunc(t, &pgtype.Date{InfinityModifier: pgtype.Infinity, Status: pgtype.Present}, dateEq)
	testNullTranscode(t, &pgtype.Date{})
}

func TestDateBinaryWireFormat(t *testing.T) {
	ci := pgtype.NewConnInfo()

	// 2000-01-02 is one day after the PostgreSQL date epoch.
	buf, err := pgtype.Date{Time: time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC), Status: pgtype.Present}.EncodeBinary(ci, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 1}, buf)
}

func TestTimeTranscode(t *testing.T) {
	testSuccessfulTranscode(t, &pgtype.Time{Microseconds: 0, Status: pgtype.Present})
	testSuccessfulTranscode(t, &pgtype.Time{Microseconds: 1, Status: pgtype.Present})
	testSuccessfulTranscode(t, &pgtype.Time{Microseconds: 86399999999, Status: pgtype.Present})
	testNullTranscode(t, &pgtype.Time{})
}

func TestTimeSetAndAssignTo(t *testing.T) {
	var tv pgtype.Time
	require.NoError(t, tv.Set(time.Date(1970, 1, 1, 13, 14, 15, 123456000, time.UTC)))
	assert.Equal(t, int64(13*3600*1000000+14*60*1000000+15*1000000+123456), tv.Microseconds)

	var back time.Time
	require.NoError(t, tv.AssignTo(&back))
	assert.Equal(t, 13, back.Hour())
	assert.Equal(t, 14, back.Minute())
	assert.Equal(t, 15, back.Second())
}
