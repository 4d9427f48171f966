package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToFloatCoercion(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{42.5, 42.5},
		{int64(7), 7},
		{int(3), 3},
		{"123.25", 123.25},
		{[]byte("99"), 99},
		{float32(1.5), 1.5},
	}
	for _, c := range cases {
		got := ToFloat(c.in)
		require.NotNilf(t, got, "ToFloat(%#v)", c.in)
		assert.Equalf(t, c.want, *got, "ToFloat(%#v)", c.in)
	}

	assert.Nil(t, ToFloat(nil))
	assert.Nil(t, ToFloat("not a number"))
	assert.Nil(t, ToFloat(struct{}{}))
}

func TestToInt64Coercion(t *testing.T) {
	assert.Equal(t, int64(1000), ToInt64("1000"))
	assert.Equal(t, int64(5), ToInt64(int64(5)))
	assert.Equal(t, int64(0), ToInt64(nil))
}

func TestToTimeCoercion(t *testing.T) {
	direct := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	got, ok := ToTime(direct)
	require.True(t, ok)
	assert.Equal(t, direct, got)

	got, ok = ToTime("2025-06-01 12:00:00")
	require.True(t, ok)
	assert.Equal(t, direct, got.UTC())

	got, ok = ToTime("2025-06-01")
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), got.UTC())

	_, ok = ToTime("yesterday")
	assert.False(t, ok)

	_, ok = ToTime(12345)
	assert.False(t, ok)
}

func TestGroupKeyNormalization(t *testing.T) {
	assert.Equal(t, "west", GroupKey([]byte("west")))
	assert.Equal(t, int64(3), GroupKey(int64(3)))
	assert.Nil(t, GroupKey(nil))
}
