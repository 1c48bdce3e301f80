package orders

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoneyFromFloat2Rounding(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   float64
		want Money
	}{
		{0, 0},
		{1.99, 199},
		{2.5, 250},
		{0.1 + 0.2, 30},
		{19.999, 2000},
		{-1.99, -199},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NewMoneyFromFloat2(tc.in), "input %v", tc.in)
	}
}

func TestMoneyJSONIsDollars(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(Money(199))
	require.NoError(t, err)
	assert.Equal(t, "1.99", string(raw))

	var m Money
	require.NoError(t, json.Unmarshal([]byte("12.34"), &m))
	assert.Equal(t, Money(1234), m)

	assert.InDelta(t, 12.34, m.ToFloat2(), 0.0001)
}
