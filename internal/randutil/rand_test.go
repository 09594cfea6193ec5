package randutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeterministic(t *testing.T) {
	t.Parallel()

	a, b := New(42), New(42)
	for range 100 {
		require.Equal(t, a.Uint64(), b.Uint64())
	}

	assert.NotEqual(t, New(1).Uint64(), New(2).Uint64())
}

func TestDealHoleCards(t *testing.T) {
	t.Parallel()

	hands := DealHoleCards(New(7), 500)
	require.Len(t, hands, 500)
	for _, h := range hands {
		assert.True(t, h[0].Valid())
		assert.True(t, h[1].Valid())
		assert.NotEqual(t, h[0], h[1])
	}

	assert.Equal(t, DealHoleCards(New(7), 20), DealHoleCards(New(7), 20))
	assert.Nil(t, DealHoleCards(New(7), 0))
}
