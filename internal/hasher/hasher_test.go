package hasher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Тесты хэшера:
// — round-trip пароль/хэш, отказ на чужом секрете;
// — одинаковые секреты дают разные хэши (соль);
// — секреты длиннее 72 байт (refresh-токены) хэшируются без ошибок;
// — стоимость вне диапазона заменяется на bcrypt.DefaultCost.

func TestHasher_HashVerify_OK(t *testing.T) {
	t.Parallel()

	h := New(bcrypt.MinCost)

	hashed, err := h.Hash("longpass1")
	require.NoError(t, err)
	require.NotEmpty(t, hashed)
	require.NotEqual(t, "longpass1", hashed)

	require.True(t, h.Verify("longpass1", hashed))
	require.False(t, h.Verify("longpass2", hashed))
	require.False(t, h.Verify("", hashed))
}

func TestHasher_SaltedHashesDiffer(t *testing.T) {
	t.Parallel()

	h := New(bcrypt.MinCost)

	first, err := h.Hash("longpass1")
	require.NoError(t, err)

	second, err := h.Hash("longpass1")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.True(t, h.Verify("longpass1", first))
	require.True(t, h.Verify("longpass1", second))
}

func TestHasher_LongSecret_OK(t *testing.T) {
	t.Parallel()

	h := New(bcrypt.MinCost)

	// Подписанный JWT всегда длиннее лимита bcrypt в 72 байта.
	long := strings.Repeat("eyJhbGciOiJIUzI1NiJ9.", 10)
	require.Greater(t, len(long), 72)

	hashed, err := h.Hash(long)
	require.NoError(t, err)

	require.True(t, h.Verify(long, hashed))
	require.False(t, h.Verify(long+"x", hashed))
}

func TestHasher_CostOutOfRange_FallsBack(t *testing.T) {
	t.Parallel()

	for _, cost := range []int{-1, 0, bcrypt.MaxCost + 1} {
		h := New(cost)

		hashed, err := h.Hash("longpass1")
		require.NoError(t, err)

		gotCost, err := bcrypt.Cost([]byte(hashed))
		require.NoError(t, err)
		require.Equal(t, bcrypt.DefaultCost, gotCost)
	}
}
