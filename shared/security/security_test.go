package security

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGenerateNumericCode_Range(t *testing.T) {
	t.Parallel()

	for i := 0; i < 500; i++ {
		code, err := GenerateNumericCode(DefaultCodeDigits)
		require.NoError(t, err)
		require.Len(t, code, 4)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 1000)
		require.LessOrEqual(t, n, 9999)
	}
}

func TestGenerateNumericCode_SixDigits(t *testing.T) {
	t.Parallel()

	code, err := GenerateNumericCode(6)
	require.NoError(t, err)
	require.Len(t, code, 6)
	require.NotEqual(t, byte('0'), code[0])
}

func TestGenerateNumericCode_InvalidDigits(t *testing.T) {
	t.Parallel()

	for _, d := range []int{0, 3, 11} {
		_, err := GenerateNumericCode(d)
		require.ErrorIs(t, err, ErrInvalidCodeDigits)
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	require.NotContains(t, hash, "correct horse")

	ok, err := VerifyPassword("correct horse", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = VerifyPassword("wrong horse", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyPassword_LegacyBcrypt(t *testing.T) {
	t.Parallel()

	legacy, err := bcrypt.GenerateFromPassword([]byte("1234"), 10)
	require.NoError(t, err)

	ok, err := VerifyPassword("1234", string(legacy))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = VerifyPassword("4321", string(legacy))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyPassword_EmptyHash(t *testing.T) {
	t.Parallel()

	_, err := VerifyPassword("x", "")
	require.ErrorIs(t, err, ErrEmptyHash)
}

func TestHasher(t *testing.T) {
	t.Parallel()

	h := NewHasher()
	digest, err := h.Hash("5821")
	require.NoError(t, err)

	ok, err := h.Compare("5821", digest)
	require.NoError(t, err)
	require.True(t, ok)
}
