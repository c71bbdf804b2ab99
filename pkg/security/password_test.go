package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velora-dev/storefront-backend/pkg/config"
)

func fastArgonConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("hunter22", fastArgonConfig())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	ok, err := VerifyPassword("hunter22", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("hunter23", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordSaltsEachCall(t *testing.T) {
	t.Parallel()

	first, err := HashPassword("same password", fastArgonConfig())
	require.NoError(t, err)
	second, err := HashPassword("same password", fastArgonConfig())
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	t.Parallel()

	_, err := HashPassword("", fastArgonConfig())
	assert.Error(t, err)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	t.Parallel()

	_, err := VerifyPassword("whatever", "not-a-hash")
	require.ErrorIs(t, err, ErrInvalidHash)

	_, err = VerifyPassword("whatever", "$bcrypt$v=19$m=1,t=1,p=1$abc$def")
	require.ErrorIs(t, err, ErrInvalidHash)
}
