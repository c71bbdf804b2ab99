package orders

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOrderCodeFormat(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 9, 1, 15, 30, 0, 0, time.UTC)
	code, err := GenerateOrderCode(now)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^ORD-20250901-[A-HJ-NP-Z2-9]{6}$`), code)
}

func TestGenerateOrderCodeUniqueEnough(t *testing.T) {
	t.Parallel()

	now := time.Now()
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := GenerateOrderCode(now)
		require.NoError(t, err)
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}
