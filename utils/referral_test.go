package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReferralCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := GenerateReferralCode()
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(code, "AGT-"), "code %q missing prefix", code)
		suffix := strings.TrimPrefix(code, "AGT-")
		assert.Len(t, suffix, 6)
		for _, r := range suffix {
			assert.True(t, (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'), "code %q has invalid character %q", code, r)
		}
		seen[code] = true
	}
	// 100 draws from a 32^6 space should not collide.
	assert.Greater(t, len(seen), 95)
}
