package utils

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

// AgentReferralPrefix is the prefix of every agent referral code.
const AgentReferralPrefix = "AGT"

// GenerateReferralCode generates a referral code for an agent.
// Format: AGT-{RANDOM} where RANDOM is 6 alphanumeric characters,
// e.g. AGT-ABC123. Uniqueness is enforced by the referralCode index on the
// agents collection; callers retry on a duplicate key error.
func GenerateReferralCode() (string, error) {
	// 4 random bytes give 6 characters in base32
	randomBytes := make([]byte, 4)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return "", err
	}

	randomStr := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes)
	randomStr = randomStr[:6]

	randomStr = strings.ToUpper(randomStr)
	randomStr = strings.Map(func(r rune) rune {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, randomStr)

	if len(randomStr) < 6 {
		randomStr = randomStr + strings.Repeat("0", 6-len(randomStr))
	}

	return AgentReferralPrefix + "-" + randomStr, nil
}
