package cache

import (
	"crypto/sha256"
	"fmt"

	"github.com/google/uuid"
)

// QuoteKey caches free-text estimates. The description is hashed so the key
// stays bounded regardless of the text length.
func QuoteKey(category, description string) string {
	sum := sha256.Sum256([]byte(category + "\x00" + description))
	return fmt.Sprintf("quote:%s:%x", category, sum[:16])
}

func JobStatusKey(jobID uuid.UUID) string {
	return fmt.Sprintf("job:%s", jobID)
}

func RateLimitKey(clientAddr string) string {
	return fmt.Sprintf("ratelimit:%s", clientAddr)
}
