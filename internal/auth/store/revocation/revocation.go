// Package revocation records logged-out session token ids until the tokens
// would have expired on their own.
package revocation

import (
	"fmt"
	"time"

	"trustlessid/pkg/platform/sentinel"
)

func validateTTL(ttl time.Duration) error {
	if ttl > 0 {
		return nil
	}
	return fmt.Errorf("revocation ttl %s: %w", ttl, sentinel.ErrInvalidState)
}
