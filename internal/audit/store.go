package audit

import (
	"context"

	id "trustlessid/pkg/domain"
)

// Store persists activity events.
type Store interface {
	Append(ctx context.Context, event Event) error
	// ListRecent returns up to limit events for the user, newest first. A
	// non-positive limit returns everything.
	ListRecent(ctx context.Context, userID id.UserID, limit int) ([]Event, error)
}
