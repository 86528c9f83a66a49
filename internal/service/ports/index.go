package ports

import (
	"context"

	"github.com/akozyrev/TrainingEvents/internal/domain"
)

// IndexTrigger requests an asynchronous re-index pass. The caller's write
// is already durable in the primary store; the trigger is best-effort and
// the caller does not block on index completion.
type IndexTrigger interface {
	TriggerReindex(ctx context.Context) error
}

// IndexQuery is the read surface over the search projection.
type IndexQuery interface {
	// QueryByTeam is the organizer-facing profile: owning team filter,
	// newest first by creation time.
	QueryByTeam(ctx context.Context, teamID string, page domain.Page) ([]*domain.IndexedEvent, error)

	// QueryForUser is the end-user-facing profile: audience visibility and
	// eligibility filters applied, sorted by recency or by registration
	// popularity. limit/offset are raw so the caller can over-fetch for
	// in-memory re-sorting.
	QueryForUser(ctx context.Context, userID string, sort domain.UserEventSort, limit, offset int) ([]*domain.IndexedEvent, error)
}
