package ports

import (
	"context"

	"github.com/akozyrev/TrainingEvents/internal/domain"
)

// Calendar materializes events in the external calendar system. Operations
// are keyed by organizer identity and the external event id. Transient
// failures surface as domain.ErrThrottled or domain.ErrBadGateway so the
// transport retry policy can classify them.
type Calendar interface {
	CreateEvent(ctx context.Context, e *domain.Event) (string, error)
	UpdateEvent(ctx context.Context, e *domain.Event) error
	CancelEvent(ctx context.Context, externalID, organizerID, comment string) error
}
