package ports

import (
	"context"

	"github.com/akozyrev/TrainingEvents/internal/domain"
)

// EventStore is the primary record store. Update is conditional on the
// event's Version and returns domain.ErrConflict on a stale snapshot;
// callers run read-modify-write sequences under the conflict retry policy.
type EventStore interface {
	Get(ctx context.Context, teamID, eventID string) (*domain.Event, error)
	Insert(ctx context.Context, e *domain.Event) error
	Update(ctx context.Context, e *domain.Event) error
}

type CategoryRepo interface {
	Create(ctx context.Context, c *domain.Category) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
	Update(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, id string) error
}
