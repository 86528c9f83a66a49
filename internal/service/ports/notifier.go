package ports

import (
	"context"

	"github.com/akozyrev/TrainingEvents/internal/domain"
)

// Notifier delivers conversational cards. Fan-out methods deliver to each
// recipient independently and return the user ids whose delivery ultimately
// failed; they never abort the batch. PostOrUpdateTeamCard posts a new
// organizer card when activityID is empty and updates the existing card
// otherwise; it returns the (possibly new) activity id, or "" when the card
// could not be delivered.
type Notifier interface {
	PostOrUpdateTeamCard(ctx context.Context, team *domain.TeamInstallation, activityID string, e *domain.Event) string
	NotifyEventUpdated(ctx context.Context, recipients []*domain.UserInstallation, e *domain.Event) []string
	NotifyEventCancelled(ctx context.Context, recipients []*domain.UserInstallation, e *domain.Event) []string
	NotifyAutoRegistered(ctx context.Context, recipients []*domain.UserInstallation, e *domain.Event) []string
	NotifyReminder(ctx context.Context, recipients []*domain.UserInstallation, e *domain.Event) []string
}
