package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akozyrev/TrainingEvents/internal/domain"
	"github.com/akozyrev/TrainingEvents/internal/retry"
	"github.com/akozyrev/TrainingEvents/internal/service/ports"
	"github.com/wb-go/wbf/logger"
)

// RegistrationService performs register/unregister for a single user,
// re-validating capacity and eligibility at commit time under the conflict
// retry policy.
type RegistrationService struct {
	store    ports.EventStore
	calendar ports.Calendar
	index    ports.IndexTrigger
	logger   logger.Logger
	now      func() time.Time
}

func NewRegistrationService(
	store ports.EventStore,
	calendar ports.Calendar,
	index ports.IndexTrigger,
	logger logger.Logger,
) *RegistrationService {
	return &RegistrationService{
		store:    store,
		calendar: calendar,
		index:    index,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Register appends the user to the registered set. Ineligibility yields
// (false, nil); an already-registered user is a success without a write.
// After the commit the attendee list is propagated to the calendar; a
// propagation failure surfaces as an error even though the primary store
// already reflects the registration.
func (s *RegistrationService) Register(ctx context.Context, teamID, eventID, userID string) (bool, error) {
	var event *domain.Event
	wrote := false

	err := retry.Do(ctx, retry.Conflicts, func(ctx context.Context) error {
		e, err := s.store.Get(ctx, teamID, eventID)
		if errors.Is(err, domain.ErrEventNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if !s.eligible(e, userID) {
			return nil
		}
		if e.RegisteredCount >= e.MaxParticipants {
			return nil
		}
		if e.IsRegistered(userID) {
			event = e
			return nil
		}

		e.RegisteredAttendees = append(e.RegisteredAttendees, userID)
		e.SyncRegisteredCount()
		e.UpdatedBy = userID
		e.UpdatedOn = s.now()

		if err := s.store.Update(ctx, e); err != nil {
			return err
		}
		event = e
		wrote = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("register: %w", err)
	}
	if event == nil {
		return false, nil
	}

	s.logger.Info("user registered",
		logger.String("event_id", eventID),
		logger.String("user_id", userID),
		logger.Int("registered_count", event.RegisteredCount),
	)

	if wrote {
		if err := s.propagate(ctx, event); err != nil {
			return false, err
		}
	}
	return true, nil
}

// Unregister removes the user from whichever registered set contains them.
// The same non-eligibility conditions as Register apply, except capacity;
// membership in neither set is a no-op failure.
func (s *RegistrationService) Unregister(ctx context.Context, teamID, eventID, userID string) (bool, error) {
	var event *domain.Event

	err := retry.Do(ctx, retry.Conflicts, func(ctx context.Context) error {
		e, err := s.store.Get(ctx, teamID, eventID)
		if errors.Is(err, domain.ErrEventNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if !s.eligible(e, userID) {
			return nil
		}
		if !e.IsRegistered(userID) {
			return nil
		}

		e.RegisteredAttendees = removeID(e.RegisteredAttendees, userID)
		e.AutoRegisteredAttendees = removeID(e.AutoRegisteredAttendees, userID)
		e.SyncRegisteredCount()
		e.UpdatedBy = userID
		e.UpdatedOn = s.now()

		if err := s.store.Update(ctx, e); err != nil {
			return err
		}
		event = e
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("unregister: %w", err)
	}
	if event == nil {
		return false, nil
	}

	s.logger.Info("user unregistered",
		logger.String("event_id", eventID),
		logger.String("user_id", userID),
		logger.Int("registered_count", event.RegisteredCount),
	)

	if err := s.propagate(ctx, event); err != nil {
		return false, err
	}
	return true, nil
}

func (s *RegistrationService) eligible(e *domain.Event, userID string) bool {
	if e.IsRemoved {
		return false
	}
	if e.EffectiveStatus(s.now()) != domain.EventStatusActive {
		return false
	}
	if e.IsRegistrationClosed {
		return false
	}
	if e.Audience == domain.AudiencePrivate && !e.IsInvited(userID) {
		return false
	}
	return true
}

func (s *RegistrationService) propagate(ctx context.Context, e *domain.Event) error {
	if e.GraphEventID != "" {
		if err := s.calendar.UpdateEvent(ctx, e); err != nil {
			return fmt.Errorf("propagate attendees to calendar: %w", err)
		}
	}

	if err := s.index.TriggerReindex(ctx); err != nil {
		s.logger.Error("failed to trigger reindex",
			logger.String("event_id", e.ID),
			logger.String("error", err.Error()),
		)
	}
	return nil
}

func removeID(set []string, id string) []string {
	out := set[:0]
	for _, s := range set {
		if s != id {
			out = append(out, s)
		}
	}
	return out
}
