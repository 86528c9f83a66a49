package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/akozyrev/TrainingEvents/internal/audience"
	"github.com/akozyrev/TrainingEvents/internal/domain"
	"github.com/akozyrev/TrainingEvents/internal/retry"
	"github.com/akozyrev/TrainingEvents/internal/service/ports"
	"github.com/wb-go/wbf/logger"
)

const cancellationComment = "This event has been cancelled by the organizer."

// LifecycleService validates and performs event state transitions. Every
// write to the primary store runs inside the conflict retry policy: read
// the current snapshot, apply the field mapping, recompute derived fields,
// attempt the conditional write, and on conflict re-read and reapply.
type LifecycleService struct {
	store         ports.EventStore
	resolver      *audience.Resolver
	calendar      ports.Calendar
	notifier      ports.Notifier
	installations ports.InstallationRepo
	index         ports.IndexTrigger
	logger        logger.Logger
	now           func() time.Time
}

func NewLifecycleService(
	store ports.EventStore,
	groups ports.GroupReader,
	calendar ports.Calendar,
	notifier ports.Notifier,
	installations ports.InstallationRepo,
	index ports.IndexTrigger,
	logger logger.Logger,
) *LifecycleService {
	return &LifecycleService{
		store:         store,
		resolver:      audience.NewResolver(groups),
		calendar:      calendar,
		notifier:      notifier,
		installations: installations,
		index:         index,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *LifecycleService) GetEvent(ctx context.Context, teamID, eventID string) (*domain.Event, error) {
	e, err := s.store.Get(ctx, teamID, eventID)
	if err != nil {
		return nil, err
	}
	if e.IsRemoved {
		return nil, domain.ErrEventNotFound
	}
	return e, nil
}

// CreateDraft stores a new draft. Drafts have no external side effects
// beyond the primary store and the index trigger.
func (s *LifecycleService) CreateDraft(ctx context.Context, input domain.EventInput) (*domain.Event, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	now := s.now()
	e := &domain.Event{
		ID:        uuid.New().String(),
		TeamID:    input.TeamID,
		Status:    domain.EventStatusDraft,
		CreatedBy: input.CallerID,
		CreatedOn: now,
	}
	applyEditable(e, input, now)
	e.NumberOfOccurrences = e.OccurrenceSpan()

	if err := s.store.Insert(ctx, e); err != nil {
		return nil, fmt.Errorf("create draft: %w", err)
	}

	s.logger.Info("draft created",
		logger.String("event_id", e.ID),
		logger.String("team_id", e.TeamID),
	)

	s.triggerReindex(ctx)
	return e, nil
}

// UpdateEvent dispatches on the event's current status: a draft is updated
// in place with no external side effects; an active event goes through the
// full re-resolve, calendar update and notification flow. Any other status
// can no longer be edited.
func (s *LifecycleService) UpdateEvent(ctx context.Context, input domain.EventInput) (*domain.Event, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	current, err := s.GetEvent(ctx, input.TeamID, input.EventID)
	if err != nil {
		return nil, err
	}

	switch current.Status {
	case domain.EventStatusDraft:
		return s.updateDraft(ctx, input)
	case domain.EventStatusActive:
		return s.updateActive(ctx, current, input)
	default:
		return nil, fmt.Errorf("%w: event in status %s can no longer be edited", domain.ErrValidation, current.Status)
	}
}

func (s *LifecycleService) updateDraft(ctx context.Context, input domain.EventInput) (*domain.Event, error) {
	var updated *domain.Event
	err := retry.Do(ctx, retry.Conflicts, func(ctx context.Context) error {
		e, err := s.store.Get(ctx, input.TeamID, input.EventID)
		if err != nil {
			return err
		}
		if e.IsRemoved || e.Status != domain.EventStatusDraft {
			return domain.ErrEventNotFound
		}

		applyEditable(e, input, s.now())
		e.NumberOfOccurrences = e.OccurrenceSpan()

		if err := s.store.Update(ctx, e); err != nil {
			return err
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update draft: %w", err)
	}

	s.triggerReindex(ctx)
	return updated, nil
}

// PublishEvent performs the Draft -> Active transition: the audience is
// resolved, the external calendar object is created (assigning the graph
// event id exactly once), the snapshot is committed, and then the organizer
// card and auto-registration notifications go out.
func (s *LifecycleService) PublishEvent(ctx context.Context, input domain.EventInput) (*domain.Event, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	current, err := s.GetEvent(ctx, input.TeamID, input.EventID)
	if err != nil {
		return nil, err
	}
	if !domain.IsValidTransition(current.Status, domain.EventStatusActive) {
		return nil, fmt.Errorf("%w: cannot publish event in status %s", domain.ErrValidation, current.Status)
	}

	mandatory, optional, autoRegistered, err := s.resolveAudience(ctx, input, current.RegisteredAttendees)
	if err != nil {
		return nil, err
	}

	// The graph event id is assigned at the first successful activation
	// and never cleared afterwards.
	graphEventID := current.GraphEventID
	if graphEventID == "" {
		prospective := *current
		applyEditable(&prospective, input, s.now())
		prospective.MandatoryAttendees = mandatory
		prospective.OptionalAttendees = optional

		graphEventID, err = s.calendar.CreateEvent(ctx, &prospective)
		if err != nil {
			return nil, fmt.Errorf("publish event: %w", err)
		}
	}

	var published *domain.Event
	err = retry.Do(ctx, retry.Conflicts, func(ctx context.Context) error {
		e, err := s.store.Get(ctx, input.TeamID, input.EventID)
		if err != nil {
			return err
		}
		if e.IsRemoved {
			return domain.ErrEventNotFound
		}
		if !domain.IsValidTransition(e.Status, domain.EventStatusActive) {
			return fmt.Errorf("%w: cannot publish event in status %s", domain.ErrValidation, e.Status)
		}

		applyEditable(e, input, s.now())
		e.Status = domain.EventStatusActive
		e.GraphEventID = graphEventID
		e.MandatoryAttendees = mandatory
		e.OptionalAttendees = optional
		e.AutoRegisteredAttendees = autoRegistered
		e.NumberOfOccurrences = e.OccurrenceSpan()
		e.SyncRegisteredCount()

		if err := s.store.Update(ctx, e); err != nil {
			return err
		}
		published = e
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("publish event: %w", err)
	}

	s.logger.Info("event published",
		logger.String("event_id", published.ID),
		logger.String("team_id", published.TeamID),
		logger.String("graph_event_id", published.GraphEventID),
	)

	s.postTeamCard(ctx, published)
	s.notifyUsers(ctx, autoRegistered, published, s.notifier.NotifyAutoRegistered)
	s.triggerReindex(ctx)

	return published, nil
}

func (s *LifecycleService) updateActive(ctx context.Context, current *domain.Event, input domain.EventInput) (*domain.Event, error) {
	mandatory, optional, autoRegistered, err := s.resolveAudience(ctx, input, current.RegisteredAttendees)
	if err != nil {
		return nil, err
	}

	// Only users auto-registered by this edit get the auto-register card.
	newlyAutoRegistered := subtract(autoRegistered, current.AutoRegisteredAttendees)

	prospective := *current
	applyEditable(&prospective, input, s.now())
	prospective.MandatoryAttendees = mandatory
	prospective.OptionalAttendees = optional
	if err := s.calendar.UpdateEvent(ctx, &prospective); err != nil {
		return nil, fmt.Errorf("update active event: %w", err)
	}

	var updated *domain.Event
	err = retry.Do(ctx, retry.Conflicts, func(ctx context.Context) error {
		e, err := s.store.Get(ctx, input.TeamID, input.EventID)
		if err != nil {
			return err
		}
		if e.IsRemoved || e.Status != domain.EventStatusActive {
			return domain.ErrEventNotFound
		}

		applyEditable(e, input, s.now())
		if e.Audience == domain.AudiencePublic {
			// Private -> Public drops all attendee state.
			e.ResetAudience()
		} else {
			e.SelectedSpec = input.Selections
			e.MandatoryAttendees = mandatory
			e.OptionalAttendees = optional
			// Auto-registered membership follows the mandatory set: users the
			// edit removed from it drop out, newly mandatory ones come in.
			e.AutoRegisteredAttendees = mergeSets(intersect(e.AutoRegisteredAttendees, mandatory), newlyAutoRegistered)
		}
		e.NumberOfOccurrences = e.OccurrenceSpan()
		e.SyncRegisteredCount()

		if err := s.store.Update(ctx, e); err != nil {
			return err
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update active event: %w", err)
	}

	s.postTeamCard(ctx, updated)
	s.notifyUsers(ctx, updated.AllAttendees(), updated, s.notifier.NotifyEventUpdated)
	s.notifyUsers(ctx, newlyAutoRegistered, updated, s.notifier.NotifyAutoRegistered)
	s.triggerReindex(ctx)

	return updated, nil
}

// UpdateEventStatus applies an explicit status transition. Illegal
// transitions, missing events and removed events all yield (false, nil)
// without mutating the store.
func (s *LifecycleService) UpdateEventStatus(ctx context.Context, teamID, eventID string, newStatus domain.EventStatus, callerID string) (bool, error) {
	current, err := s.store.Get(ctx, teamID, eventID)
	if errors.Is(err, domain.ErrEventNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if current.IsRemoved || !domain.IsValidTransition(current.Status, newStatus) {
		return false, nil
	}
	if newStatus == domain.EventStatusActive {
		// Activation runs through PublishEvent, which owns audience
		// resolution and calendar creation.
		return false, nil
	}

	// Cancellation reaches the calendar and the attendees before the
	// status change is committed.
	if newStatus == domain.EventStatusCancelled {
		if current.GraphEventID != "" {
			if err := s.calendar.CancelEvent(ctx, current.GraphEventID, current.CreatedBy, cancellationComment); err != nil {
				return false, fmt.Errorf("cancel calendar event: %w", err)
			}
		}
		cancelled := *current
		cancelled.Status = domain.EventStatusCancelled
		s.notifyUsers(ctx, current.AllAttendees(), &cancelled, s.notifier.NotifyEventCancelled)
	}

	var updated *domain.Event
	err = retry.Do(ctx, retry.Conflicts, func(ctx context.Context) error {
		e, err := s.store.Get(ctx, teamID, eventID)
		if err != nil {
			return err
		}
		if e.IsRemoved || !domain.IsValidTransition(e.Status, newStatus) {
			return domain.ErrEventNotFound
		}

		e.Status = newStatus
		e.UpdatedBy = callerID
		e.UpdatedOn = s.now()

		if err := s.store.Update(ctx, e); err != nil {
			return err
		}
		updated = e
		return nil
	})
	if errors.Is(err, domain.ErrEventNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("update event status: %w", err)
	}

	s.logger.Info("event status updated",
		logger.String("event_id", eventID),
		logger.String("status", string(newStatus)),
	)

	s.postTeamCard(ctx, updated)
	s.triggerReindex(ctx)
	return true, nil
}

// CloseRegistration stops further registrations without changing status.
func (s *LifecycleService) CloseRegistration(ctx context.Context, teamID, eventID, callerID string) (bool, error) {
	applied := false
	err := retry.Do(ctx, retry.Conflicts, func(ctx context.Context) error {
		e, err := s.store.Get(ctx, teamID, eventID)
		if errors.Is(err, domain.ErrEventNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if e.IsRemoved || e.Status != domain.EventStatusActive || e.IsRegistrationClosed {
			return nil
		}

		e.IsRegistrationClosed = true
		e.UpdatedBy = callerID
		e.UpdatedOn = s.now()

		if err := s.store.Update(ctx, e); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("close registration: %w", err)
	}

	if applied {
		s.triggerReindex(ctx)
	}
	return applied, nil
}

// DeleteDraft soft-deletes a draft. Active, cancelled and completed events
// are never removed.
func (s *LifecycleService) DeleteDraft(ctx context.Context, teamID, eventID, callerID string) (bool, error) {
	removed := false
	err := retry.Do(ctx, retry.Conflicts, func(ctx context.Context) error {
		e, err := s.store.Get(ctx, teamID, eventID)
		if errors.Is(err, domain.ErrEventNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if e.IsRemoved || e.Status != domain.EventStatusDraft {
			return nil
		}

		e.IsRemoved = true
		e.UpdatedBy = callerID
		e.UpdatedOn = s.now()

		if err := s.store.Update(ctx, e); err != nil {
			return err
		}
		removed = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete draft: %w", err)
	}

	if removed {
		s.triggerReindex(ctx)
	}
	return removed, nil
}

func (s *LifecycleService) resolveAudience(ctx context.Context, input domain.EventInput, registered []string) (mandatory, optional, autoRegistered []string, err error) {
	if input.Audience != domain.AudiencePrivate {
		return nil, nil, nil, nil
	}

	mandatory, optional, err = s.resolver.Resolve(ctx, input.Selections)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("resolve audience: %w", err)
	}
	if input.IsAutoRegister {
		autoRegistered = audience.AutoRegister(mandatory, registered)
	}
	return mandatory, optional, autoRegistered, nil
}

// postTeamCard creates or updates the organizer channel card and persists a
// newly assigned activity id. Card delivery failure never fails the
// triggering operation.
func (s *LifecycleService) postTeamCard(ctx context.Context, e *domain.Event) {
	team, err := s.installations.GetTeam(ctx, e.TeamID)
	if err != nil {
		s.logger.Warn("team card skipped",
			logger.String("team_id", e.TeamID),
			logger.String("error", err.Error()),
		)
		return
	}

	activityID := s.notifier.PostOrUpdateTeamCard(ctx, team, e.TeamCardActivityID, e)
	if activityID == "" || activityID == e.TeamCardActivityID {
		return
	}

	err = retry.Do(ctx, retry.Conflicts, func(ctx context.Context) error {
		stored, err := s.store.Get(ctx, e.TeamID, e.ID)
		if err != nil {
			return err
		}
		stored.TeamCardActivityID = activityID
		return s.store.Update(ctx, stored)
	})
	if err != nil {
		s.logger.Error("failed to persist team card activity id",
			logger.String("event_id", e.ID),
			logger.String("error", err.Error()),
		)
		return
	}
	e.TeamCardActivityID = activityID
}

func (s *LifecycleService) notifyUsers(ctx context.Context, userIDs []string, e *domain.Event, send func(context.Context, []*domain.UserInstallation, *domain.Event) []string) {
	if len(userIDs) == 0 {
		return
	}

	recipients, err := s.installations.GetUsers(ctx, userIDs)
	if err != nil {
		s.logger.Error("failed to load notification recipients",
			logger.String("event_id", e.ID),
			logger.String("error", err.Error()),
		)
		return
	}

	if failed := send(ctx, recipients, e); len(failed) > 0 {
		s.logger.Warn("card delivery failed for some recipients",
			logger.String("event_id", e.ID),
			logger.Int("failed", len(failed)),
		)
	}
}

func (s *LifecycleService) triggerReindex(ctx context.Context) {
	if err := s.index.TriggerReindex(ctx); err != nil {
		s.logger.Error("failed to trigger reindex",
			logger.String("error", err.Error()),
		)
	}
}

// applyEditable copies the caller-editable field allow-list onto the
// snapshot. A switch to a public audience resets attendee state at the
// caller (see updateActive); server-controlled fields are never touched.
func applyEditable(e *domain.Event, input domain.EventInput, now time.Time) {
	e.Name = input.Name
	e.Description = input.Description
	e.Venue = input.Venue
	e.MeetingLink = input.MeetingLink
	e.SelectedColor = input.SelectedColor
	e.PhotoURL = input.PhotoURL
	e.Type = input.Type
	e.CategoryID = input.CategoryID
	e.StartDate = input.StartDate
	e.EndDate = input.EndDate
	e.StartTime = input.StartTime
	e.EndTime = input.EndTime
	e.MaxParticipants = input.MaxParticipants
	e.Audience = input.Audience
	e.SelectedSpec = input.Selections
	e.IsAutoRegister = input.IsAutoRegister
	e.UpdatedBy = input.CallerID
	e.UpdatedOn = now
}

func validateInput(input domain.EventInput) error {
	var v domain.ValidationError

	if input.Name == "" {
		v.Add("name", "is required")
	}
	if input.MaxParticipants <= 0 {
		v.Add("max_participants", "must be positive")
	}
	if input.Type == domain.EventTypeInPerson && input.Venue == "" {
		v.Add("venue", "is required for in-person events")
	}

	start := domain.CombineDateTime(input.StartDate, input.StartTime)
	end := domain.CombineDateTime(input.EndDate, input.EndTime)
	if !end.After(start) {
		v.Add("end_date", "must be after start date")
	}

	switch input.Audience {
	case domain.AudiencePublic:
	case domain.AudiencePrivate:
		if len(input.Selections) == 0 {
			v.Add("selections", "are required for a private audience")
		}
	default:
		v.Add("audience", "must be public or private")
	}

	return v.ErrOrNil()
}

func subtract(ids, remove []string) []string {
	drop := make(map[string]struct{}, len(remove))
	for _, id := range remove {
		drop[id] = struct{}{}
	}
	var out []string
	for _, id := range ids {
		if _, ok := drop[id]; ok {
			continue
		}
		out = append(out, id)
	}
	return out
}

func intersect(ids, keep []string) []string {
	in := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		in[id] = struct{}{}
	}
	var out []string
	for _, id := range ids {
		if _, ok := in[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func mergeSets(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, set := range [][]string{a, b} {
		for _, id := range set {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
