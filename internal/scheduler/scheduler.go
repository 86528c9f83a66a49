package scheduler

import (
	"context"
	"time"

	"github.com/akozyrev/TrainingEvents/internal/domain"
	"github.com/wb-go/wbf/logger"
)

type upcomingLister interface {
	ListUpcoming(ctx context.Context, from, to time.Time) ([]*domain.Event, error)
}

type recipientLoader interface {
	GetUsers(ctx context.Context, userIDs []string) ([]*domain.UserInstallation, error)
}

type reminderSender interface {
	NotifyReminder(ctx context.Context, recipients []*domain.UserInstallation, e *domain.Event) []string
}

type reindexTrigger interface {
	TriggerReindex(ctx context.Context) error
}

// Scheduler runs the periodic background passes: a reminder sweep over
// events starting within the next interval, and a scheduled index rebuild
// that catches anything the write-path triggers missed. Each event falls
// into exactly one reminder window, so attendees are reminded once.
type Scheduler struct {
	events        upcomingLister
	installations recipientLoader
	notifier      reminderSender
	index         reindexTrigger
	interval      time.Duration
	logger        logger.Logger
	now           func() time.Time
}

func New(
	events upcomingLister,
	installations recipientLoader,
	notifier reminderSender,
	index reindexTrigger,
	interval time.Duration,
	logger logger.Logger,
) *Scheduler {
	return &Scheduler{
		events:        events,
		installations: installations,
		notifier:      notifier,
		index:         index,
		interval:      interval,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("scheduler started",
		logger.Duration("interval", s.interval),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if err := s.index.TriggerReindex(ctx); err != nil {
		s.logger.Error("failed to trigger scheduled reindex",
			logger.String("error", err.Error()),
		)
	}

	now := s.now()
	upcoming, err := s.events.ListUpcoming(ctx, now, now.Add(s.interval))
	if err != nil {
		s.logger.Error("failed to list upcoming events",
			logger.String("error", err.Error()),
		)
		return
	}

	for _, e := range upcoming {
		s.remind(ctx, e)
	}
}

func (s *Scheduler) remind(ctx context.Context, e *domain.Event) {
	attendees := e.AllAttendees()
	if len(attendees) == 0 {
		return
	}

	recipients, err := s.installations.GetUsers(ctx, attendees)
	if err != nil {
		s.logger.Error("failed to load reminder recipients",
			logger.String("event_id", e.ID),
			logger.String("error", err.Error()),
		)
		return
	}

	failed := s.notifier.NotifyReminder(ctx, recipients, e)
	s.logger.Info("reminders sent",
		logger.String("event_id", e.ID),
		logger.Int("recipients", len(recipients)),
		logger.Int("failed", len(failed)),
	)
}
