package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/wb-go/wbf/logger"

	"github.com/akozyrev/TrainingEvents/internal/domain"
)

func newTestLogger(t *testing.T) logger.Logger {
	t.Helper()
	log, err := logger.InitLogger("slog", "test", "test", logger.WithLevel(logger.ErrorLevel))
	if err != nil {
		t.Fatalf("init test logger: %v", err)
	}
	return log
}

type fakeLister struct {
	mu     sync.Mutex
	events []*domain.Event
	err    error
	calls  int
	froms  []time.Time
	tos    []time.Time
}

func (f *fakeLister) ListUpcoming(_ context.Context, from, to time.Time) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.froms = append(f.froms, from)
	f.tos = append(f.tos, to)
	return f.events, f.err
}

func (f *fakeLister) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeLoader struct {
	mu        sync.Mutex
	requested [][]string
	err       error
}

func (f *fakeLoader) GetUsers(_ context.Context, userIDs []string) ([]*domain.UserInstallation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested = append(f.requested, userIDs)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*domain.UserInstallation, 0, len(userIDs))
	for i, id := range userIDs {
		out = append(out, &domain.UserInstallation{UserID: id, ChatID: int64(i + 1)})
	}
	return out, nil
}

type fakeReminder struct {
	mu     sync.Mutex
	sent   []string
	failed []string
}

func (f *fakeReminder) NotifyReminder(_ context.Context, recipients []*domain.UserInstallation, e *domain.Event) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, e.ID)
	return f.failed
}

func (f *fakeReminder) remindedEvents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type fakeTrigger struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeTrigger) TriggerReindex(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeTrigger) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestScheduler_Tick_RemindsUpcomingAttendees(t *testing.T) {
	lister := &fakeLister{events: []*domain.Event{
		{ID: "e1", RegisteredAttendees: []string{"u1", "u2"}},
		{ID: "e2"}, // no attendees, no reminder
	}}
	loader := &fakeLoader{}
	reminder := &fakeReminder{}
	trigger := &fakeTrigger{}

	s := New(lister, loader, reminder, trigger, 50*time.Millisecond, newTestLogger(t))

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	s.Start(ctx)

	assert.GreaterOrEqual(t, lister.callCount(), 1)
	assert.GreaterOrEqual(t, trigger.callCount(), 1)
	assert.Contains(t, reminder.remindedEvents(), "e1")
	assert.NotContains(t, reminder.remindedEvents(), "e2")
	assert.Equal(t, []string{"u1", "u2"}, loader.requested[0])
}

func TestScheduler_Tick_WindowMatchesInterval(t *testing.T) {
	lister := &fakeLister{}
	s := New(lister, &fakeLoader{}, &fakeReminder{}, &fakeTrigger{}, 50*time.Millisecond, newTestLogger(t))

	fixed := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	s.Start(ctx)

	assert.GreaterOrEqual(t, lister.callCount(), 1)
	assert.Equal(t, fixed, lister.froms[0])
	assert.Equal(t, fixed.Add(50*time.Millisecond), lister.tos[0])
}

func TestScheduler_Tick_HandlesListError(t *testing.T) {
	lister := &fakeLister{err: errors.New("db error")}
	reminder := &fakeReminder{}

	s := New(lister, &fakeLoader{}, reminder, &fakeTrigger{}, 50*time.Millisecond, newTestLogger(t))

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	s.Start(ctx)

	assert.GreaterOrEqual(t, lister.callCount(), 1)
	assert.Empty(t, reminder.remindedEvents())
}

func TestScheduler_Tick_ReindexFailureDoesNotBlockReminders(t *testing.T) {
	lister := &fakeLister{events: []*domain.Event{
		{ID: "e1", RegisteredAttendees: []string{"u1"}},
	}}
	reminder := &fakeReminder{}
	trigger := &fakeTrigger{err: errors.New("broker down")}

	s := New(lister, &fakeLoader{}, reminder, trigger, 50*time.Millisecond, newTestLogger(t))

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	s.Start(ctx)

	assert.Contains(t, reminder.remindedEvents(), "e1")
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	s := New(&fakeLister{}, &fakeLoader{}, &fakeReminder{}, &fakeTrigger{}, time.Second, newTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on context cancel")
	}
}
