package notification

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	failFor  map[int64]error
	failures map[int64]int
	nextID   int
}

func newFakeSender() *fakeSender {
	return &fakeSender{failFor: map[int64]error{}, failures: map[int64]int{}}
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	chatID := chatOf(c)
	if err, ok := f.failFor[chatID]; ok {
		if n := f.failures[chatID]; n != 0 {
			f.failures[chatID] = n - 1
			if n == 1 {
				delete(f.failFor, chatID)
			}
		}
		return tgbotapi.Message{}, err
	}

	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func chatOf(c tgbotapi.Chattable) int64 {
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		return m.ChatID
	case tgbotapi.EditMessageTextConfig:
		return m.ChatID
	default:
		return 0
	}
}

func (f *fakeSender) sentChatIDs() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int64, 0, len(f.sent))
	for _, c := range f.sent {
		ids = append(ids, chatOf(c))
	}
	return ids
}

func testEvent() *domain.Event {
	return &domain.Event{
		ID:        "e1",
		Name:      "Go workshop",
		Venue:     "Room 4",
		StartDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		StartTime: time.Date(0, 1, 1, 14, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		EndTime:   time.Date(0, 1, 1, 16, 0, 0, 0, time.UTC),
	}
}

func recipients(ids ...int64) []*domain.UserInstallation {
	out := make([]*domain.UserInstallation, 0, len(ids))
	for _, id := range ids {
		out = append(out, &domain.UserInstallation{
			UserID: "u" + strconv.FormatInt(id, 10),
			ChatID: id,
		})
	}
	return out
}

func TestFanOut_OneFailureDoesNotAbortBatch(t *testing.T) {
	bot := newFakeSender()
	bot.failFor[2] = errors.New("chat not found")

	n := &TelegramNotifier{bot: bot, logger: newTestLogger(t)}
	failed := n.NotifyEventUpdated(context.Background(), recipients(1, 2, 3), testEvent())

	assert.Equal(t, []string{"u2"}, failed)
	assert.Equal(t, []int64{1, 3}, bot.sentChatIDs())
}

func TestFanOut_RetriesThrottledDelivery(t *testing.T) {
	bot := newFakeSender()
	bot.failFor[1] = &tgbotapi.Error{Code: 429, Message: "too many requests"}
	bot.failures[1] = 1

	n := &TelegramNotifier{bot: bot, logger: newTestLogger(t)}
	failed := n.NotifyReminder(context.Background(), recipients(1), testEvent())

	assert.Empty(t, failed)
	assert.Equal(t, []int64{1}, bot.sentChatIDs())
}

func TestFanOut_StopsOnCancelledContext(t *testing.T) {
	bot := newFakeSender()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := &TelegramNotifier{bot: bot, logger: newTestLogger(t)}
	failed := n.NotifyEventCancelled(ctx, recipients(1, 2, 3), testEvent())

	assert.Empty(t, failed)
	assert.Empty(t, bot.sentChatIDs())
}

func TestFanOut_DisabledBot(t *testing.T) {
	n := &TelegramNotifier{bot: nil, logger: newTestLogger(t)}
	failed := n.NotifyAutoRegistered(context.Background(), recipients(1, 2), testEvent())
	assert.Empty(t, failed)
}

func TestPostOrUpdateTeamCard_PostsThenEdits(t *testing.T) {
	bot := newFakeSender()
	n := &TelegramNotifier{bot: bot, logger: newTestLogger(t)}
	team := &domain.TeamInstallation{TeamID: "t1", ChatID: 77}
	e := testEvent()

	activityID := n.PostOrUpdateTeamCard(context.Background(), team, "", e)
	require.Equal(t, "1", activityID)

	again := n.PostOrUpdateTeamCard(context.Background(), team, activityID, e)
	assert.Equal(t, activityID, again)

	require.Len(t, bot.sent, 2)
	_, isMessage := bot.sent[0].(tgbotapi.MessageConfig)
	_, isEdit := bot.sent[1].(tgbotapi.EditMessageTextConfig)
	assert.True(t, isMessage)
	assert.True(t, isEdit)
}

func TestPostOrUpdateTeamCard_FailureYieldsEmptyID(t *testing.T) {
	bot := newFakeSender()
	bot.failFor[77] = errors.New("forbidden")

	n := &TelegramNotifier{bot: bot, logger: newTestLogger(t)}
	team := &domain.TeamInstallation{TeamID: "t1", ChatID: 77}

	activityID := n.PostOrUpdateTeamCard(context.Background(), team, "", testEvent())
	assert.Equal(t, "", activityID)
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))
	assert.ErrorIs(t, classify(&tgbotapi.Error{Code: 429}), domain.ErrThrottled)
	assert.ErrorIs(t, classify(&tgbotapi.Error{Code: 502}), domain.ErrBadGateway)

	plain := errors.New("boom")
	assert.Equal(t, plain, classify(plain))
}
