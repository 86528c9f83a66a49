package notification

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/akozyrev/TrainingEvents/internal/domain"
	"github.com/akozyrev/TrainingEvents/internal/retry"
	"github.com/wb-go/wbf/logger"
)

// sender is the slice of the bot API the notifier uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier delivers event cards over the bot channel. Fan-out
// deliveries are independently fallible; channel cards are posted once and
// edited in place afterwards using the stored activity id.
type TelegramNotifier struct {
	bot    sender
	logger logger.Logger
}

func NewTelegramNotifier(token string, logger logger.Logger) (*TelegramNotifier, error) {
	if token == "" {
		logger.Warn("telegram bot token is empty, notifications disabled")
		return &TelegramNotifier{bot: nil, logger: logger}, nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &TelegramNotifier{bot: bot, logger: logger}, nil
}

// PostOrUpdateTeamCard posts the organizer card to the team channel, or
// edits the previously posted card when activityID is set. A delivery
// failure yields "" and never aborts the caller's workflow.
func (n *TelegramNotifier) PostOrUpdateTeamCard(ctx context.Context, team *domain.TeamInstallation, activityID string, e *domain.Event) string {
	if n.bot == nil || team == nil {
		n.logger.Debug("team card skipped (bot disabled or team not installed)")
		return activityID
	}

	text := organizerCard(e)

	if activityID == "" {
		msg := tgbotapi.NewMessage(team.ChatID, text)
		msg.ParseMode = "Markdown"

		var sent tgbotapi.Message
		err := retry.Do(ctx, retry.Transport, func(context.Context) error {
			var sendErr error
			sent, sendErr = n.bot.Send(msg)
			return classify(sendErr)
		})
		if err != nil {
			n.logger.Error("failed to post team card",
				logger.String("event_id", e.ID),
				logger.String("error", err.Error()),
			)
			return ""
		}
		return strconv.Itoa(sent.MessageID)
	}

	messageID, err := strconv.Atoi(activityID)
	if err != nil {
		n.logger.Error("invalid team card activity id",
			logger.String("event_id", e.ID),
			logger.String("activity_id", activityID),
		)
		return ""
	}

	edit := tgbotapi.NewEditMessageText(team.ChatID, messageID, text)
	edit.ParseMode = "Markdown"

	err = retry.Do(ctx, retry.Transport, func(context.Context) error {
		_, sendErr := n.bot.Send(edit)
		return classify(sendErr)
	})
	if err != nil {
		n.logger.Error("failed to update team card",
			logger.String("event_id", e.ID),
			logger.String("error", err.Error()),
		)
		return ""
	}
	return activityID
}

func (n *TelegramNotifier) NotifyEventUpdated(ctx context.Context, recipients []*domain.UserInstallation, e *domain.Event) []string {
	return n.fanOut(ctx, recipients, updatedCard(e))
}

func (n *TelegramNotifier) NotifyEventCancelled(ctx context.Context, recipients []*domain.UserInstallation, e *domain.Event) []string {
	return n.fanOut(ctx, recipients, cancelledCard(e))
}

func (n *TelegramNotifier) NotifyAutoRegistered(ctx context.Context, recipients []*domain.UserInstallation, e *domain.Event) []string {
	return n.fanOut(ctx, recipients, autoRegisteredCard(e))
}

func (n *TelegramNotifier) NotifyReminder(ctx context.Context, recipients []*domain.UserInstallation, e *domain.Event) []string {
	return n.fanOut(ctx, recipients, reminderCard(e))
}

// fanOut delivers the same card to every recipient independently. Failures
// are collected for diagnostics; one recipient failing never aborts the
// rest of the batch.
func (n *TelegramNotifier) fanOut(ctx context.Context, recipients []*domain.UserInstallation, text string) []string {
	if n.bot == nil {
		n.logger.Debug("fan-out skipped (bot disabled)", logger.Int("recipients", len(recipients)))
		return nil
	}

	var failed []string
	for _, rec := range recipients {
		if err := ctx.Err(); err != nil {
			n.logger.Debug("fan-out interrupted (context cancelled)")
			break
		}

		msg := tgbotapi.NewMessage(rec.ChatID, text)
		msg.ParseMode = "Markdown"

		err := retry.Do(ctx, retry.Transport, func(context.Context) error {
			_, sendErr := n.bot.Send(msg)
			return classify(sendErr)
		})
		if err != nil {
			failed = append(failed, rec.UserID)
			n.logger.Error("failed to deliver card",
				logger.String("user_id", rec.UserID),
				logger.String("error", err.Error()),
			)
		}
	}
	return failed
}

// classify maps transport-level telegram errors onto the domain's transient
// errors so the retry policy can recognize them.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429:
			return fmt.Errorf("%w: %s", domain.ErrThrottled, apiErr.Message)
		case 502:
			return fmt.Errorf("%w: %s", domain.ErrBadGateway, apiErr.Message)
		}
	}
	return err
}
