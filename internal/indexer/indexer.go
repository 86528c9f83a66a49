// Package indexer keeps the event_index projection eventually consistent
// with the primary store. Mutating services publish a trigger message after
// their commit; the worker consumes triggers and runs an idempotent rebuild
// pass. Concurrent passes are not serialized: a trigger racing an in-flight
// pass retries once immediately and is otherwise abandoned, since the next
// trigger or scheduled run converges on the already-correct source records.
package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/akozyrev/TrainingEvents/internal/domain"
	"github.com/wb-go/wbf/logger"
)

type Rebuilder interface {
	Rebuild(ctx context.Context) error
}

type Publisher interface {
	Publish(ctx context.Context, message []byte) error
}

type triggerMessage struct {
	RequestedAt time.Time `json:"requested_at"`
}

type Synchronizer struct {
	publisher Publisher
	rebuilder Rebuilder
	log       logger.Logger
	running   atomic.Bool
}

func NewSynchronizer(publisher Publisher, rebuilder Rebuilder, log logger.Logger) *Synchronizer {
	return &Synchronizer{
		publisher: publisher,
		rebuilder: rebuilder,
		log:       log,
	}
}

// TriggerReindex publishes an on-demand reindex request. The caller's
// primary-store write is already durable; this call never blocks on index
// completion.
func (s *Synchronizer) TriggerReindex(ctx context.Context) error {
	body, err := json.Marshal(triggerMessage{RequestedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal reindex trigger: %w", err)
	}
	if err := s.publisher.Publish(ctx, body); err != nil {
		return fmt.Errorf("publish reindex trigger: %w", err)
	}
	return nil
}

// Reindex runs one projection pass. A pass racing an in-flight pass gets a
// single immediate retry; a second conflict abandons the request.
func (s *Synchronizer) Reindex(ctx context.Context) error {
	err := s.runOnce(ctx)
	if errors.Is(err, domain.ErrReindexInFlight) {
		err = s.runOnce(ctx)
	}
	if errors.Is(err, domain.ErrReindexInFlight) {
		s.log.Debug("reindex request abandoned, run already in flight")
		return nil
	}
	return err
}

func (s *Synchronizer) runOnce(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return domain.ErrReindexInFlight
	}
	defer s.running.Store(false)

	if err := s.rebuilder.Rebuild(ctx); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	return nil
}

// HandleTrigger is the queue-consumer entry point.
func (s *Synchronizer) HandleTrigger(ctx context.Context) func([]byte) error {
	return func(body []byte) error {
		var msg triggerMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			s.log.Error("malformed reindex trigger dropped",
				logger.String("error", err.Error()),
			)
			return nil
		}

		if err := s.Reindex(ctx); err != nil {
			s.log.Error("reindex pass failed",
				logger.String("error", err.Error()),
			)
			return err
		}
		return nil
	}
}
