package indexer

import (
	"context"

	"github.com/wb-go/wbf/logger"
)

type Consumer interface {
	Consume(handler func([]byte) error) error
}

// Worker consumes reindex triggers from the queue and feeds them to the
// synchronizer.
type Worker struct {
	consumer Consumer
	sync     *Synchronizer
	log      logger.Logger
	done     chan struct{}
	cancel   context.CancelFunc
}

func NewWorker(consumer Consumer, sync *Synchronizer, log logger.Logger) *Worker {
	return &Worker{
		consumer: consumer,
		sync:     sync,
		log:      log,
		done:     make(chan struct{}),
	}
}

func (w *Worker) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	go func() {
		defer close(w.done)

		if err := w.consumer.Consume(w.sync.HandleTrigger(cctx)); err != nil {
			w.log.Error("failed to start consuming reindex triggers",
				logger.String("error", err.Error()),
			)
			return
		}
		w.log.Info("index worker started")

		<-cctx.Done()
		w.log.Info("index worker stopped")
	}()
}

func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
		<-w.done
	}
}
