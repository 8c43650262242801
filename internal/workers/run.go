package workers

import (
	"context"
	"errors"
	"time"

	"github.com/benvon/postcraft/internal/queue"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultJobTimeout bounds one job. A trending refresh makes one LLM call
// per feed item, which dominates.
const DefaultJobTimeout = 5 * time.Minute

// ErrDeliveriesClosed is returned by Run when the broker stops delivering
// while the worker is still running. The process should exit and restart.
var ErrDeliveriesClosed = errors.New("delivery channel closed")

// Run processes deliveries with up to concurrency jobs in flight until ctx
// is cancelled. Jobs already running when ctx ends are allowed to finish
// within DefaultJobTimeout so their delivery is settled.
func (p *JobProcessor) Run(ctx context.Context, deliveries <-chan queue.Delivery, errs <-chan error, concurrency int) error {
	if concurrency < 1 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for err := range errs {
			p.logger.Error("queue_error", zap.Error(err))
		}
		return nil
	})

	for range concurrency {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case msg, ok := <-deliveries:
					if !ok {
						if ctx.Err() != nil {
							return nil
						}
						return ErrDeliveriesClosed
					}
					p.runOne(gctx, msg)
				}
			}
		})
	}

	return g.Wait()
}

func (p *JobProcessor) runOne(ctx context.Context, msg queue.Delivery) {
	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultJobTimeout)
	defer cancel()

	if err := p.ProcessJob(jobCtx, msg); err != nil {
		p.logger.Error("job_failed", append(jobFields(msg.Job()), zap.Error(err))...)
	}
}
