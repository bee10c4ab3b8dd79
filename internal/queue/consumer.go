package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Handler processes one job payload. A returned error schedules a retry.
type Handler func(ctx context.Context, payload json.RawMessage) error

type ConsumerOptions struct {
	Concurrency  int
	PollInterval time.Duration
}

// Consumer runs handlers for registered queues until its context ends.
type Consumer struct {
	queue    *Queue
	opts     ConsumerOptions
	handlers map[string]Handler
	logger   *slog.Logger
}

func NewConsumer(q *Queue, opts ConsumerOptions, logger *slog.Logger) *Consumer {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		queue:    q,
		opts:     opts,
		handlers: map[string]Handler{},
		logger:   logger,
	}
}

func (c *Consumer) Handle(name string, h Handler) {
	c.handlers[name] = h
}

// Run starts Concurrency workers and one promoter per queue. Cancelling ctx
// stops polling; a job already handed to a handler runs to completion.
func (c *Consumer) Run(ctx context.Context) error {
	if len(c.handlers) == 0 {
		return errors.New("no queue handlers registered")
	}

	for name := range c.handlers {
		n, err := c.queue.RequeueProcessing(ctx, name)
		if err != nil {
			return err
		}
		if n > 0 {
			c.logger.Warn("requeued unfinished jobs", "queue", name, "count", n)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	for name, h := range c.handlers {
		g.Go(func() error {
			c.promote(ctx, name)
			return nil
		})
		for i := 0; i < c.opts.Concurrency; i++ {
			g.Go(func() error {
				c.poll(ctx, name, h)
				return nil
			})
		}
		c.logger.Info("consuming queue", "queue", name, "concurrency", c.opts.Concurrency)
	}

	return g.Wait()
}

func (c *Consumer) promote(ctx context.Context, name string) {
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.queue.PromoteDue(ctx, name)
			if err != nil && ctx.Err() == nil {
				c.logger.Error("failed to promote delayed jobs", "queue", name, "error", err)
			}
			if n > 0 {
				c.logger.Debug("promoted delayed jobs", "queue", name, "count", n)
			}
		}
	}
}

func (c *Consumer) poll(ctx context.Context, name string, h Handler) {
	for {
		if ctx.Err() != nil {
			return
		}

		processed, err := c.ProcessOne(ctx, name, h)
		if err != nil && ctx.Err() == nil {
			c.logger.Error("failed to fetch job", "queue", name, "error", err)
		}
		if processed {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.opts.PollInterval):
		}
	}
}

// ProcessOne takes at most one job from the queue and runs h on it. It
// reports whether a job was taken.
func (c *Consumer) ProcessOne(ctx context.Context, name string, h Handler) (bool, error) {
	d, err := c.queue.Dequeue(ctx, name)
	if errors.Is(err, ErrEmptyQueue) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	// The job outlives a shutdown signal
	jobCtx := context.WithoutCancel(ctx)
	log := c.logger.With("queue", name, "job_id", d.ID, "attempt", d.Attempts+1)

	start := time.Now()
	err = runHandler(jobCtx, h, d.Payload)
	if err == nil {
		log.Info("job completed", "duration", time.Since(start))
		if ackErr := c.queue.Ack(jobCtx, d); ackErr != nil {
			log.Error("failed to ack job", "error", ackErr)
		}
		return true, nil
	}

	retried, nackErr := c.queue.Nack(jobCtx, d, err)
	if nackErr != nil {
		log.Error("failed to nack job", "error", nackErr, "cause", err)
		return true, nil
	}
	if retried {
		log.Warn("job failed, retry scheduled", "error", err)
	} else {
		log.Error("job failed permanently", "error", err)
	}
	return true, nil
}

func runHandler(ctx context.Context, h Handler, payload json.RawMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return h(ctx, payload)
}
