package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

var (
	ErrEmptyQueue = errors.New("queue is empty")
)

// Job is the envelope stored in redis. Payload is the caller's JSON.
type Job struct {
	ID         string          `json:"id"`
	Queue      string          `json:"queue"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
	LastError  string          `json:"lastError,omitempty"`
}

// Delivery is a job taken off a queue. It stays in the processing list
// until it is acked or nacked.
type Delivery struct {
	Job
	raw string
}

type Options struct {
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// Queue is a redis backed job queue with at-least-once delivery.
//
// Keys per queue name:
//
//	<name>             pending jobs (LPUSH, consumed from the right)
//	<name>:processing  jobs handed to a consumer
//	<name>:delayed     jobs waiting for a retry, scored by due time
//	<name>:failed      jobs that exhausted MaxAttempts
type Queue struct {
	client redis.Cmdable
	opts   Options
	now    func() time.Time
}

func New(client redis.Cmdable, opts Options) *Queue {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = 2 * time.Second
	}
	if opts.BackoffMax <= 0 {
		opts.BackoffMax = 5 * time.Minute
	}
	return &Queue{client: client, opts: opts, now: time.Now}
}

func processingKey(name string) string { return name + ":processing" }
func delayedKey(name string) string    { return name + ":delayed" }
func failedKey(name string) string     { return name + ":failed" }

// Enqueue adds payload to the named queue and returns the job id.
func (q *Queue) Enqueue(ctx context.Context, name string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}

	job := Job{
		ID:         uuid.NewString(),
		Queue:      name,
		Payload:    body,
		EnqueuedAt: q.now().UTC(),
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to encode job: %w", err)
	}

	err = q.client.LPush(ctx, name, raw).Err()
	if err != nil {
		return "", fmt.Errorf("failed to enqueue job: %w", err)
	}

	return job.ID, nil
}

// Dequeue moves the oldest pending job to the processing list. It returns
// ErrEmptyQueue when nothing is pending.
func (q *Queue) Dequeue(ctx context.Context, name string) (*Delivery, error) {
	raw, err := q.client.LMove(ctx, name, processingKey(name), "RIGHT", "LEFT").Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrEmptyQueue
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue job: %w", err)
	}

	d := &Delivery{raw: raw}
	err = json.Unmarshal([]byte(raw), &d.Job)
	if err != nil {
		// Unreadable envelopes can never succeed
		_ = q.bury(ctx, name, raw, raw)
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}

	return d, nil
}

// Ack removes a finished job from the processing list.
func (q *Queue) Ack(ctx context.Context, d *Delivery) error {
	err := q.client.LRem(ctx, processingKey(d.Queue), 1, d.raw).Err()
	if err != nil {
		return fmt.Errorf("failed to ack job: %w", err)
	}
	return nil
}

// Nack records a failed attempt. The job is scheduled for a retry after an
// exponential backoff, or moved to the failed list once attempts run out.
// It reports whether the job was retried.
func (q *Queue) Nack(ctx context.Context, d *Delivery, cause error) (bool, error) {
	job := d.Job
	job.Attempts++
	if cause != nil {
		job.LastError = cause.Error()
	}

	raw, err := json.Marshal(job)
	if err != nil {
		return false, fmt.Errorf("failed to encode job: %w", err)
	}

	delay, ok := q.backoff(job.Attempts)
	if !ok {
		return false, q.bury(ctx, d.Queue, d.raw, string(raw))
	}

	due := q.now().Add(delay)
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, processingKey(d.Queue), 1, d.raw)
		pipe.ZAdd(ctx, delayedKey(d.Queue), redis.Z{Score: float64(due.UnixMilli()), Member: string(raw)})
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to schedule retry: %w", err)
	}

	return true, nil
}

// backoff returns the delay before the given attempt is retried, or false
// when no attempts remain.
func (q *Queue) backoff(attempts int) (time.Duration, bool) {
	if attempts >= q.opts.MaxAttempts {
		return 0, false
	}

	b := retry.NewExponential(q.opts.BackoffBase)
	b = retry.WithCappedDuration(q.opts.BackoffMax, b)

	var delay time.Duration
	for i := 0; i < attempts; i++ {
		next, stop := b.Next()
		if stop {
			return 0, false
		}
		delay = next
	}
	return delay, true
}

func (q *Queue) bury(ctx context.Context, name, processing, raw string) error {
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, processingKey(name), 1, processing)
		pipe.LPush(ctx, failedKey(name), raw)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to move job to failed list: %w", err)
	}
	return nil
}

// promoteBatch bounds how long a single promote script holds redis.
const promoteBatch = 100

// promoteScript moves up to ARGV[2] delayed jobs due at or before ARGV[1]
// from KEYS[1] to the pending list KEYS[2] in one atomic step.
var promoteScript = redis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, tonumber(ARGV[2]))
for _, raw in ipairs(due) do
	redis.call('ZREM', KEYS[1], raw)
	redis.call('LPUSH', KEYS[2], raw)
end
return #due
`)

// replaceScript removes ARGV[1] from the list KEYS[1] and, only if it was
// there, pushes ARGV[2] onto KEYS[2].
var replaceScript = redis.NewScript(`
if redis.call('LREM', KEYS[1], 1, ARGV[1]) == 1 then
	redis.call('LPUSH', KEYS[2], ARGV[2])
	return 1
end
return 0
`)

// PromoteDue moves delayed jobs whose due time has passed back to the
// pending list. The claim and the push run as one script, so a job is
// always in exactly one of the two.
func (q *Queue) PromoteDue(ctx context.Context, name string) (int, error) {
	now := strconv.FormatInt(q.now().UnixMilli(), 10)

	moved := 0
	for {
		n, err := promoteScript.Run(ctx, q.client, []string{delayedKey(name), name}, now, promoteBatch).Int()
		if err != nil {
			return moved, fmt.Errorf("failed to promote delayed jobs: %w", err)
		}
		moved += n
		if n < promoteBatch {
			return moved, nil
		}
	}
}

// RequeueProcessing moves every job left in the processing list back to the
// pending list. Consumers call it on startup to recover jobs from a crashed
// process; a job still running elsewhere may be delivered twice.
func (q *Queue) RequeueProcessing(ctx context.Context, name string) (int, error) {
	moved := 0
	for {
		err := q.client.LMove(ctx, processingKey(name), name, "RIGHT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, fmt.Errorf("failed to requeue processing jobs: %w", err)
		}
		moved++
	}
}

// RetryFailed moves every job in the failed list back to the pending list
// with its attempt count reset. Undecodable envelopes stay in the failed
// list and are reported in the returned error.
func (q *Queue) RetryFailed(ctx context.Context, name string) (int, error) {
	failed, err := q.client.LRange(ctx, failedKey(name), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read failed jobs: %w", err)
	}

	moved := 0
	var errs []error
	// Oldest entries sit at the tail
	for i := len(failed) - 1; i >= 0; i-- {
		raw := failed[i]

		var job Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			errs = append(errs, fmt.Errorf("failed to decode failed job: %w", err))
			continue
		}
		job.Attempts = 0
		job.LastError = ""

		fresh, err := json.Marshal(job)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to encode job %s: %w", job.ID, err))
			continue
		}

		n, err := replaceScript.Run(ctx, q.client, []string{failedKey(name), name}, raw, string(fresh)).Int()
		if err != nil {
			return moved, fmt.Errorf("failed to requeue failed job: %w", err)
		}
		moved += n
	}

	return moved, errors.Join(errs...)
}

type Stats struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Delayed    int64 `json:"delayed"`
	Failed     int64 `json:"failed"`
}

func (q *Queue) Stats(ctx context.Context, name string) (Stats, error) {
	var pending, processing, delayed, failed *redis.IntCmd
	_, err := q.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pending = pipe.LLen(ctx, name)
		processing = pipe.LLen(ctx, processingKey(name))
		delayed = pipe.ZCard(ctx, delayedKey(name))
		failed = pipe.LLen(ctx, failedKey(name))
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read queue stats: %w", err)
	}

	return Stats{
		Pending:    pending.Val(),
		Processing: processing.Val(),
		Delayed:    delayed.Val(),
		Failed:     failed.Val(),
	}, nil
}
