package kafka

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Handler returns nil only when the message was processed and its offset may be committed.
// A non-nil error makes the consumer retry the same message.
type Handler func(ctx context.Context, m kafka.Message) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r         messageReader
	workers   int
	log       *zap.Logger
	retryBase time.Duration
	retryMax  time.Duration
}

func NewConsumer(brokers []string, group, topic string, workers int, log *zap.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // synchronous commits, issued by the worker
	})
	return newConsumer(r, workers, log)
}

func newConsumer(r messageReader, workers int, log *zap.Logger) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{
		r:         r,
		workers:   workers,
		log:       log,
		retryBase: 200 * time.Millisecond,
		retryMax:  10 * time.Second,
	}
}

// Start dispatches messages to the worker pool until ctx is cancelled or the reader fails.
// Messages with the same key always land on the same worker, so they are handled in order.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	offsets := newOffsetTracker()
	jobs := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range jobs {
		jobs[i] = make(chan kafka.Message, 4)
		wg.Add(1)
		go func(id int, in <-chan kafka.Message) {
			defer wg.Done()
			for m := range in {
				if !c.handle(ctx, id, h, m) {
					continue
				}
				if last, ok := offsets.done(m); ok {
					c.commit(ctx, id, last, offsets)
				}
			}
		}(i, jobs[i])
	}
	defer wg.Wait()
	defer func() {
		for _, ch := range jobs {
			close(ch)
		}
	}()

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		offsets.add(m)
		select {
		case jobs[workerFor(m.Key, c.workers)] <- m:
		case <-ctx.Done():
			return nil
		}
	}
}

// handle retries h with backoff until it succeeds. It reports false only when ctx ends first.
func (c *Consumer) handle(ctx context.Context, worker int, h Handler, m kafka.Message) bool {
	wait := c.retryBase
	for attempt := 1; ; attempt++ {
		err := h(ctx, m)
		if err == nil {
			return true
		}
		c.log.Error("handler failed, retrying",
			zap.Int("worker", worker),
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err))
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return false
		case <-t.C:
		}
		if wait *= 2; wait > c.retryMax {
			wait = c.retryMax
		}
	}
}

func (c *Consumer) commit(ctx context.Context, worker int, m kafka.Message, offsets *offsetTracker) {
	offsets.commitMu.Lock()
	defer offsets.commitMu.Unlock()
	if prev, ok := offsets.committed[m.Partition]; ok && m.Offset <= prev {
		return
	}
	if err := c.r.CommitMessages(ctx, m); err != nil {
		if ctx.Err() == nil {
			c.log.Error("commit failed", zap.Int("worker", worker), zap.Int64("offset", m.Offset), zap.Error(err))
		}
		return
	}
	offsets.committed[m.Partition] = m.Offset
}

func workerFor(key []byte, n int) int {
	if n <= 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write(key)
	return int(h.Sum32() % uint32(n))
}

// offsetTracker lets a partition's offset advance only past messages that are all finished,
// since committing offset N tells the group everything before N is done.
type offsetTracker struct {
	mu      sync.Mutex
	pending map[int][]*trackedMessage

	commitMu  sync.Mutex
	committed map[int]int64
}

type trackedMessage struct {
	m    kafka.Message
	done bool
}

func newOffsetTracker() *offsetTracker {
	return &offsetTracker{
		pending:   map[int][]*trackedMessage{},
		committed: map[int]int64{},
	}
}

func (t *offsetTracker) add(m kafka.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[m.Partition] = append(t.pending[m.Partition], &trackedMessage{m: m})
}

// done marks m finished and returns the last message of the finished prefix, if the prefix grew.
func (t *offsetTracker) done(m kafka.Message) (kafka.Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	q := t.pending[m.Partition]
	for _, tm := range q {
		if tm.m.Offset == m.Offset {
			tm.done = true
			break
		}
	}
	n := 0
	for n < len(q) && q[n].done {
		n++
	}
	if n == 0 {
		return kafka.Message{}, false
	}
	last := q[n-1].m
	t.pending[m.Partition] = q[n:]
	return last, true
}
