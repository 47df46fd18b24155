package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestProducer_FlushesOnClose(t *testing.T) {
	fw := &fakeWriter{}
	p := newProducer(fw, "order.status.changed", 16, zap.NewNop())
	p.Start()

	env := NewEnvelope("OrderStatusChanged", "test", "ORD1", "", map[string]string{"status": "Shipped"})
	PublishEnvelope(p, []byte("ORD1"), env)
	p.Publish([]byte("ORD2"), []byte("{}"))
	p.Close()
	p.WaitClosed()

	// publishing after close must not panic
	p.Publish([]byte("late"), []byte("{}"))
	p.Close()

	if len(fw.msgs) != 2 || !fw.closed {
		t.Fatalf("want 2 msgs and closed writer, got %d closed=%v", len(fw.msgs), fw.closed)
	}
	if string(fw.msgs[0].Key) != "ORD1" {
		t.Fatalf("bad key: %s", fw.msgs[0].Key)
	}
	if len(fw.msgs[0].Headers) != 2 || string(fw.msgs[0].Headers[0].Value) != "OrderStatusChanged" {
		t.Fatalf("bad headers: %+v", fw.msgs[0].Headers)
	}
	got, err := DecodeEnvelope(fw.msgs[0].Value)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.EventID == "" || got.CorrelationID != "ORD1" || got.EventVersion != EnvelopeVersion {
		t.Fatalf("unexpected envelope: %+v", got)
	}
	payload, err := UnwrapPayload[map[string]string](got.Payload)
	if err != nil || payload["status"] != "Shipped" {
		t.Fatalf("payload: %v %v", payload, err)
	}
}

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	closed    bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.queue) > 0 {
		m := f.queue[0]
		f.queue = f.queue[1:]
		f.mu.Unlock()
		return m, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeReader) commits() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.committed...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func fastRetry(c *Consumer) {
	c.retryBase = time.Millisecond
	c.retryMax = 4 * time.Millisecond
}

func TestConsumer_RetriesFailedMessageBeforeCommitting(t *testing.T) {
	fr := &fakeReader{queue: []kafka.Message{{Offset: 1}, {Offset: 2}, {Offset: 3}}}
	c := newConsumer(fr, 1, zap.NewNop())
	fastRetry(c)

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	calls := map[int64]int{}
	done := make(chan error, 1)
	go func() {
		done <- c.Start(ctx, func(ctx context.Context, m kafka.Message) error {
			mu.Lock()
			defer mu.Unlock()
			calls[m.Offset]++
			if m.Offset == 2 && calls[2] < 3 {
				return errors.New("redis timeout")
			}
			return nil
		})
	}()

	waitFor(t, "three commits", func() bool { return len(fr.commits()) == 3 })
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("start: %v", err)
	}
	got := fr.commits()
	if got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("want commits [1 2 3], got %v", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if calls[2] != 3 {
		t.Fatalf("offset 2 should be handled until it succeeds, got %d calls", calls[2])
	}
	if !fr.closed {
		t.Fatalf("reader should be closed")
	}
}

func TestConsumer_LaterOffsetWaitsForEarlierFailure(t *testing.T) {
	// with fnv32a over 4 workers, keys a, b and c land on workers 0, 1 and 2
	fr := &fakeReader{queue: []kafka.Message{
		{Offset: 1, Key: []byte("a")},
		{Offset: 2, Key: []byte("b")},
		{Offset: 3, Key: []byte("c")},
		{Offset: 4, Key: []byte("a")},
	}}
	c := newConsumer(fr, 4, zap.NewNop())
	fastRetry(c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var mu sync.Mutex
	healthy := false
	attempts := 0
	succeeded := map[int64]bool{}
	done := make(chan error, 1)
	go func() {
		done <- c.Start(ctx, func(ctx context.Context, m kafka.Message) error {
			mu.Lock()
			defer mu.Unlock()
			if m.Offset == 2 {
				attempts++
				if !healthy {
					return errors.New("redis down")
				}
			}
			succeeded[m.Offset] = true
			return nil
		})
	}()

	waitFor(t, "offset 2 retried while others finish", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return attempts >= 3 && succeeded[1] && succeeded[4]
	})
	for _, off := range fr.commits() {
		if off >= 2 {
			t.Fatalf("offset %d committed while offset 2 is still failing: %v", off, fr.commits())
		}
	}

	mu.Lock()
	healthy = true
	mu.Unlock()
	waitFor(t, "offset 4 committed", func() bool {
		got := fr.commits()
		return len(got) > 0 && got[len(got)-1] == 4
	})
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("start: %v", err)
	}
	got := fr.commits()
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("commits must advance, got %v", got)
		}
	}
}

func TestConsumer_SameKeyStaysOrdered(t *testing.T) {
	keys := []string{"ORD1", "ORD2", "ORD3", "ORD4"}
	var queue []kafka.Message
	for i := 0; i < 40; i++ {
		queue = append(queue, kafka.Message{Offset: int64(i), Key: []byte(keys[i%len(keys)])})
	}
	fr := &fakeReader{queue: queue}
	c := newConsumer(fr, 4, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	seen := map[string][]int64{}
	total := 0
	done := make(chan error, 1)
	go func() {
		done <- c.Start(ctx, func(ctx context.Context, m kafka.Message) error {
			// uneven work so a shared pool would reorder
			time.Sleep(time.Duration(m.Offset%3) * time.Millisecond)
			mu.Lock()
			defer mu.Unlock()
			seen[string(m.Key)] = append(seen[string(m.Key)], m.Offset)
			total++
			return nil
		})
	}()

	waitFor(t, "all messages handled", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return total == len(queue)
	})
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	for k, offs := range seen {
		for i := 1; i < len(offs); i++ {
			if offs[i] < offs[i-1] {
				t.Fatalf("key %s handled out of order: %v", k, offs)
			}
		}
	}
}

func TestWorkerFor_StableAndInRange(t *testing.T) {
	for _, k := range []string{"", "ORD1", "c2f0e7a4-8e4b-4a57-a1f4-6f1c2d9b8f00"} {
		w := workerFor([]byte(k), 4)
		if w < 0 || w >= 4 || w != workerFor([]byte(k), 4) {
			t.Fatalf("workerFor(%q) = %d", k, w)
		}
	}
	if workerFor([]byte("x"), 1) != 0 {
		t.Fatalf("single worker must get everything")
	}
}

func TestOffsetTracker_AdvancesOnContiguousPrefix(t *testing.T) {
	tr := newOffsetTracker()
	for _, off := range []int64{10, 11, 12} {
		tr.add(kafka.Message{Partition: 0, Offset: off})
	}
	tr.add(kafka.Message{Partition: 1, Offset: 5})

	if _, ok := tr.done(kafka.Message{Partition: 0, Offset: 11}); ok {
		t.Fatalf("11 finished before 10 must not advance")
	}
	if last, ok := tr.done(kafka.Message{Partition: 0, Offset: 10}); !ok || last.Offset != 11 {
		t.Fatalf("want prefix up to 11, got %v %v", last.Offset, ok)
	}
	if last, ok := tr.done(kafka.Message{Partition: 1, Offset: 5}); !ok || last.Offset != 5 {
		t.Fatalf("partitions are independent, got %v %v", last.Offset, ok)
	}
	if last, ok := tr.done(kafka.Message{Partition: 0, Offset: 12}); !ok || last.Offset != 12 {
		t.Fatalf("want 12, got %v %v", last.Offset, ok)
	}
}
