package orders

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/redisx"
	"github.com/segmentio/kafka-go"
)

// memStore emulates the Postgres repo closely enough for service tests.
type memStore struct {
	mu       sync.Mutex
	orders   map[string]Order
	tracking []TrackingEntry
	nextID   int64
	writes   int
	clock    time.Time
	failNext error
}

func newMemStore(orders ...Order) *memStore {
	s := &memStore{orders: map[string]Order{}, clock: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

func (s *memStore) ApplyStatus(ctx context.Context, orderID string, status Status, description string) (Order, TrackingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return Order{}, TrackingEntry{}, err
	}
	o, ok := s.orders[orderID]
	if !ok {
		return Order{}, TrackingEntry{}, ErrOrderNotFound
	}
	// same instant as before, like two updates inside one clock tick
	ts := s.clock
	if !ts.After(o.UpdatedAt) {
		ts = o.UpdatedAt.Add(time.Microsecond)
	}
	o.Status = status
	o.UpdatedAt = ts
	s.orders[orderID] = o
	s.nextID++
	e := TrackingEntry{ID: s.nextID, OrderID: orderID, Status: status, Description: description, CreatedAt: ts}
	s.tracking = append(s.tracking, e)
	s.writes += 2
	return o, e, nil
}

func (s *memStore) AppendTracking(ctx context.Context, orderID string, status Status, description string) (TrackingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[orderID]; !ok {
		return TrackingEntry{}, ErrOrderNotFound
	}
	s.nextID++
	e := TrackingEntry{ID: s.nextID, OrderID: orderID, Status: status, Description: description, CreatedAt: s.clock}
	s.tracking = append(s.tracking, e)
	s.writes++
	return e, nil
}

func (s *memStore) FindTrackedOrder(ctx context.Context, orderID, userID string) (TrackedOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || (userID != "" && o.UserID != userID) {
		return TrackedOrder{}, ErrOrderNotFound
	}
	return TrackedOrder{ID: o.ID, Status: o.Status, TotalAmount: o.TotalAmount, CreatedAt: o.CreatedAt,
		CustomerName: o.CustomerName, CustomerPhone: o.CustomerPhone}, nil
}

// History returns entries in insertion order; sorting is the service's job.
func (s *memStore) History(ctx context.Context, orderID string) ([]TrackingEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []TrackingEntry
	for _, e := range s.tracking {
		if e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) OrderStatus(ctx context.Context, orderID, userID string) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || (userID != "" && o.UserID != userID) {
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (s *memStore) List(ctx context.Context, q ListQuery) (OrderPage, error) {
	return OrderPage{Page: q.Page, Limit: q.Limit}, nil
}

func (s *memStore) Get(ctx context.Context, orderID string) (Order, error) {
	return s.OrderStatus(ctx, orderID, "")
}

func (s *memStore) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return nil, errors.New("not used")
}

type memCache struct {
	mu      sync.Mutex
	entries map[string]redisx.CachedStatus
	sets    int
	fail    error
}

func newMemCache() *memCache { return &memCache{entries: map[string]redisx.CachedStatus{}} }

func (c *memCache) SetStatus(ctx context.Context, s redisx.CachedStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return c.fail
	}
	c.entries[s.OrderID] = s
	c.sets++
	return nil
}

func (c *memCache) GetStatus(ctx context.Context, orderID string) (redisx.CachedStatus, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail != nil {
		return redisx.CachedStatus{}, false, c.fail
	}
	s, ok := c.entries[orderID]
	return s, ok, nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (p *recordingPublisher) Publish(key, value []byte, headers ...kafka.Header) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, kafka.Message{Key: key, Value: value, Headers: headers})
}
