package dashboard

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/apperr"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type fixtureOrder struct {
	id     string
	status string
	total  string
	at     time.Time
}

// fixtureSource answers from an in-memory order set the way PGSource answers from SQL.
type fixtureSource struct {
	products int
	orders   []fixtureOrder
	fail     string

	// barrier, when set, holds every call until all five have started
	barrier *sync.WaitGroup
}

func (f *fixtureSource) enter(ctx context.Context, name string) error {
	if f.barrier != nil {
		f.barrier.Done()
		done := make(chan struct{})
		go func() { f.barrier.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			return errors.New("reads did not run concurrently")
		}
	}
	if f.fail == name {
		return errors.New(name + ": connection reset")
	}
	return ctx.Err()
}

func (f *fixtureSource) CountActiveProducts(ctx context.Context) (int, error) {
	if err := f.enter(ctx, "products"); err != nil {
		return 0, err
	}
	return f.products, nil
}

func (f *fixtureSource) CountOrders(ctx context.Context) (int, error) {
	if err := f.enter(ctx, "orders"); err != nil {
		return 0, err
	}
	return len(f.orders), nil
}

func (f *fixtureSource) BillableAmounts(ctx context.Context) ([]decimal.Decimal, error) {
	if err := f.enter(ctx, "amounts"); err != nil {
		return nil, err
	}
	var out []decimal.Decimal
	for _, o := range f.orders {
		if o.status != "Cancelled" {
			out = append(out, decimal.RequireFromString(o.total))
		}
	}
	return out, nil
}

func (f *fixtureSource) CountOrdersWithStatus(ctx context.Context, status string) (int, error) {
	if err := f.enter(ctx, "pending"); err != nil {
		return 0, err
	}
	n := 0
	for _, o := range f.orders {
		if o.status == status {
			n++
		}
	}
	return n, nil
}

func (f *fixtureSource) RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error) {
	if err := f.enter(ctx, "recent"); err != nil {
		return nil, err
	}
	sorted := append([]fixtureOrder(nil), f.orders...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].at.After(sorted[j].at) })
	var out []RecentOrder
	for i, o := range sorted {
		if i == limit {
			break
		}
		out = append(out, RecentOrder{ID: o.id, Status: o.status, TotalAmount: decimal.RequireFromString(o.total), CreatedAt: o.at})
	}
	return out, nil
}

func newAggregator(src Source) *Aggregator {
	return &Aggregator{Source: src, Metrics: metrics.NewRegistry(), Log: zap.NewNop()}
}

func TestStats_EmptyStore(t *testing.T) {
	st, err := newAggregator(&fixtureSource{}).Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !st.TotalRevenue.IsZero() || st.PendingOrders != 0 || st.TotalOrders != 0 {
		t.Fatalf("unexpected stats: %+v", st)
	}
	if st.RecentOrders == nil || len(st.RecentOrders) != 0 {
		t.Fatalf("recent orders must be an empty list, got %#v", st.RecentOrders)
	}
}

func TestStats_RevenueExcludesCancelled(t *testing.T) {
	t0 := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	src := &fixtureSource{products: 4, orders: []fixtureOrder{
		{"o1", "Processing", "10.10", t0},
		{"o2", "Cancelled", "999.99", t0.Add(time.Minute)},
		{"o3", "Delivered", "20.20", t0.Add(2 * time.Minute)},
		{"o4", "Processing", "0.05", t0.Add(3 * time.Minute)},
		{"o5", "Shipped", "5.00", t0.Add(4 * time.Minute)},
		{"o6", "Cancelled", "1.00", t0.Add(5 * time.Minute)},
		{"o7", "Confirmed", "4.65", t0.Add(6 * time.Minute)},
	}}
	st, err := newAggregator(src).Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if got := st.TotalRevenue.StringFixed(2); got != "40.00" {
		t.Fatalf("revenue: want 40.00 got %s", got)
	}
	if st.TotalProducts != 4 || st.TotalOrders != 7 || st.PendingOrders != 2 {
		t.Fatalf("unexpected counts: %+v", st)
	}
	if len(st.RecentOrders) != RecentLimit || st.RecentOrders[0].ID != "o7" || st.RecentOrders[4].ID != "o3" {
		t.Fatalf("unexpected recent orders: %+v", st.RecentOrders)
	}
}

func TestStats_ReadsRunConcurrently(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(5)
	if _, err := newAggregator(&fixtureSource{barrier: &wg}).Stats(context.Background()); err != nil {
		t.Fatalf("stats: %v", err)
	}
}

func TestStats_AnyFailureAbortsWhole(t *testing.T) {
	for _, name := range []string{"products", "orders", "amounts", "pending", "recent"} {
		src := &fixtureSource{products: 3, fail: name, orders: []fixtureOrder{{"o1", "Processing", "1.00", time.Now()}}}
		st, err := newAggregator(src).Stats(context.Background())
		if apperr.KindOf(err) != apperr.KindInternal {
			t.Fatalf("%s: want internal, got %v", name, err)
		}
		if st.TotalProducts != 0 || st.RecentOrders != nil {
			t.Fatalf("%s: partial result leaked: %+v", name, st)
		}
	}
}

func TestRevenue(t *testing.T) {
	if !Revenue(nil).IsZero() {
		t.Fatalf("nil amounts should sum to zero")
	}
	got := Revenue([]decimal.Decimal{decimal.RequireFromString("0.1"), decimal.RequireFromString("0.2")})
	if !got.Equal(decimal.RequireFromString("0.3")) {
		t.Fatalf("decimal sum drifted: %s", got)
	}
}
