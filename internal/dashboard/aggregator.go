// Package dashboard builds the admin summary from five independent reads.
package dashboard

import (
	"context"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/apperr"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"time"
)

const RecentLimit = 5

type RecentOrder struct {
	ID           string          `json:"id"`
	CustomerName string          `json:"customer_name"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

type Stats struct {
	TotalProducts int             `json:"totalProducts"`
	TotalOrders   int             `json:"totalOrders"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	PendingOrders int             `json:"pendingOrders"`
	RecentOrders  []RecentOrder   `json:"recentOrders"`
}

// Source is the Record Store side of the aggregation. Each call is one query.
type Source interface {
	CountActiveProducts(ctx context.Context) (int, error)
	CountOrders(ctx context.Context) (int, error)
	BillableAmounts(ctx context.Context) ([]decimal.Decimal, error)
	CountOrdersWithStatus(ctx context.Context, status string) (int, error)
	RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error)
}

type Aggregator struct {
	Source  Source
	Metrics *metrics.Registry
	Log     *zap.Logger
}

// Stats waits for all five reads. The first failure cancels the rest and no
// partial snapshot is returned.
func (a *Aggregator) Stats(ctx context.Context) (Stats, error) {
	start := time.Now()
	defer func() { a.Metrics.ObserveDashboard(time.Since(start)) }()

	var (
		st      Stats
		amounts []decimal.Decimal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		st.TotalProducts, err = a.Source.CountActiveProducts(gctx)
		return err
	})
	g.Go(func() (err error) {
		st.TotalOrders, err = a.Source.CountOrders(gctx)
		return err
	})
	g.Go(func() (err error) {
		amounts, err = a.Source.BillableAmounts(gctx)
		return err
	})
	g.Go(func() (err error) {
		st.PendingOrders, err = a.Source.CountOrdersWithStatus(gctx, "Processing")
		return err
	})
	g.Go(func() (err error) {
		st.RecentOrders, err = a.Source.RecentOrders(gctx, RecentLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		a.Log.Error("dashboard aggregation failed", zap.Error(err))
		return Stats{}, apperr.Internal(err, "Failed to fetch dashboard stats")
	}

	st.TotalRevenue = Revenue(amounts)
	if st.RecentOrders == nil {
		st.RecentOrders = []RecentOrder{}
	}
	return st, nil
}

// Revenue folds non-cancelled order totals. Empty input sums to zero.
func Revenue(amounts []decimal.Decimal) decimal.Decimal {
	return decimal.Sum(decimal.Zero, amounts...)
}
