package orders

import (
	"context"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/apperr"
	"go.uber.org/zap"
	"strings"
)

type QueryStore interface {
	List(ctx context.Context, q ListQuery) (OrderPage, error)
	Get(ctx context.Context, orderID string) (Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	OrderStatus(ctx context.Context, orderID, userID string) (Order, error)
}

// Queries serves the read side: admin listing, customer order history, status reads.
type Queries struct {
	Store QueryStore
	Cache StatusCache
	Log   *zap.Logger
}

func (q *Queries) List(ctx context.Context, lq ListQuery) (OrderPage, error) {
	page, err := q.Store.List(ctx, lq.Normalize())
	if err != nil {
		return OrderPage{}, apperr.Internal(err, "Failed to fetch orders")
	}
	return page, nil
}

func (q *Queries) Get(ctx context.Context, orderID string) (Order, error) {
	o, err := q.Store.Get(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return Order{}, apperr.Internal(err, "Failed to fetch order")
	}
	return o, nil
}

func (q *Queries) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	list, err := q.Store.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch orders")
	}
	return list, nil
}

// CustomerStatus reads the cache first. A cached entry owned by a different user
// is treated like a miss so the owner check always happens against the database.
func (q *Queries) CustomerStatus(ctx context.Context, orderID, userID string) (StatusSnapshot, error) {
	orderID = strings.TrimSpace(orderID)
	if q.Cache != nil {
		cs, ok, err := q.Cache.GetStatus(ctx, orderID)
		if err != nil {
			q.Log.Warn("status cache read failed", zap.String("order_id", orderID), zap.Error(err))
		}
		if ok && cs.UserID == userID {
			return StatusSnapshot{OrderID: cs.OrderID, Status: Status(cs.Status), UpdatedAt: cs.UpdatedAt, Cached: true}, nil
		}
	}
	o, err := q.Store.OrderStatus(ctx, orderID, userID)
	if err != nil {
		return StatusSnapshot{}, apperr.Internal(err, "Failed to fetch order status")
	}
	if q.Cache != nil {
		if err := q.Cache.SetStatus(ctx, cachedFrom(o)); err != nil {
			q.Log.Warn("status cache fill failed", zap.String("order_id", orderID), zap.Error(err))
		}
	}
	return StatusSnapshot{OrderID: o.ID, Status: o.Status, UpdatedAt: o.UpdatedAt}, nil
}
