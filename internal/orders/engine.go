package orders

import (
	"context"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/apperr"
	kafkax "github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/kafka"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/metrics"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/redisx"
	"go.uber.org/zap"
	"strings"
)

type StatusStore interface {
	ApplyStatus(ctx context.Context, orderID string, status Status, description string) (Order, TrackingEntry, error)
	AppendTracking(ctx context.Context, orderID string, status Status, description string) (TrackingEntry, error)
}

// StatusCache.SetStatus must not replace an entry holding a later UpdatedAt,
// so racing status changes cannot leave an older status cached.
type StatusCache interface {
	SetStatus(ctx context.Context, s redisx.CachedStatus) error
	GetStatus(ctx context.Context, orderID string) (redisx.CachedStatus, bool, error)
}

// StatusEngine turns a status change into an order update plus one tracking entry.
// Cache, Publisher and Metrics are optional.
type StatusEngine struct {
	Store     StatusStore
	Cache     StatusCache
	Publisher kafkax.Publisher
	Metrics   *metrics.Registry
	Log       *zap.Logger
	Service   string
}

func (e *StatusEngine) UpdateStatus(ctx context.Context, orderID, status string) (Order, TrackingEntry, error) {
	orderID = strings.TrimSpace(orderID)
	s := Status(strings.TrimSpace(status))
	if orderID == "" {
		return Order{}, TrackingEntry{}, apperr.Validation("order id is required")
	}
	if s == "" {
		return Order{}, TrackingEntry{}, apperr.Validation("status is required")
	}
	desc := Describe(s)

	o, entry, err := e.Store.ApplyStatus(ctx, orderID, s, desc)
	if err != nil {
		return Order{}, TrackingEntry{}, apperr.Internal(err, "Failed to update order status")
	}
	e.Metrics.ObserveTransition(s.metricLabel())
	e.Log.Info("order status updated",
		zap.String("order_id", o.ID),
		zap.String("status", string(s)),
		zap.Time("updated_at", o.UpdatedAt))

	if e.Cache != nil {
		if err := e.Cache.SetStatus(ctx, cachedFrom(o)); err != nil {
			e.Log.Warn("status cache refresh failed", zap.String("order_id", o.ID), zap.Error(err))
		}
	}
	if e.Publisher != nil {
		env := kafkax.NewEnvelope(EventOrderStatusChanged, e.Service, o.ID, traceID(ctx), OrderStatusChangedPayload{
			OrderID:     o.ID,
			UserID:      o.UserID,
			Status:      o.Status,
			Description: desc,
			UpdatedAt:   o.UpdatedAt,
		})
		kafkax.PublishEnvelope(e.Publisher, PartitionKey(o.ID), env)
	}
	return o, entry, nil
}

// AppendTracking records a manual entry. No description lookup and the order status is left alone.
func (e *StatusEngine) AppendTracking(ctx context.Context, orderID, status, description string) (TrackingEntry, error) {
	orderID = strings.TrimSpace(orderID)
	s := Status(strings.TrimSpace(status))
	description = strings.TrimSpace(description)
	if orderID == "" || s == "" || description == "" {
		return TrackingEntry{}, apperr.Validation("status and description are required")
	}
	entry, err := e.Store.AppendTracking(ctx, orderID, s, description)
	if err != nil {
		return TrackingEntry{}, apperr.Internal(err, "Failed to add tracking entry")
	}
	e.Metrics.ObserveTrackingAppend()
	e.Log.Info("tracking entry appended", zap.String("order_id", orderID), zap.String("status", string(s)))
	return entry, nil
}
