package orders

import (
	"context"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/apperr"
	kafkax "github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/kafka"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/metrics"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/redisx"
	"go.uber.org/zap"
	"net/mail"
	"strings"
)

type PlacementStore interface {
	PlaceOrderTx(ctx context.Context, userID string, in PlaceOrderInput) (Order, error)
}

type Checkout struct {
	Store     PlacementStore
	Cache     StatusCache
	Publisher kafkax.Publisher
	Metrics   *metrics.Registry
	Log       *zap.Logger
	Service   string
}

func (c *Checkout) Place(ctx context.Context, userID string, in PlaceOrderInput) (Order, error) {
	if strings.TrimSpace(userID) == "" {
		return Order{}, apperr.Unauthorized("Authentication required")
	}
	in, err := normalizePlacement(in)
	if err != nil {
		return Order{}, err
	}
	o, err := c.Store.PlaceOrderTx(ctx, userID, in)
	if err != nil {
		return Order{}, apperr.Internal(err, "Failed to place order")
	}
	c.Metrics.ObserveOrderPlaced()
	c.Log.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("user_id", userID),
		zap.String("total_amount", o.TotalAmount.StringFixed(2)))

	if c.Cache != nil {
		if err := c.Cache.SetStatus(ctx, cachedFrom(o)); err != nil {
			c.Log.Warn("status cache fill failed", zap.String("order_id", o.ID), zap.Error(err))
		}
	}
	if c.Publisher != nil {
		env := kafkax.NewEnvelope(EventOrderPlaced, c.Service, o.ID, traceID(ctx), OrderPlacedPayload{
			OrderID:     o.ID,
			UserID:      o.UserID,
			Items:       in.Items,
			TotalAmount: o.TotalAmount,
		})
		kafkax.PublishEnvelope(c.Publisher, PartitionKey(o.ID), env)
	}
	return o, nil
}

// normalizePlacement trims customer fields and merges repeated products.
func normalizePlacement(in PlaceOrderInput) (PlaceOrderInput, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	if in.CustomerName == "" {
		return in, apperr.Validation("customer_name is required")
	}
	if _, err := mail.ParseAddress(in.CustomerEmail); err != nil {
		return in, apperr.Validation("customer_email is invalid")
	}
	if len(in.Items) == 0 {
		return in, apperr.Validation("order must contain at least one item")
	}

	merged := make([]ItemInput, 0, len(in.Items))
	pos := map[string]int{}
	for _, it := range in.Items {
		it.ProductID = strings.TrimSpace(it.ProductID)
		if it.ProductID == "" {
			return in, apperr.Validation("product_id is required")
		}
		if it.Quantity <= 0 {
			return in, apperr.Validation("quantity must be greater than zero")
		}
		if i, ok := pos[it.ProductID]; ok {
			merged[i].Quantity += it.Quantity
			continue
		}
		pos[it.ProductID] = len(merged)
		merged = append(merged, it)
	}
	in.Items = merged
	return in, nil
}

func cachedFrom(o Order) redisx.CachedStatus {
	return redisx.CachedStatus{OrderID: o.ID, UserID: o.UserID, Status: string(o.Status), UpdatedAt: o.UpdatedAt}
}
