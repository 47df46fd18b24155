package projector

import (
	"context"
	"encoding/json"
	"fmt"
	kafkax "github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/kafka"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/orders"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/redisx"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Deduper interface {
	First(ctx context.Context, id string) (bool, error)
	Forget(ctx context.Context, id string) error
}

// StatusWriter must refuse to replace a cached status with an older one.
// redisx.StatusCache does this atomically in Redis.
type StatusWriter interface {
	SetStatus(ctx context.Context, s redisx.CachedStatus) error
}

// Service projects order.status.changed events into the Redis status cache
// so customer status reads stay warm even when the API's own refresh failed.
type Service struct {
	Dedup Deduper
	Cache StatusWriter
	Log   *zap.Logger
}

// HandleStatusChanged is installed as the consumer handler.
func (s *Service) HandleStatusChanged(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.DecodeEnvelope(m.Value)
	if err != nil {
		// poison message, commit and move on
		s.Log.Warn("undecodable envelope", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if env.EventType != orders.EventOrderStatusChanged {
		return nil
	}

	first, err := s.Dedup.First(ctx, env.EventID)
	if err != nil {
		return fmt.Errorf("dedup %s: %w", env.EventID, err)
	}
	if !first {
		return nil
	}

	if err := s.project(ctx, env.Payload); err != nil {
		if ferr := s.Dedup.Forget(ctx, env.EventID); ferr != nil {
			s.Log.Warn("dedup forget failed", zap.String("event_id", env.EventID), zap.Error(ferr))
		}
		return err
	}
	return nil
}

func (s *Service) project(ctx context.Context, raw json.RawMessage) error {
	p, err := kafkax.UnwrapPayload[orders.OrderStatusChangedPayload](raw)
	if err != nil {
		s.Log.Warn("undecodable payload", zap.Error(err))
		return nil
	}
	if p.OrderID == "" {
		return nil
	}

	err = s.Cache.SetStatus(ctx, redisx.CachedStatus{
		OrderID:   p.OrderID,
		UserID:    p.UserID,
		Status:    string(p.Status),
		UpdatedAt: p.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("write cached status: %w", err)
	}
	s.Log.Debug("status projected", zap.String("order_id", p.OrderID), zap.String("status", string(p.Status)))
	return nil
}
