package orders

import (
	"context"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/apperr"
	"sort"
	"strings"
)

type TrackingStore interface {
	FindTrackedOrder(ctx context.Context, orderID, userID string) (TrackedOrder, error)
	History(ctx context.Context, orderID string) ([]TrackingEntry, error)
}

type TrackingService struct {
	Store TrackingStore
}

func (s *TrackingService) AdminLookup(ctx context.Context, orderID string) (TrackingView, error) {
	return s.lookup(ctx, orderID, "")
}

// CustomerLookup answers NotFound for orders owned by someone else, same as for
// orders that do not exist.
func (s *TrackingService) CustomerLookup(ctx context.Context, orderID, userID string) (TrackingView, error) {
	if strings.TrimSpace(userID) == "" {
		return TrackingView{}, apperr.Unauthorized("Authentication required")
	}
	return s.lookup(ctx, orderID, userID)
}

func (s *TrackingService) lookup(ctx context.Context, orderID, userID string) (TrackingView, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return TrackingView{}, ErrOrderNotFound
	}
	o, err := s.Store.FindTrackedOrder(ctx, orderID, userID)
	if err != nil {
		return TrackingView{}, apperr.Internal(err, "Failed to load order")
	}
	history, err := s.Store.History(ctx, orderID)
	if err != nil {
		return TrackingView{}, apperr.Internal(err, "Failed to load tracking history")
	}
	if history == nil {
		history = []TrackingEntry{}
	}
	sortHistory(history)
	return TrackingView{Order: o, Tracking: history}, nil
}

func sortHistory(h []TrackingEntry) {
	sort.SliceStable(h, func(i, j int) bool {
		if !h[i].CreatedAt.Equal(h[j].CreatedAt) {
			return h[i].CreatedAt.Before(h[j].CreatedAt)
		}
		return h[i].ID < h[j].ID
	})
}
