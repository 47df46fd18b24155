package catalog

import (
	"context"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/apperr"
	kafkax "github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/kafka"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"strings"
	"time"
)

type Store interface {
	Insert(ctx context.Context, p Product) (Product, error)
	Update(ctx context.Context, id string, in ProductInput) (Product, error)
	Deactivate(ctx context.Context, id string) (time.Time, error)
	GetActive(ctx context.Context, id string) (Product, error)
	ListActive(ctx context.Context, f ProductFilter) ([]Product, error)
}

type Service struct {
	Store     Store
	Publisher kafkax.Publisher
	Log       *zap.Logger
	Name      string
}

func (s *Service) Create(ctx context.Context, in ProductInput) (Product, error) {
	in, err := validate(in)
	if err != nil {
		return Product{}, err
	}
	p, err := s.Store.Insert(ctx, Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		Stock:       in.Stock,
		ImageURL:    in.ImageURL,
		IsActive:    true,
	})
	if err != nil {
		return Product{}, apperr.Internal(err, "Failed to create product")
	}
	s.Log.Info("product created", zap.String("product_id", p.ID), zap.String("name", p.Name))
	return p, nil
}

func (s *Service) Update(ctx context.Context, id string, in ProductInput) (Product, error) {
	in, err := validate(in)
	if err != nil {
		return Product{}, err
	}
	p, err := s.Store.Update(ctx, strings.TrimSpace(id), in)
	if err != nil {
		return Product{}, apperr.Internal(err, "Failed to update product")
	}
	s.Log.Info("product updated", zap.String("product_id", p.ID))
	return p, nil
}

// Deactivate is the product delete. The row stays; a second call is NotFound.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrProductNotFound
	}
	at, err := s.Store.Deactivate(ctx, id)
	if err != nil {
		return apperr.Internal(err, "Failed to delete product")
	}
	s.Log.Info("product deactivated", zap.String("product_id", id))
	if s.Publisher != nil {
		env := kafkax.NewEnvelope(EventProductDeactivated, s.Name, id, "", ProductDeactivatedPayload{ProductID: id, At: at})
		kafkax.PublishEnvelope(s.Publisher, []byte(id), env)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	p, err := s.Store.GetActive(ctx, strings.TrimSpace(id))
	if err != nil {
		return Product{}, apperr.Internal(err, "Failed to fetch product")
	}
	return p, nil
}

func (s *Service) ListActive(ctx context.Context, f ProductFilter) ([]Product, error) {
	f.Category = strings.TrimSpace(f.Category)
	f.Search = strings.TrimSpace(f.Search)
	list, err := s.Store.ListActive(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err, "Failed to fetch products")
	}
	return list, nil
}

func validate(in ProductInput) (ProductInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	in.Description = strings.TrimSpace(in.Description)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	switch {
	case in.Name == "":
		return in, apperr.Validation("name is required")
	case in.Price.IsNegative():
		return in, apperr.Validation("price must not be negative")
	case in.Stock < 0:
		return in, apperr.Validation("stock must not be negative")
	}
	in.Price = in.Price.Round(2)
	return in, nil
}
