package catalog

import (
	"github.com/shopspring/decimal"
	"time"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"image_url"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"image_url"`
}

type ProductFilter struct {
	Category string
	Search   string
}

const (
	TopicProductDeactivated = "product.deactivated"
	EventProductDeactivated = "ProductDeactivated"
)

type ProductDeactivatedPayload struct {
	ProductID string    `json:"product_id"`
	At        time.Time `json:"at"`
}
