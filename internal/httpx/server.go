package httpx

import (
	"context"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/auth"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/catalog"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/dashboard"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/metrics"
	"github.com/AFUBWAJNR/Bidhaaline-ecommerce/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"net/http"
	"time"
)

type OrderReader interface {
	List(ctx context.Context, q orders.ListQuery) (orders.OrderPage, error)
	Get(ctx context.Context, orderID string) (orders.Order, error)
	ListByUser(ctx context.Context, userID string) ([]orders.Order, error)
	CustomerStatus(ctx context.Context, orderID, userID string) (orders.StatusSnapshot, error)
}

type StatusUpdater interface {
	UpdateStatus(ctx context.Context, orderID, status string) (orders.Order, orders.TrackingEntry, error)
	AppendTracking(ctx context.Context, orderID, status, description string) (orders.TrackingEntry, error)
}

type OrderPlacer interface {
	Place(ctx context.Context, userID string, in orders.PlaceOrderInput) (orders.Order, error)
}

type TrackingReader interface {
	AdminLookup(ctx context.Context, orderID string) (orders.TrackingView, error)
	CustomerLookup(ctx context.Context, orderID, userID string) (orders.TrackingView, error)
}

type ProductService interface {
	Create(ctx context.Context, in catalog.ProductInput) (catalog.Product, error)
	Update(ctx context.Context, id string, in catalog.ProductInput) (catalog.Product, error)
	Deactivate(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (catalog.Product, error)
	ListActive(ctx context.Context, f catalog.ProductFilter) ([]catalog.Product, error)
}

type StatsProvider interface {
	Stats(ctx context.Context) (dashboard.Stats, error)
}

type Deps struct {
	Orders   OrderReader
	Engine   StatusUpdater
	Checkout OrderPlacer
	Tracking TrackingReader
	Products ProductService
	Stats    StatsProvider
	Auth     auth.Authenticator
	Metrics  *metrics.Registry
	Log      *zap.Logger

	Service           string
	PaymentConfigured bool
	Timeout           time.Duration
}

type handlers struct {
	Deps
	started time.Time
}

func NewRouter(d Deps) *chi.Mux {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Timeout <= 0 {
		d.Timeout = 15 * time.Second
	}
	h := &handlers{Deps: d, started: time.Now()}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger(d.Log, d.Metrics), middleware.Recoverer)
	r.Use(middleware.Timeout(d.Timeout))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope{Status: "error", Message: "Route not found"})
	})

	r.Get("/api/health", h.health)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	r.Get("/api/products", h.listProducts)
	r.Get("/api/products/{id}", h.getProduct)

	r.Group(func(r chi.Router) {
		r.Use(RequireUser(d.Auth, d.Log))
		r.Post("/api/orders", h.placeOrder)
		r.Get("/api/orders", h.myOrders)
		r.Get("/api/orders/{id}/status", h.myOrderStatus)
		r.Get("/api/tracking/user/{orderId}", h.customerTracking)
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireUser(d.Auth, d.Log), RequireAdmin(d.Log))
		r.Get("/api/tracking/{orderId}", h.adminTracking)
		r.Post("/api/tracking/{orderId}", h.appendTracking)

		r.Route("/api/admin", func(r chi.Router) {
			r.Get("/dashboard", h.dashboard)
			r.Get("/orders", h.listOrders)
			r.Get("/orders/{id}", h.getOrder)
			r.Patch("/orders/{id}/status", h.updateStatus)
			r.Post("/products", h.createProduct)
			r.Put("/products/{id}", h.updateProduct)
			r.Delete("/products/{id}", h.deleteProduct)
		})
	})
	return r
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	success(w, http.StatusOK, map[string]any{
		"service":            h.Service,
		"uptime":             time.Since(h.started).Seconds(),
		"payment_configured": h.PaymentConfigured,
	})
}

func (h *handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	st, err := h.Stats.Stats(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	success(w, http.StatusOK, st)
}
