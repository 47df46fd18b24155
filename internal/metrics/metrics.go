package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
	"strconv"
	"time"
)

// Registry methods are nil-safe so components can run without metrics.
type Registry struct {
	reg               *prometheus.Registry
	StatusTransitions *prometheus.CounterVec
	TrackingAppended  prometheus.Counter
	OrdersPlaced      prometheus.Counter
	DashboardSec      prometheus.Histogram
	HTTPRequests      *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_order_status_transitions_total",
		Help: "Order status changes committed, by target status.",
	}, []string{"status"})
	appended := prometheus.NewCounter(prometheus.CounterOpts{Name: "shop_tracking_manual_appends_total"})
	placed := prometheus.NewCounter(prometheus.CounterOpts{Name: "shop_orders_placed_total"})
	dashboard := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "shop_dashboard_aggregation_seconds",
		Buckets: prometheus.DefBuckets,
	})
	httpReq := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "shop_http_requests_total"}, []string{"code"})

	r.MustRegister(transitions, appended, placed, dashboard, httpReq)
	return &Registry{
		reg:               r,
		StatusTransitions: transitions,
		TrackingAppended:  appended,
		OrdersPlaced:      placed,
		DashboardSec:      dashboard,
		HTTPRequests:      httpReq,
	}
}

func (r *Registry) ObserveTransition(status string) {
	if r == nil {
		return
	}
	r.StatusTransitions.WithLabelValues(status).Inc()
}

func (r *Registry) ObserveTrackingAppend() {
	if r == nil {
		return
	}
	r.TrackingAppended.Inc()
}

func (r *Registry) ObserveOrderPlaced() {
	if r == nil {
		return
	}
	r.OrdersPlaced.Inc()
}

func (r *Registry) ObserveDashboard(d time.Duration) {
	if r == nil {
		return
	}
	r.DashboardSec.Observe(d.Seconds())
}

func (r *Registry) ObserveHTTP(code int) {
	if r == nil {
		return
	}
	r.HTTPRequests.WithLabelValues(strconv.Itoa(code)).Inc()
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
