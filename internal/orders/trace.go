package orders

import (
	"context"
	"github.com/go-chi/chi/v5/middleware"
)

// traceID reuses the chi request id so events can be joined to access logs.
func traceID(ctx context.Context) string {
	return middleware.GetReqID(ctx)
}
