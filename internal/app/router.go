package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/selaras-pos/selaras-pos/internal/attendance"
	"github.com/selaras-pos/selaras-pos/internal/observability"
	"github.com/selaras-pos/selaras-pos/internal/payroll"
	"github.com/selaras-pos/selaras-pos/internal/stock"
	"github.com/selaras-pos/selaras-pos/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	Metrics           *observability.Metrics
	AttendanceHandler *attendance.Handler
	PayrollHandler    *payroll.Handler
	StockHandler      *stock.Handler
	ReportHandler     *report.Handler
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(params.Metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/attendance", params.AttendanceHandler.MountRoutes)
		r.Route("/payroll", params.PayrollHandler.MountRoutes)
		r.Route("/stock", params.StockHandler.MountRoutes)
		if params.ReportHandler != nil {
			r.Route("/reports", params.ReportHandler.MountRoutes)
		}
	})

	return r
}
