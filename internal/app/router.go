package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/brightbooks-hq/brightbooks/internal/ledger/accounts"
	"github.com/brightbooks-hq/brightbooks/internal/ledger/groups"
	"github.com/brightbooks-hq/brightbooks/internal/ledger/journal"
	"github.com/brightbooks-hq/brightbooks/internal/ledger/periods"
	"github.com/brightbooks-hq/brightbooks/internal/ledger/reports"
	"github.com/brightbooks-hq/brightbooks/internal/observability"
	"github.com/brightbooks-hq/brightbooks/internal/shared"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger          *slog.Logger
	Config          *Config
	GroupsHandler   *groups.Handler
	AccountsHandler *accounts.Handler
	PeriodsHandler  *periods.Handler
	JournalHandler  *journal.Handler
	ReportsHandler  *reports.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with BrightBooks defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(shared.ActorMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		if params.GroupsHandler != nil {
			api.Route("/account-groups", params.GroupsHandler.MountRoutes)
		}
		if params.AccountsHandler != nil {
			api.Route("/accounts", params.AccountsHandler.MountRoutes)
		}
		if params.PeriodsHandler != nil {
			api.Route("/periods", params.PeriodsHandler.MountRoutes)
		}
		if params.JournalHandler != nil {
			api.Route("/journal-entries", params.JournalHandler.MountRoutes)
		}
		if params.ReportsHandler != nil {
			api.Route("/reports", params.ReportsHandler.MountRoutes)
		}
	})

	return r
}
