package reports

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"golang.org/x/sync/singleflight"

	"github.com/brightbooks-hq/brightbooks/internal/platform/httpx"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	rateLimit func(http.Handler) http.Handler
	builds    singleflight.Group
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		rateLimit: httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)),
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ledger/{accountID}", h.AccountLedger)
	r.With(h.rateLimit).Get("/trial-balance", h.TrialBalance)
}

func (h *Handler) AccountLedger(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid account id")
		return
	}
	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from query parameter must be YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "to query parameter must be YYYY-MM-DD")
		return
	}
	ledger, err := h.service.AccountLedger(r.Context(), accountID, from, to)
	if err != nil {
		h.logger.Error("account ledger", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewAccountLedgerVM(ledger))
}

func (h *Handler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	asOfParam := r.URL.Query().Get("as_of")
	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	if asOfParam != "" {
		parsed, err := time.Parse("2006-01-02", asOfParam)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "as_of query parameter must be YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	// Concurrent requests for the same date collapse onto one build.
	key := asOf.Format("2006-01-02")
	result, err := h.singleflightBuild(r.Context(), key, func(ctx context.Context) (interface{}, error) {
		return h.service.TrialBalance(ctx, asOf)
	})
	if err != nil {
		h.logger.Error("trial balance", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	tb, ok := result.(TrialBalance)
	if !ok {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "unexpected report payload")
		return
	}
	httpx.JSON(w, http.StatusOK, NewTrialBalanceVM(tb))
}

func (h *Handler) singleflightBuild(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	resultChan := h.builds.DoChan(key, func() (interface{}, error) {
		return fn(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		return res.Val, res.Err
	}
}
