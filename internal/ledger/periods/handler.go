package periods

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/brightbooks-hq/brightbooks/internal/platform/httpx"
	"github.com/brightbooks-hq/brightbooks/internal/shared"
)

// CreateFinancialYearRequest is the JSON shape accepted by the HTTP handler.
type CreateFinancialYearRequest struct {
	Label     string `json:"label" validate:"required"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
}

type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.ListByYear)
	r.Post("/financial-years", h.CreateFinancialYear)
	r.Post("/{id}/close", h.Close)
}

func (h *Handler) ListByYear(w http.ResponseWriter, r *http.Request) {
	year := r.URL.Query().Get("financial_year")
	if year == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "financial_year query parameter required")
		return
	}
	list, err := h.service.ListByYear(r.Context(), year)
	if err != nil {
		h.logger.Error("list periods", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"periods": list})
}

func (h *Handler) CreateFinancialYear(w http.ResponseWriter, r *http.Request) {
	var req CreateFinancialYearRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid start_date")
		return
	}
	created, err := h.service.CreateFinancialYear(r.Context(), CreateFinancialYearInput{
		Label:     req.Label,
		StartDate: start,
		ActorID:   shared.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.logger.Error("create financial year", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"periods": created})
}

func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid period id")
		return
	}
	closed, err := h.service.Close(r.Context(), id, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Error("close period", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, closed)
}
