package journal

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/brightbooks-hq/brightbooks/internal/platform/httpx"
	"github.com/brightbooks-hq/brightbooks/internal/shared"
)

// LineRequest is the JSON shape of one journal line.
type LineRequest struct {
	AccountID    int64  `json:"account_id" validate:"required"`
	Debit        string `json:"debit,omitempty"`
	Credit       string `json:"credit,omitempty"`
	Currency     string `json:"currency,omitempty"`
	ExchangeRate string `json:"exchange_rate,omitempty"`
	Narration    string `json:"narration,omitempty"`
	CostCenter   string `json:"cost_center,omitempty"`
}

// CreateEntryRequest is the JSON shape accepted by the HTTP handler.
type CreateEntryRequest struct {
	EntryDate       string        `json:"entry_date" validate:"required,datetime=2006-01-02"`
	Lines           []LineRequest `json:"lines" validate:"required,min=2,dive"`
	ReferenceType   string        `json:"reference_type,omitempty"`
	ReferenceID     *string       `json:"reference_id,omitempty" validate:"omitempty,uuid"`
	ReferenceNumber string        `json:"reference_number,omitempty"`
	Narration       string        `json:"narration,omitempty"`
	AutoPost        bool          `json:"auto_post,omitempty"`
}

// ReverseEntryRequest is the JSON shape for reversal requests.
type ReverseEntryRequest struct {
	ReversalDate string `json:"reversal_date" validate:"required,datetime=2006-01-02"`
	Narration    string `json:"narration,omitempty"`
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
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/post", h.Post)
	r.Post("/{id}/reverse", h.Reverse)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.service.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("list journal entries", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid entry id")
		return
	}
	entry, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input, err := h.toInput(req, shared.ActorFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := h.service.CreateEntry(r.Context(), input)
	if err != nil {
		h.logger.Error("create journal entry", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid entry id")
		return
	}
	entry, err := h.service.PostEntry(r.Context(), id, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Error("post journal entry", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) Reverse(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid entry id")
		return
	}
	var req ReverseEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	reversalDate, err := time.Parse("2006-01-02", req.ReversalDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid reversal_date")
		return
	}
	reversal, err := h.service.ReverseEntry(r.Context(), ReverseInput{
		EntryID:      id,
		ReversalDate: reversalDate,
		ActorID:      shared.ActorFromContext(r.Context()),
		Narration:    req.Narration,
	})
	if err != nil {
		h.logger.Error("reverse journal entry", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, reversal)
}

func (h *Handler) toInput(req CreateEntryRequest, actorID int64) (CreateEntryInput, error) {
	entryDate, err := time.Parse("2006-01-02", req.EntryDate)
	if err != nil {
		return CreateEntryInput{}, ledgerValidation("invalid entry_date")
	}
	referenceType := req.ReferenceType
	if referenceType == "" {
		referenceType = ReferenceManual
	}
	input := CreateEntryInput{
		EntryDate:       entryDate,
		CreatedBy:       actorID,
		ReferenceType:   referenceType,
		ReferenceNumber: req.ReferenceNumber,
		Narration:       req.Narration,
		AutoPost:        req.AutoPost,
	}
	if req.ReferenceID != nil {
		refID, err := uuid.Parse(*req.ReferenceID)
		if err != nil {
			return CreateEntryInput{}, ledgerValidation("invalid reference_id")
		}
		input.ReferenceID = &refID
	}
	for _, line := range req.Lines {
		parsed := LineInput{
			AccountID:  line.AccountID,
			Currency:   line.Currency,
			Narration:  line.Narration,
			CostCenter: line.CostCenter,
		}
		if parsed.Debit, err = parseAmount(line.Debit); err != nil {
			return CreateEntryInput{}, err
		}
		if parsed.Credit, err = parseAmount(line.Credit); err != nil {
			return CreateEntryInput{}, err
		}
		if parsed.ExchangeRate, err = parseAmount(line.ExchangeRate); err != nil {
			return CreateEntryInput{}, err
		}
		input.Lines = append(input.Lines, parsed)
	}
	return input, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, ledgerValidation("invalid amount " + raw)
	}
	return amount, nil
}
