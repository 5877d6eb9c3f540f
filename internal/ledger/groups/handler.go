package groups

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/brightbooks-hq/brightbooks/internal/ledger/accounts"
	"github.com/brightbooks-hq/brightbooks/internal/platform/httpx"
	"github.com/brightbooks-hq/brightbooks/internal/shared"
)

// CreateGroupRequest is the JSON shape accepted by the HTTP handler.
type CreateGroupRequest struct {
	Name     string `json:"name" validate:"required"`
	Code     string `json:"code" validate:"required"`
	Type     string `json:"type" validate:"required,oneof=ASSET LIABILITY EQUITY INCOME EXPENSE"`
	ParentID *int64 `json:"parent_id,omitempty"`
	Sequence int    `json:"sequence,omitempty"`
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
	r.Get("/tree", h.Tree)
	r.Post("/", h.Create)
}

func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.service.Tree(r.Context())
	if err != nil {
		h.logger.Error("build coa tree", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"groups": tree})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	group, err := h.service.Create(r.Context(), CreateGroupInput{
		Name:     req.Name,
		Code:     req.Code,
		Type:     accounts.AccountType(req.Type),
		ParentID: req.ParentID,
		Sequence: req.Sequence,
		ActorID:  shared.ActorFromContext(r.Context()),
	})
	if err != nil {
		h.logger.Error("create account group", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, group)
}
