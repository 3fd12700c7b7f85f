package handler

import (
	"net/http"
	"time"

	"github.com/campuspoints/platform/internal/domain"
	"github.com/campuspoints/platform/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PromotionHandler exposes promotion listing and manager-side creation.
type PromotionHandler struct {
	promotions repository.PromotionRepository
	db         repository.DBTX
}

// NewPromotionHandler creates a new PromotionHandler.
func NewPromotionHandler(promotions repository.PromotionRepository, db repository.DBTX) *PromotionHandler {
	return &PromotionHandler{promotions: promotions, db: db}
}

// List handles GET /promotions: every promotion whose window covers
// now, both kinds.
func (h *PromotionHandler) List(w http.ResponseWriter, r *http.Request) {
	promos, err := h.promotions.ListActive(r.Context(), h.db, time.Now())
	if err != nil {
		RespondError(w, domain.ErrInternal("list promotions", err))
		return
	}
	if promos == nil {
		promos = []domain.Promotion{}
	}
	RespondJSON(w, http.StatusOK, promos)
}

// Get handles GET /promotions/{promotionID}.
func (h *PromotionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "promotionID"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid promotion id"))
		return
	}

	promo, err := h.promotions.FindByID(r.Context(), h.db, id)
	if err != nil {
		RespondError(w, domain.ErrInternal("find promotion", err))
		return
	}
	if promo == nil {
		RespondError(w, domain.ErrNotFound("promotion", id.String()))
		return
	}
	RespondJSON(w, http.StatusOK, promo)
}

type createPromotionRequest struct {
	Name        string           `json:"name"`
	Kind        string           `json:"kind"`
	StartTime   time.Time        `json:"start_time"`
	EndTime     time.Time        `json:"end_time"`
	MinSpending *decimal.Decimal `json:"min_spending,omitempty"`
	Rate        *decimal.Decimal `json:"rate,omitempty"`
	Points      *int64           `json:"points,omitempty"`
}

// Create handles POST /promotions. Manager floor is enforced on the
// route.
func (h *PromotionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPromotionRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	kind := domain.PromotionKind(req.Kind)
	if kind != domain.PromoAutomatic && kind != domain.PromoOneTime {
		RespondError(w, domain.ErrValidation("kind must be automatic or one_time"))
		return
	}
	if req.Name == "" {
		RespondError(w, domain.ErrValidation("name is required"))
		return
	}
	if !req.EndTime.After(req.StartTime) {
		RespondError(w, domain.ErrValidation("end_time must be after start_time"))
		return
	}

	promo := &domain.Promotion{
		ID:          uuid.New(),
		Name:        req.Name,
		Kind:        kind,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		MinSpending: req.MinSpending,
		Rate:        req.Rate,
		Points:      req.Points,
	}
	if err := h.promotions.Create(r.Context(), h.db, promo); err != nil {
		RespondError(w, domain.ErrInternal("create promotion", err))
		return
	}
	RespondJSON(w, http.StatusCreated, promo)
}
