package handler

import (
	"net/http"

	"github.com/campuspoints/platform/internal/domain"
	"github.com/campuspoints/platform/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// UserHandler exposes the manager-side user surface: lookups and the
// verified/suspicious account flags.
type UserHandler struct {
	users repository.UserRepository
	db    repository.DBTX
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users repository.UserRepository, db repository.DBTX) *UserHandler {
	return &UserHandler{users: users, db: db}
}

// Get handles GET /users/{userID}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid user id"))
		return
	}

	user, err := h.users.FindByID(r.Context(), h.db, id)
	if err != nil {
		RespondError(w, domain.ErrInternal("find user", err))
		return
	}
	if user == nil {
		RespondError(w, domain.ErrNotFound("user", id.String()))
		return
	}
	RespondJSON(w, http.StatusOK, user)
}

type flagsRequest struct {
	Verified   bool `json:"verified"`
	Suspicious bool `json:"suspicious"`
}

// SetFlags handles PATCH /users/{userID}/flags. Flagging an account
// suspicious affects how future purchases by that cashier are posted;
// past transactions are corrected per transaction via their own
// suspicious toggle.
func (h *UserHandler) SetFlags(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid user id"))
		return
	}

	var req flagsRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	user, err := h.users.SetFlags(r.Context(), h.db, id, req.Verified, req.Suspicious)
	if err != nil {
		RespondError(w, domain.ErrInternal("set flags", err))
		return
	}
	if user == nil {
		RespondError(w, domain.ErrNotFound("user", id.String()))
		return
	}
	RespondJSON(w, http.StatusOK, user)
}
