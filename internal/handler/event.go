package handler

import (
	"net/http"
	"time"

	"github.com/campuspoints/platform/internal/auth"
	"github.com/campuspoints/platform/internal/domain"
	"github.com/campuspoints/platform/internal/repository"
	"github.com/campuspoints/platform/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// EventHandler exposes event reads, guest management and awards.
type EventHandler struct {
	svc    *service.LedgerService
	events repository.EventRepository
	db     repository.DBTX
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(svc *service.LedgerService, events repository.EventRepository, db repository.DBTX) *EventHandler {
	return &EventHandler{svc: svc, events: events, db: db}
}

// eventResponse adds the derived remaining budget to the event row.
type eventResponse struct {
	*domain.Event
	Remaining int64 `json:"remaining"`
}

// Get handles GET /events/{eventID}.
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid event id"))
		return
	}

	event, err := h.events.FindByID(r.Context(), h.db, id)
	if err != nil {
		RespondError(w, domain.ErrInternal("find event", err))
		return
	}
	if event == nil {
		RespondError(w, domain.ErrNotFound("event", id.String()))
		return
	}
	RespondJSON(w, http.StatusOK, eventResponse{Event: event, Remaining: event.Remaining()})
}

type createEventRequest struct {
	Name        string    `json:"name"`
	EndTime     time.Time `json:"end_time"`
	TotalPoints int64     `json:"total_points"`
}

// Create handles POST /events. Manager floor is enforced on the route;
// the creator becomes the first organizer.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}
	if req.Name == "" {
		RespondError(w, domain.ErrValidation("name is required"))
		return
	}
	if req.TotalPoints <= 0 {
		RespondError(w, domain.ErrValidation("total_points must be positive"))
		return
	}
	if !req.EndTime.After(time.Now()) {
		RespondError(w, domain.ErrValidation("end_time must be in the future"))
		return
	}

	event := &domain.Event{
		ID:          uuid.New(),
		Name:        req.Name,
		EndTime:     req.EndTime,
		TotalPoints: req.TotalPoints,
	}
	if err := h.events.Create(r.Context(), h.db, event); err != nil {
		RespondError(w, domain.ErrInternal("create event", err))
		return
	}

	actor := auth.ActorFromContext(r.Context())
	if err := h.events.AddOrganizer(r.Context(), h.db, event.ID, actor.ID); err != nil {
		RespondError(w, domain.ErrInternal("add organizer", err))
		return
	}

	RespondJSON(w, http.StatusCreated, eventResponse{Event: event, Remaining: event.TotalPoints})
}

type addMemberRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

// AddGuest handles POST /events/{eventID}/guests. Managers and the
// event's organizers may add guests; organizers cannot be guests.
func (h *EventHandler) AddGuest(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid event id"))
		return
	}

	var req addMemberRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	if err := h.requireOrganizerOrManager(r, eventID); err != nil {
		RespondError(w, err)
		return
	}

	organizer, err := h.events.IsOrganizer(r.Context(), h.db, eventID, req.UserID)
	if err != nil {
		RespondError(w, domain.ErrInternal("check organizer", err))
		return
	}
	if organizer {
		RespondError(w, domain.ErrPrecondition("organizers cannot be guests"))
		return
	}

	if err := h.events.AddGuest(r.Context(), h.db, eventID, req.UserID); err != nil {
		RespondError(w, domain.ErrInternal("add guest", err))
		return
	}
	RespondJSON(w, http.StatusNoContent, nil)
}

type awardRequest struct {
	Amount int64      `json:"amount"`
	UserID *uuid.UUID `json:"user_id,omitempty"`
	Remark string     `json:"remark,omitempty"`
}

// Award handles POST /events/{eventID}/awards. A missing user_id
// awards every guest.
func (h *EventHandler) Award(w http.ResponseWriter, r *http.Request) {
	eventID, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid event id"))
		return
	}

	var req awardRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body"))
		return
	}

	result, err := h.svc.AwardEvent(r.Context(), domain.EventAwardParams{
		Actor:        auth.ActorFromContext(r.Context()),
		EventID:      eventID,
		Amount:       req.Amount,
		TargetUserID: req.UserID,
		Remark:       req.Remark,
	})
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, result)
}

func (h *EventHandler) requireOrganizerOrManager(r *http.Request, eventID uuid.UUID) error {
	actor := auth.ActorFromContext(r.Context())
	if actor.Role.AtLeast(domain.RoleManager) {
		return nil
	}
	organizer, err := h.events.IsOrganizer(r.Context(), h.db, eventID, actor.ID)
	if err != nil {
		return domain.ErrInternal("check organizer", err)
	}
	if !organizer {
		return domain.ErrForbidden("requires manager role or event organizer")
	}
	return nil
}
