package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/campuspoints/platform/internal/domain"
	"github.com/campuspoints/platform/internal/repository"
	"github.com/google/uuid"
)

// ExecuteEventAward credits points to one guest of an event, or to all
// of them, drawing from the event's capped point budget. The event row
// is locked first so concurrent awards serialize on the budget. A batch
// award is one atomic unit: the total debit is checked against the
// remaining budget before any guest is credited, and every credit plus
// the counter increment commit together or the whole batch is rejected.
func (e *Engine) ExecuteEventAward(ctx context.Context, db repository.DBTX, params domain.EventAwardParams) (*domain.AwardResult, error) {
	if err := domain.ValidatePositiveAmount(params.Amount); err != nil {
		return nil, err
	}

	event, err := e.events.LockForUpdate(ctx, db, params.EventID)
	if err != nil {
		return nil, fmt.Errorf("event award: lock event: %w", err)
	}
	if event == nil {
		return nil, domain.ErrNotFound("event", params.EventID.String())
	}

	if err := e.checkAwardAuthority(ctx, db, event.ID, params.Actor); err != nil {
		return nil, err
	}
	if event.Ended(time.Now()) {
		return nil, domain.ErrPrecondition(fmt.Sprintf("event %s has ended", event.ID))
	}

	if params.TargetUserID != nil {
		return e.awardSingle(ctx, db, event, params)
	}
	return e.awardAllGuests(ctx, db, event, params)
}

// checkAwardAuthority admits managers and the event's own organizers.
func (e *Engine) checkAwardAuthority(ctx context.Context, db repository.DBTX, eventID uuid.UUID, actor domain.Actor) error {
	if actor.Role.AtLeast(domain.RoleManager) {
		return nil
	}
	organizer, err := e.events.IsOrganizer(ctx, db, eventID, actor.ID)
	if err != nil {
		return fmt.Errorf("event award: check organizer: %w", err)
	}
	if !organizer {
		return domain.ErrForbidden("event awards require manager role or event organizer")
	}
	return nil
}

func (e *Engine) awardSingle(ctx context.Context, db repository.DBTX, event *domain.Event, params domain.EventAwardParams) (*domain.AwardResult, error) {
	targetID := *params.TargetUserID

	guest, err := e.events.IsGuest(ctx, db, event.ID, targetID)
	if err != nil {
		return nil, fmt.Errorf("event award: check guest: %w", err)
	}
	if !guest {
		return nil, domain.ErrPrecondition(fmt.Sprintf("user %s is not a guest of event %s", targetID, event.ID))
	}
	organizer, err := e.events.IsOrganizer(ctx, db, event.ID, targetID)
	if err != nil {
		return nil, fmt.Errorf("event award: check target organizer: %w", err)
	}
	if organizer {
		return nil, domain.ErrPrecondition(fmt.Sprintf("user %s organizes event %s and cannot be awarded", targetID, event.ID))
	}

	if event.PointsAwarded+params.Amount > event.TotalPoints {
		return nil, domain.ErrPrecondition(fmt.Sprintf(
			"award of %d exceeds event budget (%d of %d awarded)",
			params.Amount, event.PointsAwarded, event.TotalPoints))
	}

	entry, err := e.creditGuest(ctx, db, event.ID, targetID, params)
	if err != nil {
		return nil, err
	}

	updatedEvent, err := e.events.AddAwarded(ctx, db, event.ID, params.Amount)
	if err != nil {
		return nil, fmt.Errorf("event award: increment counter: %w", err)
	}

	return &domain.AwardResult{Transactions: []domain.Transaction{*entry}, Event: updatedEvent}, nil
}

func (e *Engine) awardAllGuests(ctx context.Context, db repository.DBTX, event *domain.Event, params domain.EventAwardParams) (*domain.AwardResult, error) {
	guestIDs, err := e.events.ListGuestIDs(ctx, db, event.ID)
	if err != nil {
		return nil, fmt.Errorf("event award: list guests: %w", err)
	}
	if len(guestIDs) == 0 {
		return nil, domain.ErrPrecondition(fmt.Sprintf("event %s has no guests", event.ID))
	}

	// Division instead of multiplication: a huge per-guest amount
	// times the guest count could wrap negative and slip past the
	// budget check.
	if params.Amount > event.Remaining()/int64(len(guestIDs)) {
		return nil, domain.ErrPrecondition(fmt.Sprintf(
			"batch award of %d to %d guests exceeds event budget (%d of %d awarded)",
			params.Amount, len(guestIDs), event.PointsAwarded, event.TotalPoints))
	}
	total := params.Amount * int64(len(guestIDs))

	entries := make([]domain.Transaction, 0, len(guestIDs))
	for _, guestID := range guestIDs {
		entry, err := e.creditGuest(ctx, db, event.ID, guestID, params)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	updatedEvent, err := e.events.AddAwarded(ctx, db, event.ID, total)
	if err != nil {
		return nil, fmt.Errorf("event award: increment counter: %w", err)
	}

	return &domain.AwardResult{Transactions: entries, Event: updatedEvent}, nil
}

func (e *Engine) creditGuest(ctx context.Context, db repository.DBTX, eventID, guestID uuid.UUID, params domain.EventAwardParams) (*domain.Transaction, error) {
	if _, err := e.LockUserForUpdate(ctx, db, guestID); err != nil {
		return nil, fmt.Errorf("event award: %w", err)
	}

	entry, _, err := e.PostEntry(ctx, db, domain.PostEntryParams{
		UserID:       guestID,
		Type:         domain.TxEvent,
		Amount:       params.Amount,
		BalanceDelta: params.Amount,
		RelatedID:    &eventID,
		Remark:       params.Remark,
		CreatedBy:    params.Actor.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("event award post: %w", err)
	}
	return entry, nil
}
