// Package promotion resolves which promotions apply to a spending
// amount and computes their point bonus. The resolver never mutates
// state: consuming one-time promotions is the ledger engine's job,
// after the owning transaction row exists.
package promotion

import (
	"context"
	"fmt"
	"time"

	"github.com/campuspoints/platform/internal/domain"
	"github.com/campuspoints/platform/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Resolution is the outcome of resolving promotions for a spending
// amount: the ordered set of promotions to attach and their total
// bonus points.
type Resolution struct {
	Promotions []domain.Promotion
	Bonus      int64
}

// IDs returns the resolved promotion ids in application order.
func (r *Resolution) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(r.Promotions))
	for i, p := range r.Promotions {
		ids[i] = p.ID
	}
	return ids
}

// OneTimeIDs returns the ids of resolved one-time promotions, the ones
// the engine must consume on commit.
func (r *Resolution) OneTimeIDs() []uuid.UUID {
	var ids []uuid.UUID
	for _, p := range r.Promotions {
		if p.Kind == domain.PromoOneTime {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// Resolver validates requested promotions and collects applicable
// automatic ones.
type Resolver struct {
	promotions repository.PromotionRepository
	now        func() time.Time
}

// NewResolver creates a Resolver. A nil clock defaults to time.Now.
func NewResolver(promotions repository.PromotionRepository, clock func() time.Time) *Resolver {
	if clock == nil {
		clock = time.Now
	}
	return &Resolver{promotions: promotions, now: clock}
}

// Resolve validates each explicitly requested promotion and appends
// every active automatic promotion whose minimum-spend floor is met.
// Explicitly requested promotions fail the whole resolution when
// invalid; automatic ones are filtered silently.
//
// Validation per requested id: the promotion must exist, be inside its
// active window, have its minimum-spend floor satisfied, and — for
// one-time promotions — not already be consumed by this user.
func (r *Resolver) Resolve(ctx context.Context, db repository.DBTX, userID uuid.UUID, spent decimal.Decimal, requestedIDs []uuid.UUID) (*Resolution, error) {
	now := r.now()
	res := &Resolution{}
	seen := make(map[uuid.UUID]bool)

	for _, id := range requestedIDs {
		if seen[id] {
			continue
		}
		promo, err := r.promotions.FindByID(ctx, db, id)
		if err != nil {
			return nil, fmt.Errorf("resolve promotion %s: %w", id, err)
		}
		if promo == nil {
			return nil, domain.ErrNotFound("promotion", id.String())
		}
		if !promo.ActiveAt(now) {
			return nil, domain.ErrPrecondition(fmt.Sprintf("promotion %s is not active", id))
		}
		if !promo.MinSpendingMet(spent) {
			return nil, domain.ErrPrecondition(fmt.Sprintf("promotion %s requires spending of at least %s", id, promo.MinSpending))
		}
		if promo.Kind == domain.PromoOneTime {
			usage, err := r.promotions.GetUsage(ctx, db, userID, id)
			if err != nil {
				return nil, fmt.Errorf("promotion usage %s: %w", id, err)
			}
			if usage != nil && usage.Used {
				return nil, domain.ErrPrecondition(fmt.Sprintf("promotion %s already used", id))
			}
		}
		seen[id] = true
		res.Promotions = append(res.Promotions, *promo)
	}

	automatic, err := r.promotions.ListActiveAutomatic(ctx, db, now)
	if err != nil {
		return nil, fmt.Errorf("list automatic promotions: %w", err)
	}
	for _, promo := range automatic {
		if seen[promo.ID] || !promo.MinSpendingMet(spent) {
			continue
		}
		seen[promo.ID] = true
		res.Promotions = append(res.Promotions, promo)
	}

	for _, promo := range res.Promotions {
		res.Bonus += promo.Bonus(spent)
	}
	return res, nil
}
