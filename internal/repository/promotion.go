package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/campuspoints/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type promotionRepo struct{}

// NewPromotionRepository returns a pgx-backed PromotionRepository.
func NewPromotionRepository() PromotionRepository {
	return &promotionRepo{}
}

const promotionColumns = `id, name, kind, start_time, end_time, min_spending, rate, points, created_at`

func (r *promotionRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Promotion, error) {
	row := db.QueryRow(ctx,
		`SELECT `+promotionColumns+` FROM promotions WHERE id = $1`, id)
	return scanPromotion(row)
}

func (r *promotionRepo) ListActiveAutomatic(ctx context.Context, db DBTX, now time.Time) ([]domain.Promotion, error) {
	rows, err := db.Query(ctx, `
		SELECT `+promotionColumns+` FROM promotions
		WHERE kind = 'automatic' AND start_time <= $1 AND end_time >= $1
		ORDER BY created_at ASC`, now)
	if err != nil {
		return nil, fmt.Errorf("query automatic promotions: %w", err)
	}
	defer rows.Close()

	var promos []domain.Promotion
	for rows.Next() {
		p, err := scanPromotionValues(rows)
		if err != nil {
			return nil, err
		}
		promos = append(promos, *p)
	}
	return promos, rows.Err()
}

func (r *promotionRepo) ListActive(ctx context.Context, db DBTX, now time.Time) ([]domain.Promotion, error) {
	rows, err := db.Query(ctx, `
		SELECT `+promotionColumns+` FROM promotions
		WHERE start_time <= $1 AND end_time >= $1
		ORDER BY created_at ASC`, now)
	if err != nil {
		return nil, fmt.Errorf("query active promotions: %w", err)
	}
	defer rows.Close()

	var promos []domain.Promotion
	for rows.Next() {
		p, err := scanPromotionValues(rows)
		if err != nil {
			return nil, err
		}
		promos = append(promos, *p)
	}
	return promos, rows.Err()
}

func (r *promotionRepo) Create(ctx context.Context, db DBTX, p *domain.Promotion) error {
	_, err := db.Exec(ctx, `
		INSERT INTO promotions (id, name, kind, start_time, end_time, min_spending, rate, points)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID,
		p.Name,
		string(p.Kind),
		p.StartTime,
		p.EndTime,
		DecimalPtrToNumeric(p.MinSpending),
		DecimalPtrToNumeric(p.Rate),
		p.Points,
	)
	if err != nil {
		return fmt.Errorf("insert promotion: %w", err)
	}
	return nil
}

func (r *promotionRepo) GetUsage(ctx context.Context, db DBTX, userID, promotionID uuid.UUID) (*domain.PromotionUsage, error) {
	var u domain.PromotionUsage
	err := db.QueryRow(ctx, `
		SELECT user_id, promotion_id, used FROM promotion_usage
		WHERE user_id = $1 AND promotion_id = $2`,
		userID, promotionID).Scan(&u.UserID, &u.PromotionID, &u.Used)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan promotion usage: %w", err)
	}
	return &u, nil
}

// Consume marks the promotion used with upsert semantics. The used
// marker only ever moves to true.
func (r *promotionRepo) Consume(ctx context.Context, db DBTX, userID, promotionID uuid.UUID) error {
	_, err := db.Exec(ctx, `
		INSERT INTO promotion_usage (user_id, promotion_id, used)
		VALUES ($1, $2, true)
		ON CONFLICT (user_id, promotion_id) DO UPDATE SET used = true`,
		userID, promotionID)
	if err != nil {
		return fmt.Errorf("consume promotion: %w", err)
	}
	return nil
}

func scanPromotion(row pgx.Row) (*domain.Promotion, error) {
	p, err := scanPromotionValues(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func scanPromotionValues(row pgx.Row) (*domain.Promotion, error) {
	var p domain.Promotion
	var minNum, rateNum pgtype.Numeric
	err := row.Scan(&p.ID, &p.Name, &p.Kind, &p.StartTime, &p.EndTime,
		&minNum, &rateNum, &p.Points, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan promotion: %w", err)
	}

	p.MinSpending, err = NumericToDecimalPtr(minNum)
	if err != nil {
		return nil, fmt.Errorf("convert min_spending: %w", err)
	}
	p.Rate, err = NumericToDecimalPtr(rateNum)
	if err != nil {
		return nil, fmt.Errorf("convert rate: %w", err)
	}
	return &p, nil
}
