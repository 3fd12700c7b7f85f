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

type transactionRepo struct{}

// NewTransactionRepository returns a pgx-backed TransactionRepository.
func NewTransactionRepository() TransactionRepository {
	return &transactionRepo{}
}

// promoIDsSubquery aggregates the ordered promotion attachments as a
// text array so rows scan without a join fan-out.
const promoIDsSubquery = `COALESCE(
	(SELECT array_agg(tp.promotion_id::text ORDER BY tp.position)
	 FROM transaction_promotions tp WHERE tp.transaction_id = t.id),
	'{}')`

const txSelect = `
	SELECT t.id, t.user_id, t.type, t.amount, t.spent, t.related_id,
	       t.suspicious, t.remark, t.created_by, t.processed_by, t.created_at,
	       ` + promoIDsSubquery + `
	FROM transactions t`

func (r *transactionRepo) Insert(ctx context.Context, db DBTX, params domain.PostEntryParams) (*domain.Transaction, error) {
	id := uuid.New()
	_, err := db.Exec(ctx, `
		INSERT INTO transactions
		  (id, user_id, type, amount, spent, related_id, suspicious, remark, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id,
		params.UserID,
		string(params.Type),
		Int64ToNumeric(params.Amount),
		DecimalPtrToNumeric(params.Spent),
		params.RelatedID,
		params.Suspicious,
		params.Remark,
		params.CreatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	for i, promoID := range params.PromotionIDs {
		_, err := db.Exec(ctx, `
			INSERT INTO transaction_promotions (transaction_id, promotion_id, position)
			VALUES ($1, $2, $3)`,
			id, promoID, i)
		if err != nil {
			return nil, fmt.Errorf("attach promotion %s: %w", promoID, err)
		}
	}

	return r.FindByID(ctx, db, id)
}

func (r *transactionRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Transaction, error) {
	row := db.QueryRow(ctx, txSelect+` WHERE t.id = $1`, id)
	return scanTransaction(row)
}

func (r *transactionRepo) Exists(ctx context.Context, db DBTX, id uuid.UUID) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM transactions WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("transaction exists: %w", err)
	}
	return exists, nil
}

func (r *transactionRepo) ListByUser(ctx context.Context, db DBTX, userID uuid.UUID, cursor *string, limit int) ([]domain.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var rows pgx.Rows
	var err error
	if cursor != nil {
		rows, err = db.Query(ctx, txSelect+`
			WHERE t.user_id = $1
			  AND (t.created_at, t.id) <= ((SELECT created_at, id FROM transactions WHERE id = $2))
			ORDER BY t.created_at DESC, t.id DESC
			LIMIT $3`, userID, *cursor, limit)
	} else {
		rows, err = db.Query(ctx, txSelect+`
			WHERE t.user_id = $1
			ORDER BY t.created_at DESC, t.id DESC
			LIMIT $2`, userID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func (r *transactionRepo) ListAllByUser(ctx context.Context, db DBTX, userID uuid.UUID) ([]domain.Transaction, error) {
	rows, err := db.Query(ctx, txSelect+`
		WHERE t.user_id = $1
		ORDER BY t.created_at ASC, t.id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user history: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func (r *transactionRepo) SumRedemptionsSince(ctx context.Context, db DBTX, userID uuid.UUID, since time.Time) (int64, error) {
	var total pgtype.Numeric
	err := db.QueryRow(ctx, `
		SELECT COALESCE(-SUM(amount), 0) FROM transactions
		WHERE user_id = $1 AND type = 'redemption'
		  AND suspicious = false AND created_at > $2`,
		userID, since).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum redemptions: %w", err)
	}
	return NumericToInt64(total)
}

func (r *transactionRepo) SetSuspicious(ctx context.Context, db DBTX, id uuid.UUID, suspicious bool) (*domain.Transaction, error) {
	tag, err := db.Exec(ctx,
		`UPDATE transactions SET suspicious = $1 WHERE id = $2`, suspicious, id)
	if err != nil {
		return nil, fmt.Errorf("set suspicious: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	return r.FindByID(ctx, db, id)
}

func (r *transactionRepo) MarkProcessed(ctx context.Context, db DBTX, id, processorID uuid.UUID) (*domain.Transaction, error) {
	tag, err := db.Exec(ctx, `
		UPDATE transactions SET processed_by = $1
		WHERE id = $2 AND type = 'redemption' AND processed_by IS NULL`,
		processorID, id)
	if err != nil {
		return nil, fmt.Errorf("mark processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, nil
	}
	return r.FindByID(ctx, db, id)
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var tx domain.Transaction
	var amountNum, spentNum pgtype.Numeric
	var promoIDs []string
	err := row.Scan(
		&tx.ID, &tx.UserID, &tx.Type,
		&amountNum, &spentNum, &tx.RelatedID,
		&tx.Suspicious, &tx.Remark, &tx.CreatedBy, &tx.ProcessedBy, &tx.CreatedAt,
		&promoIDs,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	if err := convertTransaction(&tx, amountNum, spentNum, promoIDs); err != nil {
		return nil, err
	}
	return &tx, nil
}

func collectTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var amountNum, spentNum pgtype.Numeric
		var promoIDs []string
		err := rows.Scan(
			&tx.ID, &tx.UserID, &tx.Type,
			&amountNum, &spentNum, &tx.RelatedID,
			&tx.Suspicious, &tx.Remark, &tx.CreatedBy, &tx.ProcessedBy, &tx.CreatedAt,
			&promoIDs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		if err := convertTransaction(&tx, amountNum, spentNum, promoIDs); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func convertTransaction(tx *domain.Transaction, amountNum, spentNum pgtype.Numeric, promoIDs []string) error {
	var err error
	tx.Amount, err = NumericToInt64(amountNum)
	if err != nil {
		return fmt.Errorf("convert amount: %w", err)
	}
	tx.Spent, err = NumericToDecimalPtr(spentNum)
	if err != nil {
		return fmt.Errorf("convert spent: %w", err)
	}
	for _, s := range promoIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			return fmt.Errorf("parse promotion id %q: %w", s, err)
		}
		tx.PromotionIDs = append(tx.PromotionIDs, id)
	}
	return nil
}
