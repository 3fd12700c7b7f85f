package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/campuspoints/platform/internal/domain"
	"github.com/campuspoints/platform/internal/ledger"
	"github.com/campuspoints/platform/internal/policy"
	"github.com/campuspoints/platform/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LedgerService owns the database transaction around each engine
// command. Commands themselves never begin or commit; a failure here
// rolls back every row the command touched.
type LedgerService struct {
	pool         *pgxpool.Pool
	engine       *ledger.Engine
	transactions repository.TransactionRepository
	limits       policy.RedemptionLimitPolicy
	logger       *slog.Logger
}

// NewLedgerService creates a LedgerService with the default redemption caps.
func NewLedgerService(pool *pgxpool.Pool, engine *ledger.Engine, transactions repository.TransactionRepository, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		pool:         pool,
		engine:       engine,
		transactions: transactions,
		limits:       policy.DefaultRedemptionLimits(),
		logger:       logger,
	}
}

// Purchase records a purchase and credits the earned points.
func (s *LedgerService) Purchase(ctx context.Context, params domain.PurchaseParams) (*domain.CommandResult, error) {
	var result *domain.CommandResult
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		result, err = s.engine.ExecutePurchase(ctx, tx, params)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("purchase posted",
		"transaction_id", result.Transaction.ID,
		"user_id", result.Transaction.UserID,
		"amount", result.Transaction.Amount,
		"suspicious", result.Transaction.Suspicious,
	)
	return result, nil
}

// Adjustment posts a manager correction.
func (s *LedgerService) Adjustment(ctx context.Context, params domain.AdjustmentParams) (*domain.CommandResult, error) {
	var result *domain.CommandResult
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		result, err = s.engine.ExecuteAdjustment(ctx, tx, params)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("adjustment posted",
		"transaction_id", result.Transaction.ID,
		"user_id", result.Transaction.UserID,
		"amount", result.Transaction.Amount,
	)
	return result, nil
}

// Transfer moves points between two users.
func (s *LedgerService) Transfer(ctx context.Context, params domain.TransferParams) (*domain.TransferResult, error) {
	var result *domain.TransferResult
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		result, err = s.engine.ExecuteTransfer(ctx, tx, params)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("transfer posted",
		"sender_id", params.Actor.ID,
		"recipient_id", params.RecipientID,
		"amount", params.Amount,
	)
	return result, nil
}

// RequestRedemption opens a redemption after checking the platform
// redemption caps against the actor's rolling-day total.
func (s *LedgerService) RequestRedemption(ctx context.Context, params domain.RedemptionRequestParams) (*domain.CommandResult, error) {
	redeemed, err := s.transactions.SumRedemptionsSince(ctx, s.pool, params.Actor.ID, time.Now().Add(-24*time.Hour))
	if err != nil {
		return nil, domain.ErrInternal("sum redemptions", err)
	}
	if eval := policy.EvaluateRedemptionLimits(s.limits, params.Amount, redeemed); !eval.Allowed {
		return nil, domain.ErrPrecondition(fmt.Sprintf(
			"%s limit exceeded: %d requested against limit %d",
			eval.BreachedLimit, eval.RequestedAmt, eval.LimitValue))
	}

	var result *domain.CommandResult
	err = s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		result, err = s.engine.ExecuteRedemptionRequest(ctx, tx, params)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("redemption requested",
		"transaction_id", result.Transaction.ID,
		"user_id", result.Transaction.UserID,
		"amount", result.Transaction.Amount,
	)
	return result, nil
}

// ProcessRedemption completes a requested redemption.
func (s *LedgerService) ProcessRedemption(ctx context.Context, params domain.ProcessRedemptionParams) (*domain.CommandResult, error) {
	var result *domain.CommandResult
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		result, err = s.engine.ExecuteProcessRedemption(ctx, tx, params)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("redemption processed",
		"transaction_id", result.Transaction.ID,
		"user_id", result.Transaction.UserID,
		"processed_by", params.Actor.ID,
	)
	return result, nil
}

// AwardEvent credits event points to one guest or all of them.
func (s *LedgerService) AwardEvent(ctx context.Context, params domain.EventAwardParams) (*domain.AwardResult, error) {
	var result *domain.AwardResult
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		result, err = s.engine.ExecuteEventAward(ctx, tx, params)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("event award posted",
		"event_id", params.EventID,
		"amount", params.Amount,
		"recipients", len(result.Transactions),
	)
	return result, nil
}

// ToggleSuspicious flips a transaction's suspicious flag.
func (s *LedgerService) ToggleSuspicious(ctx context.Context, params domain.ToggleSuspiciousParams) (*domain.CommandResult, error) {
	var result *domain.CommandResult
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		result, err = s.engine.ExecuteToggleSuspicious(ctx, tx, params)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("suspicious flag toggled",
		"transaction_id", result.Transaction.ID,
		"suspicious", result.Transaction.Suspicious,
	)
	return result, nil
}

// Audit recomputes a user's balance from their history.
func (s *LedgerService) Audit(ctx context.Context, userID uuid.UUID) (*ledger.AuditResult, error) {
	var result *ledger.AuditResult
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		result, err = s.engine.AuditUser(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !result.AllPassed {
		s.logger.Error("ledger audit failed",
			"user_id", userID,
			"recorded", result.RecordedBalance,
			"computed", result.ComputedBalance,
		)
	}
	return result, nil
}

func (s *LedgerService) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
	return mapSerialization(err)
}

// mapSerialization surfaces Postgres serialization and deadlock
// failures as CONFLICT so callers retry the whole operation.
func mapSerialization(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return domain.ErrConflict("concurrent update, retry the operation")
		}
	}
	return err
}
