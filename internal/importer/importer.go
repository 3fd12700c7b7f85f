package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campuspoints/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Importer creates platform accounts from legacy campus card records.
// Each student gets a users row plus an opening adjustment entry, so
// the audit identity (balance equals history) holds for imported
// accounts too.
type Importer struct {
	pool    *pgxpool.Pool
	actorID uuid.UUID
	logger  *slog.Logger
}

// NewImporter creates an Importer. actorID is the manager running the
// import, recorded as creator of the opening entries.
func NewImporter(pool *pgxpool.Pool, actorID uuid.UUID, logger *slog.Logger) *Importer {
	return &Importer{pool: pool, actorID: actorID, logger: logger}
}

// Report summarizes an import run.
type Report struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Run imports all records. Already-imported students are skipped, and
// a failing record does not stop the run.
func (im *Importer) Run(ctx context.Context, students []LegacyStudent) *Report {
	report := &Report{}
	for _, s := range students {
		imported, err := im.importStudent(ctx, s)
		if err != nil {
			report.Failed++
			im.logger.Error("import failed", "student_no", s.StudentNo, "error", err)
			continue
		}
		if imported {
			report.Imported++
		} else {
			report.Skipped++
		}
	}

	im.logger.Info("import complete",
		"imported", report.Imported,
		"skipped", report.Skipped,
		"failed", report.Failed)
	return report
}

func (im *Importer) importStudent(ctx context.Context, s LegacyStudent) (bool, error) {
	userID := DeterministicUUID("student", s.StudentNo)

	var imported bool
	err := pgx.BeginTxFunc(ctx, im.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO users (id, name, email, role, balance, verified, suspicious)
			VALUES ($1, $2, $3, $4, $5, $6, false)
			ON CONFLICT (id) DO NOTHING`,
			userID, s.Name, s.Email, int(domain.RoleRegular), s.Balance, s.Verified)
		if err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil // already imported
		}
		imported = true

		if s.Balance == 0 {
			return nil
		}

		entryID := DeterministicUUID("opening-entry", s.StudentNo)
		_, err = tx.Exec(ctx, `
			INSERT INTO transactions (id, user_id, type, amount, remark, created_by)
			VALUES ($1, $2, 'adjustment', $3, 'legacy card balance import', $4)`,
			entryID, userID, s.Balance, im.actorID)
		if err != nil {
			return fmt.Errorf("insert opening entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if imported {
		im.logger.Info("imported student",
			"student_no", s.StudentNo,
			"user_id", userID,
			"balance", s.Balance)
	}
	return imported, nil
}
