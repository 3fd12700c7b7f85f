package repository

import (
	"context"
	"fmt"

	"github.com/campuspoints/platform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type eventRepo struct{}

// NewEventRepository returns a pgx-backed EventRepository.
func NewEventRepository() EventRepository {
	return &eventRepo{}
}

const eventColumns = `id, name, end_time, total_points, points_awarded, created_at`

func (r *eventRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Event, error) {
	row := db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	return scanEvent(row)
}

func (r *eventRepo) LockForUpdate(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Event, error) {
	row := db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id)
	return scanEvent(row)
}

func (r *eventRepo) Create(ctx context.Context, db DBTX, e *domain.Event) error {
	_, err := db.Exec(ctx, `
		INSERT INTO events (id, name, end_time, total_points, points_awarded)
		VALUES ($1, $2, $3, $4, 0)`,
		e.ID, e.Name, e.EndTime, e.TotalPoints)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *eventRepo) AddGuest(ctx context.Context, db DBTX, eventID, userID uuid.UUID) error {
	_, err := db.Exec(ctx, `
		INSERT INTO event_guests (event_id, user_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, eventID, userID)
	if err != nil {
		return fmt.Errorf("insert guest: %w", err)
	}
	return nil
}

func (r *eventRepo) AddOrganizer(ctx context.Context, db DBTX, eventID, userID uuid.UUID) error {
	_, err := db.Exec(ctx, `
		INSERT INTO event_organizers (event_id, user_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, eventID, userID)
	if err != nil {
		return fmt.Errorf("insert organizer: %w", err)
	}
	return nil
}

func (r *eventRepo) IsGuest(ctx context.Context, db DBTX, eventID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM event_guests WHERE event_id = $1 AND user_id = $2)`,
		eventID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check guest: %w", err)
	}
	return exists, nil
}

func (r *eventRepo) IsOrganizer(ctx context.Context, db DBTX, eventID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM event_organizers WHERE event_id = $1 AND user_id = $2)`,
		eventID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check organizer: %w", err)
	}
	return exists, nil
}

func (r *eventRepo) ListGuestIDs(ctx context.Context, db DBTX, eventID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := db.Query(ctx, `
		SELECT user_id FROM event_guests WHERE event_id = $1 ORDER BY user_id`, eventID)
	if err != nil {
		return nil, fmt.Errorf("query guests: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan guest id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *eventRepo) AddAwarded(ctx context.Context, db DBTX, id uuid.UUID, points int64) (*domain.Event, error) {
	row := db.QueryRow(ctx, `
		UPDATE events SET points_awarded = points_awarded + $1
		WHERE id = $2
		RETURNING `+eventColumns,
		points, id)
	return scanEvent(row)
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var e domain.Event
	err := row.Scan(&e.ID, &e.Name, &e.EndTime, &e.TotalPoints, &e.PointsAwarded, &e.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan event: %w", err)
	}
	return &e, nil
}
