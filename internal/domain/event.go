package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event represents an events row for award purposes: a capped point
// budget drawn down by guest awards. Guests and organizers are
// disjoint sets.
type Event struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	EndTime       time.Time `json:"end_time"`
	TotalPoints   int64     `json:"total_points"`
	PointsAwarded int64     `json:"points_awarded"`
	CreatedAt     time.Time `json:"created_at"`
}

// Remaining is the unspent part of the event's point budget.
func (e *Event) Remaining() int64 { return e.TotalPoints - e.PointsAwarded }

// Ended reports whether the event has finished as of now.
func (e *Event) Ended(now time.Time) bool { return now.After(e.EndTime) }
