// Package tournament defines the credit-gated resources: tournaments and
// the broadcast sessions bound to them while they are live.
package tournament

import (
	"time"

	"github.com/xraph/arena/id"
	"github.com/xraph/arena/types"
)

// Status is the lifecycle state of a tournament. Transitions are monotonic:
// idle → live → ended. There is no path back from ended.
type Status string

const (
	StatusIdle  Status = "idle"
	StatusLive  Status = "live"
	StatusEnded Status = "ended"
)

// Tournament is the resource whose live broadcast is gated by credits.
type Tournament struct {
	types.Entity
	ID          id.TournamentID `json:"id"`
	OwnerID     id.AccountID    `json:"owner_id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Status      Status          `json:"status"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	EndedAt     *time.Time      `json:"ended_at,omitempty"`
}

// SessionStatus is the lifecycle state of a broadcast session.
type SessionStatus string

const (
	SessionLive  SessionStatus = "live"
	SessionEnded SessionStatus = "ended"
)

// Session is one live-broadcast instance bound to a tournament. At most one
// live session exists per tournament, enforced by the tournament status.
// StreamKey is the opaque credential handed to the broadcast endpoint.
type Session struct {
	types.Entity
	ID           id.SessionID    `json:"id"`
	TournamentID id.TournamentID `json:"tournament_id"`
	StreamKey    string          `json:"stream_key"`
	Status       SessionStatus   `json:"status"`
	ViewerCount  int             `json:"viewer_count"`
	LastSeenAt   time.Time       `json:"last_seen_at"`
	StartedAt    time.Time       `json:"started_at"`
	EndedAt      *time.Time      `json:"ended_at,omitempty"`
}

// ListOpts filters tournament listings.
type ListOpts struct {
	Status Status
	Limit  int
	Offset int
}
