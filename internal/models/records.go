package models

import (
	"time"

	"github.com/lib/pq"
)

// VerificationEvent is one audit row per answered challenge or movement
// score. SessionID is the opaque per-client identifier; no account data is
// ever stored.
type VerificationEvent struct {
	ID           int `gorm:"primaryKey"`
	SessionID    string
	Stage        string
	Outcome      string
	AttemptsLeft int
	Selected     pq.Int64Array `gorm:"type:bigint[]"`
	BotRatio     float64
	CreatedAt    time.Time
}

// Event outcomes.
const (
	OutcomeGranted  = "granted"
	OutcomeFailed   = "failed"
	OutcomeDenied   = "denied"
	OutcomeExpired  = "expired"
	OutcomeProgress = "progress"
	OutcomeMovement = "movement"
)

// MovementSampleRow is one labeled pointer sample persisted for training-data
// export.
type MovementSampleRow struct {
	ID        int `gorm:"primaryKey"`
	SessionID string
	Label     string
	X         float64
	Y         float64
	T         float64
	CreatedAt time.Time
}
