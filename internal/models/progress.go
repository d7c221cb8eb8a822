package models

import (
	"time"

	"github.com/google/uuid"
)

// Progress tracks how far a reader got in one episode. One row per
// (user, series, episode), upserted on every reader navigation.
type Progress struct {
	UserID     string
	SeriesID   uuid.UUID
	EpisodeID  uuid.UUID
	PageNumber int
	Completed  bool
	LastReadAt time.Time
}
