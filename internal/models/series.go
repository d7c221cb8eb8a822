package models

import (
	"time"

	"github.com/google/uuid"
)

const SeriesStatusOngoing = "ongoing"

type Series struct {
	ID            uuid.UUID
	CreatorUID    string
	Title         string
	Description   string
	Genre         string
	Tags          string
	CoverImageURL string
	IsPublished   bool
	Status        string
	ViewCount     int64
	LikeCount     int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	PublishedAt   *time.Time

	// EpisodeCount is filled by list queries, not stored.
	EpisodeCount int
}

type Episode struct {
	ID            uuid.UUID
	SeriesID      uuid.UUID
	CreatorUID    string
	EpisodeNumber int
	Title         string
	ThumbnailURL  string
	IsPublished   bool
	ViewCount     int64
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

// Panel is one image cell of an episode. Panels are replaced as a whole set
// when the creator saves the episode editor, Order is their position.
type Panel struct {
	ID        uuid.UUID
	EpisodeID uuid.UUID
	Order     int
	ImageURL  string
	Dialogues []string
	Width     int
	Height    int
	CreatedAt time.Time
}
