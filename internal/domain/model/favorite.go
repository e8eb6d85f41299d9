package model

import "time"

// FavoriteBhajan is a bhajan in a user's favorites with the time it was added.
type FavoriteBhajan struct {
	Bhajan
	FavoritedAt time.Time `json:"favorited_at" db:"favorited_at"`
}
