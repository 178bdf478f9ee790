package models

import "time"

// Category is a competition inside a tournament (e.g. men's singles).
type Category struct {
	ID              int64          `json:"id" db:"id"`
	TournamentID    int64          `json:"tournament_id" db:"tournament_id"`
	Name            string         `json:"name" db:"name"`
	CategoryType    CategoryType   `json:"category_type" db:"category_type"`
	Format          CategoryFormat `json:"format" db:"format"`
	MaxParticipants *int           `json:"max_participants,omitempty" db:"max_participants"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
}
