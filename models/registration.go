package models

import "time"

// Registration is an entry of a player (or pair) into a category.
type Registration struct {
	ID         int64     `json:"id" db:"id"`
	CategoryID int64     `json:"category_id" db:"category_id"`
	PlayerID   int64     `json:"player_id" db:"player_id"`
	PartnerID  *int64    `json:"partner_id,omitempty" db:"partner_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
