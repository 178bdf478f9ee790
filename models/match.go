package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled  MatchStatus = "SCHEDULED"
	MatchStatusInProgress MatchStatus = "IN_PROGRESS"
	MatchStatusCompleted  MatchStatus = "COMPLETED"
	MatchStatusCancelled  MatchStatus = "CANCELLED"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchStatusScheduled, MatchStatusInProgress, MatchStatusCompleted, MatchStatusCancelled:
		return true
	}
	return false
}

// Match is one node of a category bracket. Round 1 is the earliest round,
// Position is 0-based within the round.
type Match struct {
	ID         int64 `json:"id" db:"id"`
	CategoryID int64 `json:"category_id" db:"category_id"`
	Round      int   `json:"round" db:"round"`
	Position   int   `json:"position" db:"position"`

	Participant1RegistrationID *int64 `json:"participant1_registration_id,omitempty" db:"participant1_registration_id"`
	Participant2RegistrationID *int64 `json:"participant2_registration_id,omitempty" db:"participant2_registration_id"`

	Bye bool `json:"bye" db:"bye"`

	// Progression pointer; both nil on the final.
	NextMatchID      *int64 `json:"next_match_id,omitempty" db:"next_match_id"`
	WinnerAdvancesAs *int   `json:"winner_advances_as,omitempty" db:"winner_advances_as"`

	Status    MatchStatus `json:"status" db:"status"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}

// SoleParticipant returns the only present side of a BYE match.
func (m *Match) SoleParticipant() (int64, bool) {
	switch {
	case m.Participant1RegistrationID != nil && m.Participant2RegistrationID == nil:
		return *m.Participant1RegistrationID, true
	case m.Participant2RegistrationID != nil && m.Participant1RegistrationID == nil:
		return *m.Participant2RegistrationID, true
	}
	return 0, false
}

// HasProgressed reports whether the match moved past the draft state.
// A BYE completed at generation time does not count.
func (m *Match) HasProgressed() bool {
	if m.Status == MatchStatusScheduled {
		return false
	}
	return !(m.Bye && m.Round == 1 && m.Status == MatchStatusCompleted)
}
