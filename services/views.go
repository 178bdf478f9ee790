package services

import (
	"time"

	"github.com/venky0589/arenaflow/brackets"
	"github.com/venky0589/arenaflow/models"
)

type DrawGenerateRequest struct {
	Seeds            []brackets.SeedAssignment `json:"seeds,omitempty"`
	OverwriteIfDraft bool                      `json:"overwrite_if_draft"`
}

type MatchView struct {
	ID                         int64              `json:"id"`
	Round                      int                `json:"round"`
	Position                   int                `json:"position"`
	Participant1RegistrationID *int64             `json:"participant1_registration_id"`
	Participant2RegistrationID *int64             `json:"participant2_registration_id"`
	Bye                        bool               `json:"bye"`
	NextMatchID                *int64             `json:"next_match_id"`
	WinnerAdvancesAs           *int               `json:"winner_advances_as"`
	Status                     models.MatchStatus `json:"status"`
}

// BracketSummary is the flat view of a category bracket ordered by (round, position).
// The totals are zero when they cannot be derived from the stored matches.
type BracketSummary struct {
	CategoryID        int64       `json:"category_id"`
	TotalParticipants int         `json:"total_participants,omitempty"`
	EffectiveSize     int         `json:"effective_size,omitempty"`
	Rounds            int         `json:"rounds,omitempty"`
	Matches           []MatchView `json:"matches"`
}

type BracketExport struct {
	CategoryID int64     `json:"category_id"`
	Key        string    `json:"key"`
	URL        string    `json:"url"`
	ETag       string    `json:"etag,omitempty"`
	ExportedAt time.Time `json:"exported_at"`
}

func toMatchView(m *models.Match) MatchView {
	return MatchView{
		ID:                         m.ID,
		Round:                      m.Round,
		Position:                   m.Position,
		Participant1RegistrationID: m.Participant1RegistrationID,
		Participant2RegistrationID: m.Participant2RegistrationID,
		Bye:                        m.Bye,
		NextMatchID:                m.NextMatchID,
		WinnerAdvancesAs:           m.WinnerAdvancesAs,
		Status:                     m.Status,
	}
}

func toMatchViews(matches []*models.Match) []MatchView {
	views := make([]MatchView, 0, len(matches))
	for _, m := range matches {
		if m != nil {
			views = append(views, toMatchView(m))
		}
	}
	return views
}

// summarize derives the totals from a complete stored bracket.
func summarize(categoryID int64, matches []*models.Match) *BracketSummary {
	summary := &BracketSummary{
		CategoryID: categoryID,
		Matches:    toMatchViews(matches),
	}
	if len(matches) == 0 {
		return summary
	}

	rounds := 0
	for _, m := range matches {
		if m.Round > rounds {
			rounds = m.Round
		}
	}
	size := 1 << rounds
	if len(matches) != size-1 {
		return summary
	}

	participants := 0
	for _, m := range matches {
		if m.Round != 1 {
			continue
		}
		if m.Participant1RegistrationID != nil {
			participants++
		}
		if m.Participant2RegistrationID != nil {
			participants++
		}
	}

	summary.Rounds = rounds
	summary.EffectiveSize = size
	summary.TotalParticipants = participants
	return summary
}
