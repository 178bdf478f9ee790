package brackets

import (
	"context"

	"github.com/venky0589/arenaflow/models"
)

type GenerateBracketParams struct {
	Category        *models.Category
	RegistrationIDs []int64 // insertion order
	Seeds           map[int64]int
}

// Bracket is an in-memory layout ready to be persisted.
type Bracket struct {
	Topology Topology
	Ordered  []int64
	Matches  []*BracketMatch // sorted by (round, position)

	index map[slotKey]*BracketMatch
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error)

	GetName() string
}

// GeneratorFor picks the generator for a category format.
func GeneratorFor(format models.CategoryFormat) (BracketGenerator, bool) {
	switch format {
	case models.FormatSingleElimination:
		return NewSingleEliminationGenerator(), true
	default:
		return nil, false
	}
}
