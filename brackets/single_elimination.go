package brackets

import (
	"context"
	"errors"
	"fmt"
)

var ErrBracketCorrupted = errors.New("bracket structure is corrupted")

type BracketMatch struct {
	UID      string
	Round    int
	Position int

	Participant1ID *int64
	Participant2ID *int64

	IsBye bool

	// nil on the final
	Next *NextRef
}

// WinnerAdvancesAs returns the side of the next match the winner fills.
func (bm *BracketMatch) WinnerAdvancesAs() *int {
	if bm.Next == nil {
		return nil
	}
	side := int(bm.Next.Side)
	return &side
}

type slotKey struct {
	round    int
	position int
}

type SingleEliminationGenerator struct {
}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ordered := OrderBySeed(params.RegistrationIDs, params.Seeds)
	topo, err := NewTopology(len(ordered))
	if err != nil {
		return nil, err
	}

	b := &Bracket{
		Topology: topo,
		Ordered:  ordered,
		Matches:  make([]*BracketMatch, 0, topo.TotalMatches()),
		index:    make(map[slotKey]*BracketMatch, topo.TotalMatches()),
	}

	for r := 1; r <= topo.Rounds; r++ {
		for pos := 0; pos < topo.MatchesIn(r); pos++ {
			bm := &BracketMatch{
				UID:      fmt.Sprintf("R%dM%d", r, pos+1),
				Round:    r,
				Position: pos,
			}
			if ref, ok := topo.NextFor(r, pos); ok {
				next := ref
				bm.Next = &next
			}
			b.Matches = append(b.Matches, bm)
			b.index[slotKey{r, pos}] = bm
		}
	}

	n := len(ordered)
	for i, bm := range b.Round(1) {
		a, opp := i, topo.Round1Opponent(i)
		if a < n {
			id := ordered[a]
			bm.Participant1ID = &id
		}
		if opp < n {
			id := ordered[opp]
			bm.Participant2ID = &id
		}
		bm.IsBye = (bm.Participant1ID == nil) != (bm.Participant2ID == nil)
	}

	for _, bm := range b.Matches {
		if bm.Next == nil {
			continue
		}
		if _, ok := b.Match(bm.Next.Round, bm.Next.Position); !ok {
			return nil, fmt.Errorf("%w: match %s points at missing R%d position %d", ErrBracketCorrupted, bm.UID, bm.Next.Round, bm.Next.Position)
		}
	}

	return b, nil
}

// Match looks a node up by its coordinates.
func (b *Bracket) Match(round, position int) (*BracketMatch, bool) {
	bm, ok := b.index[slotKey{round, position}]
	return bm, ok
}

// Round returns the matches of one round in position order.
func (b *Bracket) Round(round int) []*BracketMatch {
	out := make([]*BracketMatch, 0, b.Topology.MatchesIn(round))
	for _, bm := range b.Matches {
		if bm.Round == round {
			out = append(out, bm)
		}
	}
	return out
}
