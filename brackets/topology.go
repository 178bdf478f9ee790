package brackets

import (
	"errors"
	"fmt"
	"math/bits"
)

var ErrNotEnoughParticipants = errors.New("not enough participants to generate a single elimination bracket (minimum 2)")

// Side of a match a participant occupies.
type Side int

const (
	SideOne Side = 1
	SideTwo Side = 2
)

// NextRef points at the slot the winner of a match moves into.
type NextRef struct {
	Round    int
	Position int
	Side     Side
}

// Topology holds the structural parameters of a single elimination bracket.
type Topology struct {
	Participants int
	Size         int // smallest power of two >= Participants
	Rounds       int
}

func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

func NewTopology(participants int) (Topology, error) {
	if participants < 2 {
		return Topology{}, fmt.Errorf("%w: found %d", ErrNotEnoughParticipants, participants)
	}
	size := NextPowerOfTwo(participants)
	return Topology{
		Participants: participants,
		Size:         size,
		Rounds:       bits.TrailingZeros(uint(size)),
	}, nil
}

func (t Topology) MatchesIn(round int) int {
	if round < 1 || round > t.Rounds {
		return 0
	}
	return t.Size >> round
}

func (t Topology) TotalMatches() int {
	return t.Size - 1
}

func (t Topology) Byes() int {
	return t.Size - t.Participants
}

// Round1Opponent mirrors slot i against the opposite end of the ordering.
func (t Topology) Round1Opponent(slot int) int {
	return t.Size - 1 - slot
}

// NextFor returns where the winner of (round, position) goes; false on the final.
func (t Topology) NextFor(round, position int) (NextRef, bool) {
	if round >= t.Rounds {
		return NextRef{}, false
	}
	return Next(round, position), true
}

// Next is the progression rule: even positions feed side 1, odd feed side 2.
func Next(round, position int) NextRef {
	side := SideOne
	if position%2 != 0 {
		side = SideTwo
	}
	return NextRef{Round: round + 1, Position: position / 2, Side: side}
}
