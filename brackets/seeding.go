package brackets

import (
	"errors"
	"fmt"
	"sort"
)

var ErrInvalidSeeds = errors.New("invalid seeds")

// SeedAssignment ranks one registration; 1 is the strongest seed.
type SeedAssignment struct {
	RegistrationID int64 `json:"registration_id"`
	SeedNumber     int   `json:"seed_number"`
}

// BuildSeedMap validates the requested seeds and indexes them by registration.
// Seed numbers must be positive and unique, and a registration may be seeded once.
func BuildSeedMap(seeds []SeedAssignment) (map[int64]int, error) {
	if len(seeds) == 0 {
		return nil, nil
	}

	seedMap := make(map[int64]int, len(seeds))
	taken := make(map[int]int64, len(seeds))
	for _, s := range seeds {
		if s.RegistrationID <= 0 {
			return nil, fmt.Errorf("%w: registration id must be positive, got %d", ErrInvalidSeeds, s.RegistrationID)
		}
		if s.SeedNumber < 1 {
			return nil, fmt.Errorf("%w: seed number must be >= 1, got %d for registration %d", ErrInvalidSeeds, s.SeedNumber, s.RegistrationID)
		}
		if other, dup := taken[s.SeedNumber]; dup {
			return nil, fmt.Errorf("%w: duplicate seed number %d (registrations %d and %d)", ErrInvalidSeeds, s.SeedNumber, other, s.RegistrationID)
		}
		if _, dup := seedMap[s.RegistrationID]; dup {
			return nil, fmt.Errorf("%w: registration %d seeded more than once", ErrInvalidSeeds, s.RegistrationID)
		}
		taken[s.SeedNumber] = s.RegistrationID
		seedMap[s.RegistrationID] = s.SeedNumber
	}
	return seedMap, nil
}

// OrderBySeed puts seeded registrations first in ascending seed number,
// followed by the unseeded ones in their input order. Seeds for registrations
// missing from regs are ignored. The input slice is never modified.
func OrderBySeed(regs []int64, seeds map[int64]int) []int64 {
	ordered := make([]int64, 0, len(regs))
	if len(seeds) == 0 {
		return append(ordered, regs...)
	}

	unseeded := make([]int64, 0, len(regs))
	for _, id := range regs {
		if _, ok := seeds[id]; ok {
			ordered = append(ordered, id)
		} else {
			unseeded = append(unseeded, id)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return seeds[ordered[i]] < seeds[ordered[j]]
	})
	return append(ordered, unseeded...)
}
