package services

import (
	"errors"

	"github.com/venky0589/arenaflow/brackets"
)

var (
	// Lookup
	ErrCategoryNotFound = errors.New("category not found for tournament")
	ErrBracketNotFound  = errors.New("category has no bracket")

	// Client errors
	ErrInvalidSeeds             = brackets.ErrInvalidSeeds
	ErrInsufficientParticipants = brackets.ErrNotEnoughParticipants
	ErrUnsupportedFormat        = errors.New("category format is not supported by the bracket generator")

	// Conflicts
	ErrBracketAlreadyExists = errors.New("bracket already exists")
	ErrBracketInProgress    = errors.New("bracket has matches past the draft state")

	// Internal
	ErrBracketCorrupted  = brackets.ErrBracketCorrupted
	ErrExportUnavailable = errors.New("bracket export storage is not configured")
)
