package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/venky0589/arenaflow/models"
)

var (
	ErrMatchNotFound        = errors.New("match not found")
	ErrMatchSlotConflict    = errors.New("match slot (category, round, position) already taken")
	ErrMatchCategoryInvalid = errors.New("match category conflict or invalid")
	ErrMatchReferenceBroken = errors.New("match references a missing match or registration")
	ErrMatchInvalid         = errors.New("match violates a table constraint")
)

type MatchRepository interface {
	ExistsForCategory(ctx context.Context, exec SQLExecutor, categoryID int64) (bool, error)
	ListByCategory(ctx context.Context, exec SQLExecutor, categoryID int64) ([]*models.Match, error)
	GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Match, error)
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	Update(ctx context.Context, exec SQLExecutor, match *models.Match) error
	// Save inserts a match without identity and updates one that has it.
	Save(ctx context.Context, exec SQLExecutor, match *models.Match) error
	Delete(ctx context.Context, exec SQLExecutor, id int64) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, category_id, round, position, participant1_registration_id, participant2_registration_id,
		       bye, next_match_id, winner_advances_as, status, created_at, updated_at`

func (r *postgresMatchRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec == nil {
		return r.db
	}
	return exec
}

func (r *postgresMatchRepository) ExistsForCategory(ctx context.Context, exec SQLExecutor, categoryID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM matches WHERE category_id = $1)`
	var exists bool
	if err := r.executor(exec).QueryRowContext(ctx, query, categoryID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check matches for category %d: %w", categoryID, err)
	}
	return exists, nil
}

func (r *postgresMatchRepository) ListByCategory(ctx context.Context, exec SQLExecutor, categoryID int64) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE category_id = $1
		ORDER BY round ASC, position ASC`

	rows, err := r.executor(exec).QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for category %d: %w", categoryID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int64) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	m, err := scanMatch(r.executor(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches
			(category_id, round, position, participant1_registration_id, participant2_registration_id,
			 bye, next_match_id, winner_advances_as, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.executor(exec).QueryRowContext(ctx, query,
		match.CategoryID,
		match.Round,
		match.Position,
		match.Participant1RegistrationID,
		match.Participant2RegistrationID,
		match.Bye,
		match.NextMatchID,
		match.WinnerAdvancesAs,
		match.Status,
	).Scan(&match.ID, &match.CreatedAt, &match.UpdatedAt)

	return handleMatchError(err)
}

func (r *postgresMatchRepository) Update(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		UPDATE matches
		SET participant1_registration_id = $1, participant2_registration_id = $2, bye = $3,
		    next_match_id = $4, winner_advances_as = $5, status = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at`

	err := r.executor(exec).QueryRowContext(ctx, query,
		match.Participant1RegistrationID,
		match.Participant2RegistrationID,
		match.Bye,
		match.NextMatchID,
		match.WinnerAdvancesAs,
		match.Status,
		match.ID,
	).Scan(&match.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrMatchNotFound
	}
	return handleMatchError(err)
}

func (r *postgresMatchRepository) Save(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	if match.ID == 0 {
		return r.Create(ctx, exec, match)
	}
	return r.Update(ctx, exec, match)
}

func (r *postgresMatchRepository) Delete(ctx context.Context, exec SQLExecutor, id int64) error {
	query := `DELETE FROM matches WHERE id = $1`
	result, err := r.executor(exec).ExecContext(ctx, query, id)
	if err != nil {
		return handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMatch(row rowScanner) (*models.Match, error) {
	var (
		m    models.Match
		side sql.NullInt16
	)
	err := row.Scan(
		&m.ID,
		&m.CategoryID,
		&m.Round,
		&m.Position,
		&m.Participant1RegistrationID,
		&m.Participant2RegistrationID,
		&m.Bye,
		&m.NextMatchID,
		&side,
		&m.Status,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if side.Valid {
		v := int(side.Int16)
		m.WinnerAdvancesAs = &v
	}
	return &m, nil
}

func handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			if pqErr.Constraint == "matches_category_round_position_key" {
				return fmt.Errorf("%w: %v", ErrMatchSlotConflict, err)
			}
		case pqForeignKeyViolation:
			switch pqErr.Constraint {
			case "matches_category_id_fkey":
				return ErrMatchCategoryInvalid
			case "matches_next_match_id_fkey",
				"matches_participant1_registration_id_fkey",
				"matches_participant2_registration_id_fkey":
				return fmt.Errorf("%w: %s", ErrMatchReferenceBroken, pqErr.Constraint)
			}
		case pqCheckViolation:
			return fmt.Errorf("%w: %s", ErrMatchInvalid, pqErr.Constraint)
		case pqSerializationFailure:
			return fmt.Errorf("%w: %v", ErrMatchSlotConflict, err)
		}
	}
	return err
}

// classifyTxError maps a lost serialization race to a slot conflict; a
// concurrent generator for the same category committed first.
func classifyTxError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqSerializationFailure {
		return fmt.Errorf("%w: %v", ErrMatchSlotConflict, err)
	}
	return err
}
