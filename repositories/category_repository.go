package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/venky0589/arenaflow/models"
)

var ErrCategoryNotFound = errors.New("category not found")

type CategoryRepository interface {
	// GetByIDAndTournament locks the category row for the rest of the transaction.
	GetByIDAndTournament(ctx context.Context, exec SQLExecutor, categoryID, tournamentID int64) (*models.Category, error)
	GetByID(ctx context.Context, exec SQLExecutor, categoryID int64) (*models.Category, error)
}

type postgresCategoryRepository struct {
	db *sql.DB
}

func NewPostgresCategoryRepository(db *sql.DB) CategoryRepository {
	return &postgresCategoryRepository{db: db}
}

const categoryColumns = `id, tournament_id, name, category_type, format, max_participants, created_at`

func (r *postgresCategoryRepository) GetByIDAndTournament(ctx context.Context, exec SQLExecutor, categoryID, tournamentID int64) (*models.Category, error) {
	query := `SELECT ` + categoryColumns + `
		FROM categories
		WHERE id = $1 AND tournament_id = $2
		FOR UPDATE`
	return r.scanOne(exec.QueryRowContext(ctx, query, categoryID, tournamentID), categoryID)
}

func (r *postgresCategoryRepository) GetByID(ctx context.Context, exec SQLExecutor, categoryID int64) (*models.Category, error) {
	if exec == nil {
		exec = r.db
	}
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	return r.scanOne(exec.QueryRowContext(ctx, query, categoryID), categoryID)
}

func (r *postgresCategoryRepository) scanOne(row *sql.Row, categoryID int64) (*models.Category, error) {
	c := &models.Category{}
	err := row.Scan(
		&c.ID,
		&c.TournamentID,
		&c.Name,
		&c.CategoryType,
		&c.Format,
		&c.MaxParticipants,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to scan category %d: %w", categoryID, err)
	}
	return c, nil
}
