package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/venky0589/arenaflow/models"
)

type RegistrationRepository interface {
	// ListByCategory returns registrations in insertion order.
	ListByCategory(ctx context.Context, exec SQLExecutor, categoryID int64) ([]*models.Registration, error)
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) ListByCategory(ctx context.Context, exec SQLExecutor, categoryID int64) ([]*models.Registration, error) {
	if exec == nil {
		exec = r.db
	}
	query := `
		SELECT id, category_id, player_id, partner_id, created_at
		FROM registrations
		WHERE category_id = $1
		ORDER BY id ASC`

	rows, err := exec.QueryContext(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations for category %d: %w", categoryID, err)
	}
	defer rows.Close()

	registrations := make([]*models.Registration, 0)
	for rows.Next() {
		var reg models.Registration
		if scanErr := rows.Scan(
			&reg.ID,
			&reg.CategoryID,
			&reg.PlayerID,
			&reg.PartnerID,
			&reg.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", scanErr)
		}
		registrations = append(registrations, &reg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during registration rows iteration: %w", err)
	}
	return registrations, nil
}
