package postgresql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/alexandresoro/ouca-sub007/internal/entity"
)

type SettingsRepository struct {
	db DB
}

func NewSettingsRepository(db DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// CoordinatesSystem returns the user's system, GPS when the user never chose one.
func (r *SettingsRepository) CoordinatesSystem(ctx context.Context, userID string) (entity.CoordinatesSystem, error) {
	const q = `SELECT coordinates_system FROM settings WHERE user_id = $1;`

	var system string
	if err := r.db.QueryRow(ctx, q, userID).Scan(&system); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.GPS, nil
		}
		return "", err
	}
	return entity.CoordinatesSystem(system), nil
}

func (r *SettingsRepository) SetCoordinatesSystem(ctx context.Context, userID string, system entity.CoordinatesSystem) error {
	const q = `
INSERT INTO settings (user_id, coordinates_system)
VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET coordinates_system = EXCLUDED.coordinates_system;
`
	_, err := r.db.Exec(ctx, q, userID, string(system))
	return err
}
