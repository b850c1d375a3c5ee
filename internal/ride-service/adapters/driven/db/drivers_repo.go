package db

import (
	"context"
	"errors"

	"github.com/finere-dem/MaliTrans/internal/ride-service/core/myerrors"
	"github.com/finere-dem/MaliTrans/internal/ride-service/core/ports"

	"github.com/jackc/pgx/v5"
)

// DriversRepo gives the ride service read access to driver onboarding status.
// The legacy PENDING_VALIDATION tag is normalized here so the arbiter only
// ever compares against canonical statuses.
type DriversRepo struct {
	db *DB
}

func NewDriversRepo(db *DB) ports.IDriversRepo {
	return &DriversRepo{db: db}
}

func (dr *DriversRepo) GetDriverStatus(ctx context.Context, driverId int64) (string, error) {
	q := `SELECT status FROM users WHERE id = $1 AND role = 'DRIVER'`

	var status string
	err := dr.db.pool.QueryRow(ctx, q, driverId).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", myerrors.ErrUserNotFound
		}
		return "", err
	}
	if status == "PENDING_VALIDATION" {
		status = "PENDING_ADMIN_APPROVAL"
	}
	return status, nil
}
