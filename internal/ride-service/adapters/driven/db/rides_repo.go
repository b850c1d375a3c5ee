package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/finere-dem/MaliTrans/internal/ride-service/core/domain/model"
	"github.com/finere-dem/MaliTrans/internal/ride-service/core/myerrors"
	"github.com/finere-dem/MaliTrans/internal/ride-service/core/ports"

	"github.com/jackc/pgx/v5"
)

const rideColumns = `id, origin, destination, client_id, supplier_id, driver_id,
	flow_type, status, pickup_code, delivery_code, price,
	other_party_name, other_party_phone, created_at`

type RidesRepo struct {
	db *DB
}

func NewRidesRepo(db *DB) ports.IRidesRepo {
	return &RidesRepo{db: db}
}

func (rr *RidesRepo) Create(ctx context.Context, m model.RideRequest) (model.RideRequest, error) {
	q := `INSERT INTO ride_requests(
			origin,
			destination,
			client_id,
			supplier_id,
			flow_type,
			status,
			pickup_code,
			delivery_code,
			price,
			other_party_name,
			other_party_phone
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + rideColumns

	row := rr.db.pool.QueryRow(ctx, q,
		m.Origin,
		m.Destination,
		m.ClientID,
		m.SupplierID,
		string(m.FlowType),
		string(m.Status),
		m.PickupCode,
		m.DeliveryCode,
		m.Price,
		m.OtherPartyName,
		m.OtherPartyPhone,
	)
	return scanRide(row)
}

func (rr *RidesRepo) FindById(ctx context.Context, rideId int64) (model.RideRequest, error) {
	q := `SELECT ` + rideColumns + ` FROM ride_requests WHERE id = $1`

	ride, err := scanRide(rr.db.pool.QueryRow(ctx, q, rideId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RideRequest{}, myerrors.ErrRideNotFound
		}
		return model.RideRequest{}, err
	}
	return ride, nil
}

func (rr *RidesRepo) ListByStatus(ctx context.Context, status model.Status) ([]model.RideRequest, error) {
	q := `SELECT ` + rideColumns + ` FROM ride_requests WHERE status = $1 ORDER BY created_at DESC`

	rows, err := rr.db.pool.Query(ctx, q, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRides(rows)
}

func (rr *RidesRepo) ListByOwner(ctx context.Context, userId int64) ([]model.RideRequest, error) {
	q := `SELECT ` + rideColumns + ` FROM ride_requests
		WHERE client_id = $1 OR supplier_id = $1
		ORDER BY created_at DESC`

	rows, err := rr.db.pool.Query(ctx, q, userId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRides(rows)
}

func (rr *RidesRepo) ListByDriver(ctx context.Context, driverId int64, statuses []model.Status, page, limit int) ([]model.RideRequest, int64, error) {
	strStatuses := make([]string, 0, len(statuses))
	for _, s := range statuses {
		strStatuses = append(strStatuses, string(s))
	}

	qCount := `SELECT COUNT(*) FROM ride_requests WHERE driver_id = $1 AND status = ANY($2)`
	var total int64
	if err := rr.db.pool.QueryRow(ctx, qCount, driverId, strStatuses).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + rideColumns + ` FROM ride_requests
		WHERE driver_id = $1 AND status = ANY($2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := rr.db.pool.Query(ctx, q, driverId, strStatuses, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	rides, err := scanRides(rows)
	if err != nil {
		return nil, 0, err
	}
	return rides, total, nil
}

// MarkValidated is a single statement so the status flip and the one-shot
// code fill cannot be separated: COALESCE keeps any code that already exists.
func (rr *RidesRepo) MarkValidated(ctx context.Context, rideId int64, pickupCode, deliveryCode string) (model.RideRequest, bool, error) {
	q := `UPDATE ride_requests SET
			status = 'READY_FOR_PICKUP',
			pickup_code = COALESCE(pickup_code, $2),
			delivery_code = COALESCE(delivery_code, $3)
		WHERE id = $1
			AND status IN ('WAITING_SUPPLIER_VALIDATION', 'WAITING_CLIENT_VALIDATION')
		RETURNING ` + rideColumns

	ride, err := scanRide(rr.db.pool.QueryRow(ctx, q, rideId, pickupCode, deliveryCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RideRequest{}, false, nil
		}
		return model.RideRequest{}, false, err
	}
	return ride, true, nil
}

// Claim is the arbiter's check-and-set: the WHERE clause re-checks state and
// unassignment inside the same statement, so of N concurrent claims exactly
// one matches the row. Losers see no row and get ok=false.
func (rr *RidesRepo) Claim(ctx context.Context, rideId, driverId int64) (model.RideRequest, bool, error) {
	q := `UPDATE ride_requests SET
			driver_id = $2,
			status = 'DRIVER_ACCEPTED'
		WHERE id = $1
			AND status = 'READY_FOR_PICKUP'
			AND driver_id IS NULL
		RETURNING ` + rideColumns

	ride, err := scanRide(rr.db.pool.QueryRow(ctx, q, rideId, driverId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RideRequest{}, false, nil
		}
		return model.RideRequest{}, false, err
	}
	return ride, true, nil
}

func (rr *RidesRepo) UpdateStatus(ctx context.Context, rideId int64, from, to model.Status) (model.RideRequest, bool, error) {
	q := `UPDATE ride_requests SET status = $3
		WHERE id = $1 AND status = $2
		RETURNING ` + rideColumns

	ride, err := scanRide(rr.db.pool.QueryRow(ctx, q, rideId, string(from), string(to)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RideRequest{}, false, nil
		}
		return model.RideRequest{}, false, err
	}
	return ride, true, nil
}

func (rr *RidesRepo) UpdatePrice(ctx context.Context, rideId int64, price float64) (model.RideRequest, bool, error) {
	q := `UPDATE ride_requests SET price = $2
		WHERE id = $1
			AND driver_id IS NULL
			AND status IN ('WAITING_SUPPLIER_VALIDATION', 'WAITING_CLIENT_VALIDATION', 'READY_FOR_PICKUP')
		RETURNING ` + rideColumns

	ride, err := scanRide(rr.db.pool.QueryRow(ctx, q, rideId, price))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RideRequest{}, false, nil
		}
		return model.RideRequest{}, false, err
	}
	return ride, true, nil
}

func scanRide(row pgx.Row) (model.RideRequest, error) {
	var (
		m        model.RideRequest
		flowType string
		status   string
	)
	err := row.Scan(
		&m.ID,
		&m.Origin,
		&m.Destination,
		&m.ClientID,
		&m.SupplierID,
		&m.DriverID,
		&flowType,
		&status,
		&m.PickupCode,
		&m.DeliveryCode,
		&m.Price,
		&m.OtherPartyName,
		&m.OtherPartyPhone,
		&m.CreatedAt,
	)
	if err != nil {
		return model.RideRequest{}, err
	}
	m.FlowType = model.FlowType(flowType)
	m.Status = model.Status(status)
	return m, nil
}

func scanRides(rows pgx.Rows) ([]model.RideRequest, error) {
	var out []model.RideRequest
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ride row: %w", err)
		}
		out = append(out, ride)
	}
	return out, rows.Err()
}
