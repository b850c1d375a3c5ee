package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/finere-dem/MaliTrans/internal/driver-service/core/domain/model"
	"github.com/finere-dem/MaliTrans/internal/driver-service/core/myerrors"
	"github.com/finere-dem/MaliTrans/internal/driver-service/core/ports"

	"github.com/jackc/pgx/v5"
)

const driverColumns = `u.id, u.username,
	COALESCE(u.first_name, ''), COALESCE(u.last_name, ''),
	COALESCE(u.phone, ''), COALESCE(u.address, ''),
	COALESCE(u.vehicle_type, ''), u.role, u.company_id,
	COALESCE(c.name, ''), u.status,
	COALESCE(u.identity_document_url, ''), COALESCE(u.matricule, ''),
	COALESCE(u.rejection_reason, ''), COALESCE(u.rating, 0)`

const driverFrom = ` FROM users u LEFT JOIN companies c ON c.id = u.company_id `

const guarantorColumns = `id, driver_id, name, phone,
	COALESCE(address, ''), COALESCE(relation, ''),
	COALESCE(identity_document_url, '')`

const noteColumns = `id, driver_id, author_id, value, COALESCE(comment, ''), created_at`

type DriversRepo struct {
	db *DB
}

func NewDriversRepo(db *DB) ports.IDriversRepo {
	return &DriversRepo{db: db}
}

func (dr *DriversRepo) FindById(ctx context.Context, driverId int64) (model.Driver, error) {
	q := `SELECT ` + driverColumns + driverFrom + `WHERE u.id = $1`

	driver, err := scanDriver(dr.db.pool.QueryRow(ctx, q, driverId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Driver{}, myerrors.ErrDriverNotFound
		}
		return model.Driver{}, err
	}
	return driver, nil
}

func (dr *DriversRepo) CompanyOf(ctx context.Context, userId int64) (*int64, error) {
	q := `SELECT company_id FROM users WHERE id = $1`

	var companyId *int64
	if err := dr.db.pool.QueryRow(ctx, q, userId).Scan(&companyId); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, myerrors.ErrDriverNotFound
		}
		return nil, err
	}
	return companyId, nil
}

func (dr *DriversRepo) ListByCompany(ctx context.Context, companyId int64, filter ports.DriverFilter) ([]model.Driver, int64, error) {
	where := `WHERE u.company_id = $1 AND u.role = 'DRIVER'`
	args := []any{companyId}

	if filter.Status != "" {
		args = append(args, expandStatuses([]model.DriverStatus{filter.Status}))
		where += fmt.Sprintf(` AND u.status = ANY($%d)`, len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where += fmt.Sprintf(` AND (u.username ILIKE $%d OR u.first_name ILIKE $%d OR u.last_name ILIKE $%d OR u.phone ILIKE $%d)`, n, n, n, n)
	}

	var total int64
	if err := dr.db.pool.QueryRow(ctx, `SELECT COUNT(*)`+driverFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	q := `SELECT ` + driverColumns + driverFrom + where +
		fmt.Sprintf(` ORDER BY u.id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := dr.db.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	drivers, err := scanDrivers(rows)
	if err != nil {
		return nil, 0, err
	}
	return drivers, total, nil
}

func (dr *DriversRepo) ListPendingAdmin(ctx context.Context) ([]model.Driver, error) {
	q := `SELECT ` + driverColumns + driverFrom + `
		WHERE u.role = 'DRIVER' AND u.status = ANY($1)
		ORDER BY u.id`

	rows, err := dr.db.pool.Query(ctx, q,
		expandStatuses([]model.DriverStatus{model.StatusPendingAdminApproval}))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDrivers(rows)
}

// ApplyCompanyVerification runs the verification write as one transaction.
// The conditional status flip goes first so a driver that already moved on
// aborts before the guarantor set is touched.
func (dr *DriversRepo) ApplyCompanyVerification(ctx context.Context, driverId int64, guarantors []model.Guarantor, matricule string) (model.Driver, bool, error) {
	tx, err := dr.db.pool.Begin(ctx)
	if err != nil {
		return model.Driver{}, false, err
	}
	defer tx.Rollback(ctx)

	q := `UPDATE users SET
			status = 'PENDING_ADMIN_APPROVAL',
			matricule = COALESCE(NULLIF(matricule, ''), $2)
		WHERE id = $1
			AND role = 'DRIVER'
			AND status = 'PENDING_COMPANY_VERIFICATION'`

	tag, err := tx.Exec(ctx, q, driverId, matricule)
	if err != nil {
		return model.Driver{}, false, err
	}
	if tag.RowsAffected() == 0 {
		return model.Driver{}, false, nil
	}

	if _, err := tx.Exec(ctx, `DELETE FROM guarantors WHERE driver_id = $1`, driverId); err != nil {
		return model.Driver{}, false, err
	}
	for _, g := range guarantors {
		_, err := tx.Exec(ctx, `INSERT INTO guarantors(
				driver_id, name, phone, address, relation, identity_document_url
			) VALUES ($1, $2, $3, $4, $5, $6)`,
			driverId, g.Name, g.Phone, g.Address, g.Relation, g.IdentityDocumentURL)
		if err != nil {
			return model.Driver{}, false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Driver{}, false, err
	}

	driver, err := dr.FindById(ctx, driverId)
	if err != nil {
		return model.Driver{}, false, err
	}
	return driver, true, nil
}

func (dr *DriversRepo) UpdateStatus(ctx context.Context, driverId int64, from []model.DriverStatus, to model.DriverStatus, reason *string) (model.Driver, bool, error) {
	q := `UPDATE users SET
			status = $3,
			rejection_reason = COALESCE($4, rejection_reason)
		WHERE id = $1
			AND role = 'DRIVER'
			AND status = ANY($2)`

	tag, err := dr.db.pool.Exec(ctx, q, driverId, expandStatuses(from), string(to), reason)
	if err != nil {
		return model.Driver{}, false, err
	}
	if tag.RowsAffected() == 0 {
		return model.Driver{}, false, nil
	}

	driver, err := dr.FindById(ctx, driverId)
	if err != nil {
		return model.Driver{}, false, err
	}
	return driver, true, nil
}

func (dr *DriversRepo) ListGuarantors(ctx context.Context, driverId int64) ([]model.Guarantor, error) {
	q := `SELECT ` + guarantorColumns + ` FROM guarantors WHERE driver_id = $1 ORDER BY id`

	rows, err := dr.db.pool.Query(ctx, q, driverId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Guarantor
	for rows.Next() {
		var g model.Guarantor
		if err := rows.Scan(&g.ID, &g.DriverID, &g.Name, &g.Phone, &g.Address, &g.Relation, &g.IdentityDocumentURL); err != nil {
			return nil, fmt.Errorf("failed to scan guarantor row: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (dr *DriversRepo) AddGuarantor(ctx context.Context, g model.Guarantor) (model.Guarantor, error) {
	q := `INSERT INTO guarantors(
			driver_id, name, phone, address, relation, identity_document_url
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + guarantorColumns

	var saved model.Guarantor
	err := dr.db.pool.QueryRow(ctx, q,
		g.DriverID, g.Name, g.Phone, g.Address, g.Relation, g.IdentityDocumentURL,
	).Scan(&saved.ID, &saved.DriverID, &saved.Name, &saved.Phone, &saved.Address, &saved.Relation, &saved.IdentityDocumentURL)
	if err != nil {
		return model.Guarantor{}, err
	}
	return saved, nil
}

func (dr *DriversRepo) UpdateIdentityDocument(ctx context.Context, driverId int64, url string) (model.Driver, error) {
	q := `UPDATE users SET identity_document_url = $2 WHERE id = $1 AND role = 'DRIVER'`

	tag, err := dr.db.pool.Exec(ctx, q, driverId, url)
	if err != nil {
		return model.Driver{}, err
	}
	if tag.RowsAffected() == 0 {
		return model.Driver{}, myerrors.ErrDriverNotFound
	}
	return dr.FindById(ctx, driverId)
}

// AddNote inserts the note and recomputes the driver's stored rating from all
// notes in the same transaction, so the average never drifts from the rows it
// summarizes.
func (dr *DriversRepo) AddNote(ctx context.Context, n model.Note) (model.Note, error) {
	tx, err := dr.db.pool.Begin(ctx)
	if err != nil {
		return model.Note{}, err
	}
	defer tx.Rollback(ctx)

	q := `INSERT INTO driver_notes(driver_id, author_id, value, comment)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING ` + noteColumns

	saved, err := scanNote(tx.QueryRow(ctx, q, n.DriverID, n.AuthorID, n.Value, n.Comment))
	if err != nil {
		return model.Note{}, err
	}

	_, err = tx.Exec(ctx, `UPDATE users SET
			rating = (SELECT AVG(value) FROM driver_notes WHERE driver_id = $1)
		WHERE id = $1`, n.DriverID)
	if err != nil {
		return model.Note{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Note{}, err
	}
	return saved, nil
}

func (dr *DriversRepo) ListNotes(ctx context.Context, driverId int64) ([]model.Note, error) {
	q := `SELECT ` + noteColumns + ` FROM driver_notes WHERE driver_id = $1 ORDER BY id DESC`

	rows, err := dr.db.pool.Query(ctx, q, driverId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note row: %w", err)
		}
		out = append(out, note)
	}
	return out, rows.Err()
}

// expandStatuses widens a canonical status set with the legacy aliases that
// may still be stored, so conditional updates keep matching old rows.
func expandStatuses(statuses []model.DriverStatus) []string {
	out := make([]string, 0, len(statuses)+1)
	for _, s := range statuses {
		out = append(out, string(s))
		if s == model.StatusPendingAdminApproval {
			out = append(out, string(model.StatusPendingValidation))
		}
	}
	return out
}

func scanDriver(row pgx.Row) (model.Driver, error) {
	var (
		m      model.Driver
		status string
	)
	err := row.Scan(
		&m.ID,
		&m.Username,
		&m.FirstName,
		&m.LastName,
		&m.Phone,
		&m.Address,
		&m.VehicleType,
		&m.Role,
		&m.CompanyID,
		&m.CompanyName,
		&status,
		&m.IdentityDocumentURL,
		&m.Matricule,
		&m.RejectionReason,
		&m.Rating,
	)
	if err != nil {
		return model.Driver{}, err
	}
	m.Status = model.Normalize(model.DriverStatus(status))
	return m, nil
}

func scanNote(row pgx.Row) (model.Note, error) {
	var n model.Note
	err := row.Scan(&n.ID, &n.DriverID, &n.AuthorID, &n.Value, &n.Comment, &n.CreatedAt)
	if err != nil {
		return model.Note{}, err
	}
	return n, nil
}

func scanDrivers(rows pgx.Rows) ([]model.Driver, error) {
	var out []model.Driver
	for rows.Next() {
		driver, err := scanDriver(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan driver row: %w", err)
		}
		out = append(out, driver)
	}
	return out, rows.Err()
}
