package db

import (
	"context"
	"errors"

	"github.com/finere-dem/MaliTrans/internal/auth-service/core/domain/model"
	"github.com/finere-dem/MaliTrans/internal/auth-service/core/myerrors"
	"github.com/finere-dem/MaliTrans/internal/auth-service/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const userColumns = `id, username, password_hash, role,
	COALESCE(phone, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
	company_id, COALESCE(status, ''), verified, created_at`

type UsersRepo struct {
	db *DB
}

func NewUsersRepo(db *DB) ports.IUsersRepo {
	return &UsersRepo{db: db}
}

func (ur *UsersRepo) Create(ctx context.Context, u model.User) (model.User, error) {
	q := `INSERT INTO users(
			username, password_hash, role, phone,
			first_name, last_name, company_id, status, verified
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), FALSE)
		RETURNING ` + userColumns

	user, err := scanUser(ur.db.pool.QueryRow(ctx, q,
		u.Username,
		u.PasswordHash,
		u.Role,
		u.Phone,
		u.FirstName,
		u.LastName,
		u.CompanyID,
		u.Status,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 is the unique_violation class, here the username index
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return model.User{}, myerrors.ErrUserAlreadyExists
		}
		return model.User{}, err
	}
	return user, nil
}

func (ur *UsersRepo) FindByUsername(ctx context.Context, username string) (model.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(ur.db.pool.QueryRow(ctx, q, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, myerrors.ErrUserNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

func (ur *UsersRepo) MarkVerified(ctx context.Context, userId int64) (model.User, error) {
	q := `UPDATE users SET verified = TRUE WHERE id = $1 RETURNING ` + userColumns

	user, err := scanUser(ur.db.pool.QueryRow(ctx, q, userId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, myerrors.ErrUserNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

func (ur *UsersRepo) CompanyActive(ctx context.Context, companyId int64) (bool, error) {
	q := `SELECT active FROM companies WHERE id = $1`

	var active bool
	if err := ur.db.pool.QueryRow(ctx, q, companyId).Scan(&active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return active, nil
}

func (ur *UsersRepo) SaveOtp(ctx context.Context, otp model.OtpCode) error {
	q := `INSERT INTO otp_codes(user_id, code, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET code = $2, expires_at = $3`

	_, err := ur.db.pool.Exec(ctx, q, otp.UserID, otp.Code, otp.ExpiresAt)
	return err
}

// ConsumeOtp deletes and returns in one statement, so two concurrent
// redemptions cannot both succeed.
func (ur *UsersRepo) ConsumeOtp(ctx context.Context, userId int64) (model.OtpCode, bool, error) {
	q := `DELETE FROM otp_codes WHERE user_id = $1 RETURNING user_id, code, expires_at`

	var otp model.OtpCode
	err := ur.db.pool.QueryRow(ctx, q, userId).Scan(&otp.UserID, &otp.Code, &otp.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.OtpCode{}, false, nil
		}
		return model.OtpCode{}, false, err
	}
	return otp, true, nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var m model.User
	err := row.Scan(
		&m.ID,
		&m.Username,
		&m.PasswordHash,
		&m.Role,
		&m.Phone,
		&m.FirstName,
		&m.LastName,
		&m.CompanyID,
		&m.Status,
		&m.Verified,
		&m.CreatedAt,
	)
	if err != nil {
		return model.User{}, err
	}
	return m, nil
}
