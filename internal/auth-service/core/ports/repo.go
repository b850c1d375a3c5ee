package ports

import (
	"context"

	"github.com/finere-dem/MaliTrans/internal/auth-service/core/domain/model"
)

type IUsersRepo interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	MarkVerified(ctx context.Context, userId int64) (model.User, error)

	// CompanyActive reports whether the company exists and is active.
	// Unknown ids are (false, nil), not an error.
	CompanyActive(ctx context.Context, companyId int64) (bool, error)

	// SaveOtp replaces any previous code for the user.
	SaveOtp(ctx context.Context, otp model.OtpCode) error
	// ConsumeOtp atomically removes and returns the user's pending code, so
	// a code can be redeemed at most once. ok=false when none is stored.
	ConsumeOtp(ctx context.Context, userId int64) (model.OtpCode, bool, error)
}
