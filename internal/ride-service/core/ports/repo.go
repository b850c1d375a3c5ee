package ports

import (
	"context"

	"github.com/finere-dem/MaliTrans/internal/ride-service/core/domain/model"
)

type IRidesRepo interface {
	Create(ctx context.Context, r model.RideRequest) (model.RideRequest, error)
	FindById(ctx context.Context, rideId int64) (model.RideRequest, error)
	ListByStatus(ctx context.Context, status model.Status) ([]model.RideRequest, error)
	ListByOwner(ctx context.Context, userId int64) ([]model.RideRequest, error)
	ListByDriver(ctx context.Context, driverId int64, statuses []model.Status, page, limit int) ([]model.RideRequest, int64, error)

	// MarkValidated flips a waiting ride to READY_FOR_PICKUP and fills any
	// still-missing code with the supplied candidate, all in one statement.
	// Codes already present are kept. Returns false when the ride was not in
	// a waiting state anymore.
	MarkValidated(ctx context.Context, rideId int64, pickupCode, deliveryCode string) (model.RideRequest, bool, error)

	// Claim performs the first-come-first-served assignment as one atomic
	// conditional update. It returns false when the conditional matched no
	// row, i.e. someone else already won.
	Claim(ctx context.Context, rideId, driverId int64) (model.RideRequest, bool, error)

	// UpdateStatus moves the ride from exactly `from` to `to`. Returns false
	// when the ride was not in `from` at commit time.
	UpdateStatus(ctx context.Context, rideId int64, from, to model.Status) (model.RideRequest, bool, error)

	// UpdatePrice changes the price while the ride is still unclaimed.
	UpdatePrice(ctx context.Context, rideId int64, price float64) (model.RideRequest, bool, error)
}

type IDriversRepo interface {
	// GetDriverStatus returns the onboarding status of a driver account.
	GetDriverStatus(ctx context.Context, driverId int64) (string, error)
}
