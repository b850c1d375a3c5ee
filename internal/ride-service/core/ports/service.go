package ports

import (
	"github.com/finere-dem/MaliTrans/internal/ride-service/core/domain/dto"
)

// Caller identifies the already-authenticated user behind a request. The core
// never reaches into ambient state for this; every entry point takes it
// explicitly.
type Caller struct {
	UserId int64
	Role   string
}

type IRidesService interface {
	CreateRide(caller Caller, req dto.RideCreateRequestDto) (dto.RideResponseDto, error)
	GetRide(caller Caller, rideId int64) (dto.RideResponseDto, error)
	ListReady(caller Caller) ([]dto.RideResponseDto, error)
	Validate(caller Caller, rideId int64) (dto.RideResponseDto, error)
	Claim(caller Caller, rideId int64) (dto.RideResponseDto, error)
	ConfirmPickup(caller Caller, rideId int64, code string) (dto.RideResponseDto, error)
	ConfirmDelivery(caller Caller, rideId int64, code string) (dto.RideResponseDto, error)
	Cancel(caller Caller, rideId int64) (dto.RideResponseDto, error)
	UpdatePrice(caller Caller, rideId int64, price float64) (dto.RideResponseDto, error)
	History(caller Caller, page, limit int) (dto.PaginatedRidesDto, error)
	ActiveForDriver(caller Caller) ([]dto.RideResponseDto, error)
}
