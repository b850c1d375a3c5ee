package ports

import "github.com/finere-dem/MaliTrans/internal/driver-service/core/domain/dto"

// Caller identifies the authenticated principal behind a request.
type Caller struct {
	UserId int64
	Role   string
}

type IOnboardingService interface {
	// company surface
	CompanyVerify(caller Caller, driverId int64, guarantors []dto.GuarantorDto) (dto.DossierDto, error)
	CompanyDrivers(caller Caller, filter DriverFilterDto) (dto.PaginatedDriversDto, error)
	CompanyPending(caller Caller) ([]dto.DriverResponseDto, error)
	CompanyDossier(caller Caller, driverId int64) (dto.DossierDto, error)

	// admin surface
	AdminPending(caller Caller) ([]dto.DriverResponseDto, error)
	AdminActivate(caller Caller, driverId int64) (dto.DriverResponseDto, error)
	AdminReject(caller Caller, driverId int64, reason string) (dto.DriverResponseDto, error)
	AdminSuspend(caller Caller, driverId int64) (dto.DriverResponseDto, error)
	AdminUnsuspend(caller Caller, driverId int64) (dto.DriverResponseDto, error)

	// driver self-service
	Me(caller Caller) (dto.DossierDto, error)
	AddGuarantor(caller Caller, g dto.GuarantorDto) (dto.GuarantorResponseDto, error)
	MyGuarantors(caller Caller) ([]dto.GuarantorResponseDto, error)
	UpdateDocument(caller Caller, url string) (dto.DriverResponseDto, error)
	RequestActivation(caller Caller) (dto.DriverResponseDto, error)

	// ratings
	RateDriver(caller Caller, driverId int64, req dto.NoteRequestDto) (dto.NoteResponseDto, error)
	DriverNotes(caller Caller, driverId int64) ([]dto.NoteResponseDto, error)
}

// DriverFilterDto carries the query parameters of the company listing.
type DriverFilterDto struct {
	Status string
	Search string
	Page   int
	Limit  int
}
