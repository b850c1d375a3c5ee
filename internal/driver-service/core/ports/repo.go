package ports

import (
	"context"

	"github.com/finere-dem/MaliTrans/internal/driver-service/core/domain/model"
)

// DriverFilter narrows company listings. Zero values mean "no filter".
type DriverFilter struct {
	Status model.DriverStatus
	Search string
	Page   int
	Limit  int
}

type IDriversRepo interface {
	FindById(ctx context.Context, driverId int64) (model.Driver, error)
	// CompanyOf returns the company_id of any user row, nil when unset.
	CompanyOf(ctx context.Context, userId int64) (*int64, error)

	ListByCompany(ctx context.Context, companyId int64, filter DriverFilter) ([]model.Driver, int64, error)
	ListPendingAdmin(ctx context.Context) ([]model.Driver, error)

	// ApplyCompanyVerification runs the whole verification write in one
	// transaction: wholesale guarantor replacement, matricule assignment
	// (kept if one already exists) and the move to PENDING_ADMIN_APPROVAL,
	// conditional on the driver still being PENDING_COMPANY_VERIFICATION.
	// ok=false means the condition no longer held.
	ApplyCompanyVerification(ctx context.Context, driverId int64, guarantors []model.Guarantor, matricule string) (model.Driver, bool, error)

	// UpdateStatus moves the driver to the target status only if the current
	// stored status is in from (legacy aliases expanded internally). A non-nil
	// reason is stored alongside. ok=false means no row matched the condition.
	UpdateStatus(ctx context.Context, driverId int64, from []model.DriverStatus, to model.DriverStatus, reason *string) (model.Driver, bool, error)

	ListGuarantors(ctx context.Context, driverId int64) ([]model.Guarantor, error)
	AddGuarantor(ctx context.Context, g model.Guarantor) (model.Guarantor, error)
	UpdateIdentityDocument(ctx context.Context, driverId int64, url string) (model.Driver, error)

	// AddNote stores the note and refreshes the driver's stored rating to the
	// average of all note values, in one transaction.
	AddNote(ctx context.Context, n model.Note) (model.Note, error)
	ListNotes(ctx context.Context, driverId int64) ([]model.Note, error)
}
