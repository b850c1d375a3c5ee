package model

import "time"

// Onboarding status of a driver account. Only ACTIVE drivers can see and
// claim rides.
type DriverStatus string

const (
	StatusPendingCompanyVerification DriverStatus = "PENDING_COMPANY_VERIFICATION"
	StatusPendingAdminApproval       DriverStatus = "PENDING_ADMIN_APPROVAL"
	StatusActive                     DriverStatus = "ACTIVE"
	StatusSuspended                  DriverStatus = "SUSPENDED"
	StatusRejected                   DriverStatus = "REJECTED"

	// StatusPendingValidation is the pre-pipeline tag some stored records
	// still carry. It is normalized to PENDING_ADMIN_APPROVAL at the storage
	// boundary; transition logic never sees it.
	StatusPendingValidation DriverStatus = "PENDING_VALIDATION"
)

// Normalize maps legacy tags to their canonical equivalent.
func Normalize(s DriverStatus) DriverStatus {
	if s == StatusPendingValidation {
		return StatusPendingAdminApproval
	}
	return s
}

const (
	RoleClient         = "CLIENT"
	RoleDriver         = "DRIVER"
	RoleSupplier       = "SUPPLIER"
	RoleCompanyManager = "COMPANY_MANAGER"
	RoleAdmin          = "ADMIN"
)

type Driver struct {
	ID                  int64
	Username            string
	FirstName           string
	LastName            string
	Phone               string
	Address             string
	VehicleType         string
	Role                string
	CompanyID           *int64
	CompanyName         string
	Status              DriverStatus
	IdentityDocumentURL string
	Matricule           string
	RejectionReason     string
	Rating              float64
}

func (d Driver) FullName() string {
	switch {
	case d.FirstName == "" && d.LastName == "":
		return d.Username
	case d.FirstName == "":
		return d.LastName
	case d.LastName == "":
		return d.FirstName
	}
	return d.FirstName + " " + d.LastName
}

// Guarantor vouches for one driver; drivers need two of them, each with an
// identity document, before onboarding can proceed.
type Guarantor struct {
	ID                  int64
	DriverID            int64
	Name                string
	Phone               string
	Address             string
	Relation            string
	IdentityDocumentURL string
}

type Company struct {
	ID      int64
	Name    string
	Address string
	Active  bool
}

const (
	MinNoteValue = 1
	MaxNoteValue = 5
)

// Note is one rating left on a driver. The driver's stored rating is the
// average of all note values.
type Note struct {
	ID        int64
	DriverID  int64
	AuthorID  int64
	Value     int
	Comment   string
	CreatedAt time.Time
}
