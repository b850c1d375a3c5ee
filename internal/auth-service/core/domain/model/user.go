package model

import "time"

const (
	RoleClient         = "CLIENT"
	RoleDriver         = "DRIVER"
	RoleSupplier       = "SUPPLIER"
	RoleCompanyManager = "COMPANY_MANAGER"
	RoleAdmin          = "ADMIN"
)

// StatusPendingCompanyVerification is the onboarding entry status every new
// driver account starts in.
const StatusPendingCompanyVerification = "PENDING_COMPANY_VERIFICATION"

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
	Phone        string
	FirstName    string
	LastName     string
	CompanyID    *int64
	Status       string
	Verified     bool
	CreatedAt    time.Time
}

// ValidRegistrationRole reports whether self-registration is open for the
// role. ADMIN accounts are provisioned out of band.
func ValidRegistrationRole(role string) bool {
	switch role {
	case RoleClient, RoleDriver, RoleSupplier, RoleCompanyManager:
		return true
	}
	return false
}

// OtpCode is a one-time phone verification code. Expiry is checked at
// consumption, not by a background sweeper.
type OtpCode struct {
	UserID    int64
	Code      string
	ExpiresAt time.Time
}

func (o OtpCode) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}
