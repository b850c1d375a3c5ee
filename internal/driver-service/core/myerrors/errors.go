package myerrors

import "errors"

var (
	ErrDriverNotFound    = errors.New("driver not found")
	ErrCompanyNotFound   = errors.New("company not found")
	ErrGuarantorNotFound = errors.New("guarantor not found")
	ErrNotADriver        = errors.New("user is not a driver")
	ErrAccessDenied      = errors.New("access denied")
	ErrFieldIsEmpty      = errors.New("required field is empty")
	ErrTooManyGuarantors = errors.New("guarantor limit reached")
	ErrInvalidNoteValue  = errors.New("note value must be between 1 and 5")
)
