package myerrors

import "errors"

var (
	ErrRideNotFound = errors.New("ride request not found")
	ErrUserNotFound = errors.New("user not found")

	ErrAccessDenied = errors.New("access denied")
	ErrInvalidCode  = errors.New("invalid code")

	ErrFieldIsEmpty    = errors.New("field is empty")
	ErrInvalidFlowType = errors.New("unknown flow type")
	ErrInvalidPrice    = errors.New("price must be positive")
)
