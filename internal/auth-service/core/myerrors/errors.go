package myerrors

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidOtp         = errors.New("invalid or expired verification code")
	ErrNotVerified        = errors.New("account is not verified")
	ErrFieldIsEmpty       = errors.New("required field is empty")
	ErrInvalidRole        = errors.New("invalid role")
	ErrCompanyNotFound    = errors.New("company not found or inactive")
)
