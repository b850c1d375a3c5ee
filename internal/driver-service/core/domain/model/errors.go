package model

import (
	"fmt"
	"strings"
)

// WrongStateError reports an onboarding action attempted against a driver
// whose current status does not allow it.
type WrongStateError struct {
	Action   string
	Current  DriverStatus
	Expected []DriverStatus
}

func (e *WrongStateError) Error() string {
	expected := make([]string, 0, len(e.Expected))
	for _, s := range e.Expected {
		expected = append(expected, string(s))
	}
	return fmt.Sprintf("cannot %s a driver in status %s (requires %s)",
		e.Action, e.Current, strings.Join(expected, " or "))
}

// Requirement codes carried by MissingRequirementError so callers can tell
// which part of the dossier is incomplete.
const (
	ReqGuarantors  = "MISSING_GUARANTORS"
	ReqDriverIdDoc = "MISSING_DRIVER_ID_DOC"
)

// MissingRequirementError reports an incomplete dossier. Code is one of the
// Req* constants; Detail is human readable.
type MissingRequirementError struct {
	Code   string
	Detail string
}

func (e *MissingRequirementError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}
