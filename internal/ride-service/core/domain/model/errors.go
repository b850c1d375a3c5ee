package model

import (
	"fmt"
	"strings"
)

// InvalidTransitionError is returned when an event is fired from a state the
// transition table does not allow it in. It always names the current state.
type InvalidTransitionError struct {
	Event    string
	Current  Status
	Expected []Status
}

func (e *InvalidTransitionError) Error() string {
	expected := make([]string, 0, len(e.Expected))
	for _, s := range e.Expected {
		expected = append(expected, string(s))
	}
	return fmt.Sprintf("cannot %s: current status is %s, expected one of [%s]",
		e.Event, e.Current, strings.Join(expected, ", "))
}

// AlreadyTakenError is returned to every claim that lost the race for a ride.
type AlreadyTakenError struct {
	RideID  int64
	Current Status
}

func (e *AlreadyTakenError) Error() string {
	return fmt.Sprintf("ride request %d is no longer available, current status: %s", e.RideID, e.Current)
}

// DriverNotEligibleError is returned when a claiming driver's account is not
// ACTIVE. It names the onboarding status the account is actually in.
type DriverNotEligibleError struct {
	DriverID int64
	Status   string
}

func (e *DriverNotEligibleError) Error() string {
	return fmt.Sprintf("driver %d account is not active, current status: %s", e.DriverID, e.Status)
}
