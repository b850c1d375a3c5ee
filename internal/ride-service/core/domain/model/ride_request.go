package model

import "time"

type Status string

const (
	StatusWaitingSupplierValidation Status = "WAITING_SUPPLIER_VALIDATION"
	StatusWaitingClientValidation   Status = "WAITING_CLIENT_VALIDATION"
	StatusReadyForPickup            Status = "READY_FOR_PICKUP"
	StatusDriverAccepted            Status = "DRIVER_ACCEPTED"
	StatusInTransit                 Status = "IN_TRANSIT"
	StatusCompleted                 Status = "COMPLETED"
	StatusCanceled                  Status = "CANCELED"
)

type FlowType string

const (
	FlowClientInitiated   FlowType = "CLIENT_INITIATED"
	FlowSupplierInitiated FlowType = "SUPPLIER_INITIATED"
)

func (f FlowType) Valid() bool {
	return f == FlowClientInitiated || f == FlowSupplierInitiated
}

// RideRequest is a single delivery order. Status moves only through the
// transitions below; pickup and delivery codes never change once generated.
type RideRequest struct {
	ID              int64
	Origin          string
	Destination     string
	ClientID        int64
	SupplierID      *int64
	DriverID        *int64
	FlowType        FlowType
	Status          Status
	PickupCode      *string
	DeliveryCode    *string
	Price           float64
	OtherPartyName  string
	OtherPartyPhone string
	CreatedAt       time.Time
}

// waiting states are the only ones a counter-party validation can leave from.
func (s Status) Waiting() bool {
	return s == StatusWaitingSupplierValidation || s == StatusWaitingClientValidation
}

// Terminal reports whether the ride can never move again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// CanValidate guards the validate(by) event.
func (r *RideRequest) CanValidate() error {
	if !r.Status.Waiting() {
		return &InvalidTransitionError{
			Event:    "validate",
			Current:  r.Status,
			Expected: []Status{StatusWaitingSupplierValidation, StatusWaitingClientValidation},
		}
	}
	return nil
}

// CanConfirmPickup guards confirmPickup(driver, code).
func (r *RideRequest) CanConfirmPickup() error {
	if r.Status != StatusDriverAccepted {
		return &InvalidTransitionError{
			Event:    "confirmPickup",
			Current:  r.Status,
			Expected: []Status{StatusDriverAccepted},
		}
	}
	return nil
}

// CanConfirmDelivery guards confirmDelivery(driver, code).
func (r *RideRequest) CanConfirmDelivery() error {
	if r.Status != StatusInTransit {
		return &InvalidTransitionError{
			Event:    "confirmDelivery",
			Current:  r.Status,
			Expected: []Status{StatusInTransit},
		}
	}
	return nil
}

// CanCancel guards cancel(requester): only before any driver accepted.
func (r *RideRequest) CanCancel() error {
	if r.Status != StatusReadyForPickup && !r.Status.Waiting() {
		return &InvalidTransitionError{
			Event:    "cancel",
			Current:  r.Status,
			Expected: []Status{StatusReadyForPickup, StatusWaitingSupplierValidation, StatusWaitingClientValidation},
		}
	}
	return nil
}

// CanClaim guards claim(driver) on the snapshot the caller read. The
// authoritative check is the conditional update in the repository; this one
// only produces a precise error for rides that were already gone.
func (r *RideRequest) CanClaim() error {
	if r.Status != StatusReadyForPickup || r.DriverID != nil {
		return &AlreadyTakenError{RideID: r.ID, Current: r.Status}
	}
	return nil
}

// AssignedTo reports whether driverID is the driver on this ride.
func (r *RideRequest) AssignedTo(driverID int64) bool {
	return r.DriverID != nil && *r.DriverID == driverID
}

// OwnedBy reports whether userID is the client or the supplier on this ride.
func (r *RideRequest) OwnedBy(userID int64) bool {
	if r.ClientID == userID {
		return true
	}
	return r.SupplierID != nil && *r.SupplierID == userID
}
