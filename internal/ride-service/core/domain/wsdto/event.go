package wsdto

import "encoding/json"

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	TypeRideReady           = "ride_ready"
	TypeValidationRequested = "validation_requested"
	TypeRideAssigned        = "ride_assigned"
)
