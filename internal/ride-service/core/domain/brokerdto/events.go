package brokerdto

// Messages published on the delivery topic exchange after a state-changing
// transaction commits. Consumers fan them out to connected websocket clients.

type RideReady struct {
	RideID        int64   `json:"ride_id"`
	Origin        string  `json:"origin"`
	Destination   string  `json:"destination"`
	Price         float64 `json:"price"`
	CorrelationID string  `json:"correlation_id"`
}

type ValidationRequested struct {
	RideID        int64  `json:"ride_id"`
	UserID        int64  `json:"user_id"`
	FlowType      string `json:"flow_type"`
	CorrelationID string `json:"correlation_id"`
}

type RideAssigned struct {
	RideID        int64  `json:"ride_id"`
	DriverID      int64  `json:"driver_id"`
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	CorrelationID string `json:"correlation_id"`
}
