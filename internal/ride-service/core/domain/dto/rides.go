package dto

import "time"

type RideCreateRequestDto struct {
	Origin          *string  `json:"origin"`
	Destination     *string  `json:"destination"`
	FlowType        *string  `json:"flow_type"`
	Price           *float64 `json:"price"`
	ClientId        *int64   `json:"client_id,omitempty"`
	OtherPartyName  string   `json:"other_party_name,omitempty"`
	OtherPartyPhone string   `json:"other_party_phone,omitempty"`
}

type RideResponseDto struct {
	RideId          int64     `json:"ride_id"`
	Origin          string    `json:"origin"`
	Destination     string    `json:"destination"`
	ClientId        int64     `json:"client_id"`
	SupplierId      *int64    `json:"supplier_id,omitempty"`
	DriverId        *int64    `json:"driver_id,omitempty"`
	FlowType        string    `json:"flow_type"`
	Status          string    `json:"status"`
	Price           float64   `json:"price"`
	OtherPartyName  string    `json:"other_party_name,omitempty"`
	OtherPartyPhone string    `json:"other_party_phone,omitempty"`
	CreatedAt       time.Time `json:"created_at"`

	// codes are only echoed to the parties that need to hand them over,
	// never to the driver
	PickupCode   *string `json:"pickup_code,omitempty"`
	DeliveryCode *string `json:"delivery_code,omitempty"`
}

type CodeConfirmRequestDto struct {
	Code *string `json:"code"`
}

type PriceUpdateRequestDto struct {
	Price *float64 `json:"price"`
}

type PaginatedRidesDto struct {
	Data []RideResponseDto `json:"data"`
	Meta PageMetaDto       `json:"meta"`
}

type PageMetaDto struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	TotalPages int   `json:"total_pages"`
	Limit      int   `json:"limit"`
}
