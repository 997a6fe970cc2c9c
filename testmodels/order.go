package testmodels

import "github.com/go-openapi/strfmt"

type OrderPlaced struct {

	// Unique identifier of the placed order.
	// Required: true
	OrderID *string `json:"OrderId"`

	// Total amount of the order.
	// Required: true
	Amount *float64 `json:"Amount"`

	// Currency code of the amount.
	Currency string `json:"Currency,omitempty"`

	// Timestamp when the order was placed.
	// Format: date-time
	PlacedAt *strfmt.DateTime `json:"PlacedAt"`
}

type OrderSummary struct {

	// Unique identifier of the order.
	// Required: true
	OrderID *string `json:"OrderId"`

	// Number of events applied to the order so far.
	ItemCount int64 `json:"ItemCount,omitempty"`

	// Status of the order.
	Status string `json:"Status,omitempty"`
}
