package model

import (
	"time"
)

type WasteCategory string
type RequestStatus string

const (
	CategoryMixed      WasteCategory = "mixed"
	CategoryOrganic    WasteCategory = "organic"
	CategoryRecyclable WasteCategory = "recyclable"
	CategoryHazardous  WasteCategory = "hazardous"

	StatusRequested  RequestStatus = "requested"
	StatusAssigned   RequestStatus = "assigned"
	StatusCollected  RequestStatus = "collected"
	StatusSegregated RequestStatus = "segregated"
	StatusRecycled   RequestStatus = "recycled"
	StatusCancelled  RequestStatus = "cancelled"
)

func (c WasteCategory) Valid() bool {
	switch c {
	case CategoryMixed, CategoryOrganic, CategoryRecyclable, CategoryHazardous:
		return true
	}
	return false
}

// Terminal statuses accept no further transition.
func (s RequestStatus) Terminal() bool {
	return s == StatusRecycled || s == StatusCancelled
}

type WasteRequest struct {
	ID                 string        `json:"id"`
	CitizenID          string        `json:"citizen_id"`
	Address            string        `json:"address"`
	Category           WasteCategory `json:"category"`
	QuantityKg         float64       `json:"quantity_kg"`
	PreferredDate      time.Time     `json:"preferred_date"`
	Status             RequestStatus `json:"status"`
	AssignedEmployeeID *string       `json:"assigned_employee_id,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`

	CitizenName  *string `json:"citizen_name,omitempty"`  // For display
	EmployeeName *string `json:"employee_name,omitempty"` // For display
}

// SegregationRecord holds the measured split of one request's collected
// waste. At most one exists per request (unique request_id); re-recording
// replaces the previous measurement.
type SegregationRecord struct {
	ID           string    `json:"id"`
	RequestID    string    `json:"request_id"`
	OrganicKg    float64   `json:"organic_kg"`
	RecyclableKg float64   `json:"recyclable_kg"`
	HazardousKg  float64   `json:"hazardous_kg"`
	Notes        string    `json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
}

// RecyclingBatch records one output-producing processing event. A request
// may accumulate several batches.
type RecyclingBatch struct {
	ID             string    `json:"id"`
	RequestID      string    `json:"request_id"`
	Material       string    `json:"material"`
	OutputProduct  string    `json:"output_product"`
	OutputWeightKg float64   `json:"output_weight_kg"`
	ProcessedBy    string    `json:"processed_by"`
	ProcessedAt    time.Time `json:"processed_at"`
}
