package model

// Read-only reporting projections. All tolerate an empty underlying set.

type StatusCount struct {
	Status RequestStatus `json:"status"`
	Count  int           `json:"count"`
}

type SegregationTotals struct {
	OrganicKg    float64 `json:"organic_kg"`
	RecyclableKg float64 `json:"recyclable_kg"`
	HazardousKg  float64 `json:"hazardous_kg"`
}

type MaterialOutput struct {
	Material string  `json:"material"`
	OutputKg float64 `json:"output_kg"`
}
