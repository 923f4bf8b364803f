package models

// GridRequest carries the free-text lines of one grid request.
type GridRequest struct {
	Lines []string `json:"lines" binding:"required,min=1,dive,required"`
}

// RecordsResponse is returned by the records endpoint.
type RecordsResponse struct {
	RunID   string             `json:"run_id"`
	Records []RestaurantRecord `json:"records"`
	Summary Summary            `json:"summary"`
}

// Summary aggregates a batch of resolved records.
type Summary struct {
	Total               int     `json:"total"`
	Matched             int     `json:"matched"`
	Unmatched           int     `json:"unmatched"`
	MeanDistanceMiles   float64 `json:"mean_distance_miles,omitempty"`
	StdDevDistanceMiles float64 `json:"stddev_distance_miles,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}
