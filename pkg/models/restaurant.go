package models

const (
	// ImageSlots is the number of image cells rendered per restaurant row.
	ImageSlots = 5

	// UnknownLocation marks a query whose location hint could not be
	// extracted from the input line.
	UnknownLocation = "Unknown"

	// UnknownDistance is the distance label of a restaurant that was not
	// matched by the lookup service.
	UnknownDistance = "Unknown"

	// NoImage marks an empty image slot. The renderer draws a labelled
	// placeholder cell for it.
	NoImage = ""
)

// RestaurantQuery is what the line parser extracts from one input line.
type RestaurantQuery struct {
	Name         string `json:"name"`
	LocationHint string `json:"location_hint"`
}

// RestaurantRecord is one fully resolved row of the grid.
type RestaurantRecord struct {
	Name          string   `json:"name"`
	City          string   `json:"city"`
	DistanceLabel string   `json:"distance"`
	Images        []string `json:"images"`

	Matched       bool    `json:"matched"`
	DistanceMiles float64 `json:"distance_miles,omitempty"`
	MatchScore    float64 `json:"match_score,omitempty"`
}

// Slots returns exactly ImageSlots references: the first ImageSlots images
// in order, padded with NoImage.
func (r RestaurantRecord) Slots() [ImageSlots]string {
	var slots [ImageSlots]string
	copy(slots[:], r.Images)
	return slots
}
