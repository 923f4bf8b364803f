package lookup

import (
	"fmt"

	"go-restaurant-grid/internal/geo"
)

// Business is the best match returned by the search API.
type Business struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	ImageURL  string  `json:"image_url,omitempty"`

	// MatchScore rates the business name against the queried name.
	MatchScore float64 `json:"match_score"`
}

func (b Business) Point() geo.Point {
	return geo.Point{Lat: b.Latitude, Lon: b.Longitude}
}

type searchResponse struct {
	Total      int              `json:"total"`
	Businesses []searchBusiness `json:"businesses"`
}

type searchBusiness struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	ImageURL    string       `json:"image_url"`
	Location    *bizLocation `json:"location"`
	Coordinates *bizPosition `json:"coordinates"`
}

type bizLocation struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

type bizPosition struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type detailsResponse struct {
	ID     string   `json:"id"`
	Photos []string `json:"photos"`
}

// toBusiness validates the required fields of a search hit.
func (s searchBusiness) toBusiness() (*Business, error) {
	if s.ID == "" {
		return nil, fmt.Errorf("business has no id")
	}
	if s.Coordinates == nil || s.Coordinates.Latitude == nil || s.Coordinates.Longitude == nil {
		return nil, fmt.Errorf("business %s has no coordinates", s.ID)
	}
	b := &Business{
		ID:        s.ID,
		Name:      s.Name,
		Latitude:  *s.Coordinates.Latitude,
		Longitude: *s.Coordinates.Longitude,
		ImageURL:  s.ImageURL,
	}
	if s.Location != nil {
		b.City = s.Location.City
	}
	return b, nil
}
