package service

import (
	"go-restaurant-grid/pkg/models"

	"gonum.org/v1/gonum/stat"
)

// Summarize counts matched rows and computes the mean and sample standard
// deviation of their distances.
func Summarize(records []models.RestaurantRecord) models.Summary {
	summary := models.Summary{Total: len(records)}

	distances := make([]float64, 0, len(records))
	for _, r := range records {
		if !r.Matched {
			continue
		}
		summary.Matched++
		distances = append(distances, r.DistanceMiles)
	}
	summary.Unmatched = summary.Total - summary.Matched

	switch len(distances) {
	case 0:
	case 1:
		summary.MeanDistanceMiles = distances[0]
	default:
		summary.MeanDistanceMiles, summary.StdDevDistanceMiles = stat.MeanStdDev(distances, nil)
	}
	return summary
}
