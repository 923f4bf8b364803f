package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"
	"unicode"

	"go-restaurant-grid/internal/config"
	apperrors "go-restaurant-grid/internal/errors"
	"go-restaurant-grid/internal/geo"
	"go-restaurant-grid/internal/logger"
	"go-restaurant-grid/internal/lookup"
	"go-restaurant-grid/internal/observer"
	"go-restaurant-grid/internal/parser"
	"go-restaurant-grid/internal/render"
	"go-restaurant-grid/internal/worker"
	"go-restaurant-grid/pkg/models"

	"github.com/sirupsen/logrus"
)

// PlaceholderImageURL is the pattern of the synthetic image references used
// for restaurants the lookup could not find.
const PlaceholderImageURL = "https://via.placeholder.com/300?text=%s+%d"

// BusinessLookup resolves a restaurant name near a location hint.
type BusinessLookup interface {
	Lookup(ctx context.Context, name, locationHint string) (*lookup.Business, []string, error)
}

// LineParser extracts a query from one line of free text.
type LineParser interface {
	Parse(line string) models.RestaurantQuery
}

// GridRenderer draws resolved records.
type GridRenderer interface {
	Render(ctx context.Context, records []models.RestaurantRecord) *image.RGBA
}

// Grid is the outcome of one Generate call.
type Grid struct {
	Records []models.RestaurantRecord
	Summary models.Summary
	Image   *image.RGBA
	PNG     []byte
}

// GridService turns free-text restaurant lines into records and a
// composite image.
type GridService interface {
	Resolve(ctx context.Context, line string) (models.RestaurantRecord, error)
	Build(ctx context.Context, lines []string) ([]models.RestaurantRecord, error)
	Generate(ctx context.Context, lines []string) (*Grid, error)
}

type gridService struct {
	parser   LineParser
	lookup   BusinessLookup
	renderer GridRenderer
	origin   geo.Point
	policy   config.FailurePolicy
	workers  int
	events   observer.Subject
}

type Option func(*gridService)

// WithOrigin sets the point distances are measured from.
func WithOrigin(p geo.Point) Option {
	return func(s *gridService) { s.origin = p }
}

func WithParser(p LineParser) Option {
	return func(s *gridService) {
		if p != nil {
			s.parser = p
		}
	}
}

// WithFailurePolicy decides whether a failed lookup aborts the run or is
// rendered like a lookup with no match.
func WithFailurePolicy(p config.FailurePolicy) Option {
	return func(s *gridService) { s.policy = p }
}

// WithWorkers sets how many lines are resolved concurrently.
func WithWorkers(n int) Option {
	return func(s *gridService) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithEvents(e observer.Subject) Option {
	return func(s *gridService) {
		if e != nil {
			s.events = e
		}
	}
}

// NewGridService creates a new grid service
func NewGridService(businessLookup BusinessLookup, renderer GridRenderer, opts ...Option) GridService {
	s := &gridService{
		parser:   parser.New(),
		lookup:   businessLookup,
		renderer: renderer,
		origin:   geo.Bothell,
		policy:   config.FailurePolicyFail,
		workers:  1,
		events:   observer.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve parses one line, looks the restaurant up and assembles its
// record. A lookup with no match yields the placeholder record; a failed
// lookup is returned as an error unless the fallback policy is active.
func (s *gridService) Resolve(ctx context.Context, line string) (models.RestaurantRecord, error) {
	query := s.parser.Parse(line)

	start := time.Now()
	business, photos, err := s.lookup.Lookup(ctx, query.Name, query.LocationHint)
	elapsed := time.Since(start)

	if err != nil {
		s.events.NotifyObservers(ctx, observer.GridEvent{
			EventType:    observer.LookupFailed,
			Restaurant:   query.Name,
			Duration:     elapsed,
			ErrorMessage: err.Error(),
		})
		if s.policy == config.FailurePolicyFallback && ctx.Err() == nil {
			logger.WithError(err).WithField("restaurant", query.Name).
				Warn("Lookup failed, rendering placeholder row")
			return Unmatched(query), nil
		}
		return models.RestaurantRecord{}, err
	}

	if business == nil {
		s.events.NotifyObservers(ctx, observer.GridEvent{
			EventType:  observer.LookupNoMatch,
			Restaurant: query.Name,
			Duration:   elapsed,
			Success:    true,
			Metadata:   map[string]interface{}{"location_hint": query.LocationHint},
		})
		return Unmatched(query), nil
	}

	miles := geo.Distance(s.origin, business.Point())
	record := models.RestaurantRecord{
		Name:          query.Name,
		City:          business.City,
		DistanceLabel: geo.FormatMiles(miles),
		Images:        photos,
		Matched:       true,
		DistanceMiles: miles,
		MatchScore:    business.MatchScore,
	}
	if record.Images == nil {
		record.Images = []string{}
	}

	s.events.NotifyObservers(ctx, observer.GridEvent{
		EventType:  observer.LookupMatched,
		Restaurant: query.Name,
		Duration:   elapsed,
		Success:    true,
		Metadata: map[string]interface{}{
			"business_id": business.ID,
			"city":        record.City,
			"distance":    record.DistanceLabel,
			"photos":      len(record.Images),
		},
	})
	return record, nil
}

type resolved struct {
	record models.RestaurantRecord
	err    error
}

// Build resolves every line, keeping input order. With the fail policy the
// first failed line, in input order, aborts the build.
func (s *gridService) Build(ctx context.Context, lines []string) ([]models.RestaurantRecord, error) {
	if s.workers <= 1 {
		records := make([]models.RestaurantRecord, 0, len(lines))
		for i, line := range lines {
			if err := ctx.Err(); err != nil {
				return nil, apperrors.NewTimeoutError("build cancelled", err)
			}
			rec, err := s.Resolve(ctx, line)
			if err != nil {
				return nil, lineError(i, line, err)
			}
			records = append(records, rec)
		}
		return records, nil
	}

	results := worker.Map(s.workers, lines, func(_ int, line string) resolved {
		if err := ctx.Err(); err != nil {
			return resolved{err: apperrors.NewTimeoutError("build cancelled", err)}
		}
		rec, err := s.Resolve(ctx, line)
		return resolved{record: rec, err: err}
	})

	records := make([]models.RestaurantRecord, 0, len(lines))
	for i, r := range results {
		if r.err != nil {
			return nil, lineError(i, lines[i], r.err)
		}
		records = append(records, r.record)
	}
	return records, nil
}

// Generate builds the records, renders them and encodes the PNG.
func (s *gridService) Generate(ctx context.Context, lines []string) (*Grid, error) {
	if len(lines) == 0 {
		return nil, apperrors.NewValidationError("no restaurant lines to render", nil)
	}

	records, err := s.Build(ctx, lines)
	if err != nil {
		return nil, err
	}

	img := s.renderer.Render(ctx, records)
	data, err := render.EncodePNG(img)
	if err != nil {
		return nil, err
	}

	summary := Summarize(records)
	logger.WithFields(logrus.Fields{
		"run_id":    observer.RunIDFromContext(ctx),
		"total":     summary.Total,
		"matched":   summary.Matched,
		"unmatched": summary.Unmatched,
		"mean_mi":   summary.MeanDistanceMiles,
		"stddev_mi": summary.StdDevDistanceMiles,
		"png_bytes": len(data),
	}).Info("Grid generated")

	return &Grid{Records: records, Summary: summary, Image: img, PNG: data}, nil
}

// Unmatched is the record of a restaurant the lookup could not find: the
// location hint as city, an unknown distance and five distinct placeholder
// images.
func Unmatched(q models.RestaurantQuery) models.RestaurantRecord {
	return models.RestaurantRecord{
		Name:          q.Name,
		City:          q.LocationHint,
		DistanceLabel: models.UnknownDistance,
		Images:        PlaceholderImages(q.Name),
	}
}

// PlaceholderImages returns models.ImageSlots synthetic image URLs for name,
// indexed from 1.
func PlaceholderImages(name string) []string {
	safe := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, name)

	images := make([]string, models.ImageSlots)
	for i := range images {
		images[i] = fmt.Sprintf(PlaceholderImageURL, safe, i+1)
	}
	return images
}

func lineError(index int, line string, err error) error {
	logger.WithError(err).WithFields(logrus.Fields{
		"line_index": index,
		"line":       line,
	}).Error("Failed to resolve restaurant line")

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.WithDetails(fmt.Sprintf("line %d: %q", index+1, line))
	}
	return err
}
