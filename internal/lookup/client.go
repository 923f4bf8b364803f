// Package lookup queries the Yelp Fusion API for the best matching business
// and its photos.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "go-restaurant-grid/internal/errors"
	"go-restaurant-grid/internal/logger"
	"go-restaurant-grid/pkg/models"

	"github.com/sirupsen/logrus"
)

const (
	DefaultBaseURL   = "https://api.yelp.com/v3"
	DefaultLocation  = "Bothell, WA"
	DefaultMaxPhotos = 5

	// lowMatchScore is the score below which a top hit is logged as a
	// probable mismatch.
	lowMatchScore = 0.3
)

// Client is a Yelp Fusion API client. The API key is fixed at construction.
type Client struct {
	apiKey          string
	baseURL         string
	defaultLocation string
	maxPhotos       int
	httpClient      *http.Client
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithDefaultLocation sets the place searched when the hint is unknown.
func WithDefaultLocation(location string) Option {
	return func(c *Client) {
		if strings.TrimSpace(location) != "" {
			c.defaultLocation = location
		}
	}
}

func WithMaxPhotos(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPhotos = n
		}
	}
}

// NewClient creates a client authenticating with apiKey.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apperrors.NewConfigError("lookup client requires an API key", nil)
	}
	c := &Client{
		apiKey:          apiKey,
		baseURL:         DefaultBaseURL,
		defaultLocation: DefaultLocation,
		maxPhotos:       DefaultMaxPhotos,
		httpClient:      &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Lookup searches for the single best match for name near locationHint and
// fetches its photo list.
//
// A search with no hit returns (nil, nil, nil): that is a valid outcome, not
// an error. Transport failures, non-200 responses and malformed bodies from
// either request are returned as *apperrors.AppError.
func (c *Client) Lookup(ctx context.Context, name, locationHint string) (*Business, []string, error) {
	location := locationHint
	if location == models.UnknownLocation || strings.TrimSpace(location) == "" {
		location = c.defaultLocation
	}

	params := url.Values{}
	params.Set("term", name)
	params.Set("location", location)
	params.Set("limit", "1")

	var search searchResponse
	if err := c.getJSON(ctx, "/businesses/search", params, &search); err != nil {
		return nil, nil, err
	}

	if len(search.Businesses) == 0 {
		logger.WithFields(logrus.Fields{
			"name":     name,
			"location": location,
		}).Info("No business found")
		return nil, nil, nil
	}

	business, err := search.Businesses[0].toBusiness()
	if err != nil {
		return nil, nil, apperrors.NewUpstreamError("malformed search result", err)
	}

	var details detailsResponse
	if err := c.getJSON(ctx, "/businesses/"+url.PathEscape(business.ID), nil, &details); err != nil {
		return nil, nil, err
	}

	photos := AssemblePhotos(business.ImageURL, details.Photos, c.maxPhotos)
	business.MatchScore = MatchScore(name, business.Name)

	fields := logrus.Fields{
		"name":        name,
		"location":    location,
		"business_id": business.ID,
		"business":    business.Name,
		"photos":      len(photos),
	}
	if business.MatchScore < lowMatchScore {
		fields["match_score"] = business.MatchScore
		logger.WithFields(fields).Warn("Top search hit does not resemble the requested name")
	} else {
		logger.WithFields(fields).Debug("Business resolved")
	}

	return business, photos, nil
}

// AssemblePhotos builds the image list of a match: the details photos with
// the preview image prepended when missing, or the preview alone when the
// details carry no photos, capped at limit entries.
func AssemblePhotos(preview string, photos []string, limit int) []string {
	out := make([]string, 0, len(photos)+1)
	switch {
	case len(photos) == 0:
		if preview != "" {
			out = append(out, preview)
		}
	case preview != "" && !contains(photos, preview):
		out = append(out, preview)
		out = append(out, photos...)
	default:
		out = append(out, photos...)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apperrors.NewInternalError("failed to build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperrors.NewTimeoutError(fmt.Sprintf("request to %s timed out", path), err)
		}
		return apperrors.NewNetworkError(fmt.Sprintf("request to %s failed", path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.NewUpstreamError(
			fmt.Sprintf("%s returned status %d", path, resp.StatusCode),
			errors.New(strings.TrimSpace(string(body))),
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewUpstreamError(fmt.Sprintf("malformed response from %s", path), err)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
