package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go-restaurant-grid/internal/config"
	apperrors "go-restaurant-grid/internal/errors"
	"go-restaurant-grid/internal/observer"
	"go-restaurant-grid/internal/publish"
	"go-restaurant-grid/internal/service"
	"go-restaurant-grid/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	records []models.RestaurantRecord
	png     []byte
	err     error
	runIDs  []string
	lines   [][]string
}

func (f *fakeService) Resolve(ctx context.Context, line string) (models.RestaurantRecord, error) {
	return models.RestaurantRecord{}, nil
}

func (f *fakeService) Build(ctx context.Context, lines []string) ([]models.RestaurantRecord, error) {
	f.runIDs = append(f.runIDs, observer.RunIDFromContext(ctx))
	f.lines = append(f.lines, lines)
	return f.records, f.err
}

func (f *fakeService) Generate(ctx context.Context, lines []string) (*service.Grid, error) {
	records, err := f.Build(ctx, lines)
	if err != nil {
		return nil, err
	}
	return &service.Grid{Records: records, PNG: f.png}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		RequestTimeout:     5 * time.Second,
		MaxRequestBodySize: 1024,
		MaxLinesPerRequest: 3,
		S3:                 config.S3Config{Prefix: "grids/"},
	}
}

func init() {
	gin.SetMode(gin.TestMode)
}

func do(h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := NewHandler(&fakeService{}, nil, nil, testConfig())
	rec := do(h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"available"`)
	_, err := uuid.Parse(rec.Header().Get(runIDHeader))
	assert.NoError(t, err)
}

func TestRecords(t *testing.T) {
	svc := &fakeService{records: []models.RestaurantRecord{
		{Name: "Cactus", City: "Bellevue", DistanceLabel: "10.5 miles", Images: []string{}, Matched: true, DistanceMiles: 10.5},
		{Name: "Nowhere", City: "Bothell", DistanceLabel: models.UnknownDistance, Images: []string{"x"}},
	}}
	h := NewHandler(svc, nil, nil, testConfig())

	id := uuid.NewString()
	rec := do(h, http.MethodPost, "/records", `{"lines": ["1. Cactus bellevue", "Nowhere Bothell"]}`, runIDHeader, id)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp models.RecordsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.RunID)
	assert.Equal(t, []string{id}, svc.runIDs)
	assert.Len(t, resp.Records, 2)
	assert.Equal(t, "10.5 miles", resp.Records[0].DistanceLabel)
	assert.Equal(t, models.Summary{Total: 2, Matched: 1, Unmatched: 1, MeanDistanceMiles: 10.5}, resp.Summary)
}

func TestRecords_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"lines": [`, http.StatusBadRequest},
		{"missing lines", `{}`, http.StatusBadRequest},
		{"empty lines", `{"lines": []}`, http.StatusBadRequest},
		{"blank line", `{"lines": [""]}`, http.StatusBadRequest},
		{"too many lines", `{"lines": ["a", "b", "c", "d"]}`, http.StatusBadRequest},
		{"body too large", `{"lines": ["` + strings.Repeat("a", 2048) + `"]}`, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			h := NewHandler(svc, nil, nil, testConfig())
			rec := do(h, http.MethodPost, "/records", tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Empty(t, svc.lines, "service must not be called")
		})
	}
}

func TestRecords_UpstreamFailure(t *testing.T) {
	svc := &fakeService{err: apperrors.NewUpstreamError("/businesses/search returned status 500", nil)}
	h := NewHandler(svc, nil, nil, testConfig())

	rec := do(h, http.MethodPost, "/records", `{"lines": ["Cactus bellevue"]}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Bad Gateway", resp.Error)
	assert.Contains(t, resp.Message, "failed to resolve restaurants")
	assert.Empty(t, resp.Details)

	svc.err = apperrors.NewUpstreamError("search returned status 500", nil).WithDetails(`line 1: "Cactus bellevue"`)
	rec = do(h, http.MethodPost, "/records", `{"lines": ["Cactus bellevue"]}`)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, `line 1: "Cactus bellevue"`, resp.Details)
}

func TestGrid_ReturnsPNGAndPublishes(t *testing.T) {
	svc := &fakeService{png: []byte("\x89PNG"), records: []models.RestaurantRecord{{Name: "Cactus"}}}
	path := filepath.Join(t.TempDir(), "grid.png")
	h := NewHandler(svc, publish.NewMulti(nil, publish.NewFilePublisher(path)), nil, testConfig())

	rec := do(h, http.MethodPost, "/grid", `{"lines": ["Cactus bellevue"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, publish.ContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG", rec.Body.String())
	assert.Equal(t, path, rec.Header().Get(locationHeader))
	assert.FileExists(t, path)
}

func TestMetricsRoute(t *testing.T) {
	m := observer.NewMetricsObserver()
	m.OnEvent(context.Background(), observer.GridEvent{EventType: observer.GridRendered})
	h := NewHandler(&fakeService{}, nil, m.Handler(), testConfig())

	rec := do(h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "restaurant_grid_renders_total 1")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(apperrors.NewNotFoundError("x", nil)))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(context.DeadlineExceeded))
	assert.Equal(t, http.StatusTooManyRequests, statusFor(context.Canceled))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
