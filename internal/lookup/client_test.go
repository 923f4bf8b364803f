package lookup

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "go-restaurant-grid/internal/errors"
	"go-restaurant-grid/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeYelp serves canned search and details bodies and records the search
// queries it received.
type fakeYelp struct {
	mu            sync.Mutex
	searchBody    string
	searchStatus  int
	detailsBody   string
	detailsStatus int
	searches      []url.Values
	detailsPaths  []string
	authHeaders   []string
}

func (f *fakeYelp) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/v3/businesses/search":
		f.searches = append(f.searches, r.URL.Query())
		if f.searchStatus != 0 {
			w.WriteHeader(f.searchStatus)
		}
		fmt.Fprint(w, f.searchBody)
	case strings.HasPrefix(r.URL.Path, "/v3/businesses/"):
		f.detailsPaths = append(f.detailsPaths, r.URL.Path)
		if f.detailsStatus != 0 {
			w.WriteHeader(f.detailsStatus)
		}
		fmt.Fprint(w, f.detailsBody)
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, f *fakeYelp) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	c, err := NewClient("test-key", WithBaseURL(srv.URL+"/v3/"))
	require.NoError(t, err)
	return c
}

const cactusSearch = `{
  "total": 1,
  "businesses": [{
    "id": "cactus-bellevue",
    "name": "Cactus",
    "image_url": "https://s3-media.example/preview.jpg",
    "location": {"city": "Bellevue", "state": "WA"},
    "coordinates": {"latitude": 47.6151, "longitude": -122.2007}
  }]
}`

func TestNewClient_RequiresAPIKey(t *testing.T) {
	c, err := NewClient("  ")
	assert.Nil(t, c)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConfig))
}

func TestLookup_Match(t *testing.T) {
	f := &fakeYelp{
		searchBody:  cactusSearch,
		detailsBody: `{"id": "cactus-bellevue", "photos": ["https://p/1.jpg", "https://p/2.jpg"]}`,
	}
	c := newTestClient(t, f)

	biz, photos, err := c.Lookup(context.Background(), "Cactus", "Bellevue")
	require.NoError(t, err)
	require.NotNil(t, biz)

	assert.Equal(t, "cactus-bellevue", biz.ID)
	assert.Equal(t, "Bellevue", biz.City)
	assert.InDelta(t, 47.6151, biz.Latitude, 1e-9)
	assert.InDelta(t, -122.2007, biz.Longitude, 1e-9)
	assert.Equal(t, 1.0, biz.MatchScore)
	assert.Equal(t, []string{"https://s3-media.example/preview.jpg", "https://p/1.jpg", "https://p/2.jpg"}, photos)

	require.Len(t, f.searches, 1)
	assert.Equal(t, "Cactus", f.searches[0].Get("term"))
	assert.Equal(t, "Bellevue", f.searches[0].Get("location"))
	assert.Equal(t, "1", f.searches[0].Get("limit"))
	assert.Equal(t, []string{"/v3/businesses/cactus-bellevue"}, f.detailsPaths)
	for _, h := range f.authHeaders {
		assert.Equal(t, "Bearer test-key", h)
	}
}

func TestLookup_ScoresMismatchedTopHit(t *testing.T) {
	f := &fakeYelp{searchBody: cactusSearch, detailsBody: `{"id": "cactus-bellevue", "photos": []}`}
	c := newTestClient(t, f)

	biz, _, err := c.Lookup(context.Background(), "Sura Korean BBQ", "Lynnwood")
	require.NoError(t, err)
	require.NotNil(t, biz)
	assert.Less(t, biz.MatchScore, lowMatchScore)
}

func TestLookup_MaxPhotos(t *testing.T) {
	f := &fakeYelp{
		searchBody:  cactusSearch,
		detailsBody: `{"id": "cactus-bellevue", "photos": ["https://p/1.jpg", "https://p/2.jpg", "https://p/3.jpg"]}`,
	}
	srv := httptest.NewServer(f)
	defer srv.Close()

	c, err := NewClient("test-key", WithBaseURL(srv.URL+"/v3"), WithMaxPhotos(2))
	require.NoError(t, err)

	_, photos, err := c.Lookup(context.Background(), "Cactus", "Bellevue")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://s3-media.example/preview.jpg", "https://p/1.jpg"}, photos)
}

func TestLookup_UnknownHintUsesDefaultLocation(t *testing.T) {
	f := &fakeYelp{searchBody: `{"total": 0, "businesses": []}`}
	c := newTestClient(t, f)

	_, _, err := c.Lookup(context.Background(), "Korea house restaurant", models.UnknownLocation)
	require.NoError(t, err)
	require.Len(t, f.searches, 1)
	assert.Equal(t, DefaultLocation, f.searches[0].Get("location"))
}

func TestLookup_NoMatchIsNotAnError(t *testing.T) {
	f := &fakeYelp{searchBody: `{"total": 0, "businesses": []}`}
	c := newTestClient(t, f)

	biz, photos, err := c.Lookup(context.Background(), "Nowhere Diner", "Bothell")
	assert.NoError(t, err)
	assert.Nil(t, biz)
	assert.Empty(t, photos)
	assert.Empty(t, f.detailsPaths, "details must not be requested without a match")
}

func TestLookup_Failures(t *testing.T) {
	tests := []struct {
		name     string
		fake     *fakeYelp
		wantType apperrors.ErrorType
	}{
		{
			name:     "search status 500",
			fake:     &fakeYelp{searchStatus: http.StatusInternalServerError, searchBody: `{"error": {}}`},
			wantType: apperrors.ErrorTypeUpstream,
		},
		{
			name:     "search unauthorized",
			fake:     &fakeYelp{searchStatus: http.StatusUnauthorized, searchBody: `{"error": {"code": "TOKEN_INVALID"}}`},
			wantType: apperrors.ErrorTypeUpstream,
		},
		{
			name:     "search malformed json",
			fake:     &fakeYelp{searchBody: `{"businesses": [`},
			wantType: apperrors.ErrorTypeUpstream,
		},
		{
			name:     "business without id",
			fake:     &fakeYelp{searchBody: `{"businesses": [{"name": "x", "coordinates": {"latitude": 1, "longitude": 2}}]}`},
			wantType: apperrors.ErrorTypeUpstream,
		},
		{
			name:     "business without coordinates",
			fake:     &fakeYelp{searchBody: `{"businesses": [{"id": "x", "name": "x", "coordinates": {"latitude": null, "longitude": null}}]}`},
			wantType: apperrors.ErrorTypeUpstream,
		},
		{
			name:     "details status 404",
			fake:     &fakeYelp{searchBody: cactusSearch, detailsStatus: http.StatusNotFound, detailsBody: `{}`},
			wantType: apperrors.ErrorTypeUpstream,
		},
		{
			name:     "details malformed",
			fake:     &fakeYelp{searchBody: cactusSearch, detailsBody: `not json`},
			wantType: apperrors.ErrorTypeUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.fake)

			biz, photos, err := c.Lookup(context.Background(), "Cactus", "Bellevue")
			require.Error(t, err)
			assert.Nil(t, biz)
			assert.Nil(t, photos)
			assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)
		})
	}
}

func TestLookup_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := NewClient("k", WithBaseURL(base))
	require.NoError(t, err)

	_, _, err = c.Lookup(context.Background(), "Cactus", "Bellevue")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNetwork), "got %v", err)
}

func TestLookup_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, err := NewClient("k", WithBaseURL(srv.URL))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err = c.Lookup(ctx, "Cactus", "Bellevue")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTimeout), "got %v", err)
}

func TestAssemblePhotos(t *testing.T) {
	tests := []struct {
		name    string
		preview string
		photos  []string
		want    []string
	}{
		{"no photos no preview", "", nil, []string{}},
		{"no photos uses preview", "p", nil, []string{"p"}},
		{"preview prepended", "p", []string{"a", "b"}, []string{"p", "a", "b"}},
		{"preview already present", "b", []string{"a", "b"}, []string{"a", "b"}},
		{"no preview", "", []string{"a", "b"}, []string{"a", "b"}},
		{"capped at five", "p", []string{"a", "b", "c", "d", "e"}, []string{"p", "a", "b", "c", "d"}},
		{"capped without preview", "", []string{"a", "b", "c", "d", "e", "f"}, []string{"a", "b", "c", "d", "e"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssemblePhotos(tt.preview, tt.photos, DefaultMaxPhotos)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAssemblePhotos_DoesNotMutateInput(t *testing.T) {
	photos := []string{"a", "b"}
	_ = AssemblePhotos("p", photos, DefaultMaxPhotos)
	assert.Equal(t, []string{"a", "b"}, photos)
}
