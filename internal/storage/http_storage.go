package storage

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net"
	"net/http"
	"time"

	apperrors "go-restaurant-grid/internal/errors"

	_ "golang.org/x/image/webp"
)

const (
	defaultMaxAttempts = 3
	defaultBackoff     = time.Second
	defaultHTTPTimeout = 30 * time.Second
)

// ImageFetcher produces a decoded image for a reference.
type ImageFetcher interface {
	FetchImage(ctx context.Context, ref string) (image.Image, error)
}

// HTTPImageFetcher implements ImageFetcher for http(s) references.
type HTTPImageFetcher struct {
	client      *http.Client
	maxAttempts int
	backoff     time.Duration
}

type HTTPOption func(*HTTPImageFetcher)

// WithMaxAttempts sets the total number of tries per image (minimum 1).
func WithMaxAttempts(n int) HTTPOption {
	return func(h *HTTPImageFetcher) {
		if n > 0 {
			h.maxAttempts = n
		}
	}
}

// WithBackoff sets the base delay between attempts; attempt k waits k*d.
func WithBackoff(d time.Duration) HTTPOption {
	return func(h *HTTPImageFetcher) {
		if d >= 0 {
			h.backoff = d
		}
	}
}

// WithHTTPTimeout bounds a single request including the body read.
func WithHTTPTimeout(d time.Duration) HTTPOption {
	return func(h *HTTPImageFetcher) {
		if d > 0 {
			h.client.Timeout = d
		}
	}
}

// NewHTTPImageFetcher creates an HTTP image fetcher tuned for small photo downloads.
func NewHTTPImageFetcher(opts ...HTTPOption) *HTTPImageFetcher {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
	}

	h := &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   defaultHTTPTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// FetchImage downloads and decodes ref. Transport errors and 5xx responses
// are retried; any 4xx response stops immediately.
func (h *HTTPImageFetcher) FetchImage(ctx context.Context, ref string) (image.Image, error) {
	var lastErr error

	for attempt := 0; attempt < h.maxAttempts; attempt++ {
		if attempt > 0 && h.backoff > 0 {
			select {
			case <-ctx.Done():
				return nil, apperrors.NewTimeoutError("image fetch cancelled", ctx.Err())
			case <-time.After(time.Duration(attempt) * h.backoff):
			}
		}

		img, retry, err := h.fetchOnce(ctx, ref)
		if err == nil {
			return img, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
	}

	return nil, lastErr
}

func (h *HTTPImageFetcher) fetchOnce(ctx context.Context, ref string) (image.Image, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, false, apperrors.NewValidationError("invalid image URL", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/gif, */*")
	req.Header.Set("User-Agent", "restaurant-grid/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, false, apperrors.NewTimeoutError("image fetch timed out", err)
		}
		if ctx.Err() != nil {
			return nil, false, apperrors.NewTimeoutError("image fetch cancelled", err)
		}
		return nil, true, apperrors.NewNetworkError("image fetch failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, apperrors.NewNotFoundError(fmt.Sprintf("client error: status code %d", resp.StatusCode), nil)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, false, apperrors.NewNetworkError(fmt.Sprintf("client error: status code %d", resp.StatusCode), nil)
	case resp.StatusCode >= 500:
		return nil, true, apperrors.NewNetworkError(fmt.Sprintf("server error: status code %d", resp.StatusCode), nil)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, false, apperrors.NewNetworkError(fmt.Sprintf("unexpected status code %d", resp.StatusCode), nil)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, false, apperrors.NewDecodeError("failed to decode image", err)
	}
	return img, false, nil
}
