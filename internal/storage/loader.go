package storage

import (
	"context"
	"image"
	"time"

	"go-restaurant-grid/internal/logger"
	"go-restaurant-grid/pkg/validation"

	"github.com/sirupsen/logrus"
)

// Loader turns an image reference into an opaque RGB image. References
// beginning with "http" are fetched over the network, anything else is read
// from disk.
type Loader struct {
	remote    ImageFetcher
	local     ImageFetcher
	validator *validation.ReferenceValidator
	timeout   time.Duration
}

type LoaderOption func(*Loader)

func WithRemoteFetcher(f ImageFetcher) LoaderOption {
	return func(l *Loader) { l.remote = f }
}

func WithLocalFetcher(f ImageFetcher) LoaderOption {
	return func(l *Loader) { l.local = f }
}

func WithValidator(v *validation.ReferenceValidator) LoaderOption {
	return func(l *Loader) { l.validator = v }
}

// WithTimeout bounds each Load call. Zero disables the bound.
func WithTimeout(d time.Duration) LoaderOption {
	return func(l *Loader) { l.timeout = d }
}

func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		remote:    NewHTTPImageFetcher(),
		local:     NewFileImageFetcher(),
		validator: validation.NewReferenceValidator(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches, decodes and normalises one reference. Errors are
// *errors.AppError values of type validation, not_found, network, decode
// or timeout.
func (l *Loader) Load(ctx context.Context, ref string) (*image.RGBA, error) {
	if err := l.validator.Validate(ref); err != nil {
		return nil, err
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	kind := validation.Classify(ref)
	fetcher := l.local
	if kind == validation.ReferenceRemote {
		fetcher = l.remote
	}

	start := time.Now()
	img, err := fetcher.FetchImage(ctx, ref)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"ref":      ref,
		"kind":     kind.String(),
		"width":    img.Bounds().Dx(),
		"height":   img.Bounds().Dy(),
		"duration": time.Since(start).String(),
	}).Debug("Image loaded")

	return Normalize(img), nil
}
