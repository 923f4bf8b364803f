package storage

import (
	"context"
	"errors"
	"image"
	"io/fs"
	"os"

	apperrors "go-restaurant-grid/internal/errors"
)

// FileImageFetcher implements ImageFetcher for local filesystem paths.
type FileImageFetcher struct{}

func NewFileImageFetcher() *FileImageFetcher {
	return &FileImageFetcher{}
}

func (f *FileImageFetcher) FetchImage(ctx context.Context, path string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewTimeoutError("image load cancelled", err)
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError("image file not found: "+path, err)
		}
		return nil, apperrors.NewInternalError("failed to open image file", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, apperrors.NewDecodeError("failed to decode image", err)
	}
	return img, nil
}
