package storage

import (
	"context"
	"fmt"

	disimaging "github.com/disintegration/imaging"

	apperrors "go-lowlight-vision/internal/errors"
	"go-lowlight-vision/internal/imaging"
)

// localFetcher loads images from the filesystem. Used by the CLI runner.
type localFetcher struct{}

// NewLocalFetcher creates a filesystem-backed image fetcher.
func NewLocalFetcher() ImageFetcher {
	return &localFetcher{}
}

func (l *localFetcher) FetchImage(ctx context.Context, path string) (*imaging.ImageSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := disimaging.Open(path, disimaging.AutoOrientation(true))
	if err != nil {
		return nil, apperrors.NewDecodeError(fmt.Sprintf("failed to open %s", path), err)
	}
	return imaging.FromImage(img), nil
}
