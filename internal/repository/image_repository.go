package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"go-lowlight-vision/internal/imaging"
	"go-lowlight-vision/internal/storage"
	"go-lowlight-vision/pkg/validation"
)

var (
	// ErrInvalidImageURL indicates an invalid image URL
	ErrInvalidImageURL = errors.New("invalid image URL")

	// ErrImageNotFound indicates the image was not found
	ErrImageNotFound = errors.New("image not found")
)

// ImageMetadata contains metadata about an image source.
type ImageMetadata struct {
	ContentType   string
	ContentLength int64
}

// ImageRepository defines the interface for image data access operations.
type ImageRepository interface {
	// FetchImage retrieves and decodes an image
	FetchImage(ctx context.Context, imageURL string) (*imaging.ImageSample, error)

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error

	// GetImageMetadata retrieves metadata without downloading the payload
	GetImageMetadata(ctx context.Context, imageURL string) (*ImageMetadata, error)
}

// HTTPImageRepository implements ImageRepository over an ImageFetcher.
type HTTPImageRepository struct {
	fetcher   storage.ImageFetcher
	validator *validation.URLValidator
	client    *http.Client
}

// NewHTTPImageRepository creates an HTTP-backed image repository.
func NewHTTPImageRepository(fetcher storage.ImageFetcher) ImageRepository {
	return &HTTPImageRepository{
		fetcher:   fetcher,
		validator: validation.NewURLValidator(),
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchImage retrieves an image from a URL.
func (r *HTTPImageRepository) FetchImage(ctx context.Context, imageURL string) (*imaging.ImageSample, error) {
	if err := r.ValidateImageURL(imageURL); err != nil {
		return nil, err
	}
	return r.fetcher.FetchImage(ctx, imageURL)
}

// ValidateImageURL validates if the provided URL is acceptable.
func (r *HTTPImageRepository) ValidateImageURL(imageURL string) error {
	return r.validator.ValidateImageURL(imageURL)
}

// LocalImageRepository serves images from the filesystem. Used by the CLI,
// where the reference is a path instead of a URL.
type LocalImageRepository struct {
	fetcher storage.ImageFetcher
}

// NewLocalImageRepository creates a filesystem-backed image repository.
func NewLocalImageRepository(fetcher storage.ImageFetcher) ImageRepository {
	return &LocalImageRepository{fetcher: fetcher}
}

// FetchImage loads and decodes an image file.
func (r *LocalImageRepository) FetchImage(ctx context.Context, path string) (*imaging.ImageSample, error) {
	if err := r.ValidateImageURL(path); err != nil {
		return nil, err
	}
	return r.fetcher.FetchImage(ctx, path)
}

// ValidateImageURL checks the file exists and is not a directory.
func (r *LocalImageRepository) ValidateImageURL(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return ErrImageNotFound
	}
	if info.IsDir() {
		return ErrInvalidImageURL
	}
	return nil
}

// GetImageMetadata reports the file size; content type is left to the decoder.
func (r *LocalImageRepository) GetImageMetadata(ctx context.Context, path string) (*ImageMetadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, ErrImageNotFound
	}
	return &ImageMetadata{ContentLength: info.Size()}, nil
}

// GetImageMetadata issues a HEAD request for content type and length.
func (r *HTTPImageRepository) GetImageMetadata(ctx context.Context, imageURL string) (*ImageMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrImageNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata request failed: status %d", resp.StatusCode)
	}
	return &ImageMetadata{
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
	}, nil
}
