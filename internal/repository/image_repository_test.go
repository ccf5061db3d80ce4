package repository

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-lowlight-vision/internal/imaging"
	"go-lowlight-vision/internal/storage"
)

func writeTestPNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("Failed to write test image: %v", err)
	}
}

func TestHTTPRepository_ValidateImageURL(t *testing.T) {
	repo := NewHTTPImageRepository(storage.NewHTTPImageFetcher(time.Second, imaging.NewDecoder()))

	if err := repo.ValidateImageURL("https://example.com/a.png"); err != nil {
		t.Errorf("Expected valid URL, got %v", err)
	}
	if err := repo.ValidateImageURL("ftp://example.com/a.png"); err == nil {
		t.Error("Expected error for unsupported scheme")
	}
	if err := repo.ValidateImageURL(""); err == nil {
		t.Error("Expected error for empty URL")
	}
}

func TestHTTPRepository_FetchRejectsInvalidURL(t *testing.T) {
	repo := NewHTTPImageRepository(storage.NewHTTPImageFetcher(time.Second, imaging.NewDecoder()))

	if _, err := repo.FetchImage(context.Background(), "not-a-url"); err == nil {
		t.Error("Expected validation error before any fetch")
	}
}

func TestHTTPRepository_GetImageMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("Expected HEAD request, got %s", r.Method)
		}
		switch r.URL.Path {
		case "/a.png":
			w.Header().Set("Content-Type", "image/png")
			w.Header().Set("Content-Length", "512")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	repo := NewHTTPImageRepository(storage.NewHTTPImageFetcher(time.Second, imaging.NewDecoder()))

	meta, err := repo.GetImageMetadata(context.Background(), server.URL+"/a.png")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if meta.ContentType != "image/png" {
		t.Errorf("Expected image/png, got %s", meta.ContentType)
	}
	if meta.ContentLength != 512 {
		t.Errorf("Expected length 512, got %d", meta.ContentLength)
	}

	if _, err := repo.GetImageMetadata(context.Background(), server.URL+"/missing.png"); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("Expected not-found error, got %v", err)
	}
}

func TestLocalRepository_FetchImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.png")
	writeTestPNG(t, path)

	repo := NewLocalImageRepository(storage.NewLocalFetcher())

	sample, err := repo.FetchImage(context.Background(), path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if sample.Width != 8 || sample.Height != 8 {
		t.Errorf("Expected 8x8, got %dx%d", sample.Width, sample.Height)
	}
}

func TestLocalRepository_Validate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.png")
	writeTestPNG(t, path)

	repo := NewLocalImageRepository(storage.NewLocalFetcher())

	if err := repo.ValidateImageURL(path); err != nil {
		t.Errorf("Expected existing file to validate, got %v", err)
	}
	if err := repo.ValidateImageURL(filepath.Join(dir, "missing.png")); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("Expected not-found error, got %v", err)
	}
	if err := repo.ValidateImageURL(dir); !errors.Is(err, ErrInvalidImageURL) {
		t.Errorf("Expected invalid URL error for directory, got %v", err)
	}
}

func TestLocalRepository_Metadata(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.png")
	writeTestPNG(t, path)

	repo := NewLocalImageRepository(storage.NewLocalFetcher())

	meta, err := repo.GetImageMetadata(context.Background(), path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if meta.ContentLength <= 0 {
		t.Errorf("Expected positive file size, got %d", meta.ContentLength)
	}
}
