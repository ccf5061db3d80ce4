package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go-lowlight-vision/internal/imaging"
)

func encodeTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: 60, B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

func TestHTTPImageFetcher_Success(t *testing.T) {
	payload := encodeTestPNG(t, 20, 10)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	fetcher := NewHTTPImageFetcher(5*time.Second, imaging.NewDecoder())
	sample, err := fetcher.FetchImage(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected successful fetch, got %v", err)
	}
	if sample.Width != 20 || sample.Height != 10 {
		t.Errorf("Expected 20x10, got %dx%d", sample.Width, sample.Height)
	}
}

func TestHTTPImageFetcher_ClientErrorNoRetry(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewHTTPImageFetcher(5*time.Second, imaging.NewDecoder())
	_, err := fetcher.FetchImage(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Expected error for 404")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("Expected exactly 1 attempt for a 4xx, got %d", calls)
	}
}

func TestHTTPImageFetcher_ServerErrorRetries(t *testing.T) {
	var calls int32
	payload := encodeTestPNG(t, 5, 5)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	fetcher := NewHTTPImageFetcher(30*time.Second, imaging.NewDecoder())
	sample, err := fetcher.FetchImage(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected recovery on third attempt, got %v", err)
	}
	if sample.Width != 5 {
		t.Errorf("Expected decoded sample, got width %d", sample.Width)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls)
	}
}

func TestHTTPImageFetcher_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := NewHTTPImageFetcher(5*time.Second, imaging.NewDecoder())
	if _, err := fetcher.FetchImage(ctx, server.URL); err == nil {
		t.Fatal("Expected error with canceled context")
	}
}

func TestHTTPImageFetcher_NonImageBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not an image</html>"))
	}))
	defer server.Close()

	fetcher := NewHTTPImageFetcher(5*time.Second, imaging.NewDecoder())
	if _, err := fetcher.FetchImage(context.Background(), server.URL); err == nil {
		t.Fatal("Expected decode error for HTML body")
	}
}
