package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go-lowlight-vision/internal/imaging"
)

// ImageFetcher retrieves an image from some source and decodes it into an
// ImageSample.
type ImageFetcher interface {
	FetchImage(ctx context.Context, ref string) (*imaging.ImageSample, error)
}

// HTTPImageFetcher fetches images over HTTP with bounded retries.
type HTTPImageFetcher struct {
	client  *http.Client
	decoder imaging.ImageDecoder
}

// NewHTTPImageFetcher creates an HTTP image fetcher.
func NewHTTPImageFetcher(timeout time.Duration, decoder imaging.ImageDecoder) ImageFetcher {
	transport := &http.Transport{
		MaxIdleConns:           10,
		MaxIdleConnsPerHost:    2,
		IdleConnTimeout:        30 * time.Second,
		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  10 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 4096,
	}
	return &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		decoder: decoder,
	}
}

func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) (*imaging.ImageSample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/bmp, */*")
	req.Header.Set("User-Agent", "Go-Lowlight-Vision/1.0")

	// 3 attempts; only 5xx and transport errors are retryable.
	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		resp, err = h.client.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			break
		}
		if err != nil {
			lastErr = err
			resp = nil
		} else {
			code := resp.StatusCode
			resp.Body.Close()
			resp = nil
			if code >= 400 && code < 500 {
				return nil, fmt.Errorf("client error: status code %d", code)
			}
			lastErr = fmt.Errorf("server error: status code %d", code)
		}
		if attempt < 2 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt+1) * time.Second):
			}
		}
	}
	if resp == nil {
		if lastErr != nil {
			return nil, fmt.Errorf("failed to fetch image after 3 attempts: %w", lastErr)
		}
		return nil, fmt.Errorf("failed to fetch image after 3 attempts: unknown error")
	}
	defer resp.Body.Close()

	return h.decoder.Decode(resp.Body)
}
