package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	apperrors "go-lowlight-vision/internal/errors"
	pixbuf "go-lowlight-vision/internal/imaging"
	"go-lowlight-vision/internal/logger"
	"go-lowlight-vision/pkg/models"

	"github.com/sirupsen/logrus"
)

// detectorMaxSide bounds the PNG sent to the model server; larger images are
// downscaled preserving aspect ratio.
const detectorMaxSide = 1280

// HTTPDetector talks to an external model server exposing
// GET /ready and POST /detect (PNG body in, JSON boxes out).
type HTTPDetector struct {
	baseURL string
	client  *http.Client

	mu     sync.Mutex
	loaded bool
}

// NewHTTPDetector creates a detector client for the given model server.
func NewHTTPDetector(baseURL string, timeout time.Duration) *HTTPDetector {
	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &HTTPDetector{
		baseURL: baseURL,
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

// LoadModel checks server readiness once and caches the result; repeat calls
// are cheap no-ops.
func (d *HTTPDetector) LoadModel(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loaded {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/ready", nil)
	if err != nil {
		return apperrors.NewDetectionError("invalid detector URL", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return apperrors.NewDetectionError("detector not reachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apperrors.NewDetectionError(
			fmt.Sprintf("detector not ready: status %d", resp.StatusCode), nil)
	}

	d.loaded = true
	logger.WithField("detector_url", d.baseURL).Info("Detector model ready")
	return nil
}

// Detect posts the image as PNG and decodes the box list. Malformed output
// surfaces as a DetectionError; retries are the caller's responsibility.
func (d *HTTPDetector) Detect(ctx context.Context, sample *pixbuf.ImageSample) (models.DetectionResult, error) {
	if err := d.LoadModel(ctx); err != nil {
		return models.DetectionResult{}, err
	}

	var img image.Image = sample.ToImage()
	if sample.Width > detectorMaxSide || sample.Height > detectorMaxSide {
		img = imaging.Fit(img, detectorMaxSide, detectorMaxSide, imaging.Lanczos)
	}

	var body bytes.Buffer
	if err := png.Encode(&body, img); err != nil {
		return models.DetectionResult{}, apperrors.NewDetectionError("failed to encode detector input", err)
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/detect", &body)
	if err != nil {
		return models.DetectionResult{}, apperrors.NewDetectionError("invalid detector request", err)
	}
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return models.DetectionResult{}, apperrors.NewDetectionError("detector call failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.DetectionResult{}, apperrors.NewDetectionError(
			fmt.Sprintf("detector returned status %d", resp.StatusCode), nil)
	}

	var result models.DetectionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return models.DetectionResult{}, apperrors.NewDetectionError("malformed detector response", err)
	}
	if result.Boxes == nil {
		result.Boxes = []models.BoundingBox{}
	}
	for i, box := range result.Boxes {
		if box.Width < 0 || box.Height < 0 || box.Confidence < 0 || box.Confidence > 1 {
			return models.DetectionResult{}, apperrors.NewDetectionError(
				fmt.Sprintf("malformed detector box at index %d", i), nil)
		}
	}
	result.ProcessingTimeMs = time.Since(start).Milliseconds()

	logger.WithFields(logrus.Fields{
		"boxes":   len(result.Boxes),
		"elapsed": result.ProcessingTimeMs,
	}).Debug("Detection completed")
	return result, nil
}
