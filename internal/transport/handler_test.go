package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"go-lowlight-vision/internal/config"
	"go-lowlight-vision/internal/detector"
	"go-lowlight-vision/internal/imaging"
	"go-lowlight-vision/internal/observer"
	"go-lowlight-vision/internal/repository"
	"go-lowlight-vision/internal/service"
	"go-lowlight-vision/internal/storage"
	"go-lowlight-vision/pkg/services"
)

func testConfig() *config.Config {
	return &config.Config{
		Host:               "127.0.0.1",
		Port:               "0",
		RequestTimeout:     30 * time.Second,
		ImageFetchTimeout:  10 * time.Second,
		PipelineTimeout:    30 * time.Second,
		MaxRequestBodySize: 1 << 20,
	}
}

func newImageServer(t *testing.T) *httptest.Server {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 24, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 24; x++ {
			img.Set(x, y, color.RGBA{R: uint8(10 + x*3), G: uint8(10 + y*3), B: 20, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	payload := buf.Bytes()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(payload)
	}))
}

func newTestHandler(cfg *config.Config) http.Handler {
	gin.SetMode(gin.TestMode)
	fetcher := storage.NewHTTPImageFetcher(cfg.ImageFetchTimeout, imaging.NewDecoder())
	repo := repository.NewHTTPImageRepository(fetcher)
	svc := service.NewPipelineService(repo, detector.NewNoop(), observer.NewEventPublisher(), 2)
	return NewHandler(svc, services.NewReportService(), cfg)
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestHandler(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if body["status"] != "available" {
		t.Errorf("Expected status available, got %v", body["status"])
	}
}

func TestPipelineEndpoint_Success(t *testing.T) {
	imageServer := newImageServer(t)
	defer imageServer.Close()

	handler := newTestHandler(testConfig())
	payload, _ := json.Marshal(PipelineRequest{URL: imageServer.URL + "/dark.png", Mode: "gamma", Gamma: 1.8})

	req := httptest.NewRequest(http.MethodPost, "/pipeline", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Result struct {
			ID          string `json:"id"`
			Enhancement string `json:"enhancement"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if body.Result.Enhancement != "gamma" {
		t.Errorf("Expected gamma enhancement, got %s", body.Result.Enhancement)
	}
	if body.Result.ID == "" {
		t.Error("Expected a run ID in the response")
	}
}

func TestPipelineEndpoint_InvalidJSON(t *testing.T) {
	handler := newTestHandler(testConfig())

	req := httptest.NewRequest(http.MethodPost, "/pipeline", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestPipelineEndpoint_MissingURL(t *testing.T) {
	handler := newTestHandler(testConfig())
	payload, _ := json.Marshal(map[string]string{"mode": "gamma"})

	req := httptest.NewRequest(http.MethodPost, "/pipeline", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing URL, got %d", rec.Code)
	}
}

func TestEnhanceEndpoint(t *testing.T) {
	imageServer := newImageServer(t)
	defer imageServer.Close()

	handler := newTestHandler(testConfig())
	payload, _ := json.Marshal(PipelineRequest{URL: imageServer.URL + "/a.png", Mode: "histeq"})

	req := httptest.NewRequest(http.MethodPost, "/enhance", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body EnhanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if body.Width != 24 || body.Height != 24 {
		t.Errorf("Expected 24x24, got %dx%d", body.Width, body.Height)
	}
	if body.Mode != "histeq" {
		t.Errorf("Expected histeq mode in response, got %s", body.Mode)
	}
	if body.ImageData == "" {
		t.Error("Expected base64 image payload")
	}
}

func TestEnhanceEndpoint_ReportsResolvedDefaultMode(t *testing.T) {
	imageServer := newImageServer(t)
	defer imageServer.Close()

	handler := newTestHandler(testConfig())
	payload, _ := json.Marshal(PipelineRequest{URL: imageServer.URL + "/a.png"})

	req := httptest.NewRequest(http.MethodPost, "/enhance", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body EnhanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if body.Mode != "composite" {
		t.Errorf("Expected resolved composite mode, got %q", body.Mode)
	}
}

func TestBatchEndpoint(t *testing.T) {
	imageServer := newImageServer(t)
	defer imageServer.Close()

	handler := newTestHandler(testConfig())
	payload, _ := json.Marshal(BatchRequest{
		URLs: []string{imageServer.URL + "/a.png", imageServer.URL + "/b.png"},
		Mode: "gamma",
	})

	req := httptest.NewRequest(http.MethodPost, "/pipeline/batch", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Items []service.BatchItem `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if len(body.Items) != 2 {
		t.Fatalf("Expected 2 batch items, got %d", len(body.Items))
	}
	for _, item := range body.Items {
		if item.Error != "" {
			t.Errorf("Unexpected batch error for %s: %s", item.ImageURL, item.Error)
		}
	}
}

func TestReportEndpoint(t *testing.T) {
	imageServer := newImageServer(t)
	defer imageServer.Close()

	handler := newTestHandler(testConfig())
	payload, _ := json.Marshal(PipelineRequest{URL: imageServer.URL + "/a.png", Mode: "composite"})

	req := httptest.NewRequest(http.MethodPost, "/report", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var report services.EnhancementReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("Invalid JSON response: %v", err)
	}
	if report.Grade == "" {
		t.Error("Expected a letter grade")
	}
}

func TestDetermineStatusCode(t *testing.T) {
	if code := determineStatusCode(context.DeadlineExceeded); code != http.StatusGatewayTimeout {
		t.Errorf("Expected 504, got %d", code)
	}
	if code := determineStatusCode(context.Canceled); code != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", code)
	}
}
