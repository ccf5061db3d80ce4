package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-lowlight-vision/internal/config"
	apperrors "go-lowlight-vision/internal/errors"
	"go-lowlight-vision/internal/logger"
	"go-lowlight-vision/internal/service"
	"go-lowlight-vision/pkg/services"
)

type PipelineRequest struct {
	URL   string  `json:"url" binding:"required,url"`
	Mode  string  `json:"mode,omitempty"`
	Gamma float64 `json:"gamma,omitempty"`
}

type BatchRequest struct {
	URLs  []string `json:"urls" binding:"required,min=1"`
	Mode  string   `json:"mode,omitempty"`
	Gamma float64  `json:"gamma,omitempty"`
}

type EnhanceResponse struct {
	Mode      string `json:"mode"`
	ImageData string `json:"image_data"` // base64 PNG
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// NewHandler wires the HTTP routes over the pipeline service.
func NewHandler(pipelineSvc service.PipelineService, reportSvc *services.ReportService, cfg *config.Config) http.Handler {
	r := gin.Default()

	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	r.POST("/pipeline", runPipeline(pipelineSvc, cfg))
	r.POST("/pipeline/batch", runBatch(pipelineSvc, cfg))
	r.POST("/report", buildReport(pipelineSvc, reportSvc, cfg))
	r.POST("/enhance", enhanceImage(pipelineSvc, cfg))

	return r
}

func runPipeline(svc service.PipelineService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.PipelineTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"user_agent": c.Request.UserAgent(),
			"ip":         c.ClientIP(),
		}).Info("Processing pipeline request")

		req, ok := bindPipelineRequest(c, svc)
		if !ok {
			return
		}

		result, issues, err := svc.RunPipeline(ctx, req.URL, service.RunOptions{Mode: req.Mode, Gamma: req.Gamma})
		if err != nil {
			respondPipelineError(c, req.URL, err)
			return
		}

		logger.WithFields(logrus.Fields{
			"url":                 req.URL,
			"run_id":              result.ID,
			"enhancement":         result.Enhancement,
			"overall_improvement": result.Comparison.OverallImprovement,
			"processing_time_ms":  time.Since(startTime).Milliseconds(),
		}).Info("Pipeline completed successfully")

		c.JSON(http.StatusOK, gin.H{
			"result": result,
			"issues": issues,
		})
	}
}

func runBatch(svc service.PipelineService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Batch items reuse the single-run timeout each; the request context
		// bounds the whole batch.
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"ip": c.ClientIP(),
			}).Error("Invalid batch request format")
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		for _, u := range req.URLs {
			if err := svc.ValidateImageURL(u); err != nil {
				respondError(c, apperrors.GetStatusCode(err), "invalid image URL", err)
				return
			}
		}

		items := svc.RunBatch(ctx, req.URLs, service.RunOptions{Mode: req.Mode, Gamma: req.Gamma})
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func buildReport(svc service.PipelineService, reports *services.ReportService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.PipelineTimeout)
		defer cancel()

		req, ok := bindPipelineRequest(c, svc)
		if !ok {
			return
		}

		result, _, err := svc.RunPipeline(ctx, req.URL, service.RunOptions{Mode: req.Mode, Gamma: req.Gamma})
		if err != nil {
			respondPipelineError(c, req.URL, err)
			return
		}

		c.JSON(http.StatusOK, reports.BuildReport(result))
	}
}

func enhanceImage(svc service.PipelineService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		req, ok := bindPipelineRequest(c, svc)
		if !ok {
			return
		}

		sample, mode, err := svc.EnhanceImage(ctx, req.URL, service.RunOptions{Mode: req.Mode, Gamma: req.Gamma})
		if err != nil {
			respondPipelineError(c, req.URL, err)
			return
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, sample.ToImage()); err != nil {
			respondError(c, http.StatusInternalServerError, "failed to encode enhanced image", err)
			return
		}

		c.JSON(http.StatusOK, EnhanceResponse{
			Mode:      mode,
			ImageData: base64.StdEncoding.EncodeToString(buf.Bytes()),
			Width:     sample.Width,
			Height:    sample.Height,
		})
	}
}

// bindPipelineRequest parses and validates the common request body. On
// failure the response has already been written.
func bindPipelineRequest(c *gin.Context, svc service.PipelineService) (PipelineRequest, bool) {
	var req PipelineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"ip": c.ClientIP(),
		}).Error("Invalid request format")
		respondError(c, http.StatusBadRequest, "invalid request format", err)
		return req, false
	}

	if err := svc.ValidateImageURL(req.URL); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"url": req.URL,
			"ip":  c.ClientIP(),
		}).Error("Invalid image URL")
		respondError(c, apperrors.GetStatusCode(err), "invalid image URL", err)
		return req, false
	}
	return req, true
}

func respondPipelineError(c *gin.Context, imageURL string, err error) {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		// keep the typed status
	case errors.Is(err, context.DeadlineExceeded):
		appErr = apperrors.NewTimeoutError("Pipeline timed out", err)
	default:
		appErr = apperrors.NewInternalError("Pipeline failed", err)
	}

	logger.WithError(appErr).WithFields(logrus.Fields{
		"url": imageURL,
		"ip":  c.ClientIP(),
	}).Error("Pipeline request failed")

	respondError(c, appErr.StatusCode, "pipeline failed", appErr)
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
