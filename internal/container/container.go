package container

import (
	"net/http"

	"go-lowlight-vision/internal/config"
	"go-lowlight-vision/internal/detector"
	"go-lowlight-vision/internal/imaging"
	"go-lowlight-vision/internal/logger"
	"go-lowlight-vision/internal/observer"
	"go-lowlight-vision/internal/repository"
	"go-lowlight-vision/internal/service"
	"go-lowlight-vision/internal/storage"
	"go-lowlight-vision/internal/transport"
	"go-lowlight-vision/pkg/services"
)

// Container holds all application dependencies
type Container struct {
	config          *config.Config
	decoder         imaging.ImageDecoder
	imageFetcher    storage.ImageFetcher
	imageRepository repository.ImageRepository
	detector        detector.Detector
	publisher       observer.Subject
	metrics         *observer.MetricsObserver
	pipelineService service.PipelineService
	reportService   *services.ReportService
	handler         http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	decoder := imaging.NewDecoder()

	// Blob storage takes over fetching when account credentials are set;
	// plain HTTP(S) URLs are the default source.
	var imageFetcher storage.ImageFetcher
	if cfg.AzureAccountName != "" {
		var err error
		imageFetcher, err = storage.NewAzureFetcher(cfg.AzureAccountName, cfg.AzureAccountKey, decoder)
		if err != nil {
			return nil, err
		}
	} else {
		imageFetcher = storage.NewHTTPImageFetcher(cfg.ImageFetchTimeout, decoder)
	}
	imageRepository := repository.NewHTTPImageRepository(imageFetcher)

	// No configured model server means detection runs as a no-op and the
	// pipeline still compares features and quality.
	var det detector.Detector
	if cfg.DetectorURL != "" {
		det = detector.NewHTTPDetector(cfg.DetectorURL, cfg.DetectorTimeout)
	} else {
		det = detector.NewNoop()
	}

	publisher := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	pipelineService := service.NewPipelineService(imageRepository, det, publisher, cfg.MaxBatchWorkers)
	reportService := services.NewReportService()
	handler := transport.NewHandler(pipelineService, reportService, cfg)

	return &Container{
		config:          cfg,
		decoder:         decoder,
		imageFetcher:    imageFetcher,
		imageRepository: imageRepository,
		detector:        det,
		publisher:       publisher,
		metrics:         metrics,
		pipelineService: pipelineService,
		reportService:   reportService,
		handler:         handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// PipelineService returns the pipeline service
func (c *Container) PipelineService() service.PipelineService {
	return c.pipelineService
}

// Metrics returns the aggregated run counters
func (c *Container) Metrics() map[string]interface{} {
	return c.metrics.GetMetrics()
}
