package service

import (
	"context"
	"sync"

	"go-lowlight-vision/internal/detector"
	"go-lowlight-vision/internal/enhancer"
	apperrors "go-lowlight-vision/internal/errors"
	"go-lowlight-vision/internal/imaging"
	"go-lowlight-vision/internal/observer"
	"go-lowlight-vision/internal/pipeline"
	"go-lowlight-vision/internal/repository"
	"go-lowlight-vision/internal/strategy"
	"go-lowlight-vision/pkg/models"
	"go-lowlight-vision/pkg/validation"
)

// RunOptions configures one pipeline run.
type RunOptions struct {
	// Mode is "composite", "histeq", "gamma" or "auto".
	Mode string
	// Gamma is only consulted by the gamma-only variant.
	Gamma float64
	// OnProgress receives stage events synchronously; may be nil.
	OnProgress pipeline.ProgressFunc
}

// BatchItem pairs one input with its outcome.
type BatchItem struct {
	ImageURL string                 `json:"image_url"`
	Result   *models.PipelineResult `json:"result,omitempty"`
	Issues   []validation.Issue     `json:"issues,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// PipelineService runs the enhancement pipeline against fetched images.
type PipelineService interface {
	// RunPipeline fetches an image by URL and drives it through the pipeline
	RunPipeline(ctx context.Context, imageURL string, opts RunOptions) (*models.PipelineResult, []validation.Issue, error)

	// RunPipelineOnSample runs the pipeline on an already-decoded image
	RunPipelineOnSample(ctx context.Context, sample *imaging.ImageSample, opts RunOptions) (*models.PipelineResult, []validation.Issue, error)

	// RunBatch processes several URLs concurrently; items are returned in
	// input order
	RunBatch(ctx context.Context, imageURLs []string, opts RunOptions) []BatchItem

	// EnhanceImage applies only the enhancement step and returns the
	// enhanced sample plus the resolved mode name
	EnhanceImage(ctx context.Context, imageURL string, opts RunOptions) (*imaging.ImageSample, string, error)

	// ValidateImageURL checks a URL before any fetch
	ValidateImageURL(imageURL string) error
}

type pipelineService struct {
	imageRepo repository.ImageRepository
	detector  detector.Detector
	publisher observer.Subject
	autoMode  *strategy.BrightnessSelector
	validator *validation.ImprovementValidator
	pool      *pipeline.WorkerPool
}

// NewPipelineService creates the pipeline service. The worker pool is shared
// by batch requests and owned by the service.
func NewPipelineService(
	imageRepo repository.ImageRepository,
	det detector.Detector,
	publisher observer.Subject,
	batchWorkers int,
) PipelineService {
	pool := pipeline.NewWorkerPool(batchWorkers)
	pool.Start()
	return &pipelineService{
		imageRepo: imageRepo,
		detector:  det,
		publisher: publisher,
		autoMode:  strategy.NewBrightnessSelector(),
		validator: validation.NewImprovementValidator(),
		pool:      pool,
	}
}

func (s *pipelineService) RunPipeline(ctx context.Context, imageURL string, opts RunOptions) (*models.PipelineResult, []validation.Issue, error) {
	sample, err := s.imageRepo.FetchImage(ctx, imageURL)
	if err != nil {
		return nil, nil, err
	}
	return s.RunPipelineOnSample(ctx, sample, opts)
}

func (s *pipelineService) RunPipelineOnSample(ctx context.Context, sample *imaging.ImageSample, opts RunOptions) (*models.PipelineResult, []validation.Issue, error) {
	enh, err := s.resolveEnhancer(sample, opts)
	if err != nil {
		return nil, nil, err
	}

	orchestrator := pipeline.NewOrchestrator(enh, s.detector, s.publisher)
	result, err := orchestrator.Run(ctx, sample, opts.OnProgress)
	if err != nil {
		return nil, nil, err
	}
	return result, s.validator.Validate(result), nil
}

func (s *pipelineService) RunBatch(ctx context.Context, imageURLs []string, opts RunOptions) []BatchItem {
	items := make([]BatchItem, len(imageURLs))
	var wg sync.WaitGroup
	for i, imageURL := range imageURLs {
		i, imageURL := i, imageURL
		s.pool.Submit(&wg, func() {
			item := BatchItem{ImageURL: imageURL}
			// Batch runs keep their own event streams; a shared callback
			// would interleave stages across images.
			runOpts := opts
			runOpts.OnProgress = nil
			result, issues, err := s.RunPipeline(ctx, imageURL, runOpts)
			if err != nil {
				item.Error = err.Error()
			} else {
				item.Result = result
				item.Issues = issues
			}
			items[i] = item
		})
	}
	wg.Wait()
	return items
}

func (s *pipelineService) EnhanceImage(ctx context.Context, imageURL string, opts RunOptions) (*imaging.ImageSample, string, error) {
	sample, err := s.imageRepo.FetchImage(ctx, imageURL)
	if err != nil {
		return nil, "", err
	}
	enh, err := s.resolveEnhancer(sample, opts)
	if err != nil {
		return nil, "", err
	}
	enhanced, err := enh.Enhance(sample)
	if err != nil {
		return nil, "", err
	}
	return enhanced, enh.Name(), nil
}

func (s *pipelineService) ValidateImageURL(imageURL string) error {
	return s.imageRepo.ValidateImageURL(imageURL)
}

func (s *pipelineService) resolveEnhancer(sample *imaging.ImageSample, opts RunOptions) (enhancer.Enhancer, error) {
	mode := enhancer.Mode(opts.Mode)
	if opts.Mode == "" {
		mode = enhancer.ModeComposite
	}
	if opts.Mode == "auto" {
		if sample == nil {
			return nil, apperrors.NewValidationError("auto mode requires a decoded image", nil)
		}
		mode = s.autoMode.Select(sample)
	}
	gamma := opts.Gamma
	if gamma == 0 {
		gamma = 1.8
	}
	return enhancer.New(mode, gamma)
}
