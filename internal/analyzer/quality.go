package analyzer

import (
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/stat"

	"go-lowlight-vision/internal/imaging"
	"go-lowlight-vision/pkg/models"
)

// qualityAnalyzer implements QualityAnalyzer with Gonum statistics.
type qualityAnalyzer struct{}

// NewQualityAnalyzer creates a quality analyzer.
func NewQualityAnalyzer() QualityAnalyzer {
	return &qualityAnalyzer{}
}

// AnalyzeQuality computes brightness (mean gray), contrast (population
// standard deviation) and sharpness (mean absolute 4-neighbor Laplacian over
// interior pixels). Results are rounded to 2 decimals for reporting;
// intermediate math stays full precision.
func (qa *qualityAnalyzer) AnalyzeQuality(gray *imaging.GrayscaleView) models.QualityMetrics {
	values := gray.Values()
	if len(values) == 0 {
		return models.QualityMetrics{}
	}

	brightness := stat.Mean(values, nil)
	contrast := stat.PopStdDev(values, nil)
	sharpness := qa.meanLaplacian(gray)

	return models.QualityMetrics{
		Brightness: Round2(brightness),
		Contrast:   Round2(contrast),
		Sharpness:  Round2(sharpness),
	}
}

// meanLaplacian averages |4*center - top - bottom - left - right| over the
// interior, excluding the 1-pixel border. Large images are processed in
// horizontal strips.
func (qa *qualityAnalyzer) meanLaplacian(gray *imaging.GrayscaleView) float64 {
	width, height := gray.Width, gray.Height
	if width < 3 || height < 3 {
		return 0
	}

	interior := (width - 2) * (height - 2)
	if interior < 100000 {
		return qa.laplacianStrip(gray, 1, height-1) / float64(interior)
	}

	numWorkers := runtime.NumCPU()
	if height-2 < numWorkers {
		numWorkers = height - 2
	}
	rowsPerWorker := (height - 2 + numWorkers - 1) / numWorkers

	results := make(chan float64, numWorkers)
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		startY := 1 + i*rowsPerWorker
		endY := startY + rowsPerWorker
		if endY > height-1 {
			endY = height - 1
		}
		wg.Add(1)
		go func(startY, endY int) {
			defer wg.Done()
			results <- qa.laplacianStrip(gray, startY, endY)
		}(startY, endY)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var total float64
	for partial := range results {
		total += partial
	}
	return total / float64(interior)
}

func (qa *qualityAnalyzer) laplacianStrip(gray *imaging.GrayscaleView, startY, endY int) float64 {
	width := gray.Width
	var sum float64
	for y := startY; y < endY; y++ {
		for x := 1; x < width-1; x++ {
			center := gray.At(x, y)
			lap := 4*center - gray.At(x, y-1) - gray.At(x, y+1) - gray.At(x-1, y) - gray.At(x+1, y)
			sum += math.Abs(lap)
		}
	}
	return sum
}

// Round2 rounds to 2 decimal places for reported metrics.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round6 rounds to 6 decimal places, used by the moment vector.
func Round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
