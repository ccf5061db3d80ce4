package analyzer

import (
	"math"

	"go-lowlight-vision/internal/imaging"
	"go-lowlight-vision/pkg/models"
)

const (
	hogCellSize      = 8
	hogBins          = 9
	hogDescriptorCap = 100
	lbpPatterns      = 256
	lbpRadius        = 1
	glcmLevels       = 256
	normEpsilon      = 1e-10
)

type textureAnalyzer struct{}

// NewTextureAnalyzer creates a texture analyzer.
func NewTextureAnalyzer() TextureAnalyzer {
	return &textureAnalyzer{}
}

// AnalyzeTexture is total over any well-formed image: zero-sized or 1-pixel
// inputs produce degenerate (zero) descriptors rather than errors.
func (ta *textureAnalyzer) AnalyzeTexture(gray *imaging.GrayscaleView) models.TextureFeatures {
	return models.TextureFeatures{
		HOG:  ta.gradientHistogram(gray),
		LBP:  ta.localBinaryPattern(gray),
		GLCM: ta.coOccurrence(gray),
	}
}

// gradientHistogram accumulates gradient magnitude into 9 unsigned
// orientation bins per non-overlapping 8x8 cell, concatenates the cell
// histograms in raster order, L2-normalizes the whole vector and truncates
// the exported descriptor to its first 100 values. The truncation bounds the
// descriptor size and is part of the numeric contract.
func (ta *textureAnalyzer) gradientHistogram(gray *imaging.GrayscaleView) models.HOGFeatures {
	width, height := gray.Width, gray.Height
	cellsX := width / hogCellSize
	cellsY := height / hogCellSize
	if cellsX == 0 || cellsY == 0 {
		return models.HOGFeatures{Descriptor: []float64{}, Bins: hogBins, CellSize: hogCellSize}
	}

	descriptor := make([]float64, cellsX*cellsY*hogBins)
	maxX := cellsX * hogCellSize
	maxY := cellsY * hogCellSize

	for y := 1; y < height-1 && y < maxY; y++ {
		cellRow := y / hogCellSize
		for x := 1; x < width-1 && x < maxX; x++ {
			gx := gray.At(x+1, y) - gray.At(x-1, y)
			gy := gray.At(x, y+1) - gray.At(x, y-1)
			magnitude := math.Sqrt(gx*gx + gy*gy)
			if magnitude == 0 {
				continue
			}

			theta := math.Atan2(gy, gx) * 180.0 / math.Pi
			if theta < 0 {
				theta += 180.0
			}
			if theta >= 180.0 {
				theta -= 180.0
			}
			bin := int(theta / (180.0 / hogBins))
			if bin >= hogBins {
				bin = hogBins - 1
			}

			cell := cellRow*cellsX + x/hogCellSize
			descriptor[cell*hogBins+bin] += magnitude
		}
	}

	var norm float64
	for _, v := range descriptor {
		norm += v * v
	}
	norm = math.Sqrt(norm) + normEpsilon
	for i := range descriptor {
		descriptor[i] /= norm
	}

	if len(descriptor) > hogDescriptorCap {
		descriptor = descriptor[:hogDescriptorCap]
	}
	return models.HOGFeatures{Descriptor: descriptor, Bins: hogBins, CellSize: hogCellSize}
}

// localBinaryPattern codes every interior pixel against its 8 neighbors in
// fixed clockwise order starting up-left (neighbor >= center sets the bit),
// then histograms the codes normalized by interior pixel count.
func (ta *textureAnalyzer) localBinaryPattern(gray *imaging.GrayscaleView) models.LBPFeatures {
	width, height := gray.Width, gray.Height
	histogram := make([]float64, lbpPatterns)
	features := models.LBPFeatures{Histogram: histogram, Patterns: lbpPatterns, Radius: lbpRadius}
	if width < 3 || height < 3 {
		return features
	}

	// Clockwise from up-left: UL, U, UR, R, DR, D, DL, L
	offsets := [8][2]int{
		{-1, -1}, {0, -1}, {1, -1}, {1, 0},
		{1, 1}, {0, 1}, {-1, 1}, {-1, 0},
	}

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			center := gray.At(x, y)
			code := 0
			for _, off := range offsets {
				code <<= 1
				if gray.At(x+off[0], y+off[1]) >= center {
					code |= 1
				}
			}
			histogram[code]++
		}
	}

	total := float64((width - 2) * (height - 2))
	for i := range histogram {
		histogram[i] /= total
	}
	return features
}

// coOccurrence builds the horizontal distance-1 co-occurrence matrix of
// quantized gray levels over the whole image, normalizes it to a probability
// distribution and derives the aggregate statistics. Correlation stays fixed
// at 0: downstream comparisons depend on this exact constant.
func (ta *textureAnalyzer) coOccurrence(gray *imaging.GrayscaleView) models.GLCMFeatures {
	width, height := gray.Width, gray.Height
	if width < 2 || height < 1 {
		return models.GLCMFeatures{}
	}

	matrix := make([]float64, glcmLevels*glcmLevels)
	pairs := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width-1; x++ {
			i := gray.Level(x, y)
			j := gray.Level(x+1, y)
			matrix[i*glcmLevels+j]++
			pairs++
		}
	}
	if pairs == 0 {
		return models.GLCMFeatures{}
	}

	inv := 1.0 / float64(pairs)
	var contrast, dissimilarity, homogeneity, energy float64
	for i := 0; i < glcmLevels; i++ {
		row := i * glcmLevels
		for j := 0; j < glcmLevels; j++ {
			p := matrix[row+j] * inv
			if p == 0 {
				continue
			}
			d := float64(i - j)
			ad := math.Abs(d)
			contrast += p * d * d
			dissimilarity += p * ad
			homogeneity += p / (1.0 + ad)
			energy += p * p
		}
	}

	return models.GLCMFeatures{
		Contrast:      Round2(contrast),
		Dissimilarity: Round2(dissimilarity),
		Homogeneity:   Round2(homogeneity),
		Energy:        Round2(energy),
		Correlation:   0,
		ASM:           Round2(energy),
	}
}
