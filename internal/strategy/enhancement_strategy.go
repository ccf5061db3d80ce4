package strategy

import (
	"go-lowlight-vision/internal/analyzer"
	"go-lowlight-vision/internal/enhancer"
	"go-lowlight-vision/internal/imaging"
)

// Brightness cut points for automatic mode selection.
const (
	veryDarkBrightness = 60.0
	darkBrightness     = 110.0
)

// Selector picks an enhancement mode for an image.
type Selector interface {
	Select(sample *imaging.ImageSample) enhancer.Mode
	GetStrategyName() string
}

// BrightnessSelector chooses the variant by mean luminance: the full
// composite transform for very dark inputs, a global equalization for
// moderately dark ones, and a plain gamma lift otherwise.
type BrightnessSelector struct {
	quality analyzer.QualityAnalyzer
}

// NewBrightnessSelector creates the default auto-selection strategy.
func NewBrightnessSelector() *BrightnessSelector {
	return &BrightnessSelector{quality: analyzer.NewQualityAnalyzer()}
}

// Select inspects the image's brightness and returns the mode to use.
func (s *BrightnessSelector) Select(sample *imaging.ImageSample) enhancer.Mode {
	metrics := s.quality.AnalyzeQuality(sample.Gray())
	switch {
	case metrics.Brightness < veryDarkBrightness:
		return enhancer.ModeComposite
	case metrics.Brightness < darkBrightness:
		return enhancer.ModeHistEq
	default:
		return enhancer.ModeGamma
	}
}

// GetStrategyName returns the strategy name
func (s *BrightnessSelector) GetStrategyName() string {
	return "brightness_selection"
}

// FixedSelector always returns the configured mode. Used when the caller
// pins a variant explicitly.
type FixedSelector struct {
	mode enhancer.Mode
}

// NewFixedSelector creates a selector pinned to one mode.
func NewFixedSelector(mode enhancer.Mode) *FixedSelector {
	return &FixedSelector{mode: mode}
}

// Select returns the pinned mode.
func (s *FixedSelector) Select(sample *imaging.ImageSample) enhancer.Mode {
	return s.mode
}

// GetStrategyName returns the strategy name
func (s *FixedSelector) GetStrategyName() string {
	return "fixed_selection"
}
