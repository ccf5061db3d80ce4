package models

// KeypointStats holds the three deterministic keypoint-density estimates.
// These are edge-content proxies used for relative before/after comparison,
// not real detector counts.
type KeypointStats struct {
	ORB  int `json:"orb"`
	FAST int `json:"fast"`
	SIFT int `json:"sift"`
}

// HOGFeatures is the gradient-orientation histogram descriptor.
type HOGFeatures struct {
	Descriptor []float64 `json:"descriptor"`
	Bins       int       `json:"bins"`
	CellSize   int       `json:"cell_size"`
}

// LBPFeatures is the local binary pattern histogram. Histogram entries sum
// to 1 for any image with at least one interior pixel.
type LBPFeatures struct {
	Histogram []float64 `json:"histogram"`
	Patterns  int       `json:"patterns"`
	Radius    int       `json:"radius"`
}

// GLCMFeatures holds the gray-level co-occurrence statistics.
// Correlation is fixed at 0 (documented simplification, not computed).
type GLCMFeatures struct {
	Contrast      float64 `json:"contrast"`
	Dissimilarity float64 `json:"dissimilarity"`
	Homogeneity   float64 `json:"homogeneity"`
	Energy        float64 `json:"energy"`
	Correlation   float64 `json:"correlation"`
	ASM           float64 `json:"asm"`
}

// TextureFeatures groups the three texture descriptor families.
type TextureFeatures struct {
	HOG  HOGFeatures  `json:"hog"`
	LBP  LBPFeatures  `json:"lbp"`
	GLCM GLCMFeatures `json:"glcm"`
}

// ColorMoments holds per-RGB-channel statistical moments.
type ColorMoments struct {
	Mean     [3]float64 `json:"mean"`
	Std      [3]float64 `json:"std"`
	Skewness [3]float64 `json:"skewness"`
}

// StatisticalFeatures groups shape and color moment features.
type StatisticalFeatures struct {
	HuMoments    [7]float64   `json:"hu_moments"`
	ColorMoments ColorMoments `json:"color_moments"`
}

// QualityMetrics holds basic image-quality measurements over the grayscale
// view, each rounded to 2 decimal places.
type QualityMetrics struct {
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Sharpness  float64 `json:"sharpness"`
}

// FeatureVector is the fused representation of one image. Fused is the
// L2-normalized concatenation of the keypoint, texture and statistical
// sub-vectors; Dimensionality always equals len(Fused).
type FeatureVector struct {
	Keypoints      []float64 `json:"keypoints"`
	Texture        []float64 `json:"texture"`
	Statistical    []float64 `json:"statistical"`
	Fused          []float64 `json:"fused"`
	Dimensionality int       `json:"dimensionality"`
}

// ImageFeatures is everything the analyzers compute for one image.
type ImageFeatures struct {
	Keypoints   KeypointStats       `json:"keypoints"`
	Texture     TextureFeatures     `json:"texture"`
	Statistical StatisticalFeatures `json:"statistical"`
	Quality     QualityMetrics      `json:"quality"`
	Vector      FeatureVector       `json:"vector"`
}

// KeypointDeltas holds per-type percentage improvements, (enhanced-raw)/raw
// scaled to percent with raw=0 treated as 0.
type KeypointDeltas struct {
	ORBPct  float64 `json:"orb_pct"`
	FASTPct float64 `json:"fast_pct"`
	SIFTPct float64 `json:"sift_pct"`
}

// QualityDeltas holds absolute enhanced-minus-raw quality differences.
type QualityDeltas struct {
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Sharpness  float64 `json:"sharpness"`
}

// GLCMDeltas holds absolute enhanced-minus-raw GLCM differences.
type GLCMDeltas struct {
	Contrast    float64 `json:"contrast"`
	Energy      float64 `json:"energy"`
	Homogeneity float64 `json:"homogeneity"`
}

// ComponentDeltas groups the labeled per-component deltas.
type ComponentDeltas struct {
	Keypoints KeypointDeltas `json:"keypoints"`
	Quality   QualityDeltas  `json:"quality"`
	GLCM      GLCMDeltas     `json:"glcm"`
}

// ComparisonResult is the output of comparing two fused feature vectors.
type ComparisonResult struct {
	Similarity        float64         `json:"similarity"`
	EuclideanDistance float64         `json:"euclidean_distance"`
	Deltas            ComponentDeltas `json:"deltas"`
}
