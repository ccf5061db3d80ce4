package analyzer

import "testing"

func TestEstimateKeypoints_FlatImage(t *testing.T) {
	ke := NewKeypointEstimator()
	stats := ke.EstimateKeypoints(createFlatGray(64, 64, 128))

	if stats.ORB != 0 || stats.FAST != 0 || stats.SIFT != 0 {
		t.Errorf("Expected zero keypoints for flat image, got %+v", stats)
	}
}

func TestEstimateKeypoints_CheckerboardExceedsFlat(t *testing.T) {
	ke := NewKeypointEstimator()
	stats := ke.EstimateKeypoints(createCheckerboardGray(64, 64, 2, 0, 255))

	if stats.ORB <= 0 || stats.FAST <= 0 || stats.SIFT <= 0 {
		t.Errorf("Expected positive keypoint estimates for checkerboard, got %+v", stats)
	}
	// The FAST coefficients dominate the others for the same base statistics.
	if stats.FAST <= stats.ORB || stats.ORB <= stats.SIFT {
		t.Errorf("Expected FAST > ORB > SIFT ordering, got %+v", stats)
	}
}

func TestEstimateKeypoints_Deterministic(t *testing.T) {
	ke := NewKeypointEstimator()
	view := createCheckerboardGray(48, 48, 4, 20, 220)

	first := ke.EstimateKeypoints(view)
	second := ke.EstimateKeypoints(view)
	if first != second {
		t.Errorf("Expected identical estimates, got %+v and %+v", first, second)
	}
}

func TestEstimateKeypoints_BelowThresholdContrast(t *testing.T) {
	ke := NewKeypointEstimator()

	// Neighbor differences of 20 stay under the complexity threshold of 30,
	// so complexity is 0 but Sobel edge density is not.
	stats := ke.EstimateKeypoints(createCheckerboardGray(32, 32, 2, 100, 120))
	flat := ke.EstimateKeypoints(createFlatGray(32, 32, 100))

	if stats.ORB <= flat.ORB {
		t.Errorf("Expected edge density to contribute, got %+v", stats)
	}
}

func TestEstimateKeypoints_TinyImage(t *testing.T) {
	ke := NewKeypointEstimator()
	stats := ke.EstimateKeypoints(createFlatGray(1, 1, 128))

	if stats.ORB != 0 || stats.FAST != 0 || stats.SIFT != 0 {
		t.Errorf("Expected zero estimates for 1x1 image, got %+v", stats)
	}
}
