package face

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
	"gocv.io/x/gocv/contrib"
)

// LBPHMatcher scores a live canonical face against a stored template using a
// Local Binary Pattern Histogram model (the recognizer defaults: radius 1,
// 8 neighbors, 8x8 grid). The model is fitted on the single stored template and
// the live capture is predicted against it, yielding a dissimilarity
// distance. Lower distance means a better match.
//
// Fit and predict mutate recognizer state, so comparisons are serialized
// behind a mutex; the recognizer is never shared unsynchronized.
type LBPHMatcher struct {
	mu  sync.Mutex
	rec *contrib.LBPHFaceRecognizer
}

// NewLBPHMatcher constructs a matcher with its own recognizer instance.
func NewLBPHMatcher() *LBPHMatcher {
	return &LBPHMatcher{rec: contrib.NewLBPHFaceRecognizer()}
}

// Match trains on the stored template and scores the live image, returning
// the distance and whether it clears DistanceThreshold.
func (m *LBPHMatcher) Match(stored, live []byte) (float64, bool, error) {
	storedMat, err := decodeCanonical(stored, "stored template")
	if err != nil {
		return 0, false, err
	}
	defer storedMat.Close()

	liveMat, err := decodeCanonical(live, "live capture")
	if err != nil {
		return 0, false, err
	}
	defer liveMat.Close()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Train replaces whatever the previous comparison fitted.
	m.rec.Train([]gocv.Mat{storedMat}, []int{0})
	resp := m.rec.PredictExtendedResponse(liveMat)

	distance := float64(resp.Confidence)
	return distance, distance < DistanceThreshold, nil
}

func decodeCanonical(data []byte, what string) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadGrayScale)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("decode %s: %w", what, err)
	}
	if mat.Empty() {
		mat.Close()
		return gocv.Mat{}, fmt.Errorf("decode %s: %w", what, ErrInvalidImage)
	}
	if mat.Cols() != CanonicalSize || mat.Rows() != CanonicalSize {
		size := fmt.Sprintf("%dx%d", mat.Cols(), mat.Rows())
		mat.Close()
		return gocv.Mat{}, fmt.Errorf("%s is %s, want %dx%d canonical", what, size, CanonicalSize, CanonicalSize)
	}
	return mat, nil
}
