package face

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// HaarNormalizer detects a face with a Haar cascade and produces the
// canonical 100x100 grayscale representation, encoded as PNG so that stored
// templates survive round trips bit for bit.
type HaarNormalizer struct {
	mu      sync.Mutex
	cascade gocv.CascadeClassifier
}

// NewHaarNormalizer loads the frontal-face cascade model from disk.
func NewHaarNormalizer(cascadePath string) (*HaarNormalizer, error) {
	cascade := gocv.NewCascadeClassifier()
	if !cascade.Load(cascadePath) {
		cascade.Close()
		return nil, fmt.Errorf("load haar cascade %q", cascadePath)
	}
	return &HaarNormalizer{cascade: cascade}, nil
}

// Close releases the cascade model.
func (n *HaarNormalizer) Close() error {
	return n.cascade.Close()
}

// Normalize decodes the raw bytes, converts to grayscale, equalizes the
// histogram to reduce lighting variance, requires exactly one detected face,
// crops it and resizes to the canonical size.
func (n *HaarNormalizer) Normalize(raw []byte) ([]byte, error) {
	src, err := gocv.IMDecode(raw, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	defer src.Close()
	if src.Empty() {
		return nil, ErrInvalidImage
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)
	gocv.EqualizeHist(gray, &gray)

	// DetectMultiScale mutates cascade-internal buffers.
	n.mu.Lock()
	rects := n.cascade.DetectMultiScaleWithParams(gray, detectScaleFactor, detectMinNeighbors, 0,
		image.Pt(detectMinSizePx, detectMinSizePx), image.Pt(0, 0))
	n.mu.Unlock()

	switch {
	case len(rects) == 0:
		return nil, ErrNoFaceDetected
	case len(rects) > 1:
		return nil, ErrMultipleFacesDetected
	}

	region := gray.Region(rects[0])
	defer region.Close()

	canonical := gocv.NewMat()
	defer canonical.Close()
	gocv.Resize(region, &canonical, image.Pt(CanonicalSize, CanonicalSize), 0, 0, gocv.InterpolationArea)

	buf, err := gocv.IMEncode(gocv.PNGFileExt, canonical)
	if err != nil {
		return nil, fmt.Errorf("encode canonical face: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
