// Package face implements the canonical face normalization pipeline and the
// LBPH matcher used to authenticate payments.
package face

import "errors"

const (
	// CanonicalSize is the width and height in pixels of a normalized face.
	CanonicalSize = 100

	// DistanceThreshold is the LBPH dissimilarity cutoff for a positive match.
	// The matcher reports a distance, not a similarity: LOWER means MORE
	// similar, and 0 is an identical crop. Chosen empirically.
	DistanceThreshold = 150.0

	// Detector tuning. These are fixed so normalization output, and therefore
	// match distances, stay comparable across calls.
	detectScaleFactor  = 1.1
	detectMinNeighbors = 5
	detectMinSizePx    = 30
)

var (
	// ErrInvalidImage indicates the input bytes do not decode as an image.
	ErrInvalidImage = errors.New("image does not decode")

	// ErrNoFaceDetected indicates the detector found no face region.
	ErrNoFaceDetected = errors.New("no face detected")

	// ErrMultipleFacesDetected indicates the detector found more than one
	// face region. Both enrollment and verification require exactly one.
	ErrMultipleFacesDetected = errors.New("multiple faces detected")
)

// Normalizer produces the canonical face representation from raw image bytes.
// Normalizing the same input twice yields bit-identical output.
type Normalizer interface {
	Normalize(raw []byte) ([]byte, error)
}

// Matcher compares two canonical face images and reports the dissimilarity
// distance plus the threshold decision.
type Matcher interface {
	Match(stored, live []byte) (distance float64, match bool, err error)
}
