package face

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"
)

// gradientPNG renders a synthetic 100x100 grayscale PNG whose pixel values
// come from the supplied generator.
func gradientPNG(t *testing.T, pixel func(x, y int) uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, CanonicalSize, CanonicalSize))
	for y := 0; y < CanonicalSize; y++ {
		for x := 0; x < CanonicalSize; x++ {
			img.SetGray(x, y, color.Gray{Y: pixel(x, y)})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestLBPHMatcherIdenticalIsZeroDistance(t *testing.T) {
	matcher := NewLBPHMatcher()

	template := gradientPNG(t, func(x, y int) uint8 { return uint8((x*7 + y*13) % 256) })

	distance, match, err := matcher.Match(template, template)
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if distance != 0 {
		t.Fatalf("identical images should have distance 0, got %f", distance)
	}
	if !match {
		t.Fatalf("distance 0 must always decide true")
	}
}

func TestLBPHMatcherDifferentImageScoresWorse(t *testing.T) {
	matcher := NewLBPHMatcher()

	a := gradientPNG(t, func(x, y int) uint8 { return uint8((x*7 + y*13) % 256) })
	b := gradientPNG(t, func(x, y int) uint8 { return uint8((x*x + y*3) % 256) })

	same, _, err := matcher.Match(a, a)
	if err != nil {
		t.Fatalf("match a/a failed: %v", err)
	}
	other, _, err := matcher.Match(a, b)
	if err != nil {
		t.Fatalf("match a/b failed: %v", err)
	}
	if other <= same {
		t.Fatalf("different image should score a greater distance: same=%f other=%f", same, other)
	}
}

func TestLBPHMatcherRejectsNonCanonicalInput(t *testing.T) {
	matcher := NewLBPHMatcher()
	template := gradientPNG(t, func(x, y int) uint8 { return uint8(x % 256) })

	if _, _, err := matcher.Match(template, []byte("not an image")); err == nil {
		t.Fatalf("expected error for garbage live bytes")
	}
	if _, _, err := matcher.Match([]byte{}, template); err == nil {
		t.Fatalf("expected error for empty stored bytes")
	}
}

// Normalizer tests need the cascade model file, which is not vendored.
// Point FACE_CASCADE_PATH at haarcascade_frontalface_default.xml to run them.
func testNormalizer(t *testing.T) *HaarNormalizer {
	t.Helper()
	path := os.Getenv("FACE_CASCADE_PATH")
	if path == "" {
		t.Skip("FACE_CASCADE_PATH not set")
	}
	n, err := NewHaarNormalizer(path)
	if err != nil {
		t.Fatalf("load cascade: %v", err)
	}
	t.Cleanup(func() { n.Close() })
	return n
}

// TestNormalizeIsDeterministic checks that normalizing the same capture
// twice yields bit-identical canonical bytes, so stored templates match
// repeatably. Needs a real face photo; point FACE_SAMPLE_PATH at one.
func TestNormalizeIsDeterministic(t *testing.T) {
	n := testNormalizer(t)

	samplePath := os.Getenv("FACE_SAMPLE_PATH")
	if samplePath == "" {
		t.Skip("FACE_SAMPLE_PATH not set")
	}
	raw, err := os.ReadFile(samplePath)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	first, err := n.Normalize(raw)
	if err != nil {
		t.Fatalf("first normalize: %v", err)
	}
	second, err := n.Normalize(raw)
	if err != nil {
		t.Fatalf("second normalize: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("normalizing the same capture twice must yield identical canonical bytes")
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	n := testNormalizer(t)
	if _, err := n.Normalize([]byte("definitely not an image")); !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
}

func TestNormalizeRejectsFacelessImage(t *testing.T) {
	n := testNormalizer(t)

	blank := gradientPNG(t, func(x, y int) uint8 { return 128 })
	if _, err := n.Normalize(blank); !errors.Is(err, ErrNoFaceDetected) {
		t.Fatalf("expected ErrNoFaceDetected, got %v", err)
	}
}
