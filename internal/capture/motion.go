package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

const (
	blurKernel    = 21
	pixelDelta    = 25
	analysisWidth = 160
)

// MotionDetector compares each frame with the one before it and reports the
// percentage of pixels that changed. Frames are downscaled, converted to gray
// and blurred before differencing, so sensor noise does not count as motion.
type MotionDetector struct {
	mu        sync.Mutex
	threshold float64
	baseline  gocv.Mat
	primed    bool
}

// NewMotionDetector creates a MotionDetector. threshold is the percentage of
// changed pixels (0-100) above which a frame counts as moving.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		baseline:  gocv.NewMat(),
	}
}

// Detect reports whether frame moved relative to the previous frame and by how
// much. The first frame after creation or Reset only sets the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	if frame == nil || frame.Empty() {
		return false, 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current := prepare(*frame)

	if !m.primed {
		m.swap(current)
		return false, 0
	}
	if current.Rows() != m.baseline.Rows() || current.Cols() != m.baseline.Cols() {
		m.swap(current)
		return true, 100
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(current, m.baseline, &diff)
	gocv.Threshold(diff, &diff, pixelDelta, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols()) * 100

	m.swap(current)
	return changed > m.threshold, changed
}

func (m *MotionDetector) swap(next gocv.Mat) {
	m.baseline.Close()
	m.baseline = next
	m.primed = true
}

// prepare returns a small blurred grayscale copy of frame.
func prepare(frame gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	if frame.Channels() > 1 {
		gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	if gray.Cols() > analysisWidth {
		small := gocv.NewMat()
		height := gray.Rows() * analysisWidth / gray.Cols()
		gocv.Resize(gray, &small, image.Pt(analysisWidth, height), 0, 0, gocv.InterpolationArea)
		gray.Close()
		gray = small
	}

	blurred := gocv.NewMat()
	gocv.GaussianBlur(gray, &blurred, image.Pt(blurKernel, blurKernel), 0, 0, gocv.BorderDefault)
	gray.Close()
	return blurred
}

// Threshold returns the configured change percentage.
func (m *MotionDetector) Threshold() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.threshold
}

// Reset drops the baseline; the next frame starts a new comparison.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.baseline.Close()
	m.baseline = gocv.NewMat()
	m.primed = false
}

// Close releases the baseline frame. The detector may be reused afterwards.
func (m *MotionDetector) Close() {
	m.Reset()
}
