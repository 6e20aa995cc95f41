package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"
)

var (
	// ErrScriptNotFound is returned when mediapipe_service.py cannot be located.
	ErrScriptNotFound = errors.New("mediapipe_service.py not found")

	// ErrFrameRejected wraps a per-frame error reported by the service itself.
	// The service stays up after one.
	ErrFrameRejected = errors.New("mediapipe service rejected frame")

	// ErrServiceBackoff is returned while the service is down and waiting out
	// its restart delay.
	ErrServiceBackoff = errors.New("mediapipe service restarting")
)

// Restart delays after consecutive service failures double from
// minRestartDelay up to maxRestartDelay.
const (
	minRestartDelay = 500 * time.Millisecond
	maxRestartDelay = 30 * time.Second
)

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
//
// Each frame is sent as a 4-byte big-endian length followed by JPEG bytes on the
// service's stdin; the service answers with one JSON line on stdout.
type MediaPipeDetector struct {
	config    Config
	script    string
	python    string
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	idleTimer *time.Timer

	now      func() time.Time
	failures int
	retryAt  time.Time
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	script := config.ScriptPath
	if script != "" {
		if _, err := os.Stat(script); err != nil {
			return nil, fmt.Errorf("mediapipe script: %w", err)
		}
	} else if script = findMediaPipeScript(); script == "" {
		return nil, ErrScriptNotFound
	}

	python := findVenvPython()
	if python == "" {
		python = "python3"
	}

	return &MediaPipeDetector{
		config: config,
		script: script,
		python: python,
		now:    time.Now,
	}, nil
}

// Detect analyzes a frame and returns detected hand landmarks.
// A failed start or exchange stops the service and the next start waits out a
// growing delay, during which Detect returns ErrServiceBackoff. Frames the
// service rejects leave it running.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	if frame == nil || frame.Empty() {
		return nil, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started && d.now().Before(d.retryAt) {
		return nil, ErrServiceBackoff
	}

	if err := d.ensureStarted(); err != nil {
		d.fail()
		return nil, err
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	hands, err := d.exchange(buf.GetBytes())
	if errors.Is(err, ErrFrameRejected) {
		d.resetIdleTimer()
		return nil, err
	}
	if err != nil {
		if stopErr := d.shutdown(); stopErr != nil {
			log.Debug().Err(stopErr).Msg("MediaPipe service exited")
		}
		d.fail()
		return nil, err
	}

	d.failures = 0
	d.resetIdleTimer()
	return hands, nil
}

// fail records a service failure and schedules the next start attempt.
func (d *MediaPipeDetector) fail() {
	d.failures++
	delay := maxRestartDelay
	if shift := d.failures - 1; shift < 16 {
		delay = min(minRestartDelay<<shift, maxRestartDelay)
	}
	d.retryAt = d.now().Add(delay)

	log.Warn().
		Int("failures", d.failures).
		Dur("retry_in", delay).
		Msg("MediaPipe service failed, backing off")
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) exchange(data []byte) ([]HandLandmarks, error) {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(data)))

	if _, err := d.stdin.Write(header[:]); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return parseResponse(line)
}

func (d *MediaPipeDetector) args() []string {
	args := []string{d.script}
	if d.config.MaxHands > 0 {
		args = append(args, "--max-hands", strconv.Itoa(d.config.MaxHands))
	}
	if d.config.MinConfidence > 0 {
		args = append(args, "--min-detection", strconv.FormatFloat(d.config.MinConfidence, 'f', -1, 64))
	}
	if d.config.MinTrackingConf > 0 {
		args = append(args, "--min-tracking", strconv.FormatFloat(d.config.MinTrackingConf, 'f', -1, 64))
	}
	return args
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	cmd := exec.Command(d.python, d.args()...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start mediapipe service: %w", err)
	}

	d.cmd = cmd
	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true

	log.Info().Str("python", d.python).Str("script", d.script).Int("pid", cmd.Process.Pid).Msg("MediaPipe service started")
	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.config.IdleTimeout <= 0 {
		return
	}
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(d.config.IdleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		log.Info().Dur("idle", d.config.IdleTimeout).Msg("MediaPipe service idle, stopping")
		if err := d.shutdown(); err != nil {
			log.Debug().Err(err).Msg("MediaPipe service exited")
		}
	})
}

func findMediaPipeScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/mediapipe_service.py",
		"../scripts/mediapipe_service.py",
		filepath.Join(execDir, "scripts/mediapipe_service.py"),
		filepath.Join(os.Getenv("HOME"), ".pinchwheel/scripts/mediapipe_service.py"),
	}

	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".pinchwheel/venv/bin/python"),
	}

	return firstExisting(candidates)
}

func firstExisting(paths []string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}

// jsonHand represents the JSON structure from the Python service.
type jsonHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

type jsonResponse struct {
	Hands []jsonHand `json:"hands"`
	Error string     `json:"error,omitempty"`
}

// parseResponse decodes one response line. Hands with extra points keep the first
// NumLandmarks; hands with fewer are zero-filled and later rejected by Valid.
func parseResponse(line []byte) ([]HandLandmarks, error) {
	var resp jsonResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrFrameRejected, resp.Error)
	}

	hands := make([]HandLandmarks, len(resp.Hands))
	for i, h := range resp.Hands {
		hands[i].Handedness = h.Handedness
		hands[i].Score = h.Score
		copy(hands[i].Points[:], h.Points)
	}
	return hands, nil
}
