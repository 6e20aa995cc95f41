// Package config loads the startup configuration for the pinch-controlled color wheel.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds every option read once at startup. There is no runtime reconfiguration.
type Config struct {
	// Logging
	LogLevel string

	// Capture device
	CameraID    int
	FrameWidth  int
	FrameHeight int
	CameraFPS   int
	Mirror      bool

	// Wheel
	Segments    int
	MinSegments int
	MaxSegments int

	// Motion, in degrees per millisecond
	Deceleration    float64 // degrees/ms^2
	MaxVelocity     float64
	VelocityEpsilon float64
	SpinMin         float64
	SpinMax         float64

	// Pinch hysteresis, in normalized frame units
	PinchEnter float64
	PinchExit  float64

	// Wheel geometry in frame pixels
	WheelCenterX        float64
	WheelCenterY        float64
	WheelRadius         float64
	NearWheelMultiplier float64

	// Hand tracker
	MaxHands              int
	MinDetectionConf      float64
	MinTrackingConf       float64
	MotionThreshold       float64 // percent of changed pixels; 0 disables gating
	MediaPipeScript       string
	MediaPipeIdleTimeoutS int

	// Tray
	TrayEnabled bool
}

// Default returns the configuration used when no environment overrides are set.
// Geometry follows a 640x480 frame: wheel 250px from the right edge, radius min(200, h/3).
func Default() *Config {
	return &Config{
		LogLevel: "info",

		CameraID:    0,
		FrameWidth:  640,
		FrameHeight: 480,
		CameraFPS:   30,
		Mirror:      true,

		Segments:    8,
		MinSegments: 3,
		MaxSegments: 20,

		Deceleration:    0.0005,
		MaxVelocity:     2.0,
		VelocityEpsilon: 0.001,
		SpinMin:         0.4,
		SpinMax:         0.9,

		PinchEnter: 0.05,
		PinchExit:  0.07,

		WheelCenterX:        390,
		WheelCenterY:        240,
		WheelRadius:         160,
		NearWheelMultiplier: 1.5,

		MaxHands:              2,
		MinDetectionConf:      0.5,
		MinTrackingConf:       0.5,
		MotionThreshold:       0,
		MediaPipeIdleTimeoutS: 30,

		TrayEnabled: false,
	}
}

// Load reads the configuration from the environment, after loading a .env file if present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	d := Default()
	return &Config{
		LogLevel: getEnv("LOG_LEVEL", d.LogLevel),

		CameraID:    getEnvInt("CAMERA_ID", d.CameraID),
		FrameWidth:  getEnvInt("FRAME_WIDTH", d.FrameWidth),
		FrameHeight: getEnvInt("FRAME_HEIGHT", d.FrameHeight),
		CameraFPS:   getEnvInt("CAMERA_FPS", d.CameraFPS),
		Mirror:      getEnvBool("MIRROR", d.Mirror),

		Segments:    getEnvInt("SEGMENTS", d.Segments),
		MinSegments: getEnvInt("MIN_SEGMENTS", d.MinSegments),
		MaxSegments: getEnvInt("MAX_SEGMENTS", d.MaxSegments),

		Deceleration:    getEnvFloat("DECELERATION", d.Deceleration),
		MaxVelocity:     getEnvFloat("MAX_VELOCITY", d.MaxVelocity),
		VelocityEpsilon: getEnvFloat("VELOCITY_EPSILON", d.VelocityEpsilon),
		SpinMin:         getEnvFloat("SPIN_MIN", d.SpinMin),
		SpinMax:         getEnvFloat("SPIN_MAX", d.SpinMax),

		PinchEnter: getEnvFloat("PINCH_ENTER", d.PinchEnter),
		PinchExit:  getEnvFloat("PINCH_EXIT", d.PinchExit),

		WheelCenterX:        getEnvFloat("WHEEL_CENTER_X", d.WheelCenterX),
		WheelCenterY:        getEnvFloat("WHEEL_CENTER_Y", d.WheelCenterY),
		WheelRadius:         getEnvFloat("WHEEL_RADIUS", d.WheelRadius),
		NearWheelMultiplier: getEnvFloat("NEAR_WHEEL_MULTIPLIER", d.NearWheelMultiplier),

		MaxHands:              getEnvInt("MAX_HANDS", d.MaxHands),
		MinDetectionConf:      getEnvFloat("MIN_DETECTION_CONFIDENCE", d.MinDetectionConf),
		MinTrackingConf:       getEnvFloat("MIN_TRACKING_CONFIDENCE", d.MinTrackingConf),
		MotionThreshold:       getEnvFloat("MOTION_THRESHOLD", d.MotionThreshold),
		MediaPipeScript:       getEnv("MEDIAPIPE_SCRIPT", d.MediaPipeScript),
		MediaPipeIdleTimeoutS: getEnvInt("MEDIAPIPE_IDLE_TIMEOUT", d.MediaPipeIdleTimeoutS),

		TrayEnabled: getEnvBool("TRAY_ENABLED", d.TrayEnabled),
	}
}

// Validate reports every inconsistent option at once.
func (c *Config) Validate() error {
	var errs []error

	for _, f := range []struct {
		key   string
		value float64
	}{
		{"DECELERATION", c.Deceleration},
		{"MAX_VELOCITY", c.MaxVelocity},
		{"VELOCITY_EPSILON", c.VelocityEpsilon},
		{"SPIN_MIN", c.SpinMin},
		{"SPIN_MAX", c.SpinMax},
		{"PINCH_ENTER", c.PinchEnter},
		{"PINCH_EXIT", c.PinchExit},
		{"WHEEL_CENTER_X", c.WheelCenterX},
		{"WHEEL_CENTER_Y", c.WheelCenterY},
		{"WHEEL_RADIUS", c.WheelRadius},
		{"NEAR_WHEEL_MULTIPLIER", c.NearWheelMultiplier},
		{"MIN_DETECTION_CONFIDENCE", c.MinDetectionConf},
		{"MIN_TRACKING_CONFIDENCE", c.MinTrackingConf},
		{"MOTION_THRESHOLD", c.MotionThreshold},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			errs = append(errs, fmt.Errorf("%s must be a finite number, got %g", f.key, f.value))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if c.FrameWidth <= 0 || c.FrameHeight <= 0 {
		errs = append(errs, fmt.Errorf("frame size must be positive, got %dx%d", c.FrameWidth, c.FrameHeight))
	}
	if c.CameraFPS <= 0 {
		errs = append(errs, fmt.Errorf("camera fps must be positive, got %d", c.CameraFPS))
	}
	if c.MinSegments < 1 || c.MinSegments > c.MaxSegments {
		errs = append(errs, fmt.Errorf("segment bounds invalid: min %d, max %d", c.MinSegments, c.MaxSegments))
	} else if c.Segments < c.MinSegments || c.Segments > c.MaxSegments {
		errs = append(errs, fmt.Errorf("segments %d outside [%d, %d]", c.Segments, c.MinSegments, c.MaxSegments))
	}
	if c.PinchEnter <= 0 || c.PinchEnter >= c.PinchExit {
		errs = append(errs, fmt.Errorf("pinch thresholds need 0 < enter < exit, got enter %g exit %g", c.PinchEnter, c.PinchExit))
	}
	if c.Deceleration <= 0 {
		errs = append(errs, fmt.Errorf("deceleration must be positive, got %g", c.Deceleration))
	}
	if c.VelocityEpsilon <= 0 || c.MaxVelocity <= c.VelocityEpsilon {
		errs = append(errs, fmt.Errorf("velocity needs 0 < epsilon < max, got epsilon %g max %g", c.VelocityEpsilon, c.MaxVelocity))
	}
	if c.SpinMin <= 0 || c.SpinMin > c.SpinMax || c.SpinMax > c.MaxVelocity {
		errs = append(errs, fmt.Errorf("spin speed range [%g, %g] must be positive and within max velocity %g", c.SpinMin, c.SpinMax, c.MaxVelocity))
	}
	if c.WheelRadius <= 0 {
		errs = append(errs, fmt.Errorf("wheel radius must be positive, got %g", c.WheelRadius))
	}
	if c.NearWheelMultiplier <= 0 {
		errs = append(errs, fmt.Errorf("near-wheel multiplier must be positive, got %g", c.NearWheelMultiplier))
	}
	if c.MaxHands < 1 {
		errs = append(errs, fmt.Errorf("max hands must be at least 1, got %d", c.MaxHands))
	}
	if c.MotionThreshold < 0 {
		errs = append(errs, fmt.Errorf("motion threshold must not be negative, got %g", c.MotionThreshold))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-integer config value")
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-numeric config value")
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-boolean config value")
	}
	return defaultValue
}
