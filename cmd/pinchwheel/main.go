package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/ncruces/zenity"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/pinchwheel/internal/app"
	"github.com/ayusman/pinchwheel/internal/capture"
	"github.com/ayusman/pinchwheel/internal/config"
	"github.com/ayusman/pinchwheel/internal/tray"
)

const windowTitle = "Pinchwheel - pinch to turn, Space to spin, q to quit"

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Str("session", uuid.NewString()).Logger()

	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("Invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if err := run(cfg); err != nil {
		log.WithLevel(zerolog.FatalLevel).Err(err).Msg("Pinchwheel failed")
		if dlgErr := zenity.Error(err.Error(), zenity.Title("Pinchwheel"), zenity.ErrorIcon); dlgErr != nil {
			log.Debug().Err(dlgErr).Msg("Error dialog unavailable")
		}
		os.Exit(1)
	}
}

// run owns every resource; they are released before it returns on all paths.
func run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	appCfg := app.ConfigFrom(cfg)
	game := app.New(appCfg, capture.NewCamera(appCfg.Camera), app.NewDetector(appCfg))
	defer func() {
		if err := game.Close(); err != nil {
			log.Warn().Err(err).Msg("Error releasing resources")
		}
	}()

	if err := game.Start(); err != nil {
		return err
	}

	if cfg.TrayEnabled {
		t := tray.New(game)
		game.OnSelect(func(_ int, hex string) { t.SetSelected(hex) })
		game.OnTrackingChanged(t.SetTracking)
		t.Start()
		defer t.Stop()
	}

	ebiten.SetWindowSize(cfg.FrameWidth, cfg.FrameHeight)
	ebiten.SetWindowTitle(windowTitle)
	ebiten.SetTPS(cfg.CameraFPS)

	log.Info().
		Int("camera", cfg.CameraID).
		Int("segments", cfg.Segments).
		Bool("tray", cfg.TrayEnabled).
		Msg("Starting color wheel")

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("game loop: %w", err)
	}
	return nil
}
