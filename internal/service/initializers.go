// File: internal/service/initializers.go
package service

import (
	"context"
	"fmt"
	"os/exec"

	"go.uber.org/zap"

	"github.com/xkilldash9x/ghost/internal/config"
	"github.com/xkilldash9x/ghost/internal/render"
	"github.com/xkilldash9x/ghost/internal/speech"
)

// InitializeRenderer builds the viewport renderer selected by cfg.Engine. The
// returned cleanup is nil when there is nothing to release.
func InitializeRenderer(ctx context.Context, cfg config.RenderConfig, logger *zap.Logger) (render.Renderer, func(), error) {
	switch cfg.Engine {
	case config.EngineRaster, "":
		return render.NewRasterRenderer(), nil, nil
	case config.EngineChrome:
		logger.Info("Starting headless browser for viewport capture.", zap.Bool("headless", cfg.Headless))
		r, err := render.NewChromeRenderer(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported render engine: %s", cfg.Engine)
	}
}

// InitializeSpeaker returns the configured speaker, falling back to a silent
// one when the command is not installed.
func InitializeSpeaker(cfg config.SpeechConfig, logger *zap.Logger) speech.Speaker {
	if !cfg.Enabled {
		return speech.Nop{}
	}
	if _, err := exec.LookPath(cfg.Command); err != nil {
		logger.Warn("Speech command not found, continuing silently.", zap.String("command", cfg.Command), zap.Error(err))
		return speech.Nop{}
	}
	logger.Info("Speech enabled.", zap.String("command", cfg.Command))
	return speech.New(cfg, logger)
}
