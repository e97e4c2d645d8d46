// internal/planner/factory.go
package planner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/ghost/internal/config"
)

// New creates the planner selected by cfg.Provider.
func New(ctx context.Context, cfg config.PlannerConfig, logger *zap.Logger) (Planner, error) {
	logger.Info("Initializing planner", zap.String("provider", cfg.Provider), zap.String("model", cfg.Model))

	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiPlanner(ctx, cfg, logger)
	case config.ProviderScript:
		if cfg.ScriptPath == "" {
			return nil, fmt.Errorf("planner.script_path is required for the script provider")
		}
		return LoadScript(cfg.ScriptPath)
	default:
		return nil, fmt.Errorf("unsupported planner provider: %s", cfg.Provider)
	}
}
