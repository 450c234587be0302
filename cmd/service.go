package cmd

import (
	"context"
	"fmt"

	"ecclesia/internal/app"
	"ecclesia/pkg/config"
)

func loadService(ctx context.Context) (*config.Config, *app.BuildResult, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	result, err := app.BuildService(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, result, nil
}
