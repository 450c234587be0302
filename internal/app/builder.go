package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"ecclesia/internal/history"
	"ecclesia/internal/i18n"
	"ecclesia/internal/llm"
	"ecclesia/internal/llm/gemini"
	"ecclesia/internal/llm/groq"
	"ecclesia/internal/scenario"
	"ecclesia/pkg/config"
	"ecclesia/pkg/prompts"
)

type BuildResult struct {
	Service *Service
	closers []io.Closer
}

func (r *BuildResult) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func BuildService(ctx context.Context, cfg *config.Config) (*BuildResult, error) {
	p, err := prompts.Load()
	if err != nil {
		return nil, err
	}

	variant, err := scenario.ParseVariant(cfg.Request.Variant)
	if err != nil {
		return nil, err
	}
	if cfg.Provider == "groq" && variant == scenario.VariantSchema {
		slog.Warn("Groq has no response schema support, using the instruction variant")
		variant = scenario.VariantInstruction
	}

	model, err := scenario.ParseModel(cfg.Request.Model)
	if err != nil {
		return nil, err
	}
	lang, err := scenario.ParseLanguage(cfg.Request.Language)
	if err != nil {
		return nil, err
	}

	generator, err := newGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, closer, err := OpenHistory(ctx, cfg)
	if err != nil {
		return nil, err
	}

	catalog, err := i18n.Default()
	if err != nil {
		return nil, err
	}

	builder := scenario.NewBuilder(scenario.BuilderOptions{
		Prompts: p,
		Variant: variant,
		Sampling: map[scenario.Variant]scenario.Sampling{
			scenario.VariantInstruction: {
				Temperature:     cfg.Request.Instruction.Temperature(),
				MaxOutputTokens: cfg.Request.Instruction.MaxOutputTokens,
			},
			scenario.VariantSchema: {
				Temperature:     cfg.Request.Schema.Temperature(),
				MaxOutputTokens: cfg.Request.Schema.MaxOutputTokens,
			},
		},
	})

	service := NewService(ServiceOptions{
		Generator:       generator,
		Builder:         builder,
		History:         store,
		Catalog:         catalog,
		DefaultModel:    model,
		DefaultLanguage: lang,
	})

	result := &BuildResult{Service: service}
	if closer != nil {
		result.closers = append(result.closers, closer)
	}
	return result, nil
}

// OpenHistory opens the configured history slot and loads it. The closer is
// nil for slots that hold no resources.
func OpenHistory(ctx context.Context, cfg *config.Config) (*history.Store, io.Closer, error) {
	var (
		slot   history.Slot
		closer io.Closer
	)

	switch cfg.History.Backend {
	case "file", "":
		slot = history.NewFileSlot(cfg.History.Path)
	case "gcs":
		gcs, err := history.NewGCSSlot(ctx, history.GCSOptions{
			Bucket:          cfg.History.GCS.Bucket,
			Object:          cfg.History.GCS.Object,
			CredentialsFile: cfg.History.GCS.CredentialsFile,
		})
		if err != nil {
			return nil, nil, err
		}
		slot, closer = gcs, gcs
	default:
		return nil, nil, fmt.Errorf("unknown history backend %q", cfg.History.Backend)
	}

	store := history.NewStore(history.StoreOptions{
		Slot:     slot,
		MaxItems: cfg.History.Limit(),
	})
	if err := store.Load(ctx); err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, nil, err
	}
	return store, closer, nil
}

func newGenerator(ctx context.Context, cfg *config.Config) (llm.Generator, error) {
	switch cfg.Provider {
	case "gemini", "":
		return gemini.NewClient(ctx, gemini.Options{
			APIKey:   cfg.GeminiAPIKey,
			Backend:  cfg.Gemini.Backend,
			Project:  cfg.GCPProject,
			Location: cfg.GCPLocation,
			BaseURL:  cfg.Gemini.BaseURL,
		})
	case "groq":
		return groq.NewClient(cfg.GroqAPIKey, cfg.Groq.Model)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
