package app

import (
	"time"

	"golang.org/x/sync/semaphore"

	"ecclesia/internal/history"
	"ecclesia/internal/i18n"
	"ecclesia/internal/llm"
	"ecclesia/internal/scenario"
)

type Service struct {
	generator llm.Generator
	builder   *scenario.Builder
	history   *history.Store
	catalog   *i18n.Catalog

	defaultModel    scenario.Model
	defaultLanguage scenario.Language

	// busy admits one submission at a time.
	busy *semaphore.Weighted
	now  func() time.Time
}

type ServiceOptions struct {
	Generator       llm.Generator
	Builder         *scenario.Builder
	History         *history.Store
	Catalog         *i18n.Catalog
	DefaultModel    scenario.Model
	DefaultLanguage scenario.Language
	Now             func() time.Time
}

func NewService(opts ServiceOptions) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	model := opts.DefaultModel
	if model == "" {
		model = scenario.DefaultModel
	}
	lang := opts.DefaultLanguage
	if lang == "" {
		lang = scenario.DefaultLanguage
	}

	return &Service{
		generator:       opts.Generator,
		builder:         opts.Builder,
		history:         opts.History,
		catalog:         opts.Catalog,
		defaultModel:    model,
		defaultLanguage: lang,
		busy:            semaphore.NewWeighted(1),
		now:             now,
	}
}

func (s *Service) Generator() llm.Generator {
	return s.generator
}

func (s *Service) History() *history.Store {
	return s.history
}

func (s *Service) Catalog() *i18n.Catalog {
	return s.catalog
}

func (s *Service) DefaultModel() scenario.Model {
	return s.defaultModel
}

func (s *Service) DefaultLanguage() scenario.Language {
	return s.defaultLanguage
}

// Busy reports whether a submission is in flight.
func (s *Service) Busy() bool {
	if !s.busy.TryAcquire(1) {
		return true
	}
	s.busy.Release(1)
	return false
}
