package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ecclesia/internal/allocate"
	"ecclesia/internal/history"
	"ecclesia/internal/scenario"
)

// ErrBusy is returned when a submission arrives while another is in flight.
var ErrBusy = errors.New("a scenario is already being generated")

// Submission is the raw form input. A positive PerCut selects the
// fixed-length policy and every generated cut describes Theme. Otherwise
// Cuts holds the user's cut list and their durations are recomputed from
// TotalDuration.
type Submission struct {
	ProjectTitle  string
	Theme         string
	TotalDuration int
	PerCut        int
	Cuts          []scenario.Cut
	Model         string
	Language      string
}

type Outcome struct {
	Request scenario.Request
	Result  *scenario.Result
	Item    history.Item
	// Saved is false when the scenario was generated but could not be
	// written to history.
	Saved bool
}

// Allocate produces the cut list sub would be sent with.
func Allocate(sub Submission) ([]scenario.Cut, error) {
	if sub.PerCut > 0 || len(sub.Cuts) == 0 {
		return allocate.ByLength(sub.TotalDuration, sub.PerCut, sub.Theme)
	}

	if err := allocate.CheckCount(len(sub.Cuts)); err != nil {
		return nil, err
	}

	cuts := make([]scenario.Cut, len(sub.Cuts))
	copy(cuts, sub.Cuts)
	cuts, _ = allocate.Rebalance(cuts, sub.TotalDuration)
	return cuts, nil
}

// Submit runs one generation: allocate, build, call the service once,
// validate, then record the result in history. It fails fast with ErrBusy
// while another submission is running.
func (s *Service) Submit(ctx context.Context, sub Submission) (*Outcome, error) {
	if !s.busy.TryAcquire(1) {
		return nil, ErrBusy
	}
	defer s.busy.Release(1)

	req, err := s.request(sub)
	if err != nil {
		return nil, err
	}

	call, err := s.builder.Build(req)
	if err != nil {
		return nil, err
	}

	slog.Info("Generating scenario...",
		"provider", s.generator.Name(),
		"model", call.Model,
		"variant", s.builder.Variant(),
		"cuts", len(req.Cuts),
		"duration", req.TotalDuration,
	)
	start := s.now()

	text, err := s.generator.Generate(ctx, call)
	if err != nil {
		return nil, scenario.ServiceError(err)
	}

	result, err := scenario.Parse(text)
	if err != nil {
		slog.Debug("Rejected response", "kind", scenario.KindOf(err), "text", text)
		return nil, err
	}
	slog.Info("Scenario generated", "cuts", len(result.Scenario.Cuts), "elapsed", s.now().Sub(start).Round(time.Millisecond))

	perCut := 0
	if sub.PerCut > 0 {
		perCut = sub.PerCut
	}
	outcome := &Outcome{
		Request: req,
		Result:  result,
		Item:    history.NewItem(req, perCut, result.JSON, s.now()),
	}

	if err := s.history.Append(ctx, outcome.Item); err != nil {
		slog.Warn("Failed to save history", "error", err)
		return outcome, nil
	}
	outcome.Saved = true
	return outcome, nil
}

func (s *Service) request(sub Submission) (scenario.Request, error) {
	cuts, err := Allocate(sub)
	if err != nil {
		return scenario.Request{}, err
	}

	model := s.defaultModel
	if sub.Model != "" {
		if model, err = scenario.ParseModel(sub.Model); err != nil {
			return scenario.Request{}, err
		}
	}
	lang := s.defaultLanguage
	if sub.Language != "" {
		if lang, err = scenario.ParseLanguage(sub.Language); err != nil {
			return scenario.Request{}, err
		}
	}

	return scenario.Request{
		ProjectTitle:  sub.ProjectTitle,
		Theme:         sub.Theme,
		TotalDuration: sub.TotalDuration,
		Cuts:          cuts,
		Model:         model,
		Language:      lang,
	}, nil
}

// UserMessage turns any submission error into the one line shown to the
// user, in lang.
func (s *Service) UserMessage(err error, lang string) string {
	if err == nil {
		return ""
	}

	var serr *scenario.Error
	switch {
	case errors.Is(err, ErrBusy):
		return s.catalog.T(lang, "busyError")
	case errors.Is(err, allocate.ErrTooManyCuts):
		return s.catalog.T(lang, "tooManyCutsError", "max", allocate.MaxCuts)
	case errors.Is(err, scenario.ErrUnsupported) && errors.As(err, &serr):
		return s.catalog.T(lang, "unsupportedOption", "detail", serr.Message)
	}

	switch scenario.KindOf(err) {
	case scenario.KindValidation:
		return s.catalog.T(lang, "durationError")
	case scenario.KindNoCuts:
		return s.catalog.T(lang, "noCutsError")
	case scenario.KindEmptyResponse:
		return s.catalog.T(lang, "emptyResponseError")
	case scenario.KindMalformedResponse:
		return s.catalog.T(lang, "malformedResponseError")
	case scenario.KindStructuralMismatch:
		return s.catalog.T(lang, "structuralMismatchError")
	case scenario.KindService:
		return s.catalog.T(lang, "serviceError")
	default:
		return s.catalog.T(lang, "clientSideError")
	}
}
