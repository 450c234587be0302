package app

import (
	"context"
	"sync"

	"ecclesia/internal/history"
)

// Session owns one form State and applies actions to it in order.
// Persistence happens in the Service as a side effect of committed history
// mutations; the session only mirrors the resulting list.
type Session struct {
	service *Service

	mu    sync.Mutex
	state State
}

func NewSession(service *Service) *Session {
	state := NewState(service.DefaultModel(), service.DefaultLanguage())
	state.History = service.History().List()
	return &Session{service: service, state: state}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.state)
}

func (s *Session) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, a)
	return snapshot(s.state)
}

// Submit sends the current form. The returned state carries either the
// result or the localized error message.
func (s *Session) Submit(ctx context.Context) State {
	s.mu.Lock()
	if s.state.Busy {
		s.mu.Unlock()
		return s.State()
	}
	s.state = Reduce(s.state, SubmitStarted{})
	sub := s.state.Submission()
	lang := string(s.state.Language)
	s.mu.Unlock()

	outcome, err := s.service.Submit(ctx, sub)
	if err != nil {
		return s.Dispatch(SubmitFailed{Message: s.service.UserMessage(err, lang)})
	}
	return s.Dispatch(SubmitSucceeded{Result: outcome.Result, History: s.service.History().List()})
}

func (s *Session) DeleteHistory(ctx context.Context, id string) (State, error) {
	if _, err := s.service.History().Remove(ctx, id); err != nil {
		return s.State(), err
	}
	return s.Dispatch(HistoryLoaded{Items: s.service.History().List()}), nil
}

func (s *Session) ClearHistory(ctx context.Context) (State, error) {
	if err := s.service.History().Clear(ctx); err != nil {
		return s.State(), err
	}
	return s.Dispatch(HistoryLoaded{Items: s.service.History().List()}), nil
}

// Load puts a history item back into the form.
func (s *Session) Load(id string) (State, bool) {
	item, ok := s.service.History().Get(id)
	if !ok {
		return s.State(), false
	}
	return s.Dispatch(LoadHistoryItem{Item: item}), true
}

func snapshot(st State) State {
	st.Cuts = cloneCuts(st.Cuts)
	if st.History != nil {
		st.History = append([]history.Item(nil), st.History...)
	}
	return st
}

