package app

import (
	"ecclesia/internal/allocate"
	"ecclesia/internal/history"
	"ecclesia/internal/scenario"
)

type CutMode string

const (
	// CutModeLength derives the cuts from a fixed per-cut length.
	CutModeLength CutMode = "length"
	// CutModeCount keeps a user-edited cut list and spreads the total
	// evenly over it.
	CutModeCount CutMode = "count"
)

// State is everything the form shows. It only changes through Reduce.
type State struct {
	ProjectTitle  string
	Theme         string
	TotalDuration int
	PerCut        int
	Mode          CutMode
	Cuts          []scenario.Cut
	Model         scenario.Model
	Language      scenario.Language

	Busy    bool
	Result  *scenario.Result
	Error   string
	History []history.Item
}

func NewState(model scenario.Model, lang scenario.Language) State {
	return State{
		Mode:     CutModeLength,
		Model:    model,
		Language: lang,
	}
}

// Submission is the request the current form would send.
func (s State) Submission() Submission {
	sub := Submission{
		ProjectTitle:  s.ProjectTitle,
		Theme:         s.Theme,
		TotalDuration: s.TotalDuration,
		Model:         string(s.Model),
		Language:      string(s.Language),
	}
	if s.Mode == CutModeCount {
		sub.Cuts = cloneCuts(s.Cuts)
	} else {
		sub.PerCut = s.PerCut
	}
	return sub
}

type Action interface {
	isAction()
}

type (
	SetProjectTitle struct{ Title string }
	SetTheme        struct{ Theme string }
	// SetTotal carries the raw form text; unparsable input counts as 0.
	SetTotal          struct{ Text string }
	SetPerCut         struct{ Text string }
	SetMode           struct{ Mode CutMode }
	SetModel          struct{ Model scenario.Model }
	SetLanguage       struct{ Language scenario.Language }
	AddCut            struct{ Cut scenario.Cut }
	RemoveCut         struct{ ID string }
	SetCutDescription struct {
		ID          string
		Description string
	}
	SubmitStarted   struct{}
	SubmitSucceeded struct {
		Result  *scenario.Result
		History []history.Item
	}
	SubmitFailed    struct{ Message string }
	HistoryLoaded   struct{ Items []history.Item }
	LoadHistoryItem struct{ Item history.Item }
	Reset           struct{}
)

func (SetProjectTitle) isAction()   {}
func (SetTheme) isAction()          {}
func (SetTotal) isAction()          {}
func (SetPerCut) isAction()         {}
func (SetMode) isAction()           {}
func (SetModel) isAction()          {}
func (SetLanguage) isAction()       {}
func (AddCut) isAction()            {}
func (RemoveCut) isAction()         {}
func (SetCutDescription) isAction() {}
func (SubmitStarted) isAction()     {}
func (SubmitSucceeded) isAction()   {}
func (SubmitFailed) isAction()      {}
func (HistoryLoaded) isAction()     {}
func (LoadHistoryItem) isAction()   {}
func (Reset) isAction()             {}

// Reduce returns the state after a. It never modifies s or the slices it
// holds. While a submission is in flight the form fields are frozen.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case SubmitStarted:
		if s.Busy {
			return s
		}
		s.Busy = true
		s.Error = ""
		s.Result = nil
		return s
	case SubmitSucceeded:
		s.Busy = false
		s.Error = ""
		s.Result = a.Result
		if a.History != nil {
			s.History = a.History
		}
		return s
	case SubmitFailed:
		s.Busy = false
		s.Error = a.Message
		s.Result = nil
		return s
	case HistoryLoaded:
		s.History = a.Items
		return s
	}

	if s.Busy {
		return s
	}

	switch a := a.(type) {
	case SetProjectTitle:
		s.ProjectTitle = a.Title
	case SetTheme:
		s.Theme = a.Theme
	case SetTotal:
		s.TotalDuration = allocate.ParseSeconds(a.Text)
		s = rebalance(s)
	case SetPerCut:
		s.PerCut = allocate.ParseSeconds(a.Text)
	case SetMode:
		s.Mode = a.Mode
		if s.Mode == CutModeCount && len(s.Cuts) == 0 {
			s.Cuts = []scenario.Cut{allocate.NewCut("")}
		}
		s = rebalance(s)
	case SetModel:
		s.Model = a.Model
	case SetLanguage:
		s.Language = a.Language
	case AddCut:
		s.Cuts = append(cloneCuts(s.Cuts), a.Cut)
		s = rebalance(s)
	case RemoveCut:
		if len(s.Cuts) <= 1 {
			return s
		}
		cuts := make([]scenario.Cut, 0, len(s.Cuts))
		for _, c := range s.Cuts {
			if c.ID != a.ID {
				cuts = append(cuts, c)
			}
		}
		s.Cuts = cuts
		s = rebalance(s)
	case SetCutDescription:
		cuts := cloneCuts(s.Cuts)
		for i := range cuts {
			if cuts[i].ID == a.ID {
				cuts[i].Description = a.Description
			}
		}
		s.Cuts = cuts
	case LoadHistoryItem:
		s = loadItem(s, a.Item)
	case Reset:
		reset := NewState(s.Model, s.Language)
		reset.History = s.History
		return reset
	}
	return s
}

func rebalance(s State) State {
	if s.Mode != CutModeCount {
		return s
	}
	if cuts, changed := allocate.Rebalance(s.Cuts, s.TotalDuration); changed {
		s.Cuts = cuts
	}
	return s
}

func loadItem(s State, item history.Item) State {
	s.ProjectTitle = item.ProjectTitle
	s.Theme = item.MainTheme
	s.TotalDuration = item.TotalDuration
	s.PerCut = item.CutDuration
	s.Model = item.Model
	s.Language = item.Language
	s.Error = ""

	if item.CutDuration > 0 || len(item.Cuts) == 0 {
		s.Mode = CutModeLength
		s.Cuts = nil
	} else {
		s.Mode = CutModeCount
		s.Cuts = cloneCuts(item.Cuts)
	}

	s.Result = nil
	if result, err := scenario.Parse(item.GeneratedJSON); err == nil {
		s.Result = result
	}
	return s
}

func cloneCuts(cuts []scenario.Cut) []scenario.Cut {
	if cuts == nil {
		return nil
	}
	out := make([]scenario.Cut, len(cuts))
	copy(out, cuts)
	return out
}
