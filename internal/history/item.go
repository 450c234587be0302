package history

import (
	"time"

	"github.com/google/uuid"

	"ecclesia/internal/scenario"
)

// Item is one persisted submission. Field names follow the stored layout of
// the history slot.
type Item struct {
	ID            string            `json:"id"`
	Timestamp     int64             `json:"timestamp"`
	ProjectTitle  string            `json:"projectTitle"`
	MainTheme     string            `json:"mainTheme"`
	TotalDuration int               `json:"totalDuration"`
	CutDuration   int               `json:"cutDuration,omitempty"`
	CutCount      int               `json:"cutCount"`
	Cuts          []scenario.Cut    `json:"cuts,omitempty"`
	Model         scenario.Model    `json:"model"`
	Language      scenario.Language `json:"language"`
	GeneratedJSON string            `json:"generatedJson"`
}

// NewItem snapshots req together with the accepted response text. perCut is
// zero when the cuts were allocated by count.
func NewItem(req scenario.Request, perCut int, generatedJSON string, now time.Time) Item {
	cuts := make([]scenario.Cut, len(req.Cuts))
	copy(cuts, req.Cuts)

	return Item{
		ID:            uuid.NewString(),
		Timestamp:     now.UnixMilli(),
		ProjectTitle:  req.ProjectTitle,
		MainTheme:     req.Theme,
		TotalDuration: req.TotalDuration,
		CutDuration:   perCut,
		CutCount:      len(cuts),
		Cuts:          cuts,
		Model:         req.Model,
		Language:      req.Language,
		GeneratedJSON: generatedJSON,
	}
}

func (i Item) Time() time.Time {
	return time.UnixMilli(i.Timestamp)
}

// Request rebuilds the submission that produced the item.
func (i Item) Request() scenario.Request {
	cuts := make([]scenario.Cut, len(i.Cuts))
	copy(cuts, i.Cuts)

	return scenario.Request{
		ProjectTitle:  i.ProjectTitle,
		Theme:         i.MainTheme,
		TotalDuration: i.TotalDuration,
		Cuts:          cuts,
		Model:         i.Model,
		Language:      i.Language,
	}
}
