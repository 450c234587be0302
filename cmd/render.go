package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"

	"ecclesia/internal/i18n"
	"ecclesia/internal/scenario"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	labelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	cutStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			MarginBottom(1)
)

func runWithSpinner(title string, fn func() error) error {
	var err error
	if spinErr := spinner.New().
		Title(title).
		Action(func() { err = fn() }).
		Run(); spinErr != nil {
		return spinErr
	}
	return err
}

func renderError(catalog *i18n.Catalog, lang, message string) string {
	return errorStyle.Render(catalog.T(lang, "errorOccurred") + " " + message)
}

// renderScenario draws the breakdown view of a generated scenario.
func renderScenario(catalog *i18n.Catalog, lang string, sc scenario.Scenario) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(catalog.T(lang, "outputTitle")))
	b.WriteString("\n")

	meta := []string{
		infoStyle.Render(catalog.T(lang, "metaDataTitle")),
		field("project_id", sc.ProjectID),
		field("title", sc.Meta.Title),
		field("theme", sc.Meta.Theme),
		field("total_duration", fmt.Sprintf("%ds", sc.Meta.TotalDuration)),
		field("visual_style", sc.Meta.VisualStyle),
		field("audio_profile", sc.Meta.AudioProfile),
	}
	b.WriteString(cutStyle.Render(strings.Join(nonEmpty(meta), "\n")))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(catalog.T(lang, "scenarioBreakdown")))
	b.WriteString("\n")
	for _, cut := range sc.Cuts {
		lines := []string{
			titleStyle.UnsetMarginBottom().Render(fmt.Sprintf("%s (%ds)", catalog.T(lang, "cutScenarioTitle", "cut_number", cut.Number), cut.Duration)),
			field(catalog.T(lang, "shotType"), strings.TrimSpace(cut.Scene.ShotType+" "+cut.Scene.CameraMovement)),
			field(catalog.T(lang, "visualPrompt"), cut.Scene.VisualPrompt),
			field(catalog.T(lang, "narrationText"), cut.Audio.NarrationText),
			field(catalog.T(lang, "narrationTone"), cut.Audio.NarrationTone),
			field(catalog.T(lang, "bgmCue"), cut.Audio.BGMCue),
		}
		b.WriteString(cutStyle.Render(strings.Join(nonEmpty(lines), "\n")))
		b.WriteString("\n")
	}

	return b.String()
}

func field(label, value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return labelStyle.Render(label+":") + " " + value
}

func nonEmpty(lines []string) []string {
	out := lines[:0]
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}
