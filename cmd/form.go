package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"ecclesia/internal/allocate"
	"ecclesia/internal/app"
	"ecclesia/internal/i18n"
	"ecclesia/internal/scenario"
)

var formLoadID string

var formCmd = &cobra.Command{
	Use:   "form",
	Short: "Fill in the scenario form interactively",
	Long: `Walk through the scenario form: project details, cut plan, model and
output language. The cut plan is either a fixed length per cut or a list
of cuts sharing the total duration evenly.`,
	RunE: runForm,
}

func init() {
	formCmd.Flags().StringVar(&formLoadID, "load", "", "Prefill the form from a history item")
	rootCmd.AddCommand(formCmd)
}

func runForm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	_, built, err := loadService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = built.Close() }()

	session := app.NewSession(built.Service)
	if formLoadID != "" {
		if _, ok := session.Load(formLoadID); !ok {
			st := session.State()
			return errors.New(built.Service.Catalog().T(string(st.Language), "historyNotFound", "id", formLoadID))
		}
	}

	catalog := built.Service.Catalog()
	lang := string(session.State().Language)
	fmt.Println(titleStyle.Render(catalog.T(lang, "headerTitle") + " · " + catalog.T(lang, "headerSubtitle")))

	if err := fillDetails(session, catalog); err != nil {
		return err
	}

	if session.State().Mode == app.CutModeCount {
		if err := editCuts(session, catalog); err != nil {
			return err
		}
	}

	return submitForm(ctx, session, catalog)
}

func fillDetails(session *app.Session, catalog *i18n.Catalog) error {
	st := session.State()
	lang := string(st.Language)

	title := st.ProjectTitle
	theme := st.Theme
	total := secondsText(st.TotalDuration)
	mode := st.Mode
	model := st.Model
	language := st.Language

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title(catalog.T(lang, "projectTitle")).Value(&title),
			huh.NewInput().Title(catalog.T(lang, "bibleVerse")).Value(&theme),
			huh.NewInput().Title(catalog.T(lang, "totalDuration")).Value(&total).Validate(positiveSeconds),
			huh.NewSelect[app.CutMode]().
				Options(
					huh.NewOption(catalog.T(lang, "durationPerCut"), app.CutModeLength),
					huh.NewOption(catalog.T(lang, "cutCount"), app.CutModeCount),
				).
				Value(&mode),
		).Title(catalog.T(lang, "projectDetails")),
		huh.NewGroup(
			huh.NewSelect[scenario.Model]().
				Title(catalog.T(lang, "aiModel")).
				Options(
					huh.NewOption(catalog.T(lang, "modelFlash"), scenario.ModelFlash),
					huh.NewOption(catalog.T(lang, "modelPro"), scenario.ModelPro),
				).
				Value(&model),
			huh.NewSelect[scenario.Language]().
				Title(catalog.T(lang, "outputLanguage")).
				Options(
					huh.NewOption(catalog.T(lang, "languageKo"), scenario.Korean),
					huh.NewOption(catalog.T(lang, "languageEn"), scenario.English),
				).
				Value(&language),
		).Title(catalog.T(lang, "configuration")),
	).Run()
	if err != nil {
		return err
	}

	session.Dispatch(app.SetProjectTitle{Title: title})
	session.Dispatch(app.SetTheme{Theme: theme})
	session.Dispatch(app.SetModel{Model: model})
	session.Dispatch(app.SetLanguage{Language: language})
	session.Dispatch(app.SetTotal{Text: total})
	st = session.Dispatch(app.SetMode{Mode: mode})

	// Count mode starts with the single cut seeded by SetMode.
	if st.Mode == app.CutModeCount {
		return nil
	}

	lang = string(st.Language)
	perCut := secondsText(st.PerCut)
	if err := huh.NewInput().
		Title(catalog.T(lang, "durationPerCut")).
		Value(&perCut).
		Validate(positiveSeconds).
		Run(); err != nil {
		return err
	}
	session.Dispatch(app.SetPerCut{Text: perCut})
	return nil
}

const (
	cutActionAdd    = -1
	cutActionRemove = -2
	cutActionDone   = -3
)

// editCuts loops over the cut list until the user is done. Every change goes
// through the session so durations are rebalanced after each edit.
func editCuts(session *app.Session, catalog *i18n.Catalog) error {
	for {
		st := session.State()
		lang := string(st.Language)

		options := make([]huh.Option[int], 0, len(st.Cuts)+3)
		for i, c := range st.Cuts {
			label := catalog.T(lang, "cutKeywords", "cut_number", i+1, "duration", c.Duration)
			if c.Description != "" {
				label += ": " + c.Description
			}
			options = append(options, huh.NewOption(label, i))
		}
		options = append(options, huh.NewOption(catalog.T(lang, "addCut"), cutActionAdd))
		if len(st.Cuts) > 1 {
			options = append(options, huh.NewOption(catalog.T(lang, "removeCut"), cutActionRemove))
		}
		options = append(options, huh.NewOption(catalog.T(lang, "doneEditing"), cutActionDone))

		choice := cutActionDone
		if err := huh.NewSelect[int]().
			Title(catalog.T(lang, "cutCount")).
			Options(options...).
			Value(&choice).
			Run(); err != nil {
			return err
		}

		switch choice {
		case cutActionDone:
			return nil
		case cutActionAdd:
			session.Dispatch(app.AddCut{Cut: allocate.NewCut(st.Theme)})
		case cutActionRemove:
			session.Dispatch(app.RemoveCut{ID: st.Cuts[len(st.Cuts)-1].ID})
		default:
			c := st.Cuts[choice]
			desc := c.Description
			if err := huh.NewInput().
				Title(catalog.T(lang, "cutKeywords", "cut_number", choice+1, "duration", c.Duration)).
				Value(&desc).
				Run(); err != nil {
				return err
			}
			session.Dispatch(app.SetCutDescription{ID: c.ID, Description: desc})
		}
	}
}

func submitForm(ctx context.Context, session *app.Session, catalog *i18n.Catalog) error {
	lang := string(session.State().Language)

	var st app.State
	if err := runWithSpinner(catalog.T(lang, "generatingMessage"), func() error {
		st = session.Submit(ctx)
		return nil
	}); err != nil {
		return err
	}

	if st.Error != "" {
		fmt.Println(renderError(catalog, lang, st.Error))
		return nil
	}

	fmt.Println(renderScenario(catalog, lang, st.Result.Scenario))
	return copyMenu(catalog, lang, st.Result)
}

const (
	copyFull = -1
	copyMeta = -2
	copyDone = -3
)

func copyMenu(catalog *i18n.Catalog, lang string, result *scenario.Result) error {
	options := []huh.Option[int]{
		huh.NewOption(catalog.T(lang, "copyFullJsonButton"), copyFull),
		huh.NewOption(catalog.T(lang, "metaDataTitle"), copyMeta),
	}
	for _, c := range result.Scenario.Cuts {
		options = append(options, huh.NewOption(
			catalog.T(lang, "copyCutButton")+" "+strconv.Itoa(c.Number), c.Number))
	}
	options = append(options, huh.NewOption(catalog.T(lang, "doneEditing"), copyDone))

	for {
		choice := copyDone
		if err := huh.NewSelect[int]().
			Title(catalog.T(lang, "copyButton")).
			Options(options...).
			Value(&choice).
			Run(); err != nil {
			return err
		}

		switch choice {
		case copyDone:
			return nil
		case copyFull:
			copyText(result.JSON, catalog.T(lang, "copiedButton"))
		case copyMeta:
			text, err := result.MetaJSON()
			if err != nil {
				return err
			}
			copyText(text, catalog.T(lang, "copiedButton"))
		default:
			cut, ok := result.Scenario.Cut(choice)
			if !ok {
				continue
			}
			text, err := cut.RawJSON()
			if err != nil {
				return err
			}
			copyText(text, catalog.T(lang, "cutCopiedButton"))
		}
	}
}

func secondsText(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func positiveSeconds(s string) error {
	if allocate.ParseSeconds(s) <= 0 {
		return errors.New("enter a number of seconds greater than 0")
	}
	return nil
}
