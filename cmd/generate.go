package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ecclesia/internal/allocate"
	"ecclesia/internal/app"
	"ecclesia/internal/scenario"
)

var (
	genTitle  string
	genTheme  string
	genTotal  int
	genPerCut int
	genCuts   int
	genDescs  []string
	genModel  string
	genLang   string
	genCopy   bool
	genRaw    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a scenario from flags",
	Long: `Generate a scenario in one shot. Use --per-cut to split the total
duration into fixed-length cuts, or --cuts to spread it evenly over a
number of cuts (optionally with one --desc per cut).`,
	Example: `  ecclesia generate --title "Gethsemane" --theme "Matthew 26:36-46" --total 90 --per-cut 30
  ecclesia generate --theme "Psalm 23" --total 60 --cuts 3 --desc "shepherd" --desc "valley" --desc "table" --lang en`,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&genTitle, "title", "t", "", "Project title")
	f.StringVar(&genTheme, "theme", "", "Bible verse or main theme")
	f.IntVar(&genTotal, "total", 0, "Total duration in seconds")
	f.IntVar(&genPerCut, "per-cut", 0, "Duration per cut in seconds")
	f.IntVar(&genCuts, "cuts", 0, "Number of cuts sharing the total duration")
	f.StringArrayVar(&genDescs, "desc", nil, "Keywords for one cut, repeat per cut")
	f.StringVarP(&genModel, "model", "m", "", "Model: gemini-2.5-flash or gemini-2.5-pro")
	f.StringVarP(&genLang, "lang", "l", "", "Output language: en or ko")
	f.BoolVar(&genCopy, "copy", false, "Copy the full JSON to the clipboard")
	f.BoolVar(&genRaw, "raw", false, "Print only the JSON")
	generateCmd.MarkFlagsMutuallyExclusive("per-cut", "cuts")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	_, built, err := loadService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = built.Close() }()
	svc := built.Service

	lang := genLang
	if lang == "" {
		lang = string(svc.DefaultLanguage())
	}
	catalog := svc.Catalog()

	sub := app.Submission{
		ProjectTitle:  genTitle,
		Theme:         genTheme,
		TotalDuration: genTotal,
		PerCut:        genPerCut,
		Model:         genModel,
		Language:      genLang,
	}
	if genCuts > 0 || len(genDescs) > 0 {
		sub.PerCut = 0
		sub.Cuts = cutsFromFlags(genCuts, genDescs, genTheme)
	}

	var outcome *app.Outcome
	err = runWithSpinner(catalog.T(lang, "generatingMessage"), func() error {
		var submitErr error
		outcome, submitErr = svc.Submit(ctx, sub)
		return submitErr
	})
	if err != nil {
		fmt.Println(renderError(catalog, lang, svc.UserMessage(err, lang)))
		cmd.SilenceErrors = true
		return err
	}

	if genRaw {
		fmt.Println(outcome.Result.JSON)
	} else {
		fmt.Println(renderScenario(catalog, lang, outcome.Result.Scenario))
		if !outcome.Saved {
			fmt.Println(warnStyle.Render("history not saved, see log"))
		}
	}

	if genCopy {
		copyText(outcome.Result.JSON, catalog.T(lang, "copiedButton"))
	}
	return nil
}

// cutsFromFlags builds count-mode cuts: n cuts, or one per description when
// more descriptions are given. Cuts without a description use theme.
func cutsFromFlags(n int, descs []string, theme string) []scenario.Cut {
	if len(descs) > n {
		n = len(descs)
	}
	cuts := make([]scenario.Cut, n)
	for i := range cuts {
		desc := theme
		if i < len(descs) && descs[i] != "" {
			desc = descs[i]
		}
		cuts[i] = allocate.NewCut(desc)
	}
	return cuts
}
