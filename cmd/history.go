package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ecclesia/internal/app"
	"ecclesia/internal/history"
	"ecclesia/internal/i18n"
	"ecclesia/internal/scenario"
	"ecclesia/pkg/config"
)

var (
	historyLang  string
	showCopy     bool
	showCut      int
	showMeta     bool
	clearConfirm bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse and manage past generations",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved scenarios, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved scenario",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one saved scenario",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all saved scenarios",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

func init() {
	historyCmd.PersistentFlags().StringVarP(&historyLang, "lang", "l", "", "Message language: en or ko")

	historyShowCmd.Flags().BoolVar(&showCopy, "copy", false, "Copy the selection to the clipboard")
	historyShowCmd.Flags().IntVar(&showCut, "cut", 0, "Select a single cut by number")
	historyShowCmd.Flags().BoolVar(&showMeta, "meta", false, "Select the meta_data section")
	historyShowCmd.MarkFlagsMutuallyExclusive("cut", "meta")

	historyClearCmd.Flags().BoolVarP(&clearConfirm, "yes", "y", false, "Skip the confirmation prompt")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyDeleteCmd, historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

type historyEnv struct {
	store   *history.Store
	closer  io.Closer
	catalog *i18n.Catalog
	lang    string
}

func (e *historyEnv) Close() {
	if e.closer != nil {
		_ = e.closer.Close()
	}
}

// openHistoryEnv opens only the history slot; no generation service or API
// key is needed to browse history.
func openHistoryEnv(ctx context.Context) (*historyEnv, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	catalog, err := i18n.Default()
	if err != nil {
		return nil, err
	}

	langText := historyLang
	if langText == "" {
		langText = cfg.Request.Language
	}
	lang, err := scenario.ParseLanguage(langText)
	if err != nil {
		return nil, err
	}

	store, closer, err := app.OpenHistory(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	return &historyEnv{store: store, closer: closer, catalog: catalog, lang: string(lang)}, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	env, err := openHistoryEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	items := env.store.List()
	fmt.Println(titleStyle.Render(env.catalog.T(env.lang, "historyTitle")))
	if len(items) == 0 {
		fmt.Println(infoStyle.Render(env.catalog.T(env.lang, "noHistoryMessage")))
		return nil
	}

	for _, item := range items {
		fmt.Println(historyLine(item))
	}
	return nil
}

func historyLine(item history.Item) string {
	title := item.ProjectTitle
	if title == "" {
		title = item.MainTheme
	}

	plan := fmt.Sprintf("%ds / %d cuts", item.TotalDuration, item.CutCount)
	if item.CutDuration > 0 {
		plan = fmt.Sprintf("%ds / %ds x %d", item.TotalDuration, item.CutDuration, item.CutCount)
	}

	return strings.Join([]string{
		labelStyle.Render(item.ID),
		successStyle.Render(title),
		plan,
		string(item.Model),
		string(item.Language),
		infoStyle.Render(humanize.Time(item.Time())),
	}, "  ")
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	env, err := openHistoryEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	item, ok := env.store.Get(args[0])
	if !ok {
		return errors.New(env.catalog.T(env.lang, "historyNotFound", "id", args[0]))
	}

	result, err := scenario.Parse(item.GeneratedJSON)
	if err != nil {
		return fmt.Errorf("stored scenario %s: %w", item.ID, err)
	}

	text := result.JSON
	switch {
	case showMeta:
		if text, err = result.MetaJSON(); err != nil {
			return err
		}
	case showCut > 0:
		cut, ok := result.Scenario.Cut(showCut)
		if !ok {
			return fmt.Errorf("scenario %s has no cut %d", item.ID, showCut)
		}
		if text, err = cut.RawJSON(); err != nil {
			return err
		}
	}

	if showMeta || showCut > 0 {
		fmt.Println(text)
	} else {
		fmt.Println(historyLine(item))
		fmt.Println(renderScenario(env.catalog, env.lang, result.Scenario))
	}

	if showCopy {
		copyText(text, env.catalog.T(env.lang, "copiedButton"))
	}
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	env, err := openHistoryEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	removed, err := env.store.Remove(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if !removed {
		return errors.New(env.catalog.T(env.lang, "historyNotFound", "id", args[0]))
	}

	fmt.Println(successStyle.Render("✓ " + env.catalog.T(env.lang, "historyDeleted", "id", args[0])))
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	env, err := openHistoryEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	if !clearConfirm {
		confirmed := false
		if err := huh.NewConfirm().
			Title(env.catalog.T(env.lang, "clearHistoryButton")).
			Description(env.catalog.T(env.lang, "confirmClearHistory")).
			Affirmative("Yes").
			Negative("No").
			Value(&confirmed).
			Run(); err != nil {
			return err
		}
		if !confirmed {
			return nil
		}
	}

	if err := env.store.Clear(cmd.Context()); err != nil {
		return err
	}

	fmt.Println(successStyle.Render("✓ " + env.catalog.T(env.lang, "historyCleared")))
	return nil
}
