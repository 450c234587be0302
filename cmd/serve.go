package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"ecclesia/internal/server"
)

var (
	serveAddr string
	serveOpen bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the scenario API over HTTP",
	Long: `Expose cut allocation, scenario generation, history and the message
catalog as a JSON API for a browser front end.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveOpen, "open", false, "Open the API in the browser once ready")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, built, err := loadService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = built.Close() }()

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := server.New(built.Service, server.Options{
		Addr:           addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	return srv.Run(ctx, func(url string) {
		fmt.Println(successStyle.Render("✓ Listening on " + url))
		if !serveOpen {
			return
		}
		if err := browser.OpenURL(url + "/healthz"); err != nil {
			slog.Warn("Failed to open browser", "error", err)
		}
	})
}
