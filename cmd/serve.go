package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/anitrack/api"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the anitrack server",
	Long:  `Start the HTTP server that serves the anime list and accepts imports.`,
	Example: `anitrack serve --config config.yml
anitrack serve -c /path/to/config.yml --log-level debug
`,
	Run: startServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func startServer(_ *cobra.Command, _ []string) {
	cfg, db, eng, err := setupStack()
	if err != nil {
		log.Fatalf("failed to set up: %v", err)
	}
	defer db.Close() //nolint:errcheck

	server, err := api.New(cfg, eng, db)
	if err != nil {
		log.Fatalf("failed to create API server: %v", err)
	}

	go func() {
		log.Info("starting API server", "listen", cfg.Listen)
		if err := server.Run(); err != nil {
			log.Fatal("API server error", "error", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	log.Info("anitrack started successfully", "url", cfg.ServerURL)
	<-c
	log.Info("shutting down...")
}
