// Package cmd holds the anitrack CLI.
package cmd

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/anitrack/config"
	"github.com/jon4hz/anitrack/database"
	"github.com/jon4hz/anitrack/engine"
	"github.com/jon4hz/anitrack/jikan"
	"github.com/spf13/cobra"
)

var rootCmdPersistentFlags struct {
	LogFile    string
	ConfigFile string
	LogLevel   string
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootCmdPersistentFlags.LogFile, "log-file", "", "File to write logs to")
	rootCmd.PersistentFlags().StringVarP(&rootCmdPersistentFlags.ConfigFile, "config", "c", "", "Path to config file (default: search for config.yml in current dir, ~/.anitrack, /etc/anitrack)")
	rootCmd.PersistentFlags().StringVar(&rootCmdPersistentFlags.LogLevel, "log-level", "", "Log level (debug, info, warn, error) - overrides config file setting")
}

var rootCmd = &cobra.Command{
	Use:   "anitrack",
	Short: "Anitrack keeps a personal anime list imported from MyAnimeList",
	Long:  `Anitrack imports MyAnimeList XML exports into a local database, classifies every entry with colored tags and enriches it with metadata from the Jikan API.`,
	Example: `anitrack --config config.yml
  anitrack import list.xml
  anitrack serve --log-level debug`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		if rootCmdPersistentFlags.LogLevel != "" {
			setLogLevel(rootCmdPersistentFlags.LogLevel)
		}
		logToFile()
	},
	Run: startServer,
}

// setupStack loads the config and wires the database, metadata client and
// engine together. Every subcommand starts here.
func setupStack() (*config.Config, *database.Client, *engine.Engine, error) {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}

	eng := engine.New(cfg, db, jikan.New(cfg.Jikan), nil)
	return cfg, db, eng, nil
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.Warnf("unknown log level %s, defaulting to info", level)
		log.SetLevel(log.InfoLevel)
	}
}

func logToFile() {
	if rootCmdPersistentFlags.LogFile == "" {
		return
	}
	file, err := os.OpenFile(rootCmdPersistentFlags.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		log.Errorf("failed to open log file: %v", err)
		return
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.Info("logging to both console and file", "file", rootCmdPersistentFlags.LogFile)
}

func Execute() error {
	return rootCmd.Execute()
}
