package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	app "tablet-checkout/internal"
	"tablet-checkout/internal/alert"
	"tablet-checkout/internal/auth"
	"tablet-checkout/internal/checkout"
	"tablet-checkout/internal/config"
	"tablet-checkout/internal/directory"
	"tablet-checkout/internal/routes"
	"tablet-checkout/internal/storage"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the tablet checkout server",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Starting tablet checkout server...")
		ServerMain(provider)
	},
}

// Initialize logger
func initLogger(cfg *config.Config) *slog.Logger {
	// Determine level from config and set it on the handler options.
	var level slog.Level
	switch strings.ToUpper(cfg.LogLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN", "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
		println("Invalid log level in config, defaulting to INFO")
	}
	handlerOpts := &slog.HandlerOptions{
		Level: level,
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, handlerOpts))
	slog.SetDefault(logger)

	slog.Debug("Logger initialized", "level", level.String())
	return logger
}

func ServerMain(storageProvider storage.Provider) {
	if config.Cfg == nil {
		panic("Config not initialized.")
	}

	initLogger(config.Cfg)

	// Use the provider passed from cobra command (already initialized)
	if storageProvider == nil {
		slog.Error("Storage provider is nil")
		os.Exit(1)
	}

	// Explicit signing context, no ambient signing state.
	signer := auth.NewSigner(config.Cfg.Secret, config.Cfg.AdminAuthTTL)

	api := &routes.API{
		Store:     storageProvider,
		Engine:    checkout.NewEngine(storageProvider),
		Directory: directory.New(storageProvider),
		Signer:    signer,
		Alerts:    alert.NewMailer(config.Cfg.Alert),
		Cfg:       config.Cfg,
	}

	server := app.HTTPServer()
	routes.Register(server, api)

	server.Run(config.Cfg.Listen)
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
