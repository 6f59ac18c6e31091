// querydeck is a terminal client for a natural-language analytics backend.
// The root command opens the interactive chat TUI; health and schema
// subcommands hit the backend's diagnostic endpoints directly.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"querydeck/internal/catalog"
	"querydeck/internal/config"
	"querydeck/internal/conversation"
	"querydeck/internal/gateway"
	"querydeck/internal/logging"
)

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:   "querydeck",
	Short: "Chat with your data sources in plain language",
	Long: `querydeck is a conversational client for an analytics backend that
fronts Elasticsearch and PostgreSQL. Ask questions in plain language;
results render adaptively as summaries, tables or timelines.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		gw := gateway.New(cfg.BaseURL, cfg.RequestTimeout, log)
		conv := conversation.New(gw, log)
		categories, err := catalog.Load()
		if err != nil {
			return fmt.Errorf("loading example catalog: %w", err)
		}

		program := tea.NewProgram(newModel(cfg, log, gw, conv, categories), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("running TUI: %w", err)
		}
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Print the backend's health payload",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printEndpoint(func(ctx context.Context, gw *gateway.Client) (json.RawMessage, error) {
			return gw.Health(ctx)
		})
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema <source>",
	Short: "Print a source's schema payload (elasticsearch, postgresql, ...)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printEndpoint(func(ctx context.Context, gw *gateway.Client) (json.RawMessage, error) {
			return gw.Schema(ctx, args[0])
		})
	},
}

func bootstrap() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	if debugFlag {
		cfg.Debug = true
	}
	log, err := logging.New(cfg.LogPath, cfg.Debug)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("initializing logger: %w", err)
	}
	return cfg, log, nil
}

func printEndpoint(call func(context.Context, *gateway.Client) (json.RawMessage, error)) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	gw := gateway.New(cfg.BaseURL, cfg.RequestTimeout, log)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	payload, err := call(ctx, gw)
	if err != nil {
		return err
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, payload, "", "  "); err != nil {
		fmt.Println(string(payload))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false, "widen log level to debug")
	rootCmd.AddCommand(healthCmd, schemaCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
