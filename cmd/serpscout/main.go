package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/alvmarrod/serp-scout/internal/app"
	"github.com/alvmarrod/serp-scout/internal/config"
	"github.com/alvmarrod/serp-scout/internal/version"
)

var cfgFile string

func main() {
	// Load .env early so environment overrides are visible to config
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "serpscout",
		Short: "Daily SERP position tracker with domain enrichment",
		Long: "SERP Scout records daily top-N search positions for a keyword set,\n" +
			"detects newly ranking domains, classifies them, and harvests contact\n" +
			"information from their pages.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "config.json", "config file path")

	root.AddCommand(newRunCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("serpscout v%s\n", version.Version)
		},
	})

	return root
}

func newRunCmd() *cobra.Command {
	var keywordsPath string
	var top int
	var gl, hl string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one snapshot + enrichment cycle for the tracked keywords",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if keywordsPath != "" {
				cfg.KeywordsPath = keywordsPath
			}
			if top > 0 {
				cfg.TopN = top
			}
			if gl != "" {
				cfg.GL = gl
			}
			if hl != "" {
				cfg.HL = hl
			}

			runner, err := app.NewRunner(cfg)
			if err != nil {
				return err
			}
			defer runner.Close()

			keywords, err := app.LoadKeywords(cfg.KeywordsPath)
			if err != nil {
				return err
			}
			if len(keywords) == 0 {
				return fmt.Errorf("no keywords loaded from %s", cfg.KeywordsPath)
			}

			if err := runner.RunOnce(cmd.Context(), keywords); err != nil {
				if errors.Is(err, context.Canceled) {
					logrus.Info("Run interrupted by shutdown")
					return nil
				}
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&keywordsPath, "keywords", "", "path to keywords file")
	cmd.Flags().IntVar(&top, "top", 0, "number of positions to track per keyword")
	cmd.Flags().StringVar(&gl, "gl", "", "geo locale, e.g. ua")
	cmd.Flags().StringVar(&hl, "hl", "", "language locale, e.g. uk")

	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the scheduler daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			runner, err := app.NewRunner(cfg)
			if err != nil {
				return err
			}
			defer runner.Close()

			return runner.Serve(cmd.Context())
		},
	}
}

func newExportCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Re-export CSVs (and workbook if enabled) for a recorded date",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			runner, err := app.NewRunner(cfg)
			if err != nil {
				return err
			}
			defer runner.Close()

			if date == "" || date == "today" {
				date = time.Now().Format("2006-01-02")
			}
			return runner.Export(date)
		},
	}

	cmd.Flags().StringVar(&date, "date", "today", "snapshot date to export (YYYY-MM-DD)")

	return cmd
}

// loadConfig reads configuration and configures logging from it
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	level, parseErr := logrus.ParseLevel(cfg.LogLevel)
	if parseErr != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	logrus.Infof("SERP Scout v%s starting...", version.Version)
	logrus.Infof("Configuration loaded: top=%d, gl=%s, hl=%s, workers=%d",
		cfg.TopN, cfg.GL, cfg.HL, cfg.EnrichWorkers)

	return cfg, nil
}
