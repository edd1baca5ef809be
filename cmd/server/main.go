package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const version = "0.3.0"

func main() {
	_ = godotenv.Load() // .env is optional

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "wardrobe:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "wardrobe",
		Short: "Apparel intent extraction and product scoring for Egyptian Arabic shoppers",
		Long: `wardrobe reads free-text apparel requests written in Egyptian Arabic
(or English), extracts the shopping intent, scores catalog products against
it and composes a short chat reply.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(a.cfgPath)
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.Log.Level = a.logLevel
			}
			logger, err := newLogger(os.Stderr, cfg.Log)
			if err != nil {
				return err
			}
			a.cfg, a.logger = cfg, logger
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default ./wardrobe.yaml if present)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newServeCmd(a),
		newMCPCmd(a),
		newAnalyzeCmd(a),
		newSearchCmd(a),
		newCatalogCmd(a),
	)
	return root
}
