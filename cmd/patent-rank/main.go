// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the patent-rank CLI: search EPO Open
// Patent Services and re-rank the hits by semantic similarity of their
// abstracts to a natural-language question.
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/patent-rank/internal/logger"
	"github.com/pdiddy/patent-rank/internal/output"
	"github.com/pdiddy/patent-rank/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// Process-wide state set up in PersistentPreRunE.
var (
	loadedSecrets secrets.Store
	log           = zap.NewNop()
	printer       = output.NewPrinter(output.ColorAuto)
)

// rootCmd is the base command for the patent-rank CLI.
var rootCmd = &cobra.Command{
	Use:   "patent-rank",
	Short: "Semantic re-ranking of EPO patent search results",
	Long: `patent-rank searches the EPO Open Patent Services (OPS) for a question,
fetches the bibliographic record of each hit, and orders the hits by how
close their abstracts are to the question in a sentence-embedding space.

Run "search" for a one-shot query, "shell" for an interactive session, or
"serve" for a local web form. OPS credentials come from flags, config,
PATENT_RANK_OPS_CLIENT_ID / PATENT_RANK_OPS_CLIENT_SECRET, or the files
.secrets/epo-client-id and .secrets/epo-client-secret.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		colorFlag, _ := cmd.Flags().GetString("color")
		mode, err := output.ParseColorMode(colorFlag)
		if err != nil {
			return err
		}
		printer = output.NewPrinter(mode)

		level, _ := cmd.Flags().GetString("log-level")
		l, err := logger.New(level, false)
		if err != nil {
			return err
		}
		log = l

		s, err := secrets.Load(secrets.DefaultDir, log)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			log.Info("loaded secrets", zap.Strings("keys", s.Keys()))
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./patent-rank.yaml or ~/.config/patent-rank/patent-rank.yaml)")
	rootCmd.PersistentFlags().String("log-level", logger.DefaultLevel, "diagnostic log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("color", "auto", "colored output: auto, always, never")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("patent-rank")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "patent-rank"))
		}
	}

	viper.SetEnvPrefix("PATENT_RANK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		printer.Info("Using config file: %s", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printer.Error(err)
		os.Exit(1)
	}
	_ = log.Sync()
}
