// Package cli provides the faqbot command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/faqbot/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

var (
	verbose bool
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "faqbot",
	Short: "Answer questions from a curated FAQ",
	Long: `faqbot builds a vector index over question and answer pairs and
answers questions using only the entries that are relevant to them.

  faqbot build              embed the corpus and write the index
  faqbot retrieve "..."     show the FAQ context for a question
  faqbot ask "..."          answer a question from the FAQ
  faqbot serve              serve POST /ask over HTTP
  faqbot chat               ask interactively in the terminal`,
	SilenceUsage:      true,
	PersistentPreRunE: preRun,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load before running")
}

func preRun(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if envFile == "" {
		return nil
	}
	// Existing environment variables win over the file.
	if err := godotenv.Load(envFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", envFile, err)
	}
	logger.Debug("Loaded environment from %s", envFile)
	return nil
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx available to subcommands.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
