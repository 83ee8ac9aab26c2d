package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var indexInfoJSON bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect the persisted index",
}

var indexInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the index manifest",
	Long: `Load and validate the persisted index and print its manifest. Fails if
the index is missing or any artifact is inconsistent.`,
	Args: cobra.NoArgs,
	RunE: runIndexInfo,
}

func init() {
	indexInfoCmd.Flags().BoolVar(&indexInfoJSON, "json", false, "Print JSON")
	indexCmd.AddCommand(indexInfoCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexInfo(cmd *cobra.Command, _ []string) error {
	if deps == nil || deps.IndexInfo == nil {
		return fmt.Errorf("index: %w", errNotConfigured)
	}

	info, err := deps.IndexInfo(commandContext(cmd))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if indexInfoJSON {
		return writeJSON(out, info)
	}

	m := info.Manifest
	fmt.Fprintf(out, "Records:     %d\n", info.Rows)
	fmt.Fprintf(out, "Dimensions:  %d\n", info.Dimensions)
	fmt.Fprintf(out, "Model:       %s\n", m.Model)
	fmt.Fprintf(out, "Build:       %s\n", m.BuildID)
	if !m.CreatedAt.IsZero() {
		fmt.Fprintf(out, "Created:     %s\n", m.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	}
	if m.CorpusPath != "" {
		fmt.Fprintf(out, "Corpus:      %s\n", m.CorpusPath)
	}
	return nil
}
