package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/faqbot/internal/core/domain"
	"github.com/custodia-labs/faqbot/internal/core/ports/driving"
)

// queryFlags are shared by retrieve and ask.
type queryFlags struct {
	topK      int
	threshold float64
	json      bool
	corpus    string
}

var retrieveFlags queryFlags

var retrieveCmd = &cobra.Command{
	Use:   "retrieve <question>",
	Short: "Show the FAQ context selected for a question",
	Long: `Embed the question, search the index and print the context items that
cleared the similarity threshold. When nothing is relevant the fallback
context is printed instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRetrieve,
}

func init() {
	addQueryFlags(retrieveCmd, &retrieveFlags)
	rootCmd.AddCommand(retrieveCmd)
}

func addQueryFlags(cmd *cobra.Command, f *queryFlags) {
	cmd.Flags().IntVarP(&f.topK, "top-k", "k", 0, "Nearest records to consider (defaults to retrieval.top_k)")
	cmd.Flags().Float64VarP(&f.threshold, "threshold", "t", 0, "Minimum similarity (defaults to retrieval.threshold)")
	cmd.Flags().BoolVar(&f.json, "json", false, "Print JSON")
	cmd.Flags().StringVar(&f.corpus, "corpus", "", "Query this corpus in memory instead of the built index")
}

// options overlays explicitly set flags on the service defaults.
func (f *queryFlags) options(cmd *cobra.Command, defaults domain.RetrievalOptions) domain.RetrievalOptions {
	opts := defaults
	if cmd.Flags().Changed("top-k") {
		opts.TopK = f.topK
	}
	if cmd.Flags().Changed("threshold") {
		opts.Threshold = f.threshold
	}
	return opts
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	services, err := openQuery(ctx, QueryOptions{CorpusPath: retrieveFlags.corpus})
	if err != nil {
		return err
	}
	defer services.close()

	return retrieve(ctx, cmd, services.Retrieval, strings.Join(args, " "))
}

func retrieve(ctx context.Context, cmd *cobra.Command, svc driving.RetrievalService, query string) error {
	if svc == nil {
		return errors.New("retrieval service not configured")
	}

	opts := retrieveFlags.options(cmd, svc.Defaults())
	result, err := svc.RetrieveWith(ctx, query, opts)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if retrieveFlags.json {
		return writeJSON(out, result)
	}

	if result.UsedFallback {
		fmt.Fprintf(out, "No FAQ entry scored at least %.2f. Fallback context:\n\n", opts.Threshold)
	} else {
		fmt.Fprintf(out, "%d FAQ entries matched:\n\n", len(result.Contexts))
	}
	for i, item := range result.Contexts {
		if !item.Fallback {
			fmt.Fprintf(out, "[%d] %s (%.3f)\n", i+1, item.RecordID, item.Score)
		}
		fmt.Fprintln(out, indent(item.Text, "    "))
		fmt.Fprintln(out)
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = prefix + lines[i]
	}
	return strings.Join(lines, "\n")
}
