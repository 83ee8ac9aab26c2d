package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/faqbot/internal/core/domain"
	"github.com/custodia-labs/faqbot/internal/logger"
)

var (
	buildCorpus string
	buildWatch  bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Embed the corpus and write the index",
	Long: `Read every record from the corpus, embed the questions and atomically
replace the persisted index.

The build aborts without touching the existing index if any record is
invalid or the embedder fails. With --watch the index is rebuilt each time
the corpus file changes; running servers keep serving the index they
loaded until they are restarted.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildCorpus, "corpus", "", "Corpus file (defaults to corpus.path from settings)")
	buildCmd.Flags().BoolVar(&buildWatch, "watch", false, "Rebuild whenever the corpus changes")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, _ []string) error {
	if deps == nil || deps.OpenBuilder == nil {
		return fmt.Errorf("index builder: %w", errNotConfigured)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	builder, err := deps.OpenBuilder(ctx, BuildOptions{CorpusPath: buildCorpus})
	if err != nil {
		return err
	}
	if builder.Close != nil {
		defer builder.Close()
	}

	out := cmd.OutOrStdout()
	if err := rebuild(ctx, out, builder); err != nil {
		return err
	}
	if !buildWatch {
		return nil
	}

	return watchAndRebuild(ctx, out, builder)
}

func rebuild(ctx context.Context, out io.Writer, builder *Builder) error {
	report, err := builder.Service.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	printReport(out, report)
	return nil
}

func printReport(out io.Writer, report *domain.BuildReport) {
	fmt.Fprintf(out, "Indexed %d FAQs -> %s\n", report.Rows, report.Location)
	fmt.Fprintf(out, "  model %s, %d dimensions, build %s (%s)\n",
		report.Model, report.Dimensions, report.BuildID, report.Duration.Round(time.Millisecond))
}

// watchAndRebuild rebuilds on every corpus change until ctx is cancelled.
// A failed rebuild leaves the previous index in place and keeps watching.
func watchAndRebuild(ctx context.Context, out io.Writer, builder *Builder) error {
	if deps.NewWatcher == nil {
		return fmt.Errorf("corpus watcher: %w", errNotConfigured)
	}

	watcher := deps.NewWatcher(builder.CorpusPath)
	defer watcher.Close() //nolint:errcheck

	changes, err := watcher.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch %s: %w", builder.CorpusPath, err)
	}
	fmt.Fprintf(out, "Watching %s for changes (Ctrl+C to stop)\n", builder.CorpusPath)

	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-changes:
			if !ok {
				return nil
			}
			logger.Info("Corpus changed: %s", path)
			if err := rebuild(ctx, out, builder); err != nil {
				logger.Error("%v", err)
				fmt.Fprintf(out, "Rebuild failed, keeping previous index: %v\n", err)
			}
		}
	}
}
