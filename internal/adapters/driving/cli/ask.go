package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/faqbot/internal/core/domain"
	"github.com/custodia-labs/faqbot/internal/logger"
)

var (
	askFlags       queryFlags
	askShowContext bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the FAQ",
	Long: `Retrieve the relevant FAQ entries and ask the configured LLM to answer
using only them. Questions the FAQ does not cover get a fixed refusal.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	addQueryFlags(askCmd, &askFlags)
	askCmd.Flags().BoolVar(&askShowContext, "show-context", false, "Also print the context the answer was grounded on")
	rootCmd.AddCommand(askCmd)
}

// askOutput is the JSON shape of an answer, matching POST /ask.
type askOutput struct {
	Answer       string    `json:"answer"`
	Similarities []float64 `json:"similarities"`
	UsedFallback bool      `json:"used_fallback"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	services, err := openQuery(ctx, QueryOptions{RequireLLM: true, CorpusPath: askFlags.corpus})
	if err != nil {
		return err
	}
	defer services.close()
	if services.Answer == nil || services.Retrieval == nil {
		return errors.New("answer service not configured")
	}

	query := strings.Join(args, " ")
	opts := askFlags.options(cmd, services.Retrieval.Defaults())

	answer, err := services.Answer.Ask(ctx, query, opts)
	if err != nil {
		if answer == nil {
			return fmt.Errorf("ask failed: %w", err)
		}
		logger.Error("generation failed: %v", err)
		answer.Text = domain.ApologyText
	}

	out := cmd.OutOrStdout()
	if askFlags.json {
		similarities := answer.Similarities
		if similarities == nil {
			similarities = []float64{}
		}
		return writeJSON(out, askOutput{
			Answer:       answer.Text,
			Similarities: similarities,
			UsedFallback: answer.UsedFallback,
		})
	}

	fmt.Fprintln(out, answer.Text)
	if askShowContext {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Context:")
		for _, item := range answer.Contexts {
			if item.Fallback {
				fmt.Fprintln(out, "  (fallback)")
				continue
			}
			fmt.Fprintf(out, "  %s (%.3f)\n", item.RecordID, item.Score)
		}
	}
	return nil
}
