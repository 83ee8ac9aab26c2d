package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/faqbot/internal/adapters/driving/tui"
)

// errNotATerminal is returned when chat is started without a TTY.
var errNotATerminal = errors.New("chat needs an interactive terminal; use 'faqbot ask' instead")

// isTerminal reports whether stdin and stdout are terminals.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// runApp runs the TUI program. Replaced in tests.
var runApp = func(app *tui.App) error {
	return app.Run()
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions interactively",
	Long: `Launch a terminal UI for asking the FAQ.

Controls:
  Enter    - Ask
  n        - New question
  c        - Show retrieved context
  ↑/k, ↓/j - Move through context
  Esc      - Back
  Ctrl+C   - Quit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) (err error) {
	if !isTerminal() {
		return errNotATerminal
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("TUI panic: %v", r)
		}
	}()

	ctx := commandContext(cmd)
	services, err := openQuery(ctx, QueryOptions{RequireLLM: true})
	if err != nil {
		return err
	}
	defer services.close()

	app, err := tui.NewApp(tui.NewPorts(services.Retrieval, services.Answer))
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(ctx)

	if err := runApp(app); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
