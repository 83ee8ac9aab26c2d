package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/faqbot/internal/adapters/driving/httpapi"
)

var (
	serveAddr    string
	serveOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the answer API over HTTP",
	Long: `Load the index and serve:

  POST /ask       {"query": "..."} -> {"answer", "similarities", "used_fallback"}
  POST /retrieve  {"query": "...", "top_k": 5, "threshold": 0.5}
  GET  /healthz
  GET  /readyz

The index is loaded once at startup. Restart the server to pick up a
rebuilt index.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (defaults to server.addr)")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "cors-origin", nil, "Allowed CORS origins (default any)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return fmt.Errorf("settings: %w", errNotConfigured)
	}
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	ctx := commandContext(cmd)
	services, err := openQuery(ctx, QueryOptions{})
	if err != nil {
		return err
	}
	defer services.close()
	printWarnings(cmd, services)

	addr := settings.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	server, err := httpapi.NewServer(
		httpapi.Ports{Retrieval: services.Retrieval, Answer: services.Answer},
		httpapi.Config{
			Addr:           addr,
			RequestTimeout: settings.Server.RequestTimeout,
			AllowedOrigins: serveOrigins,
		},
	)
	if err != nil {
		return err
	}

	info := services.Retrieval.Info()
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %d FAQs on %s\n", info.Rows, addr)
	return server.Run(ctx)
}
