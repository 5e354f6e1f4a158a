package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"lorebook/pkg/inference"
	"lorebook/pkg/settings"
)

var (
	dataDir  string
	bookPath string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "lorebook",
	Short: "Lorebook editor with AI-assisted entry generation",
	Long: `lorebook edits keyword-activated lore entries and drafts them with a
language model, either Gemini or any OpenAI-compatible endpoint.

Running without a subcommand starts the HTTP API.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".lorebook", "directory holding saved settings")
	rootCmd.PersistentFlags().StringVar(&bookPath, "book", "lorebook.json", "lorebook document to edit")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func main() {
	ctx, done := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer done()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func store() settings.Store {
	return settings.Store{Dir: dataDir}
}

// newGateway wires both backends. Gemini is left out when no key is set, and
// calls to it then fail with a connection error.
func newGateway(ctx context.Context) *inference.Gateway {
	g := &inference.Gateway{Custom: inference.NewCustomInferencer(nil)}

	apiKey := cmp.Or(os.Getenv("GEMINI_API_KEY"), os.Getenv("API_KEY"))
	if apiKey == "" {
		log.Warn("GEMINI_API_KEY is not set, only the custom provider is available")
		return g
	}
	gemini, err := inference.NewGeminiInferencer(ctx, apiKey)
	if err != nil {
		log.Error("failed to create Gemini client", "error", err)
		return g
	}
	g.Gemini = gemini
	return g
}
