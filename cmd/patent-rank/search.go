package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/patent-rank/internal/pipeline"
)

var searchCmd = &cobra.Command{
	Use:   "search [question...]",
	Short: "Search OPS and re-rank the hits by semantic similarity",
	Long: `Search sends the question to the EPO published-data search, fetches the
bibliographic record of each hit one at a time, drops hits without an
abstract, and prints the closest abstracts to the question.

The question is passed to OPS verbatim; OPS interprets it as a CQL query,
so plain words are matched against its default fields.`,
	Example: `  patent-rank search "tecnologie per ridurre il consumo energetico"
  patent-rank search --top-k 5 --format json heat pump defrost`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("client-id", "", "OPS client identifier")
	searchCmd.Flags().String("client-secret", "", "OPS client secret")
	searchCmd.Flags().Int("max-results", 5, "number of search hits to fetch (1-100)")
	searchCmd.Flags().Int("top-k", 3, "number of ranked results to show")
	searchCmd.Flags().String("format", "table", "output format: table, json, yaml")
	searchCmd.Flags().Int("excerpt", 160, "maximum characters of title and abstract per table cell (0 = full)")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("provide a question, e.g. patent-rank search \"heat pump defrost\"")
	}
	if err := bindFlags(cmd, map[string]string{
		keyOPSMaxResults: "max-results",
		keyRankTopK:      "top-k",
		keyOutputFormat:  "format",
		keyOutputExcerpt: "excerpt",
	}); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	creds := resolveCredentials(cmd)
	if !creds.IsComplete() {
		return fmt.Errorf("%w: set --client-id/--client-secret, PATENT_RANK_OPS_CLIENT_ID/PATENT_RANK_OPS_CLIENT_SECRET, or .secrets/epo-client-id and .secrets/epo-client-secret",
			pipeline.ErrIncompleteInput)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	rep, err := newPipeline(cfg, log).Run(ctx, pipeline.Request{Credentials: creds, Question: question})
	if err != nil {
		return err
	}
	return printer.Report(rep, cfg.Output.Format, cfg.Output.Excerpt)
}
