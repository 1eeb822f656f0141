package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quizhunter/internal/core/domain"
)

// snippetRunes caps the content shown per result in table output.
const snippetRunes = 160

var (
	searchOpts    searchFlags
	searchCorpus  corpusFlags
	searchContext string

	similarOpts   searchFlags
	similarCorpus corpusFlags
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed items",
	Long: `Performs hybrid search across all indexed items.
Blends normalised keyword (BM25) scores with semantic (vector) similarity;
--alpha 1 ranks purely by vectors, --alpha 0 purely by keywords.

Pass --context to search for a question given as a group passage and a stem.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var similarCmd = &cobra.Command{
	Use:   "similar [item-id]",
	Short: "Find items similar to an indexed item",
	Long: `Uses the text of an indexed item as the query. The item itself and any
item with identical text are left out of the results.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimilar,
}

func init() {
	searchOpts.register(searchCmd)
	searchCorpus.register(searchCmd, "build from this corpus instead of the saved index")
	searchCmd.Flags().StringVar(&searchContext, "context", "", "group passage preceding the question")
	rootCmd.AddCommand(searchCmd)

	similarOpts.register(similarCmd)
	similarCorpus.register(similarCmd, "build from this corpus instead of the saved index")
	rootCmd.AddCommand(similarCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	src, err := searchCorpus.source()
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	sess, err := openSession(ctx, src)
	if err != nil {
		return err
	}
	defer sess.Close()

	opts := searchOpts.options(cmd, sess.settings)

	var results []domain.SearchResult
	if searchContext != "" {
		results, err = sess.engine.SearchQuestion(ctx, searchContext, query, opts)
	} else {
		results, err = sess.engine.Search(ctx, query, opts)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchOpts.json {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func runSimilar(cmd *cobra.Command, args []string) error {
	src, err := similarCorpus.source()
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	sess, err := openSession(ctx, src)
	if err != nil {
		return err
	}
	defer sess.Close()

	results, err := sess.engine.SearchSimilar(ctx, args[0], similarOpts.options(cmd, sess.settings))
	if err != nil {
		return fmt.Errorf("similar search failed: %w", err)
	}

	if similarOpts.json {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		// Format: [N] ID (Score) year / subject
		cmd.Printf("  [%d] %s (%.4f)  %s / %s\n",
			i+1, results[i].ID, results[i].Score, results[i].Year, results[i].Subject)
		if snippet := truncate(results[i].Content, snippetRunes); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}
	return nil
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}
