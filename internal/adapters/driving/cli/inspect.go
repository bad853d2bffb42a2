package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driving"
)

var (
	inspectQuery   string
	inspectTop     int
	inspectKeyword bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Report on built artifacts",
	Long: `Counts the passages, entities, embedding rows and indexed vectors in the
output directory and checks that they agree.

With --query the text is embedded and the nearest passages are printed;
--keyword searches the keyword index instead.`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectQuery, "query", "q", "", "print the passages nearest to this text")
	inspectCmd.Flags().IntVarP(&inspectTop, "top", "k", 5, "number of passages to print")
	inspectCmd.Flags().BoolVar(&inspectKeyword, "keyword", false, "search the keyword index")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	query := strings.TrimSpace(inspectQuery)

	p, err := pipeline(ctx, query != "" && !inspectKeyword)
	if err != nil {
		return err
	}
	defer closePipeline(p)

	if query == "" {
		report, err := p.Inspect.Inspect(ctx)
		if err != nil {
			return fmt.Errorf("inspect failed: %w", err)
		}
		printInspectReport(cmd, report)
		return nil
	}

	var hits []driving.QueryHit
	if inspectKeyword {
		hits, err = p.Inspect.KeywordQuery(ctx, query, inspectTop)
	} else {
		hits, err = p.Inspect.Query(ctx, query, inspectTop)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("nothing to search, run 'ragplants build' first: %w", err)
		}
		return fmt.Errorf("query failed: %w", err)
	}
	printHits(cmd, hits)
	return nil
}

func printInspectReport(cmd *cobra.Command, r *driving.InspectReport) {
	lines := []string{
		styles.Title.Render("Artifacts"),
		field("Passages", fmt.Sprintf("%d", r.Passages)),
		field("Entities", fmt.Sprintf("%d", r.Entities)),
		field("Embeddings", fmt.Sprintf("%d rows", r.EmbeddingRows)),
	}
	if r.IndexKind != "" {
		lines = append(lines, field("Index", fmt.Sprintf("%s, %d vectors", r.IndexKind, r.IndexSize)))
	}
	if r.KeywordCount > 0 {
		lines = append(lines, field("Keyword", fmt.Sprintf("%d passages", r.KeywordCount)))
	}
	if r.LastRun != nil {
		status := styles.Success.Render("ok")
		if !r.LastRun.Success {
			status = styles.Error.Render("failed: " + r.LastRun.Error)
		}
		lines = append(lines, field("Last build", r.LastRun.StartedAt.Format("2006-01-02 15:04:05")+" "+status))
	}
	cmd.Println(styles.Box.Render(strings.Join(lines, "\n")))

	if r.Consistent {
		cmd.Println(styles.Success.Render("Artifacts are consistent."))
		return
	}
	cmd.Println(styles.Warning.Render("Problems:"))
	for _, p := range r.Problems {
		cmd.Printf("  %s\n", p)
	}
}

func printHits(cmd *cobra.Command, hits []driving.QueryHit) {
	if len(hits) == 0 {
		cmd.Println("No passages found.")
		return
	}
	for i, h := range hits {
		source := h.Metadata.Source
		if h.Metadata.Title != "" {
			source += " (" + h.Metadata.Title + ")"
		}
		cmd.Printf("%s %s %s\n",
			styles.Title.Render(fmt.Sprintf("%d.", i+1)),
			styles.Muted.Render(fmt.Sprintf("#%d %.3f", h.Position, h.Similarity)),
			source)
		cmd.Printf("   %s\n\n", truncate(h.Text, 300))
	}
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
