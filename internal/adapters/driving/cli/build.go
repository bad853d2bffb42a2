package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pronin-ni/rag-plants/internal/core/domain"
	"github.com/pronin-ni/rag-plants/internal/core/ports/driving"
)

var (
	buildForce bool
	buildWatch bool
)

var buildCmd = &cobra.Command{
	Use:   "build <input-dir>",
	Short: "Build the passage index from a document directory",
	Long: `Reads every supported document in the input directory, splits the text
into passages, embeds them and writes the similarity index.

Passages and embeddings are checkpointed in the output directory; a later
run resumes from them unless --force is given. With --watch the index is
rebuilt whenever documents change.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVarP(&buildForce, "force", "f", false, "discard checkpoints and recompute everything")
	buildCmd.Flags().BoolVarP(&buildWatch, "watch", "w", false, "rebuild when documents change")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	force := buildForce
	if settingsService != nil {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		force = force || settings.Pipeline.ForceRecompute
	}

	p, err := pipeline(ctx, true)
	if err != nil {
		return err
	}
	defer closePipeline(p)

	opts := driving.BuildOptions{InputDir: args[0], Force: force}
	if isTerminal(cmd.OutOrStdout()) {
		opts.Progress = func(e driving.ProgressEvent) {
			printProgress(cmd, e)
		}
	}

	if buildWatch {
		cmd.Printf("Watching %s (Ctrl+C to stop)\n", args[0])
		return p.Build.Watch(ctx, opts, func(report *driving.BuildReport, err error) {
			if err != nil {
				cmd.Println(styles.Error.Render("Build failed: " + err.Error()))
				return
			}
			printReport(cmd, report)
		})
	}

	report, err := p.Build.Build(ctx, opts)
	if err != nil {
		if errors.Is(err, domain.ErrIndexLocked) {
			return fmt.Errorf("another build is running: %w", err)
		}
		return fmt.Errorf("build failed: %w", err)
	}
	printReport(cmd, report)
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printProgress(cmd *cobra.Command, e driving.ProgressEvent) {
	status := styles.Success.Render(e.Outcome.Status.String())
	switch e.Outcome.Status {
	case domain.OutcomeDegraded:
		status = styles.Warning.Render(e.Outcome.Status.String())
	case domain.OutcomeSkip:
		status = styles.Error.Render(e.Outcome.Status.String())
	}
	cmd.Printf("%s %s: %d passages %s\n",
		styles.Muted.Render(fmt.Sprintf("[%d]", e.Index)), e.Source, e.Passages, status)
}

func printReport(cmd *cobra.Command, r *driving.BuildReport) {
	if r == nil {
		return
	}

	lines := []string{
		styles.Title.Render("Build " + r.RunID),
		field("Documents", fmt.Sprintf("%d read, %d skipped", r.Documents, len(r.Skipped))),
		field("Passages", fmt.Sprintf("%d", r.Passages)),
		field("Entities", fmt.Sprintf("%d", r.Entities)),
	}
	if r.Resumed {
		embeddings := "recomputed"
		if r.EmbeddingsResumed {
			embeddings = "reused"
		}
		lines = append(lines, field("Checkpoint", "passages reused, embeddings "+embeddings))
	}
	if r.IndexPath != "" {
		lines = append(lines,
			field("Index", r.Plan.Description()),
			field("Written to", r.IndexPath))
	} else {
		lines = append(lines, field("Index", styles.Warning.Render("not built (no passages)")))
	}
	lines = append(lines, field("Duration", r.Duration.Round(time.Millisecond).String()))

	cmd.Println(styles.Box.Render(strings.Join(lines, "\n")))

	if len(r.Skipped) > 0 {
		cmd.Println(styles.Warning.Render("Skipped documents:"))
		for _, s := range r.Skipped {
			cmd.Printf("  %s %s\n", s.Source, styles.Muted.Render(s.Reason))
		}
	}
	if len(r.Partial) > 0 {
		cmd.Println(styles.Warning.Render("Stopped at the OCR page limit:"))
		for _, source := range r.Partial {
			cmd.Printf("  %s\n", source)
		}
	}
}

func field(name, value string) string {
	return styles.Key.Render(fmt.Sprintf("%-11s", name)) + " " + value
}
