// Package cli implements the ragplants command line.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/pronin-ni/rag-plants/internal/core/ports/driving"
	"github.com/pronin-ni/rag-plants/internal/logger"
)

// Pipeline holds the services that operate on one output directory.
type Pipeline struct {
	Build   driving.BuildService
	Inspect driving.InspectService

	// Close releases stores and services opened for the pipeline.
	Close func() error
}

// PipelineOptions selects how a Pipeline is opened.
type PipelineOptions struct {
	// OutputDir overrides output.dir when set.
	OutputDir string

	// Embeddings connects to the embedding service. Commands that only
	// read artifacts leave it off.
	Embeddings bool
}

// PipelineFactory opens a Pipeline after flags are parsed.
type PipelineFactory func(ctx context.Context, opts PipelineOptions) (*Pipeline, error)

// Services are the driving ports the commands call.
type Services struct {
	Settings driving.SettingsService
	Tools    driving.ToolService
	Pipeline PipelineFactory

	// InstallHelp is printed when external tools are missing.
	InstallHelp string
}

var (
	version = "dev"

	settingsService driving.SettingsService
	toolService     driving.ToolService
	openPipeline    PipelineFactory
	installHelp     string

	verbose   bool
	outputDir string
)

var rootCmd = &cobra.Command{
	Use:   "ragplants",
	Short: "Build a semantic passage index from a document corpus",
	Long: `ragplants reads plain text, FB2, EPUB, DOCX, PDF and DjVu documents,
recognises scanned pages with OCR, splits the text into semantically
coherent passages and writes an embedding index over them.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "artifact directory (overrides output.dir)")
}

// SetServices injects the services used by every command.
func SetServices(s Services) {
	settingsService = s.Settings
	toolService = s.Tools
	openPipeline = s.Pipeline
	installHelp = s.InstallHelp
}

// Execute runs the root command.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}

// pipeline opens the output directory services.
func pipeline(ctx context.Context, embeddings bool) (*Pipeline, error) {
	if openPipeline == nil {
		return nil, errors.New("build pipeline not configured")
	}
	return openPipeline(ctx, PipelineOptions{OutputDir: outputDir, Embeddings: embeddings})
}

func closePipeline(p *Pipeline) {
	if p.Close == nil {
		return
	}
	if err := p.Close(); err != nil {
		logger.Warn("close: %v", err)
	}
}
