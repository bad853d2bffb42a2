package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Check the external tools used for scanned documents",
	Long: `Looks up every external tool on PATH and in the platform install
directories (tools.search_dirs) and reports where it was found.`,
	RunE: runTools,
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, _ []string) error {
	if toolService == nil {
		return errors.New("tool service not configured")
	}

	missing := 0
	for _, t := range toolService.Check() {
		if t.Found {
			cmd.Printf("%s %-10s %s\n", styles.Success.Render("✓"), t.Name, styles.Muted.Render(t.Path))
			continue
		}
		missing++
		cmd.Printf("%s %-10s %s\n", styles.Error.Render("✗"), t.Name, styles.Muted.Render(t.Purpose+" unavailable"))
	}

	if missing == 0 {
		cmd.Println(styles.Success.Render("All tools found."))
		return nil
	}

	cmd.Println()
	cmd.Println(styles.Warning.Render("Some tools are missing; scanned documents may be skipped."))
	if installHelp != "" {
		cmd.Println(installHelp)
	}
	return nil
}
