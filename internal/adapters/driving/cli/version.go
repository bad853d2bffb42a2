package cli

import (
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pronin-ni/rag-plants/cgo/faiss"
	"github.com/pronin-ni/rag-plants/internal/core/domain"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("ragplants version %s\n", version)
		cmd.Println(styles.Muted.Render(runtime.Version() + ", index backends: " + strings.Join(indexBackends(), ", ")))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// indexBackends lists the index backends compiled into the binary.
func indexBackends() []string {
	backends := []string{string(domain.IndexBackendNative)}
	if faiss.Available {
		backends = append(backends, string(domain.IndexBackendFaiss))
	}
	return backends
}
