// Command ragplants builds a semantic passage index from a document corpus.
package main

import (
	"fmt"
	"os"

	"github.com/pronin-ni/rag-plants/internal/adapters/driven/config/file"
	"github.com/pronin-ni/rag-plants/internal/adapters/driven/tools"
	"github.com/pronin-ni/rag-plants/internal/adapters/driving/cli"
	"github.com/pronin-ni/rag-plants/internal/core/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open config: %v\n", err)
		return err
	}

	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load settings: %v\n", err)
		return err
	}

	locator := tools.NewLocator(tools.WithSearchDirs(settings.Tools.SearchDirs...))

	cli.SetServices(cli.Services{
		Settings:    settingsService,
		Tools:       services.NewToolService(locator, toolCatalog()),
		Pipeline:    newPipelineFactory(settingsService),
		InstallHelp: tools.InstallInstructions(),
	})

	return cli.Execute(version)
}

func toolCatalog() []services.Tool {
	catalog := tools.Catalog()
	out := make([]services.Tool, len(catalog))
	for i, t := range catalog {
		out[i] = services.Tool{Name: t.Name, Purpose: t.Purpose}
	}
	return out
}
