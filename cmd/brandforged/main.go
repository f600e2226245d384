package main

import (
	"fmt"
	"os"

	"github.com/brandforge-ai/brandforge/internal/cli"
	"github.com/brandforge-ai/brandforge/internal/cli/admin"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "brandforged",
		Short: "Brandforge daemon and CLI",
		Long:  "Brandforge daemon for running the content pipeline API server and managing agents and brand knowledge",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.AgentCmd())
	rootCmd.AddCommand(admin.KnowledgeCmd())
	rootCmd.AddCommand(admin.JobsCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
