package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hudeditor/hudstore/cmd/api/commands"
)

// @title hudstore API
// @version 1.0
// @description Save and load endpoints for the HUD editor

// @host localhost:8080
// @BasePath /

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "hudstore",
		Short:        "hudstore server",
		Long:         `hudstore serves the HUD editor and persists the document it saves.`,
		SilenceUsage: true,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewDocumentCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
