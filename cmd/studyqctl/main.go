package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/studyq-platform/studyq/internal/cli"
)

// Version information (set via ldflags during build)
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "studyqctl",
		Short: "Operator tooling for the studyq retrieval service",
		Long: `studyqctl runs maintenance jobs against the studyq database and
helps debug query interpretation without going through the HTTP API.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(cli.NewSweepCmd())
	rootCmd.AddCommand(cli.NewInterpretCmd())
	rootCmd.AddCommand(cli.NewTokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
