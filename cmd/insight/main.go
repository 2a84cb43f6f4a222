package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load() // optional .env

	rootCmd := &cobra.Command{
		Use:           "insight",
		Short:         "Generate and validate ad-performance hypotheses",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newGenerateCmd(),
		newValidateCmd(),
		newVocabularyCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
