package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newVocabularyCmd() *cobra.Command {
	var format string
	var vocabularyFile string

	cmd := &cobra.Command{
		Use:   "vocabulary",
		Short: "Print the signal vocabulary shared with the evaluator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVocabulary(cmd.OutOrStdout(), format, vocabularyFile)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Output format: json|yaml")
	cmd.Flags().StringVar(&vocabularyFile, "vocabulary", os.Getenv("VOCABULARY_FILE"), "YAML vocabulary override (default: built-in)")
	return cmd
}

func runVocabulary(stdout io.Writer, format, vocabularyFile string) error {
	vocab, err := loadVocabulary(vocabularyFile)
	if err != nil {
		return err
	}
	doc := vocab.Document()

	switch format {
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml":
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(doc)
	}
	return fmt.Errorf("unsupported format %q (want json or yaml)", format)
}
