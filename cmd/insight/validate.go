package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"adinsight/app"
	"adinsight/domain/hypothesis"
	"adinsight/domain/signals"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var vocabularyFile string

	cmd := &cobra.Command{
		Use:   "validate <batch.json>",
		Short: "Check a hypothesis batch against the output contract",
		Long: `Strictly decode and validate a hypothesis batch produced elsewhere. Use "-" to read stdin.

Every violation is listed; the command exits non-zero when any is found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.InOrStdin(), cmd.OutOrStdout(), args[0], vocabularyFile)
		},
	}

	cmd.Flags().StringVar(&vocabularyFile, "vocabulary", os.Getenv("VOCABULARY_FILE"), "YAML vocabulary override (default: built-in)")
	return cmd
}

func runValidate(stdin io.Reader, stdout io.Writer, path, vocabularyFile string) error {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return err
	}

	vocab, err := loadVocabulary(vocabularyFile)
	if err != nil {
		return err
	}

	svc := app.NewInsightService(nil, vocab, 1)
	hs, err := svc.ValidateDocument(raw)
	if err != nil {
		var ce *hypothesis.ContractError
		if errors.As(err, &ce) {
			for _, v := range ce.Violations {
				fmt.Fprintln(stdout, v.String())
			}
			return fmt.Errorf("%s: %d violation(s)", path, len(ce.Violations))
		}
		return err
	}
	fmt.Fprintf(stdout, "%s: valid, %d hypotheses (vocabulary %s)\n", path, len(hs), svc.Vocabulary().Version())
	return nil
}

func loadVocabulary(path string) (*signals.Vocabulary, error) {
	if path == "" {
		return signals.Default(), nil
	}
	return signals.Load(path)
}
