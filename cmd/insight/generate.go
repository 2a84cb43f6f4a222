package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"adinsight/adapters/summaryfile"
	"adinsight/app"
	"adinsight/internal/config"
	"adinsight/internal/container"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newGenerateCmd() *cobra.Command {
	var outDir string
	var concurrency int
	var mode string

	cmd := &cobra.Command{
		Use:   "generate <summary files...>",
		Short: "Generate a hypothesis batch for each summary file",
		Long: `Generate one validated hypothesis batch per summary file (.json, .yaml, .yml or .xlsx).

Without --out-dir each batch is printed to stdout as a bare JSON array, one per line.
With --out-dir each batch is written to <out-dir>/<name>.hypotheses.json.

Generator selection follows INSIGHT_GENERATOR_MODE unless --mode is given. The llm
mode reads LLM_API_KEY, LLM_MODEL, LLM_BASE_URL, LLM_TEMPERATURE, LLM_MAX_TOKENS,
LLM_TIMEOUT and LLM_FALLBACK_TO_HEURISTIC.

Example:
  insight generate summaries/*.json --out-dir batches --concurrency 8`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("mode") {
				os.Setenv("INSIGHT_GENERATOR_MODE", mode)
			}
			if cmd.Flags().Changed("concurrency") {
				os.Setenv("INSIGHT_CONCURRENCY", strconv.Itoa(concurrency))
			}
			return runGenerate(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args, outDir)
		},
	}

	cmd.Flags().StringVar(&outDir, "out-dir", "", "Directory for <name>.hypotheses.json files (default: stdout)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Summaries processed in parallel")
	cmd.Flags().StringVar(&mode, "mode", config.ModeHeuristic, "Generator: heuristic|llm")
	return cmd
}

func runGenerate(ctx context.Context, stdout, stderr io.Writer, paths []string, outDir string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	c, err := container.New(cfg)
	if err != nil {
		return err
	}

	summaries, readErrs := readSummaries(ctx, paths, cfg.Generator.Concurrency)
	var batch []app.NamedSummary
	for i, s := range summaries {
		if readErrs[i] == nil {
			batch = append(batch, s)
		}
	}
	outcomes := c.InsightService.GenerateAll(ctx, batch)

	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}
	}

	failed := 0
	for i, err := range readErrs {
		if err != nil {
			failed++
			fmt.Fprintf(stderr, "%s: %v\n", paths[i], err)
		}
	}
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			fmt.Fprintf(stderr, "%s: %v\n", o.Name, o.Err)
			continue
		}
		raw, err := json.Marshal(o.Result.Batch)
		if err != nil {
			return err
		}
		if outDir == "" {
			fmt.Fprintln(stdout, string(raw))
			continue
		}
		path := filepath.Join(outDir, o.Name+".hypotheses.json")
		if err := os.WriteFile(path, append(raw, '\n'), 0o644); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "%s: %d hypotheses (%s, batch %s) -> %s\n",
			o.Name, o.Result.Batch.Len(), o.Result.Audit.GeneratorType, o.Result.Batch.ID(), path)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d summaries failed", failed, len(paths))
	}
	return nil
}

// readSummaries loads every file in parallel. Names are file names without
// their extension.
func readSummaries(ctx context.Context, paths []string, limit int) ([]app.NamedSummary, []error) {
	out := make([]app.NamedSummary, len(paths))
	errs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			out[i].Name = name
			r, err := summaryfile.NewReader(path)
			if err != nil {
				errs[i] = err
				return nil
			}
			out[i].Summary, errs[i] = r.ReadSummary(gctx)
			return nil
		})
	}
	_ = g.Wait() // errors captured per file
	return out, errs
}
