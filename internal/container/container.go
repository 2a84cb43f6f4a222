package container

import (
	"fmt"

	"adinsight/adapters/llm"
	"adinsight/adapters/llm/heuristic"
	"adinsight/app"
	"adinsight/domain/signals"
	"adinsight/internal"
	"adinsight/internal/config"
	"adinsight/internal/usage"
	"adinsight/ports"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config

	Vocabulary *signals.Vocabulary
	Heuristic  *heuristic.Generator
	Generator  ports.GeneratorPort
	Usage      *usage.Service

	InsightService *app.InsightService
}

// New builds the dependency graph from configuration. The generator port is
// the heuristic generator unless the LLM mode is selected, in which case the
// heuristic one becomes its fallback.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if level, ok := internal.ParseLogLevel(cfg.LogLevel); ok {
		internal.DefaultLogger.SetLevel(level)
	}
	logger := internal.DefaultLogger.Named("Container")

	c := &Container{Config: cfg}

	if err := c.initVocabulary(); err != nil {
		return nil, fmt.Errorf("failed to initialize vocabulary: %w", err)
	}
	if err := c.initGenerators(); err != nil {
		return nil, fmt.Errorf("failed to initialize generators: %w", err)
	}

	c.Usage = usage.NewService()
	c.InsightService = app.NewInsightService(c.Generator, c.Vocabulary, cfg.Generator.Concurrency).WithUsage(c.Usage)

	logger.Info("initialized: mode=%s vocabulary=%s", cfg.Generator.Mode, c.Vocabulary.Version())
	return c, nil
}

func (c *Container) initVocabulary() error {
	path := c.Config.Paths.VocabularyFile
	if path == "" {
		c.Vocabulary = signals.Default()
		return nil
	}
	vocab, err := signals.Load(path)
	if err != nil {
		return err
	}
	c.Vocabulary = vocab
	return nil
}

func (c *Container) initGenerators() error {
	g := c.Config.Generator
	h, err := heuristic.NewGenerator(heuristic.Config{
		MinRelativeChange: g.MinRelativeChange,
		FlatTolerance:     g.FlatTolerance,
		LowCTRThreshold:   g.LowCTRThreshold,
		MaxHypotheses:     g.MaxHypotheses,
	}, c.Vocabulary)
	if err != nil {
		return err
	}
	c.Heuristic = h

	if g.Mode != config.ModeLLM {
		c.Generator = h
		return nil
	}

	var fallback ports.GeneratorPort
	if c.Config.LLM.FallbackToHeuristic {
		fallback = h
	}
	adapter, err := llm.NewGeneratorAdapter(llmConfig(c.Config), c.Vocabulary, fallback)
	if err != nil {
		return err
	}
	c.Generator = adapter
	return nil
}

func llmConfig(cfg *config.Config) llm.Config {
	return llm.Config{
		Model:               cfg.LLM.Model,
		APIKey:              cfg.LLM.APIKey,
		BaseURL:             cfg.LLM.BaseURL,
		Temperature:         cfg.LLM.Temperature,
		MaxTokens:           cfg.LLM.MaxTokens,
		Timeout:             cfg.LLM.Timeout,
		RequestsPerMinute:   cfg.LLM.RequestsPerMinute,
		FallbackToHeuristic: cfg.LLM.FallbackToHeuristic,
		PromptsDir:          cfg.Paths.PromptsDir,
		MaxHypotheses:       cfg.Generator.MaxHypotheses,
		MinRelativeChange:   cfg.Generator.MinRelativeChange,
	}
}
