package ai

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// InsightPrompt is the template used by the LLM generator.
const InsightPrompt = "insight_hypotheses"

//go:embed prompts/*.txt
var embeddedPrompts embed.FS

// Global map to track initialized prompt directories (to avoid duplicate logs)
var (
	initializedDirs   = make(map[string]bool)
	initializedDirsMu sync.RWMutex
)

// PromptManager - external prompt loader with embedded defaults
type PromptManager struct {
	PromptsDir string
}

// NewPromptManager creates a prompt manager. Templates in promptsDir override
// the embedded ones; an empty promptsDir uses the embedded set only.
func NewPromptManager(promptsDir string) *PromptManager {
	// Only log initialization once per directory
	initializedDirsMu.Lock()
	if !initializedDirs[promptsDir] {
		initializedDirs[promptsDir] = true
		if promptsDir == "" {
			log.Printf("[PromptManager] Initialized with embedded templates")
		} else {
			log.Printf("[PromptManager] Initialized for directory: %s", promptsDir)
		}
	}
	initializedDirsMu.Unlock()

	return &PromptManager{PromptsDir: promptsDir}
}

// LoadPrompt loads a prompt template by name
func (pm *PromptManager) LoadPrompt(name string) (string, error) {
	if pm.PromptsDir != "" {
		path := filepath.Join(pm.PromptsDir, name+".txt")
		content, err := os.ReadFile(path)
		if err == nil {
			return string(content), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to load prompt %s: %w", name, err)
		}
	}

	content, err := embeddedPrompts.ReadFile("prompts/" + name + ".txt")
	if err != nil {
		return "", fmt.Errorf("prompt template not found: %s", name)
	}
	return string(content), nil
}

// RenderPrompt replaces {PLACEHOLDER} with values
func (pm *PromptManager) RenderPrompt(name string, replacements map[string]string) (string, error) {
	template, err := pm.LoadPrompt(name)
	if err != nil {
		return "", err
	}

	result := template
	for placeholder, value := range replacements {
		placeholderKey := "{" + placeholder + "}"
		result = strings.ReplaceAll(result, placeholderKey, value)
	}

	return result, nil
}
