package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"adinsight/domain/hypothesis"
	"adinsight/internal/adforensics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeScenario(t *testing.T, dir, scenario, file string) string {
	t.Helper()
	cfg := adforensics.DefaultConfig()
	cfg.Scenario = scenario
	s, err := adforensics.Generate(cfg)
	require.NoError(t, err)
	path := filepath.Join(dir, file)
	require.NoError(t, adforensics.Write(path, s))
	return path
}

func TestRunGenerateWritesOneBatchPerSummary(t *testing.T) {
	t.Setenv("INSIGHT_GENERATOR_MODE", "heuristic")
	dir := t.TempDir()
	paths := []string{
		writeScenario(t, dir, adforensics.ScenarioROASDrop, "drop.json"),
		writeScenario(t, dir, adforensics.ScenarioFlat, "flat.xlsx"),
	}
	outDir := filepath.Join(dir, "out")

	var stdout, stderr bytes.Buffer
	require.NoError(t, runGenerate(context.Background(), &stdout, &stderr, paths, outDir))

	raw, err := os.ReadFile(filepath.Join(outDir, "drop.hypotheses.json"))
	require.NoError(t, err)
	hs, err := hypothesis.DecodeBatch(raw)
	require.NoError(t, err)
	assert.NotEmpty(t, hs)

	raw, err = os.ReadFile(filepath.Join(outDir, "flat.hypotheses.json"))
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(string(raw)))
	assert.Contains(t, stderr.String(), "drop:")
}

func TestRunGenerateReportsFailuresPerFile(t *testing.T) {
	t.Setenv("INSIGHT_GENERATOR_MODE", "heuristic")
	dir := t.TempDir()
	good := writeScenario(t, dir, adforensics.ScenarioROASDrop, "good.yaml")
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"windows": {}}`), 0o644))

	var stdout, stderr bytes.Buffer
	err := runGenerate(context.Background(), &stdout, &stderr, []string{good, bad, filepath.Join(dir, "notes.txt")}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 3")

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 1)
	assert.True(t, json.Valid([]byte(lines[0])))
	assert.Contains(t, stderr.String(), "bad:")
	assert.Contains(t, stderr.String(), "notes.txt")
}

func TestRunValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`[{"hypothesis_id":"h1","hypothesis":"ROAS fell because CPC rose.","reasoning":"CPC up.","expected_signals":["roas_down"],"confidence":0.4}]`), 0o644))

	var out bytes.Buffer
	require.NoError(t, runValidate(nil, &out, good, ""))
	assert.Contains(t, out.String(), "valid, 1 hypotheses")

	out.Reset()
	err := runValidate(strings.NewReader(`{"hypotheses": []}`), &out, "-", "")
	require.Error(t, err)
	assert.Contains(t, out.String(), hypothesis.CodeNotArray)
}

func TestRunVocabularyFormats(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runVocabulary(&out, "json", ""))
	var doc struct {
		Version string `json:"version"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, "v1", doc.Version)

	out.Reset()
	require.NoError(t, runVocabulary(&out, "yaml", ""))
	var ydoc struct {
		Version string `yaml:"version"`
		Signals []struct {
			Name string `yaml:"name"`
		} `yaml:"signals"`
	}
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &ydoc))
	assert.Equal(t, "v1", ydoc.Version)
	assert.NotEmpty(t, ydoc.Signals)

	assert.Error(t, runVocabulary(&out, "toml", ""))
}
