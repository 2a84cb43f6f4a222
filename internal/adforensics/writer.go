package adforensics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"adinsight/adapters/excel"
	"adinsight/domain/summary"

	"gopkg.in/yaml.v3"
)

// Write stores s at path in the format named by its extension
func Write(path string, s *summary.PerformanceSummary) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return WriteJSON(path, s)
	case ".yaml", ".yml":
		raw, err := yaml.Marshal(s)
		if err != nil {
			return err
		}
		return os.WriteFile(path, raw, 0o644)
	case ".xlsx":
		return excel.WriteWorkbook(path, s)
	default:
		return fmt.Errorf("unsupported output extension %q", ext)
	}
}

func WriteJSON(path string, s *summary.PerformanceSummary) error {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(raw, '\n'), 0o644)
}
