package ai

import (
	"log"
	"strings"
)

// CleanJSONContent removes markdown code blocks and chatter around a JSON
// document returned by a model. It never repairs the JSON itself.
func CleanJSONContent(content string) string {
	content = strings.TrimSpace(content)
	originalLength := len(content)

	// Remove markdown code blocks with various prefixes
	if strings.HasPrefix(content, "```json") && strings.HasSuffix(content, "```") {
		log.Printf("[JSONCleaner] Removing ```json markdown wrapper")
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	} else if strings.HasPrefix(content, "```") && strings.HasSuffix(content, "```") {
		log.Printf("[JSONCleaner] Removing ``` markdown wrapper")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}

	// Remove common AI chatter patterns that might precede JSON
	lines := strings.Split(content, "\n")
	cleanedLines := make([]string, 0, len(lines))
	skippedLines := 0

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		// Skip empty lines, explanations, or common chatter
		if trimmed == "" ||
			strings.HasPrefix(trimmed, "```") ||
			strings.HasPrefix(lower, "here is") ||
			strings.HasPrefix(lower, "here are") ||
			strings.HasPrefix(lower, "the json") ||
			strings.HasPrefix(lower, "output:") ||
			strings.HasPrefix(lower, "response:") ||
			strings.HasPrefix(lower, "##") ||
			strings.Contains(lower, "below is") ||
			strings.Contains(lower, "following is") {
			skippedLines++
			continue
		}
		cleanedLines = append(cleanedLines, trimmed)
	}

	if skippedLines > 0 {
		log.Printf("[JSONCleaner] Filtered out %d lines of AI chatter", skippedLines)
	}

	content = strings.Join(cleanedLines, "\n")
	content = strings.TrimSpace(content)

	// If content starts with a line that looks like chatter, remove it
	if strings.Contains(content, "\n[") {
		parts := strings.SplitN(content, "\n[", 2)
		if len(parts) == 2 && !strings.Contains(parts[0], "{") && !strings.Contains(parts[0], "[") {
			log.Printf("[JSONCleaner] Trimming prefix chatter before JSON array")
			content = "[" + parts[1]
		}
	} else if strings.Contains(content, "\n{") {
		parts := strings.SplitN(content, "\n{", 2)
		if len(parts) == 2 && !strings.Contains(parts[0], "{") && !strings.Contains(parts[0], "[") {
			log.Printf("[JSONCleaner] Trimming prefix chatter before JSON object")
			content = "{" + parts[1]
		}
	}

	finalLength := len(content)
	if originalLength != finalLength {
		log.Printf("[JSONCleaner] Content cleaning reduced size: %d -> %d bytes", originalLength, finalLength)
	}

	return content
}
