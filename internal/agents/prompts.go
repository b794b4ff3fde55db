package agents

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed prompts
var promptFiles embed.FS

// LoadPrompt loads a prompt from the embedded markdown files.
func LoadPrompt(name string) (string, error) {
	content, err := promptFiles.ReadFile(fmt.Sprintf("prompts/%s.md", name))
	if err != nil {
		return "", fmt.Errorf("failed to load prompt %s: %w", name, err)
	}
	return string(content), nil
}

// LoadPromptWithContext loads a prompt and replaces {{.Key}} placeholders.
func LoadPromptWithContext(name string, context map[string]string) (string, error) {
	content, err := LoadPrompt(name)
	if err != nil {
		return "", err
	}
	for key, value := range context {
		placeholder := fmt.Sprintf("{{.%s}}", key)
		content = strings.ReplaceAll(content, placeholder, value)
	}
	return content, nil
}
