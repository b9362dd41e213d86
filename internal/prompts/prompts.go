// Package prompts loads and validates the ordered prompt set a run is executed against.
package prompts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ErrInput marks a prompt file that is missing or malformed. It is fatal to a run.
var ErrInput = errors.New("invalid prompt input")

// DefaultCategory is assigned to prompts that do not name one.
const DefaultCategory = "uncategorized"

// Prompt is a single benchmark prompt.
type Prompt struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Text     string `json:"prompt"`
}

// promptSetSchema describes the accepted shape of a prompt file. Unknown keys are allowed.
const promptSetSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["prompt"],
    "properties": {
      "id":       {"type": "string"},
      "category": {"type": "string"},
      "prompt":   {"type": "string", "minLength": 1}
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(promptSetSchema)

// Load reads the prompt set at path. JSON files are validated as-is; .yaml and .yml
// files are decoded first and validated against the same schema.
func Load(path string) ([]Prompt, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: prompts file not found: %s", ErrInput, path)
		}
		return nil, fmt.Errorf("%w: error reading prompts file %s: %w", ErrInput, path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		raw, err = yamlToJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: error parsing %s: %w", ErrInput, path, err)
		}
	}

	prompts, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prompts, nil
}

// Parse validates a JSON prompt array and fills in default ids and categories.
func Parse(raw []byte) ([]Prompt, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInput, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInput, strings.Join(msgs, "; "))
	}

	var prompts []Prompt
	if err := json.Unmarshal(raw, &prompts); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInput, err)
	}

	seen := make(map[string]int, len(prompts))
	for i := range prompts {
		p := &prompts[i]
		if strings.TrimSpace(p.ID) == "" {
			p.ID = fmt.Sprintf("prompt_%d", i+1)
		}
		if strings.TrimSpace(p.Category) == "" {
			p.Category = DefaultCategory
		}
		if first, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate prompt id %q at positions %d and %d", ErrInput, p.ID, first+1, i+1)
		}
		seen[p.ID] = i
	}
	return prompts, nil
}

// Limit returns at most n prompts, preserving order. n <= 0 keeps all of them.
func Limit(prompts []Prompt, n int) []Prompt {
	if n <= 0 || n >= len(prompts) {
		return prompts
	}
	return prompts[:n]
}

func yamlToJSON(raw []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = []any{}
	}
	return json.Marshal(doc)
}
