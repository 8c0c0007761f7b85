// Package prompts holds the embedded prompt templates for content and image
// generation. Placeholders use template syntax ({{.Primary}}) and rendering
// fails when one is left without a value.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"text/template"
)

//go:embed *.json
var files embed.FS

var (
	mu     sync.Mutex
	parsed = map[string]map[string]*template.Template{}
)

// Render fills the prompt stored under key in file with data.
func Render(file, key string, data map[string]string) (string, error) {
	set, err := load(file)
	if err != nil {
		return "", err
	}
	tmpl, ok := set[key]
	if !ok {
		return "", fmt.Errorf("prompt %s/%s not found", file, key)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render prompt %s/%s: %w", file, key, err)
	}
	return b.String(), nil
}

// Keys lists the prompts in file, sorted.
func Keys(file string) ([]string, error) {
	set, err := load(file)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func load(file string) (map[string]*template.Template, error) {
	mu.Lock()
	defer mu.Unlock()
	if set, ok := parsed[file]; ok {
		return set, nil
	}

	data, err := files.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read prompt file %s: %w", file, err)
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse prompt file %s: %w", file, err)
	}

	set := make(map[string]*template.Template, len(raw))
	for key, text := range raw {
		tmpl, err := template.New(key).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse prompt %s/%s: %w", file, key, err)
		}
		set[key] = tmpl
	}
	parsed[file] = set
	return set, nil
}
