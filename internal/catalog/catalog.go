// Package catalog ships the static example queries offered as quick-query
// shortcuts. Pure data; the TUI prefills the input with a selection.
package catalog

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed examples.yaml
var rawExamples []byte

// Category groups example queries under a display name.
type Category struct {
	Name    string   `yaml:"name"`
	Queries []string `yaml:"queries"`
}

// Load parses the embedded catalog.
func Load() ([]Category, error) {
	var doc struct {
		Categories []Category `yaml:"categories"`
	}
	if err := yaml.Unmarshal(rawExamples, &doc); err != nil {
		return nil, err
	}
	return doc.Categories, nil
}

// Flatten returns every query in catalog order, for simple indexed
// selection.
func Flatten(categories []Category) []string {
	var queries []string
	for _, category := range categories {
		queries = append(queries, category.Queries...)
	}
	return queries
}
