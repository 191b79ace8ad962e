package ai

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"invoicer/assets"
	"invoicer/internal/core"
)

// LoadTaxonomy reads the category list from path, or the embedded default
// when path is empty. The fallback category is always present.
func LoadTaxonomy(path string) (core.Taxonomy, error) {
	data := assets.DefaultCategories
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return core.Taxonomy{}, fmt.Errorf("read categories file: %w", err)
		}
		data = b
	}
	return ParseTaxonomy(data)
}

func ParseTaxonomy(data []byte) (core.Taxonomy, error) {
	var t core.Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return core.Taxonomy{}, fmt.Errorf("parse categories: %w", err)
	}
	if len(t.Categories) == 0 {
		return core.Taxonomy{}, errors.New("parse categories: no categories defined")
	}
	if _, ok := t.Lookup(core.FallbackCategory); !ok {
		t.Categories = append(t.Categories, core.Category{Name: core.FallbackCategory})
	}
	return t, nil
}
