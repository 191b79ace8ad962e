package core

import "strings"

// Category is a main expense category with its allowed subcategories.
type Category struct {
	Name          string   `yaml:"name" json:"name"`
	Subcategories []string `yaml:"subcategories" json:"subcategories"`
}

// Taxonomy is the ordered list of expense categories.
type Taxonomy struct {
	Categories []Category `yaml:"categories" json:"categories"`
}

// Names returns the main category names in declaration order.
func (t Taxonomy) Names() []string {
	out := make([]string, 0, len(t.Categories))
	for _, c := range t.Categories {
		out = append(out, c.Name)
	}
	return out
}

// Lookup finds a category by case-insensitive name.
func (t Taxonomy) Lookup(name string) (Category, bool) {
	name = strings.TrimSpace(name)
	for _, c := range t.Categories {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Category{}, false
}

// Resolve returns a categorization whose names belong to the taxonomy.
// Unknown main categories collapse to the fallback with zero confidence,
// unknown subcategories are dropped.
func (t Taxonomy) Resolve(c Categorization) Categorization {
	cat, ok := t.Lookup(c.MainCategory)
	if !ok {
		return FallbackCategorization("category " + c.MainCategory + " is not recognised")
	}
	c.MainCategory = cat.Name
	sub := c.SubCategory
	c.SubCategory = ""
	for _, s := range cat.Subcategories {
		if strings.EqualFold(s, strings.TrimSpace(sub)) {
			c.SubCategory = s
			break
		}
	}
	if c.Confidence < 0 {
		c.Confidence = 0
	}
	if c.Confidence > 1 {
		c.Confidence = 1
	}
	return c
}
