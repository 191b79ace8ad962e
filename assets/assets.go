// Package assets holds data files compiled into the binaries.
package assets

import _ "embed"

// DefaultCategories is the expense taxonomy used when CATEGORIES_FILE is unset.
//
//go:embed categories.yaml
var DefaultCategories []byte
