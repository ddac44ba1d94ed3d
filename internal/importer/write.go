package importer

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/recipebox/internal/recipe"
)

// Write encodes recipes as a document file in format.
// CUE output is not supported.
func Write(w io.Writer, format Format, recipes []recipe.Recipe) error {
	file := File{Recipes: make([]Document, len(recipes))}
	for i, r := range recipes {
		file.Recipes[i] = FromRecipe(r)
	}

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(file); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(file); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(file); err != nil {
			return fmt.Errorf("encoding toml: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("write: unsupported format %q", format)
	}
}
