// Package seed loads recipes from YAML files and creates them through the
// recipe service, so seeded rows obey the same ownership rules as API
// writes.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cookshare/apiserver/types"
	"gopkg.in/yaml.v3"
)

// File is the top-level document of a seed file.
type File struct {
	Recipes []Recipe `yaml:"recipes"`
}

// Recipe is one seed entry.
type Recipe struct {
	Title        string `yaml:"title"`
	Ingredients  string `yaml:"ingredients"`
	Instructions string `yaml:"instructions"`
	CookingTime  int    `yaml:"cooking_time"`
	Difficulty   string `yaml:"difficulty"`
	Category     string `yaml:"category"`
}

func (r Recipe) input() types.RecipeInput {
	return types.RecipeInput{
		Title:        r.Title,
		Ingredients:  r.Ingredients,
		Instructions: r.Instructions,
		CookingTime:  r.CookingTime,
		Difficulty:   types.Difficulty(r.Difficulty),
		Category:     types.Category(r.Category),
	}
}

// Load decodes a seed document. Unknown keys are rejected.
func Load(r io.Reader) (File, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("parse seed file: %w", err)
	}
	return file, nil
}

// LoadFile reads and decodes the seed file at path.
func LoadFile(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer f.Close()
	return Load(f)
}

// Creator is satisfied by *services.RecipeService.
type Creator interface {
	Create(ctx context.Context, caller types.CallerIdentity, input types.RecipeInput) (types.Recipe, error)
}

// Apply creates every recipe in file as caller, in file order. It stops at
// the first failure and returns what was created so far.
func Apply(ctx context.Context, creator Creator, caller types.CallerIdentity, file File) ([]types.Recipe, error) {
	created := make([]types.Recipe, 0, len(file.Recipes))
	for i, entry := range file.Recipes {
		recipe, err := creator.Create(ctx, caller, entry.input())
		if err != nil {
			return created, fmt.Errorf("recipe %d (%q): %w", i+1, entry.Title, err)
		}
		created = append(created, recipe)
	}
	return created, nil
}
