package testutil

import (
	"context"
	"testing"

	"github.com/roach88/recipebox/internal/recipe"
	"github.com/roach88/recipebox/internal/store"
)

// Tagged builds a transient recipe with the given tags. The tag collection
// is present even when no tags are given.
func Tagged(name string, tags ...string) recipe.Recipe {
	r := recipe.Recipe{Name: name, Tags: []recipe.Tag{}}
	for _, tag := range tags {
		r.Tags = append(r.Tags, recipe.Tag{Name: tag})
	}
	return r
}

// Seed creates recipes directly through s, bypassing any dispatcher, and
// returns their ids in order.
func Seed(t testing.TB, s *store.Store, recipes ...recipe.Recipe) []int64 {
	t.Helper()
	ids := make([]int64, len(recipes))
	for i, r := range recipes {
		id, err := s.Create(context.Background(), r)
		if err != nil {
			t.Fatalf("seed %q: %v", r.Name, err)
		}
		ids[i] = id
	}
	return ids
}
