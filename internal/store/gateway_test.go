package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recipebox/internal/recipe"
)

func sampleRecipe(name string) recipe.Recipe {
	return recipe.Recipe{
		Name:         name,
		Tags:         []recipe.Tag{{Name: "soup"}},
		Ingredients:  []recipe.Ingredient{{QtyUnit: "2", Content: "leeks"}},
		Instructions: "Chop and simmer.",
	}
}

func TestCreate_FetchByID_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	in := recipe.Recipe{
		Name:         "Leek Soup",
		Tags:         []recipe.Tag{},
		Ingredients:  []recipe.Ingredient{{QtyUnit: "2", Content: "leeks"}},
		Instructions: "Chop & simmer <30 min>.",
	}
	id, err := s.Create(ctx, in)
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	got, err := s.FetchByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, in.WithID(id), got, "absent notes and empty tags survive storage")
}

func TestCreate_IgnoresCarriedID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.Create(ctx, sampleRecipe("a"))
	require.NoError(t, err)
	second, err := s.Create(ctx, sampleRecipe("b").WithID(first))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestFetchByID_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.FetchByID(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, recipe.IsNotFound(err))
	assert.False(t, recipe.IsPersistence(err))
}

func TestUpdate(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, sampleRecipe("Soup"))
	require.NoError(t, err)

	changed := sampleRecipe("Better Soup").WithID(id)
	changed.Notes = []recipe.Note{{Content: "add cream"}}
	require.NoError(t, s.Update(ctx, changed))

	got, err := s.FetchByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, changed, got)

	found, err := s.FindIDByName(ctx, "Better Soup")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, id, *found, "name column follows the payload")
}

func TestUpdate_NotFound(t *testing.T) {
	s := createTestStore(t)
	err := s.Update(context.Background(), sampleRecipe("x").WithID(42))
	require.Error(t, err)
	assert.True(t, recipe.IsNotFound(err))
}

func TestUpdate_RequiresID(t *testing.T) {
	s := createTestStore(t)
	err := s.Update(context.Background(), sampleRecipe("x"))
	assert.True(t, recipe.IsInvalid(err))
}

func TestDelete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, sampleRecipe("Soup"))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, id))

	_, err = s.FetchByID(ctx, id)
	assert.True(t, recipe.IsNotFound(err))

	err = s.Delete(ctx, id)
	assert.True(t, recipe.IsNotFound(err), "second delete reports not found")
}

func TestDelete_IDsNotReused(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, sampleRecipe("a"))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, id))

	next, err := s.Create(ctx, sampleRecipe("b"))
	require.NoError(t, err)
	assert.Greater(t, next, id)
}

func TestDuplicate(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	orig := sampleRecipe("Stew")
	orig.Notes = []recipe.Note{}
	id, err := s.Create(ctx, orig)
	require.NoError(t, err)

	require.NoError(t, s.Duplicate(ctx, id))

	all, err := s.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.NotEqual(t, all[0].ID, all[1].ID)

	copyID := all[1].ID
	got, err := s.FetchByID(ctx, copyID)
	require.NoError(t, err)
	assert.Equal(t, orig.WithID(copyID), got, "copy has identical content")
}

func TestDuplicate_NotFound(t *testing.T) {
	s := createTestStore(t)
	err := s.Duplicate(context.Background(), 5)
	require.Error(t, err)
	assert.True(t, recipe.IsNotFound(err))

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestFetchAll(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	all, err := s.FetchAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	for _, name := range []string{"c", "a", "b"} {
		_, err := s.Create(ctx, sampleRecipe(name))
		require.NoError(t, err)
	}

	all, err = s.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].Name, "ordered by id, not name")
	assert.Equal(t, []recipe.Tag{{Name: "soup"}}, all[0].Tags)
	assert.Equal(t, []recipe.Ingredient{{QtyUnit: "2", Content: "leeks"}}, all[0].Ingredients)
}

func TestFetchAll_DecodeFailureAbortsFetch(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, sampleRecipe("good"))
	require.NoError(t, err)
	_, err = s.DB().Exec(`INSERT INTO recipes (name, payload) VALUES ('bad', '{not json')`)
	require.NoError(t, err)

	_, err = s.FetchAll(ctx)
	require.Error(t, err)
	assert.True(t, recipe.IsPersistence(err))

	var pe *recipe.PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "decode", pe.Op)

	// The store itself remains usable
	_, err = s.Create(ctx, sampleRecipe("after"))
	assert.NoError(t, err)
}

func TestFindIDByName(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	got, err := s.FindIDByName(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.FindIDByName(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	first, err := s.Create(ctx, sampleRecipe("Curry"))
	require.NoError(t, err)
	got, err = s.FindIDByName(ctx, "Curry")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first, *got)

	second, err := s.Create(ctx, sampleRecipe("Curry"))
	require.NoError(t, err)
	got, err = s.FindIDByName(ctx, "Curry")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second, *got, "most recent wins on duplicate names")

	got, err = s.FindIDByName(ctx, "curry")
	require.NoError(t, err)
	assert.Nil(t, got, "lookup is exact")
}

func TestFindIDByName_EmptyNameSkipsQuery(t *testing.T) {
	s := createTestStore(t)
	require.NoError(t, s.Close())

	// A closed pool fails any query; the empty name never gets that far
	got, err := s.FindIDByName(context.Background(), "")
	assert.NoError(t, err)
	assert.Nil(t, got)

	_, err = s.FindIDByName(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, recipe.IsPersistence(err))
}

func TestConcurrentReadsAndWrites(t *testing.T) {
	s := createTestStore(t, WithMaxOpenConns(4))
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := s.Create(ctx, sampleRecipe("w")); err != nil {
				errs <- err
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := s.FetchAll(ctx); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent op failed: %v", err)
	}

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}
