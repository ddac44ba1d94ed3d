package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recipebox/internal/dispatch"
	"github.com/roach88/recipebox/internal/filter"
	"github.com/roach88/recipebox/internal/recipe"
	"github.com/roach88/recipebox/internal/testutil"
)

func quietLogger() *slog.Logger {
	return testutil.QuietLogger()
}

func setupCatalog(t *testing.T, opts ...Option) (*Catalog, *testutil.CountingGateway, *testutil.RecordingNavigator) {
	t.Helper()
	gw := &testutil.CountingGateway{Store: testutil.OpenStore(t)}
	nav := &testutil.RecordingNavigator{}
	opts = append([]Option{WithLogger(quietLogger()), WithNavigator(nav)}, opts...)
	return New(gw, opts...), gw, nav
}

func seed(t *testing.T, gw *testutil.CountingGateway, recipes ...recipe.Recipe) []int64 {
	t.Helper()
	return testutil.Seed(t, gw.Store, recipes...)
}

var tagged = testutil.Tagged

func TestRecipePath(t *testing.T) {
	assert.Equal(t, "/recipe/42", RecipePath(42))
}

func TestList_FiltersAndKeepsOrder(t *testing.T) {
	c, gw, _ := setupCatalog(t)
	seed(t, gw,
		tagged("Tomato Soup", "soup"),
		tagged("Pancakes", "breakfast"),
		tagged("Miso Soup", "soup", "japanese"),
	)
	ctx := context.Background()

	all, err := c.List(ctx, filter.Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	soups, err := c.List(ctx, filter.Query{Tags: filter.NewSelection("soup")})
	require.NoError(t, err)
	require.Len(t, soups, 2)
	assert.Equal(t, "Tomato Soup", soups[0].Name)
	assert.Equal(t, "Miso Soup", soups[1].Name)

	miso, err := c.List(ctx, filter.Query{Tags: filter.NewSelection("soup"), Search: "miso"})
	require.NoError(t, err)
	require.Len(t, miso, 1)
	assert.Equal(t, "Miso Soup", miso[0].Name)

	none, err := c.List(ctx, filter.Query{Search: "lasagne"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestList_RefetchesOnlyWhenVersionChanges(t *testing.T) {
	c, gw, _ := setupCatalog(t)
	ids := seed(t, gw, tagged("Soup", "soup"))
	ctx := context.Background()

	for range 3 {
		_, err := c.List(ctx, filter.Query{Search: "soup"})
		require.NoError(t, err)
	}
	_, err := c.Tags(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), gw.FetchAllCalls.Load(), "same version must reuse the cached set")

	require.NoError(t, c.Duplicate(ctx, ids[0]))
	assert.Equal(t, uint64(1), c.Version())

	got, err := c.List(ctx, filter.Query{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, int32(2), gw.FetchAllCalls.Load())
}

func TestList_FailedMutationStillRefetches(t *testing.T) {
	c, gw, _ := setupCatalog(t)
	ctx := context.Background()

	_, err := c.List(ctx, filter.Query{})
	require.NoError(t, err)

	err = c.Delete(ctx, 999)
	require.Error(t, err)
	assert.True(t, recipe.IsNotFound(err))

	_, err = c.List(ctx, filter.Query{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), gw.FetchAllCalls.Load())
}

func TestList_ConcurrentReadersShareFetch(t *testing.T) {
	c, gw, _ := setupCatalog(t)
	seed(t, gw, tagged("Soup", "soup"))

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.List(context.Background(), filter.Query{})
			assert.NoError(t, err)
			assert.Len(t, got, 1)
		}()
	}
	wg.Wait()

	// Readers arriving after the first fetch completes hit the cache, those
	// arriving during it share the call.
	assert.Equal(t, int32(1), gw.FetchAllCalls.Load())
}

func TestList_SharedFetchIgnoresCallerCancel(t *testing.T) {
	c, gw, _ := setupCatalog(t)
	ids := seed(t, gw, tagged("Soup", "soup"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	list, err := c.List(ctx, filter.Query{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	r, err := c.Detail(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "Soup", r.Name)

	_, err = c.List(context.Background(), filter.Query{})
	require.NoError(t, err)
	assert.Equal(t, int32(1), gw.FetchAllCalls.Load(), "second read served from cache")
}

func TestList_FetchErrorNotCached(t *testing.T) {
	c, gw, _ := setupCatalog(t)
	gw.FailAll = recipe.NewPersistenceError("fetch all", errors.New("disk gone"))

	_, err := c.List(context.Background(), filter.Query{})
	require.Error(t, err)
	assert.True(t, recipe.IsPersistence(err))

	gw.FailAll = nil
	_, err = c.List(context.Background(), filter.Query{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), gw.FetchAllCalls.Load())
}

func TestTags(t *testing.T) {
	c, gw, _ := setupCatalog(t)
	seed(t, gw, tagged("A", "soup", "quick"), tagged("B", "breakfast", "quick"), tagged("C"))

	tags, err := c.Tags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"breakfast", "quick", "soup"}, tags)
}

func TestDetail_CachedPerVersion(t *testing.T) {
	c, gw, _ := setupCatalog(t)
	ids := seed(t, gw, recipe.Recipe{Name: "Soup", Instructions: "boil"})
	ctx := context.Background()

	for range 2 {
		r, err := c.Detail(ctx, ids[0])
		require.NoError(t, err)
		assert.Equal(t, "boil", r.Instructions)
	}
	assert.Equal(t, int32(1), gw.FetchByIDCalls.Load())

	s, err := c.Edit(ctx, ids[0])
	require.NoError(t, err)
	s.SetInstructions("simmer")
	require.NoError(t, c.Submit(ctx, s))

	r, err := c.Detail(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "simmer", r.Instructions)
	assert.Equal(t, int32(2), gw.FetchByIDCalls.Load())
}

func TestDetail_NotFound(t *testing.T) {
	c, _, _ := setupCatalog(t)

	_, err := c.Detail(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, recipe.IsNotFound(err))
}

func TestSubmit_AddThenNavigate(t *testing.T) {
	c, gw, nav := setupCatalog(t)
	seed(t, gw, tagged("Existing"))
	ctx := context.Background()

	s := c.NewSession()
	s.SetName("Tomato Soup")
	idx, err := s.AddEntry(FieldIngredients)
	require.NoError(t, err)
	require.NoError(t, s.UpdateEntry(FieldIngredients, idx, recipe.IngredientQtyUnit, "4"))
	require.NoError(t, s.UpdateEntry(FieldIngredients, idx, recipe.IngredientContent, "tomatoes"))
	assert.True(t, s.Dirty())

	require.NoError(t, c.Submit(ctx, s))

	require.NotNil(t, s.ID())
	assert.Equal(t, int64(2), *s.ID())
	assert.False(t, s.Dirty())
	assert.Equal(t, []string{"/recipe/2"}, nav.Paths())

	got, err := c.Detail(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Tomato Soup", got.Name)
	assert.Equal(t, []recipe.Ingredient{{QtyUnit: "4", Content: "tomatoes"}}, got.Ingredients)
	assert.Nil(t, got.Tags, "never-touched collection stays absent")
}

func TestSubmit_InvalidDoesNotDispatch(t *testing.T) {
	c, gw, nav := setupCatalog(t)

	s := c.NewSession()
	s.SetName("")
	err := c.Submit(context.Background(), s)
	require.Error(t, err)
	assert.True(t, recipe.IsInvalid(err))

	assert.Equal(t, uint64(0), c.Version())
	assert.Equal(t, dispatch.StateIdle, c.Dispatcher().State())
	assert.Empty(t, nav.Paths())
	n, err := gw.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSubmit_SaveDoesNotNavigate(t *testing.T) {
	c, gw, nav := setupCatalog(t)
	ids := seed(t, gw, tagged("Soup", "soup"))
	ctx := context.Background()

	s, err := c.Edit(ctx, ids[0])
	require.NoError(t, err)
	require.NoError(t, s.RemoveEntry(FieldTags, 0))
	s.SetName("Better Soup")
	require.NoError(t, c.Submit(ctx, s))

	assert.Empty(t, nav.Paths())
	got, err := c.Detail(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "Better Soup", got.Name)
	assert.NotNil(t, got.Tags)
	assert.Empty(t, got.Tags)
}

func TestSubmit_DuplicateNamesNavigateToNewest(t *testing.T) {
	c, gw, nav := setupCatalog(t)
	seed(t, gw, tagged("Soup"))

	s := c.NewSession()
	s.SetName("Soup")
	require.NoError(t, c.Submit(context.Background(), s))

	assert.Equal(t, []string{"/recipe/2"}, nav.Paths())
}

func TestSubmit_BusyDispatcher(t *testing.T) {
	s := testutil.OpenStore(t)
	gate := testutil.NewGatedGateway(s)
	c := New(gate, WithLogger(quietLogger()))
	ids := testutil.Seed(t, s, tagged("Soup"))

	done := make(chan error, 1)
	go func() { done <- c.Delete(context.Background(), ids[0]) }()
	<-gate.Entered

	sess := c.NewSession()
	sess.SetName("Other")
	err := c.Submit(context.Background(), sess)
	require.Error(t, err)
	assert.True(t, dispatch.IsBusy(err))

	close(gate.Release)
	require.NoError(t, <-done)
}

func TestDeleteAndDuplicate(t *testing.T) {
	c, gw, _ := setupCatalog(t)
	ids := seed(t, gw, tagged("Soup", "soup"))
	ctx := context.Background()

	require.NoError(t, c.Duplicate(ctx, ids[0]))
	require.NoError(t, c.Delete(ctx, ids[0]))

	got, err := c.List(ctx, filter.Query{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, []string{"soup"}, got[0].TagNames())
	assert.Equal(t, uint64(2), c.Version())
}
