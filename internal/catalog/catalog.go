package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/recipebox/internal/dispatch"
	"github.com/roach88/recipebox/internal/entrylist"
	"github.com/roach88/recipebox/internal/filter"
	"github.com/roach88/recipebox/internal/recipe"
)

// Reader is the read half of the persistence gateway.
type Reader interface {
	FetchAll(ctx context.Context) ([]recipe.RecipeLight, error)
	FetchByID(ctx context.Context, id int64) (recipe.Recipe, error)
	FindIDByName(ctx context.Context, name string) (*int64, error)
}

// Gateway is the full persistence gateway.
type Gateway interface {
	dispatch.Gateway
	Reader
}

// Navigator receives a path after a recipe has been created.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

// Navigate calls f(path).
func (f NavigatorFunc) Navigate(path string) {
	f(path)
}

// RecipePath returns the detail path for a recipe id.
func RecipePath(id int64) string {
	return fmt.Sprintf("/recipe/%d", id)
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithDispatcher uses d instead of a dispatcher built over the gateway.
func WithDispatcher(d *dispatch.Dispatcher) Option {
	return func(c *Catalog) {
		c.dispatcher = d
	}
}

// WithNavigator sets the navigation sink. Default: discard.
func WithNavigator(n Navigator) Option {
	return func(c *Catalog) {
		c.nav = n
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) {
		c.logger = l
	}
}

// WithIdentity sets the entry-list identity strategy for edit sessions.
func WithIdentity(mode entrylist.Identity) Option {
	return func(c *Catalog) {
		c.identity = mode
	}
}

type listCache struct {
	version uint64
	items   []recipe.RecipeLight
}

type detailCache struct {
	version uint64
	recipe  recipe.Recipe
}

// Catalog is the list/detail orchestrator. Safe for concurrent use; the
// sessions it hands out are not.
type Catalog struct {
	reader     Reader
	dispatcher *dispatch.Dispatcher
	nav        Navigator
	logger     *slog.Logger
	identity   entrylist.Identity
	group      singleflight.Group

	mu      sync.Mutex
	list    *listCache
	details map[int64]detailCache
}

// New creates a catalog over gw.
func New(gw Gateway, opts ...Option) *Catalog {
	c := &Catalog{
		reader:  gw,
		nav:     NavigatorFunc(func(string) {}),
		logger:  slog.Default(),
		details: make(map[int64]detailCache),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.dispatcher == nil {
		c.dispatcher = dispatch.New(gw, dispatch.WithLogger(c.logger))
	}
	return c
}

// Dispatcher returns the dispatcher mutations run through.
func (c *Catalog) Dispatcher() *dispatch.Dispatcher {
	return c.dispatcher
}

// Version returns the dispatcher version the caches are keyed on.
func (c *Catalog) Version() uint64 {
	return c.dispatcher.Version()
}

// List returns the recipes passing q, in id order.
func (c *Catalog) List(ctx context.Context, q filter.Query) ([]recipe.RecipeLight, error) {
	all, err := c.all(ctx)
	if err != nil {
		return nil, err
	}
	return q.Apply(all), nil
}

// Tags returns the sorted tag universe of the catalog.
func (c *Catalog) Tags(ctx context.Context) ([]string, error) {
	all, err := c.all(ctx)
	if err != nil {
		return nil, err
	}
	return filter.TagNames(all), nil
}

// all returns the full light set for the current version, fetching it if the
// cache is missing or stale. A failed fetch is not cached. The shared fetch
// runs detached from the caller's cancellation so that one caller giving up
// does not fail the others waiting on it.
func (c *Catalog) all(ctx context.Context) ([]recipe.RecipeLight, error) {
	v := c.dispatcher.Version()
	fetchCtx := context.WithoutCancel(ctx)

	if items, ok := c.cachedList(v); ok {
		return items, nil
	}

	res, err, shared := c.group.Do(fmt.Sprintf("all@%d", v), func() (any, error) {
		if items, ok := c.cachedList(v); ok {
			return items, nil
		}
		items, err := c.reader.FetchAll(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.list == nil || c.list.version <= v {
			c.list = &listCache{version: v, items: items}
		}
		c.mu.Unlock()
		return items, nil
	})
	if err != nil {
		c.logger.Warn("list fetch failed", "version", v, "error", err)
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	c.logger.Debug("list fetched", "version", v, "shared", shared)
	return res.([]recipe.RecipeLight), nil
}

// Detail returns the full recipe with the given id for the current version.
// Like List, the shared fetch ignores the caller's cancellation.
func (c *Catalog) Detail(ctx context.Context, id int64) (recipe.Recipe, error) {
	v := c.dispatcher.Version()
	fetchCtx := context.WithoutCancel(ctx)

	if r, ok := c.cachedDetail(id, v); ok {
		return r, nil
	}

	res, err, _ := c.group.Do(fmt.Sprintf("detail:%d@%d", id, v), func() (any, error) {
		if r, ok := c.cachedDetail(id, v); ok {
			return r, nil
		}
		r, err := c.reader.FetchByID(fetchCtx, id)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		for k, d := range c.details {
			if d.version < v {
				delete(c.details, k)
			}
		}
		if d, ok := c.details[id]; !ok || d.version <= v {
			c.details[id] = detailCache{version: v, recipe: r}
		}
		c.mu.Unlock()
		return r, nil
	})
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("recipe detail: %w", err)
	}
	return res.(recipe.Recipe), nil
}

func (c *Catalog) cachedList(v uint64) ([]recipe.RecipeLight, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.list == nil || c.list.version != v {
		return nil, false
	}
	return c.list.items, true
}

func (c *Catalog) cachedDetail(id int64, v uint64) (recipe.Recipe, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.details[id]
	if !ok || d.version != v {
		return recipe.Recipe{}, false
	}
	return d.recipe, true
}

// NewSession starts authoring a new, transient recipe.
func (c *Catalog) NewSession() *Session {
	return newSession(recipe.Recipe{}, c.identity, c.logger)
}

// Edit starts an edit session on the persisted recipe with the given id.
func (c *Catalog) Edit(ctx context.Context, id int64) (*Session, error) {
	r, err := c.Detail(ctx, id)
	if err != nil {
		return nil, err
	}
	return newSession(r, c.identity, c.logger), nil
}

// Submit persists the session's recipe.
//
// The recipe must pass recipe.ValidForSave; otherwise nothing is dispatched.
// A transient recipe is dispatched as Add. Once that resolves and the version
// has moved, the new id is looked up by name, the session is bound to it, and
// the navigator receives RecipePath(id). A persisted recipe is dispatched as
// Save and no navigation happens.
func (c *Catalog) Submit(ctx context.Context, s *Session) error {
	r := s.Recipe()
	if err := recipe.ValidForSave(r); err != nil {
		return err
	}

	if r.Persisted() {
		if _, err := c.dispatcher.Dispatch(ctx, dispatch.Save(r)); err != nil {
			return err
		}
		s.markSaved()
		return nil
	}

	before := c.dispatcher.Version()
	out, err := c.dispatcher.Dispatch(ctx, dispatch.Add(r))
	if err != nil {
		return err
	}
	if out.Version <= before {
		// Version is bumped on every completion; this would be a dispatcher bug
		return fmt.Errorf("add %q resolved without a version change", r.Name)
	}

	id, err := c.reader.FindIDByName(ctx, r.Name)
	if err != nil {
		return fmt.Errorf("locate created recipe %q: %w", r.Name, err)
	}
	if id == nil {
		return fmt.Errorf("locate created recipe %q: %w", r.Name, recipe.ErrNotFound)
	}

	s.bind(*id)
	path := RecipePath(*id)
	c.logger.Info("recipe created", "id", *id, "name", r.Name, "token", out.Token, "path", path)
	c.nav.Navigate(path)
	return nil
}

// Delete dispatches Delete(id).
func (c *Catalog) Delete(ctx context.Context, id int64) error {
	_, err := c.dispatcher.Dispatch(ctx, dispatch.Delete(id))
	return err
}

// Duplicate dispatches Duplicate(id).
func (c *Catalog) Duplicate(ctx context.Context, id int64) error {
	_, err := c.dispatcher.Dispatch(ctx, dispatch.Duplicate(id))
	return err
}
