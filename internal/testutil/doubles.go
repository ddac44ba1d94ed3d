package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/roach88/recipebox/internal/recipe"
	"github.com/roach88/recipebox/internal/store"
)

// CountingGateway wraps a store and counts read calls. Setting FailAll makes
// FetchAll return that error without touching the store.
type CountingGateway struct {
	*store.Store

	FetchAllCalls  atomic.Int32
	FetchByIDCalls atomic.Int32
	FailAll        error
}

// FetchAll counts the call and delegates unless FailAll is set.
func (g *CountingGateway) FetchAll(ctx context.Context) ([]recipe.RecipeLight, error) {
	g.FetchAllCalls.Add(1)
	if g.FailAll != nil {
		return nil, g.FailAll
	}
	return g.Store.FetchAll(ctx)
}

// FetchByID counts the call and delegates.
func (g *CountingGateway) FetchByID(ctx context.Context, id int64) (recipe.Recipe, error) {
	g.FetchByIDCalls.Add(1)
	return g.Store.FetchByID(ctx, id)
}

// GatedGateway blocks Delete until Release is closed, after closing Entered.
// One Delete per gateway.
type GatedGateway struct {
	*store.Store

	Entered chan struct{}
	Release chan struct{}
}

// NewGatedGateway wraps s.
func NewGatedGateway(s *store.Store) *GatedGateway {
	return &GatedGateway{Store: s, Entered: make(chan struct{}), Release: make(chan struct{})}
}

// Delete signals Entered, waits for Release, then delegates.
func (g *GatedGateway) Delete(ctx context.Context, id int64) error {
	close(g.Entered)
	<-g.Release
	return g.Store.Delete(ctx, id)
}

// RecordingNavigator records every navigated path.
type RecordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

// Navigate records path.
func (n *RecordingNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

// Paths returns the recorded paths in order.
func (n *RecordingNavigator) Paths() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}
