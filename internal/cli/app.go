package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/roach88/recipebox/internal/catalog"
	"github.com/roach88/recipebox/internal/dispatch"
	"github.com/roach88/recipebox/internal/metrics"
	"github.com/roach88/recipebox/internal/store"
)

var _ catalog.Gateway = (*store.Store)(nil)

// app is the per-invocation wiring of store, dispatcher and catalog.
type app struct {
	store   *store.Store
	catalog *catalog.Catalog

	// navigated holds paths the catalog navigated to, in order.
	navigated []string
}

// openApp opens the configured database and wires the catalog over it.
func (o *RootOptions) openApp() (*app, error) {
	if o.Config.DB == "" {
		return nil, NewExitError(ExitCommandError, "no database: set --db, RECIPEBOX_DB, or db in recipebox.yaml")
	}

	opts := append(o.Config.Store.StoreOptions(), store.WithLogger(o.Logger))
	st, err := store.Open(o.Config.DB, opts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	observer, err := metrics.NewDispatch(o.Registry)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitFailure, "failed to register metrics", err)
	}

	a := &app{store: st}
	d := dispatch.New(st, dispatch.WithLogger(o.Logger), dispatch.WithObserver(observer))
	a.catalog = catalog.New(st,
		catalog.WithDispatcher(d),
		catalog.WithLogger(o.Logger),
		catalog.WithIdentity(o.Config.Identity),
		catalog.WithNavigator(catalog.NavigatorFunc(func(path string) {
			a.navigated = append(a.navigated, path)
		})),
	)
	return a, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// parseID parses a positional recipe id argument.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid recipe id %q", arg))
	}
	return id, nil
}

// report writes err through f unless it is already an ExitError, which
// commands return as-is.
func report(f *OutputFormatter, message string, err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		code := CodeUsage
		if exitErr.Err != nil {
			code, _ = Classify(exitErr.Err)
		}
		_ = f.Error(code, exitErr.Error(), nil)
		exitErr.reported = true
		return exitErr
	}
	return f.Fail(message, err)
}
