package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"

	"github.com/roach88/recipebox/internal/catalog"
	"github.com/roach88/recipebox/internal/dispatch"
	"github.com/roach88/recipebox/internal/entrylist"
	"github.com/roach88/recipebox/internal/filter"
	"github.com/roach88/recipebox/internal/recipe"
	"github.com/roach88/recipebox/internal/store"
)

// Error codes reported in traces and matched by Expect.Error.
const (
	CodeNotFound     = "not_found"
	CodeInvalid      = "invalid"
	CodeBusy         = "busy"
	CodeNoEntry      = "no_entry"
	CodeUnknownField = "unknown_field"
	CodePersistence  = "persistence"
	CodeError        = "error"
)

// ErrorCode classifies err into one of the Code constants.
// Returns "" for nil.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case recipe.IsNotFound(err):
		return CodeNotFound
	case recipe.IsInvalid(err):
		return CodeInvalid
	case dispatch.IsBusy(err):
		return CodeBusy
	case errors.Is(err, catalog.ErrNoEntry):
		return CodeNoEntry
	case errors.Is(err, catalog.ErrUnknownField):
		return CodeUnknownField
	case recipe.IsPersistence(err):
		return CodePersistence
	default:
		return CodeError
	}
}

// sequenceTokens yields token-1, token-2, ... Calls are serialized by the
// dispatcher lock.
type sequenceTokens struct {
	n int
}

func (g *sequenceTokens) Generate() string {
	g.n++
	return "token-" + strconv.Itoa(g.n)
}

// runner holds the state of one scenario execution.
type runner struct {
	store   *store.Store
	catalog *catalog.Catalog
	result  *Result
	step    int
}

// Run executes a scenario against a fresh in-memory store.
//
// Steps run in order. A step whose outcome does not match its Expect is
// recorded as a failure and the run continues with the next step. Errors
// returned from Run are harness failures (store setup, seeding, final
// reads), not scenario failures.
func Run(ctx context.Context, s *Scenario) (*Result, error) {
	mode, err := entrylist.ParseIdentity(s.Identity)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.Open(":memory:", store.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	for i, doc := range s.Setup {
		r := doc.Recipe()
		if err := recipe.ValidForSave(r); err != nil {
			return nil, fmt.Errorf("setup[%d]: %w", i, err)
		}
		if _, err := st.Create(ctx, r); err != nil {
			return nil, fmt.Errorf("setup[%d]: %w", i, err)
		}
	}

	result := NewResult()
	run := &runner{store: st, result: result}

	d := dispatch.New(st, dispatch.WithLogger(logger), dispatch.WithTokens(&sequenceTokens{}))
	cancel := d.Subscribe(run.record)
	defer cancel()

	run.catalog = catalog.New(st,
		catalog.WithDispatcher(d),
		catalog.WithLogger(logger),
		catalog.WithIdentity(mode),
		catalog.WithNavigator(catalog.NavigatorFunc(func(path string) {
			result.Navigated = append(result.Navigated, path)
		})),
	)

	for i := range s.Flow {
		run.step = i
		run.execStep(ctx, &s.Flow[i])
	}

	result.Version = d.Version()
	final, err := st.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("final fetch: %w", err)
	}
	result.Final = names(final)

	for _, msg := range EvaluateAssertions(result, s.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// record appends a dispatcher event to the trace.
func (r *runner) record(ev dispatch.Event) {
	te := TraceEvent{
		Seq:     len(r.result.Trace) + 1,
		Step:    r.step,
		State:   ev.State.String(),
		Version: ev.Version,
		Token:   ev.Token,
	}
	if ev.State != dispatch.StateIdle {
		te.Action = ev.Action.Kind().String()
	}
	if ev.Outcome != nil {
		te.Error = ErrorCode(ev.Outcome.Err)
	}
	r.result.Trace = append(r.result.Trace, te)
}

// execStep runs one step and checks its expectation.
func (r *runner) execStep(ctx context.Context, step *Step) {
	expect := step.Expect
	if expect == nil {
		expect = &Expect{}
	}

	var (
		err       error
		listed    []string
		tags      []string
		navigated string
	)
	switch step.Do {
	case StepAdd:
		before := len(r.result.Navigated)
		session := r.catalog.NewSession()
		if err = applyEdits(session, step.Edits); err == nil {
			err = r.catalog.Submit(ctx, session)
		}
		if len(r.result.Navigated) > before {
			navigated = r.result.Navigated[len(r.result.Navigated)-1]
		}
	case StepEdit:
		var session *catalog.Session
		session, err = r.catalog.Edit(ctx, step.ID)
		if err == nil {
			if err = applyEdits(session, step.Edits); err == nil {
				err = r.catalog.Submit(ctx, session)
			}
		}
	case StepDelete:
		err = r.catalog.Delete(ctx, step.ID)
	case StepDuplicate:
		err = r.catalog.Duplicate(ctx, step.ID)
	case StepList:
		var q filter.Query
		if step.Query != nil {
			q = filter.Query{Tags: step.Query.Tags, Search: step.Query.Search}
		}
		var list []recipe.RecipeLight
		list, err = r.catalog.List(ctx, q)
		listed = names(list)
	case StepTags:
		tags, err = r.catalog.Tags(ctx)
	}

	prefix := fmt.Sprintf("flow[%d] %s", r.step, step.Do)
	if got := ErrorCode(err); got != expect.Error {
		if expect.Error == "" {
			r.result.AddError(fmt.Sprintf("%s: unexpected error: %v", prefix, err))
		} else {
			r.result.AddError(fmt.Sprintf("%s: expected error %q, got %q", prefix, expect.Error, got))
		}
		return
	}
	if expect.Names != nil && !slices.Equal(listed, expect.Names) {
		r.result.AddError(fmt.Sprintf("%s: expected names %v, got %v", prefix, expect.Names, listed))
	}
	if expect.Tags != nil && !slices.Equal(tags, expect.Tags) {
		r.result.AddError(fmt.Sprintf("%s: expected tags %v, got %v", prefix, expect.Tags, tags))
	}
	if expect.Navigated != "" && navigated != expect.Navigated {
		r.result.AddError(fmt.Sprintf("%s: expected navigation to %q, got %q", prefix, expect.Navigated, navigated))
	}
}

// applyEdits runs session commands in order, stopping at the first error.
func applyEdits(s *catalog.Session, edits []Edit) error {
	for _, e := range edits {
		switch e.Op {
		case OpSetName:
			s.SetName(e.Value)
		case OpSetInstructions:
			s.SetInstructions(e.Value)
		case OpAddEntry, OpRemoveEntry, OpUpdateEntry:
			f, err := catalog.ParseField(e.Field)
			if err != nil {
				return err
			}
			if err := applyEntryEdit(s, f, e); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown op %q", e.Op)
		}
	}
	return nil
}

func applyEntryEdit(s *catalog.Session, f catalog.Field, e Edit) error {
	switch e.Op {
	case OpAddEntry:
		id, err := s.AddEntry(f)
		if err != nil {
			return err
		}
		for sel, v := range e.Values {
			if err := s.UpdateEntry(f, id, sel, v); err != nil {
				return err
			}
		}
		return nil
	case OpRemoveEntry:
		return s.RemoveEntry(f, e.Entry)
	default:
		return s.UpdateEntry(f, e.Entry, e.Selector, e.Value)
	}
}

func names(list []recipe.RecipeLight) []string {
	out := make([]string, len(list))
	for i, r := range list {
		out[i] = r.Name
	}
	return out
}
