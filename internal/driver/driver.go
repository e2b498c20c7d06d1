// Package driver runs compilations described by a manifest: it builds the
// type universe, answers the scope and inlining queries for every declared
// type and call site, collects the method fixups and emits them into an image.
//
// Each query or call site is a unit. A unit that trips an internal invariant
// is aborted on its own; the other units still run.
package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"crossgen/internal/observ"
	"crossgen/internal/project"
	"crossgen/internal/scope"
	"crossgen/internal/trace"
	"crossgen/internal/types"
)

// ErrUnitAborted marks a unit stopped by an internal invariant violation.
var ErrUnitAborted = errors.New("compilation unit aborted")

// UnitError reports one aborted unit. It matches both ErrUnitAborted and
// the underlying *types.InvariantError.
type UnitError struct {
	Unit  string
	Index int // position within its pass
	Cause *types.InvariantError
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Unit, ErrUnitAborted, e.Cause)
}

func (e *UnitError) Unwrap() []error { return []error{ErrUnitAborted, e.Cause} }

// Options tunes a session.
type Options struct {
	Jobs     int           // parallel units; <= 0 means GOMAXPROCS
	Timer    *observ.Timer // optional
	Progress ProgressSink  // optional
}

func (o Options) jobs() int {
	if o.Jobs > 0 {
		return o.Jobs
	}
	return runtime.GOMAXPROCS(0)
}

// Session is one built manifest plus its compilation policy.
type Session struct {
	Universe *project.Universe
	Group    scope.Group
	opts     Options
}

// Load reads the manifest at path and opens a session on it.
func Load(ctx context.Context, path string, opts Options) (*Session, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "load", trace.CurrentSpan(ctx))
	defer span.End("")

	done := opts.track("manifest")
	m, err := project.LoadManifest(path)
	if err != nil {
		done("failed")
		return nil, err
	}
	done(m.Digest.Short())

	done = opts.track("build")
	u, err := project.Build(m)
	if err != nil {
		done("failed")
		return nil, err
	}
	done(fmt.Sprintf("%d types, %d calls", len(u.Defined), len(u.Calls)))
	span.WithExtra("digest", u.Digest.Short())
	return NewSession(u, opts)
}

// NewSession opens a session on an already built universe.
func NewSession(u *project.Universe, opts Options) (*Session, error) {
	group, err := scope.New(u.ScopeConfig())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", u.Name, err)
	}
	return &Session{Universe: u, Group: group, opts: opts}, nil
}

func (o Options) track(name string) func(note string) {
	if o.Timer == nil {
		return func(string) {}
	}
	return o.Timer.Track(name)
}

// runUnit runs fn under a unit span, turning an invariant panic into a
// *UnitError. Other panics propagate.
func runUnit(ctx context.Context, name string, fn func()) (err error) {
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeUnit, name, trace.CurrentSpan(ctx))
	defer func() {
		r := recover()
		if r == nil {
			span.End("")
			return
		}
		var inv *types.InvariantError
		rerr, ok := r.(error)
		if !ok || !errors.As(rerr, &inv) {
			span.End("panic")
			panic(r)
		}
		err = &UnitError{Unit: name, Cause: inv}
		span.End("aborted")
	}()
	fn()
	return nil
}

// forEachUnit runs unit(i) for i in [0, n) with at most jobs in flight and
// reports each finished unit as progress of pass. Aborted units are
// collected in index order; a cancelled ctx stops the remaining units and
// is returned as the error.
func (s *Session) forEachUnit(ctx context.Context, pass string, n int, name func(i int) string, unit func(i int)) ([]*UnitError, error) {
	progress := s.opts.startPass(pass, n)
	defer progress.finish()
	aborted := make([]*UnitError, n)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.jobs())
	for i := range n {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			err := runUnit(gctx, name(i), func() { unit(i) })
			var ue *UnitError
			if errors.As(err, &ue) {
				ue.Index = i
				aborted[i] = ue
			}
			progress.unit(ue != nil)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := aborted[:0]
	for _, ue := range aborted {
		if ue != nil {
			out = append(out, ue)
		}
	}
	return out, nil
}

// dropAborted removes the rows of aborted units.
func dropAborted[T any](rows []T, aborted []*UnitError) []T {
	if len(aborted) == 0 {
		return rows
	}
	skip := make(map[int]bool, len(aborted))
	for _, ue := range aborted {
		skip[ue.Index] = true
	}
	out := rows[:0]
	for i, row := range rows {
		if !skip[i] {
			out = append(out, row)
		}
	}
	return out
}

// AbortedError joins the aborted units into one error, nil when none.
func AbortedError(aborted []*UnitError) error {
	if len(aborted) == 0 {
		return nil
	}
	errs := make([]error, len(aborted))
	for i, ue := range aborted {
		errs[i] = ue
	}
	return errors.Join(errs...)
}
