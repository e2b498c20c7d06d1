package driver

import (
	"context"
	"fmt"
	"slices"

	"crossgen/internal/trace"
	"crossgen/internal/types"
)

// TypeVerdict is the scope answer for one type.
type TypeVerdict struct {
	Type     types.TypeID
	Label    string
	Module   string // empty for types without a defining module
	Contains bool
	Versions bool
	Layout   bool
}

// MethodVerdict is the scope answer for one method body.
type MethodVerdict struct {
	Method   types.MethodID
	Label    string
	Contains bool
	Versions bool
}

// InlineVerdict is the inlining answer for one call site.
type InlineVerdict struct {
	Call      int
	Caller    string
	Callee    string
	CanInline bool
}

// Analysis collects the scope and inline reports.
type Analysis struct {
	Types   []TypeVerdict
	Methods []MethodVerdict
	Inlines []InlineVerdict
	Aborted []*UnitError
}

// reportTypes lists the declared types followed by every other type a call
// site names (owner instantiations, constrained and target types), without
// duplicates.
func (s *Session) reportTypes() []types.TypeID {
	u := s.Universe
	in := u.Types
	out := slices.Clone(u.Defined)
	seen := make(map[types.TypeID]bool, len(out))
	for _, id := range out {
		seen[id] = true
	}
	add := func(id types.TypeID) {
		if id != types.NoTypeID && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, c := range u.Calls {
		add(in.OwningType(c.Callee))
		add(c.Constrained)
		add(c.Target)
	}
	return out
}

// Analyze answers the containment, versioning and layout queries for every
// reported type, the body queries for every declared method and CanInline
// for every call site. Units run in parallel.
func (s *Session) Analyze(ctx context.Context) (*Analysis, error) {
	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "analyze", trace.CurrentSpan(ctx))
	defer span.End("")
	ctx = trace.WithSpan(ctx, span)
	done := s.opts.track("analyze")

	in := s.Universe.Types
	g := s.Group
	res := &Analysis{}

	ids := s.reportTypes()
	res.Types = make([]TypeVerdict, len(ids))
	aborted, err := s.forEachUnit(ctx, "types", len(ids),
		func(i int) string { return "type:" + in.TypeLabel(ids[i]) },
		func(i int) {
			id := ids[i]
			v := TypeVerdict{Type: id, Label: in.TypeLabel(id)}
			if in.IsModuleDefined(id) {
				v.Module = in.ModuleName(in.DefiningModule(id))
			}
			v.Contains = g.ContainsType(id)
			v.Versions = g.VersionsWithType(id)
			v.Layout = g.ContainsTypeLayout(id)
			res.Types[i] = v
		})
	if err != nil {
		done("cancelled")
		return nil, err
	}
	res.Types = dropAborted(res.Types, aborted)
	res.Aborted = append(res.Aborted, aborted...)

	methods := s.Universe.Methods
	res.Methods = make([]MethodVerdict, len(methods))
	aborted, err = s.forEachUnit(ctx, "methods", len(methods),
		func(i int) string { return "method:" + in.MethodLabel(methods[i]) },
		func(i int) {
			m := methods[i]
			res.Methods[i] = MethodVerdict{
				Method:   m,
				Label:    in.MethodLabel(m),
				Contains: g.ContainsMethodBody(m, false),
				Versions: g.VersionsWithMethodBody(m),
			}
		})
	if err != nil {
		done("cancelled")
		return nil, err
	}
	res.Methods = dropAborted(res.Methods, aborted)
	res.Aborted = append(res.Aborted, aborted...)

	calls := s.Universe.Calls
	res.Inlines = make([]InlineVerdict, len(calls))
	aborted, err = s.forEachUnit(ctx, "inlines", len(calls),
		func(i int) string { return fmt.Sprintf("inline:%d", calls[i].Index) },
		func(i int) {
			c := calls[i]
			res.Inlines[i] = InlineVerdict{
				Call:      c.Index,
				Caller:    in.MethodLabel(c.Caller),
				Callee:    in.MethodLabel(c.Callee),
				CanInline: g.CanInline(c.Caller, c.Callee),
			}
		})
	if err != nil {
		done("cancelled")
		return nil, err
	}
	res.Inlines = dropAborted(res.Inlines, aborted)
	res.Aborted = append(res.Aborted, aborted...)

	note := fmt.Sprintf("%d types, %d methods, %d calls", len(res.Types), len(res.Methods), len(res.Inlines))
	span.WithExtra("aborted", fmt.Sprint(len(res.Aborted)))
	done(note)
	return res, nil
}
