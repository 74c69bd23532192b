package core

import "github.com/go-drift/fiber/pkg/element"

type contextEntry struct {
	ctx      *element.Context
	prev     any
	hadValue bool
}

// contextStack holds the provider values visible at the fiber being
// rendered. Providers push in beginWork and pop in completeWork, so the
// stack survives a yield in the middle of the tree.
type contextStack struct {
	values  map[*element.Context]any
	entries []contextEntry
}

func (s *contextStack) push(ctx *element.Context, value any) {
	if s.values == nil {
		s.values = make(map[*element.Context]any)
	}
	prev, had := s.values[ctx]
	s.entries = append(s.entries, contextEntry{ctx: ctx, prev: prev, hadValue: had})
	s.values[ctx] = value
}

func (s *contextStack) pop() {
	n := len(s.entries)
	if n == 0 {
		return
	}
	e := s.entries[n-1]
	s.entries = s.entries[:n-1]
	if e.hadValue {
		s.values[e.ctx] = e.prev
	} else {
		delete(s.values, e.ctx)
	}
}

func (s *contextStack) reset() {
	s.values = nil
	s.entries = nil
}

func (r *Reconciler) readContext(ctx *element.Context) any {
	if v, ok := r.contexts.values[ctx]; ok {
		return v
	}
	return ctx.Default()
}
