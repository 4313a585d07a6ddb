package fiber

import (
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/vango-dev/fiber/pkg/element"
	"github.com/vango-dev/fiber/pkg/host"
)

// commitBatch accumulates what one commit walk found.
type commitBatch struct {
	placements []*Fiber
	superseded []*Fiber
	walked     []*Fiber
	cleanups   []Cleanup
	effects    []*effectHook
}

// commitRoot applies a finished pass to the host tree. It runs in one
// piece: deletions, then node updates and mounts in render order, then
// placements in reverse order, then cleanups and effects.
func (r *Root) commitRoot() {
	start := time.Now()
	wip := r.wipRoot

	_, span := r.tracer.Start(r.passCtx, "fiber.commit")
	defer span.End()

	if wip.Parent != nil {
		r.relink(wip)
	}

	var b commitBatch
	deletions := r.deletions
	r.deletions = nil
	for _, d := range deletions {
		b.cleanups = r.commitDeletion(d, b.cleanups)
	}

	r.commitWalk(wip, &b)

	for i := len(b.placements) - 1; i >= 0; i-- {
		r.place(b.placements[i])
	}
	for _, old := range b.superseded {
		old.sever()
	}
	for _, f := range b.walked {
		f.settle()
	}

	if wip.Parent == nil {
		r.current = wip
	}
	r.wipRoot = nil
	r.next = nil

	runCleanups(b.cleanups)
	for i := len(b.effects) - 1; i >= 0; i-- {
		b.effects[i].run()
	}

	r.commitSeq++
	r.stats.Commits++
	info := CommitInfo{
		Seq:        r.commitSeq,
		Component:  r.passComponent,
		Units:      r.passUnits,
		Deletions:  len(deletions),
		Placements: len(b.placements),
		Effects:    len(b.effects),
		Cleanups:   len(b.cleanups),
		Duration:   time.Since(start),
	}
	r.metrics.commit(info.Duration, info.Deletions, info.Effects)

	span.SetAttributes(
		attribute.Int("fiber.units", info.Units),
		attribute.Int("fiber.deletions", info.Deletions),
		attribute.Int("fiber.placements", info.Placements),
		attribute.Int("fiber.effects", info.Effects),
	)
	if r.passSpan != nil {
		r.passSpan.End()
		r.passSpan = nil
	}

	r.logger.Debug("fiber: commit",
		"seq", info.Seq,
		"component", info.Component,
		"units", info.Units,
		"deletions", info.Deletions,
		"placements", info.Placements,
		"effects", info.Effects,
		"duration", info.Duration,
	)
	for _, hook := range r.commitHooks {
		hook(info)
	}
}

// relink swaps a component-rooted pass's new fiber into its parent's
// sibling chain in place of the version it supersedes.
func (r *Root) relink(wip *Fiber) {
	parent := wip.Parent
	if parent.Child == wip.Old {
		parent.Child = wip
		return
	}
	for s := parent.Child; s != nil; s = s.Sibling {
		if s.Sibling == wip.Old {
			s.Sibling = wip
			return
		}
	}
	panic(newInvariant("F006", wip))
}

// commitWalk visits the new tree in render order without descending into
// skipped subtrees.
func (r *Root) commitWalk(wip *Fiber, b *commitBatch) {
	f := wip
	for f != nil {
		r.commitFiber(f, b)

		if f.Flags&Skipped == 0 && f.Child != nil {
			f = f.Child
			continue
		}
		for f != nil {
			if f == wip {
				return
			}
			if f.Sibling != nil {
				f = f.Sibling
				break
			}
			f = f.Parent
		}
	}
}

func (r *Root) commitFiber(f *Fiber, b *commitBatch) {
	b.walked = append(b.walked, f)
	if f.Old != nil {
		b.superseded = append(b.superseded, f.Old)
	}
	if f.Flags.placement() {
		b.placements = append(b.placements, f)
	}

	if f.Flags&Skipped == 0 && f.Node != nil && f.Parent != nil {
		var prev element.Props
		if f.Old != nil && f.replaces == nil {
			prev = f.Old.Props
		}
		r.adapter.AddProps(f, f.Node, f.Props, prev)
		r.metrics.hostOp("add_props")

		switch {
		case f.replaces != nil:
			r.adapter.ReplaceWith(f.replaces, f.Node)
			r.metrics.hostOp("replace")
		case f.Flags&Mounted != 0:
			r.adapter.AppendChild(f.hostParent(), f.Node)
			r.metrics.hostOp("append")
		}
	}

	b.cleanups = append(b.cleanups, f.cleanups...)
	b.effects = append(b.effects, f.effects...)
}

// place moves a flagged fiber's host nodes in front of its next host
// sibling. A fresh component has nothing to move: its host descendants
// carry their own placement.
func (r *Root) place(f *Fiber) {
	parent := f.hostParent()
	before := f.hostSibling()

	if f.Node != nil {
		r.insert(parent, f.Node, before)
		return
	}
	if f.created {
		return
	}
	for _, n := range f.topHostNodes(nil) {
		r.insert(parent, n, before)
	}
}

func (r *Root) insert(parent, node, before host.Node) {
	if before == nil {
		r.adapter.AppendChild(parent, node)
		r.metrics.hostOp("append")
		return
	}
	r.adapter.InsertBefore(parent, node, before)
	r.metrics.hostOp("insert")
}

// commitDeletion removes an old subtree: it collects the effect cleanups
// of every instance in it, detaches its host nodes unless an ancestor's
// node is going away anyway, and severs its fibers.
func (r *Root) commitDeletion(d deletion, cleanups []Cleanup) []Cleanup {
	f := d.fiber
	cleanups = collectCleanups(f, cleanups)

	if d.detach {
		parent := f.hostParent()
		for _, n := range f.topHostNodes(nil) {
			r.adapter.RemoveChild(parent, n)
			r.metrics.hostOp("remove")
		}
	}
	severTree(f)
	return cleanups
}

// collectCleanups appends the pending cleanups of f's subtree in
// pre-order and marks its instances unmounted.
func collectCleanups(f *Fiber, out []Cleanup) []Cleanup {
	if inst := f.State; inst != nil && !inst.unmounted {
		inst.unmounted = true
		inst.dirty = false
		for _, h := range inst.hooks {
			if e, ok := h.(*effectHook); ok && e.cleanup != nil {
				out = append(out, e.cleanup)
				e.cleanup = nil
			}
		}
	}
	for c := f.Child; c != nil; c = c.Sibling {
		out = collectCleanups(c, out)
	}
	return out
}

func severTree(f *Fiber) {
	for c := f.Child; c != nil; {
		next := c.Sibling
		severTree(c)
		c = next
	}
	f.sever()
}

// runCleanups runs cleanups last to first, so children clean up before
// their parents and each component undoes its effects in reverse.
func runCleanups(cleanups []Cleanup) {
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
}
