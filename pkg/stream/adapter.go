package stream

import (
	"fmt"

	"github.com/vango-dev/fiber/pkg/element"
	"github.com/vango-dev/fiber/pkg/host"
)

// Labeler names nodes in recorded ops. host.MemoryNode implements it.
type Labeler interface {
	Label() string
}

// recorder forwards to the wrapped adapter and records each mutation in
// the hub. When the wrapped adapter keeps a host.OpLog, its ops are
// recorded as is; otherwise only structural mutations are.
type recorder struct {
	inner host.Adapter
	log   host.OpLog
	hub   *Hub
}

// Adapter returns inner decorated so that every mutation is also
// recorded for the next published commit.
func (h *Hub) Adapter(inner host.Adapter) host.Adapter {
	log, _ := inner.(host.OpLog)
	return &recorder{inner: inner, log: log, hub: h}
}

func label(n host.Node) string {
	if l, ok := n.(Labeler); ok {
		return l.Label()
	}
	return fmt.Sprint(n)
}

// apply runs fn against the inner adapter and records what it did, or
// op when the inner adapter keeps no log.
func (a *recorder) apply(fn func(), op func() host.Op) {
	if a.log == nil {
		fn()
		if op != nil {
			a.hub.record(op())
		}
		return
	}
	mark := a.log.Mark()
	fn()
	a.hub.record(a.log.OpsSince(mark)...)
}

func (a *recorder) CreateNode(tag string) host.Node {
	return a.inner.CreateNode(tag)
}

func (a *recorder) AddProps(ref any, node host.Node, props, prev element.Props) {
	a.apply(func() { a.inner.AddProps(ref, node, props, prev) }, nil)
}

func (a *recorder) RemoveChild(parent, child host.Node) {
	a.apply(func() { a.inner.RemoveChild(parent, child) }, func() host.Op {
		return host.Op{Kind: host.OpRemove, Node: label(child), Parent: label(parent)}
	})
}

func (a *recorder) AppendChild(parent, child host.Node) {
	a.apply(func() { a.inner.AppendChild(parent, child) }, func() host.Op {
		return host.Op{Kind: host.OpAppend, Node: label(child), Parent: label(parent)}
	})
}

func (a *recorder) InsertBefore(parent, child, before host.Node) {
	a.apply(func() { a.inner.InsertBefore(parent, child, before) }, func() host.Op {
		if before == nil {
			return host.Op{Kind: host.OpAppend, Node: label(child), Parent: label(parent)}
		}
		return host.Op{Kind: host.OpInsert, Node: label(child), Parent: label(parent), Before: label(before)}
	})
}

func (a *recorder) ReplaceWith(old, replacement host.Node) {
	a.apply(func() { a.inner.ReplaceWith(old, replacement) }, func() host.Op {
		return host.Op{Kind: host.OpReplace, Node: label(replacement), Before: label(old)}
	})
}
