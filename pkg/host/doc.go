// Package host defines the host adapter capability set used by the fiber
// committer, and provides Memory, an in-memory host tree.
//
// # Adapter
//
// The committer never touches host nodes directly. It calls CreateNode
// when a mount fiber is first visited and AddProps, AppendChild,
// InsertBefore, RemoveChild and ReplaceWith while committing.
//
// # Memory
//
// Memory keeps a plain tree of MemoryNode values and records each
// mutation as an Op. Ops render to short strings:
//
//	insert li#d before li#c
//	append li#a to ul
//	remove li#b from ul
//
// which makes reorder behaviour easy to assert in tests and easy to
// stream to observers. HTML serializes the tree.
package host
