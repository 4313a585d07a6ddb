// Package demo is the todo application the fiber CLI renders: a keyed
// list of memoized items, a stats component using UseMemo and a counter
// with local state, driven by a fixed script of updates.
package demo
