// Package stream publishes committed host mutations to websocket
// subscribers.
//
// A Hub decorates the root's host adapter to record each mutation, and
// its commit hook flushes the recorded ops as one JSON message per
// commit:
//
//	{"type":"commit","seq":4,"ops":[{"kind":5,"node":"li#d","parent":"ul","before":"li#c"}]}
//
// New subscribers first receive a "snapshot" message carrying the full
// HTML of the host tree when the hub is created WithSnapshot.
package stream
