// Package export uploads rendered snapshots of the demo host tree to S3:
// the serialized HTML and the op log of every scripted step.
package export
