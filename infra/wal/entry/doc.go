// Package entry is the push/pop journal: a segmented, CRC-framed,
// append-only log from which the stack's contents are rebuilt on start.
package entry
