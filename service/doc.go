// Package service wires the lock-free stack to item sequencing, the
// push/pop journal, the pop outbox and metrics.
//
// It provides the push, pop and query API used by transports such as
// gRPC, decoupled from them.
package service
