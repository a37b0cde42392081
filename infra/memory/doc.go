// Package memory provides the low-level primitives for memory
// management and safe reclamation: a typed object Pool, the per-participant
// RetireRing, and the epoch-based Collector that decides when a retired
// object may be handed back to its pool.
//
// Everything on the Pin/Retire/Unpin path is lock-free. The memory
// package imports no other package of this module.
package memory
