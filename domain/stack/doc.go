// Package stack implements a lock-free, multi-producer multi-consumer
// LIFO stack (a Treiber stack) whose nodes are recycled through a pool.
//
// Popped nodes are not reused immediately: they are retired into an
// epoch-based collector (lifo/infra/memory) and only go back to the pool
// once no goroutine that could still be reading them remains pinned. That
// grace period is what keeps recycling free of use-after-free and ABA.
package stack
