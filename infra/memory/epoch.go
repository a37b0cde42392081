package memory

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

const inactive = ^uint64(0)

// DefaultRetireBagSize is the per-participant retire bag capacity.
const DefaultRetireBagSize = 64

// ReclaimablePool is the ONLY requirement for reclamation.
// It is intentionally type-erased.
type ReclaimablePool interface {
	PutAny(any)
}

// Config tunes a Collector.
type Config struct {
	// RetireBagSize bounds how many retired objects one participant may
	// hold before further retirements go straight to the GC. Must be a
	// power of two.
	RetireBagSize uint64
}

// ValidateRetireBagSize reports whether n can be used as
// Config.RetireBagSize. Zero selects the default.
func ValidateRetireBagSize(n uint64) error {
	if n != 0 && n&(n-1) != 0 {
		return errors.Newf("retire bag size %d is not a power of two", n)
	}
	return nil
}

type retired struct {
	obj   any
	epoch uint64
}

// ReaderEpoch is a participant record. It marks when its holder entered a
// read section and carries the holder's retire bag.
//
// Records are claimed per operation through owned and are never unlinked
// from the registry, so a record pointer stays valid for the lifetime of
// the Collector.
type ReaderEpoch struct {
	epoch atomic.Uint64
	_pad  [56]byte
	owned atomic.Bool
	next  *ReaderEpoch
	bag   *RetireRing[retired]
}

func (r *ReaderEpoch) enter(e uint64) {
	r.epoch.Store(e)
}

func (r *ReaderEpoch) exit() {
	r.epoch.Store(inactive)
}

func (r *ReaderEpoch) Value() uint64 {
	return r.epoch.Load()
}

// Collector implements epoch-based reclamation.
//
// The global epoch advances from e to e+1 only once every pinned
// participant has published e. An object retired while the global epoch
// was t is handed back to the pool once the epoch reaches t+2: by then
// every goroutine still pinned entered after the object was unlinked.
type Collector struct {
	epoch   atomic.Uint64
	_pad    [56]byte
	readers atomic.Pointer[ReaderEpoch]
	pool    ReclaimablePool
	bagSize uint64

	retiredN   atomic.Uint64
	reclaimedN atomic.Uint64
	droppedN   atomic.Uint64
}

func NewCollector(pool ReclaimablePool, cfg Config) *Collector {
	if cfg.RetireBagSize == 0 {
		cfg.RetireBagSize = DefaultRetireBagSize
	}
	if err := ValidateRetireBagSize(cfg.RetireBagSize); err != nil {
		panic(errors.NewAssertionErrorWithWrappedErrf(err, "memory.NewCollector"))
	}
	return &Collector{
		pool:    pool,
		bagSize: cfg.RetireBagSize,
	}
}

// Guard is a pinned participant. It must be unpinned by the goroutine
// that pinned it and must not be used after Unpin.
type Guard struct {
	c *Collector
	r *ReaderEpoch
}

// Pin claims a participant record and publishes the current epoch in it.
// Anything reached through shared pointers after Pin returns stays
// allocated until the matching Unpin.
func (c *Collector) Pin() Guard {
	r := c.acquire()
	r.enter(c.epoch.Load())
	return Guard{c: c, r: r}
}

// Unpin leaves the read section and releases the participant record.
func (g Guard) Unpin() {
	g.r.exit()
	g.r.owned.Store(false)
}

// Retire hands obj, already unlinked from every shared structure, to the
// collector. A collection step runs on every retirement.
func (g Guard) Retire(obj any) {
	c := g.c
	c.retiredN.Add(1)
	e := c.epoch.Load()

	bag := g.r.bag
	if bag.IsFull() {
		c.collect(bag)
	}
	if !bag.Enqueue(retired{obj: obj, epoch: e}) {
		// Still held by a pinned reader somewhere; the GC keeps it alive
		// for as long as it is referenced, it just never gets reused.
		c.droppedN.Add(1)
		return
	}
	c.collect(bag)
}

func (c *Collector) acquire() *ReaderEpoch {
	for r := c.readers.Load(); r != nil; r = r.next {
		if !r.owned.Load() && r.owned.CompareAndSwap(false, true) {
			return r
		}
	}

	r := &ReaderEpoch{bag: NewRetireRing[retired](c.bagSize)}
	r.epoch.Store(inactive)
	r.owned.Store(true)
	for {
		head := c.readers.Load()
		r.next = head
		if c.readers.CompareAndSwap(head, r) {
			break
		}
	}
	return r
}

// tryAdvance moves the global epoch forward if no pinned participant
// lags behind it, and returns the epoch observed afterwards.
func (c *Collector) tryAdvance() uint64 {
	global := c.epoch.Load()
	for r := c.readers.Load(); r != nil; r = r.next {
		if e := r.Value(); e != inactive && e != global {
			return global
		}
	}
	if c.epoch.CompareAndSwap(global, global+1) {
		return global + 1
	}
	return c.epoch.Load()
}

// collect drains the eligible prefix of bag. Bags are FIFO by retire
// epoch, so the first ineligible entry ends the scan.
func (c *Collector) collect(bag *RetireRing[retired]) int {
	global := c.tryAdvance()
	n := 0
	for {
		it, ok := bag.Peek()
		if !ok || it.epoch+2 > global {
			break
		}
		bag.Dequeue()
		c.pool.PutAny(it.obj)
		n++
	}
	if n > 0 {
		c.reclaimedN.Add(uint64(n))
	}
	return n
}

// Reclaim advances the epoch and drains the bags of all idle
// participants. Intended to be called periodically so retired objects
// do not linger in records nobody is using.
func (c *Collector) Reclaim() int {
	c.tryAdvance()
	n := 0
	for r := c.readers.Load(); r != nil; r = r.next {
		if r.owned.Load() || !r.owned.CompareAndSwap(false, true) {
			continue
		}
		n += c.collect(r.bag)
		r.owned.Store(false)
	}
	return n
}

// Drain hands every retired object to the pool regardless of epoch.
// Callers must guarantee that no other goroutine uses the collector.
func (c *Collector) Drain() int {
	n := 0
	for r := c.readers.Load(); r != nil; r = r.next {
		for {
			it, ok := r.bag.Dequeue()
			if !ok {
				break
			}
			c.pool.PutAny(it.obj)
			n++
		}
	}
	c.reclaimedN.Add(uint64(n))
	return n
}

// Stats is a point-in-time view of the collector. Fields are read
// independently and may be mutually inconsistent under concurrency.
type Stats struct {
	Epoch        uint64
	Participants int
	Pending      int
	Retired      uint64
	Reclaimed    uint64
	Dropped      uint64
}

func (c *Collector) Stats() Stats {
	s := Stats{
		Epoch:     c.epoch.Load(),
		Retired:   c.retiredN.Load(),
		Reclaimed: c.reclaimedN.Load(),
		Dropped:   c.droppedN.Load(),
	}
	for r := c.readers.Load(); r != nil; r = r.next {
		s.Participants++
		s.Pending += r.bag.Len()
	}
	return s
}

// Epoch returns the current global epoch.
func (c *Collector) Epoch() uint64 {
	return c.epoch.Load()
}
