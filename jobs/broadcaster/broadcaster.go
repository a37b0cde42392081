package broadcaster

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"

	"lifo/infra/kafka"
	exitwal "lifo/infra/wal/exit"
)

const eventVersion = 1

// Event is the message announced for every popped item. The JSON form is
// the default wire format.
type Event struct {
	V       int    `json:"v"`
	Type    string `json:"type"`
	ID      uint64 `json:"id"`
	Payload []byte `json:"payload,omitempty"`
}

type Config struct {
	// Interval between outbox scans. Defaults to 250ms.
	Interval time.Duration
	// PruneAcked deletes acknowledged records after each scan.
	PruneAcked bool
	// Encoder defaults to JSONEncoder.
	Encoder Encoder
}

// Broadcaster drains the pop outbox into a Publisher, at least once.
type Broadcaster struct {
	outbox    *exitwal.ExitWAL
	publisher kafka.Publisher
	interval  time.Duration
	prune     bool
	encoder   Encoder
}

func New(outbox *exitwal.ExitWAL, publisher kafka.Publisher, cfg Config) *Broadcaster {
	if cfg.Interval <= 0 {
		cfg.Interval = 250 * time.Millisecond
	}
	if cfg.Encoder == nil {
		cfg.Encoder = JSONEncoder{}
	}
	return &Broadcaster{
		outbox:    outbox,
		publisher: publisher,
		interval:  cfg.Interval,
		prune:     cfg.PruneAcked,
		encoder:   cfg.Encoder,
	}
}

// Run scans the outbox every interval until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	log.Printf("[broadcaster] started interval=%s", b.interval)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[broadcaster] stopped")
			return
		case <-ticker.C:
			if _, err := b.RunOnce(ctx); err != nil {
				log.Printf("[broadcaster] scan failed: %v", err)
			}
		}
	}
}

// RunOnce publishes every record not yet acknowledged and returns how many
// were acknowledged in this pass. A failed publish marks the record FAILED
// and leaves it for the next pass.
func (b *Broadcaster) RunOnce(ctx context.Context) (int, error) {
	var pending []exitwal.ExitRecord
	if err := b.outbox.ScanPending(func(rec exitwal.ExitRecord) error {
		pending = append(pending, rec)
		return nil
	}); err != nil {
		return 0, errors.Wrap(err, "scan outbox")
	}

	acked := 0
	for _, rec := range pending {
		if err := ctx.Err(); err != nil {
			return acked, err
		}
		if err := b.outbox.MarkSent(rec.ID); err != nil {
			return acked, err
		}

		value, err := b.encoder.Encode(Event{
			V:       eventVersion,
			Type:    "pop",
			ID:      rec.ID,
			Payload: rec.Payload,
		})
		if err != nil {
			return acked, errors.Wrapf(err, "encode event %d", rec.ID)
		}

		key := []byte(strconv.FormatUint(rec.ID, 10))
		if err := b.publisher.Publish(ctx, key, value); err != nil {
			log.Printf("[broadcaster] publish id=%d retries=%d: %v", rec.ID, rec.Retries, err)
			if err := b.outbox.MarkFailed(rec.ID); err != nil {
				return acked, err
			}
			continue
		}

		if err := b.outbox.MarkAcked(rec.ID); err != nil {
			return acked, err
		}
		acked++
	}

	if b.prune && acked > 0 {
		if _, err := b.outbox.DeleteAcked(); err != nil {
			return acked, errors.Wrap(err, "prune outbox")
		}
	}
	return acked, nil
}

// Close closes the publisher.
func (b *Broadcaster) Close() error {
	return b.publisher.Close()
}
