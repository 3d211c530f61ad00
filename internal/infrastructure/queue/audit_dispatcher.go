package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/afyalink/health-registry/internal/core/domain"
	"github.com/afyalink/health-registry/internal/core/ports"
	"github.com/afyalink/health-registry/internal/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// ErrDispatcherStopped is returned by Append after Stop has been called.
var ErrDispatcherStopped = errors.New("audit dispatcher stopped")

var _ ports.AuditStore = (*AuditDispatcher)(nil)

// AuditDispatcher moves audit writes off the request path. Entries are
// sharded by actor so one actor's entries are written in the order they were
// recorded.
type AuditDispatcher struct {
	workers []chan domain.AuditEntry
	store   ports.AuditStore
	log     zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewAuditDispatcher creates a dispatcher writing to store through
// numWorkers workers. If numWorkers <= 0, defaultWorkers is used.
func NewAuditDispatcher(numWorkers int, store ports.AuditStore, log zerolog.Logger) *AuditDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &AuditDispatcher{
		workers: make([]chan domain.AuditEntry, numWorkers),
		store:   store,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuditEntry, channelBuffer)
	}
	return d
}

// Start launches the workers. They run until Stop drains their queues.
func (d *AuditDispatcher) Start() {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(i, ch)
	}
}

// Append queues entry for its actor's worker. It blocks only when that
// worker's buffer is full.
func (d *AuditDispatcher) Append(ctx context.Context, entry *domain.AuditEntry) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrDispatcherStopped
	}

	select {
	case d.workers[d.shardIndex(entry.UserID)] <- *entry:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop rejects new entries and waits until queued entries are written or ctx
// expires.
func (d *AuditDispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps an actor id deterministically to a worker index.
func (d *AuditDispatcher) shardIndex(actorID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(actorID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *AuditDispatcher) runWorker(id int, ch <-chan domain.AuditEntry) {
	defer d.wg.Done()
	for entry := range ch {
		if err := d.store.Append(context.Background(), &entry); err != nil {
			metrics.AuditFailuresTotal.WithLabelValues(entry.Action).Inc()
			d.log.Error().Err(err).
				Str("actor", entry.UserID).
				Str("action", entry.Action).
				Int("worker_id", id).
				Msg("audit write failed")
		}
	}
}
