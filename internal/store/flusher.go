package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// FlushFunc persists one dirty key.
type FlushFunc func(ctx context.Context, key string) error

// Flusher batches catalog saves. Keys are marked dirty by any goroutine;
// a single consumer flushes them at most once per interval.
type Flusher struct {
	interval time.Duration
	flush    FlushFunc

	mu    sync.Mutex
	dirty map[string]struct{}
	kick  chan struct{}
}

// NewFlusher builds a flusher calling fn for every dirty key.
func NewFlusher(interval time.Duration, fn FlushFunc) *Flusher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Flusher{
		interval: interval,
		flush:    fn,
		dirty:    make(map[string]struct{}),
		kick:     make(chan struct{}, 1),
	}
}

// MarkDirty schedules key for the next flush.
func (f *Flusher) MarkDirty(key string) {
	f.mu.Lock()
	f.dirty[key] = struct{}{}
	f.mu.Unlock()
	select {
	case f.kick <- struct{}{}:
	default:
	}
}

// Pending returns the keys waiting for a flush.
func (f *Flusher) Pending() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.dirty))
	for k := range f.dirty {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Run consumes dirty marks until ctx is done, then flushes what is left.
// The first mark after a flush arms a timer; marks arriving before it
// fires join the same batch.
func (f *Flusher) Run(ctx context.Context) error {
	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return f.Flush(context.WithoutCancel(ctx))
		case <-f.kick:
			if timer == nil {
				timer = time.NewTimer(f.interval)
				fire = timer.C
			}
		case <-fire:
			timer, fire = nil, nil
			if err := f.Flush(ctx); err != nil {
				logutil.GetLogger(ctx).Error("flush catalogs failed", zap.Error(err))
			}
		}
	}
}

// Flush saves every dirty key now. Keys that fail stay dirty.
func (f *Flusher) Flush(ctx context.Context) error {
	f.mu.Lock()
	keys := make([]string, 0, len(f.dirty))
	for k := range f.dirty {
		keys = append(keys, k)
	}
	f.dirty = make(map[string]struct{})
	f.mu.Unlock()
	sort.Strings(keys)

	var errs []error
	for _, key := range keys {
		if err := f.flush(ctx, key); err != nil {
			errs = append(errs, err)
			f.mu.Lock()
			f.dirty[key] = struct{}{}
			f.mu.Unlock()
		}
	}
	return errors.Join(errs...)
}
