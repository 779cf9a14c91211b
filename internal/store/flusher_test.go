package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flushLog struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (l *flushLog) flush(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, key)
	if l.fail[key] {
		return errors.New("write failed")
	}
	return nil
}

func (l *flushLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

func TestFlusherBatchesMarks(t *testing.T) {
	t.Parallel()

	log := &flushLog{}
	f := NewFlusher(50*time.Millisecond, log.flush)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	for i := 0; i < 10; i++ {
		f.MarkDirty("snes")
	}
	f.MarkDirty("gba")

	require.Eventually(t, func() bool { return log.count() == 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 2, log.count(), "marks within one interval share a flush")
}

func TestFlusherKeepsFailedKeysDirty(t *testing.T) {
	t.Parallel()

	log := &flushLog{fail: map[string]bool{"bad": true}}
	f := NewFlusher(time.Hour, log.flush)
	f.MarkDirty("bad")
	f.MarkDirty("good")

	err := f.Flush(context.Background())
	assert.Error(t, err)
	assert.Equal(t, []string{"bad"}, f.Pending())
}

func TestFlusherFlushesOnShutdown(t *testing.T) {
	t.Parallel()

	log := &flushLog{}
	f := NewFlusher(time.Hour, log.flush)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	f.MarkDirty("snes")
	go func() { done <- f.Run(ctx) }()

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 1, log.count())
}
