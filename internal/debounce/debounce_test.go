package debounce_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/duely/internal/debounce"
	"github.com/slok/duely/internal/log"
)

const (
	shortDelay = 30 * time.Millisecond
	waitFor    = 2 * time.Second
	tick       = 5 * time.Millisecond
)

type recorder struct {
	mu     sync.Mutex
	writes [][]string
	err    error
}

func (r *recorder) write(_ context.Context, s []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, s)
	return r.err
}

func (r *recorder) get() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string{}, r.writes...)
}

func cloneStrings(s []string) []string { return append([]string(nil), s...) }

func newStore(t *testing.T, delay time.Duration, w debounce.WriteFunc[[]string]) *debounce.Store[[]string] {
	t.Helper()
	s, err := debounce.NewStore(debounce.StoreConfig[[]string]{
		Name:   "test",
		Delay:  delay,
		Write:  w,
		Clone:  cloneStrings,
		Logger: log.Noop,
	})
	require.NoError(t, err)
	return s
}

func TestNewStore(t *testing.T) {
	noopWrite := func(context.Context, int) error { return nil }

	tests := map[string]struct {
		cfg    debounce.StoreConfig[int]
		expErr bool
	}{
		"valid config": {
			cfg: debounce.StoreConfig[int]{Delay: time.Second, Write: noopWrite},
		},
		"missing write": {
			cfg:    debounce.StoreConfig[int]{Delay: time.Second},
			expErr: true,
		},
		"zero delay": {
			cfg:    debounce.StoreConfig[int]{Write: noopWrite},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			s, err := debounce.NewStore(test.cfg)
			if test.expErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, debounce.StateIdle, s.State())
		})
	}
}

func TestStoreCoalescesRequests(t *testing.T) {
	assert := assert.New(t)
	rec := &recorder{}
	s := newStore(t, shortDelay, rec.write)

	assert.True(s.RequestSave([]string{"a"}))
	assert.True(s.RequestSave([]string{"a", "b"}))
	assert.Equal(debounce.StatePendingWrite, s.State())

	require.Eventually(t, func() bool { return len(rec.get()) == 1 }, waitFor, tick)
	require.Eventually(t, func() bool { return s.State() == debounce.StateIdle }, waitFor, tick)

	// No late write of the first snapshot.
	time.Sleep(3 * shortDelay)
	assert.Equal([][]string{{"a", "b"}}, rec.get())
}

func TestStoreRearmsTheWindow(t *testing.T) {
	rec := &recorder{}
	s := newStore(t, 100*time.Millisecond, rec.write)

	// Keep requesting inside the window, nothing must be written meanwhile.
	for i := 0; i < 5; i++ {
		s.RequestSave([]string{"v"})
		time.Sleep(40 * time.Millisecond)
		assert.Empty(t, rec.get())
	}

	require.Eventually(t, func() bool { return len(rec.get()) == 1 }, waitFor, tick)
}

func TestStoreDropsRequestsWhileWriting(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var once sync.Once
	started := make(chan struct{})
	release := make(chan struct{})
	rec := &recorder{}
	s := newStore(t, shortDelay, func(ctx context.Context, snap []string) error {
		once.Do(func() { close(started) })
		<-release
		return rec.write(ctx, snap)
	})

	require.True(s.RequestSave([]string{"first"}))

	select {
	case <-started:
	case <-time.After(waitFor):
		t.Fatal("write didn't start")
	}
	assert.Equal(debounce.StateWriting, s.State())

	// Must return immediately and report the drop.
	done := make(chan bool)
	go func() { done <- s.RequestSave([]string{"second"}) }()
	select {
	case accepted := <-done:
		assert.False(accepted)
	case <-time.After(waitFor):
		t.Fatal("request save blocked while writing")
	}

	close(release)
	require.Eventually(func() bool { return s.State() == debounce.StateIdle }, waitFor, tick)

	time.Sleep(3 * shortDelay)
	assert.Equal([][]string{{"first"}}, rec.get())

	// Once idle, requests are accepted again.
	assert.True(s.RequestSave([]string{"third"}))
	assert.NoError(s.Flush(context.Background()))
}

func TestStoreFlush(t *testing.T) {
	tests := map[string]struct {
		requests  [][]string
		writeErr  error
		expWrites [][]string
		expErr    bool
	}{
		"Flushing without pending snapshot should not write.": {
			expWrites: nil,
		},
		"Flushing should write the latest snapshot right away.": {
			requests:  [][]string{{"a"}, {"b"}},
			expWrites: [][]string{{"b"}},
		},
		"Flushing should report write errors.": {
			requests:  [][]string{{"a"}},
			writeErr:  errors.New("disk full"),
			expWrites: [][]string{{"a"}},
			expErr:    true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			rec := &recorder{err: test.writeErr}
			s := newStore(t, time.Hour, rec.write)
			for _, r := range test.requests {
				s.RequestSave(r)
			}

			err := s.Flush(context.Background())
			if test.expErr {
				assert.Error(err)
			} else {
				assert.NoError(err)
			}
			assert.Equal(test.expWrites, rec.get())
			assert.Equal(debounce.StateIdle, s.State())

			// A second flush has nothing left to write.
			assert.NoError(s.Flush(context.Background()))
			assert.Equal(test.expWrites, rec.get())
		})
	}
}

func TestStoreFlushCancelsTimer(t *testing.T) {
	rec := &recorder{}
	s := newStore(t, shortDelay, rec.write)

	s.RequestSave([]string{"a"})
	require.NoError(t, s.Flush(context.Background()))

	time.Sleep(3 * shortDelay)
	assert.Equal(t, [][]string{{"a"}}, rec.get())
}

func TestStoreFlushWaitsInFlightWrite(t *testing.T) {
	var once sync.Once
	started := make(chan struct{})
	release := make(chan struct{})
	rec := &recorder{}
	s := newStore(t, shortDelay, func(ctx context.Context, snap []string) error {
		once.Do(func() { close(started) })
		<-release
		return rec.write(ctx, snap)
	})

	s.RequestSave([]string{"a"})
	<-started

	flushed := make(chan error)
	go func() { flushed <- s.Flush(context.Background()) }()

	select {
	case <-flushed:
		t.Fatal("flush returned before the in flight write finished")
	case <-time.After(3 * shortDelay):
	}

	close(release)
	select {
	case err := <-flushed:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("flush didn't return")
	}
	assert.Equal(t, [][]string{{"a"}}, rec.get())
}

func TestStoreSnapshotIsIsolated(t *testing.T) {
	rec := &recorder{}
	s := newStore(t, time.Hour, rec.write)

	snap := []string{"a", "b"}
	s.RequestSave(snap)
	snap[0] = "mutated"

	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, [][]string{{"a", "b"}}, rec.get())
}

func TestStoreTimerWriteErrorReturnsToIdle(t *testing.T) {
	rec := &recorder{err: errors.New("boom")}
	s := newStore(t, shortDelay, rec.write)

	s.RequestSave([]string{"a"})
	require.Eventually(t, func() bool { return len(rec.get()) == 1 }, waitFor, tick)
	require.Eventually(t, func() bool { return s.State() == debounce.StateIdle }, waitFor, tick)

	// The next request retries.
	assert.True(t, s.RequestSave([]string{"b"}))
	require.Eventually(t, func() bool { return len(rec.get()) == 2 }, waitFor, tick)
}
