package collector

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hikarij/voxcapture/internal/stream"
)

// fakeSource yields a fixed script of chunks/errors, then idles so the
// read loop can observe the stop signal between reads.
type fakeSource struct {
	mu     sync.Mutex
	script []step
	pos    int
}

type step struct {
	chunk []int16
	err   error
}

func newFakeSource(script ...step) *fakeSource {
	return &fakeSource{script: script}
}

func (f *fakeSource) ReadChunk() ([]int16, error) {
	f.mu.Lock()
	if f.pos < len(f.script) {
		s := f.script[f.pos]
		f.pos++
		f.mu.Unlock()
		return s.chunk, s.err
	}
	f.mu.Unlock()
	time.Sleep(time.Millisecond)
	return nil, nil
}

func (f *fakeSource) push(steps ...step) {
	f.mu.Lock()
	f.script = append(f.script, steps...)
	f.mu.Unlock()
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestCollectorGathersChunksInOrder(t *testing.T) {
	src := newFakeSource(
		step{chunk: []int16{1, 1}},
		step{chunk: []int16{2, 2}},
		step{chunk: []int16{3, 3}},
	)

	c := New(src, Config{}, nil)
	c.Start()

	waitFor(t, func() bool { return len(c.Chunks()) == 3 })
	c.Stop()

	chunks := c.Chunks()
	require.Len(t, chunks, 3)
	assert.Equal(t, []int16{1, 1}, chunks[0])
	assert.Equal(t, []int16{2, 2}, chunks[1])
	assert.Equal(t, []int16{3, 3}, chunks[2])
	assert.False(t, c.Running())
}

func TestCollectorOverflowContinues(t *testing.T) {
	overflow := &stream.Error{Op: "read", Err: &stream.OverflowError{}}
	src := newFakeSource(
		step{chunk: []int16{1}},
		step{chunk: []int16{2}, err: overflow},
		step{chunk: []int16{3}},
	)

	var errCount int
	var errMu sync.Mutex
	c := New(src, Config{
		OnError: func(err error) {
			errMu.Lock()
			errCount++
			errMu.Unlock()
		},
	}, nil)
	c.Start()

	waitFor(t, func() bool { return len(c.Chunks()) == 3 })
	c.Stop()

	// The overflowed chunk is kept and the loop keeps reading.
	assert.Len(t, c.Chunks(), 3)
	errMu.Lock()
	assert.Equal(t, 1, errCount)
	errMu.Unlock()
}

func TestCollectorFatalErrorTerminates(t *testing.T) {
	fatal := errors.New("device unplugged")
	src := newFakeSource(
		step{chunk: []int16{1}},
		step{err: fatal},
	)

	errs := make(chan error, 1)
	c := New(src, Config{
		OnError: func(err error) { errs <- err },
	}, nil)
	c.Start()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, fatal)
	case <-time.After(2 * time.Second):
		t.Fatal("error callback never fired")
	}

	waitFor(t, func() bool { return len(c.Chunks()) == 1 })
	c.Stop()
	assert.Len(t, c.Chunks(), 1)
}

func TestCollectorOnChunkCallback(t *testing.T) {
	src := newFakeSource(
		step{chunk: []int16{7}},
		step{chunk: []int16{8}},
	)

	var got [][]int16
	var mu sync.Mutex
	c := New(src, Config{
		OnChunk: func(chunk []int16) {
			mu.Lock()
			got = append(got, chunk)
			mu.Unlock()
		},
	}, nil)
	c.Start()

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	})
	c.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, [][]int16{{7}, {8}}, got)
}

func TestCollectorStopIdempotent(t *testing.T) {
	c := New(newFakeSource(), Config{}, nil)

	c.Start()
	c.Stop()
	c.Stop()

	assert.False(t, c.Running())
}

func TestCollectorAccumulatesAcrossRestart(t *testing.T) {
	src := newFakeSource(step{chunk: []int16{1}})
	c := New(src, Config{}, nil)

	c.Start()
	waitFor(t, func() bool { return len(c.Chunks()) == 1 })
	c.Stop()

	// A paused capture resumes into the same buffer.
	src.push(step{chunk: []int16{2}})
	c.Start()
	waitFor(t, func() bool { return len(c.Chunks()) == 2 })
	c.Stop()

	assert.Equal(t, [][]int16{{1}, {2}}, c.Chunks())
	assert.False(t, c.Running())
}

func TestCollectorNoReadsWhileStopped(t *testing.T) {
	src := newFakeSource(step{chunk: []int16{1}})
	c := New(src, Config{}, nil)

	c.Start()
	waitFor(t, func() bool { return len(c.Chunks()) == 1 })
	c.Stop()

	// A stopped collector must not touch the source again.
	src.mu.Lock()
	posAfterStop := src.pos
	src.mu.Unlock()

	time.Sleep(20 * time.Millisecond)

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Equal(t, posAfterStop, src.pos)
}
