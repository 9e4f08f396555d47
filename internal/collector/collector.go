// Package collector runs the background loop that drains audio chunks
// from a capture stream into memory while a recording is in progress.
package collector

import (
	"sync"
	"time"

	"github.com/hikarij/voxcapture/internal/logger"
	"github.com/hikarij/voxcapture/internal/stream"
)

// joinTimeout bounds how long Stop waits for the loop goroutine. The
// blocking read can hold the goroutine for up to one chunk duration, so
// the bound must stay comfortably above that.
const joinTimeout = 1 * time.Second

// defaultQueueCapacity is the chunk queue depth between the read loop
// and the consumer callback.
const defaultQueueCapacity = 64

// Source delivers capture chunks. stream.Manager bound to one handle is
// the production implementation; tests substitute fakes.
type Source interface {
	ReadChunk() ([]int16, error)
}

// SourceFunc adapts a plain function to the Source interface
type SourceFunc func() ([]int16, error)

func (f SourceFunc) ReadChunk() ([]int16, error) { return f() }

// StreamSource binds a stream manager and handle into a Source
func StreamSource(m stream.Manager, h stream.Handle) Source {
	return SourceFunc(func() ([]int16, error) {
		return m.Read(h)
	})
}

// Config controls a collector run
type Config struct {
	// QueueCapacity is the buffered chunk queue depth. Zero means the
	// default.
	QueueCapacity int

	// OnChunk receives every collected chunk in arrival order. Called
	// from the consumer goroutine, never concurrently with itself.
	OnChunk func(chunk []int16)

	// OnError receives read failures. Temporary errors (input overflow)
	// do not terminate the loop; any other error does.
	OnError func(err error)
}

// Collector drains a Source on a dedicated goroutine until stopped
type Collector struct {
	source Source
	config Config
	log    *logger.Logger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}

	chunks  [][]int16
	dropped int
}

// New creates a collector for the source
func New(source Source, config Config, log *logger.Logger) *Collector {
	if config.QueueCapacity <= 0 {
		config.QueueCapacity = defaultQueueCapacity
	}
	return &Collector{source: source, config: config, log: log}
}

// Start launches the collection loop. Starting a running collector is a
// no-op. A stopped collector can be started again and keeps accumulating
// into the same buffer, so a paused capture resumes where it left off.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return
	}
	c.running = true
	c.stop = make(chan struct{})
	c.done = make(chan struct{})

	queue := make(chan []int16, c.config.QueueCapacity)
	go c.readLoop(queue, c.stop)
	go c.consumeLoop(queue, c.done)
}

// readLoop pulls chunks from the source and hands them to the consumer.
// A full queue drops the chunk rather than blocking the capture read. The
// stop channel is passed in so a goroutine abandoned by a timed-out Stop
// never observes a later run's channel.
func (c *Collector) readLoop(queue chan<- []int16, stop <-chan struct{}) {
	defer close(queue)

	for {
		select {
		case <-stop:
			return
		default:
		}

		chunk, err := c.source.ReadChunk()
		if err != nil {
			if c.config.OnError != nil {
				c.config.OnError(err)
			}
			if stream.IsTemporary(err) {
				// Overflow still delivered a chunk; keep it and go on.
			} else {
				return
			}
		}
		if chunk == nil {
			continue
		}

		select {
		case queue <- chunk:
		default:
			c.mu.Lock()
			c.dropped++
			n := c.dropped
			c.mu.Unlock()
			if c.log != nil {
				c.log.Warn("chunk queue full, dropped chunk (%d total)", n)
			}
		}
	}
}

func (c *Collector) consumeLoop(queue <-chan []int16, done chan<- struct{}) {
	defer close(done)

	for chunk := range queue {
		c.mu.Lock()
		c.chunks = append(c.chunks, chunk)
		c.mu.Unlock()

		if c.config.OnChunk != nil {
			c.config.OnChunk(chunk)
		}
	}
}

// Stop signals the loop and waits up to the join timeout for it to
// finish. A loop stuck past the timeout is abandoned with a warning; the
// chunks collected so far remain valid either way.
func (c *Collector) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	stop := c.stop
	done := c.done
	c.mu.Unlock()

	close(stop)

	select {
	case <-done:
	case <-time.After(joinTimeout):
		if c.log != nil {
			c.log.Warn("collector did not stop within %v, abandoning goroutine", joinTimeout)
		}
	}
}

// Running reports whether the loop is active
func (c *Collector) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Chunks returns the collected chunks in arrival order. The returned
// slice is a snapshot; the collector keeps appending if still running.
func (c *Collector) Chunks() [][]int16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]int16, len(c.chunks))
	copy(out, c.chunks)
	return out
}

// Dropped returns how many chunks were discarded due to queue pressure
func (c *Collector) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}
