package preview

import (
	"sync"

	"github.com/google/uuid"
)

// Status is the lifecycle of one preview request.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusReady     Status = "ready"
	StatusStale     Status = "stale"
	StatusCancelled Status = "cancelled"
)

// Handle is the caller's view of a preview request. Progress, cancellation,
// and staleness are observed here asynchronously; the coordinating thread is
// never blocked.
type Handle struct {
	id         string
	quality    int
	generation uint64

	mu       sync.Mutex
	status   Status
	produced int
	total    int

	cancelled chan struct{}
	done      chan struct{}
	once      sync.Once
	doneOnce  sync.Once
}

func newHandle(quality int, generation uint64, total int) *Handle {
	return &Handle{
		id:         uuid.NewString(),
		quality:    quality,
		generation: generation,
		status:     StatusIdle,
		total:      total,
		cancelled:  make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// ID returns the request identifier.
func (h *Handle) ID() string { return h.id }

// Quality returns the requested quality level.
func (h *Handle) Quality() int { return h.quality }

// Generation returns the model generation captured at request time.
func (h *Handle) Generation() uint64 { return h.generation }

// Status returns the current lifecycle state.
func (h *Handle) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Progress returns produced and total frame counts.
func (h *Handle) Progress() (produced, total int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.produced, h.total
}

// Cancel requests a cooperative stop. Frames already cached stay cached.
func (h *Handle) Cancel() {
	h.once.Do(func() { close(h.cancelled) })
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.status == StatusLoading || h.status == StatusIdle {
		h.status = StatusCancelled
	}
}

// Done is closed once background production has fully stopped, whatever the
// terminal status.
func (h *Handle) Done() <-chan struct{} { return h.done }

func (h *Handle) isCancelled() bool {
	select {
	case <-h.cancelled:
		return true
	default:
		return false
	}
}

func (h *Handle) startLoading() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.status == StatusIdle {
		h.status = StatusLoading
	}
}

func (h *Handle) frameProduced() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.produced++
}

// markStale flips the handle when the model has moved on. A stale preview
// never silently returns to ready; the caller must issue a new request.
func (h *Handle) markStale() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.status == StatusReady || h.status == StatusLoading {
		h.status = StatusStale
	}
}

func (h *Handle) finish() {
	h.mu.Lock()
	if h.status == StatusLoading {
		h.status = StatusReady
	}
	h.mu.Unlock()
	h.doneOnce.Do(func() { close(h.done) })
}
