package frame

import (
	"sync"
	"time"
)

// Handle identifies a pending frame request. The zero Handle means "no request".
type Handle uint64

// A Host is the platform's frame-timing primitive. Requests are one-shot: the
// callback fires once on the next frame and must be requested again to keep going.
type Host interface {
	RequestFrame(fn func(timestamp time.Duration)) Handle
	CancelFrame(h Handle)
}

// requests is the pending-request table shared by the host implementations.
type requests struct {
	mu      sync.Mutex
	next    Handle
	order   []Handle
	pending map[Handle]func(time.Duration)
}

func (r *requests) add(fn func(time.Duration)) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending == nil {
		r.pending = make(map[Handle]func(time.Duration))
	}
	r.next++
	r.pending[r.next] = fn
	r.order = append(r.order, r.next)
	return r.next
}

func (r *requests) cancel(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pending[h]; !ok {
		return
	}
	delete(r.pending, h)
	for i, o := range r.order {
		if o == h {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

func (r *requests) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// fire runs every request pending at the time of the call. Requests added while
// firing wait for the next call, and a request cancelled by an earlier callback
// in the same frame does not run.
func (r *requests) fire(timestamp time.Duration) int {
	r.mu.Lock()
	batch := r.order
	r.order = nil
	r.mu.Unlock()

	fired := 0
	for _, h := range batch {
		r.mu.Lock()
		fn, ok := r.pending[h]
		delete(r.pending, h)
		r.mu.Unlock()

		if ok {
			fn(timestamp)
			fired++
		}
	}

	return fired
}
