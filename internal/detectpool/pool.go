// Package detectpool bounds concurrent use of a non-reentrant detector
// behind a fixed-size pool: N instances, leased exclusively and returned on
// every exit path.
package detectpool

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Detector is one opaque, non-reentrant detection backend. A leased
// Detector is owned exclusively by its lease-holder until Release.
type Detector interface {
	// Detect runs one detection pass on an already-encoded image (JPEG
	// bytes), with the caller's chosen input dimensions.
	Detect(ctx context.Context, image []byte, width, height int) ([]RawDetection, error)
}

// RawDetection is what a detector hands back before coordinate inversion:
// a box in the (possibly scaled) image the detector actually saw.
type RawDetection struct {
	X, Y, W, H float64
	Score      float64
}

// Handle is an exclusively-owned lease on one Detector. The zero Handle is
// not valid; only values returned by Pool.Lease may be released.
type Handle struct {
	pool *Pool
	slot int
	det  Detector
}

// Detector returns the leased detector instance.
func (h Handle) Detector() Detector { return h.det }

// Pool owns a fixed set of Detector instances and gates concurrent access
// to them with a counting semaphore plus a mutex-protected free list,
// generalized from "one entry per camera" to "N identical entries."
type Pool struct {
	sem  *semaphore.Weighted
	mu   sync.Mutex
	free []int          // indices into all, currently available
	all  []Detector
	size int
}

// DefaultSize returns max(2, logical CPU count), the default pool size.
func DefaultSize() int {
	if n := runtime.NumCPU(); n > 2 {
		return n
	}
	return 2
}

// New builds a pool backed by the given detector instances; its size N is
// len(detectors). Instances are never created or destroyed after this call
// (the fixed-set invariant).
func New(detectors []Detector) *Pool {
	n := len(detectors)
	free := make([]int, n)
	for i := range free {
		free[i] = i
	}
	return &Pool{
		sem:  semaphore.NewWeighted(int64(n)),
		free: free,
		all:  detectors,
		size: n,
	}
}

// Size returns N, the fixed pool size.
func (p *Pool) Size() int { return p.size }

// Lease blocks until a detector is available, then returns an exclusively
// owned handle. The caller must call Release exactly once, on every exit
// path including error paths.
func (p *Pool) Lease(ctx context.Context) (Handle, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return Handle{}, fmt.Errorf("detectpool: acquire: %w", err)
	}

	p.mu.Lock()
	n := len(p.free)
	if n == 0 {
		p.mu.Unlock()
		p.sem.Release(1)
		return Handle{}, fmt.Errorf("detectpool: semaphore admitted a lease with no free detector (invariant violated)")
	}
	slot := p.free[n-1]
	p.free = p.free[:n-1]
	det := p.all[slot]
	p.mu.Unlock()

	return Handle{pool: p, slot: slot, det: det}, nil
}

// Release returns a leased detector to the pool. Releasing a Handle more
// than once, or one not obtained from this pool, is a programming error.
func (p *Pool) Release(h Handle) {
	if h.pool != p {
		panic("detectpool: release of a handle from a different pool")
	}
	p.mu.Lock()
	p.free = append(p.free, h.slot)
	p.mu.Unlock()
	p.sem.Release(1)
}

// Outstanding reports the number of leases currently checked out. Intended
// for tests verifying the bounded-concurrency invariant, not hot-path use.
func (p *Pool) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size - len(p.free)
}
