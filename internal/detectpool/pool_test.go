package detectpool

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeDetector struct{}

func (fakeDetector) Detect(ctx context.Context, image []byte, w, h int) ([]RawDetection, error) {
	return nil, nil
}

func newTestPool(n int) *Pool {
	dets := make([]Detector, n)
	for i := range dets {
		dets[i] = fakeDetector{}
	}
	return New(dets)
}

func TestPool_ConservesDetectors(t *testing.T) {
	p := newTestPool(4)
	ctx := context.Background()

	for round := 0; round < 3; round++ {
		handles := make([]Handle, 0, p.Size())
		for i := 0; i < p.Size(); i++ {
			h, err := p.Lease(ctx)
			if err != nil {
				t.Fatalf("lease %d: %v", i, err)
			}
			handles = append(handles, h)
		}
		for _, h := range handles {
			p.Release(h)
		}
	}

	if got := p.Outstanding(); got != 0 {
		t.Fatalf("after release, outstanding = %d, want 0", got)
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	const n = 3
	p := newTestPool(n)
	ctx := context.Background()

	var mu sync.Mutex
	maxSeen := 0
	var wg sync.WaitGroup

	for i := 0; i < n*4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := p.Lease(ctx)
			if err != nil {
				t.Errorf("lease: %v", err)
				return
			}
			mu.Lock()
			if out := p.Outstanding(); out > maxSeen {
				maxSeen = out
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			p.Release(h)
		}()
	}
	wg.Wait()

	if maxSeen > n {
		t.Fatalf("observed %d outstanding leases, want <= %d", maxSeen, n)
	}
	if got := p.Outstanding(); got != 0 {
		t.Fatalf("after all releases, outstanding = %d, want 0", got)
	}
}

func TestPool_NPlus1thLeaseBlocksUntilRelease(t *testing.T) {
	p := newTestPool(2)
	ctx := context.Background()

	h1, err := p.Lease(ctx)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := p.Lease(ctx)
	if err != nil {
		t.Fatal(err)
	}

	leased := make(chan Handle, 1)
	go func() {
		h, err := p.Lease(ctx)
		if err != nil {
			t.Error(err)
			return
		}
		leased <- h
	}()

	select {
	case <-leased:
		t.Fatal("third lease returned before any release")
	case <-time.After(30 * time.Millisecond):
	}

	p.Release(h1)

	select {
	case h3 := <-leased:
		p.Release(h3)
	case <-time.After(time.Second):
		t.Fatal("third lease never unblocked after release")
	}

	p.Release(h2)

	if got := p.Outstanding(); got != 0 {
		t.Fatalf("outstanding = %d, want 0", got)
	}
}
