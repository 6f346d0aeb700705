package analyzer

import (
	"context"
	"testing"
)

func TestRound1(t *testing.T) {
	cases := map[float64]float64{
		33.333333: 33.3,
		66.666666: 66.7,
		0:         0,
		100:       100,
		12.34:     12.3,
		12.36:     12.4,
	}
	for in, want := range cases {
		if got := round1(in); got != want {
			t.Errorf("round1(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestSend_DeliversWhenConsumerReady(t *testing.T) {
	ctx := context.Background()
	out := make(chan Record, 1)

	if !send(ctx, out, Record{Type: RecordProgress, Progress: 50}) {
		t.Fatal("send returned false with an open context and buffered channel")
	}
	rec := <-out
	if rec.Progress != 50 {
		t.Fatalf("received progress %v, want 50", rec.Progress)
	}
}

func TestSend_AbortsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := make(chan Record) // unbuffered and never drained

	if send(ctx, out, Record{Type: RecordProgress}) {
		t.Fatal("send returned true despite an already-cancelled context")
	}
}
