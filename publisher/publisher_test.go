package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/alonsoveliz1/layton/engine"
)

func TestPublisherCoalescesToLatest(t *testing.T) {
	in := make(chan engine.Stats, 8)
	p := New(in)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	in <- engine.Stats{TotalPackets: 1}
	in <- engine.Stats{TotalPackets: 2}
	in <- engine.Stats{TotalPackets: 3}

	select {
	case s := <-p.Out():
		if s.TotalPackets != 3 {
			t.Fatalf("expected coalesced value 3, got %d", s.TotalPackets)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for first emission")
	}
}

func TestPublisherEmitsNothingBeforeFirstUpdate(t *testing.T) {
	in := make(chan engine.Stats)
	p := New(in)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	select {
	case s := <-p.Out():
		t.Fatalf("expected no emission before any stats arrived, got %+v", s)
	case <-time.After(300 * time.Millisecond):
	}
}
