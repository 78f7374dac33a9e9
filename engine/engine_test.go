package engine

import (
	"context"
	"testing"
	"time"

	"github.com/alonsoveliz1/layton/flow"
)

const (
	cli = 0x0A000001
	srv = 0x0A000002
	cp  = 51000
	sp  = 443
)

func pkt(ts uint64, srcIP uint32, srcPort uint16, flags uint8, payload uint32) flow.Packet {
	key := flow.NewKey(cli, srv, cp, sp, 6)
	return flow.Packet{
		TimestampMicros: ts,
		Key:             key,
		SrcIP:           srcIP,
		SrcPort:         srcPort,
		TotalLen:        payload + 40,
		PayloadLen:      payload,
		HeaderLen:       40,
		TCPFlags:        flags,
		WindowSize:      65535,
	}
}

func TestEngineEmitsFlowOnFIN(t *testing.T) {
	in := make(chan flow.Packet, 8)
	e := New(in)

	ctx, cancel := context.WithCancel(context.Background())
	go e.Run(ctx)

	in <- pkt(1_000_000, cli, cp, flow.FlagSYN, 0)
	in <- pkt(1_000_100, srv, sp, flow.FlagSYN|flow.FlagACK, 0)
	in <- pkt(1_000_200, cli, cp, flow.FlagACK, 0)
	in <- pkt(1_000_300, cli, cp, flow.FlagFIN|flow.FlagACK, 0)

	select {
	case r := <-e.Done():
		if r.Status != flow.StatusClosed {
			t.Fatalf("expected closed status, got %v", r.Status)
		}
		if r.TotalFwdPackets != 3 {
			t.Fatalf("expected 3 forward packets, got %d", r.TotalFwdPackets)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for flow to close")
	}

	cancel()
}

func TestEngineTracksActiveFlowCount(t *testing.T) {
	in := make(chan flow.Packet, 8)
	e := New(in)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	in <- pkt(1_000_000, cli, cp, flow.FlagSYN, 0)
	in <- pkt(1_000_100, srv, sp, flow.FlagSYN|flow.FlagACK, 0)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if e.ActiveFlowCount() == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected exactly one active flow, got %d", e.ActiveFlowCount())
}

func TestEngineSweepExpiresStaleFlow(t *testing.T) {
	in := make(chan flow.Packet, 8)
	e := New(in)

	in <- pkt(1_000_000, cli, cp, flow.FlagSYN, 0)
	e.ingest(<-in)

	if e.ActiveFlowCount() != 1 {
		t.Fatalf("expected flow to be tracked before sweep")
	}

	farFuture := uint64(1_000_000) + flow.TimeoutMicros + 1
	e.sweepExpired(farFuture)

	if e.ActiveFlowCount() != 0 {
		t.Fatalf("expected stale flow to be evicted by sweep")
	}

	select {
	case r := <-e.Done():
		if r.Status != flow.StatusExpired {
			t.Fatalf("expected expired status, got %v", r.Status)
		}
	default:
		t.Fatal("expected expired flow to be emitted on done channel")
	}
}

func TestEngineStatsReflectThroughput(t *testing.T) {
	in := make(chan flow.Packet, 8)
	e := New(in)

	e.ingest(pkt(1_000_000, cli, cp, flow.FlagSYN, 0))
	e.ingest(pkt(1_000_100, srv, sp, flow.FlagSYN|flow.FlagACK, 0))
	e.ingest(pkt(1_000_200, cli, cp, flow.FlagACK|flow.FlagPSH, 1000))

	e.recomputeStats()
	s := e.Stats()

	if s.TotalPackets != 3 {
		t.Fatalf("expected 3 total packets, got %d", s.TotalPackets)
	}
	if s.TotalBytes != 1000 {
		t.Fatalf("expected 1000 total bytes, got %d", s.TotalBytes)
	}
	if s.FlowCount != 1 {
		t.Fatalf("expected 1 active flow, got %d", s.FlowCount)
	}
	if s.PacketsPerSec <= 0 || s.BytesPerSec <= 0 {
		t.Fatalf("expected positive rates, got pps=%f bps=%f", s.PacketsPerSec, s.BytesPerSec)
	}

	e.recomputeStats()
	s2 := e.Stats()
	if s2.PacketsPerSec != 0 {
		t.Fatalf("expected rate to reset to 0 after a quiet period, got %f", s2.PacketsPerSec)
	}
}
