package flow

import "testing"

func pkt(ts uint64, srcIP, dstIP uint32, srcPort, dstPort uint16, total, payload, header uint32, flags uint8, win uint16) Packet {
	return Packet{
		TimestampMicros: ts,
		Key:             NewKey(srcIP, dstIP, srcPort, dstPort, 6),
		SrcIP:           srcIP,
		SrcPort:         srcPort,
		TotalLen:        total,
		PayloadLen:      payload,
		HeaderLen:       header,
		TCPFlags:        flags,
		WindowSize:      win,
	}
}

const (
	cli  = 0x0A000001 // 10.0.0.1
	srv  = 0x0A000002 // 10.0.0.2
	cp   = 51000
	sp   = 443
)

func TestHandshakeAndFINCountsPerDirection(t *testing.T) {
	base := uint64(10_000_000)

	p1 := pkt(base, cli, srv, cp, sp, 60, 0, 40, FlagSYN, 65535)
	r := New(p1)

	r.Update(pkt(base+1000, srv, cli, sp, cp, 60, 0, 40, FlagSYN|FlagACK, 65535))
	r.Update(pkt(base+2000, cli, srv, cp, sp, 52, 0, 40, FlagACK, 65535))
	r.Update(pkt(base+3000, cli, srv, cp, sp, 152, 100, 40, FlagACK|FlagPSH, 65535))
	r.Update(pkt(base+4000, srv, cli, sp, cp, 52, 0, 40, FlagACK, 65535))
	last := pkt(base+5000, cli, srv, cp, sp, 52, 0, 40, FlagFIN|FlagACK, 65535)
	r.Update(last)

	if r.TotalFwdPackets != 4 {
		t.Fatalf("expected 4 forward packets, got %d", r.TotalFwdPackets)
	}
	if r.TotalBwdPackets != 2 {
		t.Fatalf("expected 2 backward packets, got %d", r.TotalBwdPackets)
	}
	if r.FINFlagCount != 1 || r.SYNFlagCount != 2 || r.ACKFlagCount != 5 {
		t.Fatalf("unexpected flag counts: fin=%d syn=%d ack=%d", r.FINFlagCount, r.SYNFlagCount, r.ACKFlagCount)
	}
	if !r.ShouldTerminate(base+5000, last.HasFlag(FlagFIN)) {
		t.Fatalf("expected flow to terminate on FIN")
	}
}

// TestForwardIATMinMaxUsesDirectionSpecificGap guards against the two
// classic mistakes: using the flow-level gap in place of the
// forward-specific one, and computing max with min() a second time.
func TestForwardIATMinMaxUsesDirectionSpecificGap(t *testing.T) {
	base := uint64(10_000_000)

	r := New(pkt(base, cli, srv, cp, sp, 60, 0, 40, FlagSYN, 65535))
	r.Update(pkt(base+1000, cli, srv, cp, sp, 60, 0, 40, FlagACK, 65535))      // fwd gap 1000
	r.Update(pkt(base+1100, srv, cli, sp, cp, 60, 0, 40, FlagACK, 65535))      // backward, flow gap 100
	r.Update(pkt(base+9000, cli, srv, cp, sp, 60, 0, 40, FlagACK, 65535))      // fwd gap 8000, flow gap 7900
	r.Update(pkt(base+9100, cli, srv, cp, sp, 60, 0, 40, FlagACK, 65535))      // fwd gap 100

	if got := r.FwdIATMin(); got != 100 {
		t.Fatalf("expected forward IAT min 100, got %v", got)
	}
	if got := r.FwdIATMax(); got != 8000 {
		t.Fatalf("expected forward IAT max 8000, got %v", got)
	}
}

func TestActiveIdleTransitionCommitsBothPeriods(t *testing.T) {
	base := uint64(0)

	r := New(pkt(base, cli, srv, cp, sp, 60, 0, 40, FlagSYN, 65535))
	r.Update(pkt(base+2_000_000, cli, srv, cp, sp, 60, 0, 40, FlagACK, 65535))   // still active, 2s gap
	r.Update(pkt(base+9_000_000, cli, srv, cp, sp, 60, 0, 40, FlagACK, 65535))   // gap 7s > 5s timeout: commit active period
	r.Update(pkt(base+9_100_000, cli, srv, cp, sp, 60, 0, 40, FlagACK, 65535))   // resume: commit idle period

	if got := r.ActiveMean(); got != 2_000_000 {
		t.Fatalf("expected active mean 2_000_000, got %v", got)
	}
	if got := r.IdleMin(); got != 7_100_000 {
		t.Fatalf("expected idle duration 7_100_000, got %v", got)
	}
}

func TestForwardBulkCommitsOnDirectionChange(t *testing.T) {
	base := uint64(1_000_000)

	r := New(pkt(base, cli, srv, cp, sp, 1040, 1000, 40, FlagACK, 65535))
	r.Update(pkt(base+1000, cli, srv, cp, sp, 1040, 1000, 40, FlagACK, 65535))
	r.Update(pkt(base+2000, cli, srv, cp, sp, 1040, 1000, 40, FlagACK, 65535))
	r.Update(pkt(base+3000, cli, srv, cp, sp, 1040, 1000, 40, FlagACK, 65535))
	r.Update(pkt(base+4000, cli, srv, cp, sp, 1040, 1000, 40, FlagACK, 65535))
	r.Update(pkt(base+5000, srv, cli, sp, cp, 40, 0, 40, FlagACK, 65535)) // backward packet finalizes the forward bulk

	if r.NumFwdBulkTransmissions() != 1 {
		t.Fatalf("expected one forward bulk transmission, got %d", r.NumFwdBulkTransmissions())
	}
	if r.FwdBytesBulkAvg != 5000 {
		t.Fatalf("expected forward bulk byte avg 5000, got %v", r.FwdBytesBulkAvg)
	}
	if r.FwdPacketBulkAvg != 5 {
		t.Fatalf("expected forward bulk packet avg 5, got %v", r.FwdPacketBulkAvg)
	}
	if r.FwdBulkRateAvg <= 0 {
		t.Fatalf("expected a positive forward bulk rate, got %v", r.FwdBulkRateAvg)
	}
}

func TestSubflowTimeoutStartsNewSubflow(t *testing.T) {
	base := uint64(5_000_000)

	r := New(pkt(base, cli, srv, cp, sp, 100, 60, 40, FlagACK, 65535))
	r.Update(pkt(base+500_000, cli, srv, cp, sp, 100, 60, 40, FlagACK, 65535)) // within 1s: same subflow
	r.Update(pkt(base+2_000_000, cli, srv, cp, sp, 100, 60, 40, FlagACK, 65535)) // gap 1.5s: new subflow

	if r.TotalFwdSubflows != 1 {
		t.Fatalf("expected the 1.5s gap to start a new forward subflow, got %d", r.TotalFwdSubflows)
	}
	if r.SubflowFwdPackets != 1 {
		t.Fatalf("expected the new subflow to have reset its packet count, got %d", r.SubflowFwdPackets)
	}
}
