package capture

import (
	"net"
	"testing"

	"github.com/alonsoveliz1/layton/flow"
)

func TestParseTCPSYNExtractsFlagsAndKey(t *testing.T) {
	src := net.IPv4(10, 0, 0, 1)
	dst := net.IPv4(10, 0, 0, 2)

	gp := CreateTCPSYN(src, dst, 51000, 443, 1)
	pkt, ok := Parse(gp)
	if !ok {
		t.Fatalf("expected TCP SYN packet to parse")
	}
	if !pkt.HasFlag(flow.FlagSYN) {
		t.Fatalf("expected SYN flag set, got flags=%08b", pkt.TCPFlags)
	}
	if pkt.HasFlag(flow.FlagACK) {
		t.Fatalf("expected ACK flag unset, got flags=%08b", pkt.TCPFlags)
	}
	if pkt.SrcPort != 51000 {
		t.Fatalf("expected source port 51000, got %d", pkt.SrcPort)
	}
}

func TestParseDropsNonTCPPackets(t *testing.T) {
	src := net.IPv4(10, 0, 0, 1)
	dst := net.IPv4(10, 0, 0, 2)

	gp := CreateUDPPacket(src, dst, 5353, 5353, []byte("hello"))
	_, ok := Parse(gp)
	if ok {
		t.Fatalf("expected UDP packet to be dropped")
	}
}

func TestParsePayloadLengthExcludesHeaders(t *testing.T) {
	src := net.IPv4(10, 0, 0, 1)
	dst := net.IPv4(10, 0, 0, 2)
	payload := []byte("hello world")

	gp := CreatePacketWithSeq(src, dst, 51000, 443, payload, 1)
	pkt, ok := Parse(gp)
	if !ok {
		t.Fatalf("expected TCP packet with payload to parse")
	}
	if int(pkt.PayloadLen) != len(payload) {
		t.Fatalf("expected payload length %d, got %d", len(payload), pkt.PayloadLen)
	}
	if pkt.TotalLen <= pkt.PayloadLen {
		t.Fatalf("expected total length to include headers")
	}
}
