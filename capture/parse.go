package capture

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/alonsoveliz1/layton/flow"
)

// Parse decodes a captured packet into a flow.Packet. Only IPv4/TCP
// packets are understood; everything else (IPv6, UDP, ARP, malformed
// frames) is silently dropped, returning ok=false.
func Parse(gp gopacket.Packet) (flow.Packet, bool) {
	ipLayer := gp.Layer(layers.LayerTypeIPv4)
	tcpLayer := gp.Layer(layers.LayerTypeTCP)
	if ipLayer == nil || tcpLayer == nil {
		return flow.Packet{}, false
	}

	ip, ok := ipLayer.(*layers.IPv4)
	if !ok {
		return flow.Packet{}, false
	}
	tcp, ok := tcpLayer.(*layers.TCP)
	if !ok {
		return flow.Packet{}, false
	}

	var ts uint64
	if md := gp.Metadata(); md != nil {
		ts = uint64(md.Timestamp.UnixMicro())
	}

	srcIP := ipToUint32(ip.SrcIP)
	dstIP := ipToUint32(ip.DstIP)
	srcPort := uint16(tcp.SrcPort)
	dstPort := uint16(tcp.DstPort)

	ipHeaderLen := uint32(ip.IHL) * 4
	tcpHeaderLen := uint32(tcp.DataOffset) * 4
	headerLen := ethernetHeaderLen + ipHeaderLen + tcpHeaderLen

	payloadLen := uint32(len(tcp.Payload))
	totalLen := uint32(len(gp.Data()))

	return flow.Packet{
		TimestampMicros: ts,
		Key:             flow.NewKey(srcIP, dstIP, srcPort, dstPort, 6),
		SrcIP:           srcIP,
		SrcPort:         srcPort,
		TotalLen:        totalLen,
		PayloadLen:      payloadLen,
		HeaderLen:       headerLen,
		TCPFlags:        packTCPFlags(tcp),
		WindowSize:      tcp.Window,
	}, true
}

const ethernetHeaderLen = 14

func packTCPFlags(tcp *layers.TCP) uint8 {
	var f uint8
	if tcp.FIN {
		f |= flow.FlagFIN
	}
	if tcp.SYN {
		f |= flow.FlagSYN
	}
	if tcp.RST {
		f |= flow.FlagRST
	}
	if tcp.PSH {
		f |= flow.FlagPSH
	}
	if tcp.ACK {
		f |= flow.FlagACK
	}
	if tcp.URG {
		f |= flow.FlagURG
	}
	if tcp.ECE {
		f |= flow.FlagECE
	}
	if tcp.CWR {
		f |= flow.FlagCWR
	}
	return f
}

func ipToUint32(ip4 []byte) uint32 {
	ip := ip4
	if len(ip) == 16 {
		ip = ip[12:]
	}
	if len(ip) != 4 {
		return 0
	}
	return uint32(ip[0])<<24 | uint32(ip[1])<<16 | uint32(ip[2])<<8 | uint32(ip[3])
}
