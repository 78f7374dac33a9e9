package flow

// TCP flag bits, packed in the canonical order CWR|ECE|URG|ACK|PSH|RST|SYN|FIN
// with FIN in the low bit, matching the wire order used throughout capture
// and feature extraction.
const (
	FlagFIN uint8 = 1 << 0
	FlagSYN uint8 = 1 << 1
	FlagRST uint8 = 1 << 2
	FlagPSH uint8 = 1 << 3
	FlagACK uint8 = 1 << 4
	FlagURG uint8 = 1 << 5
	FlagECE uint8 = 1 << 6
	FlagCWR uint8 = 1 << 7
)

// Packet is a single decoded TCP/IPv4 packet, reduced to the fields the
// flow engine needs. SrcIP/SrcPort are the packet's own endpoint, kept
// separately from Key so direction can be derived per packet even after
// the key has been canonicalized.
type Packet struct {
	TimestampMicros uint64
	Key             Key
	SrcIP           uint32
	SrcPort         uint16
	TotalLen        uint32
	PayloadLen      uint32
	HeaderLen       uint32
	TCPFlags        uint8
	WindowSize      uint16
}

func (p Packet) Direction() Direction {
	return DirectionOf(p.Key, p.SrcIP, p.SrcPort)
}

func (p Packet) HasFlag(flag uint8) bool {
	return p.TCPFlags&flag != 0
}
