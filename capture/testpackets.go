package capture

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// TCPFlags is a plain set of flag toggles for synthesizing test packets;
// it avoids spreading eight positional bools across call sites.
type TCPFlags struct {
	SYN, ACK, FIN, RST, PSH, URG, ECE, CWR bool
}

// CreatePacket builds an ACK data segment with sequence number 0.
func CreatePacket(src, dst net.IP, srcPort, dstPort int, payload []byte) gopacket.Packet {
	return CreatePacketWithSeq(src, dst, srcPort, dstPort, payload, 0)
}

func createPacketLayers(src, dst net.IP, srcPort, dstPort int, seq uint32) (*layers.Ethernet, *layers.IPv4, *layers.TCP) {
	ethernetLayer := &layers.Ethernet{
		EthernetType: layers.EthernetTypeIPv4,
		SrcMAC:       net.HardwareAddr{0xFF, 0xAA, 0xFA, 0xAA, 0xFF, 0xAA},
		DstMAC:       net.HardwareAddr{0xBD, 0xBD, 0xBD, 0xBD, 0xBD, 0xBD},
	}
	ipLayer := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    src,
		DstIP:    dst,
	}
	tcpLayer := &layers.TCP{
		SrcPort: layers.TCPPort(srcPort),
		DstPort: layers.TCPPort(dstPort),
		Window:  65535,
		Seq:     seq,
	}
	return ethernetLayer, ipLayer, tcpLayer
}

// CreateTCPSYN builds an initial SYN segment.
func CreateTCPSYN(src, dst net.IP, srcPort, dstPort int, seq uint32) gopacket.Packet {
	return CreateTCPWithFlags(src, dst, srcPort, dstPort, seq, nil, TCPFlags{SYN: true})
}

// CreateTCPSYNAndACK builds a SYN+ACK segment.
func CreateTCPSYNAndACK(src, dst net.IP, srcPort, dstPort int, seq uint32) gopacket.Packet {
	return CreateTCPWithFlags(src, dst, srcPort, dstPort, seq, nil, TCPFlags{SYN: true, ACK: true})
}

// CreateTCPFIN builds a FIN+ACK segment, as sent to close a connection.
func CreateTCPFIN(src, dst net.IP, srcPort, dstPort int, seq uint32) gopacket.Packet {
	return CreateTCPWithFlags(src, dst, srcPort, dstPort, seq, nil, TCPFlags{FIN: true, ACK: true})
}

// CreatePacketWithSeq builds a plain ACK data segment carrying payload.
func CreatePacketWithSeq(src, dst net.IP, srcPort, dstPort int, payload []byte, seq uint32) gopacket.Packet {
	return CreateTCPWithFlags(src, dst, srcPort, dstPort, seq, payload, TCPFlags{ACK: true})
}

// CreateTCPWithFlags builds a fully-controlled TCP/IPv4 test packet.
func CreateTCPWithFlags(src, dst net.IP, srcPort, dstPort int, seq uint32, payload []byte, flags TCPFlags) gopacket.Packet {
	ethernetLayer, ipLayer, tcpLayer := createPacketLayers(src, dst, srcPort, dstPort, seq)
	tcpLayer.SYN = flags.SYN
	tcpLayer.ACK = flags.ACK
	tcpLayer.FIN = flags.FIN
	tcpLayer.RST = flags.RST
	tcpLayer.PSH = flags.PSH
	tcpLayer.URG = flags.URG
	tcpLayer.ECE = flags.ECE
	tcpLayer.CWR = flags.CWR
	_ = tcpLayer.SetNetworkLayerForChecksum(ipLayer)

	buffer := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	layerSlice := []gopacket.SerializableLayer{ethernetLayer, ipLayer, tcpLayer}
	if len(payload) > 0 {
		layerSlice = append(layerSlice, gopacket.Payload(payload))
	}
	_ = gopacket.SerializeLayers(buffer, opts, layerSlice...)
	return gopacket.NewPacket(buffer.Bytes(), layers.LayerTypeEthernet, gopacket.Default)
}

// CreateUDPPacket builds a UDP packet, used to exercise the non-TCP drop path.
func CreateUDPPacket(src, dst net.IP, srcPort, dstPort int, payload []byte) gopacket.Packet {
	ethernetLayer := &layers.Ethernet{
		EthernetType: layers.EthernetTypeIPv4,
		SrcMAC:       net.HardwareAddr{0xFF, 0xAA, 0xFA, 0xAA, 0xFF, 0xAA},
		DstMAC:       net.HardwareAddr{0xBD, 0xBD, 0xBD, 0xBD, 0xBD, 0xBD},
	}
	ipLayer := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    src,
		DstIP:    dst,
	}
	udpLayer := &layers.UDP{
		SrcPort: layers.UDPPort(srcPort),
		DstPort: layers.UDPPort(dstPort),
	}
	_ = udpLayer.SetNetworkLayerForChecksum(ipLayer)

	buffer := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	_ = gopacket.SerializeLayers(buffer, opts,
		ethernetLayer,
		ipLayer,
		udpLayer,
		gopacket.Payload(payload),
	)
	return gopacket.NewPacket(buffer.Bytes(), layers.LayerTypeEthernet, gopacket.Default)
}
