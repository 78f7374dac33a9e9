// Package capture owns the live packet capture handle: opening an
// interface in promiscuous/immediate mode, applying the TCP BPF filter,
// and decoding each packet into a flow.Packet for the engine.
package capture

import (
	"fmt"
	"net"
	"time"

	"github.com/google/gopacket"
	_ "github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"github.com/pkg/errors"

	"github.com/alonsoveliz1/layton/flow"
	"github.com/alonsoveliz1/layton/printer"
	"github.com/alonsoveliz1/layton/telemetry"
)

const (
	// The same default as tcpdump.
	defaultSnapLen = 262144

	// immediateTimeout keeps packets from being buffered by the kernel
	// capture layer; we want per-packet latency low enough for the
	// classifier's threshold-based triage to be meaningful.
	immediateTimeout = 10 * time.Millisecond

	// bpfFilter restricts capture to TCP; the flow/feature pipeline has
	// no use for anything else.
	bpfFilter = "tcp"
)

type pcapWrapper interface {
	capturePackets(done <-chan struct{}, interfaceName string) (<-chan gopacket.Packet, error)
	getInterfaceAddrs(interfaceName string) ([]net.IP, error)
}

type pcapImpl struct{}

func (p *pcapImpl) capturePackets(done <-chan struct{}, interfaceName string) (<-chan gopacket.Packet, error) {
	inactive, err := pcap.NewInactiveHandle(interfaceName)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open pcap interface %s", interfaceName)
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(defaultSnapLen); err != nil {
		return nil, errors.Wrap(err, "failed to set snap length")
	}
	if err := inactive.SetPromisc(true); err != nil {
		return nil, errors.Wrap(err, "failed to enable promiscuous mode")
	}
	if err := inactive.SetImmediateMode(true); err != nil {
		return nil, errors.Wrap(err, "failed to enable immediate mode")
	}
	if err := inactive.SetTimeout(immediateTimeout); err != nil {
		return nil, errors.Wrap(err, "failed to set capture timeout")
	}

	handle, err := inactive.Activate()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to activate pcap handle on %s", interfaceName)
	}
	if err := handle.SetBPFFilter(bpfFilter); err != nil {
		handle.Close()
		return nil, errors.Wrap(err, "failed to set BPF filter")
	}

	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	pktChan := packetSource.Packets()

	wrappedChan := make(chan gopacket.Packet, 64)
	go func() {
		defer func() {
			close(wrappedChan)
			handle.Close()
		}()

		startTime := time.Now()
		count := 0
		for {
			select {
			case <-done:
				return
			case pkt, ok := <-pktChan:
				if !ok {
					return
				}
				select {
				case wrappedChan <- pkt:
				case <-done:
					return
				}
				if count == 0 {
					printer.Debugf("time to first packet on %s: %s\n", interfaceName, time.Since(startTime))
				}
				count++
			}
		}
	}()
	return wrappedChan, nil
}

func (p *pcapImpl) getInterfaceAddrs(interfaceName string) ([]net.IP, error) {
	iface, err := net.InterfaceByName(interfaceName)
	if err != nil {
		return nil, errors.Wrapf(err, "no network interface with name %s", interfaceName)
	}

	var hostIPs []net.IP
	addrs, err := iface.Addrs()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get addresses on interface %s", iface.Name)
	}
	for _, addr := range addrs {
		switch a := addr.(type) {
		case *net.IPNet:
			hostIPs = append(hostIPs, a.IP)
		default:
			printer.Warningf("ignoring host address of unknown type: %v\n", addr)
		}
	}
	return hostIPs, nil
}

// Source reads packets from a live interface and emits decoded
// flow.Packet values on the channel returned by Open. Call Close to stop
// capture and release the handle.
type Source struct {
	impl   pcapWrapper
	clock  clockWrapper
	done   chan struct{}
	closed bool
}

// Open starts live capture on the named interface.
func Open(interfaceName string) (*Source, <-chan flow.Packet, error) {
	return open(interfaceName, &pcapImpl{}, &realClock{})
}

func open(interfaceName string, impl pcapWrapper, clock clockWrapper) (*Source, <-chan flow.Packet, error) {
	done := make(chan struct{})
	raw, err := impl.capturePackets(done, interfaceName)
	if err != nil {
		close(done)
		return nil, nil, err
	}

	s := &Source{impl: impl, clock: clock, done: done}
	out := make(chan flow.Packet, 256)
	go s.decodeLoop(raw, out)
	return s, out, nil
}

func (s *Source) decodeLoop(raw <-chan gopacket.Packet, out chan<- flow.Packet) {
	defer close(out)
	for gp := range raw {
		parsed, ok := decodeOne(gp)
		if !ok {
			continue
		}
		select {
		case out <- parsed:
		case <-s.done:
			return
		default:
			// Capture never waits on a slow engine: a full queue drops
			// the packet.
		}
	}
}

// decodeOne calls Parse with panic recovery: gopacket's layer decoders
// can panic on truncated or malformed frames, and one bad packet on the
// wire shouldn't take down the whole capture goroutine.
func decodeOne(gp gopacket.Packet) (parsed flow.Packet, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			telemetry.RateLimitError("decode captured packet", fmt.Errorf("panic: %v", r))
			ok = false
		}
	}()
	return Parse(gp)
}

// Close stops capture. Safe to call more than once.
func (s *Source) Close() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}
