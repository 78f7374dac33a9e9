package flow

import (
	"fmt"
	"math/rand"
	"testing"

	randomdata "github.com/Pallinder/go-randomdata"
	"github.com/stretchr/testify/assert"
)

// randomIPUint32 turns a randomly generated IPv4 address string into the
// uint32 form Key expects, for varied synthetic fixtures rather than a
// handful of hand-picked addresses.
func randomIPUint32() uint32 {
	var a, b, c, d uint32
	if _, err := fmt.Sscanf(randomdata.IpV4Address(), "%d.%d.%d.%d", &a, &b, &c, &d); err != nil {
		return 0
	}
	return a<<24 | b<<16 | c<<8 | d
}

func TestNewKeyCanonicalizationIsOrderIndependentAcrossRandomTuples(t *testing.T) {
	for i := 0; i < 50; i++ {
		srcIP := randomIPUint32()
		dstIP := randomIPUint32()
		srcPort := uint16(rand.Intn(65536))
		dstPort := uint16(rand.Intn(65536))

		forward := NewKey(srcIP, dstIP, srcPort, dstPort, 6)
		backward := NewKey(dstIP, srcIP, dstPort, srcPort, 6)

		assert.Equal(t, forward, backward, "canonical key must not depend on which side sent the packet")
	}
}
