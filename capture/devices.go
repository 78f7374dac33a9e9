package capture

import (
	"strings"
	"time"

	"github.com/google/gopacket/pcap"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
)

// Device describes a capturable network interface.
type Device struct {
	Name        string
	Description string
	Addresses   []string
	IsLoopback  bool
}

// interfacePrefixes mirrors the heuristic used to suggest a default
// capture interface: common name prefixes of physical NICs (en, eth, wl)
// and of bridge and virtual adapters (br-, docker, veth, virbr, vboxnet).
// Interfaces whose names match none of them are not listed.
var interfacePrefixes = []string{"en", "eth", "wl", "br-", "docker", "veth", "virbr", "vboxnet"}

var deviceCache = gocache.New(5*time.Second, 10*time.Second)

// ListDevices enumerates capturable interfaces, keeping only those whose
// names match interfacePrefixes and excluding loopback.
func ListDevices() ([]Device, error) {
	if cached, ok := deviceCache.Get("devices"); ok {
		return cached.([]Device), nil
	}

	all, err := pcap.FindAllDevs()
	if err != nil {
		return nil, errors.Wrap(err, "failed to enumerate network interfaces")
	}

	devices := make([]Device, 0, len(all))
	for _, d := range all {
		if d.Flags&pcap.PcapIfLoopback != 0 {
			continue
		}
		if !hasInterfacePrefix(d.Name) {
			continue
		}
		dev := Device{Name: d.Name, Description: d.Description}
		for _, addr := range d.Addresses {
			if addr.IP != nil {
				dev.Addresses = append(dev.Addresses, addr.IP.String())
			}
		}
		devices = append(devices, dev)
	}

	deviceCache.Set("devices", devices, gocache.DefaultExpiration)
	return devices, nil
}

// DeviceInfo returns details for a single named interface.
func DeviceInfo(name string) (Device, error) {
	devices, err := ListDevices()
	if err != nil {
		return Device{}, err
	}
	for _, d := range devices {
		if d.Name == name {
			return d, nil
		}
	}
	return Device{}, errors.Errorf("no capturable interface named %q", name)
}

func hasInterfacePrefix(name string) bool {
	for _, prefix := range interfacePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
