package device

import (
	"fmt"
	"math/rand/v2"
	"net"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-presence/internal/presence"
)

// HostPrefix prefixes generated host names.
const HostPrefix = "dev-"

// GenerateIdentity returns a random identity: a dev-<8 hex> host name, an
// address in one of the RFC 1918 private ranges, and a locally administered
// unicast MAC.
func GenerateIdentity() presence.Identity {
	return presence.Identity{
		HostName:   HostPrefix + uuid.NewString()[:8],
		IPAddress:  randomPrivateIPv4().String(),
		MACAddress: randomLocalMAC().String(),
	}
}

// GenerateIdentities returns n identities with distinct host names.
func GenerateIdentities(n int) []presence.Identity {
	seen := make(map[string]bool, n)
	out := make([]presence.Identity, 0, n)
	for len(out) < n {
		id := GenerateIdentity()
		if seen[id.HostName] {
			continue
		}
		seen[id.HostName] = true
		out = append(out, id)
	}
	return out
}

func randomPrivateIPv4() net.IP {
	switch rand.IntN(3) {
	case 0:
		return net.IPv4(10, byte(rand.IntN(256)), byte(rand.IntN(256)), byte(1+rand.IntN(254)))
	case 1:
		return net.IPv4(172, byte(16+rand.IntN(16)), byte(rand.IntN(256)), byte(1+rand.IntN(254)))
	default:
		return net.IPv4(192, 168, byte(rand.IntN(256)), byte(1+rand.IntN(254)))
	}
}

func randomLocalMAC() net.HardwareAddr {
	mac := make(net.HardwareAddr, 6)
	for i := range mac {
		mac[i] = byte(rand.IntN(256))
	}
	// Locally administered, unicast.
	mac[0] = (mac[0] &^ 0x01) | 0x02
	return mac
}

// StaticIdentity builds an identity from configured fields, generating any left empty.
func StaticIdentity(host, ip, mac string) (presence.Identity, error) {
	id := GenerateIdentity()
	if host != "" {
		id.HostName = host
	}
	if ip != "" {
		if net.ParseIP(ip) == nil {
			return presence.Identity{}, fmt.Errorf("device: invalid ip address %q", ip)
		}
		id.IPAddress = ip
	}
	if mac != "" {
		if _, err := net.ParseMAC(mac); err != nil {
			return presence.Identity{}, fmt.Errorf("device: invalid mac address %q: %w", mac, err)
		}
		id.MACAddress = mac
	}
	return id, nil
}
