package chunkserver

import (
	"encoding/binary"
	"fmt"
	"net/netip"
)

// PackAddr converts an IPv4 address and port to the wire form used by
// ReplicateChunk.
func PackAddr(addr netip.AddrPort) (uint32, uint16, error) {
	ip := addr.Addr().Unmap()
	if !ip.Is4() {
		return 0, 0, fmt.Errorf("%s is not an IPv4 address", addr)
	}

	b := ip.As4()
	return binary.BigEndian.Uint32(b[:]), addr.Port(), nil
}

func UnpackAddr(ip uint32, port uint16) netip.AddrPort {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], ip)
	return netip.AddrPortFrom(netip.AddrFrom4(b), port)
}
