// Copyright (c) 2013-2014 The btcsuite developers
// Copyright (c) 2015-2024 The Decred developers
// Copyright (c) 2024-2026 The Mariacoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addrmgr

import (
	"net"
	"strings"
)

var (
	// rfc1918Nets specifies the IPv4 private address blocks as defined by
	// RFC1918 (10.0.0.0/8, 172.16.0.0/12, and 192.168.0.0/16).
	rfc1918Nets = []net.IPNet{
		ipNet("10.0.0.0", 8, 32),
		ipNet("172.16.0.0", 12, 32),
		ipNet("192.168.0.0", 16, 32),
	}

	// rfc2544Net specifies the IPv4 block as defined by RFC2544
	// (198.18.0.0/15).
	rfc2544Net = ipNet("198.18.0.0", 15, 32)

	// rfc3849Net specifies the IPv6 documentation address block as defined
	// by RFC3849 (2001:DB8::/32).
	rfc3849Net = ipNet("2001:DB8::", 32, 128)

	// rfc3927Net specifies the IPv4 auto configuration address block as
	// defined by RFC3927 (169.254.0.0/16).
	rfc3927Net = ipNet("169.254.0.0", 16, 32)

	// rfc3964Net specifies the IPv6 to IPv4 encapsulation address block as
	// defined by RFC3964 (2002::/16).
	rfc3964Net = ipNet("2002::", 16, 128)

	// rfc4193Net specifies the IPv6 unique local address block as defined
	// by RFC4193 (FC00::/7).
	rfc4193Net = ipNet("FC00::", 7, 128)

	// rfc4380Net specifies the IPv6 teredo tunneling over UDP address block
	// as defined by RFC4380 (2001::/32).
	rfc4380Net = ipNet("2001::", 32, 128)

	// rfc4843Net specifies the IPv6 ORCHID address block as defined by
	// RFC4843 (2001:10::/28).
	rfc4843Net = ipNet("2001:10::", 28, 128)

	// rfc4862Net specifies the IPv6 stateless address autoconfiguration
	// address block as defined by RFC4862 (FE80::/64).
	rfc4862Net = ipNet("FE80::", 64, 128)

	// rfc5737Net specifies the IPv4 documentation address blocks as defined
	// by RFC5737 (192.0.2.0/24, 198.51.100.0/24, 203.0.113.0/24).
	rfc5737Net = []net.IPNet{
		ipNet("192.0.2.0", 24, 32),
		ipNet("198.51.100.0", 24, 32),
		ipNet("203.0.113.0", 24, 32),
	}

	// rfc6052Net specifies the IPv6 well-known prefix address block as
	// defined by RFC6052 (64:FF9B::/96).
	rfc6052Net = ipNet("64:FF9B::", 96, 128)

	// rfc6145Net specifies the IPv6 to IPv4 translated address range as
	// defined by RFC6145 (::FFFF:0:0:0/96).
	rfc6145Net = ipNet("::FFFF:0:0:0", 96, 128)

	// rfc6598Net specifies the IPv4 block as defined by RFC6598 (100.64.0.0/10).
	rfc6598Net = ipNet("100.64.0.0", 10, 32)

	// rfc7343Net specifies the IPv6 ORCHIDv2 address block as defined by
	// RFC7343 (2001:20::/28).
	rfc7343Net = ipNet("2001:20::", 28, 128)

	// onionCatNet defines the IPv6 address block used to support onion
	// services.  An onion address is encoded as a 16 byte number by
	// decoding the base32 service identifier prior to the .onion (i.e. the
	// key hash) into a ten byte number.  The first 6 bytes of the address
	// are then set to 0xfd, 0x87, 0xd8, 0x7e, 0xeb, 0x43.
	//
	// This is the same range used by OnionCat, which is part of the
	// RFC4193 unique local IPv6 range.
	//
	// In summary the format is:
	// { magic 6 bytes, 10 bytes base32 decode of key hash }
	onionCatNet = ipNet("fd87:d87e:eb43::", 48, 128)

	// onionCatPrefix is the 6-byte prefix of the onionCatNet range above.
	onionCatPrefix = []byte{0xfd, 0x87, 0xd8, 0x7e, 0xeb, 0x43}

	// internalNetPrefix is the 6-byte prefix used for internal name-keyed
	// placeholder addresses.  The remaining 10 bytes are the leading bytes
	// of the sha256 hash of the originating name.  Like the onion range,
	// the prefix lies within the RFC4193 unique local range so real
	// traffic can never produce it.
	internalNetPrefix = []byte{0xfd, 0x6b, 0x88, 0xc0, 0x87, 0x24}

	// zero4Net defines the IPv4 address block for address staring with 0
	// (0.0.0.0/8).
	zero4Net = ipNet("0.0.0.0", 8, 32)

	// heNet defines the Hurricane Electric IPv6 address block.
	heNet = ipNet("2001:470::", 32, 128)
)

// ipNet returns a net.IPNet struct given the passed IP address string, number
// of one bits to include at the start of the mask, and the total number of bits
// for the mask.
func ipNet(ip string, ones, bits int) net.IPNet {
	return net.IPNet{IP: net.ParseIP(ip), Mask: net.CIDRMask(ones, bits)}
}

// isIPv4 returns whether or not the given address is an IPv4 address.
func isIPv4(netIP net.IP) bool {
	return netIP.To4() != nil
}

// isLocal returns whether or not the given address is a local address.
func isLocal(netIP net.IP) bool {
	return netIP.IsLoopback() || zero4Net.Contains(netIP)
}

// isOnionCatTor returns whether or not the passed address is in the IPv6
// range used to support onion services (fd87:d87e:eb43::/48).  Note that this
// range is the same range used by OnionCat, which is part of the RFC4193
// unique local IPv6 range.
func isOnionCatTor(netIP net.IP) bool {
	return onionCatNet.Contains(netIP)
}

// isInternal returns whether or not the passed address is in the range used
// for internal name-keyed placeholder addresses.
func isInternal(netIP net.IP) bool {
	if len(netIP) != 16 {
		netIP = netIP.To16()
	}
	if len(netIP) != 16 {
		return false
	}
	for i, b := range internalNetPrefix {
		if netIP[i] != b {
			return false
		}
	}
	return true
}

// NetAddressType is used to indicate which network a network address belongs
// to.  The numeric values double as the leading byte of group keys, so they
// must not be reordered.
type NetAddressType uint8

const (
	// UnknownAddressType represents an address whose network could not be
	// determined.  It is also used for addresses that are not routable.
	UnknownAddressType NetAddressType = iota

	// IPv4Address represents an IPv4 address.
	IPv4Address

	// IPv6Address represents an IPv6 address.
	IPv6Address

	// OnionAddress represents an onion service identity.  It is stored
	// internally in its 16-byte onioncat form.
	OnionAddress

	// InternalAddress represents an internal name-keyed placeholder
	// address that is never dialed.
	InternalAddress
)

// String returns the name used for the network in textual interfaces such as
// configuration options and RPC results.
func (netType NetAddressType) String() string {
	switch netType {
	case IPv4Address:
		return "ipv4"
	case IPv6Address:
		return "ipv6"
	case OnionAddress:
		return "onion"
	case InternalAddress:
		return "internal"
	}
	return "unroutable"
}

// ParseNetAddressType returns the network address type for the provided
// network name.  Unrecognized names map to UnknownAddressType.
func ParseNetAddressType(network string) NetAddressType {
	switch strings.ToLower(network) {
	case "ipv4":
		return IPv4Address
	case "ipv6":
		return IPv6Address
	case "onion", "tor":
		return OnionAddress
	case "internal":
		return InternalAddress
	}
	return UnknownAddressType
}

// addressType returns the network address type of the provided network
// address bytes.
func addressType(netIP net.IP) NetAddressType {
	switch {
	case isOnionCatTor(netIP):
		return OnionAddress

	case isInternal(netIP):
		return InternalAddress

	case isIPv4(netIP):
		return IPv4Address

	case len(netIP.To16()) == 16:
		return IPv6Address
	}
	return UnknownAddressType
}

// isRFC1918 returns whether or not the passed address is part of the IPv4
// private network address space as defined by RFC1918 (10.0.0.0/8,
// 172.16.0.0/12, or 192.168.0.0/16).
func isRFC1918(netIP net.IP) bool {
	for _, rfc := range rfc1918Nets {
		if rfc.Contains(netIP) {
			return true
		}
	}
	return false
}

// isRFC2544 returns whether or not the passed address is part of the IPv4
// address space as defined by RFC2544 (198.18.0.0/15).
func isRFC2544(netIP net.IP) bool {
	return rfc2544Net.Contains(netIP)
}

// isRFC3849 returns whether or not the passed address is part of the IPv6
// documentation range as defined by RFC3849 (2001:DB8::/32).
func isRFC3849(netIP net.IP) bool {
	return rfc3849Net.Contains(netIP)
}

// isRFC3927 returns whether or not the passed address is part of the IPv4
// autoconfiguration range as defined by RFC3927 (169.254.0.0/16).
func isRFC3927(netIP net.IP) bool {
	return rfc3927Net.Contains(netIP)
}

// isRFC3964 returns whether or not the passed address is part of the IPv6 to
// IPv4 encapsulation range as defined by RFC3964 (2002::/16).
func isRFC3964(netIP net.IP) bool {
	return rfc3964Net.Contains(netIP)
}

// isRFC4193 returns whether or not the passed address is part of the IPv6
// unique local range as defined by RFC4193 (FC00::/7).
func isRFC4193(netIP net.IP) bool {
	return rfc4193Net.Contains(netIP)
}

// isRFC4380 returns whether or not the passed address is part of the IPv6
// teredo tunneling over UDP range as defined by RFC4380 (2001::/32).
func isRFC4380(netIP net.IP) bool {
	return rfc4380Net.Contains(netIP)
}

// isRFC4843 returns whether or not the passed address is part of the IPv6
// ORCHID range as defined by RFC4843 (2001:10::/28).
func isRFC4843(netIP net.IP) bool {
	return rfc4843Net.Contains(netIP)
}

// isRFC4862 returns whether or not the passed address is part of the IPv6
// stateless address autoconfiguration range as defined by RFC4862 (FE80::/64).
func isRFC4862(netIP net.IP) bool {
	return rfc4862Net.Contains(netIP)
}

// isRFC5737 returns whether or not the passed address is part of the IPv4
// documentation address space as defined by RFC5737 (192.0.2.0/24,
// 198.51.100.0/24, 203.0.113.0/24).
func isRFC5737(netIP net.IP) bool {
	for _, rfc := range rfc5737Net {
		if rfc.Contains(netIP) {
			return true
		}
	}

	return false
}

// isRFC6052 returns whether or not the passed address is part of the IPv6
// well-known prefix range as defined by RFC6052 (64:FF9B::/96).
func isRFC6052(netIP net.IP) bool {
	return rfc6052Net.Contains(netIP)
}

// isRFC6145 returns whether or not the passed address is part of the IPv6 to
// IPv4 translated address range as defined by RFC6145 (::FFFF:0:0:0/96).
func isRFC6145(netIP net.IP) bool {
	return rfc6145Net.Contains(netIP)
}

// isRFC6598 returns whether or not the passed address is part of the IPv4
// shared address space specified by RFC6598 (100.64.0.0/10).
func isRFC6598(netIP net.IP) bool {
	return rfc6598Net.Contains(netIP)
}

// isRFC7343 returns whether or not the passed address is part of the IPv6
// ORCHIDv2 range as defined by RFC7343 (2001:20::/28).
func isRFC7343(netIP net.IP) bool {
	return rfc7343Net.Contains(netIP)
}

// isValid returns whether or not the passed address is valid.  The address is
// considered invalid under the following circumstances:
// IPv4: It is either a zero or all bits set address.
// IPv6: It is either a zero or RFC3849 documentation address.
func isValid(netIP net.IP) bool {
	// IsUnspecified returns if address is 0, so only all bits set, and
	// RFC3849 need to be explicitly checked.
	return netIP != nil && !(netIP.IsUnspecified() ||
		netIP.Equal(net.IPv4bcast))
}

// IsRoutable returns whether or not the passed address is routable over
// the public internet.  This is true as long as the address is valid and is
// not in any reserved ranges.  Internal name-keyed addresses are never
// routable.
func IsRoutable(netIP net.IP) bool {
	return isValid(netIP) && !(isRFC1918(netIP) || isRFC2544(netIP) ||
		isRFC3927(netIP) || isRFC4862(netIP) || isRFC3849(netIP) ||
		isRFC4843(netIP) || isRFC7343(netIP) || isRFC5737(netIP) ||
		isRFC6598(netIP) || isLocal(netIP) || isInternal(netIP) ||
		(isRFC4193(netIP) && !isOnionCatTor(netIP)))
}
