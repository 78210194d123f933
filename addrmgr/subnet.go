// Copyright (c) 2024-2026 The Mariacoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addrmgr

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// SubNet represents a contiguous block of IPv4 or IPv6 addresses.  It is a
// comparable value type: two subnets constructed from equivalent textual
// forms, such as a prefix length and the matching explicit netmask, compare
// equal.  The zero value is an invalid subnet that matches no address.
type SubNet struct {
	netType NetAddressType

	// network is the base address with the mask already applied, so
	// equivalent specifications share one canonical form.  Only the first
	// numBytes bytes are meaningful.
	network [16]byte
	mask    [16]byte

	numBytes uint8
	prefix   uint8
	valid    bool
}

// subnetWidth returns the address width in bytes for the provided network
// type, or zero for networks that do not support subnetting.
func subnetWidth(netType NetAddressType) uint8 {
	switch netType {
	case IPv4Address:
		return net.IPv4len
	case IPv6Address:
		return net.IPv6len
	}
	return 0
}

// NewSubNet creates a subnet from the provided base address and prefix
// length.  Only IPv4 and IPv6 addresses may be subnetted.  The stored base is
// masked by the prefix, so any host bits in the provided address are
// discarded.
func NewSubNet(netAddr *NetAddress, prefix int) (SubNet, error) {
	numBytes := subnetWidth(netAddr.Type)
	if numBytes == 0 {
		str := fmt.Sprintf("network %v does not support subnets",
			netAddr.Type)
		return SubNet{}, makeError(ErrUnsubnettableNetwork, str)
	}
	bits := int(numBytes) * 8
	if prefix < 0 || prefix > bits {
		str := fmt.Sprintf("prefix length %d is out of range for a %d "+
			"bit address", prefix, bits)
		return SubNet{}, makeError(ErrInvalidPrefixLength, str)
	}

	sn := SubNet{
		netType:  netAddr.Type,
		numBytes: numBytes,
		prefix:   uint8(prefix),
		valid:    true,
	}
	mask := net.CIDRMask(prefix, bits)
	copy(sn.mask[:numBytes], mask)
	for i := uint8(0); i < numBytes; i++ {
		sn.network[i] = netAddr.IP[i] & sn.mask[i]
	}
	return sn, nil
}

// NewSubNetFromNetAddress creates the host subnet containing exactly the
// provided address, that is, a /32 for IPv4 and a /128 for IPv6.
func NewSubNetFromNetAddress(netAddr *NetAddress) (SubNet, error) {
	return NewSubNet(netAddr, int(subnetWidth(netAddr.Type))*8)
}

// maskToPrefix converts an explicit netmask to the equivalent prefix length.
// Masks whose set bits are not a contiguous run starting at the most
// significant bit have no prefix form and result in an error.
func maskToPrefix(mask net.IPMask) (int, error) {
	ones, bits := mask.Size()
	if ones == 0 && bits == 0 {
		str := fmt.Sprintf("netmask %v is not contiguous",
			net.IP(mask))
		return 0, makeError(ErrNonContiguousMask, str)
	}
	return ones, nil
}

// ParseSubNet parses the provided specification into a subnet.  The
// specification is a base address optionally followed by a slash and either a
// decimal prefix length or an explicit netmask of the same family as the
// base.  A bare address yields the host subnet for that address.  Like host
// parsing, the parse covers the entire string, so an embedded NUL fails.
func ParseSubNet(spec string) (SubNet, error) {
	if strings.IndexByte(spec, 0) != -1 {
		str := fmt.Sprintf("subnet %q contains an embedded NUL", spec)
		return SubNet{}, makeError(ErrInvalidAddressFormat, str)
	}

	baseStr := spec
	maskStr := ""
	hasMask := false
	if slash := strings.IndexByte(spec, '/'); slash != -1 {
		baseStr = spec[:slash]
		maskStr = spec[slash+1:]
		hasMask = true
	}

	addrType, addrBytes := EncodeHost(baseStr)
	switch addrType {
	case IPv4Address, IPv6Address:
	case UnknownAddressType:
		str := fmt.Sprintf("invalid subnet base address %q", baseStr)
		return SubNet{}, makeError(ErrInvalidAddressFormat, str)
	default:
		str := fmt.Sprintf("network %v does not support subnets",
			addrType)
		return SubNet{}, makeError(ErrUnsubnettableNetwork, str)
	}
	netAddr := &NetAddress{Type: addrType, IP: addrBytes}

	if !hasMask {
		return NewSubNetFromNetAddress(netAddr)
	}
	if maskStr == "" {
		str := fmt.Sprintf("subnet %q is missing a mask after the slash",
			spec)
		return SubNet{}, makeError(ErrInvalidAddressFormat, str)
	}

	// A mask consisting solely of decimal digits is a prefix length.
	// Anything else must parse as an explicit netmask of the same family
	// as the base address.
	if isDecimal(maskStr) {
		prefix, err := strconv.Atoi(maskStr)
		if err != nil {
			str := fmt.Sprintf("invalid prefix length %q: %v",
				maskStr, err)
			return SubNet{}, makeError(ErrInvalidPrefixLength, str)
		}
		return NewSubNet(netAddr, prefix)
	}

	maskIP := net.ParseIP(maskStr)
	if maskIP == nil {
		str := fmt.Sprintf("invalid netmask %q", maskStr)
		return SubNet{}, makeError(ErrInvalidAddressFormat, str)
	}
	maskIsIPv4 := maskIP.To4() != nil
	if maskIsIPv4 != (addrType == IPv4Address) {
		str := fmt.Sprintf("netmask %q does not match the family of "+
			"base address %q", maskStr, baseStr)
		return SubNet{}, makeError(ErrMismatchedSubnetFamily, str)
	}
	var mask net.IPMask
	if maskIsIPv4 {
		mask = net.IPMask(maskIP.To4())
	} else {
		mask = net.IPMask(maskIP.To16())
	}
	prefix, err := maskToPrefix(mask)
	if err != nil {
		return SubNet{}, err
	}
	return NewSubNet(netAddr, prefix)
}

// isDecimal returns whether the provided string is non-empty and consists
// solely of decimal digits.
func isDecimal(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// IsValid returns whether the subnet was successfully constructed.  The zero
// value of the type is invalid.
func (sn *SubNet) IsValid() bool {
	return sn.valid
}

// Match returns whether the provided address falls within the subnet.  An
// invalid subnet matches nothing, as does an invalid address, so the all-zero
// addresses never match even the /0 subnet of their family.  Addresses of a
// different family than the subnet never match.
func (sn *SubNet) Match(netAddr *NetAddress) bool {
	if !sn.valid || netAddr == nil || !netAddr.IsValid() {
		return false
	}
	if netAddr.Type != sn.netType {
		return false
	}
	for i := uint8(0); i < sn.numBytes; i++ {
		if netAddr.IP[i]&sn.mask[i] != sn.network[i] {
			return false
		}
	}
	return true
}

// String returns the canonical textual form of the subnet, which is always
// the masked base address followed by the minimal prefix length, even when
// the subnet was constructed from an equivalent explicit netmask.
func (sn SubNet) String() string {
	if !sn.valid {
		return "invalid"
	}
	base := net.IP(sn.network[:sn.numBytes]).String()
	return base + "/" + strconv.FormatUint(uint64(sn.prefix), 10)
}
