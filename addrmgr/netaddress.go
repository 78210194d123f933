// Copyright (c) 2021-2025 The Decred developers
// Copyright (c) 2024-2026 The Mariacoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addrmgr

import (
	"encoding/base32"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/TheRetroMike/mariacoin/chaincfg/chainhash"
	"github.com/TheRetroMike/mariacoin/wire"
)

const (
	// onionServiceIDLength is the length of the base32 service identifier
	// that precedes the ".onion" suffix of an onion host name.  The
	// identifier decodes to the ten byte key hash that follows the
	// onioncat prefix in the unified 16-byte address form.
	onionServiceIDLength = 16

	// onionSuffix is the host name suffix used by onion services.
	onionSuffix = ".onion"

	// internalSuffix is the host name suffix used when rendering internal
	// name-keyed placeholder addresses.  Hosts with this suffix are never
	// parsed back or dialed.
	internalSuffix = ".internal"
)

// NetAddress defines information about a peer on the network.
type NetAddress struct {
	// Type represents the type of an address (IPv4, IPv6, onion, etc.).
	Type NetAddressType

	// IP address of the peer.  It is defined as a byte array to support
	// various address types that are not standard to the net module and
	// therefore not entirely appropriate to store as a net.IP.  IPv4
	// addresses are stored as 4 bytes while every other type is stored in
	// its unified 16-byte form.
	IP []byte

	// Port is the port of the remote peer.
	Port uint16

	// Timestamp is the last time the address was seen.
	Timestamp time.Time

	// Services represents the service flags supported by this network
	// address.
	Services wire.ServiceFlag
}

// netIP returns the address bytes as a net.IP so the range helpers from this
// package can be applied to it.
func (netAddr *NetAddress) netIP() net.IP {
	return net.IP(netAddr.IP)
}

// IsIPv4 returns whether the network address is an IPv4 address.
func (netAddr *NetAddress) IsIPv4() bool {
	return netAddr.Type == IPv4Address
}

// IsIPv6 returns whether the network address is an IPv6 address.  Note that
// onion and internal addresses are stored in a 16-byte form but are not
// considered IPv6 addresses.
func (netAddr *NetAddress) IsIPv6() bool {
	return netAddr.Type == IPv6Address
}

// IsOnion returns whether the network address represents an onion service.
func (netAddr *NetAddress) IsOnion() bool {
	return netAddr.Type == OnionAddress
}

// IsInternal returns whether the network address is an internal name-keyed
// placeholder address.
func (netAddr *NetAddress) IsInternal() bool {
	return netAddr.Type == InternalAddress
}

// IsLocal returns whether the network address is a local address.
func (netAddr *NetAddress) IsLocal() bool {
	return isLocal(netAddr.netIP())
}

// IsValid returns whether the network address is valid.  Addresses of an
// unknown type and the all-zero and broadcast patterns are invalid.
func (netAddr *NetAddress) IsValid() bool {
	return netAddr.Type != UnknownAddressType && isValid(netAddr.netIP())
}

// IsRoutable returns whether the network address is routable over the public
// internet.  Internal placeholder addresses are never routable.
func (netAddr *NetAddress) IsRoutable() bool {
	if netAddr.Type == UnknownAddressType {
		return false
	}
	return IsRoutable(netAddr.netIP())
}

// ipString returns a string representation of the network address' IP field.
// It does not include the port.
func (netAddr *NetAddress) ipString() string {
	netIP := netAddr.IP
	switch netAddr.Type {
	case IPv4Address, IPv6Address:
		return net.IP(netIP).String()
	case OnionAddress:
		serviceID := base32.StdEncoding.EncodeToString(netIP[6:])
		return strings.ToLower(serviceID) + onionSuffix
	case InternalAddress:
		label := base32.StdEncoding.EncodeToString(netIP[6:])
		return strings.ToLower(label) + internalSuffix
	}

	// If the netAddr.Type is not recognized in the switch:
	return fmt.Sprintf("unsupported IP type %d, %x", netAddr.Type, netIP)
}

// Key returns a string that can be used to uniquely represent the network
// address and includes the port.
func (netAddr *NetAddress) Key() string {
	portString := strconv.FormatUint(uint64(netAddr.Port), 10)
	return net.JoinHostPort(netAddr.ipString(), portString)
}

// String returns a human-readable string for the network address.  This is
// equivalent to calling Key, but is provided so the type can be used as a
// fmt.Stringer.
func (netAddr *NetAddress) String() string {
	return netAddr.Key()
}

// Clone creates a shallow copy of the NetAddress instance.  The IP reference
// is shared since it is not mutated.
func (netAddr *NetAddress) Clone() *NetAddress {
	netAddrCopy := *netAddr
	return &netAddrCopy
}

// AddService adds the provided service to the set of services that the
// network address supports.
func (netAddr *NetAddress) AddService(service wire.ServiceFlag) {
	netAddr.Services |= service
}

// HasService returns whether the network address supports the provided
// service.
func (netAddr *NetAddress) HasService(service wire.ServiceFlag) bool {
	return netAddr.Services&service == service
}

// ASMapper maps routable addresses to the autonomous system number that
// announces them.  A mapper may return zero when it has no mapping for an
// address, in which case grouping falls back to the prefix rules.
type ASMapper interface {
	ASN(netIP net.IP) uint32
}

// groupPrefix returns the leading bits of the provided address bytes with any
// trailing bits of the final partial byte forced to one.  Forcing the
// remainder keeps the keys for distinct prefix widths from colliding.
func groupPrefix(netIP net.IP, bits int) []byte {
	numBytes := bits / 8
	key := append([]byte(nil), netIP[:numBytes]...)
	if rem := bits % 8; rem != 0 {
		key = append(key, netIP[numBytes]|((1<<(8-rem))-1))
	}
	return key
}

// GroupKey returns a key identifying the network group an address is part of.
// The leading byte of the key is the network type of the group and the
// remainder identifies the region within that network:
//
//   - Unroutable and invalid addresses all share the single key {0} so they
//     never count toward peer diversity.
//   - IPv4 addresses group by their /16, as do IPv6 addresses that embed an
//     IPv4 address (IPv4-mapped, NAT64, 6to4, and teredo forms), which group
//     with the embedded address.
//   - Native IPv6 addresses group by their /32 (/36 for the Hurricane
//     Electric tunnel broker range), or by autonomous system number when a
//     mapper is supplied and has a mapping for the address.
//   - Onion addresses group by the first four bits of the service key hash.
//   - Internal addresses group by their full hashed payload so every label
//     forms its own group.
//
// Address selection and eviction depend on this exact policy, so it must not
// be altered.
func (netAddr *NetAddress) GroupKey(asmap ASMapper) []byte {
	if netAddr.Type == InternalAddress {
		return append([]byte{byte(InternalAddress)}, netAddr.IP[6:16]...)
	}
	if !netAddr.IsValid() || !netAddr.IsRoutable() {
		return []byte{byte(UnknownAddressType)}
	}

	netIP := netAddr.netIP()
	if netAddr.Type == OnionAddress {
		key := []byte{byte(OnionAddress)}
		return append(key, groupPrefix(netIP[6:], 4)...)
	}
	if isIPv4(netIP) {
		netIP = netIP.To4()
		return []byte{byte(IPv4Address), netIP[0], netIP[1]}
	}

	// Several IPv6 transition mechanisms embed an IPv4 address.  Group
	// those with the network of the embedded address.
	switch {
	case isRFC6145(netIP) || isRFC6052(netIP):
		// The last four bytes are the embedded IPv4 address.
		return []byte{byte(IPv4Address), netIP[12], netIP[13]}
	case isRFC3964(netIP):
		return []byte{byte(IPv4Address), netIP[2], netIP[3]}
	case isRFC4380(netIP):
		// Teredo tunnels carry the IPv4 address in the last four
		// bytes XORed with 0xff.
		return []byte{byte(IPv4Address), netIP[12] ^ 0xff, netIP[13] ^ 0xff}
	}

	if asmap != nil {
		if asn := asmap.ASN(netIP); asn != 0 {
			return []byte{byte(IPv6Address), byte(asn >> 24),
				byte(asn >> 16), byte(asn >> 8), byte(asn)}
		}
	}

	bits := 32
	if heNet.Contains(netIP) {
		bits = 36
	}
	key := []byte{byte(IPv6Address)}
	return append(key, groupPrefix(netIP, bits)...)
}

// EncodeHost classifies the provided host string and returns its network
// address type along with the raw bytes of its canonical form.  Onion hosts
// are recognized by their ".onion" suffix and returned in the unified 16-byte
// onioncat form.  The classification covers the entire string, so a host with
// an embedded NUL fails even when a prefix of it would parse.  Literals inside
// the internal prefix are rejected since internal addresses only exist as
// synthetic encodings of unresolved names.  Hosts that cannot be classified
// return UnknownAddressType with nil bytes.
func EncodeHost(host string) (NetAddressType, []byte) {
	if strings.IndexByte(host, 0) != -1 {
		return UnknownAddressType, nil
	}

	if strings.HasSuffix(host, onionSuffix) {
		serviceID := host[:len(host)-len(onionSuffix)]
		if len(serviceID) != onionServiceIDLength {
			return UnknownAddressType, nil
		}
		// go base32 encoding uses capitals (as does the rfc), but
		// onion service identifiers are conventionally lowercase, so
		// switch case here.
		data, err := base32.StdEncoding.DecodeString(
			strings.ToUpper(serviceID))
		if err != nil {
			return UnknownAddressType, nil
		}
		addrBytes := make([]byte, 16)
		copy(addrBytes, onionCatPrefix)
		copy(addrBytes[6:], data)
		return OnionAddress, addrBytes
	}

	netIP := net.ParseIP(host)
	if netIP == nil {
		return UnknownAddressType, nil
	}
	switch {
	case isOnionCatTor(netIP):
		return OnionAddress, netIP.To16()
	case isInternal(netIP):
		return UnknownAddressType, nil
	case netIP.To4() != nil:
		return IPv4Address, netIP.To4()
	}
	return IPv6Address, netIP.To16()
}

// deriveNetAddressType attempts to determine the network address type from
// the address' raw bytes.  If the type cannot be determined, an error is
// returned.
func deriveNetAddressType(addrBytes []byte) (NetAddressType, error) {
	switch {
	case len(addrBytes) == 16 && isOnionCatTor(net.IP(addrBytes)):
		return OnionAddress, nil
	case len(addrBytes) == 16 && isInternal(net.IP(addrBytes)):
		return InternalAddress, nil
	case isIPv4(net.IP(addrBytes)):
		return IPv4Address, nil
	case len(addrBytes) == 16:
		return IPv6Address, nil
	}
	str := fmt.Sprintf("unable to determine address type from raw network "+
		"address bytes: %x", addrBytes)
	return UnknownAddressType, makeError(ErrUnknownAddressType, str)
}

// canonicalizeIP converts the provided address' bytes into a standard
// structure based on the type of the network address, if applicable.  IPv4
// addresses are reduced to their 4-byte form while every other known type is
// expanded to 16 bytes.
func canonicalizeIP(addrType NetAddressType, addrBytes []byte) []byte {
	if addrBytes == nil {
		return nil
	}
	switch addrType {
	case IPv4Address:
		if v4 := net.IP(addrBytes).To4(); v4 != nil {
			return v4
		}
	case IPv6Address, OnionAddress, InternalAddress:
		if v6 := net.IP(addrBytes).To16(); v6 != nil {
			return v6
		}
	}
	return addrBytes
}

// checkNetAddressType returns an error if the suggested address type does not
// appear to match the provided address.
func checkNetAddressType(addrType NetAddressType, addrBytes []byte) error {
	derivedAddressType, err := deriveNetAddressType(addrBytes)
	if err != nil {
		return err
	}
	if addrType != derivedAddressType {
		str := fmt.Sprintf("derived address type does not match expected "+
			"value (got %v, expected %v, address bytes %x)",
			derivedAddressType, addrType, addrBytes)
		return makeError(ErrMismatchedAddressType, str)
	}
	return nil
}

// NewNetAddressFromParams creates a new network address from the given
// parameters.  If the provided address type does not appear to match the
// address, an error is returned.
func NewNetAddressFromParams(addrType NetAddressType, addrBytes []byte, port uint16, timestamp time.Time, services wire.ServiceFlag) (*NetAddress, error) {
	canonicalizedIP := canonicalizeIP(addrType, addrBytes)
	err := checkNetAddressType(addrType, canonicalizedIP)
	if err != nil {
		return nil, err
	}
	return &NetAddress{
		Type:      addrType,
		IP:        canonicalizedIP,
		Port:      port,
		Services:  services,
		Timestamp: timestamp,
	}, nil
}

// NewNetAddressFromString creates a new network address from the given
// string.  The address string is expected to be provided in the format
// "host:port" where the host may be an IPv4 address, a bracketed IPv6
// address, or an onion host name.
func NewNetAddressFromString(addr string) (*NetAddress, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		str := fmt.Sprintf("failed to split address %q: %v", addr, err)
		return nil, makeError(ErrInvalidAddressFormat, str)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		str := fmt.Sprintf("invalid port in address %q: %v", addr, err)
		return nil, makeError(ErrInvalidAddressFormat, str)
	}
	addrType, addrBytes := EncodeHost(host)
	if addrType == UnknownAddressType {
		str := fmt.Sprintf("failed to deserialize address %s", addr)
		return nil, makeError(ErrUnknownAddressType, str)
	}
	timestamp := time.Unix(time.Now().Unix(), 0)
	return NewNetAddressFromParams(addrType, addrBytes, uint16(port),
		timestamp, wire.SFNodeNetwork)
}

// NewNetAddressFromIPPort creates a new network address given an ip, port,
// and the supported service flags for the address.  The provided ip MUST be a
// valid IPv4 or IPv6 address, or one of the onioncat or internal 16-byte
// forms, since this function does not perform error checking on the derived
// network address type.
func NewNetAddressFromIPPort(ip net.IP, port uint16, services wire.ServiceFlag) *NetAddress {
	netAddressType, _ := deriveNetAddressType(ip)
	timestamp := time.Unix(time.Now().Unix(), 0)
	canonicalizedIP := canonicalizeIP(netAddressType, ip)
	return &NetAddress{
		Type:      netAddressType,
		IP:        canonicalizedIP,
		Port:      port,
		Services:  services,
		Timestamp: timestamp,
	}
}

// NewNetAddressFromInternalLabel deterministically derives a placeholder
// address on the internal network by hashing the provided label.  The
// resulting address is stable for a given label, is never routable, and is
// never dialed.  It is used for self-referential peer identities such as
// addresses learned from unresolved host names.
func NewNetAddressFromInternalLabel(label string) *NetAddress {
	hash := chainhash.HashB([]byte(label))
	addrBytes := make([]byte, 16)
	copy(addrBytes, internalNetPrefix)
	copy(addrBytes[6:], hash[:10])
	return &NetAddress{
		Type:      InternalAddress,
		IP:        addrBytes,
		Timestamp: time.Unix(time.Now().Unix(), 0),
	}
}

// SplitHostPort splits an address of the form expected by the configuration
// and RPC layers into its host and port components.  Unlike
// net.SplitHostPort, the port is optional: when no port is present the
// returned port is -1 and the host is the input with any enclosing brackets
// removed.  A bare IPv6 address with no brackets is treated as a host even
// though it contains colons.
func SplitHostPort(addr string) (string, int) {
	colon := strings.LastIndexByte(addr, ':')
	if colon != -1 {
		bracketed := colon > 0 && addr[0] == '[' && addr[colon-1] == ']'
		multiColon := colon > 0 &&
			strings.LastIndexByte(addr[:colon], ':') != -1
		if colon == 0 || bracketed || !multiColon {
			if port, err := strconv.ParseUint(addr[colon+1:], 10,
				16); err == nil {

				host := addr[:colon]
				if bracketed {
					host = host[1 : len(host)-1]
				}
				return host, int(port)
			}
		}
	}
	host := addr
	if len(host) >= 2 && host[0] == '[' && host[len(host)-1] == ']' {
		host = host[1 : len(host)-1]
	}
	return host, -1
}

// ValidateMasternodeAddress returns whether the provided host string is
// acceptable as the advertised endpoint of a masternode.  The host must
// classify as an IPv4, IPv6, or onion address and must be routable, so
// private ranges, loopback, and placeholder addresses are rejected along
// with anything that fails to parse.
func ValidateMasternodeAddress(host string) bool {
	addrType, addrBytes := EncodeHost(host)
	switch addrType {
	case IPv4Address, IPv6Address, OnionAddress:
	default:
		return false
	}
	netAddr, err := NewNetAddressFromParams(addrType, addrBytes, 0,
		time.Time{}, 0)
	if err != nil {
		return false
	}
	return netAddr.IsRoutable()
}

// NewNetAddressFromLegacyWire converts a fixed-form wire network address into
// the managed form, recovering the network type from the well-known prefixes
// embedded in the unified 16-byte address field.
func NewNetAddressFromLegacyWire(na *wire.NetAddress) *NetAddress {
	addrType := addressType(na.IP)
	return &NetAddress{
		Type:      addrType,
		IP:        canonicalizeIP(addrType, na.IP),
		Port:      na.Port,
		Timestamp: na.Timestamp,
		Services:  na.Services,
	}
}

// ToLegacyWire converts the network address to the fixed-form wire encoding.
// Addresses with no representation in that encoding degrade to the all-zero
// placeholder, which is the form peers running older protocol versions
// expect.
func (netAddr *NetAddress) ToLegacyWire() *wire.NetAddress {
	var ip net.IP
	switch netAddr.Type {
	case IPv4Address, IPv6Address, OnionAddress, InternalAddress:
		ip = net.IP(netAddr.IP).To16()
	default:
		ip = net.IPv6zero
	}
	return &wire.NetAddress{
		Timestamp: netAddr.Timestamp,
		Services:  netAddr.Services,
		IP:        ip,
		Port:      netAddr.Port,
	}
}

// NewNetAddressFromWireV2 converts a self-describing wire network address
// into the managed form.  Addresses with an unrecognized network id are
// retained with an unknown type so they may be relayed, though every
// classification predicate reports them as non-routable.
func NewNetAddressFromWireV2(na *wire.NetAddressV2) *NetAddress {
	var addrType NetAddressType
	ip := append([]byte(nil), na.IP...)
	switch na.Type {
	case wire.IPv4Address:
		addrType = IPv4Address
	case wire.IPv6Address:
		addrType = IPv6Address
	case wire.TorAddress:
		addrType = OnionAddress
		full := make([]byte, 16)
		copy(full, onionCatPrefix)
		copy(full[6:], na.IP)
		ip = full
	case wire.InternalAddress:
		addrType = InternalAddress
	default:
		addrType = UnknownAddressType
	}
	return &NetAddress{
		Type:      addrType,
		IP:        ip,
		Port:      na.Port,
		Timestamp: na.Timestamp,
		Services:  na.Services,
	}
}

// ToWireV2 converts the network address to the self-describing wire encoding.
// Onion addresses shed their onioncat prefix since that encoding carries the
// ten byte key hash natively.
func (netAddr *NetAddress) ToWireV2() *wire.NetAddressV2 {
	var addrType wire.NetAddressType
	ip := netAddr.IP
	switch netAddr.Type {
	case IPv4Address:
		addrType = wire.IPv4Address
	case IPv6Address:
		addrType = wire.IPv6Address
	case OnionAddress:
		addrType = wire.TorAddress
		ip = ip[6:16]
	case InternalAddress:
		addrType = wire.InternalAddress
	default:
		addrType = wire.IPv6Address
		ip = net.IPv6zero
	}
	return wire.NewNetAddressV2(netAddr.Timestamp, netAddr.Services,
		addrType, append([]byte(nil), ip...), netAddr.Port)
}
