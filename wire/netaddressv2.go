// Copyright (c) 2021 The Decred developers
// Copyright (c) 2024-2026 The Mariacoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"
	"net"
	"time"
)

// NetAddressType is used to indicate which network a self-describing network
// address belongs to.
type NetAddressType uint8

const (
	// UnknownAddressType represents an unknown address network.  It is
	// never written to the wire by this implementation but may be received
	// from peers speaking a newer protocol.
	UnknownAddressType NetAddressType = 0

	// IPv4Address represents an IPv4 address serialized as 4 bytes.
	IPv4Address NetAddressType = 1

	// IPv6Address represents an IPv6 address serialized as 16 bytes.
	IPv6Address NetAddressType = 2

	// TorAddress represents an onion service identity serialized as the
	// 10-byte public key hash the .onion hostname encodes.
	TorAddress NetAddressType = 3

	// InternalAddress represents a name-keyed internal placeholder address
	// serialized in its 16-byte prefixed hash form.
	InternalAddress NetAddressType = 4
)

const (
	// maxOpaqueAddressSize is the maximum number of address bytes accepted
	// for a network type this implementation does not know about.  Larger
	// payloads are treated as malformed rather than relayed.
	maxOpaqueAddressSize = 512

	// torAddressSize is the number of bytes a serialized onion identity
	// occupies on the wire.
	torAddressSize = 10
)

// onionCatPrefix is the 6-byte prefix that, combined with a 10-byte onion
// identity, forms the IPv6 representation of an onion address within the
// fd87:d87e:eb43::/48 range.
var onionCatPrefix = []byte{0xfd, 0x87, 0xd8, 0x7e, 0xeb, 0x43}

// internalPrefix is the 6-byte prefix of the 16-byte form of an internal
// name-keyed address.  The remaining 10 bytes are the leading bytes of the
// sha256 hash of the originating name.
var internalPrefix = []byte{0xfd, 0x6b, 0x88, 0xc0, 0x87, 0x24}

// knownAddressTypeSize returns the required number of address bytes for the
// provided known network type and true, or 0 and false when the type is not
// known to this implementation.
func knownAddressTypeSize(netType NetAddressType) (int, bool) {
	switch netType {
	case IPv4Address:
		return 4, true
	case IPv6Address:
		return 16, true
	case TorAddress:
		return torAddressSize, true
	case InternalAddress:
		return 16, true
	}
	return 0, false
}

// NetAddressV2 defines information about a peer on the network in the
// self-describing wire format.  Rather than a fixed 16-byte field, the
// address carries an explicit network type and a length-prefixed byte string,
// which allows networks that cannot be embedded in an IPv6 address to be
// relayed without loss.
type NetAddressV2 struct {
	// Timestamp is the last time the address was seen.
	Timestamp time.Time

	// Services is a bitfield which identifies the services supported by
	// the peer.
	Services ServiceFlag

	// Type is the network the address belongs to.
	Type NetAddressType

	// IP is the raw serialized address bytes.  The length depends on Type:
	// 4 for IPv4, 16 for IPv6 and internal, 10 for onion identities, and
	// up to maxOpaqueAddressSize for unknown types.
	IP []byte

	// Port is the port the peer is using.  This is encoded in big endian
	// on the wire.
	Port uint16
}

// HasService returns whether the specified service is supported by the
// address.
func (na *NetAddressV2) HasService(service ServiceFlag) bool {
	return na.Services&service == service
}

// NewNetAddressV2 returns a new NetAddressV2 using the provided fields with
// the timestamp rounded to single second precision.
func NewNetAddressV2(timestamp time.Time, services ServiceFlag,
	netType NetAddressType, ip []byte, port uint16) *NetAddressV2 {

	return &NetAddressV2{
		Timestamp: time.Unix(timestamp.Unix(), 0),
		Services:  services,
		Type:      netType,
		IP:        ip,
		Port:      port,
	}
}

// ToLegacy converts the address to the legacy fixed 16-byte form.  Onion
// identities become their onioncat IPv6 form.  Addresses of unknown network
// types, which have no 16-byte representation, become the all-zero
// placeholder address.
func (na *NetAddressV2) ToLegacy() *NetAddress {
	legacy := &NetAddress{
		Timestamp: na.Timestamp,
		Services:  na.Services,
		Port:      na.Port,
	}
	switch na.Type {
	case IPv4Address:
		legacy.IP = net.IP(na.IP).To16()
	case IPv6Address, InternalAddress:
		legacy.IP = net.IP(na.IP)
	case TorAddress:
		ip := make([]byte, 16)
		copy(ip, onionCatPrefix)
		copy(ip[6:], na.IP)
		legacy.IP = ip
	default:
		legacy.IP = net.IPv6zero
	}
	return legacy
}

// NetAddressV2FromLegacy converts a legacy fixed-form address to the
// self-describing form, recovering the network type from the well-known
// prefixes embedded in the 16-byte field.
func NetAddressV2FromLegacy(na *NetAddress) *NetAddressV2 {
	v2 := &NetAddressV2{
		Timestamp: na.Timestamp,
		Services:  na.Services,
		Port:      na.Port,
	}
	ip := na.IP.To16()
	switch {
	case ip == nil:
		v2.Type = IPv6Address
		v2.IP = make([]byte, 16)
	case hasPrefix(ip, onionCatPrefix):
		v2.Type = TorAddress
		v2.IP = append([]byte(nil), ip[6:]...)
	case hasPrefix(ip, internalPrefix):
		v2.Type = InternalAddress
		v2.IP = append([]byte(nil), ip...)
	case ip.To4() != nil:
		v2.Type = IPv4Address
		v2.IP = append([]byte(nil), ip.To4()...)
	default:
		v2.Type = IPv6Address
		v2.IP = append([]byte(nil), ip...)
	}
	return v2
}

// hasPrefix returns whether the ip starts with the provided prefix bytes.
func hasPrefix(ip net.IP, prefix []byte) bool {
	if len(ip) < len(prefix) {
		return false
	}
	for i, b := range prefix {
		if ip[i] != b {
			return false
		}
	}
	return true
}

// readNetAddressV2 reads a self-describing network address from r.  Unknown
// network types are accepted and carried opaquely as long as their length is
// within sane bounds, which allows addresses for networks defined by future
// protocol versions to be relayed rather than dropped.
func readNetAddressV2(op string, r io.Reader, pver uint32, na *NetAddressV2) error {
	var stamp uint32Time
	err := readElement(r, &stamp)
	if err != nil {
		return err
	}
	na.Timestamp = time.Time(stamp)

	services, err := ReadVarInt(r, pver)
	if err != nil {
		return err
	}
	na.Services = ServiceFlag(services)

	err = readElement(r, &na.Type)
	if err != nil {
		return err
	}

	addrLen, err := ReadVarInt(r, pver)
	if err != nil {
		return err
	}
	if want, known := knownAddressTypeSize(na.Type); known {
		if addrLen != uint64(want) {
			msg := fmt.Sprintf("invalid address length %d for "+
				"network type %d - expected %d", addrLen,
				na.Type, want)
			return messageError(op, ErrInvalidAddressLength, msg)
		}
	} else if addrLen > maxOpaqueAddressSize {
		msg := fmt.Sprintf("address length %d for unknown network "+
			"type %d exceeds max %d", addrLen, na.Type,
			maxOpaqueAddressSize)
		return messageError(op, ErrInvalidAddressLength, msg)
	}

	na.IP = make([]byte, addrLen)
	_, err = io.ReadFull(r, na.IP)
	if err != nil {
		return err
	}

	// The port is encoded in big endian.
	port, err := binarySerializer.Uint16(r, bigEndian)
	if err != nil {
		return err
	}
	na.Port = port
	return nil
}

// writeNetAddressV2 serializes a self-describing network address to w.
func writeNetAddressV2(op string, w io.Writer, pver uint32, na *NetAddressV2) error {
	err := writeElement(w, uint32(na.Timestamp.Unix()))
	if err != nil {
		return err
	}

	err = WriteVarInt(w, pver, uint64(na.Services))
	if err != nil {
		return err
	}

	err = writeElement(w, na.Type)
	if err != nil {
		return err
	}

	if want, known := knownAddressTypeSize(na.Type); known && len(na.IP) != want {
		msg := fmt.Sprintf("invalid address length %d for network "+
			"type %d - expected %d", len(na.IP), na.Type, want)
		return messageError(op, ErrInvalidAddressLength, msg)
	}
	err = WriteVarInt(w, pver, uint64(len(na.IP)))
	if err != nil {
		return err
	}
	_, err = w.Write(na.IP)
	if err != nil {
		return err
	}

	// The port is encoded in big endian.
	return binarySerializer.PutUint16(w, bigEndian, na.Port)
}

// maxNetAddressV2Payload returns the max payload size for a self-describing
// network address based on the protocol version.
func maxNetAddressV2Payload(pver uint32) uint32 {
	// Timestamp 4 bytes + max varint services 9 bytes + network type
	// 1 byte + max varint length 3 bytes + max address bytes + port
	// 2 bytes.
	return 4 + 9 + 1 + 3 + maxOpaqueAddressSize + 2
}
