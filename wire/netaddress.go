// Copyright (c) 2013-2015 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Copyright (c) 2024-2026 The Mariacoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"
	"net"
	"time"
)

// maxNetAddressPayload returns the max payload size for a legacy network
// address based on the protocol version.
func maxNetAddressPayload(pver uint32) uint32 {
	// Timestamp 4 bytes + services 8 bytes + ip 16 bytes + port 2 bytes.
	return 30
}

// NetAddress defines information about a peer on the network in the legacy
// fixed-length wire format.  This includes the time it was last seen, the
// services it supports, its IP address, and port.  Addresses whose network
// cannot be represented in the 16-byte field are serialized with an all-zero
// address.
type NetAddress struct {
	// Timestamp is the last time the address was seen.  It is not present
	// in the version message and is only considered down to the second
	// precision on the wire.
	Timestamp time.Time

	// Services is a bitfield which identifies the services supported by
	// the peer.
	Services ServiceFlag

	// IP is the address of the peer.  IPv4 addresses are serialized in
	// their IPv4-mapped IPv6 form.
	IP net.IP

	// Port is the port the peer is using.  This is encoded in big endian
	// on the wire which differs from most everything else.
	Port uint16
}

// HasService returns whether the specified service is supported by the
// address.
func (na *NetAddress) HasService(service ServiceFlag) bool {
	return na.Services&service == service
}

// AddService adds service as a supported service by the peer generating the
// message.
func (na *NetAddress) AddService(service ServiceFlag) {
	na.Services |= service
}

// NewNetAddressIPPort returns a new NetAddress using the provided IP, port,
// and supported services with defaults for the remaining fields.
func NewNetAddressIPPort(ip net.IP, port uint16, services ServiceFlag) *NetAddress {
	return NewNetAddressTimestamp(
		// Timestamp is unix time with one second precision.
		time.Unix(time.Now().Unix(), 0),
		services, ip, port)
}

// NewNetAddressTimestamp returns a new NetAddress using the provided
// timestamp, IP, port, and supported services. The timestamp is rounded to
// single second precision.
func NewNetAddressTimestamp(timestamp time.Time, services ServiceFlag,
	ip net.IP, port uint16) *NetAddress {

	// Limit the timestamp to one second precision since the protocol
	// doesn't support better.
	na := NetAddress{
		Timestamp: time.Unix(timestamp.Unix(), 0),
		Services:  services,
		IP:        ip,
		Port:      port,
	}
	return &na
}

// NewNetAddress returns a new NetAddress using the provided TCP address and
// supported services with defaults for the remaining fields.
func NewNetAddress(addr *net.TCPAddr, services ServiceFlag) *NetAddress {
	return NewNetAddressIPPort(addr.IP, uint16(addr.Port), services)
}

// readNetAddress reads an encoding of a network address from r depending on
// the protocol version and whether or not the timestamp is included per ts.
// Some messages like the version message do not include the timestamp.
func readNetAddress(op string, r io.Reader, pver uint32, na *NetAddress, ts bool) error {
	var ip [16]byte

	if ts {
		var stamp uint32Time
		err := readElement(r, &stamp)
		if err != nil {
			return err
		}
		na.Timestamp = time.Time(stamp)
	}

	err := readElements(r, &na.Services, &ip)
	if err != nil {
		return err
	}

	// The port is encoded in big endian.
	port, err := binarySerializer.Uint16(r, bigEndian)
	if err != nil {
		return err
	}

	na.IP = net.IP(ip[:])
	na.Port = port
	return nil
}

// writeNetAddress serializes a network address to w depending on the protocol
// version and whether or not the timestamp is included per ts.  Some messages
// like the version message do not include the timestamp.
func writeNetAddress(op string, w io.Writer, pver uint32, na *NetAddress, ts bool) error {
	if ts {
		err := writeElement(w, uint32(na.Timestamp.Unix()))
		if err != nil {
			return err
		}
	}

	// Ensure to always write 16 bytes even if the ip is nil.
	var ip [16]byte
	if na.IP != nil {
		copy(ip[:], na.IP.To16())
	}
	err := writeElements(w, na.Services, ip)
	if err != nil {
		return err
	}

	// The port is encoded in big endian.
	return binarySerializer.PutUint16(w, bigEndian, na.Port)
}
