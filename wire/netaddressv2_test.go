// Copyright (c) 2021 The Decred developers
// Copyright (c) 2024-2026 The Mariacoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"net"
	"testing"
	"time"
)

// TestNetAddressV2ToLegacy ensures conversion from the self-describing form
// to the legacy fixed 16-byte form produces the expected addresses.
func TestNetAddressV2ToLegacy(t *testing.T) {
	ts := time.Unix(0x495fab29, 0)
	onionID := []byte{
		0xed, 0x65, 0x10, 0x23, 0x19, 0x56, 0x46, 0x4c, 0xa5, 0x0a,
	}

	tests := []struct {
		name   string
		in     *NetAddressV2
		wantIP net.IP
	}{
		{
			name: "ipv4 maps to v4-mapped ipv6",
			in: &NetAddressV2{
				Timestamp: ts,
				Type:      IPv4Address,
				IP:        []byte{1, 2, 3, 4},
				Port:      47773,
			},
			wantIP: net.ParseIP("1.2.3.4"),
		},
		{
			name: "ipv6 passes through",
			in: &NetAddressV2{
				Timestamp: ts,
				Type:      IPv6Address,
				IP:        net.ParseIP("2001:db8::68"),
				Port:      47773,
			},
			wantIP: net.ParseIP("2001:db8::68"),
		},
		{
			name: "onion becomes onioncat",
			in: &NetAddressV2{
				Timestamp: ts,
				Type:      TorAddress,
				IP:        onionID,
				Port:      9050,
			},
			wantIP: net.ParseIP("fd87:d87e:eb43:ed65:1023:1956:464c:a50a"),
		},
		{
			name: "unknown network degrades to all-zero",
			in: &NetAddressV2{
				Timestamp: ts,
				Type:      NetAddressType(9),
				IP:        []byte{0xab, 0xcd},
				Port:      47773,
			},
			wantIP: net.IPv6zero,
		},
	}

	for _, test := range tests {
		legacy := test.in.ToLegacy()
		if !legacy.IP.Equal(test.wantIP) {
			t.Errorf("%s: wrong ip - got %v, want %v", test.name,
				legacy.IP, test.wantIP)
		}
		if legacy.Port != test.in.Port {
			t.Errorf("%s: wrong port - got %v, want %v", test.name,
				legacy.Port, test.in.Port)
		}
		if legacy.Services != test.in.Services {
			t.Errorf("%s: wrong services - got %v, want %v",
				test.name, legacy.Services, test.in.Services)
		}
	}
}

// TestNetAddressV2FromLegacy ensures conversion from the legacy fixed form
// recovers the network type from the well-known embedded prefixes.
func TestNetAddressV2FromLegacy(t *testing.T) {
	ts := time.Unix(0x495fab29, 0)

	tests := []struct {
		name     string
		ip       net.IP
		wantType NetAddressType
		wantIP   []byte
	}{
		{
			name:     "ipv4",
			ip:       net.ParseIP("1.2.3.4"),
			wantType: IPv4Address,
			wantIP:   []byte{1, 2, 3, 4},
		},
		{
			name:     "ipv6",
			ip:       net.ParseIP("2001:db8::68"),
			wantType: IPv6Address,
			wantIP:   net.ParseIP("2001:db8::68").To16(),
		},
		{
			name:     "onioncat",
			ip:       net.ParseIP("fd87:d87e:eb43:ed65:1023:1956:464c:a50a"),
			wantType: TorAddress,
			wantIP: []byte{
				0xed, 0x65, 0x10, 0x23, 0x19, 0x56, 0x46,
				0x4c, 0xa5, 0x0a,
			},
		},
		{
			name: "internal prefix",
			ip: net.IP{
				0xfd, 0x6b, 0x88, 0xc0, 0x87, 0x24, 0x12, 0x92,
				0x94, 0x00, 0xeb, 0x46, 0x07, 0xc4, 0xac, 0x07,
			},
			wantType: InternalAddress,
			wantIP: []byte{
				0xfd, 0x6b, 0x88, 0xc0, 0x87, 0x24, 0x12, 0x92,
				0x94, 0x00, 0xeb, 0x46, 0x07, 0xc4, 0xac, 0x07,
			},
		},
	}

	for _, test := range tests {
		legacy := &NetAddress{
			Timestamp: ts,
			IP:        test.ip,
			Port:      47773,
		}
		v2 := NetAddressV2FromLegacy(legacy)
		if v2.Type != test.wantType {
			t.Errorf("%s: wrong network type - got %v, want %v",
				test.name, v2.Type, test.wantType)
		}
		if !bytes.Equal(v2.IP, test.wantIP) {
			t.Errorf("%s: wrong address - got %x, want %x",
				test.name, v2.IP, test.wantIP)
		}
	}
}

// TestNetAddressV2RoundTrip ensures converting to the legacy form and back
// preserves addresses for networks with a 16-byte representation.
func TestNetAddressV2RoundTrip(t *testing.T) {
	ts := time.Unix(0x495fab29, 0)
	addrs := []*NetAddressV2{
		NewNetAddressV2(ts, SFNodeNetwork, IPv4Address,
			[]byte{10, 0, 0, 1}, 47773),
		NewNetAddressV2(ts, SFNodeNetwork, IPv6Address,
			net.ParseIP("2001:db8::1"), 47773),
		NewNetAddressV2(ts, 0, TorAddress, []byte{
			0xed, 0x65, 0x10, 0x23, 0x19, 0x56, 0x46, 0x4c,
			0xa5, 0x0a,
		}, 9050),
	}

	for i, na := range addrs {
		back := NetAddressV2FromLegacy(na.ToLegacy())
		if back.Type != na.Type {
			t.Errorf("addr %d: wrong network type - got %v, want %v",
				i, back.Type, na.Type)
		}
		if !bytes.Equal(back.IP, na.IP) &&
			!net.IP(back.IP).Equal(net.IP(na.IP)) {

			t.Errorf("addr %d: wrong address - got %x, want %x",
				i, back.IP, na.IP)
		}
		if back.Port != na.Port {
			t.Errorf("addr %d: wrong port - got %v, want %v",
				i, back.Port, na.Port)
		}
	}
}
