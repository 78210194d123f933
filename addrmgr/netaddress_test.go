// Copyright (c) 2021-2025 The Decred developers
// Copyright (c) 2024-2026 The Mariacoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addrmgr

import (
	"bytes"
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/TheRetroMike/mariacoin/wire"
)

var (
	onionAddress = "5wyqrzbvrdsumnok.onion"

	// onionAddressBytes is the unified 16-byte form of onionAddress: the
	// onioncat prefix followed by the base32 decode of the service
	// identifier.
	onionAddressBytes = []byte{
		0xfd, 0x87, 0xd8, 0x7e, 0xeb, 0x43, 0xed, 0xb1,
		0x08, 0xe4, 0x35, 0x88, 0xe5, 0x46, 0x35, 0xca,
	}
)

// TestKey verifies that Key converts a network address to an expected string
// value.
func TestKey(t *testing.T) {
	tests := []struct {
		host string
		port uint16
		want string
	}{
		// IPv4
		{host: "127.0.0.1", port: 47773, want: "127.0.0.1:47773"},
		{host: "10.1.1.1", port: 47774, want: "10.1.1.1:47774"},
		{host: "192.168.192.192", port: 47775, want: "192.168.192.192:47775"},
		{host: "1.0.0.1", port: 47776, want: "1.0.0.1:47776"},

		// IPv4-mapped IPv6 collapses to plain IPv4.
		{host: "::ffff:127.0.0.1", port: 47773, want: "127.0.0.1:47773"},

		// IPv6
		{host: "::1", port: 47773, want: "[::1]:47773"},
		{host: "fe80::1", port: 47774, want: "[fe80::1]:47774"},
		{host: "2001:470::1", port: 47775, want: "[2001:470::1]:47775"},

		// Onion, both as a host name and as its onioncat literal.
		{host: onionAddress, port: 47773, want: onionAddress + ":47773"},
		{
			host: "fd87:d87e:eb43:edb1:8e4:3588:e546:35ca",
			port: 47773,
			want: onionAddress + ":47773",
		},
	}

	for _, test := range tests {
		addrType, addrBytes := EncodeHost(test.host)

		netAddr, err := NewNetAddressFromParams(addrType, addrBytes,
			test.port, time.Now(), wire.SFNodeNetwork)
		if err != nil {
			t.Fatalf("failed to construct net address from host %q: %v",
				test.host, err)
		}

		key := netAddr.Key()
		if key != test.want {
			t.Errorf("unexpected network address key -- got %q, want %q",
				key, test.want)
			continue
		}
	}
}

// TestEncodeHost verifies host string classification, including the
// requirement that a string with an embedded NUL fails even when a prefix of
// it would parse.
func TestEncodeHost(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		wantType NetAddressType
	}{
		{name: "ipv4", host: "11.12.13.14", wantType: IPv4Address},
		{name: "ipv6", host: "2002:cb0a:3cdd:1::1", wantType: IPv6Address},
		{name: "onion host", host: onionAddress, wantType: OnionAddress},
		{
			name:     "onioncat literal",
			host:     "fd87:d87e:eb43:edb1:8e4:3588:e546:35ca",
			wantType: OnionAddress,
		},
		{
			name:     "internal prefix literal rejected",
			host:     "fd6b:88c0:8724:1:2:3:4:5",
			wantType: UnknownAddressType,
		},
		{name: "empty", host: "", wantType: UnknownAddressType},
		{name: "not an address", host: "aaaaaaaaaaaaaaaa", wantType: UnknownAddressType},
		{name: "wrong onion suffix", host: ".noonion", wantType: UnknownAddressType},
		{
			name:     "onion service id with bad base32",
			host:     "0000000000000000.onion",
			wantType: UnknownAddressType,
		},
		{
			name:     "onion service id too short",
			host:     "wyqrzbvrdsumnok.onion",
			wantType: UnknownAddressType,
		},
		{name: "embedded nul in ipv4", host: "1.2.3.4\x00example.com", wantType: UnknownAddressType},
		{name: "leading nul", host: "\x001.2.3.4", wantType: UnknownAddressType},
		{
			name:     "embedded nul in ipv6",
			host:     "2001:db8::1\x005wyqrzbvrdsumnok.onion",
			wantType: UnknownAddressType,
		},
	}

	for _, test := range tests {
		gotType, gotBytes := EncodeHost(test.host)
		if gotType != test.wantType {
			t.Errorf("%q: unexpected address type -- got %v, want %v",
				test.name, gotType, test.wantType)
			continue
		}
		if gotType == UnknownAddressType && gotBytes != nil {
			t.Errorf("%q: expected nil bytes for unknown type, got %x",
				test.name, gotBytes)
		}
	}
}

// TestOnionEquality ensures an onion host name and its corresponding onioncat
// literal produce the same address with the same classification results.
func TestOnionEquality(t *testing.T) {
	fromHost, fromHostBytes := EncodeHost(onionAddress)
	fromLiteral, fromLiteralBytes := EncodeHost("fd87:d87e:eb43:edb1:8e4:3588:e546:35ca")

	if fromHost != OnionAddress || fromLiteral != OnionAddress {
		t.Fatalf("expected both forms to classify as onion -- got %v and %v",
			fromHost, fromLiteral)
	}
	if !bytes.Equal(fromHostBytes, fromLiteralBytes) {
		t.Fatalf("mismatched onion bytes -- got %x and %x", fromHostBytes,
			fromLiteralBytes)
	}
	if !bytes.Equal(fromHostBytes, onionAddressBytes) {
		t.Fatalf("unexpected onion bytes -- got %x, want %x", fromHostBytes,
			onionAddressBytes)
	}

	netAddr, err := NewNetAddressFromParams(OnionAddress, fromHostBytes, 9050,
		time.Now(), wire.SFNodeNetwork)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !netAddr.IsOnion() {
		t.Fatal("expected IsOnion to report true")
	}
	if !netAddr.IsRoutable() {
		t.Fatal("expected onion address to be routable")
	}
	if netAddr.IsLocal() {
		t.Fatal("expected onion address to not be local")
	}
	if netAddr.ipString() != onionAddress {
		t.Fatalf("unexpected rendering -- got %q, want %q",
			netAddr.ipString(), onionAddress)
	}
}

// TestGroupKey ensures the group keys used for peer diversity bucketing match
// the expected values for every network and transition range.
func TestGroupKey(t *testing.T) {
	tests := []struct {
		name string
		host string
		want []byte
	}{
		// Non-routable addresses all bucket to the single constant key.
		{name: "loopback", host: "127.0.0.1", want: []byte{0}},
		{name: "unspecified v4", host: "0.0.0.0", want: []byte{0}},
		{name: "broadcast", host: "255.255.255.255", want: []byte{0}},
		{name: "rfc1918", host: "192.168.1.1", want: []byte{0}},
		{name: "rfc3927", host: "169.254.250.120", want: []byte{0}},
		{name: "unspecified v6", host: "::", want: []byte{0}},
		{name: "loopback v6", host: "::1", want: []byte{0}},

		// Routable IPv4 groups by /16.
		{name: "ipv4", host: "1.2.3.4", want: []byte{1, 1, 2}},
		{name: "ipv4 other", host: "1.2.4.4", want: []byte{1, 1, 2}},

		// Every transition encoding of the same embedded IPv4 address
		// lands in the same group as the address itself.
		{name: "ipv4-mapped", host: "::ffff:1.2.3.4", want: []byte{1, 1, 2}},
		{name: "rfc6145", host: "::ffff:0:102:304", want: []byte{1, 1, 2}},
		{name: "nat64", host: "64:ff9b::102:304", want: []byte{1, 1, 2}},
		{
			name: "6to4",
			host: "2002:102:304:9999:9999:9999:9999:9999",
			want: []byte{1, 1, 2},
		},
		{
			name: "teredo",
			host: "2001:0:9999:9999:9999:9999:fefd:fcfb",
			want: []byte{1, 1, 2},
		},

		// Native IPv6 groups by /32.
		{
			name: "ipv6",
			host: "2001:2001:9999:9999:9999:9999:9999:9999",
			want: []byte{2, 0x20, 0x01, 0x20, 0x01},
		},

		// The he.net tunnel broker range groups by /36, with the
		// trailing bits of the partial byte forced to one.
		{
			name: "he.net",
			host: "2001:470:abcd:9999:ccc:ffff:ffff:ffff",
			want: []byte{2, 0x20, 0x01, 0x04, 0x70, 0xaf},
		},

		// Onion groups by the first four bits of the key hash.
		{name: "onion", host: onionAddress, want: []byte{3, 0xef}},
	}

	for _, test := range tests {
		addrType, addrBytes := EncodeHost(test.host)
		netAddr, err := NewNetAddressFromParams(addrType, addrBytes, 0,
			time.Now(), wire.SFNodeNetwork)
		if err != nil {
			t.Fatalf("%q: failed to construct net address: %v",
				test.name, err)
		}

		got := netAddr.GroupKey(nil)
		if !bytes.Equal(got, test.want) {
			t.Errorf("%q: unexpected group key -- got %x, want %x",
				test.name, got, test.want)
		}
	}
}

// fakeASMapper maps every address to a fixed autonomous system number.
type fakeASMapper struct {
	asn uint32
}

func (m *fakeASMapper) ASN(netIP net.IP) uint32 {
	return m.asn
}

// TestGroupKeyASMap ensures that supplying an autonomous system mapper only
// changes the grouping of native IPv6 addresses, and that a mapper with no
// mapping falls back to the prefix rules.
func TestGroupKeyASMap(t *testing.T) {
	mapper := &fakeASMapper{asn: 0x11223344}

	addrType, addrBytes := EncodeHost("2001:2001:9999:9999:9999:9999:9999:9999")
	v6Addr, err := NewNetAddressFromParams(addrType, addrBytes, 0, time.Now(),
		wire.SFNodeNetwork)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []byte{2, 0x11, 0x22, 0x33, 0x44}
	if got := v6Addr.GroupKey(mapper); !bytes.Equal(got, want) {
		t.Fatalf("unexpected mapped group key -- got %x, want %x", got, want)
	}

	// A mapper without a mapping falls back to the prefix rules.
	empty := &fakeASMapper{}
	want = []byte{2, 0x20, 0x01, 0x20, 0x01}
	if got := v6Addr.GroupKey(empty); !bytes.Equal(got, want) {
		t.Fatalf("unexpected fallback group key -- got %x, want %x", got, want)
	}

	// IPv4 grouping ignores the mapper entirely.
	addrType, addrBytes = EncodeHost("1.2.3.4")
	v4Addr, err := NewNetAddressFromParams(addrType, addrBytes, 0, time.Now(),
		wire.SFNodeNetwork)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want = []byte{1, 1, 2}
	if got := v4Addr.GroupKey(mapper); !bytes.Equal(got, want) {
		t.Fatalf("unexpected ipv4 group key -- got %x, want %x", got, want)
	}
}

// TestInternalLabel verifies internal placeholder address derivation along
// with the classification and grouping behavior of the resulting address.
func TestInternalLabel(t *testing.T) {
	netAddr := NewNetAddressFromInternalLabel("baz.net")

	// First 6 bytes are the internal prefix, the rest are the leading
	// bytes of sha256("baz.net").
	wantIP := []byte{
		0xfd, 0x6b, 0x88, 0xc0, 0x87, 0x24, 0x12, 0x92,
		0x94, 0x00, 0xeb, 0x46, 0x07, 0xc4, 0xac, 0x07,
	}
	if !bytes.Equal(netAddr.IP, wantIP) {
		t.Fatalf("unexpected internal address bytes -- got %x, want %x",
			netAddr.IP, wantIP)
	}
	if !netAddr.IsInternal() {
		t.Fatal("expected IsInternal to report true")
	}
	if netAddr.IsRoutable() {
		t.Fatal("expected internal address to not be routable")
	}
	if !netAddr.IsValid() {
		t.Fatal("expected internal address to be valid")
	}

	// Derivation is deterministic.
	again := NewNetAddressFromInternalLabel("baz.net")
	if !bytes.Equal(netAddr.IP, again.IP) {
		t.Fatalf("internal address derivation is not deterministic -- "+
			"got %x and %x", netAddr.IP, again.IP)
	}

	// Internal addresses group by their full hash payload.
	wantGroup := append([]byte{byte(InternalAddress)}, wantIP[6:]...)
	if got := netAddr.GroupKey(nil); !bytes.Equal(got, wantGroup) {
		t.Fatalf("unexpected internal group key -- got %x, want %x", got,
			wantGroup)
	}
}

// TestValidateMasternodeAddress ensures only routable IPv4, IPv6, and onion
// hosts are accepted as masternode endpoints.
func TestValidateMasternodeAddress(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{host: "11.12.13.14", want: true},
		{host: "2002:cb0a:3cdd:1::1", want: true},
		{host: "2001:2:6c::430", want: true},
		{host: onionAddress, want: true},
		{host: "FD87:D87E:EB43:edb1:8e4:3588:e546:35ca", want: true},

		{host: "192.168.1.1", want: false},
		{host: "10.0.0.1", want: false},
		{host: "127.0.0.1", want: false},
		{host: "255.255.255.255", want: false},
		{host: "0.0.0.0", want: false},
		{host: "::", want: false},
		{host: "fe80::1", want: false},
		{host: "", want: false},
		{host: "aaaa", want: false},
		{host: ".noonion", want: false},
		{host: "1.2.3.4\x00example.com", want: false},
	}

	for _, test := range tests {
		if got := ValidateMasternodeAddress(test.host); got != test.want {
			t.Errorf("%q: unexpected result -- got %v, want %v",
				test.host, got, test.want)
		}
	}
}

// TestSplitHostPort ensures optional-port host splitting handles bracketed
// addresses, bare IPv6 addresses, and missing ports.
func TestSplitHostPort(t *testing.T) {
	tests := []struct {
		in       string
		wantHost string
		wantPort int
	}{
		{in: "www.bitcoin.org:8333", wantHost: "www.bitcoin.org", wantPort: 8333},
		{in: "www.bitcoin.org", wantHost: "www.bitcoin.org", wantPort: -1},
		{in: "[::ffff:127.0.0.1]:47773", wantHost: "::ffff:127.0.0.1", wantPort: 47773},
		{in: ":47773", wantHost: "", wantPort: 47773},
		{in: "[]:47773", wantHost: "", wantPort: 47773},
		{in: "127.0.0.1:47773", wantHost: "127.0.0.1", wantPort: 47773},
		{in: "127.0.0.1", wantHost: "127.0.0.1", wantPort: -1},
		{in: "[::1]:47773", wantHost: "::1", wantPort: 47773},
		{in: "[::1]", wantHost: "::1", wantPort: -1},

		// A bare IPv6 address never has its trailing group mistaken for
		// a port.
		{in: "::47773", wantHost: "::47773", wantPort: -1},
		{in: "::1", wantHost: "::1", wantPort: -1},

		// Out of range or malformed ports are not split off.
		{in: "127.0.0.1:badport", wantHost: "127.0.0.1:badport", wantPort: -1},
		{in: "127.0.0.1:99999", wantHost: "127.0.0.1:99999", wantPort: -1},
	}

	for _, test := range tests {
		gotHost, gotPort := SplitHostPort(test.in)
		if gotHost != test.wantHost || gotPort != test.wantPort {
			t.Errorf("%q: unexpected split -- got (%q, %d), want (%q, %d)",
				test.in, gotHost, gotPort, test.wantHost, test.wantPort)
		}
	}
}

// TestClone verifies that a new instance of the network address struct is
// created when cloned.
func TestClone(t *testing.T) {
	const port = 0
	netAddr := NewNetAddressFromIPPort(net.ParseIP("1.2.3.4"), port, wire.SFNodeNetwork)
	netAddrClone := netAddr.Clone()

	if netAddr == netAddrClone {
		t.Fatal("expected new network address reference")
	}
	if !reflect.DeepEqual(netAddr, netAddrClone) {
		t.Fatalf("unexpected clone result -- got %v, want %v",
			netAddrClone, netAddr)
	}
}

// TestAddService verifies that the service flag is set as expected on a
// network address instance.
func TestAddService(t *testing.T) {
	const port = 0
	netAddr := NewNetAddressFromIPPort(net.ParseIP("1.2.3.4"), port, wire.SFNodeNetwork)
	netAddr.AddService(wire.SFNodeBloom)

	wantServices := wire.SFNodeNetwork | wire.SFNodeBloom
	if netAddr.Services != wantServices {
		t.Fatalf("expected service flags to be set -- got %x, want %x",
			netAddr.Services, wantServices)
	}
	if !netAddr.HasService(wire.SFNodeBloom) {
		t.Fatal("expected HasService to report the added flag")
	}
}

// TestNewNetAddressFromParams verifies that the NewNetAddressFromParams
// constructor correctly creates a network address with expected field values.
func TestNewNetAddressFromParams(t *testing.T) {
	const port = 47773
	const services = wire.SFNodeNetwork
	timestamp := time.Unix(time.Now().Unix(), 0)

	tests := []struct {
		name          string
		addrType      NetAddressType
		addrBytes     []byte
		want          *NetAddress
		errorExpected bool
	}{{
		name:      "4 byte ipv4 address stored as 4 byte ip",
		addrType:  IPv4Address,
		addrBytes: net.ParseIP("127.0.0.1").To4(),
		want: &NetAddress{
			IP:        []byte{0x7f, 0x00, 0x00, 0x01},
			Port:      port,
			Services:  services,
			Timestamp: timestamp,
			Type:      IPv4Address,
		},
	}, {
		name:      "16 byte ipv4 address stored as 4 byte ip",
		addrType:  IPv4Address,
		addrBytes: net.ParseIP("127.0.0.1").To16(),
		want: &NetAddress{
			IP:        []byte{0x7f, 0x00, 0x00, 0x01},
			Port:      port,
			Services:  services,
			Timestamp: timestamp,
			Type:      IPv4Address,
		},
	}, {
		name:      "16 byte ipv6 address stored in 16 bytes",
		addrType:  IPv6Address,
		addrBytes: net.ParseIP("::1"),
		want: &NetAddress{
			IP: []byte{
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01},
			Port:      port,
			Services:  services,
			Timestamp: timestamp,
			Type:      IPv6Address,
		},
	}, {
		name:      "onion address stored in unified 16 byte form",
		addrType:  OnionAddress,
		addrBytes: onionAddressBytes,
		want: &NetAddress{
			IP:        onionAddressBytes,
			Port:      port,
			Services:  services,
			Timestamp: timestamp,
			Type:      OnionAddress,
		},
	}, {
		name:          "Error: cannot derive net address type",
		addrType:      UnknownAddressType,
		addrBytes:     []byte{0x01, 0x02, 0x03},
		want:          nil,
		errorExpected: true,
	}, {
		name:          "Error: the provided type doesn't match the bytes",
		addrType:      IPv6Address,
		addrBytes:     net.ParseIP("127.0.0.1").To4(),
		want:          nil,
		errorExpected: true,
	}, {
		name:          "Error: no address bytes were provided",
		addrType:      UnknownAddressType,
		addrBytes:     nil,
		want:          nil,
		errorExpected: true,
	}}

	for _, test := range tests {
		addr, err := NewNetAddressFromParams(test.addrType, test.addrBytes,
			port, timestamp, services)
		if err != nil && !test.errorExpected {
			t.Fatalf("%q: unexpected error - %v", test.name, err)
		}
		if !reflect.DeepEqual(addr, test.want) {
			t.Errorf("%q: mismatched entries\ngot  %+v\nwant %+v", test.name,
				addr, test.want)
		}
	}
}

// TestWireConversion ensures converting between the managed address form and
// both wire encodings preserves the network type and address bytes, and that
// unrepresentable addresses degrade to the documented placeholder in the
// legacy encoding.
func TestWireConversion(t *testing.T) {
	timestamp := time.Unix(time.Now().Unix(), 0)

	// Onion addresses survive a legacy round trip via the onioncat form.
	onionType, onionBytes := EncodeHost(onionAddress)
	onionAddr, err := NewNetAddressFromParams(onionType, onionBytes, 9050,
		timestamp, wire.SFNodeNetwork)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	legacy := onionAddr.ToLegacyWire()
	if !legacy.IP.Equal(net.IP(onionAddressBytes)) {
		t.Fatalf("unexpected legacy encoding -- got %v, want %x", legacy.IP,
			onionAddressBytes)
	}
	back := NewNetAddressFromLegacyWire(legacy)
	if back.Type != OnionAddress || !bytes.Equal(back.IP, onionAddr.IP) {
		t.Fatalf("legacy round trip lost the onion address -- got %v %x",
			back.Type, back.IP)
	}

	// The self-describing form carries the bare ten byte key hash.
	v2 := onionAddr.ToWireV2()
	if v2.Type != wire.TorAddress || !bytes.Equal(v2.IP, onionAddressBytes[6:]) {
		t.Fatalf("unexpected v2 encoding -- got %v %x", v2.Type, v2.IP)
	}
	back = NewNetAddressFromWireV2(v2)
	if back.Type != OnionAddress || !bytes.Equal(back.IP, onionAddr.IP) {
		t.Fatalf("v2 round trip lost the onion address -- got %v %x",
			back.Type, back.IP)
	}

	// IPv4 addresses are stored as 4 bytes in v2 but widen to the mapped
	// form in the legacy encoding.
	v4Addr := NewNetAddressFromIPPort(net.ParseIP("1.2.3.4"), 47773,
		wire.SFNodeNetwork)
	if v2 := v4Addr.ToWireV2(); v2.Type != wire.IPv4Address ||
		!bytes.Equal(v2.IP, []byte{1, 2, 3, 4}) {

		t.Fatalf("unexpected v4 v2 encoding -- got %v %x", v2.Type, v2.IP)
	}
	if legacy := v4Addr.ToLegacyWire(); !legacy.IP.Equal(net.ParseIP("1.2.3.4")) {
		t.Fatalf("unexpected v4 legacy encoding -- got %v", legacy.IP)
	}

	// Unknown relay-only addresses degrade to the all-zero placeholder in
	// the legacy encoding.
	opaque := NewNetAddressFromWireV2(wire.NewNetAddressV2(timestamp, 0,
		wire.NetAddressType(0x07), []byte{0x01, 0x02, 0x03}, 0))
	if opaque.Type != UnknownAddressType {
		t.Fatalf("expected unknown type, got %v", opaque.Type)
	}
	if opaque.IsRoutable() {
		t.Fatal("expected unknown address to not be routable")
	}
	if legacy := opaque.ToLegacyWire(); !legacy.IP.Equal(net.IPv6zero) {
		t.Fatalf("expected zero placeholder, got %v", legacy.IP)
	}
}

// TestParseNetAddressType ensures textual network names map to the expected
// network address types.
func TestParseNetAddressType(t *testing.T) {
	tests := []struct {
		in   string
		want NetAddressType
	}{
		{in: "ipv4", want: IPv4Address},
		{in: "IPv4", want: IPv4Address},
		{in: "ipv6", want: IPv6Address},
		{in: "IPv6", want: IPv6Address},
		{in: "onion", want: OnionAddress},
		{in: "tor", want: OnionAddress},
		{in: "ONION", want: OnionAddress},
		{in: "internal", want: InternalAddress},
		{in: "", want: UnknownAddressType},
		{in: ":)", want: UnknownAddressType},
		{in: "tÖr", want: UnknownAddressType},
	}

	for _, test := range tests {
		if got := ParseNetAddressType(test.in); got != test.want {
			t.Errorf("%q: unexpected type -- got %v, want %v", test.in,
				got, test.want)
		}
		if test.want != UnknownAddressType && test.want.String() == "unroutable" {
			t.Errorf("%q: known type renders as unroutable", test.in)
		}
	}
}
