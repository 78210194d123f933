// Copyright (c) 2021 The Decred developers
// Copyright (c) 2024-2026 The Mariacoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/hex"
	"errors"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
)

// TestAddrV2 tests the MsgAddrV2 API.
func TestAddrV2(t *testing.T) {
	pver := ProtocolVersion

	// Ensure the command is expected value.
	wantCmd := "addrv2"
	msg := NewMsgAddrV2()
	if cmd := msg.Command(); cmd != wantCmd {
		t.Errorf("NewMsgAddrV2: wrong command - got %v want %v",
			cmd, wantCmd)
	}

	// Ensure max payload is expected value for latest protocol version.
	wantPayload := uint32(VarIntSerializeSize(MaxAddrV2PerMsg)) +
		MaxAddrV2PerMsg*maxNetAddressV2Payload(pver)
	maxPayload := msg.MaxPayloadLength(pver)
	if maxPayload != wantPayload {
		t.Errorf("MaxPayloadLength: wrong max payload length for "+
			"protocol version %d - got %v, want %v", pver,
			maxPayload, wantPayload)
	}

	// Ensure NetAddressV2s are added properly.
	na := NewNetAddressV2(time.Unix(0x495fab29, 0), SFNodeNetwork,
		IPv4Address, []byte{127, 0, 0, 1}, 47773)
	err := msg.AddAddress(na)
	if err != nil {
		t.Errorf("AddAddress: %v", err)
	}
	if msg.AddrList[0] != na {
		t.Errorf("AddAddress: wrong address added - got %v, want %v",
			spew.Sprint(msg.AddrList[0]), spew.Sprint(na))
	}

	// Ensure the address list is cleared properly.
	msg.ClearAddresses()
	if len(msg.AddrList) != 0 {
		t.Errorf("ClearAddresses: address list is not empty - "+
			"got %v, want 0", len(msg.AddrList))
	}

	// Ensure adding more than the max allowed addresses per message returns
	// error.
	for i := 0; i < MaxAddrV2PerMsg+1; i++ {
		err = msg.AddAddress(na)
	}
	if !errors.Is(err, ErrTooManyAddrs) {
		t.Errorf("AddAddress: expected error on too many addresses " +
			"not received")
	}
}

// selfDescribingAddrFixtureEntries returns the three loopback address entries
// that the self-describing addr serialization fixture encodes.
func selfDescribingAddrFixtureEntries() []*NetAddressV2 {
	loopback := []byte{
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01,
	}
	return []*NetAddressV2{
		{
			Timestamp: time.Unix(0x4966bc61, 0),
			Services:  0,
			Type:      IPv6Address,
			IP:        loopback,
			Port:      0,
		},
		{
			Timestamp: time.Unix(0x83766279, 0),
			Services:  SFNodeNetwork,
			Type:      IPv6Address,
			IP:        loopback,
			Port:      0x00f1,
		},
		{
			Timestamp: time.Unix(0xffffffff, 0),
			Services:  SFNodeBloom,
			Type:      IPv6Address,
			IP:        loopback,
			Port:      0xf1f2,
		},
	}
}

// selfDescribingAddrFixtureHex is the known-good serialization of the three
// entries returned by selfDescribingAddrFixtureEntries in the self-describing
// format.
const selfDescribingAddrFixtureHex = "03" +
	"61bc6649" +
	"00" +
	"02" +
	"10" +
	"00000000000000000000000000000001" +
	"0000" +
	"79627683" +
	"01" +
	"02" +
	"10" +
	"00000000000000000000000000000001" +
	"00f1" +
	"ffffffff" +
	"04" +
	"02" +
	"10" +
	"00000000000000000000000000000001" +
	"f1f2"

// TestAddrV2WireFixture tests the MsgAddrV2 wire encode and decode against
// the known-good serialization to ensure cross-implementation compatibility.
func TestAddrV2WireFixture(t *testing.T) {
	wantBytes, err := hex.DecodeString(selfDescribingAddrFixtureHex)
	if err != nil {
		t.Fatalf("invalid fixture: %v", err)
	}

	// Encode the message and ensure it matches the fixture exactly.
	msg := NewMsgAddrV2()
	err = msg.AddAddresses(selfDescribingAddrFixtureEntries()...)
	if err != nil {
		t.Fatalf("AddAddresses: %v", err)
	}
	var buf bytes.Buffer
	err = msg.BtcEncode(&buf, ProtocolVersion)
	if err != nil {
		t.Fatalf("BtcEncode: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), wantBytes) {
		t.Fatalf("BtcEncode: serialization mismatch -\n got: %s\nwant: %s",
			spew.Sdump(buf.Bytes()), spew.Sdump(wantBytes))
	}

	// Decode the fixture and ensure the entries match.
	var decoded MsgAddrV2
	rbuf := bytes.NewReader(wantBytes)
	err = decoded.BtcDecode(rbuf, ProtocolVersion)
	if err != nil {
		t.Fatalf("BtcDecode: %v", err)
	}
	want := selfDescribingAddrFixtureEntries()
	if len(decoded.AddrList) != len(want) {
		t.Fatalf("BtcDecode: wrong number of addresses - got %d, "+
			"want %d", len(decoded.AddrList), len(want))
	}
	for i, na := range decoded.AddrList {
		if !na.Timestamp.Equal(want[i].Timestamp) {
			t.Errorf("entry %d: wrong timestamp - got %v, want %v",
				i, na.Timestamp, want[i].Timestamp)
		}
		if na.Services != want[i].Services {
			t.Errorf("entry %d: wrong services - got %v, want %v",
				i, na.Services, want[i].Services)
		}
		if na.Type != want[i].Type {
			t.Errorf("entry %d: wrong network type - got %v, want %v",
				i, na.Type, want[i].Type)
		}
		if !bytes.Equal(na.IP, want[i].IP) {
			t.Errorf("entry %d: wrong address - got %x, want %x",
				i, na.IP, want[i].IP)
		}
		if na.Port != want[i].Port {
			t.Errorf("entry %d: wrong port - got %v, want %v",
				i, na.Port, want[i].Port)
		}
	}
}

// TestAddrV2Wire tests the MsgAddrV2 wire encode and decode for various
// address networks, including unknown ones.
func TestAddrV2Wire(t *testing.T) {
	pver := ProtocolVersion

	// Address with an unknown network id must round-trip opaquely.
	unknownNet := NewMsgAddrV2()
	unknownNet.AddAddresses(&NetAddressV2{
		Timestamp: time.Unix(0x495fab29, 0),
		Services:  SFNodeNetwork,
		Type:      NetAddressType(7),
		IP:        []byte{0xab, 0xcd, 0xef},
		Port:      47773,
	})
	unknownNetEncoded := []byte{
		0x01,                   // Varint for number of addresses
		0x29, 0xab, 0x5f, 0x49, // Timestamp
		0x01,             // Varint services (SFNodeNetwork)
		0x07,             // Unknown network id
		0x03,             // Varint address length
		0xab, 0xcd, 0xef, // Opaque address bytes
		0xba, 0x9d, // Port 47773 in big-endian
	}

	// IPv4 address.
	ipv4 := NewMsgAddrV2()
	ipv4.AddAddresses(&NetAddressV2{
		Timestamp: time.Unix(0x495fab29, 0),
		Services:  SFNodeNetwork,
		Type:      IPv4Address,
		IP:        []byte{127, 0, 0, 1},
		Port:      47773,
	})
	ipv4Encoded := []byte{
		0x01,                   // Varint for number of addresses
		0x29, 0xab, 0x5f, 0x49, // Timestamp
		0x01,                   // Varint services (SFNodeNetwork)
		0x01,                   // IPv4 network id
		0x04,                   // Varint address length
		0x7f, 0x00, 0x00, 0x01, // IP 127.0.0.1
		0xba, 0x9d, // Port 47773 in big-endian
	}

	// Onion address.
	onion := NewMsgAddrV2()
	onion.AddAddresses(&NetAddressV2{
		Timestamp: time.Unix(0x495fab29, 0),
		Services:  0,
		Type:      TorAddress,
		IP: []byte{
			0xed, 0x65, 0x10, 0x23, 0x19, 0x56, 0x46, 0x4c,
			0xa5, 0x0a,
		},
		Port: 9050,
	})
	onionEncoded := []byte{
		0x01,                   // Varint for number of addresses
		0x29, 0xab, 0x5f, 0x49, // Timestamp
		0x00, // Varint services
		0x03, // Onion network id
		0x0a, // Varint address length
		0xed, 0x65, 0x10, 0x23, 0x19, 0x56, 0x46, 0x4c,
		0xa5, 0x0a, // Onion identity
		0x23, 0x5a, // Port 9050 in big-endian
	}

	tests := []struct {
		in   *MsgAddrV2 // Message to encode
		out  *MsgAddrV2 // Expected decoded message
		buf  []byte     // Wire encoding
		pver uint32     // Protocol version for wire encoding
	}{
		{unknownNet, unknownNet, unknownNetEncoded, pver},
		{ipv4, ipv4, ipv4Encoded, pver},
		{onion, onion, onionEncoded, pver},
	}

	t.Logf("Running %d tests", len(tests))
	for i, test := range tests {
		// Encode the message to wire format.
		var buf bytes.Buffer
		err := test.in.BtcEncode(&buf, test.pver)
		if err != nil {
			t.Errorf("BtcEncode #%d error %v", i, err)
			continue
		}
		if !bytes.Equal(buf.Bytes(), test.buf) {
			t.Errorf("BtcEncode #%d\n got: %s want: %s", i,
				spew.Sdump(buf.Bytes()), spew.Sdump(test.buf))
			continue
		}

		// Decode the message from wire format.
		var msg MsgAddrV2
		rbuf := bytes.NewReader(test.buf)
		err = msg.BtcDecode(rbuf, test.pver)
		if err != nil {
			t.Errorf("BtcDecode #%d error %v", i, err)
			continue
		}
		if !reflect.DeepEqual(&msg, test.out) {
			t.Errorf("BtcDecode #%d\n got: %s want: %s", i,
				spew.Sdump(msg), spew.Sdump(test.out))
			continue
		}
	}
}

// TestAddrV2WireErrors performs negative tests against the MsgAddrV2 wire
// encode and decode to confirm error paths work correctly.
func TestAddrV2WireErrors(t *testing.T) {
	pver := ProtocolVersion
	oldPver := AddrV2Version - 1

	na := &NetAddressV2{
		Timestamp: time.Unix(0x495fab29, 0),
		Services:  SFNodeNetwork,
		Type:      IPv4Address,
		IP:        []byte{127, 0, 0, 1},
		Port:      47773,
	}
	baseAddrV2 := NewMsgAddrV2()
	baseAddrV2.AddAddresses(na)
	baseAddrV2Encoded := []byte{
		0x01,                   // Varint for number of addresses
		0x29, 0xab, 0x5f, 0x49, // Timestamp
		0x01,                   // Varint services (SFNodeNetwork)
		0x01,                   // IPv4 network id
		0x04,                   // Varint address length
		0x7f, 0x00, 0x00, 0x01, // IP 127.0.0.1
		0xba, 0x9d, // Port 47773 in big-endian
	}

	// Address with the wrong length for its claimed network id.
	badLenAddrV2 := NewMsgAddrV2()
	badLenAddrV2.AddAddresses(&NetAddressV2{
		Timestamp: time.Unix(0x495fab29, 0),
		Services:  SFNodeNetwork,
		Type:      IPv4Address,
		IP:        []byte{127, 0, 0, 1, 0},
		Port:      47773,
	})
	badLenAddrV2Encoded := []byte{
		0x01,                   // Varint for number of addresses
		0x29, 0xab, 0x5f, 0x49, // Timestamp
		0x01,                         // Varint services (SFNodeNetwork)
		0x01,                         // IPv4 network id
		0x05,                         // Varint address length (invalid)
		0x7f, 0x00, 0x00, 0x01, 0x00, // 5 address bytes
		0xba, 0x9d, // Port 47773 in big-endian
	}

	// Address with an unknown network id and an excessive length.
	hugeOpaqueEncoded := []byte{
		0x01,                   // Varint for number of addresses
		0x29, 0xab, 0x5f, 0x49, // Timestamp
		0x01,             // Varint services (SFNodeNetwork)
		0x07,             // Unknown network id
		0xfd, 0x01, 0x02, // Varint address length (513)
	}

	// Message that forces an error by having more than the max allowed
	// addresses.
	maxAddrV2Encoded := []byte{
		0xfd, 0xe9, 0x03, // Varint for number of addresses (1001)
	}

	tests := []struct {
		in       *MsgAddrV2 // Value to encode
		buf      []byte     // Wire encoding
		pver     uint32     // Protocol version for wire encoding
		max      int        // Max size of fixed buffer to induce errors
		writeErr error      // Expected write error
		readErr  error      // Expected read error
	}{
		// Message rejected for protocol versions before it existed.
		{
			baseAddrV2, baseAddrV2Encoded, oldPver,
			len(baseAddrV2Encoded), ErrMsgInvalidForPVer,
			ErrMsgInvalidForPVer,
		},
		// Force error in addresses count.
		{baseAddrV2, baseAddrV2Encoded, pver, 0, io.ErrShortWrite, io.EOF},
		// Force error in address list.
		{baseAddrV2, baseAddrV2Encoded, pver, 1, io.ErrShortWrite, io.EOF},
		// Invalid address length for a known network id.
		{
			badLenAddrV2, badLenAddrV2Encoded, pver,
			len(badLenAddrV2Encoded), ErrInvalidAddressLength,
			ErrInvalidAddressLength,
		},
		// Excessive address length for an unknown network id.
		{
			nil, hugeOpaqueEncoded, pver, len(hugeOpaqueEncoded),
			nil, ErrInvalidAddressLength,
		},
		// Force error with greater than max addresses.
		{nil, maxAddrV2Encoded, pver, 3, nil, ErrTooManyAddrs},
	}

	t.Logf("Running %d tests", len(tests))
	for i, test := range tests {
		// Encode to wire format.
		if test.in != nil {
			w := newFixedWriter(test.max)
			err := test.in.BtcEncode(w, test.pver)
			if !errors.Is(err, test.writeErr) {
				t.Errorf("BtcEncode #%d wrong error got: %v, "+
					"want: %v", i, err, test.writeErr)
				continue
			}
		}

		// Decode from wire format.
		var msg MsgAddrV2
		r := newFixedReader(test.max, test.buf)
		err := msg.BtcDecode(r, test.pver)
		if !errors.Is(err, test.readErr) {
			t.Errorf("BtcDecode #%d wrong error got: %v, want: %v",
				i, err, test.readErr)
			continue
		}
	}
}
