// Copyright (c) 2013-2014 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Copyright (c) 2024-2026 The Mariacoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package addrmgr

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/TheRetroMike/mariacoin/wire"
)

// Put some IP in here for convenience. Points to google.
var someIP = "173.194.115.66"

func lookupFunc(host string) ([]net.IP, error) {
	return nil, errors.New("not implemented")
}

// addAddressByIP is a convenience function that adds an address to the
// address manager given a valid string representation of an ip address and
// a port.
func (a *AddrManager) addAddressByIP(addr string, port uint16) {
	ip := net.ParseIP(addr)
	na := NewNetAddressFromIPPort(ip, port, 0)
	a.AddAddress(na, na)
}

// TestStartStop tests the behavior of the address manager when it is started
// and stopped.
func TestStartStop(t *testing.T) {
	dir := t.TempDir()

	// Ensure the peers file does not exist before starting the address manager.
	peersFile := filepath.Join(dir, peersFilename)
	if _, err := os.Stat(peersFile); !os.IsNotExist(err) {
		t.Fatalf("peers file exists though it should not: %s", peersFile)
	}

	amgr := New(dir, nil, nil)
	amgr.Start()

	// Add single network address to the address manager.
	amgr.addAddressByIP(someIP, 47773)

	// Stop the address manager to force the known addresses to be flushed
	// to the peers file.
	if err := amgr.Stop(); err != nil {
		t.Fatalf("address manager failed to stop: %v", err)
	}

	// Verify that the peers file has been written to.
	if _, err := os.Stat(peersFile); err != nil {
		t.Fatalf("peers file does not exist: %s", peersFile)
	}

	// Start a new address manager, which initializes it from the peers file.
	amgr = New(dir, nil, nil)
	amgr.Start()

	knownAddress := amgr.GetAddress()
	if knownAddress == nil {
		t.Fatal("address manager should contain known address")
	}

	// Verify that the known address matches what was added to the address
	// manager previously.
	wantNetAddrKey := net.JoinHostPort(someIP, "47773")
	gotNetAddrKey := knownAddress.na.Key()
	if gotNetAddrKey != wantNetAddrKey {
		t.Fatalf("address manager does not contain expected address - "+
			"got %v, want %v", gotNetAddrKey, wantNetAddrKey)
	}

	if err := amgr.Stop(); err != nil {
		t.Fatalf("address manager failed to stop: %v", err)
	}
}

func TestAddAddressUpdate(t *testing.T) {
	amgr := New(t.TempDir(), nil, nil)
	if ka := amgr.GetAddress(); ka != nil {
		t.Fatal("address manager should contain no addresses")
	}
	ip := net.ParseIP(someIP)
	if ip == nil {
		t.Fatalf("invalid IP address %s", someIP)
	}
	na := NewNetAddressFromIPPort(ip, 47773, 0)
	amgr.AddAddress(na, na)
	ka := amgr.GetAddress()
	if ka == nil {
		t.Fatal("address manager should contain newly added known address")
	}
	newlyAddedAddr := ka.NetAddress()
	if newlyAddedAddr == na {
		t.Fatal("newly added known address should have a new network address " +
			"reference, but a previously held reference was found")
	}
	if !reflect.DeepEqual(newlyAddedAddr, na) {
		t.Fatalf("address manager should contain address that was added - "+
			"got %v, want %v", newlyAddedAddr, na)
	}

	// Add the same address again, but with different timestamp to trigger
	// an update rather than an insert.
	ts := na.Timestamp.Add(time.Second)
	na.Timestamp = ts
	amgr.AddAddress(na, na)

	// The address should be in the address manager with a new timestamp.
	// The network address reference held by the known address should also
	// differ.
	updatedKnownAddress := amgr.GetAddress()
	if updatedKnownAddress == nil {
		t.Fatal("address manager should contain updated known address")
	}
	netAddrFromUpdate := updatedKnownAddress.NetAddress()
	if ka != updatedKnownAddress {
		t.Fatal("updated known address returned by the address manager " +
			"should not be a new known address reference")
	}
	if netAddrFromUpdate == newlyAddedAddr || netAddrFromUpdate == na {
		t.Fatal("updated known address should have a new network address " +
			"reference, but a previously held reference was found")
	}
	if !reflect.DeepEqual(netAddrFromUpdate, na) {
		t.Fatalf("address manager should contain address that was updated - "+
			"got %v, want %v", netAddrFromUpdate, na)
	}
	if !netAddrFromUpdate.Timestamp.Equal(ts) {
		t.Fatal("address manager did not update timestamp")
	}
}

func TestAddLocalAddress(t *testing.T) {
	var tests = []struct {
		name     string
		host     string
		priority AddressPriority
		valid    bool
	}{{
		name:     "unroutable local IPv4 address",
		host:     "192.168.0.100",
		priority: InterfacePrio,
		valid:    false,
	}, {
		name:     "routable IPv4 address",
		host:     "204.124.1.1",
		priority: InterfacePrio,
		valid:    true,
	}, {
		name:     "routable IPv4 address with bound priority",
		host:     "204.124.1.1",
		priority: BoundPrio,
		valid:    true,
	}, {
		name:     "unroutable local IPv6 address",
		host:     "::1",
		priority: InterfacePrio,
		valid:    false,
	}, {
		name:     "link-local IPv6 address",
		host:     "fe80::1",
		priority: InterfacePrio,
		valid:    false,
	}, {
		name:     "routable IPv6 address",
		host:     "2620:100::1",
		priority: InterfacePrio,
		valid:    true,
	}}

	amgr := New(t.TempDir(), nil, nil)
	validLocalAddresses := make(map[string]struct{})
	for _, test := range tests {
		netAddr := NewNetAddressFromIPPort(net.ParseIP(test.host), 0, 0)
		result := amgr.AddLocalAddress(netAddr, test.priority)
		if result == nil && !test.valid {
			t.Errorf("%q: address should not have been accepted", test.name)
			continue
		}
		if result != nil && test.valid {
			t.Errorf("%q: address should have been accepted", test.name)
			continue
		}
		if test.valid && !amgr.HasLocalAddress(netAddr) {
			t.Errorf("%q: expected to have local address", test.name)
			continue
		}
		if !test.valid && amgr.HasLocalAddress(netAddr) {
			t.Errorf("%q: expected to not have local address", test.name)
			continue
		}
		if test.valid {
			validLocalAddresses[netAddr.ipString()] = struct{}{}
		}
	}

	// Ensure that all of the addresses that were expected to be added to the
	// address manager are also returned from a call to LocalAddresses.
	for _, localAddr := range amgr.LocalAddresses() {
		if _, ok := validLocalAddresses[localAddr.Address]; !ok {
			t.Errorf("expected to find local address %v", localAddr.Address)
		}
	}
}

func TestAttempt(t *testing.T) {
	n := New(t.TempDir(), lookupFunc, nil)

	// Add a new address and get it.
	n.addAddressByIP(someIP, 47773)
	ka := n.GetAddress()

	if !ka.LastAttempt().IsZero() {
		t.Fatal("address should not have been attempted")
	}

	na := ka.NetAddress()
	err := n.Attempt(na)
	if err != nil {
		t.Fatalf("marking address as attempted failed - %v", err)
	}

	if ka.LastAttempt().IsZero() {
		t.Fatal("address should have an attempt, but does not")
	}

	// Attempt an ip not known to the address manager.
	unknownNetAddress := NewNetAddressFromIPPort(net.ParseIP("1.2.3.4"), 1234,
		wire.SFNodeNetwork)
	err = n.Attempt(unknownNetAddress)
	if !errors.Is(err, ErrAddressNotFound) {
		t.Fatalf("attempting unknown address should have returned "+
			"ErrAddressNotFound, got %v", err)
	}
}

func TestConnected(t *testing.T) {
	n := New(t.TempDir(), lookupFunc, nil)

	// Add a new address and get it
	n.addAddressByIP(someIP, 47773)
	ka := n.GetAddress()
	na := ka.NetAddress()
	// make it an hour ago
	na.Timestamp = time.Unix(time.Now().Add(time.Hour*-1).Unix(), 0)

	err := n.Connected(na)
	if err != nil {
		t.Fatalf("marking address as connected failed - %v", err)
	}

	if !ka.NetAddress().Timestamp.After(na.Timestamp) {
		t.Fatal("address should have a new timestamp, but does not")
	}

	// Attempt to flag an ip address not known to the address manager as
	// connected.
	unknownNetAddress := NewNetAddressFromIPPort(net.ParseIP("1.2.3.4"), 1234,
		wire.SFNodeNetwork)
	err = n.Connected(unknownNetAddress)
	if !errors.Is(err, ErrAddressNotFound) {
		t.Fatalf("marking unknown address as connected should have returned "+
			"ErrAddressNotFound, got %v", err)
	}
}

func TestNeedMoreAddresses(t *testing.T) {
	n := New(t.TempDir(), lookupFunc, nil)
	addrsToAdd := needAddressThreshold
	b := n.NeedMoreAddresses()
	if !b {
		t.Fatal("expected the address manager to need more addresses")
	}
	addrs := make([]*NetAddress, addrsToAdd)

	for i := 0; i < addrsToAdd; i++ {
		s := fmt.Sprintf("%d.%d.173.147", i/128+60, i%128+60)
		addrs[i] = NewNetAddressFromIPPort(net.ParseIP(s), 47773,
			wire.SFNodeNetwork)
	}

	srcAddr := NewNetAddressFromIPPort(net.IPv4(173, 144, 173, 111), 47773, 0)

	n.AddAddresses(addrs, srcAddr)
	numAddrs := n.numAddresses()
	if numAddrs > addrsToAdd {
		t.Fatalf("number of addresses is too many %d vs %d", numAddrs,
			addrsToAdd)
	}

	b = n.NeedMoreAddresses()
	if b {
		t.Fatal("expected address manager to not need more addresses")
	}
}

func TestGood(t *testing.T) {
	n := New(t.TempDir(), lookupFunc, nil)
	addrsToAdd := 64 * 64
	addrs := make([]*NetAddress, addrsToAdd)

	for i := 0; i < addrsToAdd; i++ {
		s := fmt.Sprintf("%d.173.147.%d", i/64+60, i%64+60)
		addrs[i] = NewNetAddressFromIPPort(net.ParseIP(s), 47773,
			wire.SFNodeNetwork)
	}

	srcAddr := NewNetAddressFromIPPort(net.IPv4(173, 144, 173, 111), 47773, 0)

	n.AddAddresses(addrs, srcAddr)
	for _, addr := range addrs {
		n.Good(addr)
	}

	numAddrs := n.numAddresses()
	if numAddrs >= addrsToAdd {
		t.Fatalf("Number of addresses is too many: %d vs %d", numAddrs,
			addrsToAdd)
	}

	numCache := len(n.AddressCache())
	if numCache >= numAddrs/4 {
		t.Fatalf("Number of addresses in cache: got %d, want %d", numCache,
			numAddrs/4)
	}

	// Test internal behavior of how addresses are managed between the new and
	// tried address buckets. When an address is initially added it should enter
	// the new bucket, and when marked good it should move to the tried bucket.
	// If the tried bucket is full then it should make room for the newly tried
	// address by moving the old one back to the new bucket.
	n = New(t.TempDir(), lookupFunc, nil)
	n.triedBucketSize = 1
	n.getNewBucket = func(netAddr, srcAddr *NetAddress) int {
		return 0
	}
	n.getTriedBucket = func(netAddr *NetAddress) int {
		return 0
	}

	addrA := NewNetAddressFromIPPort(net.ParseIP("173.144.173.1"), 47773, 0)
	addrB := NewNetAddressFromIPPort(net.ParseIP("173.144.173.2"), 47773, 0)
	addrAKey := addrA.Key()
	addrBKey := addrB.Key()

	// Neither address should exist in the address index prior to being
	// added to the address manager. The new and tried buckets should also be
	// empty.
	if len(n.addrIndex) > 0 {
		t.Fatal("expected address index to be empty prior to adding addresses" +
			" to the address manager")
	}
	if len(n.addrNew[0]) > 0 {
		t.Fatal("expected new bucket to be empty prior to adding addresses" +
			" to the address manager")
	}
	if len(n.addrTried[0]) > 0 {
		t.Fatal("expected tried bucket to be empty prior to adding addresses" +
			" to the address manager")
	}

	n.AddAddress(addrA, srcAddr)
	n.AddAddress(addrB, srcAddr)

	// Both addresses should exist in the address index and new bucket after
	// being added to the address manager.  The tried bucket should be empty.
	if _, exists := n.addrIndex[addrAKey]; !exists {
		t.Fatalf("expected address %s to exist in address index", addrAKey)
	}
	if _, exists := n.addrIndex[addrBKey]; !exists {
		t.Fatalf("expected address %s to exist in address index", addrBKey)
	}
	if _, exists := n.addrNew[0][addrAKey]; !exists {
		t.Fatalf("expected address %s to exist in new bucket", addrAKey)
	}
	if _, exists := n.addrNew[0][addrBKey]; !exists {
		t.Fatalf("expected address %s to exist in new bucket", addrBKey)
	}
	if len(n.addrTried[0]) > 0 {
		t.Fatal("expected tried bucket to contain no elements")
	}

	// Flagging the first address as good should move it to the tried bucket and
	// remove it from the new bucket.
	n.Good(addrA)
	if _, exists := n.addrNew[0][addrAKey]; exists {
		t.Fatalf("expected address %s to not exist in new bucket", addrAKey)
	}
	if len(n.addrTried[0]) != 1 {
		t.Fatal("expected tried bucket to contain exactly one element")
	}
	if n.addrTried[0][0].na.Key() != addrAKey {
		t.Fatalf("expected address %s to exist in tried bucket", addrAKey)
	}

	// Flagging the second address as good should cause it to move from the new
	// bucket to the tried bucket. It should also cause the first address to be
	// evicted from the tried bucket and move back to the new bucket since the
	// tried bucket has been limited in capacity to one element.
	n.Good(addrB)
	if _, exists := n.addrNew[0][addrBKey]; exists {
		t.Fatalf("expected address %s to not exist in the new bucket", addrBKey)
	}
	if len(n.addrTried[0]) != 1 {
		t.Fatalf("expected tried bucket to contain exactly one element - "+
			"got %d", len(n.addrTried[0]))
	}
	if n.addrTried[0][0].na.Key() != addrBKey {
		t.Fatalf("expected address %s to exist in tried bucket", addrBKey)
	}
	if _, exists := n.addrNew[0][addrAKey]; !exists {
		t.Fatalf("expected address %s to exist in the new bucket after being "+
			"evicted from the tried bucket", addrAKey)
	}
}

func TestGetAddress(t *testing.T) {
	n := New(t.TempDir(), lookupFunc, nil)

	// Get an address from an empty set (should error)
	if rv := n.GetAddress(); rv != nil {
		t.Fatalf("GetAddress failed - got: %v want: %v\n", rv, nil)
	}

	// Add a new address and get it
	n.addAddressByIP(someIP, 47773)
	ka := n.GetAddress()
	if ka == nil {
		t.Fatal("did not get an address where there is one in the pool")
	}

	ipStringA := ka.NetAddress().ipString()
	if ipStringA != someIP {
		t.Fatalf("unexpected ip - got %v, want %v", ipStringA, someIP)
	}

	// Mark this as a good address and get it
	err := n.Good(ka.NetAddress())
	if err != nil {
		t.Fatalf("marking address as good failed: %v", err)
	}

	ka = n.GetAddress()
	if ka == nil {
		t.Fatal("did not get an address when one was expected")
	}

	ipStringB := ka.NetAddress().ipString()
	if ipStringB != someIP {
		t.Fatalf("unexpected ip - got %v, want %v", ipStringB, someIP)
	}

	numAddrs := n.numAddresses()
	if numAddrs != 1 {
		t.Fatalf("unexpected number of addresses - got %d, want 1", numAddrs)
	}

	// Attempting to mark an unknown address as good should return an error.
	unknownNetAddress := NewNetAddressFromIPPort(net.ParseIP("1.2.3.4"), 1234,
		wire.SFNodeNetwork)
	err = n.Good(unknownNetAddress)
	if !errors.Is(err, ErrAddressNotFound) {
		t.Fatalf("marking unknown address as good should have returned "+
			"ErrAddressNotFound, got %v", err)
	}
}

// TestGetAddresses ensures the known address listing honors both the count
// limit and the network type filter.
func TestGetAddresses(t *testing.T) {
	n := New(t.TempDir(), lookupFunc, nil)

	srcAddr := NewNetAddressFromIPPort(net.IPv4(173, 144, 173, 111), 47773, 0)
	v4Hosts := []string{"60.1.2.3", "61.2.3.4", "62.3.4.5"}
	for _, host := range v4Hosts {
		n.AddAddress(NewNetAddressFromIPPort(net.ParseIP(host), 47773,
			wire.SFNodeNetwork), srcAddr)
	}

	onionType, onionBytes := EncodeHost(onionAddress)
	onionAddr, err := NewNetAddressFromParams(onionType, onionBytes, 9050,
		time.Now(), wire.SFNodeNetwork)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n.AddAddress(onionAddr, srcAddr)

	// No filter and no limit returns everything.
	all := n.GetAddresses(0, UnknownAddressType)
	if len(all) != len(v4Hosts)+1 {
		t.Fatalf("unexpected address count - got %d, want %d", len(all),
			len(v4Hosts)+1)
	}

	// The count limit is honored.
	limited := n.GetAddresses(2, UnknownAddressType)
	if len(limited) != 2 {
		t.Fatalf("unexpected limited count - got %d, want 2", len(limited))
	}

	// The network filter is honored.
	onions := n.GetAddresses(0, OnionAddress)
	if len(onions) != 1 {
		t.Fatalf("unexpected onion count - got %d, want 1", len(onions))
	}
	if !bytes.Equal(onions[0].IP, onionAddr.IP) {
		t.Fatalf("unexpected onion address - got %x, want %x", onions[0].IP,
			onionAddr.IP)
	}
	v4Only := n.GetAddresses(0, IPv4Address)
	if len(v4Only) != len(v4Hosts) {
		t.Fatalf("unexpected ipv4 count - got %d, want %d", len(v4Only),
			len(v4Hosts))
	}
}

func TestGetBestLocalAddress(t *testing.T) {
	localHosts := []string{
		"192.168.0.100",
		"::1",
		"fe80::1",
		"2001:470::1",
	}

	var tests = []struct {
		remoteHost string
		want0      string
		want1      string
		want2      string
	}{{
		// Remote connection from public IPv4
		remoteHost: "204.124.8.1",
		want0:      "0.0.0.0",
		want1:      "0.0.0.0",
		want2:      "204.124.8.100",
	}, {
		// Remote connection from private IPv4
		remoteHost: "172.16.0.254",
		want0:      "0.0.0.0",
		want1:      "0.0.0.0",
		want2:      "0.0.0.0",
	}, {
		// Remote connection from public IPv6
		remoteHost: "2602:100:abcd::102",
		want0:      "::",
		want1:      "2001:470::1",
		want2:      "2001:470::1",
	}}

	amgr := New(t.TempDir(), nil, nil)

	// Test against default when there's no address
	for x, test := range tests {
		remoteAddr := NewNetAddressFromIPPort(net.ParseIP(test.remoteHost), 0, 0)
		got := amgr.GetBestLocalAddress(remoteAddr)
		if got.ipString() != test.want0 {
			t.Errorf("test0 #%d failed for remote address %s: want %s got %s",
				x, test.remoteHost, test.want0, got.ipString())
			continue
		}
	}

	for _, host := range localHosts {
		localAddr := NewNetAddressFromIPPort(net.ParseIP(host), 0, 0)
		amgr.AddLocalAddress(localAddr, InterfacePrio)
	}

	// Test against want1
	for x, test := range tests {
		remoteAddr := NewNetAddressFromIPPort(net.ParseIP(test.remoteHost), 0, 0)
		got := amgr.GetBestLocalAddress(remoteAddr)
		if got.ipString() != test.want1 {
			t.Errorf("test1 #%d failed for remote address %s: want %s got %s",
				x, test.remoteHost, test.want1, got.ipString())
			continue
		}
	}

	// Add a public IP to the list of local addresses.
	localAddr := NewNetAddressFromIPPort(net.ParseIP("204.124.8.100"), 0, 0)
	amgr.AddLocalAddress(localAddr, InterfacePrio)

	// Test against want2
	for x, test := range tests {
		remoteAddr := NewNetAddressFromIPPort(net.ParseIP(test.remoteHost), 0, 0)
		got := amgr.GetBestLocalAddress(remoteAddr)
		if got.ipString() != test.want2 {
			t.Errorf("test2 #%d failed for remote address %s: want %s got %s",
				x, test.remoteHost, test.want2, got.ipString())
			continue
		}
	}
}

func TestCorruptPeersFile(t *testing.T) {
	dir := t.TempDir()
	peersFile := filepath.Join(dir, peersFilename)
	// create corrupt (empty) peers file
	fp, err := os.Create(peersFile)
	if err != nil {
		t.Fatalf("Could not create empty peers file: %s", peersFile)
	}
	if err := fp.Close(); err != nil {
		t.Fatalf("Could not write empty peers file: %s", peersFile)
	}
	amgr := New(dir, nil, nil)
	amgr.Start()
	amgr.Stop()
	if _, err := os.Stat(peersFile); err != nil {
		t.Fatalf("Corrupt peers file has not been removed: %s", peersFile)
	}
}

// TestValidatePeerNa tests whether a remote address is considered reachable
// from a local address.
func TestValidatePeerNa(t *testing.T) {
	const unroutableIpv4Address = "0.0.0.0"
	const unroutableIpv6Address = "::1"
	const routableIpv4Address = "12.1.2.3"
	const routableIpv6Address = "2003::"
	onionCatAddress := onionCatNet.IP.String()
	rfc4380IPAddress := rfc4380Net.IP.String()
	rfc3964IPAddress := rfc3964Net.IP.String()
	rfc6052IPAddress := rfc6052Net.IP.String()
	rfc6145IPAddress := rfc6145Net.IP.String()

	tests := []struct {
		name          string
		localAddress  string
		remoteAddress string
		valid         bool
		reach         NetAddressReach
	}{{
		name:          "onion to onion",
		localAddress:  onionCatAddress,
		remoteAddress: onionCatAddress,
		valid:         false,
		reach:         Private,
	}, {
		name:          "routable ipv4 to onion",
		localAddress:  routableIpv4Address,
		remoteAddress: onionCatAddress,
		valid:         true,
		reach:         Ipv4,
	}, {
		name:          "unroutable ipv4 to onion",
		localAddress:  unroutableIpv4Address,
		remoteAddress: onionCatAddress,
		valid:         false,
		reach:         Default,
	}, {
		name:          "routable ipv6 to onion",
		localAddress:  routableIpv6Address,
		remoteAddress: onionCatAddress,
		valid:         false,
		reach:         Default,
	}, {
		name:          "unroutable ipv6 to onion",
		localAddress:  unroutableIpv6Address,
		remoteAddress: onionCatAddress,
		valid:         false,
		reach:         Default,
	}, {
		name:          "rfc4380 to rfc4380",
		localAddress:  rfc4380IPAddress,
		remoteAddress: rfc4380IPAddress,
		valid:         true,
		reach:         Teredo,
	}, {
		name:          "unroutable ipv4 to rfc4380",
		localAddress:  unroutableIpv4Address,
		remoteAddress: rfc4380IPAddress,
		valid:         false,
		reach:         Default,
	}, {
		name:          "routable ipv4 to rfc4380",
		localAddress:  routableIpv4Address,
		remoteAddress: rfc4380IPAddress,
		valid:         true,
		reach:         Ipv4,
	}, {
		name:          "routable ipv6 to rfc4380",
		localAddress:  routableIpv6Address,
		remoteAddress: rfc4380IPAddress,
		valid:         true,
		reach:         Ipv6Weak,
	}, {
		name:          "routable ipv4 to routable ipv4",
		localAddress:  routableIpv4Address,
		remoteAddress: routableIpv4Address,
		valid:         true,
		reach:         Ipv4,
	}, {
		name:          "routable ipv6 to routable ipv4",
		localAddress:  routableIpv6Address,
		remoteAddress: routableIpv4Address,
		valid:         false,
		reach:         Unreachable,
	}, {
		name:          "unroutable ipv4 to routable ipv6",
		localAddress:  unroutableIpv4Address,
		remoteAddress: routableIpv6Address,
		valid:         false,
		reach:         Default,
	}, {
		name:          "unroutable ipv6 to routable ipv6",
		localAddress:  unroutableIpv6Address,
		remoteAddress: routableIpv6Address,
		valid:         false,
		reach:         Default,
	}, {
		name:          "routable ipv4 to unroutable ipv6",
		localAddress:  routableIpv4Address,
		remoteAddress: unroutableIpv6Address,
		valid:         false,
		reach:         Unreachable,
	}, {
		name:          "routable ipv6 rfc4380 to routable ipv6",
		localAddress:  rfc4380IPAddress,
		remoteAddress: routableIpv6Address,
		valid:         true,
		reach:         Teredo,
	}, {
		name:          "routable ipv4 to routable ipv6",
		localAddress:  routableIpv4Address,
		remoteAddress: routableIpv6Address,
		valid:         true,
		reach:         Ipv4,
	}, {
		name:          "tunnelled ipv6 rfc3964 to routable ipv6",
		localAddress:  rfc3964IPAddress,
		remoteAddress: routableIpv6Address,
		valid:         true,
		reach:         Ipv6Weak,
	}, {
		name:          "tunnelled ipv6 rfc6052 to routable ipv6",
		localAddress:  rfc6052IPAddress,
		remoteAddress: routableIpv6Address,
		valid:         true,
		reach:         Ipv6Weak,
	}, {
		name:          "tunnelled ipv6 rfc6145 to routable ipv6",
		localAddress:  rfc6145IPAddress,
		remoteAddress: routableIpv6Address,
		valid:         true,
		reach:         Ipv6Weak,
	}}

	addressManager := New(t.TempDir(), nil, nil)
	for _, test := range tests {
		localNa := NewNetAddressFromIPPort(net.ParseIP(test.localAddress),
			47773, wire.SFNodeNetwork)
		remoteNa := NewNetAddressFromIPPort(net.ParseIP(test.remoteAddress),
			47773, wire.SFNodeNetwork)

		valid, reach := addressManager.ValidatePeerNa(localNa, remoteNa)
		if valid != test.valid {
			t.Errorf("%q: unexpected return value for valid - want '%v', "+
				"got '%v'", test.name, test.valid, valid)
			continue
		}
		if reach != test.reach {
			t.Errorf("%q: unexpected return value for reach - want '%v', "+
				"got '%v'", test.name, test.reach, reach)
		}
	}
}

// TestHostToNetAddress ensures that HostToNetAddress behaves as expected
// given valid and invalid host name arguments.
func TestHostToNetAddress(t *testing.T) {
	// Define a hostname that will cause a lookup to be performed using the
	// lookupFunc provided to the address manager instance for each test.
	const hostnameForLookup = "hostname.test"
	const services = wire.SFNodeNetwork

	tests := []struct {
		name       string
		host       string
		port       uint16
		lookupFunc func(host string) ([]net.IP, error)
		wantErr    bool
		wantKey    string
	}{{
		name:    "valid onion address",
		host:    onionAddress,
		port:    9050,
		wantKey: onionAddress + ":9050",
	}, {
		name:    "invalid onion address",
		host:    "0000000000000000.onion",
		port:    9050,
		wantErr: true,
	}, {
		name: "unresolvable host name",
		host: hostnameForLookup,
		port: 47773,
		lookupFunc: func(host string) ([]net.IP, error) {
			return nil, fmt.Errorf("unresolvable host %v", host)
		},
		wantErr: true,
	}, {
		name: "not resolved host name",
		host: hostnameForLookup,
		port: 47773,
		lookupFunc: func(host string) ([]net.IP, error) {
			return nil, nil
		},
		wantErr: true,
	}, {
		name: "resolved host name",
		host: hostnameForLookup,
		port: 47773,
		lookupFunc: func(host string) ([]net.IP, error) {
			return []net.IP{net.ParseIP("127.0.0.1")}, nil
		},
		wantKey: "127.0.0.1:47773",
	}, {
		name:    "valid ip address",
		host:    "12.1.2.3",
		port:    47773,
		wantKey: "12.1.2.3:47773",
	}}

	for _, test := range tests {
		addrManager := New(t.TempDir(), test.lookupFunc, nil)
		result, err := addrManager.HostToNetAddress(test.host, test.port,
			services)
		if test.wantErr {
			if err == nil {
				t.Errorf("%q: expected error but one was not returned",
					test.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error: %v", test.name, err)
			continue
		}
		if result.Key() != test.wantKey {
			t.Errorf("%q: unexpected result - got %v, want %v", test.name,
				result.Key(), test.wantKey)
		}
	}
}

// TestSetServices ensures that a known address' services are updated as
// expected and that the services field is not mutated when new services are
// added.
func TestSetServices(t *testing.T) {
	addressManager := New(t.TempDir(), nil, nil)
	const services = wire.SFNodeNetwork

	// Attempt to set services for an address not known to the address manager.
	notKnownAddr := NewNetAddressFromIPPort(net.ParseIP("5.6.7.8"), 47773,
		services)
	err := addressManager.SetServices(notKnownAddr, services)
	if !errors.Is(err, ErrAddressNotFound) {
		t.Fatalf("setting services for unknown address should return "+
			"ErrAddressNotFound, got %v", err)
	}

	// Add a new address to the address manager.
	netAddr := NewNetAddressFromIPPort(net.ParseIP("1.2.3.4"), 47773, services)
	srcAddr := NewNetAddressFromIPPort(net.ParseIP("5.6.7.8"), 47773, services)
	addressManager.AddAddress(netAddr, srcAddr)

	// Ensure that the services field for a network address returned from the
	// address manager is not mutated by a call to SetServices.
	knownAddress := addressManager.GetAddress()
	if knownAddress == nil {
		t.Fatal("expected known address, got nil")
	}
	netAddrA := knownAddress.na
	if netAddrA.Services != services {
		t.Fatalf("unexpected network address services - got %x, want %x",
			netAddrA.Services, services)
	}

	// Set the new services for the network address and verify that the
	// previously seen network address netAddrA's services are not modified.
	const newServiceFlags = services << 1
	addressManager.SetServices(netAddr, newServiceFlags)
	netAddrB := knownAddress.na
	if netAddrA == netAddrB {
		t.Fatal("expected known address to have new network address reference")
	}
	if netAddrA.Services != services {
		t.Fatal("netAddrA services flag was mutated")
	}
	if netAddrB.Services != newServiceFlags {
		t.Fatalf("netAddrB has invalid services - got %x, want %x",
			netAddrB.Services, newServiceFlags)
	}
}
