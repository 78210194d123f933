// Copyright (c) 2016-2021 The Decred developers
// Copyright (c) 2024-2026 The Mariacoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"path/filepath"
	"reflect"
	"testing"
)

// TestNormalizeAddresses ensures that addresses are normalized with the
// expected default port and that duplicates are removed.
func TestNormalizeAddresses(t *testing.T) {
	tests := []struct {
		name        string
		addrs       []string
		defaultPort string
		want        []string
	}{{
		name:        "missing port appends default",
		addrs:       []string{"127.0.0.1"},
		defaultPort: "47773",
		want:        []string{"127.0.0.1:47773"},
	}, {
		name:        "existing port preserved",
		addrs:       []string{"127.0.0.1:1234"},
		defaultPort: "47773",
		want:        []string{"127.0.0.1:1234"},
	}, {
		name:        "duplicates removed after normalization",
		addrs:       []string{"127.0.0.1", "127.0.0.1:47773"},
		defaultPort: "47773",
		want:        []string{"127.0.0.1:47773"},
	}, {
		name:        "ipv6 host gets brackets via join",
		addrs:       []string{"::1"},
		defaultPort: "47773",
		want:        []string{"[::1]:47773"},
	}, {
		name:        "multiple distinct hosts",
		addrs:       []string{"10.0.0.1", "10.0.0.2:8555"},
		defaultPort: "47773",
		want:        []string{"10.0.0.1:47773", "10.0.0.2:8555"},
	}}

	for _, test := range tests {
		got := normalizeAddresses(test.addrs, test.defaultPort)
		if !reflect.DeepEqual(got, test.want) {
			t.Errorf("%q: unexpected result -- got %v, want %v",
				test.name, got, test.want)
		}
	}
}

// TestRemoveDuplicateAddresses ensures duplicate removal preserves order of
// first occurrence.
func TestRemoveDuplicateAddresses(t *testing.T) {
	addrs := []string{"a:1", "b:2", "a:1", "c:3", "b:2"}
	want := []string{"a:1", "b:2", "c:3"}
	got := removeDuplicateAddresses(addrs)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected result -- got %v, want %v", got, want)
	}
}

// TestParsePort ensures port strings are converted and validated as expected.
func TestParsePort(t *testing.T) {
	tests := []struct {
		name    string
		portStr string
		want    uint16
		wantErr bool
	}{{
		name:    "valid port",
		portStr: "47773",
		want:    47773,
	}, {
		name:    "port zero",
		portStr: "0",
		want:    0,
	}, {
		name:    "max port",
		portStr: "65535",
		want:    65535,
	}, {
		name:    "port too large",
		portStr: "65536",
		wantErr: true,
	}, {
		name:    "negative port",
		portStr: "-1",
		wantErr: true,
	}, {
		name:    "not a number",
		portStr: "mariacoin",
		wantErr: true,
	}, {
		name:    "empty string",
		portStr: "",
		wantErr: true,
	}}

	for _, test := range tests {
		port, err := parsePort(test.portStr)
		if (err != nil) != test.wantErr {
			t.Errorf("%q: unexpected error status -- got %v, want "+
				"error: %v", test.name, err, test.wantErr)
			continue
		}
		if err == nil && port != test.want {
			t.Errorf("%q: unexpected port -- got %d, want %d",
				test.name, port, test.want)
		}
	}
}

// TestCleanAndExpandPath ensures leading tilde and environment variables are
// expanded and the result is cleaned.
func TestCleanAndExpandPath(t *testing.T) {
	homeDir := filepath.Dir(defaultHomeDir)

	got := cleanAndExpandPath("~/mariacoin/data")
	want := filepath.Join(homeDir, "mariacoin", "data")
	if got != want {
		t.Errorf("tilde expansion: got %q, want %q", got, want)
	}

	got = cleanAndExpandPath("/tmp/a/../b")
	want = filepath.Clean("/tmp/a/../b")
	if got != want {
		t.Errorf("path cleaning: got %q, want %q", got, want)
	}

	t.Setenv("MARIACOIN_TEST_DIR", "/var/mariacoin")
	got = cleanAndExpandPath("$MARIACOIN_TEST_DIR/data")
	want = filepath.Clean("/var/mariacoin/data")
	if got != want {
		t.Errorf("env expansion: got %q, want %q", got, want)
	}
}

// TestPickNoun ensures the correct singular or plural form is chosen based on
// the count.
func TestPickNoun(t *testing.T) {
	tests := []struct {
		n        uint64
		singular string
		plural   string
		want     string
	}{
		{0, "peer", "peers", "peers"},
		{1, "peer", "peers", "peer"},
		{2, "peer", "peers", "peers"},
	}

	for _, test := range tests {
		if got := pickNoun(test.n, test.singular, test.plural); got != test.want {
			t.Errorf("pickNoun(%d): got %q, want %q", test.n, got,
				test.want)
		}
	}
}

// TestOnionAddr ensures the tor address type implements the net.Addr contract.
func TestOnionAddr(t *testing.T) {
	addr := &onionAddr{addr: "a5ccbdkubbr2jlcp.onion:47773"}
	if addr.String() != "a5ccbdkubbr2jlcp.onion:47773" {
		t.Errorf("unexpected address string %q", addr.String())
	}
	if addr.Network() != "onion" {
		t.Errorf("unexpected network %q", addr.Network())
	}
}

// TestNetworkParams ensures the per-network listen and RPC ports are distinct
// so multiple networks can run on the same host.
func TestNetworkParams(t *testing.T) {
	allParams := []*params{&mainNetParams, &testNetParams, &simNetParams}
	seenP2P := make(map[string]string)
	seenRPC := make(map[string]string)
	for _, netParams := range allParams {
		name := netName(netParams)
		if prev, ok := seenP2P[netParams.DefaultPort]; ok {
			t.Errorf("networks %q and %q share p2p port %s", prev,
				name, netParams.DefaultPort)
		}
		seenP2P[netParams.DefaultPort] = name

		if prev, ok := seenRPC[netParams.rpcPort]; ok {
			t.Errorf("networks %q and %q share rpc port %s", prev,
				name, netParams.rpcPort)
		}
		seenRPC[netParams.rpcPort] = name

		if netParams.DefaultPort == netParams.rpcPort {
			t.Errorf("network %q uses the same port %s for p2p "+
				"and rpc", name, netParams.DefaultPort)
		}
	}
}
