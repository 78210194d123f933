// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2016 The Decred developers
// Copyright (c) 2024-2026 The Mariacoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"github.com/TheRetroMike/mariacoin/chaincfg"
)

// activeNetParams is a pointer to the parameters specific to the currently
// active network.
var activeNetParams = &mainNetParams

// params is used to group parameters for various networks such as the main
// network and test networks.
type params struct {
	*chaincfg.Params
	rpcPort string
}

// mainNetParams contains parameters specific to the main network
// (wire.MainNet).  NOTE: The RPC port is intentionally different from the
// reference implementation because mariacoin does not handle wallet requests.
var mainNetParams = params{
	Params:  &chaincfg.MainNetParams,
	rpcPort: "47770",
}

// testNetParams contains parameters specific to the test network
// (wire.TestNet).
var testNetParams = params{
	Params:  &chaincfg.TestNetParams,
	rpcPort: "57770",
}

// simNetParams contains parameters specific to the simulation test network
// (wire.SimNet).
var simNetParams = params{
	Params:  &chaincfg.SimNetParams,
	rpcPort: "18556",
}

// netName returns the name used when referring to a network.  At the
// time of writing, mariacoin currently places the address manager and other
// data files in a directory that matches the network name, so this simply
// returns the name from the provided parameters.
func netName(netParams *params) string {
	return netParams.Name
}
