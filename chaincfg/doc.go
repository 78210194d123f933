// Copyright (c) 2014-2016 The btcsuite developers
// Copyright (c) 2015-2019 The Decred developers
// Copyright (c) 2024-2026 The Mariacoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines network parameters for the three public mariacoin
// networks as well as the means to identify them.
//
// A node can run as a full node on the main network, as a test node on the
// test network, or as a simulation node on an isolated simulation network.
// The parameters exported by this package describe the networks themselves
// (magic bytes, default peer-to-peer ports, and DNS seeds) and are consumed
// by code that must behave differently depending on which network it is
// associated with.
package chaincfg
