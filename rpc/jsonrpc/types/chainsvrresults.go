// Copyright (c) 2014 The btcsuite developers
// Copyright (c) 2015-2019 The Decred developers
// Copyright (c) 2024-2026 The Mariacoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package types

// GetNodeAddressesResult models the data returned from the getnodeaddresses
// command.
type GetNodeAddressesResult struct {
	Time     int64  `json:"time"`
	Services uint64 `json:"services"`
	Address  string `json:"address"`
	Port     uint16 `json:"port"`
	Network  string `json:"network"`
}

// ListBannedResult models the data returned from the listbanned command.
type ListBannedResult struct {
	Address     string `json:"address"`
	BannedUntil int64  `json:"banned_until"`
	BanCreated  int64  `json:"ban_created"`
	BanReason   string `json:"ban_reason"`
}

// ValidateMasternodeAddressResult models the data returned from the
// validatemasternodeaddress command.
type ValidateMasternodeAddressResult struct {
	Address string `json:"address"`
	Valid   bool   `json:"valid"`
	Network string `json:"network,omitempty"`
}
