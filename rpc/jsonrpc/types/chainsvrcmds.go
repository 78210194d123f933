// Copyright (c) 2014 The btcsuite developers
// Copyright (c) 2015-2019 The Decred developers
// Copyright (c) 2024-2026 The Mariacoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// NOTE: This file is intended to house the RPC commands that are supported by
// a mariacoin node.

package types

import (
	"github.com/decred/dcrd/dcrjson/v4"
)

// SetBanSubCmd defines the type used in the setban JSON-RPC command for the
// sub command field.
type SetBanSubCmd string

const (
	// SBAdd indicates the specified subnet should be added to the ban
	// list.
	SBAdd SetBanSubCmd = "add"

	// SBRemove indicates the specified subnet should be removed from the
	// ban list.
	SBRemove SetBanSubCmd = "remove"
)

// SetBanCmd defines the setban JSON-RPC command.
type SetBanCmd struct {
	Subnet   string
	SubCmd   SetBanSubCmd `jsonrpcusage:"\"add|remove\""`
	BanTime  *int64       `jsonrpcdefault:"0"`
	Absolute *bool        `jsonrpcdefault:"false"`
}

// NewSetBanCmd returns a new instance which can be used to issue a setban
// JSON-RPC command.
//
// The parameters which are pointers indicate they are optional.  Passing nil
// for optional parameters will use the default value.
func NewSetBanCmd(subnet string, subCmd SetBanSubCmd, banTime *int64,
	absolute *bool) *SetBanCmd {

	return &SetBanCmd{
		Subnet:   subnet,
		SubCmd:   subCmd,
		BanTime:  banTime,
		Absolute: absolute,
	}
}

// ListBannedCmd defines the listbanned JSON-RPC command.
type ListBannedCmd struct{}

// NewListBannedCmd returns a new instance which can be used to issue a
// listbanned JSON-RPC command.
func NewListBannedCmd() *ListBannedCmd {
	return &ListBannedCmd{}
}

// ClearBannedCmd defines the clearbanned JSON-RPC command.
type ClearBannedCmd struct{}

// NewClearBannedCmd returns a new instance which can be used to issue a
// clearbanned JSON-RPC command.
func NewClearBannedCmd() *ClearBannedCmd {
	return &ClearBannedCmd{}
}

// GetNodeAddressesCmd defines the getnodeaddresses JSON-RPC command.  A zero
// count requests all known addresses.  The optional network name restricts
// the results to a single network (ipv4, ipv6, onion, internal).
type GetNodeAddressesCmd struct {
	Count   *int32 `jsonrpcdefault:"0"`
	Network *string
}

// NewGetNodeAddressesCmd returns a new instance which can be used to issue a
// getnodeaddresses JSON-RPC command.
//
// The parameters which are pointers indicate they are optional.  Passing nil
// for optional parameters will use the default value.
func NewGetNodeAddressesCmd(count *int32, network *string) *GetNodeAddressesCmd {
	return &GetNodeAddressesCmd{
		Count:   count,
		Network: network,
	}
}

// AddPeerAddressCmd defines the addpeeraddress JSON-RPC command.
type AddPeerAddressCmd struct {
	Address string
	Port    uint16
	Tried   *bool `jsonrpcdefault:"false"`
}

// NewAddPeerAddressCmd returns a new instance which can be used to issue an
// addpeeraddress JSON-RPC command.
//
// The parameters which are pointers indicate they are optional.  Passing nil
// for optional parameters will use the default value.
func NewAddPeerAddressCmd(address string, port uint16, tried *bool) *AddPeerAddressCmd {
	return &AddPeerAddressCmd{
		Address: address,
		Port:    port,
		Tried:   tried,
	}
}

// GetConnectionCountCmd defines the getconnectioncount JSON-RPC command.
type GetConnectionCountCmd struct{}

// NewGetConnectionCountCmd returns a new instance which can be used to issue
// a getconnectioncount JSON-RPC command.
func NewGetConnectionCountCmd() *GetConnectionCountCmd {
	return &GetConnectionCountCmd{}
}

// ValidateMasternodeAddressCmd defines the validatemasternodeaddress JSON-RPC
// command.
type ValidateMasternodeAddressCmd struct {
	Address string
}

// NewValidateMasternodeAddressCmd returns a new instance which can be used to
// issue a validatemasternodeaddress JSON-RPC command.
func NewValidateMasternodeAddressCmd(address string) *ValidateMasternodeAddressCmd {
	return &ValidateMasternodeAddressCmd{
		Address: address,
	}
}

// PingCmd defines the ping JSON-RPC command.
type PingCmd struct{}

// NewPingCmd returns a new instance which can be used to issue a ping
// JSON-RPC command.
func NewPingCmd() *PingCmd {
	return &PingCmd{}
}

func init() {
	// No special flags for commands in this file.
	flags := dcrjson.UsageFlag(0)

	dcrjson.MustRegister(Method("addpeeraddress"), (*AddPeerAddressCmd)(nil), flags)
	dcrjson.MustRegister(Method("clearbanned"), (*ClearBannedCmd)(nil), flags)
	dcrjson.MustRegister(Method("getconnectioncount"), (*GetConnectionCountCmd)(nil), flags)
	dcrjson.MustRegister(Method("getnodeaddresses"), (*GetNodeAddressesCmd)(nil), flags)
	dcrjson.MustRegister(Method("listbanned"), (*ListBannedCmd)(nil), flags)
	dcrjson.MustRegister(Method("ping"), (*PingCmd)(nil), flags)
	dcrjson.MustRegister(Method("setban"), (*SetBanCmd)(nil), flags)
	dcrjson.MustRegister(Method("validatemasternodeaddress"), (*ValidateMasternodeAddressCmd)(nil), flags)
}
