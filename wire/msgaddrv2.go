// Copyright (c) 2021 The Decred developers
// Copyright (c) 2024-2026 The Mariacoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"fmt"
	"io"
)

// MaxAddrV2PerMsg is the maximum number of addresses that can be in a single
// Mariacoin addrv2 message (MsgAddrV2).
const MaxAddrV2PerMsg = 1000

// MsgAddrV2 implements the Message interface and represents a Mariacoin
// addrv2 message.  It is used to provide a list of known active peers on the
// network in the self-describing address format, which unlike the legacy
// format can carry addresses for networks that have no 16-byte
// representation.  Each message is limited to a maximum number of addresses,
// which is currently 1000.
//
// This message is only valid for protocol versions starting with
// AddrV2Version.
type MsgAddrV2 struct {
	AddrList []*NetAddressV2
}

// AddAddress adds a known active peer to the message.
func (msg *MsgAddrV2) AddAddress(na *NetAddressV2) error {
	const op = "MsgAddrV2.AddAddress"
	if len(msg.AddrList)+1 > MaxAddrV2PerMsg {
		str := fmt.Sprintf("too many addresses in message [max %v]",
			MaxAddrV2PerMsg)
		return messageError(op, ErrTooManyAddrs, str)
	}

	msg.AddrList = append(msg.AddrList, na)
	return nil
}

// AddAddresses adds multiple known active peers to the message.
func (msg *MsgAddrV2) AddAddresses(netAddrs ...*NetAddressV2) error {
	for _, na := range netAddrs {
		err := msg.AddAddress(na)
		if err != nil {
			return err
		}
	}
	return nil
}

// ClearAddresses removes all addresses from the message.
func (msg *MsgAddrV2) ClearAddresses() {
	msg.AddrList = []*NetAddressV2{}
}

// BtcDecode decodes r using the Mariacoin protocol encoding into the receiver.
// This is part of the Message interface implementation.
func (msg *MsgAddrV2) BtcDecode(r io.Reader, pver uint32) error {
	const op = "MsgAddrV2.BtcDecode"
	if pver < AddrV2Version {
		str := fmt.Sprintf("%s message invalid for protocol version %d",
			msg.Command(), pver)
		return messageError(op, ErrMsgInvalidForPVer, str)
	}

	count, err := ReadVarInt(r, pver)
	if err != nil {
		return err
	}

	// Limit to max addresses per message.
	if count > MaxAddrV2PerMsg {
		str := fmt.Sprintf("too many addresses for message [count %v, "+
			"max %v]", count, MaxAddrV2PerMsg)
		return messageError(op, ErrTooManyAddrs, str)
	}

	addrList := make([]NetAddressV2, count)
	msg.AddrList = make([]*NetAddressV2, 0, count)
	for i := uint64(0); i < count; i++ {
		na := &addrList[i]
		err := readNetAddressV2(op, r, pver, na)
		if err != nil {
			return err
		}
		msg.AddAddress(na)
	}
	return nil
}

// BtcEncode encodes the receiver to w using the Mariacoin protocol encoding.
// This is part of the Message interface implementation.
func (msg *MsgAddrV2) BtcEncode(w io.Writer, pver uint32) error {
	const op = "MsgAddrV2.BtcEncode"
	if pver < AddrV2Version {
		str := fmt.Sprintf("%s message invalid for protocol version %d",
			msg.Command(), pver)
		return messageError(op, ErrMsgInvalidForPVer, str)
	}

	count := len(msg.AddrList)
	if count > MaxAddrV2PerMsg {
		str := fmt.Sprintf("too many addresses for message [count %v, "+
			"max %v]", count, MaxAddrV2PerMsg)
		return messageError(op, ErrTooManyAddrs, str)
	}

	err := WriteVarInt(w, pver, uint64(count))
	if err != nil {
		return err
	}

	for _, na := range msg.AddrList {
		err = writeNetAddressV2(op, w, pver, na)
		if err != nil {
			return err
		}
	}
	return nil
}

// Command returns the protocol command string for the message.  This is part
// of the Message interface implementation.
func (msg *MsgAddrV2) Command() string {
	return CmdAddrV2
}

// MaxPayloadLength returns the maximum length the payload can be for the
// receiver.  This is part of the Message interface implementation.
func (msg *MsgAddrV2) MaxPayloadLength(pver uint32) uint32 {
	// Num addresses (size of varint for max address per message) + max
	// allowed addresses.
	return uint32(VarIntSerializeSize(MaxAddrV2PerMsg)) +
		(MaxAddrV2PerMsg * maxNetAddressV2Payload(pver))
}

// NewMsgAddrV2 returns a new Mariacoin addrv2 message that conforms to the
// Message interface.  See MsgAddrV2 for details.
func NewMsgAddrV2() *MsgAddrV2 {
	return &MsgAddrV2{
		AddrList: make([]*NetAddressV2, 0, MaxAddrV2PerMsg),
	}
}
