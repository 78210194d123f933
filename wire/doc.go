// Copyright (c) 2013-2014 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Copyright (c) 2024-2026 The Mariacoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package wire implements the Mariacoin peer-to-peer address relay protocol.

This package handles the basics of communicating peer addresses with Mariacoin
peers at the wire protocol level.  It provides a common message framing layer
(a 24-byte header carrying the network magic, command, payload length, and a
double sha256 checksum) together with the handshake and address relay
messages a node needs to participate in address gossip: version, verack,
getaddr, addr, addrv2, ping, and pong.

# Mariacoin Message Overview

At a high level, this package provides support for marshalling and
unmarshalling supported Mariacoin messages to and from the wire.  This package
does not deal with the specifics of message handling such as what to do when
a message is received.  This provides the caller with a high level of
flexibility.

# Determining Message Type

As discussed in the Mariacoin message overview section, this package reads
and writes Mariacoin messages using a generic interface named Message.  In
order to determine the actual concrete type of the message, use a type switch
or type assertion.  An example of a type switch follows:

	// Assumes msg is already a valid concrete message such as one created
	// via NewMsgVersion or read via ReadMessage.
	switch msg := msg.(type) {
	case *wire.MsgVersion:
		// The message is a pointer to a MsgVersion struct.
		fmt.Printf("Protocol version: %v", msg.ProtocolVersion)
	case *wire.MsgAddr:
		// The message is a pointer to a MsgAddr struct.
		fmt.Printf("Number of addresses: %v", len(msg.AddrList))
	}

# Address Formats

Two address encodings are supported.  The legacy format used by the addr
message packs every address into a fixed 16-byte field: IPv4 addresses are
carried in their IPv4-mapped IPv6 form, onion services in their onioncat
form, and addresses with no 16-byte representation degrade to an all-zero
placeholder.  The self-describing format used by the addrv2 message instead
carries an explicit network identifier and a length-prefixed byte string,
which lets addresses for networks unknown to this implementation be relayed
without loss.

# Reading Messages

In order to unmarshal Mariacoin messages from the wire, use the ReadMessage
function.  It accepts any io.Reader, but typically this will be a net.Conn to
a remote node running a Mariacoin peer.

# Writing Messages

In order to marshal Mariacoin messages to the wire, use the WriteMessage
function.  It accepts any io.Writer, but typically this will be a net.Conn to
a remote node running a Mariacoin peer.

# Errors

Errors returned by this package are either the raw errors provided by
underlying calls to read/write from streams such as io.EOF, io.ErrUnexpectedEOF,
and io.ErrShortWrite, or of type wire.MessageError.  This allows the caller to
differentiate between general IO errors and malformed messages through type
assertions.  In addition, callers can programmatically determine the specific
kind of error by examining the ErrorKind field of the error with errors.Is.
*/
package wire
