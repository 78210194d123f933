// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2024 The Decred developers
// Copyright (c) 2024-2026 The Mariacoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/TheRetroMike/mariacoin/addrmgr"
	"github.com/TheRetroMike/mariacoin/banmgr"
	"github.com/TheRetroMike/mariacoin/chaincfg"
	"github.com/TheRetroMike/mariacoin/connmgr"
	"github.com/TheRetroMike/mariacoin/wire"
)

const (
	// defaultServices describes the default services that are supported by
	// the server.
	defaultServices = wire.SFNodeNetwork

	// defaultTargetOutbound is the default number of outbound connections
	// to maintain.
	defaultTargetOutbound = 8

	// connectionRetryInterval is the base amount of time to wait in between
	// retries when connecting to persistent peers.  It is adjusted by the
	// number of retries such that there is a retry backoff.
	connectionRetryInterval = time.Second * 5

	// minAcceptableProtocolVersion is the lowest protocol version that a
	// connected peer may support.
	minAcceptableProtocolVersion = wire.InitialProcotolVersion

	// negotiateTimeout is the duration of inactivity before we timeout a
	// peer that has not completed the initial version negotiation.
	negotiateTimeout = time.Second * 30

	// idleTimeout is the duration of inactivity before we time out a peer.
	idleTimeout = time.Minute * 5

	// pingInterval is the interval of time to wait in between sending ping
	// messages.
	pingInterval = time.Minute * 2

	// misbehaviorBanScore is the ban score assigned to a peer for each
	// protocol violation.  A peer whose accumulated score crosses the
	// configured ban threshold is disconnected and, when banning is
	// enabled, its network is added to the ban list.
	misbehaviorBanScore = 50
)

// randomUint64 returns a cryptographically random uint64 value.
func randomUint64() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("read random bytes: %v", err))
	}
	return binary.LittleEndian.Uint64(buf[:])
}

// serverPeer extends a network connection with state the server needs to
// maintain for a connected remote peer.
type serverPeer struct {
	// The following variables must only be used atomically.
	disconnect int32
	banScore   uint32

	server     *server
	conn       net.Conn
	na         *addrmgr.NetAddress
	inbound    bool
	persistent bool
	connReq    *connmgr.ConnReq

	timeConnected time.Time

	// These fields are set during version negotiation and protected by
	// statsMtx afterwards.
	statsMtx        sync.Mutex
	protocolVersion uint32
	services        wire.ServiceFlag
	userAgent       string
	versionNonce    uint64
	versionKnown    bool
	verAckRecv      bool
	sentAddrs       bool

	writeMtx sync.Mutex

	quit chan struct{}
}

// newServerPeer returns a new serverPeer instance for the provided
// connection.
func newServerPeer(s *server, conn net.Conn, inbound bool) *serverPeer {
	return &serverPeer{
		server:        s,
		conn:          conn,
		inbound:       inbound,
		timeConnected: time.Now(),
		quit:          make(chan struct{}),
	}
}

// String returns the peer's address and directionality as a human-readable
// string.
func (sp *serverPeer) String() string {
	direction := "outbound"
	if sp.inbound {
		direction = "inbound"
	}
	return fmt.Sprintf("%s (%s)", sp.conn.RemoteAddr(), direction)
}

// VersionKnown returns whether the version negotiation with the remote peer
// has completed.
//
// This function is safe for concurrent access.
func (sp *serverPeer) VersionKnown() bool {
	sp.statsMtx.Lock()
	defer sp.statsMtx.Unlock()

	return sp.versionKnown
}

// ProtocolVersion returns the negotiated protocol version of the peer.
//
// This function is safe for concurrent access.
func (sp *serverPeer) ProtocolVersion() uint32 {
	sp.statsMtx.Lock()
	defer sp.statsMtx.Unlock()

	if !sp.versionKnown {
		return wire.ProtocolVersion
	}
	return sp.protocolVersion
}

// Disconnect disconnects the peer by closing the connection.  Calling this
// function when the peer is already disconnected is safe.
func (sp *serverPeer) Disconnect() {
	if atomic.AddInt32(&sp.disconnect, 1) != 1 {
		return
	}

	close(sp.quit)
	sp.conn.Close()
}

// Connected returns whether the peer is still connected.
//
// This function is safe for concurrent access.
func (sp *serverPeer) Connected() bool {
	return atomic.LoadInt32(&sp.disconnect) == 0
}

// readMessage reads the next wire message from the peer using the negotiated
// protocol version.
func (sp *serverPeer) readMessage() (wire.Message, error) {
	msg, _, err := wire.ReadMessage(sp.conn, sp.ProtocolVersion(),
		sp.server.chainParams.Net)
	if err != nil {
		return nil, err
	}

	peerLog.Tracef("Received %s from %s", msg.Command(), sp)
	return msg, nil
}

// writeMessage sends the provided wire message to the peer using the
// negotiated protocol version.
//
// This function is safe for concurrent access.
func (sp *serverPeer) writeMessage(msg wire.Message) error {
	if !sp.Connected() {
		return nil
	}

	sp.writeMtx.Lock()
	defer sp.writeMtx.Unlock()

	peerLog.Tracef("Sending %s to %s", msg.Command(), sp)
	return wire.WriteMessage(sp.conn, msg, sp.ProtocolVersion(),
		sp.server.chainParams.Net)
}

// addBanScore increases the ban score of the peer and disconnects it when the
// configured ban threshold is crossed.  When banning is enabled, the network
// the peer belongs to is banned as well.  Whitelisted peers are never banned
// or disconnected due to their score.
func (sp *serverPeer) addBanScore(score uint32, reason string) {
	if cfg.DisableBanning {
		return
	}
	if sp.server.isWhitelisted(sp.na) {
		peerLog.Debugf("Misbehaving whitelisted peer %s: %s", sp, reason)
		return
	}

	total := atomic.AddUint32(&sp.banScore, score)
	if total < cfg.BanThreshold {
		peerLog.Warnf("Misbehaving peer %s: %s -- ban score is %d, "+
			"it was increased by %d", sp, reason, total, score)
		return
	}

	peerLog.Warnf("Misbehaving peer %s: %s -- banning and disconnecting",
		sp, reason)
	sp.server.banPeer(sp)
	sp.Disconnect()
}

// localVersionMsg creates a version message that can be used to send to a
// remote peer.
func (sp *serverPeer) localVersionMsg() *wire.MsgVersion {
	theirNA := sp.na.ToLegacyWire()

	// If we are behind a proxy and the connection comes from the proxy
	// then we return an unroutable address as their address.  This is to
	// prevent leaking the tor proxy address.
	if cfg.Proxy != "" {
		proxyAddress, _, err := net.SplitHostPort(cfg.Proxy)
		if err != nil || net.IP(sp.na.IP).String() == proxyAddress {
			theirNA = wire.NewNetAddressIPPort(net.IP([]byte{0, 0, 0, 0}),
				0, theirNA.Services)
		}
	}

	ourNA := sp.server.addrManager.GetBestLocalAddress(sp.na).ToLegacyWire()

	msg := wire.NewMsgVersion(ourNA, theirNA, sp.server.nonce, 0)
	msg.AddUserAgent("mariacoin", version())
	msg.Services = sp.server.services
	msg.ProtocolVersion = int32(wire.ProtocolVersion)

	return msg
}

// handleVersionMsg processes an incoming version message.  It negotiates the
// protocol version, detects connections to self, and updates the address
// manager state.
func (sp *serverPeer) handleVersionMsg(msg *wire.MsgVersion) error {
	// Detect self connections.
	if msg.Nonce == sp.server.nonce {
		return errors.New("disconnecting peer connected to self")
	}

	// Reject peers using protocol versions that are too old.
	if uint32(msg.ProtocolVersion) < minAcceptableProtocolVersion {
		return fmt.Errorf("protocol version must be %d or greater",
			minAcceptableProtocolVersion)
	}

	sp.statsMtx.Lock()
	if sp.versionKnown {
		sp.statsMtx.Unlock()
		return errors.New("only one version message per connection allowed")
	}
	sp.versionKnown = true

	// Negotiate the protocol version.
	sp.protocolVersion = wire.ProtocolVersion
	if uint32(msg.ProtocolVersion) < sp.protocolVersion {
		sp.protocolVersion = uint32(msg.ProtocolVersion)
	}
	sp.services = msg.Services
	sp.userAgent = msg.UserAgent
	sp.versionNonce = msg.Nonce
	sp.statsMtx.Unlock()

	peerLog.Debugf("Negotiated protocol version %d for peer %s",
		sp.ProtocolVersion(), sp)

	// Update the address manager with the advertised services for
	// outbound connections in case they have changed.
	if !sp.inbound {
		sp.server.addrManager.SetServices(sp.na, msg.Services)
	}
	return nil
}

// pushAddrMsg sends the provided addresses to the peer using either an addr
// or addrv2 message depending on the negotiated protocol version.
func (sp *serverPeer) pushAddrMsg(addrs []*addrmgr.NetAddress) error {
	if len(addrs) > wire.MaxAddrPerMsg {
		addrs = addrs[:wire.MaxAddrPerMsg]
	}

	if sp.ProtocolVersion() >= wire.AddrV2Version {
		msg := wire.NewMsgAddrV2()
		for _, na := range addrs {
			if err := msg.AddAddress(na.ToWireV2()); err != nil {
				return err
			}
		}
		if len(msg.AddrList) == 0 {
			return nil
		}
		return sp.writeMessage(msg)
	}

	msg := wire.NewMsgAddr()
	for _, na := range addrs {
		// Addresses with no legacy representation would be announced
		// with a zero placeholder, so skip them entirely instead.
		if na.Type != addrmgr.IPv4Address && na.Type != addrmgr.IPv6Address {
			continue
		}
		if err := msg.AddAddress(na.ToLegacyWire()); err != nil {
			return err
		}
	}
	if len(msg.AddrList) == 0 {
		return nil
	}
	return sp.writeMessage(msg)
}

// handleGetAddrMsg replies to a getaddr request with a list of known active
// peers.  Only the first request per connection is honored to help prevent
// address harvesting.
func (sp *serverPeer) handleGetAddrMsg() error {
	// Do not accept getaddr requests from outbound peers.  This helps
	// prevent address cache poisoning by malicious nodes we connected to.
	if !sp.inbound {
		peerLog.Debugf("Ignoring getaddr request from outbound peer %s", sp)
		return nil
	}

	sp.statsMtx.Lock()
	sent := sp.sentAddrs
	sp.sentAddrs = true
	sp.statsMtx.Unlock()
	if sent {
		peerLog.Debugf("Ignoring repeated getaddr request from peer %s", sp)
		return nil
	}

	return sp.pushAddrMsg(sp.server.addrManager.AddressCache())
}

// ingestAddresses adds the provided addresses to the address manager using
// the remote peer as the source.  Unroutable addresses are ignored by the
// address manager itself.
func (sp *serverPeer) ingestAddresses(addrs []*addrmgr.NetAddress) {
	now := time.Now()
	for _, na := range addrs {
		// Clamp timestamps from the future so addresses advertised
		// with bogus timestamps are tried last.
		if na.Timestamp.After(now.Add(time.Minute * 10)) {
			na.Timestamp = now.Add(-time.Hour * 24 * 5)
		}
	}
	sp.server.addrManager.AddAddresses(addrs, sp.na)
}

// handleAddrMsg processes a legacy addr message by converting the advertised
// addresses and handing them to the address manager.
func (sp *serverPeer) handleAddrMsg(msg *wire.MsgAddr) {
	if len(msg.AddrList) == 0 {
		sp.addBanScore(misbehaviorBanScore, "empty addr message")
		return
	}

	addrs := make([]*addrmgr.NetAddress, 0, len(msg.AddrList))
	for _, wna := range msg.AddrList {
		na := addrmgr.NewNetAddressFromLegacyWire(wna)
		if na.Type == addrmgr.UnknownAddressType {
			continue
		}
		addrs = append(addrs, na)
	}
	sp.ingestAddresses(addrs)
}

// handleAddrV2Msg processes an addrv2 message by converting the advertised
// addresses and handing them to the address manager.
func (sp *serverPeer) handleAddrV2Msg(msg *wire.MsgAddrV2) {
	if len(msg.AddrList) == 0 {
		sp.addBanScore(misbehaviorBanScore, "empty addrv2 message")
		return
	}

	addrs := make([]*addrmgr.NetAddress, 0, len(msg.AddrList))
	for _, wna := range msg.AddrList {
		na := addrmgr.NewNetAddressFromWireV2(wna)
		if na.Type == addrmgr.UnknownAddressType {
			continue
		}
		addrs = append(addrs, na)
	}
	sp.ingestAddresses(addrs)
}

// negotiateProtocol performs the initial version negotiation with the remote
// peer.  Outbound peers send their version message first while inbound peers
// respond to the remote version.  The negotiation must complete within
// negotiateTimeout.
func (sp *serverPeer) negotiateProtocol() error {
	sp.conn.SetDeadline(time.Now().Add(negotiateTimeout))
	defer sp.conn.SetDeadline(time.Time{})

	readRemoteVersion := func() error {
		msg, err := sp.readMessage()
		if err != nil {
			return err
		}
		verMsg, ok := msg.(*wire.MsgVersion)
		if !ok {
			return errors.New("a version message must precede all others")
		}
		return sp.handleVersionMsg(verMsg)
	}

	if !sp.inbound {
		if err := sp.writeMessage(sp.localVersionMsg()); err != nil {
			return err
		}
		if err := readRemoteVersion(); err != nil {
			return err
		}
	} else {
		if err := readRemoteVersion(); err != nil {
			return err
		}
		if err := sp.writeMessage(sp.localVersionMsg()); err != nil {
			return err
		}
	}

	// Finish the negotiation by sending and waiting for a verack.
	if err := sp.writeMessage(wire.NewMsgVerAck()); err != nil {
		return err
	}
	msg, err := sp.readMessage()
	if err != nil {
		return err
	}
	if _, ok := msg.(*wire.MsgVerAck); !ok {
		return errors.New("verack message must complete the negotiation")
	}

	sp.statsMtx.Lock()
	sp.verAckRecv = true
	sp.statsMtx.Unlock()
	return nil
}

// inHandler reads and dispatches messages from the remote peer after the
// version negotiation has completed.  It only returns when the peer
// disconnects.
func (sp *serverPeer) inHandler() {
	for sp.Connected() {
		sp.conn.SetReadDeadline(time.Now().Add(idleTimeout))
		msg, err := sp.readMessage()
		if err != nil {
			if sp.Connected() {
				peerLog.Debugf("Cannot read message from %s: %v",
					sp, err)

				// Malformed messages from a peer that already
				// negotiated our protocol count against it.
				var kind wire.ErrorKind
				if errors.As(err, &kind) {
					sp.addBanScore(misbehaviorBanScore,
						fmt.Sprintf("malformed message: %v", kind))
				}
			}
			break
		}

		switch msg := msg.(type) {
		case *wire.MsgVersion:
			sp.addBanScore(misbehaviorBanScore,
				"duplicate version message")

		case *wire.MsgVerAck:
			// The negotiation already consumed the expected verack,
			// so additional ones are ignored.

		case *wire.MsgPing:
			if err := sp.writeMessage(wire.NewMsgPong(msg.Nonce)); err != nil {
				peerLog.Debugf("Cannot send pong to %s: %v", sp, err)
			}

		case *wire.MsgPong:
			// Receiving any message already resets the idle timer.

		case *wire.MsgGetAddr:
			if err := sp.handleGetAddrMsg(); err != nil {
				peerLog.Debugf("Cannot send addresses to %s: %v",
					sp, err)
			}

		case *wire.MsgAddr:
			sp.handleAddrMsg(msg)

		case *wire.MsgAddrV2:
			sp.handleAddrV2Msg(msg)

		default:
			peerLog.Debugf("Received unhandled message of type %T "+
				"from %s", msg, sp)
		}
	}

	sp.Disconnect()
}

// pingHandler periodically pings the remote peer.  It must be run as a
// goroutine.
func (sp *serverPeer) pingHandler() {
	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-pingTicker.C:
			err := sp.writeMessage(wire.NewMsgPing(randomUint64()))
			if err != nil {
				peerLog.Debugf("Cannot send ping to %s: %v", sp, err)
			}

		case <-sp.quit:
			return
		}
	}
}

// server provides a mariacoin server for handling communications to and from
// mariacoin peers.
type server struct {
	// The following variables must only be used atomically.
	connectedCount int32

	chainParams *chaincfg.Params
	nonce       uint64
	services    wire.ServiceFlag
	startupTime int64

	addrManager *addrmgr.AddrManager
	banManager  *banmgr.BanManager
	connManager *connmgr.ConnManager

	peerMtx sync.Mutex
	peers   map[*serverPeer]struct{}

	quit chan struct{}
	wg   sync.WaitGroup
}

// isWhitelisted returns whether the provided address is in the whitelisted
// networks.
func (s *server) isWhitelisted(na *addrmgr.NetAddress) bool {
	if na == nil {
		return false
	}
	for _, sn := range cfg.whitelists {
		if sn.Match(na) {
			return true
		}
	}
	return false
}

// banPeer adds the network of the provided peer to the ban list with the
// default ban duration.
func (s *server) banPeer(sp *serverPeer) {
	if sp.na == nil {
		return
	}
	err := s.banManager.BanAddress(sp.na, banmgr.BanReasonNodeMisbehaving,
		0, false)
	if err != nil {
		srvrLog.Errorf("Cannot ban peer %s: %v", sp, err)
	}
}

// filterInbound returns whether an inbound connection from the provided
// address is allowed.  Banned addresses that are not whitelisted are
// rejected.
func (s *server) filterInbound(addr net.Addr) bool {
	host, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		srvrLog.Debugf("Cannot parse inbound address %s: %v", addr, err)
		return false
	}
	port, err := parsePort(portStr)
	if err != nil {
		srvrLog.Debugf("Cannot parse inbound port %s: %v", addr, err)
		return false
	}
	na, err := s.addrManager.HostToNetAddress(host, port, defaultServices)
	if err != nil {
		srvrLog.Debugf("Cannot parse inbound host %s: %v", host, err)
		return false
	}

	if s.isWhitelisted(na) {
		return true
	}
	if s.banManager.IsBanned(na) {
		srvrLog.Debugf("Peer %s is banned - disconnecting", addr)
		return false
	}
	return true
}

// peerAddress converts the remote address of the provided connection to an
// address manager network address.
func (s *server) peerAddress(conn net.Conn) (*addrmgr.NetAddress, error) {
	host, portStr, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return nil, err
	}
	port, err := parsePort(portStr)
	if err != nil {
		return nil, err
	}
	return s.addrManager.HostToNetAddress(host, port, defaultServices)
}

// handlePeer performs the version negotiation with the provided peer and
// runs its message handlers until it disconnects.
func (s *server) handlePeer(sp *serverPeer) {
	defer s.donePeer(sp)

	if err := sp.negotiateProtocol(); err != nil {
		peerLog.Debugf("Cannot negotiate protocol with %s: %v", sp, err)
		sp.Disconnect()
		return
	}

	srvrLog.Infof("Connected to peer %s (protocol %d, agent %s)", sp,
		sp.ProtocolVersion(), sp.userAgent)

	// Update the address manager state for outbound peers and request
	// known addresses from them when more are needed.
	if !sp.inbound {
		s.addrManager.Connected(sp.na)
		s.addrManager.Good(sp.na)

		if s.addrManager.NeedMoreAddresses() {
			if err := sp.writeMessage(wire.NewMsgGetAddr()); err != nil {
				peerLog.Debugf("Cannot send getaddr to %s: %v",
					sp, err)
			}
		}
	}

	s.wg.Add(1)
	go func() {
		sp.pingHandler()
		s.wg.Done()
	}()

	sp.inHandler()
}

// addPeer tracks the provided peer and starts its handlers.
func (s *server) addPeer(sp *serverPeer) {
	s.peerMtx.Lock()
	s.peers[sp] = struct{}{}
	s.peerMtx.Unlock()
	atomic.AddInt32(&s.connectedCount, 1)

	s.wg.Add(1)
	go func() {
		s.handlePeer(sp)
		s.wg.Done()
	}()
}

// donePeer removes the provided peer from the tracked peers and updates the
// connection manager state for outbound peers.
func (s *server) donePeer(sp *serverPeer) {
	s.peerMtx.Lock()
	delete(s.peers, sp)
	s.peerMtx.Unlock()
	atomic.AddInt32(&s.connectedCount, -1)

	sp.Disconnect()
	if sp.connReq != nil {
		s.connManager.Disconnect(sp.connReq.ID())
	}
	srvrLog.Debugf("Disconnected peer %s", sp)
}

// ConnectedCount returns the number of currently connected peers.
//
// This function is safe for concurrent access.
func (s *server) ConnectedCount() int32 {
	return atomic.LoadInt32(&s.connectedCount)
}

// StartupTime returns the unix timestamp for when the server was started.
func (s *server) StartupTime() int64 {
	return s.startupTime
}

// broadcastPing sends a ping message with a random nonce to all connected
// peers.
//
// This function is safe for concurrent access.
func (s *server) broadcastPing() {
	nonce := randomUint64()

	s.peerMtx.Lock()
	peers := make([]*serverPeer, 0, len(s.peers))
	for sp := range s.peers {
		peers = append(peers, sp)
	}
	s.peerMtx.Unlock()

	for _, sp := range peers {
		if !sp.VersionKnown() {
			continue
		}
		if err := sp.writeMessage(wire.NewMsgPing(nonce)); err != nil {
			peerLog.Debugf("Cannot send ping to %s: %v", sp, err)
		}
	}
}

// inboundPeerConnected is invoked by the connection manager when a new
// inbound connection is established.  It initializes a new peer instance and
// starts its handlers.
func (s *server) inboundPeerConnected(conn net.Conn) {
	sp := newServerPeer(s, conn, true)
	na, err := s.peerAddress(conn)
	if err != nil {
		srvrLog.Debugf("Cannot parse address of inbound peer %s: %v",
			conn.RemoteAddr(), err)
		conn.Close()
		return
	}
	sp.na = na
	s.addPeer(sp)
}

// outboundPeerConnected is invoked by the connection manager when a new
// outbound connection is established.  It initializes a new peer instance
// and starts its handlers.
func (s *server) outboundPeerConnected(c *connmgr.ConnReq, conn net.Conn) {
	sp := newServerPeer(s, conn, false)
	sp.connReq = c
	sp.persistent = c.Permanent

	na, err := s.addrManager.DeserializeNetAddress(c.Addr.String())
	if err != nil {
		srvrLog.Debugf("Cannot parse address of outbound peer %s: %v",
			c.Addr, err)
		s.connManager.Disconnect(c.ID())
		conn.Close()
		return
	}
	sp.na = na
	s.addrManager.Attempt(na)
	s.addPeer(sp)
}

// outboundPeerDisconnected is invoked by the connection manager when an
// outbound connection is disconnected.
func (s *server) outboundPeerDisconnected(c *connmgr.ConnReq) {
	srvrLog.Debugf("Outbound connection to %s done", c.Addr)
}

// newAddressFunc returns a function that provides new addresses for the
// connection manager to connect to.  Addresses are drawn from the address
// manager while skipping banned networks and addresses of peers that are
// already connected.
func (s *server) newAddressFunc() func() (net.Addr, error) {
	return func() (net.Addr, error) {
		for tries := 0; tries < 100; tries++ {
			ka := s.addrManager.GetAddress()
			if ka == nil {
				break
			}
			na := ka.NetAddress()

			if s.banManager.IsBanned(na) {
				continue
			}

			// Only allow recent nodes (10mins) after we failed 30
			// times.
			if tries < 30 &&
				time.Since(ka.LastAttempt()) < 10*time.Minute {
				continue
			}

			if s.isConnected(na) {
				continue
			}

			return addrStringToNetAddr(na.Key())
		}

		return nil, errors.New("no valid connect address")
	}
}

// isConnected returns whether a peer with the provided address is already
// connected.
func (s *server) isConnected(na *addrmgr.NetAddress) bool {
	key := na.Key()
	s.peerMtx.Lock()
	defer s.peerMtx.Unlock()
	for sp := range s.peers {
		if sp.na != nil && sp.na.Key() == key {
			return true
		}
	}
	return false
}

// addrStringToNetAddr takes an address in the form of 'host:port' and returns
// a net.Addr which maps to the original address with any host names resolved
// to IP addresses.  It also handles tor addresses properly by returning a
// net.Addr that encapsulates the address.
func addrStringToNetAddr(addr string) (net.Addr, error) {
	host, strPort, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}

	port, err := strconv.Atoi(strPort)
	if err != nil {
		return nil, err
	}

	// Skip if host is already an IP address.
	if ip := net.ParseIP(host); ip != nil {
		return &net.TCPAddr{
			IP:   ip,
			Port: port,
		}, nil
	}

	// Tor addresses cannot be resolved to an IP, so just return an onion
	// address instead.
	if strings.HasSuffix(host, ".onion") {
		if cfg.NoOnion {
			return nil, errors.New("tor has been disabled")
		}

		return &onionAddr{addr: addr}, nil
	}

	// Attempt to look up an IP address associated with the parsed host.
	ips, err := mariacoinLookup(host)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("no addresses found for %s", host)
	}

	return &net.TCPAddr{
		IP:   ips[0],
		Port: port,
	}, nil
}

// addLocalAddresses adds the configured external IPs and bound listener
// addresses to the address manager so they can be advertised to peers.
func (s *server) addLocalAddresses(listeners []net.Listener) {
	for _, sip := range cfg.ExternalIPs {
		eport, err := parsePort(s.chainParams.DefaultPort)
		if err != nil {
			continue
		}
		host, portStr, err := net.SplitHostPort(sip)
		if err == nil {
			eport, err = parsePort(portStr)
			if err != nil {
				srvrLog.Warnf("Cannot parse port in externalip "+
					"%s: %v", sip, err)
				continue
			}
		} else {
			host = sip
		}

		na, err := s.addrManager.HostToNetAddress(host, eport, s.services)
		if err != nil {
			srvrLog.Warnf("Not adding %s as externalip: %v", sip, err)
			continue
		}

		err = s.addrManager.AddLocalAddress(na, addrmgr.ManualPrio)
		if err != nil {
			amgrLog.Warnf("Skipping specified external IP: %v", err)
		}
	}

	for _, listener := range listeners {
		addr, ok := listener.Addr().(*net.TCPAddr)
		if !ok {
			continue
		}

		// No advertisable address when bound to all interfaces.
		if addr.IP.IsUnspecified() {
			continue
		}

		na := addrmgr.NewNetAddressFromIPPort(addr.IP,
			uint16(addr.Port), s.services)
		err := s.addrManager.AddLocalAddress(na, addrmgr.BoundPrio)
		if err != nil {
			amgrLog.Warnf("Skipping bound address: %v", err)
		}
	}
}

// setupListeners creates the configured listeners.
func setupListeners(listenAddrs []string) ([]net.Listener, error) {
	listeners := make([]net.Listener, 0, len(listenAddrs))
	for _, addr := range listenAddrs {
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			srvrLog.Warnf("Cannot listen on %s: %v", addr, err)
			continue
		}
		listeners = append(listeners, listener)
	}
	if len(listeners) == 0 {
		return nil, errors.New("no valid listen address")
	}

	return listeners, nil
}

// newServer returns a new mariacoin server configured to listen on the
// addresses specified by the configuration relative to the provided network
// parameters.
func newServer(chainParams *params) (*server, error) {
	s := &server{
		chainParams: chainParams.Params,
		nonce:       randomUint64(),
		services:    defaultServices,
		startupTime: time.Now().Unix(),
		peers:       make(map[*serverPeer]struct{}),
		quit:        make(chan struct{}),
	}

	s.addrManager = addrmgr.New(cfg.DataDir, mariacoinLookup, nil)
	s.banManager = banmgr.New(&banmgr.Config{
		DataDir:     cfg.DataDir,
		BanDuration: cfg.BanDuration,
	})

	var listeners []net.Listener
	if !cfg.DisableListen {
		var err error
		listeners, err = setupListeners(cfg.Listeners)
		if err != nil {
			return nil, err
		}
		s.addLocalAddresses(listeners)
	}

	targetOutbound := defaultTargetOutbound
	if cfg.MaxPeers < targetOutbound {
		targetOutbound = cfg.MaxPeers
	}
	cmgr, err := connmgr.New(&connmgr.Config{
		Listeners:       listeners,
		OnAccept:        s.inboundPeerConnected,
		AcceptFilter:    s.filterInbound,
		RetryDuration:   connectionRetryInterval,
		TargetOutbound:  uint32(targetOutbound),
		DialAddr:        mariacoinDial,
		OnConnection:    s.outboundPeerConnected,
		OnDisconnection: s.outboundPeerDisconnected,
		GetNewAddress:   s.newAddressFunc(),
	})
	if err != nil {
		return nil, err
	}
	s.connManager = cmgr

	return s, nil
}

// Run starts the server and blocks until the provided context is cancelled.
// It gracefully shuts down all active peers and subsystems on the way out.
func (s *server) Run(ctx context.Context) {
	srvrLog.Trace("Starting server")

	s.addrManager.Start()
	s.banManager.Start()

	// Seed peer addresses from the DNS seeds unless disabled.
	if !cfg.DisableDNSSeed {
		seeds := make([]string, 0, len(s.chainParams.DNSSeeds))
		for _, seed := range s.chainParams.DNSSeeds {
			seeds = append(seeds, seed.Host)
		}
		port, err := parsePort(s.chainParams.DefaultPort)
		if err == nil {
			connmgr.SeedFromDNS(seeds, port, defaultServices,
				mariacoinLookup, func(addrs []*addrmgr.NetAddress) {
					// Use the first address as the source of
					// the rest since the seeds do not report
					// one.
					s.addrManager.AddAddresses(addrs, addrs[0])
				})
		}
	}

	s.wg.Add(1)
	go func() {
		s.connManager.Run(ctx)
		s.wg.Done()
	}()

	// Wait for the shutdown signal and disconnect all remaining peers.
	<-ctx.Done()
	srvrLog.Warnf("Server shutting down")
	close(s.quit)

	s.peerMtx.Lock()
	for sp := range s.peers {
		sp.Disconnect()
	}
	s.peerMtx.Unlock()

	s.wg.Wait()

	if err := s.banManager.Stop(); err != nil {
		srvrLog.Errorf("Cannot stop ban manager: %v", err)
	}
	if err := s.addrManager.Stop(); err != nil {
		srvrLog.Errorf("Cannot stop address manager: %v", err)
	}
	srvrLog.Trace("Server shutdown complete")
}
