// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2020 The Decred developers
// Copyright (c) 2024-2026 The Mariacoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/TheRetroMike/mariacoin/addrmgr"
	"github.com/TheRetroMike/mariacoin/banmgr"
	"github.com/TheRetroMike/mariacoin/chaincfg"
	"github.com/TheRetroMike/mariacoin/rpc/jsonrpc/types"
	"github.com/decred/dcrd/dcrjson/v4"
	"github.com/gorilla/websocket"
	"golang.org/x/net/netutil"
)

// API version constants
const (
	jsonrpcSemverString = "1.0.0"
	jsonrpcSemverMajor  = 1
	jsonrpcSemverMinor  = 0
	jsonrpcSemverPatch  = 0
)

const (
	// rpcAuthTimeoutSeconds is the number of seconds a connection to the
	// RPC server is allowed to stay open without authenticating before it
	// is closed.
	rpcAuthTimeoutSeconds = 10

	// websocketWriteWait is the time allowed to write a message to a
	// websocket peer before the connection is considered dead.
	websocketWriteWait = time.Second * 10
)

// JSON 2.0 batched request prefix
var batchedRequestPrefix = []byte("[")

// rpcInternalError is a convenience function to convert an internal error to
// an RPC error with the appropriate code set.  It also logs the error to the
// RPC server subsystem since internal errors really should not occur.  The
// context parameter is only used in the log message and may be empty if it's
// not needed.
func rpcInternalError(errStr, context string) *dcrjson.RPCError {
	logStr := errStr
	if context != "" {
		logStr = context + ": " + errStr
	}
	rpcsLog.Error(logStr)
	return dcrjson.NewRPCError(dcrjson.ErrRPCInternal.Code, errStr)
}

// rpcInvalidError is a convenience function to convert an invalid parameter
// error to an RPC error with the appropriate code set.
func rpcInvalidError(fmtStr string, args ...interface{}) *dcrjson.RPCError {
	return dcrjson.NewRPCError(dcrjson.ErrRPCInvalidParameter,
		fmt.Sprintf(fmtStr, args...))
}

// rpcAddressError is a convenience function to convert an address related
// error to an RPC error with the appropriate code set.
func rpcAddressError(fmtStr string, args ...interface{}) *dcrjson.RPCError {
	return dcrjson.NewRPCError(dcrjson.ErrRPCInvalidAddressOrKey,
		fmt.Sprintf(fmtStr, args...))
}

type commandHandler func(context.Context, *RPCServer, interface{}) (interface{}, error)

// rpcHandlers maps RPC command strings to appropriate handler functions.
var rpcHandlers = map[types.Method]commandHandler{
	"addpeeraddress":            handleAddPeerAddress,
	"clearbanned":               handleClearBanned,
	"getconnectioncount":        handleGetConnectionCount,
	"getnodeaddresses":          handleGetNodeAddresses,
	"listbanned":                handleListBanned,
	"ping":                      handlePing,
	"setban":                    handleSetBan,
	"validatemasternodeaddress": handleValidateMasternodeAddress,
}

// rpcLimited defines the commands that are available to a limited user.
var rpcLimited = map[string]struct{}{
	"getconnectioncount":        {},
	"getnodeaddresses":          {},
	"listbanned":                {},
	"ping":                      {},
	"validatemasternodeaddress": {},
}

// handleAddPeerAddress implements the addpeeraddress command.
func handleAddPeerAddress(_ context.Context, s *RPCServer, icmd interface{}) (interface{}, error) {
	c := icmd.(*types.AddPeerAddressCmd)

	amgr := s.cfg.AddrManager
	na, err := amgr.HostToNetAddress(c.Address, c.Port, defaultServices)
	if err != nil {
		return nil, rpcAddressError("invalid address %q: %v", c.Address,
			err)
	}
	na.Timestamp = time.Now()

	// The address is its own source here which means it starts in the new
	// bucket associated with its own group.
	amgr.AddAddresses([]*addrmgr.NetAddress{na}, na)

	// Optionally move the address directly to the tried bucket.  The add
	// above silently ignores unroutable addresses, in which case marking
	// it good fails and the failure is reported to the caller.
	if c.Tried != nil && *c.Tried {
		if err := amgr.Good(na); err != nil {
			return nil, rpcAddressError("address %q not added: %v",
				c.Address, err)
		}
	}

	return nil, nil
}

// handleClearBanned implements the clearbanned command.
func handleClearBanned(_ context.Context, s *RPCServer, icmd interface{}) (interface{}, error) {
	s.cfg.BanManager.ClearBanned()
	return nil, nil
}

// handleGetConnectionCount implements the getconnectioncount command.
func handleGetConnectionCount(_ context.Context, s *RPCServer, icmd interface{}) (interface{}, error) {
	return s.cfg.ConnectedCount(), nil
}

// handleGetNodeAddresses implements the getnodeaddresses command.
func handleGetNodeAddresses(_ context.Context, s *RPCServer, icmd interface{}) (interface{}, error) {
	c := icmd.(*types.GetNodeAddressesCmd)

	count := 0
	if c.Count != nil {
		count = int(*c.Count)
	}
	if count < 0 {
		return nil, rpcInvalidError("address count out of range")
	}

	netType := addrmgr.UnknownAddressType
	if c.Network != nil && *c.Network != "" {
		netType = addrmgr.ParseNetAddressType(*c.Network)
		if netType == addrmgr.UnknownAddressType {
			return nil, rpcInvalidError("network %q unrecognized",
				*c.Network)
		}
	}

	addrs := s.cfg.AddrManager.GetAddresses(count, netType)
	results := make([]types.GetNodeAddressesResult, 0, len(addrs))
	for _, na := range addrs {
		host, _, err := net.SplitHostPort(na.Key())
		if err != nil {
			return nil, rpcInternalError(err.Error(),
				"getnodeaddresses")
		}
		results = append(results, types.GetNodeAddressesResult{
			Time:     na.Timestamp.Unix(),
			Services: uint64(na.Services),
			Address:  host,
			Port:     na.Port,
			Network:  na.Type.String(),
		})
	}
	return results, nil
}

// handleListBanned implements the listbanned command.
func handleListBanned(_ context.Context, s *RPCServer, icmd interface{}) (interface{}, error) {
	entries := s.cfg.BanManager.Banned()
	results := make([]types.ListBannedResult, 0, len(entries))
	for _, entry := range entries {
		results = append(results, types.ListBannedResult{
			Address:     entry.Subnet.String(),
			BannedUntil: entry.BanUntil.Unix(),
			BanCreated:  entry.CreateTime.Unix(),
			BanReason:   entry.Reason.String(),
		})
	}
	return results, nil
}

// handlePing implements the ping command.
func handlePing(_ context.Context, s *RPCServer, icmd interface{}) (interface{}, error) {
	// Ask the server to ping \o_
	s.cfg.BroadcastPing()
	return nil, nil
}

// handleSetBan implements the setban command.
func handleSetBan(_ context.Context, s *RPCServer, icmd interface{}) (interface{}, error) {
	c := icmd.(*types.SetBanCmd)

	sn, err := addrmgr.ParseSubNet(c.Subnet)
	if err != nil {
		return nil, rpcAddressError("invalid subnet %q: %v", c.Subnet,
			err)
	}

	bmgr := s.cfg.BanManager
	switch c.SubCmd {
	case types.SBAdd:
		var banTime int64
		if c.BanTime != nil {
			banTime = *c.BanTime
		}
		var absolute bool
		if c.Absolute != nil {
			absolute = *c.Absolute
		}
		err := bmgr.Ban(sn, banmgr.BanReasonManuallyAdded, banTime,
			absolute)
		if err != nil {
			return nil, rpcInvalidError("cannot ban %q: %v",
				c.Subnet, err)
		}

	case types.SBRemove:
		if err := bmgr.Unban(sn); err != nil {
			if errors.Is(err, banmgr.ErrUnknownTarget) {
				return nil, rpcInvalidError("%q was not "+
					"previously banned", c.Subnet)
			}
			return nil, rpcInternalError(err.Error(), "setban")
		}

	default:
		return nil, rpcInvalidError("invalid setban subcommand %q",
			c.SubCmd)
	}

	return nil, nil
}

// handleValidateMasternodeAddress implements the validatemasternodeaddress
// command.
func handleValidateMasternodeAddress(_ context.Context, s *RPCServer, icmd interface{}) (interface{}, error) {
	c := icmd.(*types.ValidateMasternodeAddressCmd)

	result := types.ValidateMasternodeAddressResult{
		Address: c.Address,
		Valid:   addrmgr.ValidateMasternodeAddress(c.Address),
	}
	if result.Valid {
		netType, _ := addrmgr.EncodeHost(c.Address)
		result.Network = netType.String()
	}
	return result, nil
}

// RPCServer provides a concurrent safe RPC server to a mariacoin node.
type RPCServer struct {
	// The following variables must only be used atomically.
	numClients   int32
	numWsClients int32
	shutdown     int32

	cfg          rpcserverConfig
	authsha      [sha256.Size]byte
	limitauthsha [sha256.Size]byte
	wg           sync.WaitGroup
}

// limitConnections responds with a 503 service unavailable and returns true if
// adding another client would exceed the maximum allow RPC clients.
//
// This function is safe for concurrent access.
func (s *RPCServer) limitConnections(w http.ResponseWriter, remoteAddr string) bool {
	if int(atomic.LoadInt32(&s.numClients)+1) > s.cfg.RPCMaxClients {
		rpcsLog.Infof("Max RPC clients exceeded [%d] - "+
			"disconnecting client %s", s.cfg.RPCMaxClients,
			remoteAddr)
		http.Error(w, "503 Too busy.  Try again later.",
			http.StatusServiceUnavailable)
		return true
	}
	return false
}

// incrementClients adds one to the number of connected RPC clients.  Note
// this only applies to standard clients.  Websocket clients have their own
// limits and are tracked separately.
//
// This function is safe for concurrent access.
func (s *RPCServer) incrementClients() {
	atomic.AddInt32(&s.numClients, 1)
}

// decrementClients subtracts one from the number of connected RPC clients.
// Note this only applies to standard clients.  Websocket clients have their
// own limits and are tracked separately.
//
// This function is safe for concurrent access.
func (s *RPCServer) decrementClients() {
	atomic.AddInt32(&s.numClients, -1)
}

// checkAuth checks the HTTP Basic authentication supplied by an RPC client in
// the HTTP request r.  If the supplied authentication does not match the
// username and password expected, a non-nil error is returned.
//
// This check is time-constant.
//
// The first bool return value signifies auth success (true if successful) and
// the second bool return value specifies whether the user can change the
// state of the server (true) or whether the user is limited (false).  The
// second is always false if the first is.
func (s *RPCServer) checkAuth(r *http.Request, require bool) (bool, bool, error) {
	authhdr := r.Header["Authorization"]
	if len(authhdr) == 0 {
		if require {
			rpcsLog.Warnf("RPC authentication failure from %s",
				r.RemoteAddr)
			return false, false, errors.New("auth failure")
		}

		return false, false, nil
	}

	authsha := sha256.Sum256([]byte(authhdr[0]))

	// Check for limited auth first as in environments with limited users,
	// those are probably expected to have a higher volume of calls.
	limitcmp := subtle.ConstantTimeCompare(authsha[:], s.limitauthsha[:])
	if limitcmp == 1 {
		return true, false, nil
	}

	// Check for admin-level auth
	cmp := subtle.ConstantTimeCompare(authsha[:], s.authsha[:])
	if cmp == 1 {
		return true, true, nil
	}

	// Request's auth doesn't match either user
	rpcsLog.Warnf("RPC authentication failure from %s", r.RemoteAddr)
	return false, false, errors.New("auth failure")
}

// parsedRPCCmd represents a JSON-RPC request object that has been parsed into
// a known concrete command along with any error that might have happened
// while parsing it.
type parsedRPCCmd struct {
	jsonrpc string
	id      interface{}
	method  types.Method
	params  interface{}
	err     *dcrjson.RPCError
}

// standardCmdResult checks that a parsed command is a standard JSON-RPC
// command and runs the appropriate handler to reply to the command.  Any
// commands which are not recognized or not implemented will return an error
// suitable for use in replies.
func (s *RPCServer) standardCmdResult(ctx context.Context, cmd *parsedRPCCmd) (interface{}, error) {
	handler, ok := rpcHandlers[cmd.method]
	if !ok {
		return nil, dcrjson.ErrRPCMethodNotFound
	}
	return handler(ctx, s, cmd.params)
}

// parseCmd parses a JSON-RPC request object into known concrete command.  The
// err field of the returned parsedRPCCmd struct will contain an RPC error
// that is suitable for use in replies if the command is invalid in some way
// such as an unregistered command or invalid parameters.
func parseCmd(request *dcrjson.Request) *parsedRPCCmd {
	parsedCmd := parsedRPCCmd{
		jsonrpc: request.Jsonrpc,
		id:      request.ID,
		method:  types.Method(request.Method),
	}

	params, err := dcrjson.ParseParams(types.Method(request.Method),
		request.Params)
	if err != nil {
		// When the error is because the method is not registered,
		// produce a method not found RPC error.
		var jerr dcrjson.Error
		if errors.As(err, &jerr) &&
			errors.Is(jerr.Err, dcrjson.ErrUnregisteredMethod) {
			parsedCmd.err = dcrjson.ErrRPCMethodNotFound
			return &parsedCmd
		}

		// Otherwise, some type of invalid parameters is the cause, so
		// produce the equivalent RPC error.
		parsedCmd.err = rpcInvalidError("Failed to parse request: %v",
			err)
		return &parsedCmd
	}

	parsedCmd.params = params
	return &parsedCmd
}

// createMarshalledReply returns a new marshalled JSON-RPC response given the
// passed parameters.  It will automatically convert errors that are not of
// the type *dcrjson.RPCError to the appropriate type as needed.
func createMarshalledReply(rpcVersion string, id interface{}, result interface{}, replyErr error) ([]byte, error) {
	var jsonErr *dcrjson.RPCError
	if replyErr != nil && !errors.As(replyErr, &jsonErr) {
		jsonErr = rpcInternalError(replyErr.Error(), "")
	}

	return dcrjson.MarshalResponse(rpcVersion, id, result, jsonErr)
}

// processRequest determines the incoming request type (single or batched),
// parses it and returns a marshalled response.
func (s *RPCServer) processRequest(ctx context.Context, request *dcrjson.Request, isAdmin bool) []byte {
	var result interface{}
	var jsonErr error

	if !isAdmin {
		if _, ok := rpcLimited[request.Method]; !ok {
			jsonErr = rpcInvalidError("limited user not " +
				"authorized for this method")
		}
	}

	if jsonErr == nil {
		if request.Method == "" {
			jsonErr = &dcrjson.RPCError{
				Code:    dcrjson.ErrRPCInvalidRequest.Code,
				Message: "Invalid request: malformed",
			}
			msg, err := createMarshalledReply(request.Jsonrpc,
				request.ID, result, jsonErr)
			if err != nil {
				rpcsLog.Errorf("Failed to marshal reply: %v", err)
				return nil
			}
			return msg
		}

		// Valid requests with no ID (notifications) must not have a
		// response per the JSON-RPC spec.
		if request.ID == nil {
			return nil
		}

		// Attempt to parse the JSON-RPC request into a known concrete
		// command.
		parsedCmd := parseCmd(request)
		if parsedCmd.err != nil {
			jsonErr = parsedCmd.err
		} else {
			result, jsonErr = s.standardCmdResult(ctx, parsedCmd)
		}
	}

	// Marshal the response.
	msg, err := createMarshalledReply(request.Jsonrpc, request.ID, result,
		jsonErr)
	if err != nil {
		rpcsLog.Errorf("Failed to marshal reply: %v", err)
		return nil
	}
	return msg
}

// processRequestBody parses the raw bytes of a JSON-RPC request body which
// may contain a single request or a batch and returns the marshalled
// response.
func (s *RPCServer) processRequestBody(ctx context.Context, body []byte, isAdmin bool) []byte {
	var results []json.RawMessage
	var batchSize int
	batchedRequest := bytes.HasPrefix(body, batchedRequestPrefix)

	// Process a single request
	if !batchedRequest {
		var req dcrjson.Request
		var resp json.RawMessage
		err := json.Unmarshal(body, &req)
		if err != nil {
			jsonErr := &dcrjson.RPCError{
				Code: dcrjson.ErrRPCParse.Code,
				Message: fmt.Sprintf("Failed to parse request: %v",
					err),
			}
			resp, err = dcrjson.MarshalResponse("1.0", nil, nil, jsonErr)
			if err != nil {
				rpcsLog.Errorf("Failed to create reply: %v", err)
			}
		} else {
			resp = s.processRequest(ctx, &req, isAdmin)
		}

		if resp != nil {
			results = append(results, resp)
		}
	}

	// Process a batched request
	if batchedRequest {
		var batchedRequests []json.RawMessage
		var resp json.RawMessage
		err := json.Unmarshal(body, &batchedRequests)
		if err != nil {
			jsonErr := &dcrjson.RPCError{
				Code: dcrjson.ErrRPCParse.Code,
				Message: fmt.Sprintf("Failed to parse request: %v",
					err),
			}
			resp, err = dcrjson.MarshalResponse("2.0", nil, nil, jsonErr)
			if err != nil {
				rpcsLog.Errorf("Failed to create reply: %v", err)
			}

			if resp != nil {
				results = append(results, resp)
			}
		}

		if err == nil {
			// Respond with an empty batch error if the batch size
			// is zero.
			if len(batchedRequests) == 0 {
				jsonErr := &dcrjson.RPCError{
					Code:    dcrjson.ErrRPCInvalidRequest.Code,
					Message: "Invalid request: empty batch",
				}
				resp, err = dcrjson.MarshalResponse("2.0", nil,
					nil, jsonErr)
				if err != nil {
					rpcsLog.Errorf("Failed to marshal reply: %v",
						err)
				}

				if resp != nil {
					results = append(results, resp)
				}
			}

			// Process each batch entry individually
			if len(batchedRequests) > 0 {
				batchSize = len(batchedRequests)

				for _, entry := range batchedRequests {
					var req dcrjson.Request
					err := json.Unmarshal(entry, &req)
					if err != nil {
						jsonErr := &dcrjson.RPCError{
							Code: dcrjson.ErrRPCInvalidRequest.Code,
							Message: fmt.Sprintf(
								"Invalid request: %v", err),
						}
						resp, err = dcrjson.MarshalResponse("",
							nil, nil, jsonErr)
						if err != nil {
							rpcsLog.Errorf("Failed to "+
								"create reply: %v", err)
						}

						if resp != nil {
							results = append(results, resp)
						}
						continue
					}

					resp = s.processRequest(ctx, &req, isAdmin)
					if resp != nil {
						results = append(results, resp)
					}
				}
			}
		}
	}

	var msg = []byte{}
	if batchedRequest && batchSize > 0 {
		if len(results) > 0 {
			// Form the batched response json
			var buffer bytes.Buffer
			buffer.WriteByte('[')
			for idx, reply := range results {
				if idx == len(results)-1 {
					buffer.Write(reply)
					buffer.WriteByte(']')
					break
				}
				buffer.Write(reply)
				buffer.WriteByte(',')
			}
			msg = buffer.Bytes()
		}
	}

	if !batchedRequest || batchSize == 0 {
		// Respond with the first results entry for single requests
		if len(results) > 0 {
			msg = results[0]
		}
	}

	return msg
}

// jsonRPCRead handles reading and responding to RPC messages.
func (s *RPCServer) jsonRPCRead(ctx context.Context, w http.ResponseWriter, r *http.Request, isAdmin bool) {
	select {
	case <-ctx.Done():
		return
	default:
	}

	// Read and close the JSON-RPC request body from the caller.
	body, err := io.ReadAll(r.Body)
	r.Body.Close()
	if err != nil {
		errMsg := fmt.Sprintf("error reading JSON message: %v", err)
		errCode := http.StatusBadRequest
		http.Error(w, strconv.Itoa(errCode)+" "+errMsg, errCode)
		return
	}

	msg := s.processRequestBody(ctx, body, isAdmin)

	// Write the response.
	if _, err := w.Write(msg); err != nil {
		rpcsLog.Errorf("Failed to write marshalled reply: %v", err)
	}

	// Terminate with newline to maintain compatibility with the reference
	// implementation.
	if _, err := w.Write([]byte{'\n'}); err != nil {
		rpcsLog.Errorf("Failed to append terminating newline to "+
			"reply: %v", err)
	}
}

// upgrader upgrades HTTP connections on the websocket endpoint.  Origin
// checks do not apply to the authenticated RPC service.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// websocketHandler services a JSON-RPC session over the provided websocket
// connection until the client disconnects or the server shuts down.
func (s *RPCServer) websocketHandler(ctx context.Context, ws *websocket.Conn, remoteAddr string, isAdmin bool) {
	defer ws.Close()

	// Limit the number of concurrent websocket clients.
	if int(atomic.AddInt32(&s.numWsClients, 1)) > s.cfg.RPCMaxWebsockets {
		rpcsLog.Infof("Max websocket clients exceeded [%d] - "+
			"disconnecting client %s", s.cfg.RPCMaxWebsockets,
			remoteAddr)
		atomic.AddInt32(&s.numWsClients, -1)
		return
	}
	defer atomic.AddInt32(&s.numWsClients, -1)

	rpcsLog.Infof("New websocket client %s", remoteAddr)
	defer rpcsLog.Infof("Disconnected websocket client %s", remoteAddr)

	ws.SetPingHandler(func(payload string) error {
		err := ws.WriteControl(websocket.PongMessage, []byte(payload),
			time.Now().Add(websocketWriteWait))
		rpcsLog.Debugf("ping received: len %d", len(payload))
		if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			rpcsLog.Errorf("Failed to send pong: %v", err)
			return err
		}
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msgType, body, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway) {
				rpcsLog.Debugf("Websocket receive error from "+
					"%s: %v", remoteAddr, err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			rpcsLog.Debugf("Websocket client %s sent a non-text "+
				"message - disconnecting", remoteAddr)
			return
		}

		reply := s.processRequestBody(ctx, body, isAdmin)
		if reply == nil {
			continue
		}

		ws.SetWriteDeadline(time.Now().Add(websocketWriteWait))
		if err := ws.WriteMessage(websocket.TextMessage, reply); err != nil {
			rpcsLog.Debugf("Websocket send error to %s: %v",
				remoteAddr, err)
			return
		}
	}
}

// jsonAuthFail sends a message back to the client if the http auth is
// rejected.
func jsonAuthFail(w http.ResponseWriter) {
	w.Header().Add("WWW-Authenticate", `Basic realm="mariacoin RPC"`)
	http.Error(w, "401 Unauthorized.", http.StatusUnauthorized)
}

// route sets up the endpoints of the rpc server.
func (s *RPCServer) route(ctx context.Context) *http.Server {
	rpcServeMux := http.NewServeMux()
	httpServer := &http.Server{
		Handler: rpcServeMux,

		// Timeout connections which don't complete the initial
		// handshake within the allowed timeframe.
		ReadTimeout: time.Second * rpcAuthTimeoutSeconds,
	}
	rpcServeMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Connection", "close")
		w.Header().Set("Content-Type", "application/json")
		r.Close = true

		// Limit the number of connections to max allowed.
		if s.limitConnections(w, r.RemoteAddr) {
			return
		}

		// Keep track of the number of connected clients.
		s.incrementClients()
		defer s.decrementClients()
		_, isAdmin, err := s.checkAuth(r, true)
		if err != nil {
			jsonAuthFail(w)
			return
		}

		// Read and respond to the request.
		s.jsonRPCRead(ctx, w, r, isAdmin)
	})

	// Websocket endpoint.
	rpcServeMux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		_, isAdmin, err := s.checkAuth(r, true)
		if err != nil {
			jsonAuthFail(w)
			return
		}

		// Attempt to upgrade the connection to a websocket connection
		// using the default size for read/write buffers.
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			var herr websocket.HandshakeError
			if !errors.As(err, &herr) {
				rpcsLog.Errorf("Unexpected websocket error: %v",
					err)
			}
			http.Error(w, "400 Bad Request.", http.StatusBadRequest)
			return
		}
		s.websocketHandler(ctx, ws, r.RemoteAddr, isAdmin)
	})
	return httpServer
}

// Run starts the rpc server and its listeners.  It blocks until the provided
// context is cancelled.
func (s *RPCServer) Run(ctx context.Context) {
	rpcsLog.Trace("Starting RPC server")
	server := s.route(ctx)
	for _, listener := range s.cfg.Listeners {
		s.wg.Add(1)
		go func(listener net.Listener) {
			rpcsLog.Infof("RPC server listening on %s", listener.Addr())
			server.Serve(listener)
			rpcsLog.Tracef("RPC listener done for %s", listener.Addr())
			s.wg.Done()
		}(listener)
	}

	<-ctx.Done()
	if atomic.AddInt32(&s.shutdown, 1) == 1 {
		rpcsLog.Warnf("RPC server shutting down")
		server.Close()
	}
	s.wg.Wait()
	rpcsLog.Infof("RPC server shutdown complete")
}

// rpcserverConfig is a descriptor containing the RPC server configuration.
type rpcserverConfig struct {
	// Listeners defines a slice of listeners for which the RPC server
	// will take ownership of and accept connections.  Since the RPC
	// server takes ownership of these listeners, they will be closed when
	// the RPC server is stopped.
	Listeners []net.Listener

	// StartupTime is the unix timestamp for when the server that is
	// hosting the RPC server started.
	StartupTime int64

	// ChainParams defines the active network parameters.
	ChainParams *chaincfg.Params

	// AddrManager defines a concurrency safe address manager for caching
	// potential peers on the network.
	AddrManager *addrmgr.AddrManager

	// BanManager defines the ban manager the RPC server interacts with to
	// list and modify bans.
	BanManager *banmgr.BanManager

	// ConnectedCount returns the number of currently connected peers.
	ConnectedCount func() int32

	// BroadcastPing queues a ping message to all connected peers.
	BroadcastPing func()

	// These fields define the username and password for RPC connections
	// and limited RPC connections.
	RPCUser      string
	RPCPass      string
	RPCLimitUser string
	RPCLimitPass string

	// RPCMaxClients defines the max number of RPC clients for standard
	// connections.
	RPCMaxClients int

	// RPCMaxWebsockets defines the max number of RPC websocket
	// connections.
	RPCMaxWebsockets int
}

// setupRPCListeners returns a slice of listeners that are configured for use
// with the RPC server depending on the configuration settings for listen
// addresses.  The listeners limit the number of simultaneous connections so
// that connection attempts beyond the configured maximum do not pile up.
func setupRPCListeners(listenAddrs []string, maxClients int) ([]net.Listener, error) {
	listeners := make([]net.Listener, 0, len(listenAddrs))
	for _, addr := range listenAddrs {
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			rpcsLog.Warnf("Cannot listen on %s: %v", addr, err)
			continue
		}

		// One above the max so excess clients receive the busy error
		// instead of a refused connection.
		listeners = append(listeners,
			netutil.LimitListener(listener, maxClients+1))
	}
	if len(listeners) == 0 {
		return nil, errors.New("no valid rpc listen address")
	}

	return listeners, nil
}

// newRPCServer returns a new instance of the RPCServer struct.
func newRPCServer(config *rpcserverConfig) (*RPCServer, error) {
	rpc := RPCServer{
		cfg: *config,
	}
	if config.RPCUser != "" && config.RPCPass != "" {
		login := config.RPCUser + ":" + config.RPCPass
		auth := "Basic " +
			base64.StdEncoding.EncodeToString([]byte(login))
		rpc.authsha = sha256.Sum256([]byte(auth))
	}
	if config.RPCLimitUser != "" && config.RPCLimitPass != "" {
		login := config.RPCLimitUser + ":" + config.RPCLimitPass
		auth := "Basic " +
			base64.StdEncoding.EncodeToString([]byte(login))
		rpc.limitauthsha = sha256.Sum256([]byte(auth))
	}

	return &rpc, nil
}
