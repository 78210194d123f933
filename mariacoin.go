// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2024 The Decred developers
// Copyright (c) 2024-2026 The Mariacoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"runtime"
	"sync"
)

var cfg *config

// winServiceMain is only invoked on Windows.  It detects when mariacoin is
// running as a service and reacts accordingly.
var winServiceMain func() (bool, error)

// mariacoinMain is the real main function for mariacoin.  It is necessary to
// work around the fact that deferred functions do not run when os.Exit() is
// called.
func mariacoinMain() error {
	// Load configuration and parse command line.  This function also
	// initializes logging and configures it accordingly.
	tcfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	cfg = tcfg
	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	// Get a context that will be canceled when a shutdown signal has been
	// triggered either from an OS signal such as SIGINT (Ctrl+C) or from
	// another subsystem such as the RPC server.
	ctx := shutdownListener()
	defer maraLog.Info("Shutdown complete")

	// Show version at startup.
	maraLog.Infof("Version %s (Go version %s %s/%s)", version(),
		runtime.Version(), runtime.GOOS, runtime.GOARCH)

	// Create the data directory.
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		maraLog.Errorf("Unable to create data directory: %v", err)
		return err
	}

	// Return now if a shutdown signal was triggered.
	if shutdownRequested(ctx) {
		return nil
	}

	// Create server.
	svr, err := newServer(activeNetParams)
	if err != nil {
		maraLog.Errorf("Unable to start server: %v", err)
		return err
	}

	// Create the RPC server unless it is disabled by the configuration.
	var rpcServer *RPCServer
	if !cfg.DisableRPC {
		rpcListeners, err := setupRPCListeners(cfg.RPCListeners,
			cfg.RPCMaxClients)
		if err != nil {
			maraLog.Errorf("Unable to setup RPC listeners: %v", err)
			return err
		}

		rpcServer, err = newRPCServer(&rpcserverConfig{
			Listeners:        rpcListeners,
			StartupTime:      svr.StartupTime(),
			ChainParams:      activeNetParams.Params,
			AddrManager:      svr.addrManager,
			BanManager:       svr.banManager,
			ConnectedCount:   svr.ConnectedCount,
			BroadcastPing:    svr.broadcastPing,
			RPCUser:          cfg.RPCUser,
			RPCPass:          cfg.RPCPass,
			RPCLimitUser:     cfg.RPCLimitUser,
			RPCLimitPass:     cfg.RPCLimitPass,
			RPCMaxClients:    cfg.RPCMaxClients,
			RPCMaxWebsockets: cfg.RPCMaxWebsockets,
		})
		if err != nil {
			maraLog.Errorf("Unable to create RPC server: %v", err)
			return err
		}
	}

	if shutdownRequested(ctx) {
		return nil
	}

	// Run the servers.  This will block until the context is cancelled
	// which happens when the interrupt signal is received from an OS
	// signal or shutdown is requested through one of the subsystems.
	var wg sync.WaitGroup
	if rpcServer != nil {
		wg.Add(1)
		go func() {
			rpcServer.Run(ctx)
			wg.Done()
		}()
	}
	svr.Run(ctx)
	wg.Wait()
	srvrLog.Infof("Server shutdown complete")
	return nil
}

func main() {
	// Call serviceMain on Windows to handle running as a service.  When
	// the return isService flag is true, exit now since we ran as a
	// service.  Otherwise, just fall through to normal operation.
	if runtime.GOOS == "windows" {
		isService, err := winServiceMain()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		if isService {
			os.Exit(0)
		}
	}

	// Work around defer not working after os.Exit()
	if err := mariacoinMain(); err != nil {
		os.Exit(1)
	}
}
