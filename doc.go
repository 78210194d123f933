// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2022 The Decred developers
// Copyright (c) 2024-2026 The Mariacoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
mariacoin is a Mariacoin network node written in Go.

It maintains a persistent view of the peer-to-peer network by exchanging
addresses with other nodes, manages bans of misbehaving networks, and exposes
both over an authenticated JSON-RPC interface.

The default options are sane for most users.  This means mariacoin will work
'out of the box' for most users.  However, there is also a wide variety of
flags that can be used to control it.

The following section provides a usage overview which enumerates the flags.
An interesting point to note is that the long form of all of these options
(except -C) can be specified in a configuration file that is automatically
parsed when mariacoin starts up.  By default, the configuration file is
located at ~/.mariacoin/mariacoin.conf on POSIX-style operating systems and
%LOCALAPPDATA%\Mariacoin\mariacoin.conf on Windows.  The -C (--configfile)
flag, as shown below, can be used to override this location.

Usage:

	mariacoin [OPTIONS]

Application Options:

	-V, --version           Display version information and exit
	-C, --configfile=       Path to configuration file
	-b, --datadir=          Directory to store data
	    --logdir=           Directory to log output
	    --listen=           Add an interface/port to listen for connections
	                        (default all interfaces port: 47773, testnet:
	                        57773)
	    --maxpeers=         Max number of inbound and outbound peers (125)
	    --nolisten          Disable listening for incoming connections
	    --nodnsseed         Disable DNS seeding for peers
	    --nobanning         Disable banning of misbehaving peers
	    --banduration=      How long to ban misbehaving peers.  Valid time
	                        units are {s, m, h}.  Minimum 1 second (24h0m0s)
	    --banthreshold=     Maximum allowed ban score before disconnecting
	                        and banning misbehaving peers (100)
	    --whitelist=        Add an IP network or IP that will not be banned.
	                        (eg. 192.168.1.0/24 or ::1)
	    --externalip=       Add an ip to the list of local addresses we claim
	                        to listen on to peers
	    --proxy=            Connect via SOCKS5 proxy (eg. 127.0.0.1:9050)
	    --proxyuser=        Username for proxy server
	    --proxypass=        Password for proxy server
	    --onion=            Connect to tor hidden services via SOCKS5 proxy
	                        (eg. 127.0.0.1:9050)
	    --onionuser=        Username for onion proxy server
	    --onionpass=        Password for onion proxy server
	    --noonion           Disable connecting to tor hidden services
	    --torisolation      Enable Tor stream isolation by randomizing user
	                        credentials for each connection
	    --testnet           Use the test network
	    --simnet            Use the simulation test network
	-d, --debuglevel=       Logging level for all subsystems {trace, debug,
	                        info, warn, error, critical} -- You may also
	                        specify
	                        <subsystem>=<level>,<subsystem2>=<level>,... to
	                        set the log level for individual subsystems --
	                        Use show to list available subsystems (info)
	-u, --rpcuser=          Username for RPC connections
	-P, --rpcpass=          Password for RPC connections
	    --rpclimituser=     Username for limited RPC connections
	    --rpclimitpass=     Password for limited RPC connections
	    --rpclisten=        Add an interface/port to listen for RPC
	                        connections (default port: 47770, testnet: 57770)
	    --rpcmaxclients=    Max number of RPC clients for standard
	                        connections (10)
	    --rpcmaxwebsockets= Max number of RPC websocket connections (25)
	    --norpc             Disable built-in RPC server -- NOTE: The RPC
	                        server is disabled by default if no
	                        rpcuser/rpcpass is specified

Help Options:

	-h, --help              Show this help message
*/
package main
