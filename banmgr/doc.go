// Copyright (c) 2024-2026 The Mariacoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package banmgr implements a concurrency safe ban list for network subnets.

# Overview

The ban manager records subnets (single addresses are stored as full-width
subnets) that the node refuses to dial or accept connections from.  Entries
carry a creation time, an expiry time, and a reason, and are consulted on
every connection attempt through IsBanned.  Expired entries stop matching
immediately, a periodic sweep removes them from the table.

Bans may be requested with an explicit duration, an absolute expiry
timestamp, or the configured default duration.  The ban list is persisted to
a JSON file in the configured data directory and restored, minus any entries
that expired in the meantime, when the manager is started.
*/
package banmgr
