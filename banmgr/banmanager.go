// Copyright (c) 2024-2026 The Mariacoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package banmgr

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/TheRetroMike/mariacoin/addrmgr"
)

const (
	// banlistFilename is the default filename to store the serialized ban
	// list.
	banlistFilename = "banlist.json"

	// defaultBanDuration is the ban duration applied when a ban request
	// does not specify one.
	defaultBanDuration = time.Hour * 24

	// dumpBanlistInterval is the interval used to sweep expired entries
	// and save the ban list to disk.
	dumpBanlistInterval = time.Minute * 10

	// serialisationVersion is the current version of the on-disk format.
	serialisationVersion = 1
)

// BanReason describes the cause of a ban.
type BanReason uint8

const (
	// BanReasonUnknown is the zero value of BanReason and describes an
	// entry with no recorded cause, such as one loaded from a ban list
	// written by a newer version.
	BanReasonUnknown BanReason = iota

	// BanReasonManuallyAdded describes a ban requested by an operator,
	// typically through the RPC server or configuration.
	BanReasonManuallyAdded

	// BanReasonNodeMisbehaving describes a ban applied automatically in
	// response to protocol misbehavior.
	BanReasonNodeMisbehaving
)

// String returns the BanReason in human-readable form.
func (r BanReason) String() string {
	switch r {
	case BanReasonManuallyAdded:
		return "manually added"
	case BanReasonNodeMisbehaving:
		return "node misbehaving"
	}
	return "unknown"
}

// BanEntry describes a banned subnet along with when the ban was created,
// when it expires, and why it exists.  Single banned addresses are stored as
// full-width subnets.
type BanEntry struct {
	Subnet     addrmgr.SubNet
	CreateTime time.Time
	BanUntil   time.Time
	Reason     BanReason
}

// Config holds the configuration options related to the ban manager.
type Config struct {
	// DataDir is the directory the ban list is persisted in.
	DataDir string

	// BanDuration is the duration applied to bans that do not specify
	// one.  It defaults to 24 hours when zero.
	BanDuration time.Duration
}

// BanManager provides a concurrency safe ban list keyed by subnet.  Entries
// are consulted on every inbound and outbound connection attempt, persisted
// across restarts, and swept of expired entries periodically.
type BanManager struct {
	mtx         sync.Mutex
	banned      map[addrmgr.SubNet]*BanEntry
	banChanged  bool
	banFile     string
	banDuration time.Duration

	started  int32
	shutdown int32
	wg       sync.WaitGroup
	quit     chan struct{}
}

// banUntil returns the expiry timestamp for a ban request.  A zero duration
// selects the configured default.  When absolute is set, durationSeconds is
// interpreted as a Unix timestamp rather than an offset from now.
func (bm *BanManager) banUntil(durationSeconds int64, absolute bool) time.Time {
	if absolute {
		return time.Unix(durationSeconds, 0)
	}
	if durationSeconds == 0 {
		return time.Now().Add(bm.banDuration)
	}
	return time.Now().Add(time.Duration(durationSeconds) * time.Second)
}

// Ban inserts or replaces a ban list entry for the provided subnet.  A zero
// durationSeconds applies the configured default duration.  When absolute is
// set, durationSeconds is itself a Unix timestamp for the ban expiry rather
// than an offset from now.
//
// This function is safe for concurrent access.
func (bm *BanManager) Ban(sn addrmgr.SubNet, reason BanReason, durationSeconds int64, absolute bool) error {
	if !sn.IsValid() {
		str := "unable to ban an invalid subnet"
		return makeError(ErrInvalidBanTarget, str)
	}

	entry := &BanEntry{
		Subnet:     sn,
		CreateTime: time.Now(),
		BanUntil:   bm.banUntil(durationSeconds, absolute),
		Reason:     reason,
	}

	bm.mtx.Lock()
	bm.banned[sn] = entry
	bm.banChanged = true
	bm.mtx.Unlock()

	log.Debugf("Banned %s until %v (%s)", sn, entry.BanUntil, reason)
	return nil
}

// BanAddress bans the single provided address by storing it as a full-width
// subnet.  See Ban for the treatment of durationSeconds and absolute.
//
// This function is safe for concurrent access.
func (bm *BanManager) BanAddress(netAddr *addrmgr.NetAddress, reason BanReason, durationSeconds int64, absolute bool) error {
	sn, err := addrmgr.NewSubNetFromNetAddress(netAddr)
	if err != nil {
		return err
	}
	return bm.Ban(sn, reason, durationSeconds, absolute)
}

// IsBanned returns whether the provided address matches any ban list entry
// that has not yet expired.  Expired entries are ignored rather than removed,
// removal is handled by the periodic sweep.
//
// This function is safe for concurrent access.
func (bm *BanManager) IsBanned(netAddr *addrmgr.NetAddress) bool {
	now := time.Now()

	bm.mtx.Lock()
	defer bm.mtx.Unlock()

	for _, entry := range bm.banned {
		if now.Before(entry.BanUntil) && entry.Subnet.Match(netAddr) {
			return true
		}
	}
	return false
}

// Unban removes the ban list entry for the provided subnet.  It returns an
// error with kind ErrUnknownTarget if no entry for the subnet exists.
//
// This function is safe for concurrent access.
func (bm *BanManager) Unban(sn addrmgr.SubNet) error {
	bm.mtx.Lock()
	defer bm.mtx.Unlock()

	if _, exists := bm.banned[sn]; !exists {
		str := fmt.Sprintf("subnet %s is not banned", sn)
		return makeError(ErrUnknownTarget, str)
	}
	delete(bm.banned, sn)
	bm.banChanged = true
	return nil
}

// ClearBanned removes all ban list entries.
//
// This function is safe for concurrent access.
func (bm *BanManager) ClearBanned() {
	bm.mtx.Lock()
	if len(bm.banned) > 0 {
		bm.banned = make(map[addrmgr.SubNet]*BanEntry)
		bm.banChanged = true
	}
	bm.mtx.Unlock()
}

// SweepExpired removes all ban list entries whose expiry has passed.  It
// returns the number of entries removed.
//
// This function is safe for concurrent access.
func (bm *BanManager) SweepExpired() int {
	now := time.Now()

	bm.mtx.Lock()
	defer bm.mtx.Unlock()

	var removed int
	for sn, entry := range bm.banned {
		if !now.Before(entry.BanUntil) {
			delete(bm.banned, sn)
			removed++
		}
	}
	if removed > 0 {
		bm.banChanged = true
		log.Debugf("Swept %d expired ban list entries", removed)
	}
	return removed
}

// Banned returns a copy of every ban list entry, including entries that have
// expired but not yet been swept, ordered by subnet.
//
// This function is safe for concurrent access.
func (bm *BanManager) Banned() []*BanEntry {
	bm.mtx.Lock()
	entries := make([]*BanEntry, 0, len(bm.banned))
	for _, entry := range bm.banned {
		entryCopy := *entry
		entries = append(entries, &entryCopy)
	}
	bm.mtx.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Subnet.String() < entries[j].Subnet.String()
	})
	return entries
}

// serializedBanEntry is the on-disk form of a ban list entry.
type serializedBanEntry struct {
	Subnet     string `json:"subnet"`
	CreateTime int64  `json:"ban_created"`
	BanUntil   int64  `json:"banned_until"`
	Reason     uint8  `json:"ban_reason"`
}

type serializedBanList struct {
	Version int
	Entries []*serializedBanEntry
}

// banHandler is the main handler for the ban manager.  It must be run as a
// goroutine.
func (bm *BanManager) banHandler() {
	dumpTicker := time.NewTicker(dumpBanlistInterval)
	defer dumpTicker.Stop()
out:
	for {
		select {
		case <-dumpTicker.C:
			bm.SweepExpired()
			bm.saveBanlist()

		case <-bm.quit:
			break out
		}
	}
	bm.saveBanlist()
	bm.wg.Done()
	log.Trace("Ban handler done")
}

// saveBanlist saves the ban list to a file so it can be read back in at next
// run.  The entries are snapshotted under the lock and the file is written
// without it, so callers banning or querying subnets are never blocked behind
// disk I/O.
func (bm *BanManager) saveBanlist() {
	bm.mtx.Lock()
	if !bm.banChanged {
		// Nothing changed since last saveBanlist call.
		bm.mtx.Unlock()
		return
	}

	sbl := new(serializedBanList)
	sbl.Version = serialisationVersion
	sbl.Entries = make([]*serializedBanEntry, 0, len(bm.banned))
	for sn, entry := range bm.banned {
		sbl.Entries = append(sbl.Entries, &serializedBanEntry{
			Subnet:     sn.String(),
			CreateTime: entry.CreateTime.Unix(),
			BanUntil:   entry.BanUntil.Unix(),
			Reason:     uint8(entry.Reason),
		})
	}
	bm.banChanged = false
	bm.mtx.Unlock()

	// A failed write leaves the list marked dirty so the next pass
	// retries it.
	retry := func() {
		bm.mtx.Lock()
		bm.banChanged = true
		bm.mtx.Unlock()
	}

	// Write temporary ban list file and then move it into place.
	tmpfile := bm.banFile + ".new"
	w, err := os.Create(tmpfile)
	if err != nil {
		log.Errorf("Error opening file %s: %v", tmpfile, err)
		retry()
		return
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(&sbl); err != nil {
		log.Errorf("Failed to encode file %s: %v", tmpfile, err)
		retry()
		return
	}
	if err := w.Close(); err != nil {
		log.Errorf("Error closing file %s: %v", tmpfile, err)
		retry()
		return
	}
	if err := os.Rename(tmpfile, bm.banFile); err != nil {
		log.Errorf("Error writing file %s: %v", bm.banFile, err)
		retry()
		return
	}
}

// loadBanlist loads the ban list from a saved file.  If the file is empty,
// missing, or malformed then the ban manager starts with an empty ban list.
func (bm *BanManager) loadBanlist() {
	bm.mtx.Lock()
	defer bm.mtx.Unlock()

	err := bm.deserializeBanlist(bm.banFile)
	if err != nil {
		log.Errorf("Failed to parse file %s: %v", bm.banFile, err)
		// if it is invalid we nuke the old one unconditionally.
		err = os.Remove(bm.banFile)
		if err != nil {
			log.Warnf("Failed to remove corrupt ban list file %s: %v",
				bm.banFile, err)
		}
		bm.banned = make(map[addrmgr.SubNet]*BanEntry)
		bm.banChanged = true
		return
	}
	log.Infof("Loaded %d banned subnets from file '%s'", len(bm.banned),
		bm.banFile)
}

func (bm *BanManager) deserializeBanlist(filePath string) error {
	_, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil
	}
	r, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s error opening file: %v", filePath, err)
	}
	defer r.Close()

	var sbl serializedBanList
	dec := json.NewDecoder(r)
	err = dec.Decode(&sbl)
	if err != nil {
		return fmt.Errorf("error reading %s: %v", filePath, err)
	}

	if sbl.Version != serialisationVersion {
		return fmt.Errorf("unknown version %v in serialized ban list",
			sbl.Version)
	}

	now := time.Now()
	for _, v := range sbl.Entries {
		sn, err := addrmgr.ParseSubNet(v.Subnet)
		if err != nil {
			return fmt.Errorf("failed to deserialize subnet %s: %v",
				v.Subnet, err)
		}
		banUntil := time.Unix(v.BanUntil, 0)
		if !now.Before(banUntil) {
			// Drop entries that expired while the node was down.
			bm.banChanged = true
			continue
		}
		bm.banned[sn] = &BanEntry{
			Subnet:     sn,
			CreateTime: time.Unix(v.CreateTime, 0),
			BanUntil:   banUntil,
			Reason:     BanReason(v.Reason),
		}
	}

	return nil
}

// Start begins the ban handler which sweeps expired entries and performs
// interval based writes.  If the ban manager is starting or has already been
// started, invoking this method has no effect.
//
// This function is safe for concurrent access.
func (bm *BanManager) Start() {
	// Return early if the ban manager has already been started.
	if atomic.AddInt32(&bm.started, 1) != 1 {
		return
	}

	log.Trace("Starting ban manager")

	// Load the ban list persisted by a previous run.
	bm.loadBanlist()

	bm.wg.Add(1)
	go bm.banHandler()
}

// Stop gracefully shuts down the ban manager by stopping the main handler.
//
// This function is safe for concurrent access.
func (bm *BanManager) Stop() error {
	// Return early if the ban manager has already been stopped.
	if atomic.AddInt32(&bm.shutdown, 1) != 1 {
		log.Warnf("Ban manager is already in the process of shutting down")
		return nil
	}

	log.Infof("Ban manager shutting down")
	close(bm.quit)
	bm.wg.Wait()
	return nil
}

// New returns a new ban manager that persists its ban list in the provided
// data directory.
func New(cfg *Config) *BanManager {
	banDuration := cfg.BanDuration
	if banDuration == 0 {
		banDuration = defaultBanDuration
	}
	return &BanManager{
		banned:      make(map[addrmgr.SubNet]*BanEntry),
		banFile:     filepath.Join(cfg.DataDir, banlistFilename),
		banDuration: banDuration,
		quit:        make(chan struct{}),
	}
}
