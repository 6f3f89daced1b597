// Package discovery advertises the rooms this node joined over DNS-SD and tracks
// which peers on the local network advertise which rooms.
package discovery

import (
	"context"
	"cryptochat/domain"
	"fmt"
	"log/slog"
	"net"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/grandcat/zeroconf"
	"github.com/samber/lo"
)

const (
	Domain      = "local."
	ServiceName = "_cryptochat._tcp"
	txtPrefix   = "room="
)

var roomRegex = regexp.MustCompile(`^room=(.+)$`)

// Discovery represents a DNS-SD server / client pair
type Discovery struct {
	id  uuid.UUID
	log *slog.Logger
	ttl time.Duration
	now func() time.Time

	mu         sync.RWMutex
	rooms      map[string]map[uuid.UUID]domain.Member
	membership []string

	server *zeroconf.Server
}

func NewDiscovery(id uuid.UUID, ttl time.Duration, log *slog.Logger) *Discovery {
	return &Discovery{
		id:    id,
		log:   log,
		ttl:   ttl,
		now:   time.Now,
		rooms: make(map[string]map[uuid.UUID]domain.Member),
	}
}

// Register starts answering DNS-SD queries for this node's peer API port
func (d *Discovery) Register(apiPort int) error {
	server, err := zeroconf.Register(d.id.String(), ServiceName, Domain, apiPort, d.txts(), nil)
	if err != nil {
		return fmt.Errorf("failed to create DNS-SD server: %w", err)
	}
	d.mu.Lock()
	d.server = server
	d.mu.Unlock()
	return nil
}

// Shutdown stops advertising
func (d *Discovery) Shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.server != nil {
		d.server.Shutdown()
		d.server = nil
	}
}

// Browse runs one browse pass for the given window and records every entry seen
func (d *Discovery) Browse(ctx context.Context, window time.Duration) error {
	resolver, err := zeroconf.NewResolver()
	if err != nil {
		return fmt.Errorf("failed to create DNS-SD resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			d.AddEntry(e)
		}
	}()

	browseCtx, cancel := context.WithTimeout(ctx, window)
	defer cancel()
	if err := resolver.Browse(browseCtx, ServiceName, Domain, entries); err != nil {
		return fmt.Errorf("failed to start browsing for DNS-SD services: %w", err)
	}
	<-browseCtx.Done()
	// the resolver closes entries once the browse context ends
	select {
	case <-done:
	case <-time.After(window):
		d.log.Debug("DNS-SD resolver did not release its entries in time")
	}
	return nil
}

// AddEntry records a discovered peer under every room it advertises
// and removes it from rooms it stopped advertising.
func (d *Discovery) AddEntry(e *zeroconf.ServiceEntry) {
	id, err := uuid.Parse(e.Instance)
	if err != nil {
		d.log.Debug("Failed to parse discovered UUID", "instance", e.Instance)
		return
	}
	if id == d.id {
		return
	}

	var ip net.IP
	switch {
	case len(e.AddrIPv4) > 0:
		ip = e.AddrIPv4[0]
	case len(e.AddrIPv6) > 0:
		ip = e.AddrIPv6[0]
	default:
		d.log.Debug("Discovered peer has no address", "uuid", id)
		return
	}

	member := domain.Member{
		UUID:     id,
		Addr:     net.TCPAddr{IP: ip, Port: e.Port},
		LastSeen: d.now(),
	}

	advertised := make(map[string]struct{})
	for _, txt := range e.Text {
		if m := roomRegex.FindStringSubmatch(txt); len(m) == 2 {
			advertised[m[1]] = struct{}{}
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for room, members := range d.rooms {
		if _, ok := advertised[room]; !ok {
			delete(members, id)
			if len(members) == 0 {
				delete(d.rooms, room)
			}
		}
	}
	for room := range advertised {
		if _, ok := d.rooms[room]; !ok {
			d.rooms[room] = make(map[uuid.UUID]domain.Member)
		}
		d.rooms[room][id] = member
	}
}

// Prune forgets members not seen within the TTL and returns how many were dropped
func (d *Discovery) Prune() int {
	if d.ttl <= 0 {
		return 0
	}
	deadline := d.now().Add(-d.ttl)
	pruned := 0

	d.mu.Lock()
	defer d.mu.Unlock()
	for room, members := range d.rooms {
		for id, m := range members {
			if m.LastSeen.Before(deadline) {
				delete(members, id)
				pruned++
			}
		}
		if len(members) == 0 {
			delete(d.rooms, room)
		}
	}
	return pruned
}

// AddRoom adds a room to the list of rooms this node is in
func (d *Discovery) AddRoom(room string) bool {
	d.mu.Lock()
	if lo.Contains(d.membership, room) {
		d.mu.Unlock()
		return false
	}
	d.membership = append(d.membership, room)
	sort.Strings(d.membership)
	d.mu.Unlock()

	d.updateTXTs()
	return true
}

// RemoveRoom removes a room from the list of rooms this node is in
func (d *Discovery) RemoveRoom(room string) bool {
	d.mu.Lock()
	if !lo.Contains(d.membership, room) {
		d.mu.Unlock()
		return false
	}
	d.membership = lo.Without(d.membership, room)
	d.mu.Unlock()

	d.updateTXTs()
	return true
}

// IsMember checks if this node is a member of a room
func (d *Discovery) IsMember(room string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return lo.Contains(d.membership, room)
}

func (d *Discovery) Membership() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]string(nil), d.membership...)
}

// Members returns the peers advertising a room, sorted by UUID
func (d *Discovery) Members(room string) []domain.Member {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return sortedMembers(d.rooms[room])
}

// Rooms retrieves every known room: the joined ones and the ones advertised by peers
func (d *Discovery) Rooms() map[string]domain.Room {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rooms := make(map[string]domain.Room, len(d.rooms)+len(d.membership))
	for name, members := range d.rooms {
		rooms[name] = domain.Room{Name: name, Members: sortedMembers(members)}
	}
	for _, name := range d.membership {
		room := rooms[name]
		room.Name = name
		room.Joined = true
		rooms[name] = room
	}
	return rooms
}

// PeerCount counts distinct peers across all rooms
func (d *Discovery) PeerCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	peers := make(map[uuid.UUID]struct{})
	for _, members := range d.rooms {
		for id := range members {
			peers[id] = struct{}{}
		}
	}
	return len(peers)
}

func (d *Discovery) txts() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return lo.Map(d.membership, func(room string, _ int) string {
		return txtPrefix + room
	})
}

func (d *Discovery) updateTXTs() {
	txts := d.txts()
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.server != nil {
		d.server.SetText(txts)
	}
}

func sortedMembers(members map[uuid.UUID]domain.Member) []domain.Member {
	out := lo.Values(members)
	sort.Slice(out, func(i, j int) bool {
		return out[i].UUID.String() < out[j].UUID.String()
	})
	return out
}
