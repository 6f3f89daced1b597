package discovery

import (
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/grandcat/zeroconf"
	"github.com/stretchr/testify/require"
)

func entry(id uuid.UUID, port int, rooms ...string) *zeroconf.ServiceEntry {
	e := zeroconf.NewServiceEntry(id.String(), ServiceName, Domain)
	e.AddrIPv4 = []net.IP{net.IPv4(192, 168, 1, 10)}
	e.Port = port
	for _, r := range rooms {
		e.Text = append(e.Text, "room="+r)
	}
	return e
}

func TestDiscovery_AddEntry(t *testing.T) {
	req := require.New(t)
	self := uuid.New()
	d := NewDiscovery(self, time.Minute, slog.Default())
	peer := uuid.New()

	// Given a peer advertising two rooms and an unrelated TXT record
	e := entry(peer, 9443, "general", "random")
	e.Text = append(e.Text, "version=1")
	d.AddEntry(e)

	// Then it is a member of both
	members := d.Members("general")
	req.Len(members, 1)
	req.Equal(peer, members[0].UUID)
	req.Equal(9443, members[0].Addr.Port)
	req.Len(d.Members("random"), 1)
	req.Equal(1, d.PeerCount())

	// When the peer stops advertising a room
	d.AddEntry(entry(peer, 9443, "general"))

	// Then it leaves that room
	req.Empty(d.Members("random"))
	req.NotContains(d.Rooms(), "random")
}

func TestDiscovery_IgnoresSelfAndGarbage(t *testing.T) {
	req := require.New(t)
	self := uuid.New()
	d := NewDiscovery(self, time.Minute, slog.Default())

	d.AddEntry(entry(self, 9443, "general"))
	bad := zeroconf.NewServiceEntry("not-a-uuid", ServiceName, Domain)
	bad.Text = []string{"room=general"}
	d.AddEntry(bad)

	req.Empty(d.Rooms())
}

func TestDiscovery_Membership(t *testing.T) {
	req := require.New(t)
	d := NewDiscovery(uuid.New(), time.Minute, slog.Default())

	req.True(d.AddRoom("general"))
	req.False(d.AddRoom("general"))
	req.True(d.IsMember("general"))
	req.Equal([]string{"room=general"}, d.txts())

	// Joined rooms are listed even without members
	rooms := d.Rooms()
	req.True(rooms["general"].Joined)
	req.Empty(rooms["general"].Members)

	req.True(d.RemoveRoom("general"))
	req.False(d.RemoveRoom("general"))
	req.False(d.IsMember("general"))
	req.Empty(d.txts())
}

func TestDiscovery_Prune(t *testing.T) {
	req := require.New(t)
	d := NewDiscovery(uuid.New(), time.Minute, slog.Default())
	now := time.Now()
	d.now = func() time.Time { return now }

	d.AddEntry(entry(uuid.New(), 9443, "general"))
	fresh := uuid.New()

	// When time passes beyond the TTL and only one peer is seen again
	now = now.Add(2 * time.Minute)
	d.AddEntry(entry(fresh, 9444, "general"))
	req.Equal(1, d.Prune())

	// Then only the fresh peer remains
	members := d.Members("general")
	req.Len(members, 1)
	req.Equal(fresh, members[0].UUID)
}
