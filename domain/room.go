package domain

import (
	"net"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Room names travel in DNS-SD TXT records and badger keys, so ':' and whitespace are excluded.
var roomNameRegex = regexp.MustCompile(`^[\p{L}\p{N}_.\-]{1,64}$`)

func IsValidRoomName(name string) bool {
	return roomNameRegex.MatchString(name)
}

// Member is a peer discovered on the network advertising a room.
type Member struct {
	UUID     uuid.UUID
	Addr     net.TCPAddr
	LastSeen time.Time
}

// Room is a named channel as seen from this node.
type Room struct {
	Name    string
	Joined  bool
	Members []Member
}
