package repositories

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoomRepository_JoinLeave(t *testing.T) {
	req := require.New(t)
	repo := NewRoomRepository(openBadger(t))

	added, err := repo.Join("general")
	req.NoError(err)
	req.True(added)

	// Joining twice is a no-op
	added, err = repo.Join("general")
	req.NoError(err)
	req.False(added)

	_, err = repo.Join("random")
	req.NoError(err)

	rooms, err := repo.List()
	req.NoError(err)
	req.Equal([]string{"general", "random"}, rooms)

	removed, err := repo.Leave("general")
	req.NoError(err)
	req.True(removed)

	removed, err = repo.Leave("general")
	req.NoError(err)
	req.False(removed)

	rooms, err = repo.List()
	req.NoError(err)
	req.Equal([]string{"random"}, rooms)
}
