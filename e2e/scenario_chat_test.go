package e2e

import (
	"context"
	"cryptochat/api"
	"cryptochat/client"
	"cryptochat/domain"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type testChatSuite struct {
	BaseSuite
}

func TestChatSuite(t *testing.T) {
	suite.Run(t, &testChatSuite{})
}

func (s *testChatSuite) TestSingleNodeFlow() {
	room := "e2e-" + uuid.NewString()[:8]
	content := "hello from the e2e suite " + uuid.NewString()

	// --- STEP 0: IDENTITY ---
	s.Run("Step 0: Node exposes its identity", func() {
		s.WithNode("Fetching identity", func(ctx context.Context, c *client.Client) {
			identity, err := c.Info(ctx)
			s.Require().NoError(err)
			s.Require().NotEqual(uuid.Nil, identity.UUID)
			s.Require().NotEmpty(identity.Fingerprint)
		})
	})

	// --- STEP 1: JOIN ---
	s.Run("Step 1: Join a fresh room", func() {
		s.WithNode("Joining "+room, func(ctx context.Context, c *client.Client) {
			s.Require().NoError(c.JoinRoom(ctx, room))
			rooms, err := c.Rooms(ctx)
			s.Require().NoError(err)
			s.Require().Contains(rooms, room)
			s.Require().True(rooms[room].Joined)
		})
	})

	// --- STEP 2: SEND & HISTORY ---
	s.Run("Step 2: Sent message is stored in history", func() {
		s.WithNode("Sending and reading back", func(ctx context.Context, c *client.Client) {
			identity, err := c.Info(ctx)
			s.Require().NoError(err)
			sent, err := c.SendMessage(ctx, room, identity.Username, content)
			s.Require().NoError(err)
			s.Require().Equal(room, sent.Room)

			s.Require().Eventually(func() bool {
				history, err := c.History(ctx, room, nil)
				return err == nil && lo.ContainsBy(history.Messages, func(m domain.Message) bool { return m.ID == sent.ID })
			}, 10*time.Second, 200*time.Millisecond)
		})
	})

	// --- STEP 3: SEARCH ---
	s.Run("Step 3: Message is searchable once indexed", func() {
		s.WithNode("Searching", func(ctx context.Context, c *client.Client) {
			s.Require().Eventually(func() bool {
				hits, err := c.Search(ctx, content)
				if err != nil {
					return false
				}
				return lo.ContainsBy(hits, func(h api.SearchHit) bool { return h.Message.Content == content })
			}, 10*time.Second, 250*time.Millisecond)
		})
	})

	// --- STEP 4: LEAVE ---
	s.Run("Step 4: Sending after leaving is refused", func() {
		s.WithNode("Leaving "+room, func(ctx context.Context, c *client.Client) {
			s.Require().NoError(c.LeaveRoom(ctx, room))
			_, err := c.SendMessage(ctx, room, "e2e", "too late")
			var apiErr *client.APIError
			s.Require().ErrorAs(err, &apiErr)
			s.Require().Equal(http.StatusBadRequest, apiErr.Status)
		})
	})
}

type testTwoNodesSuite struct {
	BaseSuite
}

func TestTwoNodesSuite(t *testing.T) {
	suite.Run(t, &testTwoNodesSuite{})
}

func (s *testTwoNodesSuite) SetupSuite() {
	s.BaseSuite.SetupSuite()
	if s.Config.PeerAddr == "" {
		s.T().Skip("E2E_PEER_UI_ADDR is not set")
	}
}

func (s *testTwoNodesSuite) TestVerifiedDelivery() {
	room := "e2e-" + uuid.NewString()[:8]
	content := "across the LAN " + uuid.NewString()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	local := s.Client(s.T(), "Local node", s.Config.NodeAddr, s.Config.Token)
	peer := s.Client(s.T(), "Peer node", s.Config.PeerAddr, s.Config.PeerToken)

	// --- STEP 1: BOTH JOIN AND DISCOVER EACH OTHER ---
	s.Run("Step 1: Both nodes join and see each other in the room", func() {
		s.Require().NoError(local.JoinRoom(ctx, room))
		s.Require().NoError(peer.JoinRoom(ctx, room))
		peerIdentity, err := peer.Info(ctx)
		s.Require().NoError(err)

		s.Require().Eventually(func() bool {
			rooms, err := local.Rooms(ctx)
			if err != nil {
				return false
			}
			return lo.ContainsBy(rooms[room].Members, func(m api.Member) bool { return m.UUID == peerIdentity.UUID })
		}, 30*time.Second, 500*time.Millisecond, "discovery never announced the peer")
	})

	// --- STEP 2: SEND WHILE BOTH SIDES VERIFY ---
	s.Run("Step 2: First delivery waits for both fingerprint checks", func() {
		var wg sync.WaitGroup
		var sendErr error
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, sendErr = local.SendMessage(ctx, room, "e2e", content)
		}()

		accepted := map[string]bool{}
		s.Require().Eventually(func() bool {
			for name, c := range map[string]*client.Client{"local": local, "peer": peer} {
				pending, err := c.Verifications(ctx)
				if err != nil {
					continue
				}
				for _, v := range pending {
					if c.Verify(ctx, v.UUID, true) == nil {
						accepted[name] = true
					}
				}
			}
			return accepted["peer"]
		}, 30*time.Second, 250*time.Millisecond, "the receiving node never asked to verify")

		wg.Wait()
		s.Require().NoError(sendErr)
	})

	// --- STEP 3: MESSAGE ARRIVED ---
	s.Run("Step 3: Peer stored the message", func() {
		s.Require().Eventually(func() bool {
			history, err := peer.History(ctx, room, nil)
			if err != nil {
				return false
			}
			return lo.ContainsBy(history.Messages, func(m domain.Message) bool {
				return strings.EqualFold(m.Content, content)
			})
		}, 10*time.Second, 250*time.Millisecond)
	})
}
