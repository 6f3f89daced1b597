package client

import (
	"context"
	"cryptochat/api"
	"cryptochat/domain"
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/r3labs/sse/v2"
	"github.com/stretchr/testify/require"
)

type fakeNode struct {
	mu       sync.Mutex
	rooms    api.Rooms
	sent     []api.SendMessageRequest
	verified map[uuid.UUID]bool
	auths    []string
	polls    int

	// sendDelay holds a send back, as a peer handshake awaiting verification does
	sendDelay time.Duration
}

func newFakeNode(t *testing.T) (*fakeNode, *httptest.Server, *sse.Server) {
	t.Helper()
	n := &fakeNode{rooms: api.Rooms{"lobby": {Joined: true}}, verified: map[uuid.UUID]bool{}}
	streams := sse.New()
	streams.AutoReplay = false
	streams.CreateStream("messages")
	streams.CreateStream("verification")

	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n.mu.Lock()
			n.auths = append(n.auths, r.Header.Get("Authorization"))
			n.mu.Unlock()
			next.ServeHTTP(w, r)
		})
	})
	r.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["passphrase"] != "correct horse" {
			w.Header().Set("Content-Type", "application/problem+json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"invalid credentials"}`)
			return
		}
		_ = json.NewEncoder(w).Encode(api.LoginResponse{Token: "tok"})
	}).Methods(http.MethodPost)
	r.HandleFunc("/api/rooms", func(w http.ResponseWriter, _ *http.Request) {
		n.mu.Lock()
		defer n.mu.Unlock()
		n.polls++
		_ = json.NewEncoder(w).Encode(n.rooms)
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/rooms/{room}", func(w http.ResponseWriter, r *http.Request) {
		n.mu.Lock()
		defer n.mu.Unlock()
		room := mux.Vars(r)["room"]
		if r.Method == http.MethodPost {
			n.rooms[room] = api.Room{Joined: true}
		} else {
			delete(n.rooms, room)
		}
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodPost, http.MethodDelete)
	r.HandleFunc("/api/rooms/{room}/messages", func(w http.ResponseWriter, r *http.Request) {
		var body api.SendMessageRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		n.mu.Lock()
		n.sent = append(n.sent, body)
		delay := n.sendDelay
		n.mu.Unlock()
		time.Sleep(delay)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(domain.Message{
			ID: uuid.New(), Room: mux.Vars(r)["room"],
			Sender:  domain.Sender{Username: body.Username},
			Content: body.Content,
		})
	}).Methods(http.MethodPost)
	r.HandleFunc("/api/rooms/{room}/messages", func(w http.ResponseWriter, r *http.Request) {
		cursor := r.URL.Query().Get("cursor")
		_ = json.NewEncoder(w).Encode(api.History{Messages: []domain.Message{{Content: "page:" + cursor}}})
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/users/{uuid}/verify", func(w http.ResponseWriter, r *http.Request) {
		id := uuid.MustParse(mux.Vars(r)["uuid"])
		n.mu.Lock()
		n.verified[id] = r.Method == http.MethodPost
		n.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodPost, http.MethodDelete)
	r.HandleFunc("/api/search", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]api.SearchHit{{Message: domain.Message{Content: r.URL.Query().Get("q")}, Score: 1}})
	}).Methods(http.MethodGet)
	r.Handle("/api/events", streams).Methods(http.MethodGet)
	r.PathPrefix("/api/").HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"no such endpoint"}`)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		streams.Close()
		srv.Close()
	})
	return n, srv, streams
}

func TestNew_AddsScheme(t *testing.T) {
	req := require.New(t)
	req.Equal("http://localhost:8080", New("localhost:8080").BaseURL())
	req.Equal("https://node.lan", New("https://node.lan/").BaseURL())
}

func TestClient_Rooms(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	n, srv, _ := newFakeNode(t)
	c := New(srv.URL)

	// When a room is joined
	req.NoError(c.JoinRoom(ctx, "dev"))

	// Then it is listed
	rooms, err := c.Rooms(ctx)
	req.NoError(err)
	req.Contains(rooms, "dev")
	req.True(rooms["dev"].Joined)

	// When it is left
	req.NoError(c.LeaveRoom(ctx, "dev"))
	rooms, err = c.Rooms(ctx)
	req.NoError(err)
	req.NotContains(rooms, "dev")
	n.mu.Lock()
	defer n.mu.Unlock()
	req.Equal(2, n.polls)
}

func TestClient_SendMessage(t *testing.T) {
	req := require.New(t)
	n, srv, _ := newFakeNode(t)

	message, err := New(srv.URL).SendMessage(context.Background(), "lobby", "alice", "hello")

	req.NoError(err)
	req.Equal("lobby", message.Room)
	req.Equal("hello", message.Content)
	n.mu.Lock()
	defer n.mu.Unlock()
	req.Equal([]api.SendMessageRequest{{Username: "alice", Content: "hello"}}, n.sent)
}

func TestClient_SendOutlastsTheRequestTimeout(t *testing.T) {
	req := require.New(t)
	n, srv, _ := newFakeNode(t)
	n.mu.Lock()
	n.sendDelay = 100 * time.Millisecond
	n.mu.Unlock()

	// A send waits on the peers, it gets its own timeout
	c := New(srv.URL, WithTimeout(20*time.Millisecond), WithSendTimeout(5*time.Second))
	message, err := c.SendMessage(context.Background(), "lobby", "alice", "hello")
	req.NoError(err)
	req.Equal("hello", message.Content)

	c = New(srv.URL, WithSendTimeout(20*time.Millisecond))
	_, err = c.SendMessage(context.Background(), "lobby", "alice", "hello")
	req.ErrorIs(err, context.DeadlineExceeded)
}

func TestClient_History(t *testing.T) {
	req := require.New(t)
	_, srv, _ := newFakeNode(t)
	c := New(srv.URL)
	cursor := "msg:lobby:42"

	history, err := c.History(context.Background(), "lobby", &cursor)

	req.NoError(err)
	req.Len(history.Messages, 1)
	req.Equal("page:msg:lobby:42", history.Messages[0].Content)
}

func TestClient_Verify(t *testing.T) {
	req := require.New(t)
	n, srv, _ := newFakeNode(t)
	c := New(srv.URL)
	accepted, rejected := uuid.New(), uuid.New()

	req.NoError(c.Verify(context.Background(), accepted, true))
	req.NoError(c.Verify(context.Background(), rejected, false))

	n.mu.Lock()
	defer n.mu.Unlock()
	req.Equal(map[uuid.UUID]bool{accepted: true, rejected: false}, n.verified)
}

func TestClient_Search(t *testing.T) {
	req := require.New(t)
	_, srv, _ := newFakeNode(t)

	hits, err := New(srv.URL).Search(context.Background(), "hello world")

	req.NoError(err)
	req.Len(hits, 1)
	req.Equal("hello world", hits[0].Message.Content)
}

func TestClient_APIError(t *testing.T) {
	req := require.New(t)
	_, srv, _ := newFakeNode(t)

	_, err := New(srv.URL).Status(context.Background())

	var apiErr *APIError
	req.True(stderrors.As(err, &apiErr))
	req.Equal(http.StatusNotFound, apiErr.Status)
	req.Equal("no such endpoint", apiErr.Message)
}

func TestClient_Login(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	n, srv, _ := newFakeNode(t)
	c := New(srv.URL)

	t.Run("wrong passphrase", func(t *testing.T) {
		_, err := c.Login(ctx, "wrong horse")
		var apiErr *APIError
		req.True(stderrors.As(err, &apiErr))
		req.Equal(http.StatusUnauthorized, apiErr.Status)
		req.Empty(c.Token())
	})

	t.Run("token is sent afterwards", func(t *testing.T) {
		token, err := c.Login(ctx, "correct horse")
		req.NoError(err)
		req.Equal("tok", token)

		_, err = c.Rooms(ctx)
		req.NoError(err)
		n.mu.Lock()
		last := n.auths[len(n.auths)-1]
		n.mu.Unlock()
		req.Equal("Bearer tok", last)
		req.Equal(srv.URL+"/api/events?token=tok", c.EventsURL())
	})
}

// publishUntil republishes e until stop is closed: the node keeps no backlog for late subscribers
func publishUntil(streams *sse.Server, stream string, stop <-chan struct{}, events ...*sse.Event) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		for _, e := range events {
			streams.Publish(stream, e)
		}
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

func TestSubscriber_Messages(t *testing.T) {
	req := require.New(t)
	_, srv, streams := newFakeNode(t)
	id := uuid.New()

	// Given a message whose id is only carried by the event id
	data, err := json.Marshal(domain.Message{Room: "lobby", Content: "hi", Sender: domain.Sender{Username: "bob"}})
	req.NoError(err)
	stop := make(chan struct{})
	defer close(stop)
	go publishUntil(streams, "messages", stop, &sse.Event{ID: []byte(id.String()), Data: data})

	// When subscribing
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	received := make(chan domain.Message, 100)
	done := make(chan error, 1)
	go func() {
		done <- NewSubscriber(slog.Default(), New(srv.URL)).Messages(ctx, func(m domain.Message) {
			received <- m
		})
	}()

	// Then the message arrives with the event id
	select {
	case m := <-received:
		req.Equal(id, m.ID)
		req.Equal("hi", m.Content)
		req.Equal("bob", m.Sender.Username)
	case <-time.After(5 * time.Second):
		req.FailNow("message not received")
	}

	// And cancelling stops the subscription cleanly
	cancel()
	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(5 * time.Second):
		req.Fail("subscriber did not stop")
	}
}

func TestSubscriber_Verifications(t *testing.T) {
	req := require.New(t)
	_, srv, streams := newFakeNode(t)
	peer := uuid.New()

	request, err := json.Marshal(api.Verification{UUID: peer, Fingerprint: "ab:cd"})
	req.NoError(err)
	resolved, err := json.Marshal(api.Verification{UUID: peer, Fingerprint: "ab:cd", Outcome: "accepted"})
	req.NoError(err)
	stop := make(chan struct{})
	defer close(stop)
	go publishUntil(streams, "verification", stop,
		&sse.Event{Event: []byte("request"), Data: request},
		&sse.Event{Event: []byte("resolved"), Data: resolved})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	received := make(chan VerificationEvent, 100)
	go func() {
		_ = NewSubscriber(slog.Default(), New(srv.URL)).Verifications(ctx, func(e VerificationEvent) {
			received <- e
		})
	}()

	// Then both kinds of event are told apart by their SSE event type
	seen := map[bool]VerificationEvent{}
	for len(seen) < 2 {
		select {
		case e := <-received:
			seen[e.Resolved] = e
		case <-time.After(5 * time.Second):
			req.FailNow("verification events not received")
		}
	}
	req.Equal(peer, seen[false].Verification.UUID)
	req.Empty(seen[false].Verification.Outcome)
	req.Equal("accepted", seen[true].Verification.Outcome)
}
