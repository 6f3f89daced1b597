package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"cryptochat/certs"
	"cryptochat/domain"
	"cryptochat/errors"
	"cryptochat/mocks"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newCert(t *testing.T) (tls.Certificate, uuid.UUID) {
	t.Helper()
	id := uuid.New()
	cert, err := certs.Generate(1024, id.String(), time.Hour)
	require.NoError(t, err)
	return cert, id
}

func peerRequest(cert tls.Certificate, room, body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/rooms/"+room+"/messages", strings.NewReader(body))
	r.TLS = &tls.ConnectionState{PeerCertificates: []*x509.Certificate{cert.Leaf}}
	return r
}

func TestPeerAPI_SendMessage(t *testing.T) {
	peerCert, peerID := newCert(t)
	peer := domain.User{UUID: peerID, Cert: peerCert.Leaf, Verified: true}

	t.Run("should accept a message for a joined room", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		chat := mocks.NewMockIChatService(ctrl)
		users := mocks.NewMockIUserRepository(ctrl)
		handler := NewPeerAPI(slog.Default(), chat, users, 10, 10).Handler()

		users.EXPECT().Get(peerID).Return(peer, nil)
		chat.EXPECT().ReceiveMessage(peer, "general", "bob", "hello").Return(domain.Message{}, nil)

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, peerRequest(peerCert, "general", `{"username":"bob","content":"hello"}`))

		req.Equal(http.StatusNoContent, w.Code)
	})

	t.Run("should answer 400 for a room that was not joined", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		chat := mocks.NewMockIChatService(ctrl)
		users := mocks.NewMockIUserRepository(ctrl)
		handler := NewPeerAPI(slog.Default(), chat, users, 10, 10).Handler()

		users.EXPECT().Get(peerID).Return(peer, nil)
		chat.EXPECT().ReceiveMessage(peer, "secret", "bob", "hello").Return(domain.Message{}, errors.ErrNotMember)

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, peerRequest(peerCert, "secret", `{"username":"bob","content":"hello"}`))

		req.Equal(http.StatusBadRequest, w.Code)
		req.Equal("application/problem+json", w.Header().Get("Content-Type"))
		req.Contains(w.Body.String(), errors.ErrNotMember.Error())
	})

	t.Run("should reject unknown fields", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		users := mocks.NewMockIUserRepository(ctrl)
		handler := NewPeerAPI(slog.Default(), mocks.NewMockIChatService(ctrl), users, 10, 10).Handler()

		users.EXPECT().Get(peerID).Return(peer, nil)

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, peerRequest(peerCert, "general", `{"username":"bob","content":"hi","admin":true}`))

		req.Equal(http.StatusBadRequest, w.Code)
	})

	t.Run("should require a client certificate", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		handler := NewPeerAPI(slog.Default(), mocks.NewMockIChatService(ctrl), mocks.NewMockIUserRepository(ctrl), 10, 10).Handler()

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/rooms/general/messages", strings.NewReader(`{}`)))

		req.Equal(http.StatusUnauthorized, w.Code)
	})

	t.Run("should rate limit a noisy peer", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		chat := mocks.NewMockIChatService(ctrl)
		users := mocks.NewMockIUserRepository(ctrl)
		handler := NewPeerAPI(slog.Default(), chat, users, 0.001, 2).Handler()

		users.EXPECT().Get(peerID).Return(peer, nil).Times(3)
		chat.EXPECT().ReceiveMessage(peer, "general", "bob", "hello").Return(domain.Message{}, nil).Times(2)

		codes := make([]int, 0, 3)
		for range 3 {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, peerRequest(peerCert, "general", `{"username":"bob","content":"hello"}`))
			codes = append(codes, w.Code)
		}

		req.Equal([]int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
	})
}

func TestPeerClient_SendMessage(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	chat := mocks.NewMockIChatService(ctrl)
	users := mocks.NewMockIUserRepository(ctrl)

	serverCert, _ := newCert(t)
	clientCert, clientID := newCert(t)
	sender := domain.User{UUID: clientID, Cert: clientCert.Leaf, Verified: true}

	// Given a peer API over mutual TLS trusting everyone
	var (
		mu   sync.Mutex
		seen []string
	)
	trustAll := func(raw [][]byte, _ [][]*x509.Certificate) error {
		cert, err := x509.ParseCertificate(raw[0])
		if err != nil {
			return err
		}
		mu.Lock()
		seen = append(seen, cert.Subject.CommonName)
		mu.Unlock()
		return nil
	}
	peerServer := NewPeerServer("", serverCert, trustAll, NewPeerAPI(slog.Default(), chat, users, 10, 10).Handler(), time.Second)
	srv := httptest.NewUnstartedServer(peerServer.Handler)
	srv.TLS = peerServer.TLSConfig
	srv.StartTLS()
	defer srv.Close()

	users.EXPECT().Get(clientID).Return(sender, nil)
	chat.EXPECT().ReceiveMessage(sender, "general", "alice", "hello").Return(domain.Message{}, nil)

	// When the client posts a message
	client := NewPeerClient(clientCert, trustAll, 5*time.Second)
	addr := *srv.Listener.Addr().(*net.TCPAddr)
	err := client.SendMessage(context.Background(), addr, domain.Message{
		Room:    "general",
		Sender:  domain.Sender{Username: "alice", UUID: clientID},
		Content: "hello",
	})

	// Then both sides verified each other
	req.NoError(err)
	mu.Lock()
	defer mu.Unlock()
	req.Contains(seen, clientID.String())
}

func TestPeerClient_SendMessage_Refused(t *testing.T) {
	req := require.New(t)
	serverCert, _ := newCert(t)
	clientCert, _ := newCert(t)

	// Given a server that rejects every client at handshake time
	refuse := func([][]byte, [][]*x509.Certificate) error { return errors.ErrVerificationRejected }
	acceptAll := func([][]byte, [][]*x509.Certificate) error { return nil }
	peerServer := NewPeerServer("", serverCert, refuse, http.NotFoundHandler(), time.Second)
	srv := httptest.NewUnstartedServer(peerServer.Handler)
	srv.TLS = peerServer.TLSConfig
	srv.StartTLS()
	defer srv.Close()

	client := NewPeerClient(clientCert, acceptAll, 5*time.Second)
	err := client.SendMessage(context.Background(), *srv.Listener.Addr().(*net.TCPAddr), domain.Message{Room: "general"})

	req.Error(err)
}
