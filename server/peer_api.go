package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"cryptochat/api"
	"cryptochat/certs"
	"cryptochat/domain"
	"cryptochat/repositories"
	"cryptochat/services"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

type contextKey int

const keyUser contextKey = iota

// PeerAPI is served to other nodes over mutual TLS
type PeerAPI struct {
	log     *slog.Logger
	chat    services.IChatService
	users   repositories.IUserRepository
	limiter *limiterPool
}

func NewPeerAPI(log *slog.Logger, chat services.IChatService, users repositories.IUserRepository, rps float64, burst int) *PeerAPI {
	return &PeerAPI{log: log, chat: chat, users: users, limiter: newLimiterPool(rps, burst)}
}

func (a *PeerAPI) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(a.userMiddleware, a.rateLimitMiddleware)
	r.HandleFunc("/rooms/{room}/messages", a.sendMessage).Methods(http.MethodPost)
	return handlers.CustomLoggingHandler(nil, r, accessLog(a.log, "api"))
}

// NewPeerServer requires a client certificate and gates every handshake with verify.
// A handshake may wait for the local user for up to verificationTimeout, so connection deadlines include it.
func NewPeerServer(addr string, cert tls.Certificate, verify func([][]byte, [][]*x509.Certificate) error,
	handler http.Handler, verificationTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:    addr,
		Handler: handler,
		TLSConfig: &tls.Config{
			Certificates:          []tls.Certificate{cert},
			ClientAuth:            tls.RequireAnyClientCert,
			VerifyPeerCertificate: verify,
			MinVersion:            tls.VersionTLS12,
		},
		ReadHeaderTimeout: verificationTimeout + 10*time.Second,
		ReadTimeout:       verificationTimeout + 30*time.Second,
		WriteTimeout:      verificationTimeout + 30*time.Second,
	}
}

// userMiddleware resolves the connected user from the TLS client certificate
func (a *PeerAPI) userMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.TLS == nil || len(r.TLS.PeerCertificates) == 0 {
			writeError(w, fmt.Errorf("client certificate required"), http.StatusUnauthorized)
			return
		}
		id, err := certs.UUID(r.TLS.PeerCertificates[0])
		if err != nil {
			writeError(w, err, http.StatusUnauthorized)
			return
		}
		user, err := a.users.Get(id)
		if err != nil {
			writeError(w, fmt.Errorf("failed to internally retrieve connected user from TLS state: %w", err),
				http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), keyUser, user)))
	})
}

func (a *PeerAPI) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(keyUser).(domain.User)
		if !a.limiter.Allow(user.UUID.String()) {
			a.log.Warn("Peer rate limited", "uuid", user.UUID)
			writeError(w, fmt.Errorf("too many requests"), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *PeerAPI) sendMessage(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value(keyUser).(domain.User)

	var b api.SendMessageRequest
	if err := parseJSONBody(&b, w, r); err != nil {
		return
	}

	room := mux.Vars(r)["room"]
	if _, err := a.chat.ReceiveMessage(user, room, b.Username, b.Content); err != nil {
		writeError(w, err, statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
