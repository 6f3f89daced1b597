package server

import (
	"cryptochat/api"
	"cryptochat/auth"
	"cryptochat/domain"
	"cryptochat/observability"
	"cryptochat/repositories"
	"cryptochat/services"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/samber/lo"
)

// PeerCounter reports how many distinct peers are currently seen on the network
type PeerCounter interface {
	PeerCount() int
}

// UIAPI is the local JSON API used by the browser and terminal clients
type UIAPI struct {
	log          *slog.Logger
	identity     services.IIdentityService
	chat         services.IChatService
	verification services.IVerificationService
	auth         services.IAuthService
	issuer       auth.TokenIssuer
	events       http.Handler
	monitoring   *observability.MonitoringManager
	peers        PeerCounter
}

func NewUIAPI(
	log *slog.Logger,
	identity services.IIdentityService,
	chat services.IChatService,
	verification services.IVerificationService,
	authService services.IAuthService,
	issuer auth.TokenIssuer,
	events http.Handler,
	monitoring *observability.MonitoringManager,
	peers PeerCounter,
) *UIAPI {
	return &UIAPI{
		log:          log,
		identity:     identity,
		chat:         chat,
		verification: verification,
		auth:         authService,
		issuer:       issuer,
		events:       events,
		monitoring:   monitoring,
		peers:        peers,
	}
}

func (a *UIAPI) Handler() http.Handler {
	r := mux.NewRouter()

	uiAPI := r.PathPrefix("/api").Subrouter()
	if a.auth.Enabled() {
		uiAPI.Use(auth.Middleware(a.issuer, []string{"/api/login"}, writeError))
	}
	uiAPI.HandleFunc("/login", a.login).Methods(http.MethodPost)
	uiAPI.HandleFunc("/info", a.info).Methods(http.MethodGet)
	uiAPI.HandleFunc("/info", a.setUsername).Methods(http.MethodPut)
	uiAPI.HandleFunc("/rooms", a.rooms).Methods(http.MethodGet)
	uiAPI.HandleFunc("/rooms/{room}", a.roomEdit).Methods(http.MethodPost, http.MethodDelete)
	uiAPI.HandleFunc("/rooms/{room}/messages", a.history).Methods(http.MethodGet)
	uiAPI.HandleFunc("/rooms/{room}/messages", a.sendMessage).Methods(http.MethodPost)
	uiAPI.HandleFunc("/users/{uuid}/verify", a.verifyUser).Methods(http.MethodPost, http.MethodDelete)
	uiAPI.HandleFunc("/verifications", a.verifications).Methods(http.MethodGet)
	uiAPI.HandleFunc("/search", a.search).Methods(http.MethodGet)
	uiAPI.HandleFunc("/status", a.status).Methods(http.MethodGet)
	uiAPI.Handle("/events", a.events).Methods(http.MethodGet)
	uiAPI.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, fmt.Errorf("no such endpoint: %s %s", r.Method, r.URL.Path), http.StatusNotFound)
	})

	r.PathPrefix("/").Handler(newSPAHandler(a.log))

	return handlers.CustomLoggingHandler(nil, r, accessLog(a.log, "ui"))
}

func (a *UIAPI) login(w http.ResponseWriter, r *http.Request) {
	var b auth.LoginRequest
	if err := parseJSONBody(&b, w, r); err != nil {
		return
	}
	token, err := a.auth.Login(b.Passphrase)
	if err != nil {
		writeError(w, err, statusFor(err))
		return
	}
	writeJSON(a.log, w, api.LoginResponse{Token: token}, http.StatusOK)
}

func (a *UIAPI) info(w http.ResponseWriter, _ *http.Request) {
	writeJSON(a.log, w, a.identity.Info(), http.StatusOK)
}

func (a *UIAPI) setUsername(w http.ResponseWriter, r *http.Request) {
	var b api.SetUsernameRequest
	if err := parseJSONBody(&b, w, r); err != nil {
		return
	}
	if err := a.identity.SetUsername(b.Username); err != nil {
		writeError(w, err, statusFor(err))
		return
	}
	writeJSON(a.log, w, a.identity.Info(), http.StatusOK)
}

func (a *UIAPI) rooms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(a.log, w, api.ToRooms(a.chat.Rooms()), http.StatusOK)
}

func (a *UIAPI) roomEdit(w http.ResponseWriter, r *http.Request) {
	room := mux.Vars(r)["room"]
	var err error
	switch r.Method {
	case http.MethodPost:
		err = a.chat.JoinRoom(room)
	case http.MethodDelete:
		err = a.chat.LeaveRoom(room)
	}
	if err != nil {
		writeError(w, err, statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *UIAPI) history(w http.ResponseWriter, r *http.Request) {
	cmd := domain.GetMessagesCommand{Room: mux.Vars(r)["room"]}
	if c := r.URL.Query().Get("cursor"); c != "" {
		cmd.Cursor = &c
	}
	messages, cursor, err := a.chat.History(cmd)
	if err != nil {
		writeError(w, err, statusFor(err))
		return
	}
	writeJSON(a.log, w, api.History{Messages: messages, Cursor: cursor}, http.StatusOK)
}

func (a *UIAPI) sendMessage(w http.ResponseWriter, r *http.Request) {
	var b api.SendMessageRequest
	if err := parseJSONBody(&b, w, r); err != nil {
		return
	}
	message, err := a.chat.SendMessage(r.Context(), domain.SendMessageCommand{
		Room:     mux.Vars(r)["room"],
		Username: b.Username,
		Content:  b.Content,
	})
	if err != nil {
		writeError(w, err, statusFor(err))
		return
	}
	writeJSON(a.log, w, message, http.StatusCreated)
}

func (a *UIAPI) verifyUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["uuid"])
	if err != nil {
		writeError(w, fmt.Errorf("failed to parse UUID: %w", err), http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodPost:
		err = a.verification.Accept(id)
	case http.MethodDelete:
		err = a.verification.Reject(id)
	}
	if err != nil {
		writeError(w, err, statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *UIAPI) verifications(w http.ResponseWriter, _ *http.Request) {
	pending := lo.Map(a.verification.Pending(), func(v domain.VerificationRequest, _ int) api.Verification {
		return api.Verification{UUID: v.UUID, Fingerprint: v.Fingerprint, RequestedAt: v.RequestedAt}
	})
	writeJSON(a.log, w, pending, http.StatusOK)
}

func (a *UIAPI) search(w http.ResponseWriter, r *http.Request) {
	hits, err := a.chat.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err, statusFor(err))
		return
	}
	writeJSON(a.log, w, lo.Map(hits, func(h repositories.SearchHit, _ int) api.SearchHit {
		return api.SearchHit{Message: h.Message.ToDomain(), Score: h.Score}
	}), http.StatusOK)
}

func (a *UIAPI) status(w http.ResponseWriter, _ *http.Request) {
	stats := a.monitoring.GetLatest()
	stats.Rooms = lo.CountBy(lo.Values(a.chat.Rooms()), func(r domain.Room) bool { return r.Joined })
	stats.Peers = a.peers.PeerCount()
	stats.PendingVerifications = len(a.verification.Pending())
	writeJSON(a.log, w, stats, http.StatusOK)
}

// NewUIServer has no write timeout: event streams stay open
func NewUIServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
