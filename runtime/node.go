// Package runtime assembles a cryptochat node from its parts and runs it under supervision.
// It wires components together without containing business logic or domain rules.
package runtime

import (
	"context"
	"cryptochat/auth"
	"cryptochat/certs"
	"cryptochat/discovery"
	"cryptochat/domain"
	"cryptochat/domain/event"
	"cryptochat/errors"
	"cryptochat/internal"
	"cryptochat/moderation"
	"cryptochat/observability"
	"cryptochat/repositories"
	"cryptochat/runtime/workers"
	"cryptochat/server"
	"cryptochat/services"
	"cryptochat/sink"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/r3labs/sse/v2"
)

// peerRequestSlack is added to the verification timeout for outgoing peer requests:
// the handshake may wait for the remote user before the request itself is sent.
const peerRequestSlack = 10 * time.Second

type Node struct {
	log          *slog.Logger
	config       internal.Config
	identity     domain.Identity
	db           *badger.DB
	index        *bluge.Writer
	supervisor   *workers.Supervisor
	verification *services.VerificationService
	searchSink   *sink.SearchSink
	peerWorker   *workers.HTTPServerWorker
	uiWorker     *workers.HTTPServerWorker
	closeOnce    sync.Once
	closeErr     error
}

// NewNode opens storage and builds every component. Nothing listens until Run.
func NewNode(log *slog.Logger, config internal.Config) (*Node, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	n := &Node{log: log, config: config}
	if err := n.build(); err != nil {
		_ = n.closeStorage()
		return nil, err
	}
	return n, nil
}

func (n *Node) build() error {
	log, config := n.log, n.config

	// 1. Storage (BadgerDB & Bluge)
	db, err := badger.Open(badgerOptions(config, log))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	n.db = db

	index, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("failed to open bluge writer: %w", err)
	}
	n.index = index

	identityRepository := repositories.NewIdentityRepository(db, log)
	userRepository := repositories.NewUserRepository(db, log)
	roomRepository := repositories.NewRoomRepository(db)
	messageRepository := repositories.NewMessageRepository(db, log, config.LimitMessages)
	searchRepository := repositories.NewSearchRepository(index, log)

	// 2. Identity, generated on first start
	cert, err := identityRepository.LoadOrCreateCert(certs.RSABits)
	if err != nil {
		return fmt.Errorf("identity: %w", err)
	}
	identityService, err := services.NewIdentityService(cert, identityRepository)
	if err != nil {
		return fmt.Errorf("identity: %w", err)
	}
	n.identity = identityService.Info()

	secret, err := identityRepository.JWTSecret()
	if err != nil {
		return fmt.Errorf("jwt secret: %w", err)
	}
	issuer := auth.NewTokenIssuer(secret, n.identity.UUID.String(), config.AuthTokenDuration)
	authService, err := services.NewAuthService(log, identityRepository, issuer, config.UIPassphrase)
	if err != nil {
		return err
	}

	// 3. Moderation
	moderator, err := n.prepareModeration()
	if err != nil {
		return err
	}

	// 4. Event pipeline: one bus, fanned out to the UI streams, the history and the search index
	monitoring := observability.NewMonitoringManager(log)
	events := make(chan event.DomainEvent, config.BufferSize)

	streams := sse.New()
	streams.AutoReplay = false
	streams.CreateStream(event.StreamVerification)
	streams.CreateStream(event.StreamMessages)

	n.searchSink = sink.NewSearchSink(searchRepository, log, config.SearchBatchSize, config.SearchBufferTimeout)
	fanout := workers.NewEventFanout(log, events, monitoring, config.SinkTimeout).Add(
		sink.NewEventStreamSink(streams, log),
		sink.NewDiskSink(messageRepository),
		n.searchSink,
	)

	// 5. Services
	directory := discovery.NewDiscovery(n.identity.UUID, config.MemberTTL, log)
	n.verification = services.NewVerificationService(log, userRepository, fanout, config.VerificationTimeout)
	peerClient := server.NewPeerClient(cert, n.verification.VerifyPeer, config.VerificationTimeout+peerRequestSlack)
	chat := services.NewChatService(log, n.identity.UUID, directory, peerClient,
		roomRepository, messageRepository, searchRepository, moderator, fanout, config.VerificationTimeout+peerRequestSlack)
	if err := chat.Restore(); err != nil {
		return fmt.Errorf("restoring joined rooms: %w", err)
	}

	// 6. Servers
	peerAPI := server.NewPeerAPI(log, chat, userRepository, config.PeerRateLimit, config.PeerRateBurst)
	peerServer := server.NewPeerServer(config.APIAddr, cert, n.verification.VerifyPeer,
		peerAPI.Handler(), config.VerificationTimeout)

	uiAPI := server.NewUIAPI(log, identityService, chat, n.verification, authService, issuer,
		streams, monitoring, directory)
	uiServer := server.NewUIServer(config.UIAddr, uiAPI.Handler())
	// Event streams never go idle, closing them lets Shutdown complete
	uiServer.RegisterOnShutdown(streams.Close)

	// 7. Supervision
	n.peerWorker = workers.NewHTTPServerWorker(log, "peer-api", peerServer, true)
	n.uiWorker = workers.NewHTTPServerWorker(log, "ui-api", uiServer, false)
	queueLen := func() (int, int) { return len(events), cap(events) }

	n.supervisor = workers.NewSupervisor(log, config.RestartInterval)
	n.supervisor.Add(
		fanout,
		n.peerWorker,
		n.uiWorker,
		workers.NewStatusWorker(log, monitoring, queueLen, config.StatusInterval),
	)
	if config.DiscoveryEnabled {
		port, _ := internal.Port(config.APIAddr)
		n.supervisor.Add(workers.NewDiscoveryWorker(log, directory, port,
			workers.DefaultBrowseInterval, workers.DefaultBrowseWindow))
	}
	return nil
}

// prepareModeration merges CENSORED_WORDS with the dictionaries of CENSORED_DIR.
// No words at all yields a moderator that never censors.
func (n *Node) prepareModeration() (*moderation.Moderator, error) {
	charReplacement, err := internal.CharacterRune(n.config.CharReplacement)
	if err != nil {
		return nil, err
	}

	loader := NewCensoredLoader(nil)
	if n.config.CensoredDir != "" {
		loader = NewCensoredLoader(os.DirFS(n.config.CensoredDir))
	}
	data, err := loader.LoadAll(".", internal.WordList(n.config.CensoredWords)...)
	switch {
	case stderrors.Is(err, errors.ErrEmptyWords):
		n.log.Info("No censored words configured")
		return moderation.NewModerator(nil, charReplacement, n.log)
	case err != nil:
		return nil, fmt.Errorf("loading censored words: %w", err)
	}

	n.log.Info(fmt.Sprintf("%d censored files loaded [%s]",
		len(data.Languages), strings.Join(data.Languages, ",")))
	n.log.Info(fmt.Sprintf("%d unique censored words loaded", len(data.Words)))
	return moderation.NewModerator(data.Words, charReplacement, n.log)
}

func (n *Node) Identity() domain.Identity { return n.identity }

// DB is exposed for the debug inspector only
func (n *Node) DB() *badger.DB { return n.db }

// Ready waits until both servers listen and returns the peer API and UI addresses.
func (n *Node) Ready(ctx context.Context) (peer net.Addr, ui net.Addr, err error) {
	for _, ch := range []struct {
		ready <-chan net.Addr
		dst   *net.Addr
	}{{n.peerWorker.Ready(), &peer}, {n.uiWorker.Ready(), &ui}} {
		select {
		case addr := <-ch.ready:
			*ch.dst = addr
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}
	return peer, ui, nil
}

// Run blocks until ctx is cancelled and every worker has stopped, then releases storage.
func (n *Node) Run(ctx context.Context) error {
	n.log.Info("Starting node",
		"uuid", n.identity.UUID,
		"fingerprint", n.identity.Fingerprint,
		"peer_api", n.config.APIAddr,
		"ui", n.config.UIAddr)

	go func() {
		// Unblock handshakes waiting on the local user so the peer server can stop
		<-ctx.Done()
		n.verification.Close()
	}()

	n.supervisor.Run(ctx)
	n.log.Info("All workers stopped")
	return n.Close()
}

// Close flushes the search batch and closes bluge then badger. It is safe to call twice.
func (n *Node) Close() error {
	n.closeOnce.Do(func() {
		if n.verification != nil {
			n.verification.Close()
		}
		var errs []error
		if n.searchSink != nil {
			if err := n.searchSink.Flush(); err != nil {
				errs = append(errs, fmt.Errorf("flushing search index: %w", err))
			}
		}
		if err := n.closeStorage(); err != nil {
			errs = append(errs, err)
		}
		n.closeErr = stderrors.Join(errs...)
	})
	return n.closeErr
}

func (n *Node) closeStorage() error {
	var errs []error
	if n.index != nil {
		n.log.Info("Closing Bluge...")
		if err := n.index.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing bluge: %w", err))
		}
		n.index = nil
	}
	if n.db != nil {
		n.log.Info("Closing BadgerDB...")
		if err := n.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing badger: %w", err))
		}
		n.db = nil
	}
	return stderrors.Join(errs...)
}

func badgerOptions(config internal.Config, log *slog.Logger) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath).WithLogger(newBadgerLogger(log))
	if log.Enabled(context.Background(), slog.LevelDebug) {
		return options.WithLoggingLevel(badger.DEBUG)
	}
	return options.WithLoggingLevel(badger.INFO)
}
