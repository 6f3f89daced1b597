package e2e

import (
	"context"
	"cryptochat/client"
	"fmt"
	"net/http"
	"net/http/httputil"
	"strings"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
)

type BaseSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration and skips when no node is configured
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.NodeAddr == "" {
		s.T().Skip("CRYPTOCHAT_UI_ADDR is not set")
	}
}

// Client builds a UI API client that logs every call, with bodies when E2E_DEBUG_JSON is set
func (s *BaseSuite) Client(t *testing.T, name, addr, token string) *client.Client {
	// 1. Print a colorized header for the step in logs
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	// 2. Log every round trip
	transport := loggingTransport{t: t, debug: s.Config.DebugJSON, next: http.DefaultTransport}
	return client.New(addr,
		client.WithToken(token),
		client.WithHTTPClient(&http.Client{Transport: transport, Timeout: 30 * time.Second}))
}

// WithNode provides a client of the node under test within a contextual test step
func (s *BaseSuite) WithNode(name string, fn func(ctx context.Context, c *client.Client)) {
	s.with(name, s.Config.NodeAddr, s.Config.Token, fn)
}

// WithPeer provides a client of the second node
func (s *BaseSuite) WithPeer(name string, fn func(ctx context.Context, c *client.Client)) {
	s.with(name, s.Config.PeerAddr, s.Config.PeerToken, fn)
}

func (s *BaseSuite) with(name, addr, token string, fn func(ctx context.Context, c *client.Client)) {
	c := s.Client(s.T(), name, addr, token)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	fn(ctx, c)
}

type loggingTransport struct {
	t     *testing.T
	debug bool
	next  http.RoundTripper
}

func (l loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	var sb strings.Builder
	if l.debug {
		if dump, err := httputil.DumpRequestOut(req, true); err == nil {
			fmt.Fprintf(&sb, "\nREQUEST:\n%s\n", dump)
		}
	}
	res, err := l.next.RoundTrip(req)
	if err != nil {
		l.t.Logf("HTTP %s %s failed in %v: %v%s", req.Method, req.URL.Path, time.Since(start), err, sb.String())
		return nil, err
	}
	// Streams never end, their bodies are not dumped
	if l.debug && !strings.HasPrefix(res.Header.Get("Content-Type"), "text/event-stream") {
		if dump, err := httputil.DumpResponse(res, true); err == nil {
			fmt.Fprintf(&sb, "RESPONSE:\n%s\n", dump)
		}
	}
	l.t.Logf("HTTP %s %s [%d] in %v%s", req.Method, req.URL.Path, res.StatusCode, time.Since(start), sb.String())
	return res, nil
}
