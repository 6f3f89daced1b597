// Package client talks to the UI API of a local cryptochat node.
package client

import (
	"bytes"
	"context"
	"cryptochat/api"
	"cryptochat/domain"
	"cryptochat/observability"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 15 * time.Second

// DefaultSendTimeout outlasts the node's default VERIFICATION_TIMEOUT:
// a send waits while a peer's fingerprint is checked.
const DefaultSendTimeout = 3 * time.Minute

// APIError is a non 2xx answer of the node, decoded from its problem+json body
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("node answered %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("node answered %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL     string
	http        *http.Client
	timeout     time.Duration
	sendTimeout time.Duration

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout bounds every request but sends
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithSendTimeout(d time.Duration) Option {
	return func(c *Client) { c.sendTimeout = d }
}

// WithToken sets the bearer token of a node with UI_PASSPHRASE set
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New accepts "localhost:8080" as well as "http://localhost:8080"
func New(addr string, opts ...Option) *Client {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	c := &Client{
		baseURL:     strings.TrimRight(addr, "/"),
		http:        &http.Client{},
		timeout:     defaultTimeout,
		sendTimeout: DefaultSendTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login exchanges the passphrase for a token, kept for the next calls
func (c *Client) Login(ctx context.Context, passphrase string) (string, error) {
	var res api.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/login", map[string]string{"passphrase": passphrase}, &res); err != nil {
		return "", err
	}
	c.mu.Lock()
	c.token = res.Token
	c.mu.Unlock()
	return res.Token, nil
}

func (c *Client) Info(ctx context.Context) (domain.Identity, error) {
	var identity domain.Identity
	err := c.do(ctx, http.MethodGet, "/api/info", nil, &identity)
	return identity, err
}

func (c *Client) SetUsername(ctx context.Context, username string) (domain.Identity, error) {
	var identity domain.Identity
	err := c.do(ctx, http.MethodPut, "/api/info", api.SetUsernameRequest{Username: username}, &identity)
	return identity, err
}

func (c *Client) Rooms(ctx context.Context) (api.Rooms, error) {
	var rooms api.Rooms
	err := c.do(ctx, http.MethodGet, "/api/rooms", nil, &rooms)
	return rooms, err
}

func (c *Client) JoinRoom(ctx context.Context, room string) error {
	return c.do(ctx, http.MethodPost, roomPath(room), nil, nil)
}

func (c *Client) LeaveRoom(ctx context.Context, room string) error {
	return c.do(ctx, http.MethodDelete, roomPath(room), nil, nil)
}

func (c *Client) SendMessage(ctx context.Context, room, username, content string) (domain.Message, error) {
	var message domain.Message
	err := c.doWithin(ctx, c.sendTimeout, http.MethodPost, roomPath(room)+"/messages",
		api.SendMessageRequest{Username: username, Content: content}, &message)
	return message, err
}

// History returns one page of the room, newest first. A nil cursor in the result means the last page.
func (c *Client) History(ctx context.Context, room string, cursor *string) (api.History, error) {
	path := roomPath(room) + "/messages"
	if cursor != nil {
		path += "?cursor=" + url.QueryEscape(*cursor)
	}
	var history api.History
	err := c.do(ctx, http.MethodGet, path, nil, &history)
	return history, err
}

// Verify accepts or rejects the pending verification of a peer
func (c *Client) Verify(ctx context.Context, id uuid.UUID, accept bool) error {
	method := http.MethodPost
	if !accept {
		method = http.MethodDelete
	}
	return c.do(ctx, method, "/api/users/"+id.String()+"/verify", nil, nil)
}

func (c *Client) Verifications(ctx context.Context) ([]api.Verification, error) {
	var pending []api.Verification
	err := c.do(ctx, http.MethodGet, "/api/verifications", nil, &pending)
	return pending, err
}

func (c *Client) Search(ctx context.Context, query string) ([]api.SearchHit, error) {
	var hits []api.SearchHit
	err := c.do(ctx, http.MethodGet, "/api/search?q="+url.QueryEscape(query), nil, &hits)
	return hits, err
}

func (c *Client) Status(ctx context.Context) (observability.MonitoringStats, error) {
	var stats observability.MonitoringStats
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &stats)
	return stats, err
}

// EventsURL is the SSE endpoint. The token travels in the query, EventSource cannot set headers.
func (c *Client) EventsURL() string {
	if token := c.Token(); token != "" {
		return c.baseURL + "/api/events?token=" + url.QueryEscape(token)
	}
	return c.baseURL + "/api/events"
}

func roomPath(room string) string {
	return "/api/rooms/" + url.PathEscape(room)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	return c.doWithin(ctx, c.timeout, method, path, body, out)
}

func (c *Client) doWithin(ctx context.Context, timeout time.Duration, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode >= http.StatusBadRequest {
		return decodeError(res)
	}
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(res *http.Response) error {
	apiErr := &APIError{Status: res.StatusCode}
	var problem struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(res.Body, 64<<10)).Decode(&problem); err == nil {
		apiErr.Message = problem.Message
	}
	return apiErr
}
