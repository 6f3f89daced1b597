package server

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"cryptochat/api"
	"cryptochat/domain"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

// PeerClient posts messages to other nodes' peer API.
// Server certificates are not checked against a CA: verify applies the same first-use trust as the server side.
type PeerClient struct {
	client *http.Client
}

func NewPeerClient(cert tls.Certificate, verify func([][]byte, [][]*x509.Certificate) error, timeout time.Duration) *PeerClient {
	return &PeerClient{client: &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				Certificates:          []tls.Certificate{cert},
				InsecureSkipVerify:    true,
				VerifyPeerCertificate: verify,
				MinVersion:            tls.VersionTLS12,
			},
		},
	}}
}

func (c *PeerClient) SendMessage(ctx context.Context, addr net.TCPAddr, message domain.Message) error {
	body, err := json.Marshal(api.SendMessageRequest{Username: message.Sender.Username, Content: message.Content})
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	target := fmt.Sprintf("https://%s/rooms/%s/messages", addr.String(), url.PathEscape(message.Room))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode >= 400 {
		var e jsonError
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return fmt.Errorf("peer responded with HTTP %d", res.StatusCode)
		}
		return fmt.Errorf("peer responded with HTTP %d: %s", res.StatusCode, e.Message)
	}
	return nil
}
