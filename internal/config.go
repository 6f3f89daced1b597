package internal

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Config is the node configuration read from the environment
type Config struct {
	LogLevel       string `env:"LOG_LEVEL,default=INFO"`
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	APIAddr        string `env:"API_ADDR,default=:9443"`
	UIAddr         string `env:"UI_ADDR,default=localhost:8080"`

	VerificationTimeout time.Duration `env:"VERIFICATION_TIMEOUT,default=2m"`
	MemberTTL           time.Duration `env:"MEMBER_TTL,default=15s"`
	SinkTimeout         time.Duration `env:"SINK_TIMEOUT,default=2s"`
	RestartInterval     time.Duration `env:"RESTART_INTERVAL,default=1s"`
	StatusInterval      time.Duration `env:"STATUS_INTERVAL,default=5s"`
	BufferSize          int           `env:"BUFFER_SIZE,default=256"`
	SearchBatchSize     int           `env:"SEARCH_BATCH_SIZE,default=50"`
	SearchBufferTimeout time.Duration `env:"SEARCH_BUFFER_TIMEOUT,default=1s"`

	LimitMessages   *int   `env:"LIMIT_MESSAGES"`
	CensoredWords   string `env:"CENSORED_WORDS"`
	CensoredDir     string `env:"CENSORED_DIR"`
	CharReplacement string `env:"CHARACTER_REPLACEMENT,default=*"`

	UIPassphrase      string        `env:"UI_PASSPHRASE"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=12h"`

	PeerRateLimit    float64 `env:"PEER_RATE_LIMIT,default=5"`
	PeerRateBurst    int     `env:"PEER_RATE_BURST,default=20"`
	DiscoveryEnabled bool    `env:"DISCOVERY_ENABLED,default=true"`

	// DEBUG_PORT serves the badger inspector when LOG_LEVEL is DEBUG, 0 disables it
	DebugPort int `env:"DEBUG_PORT,default=8081"`
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}

// WordList splits a comma separated CENSORED_WORDS value, dropping blanks
func WordList(str string) []string {
	var words []string
	for _, w := range strings.Split(str, ",") {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}
	return words
}

// Port extracts the TCP port of a listen address such as ":9443" or "0.0.0.0:9443"
func Port(addr string) (int, error) {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return 0, fmt.Errorf("invalid port in %q: %w", addr, err)
	}
	return port, nil
}

// Validate checks the cross-field constraints env tags cannot express
func (c Config) Validate() error {
	if _, err := CharacterRune(c.CharReplacement); err != nil {
		return err
	}
	port, err := Port(c.APIAddr)
	if err != nil {
		return fmt.Errorf("API_ADDR: %w", err)
	}
	if c.DiscoveryEnabled && port == 0 {
		return fmt.Errorf("API_ADDR needs a fixed port when DISCOVERY_ENABLED is set")
	}
	for name, d := range map[string]time.Duration{
		"VERIFICATION_TIMEOUT":  c.VerificationTimeout,
		"MEMBER_TTL":            c.MemberTTL,
		"SINK_TIMEOUT":          c.SinkTimeout,
		"RESTART_INTERVAL":      c.RestartInterval,
		"STATUS_INTERVAL":       c.StatusInterval,
		"SEARCH_BUFFER_TIMEOUT": c.SearchBufferTimeout,
		"AUTH_TOKEN_DURATION":   c.AuthTokenDuration,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	for name, n := range map[string]int{
		"BUFFER_SIZE":       c.BufferSize,
		"SEARCH_BATCH_SIZE": c.SearchBatchSize,
		"PEER_RATE_BURST":   c.PeerRateBurst,
	} {
		if n <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, n)
		}
	}
	if c.PeerRateLimit <= 0 {
		return fmt.Errorf("PEER_RATE_LIMIT must be positive, got %g", c.PeerRateLimit)
	}
	if c.LimitMessages != nil && *c.LimitMessages <= 0 {
		return fmt.Errorf("LIMIT_MESSAGES must be positive, got %d", *c.LimitMessages)
	}
	return nil
}
