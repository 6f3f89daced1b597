package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// CRYPTOCHAT_UI_ADDR is the UI API of the node under test. The suites skip when it is empty.
	NodeAddr string `envconfig:"CRYPTOCHAT_UI_ADDR"`
	// E2E_PEER_UI_ADDR is the UI API of a second node on the same LAN, for the two-node scenario
	PeerAddr  string `envconfig:"E2E_PEER_UI_ADDR"`
	Token     string `envconfig:"CRYPTOCHAT_TOKEN"`
	PeerToken string `envconfig:"E2E_PEER_TOKEN"`
	// E2E_DEBUG_JSON allows dumping full HTTP request/response bodies
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
