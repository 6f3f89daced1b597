package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadClientConfig(t *testing.T) {
	req := require.New(t)
	t.Setenv("CRYPTOCHAT_UI_ADDR", "127.0.0.1:9000")
	t.Setenv("CRYPTOCHAT_TOKEN", "tok")

	cfg, err := LoadClientConfig()

	req.NoError(err)
	req.Equal("127.0.0.1:9000", cfg.UIAddr)
	req.Equal("tok", cfg.Token)
	req.True(cfg.Colours)
}

func TestLoadClientConfig_InvalidBool(t *testing.T) {
	req := require.New(t)
	t.Setenv("CRYPTOCHAT_COLOURS", "maybe")

	_, err := LoadClientConfig()

	req.Error(err)
}
