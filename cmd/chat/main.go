// Command chat talks to a running cryptochat node through its UI API:
// a terminal client plus one-shot commands for scripting.
package main

import (
	"context"
	"cryptochat/client"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/spf13/cobra"
)

var (
	cfg    ClientConfig
	logger *slog.Logger
	node   *client.Client

	addrFlag  string
	tokenFlag string
)

var rootCmd = &cobra.Command{
	Use:   "chat",
	Short: "Client for a cryptochat node",
	Long: `Talk to a running cryptochat node through its UI API.

Without a subcommand the terminal client opens on /messages.
The node address and token come from CRYPTOCHAT_UI_ADDR and CRYPTOCHAT_TOKEN,
or from --addr and --token. With CRYPTOCHAT_PASSPHRASE set the client logs in first.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = LoadClientConfig(); err != nil {
			return err
		}
		if addrFlag != "" {
			cfg.UIAddr = addrFlag
		}
		if tokenFlag != "" {
			cfg.Token = tokenFlag
		}
		color.Enable = cfg.Colours
		logger = logs.GetLoggerFromString(cfg.LogLevel)

		node = client.New(cfg.UIAddr, client.WithToken(cfg.Token))
		if cfg.Token == "" && cfg.Passphrase != "" && cmd != loginCmd {
			if _, err := node.Login(cmd.Context(), cfg.Passphrase); err != nil {
				return fmt.Errorf("login: %w", err)
			}
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd, nil)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&addrFlag, "addr", "", "UI API address of the node (overrides CRYPTOCHAT_UI_ADDR)")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "bearer token (overrides CRYPTOCHAT_TOKEN)")
	rootCmd.AddCommand(tuiCmd, loginCmd, infoCmd, renameCmd, roomsCmd, joinCmd, leaveCmd,
		sendCmd, historyCmd, searchCmd, tailCmd, verificationsCmd, verifyCmd, statusCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// tuiLogger keeps logs off the screen while the terminal client runs
func tuiLogger() (*slog.Logger, func(), error) {
	if cfg.LogFile == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})), func() { _ = f.Close() }, nil
}
