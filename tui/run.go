package tui

import (
	"context"
	"cryptochat/api"
	"cryptochat/client"
	"cryptochat/domain"
	"fmt"
	"log/slog"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Run opens the terminal client on path and blocks until the user quits or ctx ends.
// Room polling and the two event streams feed the program in the background.
func Run(parent context.Context, log *slog.Logger, c *client.Client, path string) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	state := client.NewState()
	p := tea.NewProgram(NewApp(ctx, c, state, path), tea.WithAltScreen(), tea.WithContext(ctx))

	var wg sync.WaitGroup
	background := func(name string, fn func(ctx context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				log.Error("Background task stopped", "task", name, "error", err)
			}
		}()
	}

	background("poller", client.NewPoller(log, c, state, client.DefaultPollInterval, func(rooms api.Rooms) {
		p.Send(roomsMsg{rooms})
	}).Run)

	subscriber := client.NewSubscriber(log, c)
	background("messages", func(ctx context.Context) error {
		return subscriber.Messages(ctx, func(m domain.Message) {
			p.Send(incomingMsg{m})
		})
	})
	background("verifications", func(ctx context.Context) error {
		// Requests raised before we subscribed are not replayed by the stream
		pending, err := c.Verifications(ctx)
		if err != nil {
			log.Warn("Fetching pending verifications failed", "error", err)
		}
		for _, v := range pending {
			p.Send(verificationMsg{client.VerificationEvent{Verification: v}})
		}
		return subscriber.Verifications(ctx, func(e client.VerificationEvent) {
			p.Send(verificationMsg{e})
		})
	})

	_, err := p.Run()
	cancel()
	wg.Wait()
	if err != nil && parent.Err() == nil {
		return fmt.Errorf("running terminal client: %w", err)
	}
	return nil
}
