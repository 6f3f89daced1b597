// Command seed prepares a demo setup: a censored words directory for CENSORED_DIR
// and, when a node is reachable, a few rooms with messages in several languages.
package main

import (
	"context"
	"cryptochat/client"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var censored = map[string][]string{
	"en.txt": {"# English", "darn", "heck"},
	"fr.txt": {"# Français", "zut", "flûte"},
}

var rooms = map[string][]string{
	"general": {
		"Hello everyone, the coffee machine is fixed",
		"Bonjour à tous, la machine à café est réparée",
		"Hallo zusammen, die Kaffeemaschine funktioniert wieder",
	},
	"random": {
		"Heck, who left the window open?",
		"¿Alguien ha visto mis llaves?",
	},
}

func main() {
	_ = godotenv.Load()
	outputDir := flag.String("out", "./test_data/censored", "directory receiving the censored word lists")
	addr := flag.String("addr", os.Getenv("CRYPTOCHAT_UI_ADDR"), "UI API of a running node, empty to skip messages")
	flag.Parse()

	fmt.Println("🚀 Cryptochat: generating demo data...")

	// 1. Censored word lists
	if err := writeWordLists(*outputDir); err != nil {
		fmt.Printf("❌ Word lists: %v\n", err)
		os.Exit(1)
	}

	// 2. Rooms and messages
	if *addr == "" {
		fmt.Println("⚠️  No node address, skipping messages (set CRYPTOCHAT_UI_ADDR or -addr)")
	} else if err := postMessages(*addr, os.Getenv("CRYPTOCHAT_TOKEN")); err != nil {
		fmt.Printf("❌ Messages: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n✅ Ready! Start a node with CENSORED_DIR=%s\n", *outputDir)
}

func writeWordLists(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for name, words := range censored {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(strings.Join(words, "\n")+"\n"), 0o644); err != nil {
			return err
		}
		fmt.Printf("📄 Word list written: %s\n", path)
	}
	return nil
}

func postMessages(addr, token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c := client.New(addr, client.WithToken(token))
	identity, err := c.Info(ctx)
	if err != nil {
		return fmt.Errorf("reaching node: %w", err)
	}
	for room, messages := range rooms {
		if err := c.JoinRoom(ctx, room); err != nil {
			return fmt.Errorf("joining %s: %w", room, err)
		}
		for _, content := range messages {
			if _, err := c.SendMessage(ctx, room, identity.Username, content); err != nil {
				return fmt.Errorf("sending to %s: %w", room, err)
			}
		}
		fmt.Printf("💬 %d messages sent to #%s\n", len(messages), room)
	}
	return nil
}
