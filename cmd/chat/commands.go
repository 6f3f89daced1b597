package main

import (
	"cryptochat/api"
	"cryptochat/client"
	"cryptochat/domain"
	"cryptochat/tui"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [path]",
	Short: "Open the terminal client, on /messages or /settings",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTUI,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Exchange CRYPTOCHAT_PASSPHRASE for a token and print it",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Passphrase == "" {
			return fmt.Errorf("CRYPTOCHAT_PASSPHRASE is not set")
		}
		token, err := node.Login(cmd.Context(), cfg.Passphrase)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the node identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		identity, err := node.Info(cmd.Context())
		if err != nil {
			return err
		}
		printIdentity(cmd.OutOrStdout(), identity)
		return nil
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename USERNAME",
	Short: "Change the username shown to peers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		identity, err := node.SetUsername(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printIdentity(cmd.OutOrStdout(), identity)
		return nil
	},
}

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List known rooms and their members",
	RunE: func(cmd *cobra.Command, args []string) error {
		rooms, err := node.Rooms(cmd.Context())
		if err != nil {
			return err
		}
		table := newTable(cmd.OutOrStdout(), "Room", "Joined", "Members")
		names := lo.Keys(rooms)
		slices.Sort(names)
		for _, name := range names {
			room := rooms[name]
			members := lo.Map(room.Members, func(m api.Member, _ int) string { return m.Addr })
			table.Append([]string{name, strconv.FormatBool(room.Joined), strings.Join(members, ", ")})
		}
		table.Render()
		return nil
	},
}

var joinCmd = &cobra.Command{
	Use:   "join ROOM",
	Short: "Join a room, creating it when needed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return node.JoinRoom(cmd.Context(), args[0])
	},
}

var leaveCmd = &cobra.Command{
	Use:   "leave ROOM",
	Short: "Leave a room",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return node.LeaveRoom(cmd.Context(), args[0])
	},
}

var sendCmd = &cobra.Command{
	Use:   "send ROOM TEXT...",
	Short: "Send a message to a joined room",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		identity, err := node.Info(cmd.Context())
		if err != nil {
			return err
		}
		message, err := node.SendMessage(cmd.Context(), args[0], identity.Username, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		printMessage(cmd.OutOrStdout(), message)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history ROOM",
	Short: "Print the stored messages of a room, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var cursor *string
		for {
			page, err := node.History(cmd.Context(), args[0], cursor)
			if err != nil {
				return err
			}
			for _, m := range page.Messages {
				printMessage(cmd.OutOrStdout(), m)
			}
			if page.Cursor == nil {
				return nil
			}
			cursor = page.Cursor
		}
	},
}

var searchCmd = &cobra.Command{
	Use:   "search WORDS...",
	Short: "Full-text search over the stored messages",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hits, err := node.Search(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		table := newTable(cmd.OutOrStdout(), "Score", "Room", "Sender", "Content")
		for _, h := range hits {
			table.Append([]string{
				strconv.FormatFloat(h.Score, 'f', 3, 64),
				h.Message.Room,
				h.Message.Sender.Username,
				h.Message.Content,
			})
		}
		table.Render()
		return nil
	},
}

var tailCmd = &cobra.Command{
	Use:   "tail [ROOM]",
	Short: "Follow incoming messages, of one room or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		room := ""
		if len(args) == 1 {
			room = args[0]
		}
		out := cmd.OutOrStdout()
		return client.NewSubscriber(logger, node).Messages(cmd.Context(), func(m domain.Message) {
			if room == "" || m.Room == room {
				printMessage(out, m)
			}
		})
	},
}

var verificationsCmd = &cobra.Command{
	Use:   "verifications",
	Short: "List the peers waiting for a fingerprint check",
	RunE: func(cmd *cobra.Command, args []string) error {
		pending, err := node.Verifications(cmd.Context())
		if err != nil {
			return err
		}
		table := newTable(cmd.OutOrStdout(), "UUID", "Fingerprint", "Requested")
		for _, v := range pending {
			table.Append([]string{v.UUID.String(), v.Fingerprint, v.RequestedAt.Format(time.RFC3339)})
		}
		table.Render()
		return nil
	},
}

var rejectFlag bool

var verifyCmd = &cobra.Command{
	Use:   "verify UUID",
	Short: "Accept, or with --reject refuse, a pending peer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid peer uuid: %w", err)
		}
		return node.Verify(cmd.Context(), id, !rejectFlag)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show node health and counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := node.Status(cmd.Context())
		if err != nil {
			return err
		}
		table := newTable(cmd.OutOrStdout(), "Metric", "Value")
		table.AppendBulk([][]string{
			{"Uptime", stats.Uptime},
			{"PID", strconv.Itoa(int(stats.Process.PID))},
			{"CPU %", strconv.FormatFloat(stats.Process.CPUPercent, 'f', 1, 64)},
			{"Goroutines", strconv.Itoa(stats.Process.NumGoroutine)},
			{"Rooms", strconv.Itoa(stats.Rooms)},
			{"Peers", strconv.Itoa(stats.Peers)},
			{"Pending verifications", strconv.Itoa(stats.PendingVerifications)},
			{"Events published", strconv.FormatUint(stats.EventsPublished, 10)},
			{"Events dropped", strconv.FormatUint(stats.EventsDropped, 10)},
			{"Sink failures", strconv.FormatUint(stats.SinkFailures, 10)},
		})
		table.Render()
		return nil
	},
}

func init() {
	verifyCmd.Flags().BoolVar(&rejectFlag, "reject", false, "refuse the peer instead of accepting it")
}

func runTUI(cmd *cobra.Command, args []string) error {
	path := "/"
	if len(args) == 1 {
		path = args[0]
	}
	log, closeLog, err := tuiLogger()
	if err != nil {
		return err
	}
	defer closeLog()
	return tui.Run(cmd.Context(), log, node, path)
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func printIdentity(w io.Writer, identity domain.Identity) {
	_, _ = fmt.Fprintf(w, "%s %s\n", color.Bold.Render("UUID       "), identity.UUID)
	_, _ = fmt.Fprintf(w, "%s %s\n", color.Bold.Render("Username   "), identity.Username)
	_, _ = fmt.Fprintf(w, "%s %s\n", color.Bold.Render("Fingerprint"), identity.Fingerprint)
}

func printMessage(w io.Writer, m domain.Message) {
	header := fmt.Sprintf("#%s %s", m.Room, m.Sender.Username)
	_, _ = fmt.Fprintf(w, "%s %s %s\n",
		color.New(color.FgGreen, color.OpBold).Render(header),
		color.Gray.Render(m.At.Local().Format(time.TimeOnly)),
		m.Content)
}
