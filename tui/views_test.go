package tui

import (
	"cryptochat/api"
	"cryptochat/client"
	"cryptochat/domain"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newMessagesView(rooms ...string) MessagesViewModel {
	state := client.NewState()
	r := api.Rooms{}
	for _, name := range rooms {
		r[name] = api.Room{}
	}
	state.SetRooms(r)
	return NewMessagesViewModel(state, DefaultStyles())
}

// enter types line into the input and presses enter, returning the emitted message if any
func enter(t *testing.T, m MessagesViewModel, line string) (MessagesViewModel, tea.Msg) {
	t.Helper()
	m.input.SetValue(line)
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		return m, nil
	}
	return m, cmd()
}

func TestMessagesView_Commands(t *testing.T) {
	cases := []struct {
		name     string
		selected string
		line     string
		want     tea.Msg
	}{
		{"plain text goes to the selected room", "general", "hello", sendMessageMsg{room: "general", content: "hello"}},
		{"plain text without a room", "", "hello", statusMsg("Join a room before sending")},
		{"join", "", "/join lobby", joinRoomMsg{room: "lobby"}},
		{"join needs a room", "", "/join", statusMsg("Usage: /join ROOM")},
		{"add with a name", "", "/add dev", addRoomMsg{room: "dev"}},
		{"leave defaults to the selected room", "general", "/leave", leaveRoomMsg{room: "general"}},
		{"leave a named room", "general", "/leave dev", leaveRoomMsg{room: "dev"}},
		{"leave without a room", "", "/leave", statusMsg("Usage: /leave [ROOM]")},
		{"find", "", "/find fox jumps", searchMsg{query: "fox jumps"}},
		{"go", "", "/go /settings", navigateMsg{path: "/settings"}},
		{"empty line", "general", "   ", nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := require.New(t)
			// Given a view with a selected room
			m := newMessagesView("general")
			m.Select(c.selected)

			// When a line is submitted
			m, msg := enter(t, m, c.line)

			// Then the intent is emitted and the input is cleared
			req.Equal(c.want, msg)
			req.Empty(m.input.Value())
		})
	}
}

func TestMessagesView_UnknownCommand(t *testing.T) {
	req := require.New(t)
	_, msg := enter(t, newMessagesView(), "/dance")
	status, ok := msg.(statusMsg)
	req.True(ok)
	req.Contains(string(status), "Unknown command /dance")
}

func TestMessagesView_AddPrompt(t *testing.T) {
	req := require.New(t)
	// Given the add prompt opened with a bare /add
	m, msg := enter(t, newMessagesView("general"), "/add")
	req.Nil(msg)
	req.True(m.adding)

	// When the name is entered
	m, msg = enter(t, m, "random")

	// Then the prompted room is added, whatever room is selected
	req.Equal(addRoomMsg{room: "random"}, msg)
	req.False(m.adding)

	// And esc cancels a new prompt
	m, _ = enter(t, m, "/add")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	req.False(m.adding)
	_, msg = enter(t, m, "hi")
	req.Equal(statusMsg("Join a room before sending"), msg)
}

func TestMessagesView_TabJoinsTheNextRoom(t *testing.T) {
	req := require.New(t)
	m := newMessagesView("a", "b", "c")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	req.Equal(joinRoomMsg{room: "a"}, cmd())

	m.Select("c")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	req.Equal(joinRoomMsg{room: "a"}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	req.Equal(joinRoomMsg{room: "b"}, cmd())
}

func TestMessagesView_RendersSelectedRoom(t *testing.T) {
	req := require.New(t)
	m := newMessagesView("general")
	m.SetSize(100, 30)
	m.state.AppendMessage(domain.Message{
		ID:      uuid.New(),
		Room:    "general",
		Sender:  domain.Sender{Username: "ada", UUID: uuid.New()},
		Content: "first light",
	})

	m.Select("general")

	req.Contains(m.View(), "first light")
	req.Contains(m.View(), "ada")
}

func TestSettingsView(t *testing.T) {
	req := require.New(t)
	identity := domain.Identity{UUID: uuid.New(), Username: "ada", Fingerprint: "AB:CD"}
	m := NewSettingsViewModel(DefaultStyles())
	m.SetIdentity(identity)
	m.Focus()
	req.Contains(m.View(), "AB:CD")

	// Unchanged name is not saved
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	req.Nil(cmd)

	m.input.SetValue("  grace ")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	req.Equal(setUsernameMsg{username: "grace"}, cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	req.Equal(navigateMsg{path: "/messages"}, cmd())
}
