package tui

import (
	"cryptochat/api"
	"cryptochat/client"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const sidebarWidth = 22

// MessagesViewModel lists the rooms and the messages of the selected one.
// Plain input is sent to the selected room, input starting with / is a command.
type MessagesViewModel struct {
	state    *client.State
	styles   Styles
	input    textinput.Model
	viewport viewport.Model
	selected string
	// adding is true while the input asks for the name of a new room
	adding bool
	hits   []api.SearchHit
	query  string
	width  int
	height int
}

func NewMessagesViewModel(state *client.State, styles Styles) MessagesViewModel {
	input := textinput.New()
	input.Placeholder = "Message"
	input.CharLimit = 4096
	input.Focus()
	return MessagesViewModel{
		state:    state,
		styles:   styles,
		input:    input,
		viewport: viewport.New(80, 20),
	}
}

func (m MessagesViewModel) Selected() string { return m.selected }

func (m *MessagesViewModel) SetSize(w, h int) {
	m.width, m.height = w, h
	m.input.Width = max(w-sidebarWidth-4, 10)
	m.viewport.Width = max(w-sidebarWidth-2, 10)
	m.viewport.Height = max(h-3, 1)
	m.UpdateContent()
}

// Select switches the message list to room
func (m *MessagesViewModel) Select(room string) {
	m.selected = room
	m.hits, m.query = nil, ""
	m.UpdateContent()
}

// Deselect clears the selection when room was the selected one
func (m *MessagesViewModel) Deselect(room string) {
	if m.selected == room {
		m.Select("")
	}
}

func (m *MessagesViewModel) ShowHits(query string, hits []api.SearchHit) {
	m.query, m.hits = query, hits
	m.UpdateContent()
}

// UpdateContent re-renders the message list from the shared state
func (m *MessagesViewModel) UpdateContent() {
	var sb strings.Builder
	switch {
	case m.query != "":
		sb.WriteString(m.styles.Title.Render(fmt.Sprintf("%d results for %q (esc to close)", len(m.hits), m.query)))
		sb.WriteString("\n\n")
		for _, h := range m.hits {
			sb.WriteString(m.styles.Muted.Render("#" + h.Message.Room))
			sb.WriteString(" ")
			sb.WriteString(m.renderSender(h.Message.Sender.Username, h.Message.Sender.UUID.String()))
			sb.WriteString("\n")
			sb.WriteString(h.Message.Content)
			sb.WriteString("\n\n")
		}
	case m.selected == "":
		sb.WriteString(m.styles.Muted.Render("Select a room with tab, or /join NAME"))
	default:
		messages := m.state.Messages(m.selected)
		if len(messages) == 0 {
			sb.WriteString(m.styles.Muted.Render("No messages yet in #" + m.selected))
		}
		for _, msg := range messages {
			sb.WriteString(m.renderSender(msg.Sender.Username, msg.Sender.UUID.String()))
			sb.WriteString("\n")
			sb.WriteString(msg.Content)
			sb.WriteString("\n\n")
		}
	}
	m.viewport.SetContent(sb.String())
	m.viewport.GotoBottom()
}

func (m MessagesViewModel) renderSender(username, id string) string {
	return m.styles.Sender.Render(username) + " " + m.styles.Muted.Render("("+id+")")
}

func (m MessagesViewModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m MessagesViewModel) Update(msg tea.Msg) (MessagesViewModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			cmd := m.submit(strings.TrimSpace(m.input.Value()))
			m.input.Reset()
			return m, cmd
		case tea.KeyEsc:
			if m.adding {
				m.stopAdding()
			} else {
				m.ShowHits("", nil)
			}
			return m, nil
		case tea.KeyTab:
			return m, m.cycle(1)
		case tea.KeyShiftTab:
			return m, m.cycle(-1)
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// cycle joins the next room of the list, the way clicking a room does
func (m MessagesViewModel) cycle(step int) tea.Cmd {
	names := m.state.RoomNames()
	if len(names) == 0 {
		return nil
	}
	i := slices.Index(names, m.selected)
	switch {
	case i < 0 && step < 0:
		i = len(names) - 1
	case i < 0:
		i = 0
	default:
		i = (i + step + len(names)) % len(names)
	}
	return emit(joinRoomMsg{room: names[i]})
}

func (m *MessagesViewModel) submit(text string) tea.Cmd {
	if m.adding {
		m.stopAdding()
		if text == "" {
			return nil
		}
		return emit(addRoomMsg{room: text})
	}
	if text == "" {
		return nil
	}
	if !strings.HasPrefix(text, "/") {
		if m.selected == "" {
			return emit(statusMsg("Join a room before sending"))
		}
		return emit(sendMessageMsg{room: m.selected, content: text})
	}

	command, arg, _ := strings.Cut(text, " ")
	arg = strings.TrimSpace(arg)
	switch command {
	case "/join":
		if arg == "" {
			return emit(statusMsg("Usage: /join ROOM"))
		}
		return emit(joinRoomMsg{room: arg})
	case "/add":
		if arg != "" {
			return emit(addRoomMsg{room: arg})
		}
		m.adding = true
		m.input.Placeholder = "Name of new room"
		return nil
	case "/leave":
		room := arg
		if room == "" {
			room = m.selected
		}
		if room == "" {
			return emit(statusMsg("Usage: /leave [ROOM]"))
		}
		return emit(leaveRoomMsg{room: room})
	case "/find":
		if arg == "" {
			return emit(statusMsg("Usage: /find WORDS"))
		}
		return emit(searchMsg{query: arg})
	case "/go":
		return emit(navigateMsg{path: arg})
	default:
		return emit(statusMsg(fmt.Sprintf("Unknown command %s, try /join /add /leave /find /go", command)))
	}
}

func (m *MessagesViewModel) stopAdding() {
	m.adding = false
	m.input.Placeholder = "Message"
}

func (m MessagesViewModel) View() string {
	rooms := m.state.Rooms()
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("Rooms"))
	sb.WriteString("\n")
	for _, name := range m.state.RoomNames() {
		marker := "  "
		if rooms[name].Joined {
			marker = "● "
		}
		line := fmt.Sprintf("%s%s (%d)", marker, name, len(rooms[name].Members))
		if name == m.selected {
			sb.WriteString(m.styles.Selected.Render(line))
		} else {
			sb.WriteString(m.styles.Room.Render(line))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(m.styles.Muted.Render("/add  new room"))

	sidebar := m.styles.Sidebar.Width(sidebarWidth).Height(max(m.height-1, 1)).Render(sb.String())
	content := lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), m.input.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", content)
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
