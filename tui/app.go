package tui

import (
	"context"
	"cryptochat/api"
	"cryptochat/client"
	"cryptochat/domain"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

const requestTimeout = 10 * time.Second

// Node is the part of the UI API the terminal client calls. *client.Client implements it.
type Node interface {
	Info(ctx context.Context) (domain.Identity, error)
	SetUsername(ctx context.Context, username string) (domain.Identity, error)
	Rooms(ctx context.Context) (api.Rooms, error)
	JoinRoom(ctx context.Context, room string) error
	LeaveRoom(ctx context.Context, room string) error
	SendMessage(ctx context.Context, room, username, content string) (domain.Message, error)
	Verify(ctx context.Context, id uuid.UUID, accept bool) error
	Search(ctx context.Context, query string) ([]api.SearchHit, error)
}

// App is the root model: it routes between views, runs the views' intents against the node
// and shows pending verification requests one at a time, oldest first.
type App struct {
	ctx      context.Context
	node     Node
	state    *client.State
	styles   Styles
	route    Route
	path     string
	messages MessagesViewModel
	settings SettingsViewModel
	status   string
	err      error
	width    int
	height   int
}

func NewApp(ctx context.Context, node Node, state *client.State, path string) App {
	styles := DefaultStyles()
	app := App{
		ctx:      ctx,
		node:     node,
		state:    state,
		styles:   styles,
		messages: NewMessagesViewModel(state, styles),
		settings: NewSettingsViewModel(styles),
	}
	app.route, app.path = Resolve(path)
	return app
}

func (a App) Route() Route { return a.route }

func (a App) Init() tea.Cmd {
	return tea.Batch(a.messages.Init(), a.fetchIdentity(), a.fetchRooms())
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.messages.SetSize(msg.Width, msg.Height-3)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case identityMsg:
		a.state.SetIdentity(msg.identity)
		a.settings.SetIdentity(msg.identity)
		return a, nil

	case roomsMsg:
		a.state.SetRooms(msg.rooms)
		return a, nil

	case incomingMsg:
		a.state.AppendMessage(msg.message)
		a.messages.UpdateContent()
		return a, nil

	case verificationMsg:
		if msg.event.Resolved {
			a.state.DropVerification(msg.event.Verification.UUID)
		} else {
			a.state.PushVerification(msg.event.Verification)
		}
		return a, nil

	case answeredMsg:
		a.state.DropVerification(msg.id)
		if msg.err != nil {
			a.err = msg.err
		} else if msg.accept {
			a.status = "Accepted " + msg.id.String()
		} else {
			a.status = "Rejected " + msg.id.String()
		}
		return a, nil

	case navigateMsg:
		return a, a.navigate(msg.path)

	case joinRoomMsg:
		return a, a.call(func(ctx context.Context) tea.Msg {
			if err := a.node.JoinRoom(ctx, msg.room); err != nil {
				return errMsg{err}
			}
			return roomJoinedMsg{room: msg.room}
		})

	case addRoomMsg:
		return a, a.call(func(ctx context.Context) tea.Msg {
			if err := a.node.JoinRoom(ctx, msg.room); err != nil {
				return errMsg{err}
			}
			return statusMsg("Added #" + msg.room)
		}, a.fetchRooms())

	case roomJoinedMsg:
		a.messages.Select(msg.room)
		a.status, a.err = "Joined #"+msg.room, nil
		return a, a.fetchRooms()

	case leaveRoomMsg:
		return a, a.call(func(ctx context.Context) tea.Msg {
			if err := a.node.LeaveRoom(ctx, msg.room); err != nil {
				return errMsg{err}
			}
			return roomLeftMsg{room: msg.room}
		})

	case roomLeftMsg:
		a.messages.Deselect(msg.room)
		a.status, a.err = "Left #"+msg.room, nil
		return a, a.fetchRooms()

	case sendMessageMsg:
		username := a.state.Identity().Username
		return a, a.callWithin(client.DefaultSendTimeout, func(ctx context.Context) tea.Msg {
			// The node echoes the message back on the event stream
			if _, err := a.node.SendMessage(ctx, msg.room, username, msg.content); err != nil {
				return errMsg{err}
			}
			return nil
		})

	case searchMsg:
		return a, a.call(func(ctx context.Context) tea.Msg {
			hits, err := a.node.Search(ctx, msg.query)
			if err != nil {
				return errMsg{err}
			}
			return searchResultMsg{query: msg.query, hits: hits}
		})

	case searchResultMsg:
		a.messages.ShowHits(msg.query, msg.hits)
		return a, nil

	case setUsernameMsg:
		return a, a.call(func(ctx context.Context) tea.Msg {
			identity, err := a.node.SetUsername(ctx, msg.username)
			if err != nil {
				return errMsg{err}
			}
			return identityMsg{identity}
		})

	case statusMsg:
		a.status, a.err = string(msg), nil
		return a, nil

	case errMsg:
		a.err = msg.err
		return a, nil
	}

	return a.forward(msg)
}

func (a App) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Type == tea.KeyCtrlC {
		return a, tea.Quit
	}

	// An open verification prompt captures the keyboard
	if pending, ok := a.state.NextVerification(); ok {
		switch strings.ToLower(key.String()) {
		case "y":
			return a, a.verify(pending.UUID, true)
		case "n":
			return a, a.verify(pending.UUID, false)
		}
		return a, nil
	}

	switch {
	case key.Type == tea.KeyCtrlS && a.route == RouteSettings:
		return a, a.navigate(string(RouteMessages))
	case key.Type == tea.KeyCtrlS:
		return a, a.navigate(string(RouteSettings))
	case key.Type == tea.KeyEsc && a.route == RouteNotFound:
		return a, a.navigate(string(RouteMessages))
	}
	return a.forward(key)
}

// forward hands msg to the active view
func (a App) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.route {
	case RouteMessages:
		a.messages, cmd = a.messages.Update(msg)
	case RouteSettings:
		a.settings, cmd = a.settings.Update(msg)
	}
	return a, cmd
}

func (a *App) navigate(path string) tea.Cmd {
	a.route, a.path = Resolve(path)
	a.status, a.err = "", nil
	if a.route == RouteSettings {
		a.settings.SetIdentity(a.state.Identity())
		return a.settings.Focus()
	}
	a.settings.Blur()
	return nil
}

func (a App) verify(id uuid.UUID, accept bool) tea.Cmd {
	return a.call(func(ctx context.Context) tea.Msg {
		return answeredMsg{id: id, accept: accept, err: a.node.Verify(ctx, id, accept)}
	})
}

func (a App) fetchIdentity() tea.Cmd {
	return a.call(func(ctx context.Context) tea.Msg {
		identity, err := a.node.Info(ctx)
		if err != nil {
			return errMsg{fmt.Errorf("fetching identity: %w", err)}
		}
		return identityMsg{identity}
	})
}

func (a App) fetchRooms() tea.Cmd {
	return a.call(func(ctx context.Context) tea.Msg {
		rooms, err := a.node.Rooms(ctx)
		if err != nil {
			return errMsg{err}
		}
		return roomsMsg{rooms}
	})
}

// call runs fn off the update loop with a bounded context, batched with any extra commands
func (a App) call(fn func(ctx context.Context) tea.Msg, then ...tea.Cmd) tea.Cmd {
	return a.callWithin(requestTimeout, fn, then...)
}

func (a App) callWithin(timeout time.Duration, fn func(ctx context.Context) tea.Msg, then ...tea.Cmd) tea.Cmd {
	cmd := func() tea.Msg {
		ctx, cancel := context.WithTimeout(a.ctx, timeout)
		defer cancel()
		return fn(ctx)
	}
	if len(then) == 0 {
		return cmd
	}
	return tea.Sequence(append([]tea.Cmd{cmd}, then...)...)
}

func (a App) View() string {
	var body string
	switch a.route {
	case RouteMessages:
		body = a.messages.View()
	case RouteSettings:
		body = a.settings.View()
	default:
		body = notFoundView(a.styles, a.path)
	}

	if pending, ok := a.state.NextVerification(); ok {
		body = a.verificationPrompt(pending)
	}
	return lipgloss.JoinVertical(lipgloss.Left, a.header(), body, a.footer())
}

func (a App) header() string {
	tabs := make([]string, 0, 2)
	for _, r := range []Route{RouteMessages, RouteSettings} {
		if r == a.route {
			tabs = append(tabs, a.styles.ActiveTab.Render(string(r)))
		} else {
			tabs = append(tabs, a.styles.Tab.Render(string(r)))
		}
	}
	identity := a.state.Identity()
	who := a.styles.Muted.Render(fmt.Sprintf("%s (%s)", identity.Username, identity.UUID))
	return lipgloss.JoinHorizontal(lipgloss.Top, a.styles.Header.Render("cryptochat "), strings.Join(tabs, ""), "  ", who)
}

func (a App) footer() string {
	if a.err != nil {
		return a.styles.Error.Render(a.err.Error())
	}
	hint := "ctrl+s settings · tab next room · ctrl+c quit"
	if a.status != "" {
		return a.status + a.styles.Muted.Render("  ·  "+hint)
	}
	return a.styles.Muted.Render(hint)
}

func (a App) verificationPrompt(v api.Verification) string {
	queued := a.state.PendingVerifications() - 1
	var sb strings.Builder
	sb.WriteString(a.styles.Title.Render("Verify peer"))
	sb.WriteString("\n\n")
	sb.WriteString("UUID         " + v.UUID.String() + "\n")
	sb.WriteString("Fingerprint  " + v.Fingerprint + "\n\n")
	sb.WriteString("Does this fingerprint match what the peer sees? [y/n]")
	if queued > 0 {
		sb.WriteString(a.styles.Muted.Render(fmt.Sprintf("\n%d more waiting", queued)))
	}
	modal := a.styles.Modal.Render(sb.String())
	if a.width == 0 || a.height == 0 {
		return modal
	}
	return lipgloss.Place(a.width, max(a.height-2, 1), lipgloss.Center, lipgloss.Center, modal)
}
