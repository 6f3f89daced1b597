package tui

import (
	"cryptochat/domain"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// SettingsViewModel shows the node identity and edits the username
type SettingsViewModel struct {
	styles   Styles
	identity domain.Identity
	input    textinput.Model
}

func NewSettingsViewModel(styles Styles) SettingsViewModel {
	input := textinput.New()
	input.Placeholder = "Username"
	input.CharLimit = 64
	return SettingsViewModel{styles: styles, input: input}
}

// SetIdentity refreshes the displayed identity and resets the username field to it
func (m *SettingsViewModel) SetIdentity(identity domain.Identity) {
	m.identity = identity
	m.input.SetValue(identity.Username)
}

func (m *SettingsViewModel) Focus() tea.Cmd { return m.input.Focus() }

func (m *SettingsViewModel) Blur() { m.input.Blur() }

func (m SettingsViewModel) Update(msg tea.Msg) (SettingsViewModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			username := strings.TrimSpace(m.input.Value())
			if username == "" || username == m.identity.Username {
				return m, nil
			}
			return m, emit(setUsernameMsg{username: username})
		case tea.KeyEsc:
			return m, emit(navigateMsg{path: string(RouteMessages)})
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m SettingsViewModel) View() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("Your UUID"))
	sb.WriteString("\n")
	sb.WriteString(m.identity.UUID.String())
	sb.WriteString("\n\n")
	sb.WriteString(m.styles.Title.Render("Your fingerprint"))
	sb.WriteString("\n")
	sb.WriteString(m.identity.Fingerprint)
	sb.WriteString("\n\n")
	sb.WriteString(m.styles.Title.Render("Username"))
	sb.WriteString("\n")
	sb.WriteString(m.input.View())
	sb.WriteString("\n\n")
	sb.WriteString(m.styles.Muted.Render("enter to save, esc to go back"))
	return sb.String()
}

func notFoundView(styles Styles, path string) string {
	return styles.Title.Render("Not Found") + "\n\n" +
		"Couldn't find a matching view for " + path + ", sorry.\n\n" +
		`¯\_(ツ)_/¯` + "\n\n" +
		styles.Muted.Render("esc to go back to /messages")
}
