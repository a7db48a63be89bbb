package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sinditur/odonto/pkg/client"
	"github.com/sinditur/odonto/pkg/domain"
)

type loginField int

const (
	fieldEmail loginField = iota
	fieldPassword
)

// loginDoneMsg carries the outcome of a login attempt. On success the root
// model persists the session and swaps to the main screens.
type loginDoneMsg struct {
	token string
	user  *domain.Staff
	err   error
}

type loginModel struct {
	client     *client.Client
	email      string
	password   string
	focus      loginField
	submitting bool
	err        string
	width      int
	height     int
}

func newLoginModel(c *client.Client) loginModel {
	return loginModel{client: c}
}

func (m loginModel) Init() tea.Cmd {
	return nil
}

func (m loginModel) submit() tea.Cmd {
	c := m.client
	email, password := m.email, m.password
	return func() tea.Msg {
		result, err := c.StaffLogin(context.Background(), email, password)
		if err != nil {
			return loginDoneMsg{err: err}
		}
		return loginDoneMsg{token: result.AccessToken, user: &result.User}
	}
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case loginDoneMsg:
		m.submitting = false
		if msg.err != nil {
			m.err = msg.err.Error()
			m.password = ""
			m.focus = fieldPassword
		}
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			if m.focus == fieldEmail {
				m.focus = fieldPassword
			} else {
				m.focus = fieldEmail
			}
		case "up", "shift+tab":
			if m.focus == fieldPassword {
				m.focus = fieldEmail
			} else {
				m.focus = fieldPassword
			}
		case "enter":
			if m.focus == fieldEmail {
				m.focus = fieldPassword
				return m, nil
			}
			if m.email == "" || m.password == "" {
				m.err = "informe email e senha"
				return m, nil
			}
			m.submitting = true
			m.err = ""
			return m, m.submit()
		default:
			switch m.focus {
			case fieldEmail:
				m.email = editRune(m.email, msg.String())
			case fieldPassword:
				m.password = editRune(m.password, msg.String())
			}
		}
	}
	return m, nil
}

func (m loginModel) View() string {
	out := "\n  " + sectionHeaderStyle.Render("Entrar no painel") + "\n\n"
	out += renderField("email", m.email, "voce@odonto.com", m.focus == fieldEmail && !m.submitting, false, 0) + "\n"
	out += renderField("senha", m.password, "********", m.focus == fieldPassword && !m.submitting, true, 0) + "\n\n"

	switch {
	case m.submitting:
		out += "  " + dimStyle.Render("autenticando...") + "\n"
	case m.err != "":
		out += "  " + errStyle.Render(m.err) + "\n"
	}
	return out
}
