package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sinditur/odonto/pkg/client"
	"github.com/sinditur/odonto/pkg/domain"
)

type teamLoadedMsg struct {
	gen     int
	staff   []domain.Staff
	doctors []domain.Doctor
	err     error
}

type staffToggledMsg struct{ err error }

type teamMode int

const (
	teamModeStaff teamMode = iota
	teamModeDoctors
)

type teamModel struct {
	client    *client.Client
	staff     []domain.Staff
	doctors   []domain.Doctor
	mode      teamMode
	cursor    int
	gen       int
	loading   bool
	err       string
	statusMsg string
	width     int
	height    int
}

func newTeamModel(c *client.Client) teamModel {
	return teamModel{client: c, loading: true}
}

func (m teamModel) load(gen int) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		staff, err := c.ListStaff(context.Background())
		if err != nil {
			return teamLoadedMsg{gen: gen, err: err}
		}
		doctors, err := c.ListDoctors(context.Background(), "")
		if err != nil {
			return teamLoadedMsg{gen: gen, err: err}
		}
		return teamLoadedMsg{gen: gen, staff: staff, doctors: doctors}
	}
}

func (m teamModel) Init() tea.Cmd {
	return m.load(m.gen)
}

func (m teamModel) toggleActive(s domain.Staff) tea.Cmd {
	c := m.client
	active := !s.Active
	return func() tea.Msg {
		_, err := c.UpdateStaff(context.Background(), s.ID, client.StaffRequest{Active: &active})
		return staffToggledMsg{err: err}
	}
}

func (m teamModel) Update(msg tea.Msg) (teamModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case teamLoadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err.Error()
		} else {
			m.staff = msg.staff
			m.doctors = msg.doctors
			m.err = ""
		}
		return m, nil

	case staffToggledMsg:
		if msg.err != nil {
			m.statusMsg = errStyle.Render(msg.err.Error())
			return m, nil
		}
		m.statusMsg = ""
		m.gen++
		return m, m.load(m.gen)

	case tea.KeyMsg:
		switch msg.String() {
		case "tab":
			if m.mode == teamModeStaff {
				m.mode = teamModeDoctors
			} else {
				m.mode = teamModeStaff
			}
			m.cursor = 0
		case "j", "down":
			if m.cursor < m.rows()-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "x":
			if m.mode == teamModeStaff && m.cursor < len(m.staff) {
				return m, m.toggleActive(m.staff[m.cursor])
			}
		case "r":
			m.loading = true
			m.gen++
			return m, m.load(m.gen)
		}
	}
	return m, nil
}

func (m teamModel) rows() int {
	if m.mode == teamModeStaff {
		return len(m.staff)
	}
	return len(m.doctors)
}

func (m teamModel) View() string {
	if m.loading && len(m.staff) == 0 && len(m.doctors) == 0 {
		return " " + dimStyle.Render("carregando equipe...")
	}
	if m.err != "" {
		return " " + errStyle.Render("erro: "+m.err)
	}

	var sb strings.Builder
	staffTab := dimStyle.Render("Usuarios")
	doctorsTab := dimStyle.Render("Dentistas")
	if m.mode == teamModeStaff {
		staffTab = selectedStyle.Underline(true).Render("Usuarios")
	} else {
		doctorsTab = selectedStyle.Underline(true).Render("Dentistas")
	}
	sb.WriteString(" " + staffTab + "   " + doctorsTab + "\n\n")

	if m.mode == teamModeStaff {
		if len(m.staff) == 0 {
			sb.WriteString(" " + dimStyle.Render("nenhum usuario"))
			return sb.String()
		}
		for i, s := range m.staff {
			prefix := "  "
			nameStyle := normalStyle
			if i == m.cursor {
				prefix = accentStyle.Render("> ")
				nameStyle = selectedStyle
			}
			row := prefix + nameStyle.Render(fmt.Sprintf("%-24s", truncStr(s.Name, 24))) + "  " +
				roleStyle(s.Role).Render(fmt.Sprintf("%-13s", s.Role)) + "  " +
				dimStyle.Render(s.Email)
			if !s.Active {
				row += "  " + errStyle.Render("inativo")
			}
			sb.WriteString(row + "\n")
		}
	} else {
		if len(m.doctors) == 0 {
			sb.WriteString(" " + dimStyle.Render("nenhum dentista"))
			return sb.String()
		}
		for i, d := range m.doctors {
			prefix := "  "
			nameStyle := normalStyle
			if i == m.cursor {
				prefix = accentStyle.Render("> ")
				nameStyle = selectedStyle
			}
			row := prefix + nameStyle.Render(fmt.Sprintf("%-24s", truncStr(d.Name, 24))) + "  " +
				accentStyle.Render(fmt.Sprintf("%-16s", truncStr(d.Specialty, 16)))
			if d.CRO != "" {
				row += "  " + dimStyle.Render(d.CRO)
			}
			if len(d.AvailableDays) > 0 {
				row += "  " + metaStyle.Render(strings.Join(d.AvailableDays, " "))
			}
			sb.WriteString(row + "\n")
		}
	}

	if m.statusMsg != "" {
		sb.WriteString("\n " + m.statusMsg + "\n")
	}
	return sb.String()
}
