package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sinditur/odonto/pkg/client"
	"github.com/sinditur/odonto/pkg/domain"
)

// agendaPollInterval is the safety refresh for the appointment list; the
// usual trigger is a push event.
const agendaPollInterval = 60 * time.Second

type agendaTickMsg time.Time

func agendaTickCmd() tea.Cmd {
	return tea.Tick(agendaPollInterval, func(t time.Time) tea.Msg {
		return agendaTickMsg(t)
	})
}

// agendaLoadedMsg carries one load round-trip. gen pins the response to the
// request that produced it; a filter change mid-flight bumps the counter and
// the stale response is dropped.
type agendaLoadedMsg struct {
	gen          int
	appointments []domain.Appointment
	reminders    []domain.Reminder
	err          error
}

type agendaActionMsg struct {
	err error
}

// statusCycle is the order the s key walks the status filter through.
var statusCycle = []string{"", domain.StatusScheduled, domain.StatusCompleted, domain.StatusCancelled}

type agendaModel struct {
	client       *client.Client
	appointments []domain.Appointment
	reminders    []domain.Reminder
	cursor       int
	statusFilter string
	dateFilter   string
	editingDate  bool
	detail       bool
	completing   bool // typing the paid value for the selected appointment
	paidInput    string
	gen          int
	loading      bool
	err          string
	statusMsg    string
	width        int
	height       int
}

func newAgendaModel(c *client.Client) agendaModel {
	return agendaModel{client: c, loading: true}
}

// load fetches the list for the current filters. gen stamps the response so
// a reload started after a filter change wins over anything still in flight.
func (m agendaModel) load(gen int) tea.Cmd {
	c := m.client
	filter := client.AppointmentFilter{Status: m.statusFilter, Date: m.dateFilter}
	return func() tea.Msg {
		appointments, err := c.ListAppointments(context.Background(), filter)
		if err != nil {
			return agendaLoadedMsg{gen: gen, err: err}
		}
		reminders, err := c.Reminders(context.Background())
		if err != nil {
			// reminders are garnish, the list still renders
			reminders = nil
		}
		return agendaLoadedMsg{gen: gen, appointments: appointments, reminders: reminders}
	}
}

func (m agendaModel) Init() tea.Cmd {
	return m.load(m.gen)
}

func (m agendaModel) selected() *domain.Appointment {
	if m.cursor < 0 || m.cursor >= len(m.appointments) {
		return nil
	}
	return &m.appointments[m.cursor]
}

func (m agendaModel) updateStatus(id string, status string, paidValue *float64) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		update := client.AppointmentUpdate{Status: &status, PaidValue: paidValue}
		_, err := c.UpdateAppointment(context.Background(), id, update)
		return agendaActionMsg{err: err}
	}
}

func (m agendaModel) Update(msg tea.Msg) (agendaModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case agendaTickMsg:
		m.gen++
		return m, m.load(m.gen)

	case refreshMsg:
		m.gen++
		return m, m.load(m.gen)

	case agendaLoadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err.Error()
		} else {
			m.appointments = msg.appointments
			m.reminders = msg.reminders
			m.err = ""
			if m.cursor >= len(m.appointments) {
				m.cursor = len(m.appointments) - 1
			}
			if m.cursor < 0 {
				m.cursor = 0
			}
		}
		return m, agendaTickCmd()

	case agendaActionMsg:
		if msg.err != nil {
			m.statusMsg = errStyle.Render(msg.err.Error())
			return m, nil
		}
		m.statusMsg = ""
		m.gen++
		return m, m.load(m.gen)

	case tea.KeyMsg:
		if m.editingDate {
			switch msg.String() {
			case "enter":
				m.editingDate = false
				m.loading = true
				m.gen++
				return m, m.load(m.gen)
			case "esc":
				m.editingDate = false
				m.dateFilter = ""
				m.gen++
				return m, m.load(m.gen)
			default:
				m.dateFilter = editRune(m.dateFilter, msg.String())
			}
			return m, nil
		}

		if m.completing {
			switch msg.String() {
			case "enter":
				sel := m.selected()
				if sel == nil {
					m.completing = false
					return m, nil
				}
				var paid *float64
				if m.paidInput != "" {
					v, err := strconv.ParseFloat(strings.ReplaceAll(m.paidInput, ",", "."), 64)
					if err != nil {
						m.statusMsg = errStyle.Render("valor invalido")
						return m, nil
					}
					paid = &v
				} else if sel.ServicePrice > 0 {
					v := sel.ServicePrice
					paid = &v
				}
				m.completing = false
				m.paidInput = ""
				m.statusMsg = ""
				return m, m.updateStatus(sel.ID, domain.StatusCompleted, paid)
			case "esc":
				m.completing = false
				m.paidInput = ""
				m.statusMsg = ""
			default:
				m.paidInput = editRune(m.paidInput, msg.String())
			}
			return m, nil
		}

		if m.detail {
			switch msg.String() {
			case "esc", "enter":
				m.detail = false
			case "c":
				m.detail = false
				m.completing = true
			case "x":
				if sel := m.selected(); sel != nil {
					m.detail = false
					return m, m.updateStatus(sel.ID, domain.StatusCancelled, nil)
				}
			}
			return m, nil
		}

		switch msg.String() {
		case "j", "down":
			if m.cursor < len(m.appointments)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "enter":
			if m.selected() != nil {
				m.detail = true
			}
		case "s":
			for i, s := range statusCycle {
				if s == m.statusFilter {
					m.statusFilter = statusCycle[(i+1)%len(statusCycle)]
					break
				}
			}
			m.loading = true
			m.gen++
			return m, m.load(m.gen)
		case "t":
			if m.dateFilter == "" {
				m.dateFilter = time.Now().Format("02/01/2006")
			} else {
				m.dateFilter = ""
			}
			m.loading = true
			m.gen++
			return m, m.load(m.gen)
		case "d":
			m.editingDate = true
			m.dateFilter = ""
		case "c":
			if sel := m.selected(); sel != nil && sel.Status == domain.StatusScheduled {
				m.completing = true
				m.paidInput = ""
			}
		case "x":
			if sel := m.selected(); sel != nil && sel.Status == domain.StatusScheduled {
				return m, m.updateStatus(sel.ID, domain.StatusCancelled, nil)
			}
		case "r":
			m.loading = true
			m.gen++
			return m, m.load(m.gen)
		}
	}
	return m, nil
}

func (m agendaModel) filterLine() string {
	status := "todos"
	if m.statusFilter != "" {
		status = m.statusFilter
	}
	line := " " + dimStyle.Render("status:") + " " + statusStyle(m.statusFilter).Render(status)
	if m.editingDate {
		line += "   " + dimStyle.Render("data:") + " " + accentStyle.Render(m.dateFilter+"█")
	} else if m.dateFilter != "" {
		line += "   " + dimStyle.Render("data:") + " " + selectedStyle.Render(m.dateFilter)
	} else {
		line += "   " + dimStyle.Render("data: todas")
	}
	return line
}

func (m agendaModel) View() string {
	if m.loading && len(m.appointments) == 0 {
		return " " + dimStyle.Render("carregando agenda...")
	}
	if m.err != "" {
		return " " + errStyle.Render("erro: "+m.err)
	}

	if m.detail {
		return m.detailView()
	}

	var sb strings.Builder
	sb.WriteString(m.filterLine() + "\n")

	if len(m.reminders) > 0 {
		sb.WriteString(" " + warnStyle.Render(fmt.Sprintf("⏰ %d consulta(s) nas proximas 24h", len(m.reminders))) + "\n")
	}
	sb.WriteString("\n")

	if len(m.appointments) == 0 {
		sb.WriteString(" " + dimStyle.Render("nenhum agendamento"))
		return sb.String()
	}

	maxRows := m.height - 6
	if maxRows < 5 {
		maxRows = 10
	}
	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}

	for i := start; i < len(m.appointments) && i < start+maxRows; i++ {
		a := m.appointments[i]
		prefix := "  "
		nameStyle := normalStyle
		if i == m.cursor {
			prefix = accentStyle.Render("> ")
			nameStyle = selectedStyle
		}
		row := prefix +
			metaStyle.Render(a.Date+" "+a.Time) + "  " +
			statusStyle(a.Status).Render(fmt.Sprintf("%-9s", a.Status)) + "  " +
			nameStyle.Render(truncStr(a.UserName, 24)) + "  " +
			dimStyle.Render(truncStr(a.ServiceName, 18)) + "  " +
			dimStyle.Render(truncStr(a.DoctorName, 20))
		if a.PaidValue > 0 {
			row += "  " + moneyStyle.Render(formatMoney(a.PaidValue))
		}
		sb.WriteString(row + "\n")
	}

	if m.completing {
		sel := m.selected()
		hint := ""
		if sel != nil && sel.ServicePrice > 0 {
			hint = " (vazio = " + formatMoney(sel.ServicePrice) + ")"
		}
		sb.WriteString("\n " + inputPromptStyle.Render("valor pago"+hint+": ") + selectedStyle.Render(m.paidInput) + accentStyle.Render("█") + "\n")
	}
	if m.statusMsg != "" {
		sb.WriteString("\n " + m.statusMsg + "\n")
	}
	return sb.String()
}

func (m agendaModel) detailView() string {
	a := m.selected()
	if a == nil {
		return " " + dimStyle.Render("nenhum agendamento selecionado")
	}

	var sb strings.Builder
	sb.WriteString("\n  " + sectionHeaderStyle.Render("Consulta") + "\n\n")
	sb.WriteString("  " + dimStyle.Render("paciente:") + " " + selectedStyle.Render(a.UserName) + "\n")
	if a.UserCPF != "" {
		sb.WriteString("  " + dimStyle.Render("cpf:") + "      " + normalStyle.Render(formatCPF(a.UserCPF)) + "\n")
	}
	sb.WriteString("  " + dimStyle.Render("quando:") + "   " + normalStyle.Render(a.Date+" as "+a.Time) + "\n")
	sb.WriteString("  " + dimStyle.Render("status:") + "   " + statusStyle(a.Status).Render(a.Status) + "\n")
	sb.WriteString("  " + dimStyle.Render("servico:") + "  " + normalStyle.Render(a.ServiceName))
	if a.ServicePrice > 0 {
		sb.WriteString(" " + moneyStyle.Render(formatMoney(a.ServicePrice)))
	}
	sb.WriteString("\n")
	sb.WriteString("  " + dimStyle.Render("dentista:") + " " + normalStyle.Render(a.DoctorName) + "\n")
	sb.WriteString("  " + dimStyle.Render("unidade:") + "  " + normalStyle.Render(a.UnitName) + "\n")
	if a.PaidValue > 0 {
		sb.WriteString("  " + dimStyle.Render("pago:") + "     " + moneyStyle.Render(formatMoney(a.PaidValue)) + "\n")
	}
	if a.Notes != "" {
		sb.WriteString("\n  " + dimStyle.Render("obs:") + " " + normalStyle.Render(a.Notes) + "\n")
	}
	return sb.String()
}
