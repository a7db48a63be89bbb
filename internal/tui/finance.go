package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sinditur/odonto/pkg/client"
	"github.com/sinditur/odonto/pkg/domain"
)

type financeLoadedMsg struct {
	gen     int
	summary *domain.FinancialSummary
	err     error
}

type dailyLoadedMsg struct {
	gen   int
	daily *domain.DailyFinancial
	err   error
}

var monthNames = []string{
	"janeiro", "fevereiro", "marco", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

type financeModel struct {
	client  *client.Client
	summary *domain.FinancialSummary
	daily   *domain.DailyFinancial
	month   int
	year    int
	gen     int
	loading bool
	err     string
	width   int
	height  int
}

func newFinanceModel(c *client.Client) financeModel {
	now := time.Now()
	return financeModel{
		client:  c,
		month:   int(now.Month()),
		year:    now.Year(),
		loading: true,
	}
}

func (m financeModel) load(gen int) tea.Cmd {
	c := m.client
	month, year := m.month, m.year
	return func() tea.Msg {
		summary, err := c.FinancialSummary(context.Background(), month, year, "")
		return financeLoadedMsg{gen: gen, summary: summary, err: err}
	}
}

func (m financeModel) loadDaily(gen int) tea.Cmd {
	c := m.client
	date := time.Now().Format("02/01/2006")
	return func() tea.Msg {
		daily, err := c.FinancialDaily(context.Background(), date)
		return dailyLoadedMsg{gen: gen, daily: daily, err: err}
	}
}

func (m financeModel) Init() tea.Cmd {
	return m.load(m.gen)
}

func (m financeModel) Update(msg tea.Msg) (financeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case financeLoadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err.Error()
		} else {
			m.summary = msg.summary
			m.err = ""
		}
		return m, nil

	case dailyLoadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.daily = msg.daily
		return m, nil

	case tea.KeyMsg:
		if m.daily != nil {
			switch msg.String() {
			case "esc", "enter", "d":
				m.daily = nil
			}
			return m, nil
		}
		switch msg.String() {
		case "h", "left":
			m.month--
			if m.month < 1 {
				m.month = 12
				m.year--
			}
			m.loading = true
			m.gen++
			return m, m.load(m.gen)
		case "l", "right":
			m.month++
			if m.month > 12 {
				m.month = 1
				m.year++
			}
			m.loading = true
			m.gen++
			return m, m.load(m.gen)
		case "d":
			m.gen++
			return m, m.loadDaily(m.gen)
		case "r":
			m.loading = true
			m.gen++
			return m, m.load(m.gen)
		}
	}
	return m, nil
}

func (m financeModel) View() string {
	if m.loading && m.summary == nil {
		return " " + dimStyle.Render("carregando financeiro...")
	}
	if m.err != "" {
		return " " + errStyle.Render("erro: "+m.err)
	}
	if m.daily != nil {
		return m.dailyView()
	}
	if m.summary == nil {
		return " " + dimStyle.Render("sem dados")
	}

	s := m.summary
	monthName := ""
	if m.month >= 1 && m.month <= 12 {
		monthName = monthNames[m.month-1]
	}

	var sb strings.Builder
	sb.WriteString("\n  " + accentStyle.Render("< ") + sectionHeaderStyle.Render(fmt.Sprintf("%s %d", monthName, m.year)) + accentStyle.Render(" >") + "\n\n")
	sb.WriteString("  " + dimStyle.Render("faturamento:") + "   " + moneyStyle.Render(formatMoney(s.TotalRevenue)) + "\n")
	sb.WriteString("  " + dimStyle.Render("atendimentos:") + "  " + normalStyle.Render(fmt.Sprintf("%d", s.TotalAppointments)) + "\n")
	sb.WriteString("  " + dimStyle.Render("ticket medio:") + "  " + normalStyle.Render(formatMoney(s.AverageTicket)) + "\n")

	if len(s.ClinicBreakdown) > 0 {
		sb.WriteString("\n  " + sectionHeaderStyle.Render("Por unidade") + "\n")
		for _, u := range s.ClinicBreakdown {
			sb.WriteString("   " + normalStyle.Render(fmt.Sprintf("%-24s", truncStr(u.UnitName, 24))) + "  " +
				moneyStyle.Render(formatMoney(u.TotalRevenue)) + "  " +
				dimStyle.Render(fmt.Sprintf("%d atendimento(s)", u.TotalAppointments)) + "\n")
		}
	}
	return sb.String()
}

func (m financeModel) dailyView() string {
	d := m.daily
	var sb strings.Builder
	sb.WriteString("\n  " + sectionHeaderStyle.Render("Caixa de "+d.Date) + "\n\n")
	sb.WriteString("  " + dimStyle.Render("total:") + " " + moneyStyle.Render(formatMoney(d.TotalRevenue)) + "\n")
	if len(d.Appointments) == 0 {
		sb.WriteString("\n  " + dimStyle.Render("nenhuma consulta concluida hoje") + "\n")
		return sb.String()
	}
	sb.WriteString("\n")
	for _, a := range d.Appointments {
		value := a.PaidValue
		if value == 0 {
			value = a.ServicePrice
		}
		sb.WriteString("   " + metaStyle.Render(a.Time) + "  " +
			normalStyle.Render(fmt.Sprintf("%-24s", truncStr(a.UserName, 24))) + "  " +
			dimStyle.Render(fmt.Sprintf("%-18s", truncStr(a.ServiceName, 18))) + "  " +
			moneyStyle.Render(formatMoney(value)) + "\n")
	}
	return sb.String()
}
