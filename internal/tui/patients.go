package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sinditur/odonto/pkg/client"
	"github.com/sinditur/odonto/pkg/domain"
)

type patientsLoadedMsg struct {
	gen      int
	patients []domain.Patient
	err      error
}

type patientCardMsg struct {
	gen  int
	card *domain.PatientCard
	err  error
}

type copyDoneMsg struct{ err error }

type patientsModel struct {
	client    *client.Client
	patients  []domain.Patient
	card      *domain.PatientCard
	cursor    int
	search    string
	searching bool
	gen       int
	loading   bool
	err       string
	statusMsg string
	width     int
	height    int
}

func newPatientsModel(c *client.Client) patientsModel {
	return patientsModel{client: c, loading: true}
}

func (m patientsModel) load(gen int) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		patients, err := c.ListPatients(context.Background())
		return patientsLoadedMsg{gen: gen, patients: patients, err: err}
	}
}

func (m patientsModel) loadCard(gen int, id string) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		card, err := c.GetPatientCard(context.Background(), id)
		return patientCardMsg{gen: gen, card: card, err: err}
	}
}

func (m patientsModel) Init() tea.Cmd {
	return m.load(m.gen)
}

// visible applies the local name/CPF search to the loaded list.
func (m patientsModel) visible() []domain.Patient {
	if m.search == "" {
		return m.patients
	}
	needle := strings.ToLower(m.search)
	out := []domain.Patient{}
	for _, p := range m.patients {
		if strings.Contains(strings.ToLower(p.Name), needle) || strings.Contains(p.CPF, needle) {
			out = append(out, p)
		}
	}
	return out
}

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return copyDoneMsg{err: clipboard.WriteAll(text)}
	}
}

func (m patientsModel) Update(msg tea.Msg) (patientsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case refreshMsg:
		m.gen++
		return m, m.load(m.gen)

	case patientsLoadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err.Error()
		} else {
			m.patients = msg.patients
			m.err = ""
		}
		return m, nil

	case patientCardMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		if msg.err != nil {
			m.statusMsg = errStyle.Render(msg.err.Error())
			return m, nil
		}
		m.card = msg.card
		m.statusMsg = ""
		return m, nil

	case copyDoneMsg:
		if msg.err != nil {
			m.statusMsg = errStyle.Render("copia falhou: " + msg.err.Error())
		} else {
			m.statusMsg = okStyle.Render("copiado")
		}
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			switch msg.String() {
			case "enter", "esc":
				m.searching = false
				if msg.String() == "esc" {
					m.search = ""
				}
				m.cursor = 0
			default:
				m.search = editRune(m.search, msg.String())
				m.cursor = 0
			}
			return m, nil
		}

		if m.card != nil {
			switch msg.String() {
			case "esc", "enter":
				m.card = nil
				m.statusMsg = ""
			case "y":
				return m, copyCmd(m.card.Patient.CPF)
			case "p":
				if m.card.Patient.Phone != "" {
					return m, copyCmd(m.card.Patient.Phone)
				}
			}
			return m, nil
		}

		list := m.visible()
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(list)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "/":
			m.searching = true
			m.search = ""
		case "enter":
			if m.cursor >= 0 && m.cursor < len(list) {
				m.gen++
				return m, m.loadCard(m.gen, list[m.cursor].ID)
			}
		case "y":
			if m.cursor >= 0 && m.cursor < len(list) {
				return m, copyCmd(list[m.cursor].CPF)
			}
		case "r":
			m.loading = true
			m.gen++
			return m, m.load(m.gen)
		}
	}
	return m, nil
}

func (m patientsModel) View() string {
	if m.loading && len(m.patients) == 0 {
		return " " + dimStyle.Render("carregando pacientes...")
	}
	if m.err != "" {
		return " " + errStyle.Render("erro: "+m.err)
	}
	if m.card != nil {
		return m.cardView()
	}

	var sb strings.Builder
	if m.searching {
		sb.WriteString(" " + inputPromptStyle.Render("/ ") + selectedStyle.Render(m.search) + accentStyle.Render("█") + "\n\n")
	} else if m.search != "" {
		sb.WriteString(" " + dimStyle.Render("filtro: ") + selectedStyle.Render(m.search) + "\n\n")
	}

	list := m.visible()
	if len(list) == 0 {
		sb.WriteString(" " + dimStyle.Render("nenhum paciente"))
		return sb.String()
	}

	maxRows := m.height - 4
	if maxRows < 5 {
		maxRows = 10
	}
	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}

	for i := start; i < len(list) && i < start+maxRows; i++ {
		p := list[i]
		prefix := "  "
		nameStyle := normalStyle
		if i == m.cursor {
			prefix = accentStyle.Render("> ")
			nameStyle = selectedStyle
		}
		row := prefix + nameStyle.Render(fmt.Sprintf("%-30s", truncStr(p.Name, 30))) +
			"  " + dimStyle.Render(formatCPF(p.CPF))
		if p.Phone != "" {
			row += "  " + metaStyle.Render(p.Phone)
		}
		sb.WriteString(row + "\n")
	}

	if m.statusMsg != "" {
		sb.WriteString("\n " + m.statusMsg + "\n")
	}
	return sb.String()
}

func (m patientsModel) cardView() string {
	card := m.card
	p := card.Patient

	var sb strings.Builder
	sb.WriteString("\n  " + sectionHeaderStyle.Render("Paciente") + "\n\n")
	sb.WriteString("  " + dimStyle.Render("nome:") + "       " + selectedStyle.Render(p.Name) + "\n")
	sb.WriteString("  " + dimStyle.Render("cpf:") + "        " + normalStyle.Render(formatCPF(p.CPF)) + "\n")
	sb.WriteString("  " + dimStyle.Render("nascimento:") + " " + normalStyle.Render(p.BirthDate) + "\n")
	if p.Phone != "" {
		sb.WriteString("  " + dimStyle.Render("telefone:") + "   " + normalStyle.Render(p.Phone) + "\n")
	}
	if p.Address != "" {
		sb.WriteString("  " + dimStyle.Render("endereco:") + "   " + normalStyle.Render(p.Address) + "\n")
	}
	if p.Company != "" {
		sb.WriteString("  " + dimStyle.Render("empresa:") + "    " + normalStyle.Render(p.Company) + "\n")
	}

	writeList := func(title string, list []domain.Appointment) {
		sb.WriteString("\n  " + sectionHeaderStyle.Render(title) + "\n")
		if len(list) == 0 {
			sb.WriteString("   " + dimStyle.Render("nenhuma consulta") + "\n")
			return
		}
		for _, a := range list {
			sb.WriteString("   " + metaStyle.Render(a.Date+" "+a.Time) + "  " +
				statusStyle(a.Status).Render(fmt.Sprintf("%-9s", a.Status)) + "  " +
				normalStyle.Render(truncStr(a.ServiceName, 20)) + "  " +
				dimStyle.Render(truncStr(a.DoctorName, 22)) + "\n")
		}
	}
	writeList("Proximas", card.Upcoming)
	writeList("Historico", card.History)

	if m.statusMsg != "" {
		sb.WriteString("\n  " + m.statusMsg + "\n")
	}
	return sb.String()
}
