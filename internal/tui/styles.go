package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sinditur/odonto/pkg/domain"
)

// Shimmer animation for the ODONTO logo.
type shimmerTickMsg time.Time

func shimmerTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return shimmerTickMsg(t)
	})
}

// renderShimmerLogo renders "O D O N T O" as a flowing wave of teal light.
// Deep sea teal (#0f3a38) -> bright aqua (#2dd4bf). No hue drift.
func renderShimmerLogo(frame int) string {
	const text = "ODONTO"
	n := len(text)

	var out string

	t := float64(frame)

	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)

		// Flowing phase: one smooth wave advancing through the text
		phase := t*0.1 - x*3.0

		// Gentle speed modulation
		phase += math.Sin(t*0.023) * 2.0

		b := math.Sin(phase)*0.5 + 0.5
		b = math.Pow(b, 1.3)

		// Slow breathing tide
		tide := math.Sin(t*0.035) * 0.12
		b = b*0.75 + tide + 0.18

		if b > 1.0 {
			b = 1.0
		} else if b < 0.05 {
			b = 0.05
		}

		// Continuous RGB interpolation: deep sea teal -> bright aqua
		// Deep:   (15, 58, 56)   #0f3a38
		// Bright: (45, 212, 191) #2dd4bf
		r := clampByte(15 + b*(45-15))
		g := clampByte(58 + b*(212-58))
		bl := clampByte(56 + b*(191-56))

		color := fmt.Sprintf("#%02X%02X%02X", r, g, bl)

		s := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(color))
		out += s.Render(string(text[i]))

		if i < n-1 {
			out += "  "
		}
	}

	return out
}

func clampByte(v float64) int {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

var (
	// Base styles: neutral panel palette
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#2dd4bf")).
			Bold(true)

	// Help bar
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	// Outcome colors
	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#4ade80"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#facc15"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f87171"))

	// Connection indicator in the header
	liveDotStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ade80"))

	offlineDotStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f87171"))

	// Notification bell and toast bar
	bellStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#facc15")).
			Bold(true)

	toastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0b1514")).
			Background(lipgloss.Color("#2dd4bf")).
			Bold(true)

	// Money column in agenda/finance
	moneyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ade80")).
			Bold(true)

	// Low stock marker
	lowStockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f87171")).
			Bold(true)

	// Form inputs
	inputPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#2dd4bf")).
				Bold(true)

	inputPlaceholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#3a4150")).
				Italic(true)

	sectionHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#8890a0")).
				Bold(true)
)

// statusStyle returns the colored style for an appointment status.
func statusStyle(status string) lipgloss.Style {
	switch status {
	case domain.StatusScheduled:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#60a5fa")).Bold(true)
	case domain.StatusCompleted:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#4ade80")).Bold(true)
	case domain.StatusCancelled:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#f87171")).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#8890a0")).Bold(true)
}

// movementStyle colors entrada green and saida red.
func movementStyle(kind string) lipgloss.Style {
	if kind == domain.MovementIn {
		return okStyle
	}
	return errStyle
}

// roleStyle returns a colored style per staff role.
func roleStyle(role string) lipgloss.Style {
	switch role {
	case domain.RoleAdmin:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#facc15")).Bold(true)
	case domain.RoleManager:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#60a5fa")).Bold(true)
	case domain.RoleDoctor:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#2dd4bf")).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#8890a0")).Bold(true)
}

// helpEntry renders a single "key label" pair for help bars.
func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}

// helpView renders the static help overlay.
func helpView() string {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#2dd4bf")).
		Bold(true).
		Render("O D O N T O")

	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render("painel da clinica no terminal")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sectionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)

	commands := []struct{ cmd, desc string }{
		{"odonto", "Abrir o painel (TUI)"},
		{"odonto login", "Entrar com email e senha"},
		{"odonto logout", "Encerrar a sessao"},
		{"odonto --version", "Mostrar versao"},
	}

	keys := []struct{ key, desc string }{
		{"1-5", "trocar de aba"},
		{"f", "notificacoes"},
		{"j/k", "navegar listas"},
		{"enter", "abrir detalhe"},
		{"r", "recarregar a aba"},
		{"h", "esta ajuda"},
		{"q", "sair"},
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s\n\n  %s\n\n", title, subtitle)

	fmt.Fprintf(&b, "  %s\n", sectionStyle.Render("Comandos"))
	for _, c := range commands {
		fmt.Fprintf(&b, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-20s", c.cmd)), descStyle.Render(c.desc))
	}

	fmt.Fprintf(&b, "\n  %s\n", sectionStyle.Render("Teclas"))
	for _, k := range keys {
		fmt.Fprintf(&b, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-20s", k.key)), descStyle.Render(k.desc))
	}
	return b.String()
}
