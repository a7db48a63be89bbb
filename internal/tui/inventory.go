package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sinditur/odonto/pkg/client"
	"github.com/sinditur/odonto/pkg/domain"
)

type inventoryLoadedMsg struct {
	gen     int
	items   []domain.InventoryItem
	doctors []domain.Doctor
	err     error
}

type movementsLoadedMsg struct {
	gen       int
	movements []domain.InventoryMovement
	err       error
}

type movementSavedMsg struct{ err error }

// identityMsg tells screens who is logged in. Inventory uses it to
// pre-select the doctor a withdrawal is attributed to.
type identityMsg struct {
	user *domain.Staff
}

type invMode int

const (
	invModeItems invMode = iota
	invModeForm
	invModeMovements
)

type movementField int

const (
	mfType movementField = iota
	mfQuantity
	mfDoctor
	mfNotes
)

type inventoryModel struct {
	client  *client.Client
	items   []domain.InventoryItem
	doctors []domain.Doctor
	me      *domain.Staff

	mode      invMode
	cursor    int
	movements []domain.InventoryMovement

	// movement form state
	formItem    *domain.InventoryItem
	formType    string
	formQty     string
	formNotes   string
	formDoctor  int // index into doctors, -1 = none
	formFocus   movementField
	formSaving  bool
	formErr     string

	gen       int
	loading   bool
	err       string
	statusMsg string
	width     int
	height    int
}

func newInventoryModel(c *client.Client) inventoryModel {
	return inventoryModel{client: c, loading: true, formDoctor: -1}
}

func (m inventoryModel) load(gen int) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		items, err := c.ListInventory(context.Background())
		if err != nil {
			return inventoryLoadedMsg{gen: gen, err: err}
		}
		doctors, err := c.ListDoctors(context.Background(), "")
		if err != nil {
			doctors = nil
		}
		return inventoryLoadedMsg{gen: gen, items: items, doctors: doctors}
	}
}

func (m inventoryModel) loadMovements(gen int, itemID string) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		movements, err := c.ListMovements(context.Background(), client.MovementFilter{ItemID: itemID})
		return movementsLoadedMsg{gen: gen, movements: movements, err: err}
	}
}

func (m inventoryModel) Init() tea.Cmd {
	return m.load(m.gen)
}

func (m inventoryModel) selected() *domain.InventoryItem {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return nil
	}
	return &m.items[m.cursor]
}

// openForm seeds the movement form for the selected item. A saida defaults
// its attribution to the doctor record matching the logged-in account.
func (m inventoryModel) openForm(item *domain.InventoryItem) inventoryModel {
	m.mode = invModeForm
	m.formItem = item
	m.formType = domain.MovementOut
	m.formQty = ""
	m.formNotes = ""
	m.formFocus = mfType
	m.formErr = ""
	m.formDoctor = -1
	if match := domain.MatchDoctor(m.me, m.doctors); match != nil {
		for i := range m.doctors {
			if m.doctors[i].ID == match.ID {
				m.formDoctor = i
				break
			}
		}
	}
	return m
}

func (m inventoryModel) submitMovement() tea.Cmd {
	c := m.client
	req := client.MovementRequest{
		ItemID: m.formItem.ID,
		Type:   m.formType,
		Notes:  m.formNotes,
	}
	req.Quantity, _ = strconv.Atoi(m.formQty)
	if m.formType == domain.MovementOut && m.formDoctor >= 0 && m.formDoctor < len(m.doctors) {
		req.DoctorID = m.doctors[m.formDoctor].ID
	}
	return func() tea.Msg {
		_, err := c.AddMovement(context.Background(), req)
		return movementSavedMsg{err: err}
	}
}

func (m inventoryModel) Update(msg tea.Msg) (inventoryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case identityMsg:
		m.me = msg.user
		return m, nil

	case inventoryLoadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = msg.err.Error()
		} else {
			m.items = msg.items
			if msg.doctors != nil {
				m.doctors = msg.doctors
			}
			m.err = ""
			if m.cursor >= len(m.items) {
				m.cursor = len(m.items) - 1
			}
			if m.cursor < 0 {
				m.cursor = 0
			}
		}
		return m, nil

	case movementsLoadedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		if msg.err != nil {
			m.statusMsg = errStyle.Render(msg.err.Error())
			m.mode = invModeItems
			return m, nil
		}
		m.movements = msg.movements
		m.mode = invModeMovements
		return m, nil

	case movementSavedMsg:
		m.formSaving = false
		if msg.err != nil {
			m.formErr = msg.err.Error()
			return m, nil
		}
		m.mode = invModeItems
		m.statusMsg = okStyle.Render("movimentacao registrada")
		m.loading = true
		m.gen++
		return m, m.load(m.gen)

	case tea.KeyMsg:
		switch m.mode {
		case invModeForm:
			return m.updateForm(msg)
		case invModeMovements:
			switch msg.String() {
			case "esc", "enter", "v":
				m.mode = invModeItems
			}
			return m, nil
		}

		switch msg.String() {
		case "j", "down":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "m", "enter":
			if sel := m.selected(); sel != nil {
				m.statusMsg = ""
				return m.openForm(sel), nil
			}
		case "v":
			if sel := m.selected(); sel != nil {
				m.gen++
				return m, m.loadMovements(m.gen, sel.ID)
			}
		case "r":
			m.loading = true
			m.statusMsg = ""
			m.gen++
			return m, m.load(m.gen)
		}
	}
	return m, nil
}

func (m inventoryModel) updateForm(msg tea.KeyMsg) (inventoryModel, tea.Cmd) {
	if m.formSaving {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		m.mode = invModeItems
		return m, nil
	case "tab", "down":
		m.formFocus = (m.formFocus + 1) % 4
		if m.formFocus == mfDoctor && m.formType != domain.MovementOut {
			m.formFocus++
		}
		return m, nil
	case "shift+tab", "up":
		if m.formFocus == 0 {
			m.formFocus = mfNotes
		} else {
			m.formFocus--
		}
		if m.formFocus == mfDoctor && m.formType != domain.MovementOut {
			m.formFocus--
		}
		return m, nil
	case "enter":
		qty, err := strconv.Atoi(m.formQty)
		if err != nil || qty <= 0 {
			m.formErr = "quantidade invalida"
			return m, nil
		}
		m.formSaving = true
		m.formErr = ""
		return m, m.submitMovement()
	}

	switch m.formFocus {
	case mfType:
		switch msg.String() {
		case "left", "right", "h", "l", " ":
			if m.formType == domain.MovementOut {
				m.formType = domain.MovementIn
			} else {
				m.formType = domain.MovementOut
			}
		}
	case mfQuantity:
		key := msg.String()
		if key == "backspace" || (len(key) == 1 && key >= "0" && key <= "9") {
			m.formQty = editRune(m.formQty, key)
		}
	case mfDoctor:
		switch msg.String() {
		case "left", "h":
			if m.formDoctor >= 0 {
				m.formDoctor--
			}
		case "right", "l":
			if m.formDoctor < len(m.doctors)-1 {
				m.formDoctor++
			}
		}
	case mfNotes:
		m.formNotes = editRune(m.formNotes, msg.String())
	}
	return m, nil
}

func (m inventoryModel) View() string {
	if m.loading && len(m.items) == 0 {
		return " " + dimStyle.Render("carregando estoque...")
	}
	if m.err != "" {
		return " " + errStyle.Render("erro: "+m.err)
	}

	switch m.mode {
	case invModeForm:
		return m.formView()
	case invModeMovements:
		return m.movementsView()
	}

	if len(m.items) == 0 {
		return " " + dimStyle.Render("nenhum item em estoque")
	}

	var sb strings.Builder
	low := 0
	for i := range m.items {
		if m.items[i].LowStock() {
			low++
		}
	}
	if low > 0 {
		sb.WriteString(" " + lowStockStyle.Render(fmt.Sprintf("⚠ %d item(ns) abaixo do minimo", low)) + "\n\n")
	} else {
		sb.WriteString("\n")
	}

	maxRows := m.height - 5
	if maxRows < 5 {
		maxRows = 10
	}
	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}

	for i := start; i < len(m.items) && i < start+maxRows; i++ {
		item := m.items[i]
		prefix := "  "
		nameStyle := normalStyle
		if i == m.cursor {
			prefix = accentStyle.Render("> ")
			nameStyle = selectedStyle
		}
		qty := fmt.Sprintf("%4d %s", item.Quantity, item.Unit)
		row := prefix + nameStyle.Render(fmt.Sprintf("%-28s", truncStr(item.Name, 28))) + "  "
		if item.LowStock() {
			row += lowStockStyle.Render(qty) + "  " + lowStockStyle.Render("baixo")
		} else {
			row += normalStyle.Render(qty)
		}
		if item.MinQuantity > 0 {
			row += "  " + metaStyle.Render(fmt.Sprintf("min %d", item.MinQuantity))
		}
		sb.WriteString(row + "\n")
	}

	if m.statusMsg != "" {
		sb.WriteString("\n " + m.statusMsg + "\n")
	}
	return sb.String()
}

func (m inventoryModel) formView() string {
	var sb strings.Builder
	sb.WriteString("\n  " + sectionHeaderStyle.Render("Movimentar: "+m.formItem.Name) + "\n\n")

	typeLabel := movementStyle(m.formType).Render(m.formType)
	if m.formFocus == mfType {
		typeLabel = accentStyle.Render("< ") + typeLabel + accentStyle.Render(" >")
	}
	sb.WriteString("  " + dimStyle.Render("tipo:") + "       " + typeLabel + "\n")

	sb.WriteString(renderField("quantidade:", m.formQty, "0", m.formFocus == mfQuantity, false, 0) + "\n")

	if m.formType == domain.MovementOut {
		doctorLabel := dimStyle.Render("nenhum")
		if m.formDoctor >= 0 && m.formDoctor < len(m.doctors) {
			doctorLabel = normalStyle.Render(m.doctors[m.formDoctor].Name)
		}
		if m.formFocus == mfDoctor {
			doctorLabel = accentStyle.Render("< ") + doctorLabel + accentStyle.Render(" >")
		}
		sb.WriteString("  " + dimStyle.Render("dentista:") + "   " + doctorLabel + "\n")
	}

	sb.WriteString(renderField("obs:       ", m.formNotes, "opcional", m.formFocus == mfNotes, false, 0) + "\n\n")

	switch {
	case m.formSaving:
		sb.WriteString("  " + dimStyle.Render("salvando...") + "\n")
	case m.formErr != "":
		sb.WriteString("  " + errStyle.Render(m.formErr) + "\n")
	}
	return sb.String()
}

func (m inventoryModel) movementsView() string {
	var sb strings.Builder
	sb.WriteString("\n  " + sectionHeaderStyle.Render("Movimentacoes") + "\n\n")
	if len(m.movements) == 0 {
		sb.WriteString("  " + dimStyle.Render("nenhuma movimentacao") + "\n")
		return sb.String()
	}
	for _, mv := range m.movements {
		who := mv.CreatedBy
		if mv.DoctorName != "" {
			who = mv.DoctorName
		}
		row := "  " + metaStyle.Render(formatTime(mv.CreatedAt)) + "  " +
			movementStyle(mv.Type).Render(fmt.Sprintf("%-7s", mv.Type)) + "  " +
			normalStyle.Render(fmt.Sprintf("%4d", mv.Quantity)) + "  " +
			normalStyle.Render(truncStr(mv.ItemName, 24))
		if who != "" {
			row += "  " + dimStyle.Render(truncStr(who, 22))
		}
		if mv.Notes != "" {
			row += "  " + metaStyle.Render(truncStr(mv.Notes, 24))
		}
		sb.WriteString(row + "\n")
	}
	return sb.String()
}
