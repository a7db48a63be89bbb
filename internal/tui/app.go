package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/sinditur/odonto/pkg/client"
	"github.com/sinditur/odonto/pkg/domain"
	"github.com/sinditur/odonto/pkg/feed"
	"github.com/sinditur/odonto/pkg/realtime"
	"github.com/sinditur/odonto/pkg/session"
)

type gate int

const (
	gateUnknown gate = iota
	gateLogin
	gateMain
)

type view int

const (
	viewAgenda view = iota
	viewPatients
	viewInventory
	viewTeam
	viewFinance
)

// sessionResolvedMsg is the startup credential check. Until it arrives the
// app shows the splash; afterwards it is either the login screen or the
// panel.
type sessionResolvedMsg struct {
	state session.State
}

// eventMsg wraps one push event pulled off the channel buffer.
type eventMsg struct {
	event domain.Event
}

// refreshMsg tells a screen to reload its data now.
type refreshMsg struct{}

type connTickMsg struct{}

type toastClearMsg struct{}

// connPollInterval is how often the header's connection dot re-checks the
// push channel.
const connPollInterval = 2 * time.Second

// toastTTL is how long an event toast stays on screen.
const toastTTL = 4 * time.Second

// App is the root Bubbletea model.
type App struct {
	apiURL string
	wsURL  string
	store  *session.Store
	log    logrus.FieldLogger

	client *client.Client
	rt     *realtime.Client
	events chan domain.Event

	gate      gate
	view      view
	login     loginModel
	agenda    agendaModel
	patients  patientsModel
	inventory inventoryModel
	team      teamModel
	finance   financeModel

	feed     *feed.Feed
	feedOpen bool
	helpOpen bool

	me        *domain.Staff
	connected bool
	toast     string

	dirtyAgenda   bool
	dirtyPatients bool

	width  int
	height int
	frame  int // logo shimmer animation frame
}

// NewApp creates the root model. The API client and push channel are built
// once credentials resolve.
func NewApp(apiURL, wsURL string, store *session.Store, log logrus.FieldLogger) App {
	return App{
		apiURL: apiURL,
		wsURL:  wsURL,
		store:  store,
		log:    log,
		feed:   feed.New(),
		events: make(chan domain.Event, 64),
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(shimmerTickCmd(), a.resolveSession())
}

func (a App) resolveSession() tea.Cmd {
	store := a.store
	return func() tea.Msg {
		return sessionResolvedMsg{state: store.Load()}
	}
}

// enterPanel builds the authenticated client, the push channel and the
// screens. Called on startup with stored credentials and again after login.
func (a App) enterPanel() (App, tea.Cmd) {
	a.gate = gateMain
	a.view = viewAgenda
	a.me = a.store.User()
	a.client = client.New(a.apiURL, a.store.Token())
	a.agenda = newAgendaModel(a.client)
	a.patients = newPatientsModel(a.client)
	a.inventory = newInventoryModel(a.client)
	a.team = newTeamModel(a.client)
	a.finance = newFinanceModel(a.client)

	a.rt = realtime.New(a.wsURL, a.store.Token(), a.log)
	events := a.events
	for _, name := range domain.AdminEvents {
		name := name
		a.rt.Subscribe(name, func(e domain.Event) {
			select {
			case events <- e:
			default:
				// feed consumer is behind, drop rather than block the read loop
			}
		})
	}
	rt := a.rt
	connect := func() tea.Msg {
		if err := rt.Connect(context.Background()); err != nil {
			return connTickMsg{}
		}
		return connTickMsg{}
	}

	cmds := []tea.Cmd{
		a.agenda.Init(),
		a.waitForEvent(),
		connect,
		connTickCmd(),
	}
	a.inventory, _ = a.inventory.Update(identityMsg{user: a.me})
	return a, tea.Batch(cmds...)
}

func (a App) waitForEvent() tea.Cmd {
	events := a.events
	return func() tea.Msg {
		return eventMsg{event: <-events}
	}
}

func connTickCmd() tea.Cmd {
	return tea.Tick(connPollInterval, func(t time.Time) tea.Msg {
		return connTickMsg{}
	})
}

func toastClearCmd() tea.Cmd {
	return tea.Tick(toastTTL, func(t time.Time) tea.Msg {
		return toastClearMsg{}
	})
}

func ringBell() tea.Cmd {
	return tea.Printf("\a")
}

// eventMessage renders a feed/toast line for a push event.
func eventMessage(e domain.Event) string {
	switch e.Type {
	case domain.EventNewAppointment:
		msg := "Novo agendamento: " + e.Subject()
		if e.Date != "" {
			msg += " em " + e.Date
			if e.Time != "" {
				msg += " as " + e.Time
			}
		}
		return msg
	case domain.EventNewPatient:
		return "Novo paciente: " + e.Subject()
	case domain.EventAppointmentCancelled:
		return "Consulta cancelada: " + e.Subject()
	case domain.EventAppointmentUpdated:
		msg := "Consulta atualizada: " + e.Subject()
		if e.Status != "" {
			msg += " (" + e.Status + ")"
		}
		return msg
	}
	return e.Type
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + tabs(1) + toast(1) + help(1) = 5 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 5}
		a.login, _ = a.login.Update(bodyMsg)
		a.agenda, _ = a.agenda.Update(bodyMsg)
		a.patients, _ = a.patients.Update(bodyMsg)
		a.inventory, _ = a.inventory.Update(bodyMsg)
		a.team, _ = a.team.Update(bodyMsg)
		a.finance, _ = a.finance.Update(bodyMsg)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case sessionResolvedMsg:
		if msg.state == session.StateAuthenticated {
			return a.enterPanel()
		}
		a.gate = gateLogin
		a.login = newLoginModel(client.New(a.apiURL, ""))
		return a, nil

	case loginDoneMsg:
		if msg.err == nil && msg.user != nil {
			if err := a.store.Login(msg.token, msg.user); err != nil {
				a.log.WithError(err).Warn("failed to persist session")
			}
			return a.enterPanel()
		}
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		return a, cmd

	case eventMsg:
		entry := a.feed.Add(msg.event.Type, eventMessage(msg.event))
		a.toast = entry.Message
		cmds := []tea.Cmd{a.waitForEvent(), toastClearCmd(), ringBell()}

		// appointment events invalidate the agenda; new patients the roster
		switch msg.event.Type {
		case domain.EventNewPatient:
			if a.gate == gateMain && a.view == viewPatients {
				var cmd tea.Cmd
				a.patients, cmd = a.patients.Update(refreshMsg{})
				cmds = append(cmds, cmd)
			} else {
				a.dirtyPatients = true
			}
		default:
			if a.gate == gateMain && a.view == viewAgenda {
				var cmd tea.Cmd
				a.agenda, cmd = a.agenda.Update(refreshMsg{})
				cmds = append(cmds, cmd)
			} else {
				a.dirtyAgenda = true
			}
		}
		return a, tea.Batch(cmds...)

	case toastClearMsg:
		a.toast = ""
		return a, nil

	case connTickMsg:
		if a.rt != nil {
			a.connected = a.rt.IsConnected()
		}
		return a, connTickCmd()
	}

	// Mid-session credential rejection sends the panel back to login.
	if err := loadError(msg); err != nil && client.IsStatus(err, 401) && a.gate == gateMain {
		a.store.Invalidate()
		if a.rt != nil {
			a.rt.Disconnect()
			a.rt = nil
		}
		a.gate = gateLogin
		a.login = newLoginModel(client.New(a.apiURL, ""))
		return a, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		return a.handleKey(key, msg)
	}

	return a.route(msg)
}

// loadError extracts the error from screen load messages so the root model
// can spot a 401 before the screen swallows it into display text.
func loadError(msg tea.Msg) error {
	switch msg := msg.(type) {
	case agendaLoadedMsg:
		return msg.err
	case patientsLoadedMsg:
		return msg.err
	case patientCardMsg:
		return msg.err
	case inventoryLoadedMsg:
		return msg.err
	case movementsLoadedMsg:
		return msg.err
	case teamLoadedMsg:
		return msg.err
	case financeLoadedMsg:
		return msg.err
	case dailyLoadedMsg:
		return msg.err
	}
	return nil
}

func (a App) handleKey(key tea.KeyMsg, msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.gate == gateLogin {
		if key.String() == "ctrl+c" {
			return a, tea.Quit
		}
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(key)
		return a, cmd
	}
	if a.gate == gateUnknown {
		if key.String() == "q" || key.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a, nil
	}

	if a.helpOpen {
		switch key.String() {
		case "h", "esc", "q":
			a.helpOpen = false
		case "ctrl+c":
			return a, tea.Quit
		}
		return a, nil
	}

	if a.feedOpen {
		switch key.String() {
		case "f", "esc", "q":
			a.feedOpen = false
		case "x":
			a.feed.Clear()
		case "ctrl+c":
			return a, tea.Quit
		}
		return a, nil
	}

	if !a.isEditing() {
		switch key.String() {
		case "q", "ctrl+c":
			if a.rt != nil {
				a.rt.Disconnect()
			}
			return a, tea.Quit
		case "h":
			// finance steps the month with h/l, so the overlay
			// yields there
			if a.view == viewFinance {
				return a.route(msg)
			}
			a.helpOpen = true
			return a, nil
		case "f":
			a.feedOpen = true
			a.feed.MarkAllRead()
			return a, nil
		case "1":
			return a.switchView(viewAgenda)
		case "2":
			return a.switchView(viewPatients)
		case "3":
			return a.switchView(viewInventory)
		case "4":
			return a.switchView(viewTeam)
		case "5":
			return a.switchView(viewFinance)
		}
	} else if key.String() == "ctrl+c" {
		if a.rt != nil {
			a.rt.Disconnect()
		}
		return a, tea.Quit
	}

	return a.route(msg)
}

func (a App) switchView(v view) (tea.Model, tea.Cmd) {
	if a.view == v {
		return a, nil
	}
	a.view = v
	switch v {
	case viewAgenda:
		if a.dirtyAgenda {
			a.dirtyAgenda = false
			var cmd tea.Cmd
			a.agenda, cmd = a.agenda.Update(refreshMsg{})
			return a, cmd
		}
		return a, a.agenda.Init()
	case viewPatients:
		if a.dirtyPatients {
			a.dirtyPatients = false
			var cmd tea.Cmd
			a.patients, cmd = a.patients.Update(refreshMsg{})
			return a, cmd
		}
		return a, a.patients.Init()
	case viewInventory:
		return a, a.inventory.Init()
	case viewTeam:
		return a, a.team.Init()
	case viewFinance:
		return a, a.finance.Init()
	}
	return a, nil
}

// route forwards a message to whichever screen owns it.
func (a App) route(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.gate == gateLogin {
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		return a, cmd
	}
	if a.gate != gateMain {
		return a, nil
	}

	var cmd tea.Cmd
	switch msg.(type) {
	case agendaLoadedMsg, agendaActionMsg, agendaTickMsg:
		a.agenda, cmd = a.agenda.Update(msg)
		return a, cmd
	case patientsLoadedMsg, patientCardMsg, copyDoneMsg:
		a.patients, cmd = a.patients.Update(msg)
		return a, cmd
	case inventoryLoadedMsg, movementsLoadedMsg, movementSavedMsg:
		a.inventory, cmd = a.inventory.Update(msg)
		return a, cmd
	case teamLoadedMsg, staffToggledMsg:
		a.team, cmd = a.team.Update(msg)
		return a, cmd
	case financeLoadedMsg, dailyLoadedMsg:
		a.finance, cmd = a.finance.Update(msg)
		return a, cmd
	}

	switch a.view {
	case viewAgenda:
		a.agenda, cmd = a.agenda.Update(msg)
	case viewPatients:
		a.patients, cmd = a.patients.Update(msg)
	case viewInventory:
		a.inventory, cmd = a.inventory.Update(msg)
	case viewTeam:
		a.team, cmd = a.team.Update(msg)
	case viewFinance:
		a.finance, cmd = a.finance.Update(msg)
	}
	return a, cmd
}

func (a App) isEditing() bool {
	switch a.view {
	case viewAgenda:
		return a.agenda.editingDate || a.agenda.completing
	case viewPatients:
		return a.patients.searching
	case viewInventory:
		return a.inventory.mode == invModeForm
	}
	return false
}

func (a App) View() string {
	logo := renderShimmerLogo(a.frame)

	// Status line below logo: user, connection dot, unread bell
	statsLine := ""
	if a.gate == gateMain && a.me != nil {
		parts := []string{
			selectedStyle.Render(a.me.Name) + " " + roleStyle(a.me.Role).Render("("+a.me.Role+")"),
		}
		if a.connected {
			parts = append(parts, liveDotStyle.Render("●")+dimStyle.Render(" conectado"))
		} else {
			parts = append(parts, offlineDotStyle.Render("●")+dimStyle.Render(" offline"))
		}
		if unread := a.feed.Unread(); unread > 0 {
			parts = append(parts, bellStyle.Render(fmt.Sprintf("🔔 %d", unread)))
		}
		statsLine = strings.Join(parts, metaStyle.Render("  ·  "))
	}

	logoWidth := lipgloss.Width(logo)
	logoPad := (a.width - logoWidth) / 2
	if logoPad < 0 {
		logoPad = 0
	}
	header := strings.Repeat(" ", logoPad) + logo

	if statsLine != "" {
		statsWidth := lipgloss.Width(statsLine)
		statsPad := (a.width - statsWidth) / 2
		if statsPad < 0 {
			statsPad = 0
		}
		header += "\n" + strings.Repeat(" ", statsPad) + statsLine
	} else {
		header += "\n"
	}

	var tabBar, body, help string

	switch a.gate {
	case gateUnknown:
		body = "\n  " + dimStyle.Render("verificando sessao...")
		help = " " + helpEntry("q", "sair")
	case gateLogin:
		body = a.login.View()
		help = " " + helpEntry("tab", "campo") + "  " + helpEntry("enter", "entrar") + "  " + helpEntry("ctrl+c", "sair")
	case gateMain:
		tabBar = a.renderTabs()
		body, help = a.mainBody()
	}

	toastLine := ""
	if a.toast != "" {
		toastLine = " " + toastStyle.Render(" "+truncStr(a.toast, a.width-4)+" ")
	}

	chrome := 5
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s", header, tabBar, body, toastLine, help)
}

func (a App) renderTabs() string {
	type tabEntry struct {
		key  string
		name string
		v    view
	}
	tabs := []tabEntry{
		{"1", "Agenda", viewAgenda},
		{"2", "Pacientes", viewPatients},
		{"3", "Estoque", viewInventory},
		{"4", "Equipe", viewTeam},
		{"5", "Financeiro", viewFinance},
	}

	colWidth := a.width / len(tabs)
	var tabBar strings.Builder
	for _, t := range tabs {
		var label string
		if t.v == a.view {
			label = accentStyle.Render(t.key) + " " + selectedStyle.Underline(true).Render(t.name)
		} else {
			label = metaStyle.Render(t.key) + " " + dimStyle.Render(t.name)
		}
		labelWidth := lipgloss.Width(label)
		leftPad := (colWidth - labelWidth) / 2
		if leftPad < 0 {
			leftPad = 0
		}
		rightPad := colWidth - labelWidth - leftPad
		if rightPad < 0 {
			rightPad = 0
		}
		tabBar.WriteString(strings.Repeat(" ", leftPad) + label + strings.Repeat(" ", rightPad))
	}
	return tabBar.String()
}

func (a App) mainBody() (body, help string) {
	if a.helpOpen {
		return helpView(), " " + helpEntry("esc", "fechar")
	}
	if a.feedOpen {
		return a.feedView(), " " + helpEntry("x", "limpar") + "  " + helpEntry("esc", "fechar")
	}

	tabsHelp := helpEntry("1-5", "abas")
	switch a.view {
	case viewAgenda:
		body = a.agenda.View()
		help = " " + tabsHelp + "  " + helpEntry("s", "status") + "  " + helpEntry("t", "hoje") + "  " + helpEntry("d", "data") + "  " + helpEntry("c", "concluir") + "  " + helpEntry("x", "cancelar") + "  " + helpEntry("f", "sino") + "  " + helpEntry("q", "sair")
	case viewPatients:
		body = a.patients.View()
		help = " " + tabsHelp + "  " + helpEntry("/", "buscar") + "  " + helpEntry("enter", "ficha") + "  " + helpEntry("y", "copiar cpf") + "  " + helpEntry("q", "sair")
	case viewInventory:
		body = a.inventory.View()
		help = " " + tabsHelp + "  " + helpEntry("m", "movimentar") + "  " + helpEntry("v", "historico") + "  " + helpEntry("r", "recarregar") + "  " + helpEntry("q", "sair")
	case viewTeam:
		body = a.team.View()
		help = " " + tabsHelp + "  " + helpEntry("tab", "usuarios/dentistas") + "  " + helpEntry("x", "ativar/inativar") + "  " + helpEntry("q", "sair")
	case viewFinance:
		body = a.finance.View()
		help = " " + tabsHelp + "  " + helpEntry("h/l", "mes") + "  " + helpEntry("d", "caixa do dia") + "  " + helpEntry("q", "sair")
	}
	return body, help
}

func (a App) feedView() string {
	var sb strings.Builder
	sb.WriteString("\n  " + sectionHeaderStyle.Render("Notificacoes") + "\n\n")
	entries := a.feed.Entries()
	if len(entries) == 0 {
		sb.WriteString("  " + dimStyle.Render("nenhuma notificacao nesta sessao") + "\n")
		return sb.String()
	}
	for _, e := range entries {
		marker := metaStyle.Render("·")
		if !e.Read {
			marker = bellStyle.Render("●")
		}
		sb.WriteString("  " + marker + " " + metaStyle.Render(fmt.Sprintf("%9s", formatTime(e.CreatedAt))) + "  " + normalStyle.Render(e.Message) + "\n")
	}
	return sb.String()
}
