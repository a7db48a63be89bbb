package tui

import (
	"strings"
	"testing"

	"github.com/sinditur/odonto/pkg/domain"
)

func newTestAgendaModel() agendaModel {
	m := newAgendaModel(nil)
	m.width = 100
	m.height = 28
	return m
}

func makeTestAppointment(id, name, status string) domain.Appointment {
	return domain.Appointment{
		ID:          id,
		UserName:    name,
		ServiceName: "Limpeza",
		DoctorName:  "Dra. Ana Souza",
		UnitName:    "Centro",
		Date:        "10/09/2026",
		Time:        "14:00",
		Status:      status,
	}
}

func TestAgendaLoadedRendersAppointments(t *testing.T) {
	m := newTestAgendaModel()
	m, _ = m.Update(agendaLoadedMsg{gen: 0, appointments: []domain.Appointment{
		makeTestAppointment("a1", "Joao Silva", domain.StatusScheduled),
		makeTestAppointment("a2", "Maria Santos", domain.StatusCompleted),
	}})

	view := m.View()
	if !strings.Contains(view, "Joao Silva") {
		t.Errorf("expected patient name in agenda view, got:\n%s", view)
	}
	if !strings.Contains(view, domain.StatusCompleted) {
		t.Errorf("expected status column in agenda view, got:\n%s", view)
	}
}

func TestAgendaStaleResponseDropped(t *testing.T) {
	m := newTestAgendaModel()

	// A filter change bumps the generation; the response for the older
	// request must not overwrite the list.
	m, _ = m.Update(keyMsg("s"))
	stale := agendaLoadedMsg{gen: 0, appointments: []domain.Appointment{
		makeTestAppointment("old", "Resposta Velha", domain.StatusScheduled),
	}}
	m, _ = m.Update(stale)
	if len(m.appointments) != 0 {
		t.Fatalf("expected stale response dropped, got %d appointments", len(m.appointments))
	}

	fresh := agendaLoadedMsg{gen: m.gen, appointments: []domain.Appointment{
		makeTestAppointment("new", "Resposta Nova", domain.StatusScheduled),
	}}
	m, _ = m.Update(fresh)
	if len(m.appointments) != 1 || m.appointments[0].ID != "new" {
		t.Errorf("expected the current-generation response applied, got %+v", m.appointments)
	}
}

func TestAgendaStatusFilterCycles(t *testing.T) {
	m := newTestAgendaModel()
	want := []string{domain.StatusScheduled, domain.StatusCompleted, domain.StatusCancelled, ""}
	for _, expected := range want {
		m, _ = m.Update(keyMsg("s"))
		if m.statusFilter != expected {
			t.Fatalf("expected status filter %q, got %q", expected, m.statusFilter)
		}
	}
}

func TestAgendaTodayFilterToggles(t *testing.T) {
	m := newTestAgendaModel()
	m, _ = m.Update(keyMsg("t"))
	if m.dateFilter == "" {
		t.Fatal("expected today's date after 't'")
	}
	if !strings.Contains(m.filterLine(), m.dateFilter) {
		t.Errorf("expected date filter shown, got %q", m.filterLine())
	}
	m, _ = m.Update(keyMsg("t"))
	if m.dateFilter != "" {
		t.Errorf("expected date filter cleared on second 't', got %q", m.dateFilter)
	}
}

func TestAgendaDateEditing(t *testing.T) {
	m := newTestAgendaModel()
	m, _ = m.Update(keyMsg("d"))
	if !m.editingDate {
		t.Fatal("expected date editing after 'd'")
	}
	for _, r := range "15/09/2026" {
		m, _ = m.Update(keyMsg(string(r)))
	}
	if m.dateFilter != "15/09/2026" {
		t.Fatalf("expected typed date, got %q", m.dateFilter)
	}

	genBefore := m.gen
	m, cmd := m.Update(keyMsg("enter"))
	if m.editingDate {
		t.Error("expected editing closed on enter")
	}
	if m.gen != genBefore+1 || cmd == nil {
		t.Error("expected a fresh load after committing the date filter")
	}
}

func TestAgendaDateEditingEscClears(t *testing.T) {
	m := newTestAgendaModel()
	m, _ = m.Update(keyMsg("d"))
	for _, r := range "15/09" {
		m, _ = m.Update(keyMsg(string(r)))
	}
	m, _ = m.Update(keyMsg("esc"))
	if m.editingDate || m.dateFilter != "" {
		t.Errorf("expected editing aborted and filter cleared, got editing=%v filter=%q", m.editingDate, m.dateFilter)
	}
}

func TestAgendaCursorNavigation(t *testing.T) {
	m := newTestAgendaModel()
	m, _ = m.Update(agendaLoadedMsg{gen: 0, appointments: []domain.Appointment{
		makeTestAppointment("a1", "Um", domain.StatusScheduled),
		makeTestAppointment("a2", "Dois", domain.StatusScheduled),
	}})

	m, _ = m.Update(keyMsg("j"))
	if m.cursor != 1 {
		t.Fatalf("expected cursor 1 after j, got %d", m.cursor)
	}
	m, _ = m.Update(keyMsg("j"))
	if m.cursor != 1 {
		t.Errorf("expected cursor clamped at the last row, got %d", m.cursor)
	}
	m, _ = m.Update(keyMsg("k"))
	if m.cursor != 0 {
		t.Errorf("expected cursor 0 after k, got %d", m.cursor)
	}
}

func TestAgendaCompleteFlowDefaultsToServicePrice(t *testing.T) {
	m := newTestAgendaModel()
	appt := makeTestAppointment("a1", "Joao", domain.StatusScheduled)
	appt.ServicePrice = 120
	m, _ = m.Update(agendaLoadedMsg{gen: 0, appointments: []domain.Appointment{appt}})

	m, _ = m.Update(keyMsg("c"))
	if !m.completing {
		t.Fatal("expected paid-value prompt after 'c' on a scheduled appointment")
	}
	if !strings.Contains(m.View(), "R$ 120,00") {
		t.Errorf("expected the service price hint, got:\n%s", m.View())
	}

	// Empty input falls back to the service price; a command is issued.
	m, cmd := m.Update(keyMsg("enter"))
	if m.completing {
		t.Error("expected prompt closed after enter")
	}
	if cmd == nil {
		t.Error("expected an update command for completion")
	}
}

func TestAgendaCompleteRejectsBadValue(t *testing.T) {
	m := newTestAgendaModel()
	m, _ = m.Update(agendaLoadedMsg{gen: 0, appointments: []domain.Appointment{
		makeTestAppointment("a1", "Joao", domain.StatusScheduled),
	}})
	m, _ = m.Update(keyMsg("c"))
	for _, r := range "abc" {
		m, _ = m.Update(keyMsg(string(r)))
	}
	m, cmd := m.Update(keyMsg("enter"))
	if cmd != nil {
		t.Error("expected no command for an unparseable paid value")
	}
	if !m.completing {
		t.Error("expected prompt kept open so the value can be fixed")
	}
}

func TestAgendaCompleteOnlyForScheduled(t *testing.T) {
	m := newTestAgendaModel()
	m, _ = m.Update(agendaLoadedMsg{gen: 0, appointments: []domain.Appointment{
		makeTestAppointment("a1", "Joao", domain.StatusCompleted),
	}})
	m, _ = m.Update(keyMsg("c"))
	if m.completing {
		t.Error("expected 'c' ignored for a non-scheduled appointment")
	}
}

func TestAgendaCancelIssuesUpdate(t *testing.T) {
	m := newTestAgendaModel()
	m, _ = m.Update(agendaLoadedMsg{gen: 0, appointments: []domain.Appointment{
		makeTestAppointment("a1", "Joao", domain.StatusScheduled),
	}})
	m, cmd := m.Update(keyMsg("x"))
	if cmd == nil {
		t.Error("expected a cancel command on 'x'")
	}
	if len(m.appointments) != 1 {
		t.Errorf("expected the list untouched until the reload, got %d rows", len(m.appointments))
	}
}

func TestAgendaDetailView(t *testing.T) {
	m := newTestAgendaModel()
	appt := makeTestAppointment("a1", "Joao Silva", domain.StatusScheduled)
	appt.UserCPF = "12345678901"
	appt.Notes = "retorno em 30 dias"
	m, _ = m.Update(agendaLoadedMsg{gen: 0, appointments: []domain.Appointment{appt}})

	m, _ = m.Update(keyMsg("enter"))
	if !m.detail {
		t.Fatal("expected detail open after enter")
	}
	view := m.View()
	for _, want := range []string{"Joao Silva", "123.456.789-01", "retorno em 30 dias", "Centro"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in detail view, got:\n%s", want, view)
		}
	}

	m, _ = m.Update(keyMsg("esc"))
	if m.detail {
		t.Error("expected detail closed after esc")
	}
}

func TestAgendaReminderBanner(t *testing.T) {
	m := newTestAgendaModel()
	m, _ = m.Update(agendaLoadedMsg{
		gen:          0,
		appointments: []domain.Appointment{makeTestAppointment("a1", "Joao", domain.StatusScheduled)},
		reminders:    []domain.Reminder{{ID: "a1", Date: "10/09/2026", Time: "14:00"}},
	})
	if !strings.Contains(m.View(), "proximas 24h") {
		t.Errorf("expected reminder banner, got:\n%s", m.View())
	}
}

func TestAgendaLoadErrorShown(t *testing.T) {
	m := newTestAgendaModel()
	m, _ = m.Update(agendaLoadedMsg{gen: 0, err: &testErr{msg: "connection refused"}})
	if !strings.Contains(m.View(), "connection refused") {
		t.Errorf("expected load error in view, got:\n%s", m.View())
	}
}

func TestAgendaEmptyState(t *testing.T) {
	m := newTestAgendaModel()
	m, _ = m.Update(agendaLoadedMsg{gen: 0, appointments: nil})
	if !strings.Contains(m.View(), "nenhum agendamento") {
		t.Errorf("expected empty state, got:\n%s", m.View())
	}
}

type testErr struct{ msg string }

func (e *testErr) Error() string { return e.msg }
