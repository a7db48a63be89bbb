package tui

import (
	"strings"
	"testing"
)

func typeString(m loginModel, s string) loginModel {
	for _, r := range s {
		m, _ = m.Update(keyMsg(string(r)))
	}
	return m
}

func TestLoginFieldNavigation(t *testing.T) {
	m := newLoginModel(nil)
	if m.focus != fieldEmail {
		t.Fatal("expected focus to start on email")
	}
	m, _ = m.Update(keyMsg("tab"))
	if m.focus != fieldPassword {
		t.Error("expected focus on password after tab")
	}
	m, _ = m.Update(keyMsg("tab"))
	if m.focus != fieldEmail {
		t.Error("expected focus back on email")
	}
}

func TestLoginEnterOnEmailMovesToPassword(t *testing.T) {
	m := newLoginModel(nil)
	m = typeString(m, "admin@odonto.com")
	m, cmd := m.Update(keyMsg("enter"))
	if m.focus != fieldPassword {
		t.Error("expected enter on email to move focus, not submit")
	}
	if cmd != nil {
		t.Error("expected no submit command yet")
	}
}

func TestLoginRequiresBothFields(t *testing.T) {
	m := newLoginModel(nil)
	m.focus = fieldPassword
	m, cmd := m.Update(keyMsg("enter"))
	if cmd != nil {
		t.Error("expected no submit with empty credentials")
	}
	if m.err != "informe email e senha" {
		t.Errorf("expected the required-fields message, got %q", m.err)
	}
}

func TestLoginSubmitLocksInput(t *testing.T) {
	m := newLoginModel(nil)
	m = typeString(m, "admin@odonto.com")
	m, _ = m.Update(keyMsg("tab"))
	m = typeString(m, "admin123")

	m, cmd := m.Update(keyMsg("enter"))
	if cmd == nil {
		t.Fatal("expected a submit command")
	}
	if !m.submitting {
		t.Fatal("expected submitting state")
	}

	// Keys are swallowed while the request is in flight.
	m, _ = m.Update(keyMsg("x"))
	if m.password != "admin123" {
		t.Errorf("expected input locked during submit, got password %q", m.password)
	}
	if !strings.Contains(m.View(), "autenticando") {
		t.Errorf("expected submitting indicator, got:\n%s", m.View())
	}
}

func TestLoginFailureClearsPassword(t *testing.T) {
	m := newLoginModel(nil)
	m.email = "admin@odonto.com"
	m.password = "errada"
	m.submitting = true

	m, _ = m.Update(loginDoneMsg{err: &testErr{msg: "Credenciais invalidas"}})
	if m.password != "" {
		t.Error("expected password cleared after a failed login")
	}
	if m.submitting {
		t.Error("expected submitting flag reset")
	}
	if !strings.Contains(m.View(), "Credenciais invalidas") {
		t.Errorf("expected the error shown, got:\n%s", m.View())
	}
}

func TestLoginPasswordMasked(t *testing.T) {
	m := newLoginModel(nil)
	m.password = "segredo"
	view := m.View()
	if strings.Contains(view, "segredo") {
		t.Errorf("expected the password masked, got:\n%s", view)
	}
	if !strings.Contains(view, "*******") {
		t.Errorf("expected mask characters, got:\n%s", view)
	}
}
