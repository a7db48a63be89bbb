package mockapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sinditur/odonto/pkg/domain"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	srv := New(log, "test-secret")
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return srv, ts
}

func doJSON(t *testing.T, method, url, token string, body any, out any) *http.Response {
	t.Helper()
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func adminToken(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	var result struct {
		AccessToken string `json:"access_token"`
	}
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/admin/auth/login", "", map[string]string{
		"email": "admin@odonto.com", "password": "admin123",
	}, &result)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, result.AccessToken)
	return result.AccessToken
}

func registerPatient(t *testing.T, ts *httptest.Server, name, cpf string) (string, domain.Patient) {
	t.Helper()
	var result struct {
		AccessToken string         `json:"access_token"`
		User        domain.Patient `json:"user"`
	}
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/auth/register", "", map[string]string{
		"name": name, "cpf": cpf, "birth_date": "01/01/1990",
	}, &result)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return result.AccessToken, result.User
}

func TestStaffLogin(t *testing.T) {
	_, ts := newTestServer(t)

	token := adminToken(t, ts)

	var me domain.Staff
	resp := doJSON(t, http.MethodGet, ts.URL+"/api/auth/me", token, nil, &me)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.RoleAdmin, me.Role)
	assert.Equal(t, "admin@odonto.com", me.Email)
}

func TestStaffLogin_BadPassword(t *testing.T) {
	_, ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/admin/auth/login", "", map[string]string{
		"email": "admin@odonto.com", "password": "nope",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminRoutes_RejectPatientToken(t *testing.T) {
	_, ts := newTestServer(t)

	patientToken, _ := registerPatient(t, ts, "Joao", "11122233344")
	resp := doJSON(t, http.MethodGet, ts.URL+"/api/admin/patients", patientToken, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRegister_DuplicateCPF(t *testing.T) {
	_, ts := newTestServer(t)

	registerPatient(t, ts, "Joao", "11122233344")
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/auth/register", "", map[string]string{
		"name": "Outro", "cpf": "11122233344", "birth_date": "02/02/1992",
	}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestBookingFlow(t *testing.T) {
	srv, ts := newTestServer(t)

	patientToken, _ := registerPatient(t, ts, "Joao", "11122233344")
	adminTok := adminToken(t, ts)

	units := srv.store.listUnits()
	doctors := srv.store.listDoctors(units[0].ID)
	services := srv.store.listServices()
	require.NotEmpty(t, doctors)

	booking := map[string]string{
		"unit_id":    units[0].ID,
		"service_id": services[0].ID,
		"doctor_id":  doctors[0].ID,
		"date":       "15/09/2026",
		"time":       "14:00",
	}

	var appt domain.Appointment
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/appointments", patientToken, booking, &appt)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, domain.StatusScheduled, appt.Status)
	assert.Equal(t, "Joao", appt.UserName)
	assert.Equal(t, services[0].Price, appt.ServicePrice)

	// same slot again conflicts
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/appointments", patientToken, booking, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// slot shows up as booked
	var slots domain.BookedSlots
	url := fmt.Sprintf("%s/api/appointments/booked-slots?doctor_id=%s&date=%s", ts.URL, doctors[0].ID, "15%2F09%2F2026")
	resp = doJSON(t, http.MethodGet, url, patientToken, nil, &slots)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"14:00"}, slots.BookedTimes)

	// admin list filtered by doctor
	var listed []domain.Appointment
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/admin/appointments?doctor_id="+doctors[0].ID, adminTok, nil, &listed)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, listed, 1)
	assert.Equal(t, appt.ID, listed[0].ID)
}

func TestCompleteAppointment_FeedsFinancials(t *testing.T) {
	srv, ts := newTestServer(t)

	patientToken, _ := registerPatient(t, ts, "Joao", "11122233344")
	adminTok := adminToken(t, ts)

	units := srv.store.listUnits()
	doctors := srv.store.listDoctors(units[0].ID)
	services := srv.store.listServices()

	var appt domain.Appointment
	doJSON(t, http.MethodPost, ts.URL+"/api/appointments", patientToken, map[string]string{
		"unit_id":    units[0].ID,
		"service_id": services[0].ID,
		"doctor_id":  doctors[0].ID,
		"date":       "10/09/2026",
		"time":       "09:00",
	}, &appt)

	var updated domain.Appointment
	resp := doJSON(t, http.MethodPut, ts.URL+"/api/admin/appointments/"+appt.ID, adminTok, map[string]any{
		"status": domain.StatusCompleted, "paid_value": 180.0,
	}, &updated)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.StatusCompleted, updated.Status)
	assert.Equal(t, 180.0, updated.PaidValue)

	var summary domain.FinancialSummary
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/admin/financial/summary?month=9&year=2026", adminTok, nil, &summary)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 180.0, summary.TotalRevenue)
	assert.Equal(t, 1, summary.TotalAppointments)
	assert.Equal(t, 180.0, summary.AverageTicket)
	require.Len(t, summary.ClinicBreakdown, 1)
	assert.Equal(t, units[0].ID, summary.ClinicBreakdown[0].UnitID)

	var daily domain.DailyFinancial
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/admin/financial/daily?date=10%2F09%2F2026", adminTok, nil, &daily)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 180.0, daily.TotalRevenue)
}

func TestInventoryMovements(t *testing.T) {
	_, ts := newTestServer(t)
	adminTok := adminToken(t, ts)

	var item domain.InventoryItem
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/admin/inventory", adminTok, map[string]any{
		"name": "Luvas", "quantity": 10, "unit": "caixa", "min_quantity": 3,
	}, &item)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// registration logs the initial entrada
	var movements []domain.InventoryMovement
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/admin/inventory/movements?item_id="+item.ID, adminTok, nil, &movements)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, movements, 1)
	assert.Equal(t, domain.MovementIn, movements[0].Type)

	// withdrawal beyond stock is rejected
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/admin/inventory/movement", adminTok, map[string]any{
		"item_id": item.ID, "type": domain.MovementOut, "quantity": 99,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// valid withdrawal adjusts stock and records who registered it
	var movement domain.InventoryMovement
	resp = doJSON(t, http.MethodPost, ts.URL+"/api/admin/inventory/movement", adminTok, map[string]any{
		"item_id": item.ID, "type": domain.MovementOut, "quantity": 8,
	}, &movement)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Administrador", movement.CreatedBy)

	var items []domain.InventoryItem
	doJSON(t, http.MethodGet, ts.URL+"/api/admin/inventory", adminTok, nil, &items)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, items[0].LowStock())
}

func TestPublicServices_HidePrices(t *testing.T) {
	_, ts := newTestServer(t)
	adminTok := adminToken(t, ts)

	var visible []domain.Service
	resp := doJSON(t, http.MethodGet, ts.URL+"/api/services", "", nil, &visible)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, visible)
	for _, sv := range visible {
		assert.Zero(t, sv.Price)
	}

	var priced []domain.Service
	doJSON(t, http.MethodGet, ts.URL+"/api/admin/services", adminTok, nil, &priced)
	require.NotEmpty(t, priced)
	assert.NotZero(t, priced[0].Price)
}

func TestUnitManagement(t *testing.T) {
	_, ts := newTestServer(t)
	adminTok := adminToken(t, ts)

	var created domain.Unit
	resp := doJSON(t, http.MethodPost, ts.URL+"/api/admin/units", adminTok, map[string]string{
		"name":    "Unidade Agua Verde",
		"address": "Av. Republica Argentina, 500",
		"phone":   "(41) 3333-2004",
	}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, created.ID)

	var updated domain.Unit
	resp = doJSON(t, http.MethodPut, ts.URL+"/api/admin/units/"+created.ID, adminTok, map[string]string{
		"phone": "(41) 3333-2005",
	}, &updated)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Unidade Agua Verde", updated.Name)
	assert.Equal(t, "(41) 3333-2005", updated.Phone)

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/admin/units/"+created.ID, adminTok, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var units []domain.Unit
	doJSON(t, http.MethodGet, ts.URL+"/api/units", "", nil, &units)
	for _, u := range units {
		assert.NotEqual(t, created.ID, u.ID)
	}

	resp = doJSON(t, http.MethodDelete, ts.URL+"/api/admin/units/"+created.ID, adminTok, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPatientCard_SplitsHistoryAndUpcoming(t *testing.T) {
	srv, ts := newTestServer(t)

	patientToken, patient := registerPatient(t, ts, "Joao", "11122233344")
	adminTok := adminToken(t, ts)

	units := srv.store.listUnits()
	doctors := srv.store.listDoctors(units[0].ID)
	services := srv.store.listServices()

	future := time.Now().Add(48 * time.Hour).Format("02/01/2006")
	past := time.Now().Add(-48 * time.Hour).Format("02/01/2006")
	for _, date := range []string{future, past} {
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/appointments", patientToken, map[string]string{
			"unit_id":    units[0].ID,
			"service_id": services[0].ID,
			"doctor_id":  doctors[0].ID,
			"date":       date,
			"time":       "10:00",
		}, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	var card domain.PatientCard
	resp := doJSON(t, http.MethodGet, ts.URL+"/api/admin/patients/"+patient.ID, adminTok, nil, &card)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, patient.ID, card.Patient.ID)
	assert.Len(t, card.Upcoming, 1)
	assert.Len(t, card.History, 1)
	assert.Len(t, card.Appointments, 2)
}

func TestWebsocket_BroadcastsToAdmins(t *testing.T) {
	_, ts := newTestServer(t)
	adminTok := adminToken(t, ts)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/socket.io"
	header := http.Header{"Authorization": []string{"Bearer " + adminTok}}
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer ws.Close()

	// registration fires new_patient at connected admins
	registerPatient(t, ts, "Joao", "11122233344")

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var envelope struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	require.NoError(t, ws.ReadJSON(&envelope))
	assert.Equal(t, domain.EventNewPatient, envelope.Event)

	var data struct {
		Name string `json:"name"`
		CPF  string `json:"cpf"`
	}
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, "Joao", data.Name)
	assert.Equal(t, "11122233344", data.CPF)
}

func TestWebsocket_RejectsAnonymous(t *testing.T) {
	_, ts := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/socket.io"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
