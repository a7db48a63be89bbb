package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sinditur/odonto/pkg/domain"
)

// Client is the clinic API client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Auth ---

// LoginResult is the token response for staff logins.
type LoginResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        domain.Staff `json:"user"`
}

// StaffLogin authenticates a staff account with email and password.
func (c *Client) StaffLogin(ctx context.Context, email, password string) (*LoginResult, error) {
	var result LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, "/api/admin/auth/login", body, &result); err != nil {
		return nil, fmt.Errorf("client.StaffLogin: %w", err)
	}
	return &result, nil
}

// PatientLoginResult is the token response for patient logins.
type PatientLoginResult struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	User        domain.Patient `json:"user"`
}

// PatientLogin authenticates a patient with CPF and birth date (DD/MM/YYYY).
func (c *Client) PatientLogin(ctx context.Context, cpf, birthDate string) (*PatientLoginResult, error) {
	var result PatientLoginResult
	body := map[string]string{"cpf": cpf, "birth_date": birthDate}
	if err := c.post(ctx, "/api/auth/login", body, &result); err != nil {
		return nil, fmt.Errorf("client.PatientLogin: %w", err)
	}
	return &result, nil
}

// RegisterPatient creates a patient account and returns its first session.
func (c *Client) RegisterPatient(ctx context.Context, name, cpf, birthDate string) (*PatientLoginResult, error) {
	var result PatientLoginResult
	body := map[string]string{"name": name, "cpf": cpf, "birth_date": birthDate}
	if err := c.post(ctx, "/api/auth/register", body, &result); err != nil {
		return nil, fmt.Errorf("client.RegisterPatient: %w", err)
	}
	return &result, nil
}

// GetMe returns the authenticated staff profile.
func (c *Client) GetMe(ctx context.Context) (*domain.Staff, error) {
	var s domain.Staff
	if err := c.get(ctx, "/api/auth/me", &s); err != nil {
		return nil, fmt.Errorf("client.GetMe: %w", err)
	}
	return &s, nil
}

// --- Staff management ---

// StaffRequest is the payload for creating or updating a staff account.
// Nil fields are omitted so partial updates leave the rest untouched.
type StaffRequest struct {
	Name        *string   `json:"name,omitempty"`
	Email       *string   `json:"email,omitempty"`
	Password    *string   `json:"password,omitempty"`
	Role        *string   `json:"role,omitempty"`
	Permissions *[]string `json:"permissions,omitempty"`
	Active      *bool     `json:"active,omitempty"`
}

// ListStaff fetches all staff accounts.
func (c *Client) ListStaff(ctx context.Context) ([]domain.Staff, error) {
	var staff []domain.Staff
	if err := c.get(ctx, "/api/admin/staff", &staff); err != nil {
		return nil, fmt.Errorf("client.ListStaff: %w", err)
	}
	return staff, nil
}

// CreateStaff creates a staff account.
func (c *Client) CreateStaff(ctx context.Context, req StaffRequest) (*domain.Staff, error) {
	var created domain.Staff
	if err := c.post(ctx, "/api/admin/staff", req, &created); err != nil {
		return nil, fmt.Errorf("client.CreateStaff: %w", err)
	}
	return &created, nil
}

// UpdateStaff updates a staff account by ID.
func (c *Client) UpdateStaff(ctx context.Context, id string, req StaffRequest) (*domain.Staff, error) {
	var updated domain.Staff
	if err := c.put(ctx, "/api/admin/staff/"+url.PathEscape(id), req, &updated); err != nil {
		return nil, fmt.Errorf("client.UpdateStaff: %w", err)
	}
	return &updated, nil
}

// DeleteStaff removes a staff account by ID.
func (c *Client) DeleteStaff(ctx context.Context, id string) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/api/admin/staff/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("client.DeleteStaff: %w", err)
	}
	return nil
}

// --- Units and services ---

// ListUnits fetches the clinic locations.
func (c *Client) ListUnits(ctx context.Context) ([]domain.Unit, error) {
	var units []domain.Unit
	if err := c.get(ctx, "/api/units", &units); err != nil {
		return nil, fmt.Errorf("client.ListUnits: %w", err)
	}
	return units, nil
}

// UnitRequest is the payload for creating or updating a clinic location.
type UnitRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone,omitempty"`
}

// CreateUnit registers a new clinic location.
func (c *Client) CreateUnit(ctx context.Context, req UnitRequest) (*domain.Unit, error) {
	var created domain.Unit
	if err := c.post(ctx, "/api/admin/units", req, &created); err != nil {
		return nil, fmt.Errorf("client.CreateUnit: %w", err)
	}
	return &created, nil
}

// UpdateUnit updates a clinic location by ID.
func (c *Client) UpdateUnit(ctx context.Context, id string, req UnitRequest) (*domain.Unit, error) {
	var updated domain.Unit
	if err := c.put(ctx, "/api/admin/units/"+url.PathEscape(id), req, &updated); err != nil {
		return nil, fmt.Errorf("client.UpdateUnit: %w", err)
	}
	return &updated, nil
}

// DeleteUnit removes a clinic location by ID.
func (c *Client) DeleteUnit(ctx context.Context, id string) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/api/admin/units/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("client.DeleteUnit: %w", err)
	}
	return nil
}

// ListServices fetches the admin view of services, prices included.
func (c *Client) ListServices(ctx context.Context) ([]domain.Service, error) {
	var services []domain.Service
	if err := c.get(ctx, "/api/admin/services", &services); err != nil {
		return nil, fmt.Errorf("client.ListServices: %w", err)
	}
	return services, nil
}

// ServiceRequest is the payload for creating or updating a procedure.
type ServiceRequest struct {
	Name            string  `json:"name"`
	Description     string  `json:"description,omitempty"`
	DurationMinutes int     `json:"duration_minutes,omitempty"`
	Price           float64 `json:"price,omitempty"`
}

// CreateService registers a new bookable procedure.
func (c *Client) CreateService(ctx context.Context, req ServiceRequest) (*domain.Service, error) {
	var created domain.Service
	if err := c.post(ctx, "/api/admin/services", req, &created); err != nil {
		return nil, fmt.Errorf("client.CreateService: %w", err)
	}
	return &created, nil
}

// UpdateService updates a procedure by ID.
func (c *Client) UpdateService(ctx context.Context, id string, req ServiceRequest) (*domain.Service, error) {
	var updated domain.Service
	if err := c.put(ctx, "/api/admin/services/"+url.PathEscape(id), req, &updated); err != nil {
		return nil, fmt.Errorf("client.UpdateService: %w", err)
	}
	return &updated, nil
}

// DeleteService removes a procedure by ID.
func (c *Client) DeleteService(ctx context.Context, id string) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/api/admin/services/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("client.DeleteService: %w", err)
	}
	return nil
}

// --- Doctors ---

// DoctorRequest is the payload for creating or updating a doctor record.
type DoctorRequest struct {
	Name          *string   `json:"name,omitempty"`
	Specialty     *string   `json:"specialty,omitempty"`
	UnitID        *string   `json:"unit_id,omitempty"`
	CRO           *string   `json:"cro,omitempty"`
	Phone         *string   `json:"phone,omitempty"`
	Email         *string   `json:"email,omitempty"`
	Bio           *string   `json:"bio,omitempty"`
	AvailableDays *[]string `json:"available_days,omitempty"`
}

// ListDoctors fetches doctors, optionally filtered by unit.
func (c *Client) ListDoctors(ctx context.Context, unitID string) ([]domain.Doctor, error) {
	path := "/api/doctors"
	if unitID != "" {
		params := url.Values{}
		params.Set("unit_id", unitID)
		path += "?" + params.Encode()
	}
	var doctors []domain.Doctor
	if err := c.get(ctx, path, &doctors); err != nil {
		return nil, fmt.Errorf("client.ListDoctors: %w", err)
	}
	return doctors, nil
}

// CreateDoctor creates a doctor record.
func (c *Client) CreateDoctor(ctx context.Context, req DoctorRequest) (*domain.Doctor, error) {
	var created domain.Doctor
	if err := c.post(ctx, "/api/admin/doctors", req, &created); err != nil {
		return nil, fmt.Errorf("client.CreateDoctor: %w", err)
	}
	return &created, nil
}

// UpdateDoctor updates a doctor record by ID.
func (c *Client) UpdateDoctor(ctx context.Context, id string, req DoctorRequest) (*domain.Doctor, error) {
	var updated domain.Doctor
	if err := c.put(ctx, "/api/admin/doctors/"+url.PathEscape(id), req, &updated); err != nil {
		return nil, fmt.Errorf("client.UpdateDoctor: %w", err)
	}
	return &updated, nil
}

// DeleteDoctor removes a doctor record by ID.
func (c *Client) DeleteDoctor(ctx context.Context, id string) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/api/admin/doctors/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("client.DeleteDoctor: %w", err)
	}
	return nil
}

// --- Appointments ---

// AppointmentFilter narrows the admin appointment listing. Zero values are
// not sent.
type AppointmentFilter struct {
	Status   string
	Date     string
	DoctorID string
	UnitID   string
}

// ListAppointments fetches the admin appointment list with optional filters.
func (c *Client) ListAppointments(ctx context.Context, filter AppointmentFilter) ([]domain.Appointment, error) {
	params := url.Values{}
	if filter.Status != "" {
		params.Set("status", filter.Status)
	}
	if filter.Date != "" {
		params.Set("date", filter.Date)
	}
	if filter.DoctorID != "" {
		params.Set("doctor_id", filter.DoctorID)
	}
	if filter.UnitID != "" {
		params.Set("unit_id", filter.UnitID)
	}
	path := "/api/admin/appointments"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var appointments []domain.Appointment
	if err := c.get(ctx, path, &appointments); err != nil {
		return nil, fmt.Errorf("client.ListAppointments: %w", err)
	}
	return appointments, nil
}

// AppointmentUpdate carries the mutable appointment fields. Nil fields are
// left untouched by the backend.
type AppointmentUpdate struct {
	Status    *string  `json:"status,omitempty"`
	Notes     *string  `json:"notes,omitempty"`
	PaidValue *float64 `json:"paid_value,omitempty"`
}

// UpdateAppointment updates an appointment's status, notes or paid value.
func (c *Client) UpdateAppointment(ctx context.Context, id string, update AppointmentUpdate) (*domain.Appointment, error) {
	var updated domain.Appointment
	if err := c.put(ctx, "/api/admin/appointments/"+url.PathEscape(id), update, &updated); err != nil {
		return nil, fmt.Errorf("client.UpdateAppointment: %w", err)
	}
	return &updated, nil
}

// CreateAppointmentRequest is the patient-side booking payload.
type CreateAppointmentRequest struct {
	UnitID    string `json:"unit_id"`
	ServiceID string `json:"service_id"`
	DoctorID  string `json:"doctor_id"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Notes     string `json:"notes,omitempty"`
}

// CreateAppointment books an appointment for the authenticated patient.
func (c *Client) CreateAppointment(ctx context.Context, req CreateAppointmentRequest) (*domain.Appointment, error) {
	var created domain.Appointment
	if err := c.post(ctx, "/api/appointments", req, &created); err != nil {
		return nil, fmt.Errorf("client.CreateAppointment: %w", err)
	}
	return &created, nil
}

// MyAppointments fetches the authenticated patient's appointments.
func (c *Client) MyAppointments(ctx context.Context) ([]domain.Appointment, error) {
	var appointments []domain.Appointment
	if err := c.get(ctx, "/api/appointments", &appointments); err != nil {
		return nil, fmt.Errorf("client.MyAppointments: %w", err)
	}
	return appointments, nil
}

// CancelAppointment cancels the authenticated patient's own appointment.
func (c *Client) CancelAppointment(ctx context.Context, id string) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/api/appointments/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("client.CancelAppointment: %w", err)
	}
	return nil
}

// BookedSlots fetches the taken times for a doctor on a date (DD/MM/YYYY).
func (c *Client) BookedSlots(ctx context.Context, doctorID, date string) (*domain.BookedSlots, error) {
	params := url.Values{}
	params.Set("doctor_id", doctorID)
	params.Set("date", date)

	var slots domain.BookedSlots
	if err := c.get(ctx, "/api/appointments/booked-slots?"+params.Encode(), &slots); err != nil {
		return nil, fmt.Errorf("client.BookedSlots: %w", err)
	}
	return &slots, nil
}

// Reminders fetches the authenticated user's appointments within 24 hours.
func (c *Client) Reminders(ctx context.Context) ([]domain.Reminder, error) {
	var resp struct {
		Reminders []domain.Reminder `json:"reminders"`
	}
	if err := c.get(ctx, "/api/appointments/reminders", &resp); err != nil {
		return nil, fmt.Errorf("client.Reminders: %w", err)
	}
	return resp.Reminders, nil
}

// --- Financial ---

// FinancialSummary fetches the monthly revenue summary. Zero month/year
// default to the current month on the backend.
func (c *Client) FinancialSummary(ctx context.Context, month, year int, unitID string) (*domain.FinancialSummary, error) {
	params := url.Values{}
	if month > 0 {
		params.Set("month", strconv.Itoa(month))
	}
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}
	if unitID != "" {
		params.Set("unit_id", unitID)
	}
	path := "/api/admin/financial/summary"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var summary domain.FinancialSummary
	if err := c.get(ctx, path, &summary); err != nil {
		return nil, fmt.Errorf("client.FinancialSummary: %w", err)
	}
	return &summary, nil
}

// FinancialDaily fetches completed-appointment revenue for one date.
func (c *Client) FinancialDaily(ctx context.Context, date string) (*domain.DailyFinancial, error) {
	params := url.Values{}
	params.Set("date", date)

	var daily domain.DailyFinancial
	if err := c.get(ctx, "/api/admin/financial/daily?"+params.Encode(), &daily); err != nil {
		return nil, fmt.Errorf("client.FinancialDaily: %w", err)
	}
	return &daily, nil
}

// --- Inventory ---

// InventoryItemRequest is the payload for creating or updating an item.
type InventoryItemRequest struct {
	Name        *string `json:"name,omitempty"`
	Quantity    *int    `json:"quantity,omitempty"`
	Unit        *string `json:"unit,omitempty"`
	MinQuantity *int    `json:"min_quantity,omitempty"`
}

// ListInventory fetches all inventory items.
func (c *Client) ListInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	var items []domain.InventoryItem
	if err := c.get(ctx, "/api/admin/inventory", &items); err != nil {
		return nil, fmt.Errorf("client.ListInventory: %w", err)
	}
	return items, nil
}

// CreateInventoryItem registers a new item; the backend logs the initial
// quantity as an entrada movement.
func (c *Client) CreateInventoryItem(ctx context.Context, req InventoryItemRequest) (*domain.InventoryItem, error) {
	var created domain.InventoryItem
	if err := c.post(ctx, "/api/admin/inventory", req, &created); err != nil {
		return nil, fmt.Errorf("client.CreateInventoryItem: %w", err)
	}
	return &created, nil
}

// UpdateInventoryItem updates an item by ID.
func (c *Client) UpdateInventoryItem(ctx context.Context, id string, req InventoryItemRequest) (*domain.InventoryItem, error) {
	var updated domain.InventoryItem
	if err := c.put(ctx, "/api/admin/inventory/"+url.PathEscape(id), req, &updated); err != nil {
		return nil, fmt.Errorf("client.UpdateInventoryItem: %w", err)
	}
	return &updated, nil
}

// MovementRequest records a stock entry or withdrawal. DoctorID attributes a
// saida to a doctor; the backend resolves the display name.
type MovementRequest struct {
	ItemID   string `json:"item_id"`
	Type     string `json:"type"`
	Quantity int    `json:"quantity"`
	DoctorID string `json:"doctor_id,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// AddMovement records an inventory movement. Stock sufficiency is the
// backend's call, not the client's.
func (c *Client) AddMovement(ctx context.Context, req MovementRequest) (*domain.InventoryMovement, error) {
	var created domain.InventoryMovement
	if err := c.post(ctx, "/api/admin/inventory/movement", req, &created); err != nil {
		return nil, fmt.Errorf("client.AddMovement: %w", err)
	}
	return &created, nil
}

// MovementFilter narrows the movement listing. Zero values are not sent.
type MovementFilter struct {
	ItemID   string
	Type     string
	DoctorID string
}

// ListMovements fetches inventory movements with optional filters.
func (c *Client) ListMovements(ctx context.Context, filter MovementFilter) ([]domain.InventoryMovement, error) {
	params := url.Values{}
	if filter.ItemID != "" {
		params.Set("item_id", filter.ItemID)
	}
	if filter.Type != "" {
		params.Set("type", filter.Type)
	}
	if filter.DoctorID != "" {
		params.Set("doctor_id", filter.DoctorID)
	}
	path := "/api/admin/inventory/movements"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var movements []domain.InventoryMovement
	if err := c.get(ctx, path, &movements); err != nil {
		return nil, fmt.Errorf("client.ListMovements: %w", err)
	}
	return movements, nil
}

// --- Patients ---

// ListPatients fetches all patients, sorted by name on the backend.
func (c *Client) ListPatients(ctx context.Context) ([]domain.Patient, error) {
	var patients []domain.Patient
	if err := c.get(ctx, "/api/admin/patients", &patients); err != nil {
		return nil, fmt.Errorf("client.ListPatients: %w", err)
	}
	return patients, nil
}

// GetPatientCard fetches one patient with appointment history split into
// past and upcoming.
func (c *Client) GetPatientCard(ctx context.Context, id string) (*domain.PatientCard, error) {
	var card domain.PatientCard
	if err := c.get(ctx, "/api/admin/patients/"+url.PathEscape(id), &card); err != nil {
		return nil, fmt.Errorf("client.GetPatientCard: %w", err)
	}
	return &card, nil
}

// PatientUpdate carries the mutable patient fields.
type PatientUpdate struct {
	Name      *string `json:"name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
	Gender    *string `json:"gender,omitempty"`
	Associate *string `json:"associate,omitempty"`
	Company   *string `json:"company,omitempty"`
	BirthDate *string `json:"birth_date,omitempty"`
}

// UpdatePatient updates a patient record by ID.
func (c *Client) UpdatePatient(ctx context.Context, id string, update PatientUpdate) (*domain.Patient, error) {
	var updated domain.Patient
	if err := c.put(ctx, "/api/admin/patients/"+url.PathEscape(id), update, &updated); err != nil {
		return nil, fmt.Errorf("client.UpdatePatient: %w", err)
	}
	return &updated, nil
}

// Health checks backend liveness.
func (c *Client) Health(ctx context.Context) error {
	if err := c.get(ctx, "/api/health", nil); err != nil {
		return fmt.Errorf("client.Health: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) put(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPut, path, body, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		return newHTTPError(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}
