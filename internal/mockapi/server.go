// Package mockapi is an in-memory development backend for the clinic panel.
// It speaks the same REST contract and push-channel protocol as production,
// seeded with fixture data, so the terminal client can be exercised without
// a real deployment.
package mockapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sinditur/odonto/pkg/domain"
)

const tokenTTL = 24 * time.Hour

// Server is the development backend: REST surface plus the websocket hub.
type Server struct {
	store  *Store
	hub    *Hub
	log    logrus.FieldLogger
	secret []byte
	router *mux.Router
}

// New builds a server with seeded fixtures. secret signs session tokens.
func New(log logrus.FieldLogger, secret string) *Server {
	s := &Server{
		store:  NewStore(),
		hub:    NewHub(log),
		log:    log,
		secret: []byte(secret),
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)

	// public
	r.HandleFunc("/api/auth/register", s.handleRegisterPatient).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", s.handlePatientLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/admin/auth/login", s.handleStaffLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/units", s.handleListUnits).Methods(http.MethodGet)
	r.HandleFunc("/api/services", s.handlePublicServices).Methods(http.MethodGet)
	r.HandleFunc("/api/doctors", s.handleListDoctors).Methods(http.MethodGet)

	// any authenticated session
	auth := r.NewRoute().Subrouter()
	auth.Use(s.requireAuth)
	auth.HandleFunc("/api/auth/me", s.handleMe).Methods(http.MethodGet)
	auth.HandleFunc("/api/appointments", s.handleCreateAppointment).Methods(http.MethodPost)
	auth.HandleFunc("/api/appointments", s.handleMyAppointments).Methods(http.MethodGet)
	auth.HandleFunc("/api/appointments/booked-slots", s.handleBookedSlots).Methods(http.MethodGet)
	auth.HandleFunc("/api/appointments/reminders", s.handleReminders).Methods(http.MethodGet)
	auth.HandleFunc("/api/appointments/{id}", s.handleCancelAppointment).Methods(http.MethodDelete)
	auth.HandleFunc("/socket.io", s.handleSocket).Methods(http.MethodGet)

	// staff only
	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(s.requireAuth, s.requireStaff)
	admin.HandleFunc("/staff", s.handleListStaff).Methods(http.MethodGet)
	admin.HandleFunc("/staff", s.handleCreateStaff).Methods(http.MethodPost)
	admin.HandleFunc("/staff/{id}", s.handleUpdateStaff).Methods(http.MethodPut)
	admin.HandleFunc("/staff/{id}", s.handleDeleteStaff).Methods(http.MethodDelete)
	admin.HandleFunc("/services", s.handleListServices).Methods(http.MethodGet)
	admin.HandleFunc("/services", s.handleCreateService).Methods(http.MethodPost)
	admin.HandleFunc("/services/{id}", s.handleUpdateService).Methods(http.MethodPut)
	admin.HandleFunc("/services/{id}", s.handleDeleteService).Methods(http.MethodDelete)
	admin.HandleFunc("/units", s.handleCreateUnit).Methods(http.MethodPost)
	admin.HandleFunc("/units/{id}", s.handleUpdateUnit).Methods(http.MethodPut)
	admin.HandleFunc("/units/{id}", s.handleDeleteUnit).Methods(http.MethodDelete)
	admin.HandleFunc("/doctors", s.handleCreateDoctor).Methods(http.MethodPost)
	admin.HandleFunc("/doctors/{id}", s.handleUpdateDoctor).Methods(http.MethodPut)
	admin.HandleFunc("/doctors/{id}", s.handleDeleteDoctor).Methods(http.MethodDelete)
	admin.HandleFunc("/appointments", s.handleAdminAppointments).Methods(http.MethodGet)
	admin.HandleFunc("/appointments/{id}", s.handleUpdateAppointment).Methods(http.MethodPut)
	admin.HandleFunc("/financial/summary", s.handleFinancialSummary).Methods(http.MethodGet)
	admin.HandleFunc("/financial/daily", s.handleFinancialDaily).Methods(http.MethodGet)
	admin.HandleFunc("/inventory", s.handleListInventory).Methods(http.MethodGet)
	admin.HandleFunc("/inventory", s.handleCreateItem).Methods(http.MethodPost)
	admin.HandleFunc("/inventory/movement", s.handleAddMovement).Methods(http.MethodPost)
	admin.HandleFunc("/inventory/movements", s.handleListMovements).Methods(http.MethodGet)
	admin.HandleFunc("/inventory/{id}", s.handleUpdateItem).Methods(http.MethodPut)
	admin.HandleFunc("/patients", s.handleListPatients).Methods(http.MethodGet)
	admin.HandleFunc("/patients/{id}", s.handlePatientCard).Methods(http.MethodGet)
	admin.HandleFunc("/patients/{id}", s.handleUpdatePatient).Methods(http.MethodPut)

	s.router = r
}

// --- middleware ---

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("request")
	})
}

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s *Server) mintToken(subject, role string) (string, error) {
	claims := sessionClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

func (s *Server) parseToken(raw string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

type ctxKey int

const claimsKey ctxKey = 0

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" {
			// websocket clients dial from browsers too, allow token in query
			raw = r.URL.Query().Get("token")
		}
		if raw == "" {
			s.writeError(w, http.StatusUnauthorized, "nao autenticado")
			return
		}
		claims, err := s.parseToken(raw)
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, "token invalido")
			return
		}
		ctx := contextWithClaims(r.Context(), claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r.Context())
		if claims == nil || claims.Role == "patient" {
			s.writeError(w, http.StatusForbidden, "acesso restrito")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- auth handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStaffLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	staff, ok := s.store.authenticateStaff(body.Email, body.Password)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "credenciais invalidas")
		return
	}
	token, err := s.mintToken(staff.ID, staff.Role)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"user":         staff,
	})
}

func (s *Server) handlePatientLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CPF       string `json:"cpf"`
		BirthDate string `json:"birth_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	patient, ok := s.store.authenticatePatient(body.CPF, body.BirthDate)
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "credenciais invalidas")
		return
	}
	token, err := s.mintToken(patient.ID, "patient")
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"user":         patient,
	})
}

func (s *Server) handleRegisterPatient(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name      string `json:"name"`
		CPF       string `json:"cpf"`
		BirthDate string `json:"birth_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if body.Name == "" || body.CPF == "" || body.BirthDate == "" {
		s.writeError(w, http.StatusBadRequest, "name, cpf e birth_date sao obrigatorios")
		return
	}
	if _, exists := s.store.patientByCPF(body.CPF); exists {
		s.writeError(w, http.StatusConflict, "CPF ja cadastrado")
		return
	}
	patient := s.store.createPatient(domain.Patient{
		Name:      body.Name,
		CPF:       body.CPF,
		BirthDate: body.BirthDate,
	})
	token, err := s.mintToken(patient.ID, "patient")
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.hub.Broadcast(domain.EventNewPatient, map[string]any{
		"id":        patient.ID,
		"name":      patient.Name,
		"cpf":       patient.CPF,
		"timestamp": time.Now().Format(time.RFC3339),
	})

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"user":         patient,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if claims.Role == "patient" {
		patient, ok := s.store.patientByID(claims.Subject)
		if !ok {
			s.writeError(w, http.StatusNotFound, "paciente nao encontrado")
			return
		}
		s.writeJSON(w, http.StatusOK, patient)
		return
	}
	staff, ok := s.store.staffByID(claims.Subject)
	if !ok {
		s.writeError(w, http.StatusNotFound, "usuario nao encontrado")
		return
	}
	s.writeJSON(w, http.StatusOK, staff)
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if claims.Role == "patient" {
		s.hub.serve(w, r, false, claims.Subject)
		return
	}
	s.hub.serve(w, r, true, "")
}

// --- appointments ---

func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if claims.Role != "patient" {
		s.writeError(w, http.StatusForbidden, "somente pacientes agendam")
		return
	}
	var body struct {
		UnitID    string `json:"unit_id"`
		ServiceID string `json:"service_id"`
		DoctorID  string `json:"doctor_id"`
		Date      string `json:"date"`
		Time      string `json:"time"`
		Notes     string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	patient, ok := s.store.patientByID(claims.Subject)
	if !ok {
		s.writeError(w, http.StatusNotFound, "paciente nao encontrado")
		return
	}
	unit, ok := s.store.unitByID(body.UnitID)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "unidade invalida")
		return
	}
	svc, ok := s.store.serviceByID(body.ServiceID)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "servico invalido")
		return
	}
	doctor, ok := s.store.doctorByID(body.DoctorID)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "dentista invalido")
		return
	}
	if s.store.slotTaken(doctor.ID, body.Date, body.Time) {
		s.writeError(w, http.StatusConflict, "horario ja reservado")
		return
	}

	appt := s.store.createAppointment(domain.Appointment{
		UserID:       patient.ID,
		UserName:     patient.Name,
		UserCPF:      patient.CPF,
		UnitID:       unit.ID,
		UnitName:     unit.Name,
		ServiceID:    svc.ID,
		ServiceName:  svc.Name,
		ServicePrice: svc.Price,
		DoctorID:     doctor.ID,
		DoctorName:   doctor.Name,
		Date:         body.Date,
		Time:         body.Time,
		Notes:        body.Notes,
	})

	s.hub.Broadcast(domain.EventNewAppointment, map[string]any{
		"id":           appt.ID,
		"patient_name": appt.UserName,
		"doctor_name":  appt.DoctorName,
		"unit_name":    appt.UnitName,
		"service_name": appt.ServiceName,
		"date":         appt.Date,
		"time":         appt.Time,
		"timestamp":    time.Now().Format(time.RFC3339),
	})

	s.writeJSON(w, http.StatusCreated, appt)
}

func (s *Server) handleMyAppointments(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	appointments := s.store.listAppointments(func(a domain.Appointment) bool {
		return a.UserID == claims.Subject
	})
	s.writeJSON(w, http.StatusOK, appointments)
}

func (s *Server) handleCancelAppointment(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	id := mux.Vars(r)["id"]

	appt, ok := s.store.appointmentByID(id)
	if !ok || appt.UserID != claims.Subject {
		s.writeError(w, http.StatusNotFound, "agendamento nao encontrado")
		return
	}
	updated, _ := s.store.updateAppointment(id, func(a *domain.Appointment) {
		a.Status = domain.StatusCancelled
	})

	s.hub.Broadcast(domain.EventAppointmentCancelled, map[string]any{
		"id":           updated.ID,
		"patient_name": updated.UserName,
		"doctor_name":  updated.DoctorName,
		"date":         updated.Date,
		"time":         updated.Time,
		"timestamp":    time.Now().Format(time.RFC3339),
	})

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleBookedSlots(w http.ResponseWriter, r *http.Request) {
	doctorID := r.URL.Query().Get("doctor_id")
	date := r.URL.Query().Get("date")
	if doctorID == "" || date == "" {
		s.writeError(w, http.StatusBadRequest, "doctor_id e date sao obrigatorios")
		return
	}
	s.writeJSON(w, http.StatusOK, domain.BookedSlots{
		BookedTimes: s.store.bookedTimes(doctorID, date),
		Date:        date,
		DoctorID:    doctorID,
	})
}

func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	now := time.Now()
	cutoff := now.Add(24 * time.Hour)

	reminders := []domain.Reminder{}
	for _, a := range s.store.listAppointments(nil) {
		if a.Status != domain.StatusScheduled {
			continue
		}
		if claims.Role == "patient" && a.UserID != claims.Subject {
			continue
		}
		at, err := time.ParseInLocation("02/01/2006 15:04", a.Date+" "+a.Time, time.Local)
		if err != nil {
			continue
		}
		if at.After(now) && at.Before(cutoff) {
			reminders = append(reminders, domain.Reminder{
				ID:          a.ID,
				Date:        a.Date,
				Time:        a.Time,
				DoctorName:  a.DoctorName,
				ServiceName: a.ServiceName,
				UnitName:    a.UnitName,
			})
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"reminders": reminders})
}

func (s *Server) handleAdminAppointments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	appointments := s.store.listAppointments(func(a domain.Appointment) bool {
		if v := q.Get("status"); v != "" && a.Status != v {
			return false
		}
		if v := q.Get("date"); v != "" && a.Date != v {
			return false
		}
		if v := q.Get("doctor_id"); v != "" && a.DoctorID != v {
			return false
		}
		if v := q.Get("unit_id"); v != "" && a.UnitID != v {
			return false
		}
		return true
	})
	s.writeJSON(w, http.StatusOK, appointments)
}

func (s *Server) handleUpdateAppointment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var body struct {
		Status    *string  `json:"status"`
		Notes     *string  `json:"notes"`
		PaidValue *float64 `json:"paid_value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if body.Status != nil {
		switch *body.Status {
		case domain.StatusScheduled, domain.StatusCompleted, domain.StatusCancelled:
		default:
			s.writeError(w, http.StatusBadRequest, "status invalido")
			return
		}
	}

	updated, ok := s.store.updateAppointment(id, func(a *domain.Appointment) {
		if body.Status != nil {
			a.Status = *body.Status
		}
		if body.Notes != nil {
			a.Notes = *body.Notes
		}
		if body.PaidValue != nil {
			a.PaidValue = *body.PaidValue
		}
	})
	if !ok {
		s.writeError(w, http.StatusNotFound, "agendamento nao encontrado")
		return
	}

	payload := map[string]any{
		"id":           updated.ID,
		"patient_name": updated.UserName,
		"status":       updated.Status,
		"date":         updated.Date,
		"time":         updated.Time,
		"timestamp":    time.Now().Format(time.RFC3339),
	}
	s.hub.Broadcast(domain.EventAppointmentUpdated, payload)
	if body.Status != nil {
		s.hub.Notify(updated.UserID, domain.EventAppointmentStatusChange, payload)
	}

	s.writeJSON(w, http.StatusOK, updated)
}

// --- staff management ---

func (s *Server) handleListStaff(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.listStaff())
}

func (s *Server) handleCreateStaff(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string   `json:"name"`
		Email       string   `json:"email"`
		Password    string   `json:"password"`
		Role        string   `json:"role"`
		Permissions []string `json:"permissions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if body.Email == "" || body.Password == "" {
		s.writeError(w, http.StatusBadRequest, "email e password sao obrigatorios")
		return
	}
	created := s.store.createStaff(domain.Staff{
		Name:        body.Name,
		Email:       body.Email,
		Role:        body.Role,
		Permissions: body.Permissions,
		Active:      true,
	}, body.Password)
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateStaff(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var body struct {
		Name        *string   `json:"name"`
		Email       *string   `json:"email"`
		Password    *string   `json:"password"`
		Role        *string   `json:"role"`
		Permissions *[]string `json:"permissions"`
		Active      *bool     `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	updated, ok := s.store.updateStaff(id, func(acc *staffAccount) {
		if body.Name != nil {
			acc.Name = *body.Name
		}
		if body.Email != nil {
			acc.Email = *body.Email
		}
		if body.Password != nil {
			acc.Password = *body.Password
		}
		if body.Role != nil {
			acc.Role = *body.Role
		}
		if body.Permissions != nil {
			acc.Permissions = *body.Permissions
		}
		if body.Active != nil {
			acc.Active = *body.Active
		}
	})
	if !ok {
		s.writeError(w, http.StatusNotFound, "usuario nao encontrado")
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteStaff(w http.ResponseWriter, r *http.Request) {
	if !s.store.deleteStaff(mux.Vars(r)["id"]) {
		s.writeError(w, http.StatusNotFound, "usuario nao encontrado")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- units, services, doctors ---

func (s *Server) handleListUnits(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.listUnits())
}

func (s *Server) handleCreateUnit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name    string `json:"name"`
		Address string `json:"address"`
		Phone   string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if body.Name == "" {
		s.writeError(w, http.StatusBadRequest, "name e obrigatorio")
		return
	}
	created := s.store.createUnit(domain.Unit{Name: body.Name, Address: body.Address, Phone: body.Phone})
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateUnit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var body struct {
		Name    *string `json:"name"`
		Address *string `json:"address"`
		Phone   *string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	updated, ok := s.store.updateUnit(id, func(u *domain.Unit) {
		if body.Name != nil {
			u.Name = *body.Name
		}
		if body.Address != nil {
			u.Address = *body.Address
		}
		if body.Phone != nil {
			u.Phone = *body.Phone
		}
	})
	if !ok {
		s.writeError(w, http.StatusNotFound, "unidade nao encontrada")
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteUnit(w http.ResponseWriter, r *http.Request) {
	if !s.store.deleteUnit(mux.Vars(r)["id"]) {
		s.writeError(w, http.StatusNotFound, "unidade nao encontrada")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListServices(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.listServices())
}

// handlePublicServices is the patient-facing list: prices are withheld.
func (s *Server) handlePublicServices(w http.ResponseWriter, _ *http.Request) {
	services := s.store.listServices()
	for i := range services {
		services[i].Price = 0
	}
	s.writeJSON(w, http.StatusOK, services)
}

func (s *Server) handleCreateService(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name            string  `json:"name"`
		Description     string  `json:"description"`
		DurationMinutes int     `json:"duration_minutes"`
		Price           float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if body.Name == "" {
		s.writeError(w, http.StatusBadRequest, "name e obrigatorio")
		return
	}
	created := s.store.createService(domain.Service{
		Name:            body.Name,
		Description:     body.Description,
		DurationMinutes: body.DurationMinutes,
		Price:           body.Price,
	})
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var body struct {
		Name            *string  `json:"name"`
		Description     *string  `json:"description"`
		DurationMinutes *int     `json:"duration_minutes"`
		Price           *float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	updated, ok := s.store.updateService(id, func(sv *domain.Service) {
		if body.Name != nil {
			sv.Name = *body.Name
		}
		if body.Description != nil {
			sv.Description = *body.Description
		}
		if body.DurationMinutes != nil {
			sv.DurationMinutes = *body.DurationMinutes
		}
		if body.Price != nil {
			sv.Price = *body.Price
		}
	})
	if !ok {
		s.writeError(w, http.StatusNotFound, "servico nao encontrado")
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	if !s.store.deleteService(mux.Vars(r)["id"]) {
		s.writeError(w, http.StatusNotFound, "servico nao encontrado")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListDoctors(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.listDoctors(r.URL.Query().Get("unit_id")))
}

func (s *Server) handleCreateDoctor(w http.ResponseWriter, r *http.Request) {
	var d domain.Doctor
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if d.Name == "" || d.UnitID == "" {
		s.writeError(w, http.StatusBadRequest, "name e unit_id sao obrigatorios")
		return
	}
	s.writeJSON(w, http.StatusCreated, s.store.createDoctor(d))
}

func (s *Server) handleUpdateDoctor(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var body struct {
		Name          *string   `json:"name"`
		Specialty     *string   `json:"specialty"`
		UnitID        *string   `json:"unit_id"`
		CRO           *string   `json:"cro"`
		Phone         *string   `json:"phone"`
		Email         *string   `json:"email"`
		Bio           *string   `json:"bio"`
		AvailableDays *[]string `json:"available_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	updated, ok := s.store.updateDoctor(id, func(d *domain.Doctor) {
		if body.Name != nil {
			d.Name = *body.Name
		}
		if body.Specialty != nil {
			d.Specialty = *body.Specialty
		}
		if body.UnitID != nil {
			d.UnitID = *body.UnitID
		}
		if body.CRO != nil {
			d.CRO = *body.CRO
		}
		if body.Phone != nil {
			d.Phone = *body.Phone
		}
		if body.Email != nil {
			d.Email = *body.Email
		}
		if body.Bio != nil {
			d.Bio = *body.Bio
		}
		if body.AvailableDays != nil {
			d.AvailableDays = *body.AvailableDays
		}
	})
	if !ok {
		s.writeError(w, http.StatusNotFound, "dentista nao encontrado")
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteDoctor(w http.ResponseWriter, r *http.Request) {
	if !s.store.deleteDoctor(mux.Vars(r)["id"]) {
		s.writeError(w, http.StatusNotFound, "dentista nao encontrado")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- financial ---

func (s *Server) handleFinancialSummary(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	month, _ := strconv.Atoi(r.URL.Query().Get("month"))
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	if month == 0 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}
	unitID := r.URL.Query().Get("unit_id")

	byUnit := map[string]*domain.UnitRevenue{}
	summary := domain.FinancialSummary{Month: month, Year: year, Appointments: []domain.Appointment{}, ClinicBreakdown: []domain.UnitRevenue{}}
	for _, a := range s.store.listAppointments(nil) {
		if a.Status != domain.StatusCompleted {
			continue
		}
		at, err := time.Parse("02/01/2006", a.Date)
		if err != nil || int(at.Month()) != month || at.Year() != year {
			continue
		}
		if unitID != "" && a.UnitID != unitID {
			continue
		}
		value := a.PaidValue
		if value == 0 {
			value = a.ServicePrice
		}
		summary.TotalRevenue += value
		summary.TotalAppointments++
		summary.Appointments = append(summary.Appointments, a)

		entry, ok := byUnit[a.UnitID]
		if !ok {
			entry = &domain.UnitRevenue{UnitID: a.UnitID, UnitName: a.UnitName}
			byUnit[a.UnitID] = entry
		}
		entry.TotalRevenue += value
		entry.TotalAppointments++
	}
	if summary.TotalAppointments > 0 {
		summary.AverageTicket = summary.TotalRevenue / float64(summary.TotalAppointments)
	}
	for _, entry := range byUnit {
		summary.ClinicBreakdown = append(summary.ClinicBreakdown, *entry)
	}

	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleFinancialDaily(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format("02/01/2006")
	}
	daily := domain.DailyFinancial{Date: date, Appointments: []domain.Appointment{}}
	for _, a := range s.store.listAppointments(nil) {
		if a.Status != domain.StatusCompleted || a.Date != date {
			continue
		}
		value := a.PaidValue
		if value == 0 {
			value = a.ServicePrice
		}
		daily.TotalRevenue += value
		daily.Appointments = append(daily.Appointments, a)
	}
	s.writeJSON(w, http.StatusOK, daily)
}

// --- inventory ---

func (s *Server) handleListInventory(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.listItems())
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string `json:"name"`
		Quantity    int    `json:"quantity"`
		Unit        string `json:"unit"`
		MinQuantity int    `json:"min_quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if body.Name == "" {
		s.writeError(w, http.StatusBadRequest, "name e obrigatorio")
		return
	}
	item := s.store.createItem(domain.InventoryItem{
		Name:        body.Name,
		Quantity:    body.Quantity,
		Unit:        body.Unit,
		MinQuantity: body.MinQuantity,
	})
	if item.Quantity > 0 {
		s.store.recordMovement(domain.InventoryMovement{
			ItemID:   item.ID,
			ItemName: item.Name,
			Type:     domain.MovementIn,
			Quantity: item.Quantity,
			Notes:    "estoque inicial",
		})
	}
	s.writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var body struct {
		Name        *string `json:"name"`
		Quantity    *int    `json:"quantity"`
		Unit        *string `json:"unit"`
		MinQuantity *int    `json:"min_quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	updated, ok := s.store.updateItem(id, func(item *domain.InventoryItem) {
		if body.Name != nil {
			item.Name = *body.Name
		}
		if body.Quantity != nil {
			item.Quantity = *body.Quantity
		}
		if body.Unit != nil {
			item.Unit = *body.Unit
		}
		if body.MinQuantity != nil {
			item.MinQuantity = *body.MinQuantity
		}
	})
	if !ok {
		s.writeError(w, http.StatusNotFound, "item nao encontrado")
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleAddMovement(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	var body struct {
		ItemID   string `json:"item_id"`
		Type     string `json:"type"`
		Quantity int    `json:"quantity"`
		DoctorID string `json:"doctor_id"`
		Notes    string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if body.Quantity <= 0 {
		s.writeError(w, http.StatusBadRequest, "quantity deve ser positiva")
		return
	}

	movement := domain.InventoryMovement{
		ItemID:   body.ItemID,
		Type:     body.Type,
		Quantity: body.Quantity,
		DoctorID: body.DoctorID,
		Notes:    body.Notes,
	}
	if body.DoctorID != "" {
		if doctor, ok := s.store.doctorByID(body.DoctorID); ok {
			movement.DoctorName = doctor.Name
		}
	}
	if staff, ok := s.store.staffByID(claims.Subject); ok {
		movement.CreatedBy = staff.Name
	}

	created, err := s.store.applyMovement(movement)
	switch {
	case errors.Is(err, errItemNotFound):
		s.writeError(w, http.StatusNotFound, "item nao encontrado")
		return
	case errors.Is(err, errInsufficientStock):
		s.writeError(w, http.StatusBadRequest, "quantidade insuficiente em estoque")
		return
	case errors.Is(err, errBadMovementType):
		s.writeError(w, http.StatusBadRequest, "tipo de movimentacao invalido")
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	movements := s.store.listMovements(func(m domain.InventoryMovement) bool {
		if v := q.Get("item_id"); v != "" && m.ItemID != v {
			return false
		}
		if v := q.Get("type"); v != "" && m.Type != v {
			return false
		}
		if v := q.Get("doctor_id"); v != "" && m.DoctorID != v {
			return false
		}
		return true
	})
	s.writeJSON(w, http.StatusOK, movements)
}

// --- patients ---

func (s *Server) handleListPatients(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.listPatients())
}

func (s *Server) handlePatientCard(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	patient, ok := s.store.patientByID(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "paciente nao encontrado")
		return
	}

	all := s.store.listAppointments(func(a domain.Appointment) bool {
		return a.UserID == id
	})
	card := domain.PatientCard{
		Patient:      patient,
		History:      []domain.Appointment{},
		Upcoming:     []domain.Appointment{},
		Appointments: all,
	}
	now := time.Now()
	for _, a := range all {
		at, err := time.ParseInLocation("02/01/2006 15:04", a.Date+" "+a.Time, time.Local)
		if a.Status == domain.StatusScheduled && err == nil && at.After(now) {
			card.Upcoming = append(card.Upcoming, a)
		} else {
			card.History = append(card.History, a)
		}
	}
	s.writeJSON(w, http.StatusOK, card)
}

func (s *Server) handleUpdatePatient(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var body struct {
		Name      *string `json:"name"`
		Phone     *string `json:"phone"`
		Address   *string `json:"address"`
		Gender    *string `json:"gender"`
		Associate *string `json:"associate"`
		Company   *string `json:"company"`
		BirthDate *string `json:"birth_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	updated, ok := s.store.updatePatient(id, func(p *domain.Patient) {
		if body.Name != nil {
			p.Name = *body.Name
		}
		if body.Phone != nil {
			p.Phone = *body.Phone
		}
		if body.Address != nil {
			p.Address = *body.Address
		}
		if body.Gender != nil {
			p.Gender = *body.Gender
		}
		if body.Associate != nil {
			p.Associate = *body.Associate
		}
		if body.Company != nil {
			p.Company = *body.Company
		}
		if body.BirthDate != nil {
			p.BirthDate = *body.BirthDate
		}
	})
	if !ok {
		s.writeError(w, http.StatusNotFound, "paciente nao encontrado")
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

// --- helpers ---

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Error("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]string{"detail": detail})
}
