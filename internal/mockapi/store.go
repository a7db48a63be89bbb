package mockapi

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/sinditur/odonto/pkg/domain"
)

var (
	errItemNotFound      = errors.New("item not found")
	errInsufficientStock = errors.New("quantidade insuficiente em estoque")
	errBadMovementType   = errors.New("invalid movement type")
)

// staffAccount pairs a staff record with its login password. Passwords are
// plaintext here; this backend exists for local development only.
type staffAccount struct {
	domain.Staff
	Password string
}

// Store is the in-memory state behind the development backend. All access
// goes through the mutex; handlers run concurrently.
type Store struct {
	mu           sync.Mutex
	staff        []staffAccount
	patients     []domain.Patient
	units        []domain.Unit
	services     []domain.Service
	doctors      []domain.Doctor
	appointments []domain.Appointment
	items        []domain.InventoryItem
	movements    []domain.InventoryMovement
}

// NewStore returns a store seeded with the fixtures a fresh clinic install
// ships with: three units, a service catalog, a doctor per unit and one
// admin account (admin@odonto.com / admin123).
func NewStore() *Store {
	s := &Store{}
	s.seed()
	return s
}

func (s *Store) seed() {
	now := time.Now()
	s.staff = []staffAccount{{
		Staff: domain.Staff{
			ID:          uuid.NewString(),
			Name:        "Administrador",
			Email:       "admin@odonto.com",
			Role:        domain.RoleAdmin,
			Permissions: []string{"all"},
			Active:      true,
			CreatedAt:   now,
		},
		Password: "admin123",
	}}

	s.units = []domain.Unit{
		{ID: uuid.NewString(), Name: "Unidade Centro", Address: "Rua XV de Novembro, 123 - Centro", Phone: "(41) 3333-1001"},
		{ID: uuid.NewString(), Name: "Unidade Batel", Address: "Av. do Batel, 456 - Batel", Phone: "(41) 3333-1002"},
		{ID: uuid.NewString(), Name: "Unidade Portao", Address: "Rua Joao Bettega, 789 - Portao", Phone: "(41) 3333-1003"},
	}

	s.services = []domain.Service{
		{ID: uuid.NewString(), Name: "Limpeza", Description: "Profilaxia e remocao de tartaro", DurationMinutes: 40, Price: 120},
		{ID: uuid.NewString(), Name: "Restauracao", Description: "Restauracao em resina", DurationMinutes: 60, Price: 250},
		{ID: uuid.NewString(), Name: "Canal", Description: "Tratamento endodontico", DurationMinutes: 90, Price: 800},
		{ID: uuid.NewString(), Name: "Extracao", Description: "Extracao simples", DurationMinutes: 45, Price: 300},
		{ID: uuid.NewString(), Name: "Clareamento", Description: "Clareamento em consultorio", DurationMinutes: 60, Price: 600},
	}

	s.doctors = []domain.Doctor{
		{
			ID: uuid.NewString(), Name: "Dra. Ana Souza", Specialty: "Clinica geral",
			UnitID: s.units[0].ID, CRO: "PR-12345", Email: "ana.souza@odonto.com",
			AvailableDays: []string{"seg", "ter", "qua", "qui", "sex"},
		},
		{
			ID: uuid.NewString(), Name: "Dr. Carlos Lima", Specialty: "Endodontia",
			UnitID: s.units[1].ID, CRO: "PR-23456", Email: "carlos.lima@odonto.com",
			AvailableDays: []string{"seg", "qua", "sex"},
		},
		{
			ID: uuid.NewString(), Name: "Dra. Beatriz Ramos", Specialty: "Ortodontia",
			UnitID: s.units[2].ID, CRO: "PR-34567", Email: "beatriz.ramos@odonto.com",
			AvailableDays: []string{"ter", "qui"},
		},
	}
}

// --- staff ---

func (s *Store) authenticateStaff(email, password string) (domain.Staff, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.staff {
		if strings.EqualFold(acc.Email, email) && acc.Password == password && acc.Active {
			return acc.Staff, true
		}
	}
	return domain.Staff{}, false
}

func (s *Store) staffByID(id string) (domain.Staff, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.staff {
		if acc.ID == id {
			return acc.Staff, true
		}
	}
	return domain.Staff{}, false
}

func (s *Store) listStaff() []domain.Staff {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Staff, len(s.staff))
	for i, acc := range s.staff {
		out[i] = acc.Staff
	}
	return out
}

func (s *Store) createStaff(st domain.Staff, password string) domain.Staff {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.ID = uuid.NewString()
	st.CreatedAt = time.Now()
	s.staff = append(s.staff, staffAccount{Staff: st, Password: password})
	return st
}

func (s *Store) updateStaff(id string, apply func(*staffAccount)) (domain.Staff, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.staff {
		if s.staff[i].ID == id {
			apply(&s.staff[i])
			return s.staff[i].Staff, true
		}
	}
	return domain.Staff{}, false
}

func (s *Store) deleteStaff(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.staff {
		if s.staff[i].ID == id {
			s.staff = append(s.staff[:i], s.staff[i+1:]...)
			return true
		}
	}
	return false
}

// --- patients ---

func (s *Store) authenticatePatient(cpf, birthDate string) (domain.Patient, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.patients {
		if p.CPF == cpf && p.BirthDate == birthDate {
			return p, true
		}
	}
	return domain.Patient{}, false
}

func (s *Store) patientByCPF(cpf string) (domain.Patient, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.patients {
		if p.CPF == cpf {
			return p, true
		}
	}
	return domain.Patient{}, false
}

func (s *Store) patientByID(id string) (domain.Patient, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.patients {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Patient{}, false
}

func (s *Store) createPatient(p domain.Patient) domain.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now()
	s.patients = append(s.patients, p)
	return p
}

func (s *Store) listPatients() []domain.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Patient, len(s.patients))
	copy(out, s.patients)
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

func (s *Store) updatePatient(id string, apply func(*domain.Patient)) (domain.Patient, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.patients {
		if s.patients[i].ID == id {
			apply(&s.patients[i])
			return s.patients[i], true
		}
	}
	return domain.Patient{}, false
}

// --- units, services, doctors ---

func (s *Store) listUnits() []domain.Unit {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Unit, len(s.units))
	copy(out, s.units)
	return out
}

func (s *Store) unitByID(id string) (domain.Unit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.units {
		if u.ID == id {
			return u, true
		}
	}
	return domain.Unit{}, false
}

func (s *Store) createUnit(u domain.Unit) domain.Unit {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = uuid.NewString()
	s.units = append(s.units, u)
	return u
}

func (s *Store) updateUnit(id string, apply func(*domain.Unit)) (domain.Unit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.units {
		if s.units[i].ID == id {
			apply(&s.units[i])
			return s.units[i], true
		}
	}
	return domain.Unit{}, false
}

func (s *Store) deleteUnit(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.units {
		if s.units[i].ID == id {
			s.units = append(s.units[:i], s.units[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) listServices() []domain.Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Service, len(s.services))
	copy(out, s.services)
	return out
}

func (s *Store) createService(sv domain.Service) domain.Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv.ID = uuid.NewString()
	s.services = append(s.services, sv)
	return sv
}

func (s *Store) updateService(id string, apply func(*domain.Service)) (domain.Service, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.services {
		if s.services[i].ID == id {
			apply(&s.services[i])
			return s.services[i], true
		}
	}
	return domain.Service{}, false
}

func (s *Store) deleteService(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.services {
		if s.services[i].ID == id {
			s.services = append(s.services[:i], s.services[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) serviceByID(id string) (domain.Service, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, svc := range s.services {
		if svc.ID == id {
			return svc, true
		}
	}
	return domain.Service{}, false
}

func (s *Store) listDoctors(unitID string) []domain.Doctor {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Doctor, 0, len(s.doctors))
	for _, d := range s.doctors {
		if unitID == "" || d.UnitID == unitID {
			out = append(out, d)
		}
	}
	return out
}

func (s *Store) doctorByID(id string) (domain.Doctor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.doctors {
		if d.ID == id {
			return d, true
		}
	}
	return domain.Doctor{}, false
}

func (s *Store) createDoctor(d domain.Doctor) domain.Doctor {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = uuid.NewString()
	s.doctors = append(s.doctors, d)
	return d
}

func (s *Store) updateDoctor(id string, apply func(*domain.Doctor)) (domain.Doctor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.doctors {
		if s.doctors[i].ID == id {
			apply(&s.doctors[i])
			return s.doctors[i], true
		}
	}
	return domain.Doctor{}, false
}

func (s *Store) deleteDoctor(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.doctors {
		if s.doctors[i].ID == id {
			s.doctors = append(s.doctors[:i], s.doctors[i+1:]...)
			return true
		}
	}
	return false
}

// --- appointments ---

func (s *Store) createAppointment(a domain.Appointment) domain.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = uuid.NewString()
	a.Status = domain.StatusScheduled
	a.CreatedAt = time.Now()
	s.appointments = append(s.appointments, a)
	return a
}

func (s *Store) appointmentByID(id string) (domain.Appointment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.appointments {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Appointment{}, false
}

func (s *Store) listAppointments(match func(domain.Appointment) bool) []domain.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Appointment, 0, len(s.appointments))
	for _, a := range s.appointments {
		if match == nil || match(a) {
			out = append(out, a)
		}
	}
	return out
}

func (s *Store) updateAppointment(id string, apply func(*domain.Appointment)) (domain.Appointment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.appointments {
		if s.appointments[i].ID == id {
			apply(&s.appointments[i])
			return s.appointments[i], true
		}
	}
	return domain.Appointment{}, false
}

func (s *Store) slotTaken(doctorID, date, timeHM string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.appointments {
		if a.DoctorID == doctorID && a.Date == date && a.Time == timeHM && a.Status == domain.StatusScheduled {
			return true
		}
	}
	return false
}

func (s *Store) bookedTimes(doctorID, date string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	times := []string{}
	for _, a := range s.appointments {
		if a.DoctorID == doctorID && a.Date == date && a.Status == domain.StatusScheduled {
			times = append(times, a.Time)
		}
	}
	sort.Strings(times)
	return times
}

// --- inventory ---

func (s *Store) listItems() []domain.InventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.InventoryItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) createItem(item domain.InventoryItem) domain.InventoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	item.ID = uuid.NewString()
	item.CreatedAt = time.Now()
	s.items = append(s.items, item)
	return item
}

func (s *Store) updateItem(id string, apply func(*domain.InventoryItem)) (domain.InventoryItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			apply(&s.items[i])
			return s.items[i], true
		}
	}
	return domain.InventoryItem{}, false
}

// applyMovement adjusts stock and records the movement atomically. It fails
// when the item is unknown or a saida exceeds the current quantity.
func (s *Store) applyMovement(m domain.InventoryMovement) (domain.InventoryMovement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID != m.ItemID {
			continue
		}
		switch m.Type {
		case domain.MovementIn:
			s.items[i].Quantity += m.Quantity
		case domain.MovementOut:
			if m.Quantity > s.items[i].Quantity {
				return domain.InventoryMovement{}, errInsufficientStock
			}
			s.items[i].Quantity -= m.Quantity
		default:
			return domain.InventoryMovement{}, errBadMovementType
		}
		m.ID = uuid.NewString()
		m.ItemName = s.items[i].Name
		m.CreatedAt = time.Now()
		s.movements = append(s.movements, m)
		return m, nil
	}
	return domain.InventoryMovement{}, errItemNotFound
}

// recordMovement appends without touching stock. Used for the implicit
// entrada logged when an item is first registered.
func (s *Store) recordMovement(m domain.InventoryMovement) domain.InventoryMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = uuid.NewString()
	m.CreatedAt = time.Now()
	s.movements = append(s.movements, m)
	return m
}

func (s *Store) listMovements(match func(domain.InventoryMovement) bool) []domain.InventoryMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.InventoryMovement, 0, len(s.movements))
	for _, m := range s.movements {
		if match == nil || match(m) {
			out = append(out, m)
		}
	}
	// newest first, the way the panel lists them
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
