package domain

// Real-time event names pushed by the backend. Admin clients receive the
// first four; appointment_status_changed goes to the affected patient.
const (
	EventNewAppointment          = "new_appointment"
	EventNewPatient              = "new_patient"
	EventAppointmentCancelled    = "appointment_cancelled"
	EventAppointmentUpdated      = "appointment_updated"
	EventAppointmentStatusChange = "appointment_status_changed"
)

// AdminEvents lists the event names an admin client subscribes to, in the
// order screens register interest.
var AdminEvents = []string{
	EventNewAppointment,
	EventNewPatient,
	EventAppointmentCancelled,
	EventAppointmentUpdated,
}

// Event is a push-channel payload. Type is the event name from the wire
// envelope; every other field is optional; the backend sends whichever
// make sense for the event, and consumers render placeholders for anything
// missing.
type Event struct {
	Type        string `json:"-"`
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	CPF         string `json:"cpf,omitempty"`
	PatientName string `json:"patient_name,omitempty"`
	DoctorName  string `json:"doctor_name,omitempty"`
	UnitName    string `json:"unit_name,omitempty"`
	ServiceName string `json:"service_name,omitempty"`
	Date        string `json:"date,omitempty"`
	Time        string `json:"time,omitempty"`
	Status      string `json:"status,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// Subject returns the person the event is about. new_patient payloads carry
// "name"; appointment events carry "patient_name".
func (e Event) Subject() string {
	if e.PatientName != "" {
		return e.PatientName
	}
	if e.Name != "" {
		return e.Name
	}
	return "paciente"
}
