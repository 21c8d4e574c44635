package appointments

import "time"

// SlotStatus es el estado de un turno publicado por el admin.
// @Enum AVAILABLE, BOOKED, CANCELLED
type SlotStatus string

const (
	SlotAvailable SlotStatus = "AVAILABLE"
	SlotBooked    SlotStatus = "BOOKED"
	SlotCancelled SlotStatus = "CANCELLED"
)

// ConsultationType define la modalidad de la consulta.
// @Enum ONLINE, IN_CLINIC
type ConsultationType string

const (
	ConsultationOnline   ConsultationType = "ONLINE"
	ConsultationInClinic ConsultationType = "IN_CLINIC"
)

// Slot es un turno ofrecido por la clínica. Invariante: a lo sumo una
// cita no cancelada referencia un slot dado.
type Slot struct {
	ID string

	Date             time.Time // día de la consulta
	StartTime        string    // HH:MM
	DurationMinutes  int
	ConsultationType ConsultationType
	VeterinarianName string

	Status SlotStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AppointmentStatus es el estado persistido de la cita. El concepto
// "pasada" no se guarda: se deriva de la fecha (ver IsPast).
// @Enum SCHEDULED, CANCELLED
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "SCHEDULED"
	StatusCancelled AppointmentStatus = "CANCELLED"
)

// Appointment es una cita reservada. Copia los datos del slot al momento
// de reservar: editar el slot después no cambia lo que el usuario ve de
// su cita.
type Appointment struct {
	ID     string
	UserID string
	PetID  string
	SlotID string

	Date             time.Time
	StartTime        string
	ConsultationType ConsultationType
	VeterinarianName string

	Status AppointmentStatus
	Notes  string

	// Estado de recordatorios (ver internal/reminder). El flag "due"
	// acá significa "same-day".
	ReminderSent        bool
	DueDateReminderSent bool
	ReminderCount       int
	LastReminderDate    *time.Time

	// Versión para concurrencia optimista en los flags de recordatorio.
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsPast deriva el estado terminal implícito por fecha.
func IsPast(a Appointment, today time.Time) bool {
	return day(today).After(day(a.Date))
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
