package vaccinations

import "time"

// Status es el estado calculado de un registro de vacunación.
// Solo el flag terminal Completed se persiste; el resto se deriva de
// fechas al momento de leer (ver CalculateStatus).
// @Enum UPCOMING, COMPLETED, OVERDUE
type Status string

const (
	StatusUpcoming  Status = "UPCOMING"
	StatusCompleted Status = "COMPLETED"
	StatusOverdue   Status = "OVERDUE"
)

// Record representa una dosis dentro de la cadena de vacunación de una
// mascota. Las dosis se encadenan: la dosis N+1 nace con
// GivenDate = NextDueDate de la dosis N y LastGivenDate = GivenDate de N.
type Record struct {
	ID    string
	PetID string

	VaccineName string
	DoctorName  string
	DoseNumber  int // empieza en 1

	LastGivenDate *time.Time // nil para la dosis 1
	GivenDate     time.Time  // fecha programada; al completar, fecha real
	NextDueDate   time.Time  // la próxima dosis vence después de esta fecha

	// Flag terminal. Una vez true el registro es inmutable, salvo
	// corrección de DoctorName.
	Completed bool

	// Estado de recordatorios (ver internal/reminder).
	ReminderSent        bool // ventana temprana (due - 2 días)
	DueDateReminderSent bool // ventana del día de vencimiento
	ReminderCount       int
	LastReminderDate    *time.Time

	AttachmentPath string

	// Versión para concurrencia optimista; también numera las revisiones
	// del audit trail.
	Version int64

	CreatedAt time.Time
}

// AuditKind distingue el primer guardado de las modificaciones.
// @Enum ADD, MOD
type AuditKind string

const (
	AuditAdd AuditKind = "ADD"
	AuditMod AuditKind = "MOD"
)

// AuditEntry es un snapshot inmutable de un Record al momento de un
// guardado. Se produce exactamente uno por guardado, sin opt-out.
type AuditEntry struct {
	ID            string
	VaccinationID string
	PetID         string

	VaccineName   string
	DoctorName    string
	DoseNumber    int
	LastGivenDate *time.Time
	GivenDate     time.Time
	NextDueDate   time.Time
	Completed     bool

	ReminderSent  bool
	ReminderCount int

	AttachmentPath string

	Revision   int64 // estrictamente creciente por registro
	Kind       AuditKind
	CapturedAt time.Time
}
