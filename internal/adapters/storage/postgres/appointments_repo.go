package postgres

import (
	"context"
	"database/sql"
	"time"

	"pet-wellness/internal/domain/appointments"
)

type AppointmentsRepo struct {
	db *sql.DB
}

func NewAppointmentsRepo(db *sql.DB) *AppointmentsRepo {
	return &AppointmentsRepo{db: db}
}

const appointmentCols = `
	id, user_id, pet_id, slot_id,
	date, start_time, consultation_type, veterinarian_name,
	status, notes,
	reminder_sent, due_date_reminder_sent, reminder_count, last_reminder_date,
	version, created_at, updated_at
`

func (r *AppointmentsRepo) Create(ctx context.Context, a appointments.Appointment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO appointments (`+appointmentCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`,
		a.ID,
		a.UserID,
		a.PetID,
		a.SlotID,
		a.Date,
		a.StartTime,
		string(a.ConsultationType),
		a.VeterinarianName,
		string(a.Status),
		a.Notes,
		a.ReminderSent,
		a.DueDateReminderSent,
		a.ReminderCount,
		toNullDate(a.LastReminderDate),
		a.Version,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return err
}

func (r *AppointmentsRepo) GetByID(ctx context.Context, id string) (appointments.Appointment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+appointmentCols+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

// Update con concurrencia optimista, mismo esquema que vaccinations.
func (r *AppointmentsRepo) Update(ctx context.Context, a appointments.Appointment) (appointments.Appointment, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE appointments
		SET
			status = $2,
			notes = $3,
			reminder_sent = $4,
			due_date_reminder_sent = $5,
			reminder_count = $6,
			last_reminder_date = $7,
			updated_at = $8,
			version = version + 1
		WHERE id = $1 AND version = $9
	`,
		a.ID,
		string(a.Status),
		a.Notes,
		a.ReminderSent,
		a.DueDateReminderSent,
		a.ReminderCount,
		toNullDate(a.LastReminderDate),
		a.UpdatedAt,
		a.Version,
	)
	if err != nil {
		return appointments.Appointment{}, err
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, a.ID,
		).Scan(&exists); err != nil {
			return appointments.Appointment{}, err
		}
		if !exists {
			return appointments.Appointment{}, appointments.ErrNotFound
		}
		return appointments.Appointment{}, appointments.ErrConflict
	}

	a.Version++
	return a, nil
}

func (r *AppointmentsRepo) UpdateStatus(ctx context.Context, id string, from, to appointments.AppointmentStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE appointments
		SET status = $3, updated_at = now(), version = version + 1
		WHERE id = $1 AND status = $2
	`, id, string(from), string(to))
	if err != nil {
		return err
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, id,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return appointments.ErrNotFound
		}
		return appointments.ErrConflict
	}
	return nil
}

func (r *AppointmentsRepo) ListByUser(ctx context.Context, userID string) ([]appointments.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+appointmentCols+`
		FROM appointments
		WHERE user_id = $1
		ORDER BY date ASC, start_time ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func (r *AppointmentsRepo) ListAll(ctx context.Context) ([]appointments.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+appointmentCols+`
		FROM appointments
		ORDER BY date ASC, start_time ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func (r *AppointmentsRepo) DateBetween(ctx context.Context, from, to time.Time) ([]appointments.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+appointmentCols+`
		FROM appointments
		WHERE date BETWEEN $1 AND $2
		ORDER BY date ASC, start_time ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func scanAppointment(row rowScanner) (appointments.Appointment, error) {
	var a appointments.Appointment
	var ct, status string
	var lastReminder sql.NullTime
	if err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.PetID,
		&a.SlotID,
		&a.Date,
		&a.StartTime,
		&ct,
		&a.VeterinarianName,
		&status,
		&a.Notes,
		&a.ReminderSent,
		&a.DueDateReminderSent,
		&a.ReminderCount,
		&lastReminder,
		&a.Version,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return appointments.Appointment{}, appointments.ErrNotFound
		}
		return appointments.Appointment{}, err
	}

	a.ConsultationType = appointments.ConsultationType(ct)
	a.Status = appointments.AppointmentStatus(status)
	if lastReminder.Valid {
		t := lastReminder.Time
		a.LastReminderDate = &t
	}
	return a, nil
}

func scanAppointments(rows *sql.Rows) ([]appointments.Appointment, error) {
	out := make([]appointments.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
