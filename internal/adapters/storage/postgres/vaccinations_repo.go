package postgres

import (
	"context"
	"database/sql"
	"time"

	"pet-wellness/internal/domain/vaccinations"
)

type VaccinationsRepo struct {
	db *sql.DB
}

func NewVaccinationsRepo(db *sql.DB) *VaccinationsRepo {
	return &VaccinationsRepo{db: db}
}

const vaccinationCols = `
	id, pet_id,
	vaccine_name, doctor_name, dose_number,
	last_given_date, given_date, next_due_date,
	completed,
	reminder_sent, due_date_reminder_sent, reminder_count, last_reminder_date,
	attachment_path, version, created_at
`

func (r *VaccinationsRepo) Create(ctx context.Context, rec vaccinations.Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vaccinations (`+vaccinationCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`,
		rec.ID,
		rec.PetID,
		rec.VaccineName,
		rec.DoctorName,
		rec.DoseNumber,
		toNullDate(rec.LastGivenDate),
		rec.GivenDate,
		rec.NextDueDate,
		rec.Completed,
		rec.ReminderSent,
		rec.DueDateReminderSent,
		rec.ReminderCount,
		toNullDate(rec.LastReminderDate),
		rec.AttachmentPath,
		rec.Version,
		rec.CreatedAt,
	)
	return err
}

func (r *VaccinationsRepo) GetByID(ctx context.Context, id string) (vaccinations.Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+vaccinationCols+`
		FROM vaccinations
		WHERE id = $1
	`, id)
	return scanVaccination(row)
}

// Update escribe solo si la versión en la fila coincide; el WHERE sobre
// version es lo que hace atómica la actualización frente a escritores
// concurrentes.
func (r *VaccinationsRepo) Update(ctx context.Context, rec vaccinations.Record) (vaccinations.Record, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE vaccinations
		SET
			vaccine_name = $2,
			doctor_name = $3,
			dose_number = $4,
			last_given_date = $5,
			given_date = $6,
			next_due_date = $7,
			completed = $8,
			reminder_sent = $9,
			due_date_reminder_sent = $10,
			reminder_count = $11,
			last_reminder_date = $12,
			attachment_path = $13,
			version = version + 1
		WHERE id = $1 AND version = $14
	`,
		rec.ID,
		rec.VaccineName,
		rec.DoctorName,
		rec.DoseNumber,
		toNullDate(rec.LastGivenDate),
		rec.GivenDate,
		rec.NextDueDate,
		rec.Completed,
		rec.ReminderSent,
		rec.DueDateReminderSent,
		rec.ReminderCount,
		toNullDate(rec.LastReminderDate),
		rec.AttachmentPath,
		rec.Version,
	)
	if err != nil {
		return vaccinations.Record{}, err
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		// Distinguir "no existe" de "versión vieja"
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM vaccinations WHERE id = $1)`, rec.ID,
		).Scan(&exists); err != nil {
			return vaccinations.Record{}, err
		}
		if !exists {
			return vaccinations.Record{}, vaccinations.ErrNotFound
		}
		return vaccinations.Record{}, vaccinations.ErrConflict
	}

	rec.Version++
	return rec, nil
}

func (r *VaccinationsRepo) ListByPet(ctx context.Context, petID string) ([]vaccinations.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+vaccinationCols+`
		FROM vaccinations
		WHERE pet_id = $1
		ORDER BY next_due_date ASC
	`, petID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVaccinations(rows)
}

func (r *VaccinationsRepo) LatestDose(ctx context.Context, petID, vaccineName string) (vaccinations.Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+vaccinationCols+`
		FROM vaccinations
		WHERE pet_id = $1 AND lower(vaccine_name) = lower($2)
		ORDER BY dose_number DESC
		LIMIT 1
	`, petID, vaccineName)
	return scanVaccination(row)
}

func (r *VaccinationsRepo) DueBetween(ctx context.Context, from, to time.Time) ([]vaccinations.Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+vaccinationCols+`
		FROM vaccinations
		WHERE next_due_date BETWEEN $1 AND $2
		ORDER BY next_due_date ASC
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanVaccinations(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVaccination(row rowScanner) (vaccinations.Record, error) {
	var rec vaccinations.Record
	var lastGiven, lastReminder sql.NullTime
	if err := row.Scan(
		&rec.ID,
		&rec.PetID,
		&rec.VaccineName,
		&rec.DoctorName,
		&rec.DoseNumber,
		&lastGiven,
		&rec.GivenDate,
		&rec.NextDueDate,
		&rec.Completed,
		&rec.ReminderSent,
		&rec.DueDateReminderSent,
		&rec.ReminderCount,
		&lastReminder,
		&rec.AttachmentPath,
		&rec.Version,
		&rec.CreatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return vaccinations.Record{}, vaccinations.ErrNotFound
		}
		return vaccinations.Record{}, err
	}

	if lastGiven.Valid {
		t := lastGiven.Time
		rec.LastGivenDate = &t
	}
	if lastReminder.Valid {
		t := lastReminder.Time
		rec.LastReminderDate = &t
	}
	return rec, nil
}

func scanVaccinations(rows *sql.Rows) ([]vaccinations.Record, error) {
	out := make([]vaccinations.Record, 0)
	for rows.Next() {
		rec, err := scanVaccination(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
