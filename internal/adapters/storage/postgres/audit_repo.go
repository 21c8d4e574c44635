package postgres

import (
	"context"
	"database/sql"

	"pet-wellness/internal/domain/vaccinations"
)

type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Append(ctx context.Context, e vaccinations.AuditEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vaccination_audit (
			id, vaccination_id, pet_id,
			vaccine_name, doctor_name, dose_number,
			last_given_date, given_date, next_due_date,
			completed, reminder_sent, reminder_count,
			attachment_path, revision, kind, captured_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`,
		e.ID,
		e.VaccinationID,
		e.PetID,
		e.VaccineName,
		e.DoctorName,
		e.DoseNumber,
		toNullDate(e.LastGivenDate),
		e.GivenDate,
		e.NextDueDate,
		e.Completed,
		e.ReminderSent,
		e.ReminderCount,
		e.AttachmentPath,
		e.Revision,
		string(e.Kind),
		e.CapturedAt,
	)
	return err
}

func (r *AuditRepo) ListByVaccination(ctx context.Context, vaccinationID string) ([]vaccinations.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id, vaccination_id, pet_id,
			vaccine_name, doctor_name, dose_number,
			last_given_date, given_date, next_due_date,
			completed, reminder_sent, reminder_count,
			attachment_path, revision, kind, captured_at
		FROM vaccination_audit
		WHERE vaccination_id = $1
		ORDER BY revision DESC
	`, vaccinationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]vaccinations.AuditEntry, 0)
	for rows.Next() {
		var e vaccinations.AuditEntry
		var lastGiven sql.NullTime
		var kind string
		if err := rows.Scan(
			&e.ID,
			&e.VaccinationID,
			&e.PetID,
			&e.VaccineName,
			&e.DoctorName,
			&e.DoseNumber,
			&lastGiven,
			&e.GivenDate,
			&e.NextDueDate,
			&e.Completed,
			&e.ReminderSent,
			&e.ReminderCount,
			&e.AttachmentPath,
			&e.Revision,
			&kind,
			&e.CapturedAt,
		); err != nil {
			return nil, err
		}

		if lastGiven.Valid {
			t := lastGiven.Time
			e.LastGivenDate = &t
		}
		e.Kind = vaccinations.AuditKind(kind)

		out = append(out, e)
	}

	return out, rows.Err()
}
