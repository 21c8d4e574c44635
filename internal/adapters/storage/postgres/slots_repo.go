package postgres

import (
	"context"
	"database/sql"

	"pet-wellness/internal/domain/appointments"
)

type SlotsRepo struct {
	db *sql.DB
}

func NewSlotsRepo(db *sql.DB) *SlotsRepo {
	return &SlotsRepo{db: db}
}

const slotCols = `
	id, date, start_time, duration_minutes,
	consultation_type, veterinarian_name, status,
	created_at, updated_at
`

func (r *SlotsRepo) Create(ctx context.Context, s appointments.Slot) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO appointment_slots (`+slotCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		s.ID,
		s.Date,
		s.StartTime,
		s.DurationMinutes,
		string(s.ConsultationType),
		s.VeterinarianName,
		string(s.Status),
		s.CreatedAt,
		s.UpdatedAt,
	)
	return err
}

func (r *SlotsRepo) GetByID(ctx context.Context, id string) (appointments.Slot, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+slotCols+`
		FROM appointment_slots
		WHERE id = $1
	`, id)
	return scanSlot(row)
}

func (r *SlotsRepo) Update(ctx context.Context, s appointments.Slot) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE appointment_slots
		SET
			date = $2,
			start_time = $3,
			duration_minutes = $4,
			consultation_type = $5,
			veterinarian_name = $6,
			status = $7,
			updated_at = $8
		WHERE id = $1
	`,
		s.ID,
		s.Date,
		s.StartTime,
		s.DurationMinutes,
		string(s.ConsultationType),
		s.VeterinarianName,
		string(s.Status),
		s.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return appointments.ErrSlotNotFound
	}
	return nil
}

// UpdateStatus transiciona from→to en un solo UPDATE condicional; dos
// reservas concurrentes sobre el mismo slot dejan exactamente un ganador.
func (r *SlotsRepo) UpdateStatus(ctx context.Context, id string, from, to appointments.SlotStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE appointment_slots
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
	`, id, string(from), string(to))
	if err != nil {
		return err
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM appointment_slots WHERE id = $1)`, id,
		).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return appointments.ErrSlotNotFound
		}
		return appointments.ErrConflict
	}
	return nil
}

func (r *SlotsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM appointment_slots WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return appointments.ErrSlotNotFound
	}
	return nil
}

func (r *SlotsRepo) List(ctx context.Context) ([]appointments.Slot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+slotCols+`
		FROM appointment_slots
		ORDER BY date ASC, start_time ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSlots(rows)
}

func (r *SlotsRepo) ListByStatus(ctx context.Context, status appointments.SlotStatus) ([]appointments.Slot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+slotCols+`
		FROM appointment_slots
		WHERE status = $1
		ORDER BY date ASC, start_time ASC
	`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSlots(rows)
}

func scanSlot(row rowScanner) (appointments.Slot, error) {
	var s appointments.Slot
	var ct, status string
	if err := row.Scan(
		&s.ID,
		&s.Date,
		&s.StartTime,
		&s.DurationMinutes,
		&ct,
		&s.VeterinarianName,
		&status,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return appointments.Slot{}, appointments.ErrSlotNotFound
		}
		return appointments.Slot{}, err
	}
	s.ConsultationType = appointments.ConsultationType(ct)
	s.Status = appointments.SlotStatus(status)
	return s, nil
}

func scanSlots(rows *sql.Rows) ([]appointments.Slot, error) {
	out := make([]appointments.Slot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
