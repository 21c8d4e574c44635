package vaccinations

import "time"

// CalculateStatus deriva el estado de un registro a partir de sus fechas
// y el flag terminal. Es una función pura: mismo input, mismo output.
// No se persiste ningún enum de estado para evitar que divergiera de las
// fechas.
func CalculateStatus(r Record, today time.Time) Status {
	if r.Completed {
		return StatusCompleted
	}

	d := day(today)

	// Pasada la fecha programada sin completar => vencida.
	if d.After(day(r.GivenDate)) {
		return StatusOverdue
	}

	// Chequeo secundario sobre NextDueDate.
	if d.After(day(r.NextDueDate)) {
		return StatusOverdue
	}

	return StatusUpcoming
}

// day trunca a medianoche UTC; todas las comparaciones del dominio son a
// granularidad de día calendario.
func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return day(a).Equal(day(b))
}
