package vaccinations

import (
	"testing"
	"time"
)

func TestCalculateStatus(t *testing.T) {
	given := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	due := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

	base := Record{GivenDate: given, NextDueDate: due}

	cases := []struct {
		name  string
		rec   Record
		today time.Time
		want  Status
	}{
		{
			name:  "completed wins over dates",
			rec:   Record{GivenDate: given, NextDueDate: due, Completed: true},
			today: due.AddDate(0, 0, 30),
			want:  StatusCompleted,
		},
		{
			name:  "before given date",
			rec:   base,
			today: given.AddDate(0, 0, -1),
			want:  StatusUpcoming,
		},
		{
			name:  "on given date",
			rec:   base,
			today: given,
			want:  StatusUpcoming,
		},
		{
			name:  "day after given date without completing",
			rec:   base,
			today: given.AddDate(0, 0, 1),
			want:  StatusOverdue,
		},
		{
			name: "past next due date",
			rec: Record{
				GivenDate:   due.AddDate(0, 0, 5), // programada después del due
				NextDueDate: due,
			},
			today: due.AddDate(0, 0, 1),
			want:  StatusOverdue,
		},
		{
			name:  "time of day does not matter",
			rec:   base,
			today: time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC),
			want:  StatusUpcoming,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateStatus(tc.rec, tc.today)
			if got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}
