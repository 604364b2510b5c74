package scheduler

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Foreman/internal/domain"
)

func TestCalculateNextDueCron(t *testing.T) {
	plan := &domain.WorkPlan{
		ID:       uuid.New(),
		CronExpr: "0 6 * * 1-5", // рабочие дни в 6:00
		Timezone: "UTC",
	}

	// Вторник 10 марта 2026, 08:00 UTC → следующее срабатывание
	// в среду 11 марта в 06:00.
	from := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	next, err := CalculateNextDue(plan, from)
	if err != nil {
		t.Fatalf("CalculateNextDue failed: %v", err)
	}

	want := time.Date(2026, 3, 11, 6, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}
}

func TestCalculateNextDueCronSkipsWeekend(t *testing.T) {
	plan := &domain.WorkPlan{
		ID:       uuid.New(),
		CronExpr: "0 6 * * 1-5",
		Timezone: "UTC",
	}

	// Пятница 13 марта 2026, 07:00 → следующее в понедельник 16 марта.
	from := time.Date(2026, 3, 13, 7, 0, 0, 0, time.UTC)

	next, err := CalculateNextDue(plan, from)
	if err != nil {
		t.Fatalf("CalculateNextDue failed: %v", err)
	}

	want := time.Date(2026, 3, 16, 6, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}
}

func TestCalculateNextDueInterval(t *testing.T) {
	plan := &domain.WorkPlan{
		ID:          uuid.New(),
		IntervalSec: 3600,
		Timezone:    "UTC",
	}

	from := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	next, err := CalculateNextDue(plan, from)
	if err != nil {
		t.Fatalf("CalculateNextDue failed: %v", err)
	}

	want := from.Add(time.Hour)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}
}

func TestCalculateNextDueTimezone(t *testing.T) {
	plan := &domain.WorkPlan{
		ID:       uuid.New(),
		CronExpr: "0 6 * * *",
		Timezone: "Europe/Moscow", // UTC+3
	}

	// 08:00 UTC = 11:00 Moscow → следующее 06:00 Moscow завтра,
	// т.е. 03:00 UTC 11 марта.
	from := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	next, err := CalculateNextDue(plan, from)
	if err != nil {
		t.Fatalf("CalculateNextDue failed: %v", err)
	}

	want := time.Date(2026, 3, 11, 3, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}
}

func TestCalculateNextDueInvalidTimezoneFallsBackToUTC(t *testing.T) {
	plan := &domain.WorkPlan{
		ID:          uuid.New(),
		IntervalSec: 60,
		Timezone:    "Mars/Olympus",
	}

	from := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	next, err := CalculateNextDue(plan, from)
	if err != nil {
		t.Fatalf("CalculateNextDue failed: %v", err)
	}

	if !next.Equal(from.Add(time.Minute)) {
		t.Errorf("next = %v, want %v", next, from.Add(time.Minute))
	}
}

func TestCalculateNextDueNoSchedule(t *testing.T) {
	plan := &domain.WorkPlan{ID: uuid.New(), Timezone: "UTC"}

	if _, err := CalculateNextDue(plan, time.Now()); err == nil {
		t.Fatal("expected error for plan without cron_expr and interval_sec")
	}
}

func TestValidateCronExpr(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"0 6 * * 1-5", false},
		{"*/15 * * * *", false},
		{"0 0 1 * *", false},
		{"not a cron", true},
		{"0 6 * *", true},       // мало полей
		{"0 6 * * 1-5 *", true}, // много полей
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateCronExpr(tt.expr)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateCronExpr(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
		}
	}
}
