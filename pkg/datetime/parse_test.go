package datetime

import (
	"testing"
	"time"
)

func TestOffsetDate(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		months   int
		expected string
		wantErr  bool
	}{
		{name: "Add multiple years", date: "2025-01", months: 24, expected: "2027-01"},
		{name: "Cross year boundary forward", date: "2025-06", months: 8, expected: "2026-02"},
		{name: "Subtract", date: "2025-03", months: -3, expected: "2024-12"},
		{name: "Invalid date", date: "2025/03", months: 1, expected: "2025/03", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := OffsetDate(tt.date, DateTimeLayout, tt.months)
			if (err != nil) != tt.wantErr {
				t.Fatalf("OffsetDate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if result != tt.expected {
				t.Errorf("OffsetDate() = %s, expected %s", result, tt.expected)
			}
		})
	}
}

func TestMonthOf(t *testing.T) {
	in := time.Date(2025, time.July, 19, 15, 4, 5, 0, time.UTC)
	got := MonthOf(in)
	want := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("MonthOf() = %s, expected %s", got, want)
	}
}

func TestDaysBetween(t *testing.T) {
	now := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		earlier  time.Time
		expected int
	}{
		{"Same day earlier hour", time.Date(2025, time.March, 10, 1, 0, 0, 0, time.UTC), 0},
		{"Yesterday late evening", time.Date(2025, time.March, 9, 23, 59, 0, 0, time.UTC), 1},
		{"Across month boundary", time.Date(2025, time.February, 28, 12, 0, 0, 0, time.UTC), 10},
		{"Future date", time.Date(2025, time.March, 12, 12, 0, 0, 0, time.UTC), -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(tt.earlier, now); got != tt.expected {
				t.Errorf("DaysBetween() = %d, expected %d", got, tt.expected)
			}
		})
	}
}
