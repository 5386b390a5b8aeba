// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package period

import (
	"errors"
	"testing"
	"time"

	"github.com/danielhkuo/fieldcode/models"
)

func receipt(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 14, 30, 0, 0, time.UTC)
}

func TestResolveDate(t *testing.T) {
	tests := []struct {
		name     string
		day      int
		hasDay   bool
		received time.Time
		want     models.Date
	}{
		{"no day uses receipt date", 0, false, receipt(2021, 3, 10), models.NewDate(2021, 3, 10)},
		{"earlier day same month", 5, true, receipt(2021, 3, 10), models.NewDate(2021, 3, 5)},
		{"same day", 10, true, receipt(2021, 3, 10), models.NewDate(2021, 3, 10)},
		{"later day is previous month", 15, true, receipt(2021, 3, 10), models.NewDate(2021, 2, 15)},
		{"january rolls back a year", 15, true, receipt(2021, 1, 10), models.NewDate(2020, 12, 15)},
		{"unvalidated day 30 in february", 30, true, receipt(2021, 3, 1), models.NewDate(2021, 2, 30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveDate(tt.day, tt.hasDay, tt.received)
			if got != tt.want {
				t.Errorf("ResolveDate(%d) = %s, want %s", tt.day, got, tt.want)
			}
		})
	}
}

func TestResolve_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		day      int
		received time.Time
	}{
		{"day zero", 0, receipt(2021, 3, 10)},
		{"thirty in february", 30, receipt(2021, 3, 1)},
		{"thirty-one in april", 31, receipt(2021, 5, 1)},
		{"thirty-two", 32, receipt(2021, 3, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.day, true, tt.received)
			if !errors.Is(err, ErrInvalidDate) {
				t.Errorf("Expected ErrInvalidDate, got %v", err)
			}
		})
	}

	got, err := Resolve(28, true, receipt(2021, 3, 1))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != models.NewDate(2021, 2, 28) {
		t.Errorf("Resolve = %s, want 2021-02-28", got)
	}
}

func TestFor(t *testing.T) {
	form := &models.FormDefinition{
		ID: "f",
		Activities: []models.Activity{
			{Name: "week-one", Start: models.NewDate(2021, 3, 1), End: models.NewDate(2021, 3, 8)},
			{Name: "week-two", Start: models.NewDate(2021, 3, 8), End: models.NewDate(2021, 3, 15)},
		},
	}

	tests := []struct {
		name string
		date models.Date
		want models.ReportingPeriod
	}{
		{
			name: "inside first activity",
			date: models.NewDate(2021, 3, 7),
			want: models.ReportingPeriod{Activity: "week-one", Start: models.NewDate(2021, 3, 1), End: models.NewDate(2021, 3, 8)},
		},
		{
			name: "end is exclusive",
			date: models.NewDate(2021, 3, 8),
			want: models.ReportingPeriod{Activity: "week-two", Start: models.NewDate(2021, 3, 8), End: models.NewDate(2021, 3, 15)},
		},
		{
			name: "outside every activity",
			date: models.NewDate(2021, 3, 31),
			want: models.ReportingPeriod{Start: models.NewDate(2021, 3, 31), End: models.NewDate(2021, 4, 1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := For(form, tt.date); got != tt.want {
				t.Errorf("For(%s) = %+v, want %+v", tt.date, got, tt.want)
			}
		})
	}
}
