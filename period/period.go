// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package period

import (
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/fieldcode/models"
)

var ErrInvalidDate = errors.New("invalid report date")

// ResolveDate turns an optional day-of-month into a calendar date relative to
// the receipt time. A day later than the receipt day refers to the previous
// month. The result is not validated; see Resolve.
func ResolveDate(day int, hasDay bool, receivedAt time.Time) models.Date {
	receipt := models.DateOf(receivedAt)
	if !hasDay {
		return receipt
	}

	if day > receipt.Day {
		year, month := receipt.Year, receipt.Month-1
		if month < time.January {
			month = time.December
			year--
		}
		return models.NewDate(year, month, day)
	}

	return models.NewDate(receipt.Year, receipt.Month, day)
}

// Resolve is ResolveDate plus calendar validation. Day 31 in a 30-day month
// and day 0 both fail with ErrInvalidDate.
func Resolve(day int, hasDay bool, receivedAt time.Time) (models.Date, error) {
	d := ResolveDate(day, hasDay, receivedAt)
	if !d.Valid() {
		return models.Date{}, fmt.Errorf("%w: %s", ErrInvalidDate, d)
	}
	return d, nil
}

// For returns the reporting period containing d: the first of the form's
// activities that contains it, or the single day.
func For(form *models.FormDefinition, d models.Date) models.ReportingPeriod {
	for _, a := range form.Activities {
		p := models.ReportingPeriod{Activity: a.Name, Start: a.Start, End: a.End}
		if p.Contains(d) {
			return p
		}
	}
	return models.DayPeriod(d)
}
