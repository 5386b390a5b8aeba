// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package period resolves report dates and the reporting period a submission
belongs to.

# Report date

Messages carry only a day of month. It is resolved against the receipt time:

	receipt 2021-03-10, no day  → 2021-03-10
	receipt 2021-03-10, day 5   → 2021-03-05
	receipt 2021-03-10, day 15  → 2021-02-15
	receipt 2021-01-10, day 15  → 2020-12-15

ResolveDate does no days-in-month check. Resolve does, and callers treat
ErrInvalidDate as an envelope mismatch.

# Reporting period

For picks the form activity whose [start, end) window contains the date, or
falls back to the single day [d, d+1).
*/
package period
