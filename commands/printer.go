// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/danielhkuo/fieldcode/handlers"
	"github.com/danielhkuo/fieldcode/models"
)

var (
	// Color definitions
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

func printSuccess(w io.Writer, format string, a ...any) {
	green.Fprintf(w, "✓ "+format+"\n", a...)
}

func printWarning(w io.Writer, format string, a ...any) {
	yellow.Fprintf(w, "⚠️  "+format+"\n", a...)
}

func printError(w io.Writer, err error) {
	red.Fprintf(w, "Error: %v\n", err)
}

// printParse writes a human-readable account of a dry-run parse.
func printParse(w io.Writer, res *handlers.Result, replies []string) {
	if res.Envelope == nil {
		red.Fprintln(w, "Envelope: no match")
	} else {
		env := res.Envelope
		cyan.Fprintf(w, "Envelope: observer %s, form %s, location %s%s", env.ObserverID, env.Prefix, env.LocationType, env.LocationCode)
		if env.Marker {
			cyan.Fprint(w, ", marker")
		}
		fmt.Fprintln(w)
	}

	if res.FormID != "" {
		fmt.Fprintf(w, "Form:     %s\n", res.FormID)
	}
	if res.ReportDate != nil {
		fmt.Fprintf(w, "Date:     %s", res.ReportDate)
		if res.Period != nil && res.Period.Activity != "" {
			fmt.Fprintf(w, " (activity %s, %s)", res.Period.Activity, res.Period.Key())
		}
		fmt.Fprintln(w)
	}

	status := res.Outcome.Status
	switch {
	case status == models.StatusOk && len(res.Outcome.ValueProblems) == 0:
		green.Fprintf(w, "Status:   %s\n", status)
	case status == models.StatusEnvelopeMismatch || res.Failure != "":
		red.Fprintf(w, "Status:   %s\n", status)
	default:
		yellow.Fprintf(w, "Status:   %s\n", status)
	}

	if len(res.Outcome.Values) > 0 {
		tags := make([]string, 0, len(res.Outcome.Values))
		for tag := range res.Outcome.Values {
			tags = append(tags, tag)
		}
		sort.Strings(tags)

		fmt.Fprintln(w, "Values:")
		for _, tag := range tags {
			fmt.Fprintf(w, "  %-4s %s\n", tag, res.Outcome.Values[tag])
		}
	}

	for _, p := range res.Outcome.ValueProblems {
		yellow.Fprintf(w, "  %-4s %s (%s)\n", p.Tag, p.Kind, p.Raw)
	}
	if len(res.Outcome.UnknownTags) > 0 {
		yellow.Fprintf(w, "Unknown tags: %s\n", strings.Join(res.Outcome.UnknownTags, ", "))
	}
	if len(res.Outcome.MultipleEntries) > 0 {
		yellow.Fprintf(w, "Conflicting tags: %s\n", strings.Join(res.Outcome.MultipleEntries, ", "))
	}
	if len(res.Outcome.UnexpectedInput) > 0 {
		yellow.Fprintf(w, "Leftover input: %q\n", res.Outcome.UnexpectedInput)
	}

	fmt.Fprintln(w, "Reply:")
	for _, line := range replies {
		fmt.Fprintf(w, "  %s\n", line)
	}
}
