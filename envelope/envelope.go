// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package envelope

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/danielhkuo/fieldcode/models"
)

// Marker is the character that flags the message as the marker form kind.
const Marker = "!"

// Matcher matches normalized codes against one composed, anchored pattern.
type Matcher struct {
	re *regexp.Regexp

	observer, prefix, day, locType, location, marker, responses int
}

// NewMatcher compiles the envelope pattern for the given form prefixes and
// location-type codes. Both are matched case-insensitively, longest first.
func NewMatcher(prefixes, locationTypes []string) (*Matcher, error) {
	if len(prefixes) == 0 {
		return nil, fmt.Errorf("at least one form prefix is required")
	}
	if len(locationTypes) == 0 {
		return nil, fmt.Errorf("at least one location type is required")
	}

	pattern := `(?i)^` +
		`(?P<observer>\d+)` +
		`(?P<prefix>` + alternation(prefixes) + `)` +
		`(?P<day>\d{1,2})?` +
		`(?P<loctype>` + alternation(locationTypes) + `)` +
		`(?P<location>\d+)` +
		`(?P<marker>` + regexp.QuoteMeta(Marker) + `)?` +
		`(?P<responses>.*)$`

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to compile envelope pattern: %w", err)
	}

	return &Matcher{
		re:        re,
		observer:  re.SubexpIndex("observer"),
		prefix:    re.SubexpIndex("prefix"),
		day:       re.SubexpIndex("day"),
		locType:   re.SubexpIndex("loctype"),
		location:  re.SubexpIndex("location"),
		marker:    re.SubexpIndex("marker"),
		responses: re.SubexpIndex("responses"),
	}, nil
}

// Match extracts the envelope from a normalized code. It succeeds fully or
// returns false; there is no partial envelope.
func (m *Matcher) Match(code string) (models.Envelope, bool) {
	sub := m.re.FindStringSubmatch(code)
	if sub == nil {
		return models.Envelope{}, false
	}

	env := models.Envelope{
		ObserverID:   sub[m.observer],
		Prefix:       strings.ToUpper(sub[m.prefix]),
		LocationType: strings.ToUpper(sub[m.locType]),
		LocationCode: sub[m.location],
		Marker:       sub[m.marker] != "",
		Responses:    sub[m.responses],
	}

	if d := sub[m.day]; d != "" {
		day, err := strconv.Atoi(d)
		if err != nil {
			return models.Envelope{}, false
		}
		env.Day = day
		env.HasDay = true
	}

	return env, true
}

// alternation builds a non-capturing group of literals, longest first so a
// short literal never wins over a longer one sharing its head.
func alternation(literals []string) string {
	sorted := make([]string, 0, len(literals))
	for _, l := range literals {
		sorted = append(sorted, regexp.QuoteMeta(strings.ToUpper(l)))
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) > len(sorted[j])
		}
		return sorted[i] < sorted[j]
	})
	return "(?:" + strings.Join(sorted, "|") + ")"
}
