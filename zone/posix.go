// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package zone

import (
	"fmt"
	"strings"
	"time"

	"cloudeng.io/datetime"
	"github.com/cosnicolaou/tzdb/transition"
)

// Rule is a parsed POSIX TZ string, eg. PST8PDT,M3.2.0,M11.1.0, as
// found in the footer of V2+ TZif files. It describes the offsets in
// effect after the last recorded transition and the yearly rules for
// switching between them.
type Rule struct {
	src        string
	std, dst   transition.Offset
	hasDST     bool
	start, end ruleDate
}

// String returns the TZ string the rule was parsed from.
func (r Rule) String() string {
	return r.src
}

// ruleDate is one side of the rule pair: a day-of-year specification
// plus the local time of day, in seconds, at which the change occurs.
type ruleDate struct {
	form   byte // 'M', 'J' or 'n'
	mon    int  // M form: month 1-12
	week   int  // M form: week 1-5, 5 meaning the last
	day    int  // M form: weekday 0-6, Sunday is 0; J and n forms: day number
	daynum int
	secs   int // local time of day, seconds after midnight
}

// Std returns the standard time offset.
func (r Rule) Std() transition.Offset {
	return r.std
}

// DST returns the daylight saving offset and whether the rule defines
// one.
func (r Rule) DST() (transition.Offset, bool) {
	return r.dst, r.hasDST
}

// ParsePosixTZ parses a POSIX TZ string. Offsets in TZ strings are
// positive west of UTC; they are negated into the seconds-east
// convention used throughout. A DST designation without explicit rules
// uses the current US rules, as POSIX directs.
func ParsePosixTZ(s string) (Rule, error) {
	r := Rule{src: s}
	rest := s
	var err error
	var stdAbbrev, dstAbbrev string
	var stdSecs int

	if stdAbbrev, rest, err = abbrev(rest); err != nil {
		return r, fmt.Errorf("posix tz %q: %w", s, err)
	}
	if stdSecs, rest, err = offset(rest); err != nil {
		return r, fmt.Errorf("posix tz %q: standard offset: %w", s, err)
	}
	r.std = transition.NewOffset(stdAbbrev, -stdSecs, false)
	if len(rest) == 0 {
		return r, nil
	}

	if dstAbbrev, rest, err = abbrev(rest); err != nil {
		return r, fmt.Errorf("posix tz %q: %w", s, err)
	}
	dstSecs := stdSecs - 3600
	if len(rest) > 0 && rest[0] != ',' {
		if dstSecs, rest, err = offset(rest); err != nil {
			return r, fmt.Errorf("posix tz %q: dst offset: %w", s, err)
		}
	}
	r.dst = transition.NewOffset(dstAbbrev, -dstSecs, true)
	r.hasDST = true

	r.start = ruleDate{form: 'M', mon: 3, week: 2, day: 0, secs: 2 * 3600}
	r.end = ruleDate{form: 'M', mon: 11, week: 1, day: 0, secs: 2 * 3600}
	if len(rest) == 0 {
		return r, nil
	}
	if rest[0] != ',' {
		return r, fmt.Errorf("posix tz %q: expected rule list, got %q", s, rest)
	}
	start, end, ok := strings.Cut(rest[1:], ",")
	if !ok {
		return r, fmt.Errorf("posix tz %q: expected two rules", s)
	}
	if r.start, err = parseRuleDate(start); err != nil {
		return r, fmt.Errorf("posix tz %q: start rule: %w", s, err)
	}
	if r.end, err = parseRuleDate(end); err != nil {
		return r, fmt.Errorf("posix tz %q: end rule: %w", s, err)
	}
	return r, nil
}

// TransitionsForYear returns the rule's transitions for the supplied
// year in ascending order: standard to DST at the start rule and back
// at the end rule. The instants are calendar-flavored since they are
// derived from calendar rules rather than recorded timestamps. Rules
// without DST yield no transitions. Southern hemisphere style rules,
// where the end rule precedes the start rule in the calendar year, are
// returned in time order.
func (r Rule) TransitionsForYear(year int) []*transition.Transition {
	if !r.hasDST {
		return nil
	}
	toDST := transition.New(r.dst, r.std, ruleInstant{date: r.start, year: year, frame: r.std.Seconds()})
	toStd := transition.New(r.std, r.dst, ruleInstant{date: r.end, year: year, frame: r.dst.Seconds()})
	if toStd.At().Unix() < toDST.At().Unix() {
		return []*transition.Transition{toStd, toDST}
	}
	return []*transition.Transition{toDST, toStd}
}

// Lookup returns the offset in effect at the supplied time under the
// rule alone.
func (r Rule) Lookup(when time.Time) transition.Offset {
	if !r.hasDST {
		return r.std
	}
	secs := when.Unix()
	offset := r.std
	for _, tr := range r.TransitionsForYear(when.Year()) {
		if tr.At().Unix() <= secs {
			offset = tr.Offset()
		}
	}
	if secs < r.TransitionsForYear(when.Year())[0].At().Unix() {
		// Before the year's first transition the offset is the one
		// established at the end of the previous year.
		trs := r.TransitionsForYear(when.Year() - 1)
		offset = trs[len(trs)-1].Offset()
	}
	return offset
}

// ruleInstant derives a transition instant from a rule date evaluated
// for a year. frame is the offset, in seconds east of UTC, in effect
// immediately before the transition, used to convert the rule's local
// wall clock time to UTC. It implements transition.InstantSource.
type ruleInstant struct {
	date  ruleDate
	year  int
	frame int
}

// At implements transition.InstantSource.
func (r ruleInstant) At() transition.Instant {
	wall := r.date.wallTime(r.year)
	utc := wall.Add(-time.Duration(r.frame) * time.Second)
	return transition.NewCalendar(
		datetime.NewCalendarDate(utc.Year(), datetime.Month(utc.Month()), utc.Day()),
		datetime.NewTimeOfDay(utc.Hour(), utc.Minute(), utc.Second()))
}

// wallTime returns the rule's local wall clock time for the year,
// expressed as a UTC time.Time for arithmetic convenience.
func (d ruleDate) wallTime(year int) time.Time {
	var day time.Time
	switch d.form {
	case 'M':
		first := time.Date(year, time.Month(d.mon), 1, 0, 0, 0, 0, time.UTC)
		dom := 1 + (d.day-int(first.Weekday())+7)%7 + (d.week-1)*7
		for dom > daysIn(year, d.mon) {
			dom -= 7
		}
		day = time.Date(year, time.Month(d.mon), dom, 0, 0, 0, 0, time.UTC)
	case 'J':
		// Julian day 1-365, never counting February 29.
		day = time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d.daynum-1)
		if isLeap(year) && d.daynum >= 60 {
			day = day.AddDate(0, 0, 1)
		}
	default:
		// Zero based day-of-year, counting February 29.
		day = time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d.daynum)
	}
	return day.Add(time.Duration(d.secs) * time.Second)
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func abbrev(s string) (string, string, error) {
	if len(s) == 0 {
		return "", s, fmt.Errorf("missing designation")
	}
	if s[0] == '<' {
		end := strings.IndexByte(s, '>')
		if end < 0 {
			return "", s, fmt.Errorf("unterminated quoted designation")
		}
		return s[1:end], s[end+1:], nil
	}
	i := 0
	for i < len(s) && (s[i] >= 'A' && s[i] <= 'Z' || s[i] >= 'a' && s[i] <= 'z') {
		i++
	}
	if i < 3 {
		return "", s, fmt.Errorf("designation must be at least 3 characters: %q", s)
	}
	return s[:i], s[i:], nil
}

// offset parses [+|-]hh[:mm[:ss]] returning seconds and the remainder.
func offset(s string) (int, string, error) {
	sign := 1
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	var parts [3]int
	n := 0
	for ; n < 3; n++ {
		i := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			parts[n] = parts[n]*10 + int(s[i]-'0')
			i++
		}
		if i == 0 {
			break
		}
		s = s[i:]
		if len(s) == 0 || s[0] != ':' {
			n++
			break
		}
		s = s[1:]
	}
	if n == 0 {
		return 0, s, fmt.Errorf("missing numeric offset: %q", s)
	}
	return sign * (parts[0]*3600 + parts[1]*60 + parts[2]), s, nil
}

func parseRuleDate(s string) (ruleDate, error) {
	d := ruleDate{secs: 2 * 3600}
	spec, tod, hasTime := strings.Cut(s, "/")
	if hasTime {
		secs, rest, err := offset(tod)
		if err != nil || len(rest) != 0 {
			return d, fmt.Errorf("invalid time of day %q", tod)
		}
		d.secs = secs
	}
	switch {
	case len(spec) == 0:
		return d, fmt.Errorf("empty rule date")
	case spec[0] == 'M':
		if _, err := fmt.Sscanf(spec, "M%d.%d.%d", &d.mon, &d.week, &d.day); err != nil {
			return d, fmt.Errorf("invalid month rule %q", spec)
		}
		if d.mon < 1 || d.mon > 12 || d.week < 1 || d.week > 5 || d.day < 0 || d.day > 6 {
			return d, fmt.Errorf("month rule out of range %q", spec)
		}
		d.form = 'M'
	case spec[0] == 'J':
		if _, err := fmt.Sscanf(spec, "J%d", &d.daynum); err != nil || d.daynum < 1 || d.daynum > 365 {
			return d, fmt.Errorf("invalid julian rule %q", spec)
		}
		d.form = 'J'
	default:
		if _, err := fmt.Sscanf(spec, "%d", &d.daynum); err != nil || d.daynum < 0 || d.daynum > 365 {
			return d, fmt.Errorf("invalid day rule %q", spec)
		}
		d.form = 'n'
	}
	return d, nil
}
