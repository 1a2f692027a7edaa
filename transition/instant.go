// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package transition

import (
	"time"

	"cloudeng.io/datetime"
)

// Instant is a point in time that remembers how it was constructed:
// either from a precise timestamp or from calendar fields. The two
// families denote points on the same POSIX epoch-seconds timeline and
// convert freely to either concrete form, but the family is preserved
// across Shift so that data loaded from timestamp-oriented sources
// (eg. TZif data blocks) remains distinguishable from data derived
// from calendar rules. Instants are immutable and comparable.
//
// Arithmetic is plain epoch-seconds arithmetic; leap seconds are not
// represented, matching the POSIX timeline used by TZif and time.Time.
type Instant struct {
	secs     int64
	calendar bool
}

// NewTimestamp returns a timestamp-flavored instant for the supplied
// time, truncated to second precision.
func NewTimestamp(t time.Time) Instant {
	return Instant{secs: t.Unix()}
}

// NewUnix returns a timestamp-flavored instant for the supplied POSIX
// epoch seconds.
func NewUnix(secs int64) Instant {
	return Instant{secs: secs}
}

// NewCalendar returns a calendar-flavored instant for the supplied
// date and time of day interpreted in UTC.
func NewCalendar(cd datetime.CalendarDate, tod datetime.TimeOfDay) Instant {
	return Instant{secs: cd.Time(tod, time.UTC).Unix(), calendar: true}
}

// Unix returns the instant as POSIX epoch seconds.
func (i Instant) Unix() int64 {
	return i.secs
}

// Time returns the instant as a time.Time in UTC.
func (i Instant) Time() time.Time {
	return time.Unix(i.secs, 0).UTC()
}

// Calendar returns the instant as a UTC calendar date and time of day.
func (i Instant) Calendar() (datetime.CalendarDate, datetime.TimeOfDay) {
	t := i.Time()
	return datetime.NewCalendarDate(t.Year(), datetime.Month(t.Month()), t.Day()),
		datetime.NewTimeOfDay(t.Hour(), t.Minute(), t.Second())
}

// IsCalendar returns true if the instant was constructed from calendar
// fields rather than a timestamp.
func (i Instant) IsCalendar() bool {
	return i.calendar
}

// Shift returns the instant moved by the supplied duration. The result
// is in the same representation family as the receiver, so shifting a
// UTC instant into a local frame does not lose how the instant was
// originally expressed.
func (i Instant) Shift(d time.Duration) Instant {
	return Instant{secs: i.secs + int64(d/time.Second), calendar: i.calendar}
}

// Same returns true if both instants denote the same point in time,
// regardless of representation family.
func (i Instant) Same(o Instant) bool {
	return i.secs == o.secs
}

// Identical returns true if both instants denote the same point in time
// and are in the same representation family.
func (i Instant) Identical(o Instant) bool {
	return i == o
}

// Hash returns a stable hash of the instant. The hash is sensitive to
// the representation family: two instants for which Same is true but
// Identical is false hash differently.
func (i Instant) Hash() uint64 {
	h := uint64(i.secs) * 0x9e3779b97f4a7c15
	if i.calendar {
		h ^= 0xc2b2ae3d27d4eb4f
	}
	return h
}

func (i Instant) String() string {
	if i.calendar {
		cd, tod := i.Calendar()
		return cd.String() + " " + tod.String()
	}
	return i.Time().Format(time.RFC3339)
}
