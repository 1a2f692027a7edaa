// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package transition_test

import (
	"testing"
	"time"

	"cloudeng.io/datetime"
	"github.com/cosnicolaou/tzdb/transition"
)

func TestInstantFamilies(t *testing.T) {
	when := time.Date(2021, 3, 14, 10, 0, 0, 0, time.UTC)
	ts := transition.NewTimestamp(when)
	cal := transition.NewCalendar(
		datetime.NewCalendarDate(2021, 3, 14),
		datetime.NewTimeOfDay(10, 0, 0))

	if got, want := ts.Time(), when; !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := cal.Unix(), when.Unix(); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if !ts.Same(cal) {
		t.Errorf("timestamp and calendar forms of the same point should be Same")
	}
	if ts.Identical(cal) {
		t.Errorf("different representation families should not be Identical")
	}
	if ts.Hash() == cal.Hash() {
		t.Errorf("hash should be representation-sensitive")
	}
	if ts.IsCalendar() || !cal.IsCalendar() {
		t.Errorf("representation family not preserved by construction")
	}
}

func TestInstantShift(t *testing.T) {
	when := time.Date(2021, 3, 14, 10, 0, 0, 0, time.UTC)
	for _, tc := range []struct {
		instant transition.Instant
		shift   time.Duration
	}{
		{transition.NewTimestamp(when), time.Hour},
		{transition.NewTimestamp(when), -8 * time.Hour},
		{transition.NewCalendar(datetime.NewCalendarDate(2021, 3, 14), datetime.NewTimeOfDay(10, 0, 0)), time.Hour},
		{transition.NewUnix(when.Unix()), 0},
	} {
		shifted := tc.instant.Shift(tc.shift)
		if got, want := shifted.Unix(), tc.instant.Unix()+int64(tc.shift/time.Second); got != want {
			t.Errorf("%v: got %v, want %v", tc.instant, got, want)
		}
		if got, want := shifted.IsCalendar(), tc.instant.IsCalendar(); got != want {
			t.Errorf("%v: shift changed representation family", tc.instant)
		}
	}
}

func TestInstantCalendarConversion(t *testing.T) {
	i := transition.NewUnix(time.Date(2024, 11, 3, 9, 0, 0, 0, time.UTC).Unix())
	cd, tod := i.Calendar()
	if got, want := cd, datetime.NewCalendarDate(2024, 11, 3); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := tod, datetime.NewTimeOfDay(9, 0, 0); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}
