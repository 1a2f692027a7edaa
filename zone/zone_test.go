// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package zone_test

import (
	"strings"
	"testing"
	"time"

	"github.com/cosnicolaou/tzdb/transition"
	"github.com/cosnicolaou/tzdb/tzif"
	"github.com/cosnicolaou/tzdb/zone"
)

var (
	pst = transition.NewOffset("PST", -8*3600, false)
	pdt = transition.NewOffset("PDT", -7*3600, true)
)

func pacificTZif() tzif.Data {
	return tzif.Data{
		Version: tzif.V2,
		TransitionTimes: []int64{
			time.Date(2021, 3, 14, 10, 0, 0, 0, time.UTC).Unix(),
			time.Date(2021, 11, 7, 9, 0, 0, 0, time.UTC).Unix(),
		},
		TransitionTypes: []uint8{1, 0},
		Types: []tzif.ZoneType{
			{OffsetSeconds: -8 * 3600, DST: false, Designation: "PST"},
			{OffsetSeconds: -7 * 3600, DST: true, Designation: "PDT"},
		},
		TZString: "PST8PDT,M3.2.0,M11.1.0",
	}
}

func TestFromTZif(t *testing.T) {
	z, err := zone.FromTZif("America/Los_Angeles", pacificTZif())
	if err != nil {
		t.Fatal(err)
	}
	if got, want := z.Name(), "America/Los_Angeles"; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := len(z.Transitions()), 2; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	tr := z.Transitions()[0]
	if got, want := tr.Previous(), pst; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := tr.Offset(), pdt; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if tr.At().IsCalendar() {
		t.Errorf("TZif instants should be timestamp-flavored")
	}
	if got, want := len(z.Offsets()), 2; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if z.Rule() == nil {
		t.Errorf("footer TZ string should become the zone's rule")
	}
}

func TestLookup(t *testing.T) {
	z, err := zone.FromTZif("America/Los_Angeles", pacificTZif())
	if err != nil {
		t.Fatal(err)
	}
	date := func(m time.Month, d, h int) time.Time {
		return time.Date(2021, m, d, h, 0, 0, 0, time.UTC)
	}
	for i, tc := range []struct {
		when time.Time
		want transition.Offset
	}{
		{date(1, 1, 0), pst},                 // before the first transition
		{date(3, 14, 9), pst},                // one second shy is still standard time
		{date(3, 14, 10), pdt},               // the transition instant itself
		{date(7, 4, 12), pdt},                // midsummer
		{date(11, 7, 9), pst},                // fall back
		{date(12, 25, 0), pst},               // after the last recorded transition
	} {
		if got, want := z.Lookup(tc.when), tc.want; got != want {
			t.Errorf("%v: %v: got %v, want %v", i, tc.when, got, want)
		}
	}
	// Beyond the recorded data the rule takes over: 2022 springs
	// forward on March 13.
	if got, want := z.Lookup(time.Date(2022, 3, 13, 10, 0, 0, 0, time.UTC)), pdt; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := z.Lookup(time.Date(2022, 3, 13, 9, 0, 0, 0, time.UTC)), pst; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNextAndBetween(t *testing.T) {
	z, err := zone.FromTZif("America/Los_Angeles", pacificTZif())
	if err != nil {
		t.Fatal(err)
	}
	next := z.Next(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))
	if next == nil {
		t.Fatal("expected a next transition")
	}
	if got, want := next.Time(), time.Date(2021, 3, 14, 10, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	// Beyond the recorded transitions Next consults the rule.
	next = z.Next(time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC))
	if next == nil {
		t.Fatal("expected a rule derived transition")
	}
	if got, want := next.Time(), time.Date(2022, 3, 13, 10, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if !next.At().IsCalendar() {
		t.Errorf("rule derived transitions should be calendar-flavored")
	}

	between := z.Between(
		time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
	// Two recorded in 2021 plus two rule derived in 2022.
	if got, want := len(between), 4; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := 1; i < len(between); i++ {
		if !between[i-1].Time().Before(between[i].Time()) {
			t.Errorf("%v: transitions out of order", i)
		}
	}
}

func TestChainValidation(t *testing.T) {
	at := time.Date(2021, 3, 14, 10, 0, 0, 0, time.UTC)
	good := transition.New(pdt, pst, transition.FixedInstant{When: transition.NewTimestamp(at)})
	broken := transition.New(pst, pst, transition.FixedInstant{When: transition.NewTimestamp(at.Add(time.Hour))})

	if _, err := zone.New("ok", pst, []*transition.Transition{good}, nil); err != nil {
		t.Fatal(err)
	}
	_, err := zone.New("broken", pst, []*transition.Transition{good, broken}, nil)
	if err == nil || !strings.Contains(err.Error(), "does not chain") {
		t.Errorf("got %v, want a chain error", err)
	}
	outOfOrder := transition.New(pst, pdt, transition.FixedInstant{When: transition.NewTimestamp(at.Add(-time.Hour))})
	_, err = zone.New("unordered", pst, []*transition.Transition{good, outOfOrder}, nil)
	if err == nil || !strings.Contains(err.Error(), "not after its predecessor") {
		t.Errorf("got %v, want an ordering error", err)
	}
}

func TestRecordedAndDerivedEquality(t *testing.T) {
	// The same transition loaded from TZif data and derived from the
	// rule denotes the same instant but in different representation
	// families: Equal but not Identical.
	z, err := zone.FromTZif("America/Los_Angeles", pacificTZif())
	if err != nil {
		t.Fatal(err)
	}
	recorded := z.Transitions()[0]
	derived := z.Rule().TransitionsForYear(2021)[0]
	if !recorded.Equal(derived) {
		t.Errorf("recorded %v and derived %v should be equal", recorded, derived)
	}
	if recorded.Identical(derived) {
		t.Errorf("recorded and derived transitions should differ in representation")
	}
}
