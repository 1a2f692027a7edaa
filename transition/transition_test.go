// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package transition_test

import (
	"sync"
	"testing"
	"time"

	"cloudeng.io/datetime"
	"github.com/cosnicolaou/tzdb/internal/testutil"
	"github.com/cosnicolaou/tzdb/transition"
)

var (
	std = transition.NewOffset("STD", 0, false)
	dst = transition.NewOffset("DST", 3600, true)
	at  = time.Date(2021, 3, 14, 10, 0, 0, 0, time.UTC)
)

func fixed(i transition.Instant) transition.InstantSource {
	return transition.FixedInstant{When: i}
}

func TestLocalDerivations(t *testing.T) {
	tr := transition.New(dst, std, fixed(transition.NewTimestamp(at)))

	// STD is +0, so the old observance ends at the UTC wall clock time.
	if got, want := tr.LocalEndAt(), tr.At().Shift(std.Duration()); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := tr.LocalEndAt().Time(), at; !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
	// DST is +3600, so the new observance starts at 11:00 local.
	if got, want := tr.LocalStartAt(), tr.At().Shift(dst.Duration()); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := tr.LocalStartAt().Time(), at.Add(time.Hour); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	// Repeated calls return the memoized value.
	if got, want := tr.LocalEndAt(), tr.LocalEndAt(); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := tr.LocalStartAt(), tr.LocalStartAt(); got != want {
		t.Errorf("got %v, want %v", got, want)
	}

	cd, tod := tr.LocalStartCalendar()
	if got, want := cd, datetime.NewCalendarDate(2021, 3, 14); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := tod, datetime.NewTimeOfDay(11, 0, 0); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLocalWallClock(t *testing.T) {
	pst := transition.NewOffset("PST", -8*3600, false)
	pdt := transition.NewOffset("PDT", -7*3600, true)
	// 2021-03-14 10:00 UTC is 02:00 PST, the US spring-forward boundary.
	tr := transition.New(pdt, pst, fixed(transition.NewTimestamp(at)))

	if got, want := tr.LocalEnd().Format("15:04 MST"), "02:00 PST"; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := tr.LocalStart().Format("15:04 MST"), "03:00 PDT"; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := tr.Time(), at; !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestEqualAndIdentical(t *testing.T) {
	ts := transition.New(dst, std, fixed(transition.NewTimestamp(at)))
	cal := transition.New(dst, std, fixed(transition.NewCalendar(
		datetime.NewCalendarDate(2021, 3, 14),
		datetime.NewTimeOfDay(10, 0, 0))))

	for _, tc := range []struct {
		a, b             *transition.Transition
		equal, identical bool
	}{
		{ts, ts, true, true},
		{ts, transition.New(dst, std, fixed(transition.NewTimestamp(at))), true, true},
		{ts, cal, true, false}, // same instant, different representation family
		{ts, transition.New(std, dst, fixed(transition.NewTimestamp(at))), false, false},
		{ts, transition.New(dst, std, fixed(transition.NewTimestamp(at.Add(time.Second)))), false, false},
		{ts, nil, false, false},
	} {
		if got, want := tc.a.Equal(tc.b), tc.equal; got != want {
			t.Errorf("%v == %v: got %v, want %v", tc.a, tc.b, got, want)
		}
		if got, want := tc.a.Identical(tc.b), tc.identical; got != want {
			t.Errorf("%v identical %v: got %v, want %v", tc.a, tc.b, got, want)
		}
		if tc.identical && !tc.equal {
			t.Errorf("identical transitions must also be equal")
		}
	}
}

func TestHash(t *testing.T) {
	a := transition.New(dst, std, fixed(transition.NewTimestamp(at)))
	b := transition.New(dst, std, fixed(transition.NewTimestamp(at)))
	cal := transition.New(dst, std, fixed(transition.NewCalendar(
		datetime.NewCalendarDate(2021, 3, 14),
		datetime.NewTimeOfDay(10, 0, 0))))

	if got, want := a.Hash(), a.Hash(); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got, want := a.Hash(), b.Hash(); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	// Equal but not Identical transitions are permitted to hash
	// differently; the instant hash is representation-sensitive.
	if !a.Equal(cal) {
		t.Errorf("expected equal transitions")
	}
	if a.Hash() == cal.Hash() {
		t.Errorf("representation families should be visible in the hash")
	}
	// Reversing the offsets must change the hash.
	if a.Hash() == transition.New(std, dst, fixed(transition.NewTimestamp(at))).Hash() {
		t.Errorf("hash combination should be order-sensitive")
	}
}

func TestUnspecifiedInstant(t *testing.T) {
	defer func() {
		if got, want := recover(), transition.ErrUnspecifiedInstant; got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	}()
	tr := transition.New(dst, std, nil)
	tr.At()
	t.Fatal("expected a panic")
}

func TestMemoization(t *testing.T) {
	src := &testutil.CountingSource{When: transition.NewTimestamp(at)}
	tr := transition.New(dst, std, src)

	tr.LocalEndAt()
	tr.LocalEndAt()
	if got, want := src.Calls(), int64(1); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	tr.LocalStartAt()
	tr.LocalStartAt()
	if got, want := src.Calls(), int64(2); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestConcurrentFirstAccess(t *testing.T) {
	tr := transition.New(dst, std, fixed(transition.NewTimestamp(at)))
	want := tr.At().Shift(std.Duration())

	const n = 64
	var wg sync.WaitGroup
	results := make([]transition.Instant, n)
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			results[i] = tr.LocalEndAt()
		}(i)
	}
	wg.Wait()
	for i, got := range results {
		if got != want {
			t.Errorf("%v: got %v, want %v", i, got, want)
		}
	}
}
