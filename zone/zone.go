// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package zone represents a geographic timezone as a time-ordered
// sequence of offset transitions, built either from decoded TZif data,
// from a POSIX TZ rule or from YAML configuration. Lookups of the
// offset in effect at a given time binary search the recorded timeline
// and fall back to the zone's rule for times beyond the recorded data.
package zone

import (
	"fmt"
	"sort"
	"time"

	"cloudeng.io/errors"
	"github.com/cosnicolaou/tzdb/transition"
	"github.com/cosnicolaou/tzdb/tzif"
)

// Zone is a named timeline of offset transitions. The zero value is
// not usable; construct zones with New, FromTZif or ParseConfig.
type Zone struct {
	name        string
	first       transition.Offset
	transitions []*transition.Transition
	rule        *Rule
}

// New returns a zone with the supplied recorded transitions, which must
// be in ascending order of transition instant and form a chain: each
// transition's previous offset must be the offset established by its
// predecessor (or first, for the initial transition). rule, which may
// be nil, extends the timeline beyond the last recorded transition.
func New(name string, first transition.Offset, transitions []*transition.Transition, rule *Rule) (*Zone, error) {
	var errs errors.M
	prev := first
	last := int64(0)
	for i, tr := range transitions {
		if tr.Previous() != prev {
			errs.Append(fmt.Errorf("transition %v: previous offset %v does not chain from %v", i, tr.Previous(), prev))
		}
		if at := tr.At().Unix(); i > 0 && at <= last {
			errs.Append(fmt.Errorf("transition %v: %v is not after its predecessor", i, tr.At()))
		} else {
			last = at
		}
		prev = tr.Offset()
	}
	if err := errs.Err(); err != nil {
		return nil, fmt.Errorf("zone %v: %w", name, err)
	}
	return &Zone{name: name, first: first, transitions: transitions, rule: rule}, nil
}

// FromTZif builds a zone from decoded TZif data. Transition instants
// are timestamp-flavored since the file records them as epoch seconds.
// A nonempty footer TZ string becomes the zone's rule.
func FromTZif(name string, d tzif.Data) (*Zone, error) {
	first := transition.Offset{}
	if len(d.Types) > 0 {
		// The first non-DST type is the offset in effect before the
		// first transition, per the common tzdata convention.
		zt := d.Types[0]
		for _, cand := range d.Types {
			if !cand.DST {
				zt = cand
				break
			}
		}
		first = transition.NewOffset(zt.Designation, zt.OffsetSeconds, zt.DST)
	}
	prev := first
	transitions := make([]*transition.Transition, 0, len(d.TransitionTimes))
	for i, when := range d.TransitionTimes {
		zt, err := d.TypeAt(i)
		if err != nil {
			return nil, fmt.Errorf("zone %v: %w", name, err)
		}
		to := transition.NewOffset(zt.Designation, zt.OffsetSeconds, zt.DST)
		transitions = append(transitions, transition.New(to, prev,
			transition.FixedInstant{When: transition.NewUnix(when)}))
		prev = to
	}
	var rule *Rule
	if len(d.TZString) > 0 {
		r, err := ParsePosixTZ(d.TZString)
		if err != nil {
			return nil, fmt.Errorf("zone %v: %w", name, err)
		}
		rule = &r
	}
	return New(name, first, transitions, rule)
}

// Name returns the zone's name, eg. America/Los_Angeles.
func (z *Zone) Name() string {
	return z.name
}

// Transitions returns the recorded transitions in ascending order. The
// returned slice is shared and must not be modified.
func (z *Zone) Transitions() []*transition.Transition {
	return z.transitions
}

// Rule returns the POSIX rule extending the timeline beyond the last
// recorded transition, or nil if there is none.
func (z *Zone) Rule() *Rule {
	return z.rule
}

// Offsets returns the distinct offsets appearing on the zone's
// timeline, in order of first appearance.
func (z *Zone) Offsets() []transition.Offset {
	seen := map[transition.Offset]bool{z.first: true}
	offsets := []transition.Offset{z.first}
	for _, tr := range z.transitions {
		if !seen[tr.Offset()] {
			seen[tr.Offset()] = true
			offsets = append(offsets, tr.Offset())
		}
	}
	return offsets
}

// Lookup returns the offset in effect at the supplied time. Times
// before the first recorded transition use the zone's initial offset;
// times after the last recorded transition consult the zone's rule if
// it has one.
func (z *Zone) Lookup(when time.Time) transition.Offset {
	secs := when.Unix()
	n := len(z.transitions)
	if n == 0 || secs < z.transitions[0].At().Unix() {
		if len(z.transitions) == 0 && z.rule != nil {
			return z.rule.Lookup(when)
		}
		return z.first
	}
	if secs >= z.transitions[n-1].At().Unix() && z.rule != nil {
		return z.rule.Lookup(when)
	}
	// Index of the first transition strictly after when; the one
	// before it is in effect.
	i := sort.Search(n, func(i int) bool {
		return z.transitions[i].At().Unix() > secs
	})
	return z.transitions[i-1].Offset()
}

// Next returns the first transition occurring strictly after the
// supplied time, consulting the zone's rule beyond the recorded data,
// or nil if there is none.
func (z *Zone) Next(when time.Time) *transition.Transition {
	secs := when.Unix()
	n := len(z.transitions)
	i := sort.Search(n, func(i int) bool {
		return z.transitions[i].At().Unix() > secs
	})
	if i < n {
		return z.transitions[i]
	}
	if z.rule == nil {
		return nil
	}
	for year := when.Year(); year <= when.Year()+1; year++ {
		for _, tr := range z.rule.TransitionsForYear(year) {
			if tr.At().Unix() > secs {
				return tr
			}
		}
	}
	return nil
}

// Between returns the transitions occurring in [from, to): the recorded
// ones plus, if the zone has a rule, rule-derived transitions for the
// years beyond the recorded data.
func (z *Zone) Between(from, to time.Time) []*transition.Transition {
	out := []*transition.Transition{}
	lastRecorded := int64(0)
	for _, tr := range z.transitions {
		at := tr.At().Unix()
		lastRecorded = at
		if at >= from.Unix() && at < to.Unix() {
			out = append(out, tr)
		}
	}
	if z.rule == nil {
		return out
	}
	for year := from.Year(); year <= to.Year(); year++ {
		for _, tr := range z.rule.TransitionsForYear(year) {
			at := tr.At().Unix()
			if at <= lastRecorded {
				continue
			}
			if at >= from.Unix() && at < to.Unix() {
				out = append(out, tr)
			}
		}
	}
	return out
}

func (z *Zone) String() string {
	return fmt.Sprintf("%v: %v transitions", z.name, len(z.transitions))
}
