// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package transition

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"cloudeng.io/datetime"
)

// ErrUnspecifiedInstant is the panic value raised by Transition.At when
// the transition was constructed without an InstantSource. Such a
// transition is a construction-time bug and not a runtime condition to
// recover from.
var ErrUnspecifiedInstant = errors.New("transition: instant source not specified")

// InstantSource supplies the UTC instant at which a transition takes
// effect. Implementations must be deterministic and side-effect free;
// repeated calls must return equal instants since the transition's
// derived local times are memoized from a single observation.
//
// FixedInstant provides a source backed by a precomputed instant; the
// zone package provides a source that derives the instant from a POSIX
// transition rule evaluated for a given year.
type InstantSource interface {
	At() Instant
}

// FixedInstant is an InstantSource backed by a stored instant.
type FixedInstant struct {
	When Instant
}

// At implements InstantSource.
func (f FixedInstant) At() Instant {
	return f.When
}

// Transition records a single change in a zone's UTC offset: the offset
// in effect before the change, the offset that becomes active at it and
// the UTC instant at which it occurs. A transition is immutable apart
// from two internally memoized values, the local civil times at which
// the old observance ends and the new one begins.
type Transition struct {
	offset   Offset
	previous Offset
	source   InstantSource

	// localEnd and localStart memoize the derived local instants.
	// They are pure functions of the immutable fields above, so
	// concurrent first access may compute redundantly but every
	// stored value is equal; no lock is taken.
	localEnd   atomic.Pointer[Instant]
	localStart atomic.Pointer[Instant]
}

// New returns a transition from previous to offset occurring at the
// instant supplied by source. The offsets are not validated against
// each other; chronological sanity is the caller's concern. A nil
// source is permitted at construction but At and everything derived
// from it will panic with ErrUnspecifiedInstant.
func New(offset, previous Offset, source InstantSource) *Transition {
	return &Transition{offset: offset, previous: previous, source: source}
}

// Offset returns the offset that becomes active at this transition.
func (t *Transition) Offset() Offset {
	return t.offset
}

// Previous returns the offset in effect immediately before this
// transition.
func (t *Transition) Previous() Offset {
	return t.previous
}

// At returns the UTC instant at which the transition takes effect.
// It panics with ErrUnspecifiedInstant if the transition was built
// without an InstantSource.
func (t *Transition) At() Instant {
	if t.source == nil {
		panic(ErrUnspecifiedInstant)
	}
	return t.source.At()
}

// Time returns the transition instant as a time.Time in UTC.
func (t *Transition) Time() time.Time {
	return t.At().Time()
}

// Calendar returns the transition instant as a UTC calendar date and
// time of day.
func (t *Transition) Calendar() (datetime.CalendarDate, datetime.TimeOfDay) {
	return t.At().Calendar()
}

// LocalEndAt returns the local instant, in the previous offset's frame,
// at which the prior observance ends. The value is computed on first
// use and memoized.
func (t *Transition) LocalEndAt() Instant {
	if p := t.localEnd.Load(); p != nil {
		return *p
	}
	v := t.At().Shift(t.previous.Duration())
	t.localEnd.Store(&v)
	return v
}

// LocalEnd returns LocalEndAt as a time.Time in the previous offset's
// fixed location.
func (t *Transition) LocalEnd() time.Time {
	return time.Unix(t.LocalEndAt().Unix()-int64(t.previous.Seconds()), 0).In(t.previous.Location())
}

// LocalEndCalendar returns LocalEndAt as a calendar date and time of
// day.
func (t *Transition) LocalEndCalendar() (datetime.CalendarDate, datetime.TimeOfDay) {
	return t.LocalEndAt().Calendar()
}

// LocalStartAt returns the local instant, in the new offset's frame, at
// which the new observance starts. The value is computed on first use
// and memoized.
func (t *Transition) LocalStartAt() Instant {
	if p := t.localStart.Load(); p != nil {
		return *p
	}
	v := t.At().Shift(t.offset.Duration())
	t.localStart.Store(&v)
	return v
}

// LocalStart returns LocalStartAt as a time.Time in the new offset's
// fixed location.
func (t *Transition) LocalStart() time.Time {
	return time.Unix(t.LocalStartAt().Unix()-int64(t.offset.Seconds()), 0).In(t.offset.Location())
}

// LocalStartCalendar returns LocalStartAt as a calendar date and time
// of day.
func (t *Transition) LocalStartCalendar() (datetime.CalendarDate, datetime.TimeOfDay) {
	return t.LocalStartAt().Calendar()
}

// Equal returns true if both transitions have equal offsets, equal
// previous offsets and instants denoting the same point in time. The
// instants are compared across representation families.
func (t *Transition) Equal(o *Transition) bool {
	if o == nil {
		return false
	}
	return t.offset == o.offset && t.previous == o.previous && t.At().Same(o.At())
}

// Identical returns true if Equal is true and in addition both
// transition instants are in the same representation family. A zone
// loaded from TZif data records timestamp-flavored instants whereas one
// derived from calendar rules records calendar-flavored ones; callers
// that key caches or deduplication on exact reproducibility need this
// stricter comparison.
func (t *Transition) Identical(o *Transition) bool {
	if o == nil {
		return false
	}
	return t.offset == o.offset && t.previous == o.previous && t.At().Identical(o.At())
}

// Hash returns a stable, order-sensitive combination of the hashes of
// the offset, the previous offset and the transition instant. The
// instant's hash is representation-sensitive, so two transitions for
// which Equal is true may nonetheless hash differently if their
// instants differ in representation family.
func (t *Transition) Hash() uint64 {
	h := t.offset.Hash()
	h = h*31 ^ t.previous.Hash()
	h = h*31 ^ t.At().Hash()
	return h
}

func (t *Transition) String() string {
	return fmt.Sprintf("%v: %v -> %v", t.At(), t.previous, t.offset)
}
