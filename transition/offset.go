// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package transition provides the value types used to represent a single
// change in a timezone's UTC offset: the Offset in effect on either side
// of the change, the Instant at which the change takes effect and the
// Transition record that ties them together. Transitions are produced by
// the tzif and zone packages and consumed by anything that needs to walk
// a zone's timeline.
package transition

import (
	"fmt"
	"hash/fnv"
	"time"
)

// Offset describes a fixed UTC offset and its abbreviation as in effect
// during a single observance period, eg. PST at -28800 seconds or PDT at
// -25200 seconds. Offsets are immutable and comparable.
type Offset struct {
	abbrev string
	secs   int
	dst    bool
}

// NewOffset returns an offset with the supplied abbreviation, total
// seconds east of UTC and daylight saving indicator.
func NewOffset(abbrev string, secs int, dst bool) Offset {
	return Offset{abbrev: abbrev, secs: secs, dst: dst}
}

// Abbrev returns the abbreviation for the offset, eg. PST.
func (o Offset) Abbrev() string {
	return o.abbrev
}

// Seconds returns the total offset from UTC in seconds, positive east
// of UTC.
func (o Offset) Seconds() int {
	return o.secs
}

// Duration returns the offset from UTC as a time.Duration.
func (o Offset) Duration() time.Duration {
	return time.Duration(o.secs) * time.Second
}

// IsDST returns true if the offset represents a daylight saving
// observance.
func (o Offset) IsDST() bool {
	return o.dst
}

// Hash returns a stable hash of the offset's abbreviation, seconds and
// daylight saving indicator.
func (o Offset) Hash() uint64 {
	h := fnv.New64a()
	h.Write([]byte(o.abbrev))
	var buf [9]byte
	s := int64(o.secs)
	for i := 0; i < 8; i++ {
		buf[i] = byte(s >> (i * 8))
	}
	if o.dst {
		buf[8] = 1
	}
	h.Write(buf[:])
	return h.Sum64()
}

// Location returns a fixed time.Location for the offset, named after
// its abbreviation.
func (o Offset) Location() *time.Location {
	return time.FixedZone(o.abbrev, o.secs)
}

func (o Offset) String() string {
	sign := "+"
	secs := o.secs
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	s := fmt.Sprintf("%s (UTC%s%02d:%02d", o.abbrev, sign, secs/3600, (secs%3600)/60)
	if o.dst {
		s += ", DST"
	}
	return s + ")"
}
