// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package testutil

import (
	"sync/atomic"
	"time"

	"github.com/cosnicolaou/tzdb/transition"
	"github.com/cosnicolaou/tzdb/zone"
)

// CountingSource is a transition.InstantSource that records how often
// At is called, for verifying memoization behavior.
type CountingSource struct {
	When  transition.Instant
	calls atomic.Int64
}

// At implements transition.InstantSource.
func (c *CountingSource) At() transition.Instant {
	c.calls.Add(1)
	return c.When
}

// Calls returns the number of times At has been called.
func (c *CountingSource) Calls() int64 {
	return c.calls.Load()
}

// NewMockZone returns a zone named name with a standard and daylight
// offset and a single year of 2021 US style transitions, for tests
// that need a plausible zone without TZif fixtures.
func NewMockZone(name, stdAbbrev, dstAbbrev string, stdSecs int) (*zone.Zone, error) {
	std := transition.NewOffset(stdAbbrev, stdSecs, false)
	dst := transition.NewOffset(dstAbbrev, stdSecs+3600, true)
	spring := time.Date(2021, 3, 14, 2, 0, 0, 0, time.UTC).Add(-time.Duration(stdSecs) * time.Second)
	fall := time.Date(2021, 11, 7, 2, 0, 0, 0, time.UTC).Add(-time.Duration(stdSecs+3600) * time.Second)
	return zone.New(name, std, []*transition.Transition{
		transition.New(dst, std, transition.FixedInstant{When: transition.NewTimestamp(spring)}),
		transition.New(std, dst, transition.FixedInstant{When: transition.NewTimestamp(fall)}),
	}, nil)
}
