// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package logging provides the JSON marshaling types used for
// tzinspect's machine readable output, formatting times with their
// zone abbreviation so that offset changes are visible in the output
// itself.
package logging

import (
	"strings"
	"time"
)

// TimeWithTZ is the time layout used for all human and JSON output;
// transition instants are second precision.
const TimeWithTZ = "2006-01-02T15:04:05 MST"

type Time time.Time

func (lt Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(lt).Format(TimeWithTZ) + `"`), nil
}

func (lt *Time) UnmarshalJSON(data []byte) error {
	t, err := time.Parse(TimeWithTZ, strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*lt = Time(t)
	return nil
}

type Duration time.Duration

func (ld Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(ld).String() + `"`), nil
}

func (ld *Duration) UnmarshalJSON(data []byte) error {
	d, err := time.ParseDuration(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*ld = Duration(d)
	return nil
}
