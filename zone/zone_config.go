// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package zone

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloudeng.io/cmdutil/cmdyaml"
	"cloudeng.io/datetime"
	"github.com/cosnicolaou/tzdb/transition"
	"gopkg.in/yaml.v3"
)

// offsetSeconds is a UTC offset in a zone configuration, specified
// either as +-hh:mm[:ss] or as raw seconds east of UTC.
type offsetSeconds int

func (o *offsetSeconds) UnmarshalYAML(node *yaml.Node) error {
	v := node.Value
	if secs, err := strconv.Atoi(v); err == nil {
		*o = offsetSeconds(secs)
		return nil
	}
	sign := 1
	if strings.HasPrefix(v, "-") {
		sign = -1
	}
	parts := strings.Split(strings.TrimLeft(v, "+-"), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return fmt.Errorf("invalid offset %q, expected +-hh:mm[:ss] or seconds", v)
	}
	secs := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid offset %q: %v", v, err)
		}
		secs = secs*60 + n
	}
	if len(parts) == 2 {
		secs *= 60
	}
	*o = offsetSeconds(sign * secs)
	return nil
}

// configInstant is a transition instant in a zone configuration. An
// RFC 3339 value yields a timestamp-flavored instant; a
// "YYYY-MM-DD HH:MM:SS" value, interpreted in UTC, yields a
// calendar-flavored one. The distinction is preserved all the way into
// the zone's transitions so that configured zones compare and cache
// exactly as written.
type configInstant transition.Instant

func (ci *configInstant) UnmarshalYAML(node *yaml.Node) error {
	v := node.Value
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		*ci = configInstant(transition.NewTimestamp(t))
		return nil
	}
	t, err := time.Parse("2006-01-02 15:04:05", v)
	if err != nil {
		return fmt.Errorf("invalid instant %q, expected RFC 3339 or YYYY-MM-DD HH:MM:SS: %v", v, err)
	}
	*ci = configInstant(transition.NewCalendar(
		datetime.NewCalendarDate(t.Year(), datetime.Month(t.Month()), t.Day()),
		datetime.NewTimeOfDay(t.Hour(), t.Minute(), t.Second())))
	return nil
}

type offsetConfig struct {
	Abbrev string        `yaml:"abbrev" cmd:"the designation for the offset, eg. PST"`
	Offset offsetSeconds `yaml:"offset" cmd:"the offset from UTC as +-hh:mm[:ss] or seconds east"`
	DST    bool          `yaml:"dst" cmd:"true if the offset is a daylight saving observance"`
}

type transitionConfig struct {
	At configInstant `yaml:"at" cmd:"the UTC instant of the transition"`
	To string        `yaml:"to" cmd:"the abbreviation of the offset that becomes active"`
}

type zoneConfig struct {
	Name        string             `yaml:"name" cmd:"the name of the zone"`
	Initial     string             `yaml:"initial" cmd:"the abbreviation of the offset in effect before the first transition"`
	Offsets     []offsetConfig     `yaml:"offsets" cmd:"the offsets the zone uses"`
	Transitions []transitionConfig `yaml:"transitions" cmd:"the transitions in ascending order"`
	Rule        string             `yaml:"rule" cmd:"POSIX TZ rule extending the timeline, eg. PST8PDT,M3.2.0,M11.1.0"`
}

type zonesConfig struct {
	Zones []zoneConfig `yaml:"zones" cmd:"the zones being configured"`
}

// Zones is a set of zones parsed from configuration.
type Zones struct {
	Zones []*Zone
}

// Lookup returns the named zone, or nil.
func (z Zones) Lookup(name string) *Zone {
	for _, zn := range z.Zones {
		if zn.Name() == name {
			return zn
		}
	}
	return nil
}

// ParseConfigFile parses zone definitions from a YAML file or URI.
func ParseConfigFile(ctx context.Context, cfgFile string) (Zones, error) {
	var cfg zonesConfig
	if err := cmdyaml.ParseConfigFile(ctx, cfgFile, &cfg); err != nil {
		return Zones{}, err
	}
	return cfg.createZones()
}

// ParseConfig parses zone definitions from YAML data.
func ParseConfig(cfgData []byte) (Zones, error) {
	var cfg zonesConfig
	if err := yaml.Unmarshal(cfgData, &cfg); err != nil {
		return Zones{}, err
	}
	return cfg.createZones()
}

func (cfg zonesConfig) createZones() (Zones, error) {
	var zones Zones
	names := map[string]struct{}{}
	for _, cz := range cfg.Zones {
		if _, ok := names[cz.Name]; ok {
			return Zones{}, fmt.Errorf("duplicate zone name: %v", cz.Name)
		}
		names[cz.Name] = struct{}{}
		z, err := cz.createZone()
		if err != nil {
			return Zones{}, err
		}
		zones.Zones = append(zones.Zones, z)
	}
	return zones, nil
}

func (cz zoneConfig) createZone() (*Zone, error) {
	offsets := map[string]transition.Offset{}
	for _, oc := range cz.Offsets {
		if _, ok := offsets[oc.Abbrev]; ok {
			return nil, fmt.Errorf("zone %v: duplicate offset %v", cz.Name, oc.Abbrev)
		}
		offsets[oc.Abbrev] = transition.NewOffset(oc.Abbrev, int(oc.Offset), oc.DST)
	}
	first, ok := offsets[cz.Initial]
	if !ok {
		return nil, fmt.Errorf("zone %v: initial offset %v is not defined", cz.Name, cz.Initial)
	}
	prev := first
	transitions := make([]*transition.Transition, 0, len(cz.Transitions))
	for _, tc := range cz.Transitions {
		to, ok := offsets[tc.To]
		if !ok {
			return nil, fmt.Errorf("zone %v: transition to undefined offset %v", cz.Name, tc.To)
		}
		transitions = append(transitions, transition.New(to, prev,
			transition.FixedInstant{When: transition.Instant(tc.At)}))
		prev = to
	}
	var rule *Rule
	if len(cz.Rule) > 0 {
		r, err := ParsePosixTZ(cz.Rule)
		if err != nil {
			return nil, fmt.Errorf("zone %v: %w", cz.Name, err)
		}
		rule = &r
	}
	return New(cz.Name, first, transitions, rule)
}
