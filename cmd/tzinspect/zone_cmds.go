// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/cosnicolaou/tzdb/internal/logging"
	"github.com/cosnicolaou/tzdb/zone"
)

type ZonesFlags struct {
	ZoneFileFlags
}

type Zones struct {
	out io.Writer
}

func (z *Zones) List(ctx context.Context, flags any, _ []string) error {
	fv := flags.(*ZonesFlags)
	ld, err := newZoneLoader(ctx, &fv.ZoneFileFlags)
	if err != nil {
		return err
	}
	defer ld.close()
	names, err := ld.known()
	if err != nil {
		return err
	}
	zones, err := ld.loadAll(names)
	if err != nil {
		return err
	}
	tm := tableManager{}
	fmt.Fprintln(z.out, tm.Zones(zones, time.Now()).Render())
	return nil
}

func (z *Zones) Show(ctx context.Context, flags any, args []string) error {
	fv := flags.(*ZonesFlags)
	ld, err := newZoneLoader(ctx, &fv.ZoneFileFlags)
	if err != nil {
		return err
	}
	defer ld.close()
	zones, err := ld.loadAll(args)
	if err != nil {
		return err
	}
	tm := tableManager{}
	for _, zn := range zones {
		fmt.Fprintf(z.out, "%v\n", zn)
		if rule := zn.Rule(); rule != nil {
			fmt.Fprintf(z.out, "rule: %v\n", rule)
		}
		fmt.Fprintln(z.out, tm.Transitions(zn, zn.Transitions()).Render())
	}
	return nil
}

type TransitionsFlags struct {
	ZoneFileFlags
	Year int `subcmd:"year,0,print the transitions for the specified year rather than all recorded ones"`
}

type Transitions struct {
	out io.Writer
}

func (t *Transitions) Print(ctx context.Context, flags any, args []string) error {
	fv := flags.(*TransitionsFlags)
	ld, err := newZoneLoader(ctx, &fv.ZoneFileFlags)
	if err != nil {
		return err
	}
	defer ld.close()
	zones, err := ld.loadAll(args)
	if err != nil {
		return err
	}
	tm := tableManager{}
	for _, zn := range zones {
		transitions := zn.Transitions()
		if fv.Year != 0 {
			from := time.Date(fv.Year, 1, 1, 0, 0, 0, 0, time.UTC)
			transitions = zn.Between(from, from.AddDate(1, 0, 0))
		}
		fmt.Fprintln(t.out, tm.Transitions(zn, transitions).Render())
	}
	return nil
}

type LookupFlags struct {
	ZoneFileFlags
	JSON bool `subcmd:"json,false,emit the results as JSON"`
}

type Lookup struct {
	out io.Writer
}

type lookupResult struct {
	Zone   string           `json:"zone"`
	Local  logging.Time     `json:"local"`
	Abbrev string           `json:"abbrev"`
	Offset logging.Duration `json:"offset"`
	DST    bool             `json:"dst"`
	Next   *logging.Time    `json:"next_transition,omitempty"`
}

func (l *Lookup) Run(ctx context.Context, flags any, args []string) error {
	fv := flags.(*LookupFlags)
	ld, err := newZoneLoader(ctx, &fv.ZoneFileFlags)
	if err != nil {
		return err
	}
	defer ld.close()
	zn, err := ld.load(args[0])
	if err != nil {
		return err
	}
	times := args[1:]
	if len(times) == 0 {
		times = []string{"now"}
	}
	for _, arg := range times {
		when := time.Now()
		if arg != "now" {
			when, err = time.Parse(time.RFC3339, arg)
			if err != nil {
				return fmt.Errorf("invalid time %q: %v", arg, err)
			}
		}
		offset := zn.Lookup(when)
		local := when.In(offset.Location())
		if !fv.JSON {
			fmt.Fprintf(l.out, "%v: %v is %v, %v\n", zn.Name(), local.Format(logging.TimeWithTZ), offset, nextTransitionText(zn, when))
			continue
		}
		result := lookupResult{
			Zone:   zn.Name(),
			Local:  logging.Time(local),
			Abbrev: offset.Abbrev(),
			Offset: logging.Duration(offset.Duration()),
			DST:    offset.IsDST(),
		}
		if next := zn.Next(when); next != nil {
			at := logging.Time(next.Time().In(offset.Location()))
			result.Next = &at
		}
		if err := json.NewEncoder(l.out).Encode(result); err != nil {
			return err
		}
	}
	return nil
}

func nextTransitionText(zn *zone.Zone, when time.Time) string {
	next := zn.Next(when)
	if next == nil {
		return "no further transitions"
	}
	return fmt.Sprintf("next transition %v", next)
}

type ConfigFlags struct {
	ZoneFileFlags
}

type Config struct {
	out io.Writer
}

func (c *Config) Display(ctx context.Context, flags any, _ []string) error {
	fv := flags.(*ConfigFlags)
	if len(fv.ZoneConfig) == 0 {
		return fmt.Errorf("no zone configuration file specified")
	}
	zones, err := zone.ParseConfigFile(ctx, fv.ZoneConfig)
	if err != nil {
		return err
	}
	tm := tableManager{}
	for _, zn := range zones.Zones {
		fmt.Fprintf(c.out, "%v\n", zn)
		for _, offset := range zn.Offsets() {
			fmt.Fprintf(c.out, "  %v\n", offset)
		}
		if rule := zn.Rule(); rule != nil {
			fmt.Fprintf(c.out, "  rule: %v\n", rule)
		}
		fmt.Fprintln(c.out, tm.Transitions(zn, zn.Transitions()).Render())
	}
	return nil
}
