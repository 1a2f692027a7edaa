// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"os"

	"cloudeng.io/cmdutil"
	"cloudeng.io/cmdutil/subcmd"
)

const cmdSpec = `name: tzinspect
summary: tzinspect is a command line tool for inspecting timezone databases and their offset transitions
commands:
  - name: zones
    summary: list and display timezone definitions
    commands:
      - name: list
        summary: list the zones known to the configuration file and cache
      - name: show
        summary: display the offsets and recorded transitions of the named zones
        arguments:
          - <zone>... - names of the zones to display

  - name: transitions
    summary: query the offset transitions of a zone
    commands:
      - name: print
        summary: |
          print the transitions of the named zones, including rule
          derived transitions when a year is requested
        arguments:
          - <zone>... - names of the zones to print

  - name: lookup
    summary: display the offset in effect in a zone at the given times
    arguments:
      - <zone> - the name of the zone
      - <time>... - RFC 3339 times, or 'now' if omitted

  - name: config
    summary: query/inspect the zone configuration file
    commands:
      - name: display
`

func cli() *subcmd.CommandSetYAML {
	cmd := subcmd.MustFromYAML(cmdSpec)

	zones := &Zones{out: os.Stdout}
	cmd.Set("zones", "list").MustRunner(zones.List, &ZonesFlags{})
	cmd.Set("zones", "show").MustRunner(zones.Show, &ZonesFlags{})

	transitions := &Transitions{out: os.Stdout}
	cmd.Set("transitions", "print").MustRunner(transitions.Print, &TransitionsFlags{})

	lookup := &Lookup{out: os.Stdout}
	cmd.Set("lookup").MustRunner(lookup.Run, &LookupFlags{})

	config := &Config{out: os.Stdout}
	cmd.Set("config", "display").MustRunner(config.Display, &ConfigFlags{})
	return cmd
}

var errInterrupt = errors.New("interrupt")

func main() {
	ctx := context.Background()
	ctx, cancel := context.WithCancelCause(ctx)
	cmdutil.HandleSignals(func() { cancel(errInterrupt) }, os.Interrupt)
	err := cli().Dispatch(ctx)
	if context.Cause(ctx) == errInterrupt {
		cmdutil.Exit("%v", errInterrupt)
	}
	if err != nil {
		cmdutil.Exit("%v", err)
	}
}
