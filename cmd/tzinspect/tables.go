// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"strings"
	"time"

	"github.com/cosnicolaou/tzdb/transition"
	"github.com/cosnicolaou/tzdb/zone"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type tableManager struct{}

// displayName renders a zone name for table output, eg.
// america/los_angeles becomes America/Los Angeles.
func displayName(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}

func (tm tableManager) Zones(zones []*zone.Zone, now time.Time) table.Writer {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Zone", "Current", "Offset", "DST", "Transitions", "Rule"})
	for _, z := range zones {
		offset := z.Lookup(now)
		rule := ""
		if r := z.Rule(); r != nil {
			rule = r.String()
		}
		tw.AppendRow(table.Row{
			displayName(z.Name()),
			offset.Abbrev(),
			offset.Duration().String(),
			offset.IsDST(),
			len(z.Transitions()),
			rule,
		})
	}
	return tw
}

const tableTimeFormat = "2006-01-02 15:04:05 MST"

func (tm tableManager) Transitions(z *zone.Zone, transitions []*transition.Transition) table.Writer {
	tw := table.NewWriter()
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true},
	})
	tw.AppendHeader(table.Row{"Zone", "UTC", "From", "To", "Local End", "Local Start", "Source"})
	for _, tr := range transitions {
		source := "recorded"
		if tr.At().IsCalendar() {
			source = "rule"
		}
		tw.AppendRow(table.Row{
			displayName(z.Name()),
			tr.Time().Format(time.RFC3339),
			tr.Previous().Abbrev(),
			tr.Offset().Abbrev(),
			tr.LocalEnd().Format(tableTimeFormat),
			tr.LocalStart().Format(tableTimeFormat),
			source,
		})
	}
	return tw
}
