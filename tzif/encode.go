// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package tzif

import (
	"bytes"
	"fmt"
	"io"
)

// Encode writes d as a V2 format file: a minimal legacy block for V1
// readers, the 64 bit data block and the footer. It is primarily used
// to build fixtures and to persist synthetic zones; it does not write
// leap-second records or standard/UT indicators.
func (d Data) Encode(w io.Writer) error {
	if len(d.TransitionTimes) != len(d.TransitionTypes) {
		return fmt.Errorf("tzif: %v transition times but %v types", len(d.TransitionTimes), len(d.TransitionTypes))
	}
	if len(d.Types) == 0 {
		return fmt.Errorf("tzif: at least one local time type is required")
	}
	for i, ti := range d.TransitionTypes {
		if int(ti) >= len(d.Types) {
			return fmt.Errorf("tzif: transition %v refers to undefined type %v", i, ti)
		}
	}
	version := d.Version
	if version == V1 {
		version = V2
	}

	chars, idx := designations(d.Types)

	// Legacy block: no transitions, a single placeholder type.
	var buf bytes.Buffer
	writeHeader(&buf, version, header{typecnt: 1, charcnt: 1})
	buf.Write([]byte{0, 0, 0, 0, 0, 0}) // utoff 0, not DST, designation 0
	buf.WriteByte(0)

	writeHeader(&buf, version, header{
		timecnt: uint32(len(d.TransitionTimes)),
		typecnt: uint32(len(d.Types)),
		charcnt: uint32(len(chars)),
	})
	for _, t := range d.TransitionTimes {
		var b [8]byte
		order.PutUint64(b[:], uint64(t))
		buf.Write(b[:])
	}
	buf.Write(d.TransitionTypes)
	for i, zt := range d.Types {
		var b [6]byte
		order.PutUint32(b[:], uint32(int32(zt.OffsetSeconds)))
		if zt.DST {
			b[4] = 1
		}
		b[5] = idx[i]
		buf.Write(b[:])
	}
	buf.Write(chars)

	buf.WriteByte('\n')
	buf.WriteString(d.TZString)
	buf.WriteByte('\n')

	_, err := w.Write(buf.Bytes())
	return err
}

func writeHeader(buf *bytes.Buffer, version Version, h header) {
	var raw [44]byte
	copy(raw[:4], magic[:])
	raw[4] = byte(version)
	order.PutUint32(raw[20:], h.isutcnt)
	order.PutUint32(raw[24:], h.isstdcnt)
	order.PutUint32(raw[28:], h.leapcnt)
	order.PutUint32(raw[32:], h.timecnt)
	order.PutUint32(raw[36:], h.typecnt)
	order.PutUint32(raw[40:], h.charcnt)
	buf.Write(raw[:])
}

// designations builds the NUL-terminated designation array and the per
// type index into it.
func designations(types []ZoneType) ([]byte, []uint8) {
	var chars []byte
	idx := make([]uint8, len(types))
	seen := map[string]uint8{}
	for i, zt := range types {
		if at, ok := seen[zt.Designation]; ok {
			idx[i] = at
			continue
		}
		at := uint8(len(chars))
		seen[zt.Designation] = at
		idx[i] = at
		chars = append(chars, zt.Designation...)
		chars = append(chars, 0)
	}
	return chars, idx
}
