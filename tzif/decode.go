// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package tzif

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// All multi-octet values are big-endian per RFC 8536.
var order = binary.BigEndian

// Decode reads a TZif file. For V2+ files the 64 bit data block and
// footer are decoded and the legacy V1 block is skipped.
func Decode(rd io.Reader) (Data, error) {
	r := bufio.NewReader(rd)
	h, err := readHeader(r)
	if err != nil {
		return Data{}, err
	}
	if h.version == V1 {
		return readBlock(r, h, 4)
	}
	// Skip the legacy block, then decode the 64 bit block that the
	// second header describes.
	if _, err := io.CopyN(io.Discard, r, int64(h.v1BlockSize())); err != nil {
		return Data{}, fmt.Errorf("tzif: skipping v1 data block: %w", err)
	}
	h2, err := readHeader(r)
	if err != nil {
		return Data{}, err
	}
	if h2.version != h.version {
		return Data{}, fmt.Errorf("tzif: header version mismatch: %v != %v", h2.version, h.version)
	}
	d, err := readBlock(r, h2, 8)
	if err != nil {
		return Data{}, err
	}
	d.TZString, err = readFooter(r)
	return d, err
}

func readHeader(r io.Reader) (header, error) {
	var raw [44]byte
	if _, err := io.ReadFull(r, raw[:]); err != nil {
		return header{}, fmt.Errorf("tzif: reading header: %w", err)
	}
	if !bytes.Equal(raw[:4], magic[:]) {
		return header{}, fmt.Errorf("tzif: invalid magic %q", raw[:4])
	}
	h := header{
		version:  Version(raw[4]),
		isutcnt:  order.Uint32(raw[20:]),
		isstdcnt: order.Uint32(raw[24:]),
		leapcnt:  order.Uint32(raw[28:]),
		timecnt:  order.Uint32(raw[32:]),
		typecnt:  order.Uint32(raw[36:]),
		charcnt:  order.Uint32(raw[40:]),
	}
	switch h.version {
	case V1, V2, V3, V4:
	default:
		return header{}, fmt.Errorf("tzif: %v", h.version)
	}
	if h.typecnt == 0 {
		return header{}, fmt.Errorf("tzif: typecnt must not be zero")
	}
	if h.charcnt == 0 {
		return header{}, fmt.Errorf("tzif: charcnt must not be zero")
	}
	return h, nil
}

// readBlock decodes a data block with the supplied time value size (4
// for V1, 8 for V2+), returning the decoded timeline and types. The
// leap-second records and standard/UT indicators are read and
// discarded; transitions in tzdata distributions are expressed in UT
// and leap seconds are not represented on the POSIX timeline.
func readBlock(r io.Reader, h header, timeSize int) (Data, error) {
	d := Data{Version: h.version}
	times := make([]byte, int(h.timecnt)*timeSize)
	if _, err := io.ReadFull(r, times); err != nil {
		return d, fmt.Errorf("tzif: reading transition times: %w", err)
	}
	d.TransitionTimes = make([]int64, h.timecnt)
	for i := range d.TransitionTimes {
		if timeSize == 4 {
			d.TransitionTimes[i] = int64(int32(order.Uint32(times[i*4:])))
		} else {
			d.TransitionTimes[i] = int64(order.Uint64(times[i*8:]))
		}
	}
	for i := 1; i < len(d.TransitionTimes); i++ {
		if d.TransitionTimes[i] <= d.TransitionTimes[i-1] {
			return d, fmt.Errorf("tzif: transition times not strictly ascending at %v", i)
		}
	}

	d.TransitionTypes = make([]uint8, h.timecnt)
	if _, err := io.ReadFull(r, d.TransitionTypes); err != nil {
		return d, fmt.Errorf("tzif: reading transition types: %w", err)
	}

	records := make([]byte, int(h.typecnt)*6)
	if _, err := io.ReadFull(r, records); err != nil {
		return d, fmt.Errorf("tzif: reading local time type records: %w", err)
	}
	chars := make([]byte, h.charcnt)
	if _, err := io.ReadFull(r, chars); err != nil {
		return d, fmt.Errorf("tzif: reading designations: %w", err)
	}
	d.Types = make([]ZoneType, h.typecnt)
	for i := range d.Types {
		rec := records[i*6:]
		desig, err := designationAt(chars, rec[5])
		if err != nil {
			return d, err
		}
		d.Types[i] = ZoneType{
			OffsetSeconds: int(int32(order.Uint32(rec))),
			DST:           rec[4] != 0,
			Designation:   desig,
		}
	}
	for i, ti := range d.TransitionTypes {
		if int(ti) >= len(d.Types) {
			return d, fmt.Errorf("tzif: transition %v refers to undefined type %v", i, ti)
		}
	}

	skip := int64(h.leapcnt)*int64(timeSize+4) + int64(h.isstdcnt) + int64(h.isutcnt)
	if _, err := io.CopyN(io.Discard, r, skip); err != nil {
		return d, fmt.Errorf("tzif: reading indicators: %w", err)
	}
	return d, nil
}

func readFooter(r *bufio.Reader) (string, error) {
	nl, err := r.ReadByte()
	if err != nil {
		return "", fmt.Errorf("tzif: reading footer: %w", err)
	}
	if nl != '\n' {
		return "", fmt.Errorf("tzif: footer must start with a newline, got %#02x", nl)
	}
	tz, err := r.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("tzif: reading TZ string: %w", err)
	}
	return tz[:len(tz)-1], nil
}
