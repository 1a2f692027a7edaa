// Copyright 2025 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package tzif decodes the Time Zone Information Format (TZif) defined
// by RFC 8536, the on-disk format of the IANA timezone database. The
// decoded form is deliberately compact: the caller gets the transition
// timeline, the local time types it refers to and the footer TZ string,
// rather than the raw file structure. The zone package builds zones
// from this.
package tzif

import (
	"fmt"
)

// Version identifies the version of a TZif file. V1 stores 32 bit
// transition times, V2 and later store 64 bit times and carry a footer
// TZ string.
type Version byte

const (
	V1 Version = 0x00
	V2 Version = '2'
	V3 Version = '3'
	V4 Version = '4'
)

func (v Version) String() string {
	switch v {
	case V1:
		return "V1"
	case V2, V3, V4:
		return "V" + string(byte(v))
	}
	return fmt.Sprintf("invalid version (%#02x)", byte(v))
}

var magic = [4]byte{'T', 'Z', 'i', 'f'}

// ZoneType is a decoded local time type record: the total offset from
// UT in seconds, whether the type is a daylight saving observance and
// its designation, eg. PST.
type ZoneType struct {
	OffsetSeconds int
	DST           bool
	Designation   string
}

// Data is the decoded content of a TZif file. TransitionTimes are UNIX
// epoch seconds in strictly ascending order and TransitionTypes holds
// the index into Types of the type that takes effect at the
// corresponding time.
type Data struct {
	Version         Version
	TransitionTimes []int64
	TransitionTypes []uint8
	Types           []ZoneType
	TZString        string
}

// TypeAt returns the local time type in effect at transition i.
func (d Data) TypeAt(i int) (ZoneType, error) {
	if i < 0 || i >= len(d.TransitionTypes) {
		return ZoneType{}, fmt.Errorf("tzif: transition %v out of range", i)
	}
	idx := d.TransitionTypes[i]
	if int(idx) >= len(d.Types) {
		return ZoneType{}, fmt.Errorf("tzif: transition %v refers to undefined type %v", i, idx)
	}
	return d.Types[idx], nil
}

// header mirrors the fixed-size portion of a TZif header that follows
// the magic, in file order.
type header struct {
	version  Version
	isutcnt  uint32
	isstdcnt uint32
	leapcnt  uint32
	timecnt  uint32
	typecnt  uint32
	charcnt  uint32
}

// v1BlockSize returns the size in bytes of the data block described by
// the header when time values are 32 bit.
func (h header) v1BlockSize() int {
	return int(h.timecnt)*4 + int(h.timecnt) + int(h.typecnt)*6 +
		int(h.charcnt) + int(h.leapcnt)*8 + int(h.isstdcnt) + int(h.isutcnt)
}

// designationAt returns the NUL-terminated designation starting at idx.
func designationAt(chars []byte, idx uint8) (string, error) {
	if int(idx) >= len(chars) {
		return "", fmt.Errorf("tzif: designation index %v out of range", idx)
	}
	for i := int(idx); i < len(chars); i++ {
		if chars[i] == 0 {
			return string(chars[idx:i]), nil
		}
	}
	return "", fmt.Errorf("tzif: unterminated designation at index %v", idx)
}
