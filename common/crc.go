// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains the checksum and word framing functions shared by
// Sensirion protocol sensors. Every word on the wire is 2 big-endian data
// bytes followed by an 8-bit CRC of those bytes.
package common

import "errors"

// ErrChecksum is returned when a received CRC byte disagrees with the CRC
// recomputed over the word it protects.
var ErrChecksum = errors.New("invalid checksum")

// CRC8 calculates the 8-bit CRC of the byte slice parameter and returns the
// calculated value. Polynomial 0x31, initial value 0xff, no reflection, no
// final xor. CRC bytes in this form are used in sensors from TI and
// Sensirion.
func CRC8(bytes []byte) byte {
	var crc byte = 0xff
	for _, val := range bytes {
		crc ^= val
		for i := 0; i < 8; i++ {
			if (crc & 0x80) == 0 {
				crc <<= 1
			} else {
				crc = (byte)((crc << 1) ^ 0x31)
			}
		}
	}
	return crc
}

// PutWord encodes w as 2 big-endian bytes followed by their CRC into
// dst[0:3]. dst must be at least 3 bytes long.
func PutWord(dst []byte, w uint16) {
	dst[0] = byte(w >> 8)
	dst[1] = byte(w)
	dst[2] = CRC8(dst[:2])
}

// Word decodes a 16-bit big-endian word from the 3-byte data+CRC triple in
// b[0:3]. It returns ErrChecksum if the trailing CRC byte does not match the
// CRC of the 2 data bytes.
func Word(b []byte) (uint16, error) {
	if CRC8(b[:2]) != b[2] {
		return 0, ErrChecksum
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}
