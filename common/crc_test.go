// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package common

import (
	"errors"
	"testing"
)

func TestCRC8(t *testing.T) {
	var tests = []struct {
		bytes  []byte
		result byte
	}{
		// 0xbe 0xef -> 0x92 is the vector published in the Sensirion
		// datasheets.
		{bytes: []byte{0xbe, 0xef}, result: 0x92},
		{bytes: []byte{0x01, 0xa4}, result: 0x4d},
		{bytes: []byte{0xab, 0xcd}, result: 0x6f},
		{bytes: []byte{}, result: 0xff},
	}
	for _, test := range tests {
		res := CRC8(test.bytes)
		if res != test.result {
			t.Errorf("CRC8(%#v)!=0x%x received 0x%x", test.bytes, test.result, res)
		}
		// The function is pure. A second call over the same bytes must
		// return the same value.
		if again := CRC8(test.bytes); again != res {
			t.Errorf("CRC8(%#v) not deterministic: 0x%x then 0x%x", test.bytes, res, again)
		}
	}
}

// Encoding any 16-bit word and decoding it back must return the original
// value for the whole value range.
func TestWordRoundTrip(t *testing.T) {
	var b [3]byte
	for w := 0; w < 0x10000; w++ {
		PutWord(b[:], uint16(w))
		got, err := Word(b[:])
		if err != nil {
			t.Fatalf("Word() failed for 0x%04x: %v", w, err)
		}
		if got != uint16(w) {
			t.Fatalf("round trip mismatch: wrote 0x%04x read 0x%04x", w, got)
		}
	}
}

// Flipping any single bit of an encoded data+CRC triple must be detected.
func TestWordSingleBitFlip(t *testing.T) {
	words := []uint16{0x0000, 0x0001, 0x8000, 0xbeef, 0xffff, 0x0190, 0x8a2e}
	var b [3]byte
	for _, w := range words {
		for bit := 0; bit < 24; bit++ {
			PutWord(b[:], w)
			b[bit/8] ^= 1 << (bit % 8)
			got, err := Word(b[:])
			if err == nil {
				t.Errorf("flipped bit %d of word 0x%04x went undetected, decoded 0x%04x", bit, w, got)
			} else if !errors.Is(err, ErrChecksum) {
				t.Errorf("expected ErrChecksum, got %v", err)
			}
		}
	}
}
