// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains functions used across multiple packages. For
// example, the Sensirion CRC8 calculation and frame checks.
package common

// CRC8 calculates the 8-bit CRC of the byte slice parameter and returns the
// calculated value. Initial value 0xff, polynomial 0x31, MSB first and no
// final XOR. CRC bytes are used in sensors from TI and Sensirion.
func CRC8(bytes []byte) byte {
	var crc byte = 0xff
	for _, val := range bytes {
		crc ^= val
		for range 8 {
			if (crc & 0x80) == 0 {
				crc <<= 1
			} else {
				crc = (byte)((crc << 1) ^ 0x31)
			}
		}
	}
	return crc
}

// ValidFrame reports whether every 3 byte group of frame, two data bytes
// followed by their CRC, carries a matching checksum. The length of frame must
// be a multiple of 3. A single bad group fails the whole frame.
func ValidFrame(frame []byte) bool {
	if len(frame)%3 != 0 {
		return false
	}
	for ix := 0; ix < len(frame); ix += 3 {
		if CRC8(frame[ix:ix+2]) != frame[ix+2] {
			return false
		}
	}
	return true
}

// AppendWord appends the big-endian bytes of word followed by their CRC. It is
// the inverse of a single ValidFrame group and is used to build frames.
func AppendWord(frame []byte, word uint16) []byte {
	b := [2]byte{byte(word >> 8), byte(word)}
	return append(frame, b[0], b[1], CRC8(b[:]))
}
