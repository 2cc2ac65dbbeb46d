// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sen5x

import "math"

const (
	invalidUint16 uint16 = 0xffff
	invalidInt16  int16  = -1
)

// roundTo snaps v to the nearest multiple of 1/steps.
func roundTo(v, steps float64) float64 {
	return math.Round(v*steps) / steps
}

func scaleInt16(raw int16, divisor, steps float64) float64 {
	if raw == invalidInt16 {
		return math.NaN()
	}
	return roundTo(float64(raw)/divisor, steps)
}

func scaleUint16(raw uint16, divisor, steps float64) float64 {
	if raw == invalidUint16 {
		return math.NaN()
	}
	return roundTo(float64(raw)/divisor, steps)
}

// countToTemperature returns °C.
func countToTemperature(raw int16) float64 {
	return scaleInt16(raw, 200, 128)
}

// countToHumidity returns %RH.
func countToHumidity(raw int16) float64 {
	return scaleInt16(raw, 100, 128)
}

// countToIndex converts a VOC or NOx index.
func countToIndex(raw int16) float64 {
	return scaleInt16(raw, 10, 16)
}

// countToMass returns µg/m³.
func countToMass(raw uint16) float64 {
	return scaleUint16(raw, 10, 16)
}

// countToNumber returns #/cm³.
func countToNumber(raw uint16) float64 {
	return scaleUint16(raw, 10, 16)
}

// countToSize returns µm.
func countToSize(raw uint16) float64 {
	return scaleUint16(raw, 1000, 1024)
}

// countToTicks is used for the raw VOC and NOx signals which have no unit.
func countToTicks(raw uint16) float64 {
	return scaleUint16(raw, 1, 1)
}
