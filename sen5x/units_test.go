// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sen5x

import (
	"math"
	"testing"
)

func TestInvalidIsNaN(t *testing.T) {
	tests := []struct {
		name string
		v    float64
	}{
		{"temperature", countToTemperature(invalidInt16)},
		{"humidity", countToHumidity(invalidInt16)},
		{"index", countToIndex(invalidInt16)},
		{"mass", countToMass(invalidUint16)},
		{"number", countToNumber(invalidUint16)},
		{"size", countToSize(invalidUint16)},
		{"ticks", countToTicks(invalidUint16)},
	}
	for _, test := range tests {
		if !math.IsNaN(test.v) {
			t.Errorf("%s: invalid value converted to %v", test.name, test.v)
		}
	}
	// The signed invalid value is the same bit pattern as the unsigned one.
	u := invalidUint16
	if int16(u) != invalidInt16 {
		t.Error("invalid values differ")
	}
}

func TestConversions(t *testing.T) {
	tests := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"temperature 2000", countToTemperature(2000), 10},
		{"temperature -1000", countToTemperature(-1000), -5},
		// 23.255 snaps to the nearest 1/128.
		{"temperature 4651", countToTemperature(4651), 2977.0 / 128},
		{"humidity 5000", countToHumidity(5000), 50},
		{"humidity 4433", countToHumidity(4433), 5674.0 / 128},
		{"index 1000", countToIndex(1000), 100},
		{"index 15", countToIndex(15), 1.5},
		{"index 13", countToIndex(13), 21.0 / 16},
		{"mass 0", countToMass(0), 0},
		{"mass 123", countToMass(123), 197.0 / 16},
		{"number 65534", countToNumber(65534), 6553.375},
		{"size 1000", countToSize(1000), 1},
		{"size 600", countToSize(600), 614.0 / 1024},
		{"ticks 31450", countToTicks(31450), 31450},
	}
	for _, test := range tests {
		if test.got != test.expected {
			t.Errorf("%s: received %v expected %v", test.name, test.got, test.expected)
		}
	}
}

func TestRoundToIdempotent(t *testing.T) {
	for raw := int16(-2000); raw < 2000; raw += 7 {
		v := countToTemperature(raw)
		if r := roundTo(v, 128); r != v {
			t.Fatalf("roundTo(%v) changed a rounded value to %v", v, r)
		}
	}
	for raw := uint16(0); raw < 5000; raw += 13 {
		v := countToSize(raw)
		if r := roundTo(v, 1024); r != v {
			t.Fatalf("roundTo(%v) changed a rounded value to %v", v, r)
		}
	}
}

func TestStringFromFrame(t *testing.T) {
	tests := []struct {
		frame    []byte
		expected string
	}{
		{frame(0x5345, 0x4e35, 0x3500, 0), "SEN55"},
		{frame(0x4142, 0x4344), "ABCD"},
		{frame(0x0041), ""},
		{nil, ""},
	}
	for _, test := range tests {
		if s := stringFromFrame(test.frame); s != test.expected {
			t.Errorf("stringFromFrame(%#v)=%q expected %q", test.frame, s, test.expected)
		}
	}
}

func TestDecode(t *testing.T) {
	s := invalidSample
	s.decodeValues(frame(1, 2, 3, 4, 0xfffe, 0x8000, 0x7fff, 0xffff))
	if s.pm1 != 1 || s.pm25 != 2 || s.pm4 != 3 || s.pm10 != 4 {
		t.Errorf("mass decode %+v", s)
	}
	if s.humidity != -2 || s.temperature != math.MinInt16 || s.voc != math.MaxInt16 || s.nox != invalidInt16 {
		t.Errorf("signed decode %+v", s)
	}
	s.decodeRawSignals(frame(0x8001, 0xffff, 0xffff, 0x1234))
	if s.rawHumidity != -32767 || s.rawTemperature != invalidInt16 || s.rawVOC != invalidUint16 || s.rawNOx != 0x1234 {
		t.Errorf("raw signal decode %+v", s)
	}
	s.decodeRawParticles(frame(9, 9, 9, 9, 10, 11, 12, 13, 14, 15))
	if s.nc05 != 10 || s.nc1 != 11 || s.nc25 != 12 || s.nc4 != 13 || s.nc10 != 14 || s.typicalSize != 15 {
		t.Errorf("particle decode %+v", s)
	}
	// The mass words of the particle frame don't overwrite the core values.
	if s.pm1 != 1 {
		t.Errorf("pm1 %d overwritten", s.pm1)
	}
}

func TestEnumStrings(t *testing.T) {
	if PM25.String() != "PM2.5" || NC05.String() != "NC0.5" || PM(9).String() != "PM(9)" {
		t.Error("unexpected PM/NC names")
	}
	if Idle.String() != "idle" || MeasurementGasOnly.String() != "measurement (gas only)" {
		t.Error("unexpected RunMode names")
	}
	if HumidityTempSensor.String() != "Humidity/Temp Sensor Error" || Fault(0).String() != "Fault(0)" {
		t.Error("unexpected Fault names")
	}
	if ChecksumMismatch.String() != "checksum mismatch" {
		t.Error("unexpected Kind names")
	}
}
