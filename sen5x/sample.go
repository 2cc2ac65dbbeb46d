// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sen5x

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// PM selects a particulate mass concentration channel.
type PM int

const (
	PM1  PM = iota // PM1.0
	PM25           // PM2.5
	PM4            // PM4.0
	PM10           // PM10.0
)

func (p PM) String() string {
	switch p {
	case PM1:
		return "PM1.0"
	case PM25:
		return "PM2.5"
	case PM4:
		return "PM4.0"
	case PM10:
		return "PM10.0"
	}
	return fmt.Sprintf("PM(%d)", int(p))
}

// NC selects a particle number concentration channel.
type NC int

const (
	NC05 NC = iota // NC0.5
	NC1            // NC1.0
	NC25           // NC2.5
	NC4            // NC4.0
	NC10           // NC10.0
)

func (n NC) String() string {
	switch n {
	case NC05:
		return "NC0.5"
	case NC1:
		return "NC1.0"
	case NC25:
		return "NC2.5"
	case NC4:
		return "NC4.0"
	case NC10:
		return "NC10.0"
	}
	return fmt.Sprintf("NC(%d)", int(n))
}

// rawSample holds the words of a read cycle as sent by the device.
type rawSample struct {
	pm1, pm25, pm4, pm10 uint16

	humidity    int16
	temperature int16
	voc         int16
	nox         int16

	rawHumidity    int16
	rawTemperature int16
	rawVOC         uint16
	rawNOx         uint16

	nc05, nc1, nc25, nc4, nc10 uint16
	typicalSize                uint16
}

// invalidSample has every field set to its invalid value.
var invalidSample = rawSample{
	pm1: invalidUint16, pm25: invalidUint16, pm4: invalidUint16, pm10: invalidUint16,
	humidity: invalidInt16, temperature: invalidInt16, voc: invalidInt16, nox: invalidInt16,
	rawHumidity: invalidInt16, rawTemperature: invalidInt16, rawVOC: invalidUint16, rawNOx: invalidUint16,
	nc05: invalidUint16, nc1: invalidUint16, nc25: invalidUint16, nc4: invalidUint16, nc10: invalidUint16,
	typicalSize: invalidUint16,
}

func (s *rawSample) mass(p PM) uint16 {
	switch p {
	case PM1:
		return s.pm1
	case PM25:
		return s.pm25
	case PM4:
		return s.pm4
	case PM10:
		return s.pm10
	}
	return invalidUint16
}

func (s *rawSample) number(n NC) uint16 {
	switch n {
	case NC05:
		return s.nc05
	case NC1:
		return s.nc1
	case NC25:
		return s.nc25
	case NC4:
		return s.nc4
	case NC10:
		return s.nc10
	}
	return invalidUint16
}

// wordAt returns the big-endian word at off of a checksum bearing frame. off
// is a multiple of 3.
func wordAt(frame []byte, off int) uint16 {
	return binary.BigEndian.Uint16(frame[off : off+2])
}

func int16At(frame []byte, off int) int16 {
	return int16(wordAt(frame, off))
}

// decodeValues decodes the 24 byte response of cmdReadValues.
func (s *rawSample) decodeValues(frame []byte) {
	s.pm1 = wordAt(frame, 0)
	s.pm25 = wordAt(frame, 3)
	s.pm4 = wordAt(frame, 6)
	s.pm10 = wordAt(frame, 9)
	s.humidity = int16At(frame, 12)
	s.temperature = int16At(frame, 15)
	s.voc = int16At(frame, 18)
	s.nox = int16At(frame, 21)
}

// decodeRawSignals decodes the 12 byte response of cmdReadRawSignals.
func (s *rawSample) decodeRawSignals(frame []byte) {
	s.rawHumidity = int16At(frame, 0)
	s.rawTemperature = int16At(frame, 3)
	s.rawVOC = wordAt(frame, 6)
	s.rawNOx = wordAt(frame, 9)
}

// decodeRawParticles decodes the 30 byte response of cmdReadRawParticles. The
// first four words repeat the mass concentrations and are skipped.
func (s *rawSample) decodeRawParticles(frame []byte) {
	s.nc05 = wordAt(frame, 12)
	s.nc1 = wordAt(frame, 15)
	s.nc25 = wordAt(frame, 18)
	s.nc4 = wordAt(frame, 21)
	s.nc10 = wordAt(frame, 24)
	s.typicalSize = wordAt(frame, 27)
}

// stringFromFrame drops the CRC bytes from frame and returns the payload up
// to the first NUL.
func stringFromFrame(frame []byte) string {
	out := make([]byte, 0, len(frame)/3*2)
	for ix := 0; ix+2 < len(frame); ix += 3 {
		out = append(out, frame[ix], frame[ix+1])
	}
	if n := bytes.IndexByte(out, 0); n >= 0 {
		out = out[:n]
	}
	return string(out)
}

// Values is a converted sample. Fields that are not valid, for example
// the particulate channels while measuring gas only, are NaN.
type Values struct {
	// Mass concentrations in µg/m³, indexed by PM.
	Mass [4]float64
	// Number concentrations in #/cm³, indexed by NC.
	Number [5]float64
	// TypicalParticleSize in µm.
	TypicalParticleSize float64
	// Humidity in %RH and Temperature in °C, compensated.
	Humidity    float64
	Temperature float64
	// VOC and NOx indexes.
	VOC float64
	NOx float64
	// Uncompensated signals. RawVOC and RawNOx are in ticks.
	RawHumidity    float64
	RawTemperature float64
	RawVOC         float64
	RawNOx         float64
}

func (s *rawSample) convert(m *Values) {
	for p := PM1; p <= PM10; p++ {
		m.Mass[p] = countToMass(s.mass(p))
	}
	for n := NC05; n <= NC10; n++ {
		m.Number[n] = countToNumber(s.number(n))
	}
	m.TypicalParticleSize = countToSize(s.typicalSize)
	m.Humidity = countToHumidity(s.humidity)
	m.Temperature = countToTemperature(s.temperature)
	m.VOC = countToIndex(s.voc)
	m.NOx = countToIndex(s.nox)
	m.RawHumidity = countToHumidity(s.rawHumidity)
	m.RawTemperature = countToTemperature(s.rawTemperature)
	m.RawVOC = countToTicks(s.rawVOC)
	m.RawNOx = countToTicks(s.rawNOx)
}

func (m *Values) String() string {
	return fmt.Sprintf("Temperature: %.2f°C Humidity: %.2f%%rH VOC: %.1f NOx: %.1f PM1.0: %.1f PM2.5: %.1f PM4.0: %.1f PM10.0: %.1f µg/m³",
		m.Temperature, m.Humidity, m.VOC, m.NOx, m.Mass[PM1], m.Mass[PM25], m.Mass[PM4], m.Mass[PM10])
}
