// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sen5x

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/GermanBionicSystems/airsense/common"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

const (
	// The device only supports this i2c address.
	DefaultAddress uint16 = 0x69

	// DefaultMaxAge is the age after which a cached sample is read again.
	DefaultMaxAge = 1050 * time.Millisecond
)

// RunMode is the measurement state of the device.
type RunMode int

const (
	Idle RunMode = iota
	// Measurement with the particulate channels enabled.
	Measurement
	// MeasurementGasOnly runs the humidity, temperature and gas sensors with
	// the fan and laser off.
	MeasurementGasOnly
)

func (m RunMode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Measurement:
		return "measurement"
	case MeasurementGasOnly:
		return "measurement (gas only)"
	}
	return fmt.Sprintf("RunMode(%d)", int(m))
}

// command describes a command word, the time the device needs before it
// can be read or addressed again, and the size of the response including
// CRC bytes.
type command struct {
	word         uint16
	delay        time.Duration
	responseSize int
}

var (
	cmdStartMeasurement        = command{word: 0x0021, delay: 50 * time.Millisecond}
	cmdStartMeasurementGasOnly = command{word: 0x0037, delay: 50 * time.Millisecond}
	cmdStopMeasurement         = command{word: 0x0104, delay: 200 * time.Millisecond}
	cmdReadValues              = command{word: 0x03c4, delay: 20 * time.Millisecond, responseSize: 24}
	cmdReadRawSignals          = command{word: 0x03d2, delay: 20 * time.Millisecond, responseSize: 12}
	cmdReadRawParticles        = command{word: 0x0413, delay: 20 * time.Millisecond, responseSize: 30}
	cmdReadProductName         = command{word: 0xd014, delay: 20 * time.Millisecond, responseSize: 48}
	cmdReadSerialNumber        = command{word: 0xd033, delay: 20 * time.Millisecond, responseSize: 48}
	cmdReadFirmwareVersion     = command{word: 0xd100, delay: 20 * time.Millisecond, responseSize: 3}
	cmdReadDeviceStatus        = command{word: 0xd206, delay: 20 * time.Millisecond, responseSize: 6}
	cmdClearDeviceStatus       = command{word: 0xd210, delay: 20 * time.Millisecond}
	cmdDeviceReset             = command{word: 0xd304, delay: 100 * time.Millisecond}
	cmdStartFanCleaning        = command{word: 0x5607, delay: 20 * time.Millisecond}
)

// Clock is the time source of the driver. Sleep must block for d.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// Opts holds the configuration of the driver. The zero value selects the
// defaults.
type Opts struct {
	// Clock defaults to the system clock.
	Clock Clock
	// Logger receives bus traffic and errors at debug level. Defaults to the
	// logrus standard logger.
	Logger logrus.FieldLogger
	// MaxAge defaults to DefaultMaxAge.
	MaxAge time.Duration
}

// Dev represents a SEN5x device.
type Dev struct {
	d      *i2c.Dev
	clock  Clock
	log    logrus.FieldLogger
	maxAge time.Duration

	mode RunMode
	// sample is valid iff stamp is not zero.
	sample rawSample
	stamp  time.Time

	lastError string
	handler   func()
}

// NewI2C returns a SEN5x device on bus b. DefaultAddress should be supplied as
// the value for addr. opts may be nil. The device is not accessed; call
// Start() to begin measuring.
func NewI2C(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	if addr == 0 || addr > 0x7f {
		return nil, fmt.Errorf("sen5x: invalid i2c address 0x%x", addr)
	}
	if opts == nil {
		opts = &Opts{}
	}
	d := &Dev{
		d:      &i2c.Dev{Bus: b, Addr: addr},
		clock:  opts.Clock,
		log:    opts.Logger,
		maxAge: opts.MaxAge,
		sample: invalidSample,
	}
	if d.clock == nil {
		d.clock = systemClock{}
	}
	if d.log == nil {
		d.log = logrus.StandardLogger()
	}
	if d.maxAge <= 0 {
		d.maxAge = DefaultMaxAge
	}
	return d, nil
}

// sendCommand writes the command word and waits for the command's delay.
func (d *Dev) sendCommand(cmd command) error {
	w := []byte{byte(cmd.word >> 8), byte(cmd.word)}
	d.log.WithField("cmd", fmt.Sprintf("0x%04x", cmd.word)).Debug("sen5x: write")
	if err := d.d.Tx(w, nil); err != nil {
		return &Error{Kind: BusWriteFailure, Cmd: cmd.word, Err: err}
	}
	d.clock.Sleep(cmd.delay)
	return nil
}

// readResponse performs a single read of the command's response and
// validates every CRC.
func (d *Dev) readResponse(cmd command) ([]byte, error) {
	r := make([]byte, cmd.responseSize)
	if err := d.d.Tx(nil, r); err != nil {
		return nil, &Error{Kind: BusReadFailure, Cmd: cmd.word, Err: err}
	}
	if !common.ValidFrame(r) {
		d.log.WithFields(logrus.Fields{
			"cmd":   fmt.Sprintf("0x%04x", cmd.word),
			"frame": fmt.Sprintf("% x", r),
		}).Debug("sen5x: crc error")
		return nil, &Error{Kind: ChecksumMismatch, Cmd: cmd.word}
	}
	return r, nil
}

// query sends cmd and reads its response.
func (d *Dev) query(cmd command) ([]byte, error) {
	if err := d.sendCommand(cmd); err != nil {
		return nil, err
	}
	return d.readResponse(cmd)
}

// invalidate drops the cached sample.
func (d *Dev) invalidate() {
	d.sample = invalidSample
	d.stamp = time.Time{}
}

// ensureFresh runs a read cycle if the cached sample is missing or older
// than maxAge. On failure the sample is invalidated and the error reported.
func (d *Dev) ensureFresh() error {
	if !d.stamp.IsZero() && d.clock.Now().Sub(d.stamp) <= d.maxAge {
		return nil
	}
	s, err := d.readSample()
	if err != nil {
		d.invalidate()
		return err
	}
	d.sample = s
	d.stamp = d.clock.Now()
	return nil
}

// readSample runs a complete read cycle. Errors are already reported.
func (d *Dev) readSample() (rawSample, error) {
	s := invalidSample
	if d.mode == Idle {
		return s, d.report(&Error{Kind: DeviceNotMeasuring})
	}
	if _, err := d.queryStatus(); err != nil {
		return s, err
	}
	r, err := d.query(cmdReadValues)
	if err != nil {
		return s, d.report(err)
	}
	s.decodeValues(r)
	if r, err = d.query(cmdReadRawSignals); err != nil {
		return invalidSample, d.report(err)
	}
	s.decodeRawSignals(r)
	if r, err = d.query(cmdReadRawParticles); err != nil {
		return invalidSample, d.report(err)
	}
	s.decodeRawParticles(r)
	return s, nil
}

// Start begins continuous measurement. withParticulates selects the full
// measurement mode; otherwise only the gas, humidity and temperature sensors
// run. The first values are available about one second later.
func (d *Dev) Start(withParticulates bool) error {
	cmd, mode := cmdStartMeasurementGasOnly, MeasurementGasOnly
	if withParticulates {
		cmd, mode = cmdStartMeasurement, Measurement
	}
	d.log.WithField("particulates", withParticulates).Debug("sen5x: starting measurements")
	if err := d.sendCommand(cmd); err != nil {
		return d.report(err)
	}
	d.mode = mode
	return nil
}

// Stop ends measurement and returns the device to idle.
func (d *Dev) Stop() error {
	if err := d.sendCommand(cmdStopMeasurement); err != nil {
		return d.report(err)
	}
	d.mode = Idle
	return nil
}

// Reset performs a device reset. The device returns to idle, cached values
// are dropped and LastError() is cleared.
func (d *Dev) Reset() error {
	if err := d.sendCommand(cmdDeviceReset); err != nil {
		return d.report(err)
	}
	d.mode = Idle
	d.invalidate()
	d.lastError = ""
	return nil
}

// StartFanCleaning runs the fan at maximum speed for about 10 seconds. The
// device must be measuring; particulate values are not updated meanwhile.
func (d *Dev) StartFanCleaning() error {
	if err := d.sendCommand(cmdStartFanCleaning); err != nil {
		return d.report(err)
	}
	return nil
}

// Mode returns the run mode set by the last successful Start, Stop or Reset.
func (d *Dev) Mode() RunMode {
	return d.mode
}

// FirmwareVersion returns the firmware major version, or -1 on failure.
func (d *Dev) FirmwareVersion() int {
	r, err := d.query(cmdReadFirmwareVersion)
	if err != nil {
		_ = d.report(err)
		return -1
	}
	return int(r[0])
}

// ProductName returns the product name, for example "SEN55". It returns an
// empty string on failure.
func (d *Dev) ProductName() string {
	return d.readString(cmdReadProductName)
}

// SerialNumber returns the serial number string, or an empty string on
// failure.
func (d *Dev) SerialNumber() string {
	return d.readString(cmdReadSerialNumber)
}

func (d *Dev) readString(cmd command) string {
	r, err := d.query(cmd)
	if err != nil {
		_ = d.report(err)
		return ""
	}
	return stringFromFrame(r)
}

// Temperature returns the compensated ambient temperature in °C.
func (d *Dev) Temperature() float64 {
	_ = d.ensureFresh()
	return countToTemperature(d.sample.temperature)
}

// Humidity returns the compensated ambient relative humidity in %RH.
func (d *Dev) Humidity() float64 {
	_ = d.ensureFresh()
	return countToHumidity(d.sample.humidity)
}

// VOC returns the VOC index, 1 to 500.
func (d *Dev) VOC() float64 {
	_ = d.ensureFresh()
	return countToIndex(d.sample.voc)
}

// NOx returns the NOx index, 1 to 500.
func (d *Dev) NOx() float64 {
	_ = d.ensureFresh()
	return countToIndex(d.sample.nox)
}

// ParticleMass returns the mass concentration of channel p in µg/m³.
func (d *Dev) ParticleMass(p PM) float64 {
	_ = d.ensureFresh()
	return countToMass(d.sample.mass(p))
}

// ParticleCount returns the number concentration of channel n in #/cm³.
func (d *Dev) ParticleCount(n NC) float64 {
	_ = d.ensureFresh()
	return countToNumber(d.sample.number(n))
}

// TypicalParticleSize returns the typical particle size in µm.
func (d *Dev) TypicalParticleSize() float64 {
	_ = d.ensureFresh()
	return countToSize(d.sample.typicalSize)
}

// RawTemperature returns the uncompensated temperature in °C.
func (d *Dev) RawTemperature() float64 {
	_ = d.ensureFresh()
	return countToTemperature(d.sample.rawTemperature)
}

// RawHumidity returns the uncompensated relative humidity in %RH.
func (d *Dev) RawHumidity() float64 {
	_ = d.ensureFresh()
	return countToHumidity(d.sample.rawHumidity)
}

// RawVOC returns the raw VOC signal in ticks.
func (d *Dev) RawVOC() float64 {
	_ = d.ensureFresh()
	return countToTicks(d.sample.rawVOC)
}

// RawNOx returns the raw NOx signal in ticks.
func (d *Dev) RawNOx() float64 {
	_ = d.ensureFresh()
	return countToTicks(d.sample.rawNOx)
}

// Read fills m with every value of the current sample, refreshing it if
// needed. On error every value of m is NaN.
func (d *Dev) Read(m *Values) error {
	err := d.ensureFresh()
	d.sample.convert(m)
	return err
}

// Sense reads temperature and humidity. Implements the periph SenseEnv
// convention. Pressure is not measured and is set to 0.
func (d *Dev) Sense(e *physic.Env) error {
	e.Pressure = 0
	if err := d.ensureFresh(); err != nil {
		return err
	}
	t := countToTemperature(d.sample.temperature)
	h := countToHumidity(d.sample.humidity)
	if math.IsNaN(t) || math.IsNaN(h) {
		return errors.New("sen5x: no temperature or humidity reading available")
	}
	e.Temperature = physic.ZeroCelsius + physic.Temperature(t*float64(physic.Celsius))
	e.Humidity = physic.RelativeHumidity(h * float64(physic.PercentRH))
	return nil
}

// Precision returns the resolution of the temperature and humidity values.
func (d *Dev) Precision(e *physic.Env) {
	e.Temperature = physic.Kelvin / 200
	e.Humidity = physic.PercentRH / 100
	e.Pressure = 0
}

// Halt stops measuring if the device is running. Implements conn.Resource.
func (d *Dev) Halt() error {
	if d.mode == Idle {
		return nil
	}
	return d.Stop()
}

func (d *Dev) String() string {
	return fmt.Sprintf("sen5x: %s", d.d.String())
}

var _ conn.Resource = &Dev{}
