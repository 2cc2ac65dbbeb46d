// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sen5x

import "fmt"

// Device status register bits. Test them against the value returned by
// DeviceStatus().
const (
	StatusFanSpeed    uint32 = 1 << 21
	StatusFanCleaning uint32 = 1 << 19
	StatusGasSensor   uint32 = 1 << 7
	StatusRHT         uint32 = 1 << 6
	StatusLaser       uint32 = 1 << 5
	StatusFan         uint32 = 1 << 4

	// statusUnreadable is returned by DeviceStatus() when the register can't
	// be read.
	statusUnreadable uint32 = 0xffffffff
)

// Fault identifies a device status bit.
type Fault int

const (
	// FanSpeed is a warning: the fan speed is out of range.
	FanSpeed Fault = iota + 1
	// FanCleaning is set while a fan cleaning cycle is running.
	FanCleaning
	// GasSensor is set on a VOC/NOx sensor error.
	GasSensor
	// HumidityTempSensor is set on an SHT communication error.
	HumidityTempSensor
	// Laser is set on a laser failure.
	Laser
	// FanFailure is set when the fan is blocked or broken.
	FanFailure
)

// statusFaults is ordered by bit, highest first. Faults are reported in this
// order.
var statusFaults = []struct {
	mask  uint32
	fault Fault
	msg   string
}{
	{StatusFanSpeed, FanSpeed, "Fan Speed Warning"},
	{StatusFanCleaning, FanCleaning, "Fan Cleaning Active"},
	{StatusGasSensor, GasSensor, "Gas Sensor Error"},
	{StatusRHT, HumidityTempSensor, "Humidity/Temp Sensor Error"},
	{StatusLaser, Laser, "Laser Error"},
	{StatusFan, FanFailure, "Fan Error"},
}

// String returns the message reported for the fault.
func (f Fault) String() string {
	for _, sf := range statusFaults {
		if sf.fault == f {
			return sf.msg
		}
	}
	return fmt.Sprintf("Fault(%d)", int(f))
}

// Faults returns the known faults set in status, highest bit first.
func Faults(status uint32) []Fault {
	var faults []Fault
	for _, sf := range statusFaults {
		if status&sf.mask != 0 {
			faults = append(faults, sf.fault)
		}
	}
	return faults
}

// queryStatus reads the device status register. Every set fault bit is
// reported on its own, and the first one is returned as the error. A status
// with only unknown bits set is reported once.
func (d *Dev) queryStatus() (uint32, error) {
	r, err := d.query(cmdReadDeviceStatus)
	if err != nil {
		return statusUnreadable, d.report(&Error{Kind: DeviceStatusUnreadable, Cmd: cmdReadDeviceStatus.word, Err: err})
	}
	// Byte 2 is the CRC of the first word.
	status := uint32(r[0])<<24 | uint32(r[1])<<16 | uint32(r[3])<<8 | uint32(r[4])
	if status == 0 {
		return 0, nil
	}
	d.log.WithField("status", fmt.Sprintf("0x%08x", status)).Debug("sen5x: device status")
	var first error
	for _, f := range Faults(status) {
		err := d.report(&Error{Kind: DeviceStatusFault, Fault: f, Status: status, Cmd: cmdReadDeviceStatus.word})
		if first == nil {
			first = err
		}
	}
	if first == nil {
		first = d.report(&Error{Kind: DeviceStatusFault, Status: status, Cmd: cmdReadDeviceStatus.word})
	}
	return status, first
}

// DeviceStatus reads the device status register and returns it. 0 means
// healthy; test other values against the Status constants. Each fault bit set
// is reported through the error handler. 0xffffffff is returned when the
// register can't be read.
func (d *Dev) DeviceStatus() uint32 {
	status, _ := d.queryStatus()
	return status
}

// ClearDeviceStatus clears the device status register.
func (d *Dev) ClearDeviceStatus() error {
	if err := d.sendCommand(cmdClearDeviceStatus); err != nil {
		return d.report(err)
	}
	return nil
}
