// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sen5x

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Kind classifies the failures detected by the driver.
type Kind int

const (
	// BusWriteFailure is returned when writing a command word fails.
	BusWriteFailure Kind = iota + 1
	// BusReadFailure is returned when reading a response frame fails.
	BusReadFailure
	// ChecksumMismatch is returned when a response frame fails CRC validation.
	ChecksumMismatch
	// DeviceNotMeasuring is returned when a sample is requested while the
	// device is idle.
	DeviceNotMeasuring
	// DeviceStatusFault is returned when the device status register has a
	// bit set. See Fault.
	DeviceStatusFault
	// DeviceStatusUnreadable is returned when the device status register
	// could not be read.
	DeviceStatusUnreadable
)

func (k Kind) String() string {
	switch k {
	case BusWriteFailure:
		return "bus write failure"
	case BusReadFailure:
		return "bus read failure"
	case ChecksumMismatch:
		return "checksum mismatch"
	case DeviceNotMeasuring:
		return "device not measuring"
	case DeviceStatusFault:
		return "device status fault"
	case DeviceStatusUnreadable:
		return "device status unreadable"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the error type returned and reported by Dev.
type Error struct {
	Kind Kind
	// Fault is set when Kind is DeviceStatusFault and the status bit is
	// known.
	Fault Fault
	// Status is the device status word for DeviceStatusFault.
	Status uint32
	// Cmd is the command word that was being executed, if any.
	Cmd uint16
	// Err is the underlying bus error, if any.
	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case BusWriteFailure:
		return fmt.Sprintf("sen5x cmd 0x%04x: write failed: %v", e.Cmd, e.Err)
	case BusReadFailure:
		return fmt.Sprintf("sen5x cmd 0x%04x: read failed: %v", e.Cmd, e.Err)
	case ChecksumMismatch:
		return fmt.Sprintf("sen5x cmd 0x%04x: invalid crc", e.Cmd)
	case DeviceNotMeasuring:
		return "sen5x: not measuring, call Start() first"
	case DeviceStatusFault:
		if e.Fault != 0 {
			return e.Fault.String()
		}
		return fmt.Sprintf("sen5x: device status 0x%08x", e.Status)
	case DeviceStatusUnreadable:
		return fmt.Sprintf("sen5x: device status unreadable: %v", e.Err)
	}
	return "sen5x: " + e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// SetErrorHandler installs h to be called after every failure. Any previous
// handler is released. Passing nil removes the handler.
//
// h is invoked synchronously after LastError() has been updated, so h can
// read the message describing the failure. h must not call read accessors.
func (d *Dev) SetErrorHandler(h func()) {
	d.handler = h
}

// LastError returns the message of the most recent failure. It is empty until
// a failure occurs and is cleared by a successful Reset().
func (d *Dev) LastError() string {
	return d.lastError
}

// report records err as the last error, then invokes the handler. It returns
// err so that call sites can write return d.report(err).
func (d *Dev) report(err error) error {
	d.lastError = err.Error()
	fields := logrus.Fields{}
	if e := (*Error)(nil); errors.As(err, &e) {
		fields["kind"] = e.Kind.String()
		if e.Cmd != 0 {
			fields["cmd"] = fmt.Sprintf("0x%04x", e.Cmd)
		}
	}
	d.log.WithFields(fields).WithError(err).Warn("sen5x: reporting error")
	if d.handler != nil {
		d.handler()
	}
	return err
}
