// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sen5x provides a driver for the Sensirion SEN5x environmental
// sensor node. The SEN55 measures particulate matter (mass concentration and
// number concentration), relative humidity, temperature, a VOC index and a
// NOx index.
//
// Readings are cached. An accessor such as Temperature() only talks to the
// device when the cached sample is older than Opts.MaxAge (1050ms by default,
// just above the 1s measurement interval of the sensor). A read cycle checks
// the device status register and then fetches three frames: the core values,
// the raw signals and the raw particle data. Either every value of the
// sample is updated or, on any failure, the whole sample is invalidated.
//
// Accessors never return errors. An invalid value is reported as NaN, and the
// failure is recorded in LastError() and signaled to the handler installed
// with SetErrorHandler(). Control functions such as Start() also return the
// error.
//
// Dev is not safe for concurrent use. The error handler runs synchronously on
// the calling goroutine and must not call back into a read accessor.
//
// # Datasheet
//
// https://sensirion.com/media/documents/6791EFA0/62A1F68F/Sensirion_Datasheet_Environmental_Node_SEN5x.pdf
package sen5x
