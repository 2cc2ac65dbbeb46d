// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/GermanBionicSystems/airsense/aqbar"
	"github.com/GermanBionicSystems/airsense/common"
	"github.com/GermanBionicSystems/airsense/sen5x"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func frame(words ...uint16) []byte {
	var b []byte
	for _, w := range words {
		b = common.AppendWord(b, w)
	}
	return b
}

// text packs s into a 48 byte string response.
func text(s string) []byte {
	b := make([]byte, 32)
	copy(b, s)
	words := make([]uint16, 0, 16)
	for ix := 0; ix < len(b); ix += 2 {
		words = append(words, uint16(b[ix])<<8|uint16(b[ix+1]))
	}
	return frame(words...)
}

func write(word uint16) i2ctest.IO {
	return i2ctest.IO{Addr: sen5x.DefaultAddress, W: []byte{byte(word >> 8), byte(word)}}
}

func read(b []byte) i2ctest.IO {
	return i2ctest.IO{Addr: sen5x.DefaultAddress, R: b}
}

var exporterPlayback = []i2ctest.IO{
	write(0xd014), read(text("SEN55")),
	write(0xd033), read(text("0A1B2C3D4E5F6A7B")),
	write(0xd100), read(frame(0x0200)),
	write(0x0021),
	write(0xd206), read(frame(0, 0)),
	write(0x03c4), read(frame(35, 52, 61, 65, 4425, 4650, 1000, 10)),
	write(0x03d2), read(frame(4300, 5050, 31450, 16240)),
	write(0x0413), read(frame(35, 52, 61, 65, 215, 248, 252, 253, 253, 520)),
}

func TestExporter(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	pb := &i2ctest.Playback{Ops: exporterPlayback, DontPanic: true}
	dev, err := sen5x.NewI2C(pb, sen5x.DefaultAddress, &sen5x.Opts{MaxAge: time.Nanosecond, Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	bar, err := aqbar.New(&aqbar.Opts{X: 10, Max: 50, Label: "PM2.5", W: &out})
	if err != nil {
		t.Fatal(err)
	}
	reg := prometheus.NewRegistry()
	e, err := newExporter(dev, reg, bar, logger)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.start(true); err != nil {
		t.Fatal(err)
	}
	if e.serial != "0A1B2C3D4E5F6A7B" {
		t.Errorf("serial %q", e.serial)
	}

	e.poll()
	if v := testutil.ToFloat64(e.temperature.WithLabelValues(e.serial)); v != 23.25 {
		t.Errorf("temperature %v expected 23.25", v)
	}
	if v := testutil.ToFloat64(e.mass.WithLabelValues(e.serial, "PM2.5")); v != 5.1875 {
		t.Errorf("PM2.5 %v expected 5.1875", v)
	}
	if n := testutil.CollectAndCount(e.number); n != 5 {
		t.Errorf("%d number concentration series, expected 5", n)
	}
	if !strings.HasSuffix(out.String(), "PM2.5 5.2") {
		t.Errorf("bar output %q", out.String())
	}

	// The playback is exhausted: the next read fails and the series go away.
	time.Sleep(time.Millisecond)
	e.poll()
	if n := testutil.CollectAndCount(e.temperature); n != 0 {
		t.Errorf("%d temperature series after a failed read, expected 0", n)
	}
	if n := testutil.CollectAndCount(e.mass); n != 0 {
		t.Errorf("%d mass series after a failed read, expected 0", n)
	}
	if v := testutil.ToFloat64(e.errors.WithLabelValues(e.serial)); v != 1 {
		t.Errorf("errors %v expected 1", v)
	}
	if !strings.HasSuffix(out.String(), "PM2.5 n/a") {
		t.Errorf("bar output %q", out.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := e.run(ctx, 2*time.Second); err != nil {
		t.Error(err)
	}
	if err := e.run(ctx, time.Second); err == nil {
		t.Error("expected error for an interval shorter than the update rate")
	}
}

func TestExporterNoSensor(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	dev, err := sen5x.NewI2C(&i2ctest.Playback{DontPanic: true}, sen5x.DefaultAddress, &sen5x.Opts{Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	e, err := newExporter(dev, prometheus.NewRegistry(), nil, logger)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.start(true); err == nil {
		t.Error("expected error without a sensor")
	}
	if _, err := newExporter(dev, prometheus.NewRegistry(), nil, logger); err != nil {
		t.Error(err)
	}
}
