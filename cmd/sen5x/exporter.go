// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"math"
	"time"

	"github.com/GermanBionicSystems/airsense/aqbar"
	"github.com/GermanBionicSystems/airsense/sen5x"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// exporter polls a sensor and publishes its values as gauges labelled with
// the sensor serial number.
type exporter struct {
	dev *sen5x.Dev
	bar *aqbar.Dev
	log logrus.FieldLogger

	serial string

	temperature *prometheus.GaugeVec
	humidity    *prometheus.GaugeVec
	voc         *prometheus.GaugeVec
	nox         *prometheus.GaugeVec
	mass        *prometheus.GaugeVec
	number      *prometheus.GaugeVec
	size        *prometheus.GaugeVec
	errors      *prometheus.CounterVec
}

func newGauge(name, help string, labels ...string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: name,
			Help: help,
		},
		append([]string{"serial_number"}, labels...),
	)
}

// newExporter registers the metrics with reg. bar may be nil.
func newExporter(dev *sen5x.Dev, reg prometheus.Registerer, bar *aqbar.Dev, log logrus.FieldLogger) (*exporter, error) {
	e := &exporter{
		dev:         dev,
		bar:         bar,
		log:         log,
		temperature: newGauge("sen5x_temperature_celsius", "Ambient temperature (units: degrees Celsius)"),
		humidity:    newGauge("sen5x_humidity_percent", "Relative humidity (units: % of relative humidity)"),
		voc:         newGauge("sen5x_voc_index", "VOC index (1 to 500, 100 is the 24h average)"),
		nox:         newGauge("sen5x_nox_index", "NOx index (1 to 500, 1 is the 24h average)"),
		mass:        newGauge("sen5x_mass_concentration", "Particulate mass concentration (units: µg/m3)", "size"),
		number:      newGauge("sen5x_number_concentration", "Particle number concentration (units: #/cm3)", "size"),
		size:        newGauge("sen5x_typical_particle_size", "Typical particle size (units: µm)"),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sen5x_errors_total",
				Help: "Errors reported by the driver",
			},
			[]string{"serial_number"},
		),
	}
	for _, c := range []prometheus.Collector{e.temperature, e.humidity, e.voc, e.nox, e.mass, e.number, e.size, e.errors} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "failed to register metric")
		}
	}
	dev.SetErrorHandler(func() {
		e.errors.WithLabelValues(e.serial).Inc()
		e.log.Debugf("counted sensor error: %s", dev.LastError())
	})
	return e, nil
}

// start identifies the sensor and begins measuring.
func (e *exporter) start(withParticulates bool) error {
	name := e.dev.ProductName()
	e.serial = e.dev.SerialNumber()
	if e.serial == "" {
		return errors.Errorf("failed to read serial number: %s", e.dev.LastError())
	}
	e.log.WithFields(logrus.Fields{
		"product":  name,
		"serial":   e.serial,
		"firmware": e.dev.FirmwareVersion(),
	}).Info("found sensor")
	if err := e.dev.Start(withParticulates); err != nil {
		return errors.Wrap(err, "failed to start measurements")
	}
	return nil
}

// set publishes v, or removes the series while v is not valid.
func (e *exporter) set(g *prometheus.GaugeVec, v float64, labels ...string) {
	labels = append([]string{e.serial}, labels...)
	if math.IsNaN(v) {
		g.DeleteLabelValues(labels...)
		return
	}
	g.WithLabelValues(labels...).Set(v)
}

// poll reads the sensor once. Failures are counted by the error handler.
func (e *exporter) poll() {
	m := sen5x.Values{}
	if err := e.dev.Read(&m); err == nil {
		e.log.Debugf("received: %s", m.String())
	}
	e.set(e.temperature, m.Temperature)
	e.set(e.humidity, m.Humidity)
	e.set(e.voc, m.VOC)
	e.set(e.nox, m.NOx)
	for p := sen5x.PM1; p <= sen5x.PM10; p++ {
		e.set(e.mass, m.Mass[p], p.String())
	}
	for n := sen5x.NC05; n <= sen5x.NC10; n++ {
		e.set(e.number, m.Number[n], n.String())
	}
	e.set(e.size, m.TypicalParticleSize)
	if e.bar != nil {
		if err := e.bar.Show(m.Mass[sen5x.PM25]); err != nil {
			e.log.Errorf("failed to draw: %s", err)
		}
	}
}

// run polls every interval until ctx is done.
func (e *exporter) run(ctx context.Context, interval time.Duration) error {
	if interval < sen5x.DefaultMaxAge {
		return errors.Errorf("read interval %s is shorter than the sensor update rate", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	e.poll()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.poll()
		}
	}
}
