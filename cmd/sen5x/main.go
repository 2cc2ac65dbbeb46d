// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// sen5x reads a Sensirion SEN5x sensor and exposes its values to Prometheus.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GermanBionicSystems/airsense/aqbar"
	"github.com/GermanBionicSystems/airsense/sen5x"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// CLI args
var (
	busName      = flag.String("bus", "", "I²C bus to use")
	addr         = flag.Uint("addr", uint(sen5x.DefaultAddress), "I²C address of the sensor")
	gasOnly      = flag.Bool("gas-only", false, "measure without the particulate channels")
	readInterval = flag.Duration("interval", 2*time.Second, "time interval between sensor reads")
	listenAddr   = flag.String("listen-address", ":8080", "The address to listen on for HTTP requests.")
	drawBar      = flag.Bool("bar", false, "draw PM2.5 as a bar on the terminal")
	verbose      = flag.Bool("v", false, "verbose logging")
)

func main() {
	flag.Parse()
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context) error {
	if _, err := host.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize periph")
	}
	b, err := i2creg.Open(*busName)
	if err != nil {
		return errors.Wrap(err, "failed to open I²C bus")
	}
	defer b.Close()

	dev, err := sen5x.NewI2C(b, uint16(*addr), &sen5x.Opts{Logger: log.StandardLogger()})
	if err != nil {
		return err
	}
	var bar *aqbar.Dev
	if *drawBar {
		if bar, err = aqbar.New(&aqbar.Opts{X: 40, Max: 75, Label: "PM2.5 µg/m³"}); err != nil {
			return err
		}
		defer bar.Halt()
	}

	// Add Go module build info.
	prometheus.MustRegister(prometheus.NewBuildInfoCollector())
	e, err := newExporter(dev, prometheus.DefaultRegisterer, bar, log.StandardLogger())
	if err != nil {
		return err
	}
	if err := e.start(!*gasOnly); err != nil {
		return err
	}
	defer func() {
		if err := dev.Halt(); err != nil {
			log.Errorf("failed to stop measurements: %s", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(
		prometheus.DefaultGatherer,
		promhttp.HandlerOpts{
			// Opt into OpenMetrics to support exemplars.
			EnableOpenMetrics: true,
		},
	))
	srv := &http.Server{Addr: *listenAddr, Handler: mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("listening on %s", *listenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server failed")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return srv.Shutdown(context.Background())
	})
	g.Go(func() error {
		return e.run(ctx, *readInterval)
	})
	return g.Wait()
}
