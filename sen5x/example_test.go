//go:build examples
// +build examples

// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sen5x_test

import (
	"fmt"
	"log"
	"time"

	"github.com/GermanBionicSystems/airsense/sen5x"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// basic example program for the sen5x sensors using this library.
//
// To execute this as a stand-alone program:
//
// Copy the file example_test.go to a new directory.
// rename the file to main.go
// rename the Example() function to main, and the package to main
//
// execute:
//
//	go mod init mydomain.com/sen5x
//	go mod tidy
//	go build -o main main.go
//	./main
func Example() {
	fmt.Println("sen5x example program")
	if _, err := host.Init(); err != nil {
		fmt.Println(err)
	}
	bus, err := i2creg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	dev, err := sen5x.NewI2C(bus, sen5x.DefaultAddress, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer dev.Halt()
	dev.SetErrorHandler(func() {
		fmt.Println("error:", dev.LastError())
	})

	fmt.Printf("%s serial %s firmware %d\n", dev.ProductName(), dev.SerialNumber(), dev.FirmwareVersion())
	if err := dev.Start(true); err != nil {
		log.Fatal(err)
	}
	time.Sleep(time.Second)

	fmt.Printf("Temperature: %.2f°C Humidity: %.2f%%rH\n", dev.Temperature(), dev.Humidity())
	fmt.Printf("PM2.5: %.1fµg/m³ VOC: %.0f NOx: %.0f\n", dev.ParticleMass(sen5x.PM25), dev.VOC(), dev.NOx())
	if status := dev.DeviceStatus(); status&sen5x.StatusFan != 0 {
		fmt.Println("fan failure, starting fan cleaning")
		_ = dev.StartFanCleaning()
	}
	// Output: sen5x example program
	// SEN55 serial 9E4F1D7C2A3B5E60 firmware 2
	// Temperature: 24.84°C Humidity: 32.30%rH
	// PM2.5: 3.2µg/m³ VOC: 102 NOx: 1
}
