// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package airsense is a container for the Sensirion SEN5x air quality sensor
// driver and the tools built on it.
//
// The driver lives in sen5x, the shared Sensirion CRC in common, the terminal
// bar in aqbar and the Prometheus exporter in cmd/sen5x.
package airsense
