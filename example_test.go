//go:build examples
// +build examples

// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sgp30_test

import (
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
	"periph.io/x/sgp30"
)

// basic example program for the SGP30 air quality sensor using this library.
//
// To execute this as a stand-alone program:
//
// Copy the file example_test.go to a new directory.
// rename the file to main.go
// rename the Example() function to main, and the package to main
//
// execute:
//
//	go mod init mydomain.com/sgp30
//	go mod tidy
//	go build -o main main.go
//	./main
func Example() {
	fmt.Println("sgp30 example program")
	if _, err := host.Init(); err != nil {
		fmt.Println(err)
	}
	bus, err := i2creg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	defer bus.Close()

	dev, err := sgp30.NewI2C(bus, sgp30.DefaultAddress)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("serial number: 0x%012x\n", dev.SerialNumber())

	// The device wants one measurement per second to keep its baseline
	// compensation algorithm running.
	ch, err := dev.SenseContinuous(time.Second)
	if err != nil {
		log.Fatal(err)
	}
	n := 0
	for env := range ch {
		fmt.Println(env.String())
		if n++; n >= 30 {
			_ = dev.Halt()
		}
	}

	// Persist the learned baseline so the next power cycle can skip the
	// learning phase with dev.SetBaseline(co2eq, tvoc).
	co2eq, tvoc, err := dev.Baseline()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("baseline: co2eq=0x%04x tvoc=0x%04x\n", co2eq, tvoc)
}
