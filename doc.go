// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sgp30 provides a driver for the Sensirion SGP30 indoor air
// quality gas sensor. The sensor reports a CO2 equivalent concentration in
// ppm and a total volatile organic compound concentration in ppb, and
// exposes the baseline values of its on-chip compensation algorithm so the
// compensation state can be persisted across power cycles.
//
// Refer to the datasheet for more information.
//
// https://sensirion.com/media/documents/984E0DD5/61644B8B/Sensirion_Gas_Sensors_Datasheet_SGP30.pdf
package sgp30
