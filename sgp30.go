// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sgp30

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/sgp30/common"
)

const (
	// DefaultAddress is the only I2C address the SGP30 responds on.
	DefaultAddress uint16 = 0x58

	// The feature set word the get-feature-set command must return for the
	// device to be treated as an SGP30.
	featureSetWord uint16 = 0x0020

	// Value returned by the on-chip self test when all checks pass.
	selfTestPass uint16 = 0xd400
)

// Structure to simplify sending commands to the device.
type command struct {
	// The 16-bit command word.
	cmdWord uint16
	// The number of data words in the reply. Each word is followed on the
	// wire by a CRC byte.
	replyWords int
	// Settle time between issuing the command and reading the reply. The
	// device must not be addressed during this window.
	settle time.Duration
}

// The various implemented commands.

var cmdInitAirQuality = command{
	cmdWord: 0x2003,
	settle:  10 * time.Millisecond,
}
var cmdMeasureAirQuality = command{
	cmdWord:    0x2008,
	replyWords: 2,
	settle:     50 * time.Millisecond,
}
var cmdGetBaseline = command{
	cmdWord:    0x2015,
	replyWords: 2,
	settle:     10 * time.Millisecond,
}
var cmdSetBaseline = command{
	cmdWord: 0x201e,
	settle:  10 * time.Millisecond,
}
var cmdSetHumidity = command{
	cmdWord: 0x2061,
	settle:  10 * time.Millisecond,
}
var cmdMeasureTest = command{
	cmdWord:    0x2032,
	replyWords: 1,
	settle:     220 * time.Millisecond,
}
var cmdGetFeatureSet = command{
	cmdWord:    0x202f,
	replyWords: 1,
	settle:     10 * time.Millisecond,
}
var cmdMeasureRawSignals = command{
	cmdWord:    0x2050,
	replyWords: 2,
	settle:     25 * time.Millisecond,
}
var cmdGetTVOCInceptiveBaseline = command{
	cmdWord:    0x20b3,
	replyWords: 1,
	settle:     10 * time.Millisecond,
}
var cmdSetTVOCBaseline = command{
	cmdWord: 0x2077,
	settle:  10 * time.Millisecond,
}
var cmdGetSerial = command{
	cmdWord:    0x3682,
	replyWords: 3,
	settle:     10 * time.Millisecond,
}

// ErrNotDetected is returned by NewI2C when the device at the given address
// does not identify as an SGP30.
var ErrNotDetected = errors.New("sgp30: device not detected")

// ErrInvalidBaseline is returned by SetBaseline for the (0, 0) pair. The
// device reports (0, 0) when no baseline is available, and writing that
// pair back would corrupt the compensation algorithm state.
var ErrInvalidBaseline = errors.New("sgp30: invalid baseline")

// CO2 represents a CO2 equivalent concentration in ppm.
type CO2 uint16

func (c CO2) String() string {
	return strconv.Itoa(int(c)) + "ppm"
}

// TVOC represents a total volatile organic compound concentration in ppb.
type TVOC uint16

func (t TVOC) String() string {
	return strconv.Itoa(int(t)) + "ppb"
}

// Env represents one air quality measurement.
type Env struct {
	CO2  CO2
	TVOC TVOC
}

// Return the sensor readings in string format.
func (e *Env) String() string {
	return fmt.Sprintf("CO2Eq: %s TVOC: %s", e.CO2.String(), e.TVOC.String())
}

// Dev is a handle to an initialized SGP30 device.
type Dev struct {
	// The i2c bus device.
	d *i2c.Dev
	// 48-bit factory serial, read once during construction.
	serial [3]uint16
	// channel to halt SenseContinuous
	shutdown chan struct{}
	mu       sync.Mutex
}

// NewI2C creates a new SGP30 sensor using the supplied bus and address. The
// constant value DefaultAddress should be supplied as the value for addr.
//
// It reads the device serial, verifies the feature set word, and starts the
// indoor air quality algorithm. Any failure, including a feature set other
// than 0x0020, aborts construction and no handle is returned.
func NewI2C(b i2c.Bus, addr uint16) (*Dev, error) {
	d := &Dev{d: &i2c.Dev{Bus: b, Addr: addr}}

	words, err := d.sendCommand(cmdGetSerial, nil)
	if err != nil {
		return nil, err
	}
	copy(d.serial[:], words)

	words, err = d.sendCommand(cmdGetFeatureSet, nil)
	if err != nil {
		return nil, err
	}
	if words[0] != featureSetWord {
		return nil, fmt.Errorf("%w: feature set 0x%04x, expected 0x%04x", ErrNotDetected, words[0], featureSetWord)
	}

	if err := d.InitAirQuality(); err != nil {
		return nil, err
	}
	return d, nil
}

// All commands to read or write to the sensor go through this function. The
// command word and the CRC-protected payload words are written in a single
// transaction, then the device is left alone for the command's settle time,
// then the reply is read and every word is validated against its CRC byte.
// A CRC mismatch on any word fails the whole call.
func (d *Dev) sendCommand(cmd command, payload []uint16) ([]uint16, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	w := make([]byte, 2+len(payload)*3)
	w[0] = byte(cmd.cmdWord >> 8)
	w[1] = byte(cmd.cmdWord & 0xff)
	for ix, val := range payload {
		common.PutWord(w[2+ix*3:], val)
	}
	if err := d.d.Tx(w, nil); err != nil {
		return nil, fmt.Errorf("sgp30 cmd 0x%04x: %w", cmd.cmdWord, err)
	}

	time.Sleep(cmd.settle)
	if cmd.replyWords == 0 {
		return nil, nil
	}

	r := make([]byte, cmd.replyWords*3)
	if err := d.d.Tx(nil, r); err != nil {
		return nil, fmt.Errorf("sgp30 cmd 0x%04x: %w", cmd.cmdWord, err)
	}
	words := make([]uint16, cmd.replyWords)
	for ix := range words {
		word, err := common.Word(r[ix*3 : ix*3+3])
		if err != nil {
			return nil, fmt.Errorf("sgp30 cmd 0x%04x word %d: %w", cmd.cmdWord, ix, err)
		}
		words[ix] = word
	}
	return words, nil
}

// InitAirQuality starts, or restarts, the on-chip indoor air quality
// algorithm. It is run automatically by NewI2C. Calling it again resets the
// baseline learning, after which the device reports 400ppm/0ppb for up to
// 15 seconds while it re-conditions.
func (d *Dev) InitAirQuality() error {
	_, err := d.sendCommand(cmdInitAirQuality, nil)
	return err
}

// Measure reads the current CO2 equivalent and TVOC values, in that order.
//
// The device expects this command once per second to keep its dynamic
// baseline compensation running. Use SenseContinuous for that.
func (d *Dev) Measure() (Env, error) {
	words, err := d.sendCommand(cmdMeasureAirQuality, nil)
	if err != nil {
		return Env{}, err
	}
	return Env{CO2: CO2(words[0]), TVOC: TVOC(words[1])}, nil
}

// CO2 returns the current CO2 equivalent concentration.
func (d *Dev) CO2() (CO2, error) {
	env, err := d.Measure()
	return env.CO2, err
}

// TVOC returns the current total volatile organic compound concentration.
func (d *Dev) TVOC() (TVOC, error) {
	env, err := d.Measure()
	return env.TVOC, err
}

// Baseline reads the baseline values of the compensation algorithm, CO2
// equivalent first. Persist them and feed them back through SetBaseline
// after a power cycle to skip the 12 hour learning phase.
func (d *Dev) Baseline() (uint16, uint16, error) {
	words, err := d.sendCommand(cmdGetBaseline, nil)
	if err != nil {
		return 0, 0, err
	}
	return words[0], words[1], nil
}

// BaselineCO2 returns the CO2 equivalent baseline value.
func (d *Dev) BaselineCO2() (uint16, error) {
	co2eq, _, err := d.Baseline()
	return co2eq, err
}

// BaselineTVOC returns the TVOC baseline value.
func (d *Dev) BaselineTVOC() (uint16, error) {
	_, tvoc, err := d.Baseline()
	return tvoc, err
}

// SetBaseline seeds the compensation algorithm with previously stored
// baseline values. The pair (0, 0) is the device's "no baseline stored"
// sentinel and is rejected with ErrInvalidBaseline before any bus traffic.
//
// Note the wire order: the TVOC word is transmitted first, which is the
// reverse of the order Baseline returns.
func (d *Dev) SetBaseline(co2eq, tvoc uint16) error {
	if co2eq == 0 && tvoc == 0 {
		return ErrInvalidBaseline
	}
	_, err := d.sendCommand(cmdSetBaseline, []uint16{tvoc, co2eq})
	return err
}

// SetHumidity sets the absolute humidity used for on-chip humidity
// compensation. The value is in g/m³ as an 8.8 fixed point number, e.g.
// 0x0f80 for 15.5g/m³. A value of 0 disables humidity compensation.
func (d *Dev) SetHumidity(humidity uint16) error {
	_, err := d.sendCommand(cmdSetHumidity, []uint16{humidity})
	return err
}

// MeasureRaw reads the raw H2 and ethanol sensor signals, in that order.
// These are the uncompensated values the air quality algorithm derives its
// readings from.
func (d *Dev) MeasureRaw() (uint16, uint16, error) {
	words, err := d.sendCommand(cmdMeasureRawSignals, nil)
	if err != nil {
		return 0, 0, err
	}
	return words[0], words[1], nil
}

// SelfTest runs the on-chip self test. It returns an error if the device
// reports anything other than a pass. The test takes 220ms during which the
// bus is not used.
func (d *Dev) SelfTest() error {
	words, err := d.sendCommand(cmdMeasureTest, nil)
	if err != nil {
		return err
	}
	if words[0] != selfTestPass {
		return fmt.Errorf("sgp30: self test failed with 0x%04x", words[0])
	}
	return nil
}

// FeatureSet reads the product feature set word. The high nibbles identify
// the product type, the low byte the product version.
func (d *Dev) FeatureSet() (uint16, error) {
	words, err := d.sendCommand(cmdGetFeatureSet, nil)
	if err != nil {
		return 0, err
	}
	return words[0], nil
}

// TVOCInceptiveBaseline reads the inceptive baseline of the TVOC
// compensation, for use during the first power cycles of a new device.
func (d *Dev) TVOCInceptiveBaseline() (uint16, error) {
	words, err := d.sendCommand(cmdGetTVOCInceptiveBaseline, nil)
	if err != nil {
		return 0, err
	}
	return words[0], nil
}

// SetTVOCBaseline seeds only the TVOC part of the compensation baseline.
func (d *Dev) SetTVOCBaseline(tvoc uint16) error {
	_, err := d.sendCommand(cmdSetTVOCBaseline, []uint16{tvoc})
	return err
}

// SerialNumber returns the 48-bit factory serial number read during
// construction.
func (d *Dev) SerialNumber() uint64 {
	return uint64(d.serial[0])<<32 | uint64(d.serial[1])<<16 | uint64(d.serial[2])
}

// Sense reads one measurement from the device into env.
func (d *Dev) Sense(env *Env) error {
	e, err := d.Measure()
	if err != nil {
		return err
	}
	*env = e
	return nil
}

// SenseContinuous reads the sensor on the specified interval and writes the
// readings to the returned channel. The device wants a measurement every
// second to keep its baseline compensation running; an interval much longer
// than that degrades accuracy. To terminate, call Halt().
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan Env, error) {
	d.mu.Lock()
	if d.shutdown != nil {
		d.mu.Unlock()
		return nil, errors.New("sgp30: SenseContinuous already running")
	}
	d.shutdown = make(chan struct{})
	shutdown := d.shutdown
	d.mu.Unlock()

	channelSize := 16
	channel := make(chan Env, channelSize)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		defer close(channel)
		for {
			select {
			case <-shutdown:
				return
			case <-ticker.C:
				env := Env{}
				if err := d.Sense(&env); err == nil && len(channel) < channelSize {
					channel <- env
				}
			}
		}
	}()
	return channel, nil
}

// Halt stops a SenseContinuous operation if one is in progress. Implements
// conn.Resource. The device itself has no low power command in the feature
// set this driver targets, so the sensor keeps measuring.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.shutdown != nil {
		close(d.shutdown)
		d.shutdown = nil
	}
	return nil
}

// Precision returns the smallest change in readings the device can
// produce, 1ppm CO2 equivalent and 1ppb TVOC.
func (d *Dev) Precision(env *Env) {
	env.CO2 = 1
	env.TVOC = 1
}

func (d *Dev) String() string {
	return fmt.Sprintf("sgp30: %s", d.d.String())
}

var _ conn.Resource = &Dev{}
