// SPDX-FileCopyrightText: 2025 The Wattbench Authors
// SPDX-License-Identifier: Apache-2.0

package device

import "fmt"

// Power represents instantaneous power draw as float64 MicroWatts.
// Use Watts, MilliWatts and MicroWatts to get the value in the
// respective unit.
type Power float64

const (
	MicroWatt Power = 1.0
	MilliWatt       = 1000 * MicroWatt
	Watt            = 1000 * MilliWatt
)

// PowerFromWatts converts a watt value into a Power.
func PowerFromWatts(w float64) Power {
	return Power(w) * Watt
}

func (p Power) MicroWatts() float64 {
	return float64(p)
}

func (p Power) MilliWatts() float64 {
	return float64(p / MilliWatt)
}

func (p Power) Watts() float64 {
	return float64(p / Watt)
}

func (p Power) String() string {
	return fmt.Sprintf("%.2fW", p.Watts())
}

// Energy represents consumed energy as float64 MicroJoules. Energy is
// float (unlike hardware counter readings) because it is produced by
// integrating sampled power over time, not read from a register.
type Energy float64

const (
	MicroJoule Energy = 1.0
	MilliJoule        = 1000 * MicroJoule
	Joule             = 1000 * MilliJoule
)

// EnergyFromJoules converts a joule value into an Energy.
func EnergyFromJoules(j float64) Energy {
	return Energy(j) * Joule
}

func (e Energy) MicroJoules() float64 {
	return float64(e)
}

func (e Energy) MilliJoules() float64 {
	return float64(e / MilliJoule)
}

func (e Energy) Joules() float64 {
	return float64(e / Joule)
}

func (e Energy) String() string {
	return fmt.Sprintf("%.3fJ", e.Joules())
}
