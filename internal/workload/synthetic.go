// SPDX-FileCopyrightText: 2025 The Wattbench Authors
// SPDX-License-Identifier: Apache-2.0

package workload

import (
	"crypto/sha256"
	"fmt"
	"math/rand"
)

// Synthetic units approximating the per-layer shapes of a small
// convolutional network forward pass. Model loading and decomposition
// into real layers is a separate concern; these units give the harness
// repeatable, CPU-bound work with distinct compute profiles.

// sink defeats dead-code elimination of the unit bodies.
var sink float64

// denseUnit computes a dense layer forward pass y = Wx + b.
type denseUnit struct {
	name    string
	in, out int
	weights []float64 // out x in, row major
	bias    []float64
	input   []float64
}

// NewDenseUnit creates a dense (fully connected) forward-pass unit with
// deterministic weights.
func NewDenseUnit(name string, in, out int) Unit {
	rng := rand.New(rand.NewSource(42))
	u := &denseUnit{
		name:    name,
		in:      in,
		out:     out,
		weights: make([]float64, in*out),
		bias:    make([]float64, out),
		input:   make([]float64, in),
	}
	for i := range u.weights {
		u.weights[i] = rng.Float64() - 0.5
	}
	for i := range u.bias {
		u.bias[i] = rng.Float64() - 0.5
	}
	for i := range u.input {
		u.input[i] = rng.Float64()
	}
	return u
}

func (u *denseUnit) Name() string { return u.name }

func (u *denseUnit) Execute() error {
	var total float64
	for o := 0; o < u.out; o++ {
		acc := u.bias[o]
		row := u.weights[o*u.in : (o+1)*u.in]
		for i, w := range row {
			acc += w * u.input[i]
		}
		// ReLU
		if acc > 0 {
			total += acc
		}
	}
	sink = total
	return nil
}

// stencilUnit applies a 3x3 stencil over a 2D grid, the memory access
// pattern of a convolution layer.
type stencilUnit struct {
	name   string
	size   int
	grid   []float64
	out    []float64
	kernel [9]float64
}

// NewStencilUnit creates a 3x3 stencil unit over a size x size grid.
func NewStencilUnit(name string, size int) Unit {
	rng := rand.New(rand.NewSource(7))
	u := &stencilUnit{
		name: name,
		size: size,
		grid: make([]float64, size*size),
		out:  make([]float64, size*size),
	}
	for i := range u.grid {
		u.grid[i] = rng.Float64()
	}
	for i := range u.kernel {
		u.kernel[i] = rng.Float64() - 0.5
	}
	return u
}

func (u *stencilUnit) Name() string { return u.name }

func (u *stencilUnit) Execute() error {
	n := u.size
	for y := 1; y < n-1; y++ {
		for x := 1; x < n-1; x++ {
			var acc float64
			k := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					acc += u.kernel[k] * u.grid[(y+dy)*n+(x+dx)]
					k++
				}
			}
			u.out[y*n+x] = acc
		}
	}
	sink = u.out[n+1]
	return nil
}

// hashUnit chains SHA-256 over a buffer, an integer/branch heavy
// profile unlike the float units.
type hashUnit struct {
	name   string
	rounds int
	buf    [sha256.Size]byte
}

// NewHashUnit creates a unit hashing a digest-sized buffer rounds times.
func NewHashUnit(name string, rounds int) Unit {
	u := &hashUnit{name: name, rounds: rounds}
	copy(u.buf[:], []byte(name))
	return u
}

func (u *hashUnit) Name() string { return u.name }

func (u *hashUnit) Execute() error {
	buf := u.buf
	for i := 0; i < u.rounds; i++ {
		buf = sha256.Sum256(buf[:])
	}
	sink = float64(buf[0])
	return nil
}

// FuncUnit wraps a plain function as a Unit.
type FuncUnit struct {
	UnitName string
	Fn       func() error
}

func (u *FuncUnit) Name() string { return u.UnitName }

func (u *FuncUnit) Execute() error { return u.Fn() }

// DefaultSuite returns the built-in unit sequence, sized so each unit
// runs long enough at the default repeat count to span several polling
// intervals.
func DefaultSuite() []Unit {
	units := []Unit{
		NewStencilUnit("Conv2d_0", 512),
		NewDenseUnit("Linear_1", 4096, 1024),
		NewDenseUnit("Linear_2", 1024, 256),
		NewHashUnit("Hash_3", 2000),
	}
	return units
}

// SuiteNames returns the unit names, for logging.
func SuiteNames(units []Unit) []string {
	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.Name()
	}
	return names
}

// ByName selects the named units from a suite, preserving suite order.
func ByName(units []Unit, names []string) ([]Unit, error) {
	if len(names) == 0 {
		return units, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	var selected []Unit
	for _, u := range units {
		if wanted[u.Name()] {
			selected = append(selected, u)
			delete(wanted, u.Name())
		}
	}

	if len(wanted) != 0 {
		for n := range wanted {
			return nil, fmt.Errorf("unknown unit: %q", n)
		}
	}
	return selected, nil
}
