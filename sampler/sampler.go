// Copyright 2025 The QMC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sampler implements Markov-chain Monte Carlo kernels that draw
// batches of electron-configuration walkers distributed according to the
// squared magnitude of a many-body wavefunction.
//
// Every kernel is an explicit state machine: Step advances the chain by one
// proposal, mutates the kernel's internal walker state and returns a
// Snapshot. Chains are unbounded; callers slice a finite window with
// SamplesFrom or by pulling Step themselves. All randomness flows through
// the rand.Source given at construction, so runs are reproducible.
package sampler

import (
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/mmjb/deepqmc/physics"
)

// Wavefunction is the amplitude evaluator a kernel consults. See
// physics.Wavefunction for the batch conventions.
type Wavefunction = physics.Wavefunction

// ForceProvider supplies the drift field and amplitudes, see
// physics.ForceProvider.
type ForceProvider = physics.ForceProvider

// Stats carries one step's diagnostics. Acceptance is the fraction of
// walkers that adopted their proposal. Lifetime is per-walker consecutive
// rejections since the last acceptance; only the Langevin kernel fills it.
type Stats struct {
	Acceptance float64
	Lifetime   []int
}

// Snapshot is one step's yielded chain state: positions (one row per
// walker, 3 columns per electron), amplitudes and diagnostics. Snapshots
// are copies and never alias the live chain state.
type Snapshot struct {
	Pos   *mat.Dense
	Psi   []float64
	Stats Stats
}

// Kernel is an MCMC transition rule driving a batch of independent chains.
// Step blocks on the amplitude and force evaluations it needs and returns
// the step's snapshot; whether that snapshot reflects the state before or
// after applying the acceptance is documented per kernel.
type Kernel interface {
	Step() (Snapshot, error)
}

// draws bundles the unit-normal and unit-uniform streams of one kernel.
type draws struct {
	normal  distuv.Normal
	uniform distuv.Uniform
}

func newDraws(src rand.Source) draws {
	return draws{
		normal:  distuv.Normal{Mu: 0, Sigma: 1, Src: src},
		uniform: distuv.Uniform{Min: 0, Max: 1, Src: src},
	}
}

// randn fills a fresh rows x cols matrix with standard-normal draws.
func (d draws) randn(rows, cols int) *mat.Dense {
	m := mat.NewDense(rows, cols, nil)
	data := m.RawMatrix().Data
	for i := range data {
		data[i] = d.normal.Rand()
	}
	return m
}

// accept performs the per-walker Metropolis draw: walker i adopts its
// proposal iff a uniform variate falls below pAcc[i].
func (d draws) accept(pAcc []float64) []bool {
	accepted := make([]bool, len(pAcc))
	for i, p := range pAcc {
		accepted[i] = p > d.uniform.Rand()
	}
	return accepted
}

func acceptFraction(accepted []bool) float64 {
	n := 0
	for _, ok := range accepted {
		if ok {
			n++
		}
	}
	return float64(n) / float64(len(accepted))
}

// snapshot copies the given state into a Snapshot.
func snapshot(pos *mat.Dense, psi []float64, stats Stats) Snapshot {
	return Snapshot{
		Pos:   mat.DenseCopyOf(pos),
		Psi:   slices.Clone(psi),
		Stats: stats,
	}
}
