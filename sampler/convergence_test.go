// Copyright 2025 The QMC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sampler

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/mmjb/deepqmc/physics"
)

// TestKernelsConvergeToSquaredAmplitude checks detailed balance against a
// closed-form target: for a Gaussian wavefunction with unit width the
// squared amplitude is a standard normal per coordinate, so long-run
// samples from every kernel must reproduce its first two moments.
//
// The Metropolis kernel's independence proposal carries no Hastings weight,
// which tilts its stationary density by the proposal density itself; a
// proposal several times wider than the target keeps that tilt inside the
// test tolerance.
func TestKernelsConvergeToSquaredAmplitude(t *testing.T) {
	const (
		walkers = 256
		steps   = 1500
		discard = 100
	)
	wf := physics.Gaussian{Sigma: 1}

	kernels := map[string]func(src rand.Source) (Kernel, error){
		"metropolis": func(src rand.Source) (Kernel, error) {
			return NewMetropolis(wf, targetBatch(src, walkers), 4.0, src)
		},
		"langevin": func(src rand.Source) (Kernel, error) {
			qf := physics.QuantumForce{WF: wf, Clamp: 4.0}
			return NewLangevin(qf, targetBatch(src, walkers), 0.25, src)
		},
		"hmc": func(src rand.Source) (Kernel, error) {
			qf := physics.QuantumForce{WF: wf, Clamp: 4.0}
			return NewHMC(wf, qf, targetBatch(src, walkers), 0.05, 10, src)
		},
	}

	for name, build := range kernels {
		t.Run(name, func(t *testing.T) {
			k, err := build(rand.NewPCG(11, 13))
			require.NoError(t, err)
			traj, err := SamplesFrom(k, steps, Window{NDiscard: discard})
			require.NoError(t, err)

			var coords []float64
			for _, pos := range traj.Pos {
				coords = append(coords, pos.RawMatrix().Data...)
			}
			mean := stat.Mean(coords, nil)
			variance := stat.Variance(coords, nil)
			require.InDelta(t, 0.0, mean, 0.1, "per-coordinate mean")
			require.InDelta(t, 1.0, variance, 0.15, "per-coordinate variance")

			if name != "metropolis" {
				// The drift-corrected kernels should mix well here.
				acc := 0.0
				for _, st := range traj.Stats {
					acc += st.Acceptance
				}
				require.Greater(t, acc/float64(len(traj.Stats)), 0.5)
			}
		})
	}
}

// targetBatch starts the chains at equilibrium: one electron per walker,
// coordinates drawn from the standard normal the Gaussian target implies.
func targetBatch(src rand.Source, walkers int) *mat.Dense {
	return initBatch(src, walkers, 3)
}

// TestHMCDynamicsSmallStepStaysLocal checks the leapfrog integrator: with
// a tiny step the proposed trajectory must stay close to the start.
func TestHMCDynamicsSmallStepStaysLocal(t *testing.T) {
	src := rand.NewPCG(17, 19)
	wf := physics.Gaussian{Sigma: 1}
	qf := physics.QuantumForce{WF: wf, Clamp: 10}
	pos := initBatch(src, 32, 3)
	start := mat.DenseCopyOf(pos)

	h, err := NewHMC(wf, qf, pos, 1e-4, 3, src)
	require.NoError(t, err)
	p, _, _, err := h.dynamics()
	require.NoError(t, err)

	rows, cols := p.Dims()
	for i := range rows {
		for j := range cols {
			require.Less(t, math.Abs(p.At(i, j)-start.At(i, j)), 0.01)
		}
	}
}
