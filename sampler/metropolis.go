// Copyright 2025 The QMC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sampler

import (
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Metropolis proposes a completely new position per walker from an
// isotropic Gaussian scaled by the step size. The proposal does not depend
// on the current position and the acceptance probability is the bare
// squared-amplitude ratio; no Hastings weight for the proposal density is
// applied, which for finite step sizes tilts the stationary distribution
// by the proposal density.
type Metropolis struct {
	wf       Wavefunction
	pos      *mat.Dense
	stepsize float64
	draws    draws
}

// NewMetropolis builds the kernel around an initial walker batch. The
// batch is owned by the kernel from here on.
func NewMetropolis(wf Wavefunction, pos *mat.Dense, stepsize float64, src rand.Source) (*Metropolis, error) {
	if wf == nil {
		return nil, errors.New("sampler: nil wavefunction")
	}
	if stepsize <= 0 {
		return nil, errors.Errorf("sampler: step size must be positive, got %g", stepsize)
	}
	if _, cols := pos.Dims(); cols%3 != 0 {
		return nil, errors.Errorf("sampler: walker batch has %d columns, want a multiple of 3", cols)
	}
	return &Metropolis{wf: wf, pos: pos, stepsize: stepsize, draws: newDraws(src)}, nil
}

// Step advances every chain by one proposal. The returned snapshot is the
// pre-update state, so the first snapshot of a fresh kernel is the initial
// batch and each later snapshot reflects the previous step's acceptance.
func (m *Metropolis) Step() (Snapshot, error) {
	rows, cols := m.pos.Dims()
	posNew := m.draws.randn(rows, cols)
	posNew.Scale(m.stepsize, posNew)

	psi := m.wf.Value(m.pos)
	psiNew := m.wf.Value(posNew)
	pAcc := make([]float64, rows)
	for i := range pAcc {
		r := psiNew[i] / psi[i]
		pAcc[i] = r * r
	}
	accepted := m.draws.accept(pAcc)

	snap := snapshot(m.pos, psi, Stats{Acceptance: acceptFraction(accepted)})
	if err := AssignWhere(accepted, MatRows(m.pos, posNew)); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
