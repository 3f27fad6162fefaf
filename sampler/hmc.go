// Copyright 2025 The QMC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sampler

import (
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// HMC proposes full trajectories by leapfrog integration of Hamiltonian
// dynamics in the drift field, then applies a single Metropolis correction
// comparing the squared-amplitude ratio against the kinetic-energy change
// of the trajectory. Velocities are resampled fresh from a standard normal
// for every proposal and never persist across steps.
type HMC struct {
	wf       Wavefunction
	qf       ForceProvider
	pos      *mat.Dense
	stepsize float64
	dysteps  int
	draws    draws
}

// NewHMC builds the kernel around an initial walker batch. dysteps is the
// number of leapfrog sub-steps per proposal. The force provider is
// conventionally physics.NewQuantumForce, which ties the clamp to
// cutoff/tau.
func NewHMC(wf Wavefunction, qf ForceProvider, pos *mat.Dense, stepsize float64, dysteps int, src rand.Source) (*HMC, error) {
	if wf == nil {
		return nil, errors.New("sampler: nil wavefunction")
	}
	if qf == nil {
		return nil, errors.New("sampler: nil force provider")
	}
	if stepsize <= 0 {
		return nil, errors.Errorf("sampler: step size must be positive, got %g", stepsize)
	}
	if dysteps < 1 {
		return nil, errors.Errorf("sampler: need at least one leapfrog sub-step, got %d", dysteps)
	}
	if _, cols := pos.Dims(); cols%3 != 0 {
		return nil, errors.Errorf("sampler: walker batch has %d columns, want a multiple of 3", cols)
	}
	return &HMC{wf: wf, qf: qf, pos: pos, stepsize: stepsize, dysteps: dysteps, draws: newDraws(src)}, nil
}

// dynamics integrates the leapfrog trajectory from a detached copy of the
// current batch: an initial half-kick, dysteps-1 interior steps with
// doubled velocity increments, and a final half-kick. It returns the end
// position, the end velocity and the freshly drawn start velocity.
func (h *HMC) dynamics() (p, v, v0 *mat.Dense, err error) {
	rows, cols := h.pos.Dims()
	p = mat.DenseCopyOf(h.pos)
	v0 = h.draws.randn(rows, cols)

	forces, _, err := h.qf.Force(p)
	if err != nil {
		return nil, nil, nil, err
	}
	v = mat.DenseCopyOf(v0)
	addScaled(v, h.stepsize, forces)
	addScaled(p, h.stepsize, v)
	for range h.dysteps - 1 {
		forces, _, err = h.qf.Force(p)
		if err != nil {
			return nil, nil, nil, err
		}
		addScaled(v, 2*h.stepsize, forces)
		addScaled(p, h.stepsize, v)
	}
	forces, _, err = h.qf.Force(p)
	if err != nil {
		return nil, nil, nil, err
	}
	addScaled(v, h.stepsize, forces)
	return p, v, v0, nil
}

// Step advances every chain by one full trajectory proposal. Like
// Metropolis, the returned snapshot is the pre-update state.
func (h *HMC) Step() (Snapshot, error) {
	posNew, v, v0, err := h.dynamics()
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "sampler: force evaluation during leapfrog dynamics")
	}

	rows, _ := h.pos.Dims()
	psi := h.wf.Value(h.pos)
	psiNew := h.wf.Value(posNew)
	pAcc := make([]float64, rows)
	for i := range pAcc {
		r := psiNew[i] / psi[i]
		pAcc[i] = r * r * math.Exp(-0.5*(rowNorm2(v, i)-rowNorm2(v0, i)))
	}
	accepted := h.draws.accept(pAcc)

	snap := snapshot(h.pos, psi, Stats{Acceptance: acceptFraction(accepted)})
	if err := AssignWhere(accepted, MatRows(h.pos, posNew)); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// addScaled performs dst += s*m elementwise.
func addScaled(dst *mat.Dense, s float64, m *mat.Dense) {
	d := dst.RawMatrix().Data
	md := m.RawMatrix().Data
	for i := range d {
		d[i] += s * md[i]
	}
}

// rowNorm2 is the squared norm of row i, summed over all spatial and
// electron axes.
func rowNorm2(m *mat.Dense, i int) float64 {
	row := m.RawRowView(i)
	s := 0.0
	for _, x := range row {
		s += x * x
	}
	return s
}
