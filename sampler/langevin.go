// Copyright 2025 The QMC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sampler

import (
	"errors"
	"math"
	"math/rand/v2"
	"slices"

	pkgerrors "github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/mmjb/deepqmc/physics"
)

// Langevin advances walkers by discretized Langevin diffusion with drift:
// the proposal is the current position plus the drift field times tau plus
// Gaussian noise of width sqrt(tau), corrected by the symmetrized
// trapezoidal Metropolis-Hastings ratio. It also tracks per-walker
// lifetime, the count of consecutive rejections since the last acceptance,
// as a stickiness diagnostic.
type Langevin struct {
	qf       ForceProvider
	pos      *mat.Dense
	psi      []float64
	forces   *mat.Dense
	lifetime []int
	tau      float64
	draws    draws
}

// NewLangevin builds the kernel and evaluates the drift field and
// amplitudes at the initial batch once, which may already fail on a
// degenerate configuration. The force provider is conventionally
// physics.NewQuantumForce, which ties the clamp to cutoff/tau.
func NewLangevin(qf ForceProvider, pos *mat.Dense, tau float64, src rand.Source) (*Langevin, error) {
	if qf == nil {
		return nil, pkgerrors.New("sampler: nil force provider")
	}
	if tau <= 0 {
		return nil, pkgerrors.Errorf("sampler: tau must be positive, got %g", tau)
	}
	if _, cols := pos.Dims(); cols%3 != 0 {
		return nil, pkgerrors.Errorf("sampler: walker batch has %d columns, want a multiple of 3", cols)
	}
	forces, psi, err := qf.Force(pos)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "sampler: force evaluation at the initial batch")
	}
	rows, _ := pos.Dims()
	return &Langevin{
		qf:       qf,
		pos:      pos,
		psi:      psi,
		forces:   forces,
		lifetime: make([]int, rows),
		tau:      tau,
		draws:    newDraws(src),
	}, nil
}

// Step advances every chain by one proposal. Unlike Metropolis and HMC,
// the returned snapshot is the post-update state: the acceptance is applied
// first and the step's outcome is reported immediately. Callers comparing
// kernels should note the asymmetry, it decides which first sample they
// observe.
//
// A factorization failure during the proposal's force evaluation halts the
// chain: the failing walkers' pre-update positions are attached to the
// error and it propagates. The step is never retried.
func (l *Langevin) Step() (Snapshot, error) {
	rows, cols := l.pos.Dims()

	posNew := l.draws.randn(rows, cols)
	sqrtTau := math.Sqrt(l.tau)
	for i := range rows {
		for j := range cols {
			posNew.Set(i, j, l.pos.At(i, j)+l.forces.At(i, j)*l.tau+posNew.At(i, j)*sqrtTau)
		}
	}

	forcesNew, psiNew, err := l.qf.Force(posNew)
	if err != nil {
		var fe *physics.FactorizationError
		if errors.As(err, &fe) {
			fe.AttachPositions(l.pos)
		}
		return Snapshot{}, pkgerrors.Wrap(err, "sampler: force evaluation at the langevin proposal")
	}

	pAcc := make([]float64, rows)
	for i := range rows {
		logG := 0.0
		for j := range cols {
			f, fn := l.forces.At(i, j), forcesNew.At(i, j)
			logG += (f + fn) * ((l.pos.At(i, j) - posNew.At(i, j)) + l.tau/2*(f-fn))
		}
		r := psiNew[i] / l.psi[i]
		pAcc[i] = math.Exp(logG) * r * r
	}
	accepted := l.draws.accept(pAcc)

	for i, ok := range accepted {
		if ok {
			l.lifetime[i] = 0
		} else {
			l.lifetime[i]++
		}
	}

	// Position, amplitude and drift must stay consistent per walker, so
	// all three move under the same mask.
	err = AssignWhere(accepted,
		MatRows(l.pos, posNew),
		Vec(l.psi, psiNew),
		MatRows(l.forces, forcesNew),
	)
	if err != nil {
		return Snapshot{}, err
	}

	stats := Stats{Acceptance: acceptFraction(accepted), Lifetime: slices.Clone(l.lifetime)}
	return snapshot(l.pos, l.psi, stats), nil
}
