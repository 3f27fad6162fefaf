// Copyright 2025 The QMC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package physics defines the wavefunction and quantum-force contracts the
// samplers consume, together with reference implementations used by tests
// and the demo command.
//
// A walker batch is a matrix with one row per walker and 3 columns per
// electron, so a batch of n walkers over N electrons is n x 3N.
package physics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Wavefunction evaluates a batch of walker positions to one real amplitude
// per walker. Implementations must be square-integrable; the samplers target
// the squared magnitude of the returned amplitudes.
type Wavefunction interface {
	Value(pos *mat.Dense) []float64
}

// GradLogger is implemented by wavefunctions with an analytic gradient of
// log|psi|. QuantumForce falls back to finite differences without it.
type GradLogger interface {
	GradLog(pos *mat.Dense) *mat.Dense
}

// ForceProvider evaluates the drift field (the clamped gradient of
// log|psi|) and the raw amplitudes at a batch of positions. The
// differentiation capability is this explicit value, never ambient state.
// A degenerate configuration surfaces as a *FactorizationError.
type ForceProvider interface {
	Force(pos *mat.Dense) (*mat.Dense, []float64, error)
}

// FactorizationError reports walkers whose configuration made the
// amplitude or its factorization degenerate. Positions holds one row per
// failing walker once a kernel attaches its pre-update state.
type FactorizationError struct {
	Walkers   []int
	Positions *mat.Dense
}

func (e *FactorizationError) Error() string {
	return fmt.Sprintf("physics: factorization failed for %d walker(s) %v", len(e.Walkers), e.Walkers)
}

// AttachPositions records the rows of pos belonging to the failing walkers.
func (e *FactorizationError) AttachPositions(pos *mat.Dense) {
	_, cols := pos.Dims()
	rs := mat.NewDense(len(e.Walkers), cols, nil)
	for i, w := range e.Walkers {
		rs.SetRow(i, pos.RawRowView(w))
	}
	e.Positions = rs
}

// QuantumForce is the reference ForceProvider. It uses the wavefunction's
// analytic gradient when available and central finite differences otherwise,
// and clamps each electron's drift 3-vector to magnitude Clamp. Kernels
// conventionally construct it with Clamp = cutoff/tau.
type QuantumForce struct {
	WF    Wavefunction
	Clamp float64
}

// NewQuantumForce builds the provider the drift kernels expect, with the
// per-electron clamp tied to the time step as cutoff/tau.
func NewQuantumForce(wf Wavefunction, cutoff, tau float64) QuantumForce {
	return QuantumForce{WF: wf, Clamp: cutoff / tau}
}

// fdStep is the central-difference step for the numeric gradient fallback.
const fdStep = 1e-5

// Force implements ForceProvider.
func (q QuantumForce) Force(pos *mat.Dense) (*mat.Dense, []float64, error) {
	psi := q.WF.Value(pos)
	var bad []int
	for i, p := range psi {
		if p == 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			bad = append(bad, i)
		}
	}
	if len(bad) > 0 {
		return nil, nil, &FactorizationError{Walkers: bad}
	}
	var forces *mat.Dense
	if g, ok := q.WF.(GradLogger); ok {
		forces = g.GradLog(pos)
	} else {
		forces = numGradLog(q.WF, pos)
	}
	clampForces(forces, q.Clamp)
	return forces, psi, nil
}

// numGradLog computes d log|psi| / dx by central differences, one
// coordinate column at a time across the whole batch.
func numGradLog(wf Wavefunction, pos *mat.Dense) *mat.Dense {
	rows, cols := pos.Dims()
	grad := mat.NewDense(rows, cols, nil)
	work := mat.DenseCopyOf(pos)
	for j := range cols {
		for i := range rows {
			work.Set(i, j, pos.At(i, j)+fdStep)
		}
		hi := wf.Value(work)
		for i := range rows {
			work.Set(i, j, pos.At(i, j)-fdStep)
		}
		lo := wf.Value(work)
		for i := range rows {
			grad.Set(i, j, (math.Log(math.Abs(hi[i]))-math.Log(math.Abs(lo[i])))/(2*fdStep))
			work.Set(i, j, pos.At(i, j))
		}
	}
	return grad
}

// clampForces rescales every electron's 3-vector whose magnitude exceeds
// clamp. Divergent drift near wavefunction nodes would otherwise throw
// walkers out of the relevant region.
func clampForces(forces *mat.Dense, clamp float64) {
	if clamp <= 0 {
		return
	}
	rows, cols := forces.Dims()
	for i := range rows {
		for e := 0; e < cols; e += 3 {
			norm := math.Sqrt(forces.At(i, e)*forces.At(i, e) +
				forces.At(i, e+1)*forces.At(i, e+1) +
				forces.At(i, e+2)*forces.At(i, e+2))
			if norm > clamp {
				s := clamp / norm
				forces.Set(i, e, forces.At(i, e)*s)
				forces.Set(i, e+1, forces.At(i, e+1)*s)
				forces.Set(i, e+2, forces.At(i, e+2)*s)
			}
		}
	}
}
