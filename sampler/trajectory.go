// Copyright 2025 The QMC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sampler

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Window selects which steps of a chain survive into a trajectory.
// NDiscard steps of burn-in are dropped, then every (NDecorrelate+1)-th
// step is retained, starting with the first post-burn-in step.
type Window struct {
	NDiscard     int
	NDecorrelate int
}

// retain reports whether chain step i survives the window.
func (w Window) retain(i int) bool {
	return i >= w.NDiscard && (i-w.NDiscard)%(w.NDecorrelate+1) == 0
}

// Trajectory is the finite, time-stacked output of a windowed chain.
// Steps holds the retained chain step indices; Pos and Stats are indexed
// the same way. Psi stacks amplitudes as retained-steps x walkers.
type Trajectory struct {
	Steps []int
	Pos   []*mat.Dense
	Psi   *mat.Dense
	Stats []Stats
}

// SamplesFrom pulls exactly n steps from the kernel, keeps those selected
// by the window and stacks them along a new time axis. It fails if the
// window retains nothing, and a kernel failure propagates with the step
// index attached. The kernel is never pulled beyond the requested range.
func SamplesFrom(k Kernel, n int, w Window) (*Trajectory, error) {
	if k == nil {
		return nil, errors.New("sampler: nil kernel")
	}
	if n <= 0 {
		return nil, errors.Errorf("sampler: need a positive step count, got %d", n)
	}
	if w.NDiscard < 0 || w.NDecorrelate < 0 {
		return nil, errors.Errorf("sampler: negative window parameters %+v", w)
	}

	traj := &Trajectory{}
	var psis [][]float64
	for i := range n {
		snap, err := k.Step()
		if err != nil {
			return nil, errors.Wrapf(err, "sampler: chain failed at step %d", i)
		}
		if !w.retain(i) {
			continue
		}
		traj.Steps = append(traj.Steps, i)
		traj.Pos = append(traj.Pos, snap.Pos)
		traj.Stats = append(traj.Stats, snap.Stats)
		psis = append(psis, snap.Psi)
	}
	if len(traj.Steps) == 0 {
		return nil, errors.Errorf("sampler: window %+v retained no steps out of %d", w, n)
	}

	traj.Psi = mat.NewDense(len(psis), len(psis[0]), nil)
	for t, psi := range psis {
		traj.Psi.SetRow(t, psi)
	}
	return traj, nil
}
