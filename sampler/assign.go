// Copyright 2025 The QMC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sampler

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Assignable pairs a current-state container with its proposed replacement
// so AssignWhere can overwrite accepted rows. Construct values with MatRows
// or Vec.
type Assignable interface {
	// check verifies both containers span n walkers.
	check(n int) error
	// assign overwrites walker i's current state with the proposal.
	assign(i int)
}

// AssignWhere overwrites, in place, the rows of every current-state
// container whose walker accepted its proposal. All containers are updated
// under the same mask so jointly-passed state stays mutually consistent.
// The containers must all span len(accepted) walkers.
func AssignWhere(accepted []bool, states ...Assignable) error {
	for _, s := range states {
		if err := s.check(len(accepted)); err != nil {
			return err
		}
	}
	for i, ok := range accepted {
		if !ok {
			continue
		}
		for _, s := range states {
			s.assign(i)
		}
	}
	return nil
}

// MatRows pairs two equally-shaped matrices, one walker per row.
func MatRows(cur, proposed *mat.Dense) Assignable {
	return matRows{cur: cur, proposed: proposed}
}

type matRows struct {
	cur, proposed *mat.Dense
}

func (m matRows) check(n int) error {
	cr, cc := m.cur.Dims()
	pr, pc := m.proposed.Dims()
	if cr != pr || cc != pc {
		return errors.Errorf("sampler: assign shape mismatch, current %dx%d vs proposed %dx%d", cr, cc, pr, pc)
	}
	if cr != n {
		return errors.Errorf("sampler: assign mask spans %d walkers but matrices hold %d", n, cr)
	}
	return nil
}

func (m matRows) assign(i int) {
	m.cur.SetRow(i, m.proposed.RawRowView(i))
}

// Vec pairs two equally-sized per-walker scalar slices.
func Vec(cur, proposed []float64) Assignable {
	return vec{cur: cur, proposed: proposed}
}

type vec struct {
	cur, proposed []float64
}

func (v vec) check(n int) error {
	if len(v.cur) != len(v.proposed) {
		return errors.Errorf("sampler: assign length mismatch, current %d vs proposed %d", len(v.cur), len(v.proposed))
	}
	if len(v.cur) != n {
		return errors.Errorf("sampler: assign mask spans %d walkers but vectors hold %d", n, len(v.cur))
	}
	return nil
}

func (v vec) assign(i int) {
	v.cur[i] = v.proposed[i]
}
