// Copyright 2025 The QMC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package molecule describes molecular geometries and seeds batches of
// electron-configuration walkers at physically plausible positions.
package molecule

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Geometry is a molecular geometry: one row of Coords per atom and the
// matching integer nuclear charge per atom.
type Geometry struct {
	Coords  *mat.Dense
	Charges []int
}

// NewGeometry validates the atom coordinates against the charge list.
func NewGeometry(coords *mat.Dense, charges []int) (*Geometry, error) {
	rows, cols := coords.Dims()
	if cols != 3 {
		return nil, errors.Errorf("molecule: coordinates must have 3 columns, got %d", cols)
	}
	if rows != len(charges) {
		return nil, errors.Errorf("molecule: %d atoms but %d charges", rows, len(charges))
	}
	for i, z := range charges {
		if z <= 0 {
			return nil, errors.Errorf("molecule: atom %d has non-positive charge %d", i, z)
		}
	}
	return &Geometry{Coords: coords, Charges: charges}, nil
}

// NumAtoms returns the number of atoms.
func (g *Geometry) NumAtoms() int {
	return len(g.Charges)
}

// NumElectrons returns the electron count of the neutral molecule.
func (g *Geometry) NumElectrons() int {
	n := 0
	for _, z := range g.Charges {
		n += z
	}
	return n
}
