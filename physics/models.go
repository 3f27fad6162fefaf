// Copyright 2025 The QMC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/mmjb/deepqmc/molecule"
)

// Flat is the constant wavefunction. Every configuration has amplitude 1
// and zero drift, so every proposal is accepted.
type Flat struct{}

// Value implements Wavefunction.
func (Flat) Value(pos *mat.Dense) []float64 {
	rows, _ := pos.Dims()
	psi := make([]float64, rows)
	for i := range psi {
		psi[i] = 1
	}
	return psi
}

// GradLog implements GradLogger.
func (Flat) GradLog(pos *mat.Dense) *mat.Dense {
	rows, cols := pos.Dims()
	return mat.NewDense(rows, cols, nil)
}

// Gaussian is an isotropic Gaussian wavefunction centered at the origin.
// Its squared magnitude is a normal density with standard deviation Sigma
// per coordinate, which makes it the closed-form target for detailed
// balance checks.
type Gaussian struct {
	Sigma float64
}

// Value implements Wavefunction.
func (g Gaussian) Value(pos *mat.Dense) []float64 {
	rows, cols := pos.Dims()
	psi := make([]float64, rows)
	for i := range rows {
		s := 0.0
		for j := range cols {
			x := pos.At(i, j)
			s += x * x
		}
		psi[i] = math.Exp(-s / (4 * g.Sigma * g.Sigma))
	}
	return psi
}

// GradLog implements GradLogger.
func (g Gaussian) GradLog(pos *mat.Dense) *mat.Dense {
	rows, cols := pos.Dims()
	grad := mat.NewDense(rows, cols, nil)
	for i := range rows {
		for j := range cols {
			grad.Set(i, j, -pos.At(i, j)/(2*g.Sigma*g.Sigma))
		}
	}
	return grad
}

// SlaterProduct places a hydrogen-like 1s orbital on every nucleus and
// takes the product over electrons of the summed orbitals. It ignores
// antisymmetry but has the right nuclear cusps, which is enough for the
// demo command and for exercising the force clamp.
type SlaterProduct struct {
	Geom *molecule.Geometry
}

// orbital evaluates the charge-Z 1s orbital and its radial derivative
// factor at distance d.
func orbital(z float64, d float64) float64 {
	return z * math.Sqrt(z) * math.Exp(-z*d)
}

// Value implements Wavefunction.
func (s SlaterProduct) Value(pos *mat.Dense) []float64 {
	rows, cols := pos.Dims()
	psi := make([]float64, rows)
	for i := range rows {
		p := 1.0
		for e := 0; e < cols; e += 3 {
			phi := 0.0
			for a, z := range s.Geom.Charges {
				d := s.dist(pos, i, e, a)
				phi += orbital(float64(z), d)
			}
			p *= phi
		}
		psi[i] = p
	}
	return psi
}

// GradLog implements GradLogger. The gradient for electron e is the
// orbital-weighted sum of -Z*(r-R)/|r-R| over atoms, divided by the summed
// orbital value.
func (s SlaterProduct) GradLog(pos *mat.Dense) *mat.Dense {
	rows, cols := pos.Dims()
	grad := mat.NewDense(rows, cols, nil)
	for i := range rows {
		for e := 0; e < cols; e += 3 {
			phi := 0.0
			var gx, gy, gz float64
			for a, zi := range s.Geom.Charges {
				z := float64(zi)
				d := s.dist(pos, i, e, a)
				w := orbital(z, d)
				phi += w
				if d < 1e-12 {
					continue // cusp, direction undefined
				}
				f := -z * w / d
				gx += f * (pos.At(i, e) - s.Geom.Coords.At(a, 0))
				gy += f * (pos.At(i, e+1) - s.Geom.Coords.At(a, 1))
				gz += f * (pos.At(i, e+2) - s.Geom.Coords.At(a, 2))
			}
			grad.Set(i, e, gx/phi)
			grad.Set(i, e+1, gy/phi)
			grad.Set(i, e+2, gz/phi)
		}
	}
	return grad
}

// dist is the distance from walker i's electron at column e to atom a.
func (s SlaterProduct) dist(pos *mat.Dense, i, e, a int) float64 {
	dx := pos.At(i, e) - s.Geom.Coords.At(a, 0)
	dy := pos.At(i, e+1) - s.Geom.Coords.At(a, 1)
	dz := pos.At(i, e+2) - s.Geom.Coords.At(a, 2)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
