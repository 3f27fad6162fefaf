// Copyright 2025 The QMC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/mmjb/deepqmc/molecule"
)

func randomBatch(seed uint64, rows, cols int) *mat.Dense {
	rnd := rand.New(rand.NewPCG(seed, seed+1))
	m := mat.NewDense(rows, cols, nil)
	for i := range rows {
		for j := range cols {
			m.Set(i, j, rnd.NormFloat64())
		}
	}
	return m
}

// valueOnly hides the analytic gradient so QuantumForce takes the
// finite-difference path.
type valueOnly struct {
	wf Wavefunction
}

func (v valueOnly) Value(pos *mat.Dense) []float64 { return v.wf.Value(pos) }

func TestQuantumForceNumericMatchesAnalytic(t *testing.T) {
	wf := Gaussian{Sigma: 1.3}
	pos := randomBatch(31, 8, 6)

	analytic, psiA, err := QuantumForce{WF: wf, Clamp: 100}.Force(pos)
	require.NoError(t, err)
	numeric, psiN, err := QuantumForce{WF: valueOnly{wf}, Clamp: 100}.Force(pos)
	require.NoError(t, err)

	require.Equal(t, psiA, psiN)
	rows, cols := pos.Dims()
	for i := range rows {
		for j := range cols {
			require.InDelta(t, analytic.At(i, j), numeric.At(i, j), 1e-6)
		}
	}
}

func TestNewQuantumForceTiesClampToTimeStep(t *testing.T) {
	wf := Gaussian{Sigma: 1}
	qf := NewQuantumForce(wf, 1.0, 0.25)
	require.Equal(t, wf, qf.WF)
	require.Equal(t, 4.0, qf.Clamp)
}

func TestQuantumForceClampsPerElectron(t *testing.T) {
	// A narrow Gaussian has steep drift away from the origin.
	wf := Gaussian{Sigma: 0.2}
	pos := randomBatch(37, 16, 6)
	const clamp = 0.5

	forces, _, err := QuantumForce{WF: wf, Clamp: clamp}.Force(pos)
	require.NoError(t, err)

	rows, cols := forces.Dims()
	for i := range rows {
		for e := 0; e < cols; e += 3 {
			norm := math.Sqrt(forces.At(i, e)*forces.At(i, e) +
				forces.At(i, e+1)*forces.At(i, e+1) +
				forces.At(i, e+2)*forces.At(i, e+2))
			require.LessOrEqual(t, norm, clamp*(1+1e-12))
		}
	}
}

// nodeWF vanishes for walkers whose first coordinate is negative.
type nodeWF struct{}

func (nodeWF) Value(pos *mat.Dense) []float64 {
	rows, _ := pos.Dims()
	psi := make([]float64, rows)
	for i := range psi {
		if pos.At(i, 0) >= 0 {
			psi[i] = 1
		}
	}
	return psi
}

func TestQuantumForceReportsDegenerateWalkers(t *testing.T) {
	pos := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		-1, 0, 0,
		2, 0, 0,
	})
	_, _, err := QuantumForce{WF: nodeWF{}, Clamp: 1}.Force(pos)
	require.Error(t, err)

	fe, ok := err.(*FactorizationError)
	require.True(t, ok, "must be the designated failure kind, got %T", err)
	require.Equal(t, []int{1}, fe.Walkers)
}

func TestFactorizationErrorAttachPositions(t *testing.T) {
	pos := mat.NewDense(3, 3, []float64{0, 0, 0, 4, 5, 6, 7, 8, 9})
	fe := &FactorizationError{Walkers: []int{1, 2}}
	fe.AttachPositions(pos)
	require.Equal(t, []float64{4, 5, 6}, fe.Positions.RawRowView(0))
	require.Equal(t, []float64{7, 8, 9}, fe.Positions.RawRowView(1))
}

func TestFlatHasUnitAmplitudeAndZeroDrift(t *testing.T) {
	pos := randomBatch(41, 5, 9)
	psi := Flat{}.Value(pos)
	for _, p := range psi {
		require.Equal(t, 1.0, p)
	}
	grad := Flat{}.GradLog(pos)
	require.True(t, mat.Equal(grad, mat.NewDense(5, 9, nil)))
}

func TestSlaterProductGradientMatchesFiniteDifferences(t *testing.T) {
	coords := mat.NewDense(2, 3, []float64{
		0, 0, 0,
		1.4, 0, 0,
	})
	geom, err := molecule.NewGeometry(coords, []int{1, 1})
	require.NoError(t, err)
	wf := SlaterProduct{Geom: geom}

	pos := randomBatch(43, 6, 6)
	analytic := wf.GradLog(pos)
	numeric := numGradLog(valueOnly{wf}, pos)

	rows, cols := pos.Dims()
	for i := range rows {
		for j := range cols {
			require.InDelta(t, analytic.At(i, j), numeric.At(i, j), 1e-5)
		}
	}
}
