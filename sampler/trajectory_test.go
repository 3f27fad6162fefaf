// Copyright 2025 The QMC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sampler

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// countingKernel yields its step index as both position and amplitude.
type countingKernel struct {
	calls   int
	failAt  int
	failErr error
}

func (c *countingKernel) Step() (Snapshot, error) {
	if c.failErr != nil && c.calls == c.failAt {
		return Snapshot{}, c.failErr
	}
	i := float64(c.calls)
	c.calls++
	return Snapshot{
		Pos:   mat.NewDense(1, 3, []float64{i, i, i}),
		Psi:   []float64{i},
		Stats: Stats{Acceptance: 1},
	}, nil
}

func TestSamplesFromWindowing(t *testing.T) {
	k := &countingKernel{}
	traj, err := SamplesFrom(k, 20, Window{NDiscard: 5, NDecorrelate: 1})
	require.NoError(t, err)

	require.Equal(t, []int{5, 7, 9, 11, 13, 15, 17, 19}, traj.Steps)
	require.Equal(t, 20, k.calls, "must pull exactly the requested range")

	rows, cols := traj.Psi.Dims()
	require.Equal(t, 8, rows)
	require.Equal(t, 1, cols)
	for ti, step := range traj.Steps {
		require.Equal(t, float64(step), traj.Psi.At(ti, 0))
		require.Equal(t, float64(step), traj.Pos[ti].At(0, 0), "stacking must preserve step order")
	}
}

func TestSamplesFromDefaultsKeepEverything(t *testing.T) {
	k := &countingKernel{}
	traj, err := SamplesFrom(k, 6, Window{})
	require.NoError(t, err)
	require.Equal(t, []int{0, 1, 2, 3, 4, 5}, traj.Steps)
	require.Len(t, traj.Stats, 6)
}

func TestSamplesFromEmptyWindowFails(t *testing.T) {
	k := &countingKernel{}
	_, err := SamplesFrom(k, 20, Window{NDiscard: 25})
	require.Error(t, err)
}

func TestSamplesFromParameterValidation(t *testing.T) {
	_, err := SamplesFrom(nil, 10, Window{})
	require.Error(t, err)
	_, err = SamplesFrom(&countingKernel{}, 0, Window{})
	require.Error(t, err)
	_, err = SamplesFrom(&countingKernel{}, 10, Window{NDecorrelate: -1})
	require.Error(t, err)
}

func TestSamplesFromPropagatesKernelFailure(t *testing.T) {
	k := &countingKernel{failAt: 3, failErr: errors.New("numerical blowup")}
	_, err := SamplesFrom(k, 20, Window{})
	require.Error(t, err)
	require.ErrorContains(t, err, "step 3")
	require.ErrorContains(t, err, "numerical blowup")
}
