// Copyright 2025 The QMC Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package molecule

import (
	"math/rand/v2"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// SampleStart seeds an initial walker batch from the bare geometry. Each
// walker assigns its electrons to atoms by drawing from a pool holding every
// atom index repeated according to its nuclear charge, so assignment
// probability is proportional to charge. Positions are the assigned atom
// coordinate plus isotropic Gaussian noise of the given standard deviation.
//
// The returned batch has one row per walker and 3 columns per electron.
func SampleStart(src rand.Source, geom *Geometry, nWalker, nElectrons int, stdDev float64) (*mat.Dense, error) {
	if geom == nil {
		return nil, errors.New("molecule: nil geometry")
	}
	if nWalker <= 0 || nElectrons <= 0 {
		return nil, errors.Errorf("molecule: need positive walker and electron counts, got %d and %d", nWalker, nElectrons)
	}
	pool := make([]int, 0, geom.NumElectrons())
	for a, z := range geom.Charges {
		for range z {
			pool = append(pool, a)
		}
	}
	rnd := rand.New(src)
	normal := distuv.Normal{Mu: 0, Sigma: stdDev, Src: src}
	pos := mat.NewDense(nWalker, 3*nElectrons, nil)
	for w := range nWalker {
		assigned := take(rnd, pool, nElectrons)
		for e, a := range assigned {
			for k := range 3 {
				pos.Set(w, 3*e+k, geom.Coords.At(a, k)+normal.Rand())
			}
		}
	}
	return pos, nil
}

// take draws n elements from pool without replacement, restarting with a
// fresh full pass whenever the pool is exhausted, and returns the combined
// draws in permuted order.
func take(rnd *rand.Rand, pool []int, n int) []int {
	out := make([]int, 0, n)
	for n > len(pool) {
		out = append(out, drawWithout(rnd, pool, len(pool))...)
		n -= len(pool)
	}
	out = append(out, drawWithout(rnd, pool, n)...)
	rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// drawWithout picks n distinct positions from pool.
func drawWithout(rnd *rand.Rand, pool []int, n int) []int {
	perm := rnd.Perm(len(pool))
	out := make([]int, n)
	for i := range out {
		out[i] = pool[perm[i]]
	}
	return out
}

// MeanField is the slice of a mean-field reference the initializer needs.
// Populations returns the per-atom electron population from a charge
// analysis of the reference and may fail.
type MeanField interface {
	NumAtoms() int
	AtomCharges() []int
	Charge() int
	AtomCoords() *mat.Dense
	Populations() ([]float64, error)
}

// RandFromMF seeds a walker batch from a mean-field reference. Expected
// per-atom occupancies come from the reference's population analysis,
// perturbed per walker by Gaussian noise of width chargeStd, then rounded to
// integer occupations with a largest-remainder correction so each walker
// holds exactly the molecule's electron count. Electrons sit at their atom
// center plus isotropic Gaussian noise of width elecStd.
func RandFromMF(src rand.Source, mf MeanField, batchSize int, chargeStd, elecStd float64) (*mat.Dense, error) {
	if mf == nil {
		return nil, errors.New("molecule: nil mean-field reference")
	}
	if batchSize <= 0 {
		return nil, errors.Errorf("molecule: need a positive batch size, got %d", batchSize)
	}
	nAtoms := mf.NumAtoms()
	charges := mf.AtomCharges()
	if len(charges) != nAtoms {
		return nil, errors.Errorf("molecule: %d atoms but %d charges", nAtoms, len(charges))
	}
	nElec := -mf.Charge()
	for _, z := range charges {
		nElec += z
	}
	if nElec <= 0 {
		return nil, errors.Errorf("molecule: reference has %d electrons", nElec)
	}
	pops, err := mf.Populations()
	if err != nil {
		return nil, errors.Wrap(err, "molecule: population analysis")
	}
	if len(pops) != nAtoms {
		return nil, errors.Errorf("molecule: population analysis returned %d entries for %d atoms", len(pops), nAtoms)
	}
	coords := mf.AtomCoords()
	if r, c := coords.Dims(); r != nAtoms || c != 3 {
		return nil, errors.Errorf("molecule: coordinates are %dx%d, want %dx3", r, c, nAtoms)
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	pos := mat.NewDense(batchSize, 3*nElec, nil)
	cs := make([]float64, nAtoms)
	for b := range batchSize {
		for a := range cs {
			cs[a] = pops[a] + chargeStd*normal.Rand()
			if cs[a] < 0 {
				cs[a] = 0
			}
		}
		occ, err := allocate(cs, nElec)
		if err != nil {
			return nil, err
		}
		e := 0
		for a, n := range occ {
			for range n {
				for k := range 3 {
					pos.Set(b, 3*e+k, coords.At(a, k)+elecStd*normal.Rand())
				}
				e++
			}
		}
	}
	return pos, nil
}

// allocate turns floating per-atom occupancies into integers summing to
// nElec by proportional allocation with largest-remainder rounding.
func allocate(cs []float64, nElec int) ([]int, error) {
	total := 0.0
	for _, c := range cs {
		total += c
	}
	if total <= 0 {
		return nil, errors.New("molecule: degenerate occupancy, all atom weights are zero")
	}
	occ := make([]int, len(cs))
	type frac struct {
		atom int
		rem  float64
	}
	rems := make([]frac, len(cs))
	assigned := 0
	for a, c := range cs {
		quota := c / total * float64(nElec)
		occ[a] = int(quota)
		assigned += occ[a]
		rems[a] = frac{atom: a, rem: quota - float64(occ[a])}
	}
	sort.Slice(rems, func(i, j int) bool { return rems[i].rem > rems[j].rem })
	for i := 0; assigned < nElec; i++ {
		occ[rems[i%len(rems)].atom]++
		assigned++
	}
	return occ, nil
}
