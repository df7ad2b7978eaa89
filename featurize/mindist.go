/*
 * mindist.go, part of gomsm.
 *
 *
 * Copyright 2024 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 *
 */
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

//Package featurize turns molecular dynamics trajectories into feature matrices
//of residue-residue minimum distances, and caches them on disk.
package featurize

import (
	"fmt"
	"math"
	"strings"

	msm "github.com/rmera/gomsm"
	"github.com/rmera/gomsm/traj/dcd"
	"github.com/rmera/gomsm/traj/stf"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

//ResiduePairs returns all the pairs (i,j) of residue indexes, with i<j<nres,
//such that j-i > exclude.
func ResiduePairs(nres, exclude int) [][2]int {
	ret := make([][2]int, 0)
	for i := 0; i < nres; i++ {
		for j := i + exclude + 1; j < nres; j++ {
			ret = append(ret, [2]int{i, j})
		}
	}
	return ret
}

//MinDist reads trajectory t and returns a matrix with one row per frame read and
//one column per element of pairs, with the minimum distance, in nm, between the atoms
//of the two residues (indexes in res) of the pair. The begin and skip settings of o are
//honored. If o is nil, DefaultOptions is used.
func MinDist(t msm.Traj, res []Residue, pairs [][2]int, o *Options) (*msm.FeatureMatrix, error) {
	if o == nil {
		o = DefaultOptions()
	}
	if len(pairs) == 0 {
		return nil, msm.Errorf(msm.InvalidConfig, "MinDist", "no residue pairs given")
	}
	for _, p := range pairs {
		for _, r := range p {
			if r < 0 || r >= len(res) {
				return nil, msm.Errorf(msm.ShapeMismatch, "MinDist", "residue index %d out of range (%d residues)", r, len(res))
			}
			for _, a := range res[r].Atoms {
				if a < 0 || a >= t.Len() {
					return nil, msm.Errorf(msm.ShapeMismatch, "MinDist", "atom %d of residue %d out of range (%d atoms)", a, r, t.Len())
				}
			}
		}
	}
	coords := mat.NewDense(t.Len(), 3, nil)
	data := make([]float64, 0, 1024*len(pairs))
	frames := 0
	for i := 0; ; i++ {
		keep := i >= o.Begin() && (i-o.Begin())%(o.Skip()+1) == 0
		var err error
		if keep {
			err = t.Next(coords)
		} else {
			err = t.Next(nil)
		}
		if err != nil {
			if _, ok := err.(msm.LastFrameError); ok {
				break
			}
			return nil, msm.ErrDecorate(err, fmt.Sprintf("MinDist: frame %d", i))
		}
		if !keep {
			continue
		}
		for _, p := range pairs {
			data = append(data, minDist(coords, res[p[0]].Atoms, res[p[1]].Atoms)/10) //A to nm
		}
		frames++
	}
	return msm.NewFeatures(frames, len(pairs), data)
}

//minDist returns the minimum distance between the atoms in a and those in b.
//It returns +Inf if either is empty.
func minDist(coords *mat.Dense, a, b []int) float64 {
	min := math.Inf(1)
	for _, i := range a {
		ri := coords.RawRowView(i)
		vi := r3.Vec{X: ri[0], Y: ri[1], Z: ri[2]}
		for _, j := range b {
			rj := coords.RawRowView(j)
			d := r3.Norm(r3.Sub(vi, r3.Vec{X: rj[0], Y: rj[1], Z: rj[2]}))
			if d < min {
				min = d
			}
		}
	}
	return min
}

type result struct {
	index int
	f     *msm.FeatureMatrix
	err   error
}

//Files featurizes each of the STF or DCD trajectories in names, using the residues of top and
//all the pairs allowed by o. Up to o.CPUs() trajectories are processed concurrently.
//The returned matrices are in the same order as names. If any trajectory fails, the
//error of the first one (in the order of names) is returned.
func Files(names []string, top *Topology, o *Options) ([]*msm.FeatureMatrix, error) {
	if o == nil {
		o = DefaultOptions()
	}
	res := top.Residues(o.HeavyOnly())
	pairs := ResiduePairs(len(res), o.Exclude())
	tokens := make(chan struct{}, o.CPUs())
	results := make(chan result, len(names))
	for i, name := range names {
		go func(i int, name string) {
			tokens <- struct{}{}
			defer func() { <-tokens }()
			f, err := file(name, top.Len(), res, pairs, o)
			results <- result{i, f, err}
		}(i, name)
	}
	ret := make([]*msm.FeatureMatrix, len(names))
	errs := make([]error, len(names))
	for range names {
		r := <-results
		ret[r.index], errs[r.index] = r.f, r.err
	}
	for _, err := range errs {
		if err != nil {
			return nil, msm.ErrDecorate(err, "Files")
		}
	}
	return ret, nil
}

type trajFile interface {
	msm.Traj
	Close()
}

//openTraj opens a DCD trajectory, possibly compressed, if name has a .dcd extension
//(before any compression one). Otherwise, it opens an STF trajectory.
func openTraj(name string) (trajFile, error) {
	base := strings.ToLower(name)
	for _, ext := range []string{".gz", ".zst", ".zstd", ".lzw", ".flate"} {
		base = strings.TrimSuffix(base, ext)
	}
	if strings.HasSuffix(base, ".dcd") {
		return dcd.New(name)
	}
	t, _, err := stf.New(name)
	return t, err
}

func file(name string, natoms int, res []Residue, pairs [][2]int, o *Options) (*msm.FeatureMatrix, error) {
	t, err := openTraj(name)
	if err != nil {
		return nil, err
	}
	defer t.Close()
	if t.Len() != natoms {
		return nil, msm.Errorf(msm.ShapeMismatch, "file", "trajectory %s has %d atoms, topology %d", name, t.Len(), natoms)
	}
	return MinDist(t, res, pairs, o)
}
