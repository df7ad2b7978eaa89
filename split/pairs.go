/*
 * pairs.go, part of gomsm.
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

package split

import (
	"fmt"
	"math/rand"
	"sort"

	msm "github.com/rmera/gomsm"
)

// FrameRef identifies a frame by the index of its trajectory and its position in it.
type FrameRef struct {
	Traj  int `json:"traj"`
	Frame int `json:"frame"`
}

//Pairs is a set of time-lagged pairs. Frame i of Lagged comes Lag frames after
//frame i of Instant, in the same trajectory. Origin[i] locates frame i of Instant.
type Pairs struct {
	Instant *msm.FeatureMatrix
	Lagged  *msm.FeatureMatrix
	Origin  []FrameRef
}

// Len returns the number of pairs in the set.
func (P *Pairs) Len() int {
	return len(P.Origin)
}

// Trajectories returns the sorted indexes of the trajectories contributing to P.
func (P *Pairs) Trajectories() []int {
	seen := make(map[int]bool)
	ret := make([]int, 0)
	for _, v := range P.Origin {
		if !seen[v.Traj] {
			seen[v.Traj] = true
			ret = append(ret, v.Traj)
		}
	}
	sort.Ints(ret)
	return ret
}

//pairRefs returns the origins of all the pairs that can be built from the trajectories
//with indexes in idx, trajectory after trajectory, frame after frame.
func pairRefs(trajs []*msm.FeatureMatrix, idx []int, lag int) []FrameRef {
	n := 0
	for _, t := range idx {
		n += pairCount(trajs[t].Frames(), lag)
	}
	ret := make([]FrameRef, 0, n)
	for _, t := range idx {
		for i := 0; i < trajs[t].Frames()-lag; i++ {
			ret = append(ret, FrameRef{Traj: t, Frame: i})
		}
	}
	return ret
}

// pairCount returns the number of lagged pairs a trajectory of length n yields.
func pairCount(n, lag int) int {
	if n <= lag {
		return 0
	}
	return n - lag
}

//subsample keeps max of the given refs, chosen uniformly without replacement with rng,
//in their original order. If there are not enough refs, all are kept and a
//non-critical error is returned.
func subsample(refs []FrameRef, max int, rng *rand.Rand, name string) ([]FrameRef, error) {
	if len(refs) < max {
		return refs, msm.Warnf(msm.SubsampleInfeasible, "subsample", "%s set has only %d pairs, %d requested", name, len(refs), max)
	}
	if len(refs) == max {
		return refs, nil
	}
	chosen := rng.Perm(len(refs))[:max]
	sort.Ints(chosen)
	ret := make([]FrameRef, max)
	for i, v := range chosen {
		ret[i] = refs[v]
	}
	return ret, nil
}

// materialize copies the frames referenced by refs into a new Pairs.
func materialize(trajs []*msm.FeatureMatrix, refs []FrameRef, lag, dims int) *Pairs {
	P := &Pairs{
		Instant: msm.ZeroFeatures(len(refs), dims),
		Lagged:  msm.ZeroFeatures(len(refs), dims),
		Origin:  refs,
	}
	for i, r := range refs {
		copy(P.Instant.RawFrame(i), trajs[r.Traj].RawFrame(r.Frame))
		copy(P.Lagged.RawFrame(i), trajs[r.Traj].RawFrame(r.Frame+lag))
	}
	return P
}

func (P *Pairs) String() string {
	return fmt.Sprintf("%d pairs from %d trajectories", P.Len(), len(P.Trajectories()))
}
