/*
 * segments_test.go, part of gomsm.
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

package msm

import (
	"errors"
	"testing"
)

// seqFeatures returns a frames x dims matrix where the element (i,j)
// is i*dims+j, so every frame is distinguishable.
func seqFeatures(frames, dims int) *FeatureMatrix {
	data := make([]float64, frames*dims)
	for i := range data {
		data[i] = float64(i)
	}
	F, err := NewFeatures(frames, dims, data)
	if err != nil {
		panic(err)
	}
	return F
}

func TestUnflatten(Te *testing.T) {
	flat := seqFeatures(200, 3)
	trajs, err := Unflatten(flat, Manifest{{40, 60}, {100}})
	if err != nil {
		Te.Fatal(err)
	}
	want := []int{40, 60, 100}
	if len(trajs) != len(want) {
		Te.Fatalf("got %d trajectories, expected %d", len(trajs), len(want))
	}
	for i, v := range Lengths(trajs) {
		if v != want[i] {
			Te.Errorf("trajectory %d has %d frames, expected %d", i, v, want[i])
		}
	}
	//first frame of the second trajectory is frame 40 of the flat matrix.
	if trajs[1].At(0, 0) != flat.At(40, 0) || trajs[2].At(0, 2) != flat.At(100, 2) {
		Te.Errorf("trajectory boundaries are off: %v %v", trajs[1].At(0, 0), trajs[2].At(0, 2))
	}
	back, err := Concatenate(trajs)
	if err != nil {
		Te.Fatal(err)
	}
	if !back.Equal(flat) {
		Te.Error("concatenation of the unflattened trajectories doesn't reproduce the flat matrix")
	}
}

func TestUnflattenMismatch(Te *testing.T) {
	flat := seqFeatures(200, 2)
	for _, m := range []Manifest{{{40, 59}, {100}}, {{40, 61}, {100}}, {{-10, 110}, {100}}} {
		trajs, err := Unflatten(flat, m)
		if !errors.Is(err, ErrShapeMismatch) {
			Te.Errorf("manifest %v: expected a shape mismatch, got %v", m, err)
		}
		if trajs != nil {
			Te.Errorf("manifest %v: got output along with the error", m)
		}
	}
}

func TestUnflattenEmptyTrajectory(Te *testing.T) {
	flat := seqFeatures(10, 2)
	trajs, err := Unflatten(flat, Manifest{{0, 4}, {6, 0}})
	if err != nil {
		Te.Fatal(err)
	}
	if got := Lengths(trajs); got[0] != 0 || got[1] != 4 || got[2] != 6 || got[3] != 0 {
		Te.Errorf("unexpected lengths %v", got)
	}
	if trajs[0].NFeatures() != 2 {
		Te.Errorf("empty trajectory lost its width")
	}
}

func TestSortLengths(Te *testing.T) {
	flatLengths := []int{10, 20, 30, 40, 50}
	m, err := SortLengths(flatLengths, []int{2, 0, 3})
	if err != nil {
		Te.Fatal(err)
	}
	if len(m) != 3 || len(m[0]) != 2 || len(m[1]) != 0 || len(m[2]) != 3 {
		Te.Fatalf("unexpected grouping %v", m)
	}
	if m[2][0] != 30 || m[2][2] != 50 {
		Te.Errorf("unexpected grouping %v", m)
	}
	if _, err := SortLengths(flatLengths, []int{2, 2}); !errors.Is(err, ErrShapeMismatch) {
		Te.Errorf("expected a shape mismatch, got %v", err)
	}
	//values are not checked
	if _, err := SortLengths([]int{-5, 0}, []int{2}); err != nil {
		Te.Errorf("individual lengths should pass through, got %v", err)
	}
}

//Unflattening with the regrouped lengths must give the same boundaries
//as unflattening with the flat list in a single group.
func TestSortLengthsThenUnflatten(Te *testing.T) {
	flatLengths := []int{7, 3, 12, 1, 9, 8}
	flat := seqFeatures(40, 2)
	m, err := SortLengths(flatLengths, []int{1, 3, 2})
	if err != nil {
		Te.Fatal(err)
	}
	grouped, err := Unflatten(flat, m)
	if err != nil {
		Te.Fatal(err)
	}
	direct, err := Unflatten(flat, Manifest{flatLengths})
	if err != nil {
		Te.Fatal(err)
	}
	if len(grouped) != len(direct) {
		Te.Fatalf("%d vs %d trajectories", len(grouped), len(direct))
	}
	for i := range grouped {
		if !grouped[i].Equal(direct[i]) {
			Te.Errorf("trajectory %d differs", i)
		}
	}
}

func TestErrorDecoration(Te *testing.T) {
	err := Errorf(InvalidConfig, "Inner", "bad value %d", 3)
	ErrDecorate(err, "Outer")
	if d := err.Decorate(""); len(d) != 2 || d[1] != "Outer" {
		Te.Errorf("unexpected decoration %v", d)
	}
	if !err.Critical() || errors.Is(err, ErrShapeMismatch) || !errors.Is(err, ErrInvalidConfig) {
		Te.Errorf("wrong kind or criticality for %v", err)
	}
	if Errorf(SubsampleInfeasible, "", "x").Critical() {
		Te.Error("infeasible subsampling should not be critical")
	}
}
