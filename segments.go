/*
 * segments.go, part of gomsm.
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

//Manifest describes how a flat feature matrix decomposes into groups (e.g. the
//rounds of an ensemble of simulations), each containing the frame counts of
//its trajectories, in order.
type Manifest [][]int

// Total returns the sum of all the frame counts in the manifest.
func (M Manifest) Total() int {
	var t int
	for _, g := range M {
		for _, v := range g {
			t += v
		}
	}
	return t
}

// Flatten returns the frame counts of all trajectories, group after group.
func (M Manifest) Flatten() []int {
	ret := make([]int, 0, M.Trajectories())
	for _, g := range M {
		ret = append(ret, g...)
	}
	return ret
}

// Trajectories returns the number of trajectories in the manifest.
func (M Manifest) Trajectories() int {
	var n int
	for _, g := range M {
		n += len(g)
	}
	return n
}

//Unflatten splits flat into one matrix per trajectory described in manifest.
//The returned matrices are views of flat, given in manifest order; group boundaries
//are not kept. The frame counts in manifest must add up exactly to the frames in flat,
//and none can be negative, otherwise an error of kind ShapeMismatch is returned.
func Unflatten(flat *FeatureMatrix, manifest Manifest) ([]*FeatureMatrix, error) {
	if flat == nil {
		return nil, Errorf(ShapeMismatch, "Unflatten", "nil feature matrix")
	}
	for i, g := range manifest {
		for j, v := range g {
			if v < 0 {
				return nil, Errorf(ShapeMismatch, "Unflatten", "negative length %d for trajectory %d of group %d", v, j, i)
			}
		}
	}
	if t := manifest.Total(); t != flat.Frames() {
		return nil, Errorf(ShapeMismatch, "Unflatten", "manifest describes %d frames, matrix has %d", t, flat.Frames())
	}
	ret := make([]*FeatureMatrix, 0, manifest.Trajectories())
	offset := 0
	for _, g := range manifest {
		for _, v := range g {
			ret = append(ret, flat.FrameView(offset, v))
			offset += v
		}
	}
	return ret, nil
}

//SortLengths partitions flatLengths into contiguous groups of the sizes given in
//groupSizes. The lengths themselves are not checked. groupSizes must add up to
//len(flatLengths) and contain no negative value, or an error of kind ShapeMismatch
//is returned.
func SortLengths(flatLengths []int, groupSizes []int) (Manifest, error) {
	total := 0
	for i, v := range groupSizes {
		if v < 0 {
			return nil, Errorf(ShapeMismatch, "SortLengths", "negative size %d for group %d", v, i)
		}
		total += v
	}
	if total != len(flatLengths) {
		return nil, Errorf(ShapeMismatch, "SortLengths", "group sizes add up to %d, but %d lengths were given", total, len(flatLengths))
	}
	ret := make(Manifest, len(groupSizes))
	offset := 0
	for i, v := range groupSizes {
		ret[i] = make([]int, v)
		copy(ret[i], flatLengths[offset:offset+v])
		offset += v
	}
	return ret, nil
}

//Concatenate stacks the given matrices, in order, into a new one.
//All must have the same number of features.
func Concatenate(trajs []*FeatureMatrix) (*FeatureMatrix, error) {
	if len(trajs) == 0 {
		return nil, Errorf(ShapeMismatch, "Concatenate", "no matrices given")
	}
	dims := trajs[0].NFeatures()
	frames := 0
	for i, t := range trajs {
		if t.NFeatures() != dims {
			return nil, Errorf(ShapeMismatch, "Concatenate", "matrix %d has %d features, expected %d", i, t.NFeatures(), dims)
		}
		frames += t.Frames()
	}
	ret, err := NewFeatures(frames, dims, nil)
	if err != nil {
		return nil, ErrDecorate(err, "Concatenate")
	}
	offset := 0
	for _, t := range trajs {
		for i := 0; i < t.Frames(); i++ {
			copy(ret.RawFrame(offset+i), t.RawFrame(i))
		}
		offset += t.Frames()
	}
	return ret, nil
}

// Lengths returns the number of frames of each matrix.
func Lengths(trajs []*FeatureMatrix) []int {
	ret := make([]int, len(trajs))
	for i, t := range trajs {
		ret[i] = t.Frames()
	}
	return ret
}
