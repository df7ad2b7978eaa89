/*
 * features.go, part of gomsm.
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
	"fmt"

	"gonum.org/v1/gonum/mat"
)

//FeatureMatrix is an ordered set of feature vectors, one per frame of a trajectory.
//Within the package it is understood that a "frame" is a row of the matrix.
//gonum does not allow empty Dense matrices with a given number of columns, so a
//FeatureMatrix with no frames keeps its width but has a nil Dense.
type FeatureMatrix struct {
	d    *mat.Dense
	dims int
}

// Dense2Features wraps A. Changes in A are reflected in the returned matrix.
func Dense2Features(A *mat.Dense) *FeatureMatrix {
	_, c := A.Dims()
	return &FeatureMatrix{d: A, dims: c}
}

// NewFeatures returns a FeatureMatrix with frames rows and dims columns, using data
// (row-major) as its backing slice. If data is nil, a zero matrix is allocated.
func NewFeatures(frames, dims int, data []float64) (*FeatureMatrix, error) {
	if frames < 0 || dims <= 0 {
		return nil, Errorf(ShapeMismatch, "NewFeatures", "invalid shape %dx%d", frames, dims)
	}
	if data != nil && len(data) != frames*dims {
		return nil, Errorf(ShapeMismatch, "NewFeatures", "data length %d does not match shape %dx%d", len(data), frames, dims)
	}
	if frames == 0 {
		return &FeatureMatrix{dims: dims}, nil
	}
	return &FeatureMatrix{d: mat.NewDense(frames, dims, data), dims: dims}, nil
}

// ZeroFeatures returns a zeroed FeatureMatrix. It panics on invalid shapes.
func ZeroFeatures(frames, dims int) *FeatureMatrix {
	F, err := NewFeatures(frames, dims, nil)
	if err != nil {
		panic(err.Error())
	}
	return F
}

// Dense returns the underlying Dense, or nil if the matrix has no frames.
func (F *FeatureMatrix) Dense() *mat.Dense {
	return F.d
}

// Dims returns the number of frames and features. It, together with At and T,
// makes FeatureMatrix a mat.Matrix.
func (F *FeatureMatrix) Dims() (int, int) {
	return F.Frames(), F.dims
}

func (F *FeatureMatrix) At(i, j int) float64 {
	if F.d == nil {
		panic(mat.ErrIndexOutOfRange)
	}
	return F.d.At(i, j)
}

func (F *FeatureMatrix) T() mat.Matrix {
	return mat.Transpose{Matrix: F}
}

// Frames returns the number of frames (rows).
func (F *FeatureMatrix) Frames() int {
	if F.d == nil {
		return 0
	}
	r, _ := F.d.Dims()
	return r
}

// NFeatures returns the number of features per frame.
func (F *FeatureMatrix) NFeatures() int {
	return F.dims
}

// RawFrame returns a slice backed by the ith frame. Changes in the slice
// are reflected in the matrix.
func (F *FeatureMatrix) RawFrame(i int) []float64 {
	if F.d == nil {
		panic(mat.ErrRowAccess)
	}
	return F.d.RawRowView(i)
}

// Frame copies the ith frame into dst, which is allocated if nil, and returns it.
func (F *FeatureMatrix) Frame(dst []float64, i int) []float64 {
	if dst == nil {
		dst = make([]float64, F.dims)
	}
	copy(dst, F.RawFrame(i))
	return dst
}

//FrameView returns a view of n frames of F starting from the ith one.
//Changes in the view are reflected in F and vice-versa.
func (F *FeatureMatrix) FrameView(i, n int) *FeatureMatrix {
	if i < 0 || n < 0 || i+n > F.Frames() {
		panic(fmt.Sprintf("FrameView: frames %d-%d out of range for %d frames", i, i+n, F.Frames()))
	}
	if n == 0 {
		return &FeatureMatrix{dims: F.dims}
	}
	v := F.d.Slice(i, i+n, 0, F.dims).(*mat.Dense)
	return &FeatureMatrix{d: v, dims: F.dims}
}

//SomeFrames returns a new matrix with copies of the frames of F given in clist, in that order.
func (F *FeatureMatrix) SomeFrames(clist []int) *FeatureMatrix {
	ret := ZeroFeatures(len(clist), F.dims)
	for k, v := range clist {
		copy(ret.RawFrame(k), F.RawFrame(v))
	}
	return ret
}

// Equal returns true if both matrices have the same shape and elements.
func (F *FeatureMatrix) Equal(G *FeatureMatrix) bool {
	if F.dims != G.dims || F.Frames() != G.Frames() {
		return false
	}
	if F.Frames() == 0 {
		return true
	}
	return mat.Equal(F.d, G.d)
}

func (F *FeatureMatrix) String() string {
	if F.d == nil {
		return fmt.Sprintf("[0x%d]", F.dims)
	}
	return fmt.Sprintf("%v", mat.Formatted(F.d, mat.Squeeze()))
}
