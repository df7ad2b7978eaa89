/*
 * store.go, part of gomsm.
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

//Package store keeps the outputs of a Koopman/VAMPnet model trained on a split in
//a directory hierarchy keyed by ensemble, attempt (bootstrap round) and output size
//(number of states), with one NumPy file per data set.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	msm "github.com/rmera/gomsm"
	"github.com/rmera/gomsm/internal/npyz"
	"github.com/rmera/gomsm/split"
	"gonum.org/v1/gonum/mat"
)

// Key locates a set of results in the store.
type Key struct {
	Ensemble string
	Attempt  int
	OutSize  int
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d/%d", k.Ensemble, k.Attempt, k.OutSize)
}

func (k Key) dir(root string) string {
	return filepath.Join(root, k.Ensemble, strconv.Itoa(k.Attempt), strconv.Itoa(k.OutSize))
}

//Results contains the outputs of a model with n output states.
type Results struct {
	K         *mat.Dense   //Koopman matrix, n x n
	Mu        []float64    //stationary weights of the training frames
	ITS       *mat.Dense   //implied timescales, (n-1) x lags
	CKE       []*mat.Dense //Chapman-Kolmogorov estimates, one n x n matrix per step
	CKP       []*mat.Dense //Chapman-Kolmogorov predictions, one n x n matrix per step
	Bootstrap *mat.Dense   //state probabilities of the training pairs, instant and lagged, len(Mu) x 2n
	Full      *mat.Dense   //state probabilities for the whole data set, frames x 2n
}

//Shape contains the sizes expected for a set of results, other than the number of states.
type Shape struct {
	Train  int //training pairs
	Frames int //frames in the whole data set
	Lags   int //lag times for the implied timescales
	Steps  int //steps in the Chapman-Kolmogorov test
}

// ShapeFor returns the shape of the results of a model trained on D.
func ShapeFor(D *split.Dataset, lags, steps int) *Shape {
	return &Shape{Train: D.Train.Len(), Frames: D.Flat.Frames(), Lags: lags, Steps: steps}
}

func shapeErr(name string, m mat.Matrix, r, c int) error {
	if m == nil {
		return msm.Errorf(msm.ShapeMismatch, "Validate", "%s is missing", name)
	}
	mr, mc := m.Dims()
	if mr != r || mc != c {
		return msm.Errorf(msm.ShapeMismatch, "Validate", "%s is %dx%d, expected %dx%d", name, mr, mc, r, c)
	}
	return nil
}

//Validate checks that R is a consistent set of results for a model with n states.
//If s is not nil, the sizes given in it are also checked.
func (R *Results) Validate(n int, s *Shape) error {
	if n < 2 {
		return msm.Errorf(msm.ShapeMismatch, "Validate", "%d output states", n)
	}
	var lags int
	if R.ITS != nil {
		_, lags = R.ITS.Dims()
	}
	if s == nil {
		s = &Shape{Train: len(R.Mu), Lags: lags, Steps: len(R.CKE)}
		if R.Full != nil {
			s.Frames, _ = R.Full.Dims()
		}
	}
	if len(R.Mu) != s.Train {
		return msm.Errorf(msm.ShapeMismatch, "Validate", "mu has %d elements, expected %d", len(R.Mu), s.Train)
	}
	if len(R.CKE) != s.Steps || len(R.CKP) != s.Steps {
		return msm.Errorf(msm.ShapeMismatch, "Validate", "%d estimated and %d predicted CK steps, expected %d", len(R.CKE), len(R.CKP), s.Steps)
	}
	checks := []struct {
		name string
		m    *mat.Dense
		r, c int
	}{
		{"k", R.K, n, n},
		{"its", R.ITS, n - 1, s.Lags},
		{"bootstrap", R.Bootstrap, s.Train, 2 * n},
		{"full", R.Full, s.Frames, 2 * n},
	}
	for _, c := range checks {
		if c.m == nil {
			return shapeErr(c.name, nil, c.r, c.c)
		}
		if err := shapeErr(c.name, c.m, c.r, c.c); err != nil {
			return err
		}
	}
	for i := range R.CKE {
		if R.CKE[i] == nil || R.CKP[i] == nil {
			return msm.Errorf(msm.ShapeMismatch, "Validate", "CK step %d is missing", i)
		}
		if err := shapeErr(fmt.Sprintf("cke[%d]", i), R.CKE[i], n, n); err != nil {
			return err
		}
		if err := shapeErr(fmt.Sprintf("ckp[%d]", i), R.CKP[i], n, n); err != nil {
			return err
		}
	}
	return nil
}

func ckName(kind string, step int) string {
	return fmt.Sprintf("%s_%03d.npy", kind, step)
}

//Write validates R for key.OutSize states (and s, if not nil) and stores it under root.
//Nothing is written if the validation fails.
func Write(root string, key Key, R *Results, s *Shape) error {
	if key.Ensemble == "" {
		return msm.Errorf(msm.InvalidConfig, "Write", "empty ensemble name")
	}
	if err := R.Validate(key.OutSize, s); err != nil {
		return msm.ErrDecorate(err, "Write "+key.String())
	}
	dir := key.dir(root)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("Write: %w", err)
	}
	files := map[string]any{
		"k.npy":         R.K,
		"mu.npy":        R.Mu,
		"its.npy":       R.ITS,
		"bootstrap.npy": R.Bootstrap,
		"full.npy":      R.Full,
	}
	for i := range R.CKE {
		files[ckName("cke", i)] = R.CKE[i]
		files[ckName("ckp", i)] = R.CKP[i]
	}
	for name, v := range files {
		if err := npyz.Write(filepath.Join(dir, name), v); err != nil {
			return fmt.Errorf("Write %s: %w", key, err)
		}
	}
	return nil
}

func readDense(name string) (*mat.Dense, error) {
	d := new(mat.Dense)
	if err := npyz.Read(name, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Read reads the results stored under root with the given key.
func Read(root string, key Key) (*Results, error) {
	dir := key.dir(root)
	R := new(Results)
	var err error
	for name, dst := range map[string]**mat.Dense{
		"k.npy":         &R.K,
		"its.npy":       &R.ITS,
		"bootstrap.npy": &R.Bootstrap,
		"full.npy":      &R.Full,
	} {
		if *dst, err = readDense(filepath.Join(dir, name)); err != nil {
			return nil, fmt.Errorf("Read %s: %w", key, err)
		}
	}
	if err = npyz.Read(filepath.Join(dir, "mu.npy"), &R.Mu); err != nil {
		return nil, fmt.Errorf("Read %s: %w", key, err)
	}
	for i := 0; ; i++ {
		ename := filepath.Join(dir, ckName("cke", i))
		if _, err := os.Stat(ename); errors.Is(err, fs.ErrNotExist) {
			break
		}
		e, err := readDense(ename)
		if err != nil {
			return nil, fmt.Errorf("Read %s: %w", key, err)
		}
		p, err := readDense(filepath.Join(dir, ckName("ckp", i)))
		if err != nil {
			return nil, fmt.Errorf("Read %s: %w", key, err)
		}
		R.CKE = append(R.CKE, e)
		R.CKP = append(R.CKP, p)
	}
	if err = R.Validate(key.OutSize, nil); err != nil {
		return nil, msm.ErrDecorate(err, "Read "+key.String())
	}
	return R, nil
}

//List returns the keys of all the results stored under root, sorted by ensemble,
//attempt and output size.
func List(root string) ([]Key, error) {
	matches, err := filepath.Glob(filepath.Join(root, "*", "*", "*", "k.npy"))
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	ret := make([]Key, 0, len(matches))
	for _, m := range matches {
		osdir := filepath.Dir(m)
		attdir := filepath.Dir(osdir)
		outsize, err1 := strconv.Atoi(filepath.Base(osdir))
		attempt, err2 := strconv.Atoi(filepath.Base(attdir))
		if err1 != nil || err2 != nil {
			continue //not ours
		}
		ret = append(ret, Key{Ensemble: filepath.Base(filepath.Dir(attdir)), Attempt: attempt, OutSize: outsize})
	}
	sort.Slice(ret, func(i, j int) bool {
		a, b := ret[i], ret[j]
		if a.Ensemble != b.Ensemble {
			return a.Ensemble < b.Ensemble
		}
		if a.Attempt != b.Attempt {
			return a.Attempt < b.Attempt
		}
		return a.OutSize < b.OutSize
	})
	return ret, nil
}
