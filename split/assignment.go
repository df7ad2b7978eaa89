/*
 * assignment.go, part of gomsm.
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
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/google/uuid"
	msm "github.com/rmera/gomsm"
	"github.com/rmera/gomsm/internal/zio"
)

const assignmentVersion = 1

// assignmentSpace is the namespace of the assignment fingerprints.
var assignmentSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/rmera/gomsm/split"))

//Assignment is the persisted form of a split: which trajectory went where, and
//with which configuration. It carries no feature values, so the original
//trajectories are needed to rebuild the Dataset.
type Assignment struct {
	Version  int    `json:"version"`
	ID       string `json:"id"` //fingerprint of the rest of the fields
	Config   Config `json:"config"`
	Lengths  []int  `json:"lengths"`
	Train    []int  `json:"train"`
	Test     []int  `json:"test"`
	Excluded []int  `json:"excluded"`
}

// fingerprint returns a name-based UUID computed from the content of A, ignoring A.ID.
func (A *Assignment) fingerprint() string {
	b := make([]byte, 0, 64)
	b = binary.LittleEndian.AppendUint64(b, uint64(A.Version))
	b = fmt.Appendf(b, "%v|%d|%d|%d|%d", A.Config.Ratio, A.Config.Lag, A.Config.MaxFrames, A.Config.Seed, A.Config.Short)
	for _, l := range [][]int{A.Lengths, A.Train, A.Test, A.Excluded} {
		b = fmt.Appendf(b, "|%v", l)
	}
	return uuid.NewSHA1(assignmentSpace, b).String()
}

// Assignment returns the persistable description of the split in D.
func (D *Dataset) Assignment() *Assignment {
	A := &Assignment{
		Version:  assignmentVersion,
		Config:   D.Config,
		Lengths:  append([]int{}, D.Lengths...),
		Train:    append([]int{}, D.TrainTrajs...),
		Test:     append([]int{}, D.TestTrajs...),
		Excluded: append([]int{}, D.Excluded...),
	}
	A.ID = A.fingerprint()
	return A
}

//Check verifies that A is internally consistent: known version, matching
//fingerprint, valid configuration, and a partition of the trajectory indexes
//with no index in two sets.
func (A *Assignment) Check() error {
	if A.Version != assignmentVersion {
		return msm.Errorf(msm.InvalidConfig, "Check", "unsupported assignment version %d", A.Version)
	}
	if A.ID != A.fingerprint() {
		return msm.Errorf(msm.InvalidConfig, "Check", "assignment %s doesn't match its content", A.ID)
	}
	if err := A.Config.Validate(); err != nil {
		return msm.ErrDecorate(err, "Check")
	}
	seen := make([]bool, len(A.Lengths))
	for _, set := range [][]int{A.Train, A.Test, A.Excluded} {
		for _, v := range set {
			if v < 0 || v >= len(seen) {
				return msm.Errorf(msm.ShapeMismatch, "Check", "trajectory index %d out of range (%d trajectories)", v, len(seen))
			}
			if seen[v] {
				return msm.Errorf(msm.ShapeMismatch, "Check", "trajectory %d assigned twice", v)
			}
			seen[v] = true
		}
	}
	if len(A.Train) == 0 {
		return msm.Errorf(msm.ShapeMismatch, "Check", "no training trajectories")
	}
	return nil
}

//Persist writes the assignment of D to the file name, as JSON. The file is
//compressed with gzip if name ends in .gz, and with zstd if it ends in .zst or
//.zstd. Nothing is written if D is not consistent.
func Persist(name string, D *Dataset) error {
	if D == nil {
		return msm.Errorf(msm.ShapeMismatch, "Persist", "nil dataset")
	}
	A := D.Assignment()
	if err := A.Check(); err != nil {
		return msm.ErrDecorate(err, "Persist")
	}
	b, err := json.MarshalIndent(A, "", "  ")
	if err != nil {
		return fmt.Errorf("Persist: can't encode assignment: %w", err)
	}
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("Persist: %w", err)
	}
	defer f.Close()
	w, err := zio.NewWriter(f, zio.FromExt(name))
	if err != nil {
		return fmt.Errorf("Persist: %w", err)
	}
	if _, err = w.Write(b); err != nil {
		w.Close()
		return fmt.Errorf("Persist: can't write %s: %w", name, err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("Persist: can't write %s: %w", name, err)
	}
	return f.Close()
}

// ReadAssignment reads and checks an assignment written by Persist.
func ReadAssignment(name string) (*Assignment, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("ReadAssignment: %w", err)
	}
	defer f.Close()
	r, err := zio.NewReader(f, zio.FromExt(name))
	if err != nil {
		return nil, fmt.Errorf("ReadAssignment: %w", err)
	}
	defer r.Close()
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ReadAssignment: can't read %s: %w", name, err)
	}
	A := new(Assignment)
	if err = json.Unmarshal(b, A); err != nil {
		return nil, fmt.Errorf("ReadAssignment: can't decode %s: %w", name, err)
	}
	if err = A.Check(); err != nil {
		return nil, msm.ErrDecorate(err, "ReadAssignment")
	}
	return A, nil
}

// Load reads the assignment in the file name, and rebuilds the Dataset from trajs,
// which must be the trajectories originally split.
func Load(name string, trajs []*msm.FeatureMatrix) (*Dataset, error) {
	A, err := ReadAssignment(name)
	if err != nil {
		return nil, msm.ErrDecorate(err, "Load")
	}
	D, err := FromAssignment(trajs, A)
	if err != nil {
		return nil, msm.ErrDecorate(err, "Load")
	}
	return D, nil
}

//FromAssignment rebuilds a Dataset from trajs and A. Given the trajectories of the
//original split, the pairs obtained are identical to the original ones.
func FromAssignment(trajs []*msm.FeatureMatrix, A *Assignment) (*Dataset, error) {
	if err := A.Check(); err != nil {
		return nil, msm.ErrDecorate(err, "FromAssignment")
	}
	if err := checkShapes(trajs); err != nil {
		return nil, msm.ErrDecorate(err, "FromAssignment")
	}
	if len(trajs) != len(A.Lengths) {
		return nil, msm.Errorf(msm.ShapeMismatch, "FromAssignment", "%d trajectories given, assignment has %d", len(trajs), len(A.Lengths))
	}
	for i, t := range trajs {
		if t.Frames() != A.Lengths[i] {
			return nil, msm.Errorf(msm.ShapeMismatch, "FromAssignment", "trajectory %d has %d frames, assignment expects %d", i, t.Frames(), A.Lengths[i])
		}
	}
	train := sortedCopy(A.Train)
	test := sortedCopy(A.Test)
	excluded := sortedCopy(A.Excluded)
	var warnings []error
	if len(excluded) > 0 {
		warnings = append(warnings, msm.Warnf(msm.TrajectoryTooShort, "FromAssignment", "%d trajectories were excluded: %v", len(excluded), excluded))
	}
	D, err := assemble(trajs, A.Config, train, test, excluded)
	if err != nil {
		return nil, msm.ErrDecorate(err, "FromAssignment")
	}
	D.Warnings = append(warnings, D.Warnings...)
	return D, nil
}

func sortedCopy(s []int) []int {
	if s == nil {
		return nil
	}
	ret := append([]int{}, s...)
	sort.Ints(ret)
	return ret
}
