/*
 * split.go, part of gomsm.
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

//Package split builds reproducible train/test sets of time-lagged pairs from
//a set of trajectories. The split happens at the trajectory level, so that no
//trajectory contributes frames to both sets, and only the indexes of the
//split are persisted.
package split

import (
	"log"
	"math/rand"
	"sort"

	msm "github.com/rmera/gomsm"
)

// Independent random streams derived from Config.Seed.
const (
	partitionStream int64 = iota
	trainStream
	testStream
)

// newRand returns a generator for the given stream of seed. No global
// random state is ever used.
func newRand(seed, stream int64) *rand.Rand {
	return rand.New(rand.NewSource(seed*7919 + stream))
}

//Dataset is the result of a split. Trajectory indexes refer to the
//slice of trajectories given to Construct.
type Dataset struct {
	Config Config

	Train *Pairs
	Test  *Pairs

	TrainTrajs []int //sorted
	TestTrajs  []int //sorted
	Excluded   []int //trajectories too short for the lag time, sorted

	Lengths     []int //frames in each of the original trajectories
	TotalFrames int   //pairs available in both partitions, before subsampling

	//All the original frames, trajectory after trajectory, for transforming the
	//whole data set once a model has been trained.
	Flat *msm.FeatureMatrix

	//Non-critical problems found during the split (excluded trajectories,
	//infeasible subsampling).
	Warnings []error
}

// TrainTrajectoryCount returns the number of trajectories assigned to training.
func (D *Dataset) TrainTrajectoryCount() int { return len(D.TrainTrajs) }

// TestTrajectoryCount returns the number of trajectories assigned to testing.
func (D *Dataset) TestTrajectoryCount() int { return len(D.TestTrajs) }

//Construct splits trajs into a train and a test set of lagged pairs, following cfg.
//Whole trajectories are assigned to one set or the other by a permutation drawn
//from cfg.Seed. The number of training trajectories is floor(cfg.Ratio*n), but
//always at least one, and, if there are more than one usable trajectories, at
//most n-1, so the test set is never empty. If cfg.MaxFrames is positive, each
//set is subsampled to that many pairs. Errors are of kind InvalidConfig,
//ShapeMismatch or TrajectoryTooShort. No partial Dataset is ever returned.
func Construct(trajs []*msm.FeatureMatrix, cfg Config) (*Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, msm.ErrDecorate(err, "Construct")
	}
	if err := checkShapes(trajs); err != nil {
		return nil, msm.ErrDecorate(err, "Construct")
	}
	usable, excluded, warnings, err := screen(trajs, cfg)
	if err != nil {
		return nil, msm.ErrDecorate(err, "Construct")
	}
	train, test := partition(usable, cfg)
	D, err := assemble(trajs, cfg, train, test, excluded)
	if err != nil {
		return nil, msm.ErrDecorate(err, "Construct")
	}
	D.Warnings = append(warnings, D.Warnings...)
	return D, nil
}

// checkShapes verifies that there is at least one trajectory, and that all have the same width.
func checkShapes(trajs []*msm.FeatureMatrix) error {
	if len(trajs) == 0 {
		return msm.Errorf(msm.ShapeMismatch, "checkShapes", "no trajectories given")
	}
	for i, t := range trajs {
		if t == nil {
			return msm.Errorf(msm.ShapeMismatch, "checkShapes", "trajectory %d is nil", i)
		}
	}
	dims := trajs[0].NFeatures()
	for i, t := range trajs {
		if t.NFeatures() != dims {
			return msm.Errorf(msm.ShapeMismatch, "checkShapes", "trajectory %d has %d features, expected %d", i, t.NFeatures(), dims)
		}
	}
	return nil
}

//screen separates the trajectories that can yield at least one pair from
//those that can't, applying the short-trajectory policy of cfg.
func screen(trajs []*msm.FeatureMatrix, cfg Config) (usable, excluded []int, warnings []error, err error) {
	for i, t := range trajs {
		if t.Frames() > cfg.Lag {
			usable = append(usable, i)
			continue
		}
		if cfg.Short == Reject {
			return nil, nil, nil, msm.Errorf(msm.TrajectoryTooShort, "screen", "trajectory %d has %d frames, lag time is %d", i, t.Frames(), cfg.Lag)
		}
		excluded = append(excluded, i)
	}
	if len(excluded) > 0 {
		w := msm.Warnf(msm.TrajectoryTooShort, "screen", "%d trajectories not longer than the lag time (%d) were excluded: %v", len(excluded), cfg.Lag, excluded)
		log.Print(w.Error())
		warnings = append(warnings, w)
	}
	if len(usable) == 0 {
		return nil, nil, nil, msm.Errorf(msm.TrajectoryTooShort, "screen", "no trajectory is longer than the lag time (%d)", cfg.Lag)
	}
	return usable, excluded, warnings, nil
}

// partition assigns the usable trajectories to train and test. Both results are sorted.
func partition(usable []int, cfg Config) (train, test []int) {
	n := len(usable)
	ntrain := int(cfg.Ratio * float64(n))
	if ntrain < 1 {
		ntrain = 1
	}
	if n > 1 && ntrain > n-1 {
		ntrain = n - 1
	}
	perm := newRand(cfg.Seed, partitionStream).Perm(n)
	train = make([]int, 0, ntrain)
	test = make([]int, 0, n-ntrain)
	for i, p := range perm {
		if i < ntrain {
			train = append(train, usable[p])
		} else {
			test = append(test, usable[p])
		}
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test
}

// assemble builds the Dataset for an already decided partition.
func assemble(trajs []*msm.FeatureMatrix, cfg Config, train, test, excluded []int) (*Dataset, error) {
	flat, err := msm.Concatenate(trajs)
	if err != nil {
		return nil, msm.ErrDecorate(err, "assemble")
	}
	D := &Dataset{
		Config:     cfg,
		TrainTrajs: train,
		TestTrajs:  test,
		Excluded:   excluded,
		Lengths:    msm.Lengths(trajs),
		Flat:       flat,
	}
	trainrefs := pairRefs(trajs, train, cfg.Lag)
	testrefs := pairRefs(trajs, test, cfg.Lag)
	D.TotalFrames = len(trainrefs) + len(testrefs)
	if cfg.MaxFrames > 0 {
		var w error
		trainrefs, w = subsample(trainrefs, cfg.MaxFrames, newRand(cfg.Seed, trainStream), "train")
		if w != nil {
			log.Print(w.Error())
			D.Warnings = append(D.Warnings, w)
		}
		//An empty test set is only possible with a single usable trajectory, and
		//it's not worth a warning.
		if len(testrefs) > 0 {
			testrefs, w = subsample(testrefs, cfg.MaxFrames, newRand(cfg.Seed, testStream), "test")
			if w != nil {
				log.Print(w.Error())
				D.Warnings = append(D.Warnings, w)
			}
		}
	}
	dims := trajs[0].NFeatures()
	D.Train = materialize(trajs, trainrefs, cfg.Lag, dims)
	D.Test = materialize(trajs, testrefs, cfg.Lag, dims)
	return D, nil
}
