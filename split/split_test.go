/*
 * split_test.go, part of gomsm.
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
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	msm "github.com/rmera/gomsm"
)

// testTrajs returns trajectories of the given lengths, with 2 features. Frame f of
// trajectory t is (1000t+f, -(1000t+f)), so every frame can be traced back.
func testTrajs(lengths ...int) []*msm.FeatureMatrix {
	ret := make([]*msm.FeatureMatrix, len(lengths))
	for t, l := range lengths {
		ret[t] = msm.ZeroFeatures(l, 2)
		for f := 0; f < l; f++ {
			v := float64(1000*t + f)
			ret[t].RawFrame(f)[0] = v
			ret[t].RawFrame(f)[1] = -v
		}
	}
	return ret
}

// checkPairs verifies that every pair in P is what its origin says it is.
func checkPairs(Te *testing.T, name string, trajs []*msm.FeatureMatrix, P *Pairs, lag int) {
	Te.Helper()
	if P.Instant.Frames() != P.Len() || P.Lagged.Frames() != P.Len() {
		Te.Fatalf("%s: inconsistent pair set: %d instant, %d lagged, %d origins", name, P.Instant.Frames(), P.Lagged.Frames(), P.Len())
	}
	for i, o := range P.Origin {
		if o.Frame < 0 || o.Frame+lag >= trajs[o.Traj].Frames() {
			Te.Fatalf("%s: pair %d crosses the end of trajectory %d (frame %d)", name, i, o.Traj, o.Frame)
		}
		if P.Instant.At(i, 0) != float64(1000*o.Traj+o.Frame) || P.Lagged.At(i, 0) != float64(1000*o.Traj+o.Frame+lag) {
			Te.Fatalf("%s: pair %d (%v, %v) doesn't match its origin %+v", name, i, P.Instant.At(i, 0), P.Lagged.At(i, 0), o)
		}
	}
}

func TestConstruct(Te *testing.T) {
	trajs := testTrajs(100, 100, 100, 100)
	cfg := Config{Ratio: 0.75, Lag: 20, Seed: 42}
	D, err := Construct(trajs, cfg)
	if err != nil {
		Te.Fatal(err)
	}
	if D.TrainTrajectoryCount() != 3 || D.TestTrajectoryCount() != 1 {
		Te.Errorf("expected 3 train and 1 test trajectories, got %v and %v", D.TrainTrajs, D.TestTrajs)
	}
	if D.Train.Len() != 240 || D.Test.Len() != 80 {
		Te.Errorf("expected 240 train and 80 test pairs, got %d and %d", D.Train.Len(), D.Test.Len())
	}
	if D.TotalFrames != 320 {
		Te.Errorf("expected 320 pairs before subsampling, got %d", D.TotalFrames)
	}
	if D.Flat.Frames() != 400 || len(D.Warnings) != 0 {
		Te.Errorf("flat matrix has %d frames, %d warnings", D.Flat.Frames(), len(D.Warnings))
	}
	checkPairs(Te, "train", trajs, D.Train, cfg.Lag)
	checkPairs(Te, "test", trajs, D.Test, cfg.Lag)
	//trajectory order, then frame order
	for i := 1; i < D.Train.Len(); i++ {
		a, b := D.Train.Origin[i-1], D.Train.Origin[i]
		if a.Traj > b.Traj || (a.Traj == b.Traj && a.Frame >= b.Frame) {
			Te.Fatalf("pairs out of order at %d: %+v %+v", i, a, b)
		}
	}
}

func TestNoLeakage(Te *testing.T) {
	trajs := testTrajs(50, 80, 33, 120, 60, 75, 41, 90)
	for seed := int64(0); seed < 20; seed++ {
		D, err := Construct(trajs, Config{Ratio: 0.6, Lag: 5, Seed: seed, MaxFrames: 100})
		if err != nil {
			Te.Fatal(err)
		}
		intrain := make(map[int]bool)
		for _, t := range D.Train.Trajectories() {
			intrain[t] = true
		}
		for _, t := range D.Test.Trajectories() {
			if intrain[t] {
				Te.Fatalf("seed %d: trajectory %d contributes to both sets", seed, t)
			}
		}
		if len(D.TrainTrajs)+len(D.TestTrajs) != len(trajs) {
			Te.Fatalf("seed %d: %d+%d trajectories assigned", seed, len(D.TrainTrajs), len(D.TestTrajs))
		}
	}
}

func TestDeterminism(Te *testing.T) {
	trajs := testTrajs(100, 70, 130, 90, 55)
	cfg := Config{Ratio: 0.7, Lag: 3, Seed: 1234, MaxFrames: 60}
	D1, err := Construct(trajs, cfg)
	if err != nil {
		Te.Fatal(err)
	}
	D2, err := Construct(trajs, cfg)
	if err != nil {
		Te.Fatal(err)
	}
	sameDatasets(Te, D1, D2)
}

func sameDatasets(Te *testing.T, D1, D2 *Dataset) {
	Te.Helper()
	if !equalInts(D1.TrainTrajs, D2.TrainTrajs) || !equalInts(D1.TestTrajs, D2.TestTrajs) || !equalInts(D1.Excluded, D2.Excluded) {
		Te.Fatalf("different assignments: %v/%v/%v vs %v/%v/%v", D1.TrainTrajs, D1.TestTrajs, D1.Excluded, D2.TrainTrajs, D2.TestTrajs, D2.Excluded)
	}
	for _, p := range [][2]*Pairs{{D1.Train, D2.Train}, {D1.Test, D2.Test}} {
		if !p[0].Instant.Equal(p[1].Instant) || !p[0].Lagged.Equal(p[1].Lagged) {
			Te.Fatal("different pair sets")
		}
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSubsample(Te *testing.T) {
	trajs := testTrajs(100, 100, 100, 100)
	cfg := Config{Ratio: 0.75, Lag: 20, Seed: 7, MaxFrames: 50}
	D, err := Construct(trajs, cfg)
	if err != nil {
		Te.Fatal(err)
	}
	if D.Train.Len() != 50 || D.Test.Len() != 50 {
		Te.Errorf("expected 50 pairs per set, got %d and %d", D.Train.Len(), D.Test.Len())
	}
	if D.TotalFrames != 320 {
		Te.Errorf("TotalFrames should count the pairs before subsampling, got %d", D.TotalFrames)
	}
	checkPairs(Te, "train", trajs, D.Train, cfg.Lag)
	full, err := Construct(trajs, Config{Ratio: 0.75, Lag: 20, Seed: 7})
	if err != nil {
		Te.Fatal(err)
	}
	all := make(map[FrameRef]bool)
	for _, o := range full.Train.Origin {
		all[o] = true
	}
	seen := make(map[FrameRef]bool)
	for _, o := range D.Train.Origin {
		if !all[o] {
			Te.Errorf("pair %+v is not in the full training set", o)
		}
		if seen[o] {
			Te.Errorf("pair %+v chosen twice", o)
		}
		seen[o] = true
	}
}

func TestSubsampleInfeasible(Te *testing.T) {
	trajs := testTrajs(30, 30, 30)
	D, err := Construct(trajs, Config{Ratio: 0.5, Lag: 10, Seed: 3, MaxFrames: 1000})
	if err != nil {
		Te.Fatal(err)
	}
	if D.Train.Len() != 20 || D.Test.Len() != 40 {
		Te.Errorf("all pairs should be kept, got %d and %d", D.Train.Len(), D.Test.Len())
	}
	found := 0
	for _, w := range D.Warnings {
		if errors.Is(w, msm.ErrSubsampleInfeasible) {
			found++
		}
	}
	if found != 2 {
		Te.Errorf("expected 2 infeasible-subsample warnings, got %v", D.Warnings)
	}
}

func TestPairCounts(Te *testing.T) {
	lengths := []int{4, 5, 6, 50, 2, 13}
	lag := 5
	trajs := testTrajs(lengths...)
	D, err := Construct(trajs, Config{Ratio: 0.5, Lag: lag, Seed: 11})
	if err != nil {
		Te.Fatal(err)
	}
	counts := make(map[int]int)
	for _, P := range []*Pairs{D.Train, D.Test} {
		for _, o := range P.Origin {
			counts[o.Traj]++
		}
	}
	for t, l := range lengths {
		want := int(math.Max(0, float64(l-lag)))
		if counts[t] != want {
			Te.Errorf("trajectory %d (%d frames): %d pairs, expected %d", t, l, counts[t], want)
		}
	}
	if !equalInts(D.Excluded, []int{0, 1, 4}) {
		Te.Errorf("unexpected exclusions %v", D.Excluded)
	}
	if len(D.Warnings) != 1 || !errors.Is(D.Warnings[0], msm.ErrTrajectoryTooShort) {
		Te.Errorf("expected one exclusion warning, got %v", D.Warnings)
	}
}

func TestRejectShort(Te *testing.T) {
	trajs := testTrajs(100, 10, 100)
	D, err := Construct(trajs, Config{Ratio: 0.5, Lag: 10, Seed: 1, Short: Reject})
	if !errors.Is(err, msm.ErrTrajectoryTooShort) || D != nil {
		Te.Errorf("expected a too-short error and no dataset, got %v, %v", err, D)
	}
	_, err = Construct(testTrajs(3, 4), Config{Ratio: 0.5, Lag: 10, Seed: 1})
	if !errors.Is(err, msm.ErrTrajectoryTooShort) {
		Te.Errorf("expected a too-short error with no usable trajectory, got %v", err)
	}
}

func TestInvalidConfig(Te *testing.T) {
	trajs := testTrajs(100, 100)
	for _, c := range []Config{
		{Ratio: 0, Lag: 1},
		{Ratio: 1, Lag: 1},
		{Ratio: -0.2, Lag: 1},
		{Ratio: math.NaN(), Lag: 1},
		{Ratio: 0.5, Lag: 0},
		{Ratio: 0.5, Lag: 1, MaxFrames: -1},
		{Ratio: 0.5, Lag: 1, Short: 7},
	} {
		if _, err := Construct(trajs, c); !errors.Is(err, msm.ErrInvalidConfig) {
			Te.Errorf("config %+v: expected an invalid-config error, got %v", c, err)
		}
	}
	if _, err := Construct(nil, DefaultConfig()); !errors.Is(err, msm.ErrShapeMismatch) {
		Te.Errorf("expected a shape mismatch with no trajectories, got %v", err)
	}
	bad := []*msm.FeatureMatrix{msm.ZeroFeatures(10, 2), msm.ZeroFeatures(10, 3)}
	if _, err := Construct(bad, DefaultConfig()); !errors.Is(err, msm.ErrShapeMismatch) {
		Te.Errorf("expected a shape mismatch with different widths, got %v", err)
	}
}

func TestSingleTrajectory(Te *testing.T) {
	D, err := Construct(testTrajs(30), Config{Ratio: 0.9, Lag: 2, Seed: 5, MaxFrames: 10})
	if err != nil {
		Te.Fatal(err)
	}
	if D.TrainTrajectoryCount() != 1 || D.TestTrajectoryCount() != 0 || D.Test.Len() != 0 {
		Te.Errorf("a single trajectory should go to training, got %v / %v", D.TrainTrajs, D.TestTrajs)
	}
	if D.Train.Len() != 10 || len(D.Warnings) != 0 {
		Te.Errorf("got %d training pairs and warnings %v", D.Train.Len(), D.Warnings)
	}
}

func TestPersistLoad(Te *testing.T) {
	trajs := testTrajs(100, 70, 5, 130, 90, 55)
	cfg := Config{Ratio: 0.7, Lag: 8, Seed: 99, MaxFrames: 150}
	D, err := Construct(trajs, cfg)
	if err != nil {
		Te.Fatal(err)
	}
	dir := Te.TempDir()
	for _, name := range []string{"split.json", "split.json.gz", "split.json.zst"} {
		path := filepath.Join(dir, name)
		if err := Persist(path, D); err != nil {
			Te.Fatal(err)
		}
		L, err := Load(path, trajs)
		if err != nil {
			Te.Fatal(err)
		}
		sameDatasets(Te, D, L)
		if L.Config != cfg || L.TotalFrames != D.TotalFrames {
			Te.Errorf("%s: config or frame count changed: %+v %d", name, L.Config, L.TotalFrames)
		}
		if D.Assignment().ID != L.Assignment().ID {
			Te.Errorf("%s: fingerprint changed in the round trip", name)
		}
	}
	if _, err := Load(filepath.Join(dir, "split.json"), trajs[:5]); !errors.Is(err, msm.ErrShapeMismatch) {
		Te.Errorf("expected a shape mismatch with missing trajectories, got %v", err)
	}
	other := testTrajs(100, 70, 5, 130, 91, 55)
	if _, err := Load(filepath.Join(dir, "split.json"), other); !errors.Is(err, msm.ErrShapeMismatch) {
		Te.Errorf("expected a shape mismatch with a different trajectory, got %v", err)
	}
}

func TestTamperedAssignment(Te *testing.T) {
	trajs := testTrajs(40, 40, 40)
	D, err := Construct(trajs, Config{Ratio: 0.5, Lag: 2, Seed: 8})
	if err != nil {
		Te.Fatal(err)
	}
	A := D.Assignment()
	A.Test = append(A.Test, A.Train[0])
	if err := A.Check(); err == nil {
		Te.Error("a modified assignment passed the check")
	}
	A.ID = A.fingerprint()
	if err := A.Check(); !errors.Is(err, msm.ErrShapeMismatch) {
		Te.Errorf("a trajectory in both sets should be a shape mismatch, got %v", err)
	}
	//nothing is written for an inconsistent dataset
	path := filepath.Join(Te.TempDir(), "bad.json")
	D.TestTrajs = append(D.TestTrajs, D.TrainTrajs[0])
	if err := Persist(path, D); err == nil {
		Te.Error("an inconsistent dataset was persisted")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		Te.Errorf("file created for an inconsistent dataset: %v", err)
	}
}

func TestBootstrap(Te *testing.T) {
	trajs := testTrajs(60, 60, 60, 60, 60)
	cfg := Config{Ratio: 0.6, Lag: 4, Seed: 10}
	rounds, err := Bootstrap(trajs, cfg, 4)
	if err != nil {
		Te.Fatal(err)
	}
	if len(rounds) != 4 {
		Te.Fatalf("got %d rounds", len(rounds))
	}
	for r, D := range rounds {
		alone, err := Construct(trajs, RoundConfig(cfg, r))
		if err != nil {
			Te.Fatal(err)
		}
		sameDatasets(Te, D, alone)
	}
	if _, err := Bootstrap(trajs, cfg, 0); !errors.Is(err, msm.ErrInvalidConfig) {
		Te.Errorf("expected an invalid-config error for 0 rounds, got %v", err)
	}
}
