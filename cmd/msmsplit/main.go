/*
 * main.go, part of gomsm.
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

//msmsplit featurizes a set of trajectories (or reads the cached features), splits them
//into reproducible train and test sets of time-lagged pairs, and stores the split.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	msm "github.com/rmera/gomsm"
	"github.com/rmera/gomsm/featurize"
	"github.com/rmera/gomsm/report"
	"github.com/rmera/gomsm/split"
	"github.com/rmera/gomsm/store"
	"github.com/rmera/gomsm/trainfeed"
)

var verb int

// If level is larger or equal, prints the d arguments to stderr
// otherwise, does nothing.
func LogV(level int, d ...interface{}) {
	if level <= verb {
		fmt.Fprintln(os.Stderr, d...)
	}
}

//expandName replaces the %d in name with round. If there is no %d and
//there are several rounds, the round is added before the extension(s).
func expandName(name string, round, rounds int) string {
	if name == "" {
		return ""
	}
	if strings.Contains(name, "%d") {
		return fmt.Sprintf(name, round)
	}
	if rounds <= 1 {
		return name
	}
	dot := strings.Index(name[strings.LastIndex(name, "/")+1:], ".")
	if dot < 0 {
		return fmt.Sprintf("%s_%d", name, round)
	}
	dot += strings.LastIndex(name, "/") + 1
	return fmt.Sprintf("%s_%d%s", name[:dot], round, name[dot:])
}

//features returns the feature matrices of the trajectories, from the cache if it
//exists, or featurizing the stf files in names otherwise.
func features(cache, manifest, gro string, names []string, o *featurize.Options) ([]*msm.FeatureMatrix, error) {
	var lengths []int
	compute := func() (*msm.FeatureMatrix, error) {
		if gro == "" || len(names) == 0 {
			return nil, fmt.Errorf("no cached features in %s, and no topology and trajectories to compute them", cache)
		}
		top, err := featurize.ReadGro(gro)
		if err != nil {
			return nil, err
		}
		LogV(1, "Featurizing", len(names), "trajectories")
		trajs, err := featurize.Files(names, top, o)
		if err != nil {
			return nil, err
		}
		lengths = msm.Lengths(trajs)
		return msm.Concatenate(trajs)
	}
	flat, fromFile, err := featurize.Cached(cache, compute)
	if err != nil {
		return nil, err
	}
	if !fromFile {
		if err := featurize.WriteManifest(manifest, msm.Manifest{lengths}); err != nil {
			return nil, err
		}
	} else {
		LogV(2, "Features read from", cache)
	}
	m, err := featurize.ReadManifest(manifest)
	if err != nil {
		return nil, err
	}
	return msm.Unflatten(flat, m)
}

//checkResults reads the model outputs stored under root for the given ensemble and
//round and checks that their shapes fit the split D.
func checkResults(root, ensemble string, round int, D *split.Dataset) error {
	keys, err := store.List(root)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if k.Ensemble != ensemble || k.Attempt != round {
			continue
		}
		R, err := store.Read(root, k)
		if err != nil {
			return err
		}
		_, lags := R.ITS.Dims()
		if err := R.Validate(k.OutSize, store.ShapeFor(D, lags, len(R.CKE))); err != nil {
			return fmt.Errorf("results %s don't match the split: %w", k, err)
		}
		LogV(1, "Results", k, "match the split")
	}
	return nil
}

func main() {
	cache := flag.String("features", "", "NumPy file with the cached features. If it doesn't exist, it will be created from the trajectories given. Default: [ensemble].npy")
	manifest := flag.String("manifest", "", "JSON file with the lengths of the trajectories in the feature file. Default: derived from the feature file name")
	gro := flag.String("gro", "", "GROMACS gro file with the topology of the trajectories. Only needed if the features are not cached")
	ensemble := flag.String("ensemble", "ensemble", "Name of the ensemble")
	exclude := flag.Int("exclude", 2, "Residue pairs closer than this in sequence are not used as features")
	hydrogens := flag.Bool("hydrogens", false, "Use hydrogens when computing minimum distances")
	begin := flag.Int("begin", 0, "First frame of each trajectory to featurize")
	skip := flag.Int("skip", 0, "Frames skipped between featurized frames")
	cpus := flag.Int("cpus", -1, "Trajectories to featurize at the same time. -1 means as many as CPUs")
	ratio := flag.Float64("ratio", 0.9, "Fraction of the trajectories used for training")
	lag := flag.Int("lag", 1, "Lag time, in frames")
	maxframes := flag.Int("maxframes", 0, "Maximum number of pairs in each set. 0 means no limit")
	seed := flag.Int64("seed", 42, "Seed for the random split and subsampling")
	rejectShort := flag.Bool("reject-short", false, "Fail if a trajectory is shorter than the lag time, instead of excluding it")
	rounds := flag.Int("rounds", 1, "Number of bootstrap rounds, each with its own seed")
	out := flag.String("out", "split.json", "File for the split. A %d is replaced by the bootstrap round. Use .gz or .zst extensions for compression")
	csvname := flag.String("csv", "", "Write a per-trajectory summary of the split to this CSV file")
	plotname := flag.String("plot", "", "Plot the split to this file (png, svg, pdf)")
	acfcol := flag.Int("acf", -1, "Suggest a lag time from the autocorrelation of this feature")
	batch := flag.Int("batch", 0, "If larger than 0, report the training batches per epoch with this batch size")
	results := flag.String("check-results", "", "Check that the model results stored under this directory match the split")
	verbose := flag.Int("v", 1, "Level of verbosity")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage:\n  %s: [flags] [traj1.stf traj2.stf ...]\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	verb = *verbose
	if *cache == "" {
		*cache = featurize.CacheName(".", *ensemble)
	}
	if *manifest == "" {
		*manifest = featurize.ManifestName(*cache)
	}
	o := featurize.DefaultOptions()
	o.Begin(*begin)
	o.Skip(*skip)
	o.Exclude(*exclude)
	o.HeavyOnly(!*hydrogens)
	if *cpus > 0 {
		o.CPUs(*cpus)
	}
	trajs, err := features(*cache, *manifest, *gro, flag.Args(), o)
	if err != nil {
		log.Fatal("Failed to obtain the features: " + err.Error())
	}
	if len(trajs) == 0 {
		log.Fatal("No trajectories in " + *manifest)
	}
	LogV(1, len(trajs), "trajectories,", trajs[0].NFeatures(), "features")

	if *acfcol >= 0 {
		maxlag := 0
		for _, t := range trajs {
			if t.Frames() > maxlag {
				maxlag = t.Frames()
			}
		}
		maxlag /= 2
		acf, err := report.Autocorrelation(trajs, *acfcol, maxlag)
		if err != nil {
			log.Fatal("Failed to obtain the autocorrelation: " + err.Error())
		}
		if l, ok := report.DecorrelationLag(acf, 0); ok {
			fmt.Printf("Feature %d decorrelates (acf<1/e) after %d frames\n", *acfcol, l)
		} else {
			fmt.Printf("Feature %d doesn't decorrelate within %d frames\n", *acfcol, maxlag)
		}
	}

	cfg := split.Config{Ratio: *ratio, Lag: *lag, MaxFrames: *maxframes, Seed: *seed, Short: split.Exclude}
	if *rejectShort {
		cfg.Short = split.Reject
	}
	var sets []*split.Dataset
	if *rounds > 1 {
		sets, err = split.Bootstrap(trajs, cfg, *rounds)
	} else {
		var D *split.Dataset
		D, err = split.Construct(trajs, cfg)
		sets = []*split.Dataset{D}
	}
	if err != nil {
		log.Fatal("Failed to split the data: " + err.Error())
	}
	for r, D := range sets {
		name := expandName(*out, r, len(sets))
		if err := split.Persist(name, D); err != nil {
			log.Fatal(err)
		}
		LogV(1, fmt.Sprintf("Round %d: %d train trajectories (%d pairs), %d test trajectories (%d pairs), %d excluded. Split written to %s",
			r, D.TrainTrajectoryCount(), D.Train.Len(), D.TestTrajectoryCount(), D.Test.Len(), len(D.Excluded), name))
		for _, w := range D.Warnings {
			LogV(2, "Warning:", w)
		}
		rows, err := report.Summarize(trajs, D)
		if err != nil {
			log.Fatal(err)
		}
		if *csvname != "" {
			f, err := os.Create(expandName(*csvname, r, len(sets)))
			if err != nil {
				log.Fatal(err)
			}
			err = report.WriteCSV(f, rows)
			f.Close()
			if err != nil {
				log.Fatal(err)
			}
		}
		if *plotname != "" {
			title := fmt.Sprintf("%s, round %d", *ensemble, r)
			if err := report.PlotSplit(rows, title, expandName(*plotname, r, len(sets))); err != nil {
				log.Fatal(err)
			}
		}
		if *batch > 0 {
			feed, err := trainfeed.New(fmt.Sprintf("%s-%d", *ensemble, r), D.Train, *batch, cfg.Seed+int64(r))
			if err != nil {
				log.Fatal(err)
			}
			LogV(1, feed, fmt.Sprintf("(%d batches per epoch)", (D.Train.Len()+*batch-1) / *batch))
		}
		if *results != "" {
			if err := checkResults(*results, *ensemble, r, D); err != nil {
				log.Fatal(err)
			}
		}
	}
}
