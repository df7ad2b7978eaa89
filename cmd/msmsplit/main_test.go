/*
 * main_test.go, part of gomsm.
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

package main

import (
	"path/filepath"
	"testing"

	msm "github.com/rmera/gomsm"
	"github.com/rmera/gomsm/featurize"
)

func TestExpandName(Te *testing.T) {
	cases := []struct {
		name          string
		round, rounds int
		want          string
	}{
		{"split.json", 0, 1, "split.json"},
		{"split.json.gz", 2, 3, "split_2.json.gz"},
		{"out/r%d.json", 1, 2, "out/r1.json"},
		{"out.d/split", 1, 2, "out.d/split_1"},
		{"", 1, 2, ""},
	}
	for _, c := range cases {
		if got := expandName(c.name, c.round, c.rounds); got != c.want {
			Te.Errorf("expandName(%q, %d, %d) = %q, expected %q", c.name, c.round, c.rounds, got, c.want)
		}
	}
}

func TestFeaturesFromCache(Te *testing.T) {
	dir := Te.TempDir()
	cache := filepath.Join(dir, "ens.npy.gz")
	F := msm.ZeroFeatures(9, 2)
	for i := 0; i < 9; i++ {
		F.Dense().Set(i, 0, float64(i))
	}
	if err := featurize.WriteNpy(cache, F); err != nil {
		Te.Fatal(err)
	}
	manifest := featurize.ManifestName(cache)
	if err := featurize.WriteManifest(manifest, msm.Manifest{{4, 3}, {2}}); err != nil {
		Te.Fatal(err)
	}
	trajs, err := features(cache, manifest, "", nil, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if len(trajs) != 3 || trajs[1].Frames() != 3 || trajs[1].At(0, 0) != 4 || trajs[2].At(1, 0) != 8 {
		Te.Errorf("wrong trajectories %v", trajs)
	}
	if _, err := features(filepath.Join(dir, "missing.npy"), manifest, "", nil, nil); err == nil {
		Te.Error("expected an error without cache nor trajectories")
	}
}
