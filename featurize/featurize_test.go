/*
 * featurize_test.go, part of gomsm.
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

package featurize

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	msm "github.com/rmera/gomsm"
	"github.com/rmera/gomsm/traj/dcd"
	"github.com/rmera/gomsm/traj/stf"
	"gonum.org/v1/gonum/mat"
)

//A linear "peptide" of 5 residues, each with a heavy atom and a hydrogen.
//Residue i has its heavy atom at x=4i A and its hydrogen 1 A above it.
func testGro(Te *testing.T, dir string) string {
	Te.Helper()
	var b strings.Builder
	b.WriteString("test peptide\n")
	b.WriteString("   10\n")
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&b, "%5d%-5s%5s%5d%8.3f%8.3f%8.3f\n", i+1, "ALA", "CA", 2*i+1, 0.4*float64(i), 0.0, 0.0)
		fmt.Fprintf(&b, "%5d%-5s%5s%5d%8.3f%8.3f%8.3f\n", i+1, "ALA", "HA", 2*i+2, 0.4*float64(i), 0.1, 0.0)
	}
	b.WriteString("   5.00000   5.00000   5.00000\n")
	name := filepath.Join(dir, "test.gro")
	if err := os.WriteFile(name, []byte(b.String()), 0o644); err != nil {
		Te.Fatal(err)
	}
	return name
}

func TestReadGro(Te *testing.T) {
	top, err := ReadGro(testGro(Te, Te.TempDir()))
	if err != nil {
		Te.Fatal(err)
	}
	if top.Len() != 10 {
		Te.Fatalf("read %d atoms", top.Len())
	}
	if top.Atoms[3].Name != "HA" || top.Atoms[3].ResID != 2 || top.Atoms[3].Heavy() {
		Te.Errorf("wrong atom %+v", top.Atoms[3])
	}
	if math.Abs(top.Coords.At(4, 0)-8) > 1e-9 {
		Te.Errorf("coordinates not converted to A: %v", top.Coords.At(4, 0))
	}
	res := top.Residues(true)
	if len(res) != 5 || len(res[2].Atoms) != 1 || res[2].Atoms[0] != 4 {
		Te.Errorf("wrong heavy-atom residues %+v", res)
	}
	if all := top.Residues(false); len(all[2].Atoms) != 2 {
		Te.Errorf("wrong residues %+v", all)
	}
}

func TestResiduePairs(Te *testing.T) {
	p := ResiduePairs(5, 2)
	//(0,3) (0,4) (1,4)
	if len(p) != 3 || p[0] != [2]int{0, 3} || p[2] != [2]int{1, 4} {
		Te.Errorf("unexpected pairs %v", p)
	}
	if n := len(ResiduePairs(42, 0)); n != 42*41/2 {
		Te.Errorf("%d pairs for 42 residues without exclusion", n)
	}
}

// memTraj is a msm.Traj over frames kept in memory.
type memTraj struct {
	frames []*mat.Dense
	cur    int
}

func (m *memTraj) Readable() bool { return m.cur < len(m.frames) }
func (m *memTraj) Len() int { r, _ := m.frames[0].Dims(); return r }
func (m *memTraj) Next(c *mat.Dense, box ...[]float64) error {
	if m.cur >= len(m.frames) {
		return &testLastFrame{}
	}
	if c != nil {
		c.Copy(m.frames[m.cur])
	}
	m.cur++
	return nil
}

type testLastFrame struct{}

func (*testLastFrame) Error() string { return "EOF" }
func (*testLastFrame) Decorate(string) []string { return nil }
func (*testLastFrame) Critical() bool { return false }
func (*testLastFrame) FileName() string { return "" }
func (*testLastFrame) Format() string { return "mem" }
func (*testLastFrame) NormalLastFrameTermination() {}

//stretched returns the structure of the test peptide with the spacing between residues
//multiplied by s.
func stretched(top *Topology, s float64) *mat.Dense {
	d := mat.DenseCopyOf(top.Coords)
	for i := 0; i < top.Len(); i++ {
		d.Set(i, 0, d.At(i, 0)*s)
	}
	return d
}

func TestMinDist(Te *testing.T) {
	top, err := ReadGro(testGro(Te, Te.TempDir()))
	if err != nil {
		Te.Fatal(err)
	}
	t := &memTraj{frames: []*mat.Dense{stretched(top, 1), stretched(top, 2), stretched(top, 3)}}
	res := top.Residues(true)
	pairs := ResiduePairs(len(res), 2)
	o := DefaultOptions()
	o.Skip(1) //frames 0 and 2
	F, err := MinDist(t, res, pairs, o)
	if err != nil {
		Te.Fatal(err)
	}
	if r, c := F.Dims(); r != 2 || c != 3 {
		Te.Fatalf("got a %dx%d matrix", r, c)
	}
	//residues 0 and 3 are 12 A apart in the first frame, 36 in the third.
	if math.Abs(F.At(0, 0)-1.2) > 1e-9 || math.Abs(F.At(1, 0)-3.6) > 1e-9 || math.Abs(F.At(1, 1)-4.8) > 1e-9 {
		Te.Errorf("wrong distances:\n%v", F)
	}
	//with hydrogens, H-H distances are the same as the CA-CA ones, so nothing changes.
	t = &memTraj{frames: []*mat.Dense{stretched(top, 1)}}
	F2, err := MinDist(t, top.Residues(false), pairs, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if math.Abs(F2.At(0, 2)-1.2) > 1e-9 {
		Te.Errorf("wrong distance with hydrogens: %v", F2.At(0, 2))
	}
	if _, err := MinDist(t, res, nil, nil); !errors.Is(err, msm.ErrInvalidConfig) {
		Te.Errorf("expected an invalid-config error without pairs, got %v", err)
	}
}

func TestFilesAndCache(Te *testing.T) {
	dir := Te.TempDir()
	top, err := ReadGro(testGro(Te, dir))
	if err != nil {
		Te.Fatal(err)
	}
	nframes := []int{4, 7, 2}
	names := make([]string, len(nframes))
	//the second trajectory is a DCD, the others STF.
	type trajWriter interface {
		WNext(*mat.Dense, ...[]float64) error
		Close() error
	}
	for k, n := range nframes {
		var w trajWriter
		var err error
		if k == 1 {
			names[k] = filepath.Join(dir, fmt.Sprintf("traj%d.dcd", k))
			w, err = dcd.NewWriter(names[k], top.Len(), false)
		} else {
			names[k] = filepath.Join(dir, fmt.Sprintf("traj%d.stf", k))
			w, err = stf.NewWriter(names[k], top.Len(), nil)
		}
		if err != nil {
			Te.Fatal(err)
		}
		for i := 0; i < n; i++ {
			if err := w.WNext(stretched(top, 1+float64(i))); err != nil {
				Te.Fatal(err)
			}
		}
		if err := w.Close(); err != nil {
			Te.Fatal(err)
		}
	}
	o := DefaultOptions()
	o.CPUs(2)
	trajs, err := Files(names, top, o)
	if err != nil {
		Te.Fatal(err)
	}
	for k, n := range nframes {
		if trajs[k].Frames() != n || trajs[k].NFeatures() != 3 {
			Te.Errorf("trajectory %d: %d frames %d features", k, trajs[k].Frames(), trajs[k].NFeatures())
		}
	}
	flat, err := msm.Concatenate(trajs)
	if err != nil {
		Te.Fatal(err)
	}
	for _, cname := range []string{"ens.npy", "ens.npy.zst"} {
		cache := filepath.Join(dir, cname)
		calls := 0
		compute := func() (*msm.FeatureMatrix, error) {
			calls++
			return flat, nil
		}
		F, fromFile, err := Cached(cache, compute)
		if err != nil || fromFile {
			Te.Fatalf("%s: first call: %v, read from file: %v", cname, err, fromFile)
		}
		G, fromFile, err := Cached(cache, compute)
		if err != nil || !fromFile {
			Te.Fatalf("%s: second call: %v, read from file: %v", cname, err, fromFile)
		}
		if calls != 1 || !F.Equal(G) {
			Te.Errorf("%s: %d computations, cached matrix equal: %v", cname, calls, F.Equal(G))
		}
	}
	m := msm.Manifest{{4, 7}, {2}}
	mname := ManifestName(filepath.Join(dir, "ens.npy.zst"))
	if filepath.Base(mname) != "ens.lengths.json" {
		Te.Errorf("unexpected manifest name %s", mname)
	}
	if err := WriteManifest(mname, m); err != nil {
		Te.Fatal(err)
	}
	m2, err := ReadManifest(mname)
	if err != nil {
		Te.Fatal(err)
	}
	back, err := msm.Unflatten(flat, m2)
	if err != nil {
		Te.Fatal(err)
	}
	for k := range back {
		if !back[k].Equal(trajs[k]) {
			Te.Errorf("trajectory %d differs after the manifest round trip", k)
		}
	}
	names[1] = filepath.Join(dir, "missing.stf")
	if _, err := Files(names, top, o); err == nil {
		Te.Error("expected an error for a missing trajectory")
	}
}
