/*
 * stf_test.go, part of gomsm.
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

package stf

import (
	"fmt"
	"math"
	"path/filepath"
	"testing"

	msm "github.com/rmera/gomsm"
	"gonum.org/v1/gonum/mat"
)

// frame returns the coordinates of a 4-atom frame, slightly different for each i.
func frame(i int) *mat.Dense {
	d := mat.NewDense(4, 3, nil)
	for a := 0; a < 4; a++ {
		d.SetRow(a, []float64{float64(a) + 0.1*float64(i), -2.5 * float64(a), 10.017 + float64(i)})
	}
	return d
}

//Writes a short trajectory with different compressions and reads it back.
func TestSTFWriteRead(Te *testing.T) {
	dir := Te.TempDir()
	for _, name := range []string{"test.stf", "test.stz", "test.stl", "test.str"} {
		fname := filepath.Join(dir, name)
		w, err := NewWriter(fname, 4, map[string]string{"title": "test"})
		if err != nil {
			Te.Fatal(err)
		}
		box := []float64{50, 0, 0, 0, 50, 0, 0, 0, 50}
		for i := 0; i < 5; i++ {
			if err := w.WNext(frame(i), box); err != nil {
				Te.Fatal(err)
			}
		}
		if err := w.Close(); err != nil {
			Te.Fatal(err)
		}
		r, header, err := New(fname)
		if err != nil {
			Te.Fatal(err)
		}
		if header["title"] != "test" || header["prec"] != "2" || r.Len() != 4 {
			Te.Errorf("%s: wrong header %v or atom count %d", name, header, r.Len())
		}
		c := mat.NewDense(4, 3, nil)
		rbox := make([]float64, 9)
		i := 0
		for ; ; i++ {
			err := r.Next(c, rbox)
			if err != nil {
				if _, ok := err.(msm.LastFrameError); ok {
					break
				}
				Te.Fatal(err)
			}
			if !mat.EqualApprox(c, frame(i), 0.006) {
				Te.Errorf("%s: frame %d differs:\n%v", name, i, mat.Formatted(c))
			}
			if rbox[4] != 50 {
				Te.Errorf("%s: wrong box %v", name, rbox)
			}
		}
		if i != 5 {
			Te.Errorf("%s: read %d frames, wrote 5", name, i)
		}
		if r.Readable() {
			Te.Errorf("%s: trajectory still readable after the last frame", name)
		}
		fmt.Println(name, "frames read and written:", i)
	}
}

func TestSTFPrecision(Te *testing.T) {
	fname := filepath.Join(Te.TempDir(), "prec.stf")
	w, err := NewWriter(fname, 4, map[string]string{"prec": "4"})
	if err != nil {
		Te.Fatal(err)
	}
	if err := w.WNext(frame(3)); err != nil {
		Te.Fatal(err)
	}
	if err := w.WNext(mat.NewDense(3, 3, nil)); err == nil {
		Te.Error("a frame with the wrong number of atoms was written")
	}
	w.Close()
	r, _, err := New(fname)
	if err != nil {
		Te.Fatal(err)
	}
	defer r.Close()
	c := mat.NewDense(4, 3, nil)
	if err := r.Next(c); err != nil {
		Te.Fatal(err)
	}
	if math.Abs(c.At(0, 2)-13.017) > 1e-9 {
		Te.Errorf("precision lost: %v", c.At(0, 2))
	}
	if err := r.Next(nil); err == nil {
		Te.Error("expected the end of the trajectory")
	} else if _, ok := err.(msm.LastFrameError); !ok {
		Te.Error(err)
	}
}
