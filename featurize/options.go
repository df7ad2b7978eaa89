/*
 * options.go, part of gomsm.
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

import "runtime"

//Options contains various options for the featurization functions
type Options struct {
	begin     int
	skip      int
	cpus      int
	exclude   int
	heavyOnly bool
}

//DefaultOptions return reasonable options for atomistic trajectories.
//All frames are read, all logical CPUs used, hydrogens are ignored, and
//residues closer than 3 positions in the sequence are not paired.
func DefaultOptions() *Options {
	r := new(Options)
	r.cpus = runtime.NumCPU()
	r.exclude = 2
	r.heavyOnly = true
	return r
}

//Returns the index of the first frame of each trajectory to use,
//and sets it to a new value, if given.
func (O *Options) Begin(n ...int) int {
	if len(n) > 0 && n[0] >= 0 {
		O.begin = n[0]
	}
	return O.begin
}

//Returns the number of skipped frames between reads,
//and sets it to a new value, if given.
func (O *Options) Skip(n ...int) int {
	if len(n) > 0 && n[0] >= 0 {
		O.skip = n[0]
	}
	return O.skip
}

//Returns the number of gorutines to be used,
//and sets it to a new value, if given.
func (O *Options) CPUs(n ...int) int {
	if len(n) > 0 && n[0] > 0 {
		O.cpus = n[0]
	}
	if O.cpus < 1 {
		O.cpus = 1
	}
	return O.cpus
}

//Returns how many sequence neighbours of a residue are not paired with it,
//and sets it to a new value, if given.
func (O *Options) Exclude(n ...int) int {
	if len(n) > 0 && n[0] >= 0 {
		O.exclude = n[0]
	}
	return O.exclude
}

//Returns true if only heavy atoms are used for the distances,
//and sets it to a new value, if given.
func (O *Options) HeavyOnly(b ...bool) bool {
	if len(b) > 0 {
		O.heavyOnly = b[0]
	}
	return O.heavyOnly
}
