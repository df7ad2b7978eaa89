/*
 * gro.go, part of gomsm.
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
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Atom is the part of a topology atom needed for featurization.
type Atom struct {
	Name    string
	ResName string
	ResID   int
}

// Heavy returns false if the atom is a hydrogen, judging by its name.
func (A *Atom) Heavy() bool {
	name := strings.TrimLeft(A.Name, "0123456789")
	return !strings.HasPrefix(name, "H")
}

//Topology is a list of atoms, with the coordinates, in A, of the structure
//they were read from.
type Topology struct {
	Atoms  []*Atom
	Coords *mat.Dense
}

// Len returns the number of atoms in the topology.
func (T *Topology) Len() int {
	return len(T.Atoms)
}

// Residue is a set of atoms, given by their indexes in a topology.
type Residue struct {
	ID    int
	Name  string
	Atoms []int
}

//Residues returns the residues of T, in order of appearance. A new residue starts
//every time the residue ID or name changes. If heavyOnly is true, hydrogens are left out,
//and residues with no remaining atoms are omitted.
func (T *Topology) Residues(heavyOnly bool) []Residue {
	ret := make([]Residue, 0)
	var cur *Residue
	for i, a := range T.Atoms {
		if cur == nil || a.ResID != cur.ID || a.ResName != cur.Name {
			ret = append(ret, Residue{ID: a.ResID, Name: a.ResName})
			cur = &ret[len(ret)-1]
		}
		if heavyOnly && !a.Heavy() {
			continue
		}
		cur.Atoms = append(cur.Atoms, i)
	}
	if !heavyOnly {
		return ret
	}
	filtered := ret[:0]
	for _, r := range ret {
		if len(r.Atoms) > 0 {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

//ReadGro reads a GROMACS .gro file, returning its topology and coordinates
//(converted to A) of its first structure.
func ReadGro(name string) (*Topology, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("ReadGro: %w", err)
	}
	defer f.Close()
	s := bufio.NewScanner(f)
	//title
	if !s.Scan() {
		return nil, groError(name, 1, "missing title")
	}
	if !s.Scan() {
		return nil, groError(name, 2, "missing atom count")
	}
	natoms, err := strconv.Atoi(strings.TrimSpace(s.Text()))
	if err != nil || natoms <= 0 {
		return nil, groError(name, 2, "can't read atom count from '"+s.Text()+"'")
	}
	T := &Topology{Atoms: make([]*Atom, 0, natoms), Coords: mat.NewDense(natoms, 3, nil)}
	for i := 0; i < natoms; i++ {
		if !s.Scan() {
			return nil, groError(name, i+3, fmt.Sprintf("file ends after %d of %d atoms", i, natoms))
		}
		at, coords, err := groAtomLine(s.Text())
		if err != nil {
			return nil, groError(name, i+3, err.Error())
		}
		T.Atoms = append(T.Atoms, at)
		T.Coords.SetRow(i, coords[:])
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("ReadGro: %w", err)
	}
	return T, nil
}

//groAtomLine parses a fixed-column atom line:
//residue number (5), residue name (5), atom name (5), atom number (5), x, y, z (8 each, nm).
func groAtomLine(line string) (*Atom, [3]float64, error) {
	var c [3]float64
	if len(line) < 44 {
		return nil, c, fmt.Errorf("atom line too short: '%s'", line)
	}
	resid, err := strconv.Atoi(strings.TrimSpace(line[0:5]))
	if err != nil {
		return nil, c, fmt.Errorf("can't read residue number: %w", err)
	}
	at := &Atom{
		ResID:   resid,
		ResName: strings.TrimSpace(line[5:10]),
		Name:    strings.TrimSpace(line[10:15]),
	}
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(line[20+8*i:28+8*i]), 64)
		if err != nil {
			return nil, c, fmt.Errorf("can't read coordinate %d: %w", i, err)
		}
		c[i] = v * 10 //nm to A
	}
	return at, c, nil
}

func groError(name string, line int, msg string) error {
	return fmt.Errorf("ReadGro: %s, line %d: %s", name, line, msg)
}
