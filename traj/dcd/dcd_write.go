/*
 * dcd_write.go, part of gomsm.
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

package dcd

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
)

// Offset of the frame count in the file: after the 84 record marker and "CORD".
const framesOffset int64 = 8

//DCDW is a CHARMM trajectory opened for writing, always little-endian.
//The frame count in the header is updated on Close.
type DCDW struct {
	natoms   int32
	frames   int32
	unitcell bool
	writable bool
	filename string
	f        *os.File
	w        *bufio.Writer
	fields   [3][]float32
}

//NewWriter creates the DCD file name for frames of natoms atoms. If unitcell is
//true, every frame carries a unit cell block.
func NewWriter(name string, natoms int, unitcell bool) (*DCDW, error) {
	if natoms <= 0 {
		return nil, newError(fmt.Sprintf("invalid number of atoms %d", natoms), name, "NewWriter")
	}
	D := &DCDW{natoms: int32(natoms), unitcell: unitcell, filename: name}
	var err error
	D.f, err = os.Create(name)
	if err != nil {
		return nil, newError(err.Error(), name, "os.Create", "NewWriter")
	}
	D.w = bufio.NewWriter(D.f)
	if err = D.writeHeader(); err != nil {
		D.f.Close()
		return nil, err
	}
	for i := range D.fields {
		D.fields[i] = make([]float32, natoms)
	}
	D.writable = true
	return D, nil
}

func (D *DCDW) put(v ...any) error {
	for _, x := range v {
		if err := binary.Write(D.w, binary.LittleEndian, x); err != nil {
			return newError(err.Error(), D.filename, "binary.Write")
		}
	}
	return nil
}

func (D *DCDW) writeHeader() error {
	var icntrl [20]int32
	icntrl[2] = 1 //step between frames
	if D.unitcell {
		icntrl[10] = 1
	}
	icntrl[19] = 24 //CHARMM version
	control := make([]any, 0, 24)
	control = append(control, int32(84), []byte("CORD"))
	for i, v := range icntrl {
		if i == 9 {
			control = append(control, float32(1)) //time step
			continue
		}
		control = append(control, v)
	}
	control = append(control, int32(84))
	if err := D.put(control...); err != nil {
		return err
	}
	title := make([]byte, titleLen)
	copy(title, "Written by goMSM")
	if err := D.put(4+titleLen, int32(1), title, 4+titleLen); err != nil {
		return err
	}
	return D.put(int32(4), D.natoms, int32(4))
}

// Len returns the number of atoms per frame.
func (D *DCDW) Len() int {
	return int(D.natoms)
}

//WNext writes the next frame. If the trajectory has unit cells, box[0] must contain
//the 6 cell values (a, gamma, b, beta, alpha, c). Otherwise, box is ignored.
func (D *DCDW) WNext(coord *mat.Dense, box ...[]float64) error {
	if !D.writable {
		return newError(TrajUnIniWrite, D.filename, "WNext")
	}
	if coord == nil {
		return newError("got nil coordinates", D.filename, "WNext")
	}
	if r, c := coord.Dims(); int32(r) != D.natoms || c != 3 {
		return newError(fmt.Sprintf("%dx%d coordinates given for %d atoms", r, c, D.natoms), D.filename, "WNext")
	}
	if D.unitcell {
		if len(box) == 0 || len(box[0]) < 6 {
			return newError("unit cell required", D.filename, "WNext")
		}
		var cell [6]float64
		copy(cell[:], box[0])
		if err := D.put(cellBytes, cell, cellBytes); err != nil {
			return err
		}
	}
	for i := 0; i < int(D.natoms); i++ {
		D.fields[0][i] = float32(coord.At(i, 0))
		D.fields[1][i] = float32(coord.At(i, 1))
		D.fields[2][i] = float32(coord.At(i, 2))
	}
	size := 4 * D.natoms
	for _, f := range D.fields {
		if err := D.put(size, f, size); err != nil {
			return err
		}
	}
	D.frames++
	return nil
}

// Close writes the frame count and closes the file.
func (D *DCDW) Close() error {
	if !D.writable {
		return nil
	}
	D.writable = false
	err := D.w.Flush()
	if err == nil {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(D.frames))
		_, err = D.f.WriteAt(b[:], framesOffset)
	}
	if err2 := D.f.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return newError(err.Error(), D.filename, "Close")
	}
	return nil
}
