/*
 * dcd.go, part of gomsm.
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

//Package dcd reads and writes CHARMM/NAMD binary (DCD) trajectories. X-plor DCDs and
//trajectories with fixed atoms are not supported. Compressed trajectories (.dcd.gz,
//.dcd.zst, .dcd.lzw) can be read, but not written.
package dcd

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	msm "github.com/rmera/gomsm"
	"github.com/rmera/gomsm/internal/zio"
	"gonum.org/v1/gonum/mat"
)

const titleLen int32 = 80

// Unit cell block: 6 float64 values.
const cellBytes int32 = 48

//DCD is a CHARMM/NAMD trajectory opened for reading.
type DCD struct {
	natoms   int32
	frames   int32 //as declared in the header. NAMD doesn't always update it.
	readable bool
	filename string
	unitcell bool //frames may carry a unit cell block
	fourdim  bool
	f        *os.File
	dec      io.ReadCloser
	r        *bufio.Reader
	endian   binary.ByteOrder
	fields   [3][]float32
	cell     [6]float64
}

// New opens the DCD file name for reading.
func New(name string) (*DCD, error) {
	D := &DCD{filename: name}
	var err error
	D.f, err = os.Open(name)
	if err != nil {
		return nil, newError(err.Error(), name, "os.Open", "New")
	}
	D.dec, err = zio.NewReader(bufio.NewReader(D.f), zio.FromExt(name))
	if err != nil {
		D.f.Close()
		return nil, newError(err.Error(), name, "New")
	}
	D.r = bufio.NewReader(D.dec)
	if err = D.readHeader(); err != nil {
		D.dec.Close()
		D.f.Close()
		return nil, msm.ErrDecorate(err, "New")
	}
	for i := range D.fields {
		D.fields[i] = make([]float32, D.natoms)
	}
	D.readable = true
	return D, nil
}

//readHeader reads the three header records: the control record (84 bytes),
//the title and the number of atoms. Endianness is detected from the size
//of the first record.
func (D *DCD) readHeader() error {
	var raw [4]byte
	if _, err := io.ReadFull(D.r, raw[:]); err != nil {
		return newError(err.Error(), D.filename, "readHeader")
	}
	switch {
	case binary.LittleEndian.Uint32(raw[:]) == 84:
		D.endian = binary.LittleEndian
	case binary.BigEndian.Uint32(raw[:]) == 84:
		D.endian = binary.BigEndian
	default:
		return newError(WrongFormat+": first record is not 84 bytes", D.filename, "readHeader")
	}
	var control [84]byte
	if _, err := io.ReadFull(D.r, control[:]); err != nil {
		return newError(err.Error(), D.filename, "readHeader")
	}
	if string(control[:4]) != "CORD" {
		return newError(WrongFormat+": wrong magic number", D.filename, "readHeader")
	}
	icntrl := func(i int) int32 {
		return int32(D.endian.Uint32(control[4+4*i:]))
	}
	D.frames = icntrl(0)
	//X-plor sets the last control integer to zero, CHARMM to its version number.
	if icntrl(19) == 0 {
		return newError("X-plor DCD not supported", D.filename, "readHeader")
	}
	if icntrl(8) != 0 {
		return newError("fixed atoms not supported", D.filename, "readHeader")
	}
	D.unitcell = icntrl(10) != 0
	D.fourdim = icntrl(11) == 1
	if err := D.expect(84, "readHeader"); err != nil {
		return err
	}
	//title
	size, err := D.readInt32()
	if err != nil {
		return newError(err.Error(), D.filename, "readHeader")
	}
	ntitle, err := D.readInt32()
	if err != nil {
		return newError(err.Error(), D.filename, "readHeader")
	}
	if ntitle < 0 || size != 4+titleLen*ntitle {
		return newError(fmt.Sprintf("%s: title record of %d bytes for %d lines", WrongFormat, size, ntitle), D.filename, "readHeader")
	}
	if _, err := D.r.Discard(int(titleLen * ntitle)); err != nil {
		return newError(err.Error(), D.filename, "readHeader")
	}
	if err := D.expect(size, "readHeader"); err != nil {
		return err
	}
	//atoms
	if err := D.expect(4, "readHeader"); err != nil {
		return err
	}
	if D.natoms, err = D.readInt32(); err != nil {
		return newError(err.Error(), D.filename, "readHeader")
	}
	if D.natoms <= 0 {
		return newError(fmt.Sprintf("invalid number of atoms %d", D.natoms), D.filename, "readHeader")
	}
	return D.expect(4, "readHeader")
}

func (D *DCD) readInt32() (int32, error) {
	var v int32
	err := binary.Read(D.r, D.endian, &v)
	return v, err
}

// expect reads an int32 record marker and checks that it is v.
func (D *DCD) expect(v int32, caller string) error {
	got, err := D.readInt32()
	if err != nil {
		return newError(err.Error(), D.filename, caller)
	}
	if got != v {
		return newError(fmt.Sprintf("%s: record marker %d, expected %d", WrongFormat, got, v), D.filename, caller)
	}
	return nil
}

// Readable returns true if frames can still be read from the trajectory.
func (D *DCD) Readable() bool {
	return D.readable
}

// Len returns the number of atoms per frame.
func (D *DCD) Len() int {
	return int(D.natoms)
}

//Frames returns the number of frames declared in the header, which might be
//wrong for files written by programs that don't update it.
func (D *DCD) Frames() int {
	return int(D.frames)
}

//Next reads the next frame into c (or discards it, if c is nil). If box is given
//with room for at least 6 values, and the frame has a unit cell, the cell is put there
//as a, gamma, b, beta, alpha, c (the order in the file). At the end of the trajectory,
//an error implementing msm.LastFrameError is returned, and the trajectory is closed.
func (D *DCD) Next(c *mat.Dense, box ...[]float64) error {
	if !D.readable {
		return newError(TrajUnIniRead, D.filename, "Next")
	}
	if c != nil {
		if r, cols := c.Dims(); r != int(D.natoms) || cols != 3 {
			return newError(fmt.Sprintf("matrix of %dx%d given for a frame of %d atoms", r, cols, D.natoms), D.filename, "Next")
		}
	}
	hascell, err := D.nextRaw()
	if errors.Is(err, io.EOF) {
		D.Close()
		return newlastFrameError(D.filename, "Next")
	}
	if err != nil {
		return msm.ErrDecorate(err, "Next")
	}
	if hascell && len(box) > 0 && len(box[0]) >= 6 {
		copy(box[0], D.cell[:])
	}
	if c == nil {
		return nil
	}
	for i := 0; i < int(D.natoms); i++ {
		c.Set(i, 0, float64(D.fields[0][i]))
		c.Set(i, 1, float64(D.fields[1][i]))
		c.Set(i, 2, float64(D.fields[2][i]))
	}
	return nil
}

//nextRaw reads a frame into D.fields, and its unit cell, if present, into D.cell.
//It returns io.EOF only if the file ends cleanly before the frame.
func (D *DCD) nextRaw() (bool, error) {
	natoms4 := 4 * D.natoms
	blocksize, err := D.readInt32()
	if err == io.EOF {
		return false, io.EOF
	}
	if err != nil {
		return false, newError(ReadError+": "+err.Error(), D.filename, "nextRaw")
	}
	hascell := false
	//Not all frames of some trajectories have the cell block even if the header says so,
	//so the size of the block is what tells whether this is the cell or the X coordinates.
	if D.unitcell && blocksize == cellBytes && blocksize != natoms4 {
		var cell [6]float64
		if err := binary.Read(D.r, D.endian, &cell); err != nil {
			return false, newError(ReadError+": "+err.Error(), D.filename, "nextRaw")
		}
		if err := D.expect(cellBytes, "nextRaw"); err != nil {
			return false, err
		}
		D.cell = cell
		hascell = true
		blocksize = 0
	}
	for k := 0; k < 3; k++ {
		if blocksize == 0 || k > 0 {
			if blocksize, err = D.readInt32(); err != nil {
				return false, newError(ReadError+": "+err.Error(), D.filename, "nextRaw")
			}
		}
		if blocksize != natoms4 {
			return false, newError(fmt.Sprintf("%s: coordinate block of %d bytes for %d atoms", WrongFormat, blocksize, D.natoms), D.filename, "nextRaw")
		}
		if err := binary.Read(D.r, D.endian, D.fields[k]); err != nil {
			return false, newError(ReadError+": "+err.Error(), D.filename, "nextRaw")
		}
		if err := D.expect(blocksize, "nextRaw"); err != nil {
			return false, err
		}
	}
	//The 4th dimension is skipped. It is apparently missing from the last frame.
	if D.fourdim {
		size, err := D.readInt32()
		if err == io.EOF {
			return hascell, nil
		}
		if err != nil {
			return false, newError(ReadError+": "+err.Error(), D.filename, "nextRaw")
		}
		if _, err := D.r.Discard(int(size)); err != nil {
			return false, newError(ReadError+": "+err.Error(), D.filename, "nextRaw")
		}
		if err := D.expect(size, "nextRaw"); err != nil {
			return false, err
		}
	}
	return hascell, nil
}

// Close closes the trajectory, and marks it as unreadable.
func (D *DCD) Close() {
	if !D.readable {
		return
	}
	D.dec.Close()
	D.f.Close()
	D.readable = false
}

//Errors

//Error is the general structure for DCD trajectory errors. It fullfills msm.Error and msm.TrajError
type Error struct {
	message  string
	filename string
	deco     []string
}

func newError(message, filename string, deco ...string) *Error {
	return &Error{message: message, filename: filename, deco: deco}
}

func (err *Error) Error() string {
	return fmt.Sprintf("dcd file %s error: %s", err.filename, err.message)
}

// Decorate adds new information to the error.
func (err *Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

func (err *Error) FileName() string { return err.filename }

func (err *Error) Format() string { return "dcd" }

// Critical always returns true, the only non-critical condition is the end of the trajectory.
func (err *Error) Critical() bool { return true }

const (
	TrajUnIniRead  = "Traj object uninitialized to read"
	TrajUnIniWrite = "Traj object uninitialized to write"
	ReadError      = "Error reading frame"
	WrongFormat    = "Wrong format in the DCD file"
)

type lastFrameError struct {
	deco     []string
	fileName string
}

func (E *lastFrameError) NormalLastFrameTermination() {}

func (E *lastFrameError) FileName() string { return E.fileName }

func (E *lastFrameError) Error() string { return "EOF" }

func (E *lastFrameError) Critical() bool { return false }

func (E *lastFrameError) Format() string { return "dcd" }

func (E *lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newlastFrameError(filename string, caller string) *lastFrameError {
	return &lastFrameError{fileName: filename, deco: []string{caller}}
}

var _ msm.Traj = (*DCD)(nil)
var _ msm.LastFrameError = (*lastFrameError)(nil)
var _ msm.TrajError = (*Error)(nil)
