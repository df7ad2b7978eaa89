/*
 * stf.go, part of gomsm.
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
	"bufio"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	msm "github.com/rmera/gomsm"
	"github.com/rmera/gomsm/internal/zio"
	"gonum.org/v1/gonum/mat"
)

const defaultPrec = 2

// codecFor returns the compression used for an STF file, from the last character of its name.
func codecFor(name string) zio.Codec {
	if name == "" {
		return zio.Zstd
	}
	switch strings.ToLower(name)[len(name)-1] {
	case 'l':
		return zio.LZW
	case 'z':
		return zio.Gzip
	case 'r':
		return zio.Flate
	default:
		return zio.Zstd
	}
}

//Write!

// StfW is a handle to write STF trajectories.
type StfW struct {
	f         *os.File
	h         io.WriteCloser
	b         *bufio.Writer
	natoms    int
	filename  string
	writeable bool
	prec      int
	mult      float64
}

// Close flushes and closes the trajectory. It can't be used after this call.
func (S *StfW) Close() error {
	if S == nil || !S.writeable {
		return nil
	}
	S.writeable = false
	err := S.b.Flush()
	if err2 := S.h.Close(); err == nil {
		err = err2
	}
	if err2 := S.f.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return Error{err.Error(), S.filename, []string{"Close"}, true}
	}
	return nil
}

// Len returns the number of atoms per frame.
func (S *StfW) Len() int {
	return S.natoms
}

//WNext writes coord (a Len()x3 matrix) as the next frame of the trajectory. If box
//is given, and has at least 9 elements, it is written as the box vectors of the frame.
func (S *StfW) WNext(coord *mat.Dense, box ...[]float64) error {
	if !S.writeable {
		return Error{TrajUnIniWrite, S.filename, []string{"WNext"}, true}
	}
	if coord == nil {
		return Error{NilCoordinates, S.filename, []string{"WNext"}, true}
	}
	if r, _ := coord.Dims(); r != S.natoms {
		return Error{fmt.Sprintf("%d coordinates given, but %d expected", r, S.natoms), S.filename, []string{"WNext"}, true}
	}
	for i := 0; i < S.natoms; i++ {
		fmt.Fprintf(S.b, "%d %d %d\n", S.encode(coord.At(i, 0)), S.encode(coord.At(i, 1)), S.encode(coord.At(i, 2)))
	}
	var err error
	if len(box) > 0 && len(box[0]) >= 9 {
		b := box[0]
		_, err = fmt.Fprintf(S.b, "* %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f %4.2f\n", b[0], b[1], b[2], b[3], b[4], b[5], b[6], b[7], b[8])
	} else {
		_, err = S.b.WriteString("*\n")
	}
	if err != nil {
		return Error{err.Error(), S.filename, []string{"WNext"}, true}
	}
	return nil
}

func (S *StfW) encode(v float64) int {
	return int(math.RoundToEven(v * S.mult))
}

//NewWriter creates the file name and returns a handle to write an STF trajectory
//with natoms atoms per frame to it. All the elements of header are written to the file's
//header. The "prec" key, if present, sets the precision.
func NewWriter(name string, natoms int, header map[string]string) (*StfW, error) {
	if natoms <= 0 {
		return nil, Error{fmt.Sprintf("invalid number of atoms %d", natoms), name, []string{"NewWriter"}, true}
	}
	S := &StfW{natoms: natoms, filename: name, prec: defaultPrec}
	if p, ok := header["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err == nil && prec > 0 {
			S.prec = prec
		} else {
			log.Printf("Invalid precision %q for trajectory %s. Will use the default", p, name)
		}
	}
	S.mult = math.Pow(10, float64(S.prec))
	var err error
	S.f, err = os.Create(name)
	if err != nil {
		return nil, Error{err.Error(), name, []string{"os.Create", "NewWriter"}, true}
	}
	S.h, err = zio.NewWriter(S.f, codecFor(name))
	if err != nil {
		S.f.Close()
		return nil, Error{"Can't prepare compression " + err.Error(), name, []string{"NewWriter"}, true}
	}
	S.b = bufio.NewWriter(S.h)
	//sorted, so the same header always gives the same file.
	keys := make([]string, 0, len(header)+1)
	for k := range header {
		if k != "prec" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	fmt.Fprintf(S.b, "prec=%d\n", S.prec)
	for _, k := range keys {
		fmt.Fprintf(S.b, "%s=%s\n", k, header[k])
	}
	fmt.Fprintf(S.b, "** %d\n", S.natoms)
	S.writeable = true
	return S, nil
}

//Read!

// StfR is a handle to read STF trajectories. It implements msm.Traj.
type StfR struct {
	f        *os.File
	dec      io.ReadCloser
	h        *bufio.Reader
	natoms   int
	filename string
	prec     int
	div      float64
	readable bool
}

//New opens an STF trajectory for reading, and returns a pointer
//to the handle, a map with the header (without the atom count)
//and error or nil.
func New(name string) (*StfR, map[string]string, error) {
	S := &StfR{filename: name, natoms: -1, prec: defaultPrec}
	var err error
	S.f, err = os.Open(name)
	if err != nil {
		return nil, nil, Error{err.Error(), name, []string{"os.Open", "New"}, true}
	}
	S.dec, err = zio.NewReader(bufio.NewReader(S.f), codecFor(name))
	if err != nil {
		S.f.Close()
		return nil, nil, Error{"Can't read header " + err.Error(), name, []string{"New"}, true}
	}
	S.h = bufio.NewReader(S.dec)
	m, err := S.readHeader()
	if err != nil {
		S.dec.Close()
		S.f.Close()
		return nil, nil, err
	}
	if p, ok := m["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err == nil && prec > 0 {
			S.prec = prec
		} else {
			log.Printf("Invalid precision %q for trajectory %s. Will assume the default", p, name)
		}
	}
	S.div = math.Pow(10, float64(S.prec))
	S.readable = true
	return S, m, nil
}

func (S *StfR) readHeader() (map[string]string, error) {
	m := make(map[string]string)
	for {
		str, err := S.h.ReadString('\n')
		if err != nil {
			return nil, Error{"Can't read header " + err.Error(), S.filename, []string{"readHeader"}, true}
		}
		str = strings.TrimSpace(str)
		if strings.HasPrefix(str, "**") {
			nat := strings.Fields(str)
			if len(nat) < 2 {
				return nil, Error{fmt.Sprintf("Can't read atom number from '%s'", str), S.filename, []string{"readHeader"}, true}
			}
			S.natoms, err = strconv.Atoi(nat[1])
			if err != nil || S.natoms <= 0 {
				return nil, Error{fmt.Sprintf("Can't read atom number from '%s'", nat[1]), S.filename, []string{"readHeader"}, true}
			}
			return m, nil
		}
		kv := strings.SplitN(str, "=", 2)
		if len(kv) != 2 {
			return nil, Error{"Malformed header line: " + str, S.filename, []string{"readHeader"}, true}
		}
		m[kv[0]] = kv[1]
	}
}

//Readable returns true if the handle is readable (if it is possible to call Next on it)
func (S *StfR) Readable() bool {
	return S.readable
}

// Len returns the number of atoms in each frame of the trajectory.
func (S *StfR) Len() int {
	return S.natoms
}

//Next puts in the given matrix (c) the coordinates for the next frame of the trajectory
//and, if given, and the information is present, puts the box vector information in box.
//If c is nil, the frame is read and checked, but discarded. At the end of the trajectory,
//an error implementing msm.LastFrameError is returned, and the trajectory is closed.
func (S *StfR) Next(c *mat.Dense, box ...[]float64) error {
	if !S.readable {
		return Error{TrajUnIniRead, S.filename, []string{"Next"}, true}
	}
	if c != nil {
		if r, cols := c.Dims(); r != S.natoms || cols != 3 {
			return Error{fmt.Sprintf("matrix of %dx%d given for a frame of %d atoms", r, cols, S.natoms), S.filename, []string{"Next"}, true}
		}
	}
	var temp [3]float64
	for i := 0; i < S.natoms; i++ {
		line, err := S.h.ReadString('\n')
		if err != nil {
			// EOF is only fine when reading the first atom.
			if err == io.EOF && i == 0 && line == "" {
				S.Close()
				return newlastFrameError(S.filename, "Next")
			}
			return Error{ReadError + ": " + err.Error(), S.filename, []string{"Next"}, true}
		}
		if err = S.decode(line, &temp); err != nil {
			return Error{err.Error(), S.filename, []string{"Next"}, true}
		}
		if c == nil {
			continue
		}
		c.SetRow(i, temp[:])
	}
	s, err := S.h.ReadString('\n')
	if err != nil && s == "" {
		return Error{"Can't read the frame termination mark " + err.Error(), S.filename, []string{"Next"}, true}
	}
	if len(s) == 0 || s[0] != '*' {
		return Error{WrongFormat + ": wrong number of atoms in frame", S.filename, []string{"Next"}, true}
	}
	if len(box) > 0 && len(box[0]) >= 9 {
		S.readBox(s, box[0])
	}
	return nil
}

//readBox puts the 9 box values in the frame terminator s into box. If they are
//missing or malformed, box is zeroed and the event logged, but no error is returned.
func (S *StfR) readBox(s string, box []float64) {
	fields := strings.Fields(s)
	if len(fields) < 10 { //the "*" and the 9 numbers
		log.Printf("Trajectory file %s does not contain (correct) box information: %s", S.filename, fields)
		return
	}
	for j, v := range fields[1:10] {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			log.Printf("Failed to read box in a frame from %s", S.filename)
			for i := range box[:9] {
				box[i] = 0
			}
			return
		}
		box[j] = f
	}
}

func (S *StfR) decode(str string, temp *[3]float64) error {
	s := strings.Fields(str)
	if len(s) != 3 {
		return fmt.Errorf("Ill formated coordinates line: %d fields: %s", len(s), str)
	}
	for i, v := range s {
		f, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("Can't parse coordinate %d (%s). Error: %s", i, v, err.Error())
		}
		temp[i] = float64(f) / S.div
	}
	return nil
}

//Close closes the object, and marks it as unreadable
func (S *StfR) Close() {
	if !S.readable {
		return
	}
	S.dec.Close()
	S.f.Close()
	S.readable = false
}

//Errors

//Error is the general structure for STF trajectory errors. It fullfills msm.Error and msm.TrajError
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("stf file %s error: %s", err.filename, err.message)
}

//Decorate Adds new information to the error
func (E Error) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

//FileName returns the file to which the failing trajectory was associated
func (err Error) FileName() string { return err.filename }

//Format returns the format of the file (always "stf") associated to the error
func (err Error) Format() string { return "stf" }

//Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

const (
	TrajUnIniRead  = "Traj object uninitialized to read"
	TrajUnIniWrite = "Traj object uninitialized to write"
	ReadError      = "Error reading frame"
	NilCoordinates = "Given nil coordinates"
	WrongFormat    = "Wrong format in the STF file or frame"
)

//lastFrameError implements msm.LastFrameError
type lastFrameError struct {
	deco     []string
	fileName string
}

//NormalLastFrameTermination does nothing
func (E *lastFrameError) NormalLastFrameTermination() {}

func (E *lastFrameError) FileName() string { return E.fileName }

func (E *lastFrameError) Error() string { return "EOF" }

func (E *lastFrameError) Critical() bool { return false }

func (E *lastFrameError) Format() string { return "stf" }

func (E *lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newlastFrameError(filename string, caller string) *lastFrameError {
	return &lastFrameError{fileName: filename, deco: []string{caller}}
}

var _ msm.Traj = (*StfR)(nil)
var _ msm.LastFrameError = (*lastFrameError)(nil)
