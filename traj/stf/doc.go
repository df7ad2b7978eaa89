/*
 * doc.go, part of gomsm.
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

/*
Package stf reads and writes the simple trajectory format (STF), the format in which
goMSM expects the molecular dynamics trajectories it featurizes.

An STF file is an ASCII file, normally compressed with z-standard. The
compression is chosen from the last character of the file name: 's', 'f' or
anything else means zstd, 'z' gzip, 'r' flate (raw deflate) and 'l' lzw.

The file starts with a header of key=value lines, ended by a line with "**", one or more
spaces and the number of atoms per frame. The precision of the coordinates is given
by the "prec" key (default 2).

After the header comes one line per atom, per frame, with the x, y and z coordinates in
Angstrom, multiplied by 10^prec and rounded to integers. Each frame ends with a line
starting with "*", optionally followed by the 9 numbers defining the simulation box.
*/
package stf
