/*
 * doc.go, part of gorjmc.
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
 */

// Package stf implements the simple table format, used to store the diagnostic
// records of geometry proposals (the internal coordinates of each placement and its
// log-probabilities, and the growth orders). A Writer fulfills geometry.Storage.
package stf

/******************** Format Specification   ***************************************************

An STF file has the extension stf, and it is compressed with z-standard (zstd). Files
with names ending in 'z' are gzip-compressed, and files ending in 'l' are compressed with lzw,
but those are not recommended.

A STF file may only contain ASCII symbols.

A STF file has a "header" starting in the first line, and ending with a line that starts with the
characters "**". Each line of the header is a pair key=value. The header always contains
the key "id", with a UUID that identifies the file, and the key "prec", with the number of
significant digits used for the values (-1 means as many as needed to recover the exact
float64 value).

After the header, the file contains tables. A table starts with a line
">" name iteration rows columns
where name can't contain whitespace, and iteration, rows and columns are integers. Then follow
"rows" lines, each with "columns" floating-point numbers separated by spaces, and then a line
starting with the character "*".

The "**" sequence may only be used as a header termination, and ">" only to start a table.

***************************************************************************************************/
