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
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

/*
Package chem is the main package of gorjmc. It provides the atom, bond, residue and topology
structures shared by the proposal machinery, element data, bond orders and hybridization,
some geometric helpers and PDB input/output.

	**gorjmc packages**

	proposal: TopologyProposal, the transformation between two chemical states, and the
	engines that propose them: point mutations and peptide libraries for polymers, and
	sets of small molecules given as SMILES.

	geometry: the engine that places the atoms that are new in a proposal, one at a time,
	from bond, angle and torsion distributions derived from the force field, and computes
	the log-probability of the placements (and of the reverse ones).

	growth: a copy of a force field System restricted to the atoms already placed.

	ff: simple force field Systems, a generic parameter generator and a Gromacs itp reader.

	smiles, mcs, templates, chemgraph: SMILES parsing, canonicalization and 3D embedding,
	maximum common substructure atom maps, residue templates and the molecular graph.

	stf, histo, chemplot: storage, histograms and plots of the records of geometry proposals.

All lengths are in nm, angles in radians, energies in kJ/mol and masses in amu.

Coordinates are kept in v3.Matrix, an Nx3 matrix based on gonum's mat.Dense. Each row
represents one point in space.
*/
package chem
