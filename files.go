/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package chem

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	v3 "github.com/rmera/gorjmc/v3"
	"github.com/rmera/scu"
)

// PDB files store coordinates in A, while everything in this library is in nm.

// PDBWrite writes the topology mol with the coordinates coords (in nm) in PDB format to out.
// If a model number is given, the atoms are written in a MODEL/ENDMDL block, and the
// bonds and the END record are not written, so several models can go to the same stream.
func PDBWrite(out io.Writer, mol *Topology, coords *v3.Matrix, model ...int) error {
	if mol.Len() != coords.NVecs() {
		return NewError(fmt.Sprintf("%d atoms and %d coordinates", mol.Len(), coords.NVecs()), "PDBWrite")
	}
	w := bufio.NewWriter(out)
	if len(model) > 0 {
		fmt.Fprintf(w, "MODEL     %4d\n", model[0])
	} else {
		fmt.Fprint(w, "REMARK     WRITTEN WITH GORJMC\n")
	}
	var chainprev string
	if mol.Len() > 0 {
		chainprev = mol.Atoms[0].Chain //this is to know when the chain changes.
	}
	for i, at := range mol.Atoms {
		if at.Chain != chainprev {
			fmt.Fprintln(w, "TER")
			chainprev = at.Chain
		}
		first := "ATOM"
		if at.Het {
			first = "HETATM"
		}
		c := coords.Vec(i)
		name := at.Name
		//4 chars for the atom name are used when hydrogens are included.
		if len(name) < 4 {
			name = " " + name
		}
		if len(name) > 4 {
			return NewError(fmt.Sprintf("Atom name %s too long for the PDB format", at.Name), "PDBWrite")
		}
		chain := " "
		if at.Chain != "" {
			chain = at.Chain[:1]
		}
		_, err := fmt.Fprintf(w, "%-6s%5d %-4s %3s %1s%4d    %8.3f%8.3f%8.3f%6.2f%6.2f          %2s  \n", first, (i+1)%100000, name, at.MolName, chain,
			at.MolID%10000, c.X*Nm2A, c.Y*Nm2A, c.Z*Nm2A, 1.0, 0.0, at.Symbol)
		if err != nil {
			return NewError("Can't print PDB line", "PDBWrite", err)
		}
	}
	if len(model) > 0 {
		fmt.Fprint(w, "ENDMDL\n")
		return w.Flush()
	}
	for _, at := range mol.Atoms {
		if len(at.Bonds) == 0 {
			continue
		}
		fmt.Fprintf(w, "CONECT%5d", at.index+1)
		for _, n := range mol.BondedTo(at.index) {
			fmt.Fprintf(w, "%5d", n+1)
		}
		fmt.Fprint(w, "\n")
	}
	fmt.Fprint(w, "END\n")
	return w.Flush()
}

// PDBFileWrite writes the topology and coordinates to a file called pdbname.
func PDBFileWrite(pdbname string, mol *Topology, coords *v3.Matrix) error {
	out, err := os.Create(pdbname)
	if err != nil {
		return NewError("Unable to create file "+pdbname, "PDBFileWrite", err)
	}
	defer out.Close()
	return errDecorate(PDBWrite(out, mol, coords), "PDBFileWrite")
}

// SymbolFromName guesses the element from a PDB atom name. Two-letter
// elements are only considered for names that do not start like common
// protein atom names (CA, CD, HG, NE).
func SymbolFromName(name string) (string, error) {
	name = strings.TrimLeft(strings.TrimSpace(name), "0123456789")
	if len(name) == 0 {
		return "", NewError("Empty atom name", "SymbolFromName")
	}
	if len(name) >= 2 {
		two := name[:1] + strings.ToLower(name[1:2])
		if _, ok := symbolMass[two]; ok && name[:2] != "CA" && name[:2] != "HG" && name[:2] != "CD" && name[:2] != "NE" {
			return two, nil
		}
	}
	if _, ok := symbolMass[name[:1]]; ok {
		return name[:1], nil
	}
	return "", NewError("Can't guess the element for atom "+name, "SymbolFromName")
}

// PDBRead reads the first model of a PDB from in. CONECT records are used
// for the bonds, if present. Coordinates are returned in nm.
func PDBRead(in io.Reader) (mol *Molecule, err error) {
	top := NewTopology(0, 0)
	coords := make([]float64, 0, 300)
	serials := make(map[int]int)
	bonds := make([][2]int, 0, 300)
	defer func() {
		if r := recover(); r != nil {
			err = NewError(fmt.Sprintf("Malformed PDB: %v", r), "PDBRead")
		}
	}()
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "ENDMDL") {
			break
		}
		if strings.HasPrefix(line, "CONECT") {
			fields := line[6:]
			from := mustAtoi(fields[0:5])
			for k := 5; k+5 <= len(fields); k += 5 {
				if strings.TrimSpace(fields[k:k+5]) == "" {
					continue
				}
				bonds = append(bonds, [2]int{from, mustAtoi(fields[k : k+5])})
			}
			continue
		}
		if !strings.HasPrefix(line, "ATOM") && !strings.HasPrefix(line, "HETATM") {
			continue
		}
		at := new(Atom)
		at.Het = strings.HasPrefix(line, "HETATM")
		serial := mustAtoi(line[6:11])
		at.Name = strings.TrimSpace(line[12:16])
		at.MolName = strings.TrimSpace(line[17:20])
		at.Chain = strings.TrimSpace(line[21:22])
		at.MolID = mustAtoi(line[22:26])
		at.OldIndex = -1
		for _, s := range []string{line[30:38], line[38:46], line[46:54]} {
			coords = append(coords, mustParseFloat(s)*A2nm)
		}
		if len(line) >= 78 && strings.TrimSpace(line[76:78]) != "" {
			at.Symbol = strings.TrimSpace(line[76:78])
		} else {
			at.Symbol, err = SymbolFromName(at.Name)
			if err != nil {
				return nil, errDecorate(err, "PDBRead")
			}
		}
		at.Mass, _ = Mass(at.Symbol)
		at.ID = serial
		serials[serial] = top.AddAtom(at)
	}
	if err := scanner.Err(); err != nil {
		return nil, NewError("Error reading PDB", "PDBRead", err)
	}
	if top.Len() == 0 {
		return nil, NewError("No atoms found", "PDBRead")
	}
	for _, b := range bonds {
		i, ok1 := serials[b[0]]
		j, ok2 := serials[b[1]]
		if ok1 && ok2 && i != j {
			top.AddBond(i, j, 1)
		}
	}
	c, err := v3.NewMatrix(coords)
	if err != nil {
		return nil, NewError("Can't build coordinates", "PDBRead", err)
	}
	return NewMolecule(top, c)
}

func mustAtoi(s string) int {
	return scu.MustAtoi(strings.TrimSpace(s))
}

func mustParseFloat(s string) float64 {
	return scu.MustParseFloat(strings.TrimSpace(s))
}
