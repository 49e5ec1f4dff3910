// Package templates provides residue templates (atom names, elements, formal charges and
// intra-residue bonds) used to edit and build polymer topologies.
package templates

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"

	chem "github.com/rmera/gorjmc"
	"gopkg.in/yaml.v3"
)

//go:embed aminoacids.yaml
var aminoYAML []byte

// TemplateAtom is an atom of a residue template.
type TemplateAtom struct {
	Name   string
	Symbol string
	Formal int
}

// TemplateBond is a bond between two atoms of a template, given by name.
type TemplateBond struct {
	A, B  string
	Order float64
}

// Template describes one residue.
type Template struct {
	Name    string
	Residue string //residue name, without the terminal prefix.
	Atoms   []TemplateAtom
	Bonds   []TemplateBond
	Cap     bool
	index   map[string]int
}

// ResidueName returns the name of the residues built from the template.
func (T *Template) ResidueName() string {
	if T.Residue != "" {
		return T.Residue
	}
	return T.Name
}

// Index returns the position of the atom called name in the template, or -1.
func (T *Template) Index(name string) int {
	if i, ok := T.index[name]; ok {
		return i
	}
	return -1
}

// Has returns true if the template has an atom called name.
func (T *Template) Has(name string) bool {
	_, ok := T.index[name]
	return ok
}

// Bond returns the bond between the atoms called a and b, if the template has it.
func (T *Template) Bond(a, b string) (TemplateBond, bool) {
	for _, v := range T.Bonds {
		if (v.A == a && v.B == b) || (v.A == b && v.B == a) {
			return v, true
		}
	}
	return TemplateBond{}, false
}

func (T *Template) reindex() {
	T.index = make(map[string]int, len(T.Atoms))
	for i, v := range T.Atoms {
		T.index[v.Name] = i
	}
}

func (T *Template) copy(name string) *Template {
	ret := &Template{Name: name, Residue: T.ResidueName(), Cap: T.Cap}
	ret.Atoms = append([]TemplateAtom(nil), T.Atoms...)
	ret.Bonds = append([]TemplateBond(nil), T.Bonds...)
	ret.reindex()
	return ret
}

// Library is a set of templates indexed by residue name.
type Library struct {
	templates map[string]*Template
}

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	return &Library{templates: make(map[string]*Template)}
}

var (
	defaultLib  *Library
	defaultErr  error
	defaultOnce sync.Once
)

// AminoAcids returns the library of amino acid templates, with N- and C-terminal
// variants (prefixed with N and C) and the ACE and NME caps. The library is shared
// and must not be modified.
func AminoAcids() *Library {
	defaultOnce.Do(func() {
		defaultLib, defaultErr = Load(bytes.NewReader(aminoYAML))
	})
	if defaultErr != nil {
		panic("templates: embedded amino acid library is broken: " + defaultErr.Error())
	}
	return defaultLib
}

type yamlTemplate struct {
	Atoms   []string       `yaml:"atoms"`
	Charges map[string]int `yaml:"charges"`
	Bonds   [][]any        `yaml:"bonds"`
	Cap     bool           `yaml:"cap"`
}

// Load reads templates from a YAML document mapping residue names to templates, and
// adds the terminal variants for every template that is not a cap.
func Load(r io.Reader) (*Library, error) {
	raw := make(map[string]yamlTemplate)
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, chem.NewError("Can't decode templates", "templates.Load", err)
	}
	L := NewLibrary()
	for _, name := range sortedNames(raw) {
		t, err := fromYAML(name, raw[name])
		if err != nil {
			return nil, err
		}
		L.Add(t)
		if !t.Cap {
			L.Add(NTerminal(t))
			L.Add(CTerminal(t))
		}
	}
	return L, nil
}

func sortedNames[V any](m map[string]V) []string {
	ret := make([]string, 0, len(m))
	for k := range m {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

func fromYAML(name string, y yamlTemplate) (*Template, error) {
	t := &Template{Name: name, Residue: name, Cap: y.Cap}
	for _, a := range y.Atoms {
		t.Atoms = append(t.Atoms, TemplateAtom{Name: a, Symbol: a[:1], Formal: y.Charges[a]})
	}
	t.reindex()
	for k := range y.Charges {
		if !t.Has(k) {
			return nil, chem.NewError(fmt.Sprintf("Charge given for atom %s, not in residue %s", k, name), "templates.fromYAML")
		}
	}
	for _, b := range y.Bonds {
		if len(b) < 2 || len(b) > 3 {
			return nil, chem.NewError(fmt.Sprintf("Malformed bond %v in residue %s", b, name), "templates.fromYAML")
		}
		bond := TemplateBond{A: fmt.Sprint(b[0]), B: fmt.Sprint(b[1]), Order: 1}
		if len(b) == 3 {
			o, err := strconv.ParseFloat(fmt.Sprint(b[2]), 64)
			if err != nil {
				return nil, chem.NewError(fmt.Sprintf("Malformed bond order in %v, residue %s", b, name), "templates.fromYAML", err)
			}
			bond.Order = o
		}
		if !t.Has(bond.A) || !t.Has(bond.B) {
			return nil, chem.NewError(fmt.Sprintf("Bond %s-%s in residue %s uses unknown atoms", bond.A, bond.B, name), "templates.fromYAML")
		}
		t.Bonds = append(t.Bonds, bond)
	}
	return t, nil
}

// NTerminal returns the N-terminal variant of t: the amide hydrogen is replaced by
// H1, H2 and H3 on a charged N. Residues with no amide hydrogen (PRO) get H2 and H3.
func NTerminal(t *Template) *Template {
	ret := t.copy("N" + t.Name)
	if !ret.Has("N") {
		return ret
	}
	names := []string{"H2", "H3"}
	if ret.Has("H") {
		names = []string{"H1", "H2", "H3"}
		atoms := ret.Atoms[:0]
		for _, a := range ret.Atoms {
			if a.Name != "H" {
				atoms = append(atoms, a)
			}
		}
		ret.Atoms = atoms
		bonds := ret.Bonds[:0]
		for _, b := range ret.Bonds {
			if b.A != "H" && b.B != "H" {
				bonds = append(bonds, b)
			}
		}
		ret.Bonds = bonds
	}
	ret.reindex()
	//the new hydrogens go right after N
	n := ret.Index("N")
	extra := make([]TemplateAtom, 0, len(names))
	for _, h := range names {
		extra = append(extra, TemplateAtom{Name: h, Symbol: "H"})
		ret.Bonds = append(ret.Bonds, TemplateBond{A: "N", B: h, Order: 1})
	}
	ret.Atoms = append(ret.Atoms[:n+1], append(extra, ret.Atoms[n+1:]...)...)
	ret.Atoms[n].Formal = 1
	ret.reindex()
	return ret
}

// CTerminal returns the C-terminal variant of t, with a charged carboxylate (OXT).
func CTerminal(t *Template) *Template {
	ret := t.copy("C" + t.Name)
	if !ret.Has("C") || !ret.Has("O") {
		return ret
	}
	ret.Atoms = append(ret.Atoms, TemplateAtom{Name: "OXT", Symbol: "O", Formal: -1})
	ret.Bonds = append(ret.Bonds, TemplateBond{A: "C", B: "OXT", Order: 1})
	ret.reindex()
	return ret
}

// Add adds t to the library, replacing any template with the same name.
func (L *Library) Add(t *Template) {
	if t.index == nil {
		t.reindex()
	}
	L.templates[t.Name] = t
}

// Template returns the template called name.
func (L *Library) Template(name string) (*Template, bool) {
	t, ok := L.templates[name]
	return t, ok
}

// Lookup returns the template for a residue, preferring the N-terminal variant for
// the first residue of a chain and the C-terminal one for the last, and falling back
// to the bare name.
func (L *Library) Lookup(name string, first, last bool) (*Template, error) {
	if first {
		if t, ok := L.templates["N"+name]; ok {
			return t, nil
		}
	}
	if last {
		if t, ok := L.templates["C"+name]; ok {
			return t, nil
		}
	}
	if t, ok := L.templates[name]; ok {
		return t, nil
	}
	return nil, chem.NewError(fmt.Sprintf("No template for residue %s", name), "Lookup")
}

// Names returns the sorted names of the templates in the library.
func (L *Library) Names() []string {
	return sortedNames(L.templates)
}
