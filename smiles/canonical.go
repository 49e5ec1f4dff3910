package smiles

import (
	"slices"
	"sort"
	"strconv"
	"strings"

	chem "github.com/rmera/gorjmc"
)

// Canonical returns the canonical SMILES for the SMILES string s.
func Canonical(s string) (string, error) {
	M, err := Parse(s)
	if err != nil {
		return "", chem.ErrDecorate(err, "Canonical")
	}
	return M.Canonical(), nil
}

// invariant returns the initial atom invariant used for canonical ranking.
func (M *Molecule) invariant(i int) []int {
	a := M.Atoms[i]
	arom := 0
	if a.Aromatic {
		arom = 1
	}
	return []int{len(M.adj[i]), chem.AtomicNumber(a.Symbol), a.Hs, a.Formal + 8, arom}
}

func bondCode(o float64) int {
	if o == 1.5 {
		return 4
	}
	return int(o)
}

// denseRanks assigns to each element of keys its position among the distinct keys, sorted.
func denseRanks(keys [][]int) ([]int, int) {
	idx := make([]int, len(keys))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return slices.Compare(keys[idx[a]], keys[idx[b]]) < 0 })
	ranks := make([]int, len(keys))
	r := 0
	for n, i := range idx {
		if n > 0 && slices.Compare(keys[idx[n-1]], keys[i]) != 0 {
			r++
		}
		ranks[i] = r
	}
	return ranks, r + 1
}

// refine iterates the ranks with the ranks of the neighbors until the number of classes
// does not change.
func (M *Molecule) refine(ranks []int, nclasses int) ([]int, int) {
	for {
		keys := make([][]int, len(M.Atoms))
		for i := range M.Atoms {
			neigh := make([]int, 0, len(M.adj[i]))
			for _, j := range M.adj[i] {
				neigh = append(neigh, ranks[j]*8+bondCode(M.bond(i, j).Order))
			}
			sort.Ints(neigh)
			keys[i] = append([]int{ranks[i]}, neigh...)
		}
		newranks, n := denseRanks(keys)
		if n == nclasses {
			return newranks, n
		}
		ranks, nclasses = newranks, n
	}
}

// Ranks returns a canonical numbering of the atoms of the molecule: equivalent molecules
// get equivalent numberings, up to symmetry.
func (M *Molecule) Ranks() []int {
	out := make([][]int, 0, 1)
	M.breakTies(M.classes(), false, 1, &out)
	return out[0]
}

// classes returns the ranks of the atoms refined from their invariants, with
// symmetry-equivalent atoms sharing a rank.
func (M *Molecule) classes() []int {
	keys := make([][]int, len(M.Atoms))
	for i := range keys {
		keys[i] = M.invariant(i)
	}
	ranks, nclasses := denseRanks(keys)
	ranks, _ = M.refine(ranks, nclasses)
	return ranks
}

// breakTies breaks the lowest tie in favor of one of its atoms, refines the ranks,
// and repeats until no ties are left, appending the result to out. If all is true, every
// atom of each tie is tried in turn, until out has limit numberings.
func (M *Molecule) breakTies(ranks []int, all bool, limit int, out *[][]int) {
	n := len(ranks)
	count := make(map[int]int)
	for _, r := range ranks {
		count[r]++
	}
	if len(count) == n {
		*out = append(*out, ranks)
		return
	}
	tied := -1
	for r := 0; r < len(count); r++ {
		if count[r] > 1 {
			tied = r
			break
		}
	}
	for chosen, r := range ranks {
		if r != tied {
			continue
		}
		keys := make([][]int, n)
		for i := range keys {
			keys[i] = []int{ranks[i] * 2}
		}
		keys[chosen][0]--
		next, nclasses := denseRanks(keys)
		next, _ = M.refine(next, nclasses)
		M.breakTies(next, all, limit, out)
		if !all || len(*out) >= limit {
			return
		}
	}
}

// maxStereoNumberings limits the numberings compared when writing a molecule with stereocenters.
const maxStereoNumberings = 256

// stereo holds the stereo elements of a molecule that are written.
type stereo struct {
	chiral map[int]bool
	bonds  []*Bond
}

// activeStereo returns the stereocenters and stereo double bonds of the molecule whose
// neighbors are not symmetry-equivalent, or nil if there are none.
func (M *Molecule) activeStereo() *stereo {
	var classes []int
	distinct := func(list []int, skip int) bool {
		if classes == nil {
			classes = M.classes()
		}
		seen := make(map[int]bool, len(list))
		for _, j := range list {
			if j == skip {
				continue
			}
			if seen[classes[j]] {
				return false
			}
			seen[classes[j]] = true
		}
		return true
	}
	S := &stereo{chiral: make(map[int]bool)}
	for i, a := range M.Atoms {
		if a.chiral != 0 && distinct(M.adj[i], -1) {
			S.chiral[i] = true
		}
	}
	for _, b := range M.Bonds {
		if b.stereo == 0 || M.Atoms[b.A].Hs > 1 || M.Atoms[b.B].Hs > 1 {
			continue
		}
		if distinct(M.adj[b.A], b.B) && distinct(M.adj[b.B], b.A) {
			S.bonds = append(S.bonds, b)
		}
	}
	if len(S.chiral) == 0 && len(S.bonds) == 0 {
		return nil
	}
	return S
}

// Canonical returns the canonical SMILES of the molecule, with its stereochemistry.
// Aromatic atoms are written in lowercase, and hydrogens are implicit whenever possible.
func (M *Molecule) Canonical() string {
	if len(M.Atoms) == 0 {
		return ""
	}
	st := M.activeStereo()
	if st == nil {
		return M.write(M.Ranks(), nil)
	}
	//symmetric numberings can give different stereo marks, the smallest string is taken.
	out := make([][]int, 0, 2)
	M.breakTies(M.classes(), true, maxStereoNumberings, &out)
	best := ""
	for _, r := range out {
		if s := M.write(r, st); best == "" || s < best {
			best = s
		}
	}
	return best
}

// CanonicalGraph returns the canonical SMILES of the molecule without stereochemistry.
func (M *Molecule) CanonicalGraph() string {
	if len(M.Atoms) == 0 {
		return ""
	}
	return M.write(M.Ranks(), nil)
}

// CanonicalGraph returns the canonical SMILES, without stereochemistry, for the SMILES string s.
func CanonicalGraph(s string) (string, error) {
	M, err := Parse(s)
	if err != nil {
		return "", chem.ErrDecorate(err, "CanonicalGraph")
	}
	return M.CanonicalGraph(), nil
}

func pair(i, j int) [2]int {
	if i > j {
		return [2]int{j, i}
	}
	return [2]int{i, j}
}

// write returns the SMILES for the numbering ranks, with the stereo elements in st.
func (M *Molecule) write(ranks []int, st *stereo) string {
	byRank := func(list []int) []int {
		l := append([]int(nil), list...)
		sort.Slice(l, func(a, b int) bool { return ranks[l[a]] < ranks[l[b]] })
		return l
	}
	n := len(M.Atoms)
	visited := make([]bool, n)
	onstack := make([]bool, n)
	children := make([][]int, n)
	opens := make([][]int, n)  //ring bonds opened at each atom (other end)
	closes := make([][]int, n) //ring bonds closed at each atom (other end)
	var tree func(i, parent int)
	tree = func(i, parent int) {
		visited[i], onstack[i] = true, true
		for _, j := range byRank(M.adj[i]) {
			if j == parent {
				continue
			}
			if visited[j] {
				if onstack[j] {
					opens[j] = append(opens[j], i)
					closes[i] = append(closes[i], j)
				}
				continue
			}
			children[i] = append(children[i], j)
			tree(j, i)
		}
		onstack[i] = false
	}
	starts := make([]int, 0, 1)
	for _, i := range byRank(seq(n)) {
		if !visited[i] {
			starts = append(starts, i)
			tree(i, -1)
		}
	}
	var marks map[[2]int]byte
	if st != nil && len(st.bonds) > 0 {
		marks = M.bondMarks(st, starts, children, opens)
	}
	var b strings.Builder
	digits := make(map[[2]int]int)
	inuse := make(map[int]bool)
	var write func(i, parent int)
	write = func(i, parent int) {
		chir := ""
		if st != nil && st.chiral[i] {
			chir = M.chirality(i, parent, closes[i], byRank(opens[i]), children[i])
		}
		b.WriteString(M.atomString(i, chir))
		for _, j := range closes[i] {
			d := digits[[2]int{j, i}]
			b.WriteString(ringDigit(d))
			delete(inuse, d)
		}
		for _, j := range byRank(opens[i]) {
			d := 1
			for inuse[d] {
				d++
			}
			inuse[d] = true
			digits[[2]int{i, j}] = d
			b.WriteString(M.bondString(i, j, marks))
			b.WriteString(ringDigit(d))
		}
		for k, j := range children[i] {
			last := k == len(children[i])-1
			if !last {
				b.WriteByte('(')
			}
			b.WriteString(M.bondString(i, j, marks))
			write(j, i)
			if !last {
				b.WriteByte(')')
			}
		}
	}
	for k, s := range starts {
		if k > 0 {
			b.WriteByte('.')
		}
		write(s, -1)
	}
	return b.String()
}

// chirality returns the chirality mark of atom i for the order in which its neighbors
// are written: parent, hydrogen, ring closures and branches.
func (M *Molecule) chirality(i, parent int, closes, opens, children []int) string {
	out := make([]int, 0, 4)
	if parent >= 0 {
		out = append(out, parent)
	}
	if M.Atoms[i].Hs > 0 {
		out = append(out, -1)
	}
	out = append(out, closes...)
	out = append(out, opens...)
	out = append(out, children...)
	even, ok := evenPermutation(M.order[i], out)
	if !ok {
		return ""
	}
	c := M.Atoms[i].chiral
	if !even {
		c = 3 - c
	}
	if c == 1 {
		return "@"
	}
	return "@@"
}

// evenPermutation returns true if b is an even permutation of a. ok is false if
// they don't have the same elements.
func evenPermutation(a, b []int) (even, ok bool) {
	if len(a) != len(b) {
		return false, false
	}
	idx := make([]int, len(b))
	for k, v := range b {
		p := slices.Index(a, v)
		if p < 0 {
			return false, false
		}
		idx[k] = p
	}
	inv := 0
	for x := range idx {
		for y := x + 1; y < len(idx); y++ {
			if idx[x] > idx[y] {
				inv++
			}
		}
	}
	return inv%2 == 0, true
}

// bondMarks returns the directional marks for the single bonds next to the stereo double
// bonds in st, keyed by atom pair. Bonds are marked in the direction they are written, from
// parent to child, or from the atom that opens a ring closure.
func (M *Molecule) bondMarks(st *stereo, starts []int, children, opens [][]int) map[[2]int]byte {
	n := len(M.Atoms)
	pos := make([]int, n)
	k := 0
	var pre func(i int)
	pre = func(i int) {
		pos[i] = k
		k++
		for _, j := range children[i] {
			pre(j)
		}
	}
	for _, s := range starts {
		pre(s)
	}
	from := make(map[[2]int]int)
	for i := range children {
		for _, j := range children[i] {
			from[pair(i, j)] = i
		}
		for _, j := range opens[i] {
			from[pair(i, j)] = i
		}
	}
	marks := make(map[[2]int]byte)
	sideOf := func(e, x int) int {
		p := pair(e, x)
		d, ok := marks[p]
		if !ok {
			return 0
		}
		return side(d, from[p], e)
	}
	setSide := func(e, x, s int) {
		p := pair(e, x)
		if from[p] != e {
			s = -s
		}
		marks[p] = '/'
		if s < 0 {
			marks[p] = '\\'
		}
	}
	//a neighbor of e, other than partner, that can carry a mark. Marked ones first.
	pick := func(e, partner int) int {
		best := -1
		for _, x := range M.adj[e] {
			if x == partner || M.bond(e, x).Order != 1 {
				continue
			}
			if best < 0 {
				best = x
				continue
			}
			mx, mb := sideOf(e, x) != 0, sideOf(e, best) != 0
			if mx != mb {
				if mx {
					best = x
				}
				continue
			}
			if pos[x] < pos[best] {
				best = x
			}
		}
		return best
	}
	bonds := append([]*Bond(nil), st.bonds...)
	sort.Slice(bonds, func(a, b int) bool {
		ka := []int{min(pos[bonds[a].A], pos[bonds[a].B]), max(pos[bonds[a].A], pos[bonds[a].B])}
		kb := []int{min(pos[bonds[b].A], pos[bonds[b].B]), max(pos[bonds[b].A], pos[bonds[b].B])}
		return slices.Compare(ka, kb) < 0
	})
	for _, b := range bonds {
		x, y := pick(b.A, b.B), pick(b.B, b.A)
		if x < 0 || y < 0 {
			continue
		}
		want := b.stereo
		if x != b.refs[0] {
			want = 3 - want
		}
		if y != b.refs[1] {
			want = 3 - want
		}
		sx, sy := sideOf(b.A, x), sideOf(b.B, y)
		rel := 1
		if want == stereoTrans {
			rel = -1
		}
		switch {
		case sx == 0 && sy == 0:
			setSide(b.A, x, 1)
			setSide(b.B, y, rel)
		case sy == 0:
			setSide(b.B, y, rel*sx)
		case sx == 0:
			setSide(b.A, x, rel*sy)
		}
	}
	return marks
}

func seq(n int) []int {
	ret := make([]int, n)
	for i := range ret {
		ret[i] = i
	}
	return ret
}

func ringDigit(d int) string {
	if d < 10 {
		return strconv.Itoa(d)
	}
	return "%" + strconv.Itoa(d)
}

func (M *Molecule) bondString(i, j int, marks map[[2]int]byte) string {
	if m, ok := marks[pair(i, j)]; ok {
		return string(m)
	}
	o := M.bond(i, j).Order
	ai, aj := M.Atoms[i].Aromatic, M.Atoms[j].Aromatic
	switch o {
	case 1.5:
		if ai && aj {
			return ""
		}
		return ":"
	case 2:
		return "="
	case 3:
		return "#"
	}
	if ai && aj {
		return "-"
	}
	return ""
}

func (M *Molecule) atomString(i int, chir string) string {
	a := M.Atoms[i]
	sym := a.Symbol
	if a.Aromatic {
		sym = strings.ToLower(sym)
	}
	if chir == "" && organic[a.Symbol] && a.Formal == 0 && a.Hs == M.implicitH(i) {
		return sym
	}
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(sym)
	b.WriteString(chir)
	if a.Hs > 0 {
		b.WriteByte('H')
		if a.Hs > 1 {
			b.WriteString(strconv.Itoa(a.Hs))
		}
	}
	switch {
	case a.Formal == 1:
		b.WriteByte('+')
	case a.Formal == -1:
		b.WriteByte('-')
	case a.Formal > 1:
		b.WriteString("+" + strconv.Itoa(a.Formal))
	case a.Formal < -1:
		b.WriteString(strconv.Itoa(a.Formal))
	}
	b.WriteByte(']')
	return b.String()
}
