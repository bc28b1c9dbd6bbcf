package env

import (
	"github.com/WORLDSTISSUESDAOSPORE1/mm0/internal/dedup"
	"github.com/WORLDSTISSUESDAOSPORE1/mm0/internal/lisp"
)

// Decl is one completed declaration persisted against its defining atom:
// a sort, a term constructor, or a theorem, each keyed by the atom that
// names it. internal/dedup builds the node arrays stored here once a
// term's definition or a theorem's proof has been elaborated.
type Decl struct {
	Sort *SortDecl
	Term *TermDecl
	Thm  *ThmDecl
}

type SortDecl struct {
	ID lisp.SortID
}

type TermDecl struct {
	ID    lisp.TermID
	Nargs int
	Def   []dedup.ExprNode // nil for an abstract term constructor
}

type ThmDecl struct {
	ID         lisp.ThmID
	Statement  []dedup.ExprNode
	Conclusion int
	Proof      []dedup.ProofNode
	ProofRoot  int
}

// Declarations is the growable table of completed declarations, keyed by
// their naming atom, that backs the proof-dedup resolver callbacks.
type Declarations struct {
	byAtom map[lisp.AtomID]*Decl
	sorts  []*SortDecl
	terms  []*TermDecl
	thms   []*ThmDecl
}

func NewDeclarations() *Declarations {
	return &Declarations{byAtom: map[lisp.AtomID]*Decl{}}
}

func (d *Declarations) AddSort(a lisp.AtomID) lisp.SortID {
	id := lisp.SortID(len(d.sorts))
	sd := &SortDecl{ID: id}
	d.sorts = append(d.sorts, sd)
	d.byAtom[a] = &Decl{Sort: sd}
	return id
}

func (d *Declarations) AddTerm(a lisp.AtomID, nargs int, def []dedup.ExprNode) lisp.TermID {
	id := lisp.TermID(len(d.terms))
	td := &TermDecl{ID: id, Nargs: nargs, Def: def}
	d.terms = append(d.terms, td)
	d.byAtom[a] = &Decl{Term: td}
	return id
}

func (d *Declarations) AddThm(a lisp.AtomID, stmt []dedup.ExprNode, concl int, proof []dedup.ProofNode, root int) lisp.ThmID {
	id := lisp.ThmID(len(d.thms))
	thd := &ThmDecl{ID: id, Statement: stmt, Conclusion: concl, Proof: proof, ProofRoot: root}
	d.thms = append(d.thms, thd)
	d.byAtom[a] = &Decl{Thm: thd}
	return id
}

func (d *Declarations) Get(a lisp.AtomID) (*Decl, bool) {
	decl, ok := d.byAtom[a]
	return decl, ok
}

func (d *Declarations) ResolveTerm(a lisp.AtomID) (lisp.TermID, bool) {
	if decl, ok := d.byAtom[a]; ok && decl.Term != nil {
		return decl.Term.ID, true
	}
	return 0, false
}

func (d *Declarations) ResolveThm(a lisp.AtomID) (lisp.ThmID, bool) {
	if decl, ok := d.byAtom[a]; ok && decl.Thm != nil {
		return decl.Thm.ID, true
	}
	return 0, false
}

// ProofResolver builds a dedup.ProofResolver bound to this table, interning
// the :conv/:sym/:unfold marker atoms through host once.
func (d *Declarations) ProofResolver(host lisp.Host) dedup.ProofResolver {
	return dedup.ProofResolver{
		Term:       d.ResolveTerm,
		Thm:        d.ResolveThm,
		ConvAtom:   host.GetAtom(":conv"),
		SymAtom:    host.GetAtom(":sym"),
		UnfoldAtom: host.GetAtom(":unfold"),
	}
}
