package env

import "github.com/WORLDSTISSUESDAOSPORE1/mm0/internal/lisp"

// LocalContext is the binder scope active while elaborating one term or
// theorem: the bound/regular variables currently in view, the open goals,
// and the pending metavariables (spec.md "ambient environment" module).
type LocalContext struct {
	vars map[lisp.AtomID]localVar

	mvars []lisp.LispVal
	goals []lisp.LispVal

	proofs map[lisp.AtomID]localProof
}

type localVar struct {
	dummy bool
	sort  lisp.SortID
}

type localProof struct {
	fsp  lisp.FileSpan
	atom lisp.AtomID
	val  lisp.LispVal
}

func NewLocalContext() *LocalContext {
	return &LocalContext{
		vars:   map[lisp.AtomID]localVar{},
		proofs: map[lisp.AtomID]localProof{},
	}
}

// BindVar declares a bound or regular local variable of the given sort.
func (lc *LocalContext) BindVar(a lisp.AtomID, dummy bool, sort lisp.SortID) {
	lc.vars[a] = localVar{dummy: dummy, sort: sort}
}

func (lc *LocalContext) BindProof(a lisp.AtomID, fsp lisp.FileSpan, hyp lisp.AtomID, val lisp.LispVal) {
	lc.proofs[a] = localProof{fsp: fsp, atom: hyp, val: val}
}

func (lc *LocalContext) LocalVar(a lisp.AtomID) (bool, lisp.SortID, bool) {
	v, ok := lc.vars[a]
	return v.dummy, v.sort, ok
}

func (lc *LocalContext) GetProof(a lisp.AtomID) (lisp.FileSpan, lisp.AtomID, lisp.LispVal, bool) {
	p, ok := lc.proofs[a]
	return p.fsp, p.atom, p.val, ok
}

func (lc *LocalContext) NewMVar(target lisp.InferTarget) lisp.LispVal {
	id := len(lc.mvars)
	mv := &lisp.MVar{ID: id, Target: target}
	lc.mvars = append(lc.mvars, mv)
	return mv
}

func (lc *LocalContext) MVars() []lisp.LispVal { return append([]lisp.LispVal(nil), lc.mvars...) }

func (lc *LocalContext) Goals() []lisp.LispVal { return append([]lisp.LispVal(nil), lc.goals...) }

func (lc *LocalContext) SetGoals(gs []lisp.LispVal) {
	lc.goals = append([]lisp.LispVal(nil), gs...)
}
