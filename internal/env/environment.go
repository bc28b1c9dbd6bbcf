// Package env is the ambient theorem environment the evaluator calls out
// to through lisp.Host: atom interning, local-context lookups, goal/mvar
// bookkeeping and diagnostic reporting. It is the minimal "elaborator"
// that the lisp hard core needs a partner to run against; the proof
// dedup/DAG layer (internal/dedup) is driven from here, not from
// internal/lisp, which is what keeps the hard core import-cycle free.
package env

import (
	"fmt"
	"sync"

	"github.com/WORLDSTISSUESDAOSPORE1/mm0/internal/lisp"
)

// Environment owns the atom table and each atom's global lisp binding;
// sort/term/thm declarations live in Declarations. One Environment is
// shared by every Elaborator working on the
// same file set, mirroring funxy's own Environment/SymbolTable split
// between global and per-scope state.
type Environment struct {
	mu    sync.Mutex
	names []string
	ids   map[string]lisp.AtomID

	lispVals map[lisp.AtomID]atomLisp
}

type atomLisp struct {
	fsp lisp.FileSpan
	val lisp.LispVal
}

func NewEnvironment() *Environment {
	return &Environment{ids: map[string]lisp.AtomID{}, lispVals: map[lisp.AtomID]atomLisp{}}
}

func (e *Environment) GetAtom(name string) lisp.AtomID {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id, ok := e.ids[name]; ok {
		return id
	}
	id := lisp.AtomID(len(e.names))
	e.names = append(e.names, name)
	e.ids[name] = id
	return id
}

func (e *Environment) AtomName(a lisp.AtomID) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if int(a) < 0 || int(a) >= len(e.names) {
		return fmt.Sprintf("<atom %d>", a)
	}
	return e.names[a]
}

func (e *Environment) AtomLisp(a lisp.AtomID) (lisp.FileSpan, lisp.LispVal, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	al, ok := e.lispVals[a]
	if !ok {
		return lisp.FileSpan{}, nil, false
	}
	return al.fsp, al.val, true
}

func (e *Environment) SetAtomLisp(a lisp.AtomID, fsp lisp.FileSpan, v lisp.LispVal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lispVals[a] = atomLisp{fsp: fsp, val: v}
}
