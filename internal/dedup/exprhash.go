package dedup

import (
	"fmt"

	"github.com/WORLDSTISSUESDAOSPORE1/mm0/internal/lisp"
)

// ExprHashKind discriminates ExprHash's two shapes: a reference to an
// already-bound variable, or a term constructor applied to argument
// expressions. Mirrors the original's ExprHash::Var/ExprHash::App.
type ExprHashKind int

const (
	EHVar ExprHashKind = iota
	EHApp
)

// ExprHash is one node of a dedup'd expression DAG.
type ExprHash struct {
	Kind ExprHashKind
	Var  int          // EHVar: index into the binder heap
	Term lisp.TermID  // EHApp: the term constructor applied
	Args []int        // EHApp: indices of already-dedup'd argument nodes
}

func (h ExprHash) Key() string {
	if h.Kind == EHVar {
		return fmt.Sprintf("v%d", h.Var)
	}
	return fmt.Sprintf("a%d:%v", h.Term, h.Args)
}

// TermResolver maps a term-constructor atom to its declared TermID; owned
// by internal/env, which knows the declaration table this package does
// not replicate.
type TermResolver func(lisp.AtomID) (lisp.TermID, bool)

// FromExpr decodes an evaluated lisp expression value into dedup'd
// ExprHash nodes, returning the index of the root node. heap maps a
// bound-variable atom to its position in the binder heap (spec.md
// "expression heap" — the flat array of (co)variables an expression may
// reference). Mirrors ExprHash::from in the original, minus the
// on-the-fly sort-inference the full elaborator would also perform here.
func FromExpr(resolve TermResolver, d *Dedup[ExprHash], heap map[lisp.AtomID]int, v lisp.LispVal) (int, error) {
	ptr := IdentityOf(v)
	u := lisp.Unwrap(v)
	switch t := u.(type) {
	case *lisp.Atom:
		idx, ok := heap[t.ID]
		if !ok {
			return 0, lisp.Errorf("unbound variable in expression")
		}
		return d.AddDirect(ptr, ExprHash{Kind: EHVar, Var: idx}), nil

	case *lisp.List:
		if len(t.Elems) == 0 {
			return 0, lisp.Errorf("empty expression")
		}
		head, ok := lisp.AsAtom(t.Elems[0])
		if !ok {
			return 0, lisp.Errorf("expected a term constructor")
		}
		term, ok := resolve(head)
		if !ok {
			return 0, lisp.Errorf("unknown term constructor")
		}
		args := make([]int, 0, len(t.Elems)-1)
		for _, a := range t.Elems[1:] {
			idx, err := FromExpr(resolve, d, heap, a)
			if err != nil {
				return 0, err
			}
			args = append(args, idx)
		}
		return d.AddDirect(ptr, ExprHash{Kind: EHApp, Term: term, Args: args}), nil

	default:
		return 0, lisp.Errorf("not an expression")
	}
}

// ExprNode is the decoded, array-indexed form of an ExprHash node: Var
// nodes carry their heap index directly, App nodes carry already-resolved
// child ExprNode indices (into the same array the Builder lays out).
type ExprNode struct {
	Kind ExprHashKind
	Var  int
	Term lisp.TermID
	Args []int
}

// BuildExprNodes projects a Dedup[ExprHash] into a flat []ExprNode array
// in dependency order, the form internal/env persists as a term's
// definition or a theorem's statement (Environment.expr_node in the
// original).
func BuildExprNodes(d *Dedup[ExprHash]) []ExprNode {
	out := make([]ExprNode, d.Len())
	for i, h := range d.Hashes {
		out[i] = ExprNode{Kind: h.Kind, Var: h.Var, Term: h.Term, Args: h.Args}
	}
	return out
}
