package dedup

import (
	"fmt"

	"github.com/WORLDSTISSUESDAOSPORE1/mm0/internal/lisp"
)

// ProofHashKind discriminates ProofHash's shapes: a reference to an
// earlier proof-heap entry, a fresh dummy variable, building an
// expression node inline (Term), citing a hypothesis, applying a
// theorem, or one of the conversion-proof forms (Conv/Refl/Sym/Cong/
// Unfold). Refl and Cong are never produced by a proof s-expression
// directly: Cong comes from congruence promotion when a term application
// is found to carry a conversion argument, and Refl from toConv, both in
// that promotion and for the conversion sub-proof of :conv/:sym/:unfold.
// Mirrors ProofHash's variants in the original 1:1.
type ProofHashKind int

const (
	PHRef ProofHashKind = iota
	PHDummy
	PHTerm
	PHHyp
	PHThm
	PHConv
	PHRefl
	PHSym
	PHCong
	PHUnfold
)

// ProofHash is one node of a dedup'd proof DAG. Which fields are
// meaningful depends on Kind; see the constructors below.
type ProofHash struct {
	Kind ProofHashKind

	Ref int // PHRef: heap index

	Sort lisp.SortID // PHDummy

	Term lisp.TermID // PHTerm / PHCong / PHUnfold
	Args []int       // PHTerm / PHCong / PHThm / PHUnfold: proof indices (Term/Cong/Thm) or expr-node indices (Unfold)

	Hyp int // PHHyp: hypothesis index

	Thm      lisp.ThmID // PHThm
	ExprArgs []int      // PHThm: the theorem's expression arguments (before Args, its subproofs)

	Expr int // PHConv: the expression the conversion proves equal
	Conv int // PHConv/PHSym: the conversion subproof
	Proof int // PHConv: the proof being converted

	Result int // PHUnfold: the unfolded expression node
}

func (h ProofHash) Key() string {
	switch h.Kind {
	case PHRef:
		return fmt.Sprintf("r%d", h.Ref)
	case PHDummy:
		return fmt.Sprintf("d%d", h.Sort)
	case PHTerm:
		return fmt.Sprintf("t%d:%v", h.Term, h.Args)
	case PHHyp:
		return fmt.Sprintf("h%d", h.Hyp)
	case PHThm:
		return fmt.Sprintf("T%d:%v:%v", h.Thm, h.ExprArgs, h.Args)
	case PHConv:
		return fmt.Sprintf("c%d:%d:%d", h.Expr, h.Conv, h.Proof)
	case PHRefl:
		return fmt.Sprintf("R%d", h.Conv)
	case PHSym:
		return fmt.Sprintf("s%d", h.Conv)
	case PHCong:
		return fmt.Sprintf("C%d:%v", h.Term, h.Args)
	default: // PHUnfold
		return fmt.Sprintf("u%d:%v:%d:%d", h.Term, h.Args, h.Result, h.Conv)
	}
}

// ProofResolver supplies the term/theorem declaration lookups FromProof
// needs, plus the three reserved atoms (:conv, :sym, :unfold) a proof
// s-expression may start with instead of a term-or-theorem application;
// owned by internal/env, which interns them once via Host.GetAtom.
type ProofResolver struct {
	Term func(lisp.AtomID) (lisp.TermID, bool)
	Thm  func(lisp.AtomID) (lisp.ThmID, bool)

	ConvAtom, SymAtom, UnfoldAtom lisp.AtomID
}

// FromProof decodes an evaluated lisp proof value into dedup'd ProofHash
// nodes, returning the index of the root node, alongside a parallel
// Dedup[ExprHash] that Term/Conv/Unfold nodes contribute their embedded
// expressions to (a proof and the expressions it mentions are dedup'd
// against two separate tables, exactly as the original keeps its
// NodeHash::Expr and NodeHash::Proof maps distinct). Mirrors
// ProofHash::from, including the congruence promotion described there: a
// term application with at least one conversion-shaped argument becomes a
// PHCong node instead of a plain PHTerm, with every argument promoted to
// a conversion (non-conversion arguments wrapped in PHRefl) via toConv.
func FromProof(r ProofResolver, ed *Dedup[ExprHash], pd *Dedup[ProofHash], heap map[lisp.AtomID]int, v lisp.LispVal) (int, error) {
	ptr := IdentityOf(v)
	u := lisp.Unwrap(v)

	switch t := u.(type) {
	case *lisp.Atom:
		if idx, ok := heap[t.ID]; ok {
			return pd.AddDirect(ptr, ProofHash{Kind: PHRef, Ref: idx}), nil
		}
		return 0, lisp.Errorf("unbound reference in proof")

	case *lisp.List:
		if len(t.Elems) == 0 {
			return 0, lisp.Errorf("empty proof term")
		}
		head, ok := lisp.AsAtom(t.Elems[0])
		if ok {
			switch head {
			case r.ConvAtom:
				return fromConv(r, ed, pd, heap, t.Elems, ptr)
			case r.SymAtom:
				return fromSym(r, ed, pd, heap, t.Elems, ptr)
			case r.UnfoldAtom:
				return fromUnfold(r, ed, pd, heap, t.Elems, ptr)
			}
			if thm, ok := r.Thm(head); ok {
				return fromThmApp(r, ed, pd, heap, thm, t.Elems[1:], ptr)
			}
			if term, ok := r.Term(head); ok {
				return fromTermApp(r, ed, pd, heap, term, t.Elems[1:], ptr)
			}
		}
		return 0, lisp.Errorf("expected a term or theorem application in proof")

	default:
		return 0, lisp.Errorf("not a proof term")
	}
}

// conv reports whether the proof node already at index i proves a
// conversion (equality) rather than a plain term, mirroring
// ProofHash::conv in the original 1:1: Refl/Sym/Cong/Unfold are always a
// conversion, Dummy/Term/Hyp/Thm/Conv never are.
func conv(pd *Dedup[ProofHash], i int) bool {
	switch pd.Node(i).Kind {
	case PHRefl, PHSym, PHCong, PHUnfold:
		return true
	default:
		return false
	}
}

// toConv returns i unchanged if it already proves a conversion, else
// wraps it in a fresh PHRefl node, mirroring ProofHash::to_conv 1:1.
func toConv(pd *Dedup[ProofHash], i int) int {
	if conv(pd, i) {
		return i
	}
	return pd.Add(ProofHash{Kind: PHRefl, Conv: i})
}

func fromTermApp(r ProofResolver, ed *Dedup[ExprHash], pd *Dedup[ProofHash], heap map[lisp.AtomID]int, term lisp.TermID, rest []lisp.LispVal, ptr uintptr) (int, error) {
	args := make([]int, 0, len(rest))
	anyConv := false
	for _, a := range rest {
		idx, err := FromProof(r, ed, pd, heap, a)
		if err != nil {
			return 0, err
		}
		if conv(pd, idx) {
			anyConv = true
		}
		args = append(args, idx)
	}
	if anyConv {
		for i, idx := range args {
			args[i] = toConv(pd, idx)
		}
		return pd.AddDirect(ptr, ProofHash{Kind: PHCong, Term: term, Args: args}), nil
	}
	return pd.AddDirect(ptr, ProofHash{Kind: PHTerm, Term: term, Args: args}), nil
}

func fromThmApp(r ProofResolver, ed *Dedup[ExprHash], pd *Dedup[ProofHash], heap map[lisp.AtomID]int, thm lisp.ThmID, rest []lisp.LispVal, ptr uintptr) (int, error) {
	var exprArgs, subproofs []int
	for _, a := range rest {
		if v, err := tryExpr(r, ed, heap, a); err == nil {
			exprArgs = append(exprArgs, v)
			continue
		}
		idx, err := FromProof(r, ed, pd, heap, a)
		if err != nil {
			return 0, err
		}
		subproofs = append(subproofs, idx)
	}
	return pd.AddDirect(ptr, ProofHash{Kind: PHThm, Thm: thm, ExprArgs: exprArgs, Args: subproofs}), nil
}

func tryExpr(r ProofResolver, ed *Dedup[ExprHash], heap map[lisp.AtomID]int, v lisp.LispVal) (int, error) {
	return FromExpr(r.Term, ed, heap, v)
}

func fromConv(r ProofResolver, ed *Dedup[ExprHash], pd *Dedup[ProofHash], heap map[lisp.AtomID]int, elems []lisp.LispVal, ptr uintptr) (int, error) {
	if len(elems) != 4 {
		return 0, lisp.Errorf(":conv expects (expr conv proof)")
	}
	expr, err := FromExpr(r.Term, ed, heap, elems[1])
	if err != nil {
		return 0, err
	}
	convIdx, err := FromProof(r, ed, pd, heap, elems[2])
	if err != nil {
		return 0, err
	}
	proof, err := FromProof(r, ed, pd, heap, elems[3])
	if err != nil {
		return 0, err
	}
	return pd.AddDirect(ptr, ProofHash{Kind: PHConv, Expr: expr, Conv: toConv(pd, convIdx), Proof: proof}), nil
}

func fromSym(r ProofResolver, ed *Dedup[ExprHash], pd *Dedup[ProofHash], heap map[lisp.AtomID]int, elems []lisp.LispVal, ptr uintptr) (int, error) {
	if len(elems) != 2 {
		return 0, lisp.Errorf(":sym expects (conv)")
	}
	convIdx, err := FromProof(r, ed, pd, heap, elems[1])
	if err != nil {
		return 0, err
	}
	return pd.AddDirect(ptr, ProofHash{Kind: PHSym, Conv: toConv(pd, convIdx)}), nil
}

func fromUnfold(r ProofResolver, ed *Dedup[ExprHash], pd *Dedup[ProofHash], heap map[lisp.AtomID]int, elems []lisp.LispVal, ptr uintptr) (int, error) {
	if len(elems) != 5 {
		return 0, lisp.Errorf(":unfold expects (term args result conv)")
	}
	head, ok := lisp.AsAtom(elems[1])
	if !ok {
		return 0, lisp.Errorf(":unfold expects a term constructor")
	}
	term, ok := r.Term(head)
	if !ok {
		return 0, lisp.Errorf("unknown term constructor in :unfold")
	}
	argsList := lisp.FromLisp(elems[2]).Elems()
	args := make([]int, 0, len(argsList))
	for _, a := range argsList {
		idx, err := FromExpr(r.Term, ed, heap, a)
		if err != nil {
			return 0, err
		}
		args = append(args, idx)
	}
	result, err := FromExpr(r.Term, ed, heap, elems[3])
	if err != nil {
		return 0, err
	}
	convIdx, err := FromProof(r, ed, pd, heap, elems[4])
	if err != nil {
		return 0, err
	}
	return pd.AddDirect(ptr, ProofHash{Kind: PHUnfold, Term: term, Args: args, Result: result, Conv: toConv(pd, convIdx)}), nil
}

// ProofNode is the decoded, array-indexed form persisted for a completed
// proof, mirroring Environment's ProofNode in the original.
type ProofNode struct {
	Kind     ProofHashKind
	Ref      int
	Sort     lisp.SortID
	Term     lisp.TermID
	Args     []int
	Hyp      int
	Thm      lisp.ThmID
	ExprArgs []int
	Expr     int
	Conv     int
	Proof    int
	Result   int
}

// BuildProofNodes projects a Dedup[ProofHash] into a flat []ProofNode
// array, the shape internal/env stores as a checked theorem's proof.
func BuildProofNodes(d *Dedup[ProofHash]) []ProofNode {
	out := make([]ProofNode, d.Len())
	for i, h := range d.Hashes {
		out[i] = ProofNode{
			Kind: h.Kind, Ref: h.Ref, Sort: h.Sort, Term: h.Term, Args: h.Args,
			Hyp: h.Hyp, Thm: h.Thm, ExprArgs: h.ExprArgs, Expr: h.Expr,
			Conv: h.Conv, Proof: h.Proof, Result: h.Result,
		}
	}
	return out
}
