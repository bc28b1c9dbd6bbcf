package dedup

import (
	"testing"

	"github.com/WORLDSTISSUESDAOSPORE1/mm0/internal/lisp"
)

func TestDedupAddSharesByKey(t *testing.T) {
	d := New[ExprHash]()
	i1 := d.Add(ExprHash{Kind: EHVar, Var: 0})
	i2 := d.Add(ExprHash{Kind: EHVar, Var: 0})
	if i1 != i2 {
		t.Fatalf("two structurally equal nodes got different indices: %d vs %d", i1, i2)
	}
	if !d.Shared[i1] {
		t.Fatalf("node referenced twice should be marked Shared")
	}
	if d.Len() != 1 {
		t.Fatalf("got %d distinct nodes, want 1", d.Len())
	}

	i3 := d.Add(ExprHash{Kind: EHVar, Var: 1})
	if i3 == i1 {
		t.Fatalf("distinct nodes must not collide")
	}
	if d.Shared[i3] {
		t.Fatalf("a node added once should not be marked Shared")
	}
}

func TestDedupAddDirectIdentityFastPath(t *testing.T) {
	d := New[ExprHash]()
	a := &lisp.Atom{ID: 7}
	ptr := IdentityOf(a)
	i1 := d.AddDirect(ptr, ExprHash{Kind: EHVar, Var: 3})
	i2 := d.AddDirect(ptr, ExprHash{Kind: EHVar, Var: 3})
	if i1 != i2 {
		t.Fatalf("same pointer identity should resolve to the same node")
	}
	if !d.Shared[i1] {
		t.Fatalf("second AddDirect of the same pointer should mark Shared")
	}
}

func TestIdentityOfNilIsZero(t *testing.T) {
	if IdentityOf(nil) != 0 {
		t.Fatalf("IdentityOf(nil) should be 0")
	}
}

func TestFromExprSharesRepeatedSubterm(t *testing.T) {
	termA := lisp.TermID(0)
	resolve := func(a lisp.AtomID) (lisp.TermID, bool) {
		if a == 100 {
			return termA, true
		}
		return 0, false
	}
	d := New[ExprHash]()
	heap := map[lisp.AtomID]int{200: 0}
	xAtom := &lisp.Atom{ID: 200}
	// (f x x) -- the two occurrences of the bound variable x are the exact
	// same LispVal, so AddDirect's pointer fast path must collapse them to
	// one node even before structural Key() comparison ever runs.
	expr := &lisp.List{Elems: []lisp.LispVal{
		&lisp.Atom{ID: 100}, xAtom, xAtom,
	}}
	root, err := FromExpr(resolve, d, heap, expr)
	if err != nil {
		t.Fatalf("FromExpr failed: %v", err)
	}
	app := d.Node(root)
	if app.Kind != EHApp || len(app.Args) != 2 {
		t.Fatalf("expected a 2-arg App node, got %#v", app)
	}
	if app.Args[0] != app.Args[1] {
		t.Fatalf("repeated identical subterm should dedup to one node index")
	}
	if d.Len() != 2 { // the shared Var node + the App node
		t.Fatalf("got %d nodes, want 2", d.Len())
	}
}

func TestFromExprUnboundVariable(t *testing.T) {
	d := New[ExprHash]()
	resolve := func(lisp.AtomID) (lisp.TermID, bool) { return 0, false }
	_, err := FromExpr(resolve, d, map[lisp.AtomID]int{}, &lisp.Atom{ID: 9})
	if err == nil {
		t.Fatalf("expected an error for an unbound variable reference")
	}
}

func TestBuildExprNodes(t *testing.T) {
	d := New[ExprHash]()
	d.Add(ExprHash{Kind: EHVar, Var: 0})
	d.Add(ExprHash{Kind: EHApp, Term: 5, Args: []int{0}})
	nodes := BuildExprNodes(d)
	if len(nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(nodes))
	}
	if nodes[1].Kind != EHApp || nodes[1].Term != 5 || len(nodes[1].Args) != 1 || nodes[1].Args[0] != 0 {
		t.Fatalf("unexpected App node: %#v", nodes[1])
	}
}

func testResolver() ProofResolver {
	return ProofResolver{
		Term:       func(a lisp.AtomID) (lisp.TermID, bool) { return lisp.TermID(a), a < 10 },
		Thm:        func(a lisp.AtomID) (lisp.ThmID, bool) { return lisp.ThmID(a - 100), a >= 100 },
		ConvAtom:   900,
		SymAtom:    901,
		UnfoldAtom: 902,
	}
}

func TestFromProofTermApp(t *testing.T) {
	r := testResolver()
	ed := New[ExprHash]()
	pd := New[ProofHash]()
	heap := map[lisp.AtomID]int{50: 0}
	proof := &lisp.List{Elems: []lisp.LispVal{&lisp.Atom{ID: 3}, &lisp.Atom{ID: 50}}}
	root, err := FromProof(r, ed, pd, heap, proof)
	if err != nil {
		t.Fatalf("FromProof failed: %v", err)
	}
	n := pd.Node(root)
	if n.Kind != PHTerm || n.Term != 3 || len(n.Args) != 1 {
		t.Fatalf("unexpected proof node: %#v", n)
	}
	ref := pd.Node(n.Args[0])
	if ref.Kind != PHRef || ref.Ref != 0 {
		t.Fatalf("expected a PHRef to heap slot 0, got %#v", ref)
	}
}

func TestFromProofThmAppSplitsExprAndSubproofArgs(t *testing.T) {
	r := testResolver()
	ed := New[ExprHash]()
	pd := New[ProofHash]()
	heap := map[lisp.AtomID]int{50: 0}
	// (T100 (3 x) x) -- first arg is a term application (an expression
	// argument), second is a bare heap reference (a subproof).
	exprArg := &lisp.List{Elems: []lisp.LispVal{&lisp.Atom{ID: 3}, &lisp.Atom{ID: 50}}}
	proof := &lisp.List{Elems: []lisp.LispVal{&lisp.Atom{ID: 100}, exprArg, &lisp.Atom{ID: 50}}}
	root, err := FromProof(r, ed, pd, heap, proof)
	if err != nil {
		t.Fatalf("FromProof failed: %v", err)
	}
	n := pd.Node(root)
	if n.Kind != PHThm || n.Thm != 0 {
		t.Fatalf("unexpected proof node: %#v", n)
	}
	if len(n.ExprArgs) != 1 || len(n.Args) != 1 {
		t.Fatalf("expected 1 expr arg and 1 subproof, got %#v", n)
	}
}

func TestFromProofUnfold(t *testing.T) {
	r := testResolver()
	ed := New[ExprHash]()
	pd := New[ProofHash]()
	heap := map[lisp.AtomID]int{50: 0}
	argsList := &lisp.List{Elems: []lisp.LispVal{&lisp.Atom{ID: 50}}}
	result := &lisp.Atom{ID: 50}
	inner := &lisp.List{Elems: []lisp.LispVal{&lisp.Atom{ID: 3}, &lisp.Atom{ID: 50}}}
	unfold := &lisp.List{Elems: []lisp.LispVal{
		&lisp.Atom{ID: 902}, &lisp.Atom{ID: 3}, argsList, result, inner,
	}}
	root, err := FromProof(r, ed, pd, heap, unfold)
	if err != nil {
		t.Fatalf("FromProof(:unfold) failed: %v", err)
	}
	n := pd.Node(root)
	if n.Kind != PHUnfold || n.Term != 3 {
		t.Fatalf("unexpected node: %#v", n)
	}
	if _, ok := ToConv(n); !ok {
		t.Fatalf("PHUnfold must be recognized as a Conv shape")
	}
}

func TestFromProofTermAppPromotesToCongWhenArgIsConv(t *testing.T) {
	r := testResolver()
	ed := New[ExprHash]()
	pd := New[ProofHash]()
	heap := map[lisp.AtomID]int{50: 0, 51: 1}
	// (:sym 50) makes the first argument conversion-shaped; the second,
	// a bare heap ref, is a plain term proof and must get wrapped in a
	// fresh PHRefl when the whole application promotes to PHCong.
	symArg := &lisp.List{Elems: []lisp.LispVal{&lisp.Atom{ID: 901}, &lisp.Atom{ID: 50}}}
	proof := &lisp.List{Elems: []lisp.LispVal{&lisp.Atom{ID: 3}, symArg, &lisp.Atom{ID: 51}}}
	root, err := FromProof(r, ed, pd, heap, proof)
	if err != nil {
		t.Fatalf("FromProof failed: %v", err)
	}
	n := pd.Node(root)
	if n.Kind != PHCong || n.Term != 3 {
		t.Fatalf("expected a PHCong node for term 3, got %#v", n)
	}
	if len(n.Args) != 2 {
		t.Fatalf("expected 2 promoted args, got %#v", n.Args)
	}
	if pd.Node(n.Args[0]).Kind != PHSym {
		t.Fatalf("arg 0 was already conv-shaped and should be unchanged, got %#v", pd.Node(n.Args[0]))
	}
	refl := pd.Node(n.Args[1])
	if refl.Kind != PHRefl {
		t.Fatalf("arg 1 was plain and should be wrapped in PHRefl, got %#v", refl)
	}
	if wrapped := pd.Node(refl.Conv); wrapped.Kind != PHRef || wrapped.Ref != 1 {
		t.Fatalf("PHRefl should wrap the original heap ref, got %#v", wrapped)
	}
}

func TestFromProofTermAppStaysPlainWhenNoArgIsConv(t *testing.T) {
	r := testResolver()
	ed := New[ExprHash]()
	pd := New[ProofHash]()
	heap := map[lisp.AtomID]int{50: 0}
	proof := &lisp.List{Elems: []lisp.LispVal{&lisp.Atom{ID: 3}, &lisp.Atom{ID: 50}}}
	root, err := FromProof(r, ed, pd, heap, proof)
	if err != nil {
		t.Fatalf("FromProof failed: %v", err)
	}
	if n := pd.Node(root); n.Kind != PHTerm {
		t.Fatalf("an application with no conversion-shaped argument must stay PHTerm, got %#v", n)
	}
}

func TestToConvRejectsNonConvShapes(t *testing.T) {
	if _, ok := ToConv(ProofHash{Kind: PHTerm}); ok {
		t.Fatalf("PHTerm must not be treated as a Conv shape")
	}
}

func TestSubstApplySubstitutesAndMemoizes(t *testing.T) {
	// template: Var(0) applied through term 7: (7 $0)
	template := []ExprNode{
		{Kind: EHVar, Var: 0},
		{Kind: EHApp, Term: 7, Args: []int{0}},
	}
	out := New[ExprHash]()
	argIdx := out.Add(ExprHash{Kind: EHVar, Var: 42}) // stand-in concrete argument
	s := NewSubst(template, []int{argIdx}, out)
	root := s.Apply(1)
	got := out.Node(root)
	if got.Kind != EHApp || got.Term != 7 || len(got.Args) != 1 || got.Args[0] != argIdx {
		t.Fatalf("unexpected substituted node: %#v", got)
	}
	// Applying again must hit the memo and not create a duplicate.
	again := s.Apply(1)
	if again != root {
		t.Fatalf("repeated Apply of the same template index should memoize")
	}
}
