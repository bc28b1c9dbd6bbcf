package env

import (
	"testing"

	"github.com/WORLDSTISSUESDAOSPORE1/mm0/internal/lisp"
)

func TestEnvironmentInternsAtomsOnce(t *testing.T) {
	e := NewEnvironment()
	a1 := e.GetAtom("foo")
	a2 := e.GetAtom("foo")
	if a1 != a2 {
		t.Fatalf("interning the same name twice should return the same atom")
	}
	b := e.GetAtom("bar")
	if b == a1 {
		t.Fatalf("distinct names must not collide")
	}
	if e.AtomName(a1) != "foo" {
		t.Fatalf("got %q, want \"foo\"", e.AtomName(a1))
	}
}

func TestEnvironmentAtomLispRoundTrip(t *testing.T) {
	e := NewEnvironment()
	a := e.GetAtom("x")
	if _, _, ok := e.AtomLisp(a); ok {
		t.Fatalf("a freshly interned atom should have no bound value")
	}
	v := &lisp.Number{Val: nil}
	e.SetAtomLisp(a, lisp.FileSpan{File: "f"}, v)
	fsp, got, ok := e.AtomLisp(a)
	if !ok || got != v || fsp.File != "f" {
		t.Fatalf("AtomLisp did not round-trip the stored binding")
	}
}

func TestLocalContextBindVar(t *testing.T) {
	lc := NewLocalContext()
	a := lisp.AtomID(1)
	if _, _, ok := lc.LocalVar(a); ok {
		t.Fatalf("unbound variable should report ok=false")
	}
	lc.BindVar(a, true, 5)
	dummy, sort, ok := lc.LocalVar(a)
	if !ok || !dummy || sort != 5 {
		t.Fatalf("got (%v,%v,%v), want (true,5,true)", dummy, sort, ok)
	}
}

func TestLocalContextGoalsAreCopiedNotAliased(t *testing.T) {
	lc := NewLocalContext()
	g := []lisp.LispVal{&lisp.Goal{Target: &lisp.Atom{ID: 1}}}
	lc.SetGoals(g)
	got := lc.Goals()
	got[0] = nil
	if lc.Goals()[0] == nil {
		t.Fatalf("Goals() must return a defensive copy, caller mutation leaked into LocalContext")
	}
}

func TestLocalContextNewMVarAssignsSequentialIDs(t *testing.T) {
	lc := NewLocalContext()
	m0 := lc.NewMVar(lisp.TargetUnknown())
	m1 := lc.NewMVar(lisp.TargetBound(9))
	mv0, ok := m0.(*lisp.MVar)
	if !ok || mv0.ID != 0 {
		t.Fatalf("expected first mvar id 0, got %#v", m0)
	}
	mv1, ok := m1.(*lisp.MVar)
	if !ok || mv1.ID != 1 || mv1.Target.Sort != 9 {
		t.Fatalf("unexpected second mvar: %#v", m1)
	}
	if len(lc.MVars()) != 2 {
		t.Fatalf("got %d mvars, want 2", len(lc.MVars()))
	}
}

func TestElaboratorIsHost(t *testing.T) {
	e := NewEnvironment()
	el := NewElaborator(e, "<t>", nil)
	var _ lisp.Host = el

	a := el.GetAtom("thm1")
	el.Report(lisp.Span{Start: 1, End: 2}, "info", "hello")
	if len(el.Diagnostics) != 1 || el.Diagnostics[0].Message != "hello" {
		t.Fatalf("Report did not record a diagnostic")
	}
	fsp := el.FileSpan(lisp.Span{Start: 3, End: 4})
	if fsp.File != "<t>" {
		t.Fatalf("FileSpan did not stamp the elaborator's file")
	}
	_ = a
}

func TestFormatValueBasicShapes(t *testing.T) {
	e := NewEnvironment()
	el := NewElaborator(e, "<t>", nil)
	foo := el.GetAtom("foo")

	cases := []struct {
		v    lisp.LispVal
		want string
	}{
		{lisp.NilVal, "()"},
		{&lisp.Atom{ID: foo}, "foo"},
		{&lisp.Str{Val: "hi"}, `"hi"`},
		{&lisp.Bool{Val: true}, "true"},
		{&lisp.List{Elems: []lisp.LispVal{&lisp.Atom{ID: foo}, &lisp.Str{Val: "y"}}}, `(foo "y")`},
	}
	for _, c := range cases {
		got := FormatValue(el, c.v)
		if got != c.want {
			t.Fatalf("FormatValue(%#v) = %q, want %q", c.v, got, c.want)
		}
	}
}

func TestDeclarationsPointersStayStableAcrossGrowth(t *testing.T) {
	d := NewDeclarations()
	var first *SortDecl
	for i := 0; i < 64; i++ {
		id := d.AddSort(lisp.AtomID(i))
		decl, ok := d.Get(lisp.AtomID(i))
		if !ok || decl.Sort == nil || decl.Sort.ID != id {
			t.Fatalf("sort declaration %d not stored correctly", i)
		}
		if i == 0 {
			first = decl.Sort
		}
	}
	decl0, ok := d.Get(lisp.AtomID(0))
	if !ok || decl0.Sort != first {
		t.Fatalf("pointer to the first declared sort dangled after many more were appended")
	}
}

func TestDeclarationsResolveTermAndThm(t *testing.T) {
	d := NewDeclarations()
	termAtom := lisp.AtomID(10)
	thmAtom := lisp.AtomID(11)
	tid := d.AddTerm(termAtom, 2, nil)
	thid := d.AddThm(thmAtom, nil, 0, nil, 0)

	got, ok := d.ResolveTerm(termAtom)
	if !ok || got != tid {
		t.Fatalf("ResolveTerm failed: got (%v,%v)", got, ok)
	}
	if _, ok := d.ResolveTerm(thmAtom); ok {
		t.Fatalf("ResolveTerm should not resolve a theorem atom")
	}
	gotThm, ok := d.ResolveThm(thmAtom)
	if !ok || gotThm != thid {
		t.Fatalf("ResolveThm failed: got (%v,%v)", gotThm, ok)
	}
}

func TestDeclarationsProofResolverInternsMarkerAtoms(t *testing.T) {
	d := NewDeclarations()
	e := NewEnvironment()
	r := d.ProofResolver(NewElaborator(e, "<t>", nil))
	if r.ConvAtom == r.SymAtom || r.SymAtom == r.UnfoldAtom || r.ConvAtom == r.UnfoldAtom {
		t.Fatalf("the three marker atoms must be distinct: %v %v %v", r.ConvAtom, r.SymAtom, r.UnfoldAtom)
	}
	if e.AtomName(r.ConvAtom) != ":conv" {
		t.Fatalf("ConvAtom did not intern to \":conv\"")
	}
}
