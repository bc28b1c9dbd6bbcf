package lisp

import (
	"math/big"
	"testing"
)

// testHost is a minimal Host good enough to drive the evaluator in
// isolation, the way funxy's own evaluator tests build a bare Environment
// rather than a whole pipeline.
type testHost struct {
	names   []string
	ids     map[string]AtomID
	lispVal map[AtomID]LispVal
	reports []string
}

func newTestHost() *testHost {
	return &testHost{ids: map[string]AtomID{}, lispVal: map[AtomID]LispVal{}}
}

func (h *testHost) GetAtom(name string) AtomID {
	if id, ok := h.ids[name]; ok {
		return id
	}
	id := AtomID(len(h.names))
	h.names = append(h.names, name)
	h.ids[name] = id
	return id
}
func (h *testHost) AtomName(a AtomID) string { return h.names[a] }
func (h *testHost) AtomLisp(a AtomID) (FileSpan, LispVal, bool) {
	v, ok := h.lispVal[a]
	return FileSpan{}, v, ok
}
func (h *testHost) SetAtomLisp(a AtomID, fsp FileSpan, v LispVal) { h.lispVal[a] = v }
func (h *testHost) LocalVar(AtomID) (bool, SortID, bool)          { return false, 0, false }
func (h *testHost) GetProof(AtomID) (FileSpan, AtomID, LispVal, bool) {
	return FileSpan{}, 0, nil, false
}
func (h *testHost) NewMVar(t InferTarget) LispVal { return &MVar{Target: t} }
func (h *testHost) MVars() []LispVal              { return nil }
func (h *testHost) Goals() []LispVal              { return nil }
func (h *testHost) SetGoals([]LispVal)            {}
func (h *testHost) Report(pos Span, level, msg string) {
	h.reports = append(h.reports, level+":"+msg)
}
func (h *testHost) Stringify(v LispVal) string     { return "#<val>" }
func (h *testHost) FileSpan(sp Span) FileSpan      { return FileSpan{File: "<test>", Span: sp} }

var _ Host = (*testHost)(nil)

func num(n int64) *IR { return ConstIR(&Number{Val: big.NewInt(n)}) }

func global(h *testHost, b BuiltinProc) *IR {
	a := h.GetAtom(b.String())
	h.SetAtomLisp(a, FileSpan{}, MakeBuiltin(b))
	return Global(Span{}, a)
}

func mustInt(t *testing.T, v LispVal) *big.Int {
	t.Helper()
	n, ok := AsInt(v)
	if !ok {
		t.Fatalf("expected a number, got %#v", v)
	}
	return n
}

func runEval(t *testing.T, h *testHost, ir *IR) LispVal {
	t.Helper()
	v, err := Eval(h, "<test>", Span{}, ir, DefaultLimits(), "test-corr")
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	return v
}

func TestArithmetic(t *testing.T) {
	h := newTestHost()
	// (+ 1 2 (* 3 4)) => 15
	mul := AppIR(Span{}, Span{}, global(h, BMul), []IR{*num(3), *num(4)})
	ir := AppIR(Span{}, Span{}, global(h, BAdd), []IR{*num(1), *num(2), *mul})
	got := mustInt(t, runEval(t, h, ir))
	if got.Int64() != 15 {
		t.Fatalf("got %s, want 15", got)
	}
}

func TestDivisionByZero(t *testing.T) {
	h := newTestHost()
	ir := AppIR(Span{}, Span{}, global(h, BDiv), []IR{*num(1), *num(0)})
	_, err := Eval(h, "<test>", Span{}, ir, DefaultLimits(), "corr")
	if err == nil {
		t.Fatalf("expected a division-by-zero error")
	}
}

// TestFactorial exercises non-tail recursion: self-reference through a
// global atom Def installs before the recursive Eval runs, and the
// recursive call sits inside (* n (f (- n 1))), not in tail position.
func TestFactorial(t *testing.T) {
	h := newTestHost()
	factAtom := h.GetAtom("fact")
	self := Global(Span{}, factAtom)
	arg := Local(0)
	cond := AppIR(Span{}, Span{}, global(h, BEq), []IR{*arg, *num(0)})
	recArg := AppIR(Span{}, Span{}, global(h, BSub), []IR{*arg, *num(1)})
	rec := AppIR(Span{}, Span{}, self, []IR{*recArg})
	body := IfIR(cond, num(1), AppIR(Span{}, Span{}, global(h, BMul), []IR{*arg, *rec}))
	lam := LambdaIR(Span{}, Exact(1), body)
	def := DefIR(&DefName{Atom: factAtom}, lam)

	if _, err := Eval(h, "<test>", Span{}, def, DefaultLimits(), "c1"); err != nil {
		t.Fatalf("installing fact failed: %v", err)
	}
	call := AppIR(Span{}, Span{}, self, []IR{*num(10)})
	got := mustInt(t, runEval(t, h, call))
	want := big.NewInt(3628800)
	if got.Cmp(want) != 0 {
		t.Fatalf("got %s, want %s", got, want)
	}
}

// TestTailLoopDoesNotOverflow exercises tail-call elision: a self-call in
// tail position must not grow the evaluator's control stack past a few
// frames no matter how many iterations run, per the evaluator's explicit,
// non-recursive control-stack design.
func TestTailLoopDoesNotOverflow(t *testing.T) {
	h := newTestHost()
	loopAtom := h.GetAtom("count-up")
	self := Global(Span{}, loopAtom)
	arg := Local(0)
	cond := AppIR(Span{}, Span{}, global(h, BGe), []IR{*arg, *num(100000)})
	next := AppIR(Span{}, Span{}, global(h, BAdd), []IR{*arg, *num(1)})
	body := IfIR(cond, arg, AppIR(Span{}, Span{}, self, []IR{*next}))
	lam := LambdaIR(Span{}, Exact(1), body)
	def := DefIR(&DefName{Atom: loopAtom}, lam)

	limits := Limits{MaxStackFrames: 64} // small on purpose: TCO must keep depth flat
	if _, err := Eval(h, "<test>", Span{}, def, limits, "c1"); err != nil {
		t.Fatalf("installing loop failed: %v", err)
	}
	call := AppIR(Span{}, Span{}, self, []IR{*num(0)})
	v, err := Eval(h, "<test>", Span{}, call, limits, "c2")
	if err != nil {
		t.Fatalf("loop failed: %v", err)
	}
	got := mustInt(t, v)
	if got.Int64() != 100000 {
		t.Fatalf("got %s, want 100000", got)
	}
}

func TestMatchTestPattern(t *testing.T) {
	h := newTestHost()
	isPos := LambdaIR(Span{}, Exact(1), AppIR(Span{}, Span{}, global(h, BGt), []IR{*Local(0), *num(0)}))
	posAtom := h.GetAtom("positive")
	otherAtom := h.GetAtom("other")
	branches := []Branch{
		{Pat: Pattern{Kind: PatTest, ProcSlot: 0}, Eval: *ConstIR(&Atom{ID: posAtom})},
		{Pat: Pattern{Kind: PatSkip}, Eval: *ConstIR(&Atom{ID: otherAtom})},
	}
	match := MatchIR(Span{}, num(5), branches)
	wrap := LambdaIR(Span{}, Exact(1), match)
	ir := AppIR(Span{}, Span{}, wrap, []IR{*isPos})

	got := runEval(t, h, ir)
	a, ok := AsAtom(got)
	if !ok || a != posAtom {
		t.Fatalf("expected 'positive, got %#v", got)
	}
}

func TestMatchFallthrough(t *testing.T) {
	h := newTestHost()
	isPos := LambdaIR(Span{}, Exact(1), AppIR(Span{}, Span{}, global(h, BGt), []IR{*Local(0), *num(0)}))
	posAtom := h.GetAtom("positive")
	otherAtom := h.GetAtom("other")
	branches := []Branch{
		{Pat: Pattern{Kind: PatTest, ProcSlot: 0}, Eval: *ConstIR(&Atom{ID: posAtom})},
		{Pat: Pattern{Kind: PatSkip}, Eval: *ConstIR(&Atom{ID: otherAtom})},
	}
	match := MatchIR(Span{}, num(-1), branches)
	wrap := LambdaIR(Span{}, Exact(1), match)
	ir := AppIR(Span{}, Span{}, wrap, []IR{*isPos})

	got := runEval(t, h, ir)
	a, ok := AsAtom(got)
	if !ok || a != otherAtom {
		t.Fatalf("expected 'other, got %#v", got)
	}
}

func TestRefAndAtomMap(t *testing.T) {
	h := newTestHost()
	// (let ((m (ref! (atom-map!)))) (insert! m 'k 42) (lookup (ref-> m) 'k))
	kAtom := h.GetAtom("k")
	mkMap := AppIR(Span{}, Span{}, global(h, BNewAtomMap), nil)
	mkRef := AppIR(Span{}, Span{}, global(h, BNewRef), []IR{*mkMap})
	// bind ref at local 0 via a lambda taking it as an argument
	insert := AppIR(Span{}, Span{}, global(h, BInsert), []IR{*Local(0), *ConstIR(&Atom{ID: kAtom}), *num(42)})
	lookup := AppIR(Span{}, Span{}, global(h, BLookup),
		[]IR{*AppIR(Span{}, Span{}, global(h, BGetRef), []IR{*Local(0)}), *ConstIR(&Atom{ID: kAtom})})
	body := EvalIR([]IR{*insert, *lookup})
	lam := LambdaIR(Span{}, Exact(1), body)
	ir := AppIR(Span{}, Span{}, lam, []IR{*mkRef})

	got := mustInt(t, runEval(t, h, ir))
	if got.Int64() != 42 {
		t.Fatalf("got %s, want 42", got)
	}
}

func TestStringAndListBuiltins(t *testing.T) {
	h := newTestHost()
	ir := AppIR(Span{}, Span{}, global(h, BStringAppend),
		[]IR{*ConstIR(&Str{Val: "foo"}), *ConstIR(&Str{Val: "bar"})})
	got := runEval(t, h, ir)
	s, ok := AsString(got)
	if !ok || s != "foobar" {
		t.Fatalf("got %#v, want \"foobar\"", got)
	}

	listIR := ListIR(Span{}, []IR{*num(1), *num(2), *num(3)})
	headIR := AppIR(Span{}, Span{}, global(h, BHead), []IR{*listIR})
	got2 := mustInt(t, runEval(t, h, headIR))
	if got2.Int64() != 1 {
		t.Fatalf("got %s, want 1", got2)
	}
}
