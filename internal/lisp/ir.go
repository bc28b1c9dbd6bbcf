package lisp

import "math/big"

// IR is the tree the evaluator reduces. It is produced by the surface
// parser (out of scope for this core); tests build it by hand.
//
// IR is a tagged union, expressed the Go way as a Kind discriminant plus
// the fields relevant to that kind, rather than as an interface with one
// concrete type per variant — the evaluator's State machine needs to hold
// a *IR across suspension points and match on its shape repeatedly, which
// a single flat struct makes cheap and allocation-free to do.
type IRKind int

const (
	IRLocal IRKind = iota
	IRGlobal
	IRConst
	IRList
	IRDottedList
	IRApp
	IRIf
	IRDef
	IREval
	IRLambda
	IRMatch
	IRFocus
)

type IR struct {
	Kind IRKind

	// IRLocal
	LocalIdx int

	// IRGlobal
	Span IRSpanFields
	Atom AtomID

	// IRConst
	Const LispVal

	// IRList / IREval
	List []IR

	// IRDottedList
	DotList []IR
	DotTail *IR

	// IRApp
	AppFn   *IR
	AppArgs []IR

	// IRIf
	IfCond, IfThen, IfElse *IR

	// IRDef
	DefName  *DefName
	DefVal   *IR

	// IRLambda
	LamSpec ProcSpec
	LamBody *IR

	// IRMatch / IRFocus
	MatchScrutinee *IR
	MatchBranches  []Branch
}

// IRSpanFields bundles the (sometimes two) spans an IR node carries: one
// for the node itself and, for App nodes, a second span for the function
// position (used when the callee isn't itself a symbol).
type IRSpanFields struct {
	Sp1, Sp2 Span
}

// DefName is the optional (span, name) pair on a Def node; nil means an
// anonymous top-level expression.
type DefName struct {
	Sp   Span
	Atom AtomID
}

func Local(i int) *IR                { return &IR{Kind: IRLocal, LocalIdx: i} }
func Global(sp Span, a AtomID) *IR   { return &IR{Kind: IRGlobal, Span: IRSpanFields{Sp1: sp}, Atom: a} }
func ConstIR(v LispVal) *IR          { return &IR{Kind: IRConst, Const: v} }
func ListIR(sp Span, es []IR) *IR    { return &IR{Kind: IRList, Span: IRSpanFields{Sp1: sp}, List: es} }
func DottedListIR(es []IR, tail *IR) *IR {
	return &IR{Kind: IRDottedList, DotList: es, DotTail: tail}
}
func AppIR(sp1, sp2 Span, fn *IR, args []IR) *IR {
	return &IR{Kind: IRApp, Span: IRSpanFields{Sp1: sp1, Sp2: sp2}, AppFn: fn, AppArgs: args}
}
func IfIR(cond, then, els *IR) *IR { return &IR{Kind: IRIf, IfCond: cond, IfThen: then, IfElse: els} }
func DefIR(name *DefName, val *IR) *IR {
	return &IR{Kind: IRDef, DefName: name, DefVal: val}
}
func EvalIR(es []IR) *IR { return &IR{Kind: IREval, List: es} }
func LambdaIR(sp Span, spec ProcSpec, body *IR) *IR {
	return &IR{Kind: IRLambda, Span: IRSpanFields{Sp1: sp}, LamSpec: spec, LamBody: body}
}
func MatchIR(sp Span, scrutinee *IR, brs []Branch) *IR {
	return &IR{Kind: IRMatch, Span: IRSpanFields{Sp1: sp}, MatchScrutinee: scrutinee, MatchBranches: brs}
}
func FocusIR(sp Span, e *IR) *IR {
	return &IR{Kind: IRFocus, Span: IRSpanFields{Sp1: sp}, MatchScrutinee: e}
}

// Branch is one arm of a match expression: a pattern, a body, the number
// of binder slots the pattern introduces, and whether it captures a match
// continuation (the @ marker in `(@ k pat)`).
type Branch struct {
	Pat  Pattern
	Eval IR
	Vars int
	Cont bool
}

// PatternKind discriminates Pattern's variants.
type PatternKind int

const (
	PatSkip PatternKind = iota
	PatAtomBind
	PatQuoteAtom
	PatString
	PatBool
	PatNumber
	PatQExprAtom
	PatList
	PatDottedList
	PatAnd
	PatOr
	PatNot
	PatTest
)

type Pattern struct {
	Kind PatternKind

	BindSlot int      // PatAtomBind
	Atom     AtomID   // PatQuoteAtom / PatQExprAtom
	Str      string   // PatString
	BoolV    bool     // PatBool
	Num      *big.Int // PatNumber

	// PatList: fixed (AtLeast == nil) or "at least n" tail policy
	List    []Pattern
	AtLeast *int

	// PatDottedList
	DotPats []Pattern
	DotTail *Pattern

	// PatAnd / PatOr / PatNot
	Sub []Pattern

	// PatTest: evaluate ctx[ProcSlot] on the candidate, then match SubPats
	// against it (per spec.md §3 PatternStack::Test semantics SubPats is
	// typically empty/unused beyond the boolean test, kept for symmetry
	// with the original Test(span, proc, [Pattern]) shape).
	TestSpan    Span
	ProcSlot    int
	TestSubPats []Pattern
}
