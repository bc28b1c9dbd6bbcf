package lisp

import "sync/atomic"

// ProcSpec is a procedure's arity contract.
type ProcSpec struct {
	AtLeast bool // false => Exact(N), true => AtLeast(N)
	N       int
}

func Exact(n int) ProcSpec   { return ProcSpec{AtLeast: false, N: n} }
func AtLeastN(n int) ProcSpec { return ProcSpec{AtLeast: true, N: n} }

// Valid reports whether an argument count satisfies the spec.
func (s ProcSpec) Valid(n int) bool {
	if s.AtLeast {
		return n >= s.N
	}
	return n == s.N
}

// ProcPosKind discriminates ProcPos.
type ProcPosKind int

const (
	ProcPosUnnamed ProcPosKind = iota
	ProcPosNamed
)

// ProcPos records where a procedure was defined, for error traces: either
// a named top-level definition (def (f ...) ...) or an anonymous lambda.
type ProcPos struct {
	Kind ProcPosKind
	FSpan FileSpan
	Name  AtomID
}

func NamedPos(fsp FileSpan, a AtomID) ProcPos { return ProcPos{Kind: ProcPosNamed, FSpan: fsp, Name: a} }
func UnnamedPos(fsp FileSpan) ProcPos         { return ProcPos{Kind: ProcPosUnnamed, FSpan: fsp} }

// Lambda is a closure: captured environment, arity spec and a shared
// pointer to its IR body. The evaluator's Ret frame keeps its own handle
// to Body alive for the duration of a call so that a tail call replacing
// the frame in place never dangles (see Evaluator.apply's ProcLambda case).
type Lambda struct {
	Pos  ProcPos
	Env  []LispVal
	Spec ProcSpec
	Body *IR
}

// MatchContHandle is the shared, one-shot flag backing a first-class match
// continuation. Every continuation spawned by the same match shares the
// same handle: resuming any one of them invalidates all of them.
type MatchContHandle struct {
	valid atomic.Bool
}

func NewMatchContHandle() *MatchContHandle {
	h := &MatchContHandle{}
	h.valid.Store(true)
	return h
}

func (h *MatchContHandle) Valid() bool   { return h.valid.Load() }
func (h *MatchContHandle) Invalidate()   { h.valid.Store(false) }

// ProcKind discriminates Proc's variants.
type ProcKind int

const (
	ProcBuiltin ProcKind = iota
	ProcLambda
	ProcMatchCont
)

// Proc is a procedure value: a builtin dispatched by id, a lambda closure,
// or a one-shot match-continuation handle.
type Proc struct {
	Kind    ProcKind
	Builtin BuiltinProc
	Lambda  *Lambda
	Cont    *MatchContHandle
}

func (p Proc) Spec() ProcSpec {
	switch p.Kind {
	case ProcBuiltin:
		return p.Builtin.Spec()
	case ProcLambda:
		return p.Lambda.Spec
	default: // ProcMatchCont: takes exactly one argument, which is ignored; the match resumes with its original scrutinee
		return Exact(1)
	}
}

func MakeBuiltin(b BuiltinProc) LispVal {
	return &ProcVal{Proc: Proc{Kind: ProcBuiltin, Builtin: b}}
}

func MakeLambda(l *Lambda) LispVal {
	return &ProcVal{Proc: Proc{Kind: ProcLambda, Lambda: l}}
}

func MakeMatchCont(h *MatchContHandle) LispVal {
	return &ProcVal{Proc: Proc{Kind: ProcMatchCont, Cont: h}}
}
