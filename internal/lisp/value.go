package lisp

import (
	"math/big"
	"sync"
)

// LispVal is a shared handle to a LispKind. Go's garbage collector gives us
// sharing for free where the original used Arc<LispKind>; the one place
// that still needs explicit care is LispVal.Ref, whose mutable cell can
// participate in a cycle (see Unwrap).
type LispVal interface {
	isLispVal()
}

// Atom is an interned identifier.
type Atom struct{ ID AtomID }

func (*Atom) isLispVal() {}

// Number is an arbitrary-precision integer.
type Number struct{ Val *big.Int }

func (*Number) isLispVal() {}

// Str is a lisp string.
type Str struct{ Val string }

func (*Str) isLispVal() {}

// Bool is a lisp boolean.
type Bool struct{ Val bool }

func (*Bool) isLispVal() {}

// Nil is the empty list atom '().
type Nil struct{}

func (*Nil) isLispVal() {}

// Undef is the "undefined" sentinel returned by side-effecting builtins.
type Undef struct{}

func (*Undef) isLispVal() {}

// List is a proper list.
type List struct{ Elems []LispVal }

func (*List) isLispVal() {}

// DottedList is an improper list (a b . r). Tail may itself be a List or
// DottedList, in which case this value is observationally equal to the
// flattened form (the concatenation invariant, spec.md §3).
type DottedList struct {
	Prefix []LispVal
	Tail   LispVal
}

func (*DottedList) isLispVal() {}

// ProcVal wraps a procedure: a builtin, a lambda closure, or a first-class
// match continuation handle.
type ProcVal struct{ Proc Proc }

func (*ProcVal) isLispVal() {}

// RefCell is a mutable, possibly-cyclic indirection cell. Mutations go
// through the mutex; reads elsewhere in the evaluator follow the chain via
// Unwrap.
type RefCell struct {
	mu  sync.Mutex
	Val LispVal
}

func NewRef(v LispVal) *RefCell { return &RefCell{Val: v} }

func (r *RefCell) Load() LispVal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Val
}

func (r *RefCell) Store(v LispVal) {
	r.mu.Lock()
	r.Val = v
	r.mu.Unlock()
}

func (*RefCell) isLispVal() {}

// AtomMapVal is a persistent-by-copy map from atoms to values. Mutation
// builtins (insert!, insert-new!) clone-then-write per the copy-on-write
// discipline in spec.md §4.1/§5, matching the Rust HashMap::clone() the
// original mutates through.
type AtomMapVal struct{ M map[AtomID]LispVal }

func NewAtomMap() *AtomMapVal { return &AtomMapVal{M: map[AtomID]LispVal{}} }

// Clone returns a deep-enough copy for copy-on-write mutation: a fresh map
// with the same value handles (values themselves are shared, only the
// map's own buckets are duplicated), exactly as Rust's derived Clone on
// HashMap<AtomID, LispVal> does for an Arc-valued map.
func (m *AtomMapVal) Clone() *AtomMapVal {
	n := make(map[AtomID]LispVal, len(m.M))
	for k, v := range m.M {
		n[k] = v
	}
	return &AtomMapVal{M: n}
}

func (*AtomMapVal) isLispVal() {}

// Annotation is metadata carried by Annot; currently only a source span is
// ever attached (see the evaluator's StList case).
type Annotation struct{ Span FileSpan }

// Annot wraps a value with a source span. Transparent to equality and to
// every accessor (spec.md §3 unwrapping invariant).
type Annot struct {
	Note Annotation
	Val  LispVal
}

func (*Annot) isLispVal() {}

// MVar is a metavariable placeholder produced by NewMVar.
type MVar struct {
	ID     int
	Target InferTarget
}

func (*MVar) isLispVal() {}

// Goal is an open goal: a value wrapping its target expression.
type Goal struct{ Target LispVal }

func (*Goal) isLispVal() {}

// UnparsedFormula is a deferred formula literal awaiting a parse the core
// does not perform (the surface parser is out of scope).
type UnparsedFormula struct{ Src string }

func (*UnparsedFormula) isLispVal() {}

// Shared singletons, mirroring UNDEF/NIL in the original.
var (
	UndefVal LispVal = &Undef{}
	NilVal   LispVal = &Nil{}
)

// Unwrap strips Annot wrappers and follows Ref cells to their stored value,
// per the spec.md §3 unwrapping invariant. It terminates on any acyclic
// chain; a Ref that (directly or indirectly) contains itself will spin
// forever, same as the original's unwrapped() would recurse forever on
// such a value — callers must not construct such cycles through Ref
// mutation without an intervening structural constructor.
func Unwrap(v LispVal) LispVal {
	for {
		switch t := v.(type) {
		case *Annot:
			v = t.Val
		case *RefCell:
			v = t.Load()
		default:
			return v
		}
	}
}

// Truthy reports whether v counts as true in a boolean context: everything
// except #f and #undef.
func Truthy(v LispVal) bool {
	switch t := Unwrap(v).(type) {
	case *Bool:
		return t.Val
	case *Undef:
		return false
	default:
		return true
	}
}

func AsAtom(v LispVal) (AtomID, bool) {
	if a, ok := Unwrap(v).(*Atom); ok {
		return a.ID, true
	}
	return 0, false
}

func AsInt(v LispVal) (*big.Int, bool) {
	if n, ok := Unwrap(v).(*Number); ok {
		return n.Val, true
	}
	return nil, false
}

func AsString(v LispVal) (string, bool) {
	if s, ok := Unwrap(v).(*Str); ok {
		return s.Val, true
	}
	return "", false
}

func AsBool(v LispVal) (bool, bool) {
	if b, ok := Unwrap(v).(*Bool); ok {
		return b.Val, true
	}
	return false, false
}

func IsBool(v LispVal) bool   { _, ok := Unwrap(v).(*Bool); return ok }
func IsAtom(v LispVal) bool   { _, ok := Unwrap(v).(*Atom); return ok }
func IsNumber(v LispVal) bool { _, ok := Unwrap(v).(*Number); return ok }
func IsString(v LispVal) bool { _, ok := Unwrap(v).(*Str); return ok }
func IsRef(v LispVal) bool    { _, ok := v.(*RefCell); return ok } // ref-identity check: no unwrap
func IsMap(v LispVal) bool    { _, ok := Unwrap(v).(*AtomMapVal); return ok }
func IsMVar(v LispVal) bool   { _, ok := Unwrap(v).(*MVar); return ok }
func IsGoal(v LispVal) bool   { _, ok := Unwrap(v).(*Goal); return ok }

func IsProc(v LispVal) bool {
	_, ok := Unwrap(v).(*ProcVal)
	return ok
}

// IsNull reports whether v is the empty list.
func IsNull(v LispVal) bool {
	switch t := Unwrap(v).(type) {
	case *Nil:
		return true
	case *List:
		return len(t.Elems) == 0
	default:
		return false
	}
}

// IsPair reports whether v is a non-empty list or a dotted list.
func IsPair(v LispVal) bool {
	switch t := Unwrap(v).(type) {
	case *List:
		return len(t.Elems) > 0
	case *DottedList:
		return true
	default:
		return false
	}
}

// IsDef reports whether v is anything other than Undef.
func IsDef(v LispVal) bool {
	_, ok := Unwrap(v).(*Undef)
	return !ok
}

func GoalType(v LispVal) (LispVal, bool) {
	if g, ok := Unwrap(v).(*Goal); ok {
		return g.Target, true
	}
	return nil, false
}
