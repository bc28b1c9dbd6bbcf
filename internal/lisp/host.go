package lisp

// Host is the boundary the evaluator calls out through to reach the
// surrounding theorem environment (spec.md §6 "Consumed from the
// elaborator"). internal/env implements this; internal/lisp never imports
// internal/env, which is what lets the hard core compile standalone.
type Host interface {
	// GetAtom interns name, returning its (possibly freshly allocated) id.
	GetAtom(name string) AtomID
	// AtomName returns the interned name for an id.
	AtomName(AtomID) string
	// AtomLisp returns a global symbol's bound lisp value, if any.
	AtomLisp(AtomID) (FileSpan, LispVal, bool)
	// SetAtomLisp installs a,(possibly anonymous) top-level binding for an
	// atom; called by IR.Def when no enclosing scope can take the binding.
	SetAtomLisp(a AtomID, fsp FileSpan, v LispVal)
	// LocalVar reports whether a is a bound local-context variable and, if
	// so, whether it is a dummy (bound) variable and its sort.
	LocalVar(AtomID) (dummy bool, sort SortID, ok bool)
	// GetProof returns the stored proof value for a local hypothesis atom.
	GetProof(AtomID) (FileSpan, AtomID, LispVal, bool)
	// NewMVar allocates a fresh metavariable/goal placeholder.
	NewMVar(target InferTarget) LispVal
	MVars() []LispVal
	Goals() []LispVal
	SetGoals([]LispVal)
	// Report delivers a non-fatal diagnostic (display/print/info builtins).
	Report(pos Span, level string, message string)
	// Stringify renders a value for error/info messages (->string's "all
	// else pretty-printed" fallback; real pretty-printing is out of scope).
	Stringify(LispVal) string
	// FileSpan resolves a bare Span against the file currently being
	// evaluated.
	FileSpan(Span) FileSpan
}
