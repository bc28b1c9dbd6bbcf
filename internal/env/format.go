package env

import (
	"strconv"
	"strings"

	"github.com/WORLDSTISSUESDAOSPORE1/mm0/internal/lisp"
)

// FormatValue is the ambient environment's pretty-printer: it backs
// Host.Stringify, the fallback case of the evaluator's ->string builtin
// for anything that isn't already a string/atom/number. Values are
// rendered as plain s-expressions, with atoms by name; it does no
// binder-aware pretty-printing (spec.md Non-goals).
func FormatValue(el *Elaborator, v lisp.LispVal) string {
	var b strings.Builder
	formatInto(&b, el, v)
	return b.String()
}

func formatInto(b *strings.Builder, el *Elaborator, v lisp.LispVal) {
	switch {
	case lisp.IsNull(v):
		b.WriteString("()")
	case lisp.IsAtom(v):
		a, _ := lisp.AsAtom(v)
		b.WriteString(el.AtomName(a))
	case lisp.IsString(v):
		s, _ := lisp.AsString(v)
		b.WriteByte('"')
		b.WriteString(s)
		b.WriteByte('"')
	case lisp.IsNumber(v):
		n, _ := lisp.AsInt(v)
		b.WriteString(n.String())
	case lisp.IsBool(v):
		bv, _ := lisp.AsBool(v)
		b.WriteString(strconv.FormatBool(bv))
	case lisp.IsMVar(v):
		b.WriteString("?m")
	case lisp.IsGoal(v):
		b.WriteString("(goal ")
		t, _ := lisp.GoalType(v)
		formatInto(b, el, t)
		b.WriteByte(')')
	case lisp.IsRef(v):
		b.WriteString("#<ref>")
	case lisp.IsMap(v):
		b.WriteString("#<atom-map>")
	case lisp.IsProc(v):
		b.WriteString("#<procedure>")
	case lisp.IsPair(v):
		formatPair(b, el, v)
	default:
		b.WriteString("#<undef>")
	}
}

func formatPair(b *strings.Builder, el *Elaborator, v lisp.LispVal) {
	b.WriteByte('(')
	u := lisp.FromLisp(v)
	first := true
	for {
		e, ok := u.Next()
		if !ok {
			break
		}
		if !first {
			b.WriteByte(' ')
		}
		first = false
		formatInto(b, el, e)
	}
	if rest := u.AsLisp(); !lisp.IsNull(rest) {
		b.WriteString(" . ")
		formatInto(b, el, rest)
	}
	b.WriteByte(')')
}
