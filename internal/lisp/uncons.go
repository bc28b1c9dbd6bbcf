package lisp

// Uncons is a cursor over a (possibly dotted) list. Each call to Next
// yields the next element; once the prefix is exhausted it keeps
// traversing through a DottedList's tail, recursively unwrapping.
type Uncons struct {
	cur LispVal
}

// FromLisp builds an Uncons cursor positioned at the head of v.
func FromLisp(v LispVal) Uncons { return Uncons{cur: v} }

// Next returns the next element, advancing the cursor, or false when the
// cursor has run out of list structure to offer.
func (u *Uncons) Next() (LispVal, bool) {
	switch t := Unwrap(u.cur).(type) {
	case *List:
		if len(t.Elems) == 0 {
			return nil, false
		}
		head := t.Elems[0]
		if len(t.Elems) == 1 {
			u.cur = NilVal
		} else {
			u.cur = &List{Elems: t.Elems[1:]}
		}
		return head, true
	case *DottedList:
		if len(t.Prefix) == 0 {
			u.cur = t.Tail
			return u.Next()
		}
		head := t.Prefix[0]
		if len(t.Prefix) == 1 {
			u.cur = t.Tail
		} else {
			u.cur = &DottedList{Prefix: t.Prefix[1:], Tail: t.Tail}
		}
		return head, true
	default:
		return nil, false
	}
}

// Exactly reports whether exactly n more elements remain with nothing
// left over (the cursor's residual must also be nil/empty).
func (u Uncons) Exactly(n int) bool {
	cur := u
	for i := 0; i < n; i++ {
		if _, ok := cur.Next(); !ok {
			return false
		}
	}
	_, more := cur.Next()
	return !more && IsNull(cur.cur)
}

// AtLeast reports whether at least n more elements remain.
func (u Uncons) AtLeast(n int) bool {
	cur := u
	for i := 0; i < n; i++ {
		if _, ok := cur.Next(); !ok {
			return false
		}
	}
	return true
}

// AsLisp returns the cursor's current residual as a lisp value (used when
// a dotted-list pattern's tail is matched against whatever is left).
func (u Uncons) AsLisp() LispVal { return u.cur }

// Elems drains the remaining elements into a slice (used by builtins that
// want the rest of a list, e.g. apply's tail-splice).
func (u Uncons) Elems() []LispVal {
	var out []LispVal
	cur := u
	for {
		e, ok := cur.Next()
		if !ok {
			break
		}
		out = append(out, e)
	}
	return out
}

// Tail implements the `tl` builtin: a doubling-chunked dotted-list view of
// the list/dotted-list's elements after the first, in O(log n) structure
// while remaining observationally equal to the flat tail (spec.md §4.1,
// §8 "tail-compaction"). Mirrors Evaluator::tail/exponential_backoff in
// the original 1:1.
func Tail(v LispVal) (LispVal, error) {
	switch t := Unwrap(v).(type) {
	case *List:
		if len(t.Elems) == 0 {
			return nil, DecodeErrorf("evaluating 'tl ()'")
		}
		return expBackoff(t.Elems, 1, func(v []LispVal) LispVal { return &List{Elems: v} }), nil
	case *DottedList:
		if len(t.Prefix) == 0 {
			return Tail(t.Tail)
		}
		tail := t.Tail
		return expBackoff(t.Prefix, 1, func(v []LispVal) LispVal { return &DottedList{Prefix: v, Tail: tail} }), nil
	default:
		return nil, DecodeErrorf("expected a list, got %v", v)
	}
}

func expBackoff(es []LispVal, i int, mk func([]LispVal) LispVal) LispVal {
	j := 2 * i
	if j >= len(es) {
		return mk(append([]LispVal(nil), es[i:]...))
	}
	rest := expBackoff(es, j, mk)
	return &DottedList{Prefix: append([]LispVal(nil), es[i:j]...), Tail: rest}
}

// Head implements the `hd` builtin.
func Head(v LispVal) (LispVal, error) {
	switch t := Unwrap(v).(type) {
	case *List:
		if len(t.Elems) == 0 {
			return nil, DecodeErrorf("evaluating 'hd ()'")
		}
		return t.Elems[0], nil
	case *DottedList:
		if len(t.Prefix) == 0 {
			return Head(t.Tail)
		}
		return t.Prefix[0], nil
	default:
		return nil, DecodeErrorf("expected a list, got %v", v)
	}
}

// Cons implements the `cons` builtin's shape-selection: zero args -> nil,
// one arg -> itself, else a dotted list of init elements onto the last.
func Cons(args []LispVal) LispVal {
	switch len(args) {
	case 0:
		return NilVal
	case 1:
		return args[0]
	default:
		init := append([]LispVal(nil), args[:len(args)-1]...)
		return &DottedList{Prefix: init, Tail: args[len(args)-1]}
	}
}
