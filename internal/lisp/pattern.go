package lisp

// patternMatch runs the pattern DFA to completion or until it hits a Test
// pattern, in which case it returns a *TestPending error and the caller
// (Evaluator.Run) must suspend into the outer machine to evaluate the test
// procedure before resuming. Mirrors Elaborator::pattern_match 1:1.
func patternMatch(stack *[]PatFrame, ctx []LispVal, active PatState) (bool, error) {
	for {
		switch st := active.(type) {
		case *PSEval:
			p, e := st.Pat, st.Val
			switch p.Kind {
			case PatSkip:
				active = &PSRet{B: true}
			case PatAtomBind:
				ctx[p.BindSlot] = e
				active = &PSRet{B: true}
			case PatQuoteAtom:
				a, ok := AsAtom(e)
				active = &PSRet{B: ok && a == p.Atom}
			case PatString:
				s, ok := AsString(e)
				active = &PSRet{B: ok && s == p.Str}
			case PatBool:
				b, ok := AsBool(e)
				active = &PSRet{B: ok && b == p.BoolV}
			case PatNumber:
				n, ok := AsInt(e)
				active = &PSRet{B: ok && p.Num != nil && n.Cmp(p.Num) == 0}
			case PatQExprAtom:
				active = &PSRet{B: matchQExprAtom(e, p.Atom)}
			case PatDottedList:
				active = &PSList{U: FromLisp(e), Rest: p.DotPats, Dot: Dot{Kind: DotTailPat, Tail: p.DotTail}}
			case PatList:
				dot := Dot{Kind: DotExact}
				if p.AtLeast != nil {
					dot = Dot{Kind: DotAtLeast, N: *p.AtLeast}
				}
				active = &PSList{U: FromLisp(e), Rest: p.List, Dot: dot}
			case PatAnd:
				active = &PSBinary{Or: false, Out: false, Val: e, Rest: p.Sub}
			case PatOr:
				active = &PSBinary{Or: true, Out: true, Val: e, Rest: p.Sub}
			case PatNot:
				active = &PSBinary{Or: true, Out: false, Val: e, Rest: p.Sub}
			case PatTest:
				*stack = append(*stack, &PFBinary{Or: false, Out: false, Val: e, Rest: p.TestSubPats})
				return false, &TestPending{Sp: p.TestSpan, ProcSlot: p.ProcSlot}
			}

		case *PSRet:
			if len(*stack) == 0 {
				return st.B, nil
			}
			top := (*stack)[len(*stack)-1]
			*stack = (*stack)[:len(*stack)-1]
			switch f := top.(type) {
			case *PFList:
				if st.B {
					active = &PSList{U: f.U, Rest: f.Rest, Dot: f.Dot}
				} else {
					active = &PSRet{B: false}
				}
			case *PFBinary:
				if st.B != f.Or { // success XOR or
					active = &PSBinary{Or: f.Or, Out: f.Out, Val: f.Val, Rest: f.Rest}
				} else {
					active = &PSRet{B: f.Out}
				}
			}

		case *PSList:
			if len(st.Rest) == 0 {
				switch st.Dot.Kind {
				case DotExact:
					active = &PSRet{B: st.U.Exactly(0)}
				case DotAtLeast:
					active = &PSRet{B: st.U.AtLeast(st.Dot.N)}
				default:
					active = &PSEval{Pat: st.Dot.Tail, Val: st.U.AsLisp()}
				}
				continue
			}
			p := st.Rest[0]
			rest := st.Rest[1:]
			u := st.U
			l, ok := u.Next()
			if !ok {
				active = &PSRet{B: false}
				continue
			}
			*stack = append(*stack, &PFList{U: u, Rest: rest, Dot: st.Dot})
			active = &PSEval{Pat: &p, Val: l}

		case *PSBinary:
			if len(st.Rest) == 0 {
				active = &PSRet{B: !st.Out}
				continue
			}
			p := st.Rest[0]
			rest := st.Rest[1:]
			*stack = append(*stack, &PFBinary{Or: st.Or, Out: st.Out, Val: st.Val, Rest: rest})
			active = &PSEval{Pat: &p, Val: st.Val}
		}
	}
}

func matchQExprAtom(e LispVal, a AtomID) bool {
	u := Unwrap(e)
	if at, ok := u.(*Atom); ok {
		return at.ID == a
	}
	if l, ok := u.(*List); ok && len(l.Elems) == 1 {
		if at, ok := Unwrap(l.Elems[0]).(*Atom); ok {
			return at.ID == a
		}
	}
	return false
}
