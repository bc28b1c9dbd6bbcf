package lisp

import (
	"math/big"
	"time"
)

// unwrapAnnot strips only Annot wrappers, stopping at a Ref cell rather
// than following it — used (through asRef) by ref->, set-ref!, insert!
// and insert-new!, which need the cell's identity, not its contents.
func unwrapAnnot(v LispVal) LispVal {
	for {
		if a, ok := v.(*Annot); ok {
			v = a.Val
			continue
		}
		return v
	}
}

func (e *Evaluator) asRef(sp Span, v LispVal) (*RefCell, error) {
	if r, ok := unwrapAnnot(v).(*RefCell); ok {
		return r, nil
	}
	return nil, e.errf(&sp, "not a ref-cell, cannot dereference")
}

func (e *Evaluator) asMap(sp Span, v LispVal) (*AtomMapVal, error) {
	if m, ok := Unwrap(v).(*AtomMapVal); ok {
		return m, nil
	}
	return nil, e.errf(&sp, "expected an atom map, got %s", e.stringify(v))
}

func (e *Evaluator) toStringVal(v LispVal) string {
	switch t := Unwrap(v).(type) {
	case *Str:
		return t.Val
	case *Atom:
		return e.Host.AtomName(t.ID)
	case *Number:
		return t.Val.String()
	default:
		return e.Host.Stringify(v)
	}
}

// evaluateBuiltin dispatches one already-arity-checked builtin call,
// mirroring the handlers generated by make_builtins! in the original 1:1.
func (e *Evaluator) evaluateBuiltin(sp1, sp2 Span, b BuiltinProc, args []LispVal) (State, error) {
	switch b {
	case BDisplay:
		s, err := e.asString(args[0])
		if err != nil {
			return nil, e.err(&sp1, err)
		}
		e.printInfo(sp1, "display", s)
		return &StRet{Val: UndefVal}, nil

	case BPrint:
		e.printInfo(sp1, "print", e.toStringVal(args[0]))
		return &StRet{Val: UndefVal}, nil

	case BError:
		s, err := e.asString(args[0])
		if err != nil {
			return nil, e.err(&sp1, err)
		}
		return nil, e.err(&sp1, Errorf("%s", s))

	case BApply:
		fn := args[0]
		mid := args[1 : len(args)-1]
		last := args[len(args)-1]
		if !IsPair(last) && !IsNull(last) {
			return nil, e.errf(&sp1, "apply: last argument is not a list")
		}
		spread := FromLisp(last).Elems()
		all := append(append([]LispVal(nil), mid...), spread...)
		return &StApp{Sp1: sp1, Sp2: sp2, Fn: fn, Acc: all}, nil

	case BBegin:
		if len(args) == 0 {
			return &StRet{Val: UndefVal}, nil
		}
		return &StRet{Val: args[len(args)-1]}, nil

	case BAdd:
		sum := big.NewInt(0)
		for _, a := range args {
			n, err := e.asInt(a)
			if err != nil {
				return nil, e.err(&sp1, err)
			}
			sum.Add(sum, n)
		}
		return &StRet{Val: &Number{Val: sum}}, nil

	case BMul:
		prod := big.NewInt(1)
		for _, a := range args {
			n, err := e.asInt(a)
			if err != nil {
				return nil, e.err(&sp1, err)
			}
			prod.Mul(prod, n)
		}
		return &StRet{Val: &Number{Val: prod}}, nil

	case BMax, BMin:
		first, err := e.asInt(args[0])
		if err != nil {
			return nil, e.err(&sp1, err)
		}
		best := new(big.Int).Set(first)
		for _, a := range args[1:] {
			n, err := e.asInt(a)
			if err != nil {
				return nil, e.err(&sp1, err)
			}
			if (b == BMax) == (n.Cmp(best) > 0) {
				best = n
			}
		}
		return &StRet{Val: &Number{Val: best}}, nil

	case BSub:
		first, err := e.asInt(args[0])
		if err != nil {
			return nil, e.err(&sp1, err)
		}
		if len(args) == 1 {
			return &StRet{Val: &Number{Val: new(big.Int).Neg(first)}}, nil
		}
		acc := new(big.Int).Set(first)
		for _, a := range args[1:] {
			n, err := e.asInt(a)
			if err != nil {
				return nil, e.err(&sp1, err)
			}
			acc.Sub(acc, n)
		}
		return &StRet{Val: &Number{Val: acc}}, nil

	case BDiv:
		first, err := e.asInt(args[0])
		if err != nil {
			return nil, e.err(&sp1, err)
		}
		if len(args) == 1 {
			return &StRet{Val: &Number{Val: new(big.Int).Set(first)}}, nil
		}
		acc := new(big.Int).Set(first)
		for _, a := range args[1:] {
			n, err := e.asInt(a)
			if err != nil {
				return nil, e.err(&sp1, err)
			}
			if n.Sign() == 0 {
				return nil, e.errf(&sp1, "division by zero")
			}
			acc.Quo(acc, n)
		}
		return &StRet{Val: &Number{Val: acc}}, nil

	case BMod:
		first, err := e.asInt(args[0])
		if err != nil {
			return nil, e.err(&sp1, err)
		}
		if len(args) == 1 {
			return &StRet{Val: &Number{Val: new(big.Int).Set(first)}}, nil
		}
		acc := new(big.Int).Set(first)
		for _, a := range args[1:] {
			n, err := e.asInt(a)
			if err != nil {
				return nil, e.err(&sp1, err)
			}
			if n.Sign() == 0 {
				return nil, e.errf(&sp1, "division by zero")
			}
			acc.Rem(acc, n)
		}
		return &StRet{Val: &Number{Val: acc}}, nil

	case BLt, BLe, BGt, BGe, BEq:
		var cmp func(a, c *big.Int) bool
		switch b {
		case BLt:
			cmp = func(a, c *big.Int) bool { return a.Cmp(c) < 0 }
		case BLe:
			cmp = func(a, c *big.Int) bool { return a.Cmp(c) <= 0 }
		case BGt:
			cmp = func(a, c *big.Int) bool { return a.Cmp(c) > 0 }
		case BGe:
			cmp = func(a, c *big.Int) bool { return a.Cmp(c) >= 0 }
		default:
			cmp = func(a, c *big.Int) bool { return a.Cmp(c) == 0 }
		}
		ok, err := e.intBoolBinop(cmp, args)
		if err != nil {
			return nil, e.err(&sp1, err)
		}
		return &StRet{Val: &Bool{Val: ok}}, nil

	case BToString:
		return &StRet{Val: &Str{Val: e.toStringVal(args[0])}}, nil

	case BStringToAtom:
		s, err := e.asString(args[0])
		if err != nil {
			return nil, e.err(&sp1, err)
		}
		return &StRet{Val: &Atom{ID: e.Host.GetAtom(s)}}, nil

	case BStringAppend:
		var out string
		for _, a := range args {
			s, err := e.asString(a)
			if err != nil {
				return nil, e.err(&sp1, err)
			}
			out += s
		}
		return &StRet{Val: &Str{Val: out}}, nil

	case BNot:
		if len(args) == 0 {
			return &StRet{Val: &Bool{Val: true}}, nil
		}
		return &StRet{Val: &Bool{Val: !Truthy(args[0])}}, nil

	case BAnd:
		var last LispVal = &Bool{Val: true}
		for _, a := range args {
			if !Truthy(a) {
				return &StRet{Val: &Bool{Val: false}}, nil
			}
			last = a
		}
		return &StRet{Val: last}, nil

	case BOr:
		for _, a := range args {
			if Truthy(a) {
				return &StRet{Val: a}, nil
			}
		}
		return &StRet{Val: &Bool{Val: false}}, nil

	case BList:
		return &StRet{Val: &List{Elems: append([]LispVal(nil), args...)}}, nil

	case BCons:
		return &StRet{Val: Cons(args)}, nil

	case BHead:
		v, err := Head(args[0])
		if err != nil {
			return nil, e.err(&sp1, err)
		}
		return &StRet{Val: v}, nil

	case BTail:
		v, err := Tail(args[0])
		if err != nil {
			return nil, e.err(&sp1, err)
		}
		return &StRet{Val: v}, nil

	case BMap:
		us := make([]Uncons, len(args)-1)
		for i, a := range args[1:] {
			us[i] = FromLisp(a)
		}
		return &StMapProc{Sp1: sp1, Sp2: sp2, Fn: args[0], Uncons: us}, nil

	case BIsBool:
		return &StRet{Val: &Bool{Val: IsBool(args[0])}}, nil
	case BIsAtom:
		return &StRet{Val: &Bool{Val: IsAtom(args[0])}}, nil
	case BIsPair:
		return &StRet{Val: &Bool{Val: IsPair(args[0])}}, nil
	case BIsNull:
		return &StRet{Val: &Bool{Val: IsNull(args[0])}}, nil
	case BIsNumber:
		return &StRet{Val: &Bool{Val: IsNumber(args[0])}}, nil
	case BIsString:
		return &StRet{Val: &Bool{Val: IsString(args[0])}}, nil
	case BIsProc:
		return &StRet{Val: &Bool{Val: IsProc(args[0])}}, nil
	case BIsDef:
		return &StRet{Val: &Bool{Val: IsDef(args[0])}}, nil
	case BIsRef:
		return &StRet{Val: &Bool{Val: IsRef(args[0])}}, nil

	case BNewRef:
		var v LispVal = UndefVal
		if len(args) > 0 {
			v = args[0]
		}
		return &StRet{Val: NewRef(v)}, nil

	case BGetRef:
		r, err := e.asRef(sp1, args[0])
		if err != nil {
			return nil, err
		}
		return &StRet{Val: r.Load()}, nil

	case BSetRef:
		r, err := e.asRef(sp1, args[0])
		if err != nil {
			return nil, err
		}
		r.Store(args[1])
		return &StRet{Val: UndefVal}, nil

	case BAsync:
		return &StApp{Sp1: sp1, Sp2: sp2, Fn: args[0], Acc: args[1:]}, nil

	case BIsAtomMap:
		return &StRet{Val: &Bool{Val: IsMap(args[0])}}, nil

	case BNewAtomMap:
		m := NewAtomMap()
		for _, a := range args {
			pair := FromLisp(a).Elems()
			if len(pair) != 1 && len(pair) != 2 {
				return nil, e.errf(&sp1, "atom-map!: expected (key) or (key value) entries")
			}
			k, err := e.asAtomOrString(pair[0])
			if err != nil {
				return nil, e.err(&sp1, err)
			}
			if len(pair) == 1 {
				delete(m.M, k)
				continue
			}
			m.M[k] = pair[1]
		}
		return &StRet{Val: m}, nil

	case BLookup:
		m, err := e.asMap(sp1, args[0])
		if err != nil {
			return nil, err
		}
		k, kerr := e.asAtomOrString(args[1])
		if kerr != nil {
			return nil, e.err(&sp1, kerr)
		}
		if v, ok := m.M[k]; ok {
			return &StRet{Val: v}, nil
		}
		if len(args) < 3 {
			return &StRet{Val: UndefVal}, nil
		}
		if IsProc(args[2]) {
			return &StApp{Sp1: sp1, Sp2: sp2, Fn: args[2]}, nil
		}
		return &StRet{Val: args[2]}, nil

	case BInsert, BInsertNew:
		r, err := e.asRef(sp1, args[0])
		if err != nil {
			return nil, err
		}
		m, merr := e.asMap(sp1, r.Load())
		if merr != nil {
			return nil, merr
		}
		k, kerr := e.asAtomOrString(args[1])
		if kerr != nil {
			return nil, e.err(&sp1, kerr)
		}
		if b == BInsertNew {
			if _, exists := m.M[k]; exists {
				return nil, e.errf(&sp1, "insert-new!: key already present")
			}
		}
		clone := m.Clone()
		if len(args) >= 3 {
			clone.M[k] = args[2]
		} else {
			delete(clone.M, k)
		}
		r.Store(clone)
		return &StRet{Val: UndefVal}, nil

	case BSetTimeout:
		n, err := e.asInt(args[0])
		if err != nil {
			return nil, e.err(&sp1, err)
		}
		d := time.Duration(n.Int64()) * time.Millisecond
		t := time.Now().Add(d)
		e.CurTimeout = &t
		return &StRet{Val: UndefVal}, nil

	case BIsMVar:
		return &StRet{Val: &Bool{Val: IsMVar(args[0])}}, nil
	case BIsGoal:
		return &StRet{Val: &Bool{Val: IsGoal(args[0])}}, nil

	case BNewMVar:
		target := TargetUnknown()
		if len(args) >= 1 {
			sort, err := e.asAtomOrString(args[0])
			if err != nil {
				return nil, e.err(&sp1, err)
			}
			target = TargetReg(sort)
			if len(args) >= 2 && Truthy(args[1]) {
				target = TargetBound(sort)
			}
		}
		return &StRet{Val: e.Host.NewMVar(target)}, nil

	case BPrettyPrint:
		e.printInfo(sp1, "pretty-print", "unimplemented")
		return &StRet{Val: UndefVal}, nil

	case BNewGoal:
		return &StRet{Val: &Goal{Target: args[0]}}, nil

	case BGoalType:
		v, ok := GoalType(args[0])
		if !ok {
			return nil, e.errf(&sp1, "expected a goal, got %s", e.stringify(args[0]))
		}
		return &StRet{Val: v}, nil

	case BInferType:
		e.printInfo(sp1, "infer-type", "unimplemented")
		return &StRet{Val: UndefVal}, nil

	case BGetMVars:
		return &StRet{Val: &List{Elems: e.Host.MVars()}}, nil

	case BGetGoals:
		return &StRet{Val: &List{Elems: e.Host.Goals()}}, nil

	case BSetGoals:
		e.Host.SetGoals(append([]LispVal(nil), args...))
		return &StRet{Val: UndefVal}, nil

	case BToExpr:
		e.printInfo(sp1, "to-expr", "unimplemented")
		return &StRet{Val: UndefVal}, nil

	case BRefine:
		e.printInfo(sp1, "refine", "unimplemented")
		return &StRet{Val: UndefVal}, nil

	case BHave:
		e.printInfo(sp1, "have", "unimplemented")
		return &StRet{Val: UndefVal}, nil

	case BStat:
		e.printInfo(sp1, "stat", "unimplemented")
		return &StRet{Val: UndefVal}, nil

	case BGetDecl:
		e.printInfo(sp1, "get-decl", "unimplemented")
		return &StRet{Val: UndefVal}, nil

	case BAddDecl, BAddTerm, BAddThm:
		e.printInfo(sp1, b.String(), "unimplemented")
		return &StRet{Val: UndefVal}, nil

	case BSetReporting:
		return &StRet{Val: UndefVal}, nil

	case BRefineExtraArgs:
		e.printInfo(sp1, "refine-extra-args", "unimplemented")
		return &StRet{Val: UndefVal}, nil
	}
	panic("unhandled builtin")
}
