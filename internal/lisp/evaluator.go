package lisp

import (
	"math/big"
	"time"
)

// Limits bounds the evaluator's resource guards (spec.md §4.1 "Timeouts
// and stack guards"); internal/config loads the defaults from YAML.
type Limits struct {
	MaxStackFrames int
	TimeoutCheckEvery uint8 // check the deadline every N steps of the `iters: u8` counter
}

func DefaultLimits() Limits {
	return Limits{MaxStackFrames: 1024, TimeoutCheckEvery: 0} // 0 => full u8 wraparound, as in the original
}

// Evaluator is an explicit, non-recursive state machine: Run drives `active`
// to a final State::Ret with no host call-stack growth proportional to the
// lisp program's call depth. One Evaluator is constructed per top-level
// entry point (eval, call, call-overridable), matching Evaluator::new in
// the original.
type Evaluator struct {
	Host   Host
	Ctx    []LispVal
	File   string
	orig   Span
	Stack  []Frame
	Limits Limits

	CorrelationID string
	CurTimeout    *time.Time

	iters uint8
}

// NewEvaluator constructs a fresh evaluator rooted at origSpan (used when
// the whole run fails before any frame provides a better position).
func NewEvaluator(host Host, file string, origSpan Span, limits Limits, corrID string) *Evaluator {
	return &Evaluator{Host: host, File: file, orig: origSpan, Limits: limits, CorrelationID: corrID}
}

// --- error trail construction, mirroring Evaluator::make_stack_err ---

func (e *Evaluator) fspan(sp Span) FileSpan { return FileSpan{File: e.File, Span: sp} }

func (e *Evaluator) procPos(sp Span) ProcPos {
	if len(e.Stack) > 0 {
		if d, ok := e.Stack[len(e.Stack)-1].(*FDef); ok && d.Name != nil {
			return NamedPos(e.fspan(d.Name.Sp), d.Name.Atom)
		}
	}
	return UnnamedPos(e.fspan(sp))
}

func (e *Evaluator) makeStackErr(sp *Span, kind Kind, base string, err error) *ElabError {
	type posLabel struct {
		fsp   FileSpan
		label string
	}
	var old *posLabel
	if sp != nil {
		old = &posLabel{fsp: e.fspan(*sp), label: base}
	}
	var info []Info
	for i := len(e.Stack) - 1; i >= 0; i-- {
		ret, ok := e.Stack[i].(*FRet)
		if !ok {
			continue
		}
		var fsp FileSpan
		var label string
		switch ret.Pos.Kind {
		case ProcPosNamed:
			fsp, label = ret.Pos.FSpan, e.Host.AtomName(ret.Pos.Name)+"()"
		default:
			fsp, label = ret.Pos.FSpan, "[fn]"
		}
		if old != nil {
			info = append(info, Info{FSpan: old.fsp, Label: old.label})
		}
		old = &posLabel{fsp: fsp, label: label}
	}
	pos := e.orig
	if old != nil {
		pos = old.fsp.Span
	}
	ee := &ElabError{Pos: pos, Kind: kind, Message: err.Error(), Trail: info, CorrelationID: e.CorrelationID, wrapped: err}
	return ee
}

func (e *Evaluator) err(sp *Span, msg error) *ElabError {
	return e.makeStackErr(sp, KindUser, "error occurred here", msg)
}

func (e *Evaluator) errf(sp *Span, format string, args ...interface{}) *ElabError {
	return e.err(sp, Errorf(format, args...))
}

func (e *Evaluator) printInfo(sp Span, base string, msg string) {
	ee := e.makeStackErr(&sp, KindUser, base, Errorf("%s", msg))
	e.Host.Report(ee.Pos, "info", ee.Message)
}

// --- public entry points ---

func Eval(host Host, file string, sp Span, ir *IR, limits Limits, corrID string) (LispVal, error) {
	return NewEvaluator(host, file, sp, limits, corrID).Run(&StEval{IR: ir})
}

func CallFunc(host Host, file string, sp Span, fn LispVal, args []LispVal, limits Limits, corrID string) (LispVal, error) {
	return NewEvaluator(host, file, sp, limits, corrID).Run(&StApp{Sp1: sp, Sp2: sp, Fn: fn, Acc: args})
}

func CallOverridable(host Host, file string, sp Span, b BuiltinProc, args []LispVal, limits Limits, corrID string) (LispVal, error) {
	a := host.GetAtom(b.String())
	val, ok := atomLispOrNil(host, a)
	if !ok {
		val = MakeBuiltin(b)
	}
	return CallFunc(host, file, sp, val, args, limits, corrID)
}

func atomLispOrNil(host Host, a AtomID) (LispVal, bool) {
	_, v, ok := host.AtomLisp(a)
	return v, ok
}

// Run drives the machine to completion.
func (e *Evaluator) Run(active State) (LispVal, error) {
	for {
		e.iters++
		if every := e.Limits.TimeoutCheckEvery; (every == 0 && e.iters == 0) || (every != 0 && e.iters%every == 0) {
			if e.CurTimeout != nil && e.CurTimeout.Before(time.Now()) {
				return nil, e.makeStackErr(nil, KindResource, "", Errorf("timeout"))
			}
		}
		if len(e.Stack) >= e.Limits.MaxStackFrames {
			return nil, e.makeStackErr(nil, KindResource, "", Errorf("stack overflow"))
		}

		next, err := e.step(active)
		if err != nil {
			return nil, err
		}
		if ret, ok := next.(*StRet); ok && len(e.Stack) == 0 {
			return ret.Val, nil
		}
		active = next
	}
}

// step performs one transition of the machine, mirroring the big match in
// the original's `run`.
func (e *Evaluator) step(active State) (State, error) {
	switch st := active.(type) {
	case *StEval:
		return e.stepEval(st.IR)

	case *StRet:
		return e.stepRet(st.Val)

	case *StList:
		if len(st.Rest) == 0 {
			return &StRet{Val: &Annot{Note: Annotation{Span: e.fspan(st.Sp)}, Val: &List{Elems: st.Acc}}}, nil
		}
		ir := &st.Rest[0]
		e.Stack = append(e.Stack, &FList{Sp: st.Sp, Acc: st.Acc, Rest: st.Rest[1:]})
		return &StEval{IR: ir}, nil

	case *StDottedList:
		if len(st.Rest) == 0 {
			e.Stack = append(e.Stack, &FDottedList2{Acc: st.Acc})
			return &StEval{IR: st.Tail}, nil
		}
		ir := &st.Rest[0]
		e.Stack = append(e.Stack, &FDottedList{Acc: st.Acc, Rest: st.Rest[1:], Tail: st.Tail})
		return &StEval{IR: ir}, nil

	case *StApp:
		if len(st.Rest) > 0 {
			ir := &st.Rest[0]
			e.Stack = append(e.Stack, &FApp2{Sp1: st.Sp1, Sp2: st.Sp2, Fn: st.Fn, Acc: st.Acc, Rest: st.Rest[1:]})
			return &StEval{IR: ir}, nil
		}
		return e.apply(st.Sp1, st.Sp2, st.Fn, st.Acc)

	case *StMatch:
		if len(st.Rest) == 0 {
			return nil, e.errf(&st.Sp, "match failed")
		}
		br := &st.Rest[0]
		vars := make([]LispVal, br.Vars)
		for i := range vars {
			vars[i] = UndefVal
		}
		return &StPattern{
			Sp: st.Sp, Scrutinee: st.Scrutinee, Rest: st.Rest[1:], Branch: br,
			PState: &PSEval{Pat: &br.Pat, Val: st.Scrutinee}, Vars: vars,
		}, nil

	case *StPattern:
		ok, err := patternMatch(&st.PStack, st.Vars, st.PState)
		if err != nil {
			if tp, isTP := err.(*TestPending); isTP {
				e.Stack = append(e.Stack, &FTestPattern{
					Sp: st.Sp, Scrutinee: st.Scrutinee, Rest: st.Rest, Branch: st.Branch,
					PStack: st.PStack, Vars: st.Vars,
				})
				return &StApp{Sp1: tp.Sp, Sp2: tp.Sp, Fn: e.Ctx[tp.ProcSlot], Acc: []LispVal{st.Scrutinee}}, nil
			}
			return nil, err
		}
		if !ok {
			return &StMatch{Sp: st.Sp, Scrutinee: st.Scrutinee, Rest: st.Rest}, nil
		}
		start := len(e.Ctx)
		e.Ctx = append(e.Ctx, st.Vars...)
		if st.Branch.Cont {
			handle := NewMatchContHandle()
			e.Ctx = append(e.Ctx, MakeMatchCont(handle))
			e.Stack = append(e.Stack, &FMatchCont{Sp: st.Sp, Scrutinee: st.Scrutinee, Rest: st.Rest, Handle: handle})
		}
		e.Stack = append(e.Stack, &FDrop{N: start})
		return &StEval{IR: &st.Branch.Eval}, nil

	case *StMapProc:
		if len(st.Uncons) == 0 {
			return &StRet{Val: &List{Elems: st.Acc}}, nil
		}
		u0 := st.Uncons[0]
		e0, ok := u0.Next()
		if !ok {
			st.Uncons[0] = u0
			if !u0.Exactly(0) {
				return nil, e.errf(&st.Sp1, "mismatched input length")
			}
			for _, u := range st.Uncons[1:] {
				if !u.Exactly(0) {
					return nil, e.errf(&st.Sp1, "mismatched input length")
				}
			}
			return &StRet{Val: &List{Elems: st.Acc}}, nil
		}
		args := []LispVal{e0}
		us := make([]Uncons, len(st.Uncons))
		us[0] = u0
		for i := 1; i < len(st.Uncons); i++ {
			u := st.Uncons[i]
			ei, ok := u.Next()
			if !ok {
				return nil, e.errf(&st.Sp1, "mismatched input length")
			}
			us[i] = u
			args = append(args, ei)
		}
		e.Stack = append(e.Stack, &FMapProc{Sp1: st.Sp1, Sp2: st.Sp2, Fn: st.Fn, Uncons: us, Acc: st.Acc})
		return &StApp{Sp1: st.Sp1, Sp2: st.Sp2, Fn: st.Fn, Acc: args}, nil
	}
	panic("unhandled state")
}

func (e *Evaluator) stepEval(ir *IR) (State, error) {
	switch ir.Kind {
	case IRLocal:
		return &StRet{Val: e.Ctx[ir.LocalIdx]}, nil
	case IRGlobal:
		fsp, v, ok := e.Host.AtomLisp(ir.Atom)
		_ = fsp
		if ok {
			return &StRet{Val: v}, nil
		}
		name := e.Host.AtomName(ir.Atom)
		b, isBuiltin := BuiltinFromName(name)
		if !isBuiltin {
			return nil, e.errf(&ir.Span.Sp1, "Reference to unbound variable '%s'", name)
		}
		val := MakeBuiltin(b)
		e.Host.SetAtomLisp(ir.Atom, FileSpan{}, val)
		return &StRet{Val: val}, nil
	case IRConst:
		return &StRet{Val: ir.Const}, nil
	case IRList:
		return &StList{Sp: ir.Span.Sp1, Rest: ir.List}, nil
	case IRDottedList:
		return &StDottedList{Rest: ir.DotList, Tail: ir.DotTail}, nil
	case IRApp:
		e.Stack = append(e.Stack, &FApp{Sp1: ir.Span.Sp1, Sp2: ir.Span.Sp2, Rest: ir.AppArgs})
		return &StEval{IR: ir.AppFn}, nil
	case IRIf:
		e.Stack = append(e.Stack, &FIf{Then: ir.IfThen, Else: ir.IfElse})
		return &StEval{IR: ir.IfCond}, nil
	case IRFocus:
		e.printInfo(ir.Span.Sp1, "focus", "unimplemented")
		return &StRet{Val: UndefVal}, nil
	case IRDef:
		e.Stack = append(e.Stack, &FDef{Name: ir.DefName})
		return &StEval{IR: ir.DefVal}, nil
	case IREval:
		if len(ir.List) == 0 {
			return &StRet{Val: UndefVal}, nil
		}
		e.Stack = append(e.Stack, &FEval{Rest: ir.List[1:]})
		return &StEval{IR: &ir.List[0]}, nil
	case IRLambda:
		l := &Lambda{Pos: e.procPos(ir.Span.Sp1), Env: append([]LispVal(nil), e.Ctx...), Spec: ir.LamSpec, Body: ir.LamBody}
		return &StRet{Val: MakeLambda(l)}, nil
	case IRMatch:
		e.Stack = append(e.Stack, &FMatch{Sp: ir.Span.Sp1, Rest: ir.MatchBranches})
		return &StEval{IR: ir.MatchScrutinee}, nil
	}
	panic("unhandled IR kind")
}

func (e *Evaluator) stepRet(ret LispVal) (State, error) {
	if len(e.Stack) == 0 {
		return &StRet{Val: ret}, nil
	}
	f := e.Stack[len(e.Stack)-1]
	e.Stack = e.Stack[:len(e.Stack)-1]
	switch fr := f.(type) {
	case *FList:
		return &StList{Sp: fr.Sp, Acc: append(fr.Acc, ret), Rest: fr.Rest}, nil
	case *FDottedList:
		return &StDottedList{Acc: append(fr.Acc, ret), Rest: fr.Rest, Tail: fr.Tail}, nil
	case *FDottedList2:
		if len(fr.Acc) == 0 {
			return &StRet{Val: ret}, nil
		}
		switch t := ret.(type) {
		case *List:
			return &StRet{Val: &List{Elems: append(append([]LispVal(nil), fr.Acc...), t.Elems...)}}, nil
		case *DottedList:
			return &StRet{Val: &DottedList{Prefix: append(append([]LispVal(nil), fr.Acc...), t.Prefix...), Tail: t.Tail}}, nil
		default:
			return &StRet{Val: &DottedList{Prefix: fr.Acc, Tail: ret}}, nil
		}
	case *FApp:
		return &StApp{Sp1: fr.Sp1, Sp2: fr.Sp2, Fn: ret, Rest: fr.Rest}, nil
	case *FApp2:
		return &StApp{Sp1: fr.Sp1, Sp2: fr.Sp2, Fn: fr.Fn, Acc: append(fr.Acc, ret), Rest: fr.Rest}, nil
	case *FIf:
		if Truthy(ret) {
			return &StEval{IR: fr.Then}, nil
		}
		return &StEval{IR: fr.Else}, nil
	case *FDef:
		if len(e.Stack) == 0 {
			if fr.Name != nil {
				e.Host.SetAtomLisp(fr.Name.Atom, e.fspan(fr.Name.Sp), ret)
			}
			return &StRet{Val: UndefVal}, nil
		}
		top := e.Stack[len(e.Stack)-1]
		if top.SupportsDef() {
			e.Stack = e.Stack[:len(e.Stack)-1]
			e.Stack = append(e.Stack, &FDrop{N: len(e.Ctx)}, top)
			e.Ctx = append(e.Ctx, ret)
		} else if fr.Name != nil {
			e.Host.SetAtomLisp(fr.Name.Atom, e.fspan(fr.Name.Sp), ret)
		}
		return &StRet{Val: UndefVal}, nil
	case *FEval:
		if len(fr.Rest) == 0 {
			return &StRet{Val: ret}, nil
		}
		ir := &fr.Rest[0]
		e.Stack = append(e.Stack, &FEval{Rest: fr.Rest[1:]})
		return &StEval{IR: ir}, nil
	case *FMatch:
		return &StMatch{Sp: fr.Sp, Scrutinee: ret, Rest: fr.Rest}, nil
	case *FTestPattern:
		return &StPattern{
			Sp: fr.Sp, Scrutinee: fr.Scrutinee, Rest: fr.Rest, Branch: fr.Branch,
			PStack: fr.PStack, Vars: fr.Vars, PState: &PSRet{B: Truthy(ret)},
		}, nil
	case *FDrop:
		e.Ctx = e.Ctx[:fr.N]
		return &StRet{Val: ret}, nil
	case *FRet:
		e.File = fr.FSpan.File
		e.Ctx = fr.OldCtx
		return &StRet{Val: ret}, nil
	case *FMatchCont:
		fr.Handle.Invalidate()
		return &StRet{Val: ret}, nil
	case *FMapProc:
		return &StMapProc{Sp1: fr.Sp1, Sp2: fr.Sp2, Fn: fr.Fn, Uncons: fr.Uncons, Acc: append(fr.Acc, ret)}, nil
	}
	panic("unhandled frame kind")
}

// apply unwraps the callee to a Proc and dispatches it against evaluated
// arguments: builtin table, lambda closure with tail-call elision, or a
// match continuation resume.
func (e *Evaluator) apply(sp1, sp2 Span, fn LispVal, args []LispVal) (State, error) {
	pv, ok := Unwrap(fn).(*ProcVal)
	if !ok {
		return nil, e.errf(&sp1, "not a function, cannot apply")
	}
	proc := pv.Proc
	spec := proc.Spec()
	if !spec.Valid(len(args)) {
		if spec.AtLeast {
			return nil, e.errf(&sp1, "expected at least %d argument(s)", spec.N)
		}
		return nil, e.errf(&sp1, "expected %d argument(s)", spec.N)
	}

	switch proc.Kind {
	case ProcBuiltin:
		return e.evaluateBuiltin(sp1, sp2, proc.Builtin, args)

	case ProcLambda:
		l := proc.Lambda
		if len(e.Stack) > 0 {
			if top, isRet := e.Stack[len(e.Stack)-1].(*FRet); isRet {
				// tail call: replace the Ret frame in place
				e.Stack[len(e.Stack)-1] = &FRet{FSpan: top.FSpan, Pos: l.Pos, OldCtx: top.OldCtx, Body: l.Body}
				e.Ctx = append([]LispVal(nil), l.Env...)
			} else {
				e.Stack = append(e.Stack, &FRet{FSpan: e.fspan(sp1), Pos: l.Pos, OldCtx: e.Ctx, Body: l.Body})
				e.Ctx = append([]LispVal(nil), l.Env...)
			}
		} else {
			e.Stack = append(e.Stack, &FRet{FSpan: e.fspan(sp1), Pos: l.Pos, OldCtx: e.Ctx, Body: l.Body})
			e.Ctx = append([]LispVal(nil), l.Env...)
		}
		e.File = l.Pos.FSpan.File
		// No FDrop here: FRet.OldCtx already restores the caller's Ctx when
		// this call returns, and leaving the tail-call check's target frame
		// (*FRet) exactly on top of the stack is what lets a self-tail-call
		// replace it in place above instead of growing the control stack.
		if spec.AtLeast {
			n := spec.N
			e.Ctx = append(e.Ctx, args[:n]...)
			e.Ctx = append(e.Ctx, &List{Elems: append([]LispVal(nil), args[n:]...)})
		} else {
			e.Ctx = append(e.Ctx, args...)
		}
		return &StEval{IR: l.Body}, nil

	default: // ProcMatchCont
		handle := proc.Cont
		if !handle.Valid() {
			return nil, e.errf(&sp2, "continuation has expired")
		}
		for {
			if len(e.Stack) == 0 {
				return nil, e.errf(&sp2, "continuation has expired")
			}
			top := e.Stack[len(e.Stack)-1]
			e.Stack = e.Stack[:len(e.Stack)-1]
			switch fr := top.(type) {
			case *FMatchCont:
				fr.Handle.Invalidate()
				if fr.Handle == handle {
					return &StMatch{Sp: fr.Sp, Scrutinee: fr.Scrutinee, Rest: fr.Rest}, nil
				}
			case *FDrop:
				e.Ctx = e.Ctx[:fr.N]
			case *FRet:
				e.File = fr.FSpan.File
				e.Ctx = fr.OldCtx
			}
		}
	}
}

func (e *Evaluator) asString(v LispVal) (string, error) {
	if s, ok := AsString(v); ok {
		return s, nil
	}
	return "", Errorf("expected a string, got %s", e.stringify(v))
}

func (e *Evaluator) asInt(v LispVal) (*big.Int, error) {
	if n, ok := AsInt(v); ok {
		return n, nil
	}
	return nil, Errorf("expected a integer, got %s", e.stringify(v))
}

func (e *Evaluator) asAtomOrString(v LispVal) (AtomID, error) {
	u := Unwrap(v)
	switch t := u.(type) {
	case *Str:
		return e.Host.GetAtom(t.Val), nil
	case *Atom:
		return t.ID, nil
	default:
		return 0, Errorf("expected an atom, got %s", e.stringify(v))
	}
}

func (e *Evaluator) stringify(v LispVal) string { return e.Host.Stringify(v) }

func (e *Evaluator) intBoolBinop(f func(a, b *big.Int) bool, args []LispVal) (bool, error) {
	last, err := e.asInt(args[0])
	if err != nil {
		return false, err
	}
	for _, v := range args[1:] {
		n, err := e.asInt(v)
		if err != nil {
			return false, err
		}
		if !f(last, n) {
			return false, nil
		}
		last = n
	}
	return true, nil
}
