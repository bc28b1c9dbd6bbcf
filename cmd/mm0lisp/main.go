// Command mm0lisp is a minimal driver for the lisp evaluator core: it
// wires internal/env's Elaborator up as a lisp.Host, builds a few
// hand-constructed IR programs (the surface parser that would normally
// produce IR from source text is out of scope here, per spec.md's
// Non-goals) and runs them through internal/lisp.Eval, printing the
// result the way funxy's own cmd/funxy prints a program's final value.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/big"
	"os"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"

	"github.com/WORLDSTISSUESDAOSPORE1/mm0/internal/config"
	"github.com/WORLDSTISSUESDAOSPORE1/mm0/internal/env"
	"github.com/WORLDSTISSUESDAOSPORE1/mm0/internal/lisp"
)

func main() {
	cfgPath := flag.String("config", "", "path to a mm0lisp.yaml config file")
	demo := flag.String("demo", "arith", "which built-in demo program to run: arith, factorial, loop, match")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
		cfg = loaded
	}

	logger := log.New(os.Stderr, "mm0lisp: ", log.LstdFlags)
	colorTTY := isatty.IsTerminal(os.Stdout.Fd())

	e := env.NewEnvironment()
	el := env.NewElaborator(e, "<demo>", logger)

	forms, err := buildDemo(el, *demo)
	if err != nil {
		log.Fatalf("unknown demo %q: %v", *demo, err)
	}

	// Each top-level form runs through its own Eval call, exactly as a
	// REPL or file processor feeds one form at a time: a Def whose FDef
	// frame pops with a genuinely empty control stack installs its value
	// as a global, visible to every subsequent form's Host.AtomLisp
	// lookups (see internal/lisp/evaluator.go's FDef handling).
	var result lisp.LispVal
	corrID := uuid.NewString()
	for _, form := range forms {
		result, err = lisp.Eval(el, "<demo>", lisp.Span{}, form, cfg.Limits.ToLispLimits(), corrID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error [%s]: %v\n", corrID, err)
			os.Exit(1)
		}
	}

	out := env.FormatValue(el, result)
	if colorTTY {
		fmt.Printf("=> \033[1m%s\033[0m\n", out)
	} else {
		fmt.Printf("=> %s\n", out)
	}
	for _, d := range el.Diagnostics {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", d.Level, d.Message)
	}
}

// buildDemo hand-assembles the top-level forms of one illustrative
// program as a sequence of IR trees, standing in for what a
// surface-syntax parser would produce from source text one form at a
// time.
func buildDemo(el *env.Elaborator, name string) ([]*lisp.IR, error) {
	num := func(n int64) *lisp.IR { return lisp.ConstIR(&lisp.Number{Val: big.NewInt(n)}) }

	switch name {
	case "arith":
		// (+ 1 2 (* 3 4))
		mul := lisp.AppIR(lisp.Span{}, lisp.Span{}, constBuiltin(el, lisp.BMul), []lisp.IR{*num(3), *num(4)})
		return []*lisp.IR{
			lisp.AppIR(lisp.Span{}, lisp.Span{}, constBuiltin(el, lisp.BAdd), []lisp.IR{*num(1), *num(2), *mul}),
		}, nil

	case "factorial":
		// (def (f n) (if (= n 0) 1 (* n (f (- n 1))))) (f 10)
		// Self-reference goes through the global "fact" binding rather than a
		// captured local: IRGlobal re-reads Host.AtomLisp on every call, so by
		// the time the body's recursive call runs, a prior, already-completed
		// top-level Eval of the Def has installed the finished lambda there.
		factAtom := el.GetAtom("fact")
		self := lisp.Global(lisp.Span{}, factAtom)
		arg := lisp.Local(0)
		cond := lisp.AppIR(lisp.Span{}, lisp.Span{}, constBuiltin(el, lisp.BEq), []lisp.IR{*arg, *num(0)})
		recurseArg := lisp.AppIR(lisp.Span{}, lisp.Span{}, constBuiltin(el, lisp.BSub), []lisp.IR{*arg, *num(1)})
		recurse := lisp.AppIR(lisp.Span{}, lisp.Span{}, self, []lisp.IR{*recurseArg})
		body := lisp.IfIR(cond, num(1), lisp.AppIR(lisp.Span{}, lisp.Span{}, constBuiltin(el, lisp.BMul), []lisp.IR{*arg, *recurse}))
		lam := lisp.LambdaIR(lisp.Span{}, lisp.Exact(1), body)
		def := lisp.DefIR(&lisp.DefName{Atom: factAtom}, lam)
		call := lisp.AppIR(lisp.Span{}, lisp.Span{}, self, []lisp.IR{*num(10)})
		return []*lisp.IR{def, call}, nil

	case "loop":
		// a tail-recursive count to 100000, exercising the evaluator's
		// tail-call elision instead of host call-stack growth.
		loopAtom := el.GetAtom("count-up")
		self := lisp.Global(lisp.Span{}, loopAtom)
		arg := lisp.Local(0)
		cond := lisp.AppIR(lisp.Span{}, lisp.Span{}, constBuiltin(el, lisp.BGe), []lisp.IR{*arg, *num(100000)})
		next := lisp.AppIR(lisp.Span{}, lisp.Span{}, constBuiltin(el, lisp.BAdd), []lisp.IR{*arg, *num(1)})
		body := lisp.IfIR(cond, arg, lisp.AppIR(lisp.Span{}, lisp.Span{}, self, []lisp.IR{*next}))
		lam := lisp.LambdaIR(lisp.Span{}, lisp.Exact(1), body)
		def := lisp.DefIR(&lisp.DefName{Atom: loopAtom}, lam)
		call := lisp.AppIR(lisp.Span{}, lisp.Span{}, self, []lisp.IR{*num(0)})
		return []*lisp.IR{def, call}, nil

	case "match":
		// (match 5 ((test (lambda (x) (> x 0))) 'positive) (_ 'other))
		// The test procedure is threaded in as the enclosing lambda's sole
		// argument so it lands at ctx slot 0, which is where a PatTest
		// pattern's ProcSlot looks it up (evaluator.go's *StPattern case).
		isPos := lisp.LambdaIR(lisp.Span{}, lisp.Exact(1),
			lisp.AppIR(lisp.Span{}, lisp.Span{}, constBuiltin(el, lisp.BGt), []lisp.IR{*lisp.Local(0), *num(0)}))
		posAtom := el.GetAtom("positive")
		otherAtom := el.GetAtom("other")
		branches := []lisp.Branch{
			{Pat: lisp.Pattern{Kind: lisp.PatTest, ProcSlot: 0}, Eval: *lisp.ConstIR(&lisp.Atom{ID: posAtom}), Vars: 0},
			{Pat: lisp.Pattern{Kind: lisp.PatSkip}, Eval: *lisp.ConstIR(&lisp.Atom{ID: otherAtom}), Vars: 0},
		}
		match := lisp.MatchIR(lisp.Span{}, num(5), branches)
		wrap := lisp.LambdaIR(lisp.Span{}, lisp.Exact(1), match)
		return []*lisp.IR{lisp.AppIR(lisp.Span{}, lisp.Span{}, wrap, []lisp.IR{*isPos})}, nil
	}
	return nil, fmt.Errorf("no such demo")
}

func constBuiltin(el *env.Elaborator, b lisp.BuiltinProc) *lisp.IR {
	a := el.GetAtom(b.String())
	el.SetAtomLisp(a, lisp.FileSpan{}, lisp.MakeBuiltin(b))
	return lisp.Global(lisp.Span{}, a)
}
