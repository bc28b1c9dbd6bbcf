package env

import (
	"log"

	"github.com/WORLDSTISSUESDAOSPORE1/mm0/internal/lisp"
)

// Diagnostic is one report raised by the evaluator's display/print/info
// builtins or by a failed elaboration step, collected rather than written
// straight to stderr so a driver (cmd/mm0lisp or a future LSP front end)
// can decide how to surface it.
type Diagnostic struct {
	Pos     lisp.Span
	Level   string
	Message string
}

// Elaborator is the Host implementation the evaluator runs against: an
// Environment (shared across a whole run) plus the LocalContext active for
// the current declaration, plus the file currently being processed.
type Elaborator struct {
	Env *Environment
	Ctx *LocalContext
	File string

	Diagnostics []Diagnostic

	// Logger mirrors funxy's plain stdlib *log.Logger use for anything not
	// routed through Diagnostics (fatal setup errors, verbose tracing).
	Logger *log.Logger
}

func NewElaborator(e *Environment, file string, logger *log.Logger) *Elaborator {
	if logger == nil {
		logger = log.Default()
	}
	return &Elaborator{Env: e, Ctx: NewLocalContext(), File: file, Logger: logger}
}

func (el *Elaborator) GetAtom(name string) lisp.AtomID { return el.Env.GetAtom(name) }
func (el *Elaborator) AtomName(a lisp.AtomID) string    { return el.Env.AtomName(a) }

func (el *Elaborator) AtomLisp(a lisp.AtomID) (lisp.FileSpan, lisp.LispVal, bool) {
	return el.Env.AtomLisp(a)
}

func (el *Elaborator) SetAtomLisp(a lisp.AtomID, fsp lisp.FileSpan, v lisp.LispVal) {
	el.Env.SetAtomLisp(a, fsp, v)
}

func (el *Elaborator) LocalVar(a lisp.AtomID) (bool, lisp.SortID, bool) { return el.Ctx.LocalVar(a) }

func (el *Elaborator) GetProof(a lisp.AtomID) (lisp.FileSpan, lisp.AtomID, lisp.LispVal, bool) {
	return el.Ctx.GetProof(a)
}

func (el *Elaborator) NewMVar(target lisp.InferTarget) lisp.LispVal { return el.Ctx.NewMVar(target) }
func (el *Elaborator) MVars() []lisp.LispVal                       { return el.Ctx.MVars() }
func (el *Elaborator) Goals() []lisp.LispVal                       { return el.Ctx.Goals() }
func (el *Elaborator) SetGoals(gs []lisp.LispVal)                  { el.Ctx.SetGoals(gs) }

func (el *Elaborator) Report(pos lisp.Span, level string, message string) {
	el.Diagnostics = append(el.Diagnostics, Diagnostic{Pos: pos, Level: level, Message: message})
	el.Logger.Printf("[%s] %s", level, message)
}

func (el *Elaborator) Stringify(v lisp.LispVal) string { return FormatValue(el, v) }

func (el *Elaborator) FileSpan(sp lisp.Span) lisp.FileSpan {
	return lisp.FileSpan{File: el.File, Span: sp}
}

var _ lisp.Host = (*Elaborator)(nil)
