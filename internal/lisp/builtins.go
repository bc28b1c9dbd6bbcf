package lisp

// BuiltinProc enumerates every required builtin (spec.md §4.2). Dispatch
// is a switch in Evaluator.evaluateBuiltin rather than a function-pointer
// table: Go has no first-class match-on-enum-with-payload sugar, and a
// switch keeps each handler's captured locals (sp1, sp2, args, the
// Evaluator itself) in scope without a closure allocation per case.
type BuiltinProc int

const (
	BDisplay BuiltinProc = iota
	BPrint
	BError
	BApply
	BBegin
	BAdd
	BMul
	BMax
	BMin
	BSub
	BDiv
	BMod
	BLt
	BLe
	BGt
	BGe
	BEq
	BToString
	BStringToAtom
	BStringAppend
	BNot
	BAnd
	BOr
	BList
	BCons
	BHead
	BTail
	BMap
	BIsBool
	BIsAtom
	BIsPair
	BIsNull
	BIsNumber
	BIsString
	BIsProc
	BIsDef
	BIsRef
	BNewRef
	BGetRef
	BSetRef
	BAsync
	BIsAtomMap
	BNewAtomMap
	BLookup
	BInsert
	BInsertNew
	BSetTimeout
	BIsMVar
	BIsGoal
	BNewMVar
	BPrettyPrint
	BNewGoal
	BGoalType
	BInferType
	BGetMVars
	BGetGoals
	BSetGoals
	BToExpr
	BRefine
	BHave
	BStat
	BGetDecl
	BAddDecl
	BAddTerm
	BAddThm
	BSetReporting
	BRefineExtraArgs
)

var builtinNames = map[BuiltinProc]string{
	BDisplay:         "display",
	BPrint:           "print",
	BError:           "error",
	BApply:           "apply",
	BBegin:           "begin",
	BAdd:             "+",
	BMul:             "*",
	BMax:             "max",
	BMin:             "min",
	BSub:             "-",
	BDiv:             "/",
	BMod:             "%",
	BLt:              "<",
	BLe:              "<=",
	BGt:              ">",
	BGe:              ">=",
	BEq:              "=",
	BToString:        "->string",
	BStringToAtom:    "string->atom",
	BStringAppend:    "string-append",
	BNot:             "not",
	BAnd:             "and",
	BOr:              "or",
	BList:            "list",
	BCons:            "cons",
	BHead:            "hd",
	BTail:            "tl",
	BMap:             "map",
	BIsBool:          "bool?",
	BIsAtom:          "atom?",
	BIsPair:          "pair?",
	BIsNull:          "null?",
	BIsNumber:        "number?",
	BIsString:        "string?",
	BIsProc:          "fn?",
	BIsDef:           "def?",
	BIsRef:           "ref?",
	BNewRef:          "ref!",
	BGetRef:          "ref->",
	BSetRef:          "set-ref!",
	BAsync:           "async",
	BIsAtomMap:       "map?",
	BNewAtomMap:      "atom-map!",
	BLookup:          "lookup",
	BInsert:          "insert!",
	BInsertNew:       "insert-new!",
	BSetTimeout:      "set-timeout",
	BIsMVar:          "mvar?",
	BIsGoal:          "goal?",
	BNewMVar:         "new-mvar!",
	BPrettyPrint:     "pretty-print",
	BNewGoal:         "new-goal",
	BGoalType:        "goal",
	BInferType:       "infer-type",
	BGetMVars:        "mvars",
	BGetGoals:        "goals",
	BSetGoals:        "set-goals!",
	BToExpr:          "to-expr",
	BRefine:          "refine",
	BHave:            "have",
	BStat:            "stat",
	BGetDecl:         "get-decl",
	BAddDecl:         "add-decl!",
	BAddTerm:         "add-term!",
	BAddThm:          "add-thm!",
	BSetReporting:    "set-reporting",
	BRefineExtraArgs: "refine-extra-args",
}

var builtinByName map[string]BuiltinProc

func init() {
	builtinByName = make(map[string]BuiltinProc, len(builtinNames))
	for id, name := range builtinNames {
		builtinByName[name] = id
	}
}

func (b BuiltinProc) String() string { return builtinNames[b] }

// BuiltinFromName looks up a builtin by its lisp-visible name, used when
// resolving a global reference to a name with no user binding.
func BuiltinFromName(name string) (BuiltinProc, bool) {
	b, ok := builtinByName[name]
	return b, ok
}

// Spec returns a builtin's arity contract, matching the make_builtins!
// table in the original 1:1.
func (b BuiltinProc) Spec() ProcSpec {
	switch b {
	case BDisplay, BError, BToString, BHead, BTail, BStringToAtom,
		BIsBool, BIsAtom, BIsPair, BIsNull, BIsNumber, BIsString, BIsProc,
		BIsDef, BIsRef, BGetRef, BIsAtomMap, BIsMVar, BIsGoal, BGoalType,
		BInferType, BGetDecl, BToExpr, BSetTimeout, BPrint, BNewGoal,
		BPrettyPrint:
		return Exact(1)
	case BSetRef:
		return Exact(2)
	case BStat:
		return Exact(0)
	case BBegin, BAdd, BMul, BStringAppend, BList, BCons, BNot, BAnd, BOr,
		BNewRef, BNewAtomMap, BGetMVars, BGetGoals, BSetGoals, BNewMVar, BRefine:
		return AtLeastN(0)
	case BMax, BMin, BSub, BDiv, BMod, BLt, BLe, BGt, BGe, BEq,
		BMap, BAsync, BSetReporting:
		return AtLeastN(1)
	case BApply, BLookup, BInsert, BInsertNew, BRefineExtraArgs, BHave:
		return AtLeastN(2)
	case BAddTerm:
		return AtLeastN(3)
	case BAddDecl, BAddThm:
		return AtLeastN(4)
	}
	return AtLeastN(0)
}
