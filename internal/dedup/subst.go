package dedup

// Subst instantiates a stored expression template (a theorem's statement,
// read out of its declaring Environment as []ExprNode) against the
// concrete expression arguments supplied at one particular application
// site, rewriting every Var(i) leaf to args[i] and re-dedup'ing the
// result into the caller's own Dedup[ExprHash]. Mirrors the original's
// Subst{env, heap, subst} helper used while checking a Thm proof step.
type Subst struct {
	Template []ExprNode
	Args     []int // already-dedup'd node indices in the caller's Dedup, one per template Var
	Out      *Dedup[ExprHash]

	memo map[int]int
}

func NewSubst(template []ExprNode, args []int, out *Dedup[ExprHash]) *Subst {
	return &Subst{Template: template, Args: args, Out: out, memo: map[int]int{}}
}

// Apply substitutes the template node at index i, returning its index in
// Out. Template nodes are shared across every instantiation (they never
// change), so results are memoized per Subst instance only.
func (s *Subst) Apply(i int) int {
	if idx, ok := s.memo[i]; ok {
		return idx
	}
	n := s.Template[i]
	var idx int
	switch n.Kind {
	case EHVar:
		idx = s.Args[n.Var]
	default: // EHApp
		args := make([]int, len(n.Args))
		for j, c := range n.Args {
			args[j] = s.Apply(c)
		}
		idx = s.Out.Add(ExprHash{Kind: EHApp, Term: n.Term, Args: args})
	}
	s.memo[i] = idx
	return idx
}

// Conv packages a node built from one of the three special proof forms
// :conv, :sym and :unfold.
type Conv struct {
	Kind ProofHashKind // PHConv, PHSym or PHUnfold
	Node ProofHash
}

// ToConv packages a decoded ProofHash as a Conv if its kind is PHConv,
// PHSym or PHUnfold. PHRefl and PHCong nodes, which conv in proofhash.go
// counts as conversions, are not accepted here.
func ToConv(h ProofHash) (Conv, bool) {
	switch h.Kind {
	case PHConv, PHSym, PHUnfold:
		return Conv{Kind: h.Kind, Node: h}, true
	default:
		return Conv{}, false
	}
}
