// Package dedup hash-conses evaluated lisp values into compact DAGs of
// expression and proof nodes: every distinct subterm is stored once, and
// repeated references share a single node index instead of being
// recopied. This is the structure the elaborator persists once a term or
// theorem has finished being checked (spec.md "hash-consing / DAG
// builder" module), grounded on the reference hash-consing table in
// original_source/mm0-rs/src/elab/proof.rs's Dedup<H>.
package dedup

import (
	"reflect"

	"github.com/WORLDSTISSUESDAOSPORE1/mm0/internal/lisp"
)

// NodeHash is the payload stored at one Dedup slot: something that knows
// its own canonical dedup key. ExprHash and ProofHash are the two
// instantiations (spec.md's Expr/Proof node kinds).
type NodeHash interface {
	Key() string
}

// Dedup is a hash-consing table: Add/AddDirect return the index of an
// existing structurally-equal node if one exists, else insert a new one.
// Shared[i] is flipped the first time node i is referenced a second time
// (the original's "used more than once" bookkeeping). ToBuilder does not
// read it; it is left for callers to consult.
type Dedup[H NodeHash] struct {
	byKey map[string]int
	byPtr map[uintptr]int

	Hashes []H
	Shared []bool
}

func New[H NodeHash]() *Dedup[H] {
	return &Dedup[H]{byKey: map[string]int{}, byPtr: map[uintptr]int{}}
}

// Add inserts (or finds) a node by structural key alone.
func (d *Dedup[H]) Add(h H) int {
	k := h.Key()
	if i, ok := d.byKey[k]; ok {
		d.Shared[i] = true
		return i
	}
	i := len(d.Hashes)
	d.Hashes = append(d.Hashes, h)
	d.Shared = append(d.Shared, false)
	d.byKey[k] = i
	return i
}

// AddDirect additionally caches by the identity of the source lisp value
// `ptr` came from (IdentityOf), so that re-visiting the exact same shared
// subterm (common after the evaluator's own structural sharing) skips
// re-walking and re-hashing it — the fast path the original's `prev` map
// implements.
func (d *Dedup[H]) AddDirect(ptr uintptr, h H) int {
	if i, ok := d.byPtr[ptr]; ok {
		d.Shared[i] = true
		return i
	}
	i := d.Add(h)
	d.byPtr[ptr] = i
	return i
}

// IdentityOf extracts a stable identity key from a lisp value's
// underlying pointer, the same pointer-as-integer trick funxy's own
// PersistentMap.Hash() uses (there via unsafe.Pointer; every LispVal
// variant is itself a pointer type, so reflect.Value.Pointer is enough
// here and needs no unsafe import).
func IdentityOf(v lisp.LispVal) uintptr {
	if v == nil {
		return 0
	}
	return reflect.ValueOf(v).Pointer()
}

// Node returns the hash stored at index i.
func (d *Dedup[H]) Node(i int) H { return d.Hashes[i] }

// Len reports how many distinct nodes have been recorded so far.
func (d *Dedup[H]) Len() int { return len(d.Hashes) }

// Val is a decoded, pointer-deduplicated node: a hash together with the
// indices of its direct children, used by Builder to lay out a final
// compact array in dependency order (the original's Node/Val<T> pair).
type Val[T any] struct {
	Node     T
	Children []int
}

// Builder holds a Dedup's insertion-ordered hash list as an
// array-of-nodes representation: every node, whether or not Shared marks
// it, gets its own array slot. ToBuilder neither separates shared nodes
// into a heap nor inlines singly-referenced ones.
type Builder[T any] struct {
	Vals []Val[T]
}

// ToBuilder projects a Dedup into a Builder by applying decode to every
// recorded hash in insertion order (lowest index first, so that a later
// node's children always refer to already-decoded earlier indices).
func ToBuilder[H NodeHash, T any](d *Dedup[H], decode func(h H, children []int) T, childrenOf func(h H) []int) *Builder[T] {
	b := &Builder[T]{Vals: make([]Val[T], len(d.Hashes))}
	for i, h := range d.Hashes {
		ch := childrenOf(h)
		b.Vals[i] = Val[T]{Node: decode(h, ch), Children: ch}
	}
	return b
}
