// Copyright 2025 The Solaris Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package weakref

import (
	"fmt"
	"iter"
	"slices"

	"github.com/solarisdb/weakref/errors"
)

type (
	// Sequence is an order-preserving collection of weakly referenced values
	// on top of a slice. The relative order of the live elements survives any
	// mix of adds, inserts, removals and cleans. Scanning operations never
	// drop the stale slots they pass over, except Remove, which compacts the
	// part of the array it walks anyway. The zero Sequence is ready to use
	// with the default configuration.
	//
	// A Sequence is not safe for concurrent use.
	Sequence[V any] struct {
		refs     []Ref[V]
		equal    func(a, b *V) bool
		extraCap int
		cs       cleanState
	}

	// SeqConfig defines the Sequence construction knobs
	SeqConfig[V any] struct {
		// Capacity is the initial capacity of the backing array
		Capacity int
		// AutoCleanAdds enables the automatic Clean after the number of adds
		// since the last clean goes beyond the value. 0 disables the trigger.
		AutoCleanAdds int
		// TrimOnClean makes every Clean also shrink the backing array to the
		// number of survivors plus ExtraTrimCapacity
		TrimOnClean bool
		// ExtraTrimCapacity is the slack TrimExcess and the trimming Clean
		// keep on top of the current length
		ExtraTrimCapacity int
		// Equal compares two values. nil means pointer identity.
		Equal func(a, b *V) bool
	}
)

// NewSequence creates a new Sequence for the configuration provided
func NewSequence[V any](cfg SeqConfig[V]) (*Sequence[V], error) {
	if cfg.Capacity < 0 {
		return nil, fmt.Errorf("NewSequence(): the Capacity=%d, but it cannot be negative: %w", cfg.Capacity, errors.ErrInvalid)
	}
	if cfg.AutoCleanAdds < 0 {
		return nil, fmt.Errorf("NewSequence(): the AutoCleanAdds=%d, but it cannot be negative: %w", cfg.AutoCleanAdds, errors.ErrInvalid)
	}
	if cfg.ExtraTrimCapacity < 0 {
		return nil, fmt.Errorf("NewSequence(): the ExtraTrimCapacity=%d, but it cannot be negative: %w", cfg.ExtraTrimCapacity, errors.ErrInvalid)
	}
	s := new(Sequence[V])
	if cfg.Capacity > 0 {
		s.refs = make([]Ref[V], 0, cfg.Capacity)
	}
	s.equal = cfg.Equal
	s.extraCap = cfg.ExtraTrimCapacity
	s.cs = cleanState{autoCleanAdds: cfg.AutoCleanAdds, trimOnClean: cfg.TrimOnClean}
	return s, nil
}

// Add appends v to the end of the sequence
func (s *Sequence[V]) Add(v *V) {
	s.refs = append(s.refs, MakeRef(v))
	s.countAdd()
}

// InsertFirst puts v before all existing elements
func (s *Sequence[V]) InsertFirst(v *V) {
	s.refs = slices.Insert(s.refs, 0, MakeRef(v))
	s.countAdd()
}

// InsertBefore puts v immediately before the first live element equal to
// anchor. It returns an error wrapping errors.ErrNotExist when no live
// element matches, and the sequence is left unchanged then.
func (s *Sequence[V]) InsertBefore(v, anchor *V) error {
	idx := s.indexOfLive(anchor)
	if idx < 0 {
		return fmt.Errorf("InsertBefore(): no live element equals the anchor: %w", errors.ErrNotExist)
	}
	s.refs = slices.Insert(s.refs, idx, MakeRef(v))
	s.countAdd()
	return nil
}

// InsertAfter puts v immediately after the first live element equal to
// anchor. It returns an error wrapping errors.ErrNotExist when no live
// element matches, and the sequence is left unchanged then.
func (s *Sequence[V]) InsertAfter(v, anchor *V) error {
	idx := s.indexOfLive(anchor)
	if idx < 0 {
		return fmt.Errorf("InsertAfter(): no live element equals the anchor: %w", errors.ErrNotExist)
	}
	s.refs = slices.Insert(s.refs, idx+1, MakeRef(v))
	s.countAdd()
	return nil
}

// TryInsertBefore is InsertBefore which reports the result instead of
// returning an error
func (s *Sequence[V]) TryInsertBefore(v, anchor *V) bool {
	return s.InsertBefore(v, anchor) == nil
}

// TryInsertAfter is InsertAfter which reports the result instead of
// returning an error
func (s *Sequence[V]) TryInsertAfter(v, anchor *V) bool {
	return s.InsertAfter(v, anchor) == nil
}

// Remove deletes the first live element equal to v and returns whether such
// an element was found. The stale slots passed over before the match point
// are dropped as well. When nothing matches, the whole array has been walked
// and all the stale slots are gone.
func (s *Sequence[V]) Remove(v *V) bool {
	w := 0
	for i, ref := range s.refs {
		sv, ok := ref.Get()
		if !ok {
			continue
		}
		if s.eq(sv, v) {
			w += copy(s.refs[w:], s.refs[i+1:])
			clear(s.refs[w:])
			s.refs = s.refs[:w]
			return true
		}
		s.refs[w] = ref
		w++
	}
	clear(s.refs[w:])
	s.refs = s.refs[:w]
	return false
}

// Contains reports whether the sequence holds at least one live element equal
// to v. It never modifies the sequence.
func (s *Sequence[V]) Contains(v *V) bool {
	return s.indexOfLive(v) >= 0
}

// Clear drops all elements, live and stale, keeping the backing array
// capacity. It resets the add counter the same way Clean does.
func (s *Sequence[V]) Clear() {
	clear(s.refs)
	s.refs = s.refs[:0]
	s.cs.reset()
}

// Clean removes every stale slot, preserving the order of the live elements,
// then shrinks the backing array if TrimOnClean is configured. The add
// counter is reset even when nothing was removed. Clean never fails.
func (s *Sequence[V]) Clean() {
	w := 0
	for _, ref := range s.refs {
		if _, ok := ref.Get(); ok {
			s.refs[w] = ref
			w++
		}
	}
	clear(s.refs[w:])
	s.refs = s.refs[:w]
	if s.cs.trimOnClean {
		s.trim()
	}
	s.cs.reset()
}

// Values returns an iterator over the live elements in their insertion order.
// The stale slots are skipped, but never removed: enumeration does not modify
// the sequence. The sequence must not be mutated while the iterator is in
// use.
func (s *Sequence[V]) Values() iter.Seq[*V] {
	return func(yield func(*V) bool) {
		for _, ref := range s.refs {
			if v, ok := ref.Get(); ok {
				if !yield(v) {
					return
				}
			}
		}
	}
}

// Len returns the number of slots held, live and stale together. It is an
// upper bound of the number of values an enumeration will yield, cheap on
// purpose: counting the live elements only would require a full scan.
func (s *Sequence[V]) Len() int {
	return len(s.refs)
}

// Cap returns the capacity of the backing array
func (s *Sequence[V]) Cap() int {
	return cap(s.refs)
}

// Grow makes sure the backing array has room for n more elements without
// reallocation. It panics if n is negative.
func (s *Sequence[V]) Grow(n int) {
	s.refs = slices.Grow(s.refs, n)
}

// TrimExcess reallocates the backing array to the current length plus the
// configured ExtraTrimCapacity. It does nothing when the capacity is already
// that small.
func (s *Sequence[V]) TrimExcess() {
	s.trim()
}

func (s *Sequence[V]) trim() {
	want := len(s.refs) + s.extraCap
	if cap(s.refs) <= want {
		return
	}
	refs := make([]Ref[V], len(s.refs), want)
	copy(refs, s.refs)
	s.refs = refs
}

// indexOfLive returns the index of the first live element equal to v, or -1.
// The scan does not drop the stale slots it passes over: removals from the
// middle of the array would turn every scan into a quadratic one.
func (s *Sequence[V]) indexOfLive(v *V) int {
	for i, ref := range s.refs {
		if sv, ok := ref.Get(); ok && s.eq(sv, v) {
			return i
		}
	}
	return -1
}

func (s *Sequence[V]) eq(a, b *V) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return a == b
}

func (s *Sequence[V]) countAdd() {
	if s.cs.countAdd() {
		s.Clean()
	}
}
