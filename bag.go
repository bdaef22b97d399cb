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

	"github.com/solarisdb/weakref/cast"
	"github.com/solarisdb/weakref/errors"
)

type (
	// Bag is an unordered collection of weakly referenced values on top of a
	// hash map keyed by Ref. The enumeration order is arbitrary and may change
	// between enumerations. Two Adds of the same pointer share one slot, since
	// equal pointers produce equal Refs; distinct pointers stay independent
	// slots even when a configured Equal reports their values equal. The zero
	// Bag is ready to use with the default configuration.
	//
	// A Bag is not safe for concurrent use. With sweep-on-scan enabled even
	// the reading operations may drop stale slots.
	Bag[V any] struct {
		refs        map[Ref[V]]struct{}
		equal       func(a, b *V) bool
		noScanSweep bool
		cs          cleanState
	}

	// BagConfig defines the Bag construction knobs
	BagConfig[V any] struct {
		// Capacity is the initial size hint for the backing map
		Capacity int
		// AutoCleanAdds enables the automatic Clean after the number of adds
		// since the last clean goes beyond the value. 0 disables the trigger.
		AutoCleanAdds int
		// TrimOnClean makes every Clean also rebuild the backing map at the
		// survivors size
		TrimOnClean bool
		// SweepOnScan controls dropping the stale slots encountered by the
		// scanning operations (Contains, Remove with Equal configured, and
		// enumeration). nil means true.
		SweepOnScan *bool
		// Equal compares two values. nil means pointer identity, which makes
		// Contains and Remove single map lookups instead of scans.
		Equal func(a, b *V) bool
	}
)

// NewBag creates a new Bag for the configuration provided
func NewBag[V any](cfg BagConfig[V]) (*Bag[V], error) {
	if cfg.Capacity < 0 {
		return nil, fmt.Errorf("NewBag(): the Capacity=%d, but it cannot be negative: %w", cfg.Capacity, errors.ErrInvalid)
	}
	if cfg.AutoCleanAdds < 0 {
		return nil, fmt.Errorf("NewBag(): the AutoCleanAdds=%d, but it cannot be negative: %w", cfg.AutoCleanAdds, errors.ErrInvalid)
	}
	b := new(Bag[V])
	b.refs = make(map[Ref[V]]struct{}, cfg.Capacity)
	b.equal = cfg.Equal
	b.noScanSweep = !cast.Bool(cfg.SweepOnScan, true)
	b.cs = cleanState{autoCleanAdds: cfg.AutoCleanAdds, trimOnClean: cfg.TrimOnClean}
	return b, nil
}

// Add puts v into the bag. Adding a pointer which is already in the bag keeps
// the single existing slot. Every Add counts towards the auto-clean
// threshold.
func (b *Bag[V]) Add(v *V) {
	if b.refs == nil {
		b.refs = make(map[Ref[V]]struct{})
	}
	b.refs[MakeRef(v)] = struct{}{}
	b.countAdd()
}

// Remove deletes one element equal to v and returns whether it was found.
// With no Equal configured the removal is a single lookup by pointer
// identity; with Equal it is a scan, and the stale slots encountered are
// dropped when sweep-on-scan is enabled.
func (b *Bag[V]) Remove(v *V) bool {
	if b.equal == nil {
		r := MakeRef(v)
		if _, ok := b.refs[r]; !ok {
			return false
		}
		delete(b.refs, r)
		return true
	}
	for ref := range b.refs {
		bv, ok := ref.Get()
		if !ok {
			b.scanDrop(ref)
			continue
		}
		if b.equal(bv, v) {
			delete(b.refs, ref)
			return true
		}
	}
	return false
}

// Contains reports whether the bag holds a live element equal to v. With no
// Equal configured it is a single lookup by pointer identity; with Equal it
// is a scan, and the stale slots encountered are dropped when sweep-on-scan
// is enabled.
func (b *Bag[V]) Contains(v *V) bool {
	if b.equal == nil {
		_, ok := b.refs[MakeRef(v)]
		return ok
	}
	for ref := range b.refs {
		bv, ok := ref.Get()
		if !ok {
			b.scanDrop(ref)
			continue
		}
		if b.equal(bv, v) {
			return true
		}
	}
	return false
}

// Clear drops all elements, live and stale, keeping the backing map
// allocated. It resets the add counter the same way Clean does.
func (b *Bag[V]) Clear() {
	clear(b.refs)
	b.cs.reset()
}

// Clean removes every stale slot, then rebuilds the backing map at the
// survivors size if TrimOnClean is configured. The add counter is reset even
// when nothing was removed. Clean never fails.
func (b *Bag[V]) Clean() {
	for ref := range b.refs {
		if _, ok := ref.Get(); !ok {
			delete(b.refs, ref)
		}
	}
	if b.cs.trimOnClean {
		b.TrimExcess()
	}
	b.cs.reset()
}

// Values returns an iterator over the live elements in an arbitrary order.
// The stale slots encountered are dropped when sweep-on-scan is enabled, so a
// periodically enumerated bag cleans itself without explicit Clean calls. The
// bag must not be mutated while the iterator is in use.
func (b *Bag[V]) Values() iter.Seq[*V] {
	return func(yield func(*V) bool) {
		for ref := range b.refs {
			v, ok := ref.Get()
			if !ok {
				b.scanDrop(ref)
				continue
			}
			if !yield(v) {
				return
			}
		}
	}
}

// Len returns the number of slots held, live and stale together. It is an
// upper bound of the number of values an enumeration will yield, cheap on
// purpose: counting the live elements only would require a full scan.
func (b *Bag[V]) Len() int {
	return len(b.refs)
}

// Grow makes sure the backing map has room for n more elements. Go maps
// cannot reserve room in place, so the map is rebuilt with the larger size
// hint. It panics if n is negative.
func (b *Bag[V]) Grow(n int) {
	if n < 0 {
		panic("cannot be negative")
	}
	if n == 0 {
		return
	}
	refs := make(map[Ref[V]]struct{}, len(b.refs)+n)
	for ref := range b.refs {
		refs[ref] = struct{}{}
	}
	b.refs = refs
}

// TrimExcess rebuilds the backing map at its current size. Deleting from a Go
// map never returns the bucket memory, so a bag which shrank a lot keeps its
// peak footprint until it is rebuilt.
func (b *Bag[V]) TrimExcess() {
	if b.refs == nil {
		return
	}
	refs := make(map[Ref[V]]struct{}, len(b.refs))
	for ref := range b.refs {
		refs[ref] = struct{}{}
	}
	b.refs = refs
}

// scanDrop removes the stale slot found by a scan, unless the sweep-on-scan
// policy is off
func (b *Bag[V]) scanDrop(ref Ref[V]) {
	if !b.noScanSweep {
		delete(b.refs, ref)
	}
}

func (b *Bag[V]) countAdd() {
	if b.cs.countAdd() {
		b.Clean()
	}
}
