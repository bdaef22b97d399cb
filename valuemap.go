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
	// ValueMap maps strongly held keys to weakly referenced values. The map
	// holds at most one slot per key. A key whose value has been reclaimed is
	// logically absent: Get, ContainsKey and the enumerations do not report
	// it, though the slot may physically persist until it is swept or reused
	// by TryAdd. The zero ValueMap is ready to use with the default
	// configuration.
	//
	// A ValueMap is not safe for concurrent use. With sweep-on-scan enabled
	// even the reading operations may drop stale slots.
	ValueMap[K comparable, V any] struct {
		refs        map[K]Ref[V]
		equal       func(a, b *V) bool
		noScanSweep bool
		cs          cleanState
	}

	// MapConfig defines the ValueMap construction knobs
	MapConfig[K comparable, V any] struct {
		// Capacity is the initial size hint for the backing map
		Capacity int
		// AutoCleanAdds enables the automatic Clean after the number of adds
		// since the last clean goes beyond the value. 0 disables the trigger.
		AutoCleanAdds int
		// TrimOnClean makes every Clean also rebuild the backing map at the
		// survivors size
		TrimOnClean bool
		// SweepOnScan controls dropping the stale slots encountered by the
		// reading operations and the enumerations. nil means true.
		SweepOnScan *bool
		// Equal compares two values, it is consulted by Contains,
		// ContainsValue and CompareAndDelete. nil means pointer identity.
		// The keys always use the language equality.
		Equal func(a, b *V) bool
	}
)

// NewValueMap creates a new ValueMap for the configuration provided
func NewValueMap[K comparable, V any](cfg MapConfig[K, V]) (*ValueMap[K, V], error) {
	if cfg.Capacity < 0 {
		return nil, fmt.Errorf("NewValueMap(): the Capacity=%d, but it cannot be negative: %w", cfg.Capacity, errors.ErrInvalid)
	}
	if cfg.AutoCleanAdds < 0 {
		return nil, fmt.Errorf("NewValueMap(): the AutoCleanAdds=%d, but it cannot be negative: %w", cfg.AutoCleanAdds, errors.ErrInvalid)
	}
	m := new(ValueMap[K, V])
	m.refs = make(map[K]Ref[V], cfg.Capacity)
	m.equal = cfg.Equal
	m.noScanSweep = !cast.Bool(cfg.SweepOnScan, true)
	m.cs = cleanState{autoCleanAdds: cfg.AutoCleanAdds, trimOnClean: cfg.TrimOnClean}
	return m, nil
}

// Get returns the live value stored under k. A missing key and a reclaimed
// value both report (nil, false); the stale slot found is dropped when
// sweep-on-scan is enabled.
func (m *ValueMap[K, V]) Get(k K) (*V, bool) {
	ref, ok := m.refs[k]
	if !ok {
		return nil, false
	}
	v, ok := ref.Get()
	if !ok {
		m.scanDrop(k)
		return nil, false
	}
	return v, true
}

// Set stores v under k, inserting a new slot or replacing the existing one,
// live or stale. Every Set counts towards the auto-clean threshold, a
// replacement stores a new weak slot the same way an insert does.
func (m *ValueMap[K, V]) Set(k K, v *V) {
	if m.refs == nil {
		m.refs = make(map[K]Ref[V])
	}
	m.refs[k] = MakeRef(v)
	m.countAdd()
}

// TryAdd stores v under k when the key is absent or its value has been
// reclaimed, reusing the stale slot in place. It returns false, leaving the
// map unchanged, when k already holds a live value. A successful TryAdd
// counts towards the auto-clean threshold.
func (m *ValueMap[K, V]) TryAdd(k K, v *V) bool {
	if m.refs == nil {
		m.refs = make(map[K]Ref[V])
	}
	if ref, ok := m.refs[k]; ok {
		if _, live := ref.Get(); live {
			return false
		}
	}
	m.refs[k] = MakeRef(v)
	m.countAdd()
	return true
}

// Add is TryAdd which explains the refusal: it returns an error wrapping
// errors.ErrExist when k already holds a live value
func (m *ValueMap[K, V]) Add(k K, v *V) error {
	if !m.TryAdd(k, v) {
		return fmt.Errorf("Add(): the key %v already holds a live value: %w", k, errors.ErrExist)
	}
	return nil
}

// Remove drops the slot under k, live or stale. It returns true only when
// the slot held a live value, a reclaimed one is reported as already absent.
func (m *ValueMap[K, V]) Remove(k K) bool {
	ref, ok := m.refs[k]
	if !ok {
		return false
	}
	delete(m.refs, k)
	_, live := ref.Get()
	return live
}

// GetAndRemove drops the slot under k and returns the live value it held. A
// missing key and a reclaimed value both report (nil, false), though the
// stale slot is dropped as well.
func (m *ValueMap[K, V]) GetAndRemove(k K) (*V, bool) {
	ref, ok := m.refs[k]
	if !ok {
		return nil, false
	}
	delete(m.refs, k)
	return ref.Get()
}

// CompareAndDelete drops the slot under k only when it holds a live value
// equal to v, and reports whether it did
func (m *ValueMap[K, V]) CompareAndDelete(k K, v *V) bool {
	ref, ok := m.refs[k]
	if !ok {
		return false
	}
	mv, live := ref.Get()
	if !live {
		m.scanDrop(k)
		return false
	}
	if !m.eq(mv, v) {
		return false
	}
	delete(m.refs, k)
	return true
}

// ContainsKey reports whether k holds a live value
func (m *ValueMap[K, V]) ContainsKey(k K) bool {
	_, ok := m.Get(k)
	return ok
}

// Contains reports whether k holds a live value equal to v
func (m *ValueMap[K, V]) Contains(k K, v *V) bool {
	mv, ok := m.Get(k)
	return ok && m.eq(mv, v)
}

// ContainsValue scans the map for a live value equal to v. The stale slots
// encountered are dropped when sweep-on-scan is enabled.
func (m *ValueMap[K, V]) ContainsValue(v *V) bool {
	for k, ref := range m.refs {
		mv, ok := ref.Get()
		if !ok {
			m.scanDrop(k)
			continue
		}
		if m.eq(mv, v) {
			return true
		}
	}
	return false
}

// Clear drops all slots, live and stale, keeping the backing map allocated.
// It resets the add counter the same way Clean does.
func (m *ValueMap[K, V]) Clear() {
	clear(m.refs)
	m.cs.reset()
}

// Clean removes every stale slot, then rebuilds the backing map at the
// survivors size if TrimOnClean is configured. The add counter is reset even
// when nothing was removed. Clean never fails.
func (m *ValueMap[K, V]) Clean() {
	for k, ref := range m.refs {
		if _, ok := ref.Get(); !ok {
			delete(m.refs, k)
		}
	}
	if m.cs.trimOnClean {
		m.TrimExcess()
	}
	m.cs.reset()
}

// All returns an iterator over the keys and the live values. The stale slots
// encountered are dropped when sweep-on-scan is enabled. The map must not be
// mutated while the iterator is in use.
func (m *ValueMap[K, V]) All() iter.Seq2[K, *V] {
	return func(yield func(K, *V) bool) {
		for k, ref := range m.refs {
			v, ok := ref.Get()
			if !ok {
				m.scanDrop(k)
				continue
			}
			if !yield(k, v) {
				return
			}
		}
	}
}

// Keys returns an iterator over the keys holding live values
func (m *ValueMap[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for k := range m.All() {
			if !yield(k) {
				return
			}
		}
	}
}

// Values returns an iterator over the live values
func (m *ValueMap[K, V]) Values() iter.Seq[*V] {
	return func(yield func(*V) bool) {
		for _, v := range m.All() {
			if !yield(v) {
				return
			}
		}
	}
}

// Len returns the number of slots held, live and stale together. It is an
// upper bound of the number of entries an enumeration will yield, cheap on
// purpose: counting the live entries only would require a full scan.
func (m *ValueMap[K, V]) Len() int {
	return len(m.refs)
}

// Grow makes sure the backing map has room for n more entries. Go maps cannot
// reserve room in place, so the map is rebuilt with the larger size hint. It
// panics if n is negative.
func (m *ValueMap[K, V]) Grow(n int) {
	if n < 0 {
		panic("cannot be negative")
	}
	if n == 0 {
		return
	}
	refs := make(map[K]Ref[V], len(m.refs)+n)
	for k, ref := range m.refs {
		refs[k] = ref
	}
	m.refs = refs
}

// TrimExcess rebuilds the backing map at its current size. Deleting from a Go
// map never returns the bucket memory, so a map which shrank a lot keeps its
// peak footprint until it is rebuilt.
func (m *ValueMap[K, V]) TrimExcess() {
	if m.refs == nil {
		return
	}
	refs := make(map[K]Ref[V], len(m.refs))
	for k, ref := range m.refs {
		refs[k] = ref
	}
	m.refs = refs
}

// scanDrop removes the stale slot found by a scan, unless the sweep-on-scan
// policy is off
func (m *ValueMap[K, V]) scanDrop(k K) {
	if !m.noScanSweep {
		delete(m.refs, k)
	}
}

func (m *ValueMap[K, V]) eq(a, b *V) bool {
	if m.equal != nil {
		return m.equal(a, b)
	}
	return a == b
}

func (m *ValueMap[K, V]) countAdd() {
	if m.cs.countAdd() {
		m.Clean()
	}
}
