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
	"weak"
)

// Ref is a weak handle on a single value of type V. The Ref does not keep the
// value alive: when the last strong reference to the value is dropped, the
// garbage collector may reclaim it, and the Ref becomes stale. A Ref value is
// immutable and never turns back from stale to live.
//
// Ref is comparable. Two Refs made from the same pointer compare equal, and
// they stay equal after the value is reclaimed, so a Ref can serve as a map
// key (Bag relies on this). The zero Ref is valid and always stale.
type Ref[V any] struct {
	p weak.Pointer[V]
}

// MakeRef returns a Ref for the value v points to. MakeRef(nil) returns a
// stale Ref.
func MakeRef[V any](v *V) Ref[V] {
	return Ref[V]{p: weak.Make(v)}
}

// Get upgrades the Ref to a strong pointer. It returns the referenced value
// and true while the value is reachable, or (nil, false) once it has been
// reclaimed. The check and the read are one atomic operation, so a non-nil
// result is safe to use even if the reclamation races with the call.
func (r Ref[V]) Get() (*V, bool) {
	v := r.p.Value()
	return v, v != nil
}
