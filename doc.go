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
/*
Package weakref contains containers which hold their values weakly: keeping a
value in one of the containers does not prevent the garbage collector from
reclaiming the value when nobody else references it. The containers offer the
usual collection operations (add, remove, contains, enumerate), but a value is
observed as present only while some other owner keeps it reachable. After the
value is reclaimed the container behaves as if the value had been removed,
even though the internal slot may physically persist until it is swept.

Ref is the building block, a one-value weak handle with a single atomic
upgrade operation Get. Sequence keeps its elements in insertion order on top
of a slice, Bag is an unordered collection on top of a hash map, and ValueMap
maps strongly held keys to weakly held values. Cache combines the same slots
with a strong LRU layer and hands out canonical instances, creating them on
demand.

A slot whose value has been reclaimed is called stale. Stale slots are
removed by Clean, which every container provides, and opportunistically: the
hash-backed containers drop the stale slots they pass over during lookups and
enumeration (the sweep-on-scan policy, enabled by default), while Sequence
never drops slots there, since removals from the middle of the backing array
would make every scan quadratic. Clean may also be triggered
automatically after a configured number of adds, see the AutoCleanAdds
configuration knob.

Sequence, Bag and ValueMap are not safe for concurrent use, the callers
synchronize access the same way they would for a slice or a map. The only
exception is the reclamation itself, which may happen at any moment and is
fully absorbed by the Ref.Get upgrade. Cache is safe for concurrent use.
*/
package weakref
