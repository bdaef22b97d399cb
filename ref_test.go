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
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

// thing is the test payload. It is deliberately bigger than the tiny
// allocator classes, so every instance gets its own heap object and its
// reclamation does not depend on the neighbors.
type thing struct {
	name string
	data [16]byte
}

//go:noinline
func newThing(name string) *thing {
	return &thing{name: name}
}

// collect gives the garbage collector a chance to reclaim everything the test
// dropped. The second cycle settles the objects discovered by the first one.
func collect() {
	runtime.GC()
	runtime.GC()
}

//go:noinline
func refLost(name string) Ref[thing] {
	return MakeRef(newThing(name))
}

//go:noinline
func twoRefsLost(name string) (Ref[thing], Ref[thing]) {
	v := newThing(name)
	return MakeRef(v), MakeRef(v)
}

func TestRefGet(t *testing.T) {
	v := newThing("aa")
	r := MakeRef(v)
	got, ok := r.Get()
	assert.True(t, ok)
	assert.Same(t, v, got)
	runtime.KeepAlive(v)
}

func TestRefStale(t *testing.T) {
	r := refLost("aa")
	collect()
	got, ok := r.Get()
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestRefZeroAndNil(t *testing.T) {
	var zero Ref[thing]
	_, ok := zero.Get()
	assert.False(t, ok)

	_, ok = MakeRef[thing](nil).Get()
	assert.False(t, ok)
}

func TestRefComparable(t *testing.T) {
	v := newThing("aa")
	other := newThing("aa")
	assert.True(t, MakeRef(v) == MakeRef(v))
	assert.False(t, MakeRef(v) == MakeRef(other))
	runtime.KeepAlive(v)
	runtime.KeepAlive(other)
}

func TestRefEqualAfterReclaim(t *testing.T) {
	r1, r2 := twoRefsLost("aa")
	collect()
	_, ok := r1.Get()
	assert.False(t, ok)
	assert.True(t, r1 == r2)
}
