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
	"sort"
	"testing"

	"github.com/solarisdb/weakref/cast"
	"github.com/solarisdb/weakref/errors"
	"github.com/stretchr/testify/assert"
)

func BenchmarkValueMap_Get(b *testing.B) {
	v := newThing("aa")
	var m ValueMap[int, thing]
	m.Set(1, v)
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		m.Get(1)
	}
	runtime.KeepAlive(v)
}

//go:noinline
func mapSetLost(m *ValueMap[int, thing], k int, name string) {
	m.Set(k, newThing(name))
}

//go:noinline
func mapTryAddLost(m *ValueMap[int, thing], k int, name string) bool {
	return m.TryAdd(k, newThing(name))
}

func TestNewValueMap(t *testing.T) {
	m, err := NewValueMap(MapConfig[int, thing]{Capacity: 10, AutoCleanAdds: 5})
	assert.Nil(t, err)
	assert.Equal(t, 0, m.Len())

	_, err = NewValueMap(MapConfig[int, thing]{Capacity: -1})
	assert.ErrorIs(t, err, errors.ErrInvalid)
	_, err = NewValueMap(MapConfig[int, thing]{AutoCleanAdds: -1})
	assert.ErrorIs(t, err, errors.ErrInvalid)
}

func TestValueMapZeroValue(t *testing.T) {
	var m ValueMap[int, thing]
	aa := newThing("aa")
	m.Set(1, aa)
	assert.Equal(t, 1, m.Len())
	v, ok := m.Get(1)
	assert.True(t, ok)
	assert.Same(t, aa, v)
	runtime.KeepAlive(aa)
}

func TestValueMapSetGet(t *testing.T) {
	aa, bb := newThing("aa"), newThing("bb")
	var m ValueMap[int, thing]
	m.Set(1, aa)
	v, ok := m.Get(1)
	assert.True(t, ok)
	assert.Same(t, aa, v)

	_, ok = m.Get(2)
	assert.False(t, ok)

	// Set replaces the live value
	m.Set(1, bb)
	assert.Equal(t, 1, m.Len())
	v, ok = m.Get(1)
	assert.True(t, ok)
	assert.Same(t, bb, v)
	runtime.KeepAlive([]*thing{aa, bb})
}

func TestValueMapGetSweepsStaleSlot(t *testing.T) {
	var m ValueMap[int, thing]
	mapSetLost(&m, 1, "aa")
	collect()
	assert.Equal(t, 1, m.Len())

	v, ok := m.Get(1)
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, 0, m.Len())
}

func TestValueMapSweepOnScanDisabled(t *testing.T) {
	m, err := NewValueMap(MapConfig[int, thing]{SweepOnScan: cast.BoolPtr(false)})
	assert.Nil(t, err)
	mapSetLost(m, 1, "aa")
	collect()

	_, ok := m.Get(1)
	assert.False(t, ok)
	assert.False(t, m.ContainsKey(1))
	assert.Equal(t, 0, len(mapKeys(m)))
	// the stale slot stays until the explicit Clean
	assert.Equal(t, 1, m.Len())
	m.Clean()
	assert.Equal(t, 0, m.Len())
}

func TestValueMapTryAdd(t *testing.T) {
	aa, bb := newThing("aa"), newThing("bb")
	var m ValueMap[int, thing]
	assert.True(t, m.TryAdd(1, aa))

	// the key holds a live value, so the add is refused
	assert.False(t, m.TryAdd(1, bb))
	v, ok := m.Get(1)
	assert.True(t, ok)
	assert.Same(t, aa, v)

	assert.True(t, m.TryAdd(2, bb))
	assert.Equal(t, 2, m.Len())
	runtime.KeepAlive([]*thing{aa, bb})
}

func TestValueMapTryAddReusesStaleSlot(t *testing.T) {
	var m ValueMap[int, thing]
	assert.True(t, mapTryAddLost(&m, 1, "aa"))
	collect()

	// the slot is still there and it is stale
	ref, ok := m.refs[1]
	assert.True(t, ok)
	_, live := ref.Get()
	assert.False(t, live)

	// TryAdd takes the stale slot over without removing it first
	bb := newThing("bb")
	assert.True(t, m.TryAdd(1, bb))
	assert.Equal(t, 1, m.Len())
	v, ok := m.Get(1)
	assert.True(t, ok)
	assert.Same(t, bb, v)
	runtime.KeepAlive(bb)
}

func TestValueMapAdd(t *testing.T) {
	aa, bb := newThing("aa"), newThing("bb")
	var m ValueMap[int, thing]
	assert.Nil(t, m.Add(1, aa))
	assert.ErrorIs(t, m.Add(1, bb), errors.ErrExist)

	var m2 ValueMap[int, thing]
	mapSetLost(&m2, 1, "aa")
	collect()
	// the stale slot does not count as a duplicate
	assert.Nil(t, m2.Add(1, bb))
	v, ok := m2.Get(1)
	assert.True(t, ok)
	assert.Same(t, bb, v)
	runtime.KeepAlive([]*thing{aa, bb})
}

func TestValueMapSetAlwaysCounts(t *testing.T) {
	aa, bb := newThing("aa"), newThing("bb")
	var m ValueMap[int, thing]
	m.Set(1, aa)
	m.Set(1, bb)
	assert.Equal(t, 2, m.cs.addsSinceClean)

	// a refused TryAdd does not count
	assert.False(t, m.TryAdd(1, aa))
	assert.Equal(t, 2, m.cs.addsSinceClean)
	runtime.KeepAlive([]*thing{aa, bb})
}

func TestValueMapRemove(t *testing.T) {
	aa := newThing("aa")
	var m ValueMap[int, thing]
	m.Set(1, aa)
	assert.True(t, m.Remove(1))
	assert.False(t, m.Remove(1))
	assert.Equal(t, 0, m.Len())

	// a stale slot is dropped, but reported as already absent
	mapSetLost(&m, 2, "bb")
	collect()
	assert.False(t, m.Remove(2))
	assert.Equal(t, 0, m.Len())
	runtime.KeepAlive(aa)
}

func TestValueMapGetAndRemove(t *testing.T) {
	aa := newThing("aa")
	var m ValueMap[int, thing]
	m.Set(1, aa)
	v, ok := m.GetAndRemove(1)
	assert.True(t, ok)
	assert.Same(t, aa, v)
	assert.Equal(t, 0, m.Len())

	v, ok = m.GetAndRemove(1)
	assert.False(t, ok)
	assert.Nil(t, v)

	mapSetLost(&m, 2, "bb")
	collect()
	v, ok = m.GetAndRemove(2)
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.Equal(t, 0, m.Len())
	runtime.KeepAlive(aa)
}

func TestValueMapCompareAndDelete(t *testing.T) {
	m, err := NewValueMap(MapConfig[int, thing]{Equal: func(a, b *thing) bool { return a.name == b.name }})
	assert.Nil(t, err)
	aa := newThing("aa")
	m.Set(1, aa)

	assert.False(t, m.CompareAndDelete(1, newThing("zz")))
	assert.True(t, m.ContainsKey(1))
	assert.False(t, m.CompareAndDelete(2, newThing("aa")))

	assert.True(t, m.CompareAndDelete(1, newThing("aa")))
	assert.Equal(t, 0, m.Len())

	// a stale slot never matches, but the scan drops it
	mapSetLost(m, 3, "cc")
	collect()
	assert.False(t, m.CompareAndDelete(3, newThing("cc")))
	assert.Equal(t, 0, m.Len())
	runtime.KeepAlive(aa)
}

func TestValueMapContains(t *testing.T) {
	aa := newThing("aa")
	var m ValueMap[int, thing]
	m.Set(1, aa)
	assert.True(t, m.ContainsKey(1))
	assert.True(t, m.Contains(1, aa))
	assert.False(t, m.Contains(1, newThing("aa")))
	assert.False(t, m.ContainsKey(2))
	assert.True(t, m.ContainsValue(aa))
	assert.False(t, m.ContainsValue(newThing("aa")))

	// a stale slot is invisible for all the lookups and gets dropped
	mapSetLost(&m, 2, "bb")
	collect()
	assert.False(t, m.ContainsKey(2))
	assert.Equal(t, 1, m.Len())
	runtime.KeepAlive(aa)
}

func TestValueMapContainsValueEqualFunc(t *testing.T) {
	m, err := NewValueMap(MapConfig[int, thing]{Equal: func(a, b *thing) bool { return a.name == b.name }})
	assert.Nil(t, err)
	aa := newThing("aa")
	m.Set(1, aa)
	assert.True(t, m.Contains(1, newThing("aa")))
	assert.True(t, m.ContainsValue(newThing("aa")))
	assert.False(t, m.ContainsValue(newThing("zz")))
	runtime.KeepAlive(aa)
}

func TestValueMapEnumeration(t *testing.T) {
	aa, bb := newThing("aa"), newThing("bb")
	var m ValueMap[int, thing]
	m.Set(1, aa)
	m.Set(2, bb)
	mapSetLost(&m, 3, "lost")
	collect()
	assert.Equal(t, 3, m.Len())

	got := map[int]string{}
	for k, v := range m.All() {
		got[k] = v.name
	}
	assert.Equal(t, map[int]string{1: "aa", 2: "bb"}, got)
	// the full enumeration dropped the stale slot
	assert.Equal(t, 2, m.Len())

	assert.Equal(t, []int{1, 2}, mapKeys(&m))

	names := []string{}
	for v := range m.Values() {
		names = append(names, v.name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"aa", "bb"}, names)
	runtime.KeepAlive([]*thing{aa, bb})
}

func TestValueMapClean(t *testing.T) {
	aa := newThing("aa")
	var m ValueMap[int, thing]
	m.Set(1, aa)
	mapSetLost(&m, 2, "l0")
	mapSetLost(&m, 3, "l1")
	collect()
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, 3, m.cs.addsSinceClean)

	m.Clean()
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 0, m.cs.addsSinceClean)
	assert.True(t, m.ContainsKey(1))

	// the second Clean in a row changes nothing
	m.Clean()
	assert.Equal(t, 1, m.Len())
	runtime.KeepAlive(aa)
}

func TestValueMapAutoClean(t *testing.T) {
	aa, bb := newThing("aa"), newThing("bb")
	m, err := NewValueMap(MapConfig[int, thing]{AutoCleanAdds: 3})
	assert.Nil(t, err)
	mapSetLost(m, 1, "l0")
	mapSetLost(m, 2, "l1")
	m.Set(3, aa)
	collect()

	// three adds since the last clean, the threshold is not exceeded yet
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, 3, m.cs.addsSinceClean)

	// the fourth add goes beyond the threshold and triggers Clean
	m.Set(4, bb)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 0, m.cs.addsSinceClean)
	assert.True(t, m.ContainsKey(3))
	assert.True(t, m.ContainsKey(4))
	runtime.KeepAlive([]*thing{aa, bb})
}

func TestValueMapClear(t *testing.T) {
	var m ValueMap[int, thing]
	aa := newThing("aa")
	m.Set(1, aa)
	m.Set(2, newThing("bb"))
	assert.Equal(t, 2, m.cs.addsSinceClean)

	m.Clear()
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, m.cs.addsSinceClean)
	assert.False(t, m.ContainsKey(1))
	runtime.KeepAlive(aa)
}

func TestValueMapGrow(t *testing.T) {
	aa := newThing("aa")
	var m ValueMap[int, thing]
	m.Set(1, aa)

	m.Grow(100)
	assert.Equal(t, 1, m.Len())
	v, ok := m.Get(1)
	assert.True(t, ok)
	assert.Same(t, aa, v)
	assert.Panics(t, func() { m.Grow(-1) })
	runtime.KeepAlive(aa)
}

func TestValueMapTrimExcess(t *testing.T) {
	aa := newThing("aa")
	var m ValueMap[int, thing]
	m.Set(1, aa)
	mapSetLost(&m, 2, "lost")
	collect()

	// TrimExcess rebuilds the map but keeps all the slots, stale included
	m.TrimExcess()
	assert.Equal(t, 2, m.Len())
	assert.True(t, m.ContainsKey(1))
	runtime.KeepAlive(aa)
}

func TestValueMapTrimOnClean(t *testing.T) {
	vals := []*thing{newThing("aa"), newThing("bb"), newThing("cc")}
	m, err := NewValueMap(MapConfig[int, thing]{TrimOnClean: true})
	assert.Nil(t, err)
	for i, v := range vals {
		m.Set(i, v)
	}
	for i := 3; i < 6; i++ {
		mapSetLost(m, i, "lost")
	}
	collect()
	assert.Equal(t, 6, m.Len())

	// the trimming Clean rebuilds the map at the survivors size
	m.Clean()
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, []int{0, 1, 2}, mapKeys(m))
	runtime.KeepAlive(vals)
}

func TestValueMapLenLiveCount(t *testing.T) {
	vals := make([]*thing, 0, 10)
	var m ValueMap[int, thing]
	for i := 0; i < 10; i++ {
		v := newThing("aa")
		vals = append(vals, v)
		m.Set(i, v)
	}
	assert.Equal(t, 10, m.Len())
	assert.True(t, m.Remove(3))
	assert.True(t, m.Remove(7))
	assert.Equal(t, 8, m.Len())
	assert.Equal(t, 8, len(mapKeys(&m)))
	runtime.KeepAlive(vals)
}

func mapKeys(m *ValueMap[int, thing]) []int {
	keys := []int{}
	for k := range m.Keys() {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
