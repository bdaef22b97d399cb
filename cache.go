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
	"runtime"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/solarisdb/weakref/cast"
	"github.com/solarisdb/weakref/errors"
	"github.com/solarisdb/weakref/logging"
)

type (
	// Cache is a keyed cache which hands out one canonical instance per key
	// while the instance is in use somewhere, and lets the garbage collector
	// reclaim the instances nobody uses. The values are held weakly; on top
	// of that an LRU layer keeps strong references to the StrongCapacity most
	// recently used values, so the hot set survives between uses. A slot
	// whose value has been reclaimed is scavenged asynchronously by the
	// runtime cleanup, the cache does not require explicit sweeps.
	//
	// Cache is safe for concurrent use.
	Cache[K comparable, V any] struct {
		lock     sync.Mutex
		refs     map[K]Ref[V]
		inflight map[K]chan struct{}
		strong   *lru.Cache[K, *V]
		newF     func(K) (*V, error)
		onEvictF func(K, *V)
		logger   logging.Logger
		closed   bool
	}

	// CacheConfig defines the Cache construction knobs
	CacheConfig[K comparable, V any] struct {
		// New creates the value for a key. It must not be nil, and it must
		// return a non-nil value when the error is nil. The function is
		// called outside the cache lock, at most once per key at a time.
		New func(K) (*V, error)
		// StrongCapacity is the number of most recently used values the cache
		// pins with strong references. nil means 128, 0 disables the pinning
		// entirely, then a value lives only between its uses by the callers.
		StrongCapacity *int
		// OnEvict, when not nil, is called for every live value the cache
		// stops serving due to Remove, Purge or Close. It is not called when
		// the garbage collector reclaims a value.
		OnEvict func(K, *V)
	}
)

// scavengeSlot is the runtime cleanup argument: the slot key and the Ref the
// slot held when the cleanup was registered
type scavengeSlot[K comparable, V any] struct {
	k   K
	ref Ref[V]
}

// NewCache creates a new Cache for the configuration provided
func NewCache[K comparable, V any](cfg CacheConfig[K, V]) (*Cache[K, V], error) {
	if cfg.New == nil {
		return nil, fmt.Errorf("NewCache(): the New function must not be nil: %w", errors.ErrInvalid)
	}
	strongCap := cast.Int(cfg.StrongCapacity, 128)
	if strongCap < 0 {
		return nil, fmt.Errorf("NewCache(): the StrongCapacity=%d, but it cannot be negative: %w", strongCap, errors.ErrInvalid)
	}
	c := new(Cache[K, V])
	c.refs = make(map[K]Ref[V])
	c.inflight = make(map[K]chan struct{})
	c.newF = cfg.New
	c.onEvictF = cfg.OnEvict
	c.logger = logging.NewLogger("weakref.Cache")
	if strongCap > 0 {
		var err error
		c.strong, err = lru.New[K, *V](strongCap)
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

// GetOrCreate returns the canonical instance for k, creating it with the New
// function when the cache holds no live one. Concurrent callers of the same
// key produce exactly one New call, the others wait for its result. The
// error from New is returned to the creating caller and is not cached.
func (c *Cache[K, V]) GetOrCreate(k K) (*V, error) {
	for {
		c.lock.Lock()
		if c.closed {
			c.lock.Unlock()
			return nil, errors.ErrClosed
		}
		if ref, ok := c.refs[k]; ok {
			if v, live := ref.Get(); live {
				c.pin(k, v)
				c.lock.Unlock()
				return v, nil
			}
			// the value is reclaimed, but its cleanup has not run yet
			delete(c.refs, k)
		}
		ch, watcher := c.inflight[k]
		if !watcher {
			ch = make(chan struct{})
			c.inflight[k] = ch
		}
		c.lock.Unlock()

		// if watcher is true, it means that another goroutine is already creating
		// the value, so it needs to wait for the result instead of creating a
		// second instance.
		if watcher {
			<-ch
			continue
		}

		v, err := c.newF(k)

		c.lock.Lock()
		// if it was closed while we were creating the new value...
		if c.closed {
			c.lock.Unlock()
			if err == nil && c.onEvictF != nil {
				c.onEvictF(k, v)
			}
			return nil, errors.ErrClosed
		}
		close(ch)
		delete(c.inflight, k)
		if err != nil {
			c.lock.Unlock()
			return nil, err
		}
		if v == nil {
			c.lock.Unlock()
			return nil, fmt.Errorf("GetOrCreate(): the New function returned a nil value for key=%v: %w", k, errors.ErrInvalid)
		}
		ref := MakeRef(v)
		c.refs[k] = ref
		runtime.AddCleanup(v, c.scavenge, scavengeSlot[K, V]{k: k, ref: ref})
		c.pin(k, v)
		c.lock.Unlock()

		c.logger.Debugf("created the value for key=%v", k)
		return v, nil
	}
}

// Get returns the canonical instance for k when the cache holds a live one.
// It never creates values. A hit counts as a use for the strong LRU layer.
func (c *Cache[K, V]) Get(k K) (*V, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed {
		return nil, false
	}
	ref, ok := c.refs[k]
	if !ok {
		return nil, false
	}
	v, live := ref.Get()
	if !live {
		delete(c.refs, k)
		return nil, false
	}
	c.pin(k, v)
	return v, true
}

// Remove unpins and forgets the slot under k, so the next GetOrCreate builds
// a fresh instance. It returns true when a live value was cached. The callers
// which already hold the value keep using it, Remove only makes the cache
// stop handing it out.
func (c *Cache[K, V]) Remove(k K) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed {
		return false
	}
	ref, ok := c.refs[k]
	if !ok {
		return false
	}
	delete(c.refs, k)
	if c.strong != nil {
		c.strong.Remove(k)
	}
	v, live := ref.Get()
	if live && c.onEvictF != nil {
		c.onEvictF(k, v)
	}
	return live
}

// Purge unpins and forgets all the cached values
func (c *Cache[K, V]) Purge() {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed {
		return
	}
	c.evictAll()
	c.logger.Debugf("purged")
}

// Len returns the number of slots held. Like the containers' Len it is an
// upper bound: a slot whose value was just reclaimed stays counted until its
// cleanup runs or a lookup stumbles over it.
func (c *Cache[K, V]) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.refs)
}

// Close purges the cache and turns it off: all the following GetOrCreate
// calls, including the ones already waiting for an inflight value, fail with
// errors.ErrClosed. The second Close returns errors.ErrClosed as well.
func (c *Cache[K, V]) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed {
		return errors.ErrClosed
	}
	c.logger.Infof("closing, %d slots cached", len(c.refs))
	c.evictAll()
	c.closed = true
	for _, ch := range c.inflight {
		close(ch)
	}
	c.inflight = nil
	c.refs = nil
	c.strong = nil
	return nil
}

// evictAll must be called under the lock
func (c *Cache[K, V]) evictAll() {
	for k, ref := range c.refs {
		delete(c.refs, k)
		if v, live := ref.Get(); live && c.onEvictF != nil {
			c.onEvictF(k, v)
		}
	}
	if c.strong != nil {
		c.strong.Purge()
	}
}

// pin makes v one of the strongly held most recently used values. Must be
// called under the lock.
func (c *Cache[K, V]) pin(k K, v *V) {
	if c.strong != nil {
		c.strong.Add(k, v)
	}
}

// scavenge drops the slot of a reclaimed value. It runs on the runtime
// cleanup goroutine some time after the value is gone, so the slot is checked
// to still hold the same Ref: the key could have been removed and taken by a
// new value by then.
func (c *Cache[K, V]) scavenge(slot scavengeSlot[K, V]) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed {
		return
	}
	if ref, ok := c.refs[slot.k]; ok && ref == slot.ref {
		delete(c.refs, slot.k)
		c.logger.Tracef("scavenged the slot for key=%v", slot.k)
	}
}
