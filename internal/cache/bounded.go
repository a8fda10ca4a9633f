// Package cache provides a bounded, insertion-ordered map.
package cache

import (
	"container/list"
	"errors"
	"fmt"
)

const DefaultCapacity = 2000

var ErrInvalidCapacity = errors.New("cache: capacity must be positive")

type entry[K comparable, V any] struct {
	key   K
	value V
}

// Bounded keeps at most its capacity of entries. Once full, inserting a new
// key evicts the oldest inserted key. Updating an existing key keeps its
// place in the order and never evicts. Bounded is not safe for concurrent use.
type Bounded[K comparable, V any] struct {
	capacity int
	order    *list.List
	items    map[K]*list.Element
}

func New[K comparable, V any](capacity int) (*Bounded[K, V], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	return &Bounded[K, V]{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[K]*list.Element, capacity),
	}, nil
}

func (b *Bounded[K, V]) Capacity() int { return b.capacity }

func (b *Bounded[K, V]) Len() int { return len(b.items) }

func (b *Bounded[K, V]) Has(key K) bool {
	_, ok := b.items[key]
	return ok
}

func (b *Bounded[K, V]) Get(key K) (V, bool) {
	if el, ok := b.items[key]; ok {
		return el.Value.(*entry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Set stores value under key and returns the keys evicted to make room.
func (b *Bounded[K, V]) Set(key K, value V) []K {
	if el, ok := b.items[key]; ok {
		el.Value.(*entry[K, V]).value = value
		return nil
	}

	var evicted []K
	for len(b.items) >= b.capacity {
		oldest := b.order.Front()
		k := b.order.Remove(oldest).(*entry[K, V]).key
		delete(b.items, k)
		evicted = append(evicted, k)
	}
	b.items[key] = b.order.PushBack(&entry[K, V]{key: key, value: value})
	return evicted
}

func (b *Bounded[K, V]) Delete(key K) bool {
	el, ok := b.items[key]
	if !ok {
		return false
	}
	b.order.Remove(el)
	delete(b.items, key)
	return true
}

// Keys returns the keys from oldest to newest.
func (b *Bounded[K, V]) Keys() []K {
	keys := make([]K, 0, len(b.items))
	for el := b.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry[K, V]).key)
	}
	return keys
}

func (b *Bounded[K, V]) Clear() {
	b.order.Init()
	clear(b.items)
}
