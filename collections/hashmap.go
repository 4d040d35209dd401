// Package collections provides containers that are usable before a kernel's general-purpose heap and
// hash tables are online.
package collections

import (
	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/earlyboot/memutils"
)

// BucketCount is the fixed number of buckets in every HashMap
const BucketCount = 1001

const noEntry int32 = -1

type hashEntry struct {
	key   string
	value uint32
	hash  uint64
	// Index of the next entry in the same bucket, or noEntry
	next int32
}

// HashMap maps string keys to uint32 values using separate chaining over a fixed array of buckets.
// Entries live in a single arena slice and chain to one another by index.
//
// Keys are identified by their FNV-1a hash alone: two keys with the same hash are treated as the
// same key, and inserting the second overwrites the value stored for the first.
//
// HashMap supports insertion and full traversal only. It performs no locking.
type HashMap struct {
	buckets [BucketCount]int32
	entries []hashEntry
}

// New creates an empty HashMap
func New() *HashMap {
	m := &HashMap{}
	for i := range m.buckets {
		m.buckets[i] = noEntry
	}
	return m
}

// Len returns the number of entries in the map
func (m *HashMap) Len() int {
	return len(m.entries)
}

// Insert stores value for key. If an entry with the same hash as key already exists in the map,
// its value is replaced. Otherwise a new entry is placed at the front of its bucket.
func (m *HashMap) Insert(key string, value uint32) {
	hash := HashString(key)
	bucket := hash % BucketCount

	for index := m.buckets[bucket]; index != noEntry; index = m.entries[index].next {
		if m.entries[index].hash == hash {
			m.entries[index].value = value
			return
		}
	}

	m.entries = append(m.entries, hashEntry{
		key:   key,
		value: value,
		hash:  hash,
		next:  m.buckets[bucket],
	})
	m.buckets[bucket] = int32(len(m.entries) - 1)

	memutils.DebugValidate(m)
}

// Iter returns an iterator over every entry in the map. Entries are produced bucket by bucket, and
// within a bucket from most to least recently inserted.
//
// The map must not be modified while the iterator is in use.
func (m *HashMap) Iter() *Iterator {
	return &Iterator{
		m:       m,
		bucket:  -1,
		current: noEntry,
	}
}

// Validate performs internal consistency checks on the bucket chains. When the map is functioning
// correctly, it should not be possible for this method to return an error.
func (m *HashMap) Validate() error {
	visited := make([]bool, len(m.entries))
	seen := 0

	for bucket, head := range m.buckets {
		if head == noEntry {
			continue
		}
		hashes := swiss.NewMap[uint64, struct{}](8)

		for index := head; index != noEntry; index = m.entries[index].next {
			if index < 0 || int(index) >= len(m.entries) {
				return errors.Errorf("bucket %d links to entry %d, but there are only %d entries", bucket, index, len(m.entries))
			}

			if visited[index] {
				return errors.Errorf("entry %d is reachable more than once", index)
			}
			visited[index] = true
			seen++

			entry := m.entries[index]
			if entry.hash%BucketCount != uint64(bucket) {
				return errors.Errorf("entry %d with hash %#x is in bucket %d, expected bucket %d", index, entry.hash, bucket, entry.hash%BucketCount)
			}

			if hashes.Has(entry.hash) {
				return errors.Errorf("bucket %d contains more than one entry with hash %#x", bucket, entry.hash)
			}
			hashes.Put(entry.hash, struct{}{})
		}
	}

	if seen != len(m.entries) {
		return errors.Errorf("only %d of %d entries are reachable from a bucket", seen, len(m.entries))
	}

	return nil
}

// Iterator walks a HashMap once. Call Next before each entry; Key and Value return the entry Next
// moved to.
type Iterator struct {
	m       *HashMap
	bucket  int
	current int32
	done    bool
}

// Next advances to the next entry and returns true, or returns false once every entry has been
// visited. After Next returns false it always returns false.
func (it *Iterator) Next() bool {
	if it.done {
		return false
	}

	if it.current != noEntry {
		it.current = it.m.entries[it.current].next
		if it.current != noEntry {
			return true
		}
	}

	for it.bucket+1 < BucketCount {
		it.bucket++
		it.current = it.m.buckets[it.bucket]
		if it.current != noEntry {
			return true
		}
	}

	it.done = true
	return false
}

// Key returns the key of the current entry
func (it *Iterator) Key() string {
	return it.m.entries[it.current].key
}

// Value returns the value of the current entry
func (it *Iterator) Value() uint32 {
	return it.m.entries[it.current].value
}
