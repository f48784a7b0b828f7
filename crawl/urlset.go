package crawl

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/sitecrawl/bloom"
)

const (
	urlSetShards      = 16
	urlSetMinExpected = 1024
	urlSetFPRate      = 0.01
)

// URLSet is a concurrent set of normalized URLs.
// A Bloom filter answers most negative lookups without taking a shard lock;
// exact membership lives in maps sharded by xxhash.
type URLSet struct {
	filterMu sync.RWMutex
	filter   *bloom.Filter

	shards [urlSetShards]urlShard
	count  atomic.Int64
}

type urlShard struct {
	mu   sync.Mutex
	urls map[string]struct{}
}

// NewURLSet creates a URLSet sized for about expected entries.
func NewURLSet(expected int) *URLSet {
	n := max(expected, urlSetMinExpected)
	s := &URLSet{
		filter: bloom.NewFilter(uint(n), urlSetFPRate),
	}
	for i := range s.shards {
		s.shards[i].urls = make(map[string]struct{})
	}
	return s
}

// Add inserts url and reports whether it was absent.
// Concurrent calls with the same url succeed for exactly one caller.
func (s *URLSet) Add(url string) bool {
	sh := s.shard(url)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.urls[url]; ok {
		return false
	}
	sh.urls[url] = struct{}{}

	s.filterMu.Lock()
	s.filter.Add(url)
	s.filterMu.Unlock()

	s.count.Add(1)
	return true
}

// Remove deletes url and reports whether it was present. The Bloom filter
// keeps its bits, so a removed URL only costs an exact lookup later.
func (s *URLSet) Remove(url string) bool {
	sh := s.shard(url)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.urls[url]; !ok {
		return false
	}
	delete(sh.urls, url)
	s.count.Add(-1)
	return true
}

// Contains reports whether url is in the set.
func (s *URLSet) Contains(url string) bool {
	s.filterMu.RLock()
	maybe := s.filter.Test(url)
	s.filterMu.RUnlock()
	if !maybe {
		return false
	}

	sh := s.shard(url)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	_, ok := sh.urls[url]
	return ok
}

// Len returns the number of URLs in the set.
func (s *URLSet) Len() int {
	return int(s.count.Load())
}

// Snapshot returns the set's URLs in lexical order.
func (s *URLSet) Snapshot() []string {
	out := make([]string, 0, s.Len())
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for u := range sh.urls {
			out = append(out, u)
		}
		sh.mu.Unlock()
	}
	slices.Sort(out)
	return out
}

func (s *URLSet) shard(url string) *urlShard {
	return &s.shards[xxhash.Sum64String(url)%urlSetShards]
}
