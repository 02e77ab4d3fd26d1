// Package cache holds the bounded memoization layer in front of the LLM gateway.
package cache

import (
	"fmt"
	"sync/atomic"

	"github.com/bluele/gcache"
	"golang.org/x/sync/singleflight"
)

// DefaultCapacity is the number of answers kept when no capacity is configured.
const DefaultCapacity = 100

// Key identifies one cached answer. Both parts must match exactly.
type Key struct {
	PdfID    string
	Question string
}

func (k Key) String() string {
	// length prefix keeps ("a_b","c") and ("a","b_c") apart
	return fmt.Sprintf("%d:%s|%s", len(k.PdfID), k.PdfID, k.Question)
}

// Result is delivered by Do once the computation finishes.
type Result struct {
	Answer string
	Err    error
	// Shared is true when the answer was produced for another caller too.
	Shared bool
}

// ResponseCache is a least-recently-used map from Key to answer with a fixed
// capacity. Concurrent Do calls for the same key share one computation.
type ResponseCache struct {
	lru       gcache.Cache
	capacity  int
	evictions atomic.Int64
	group     singleflight.Group
}

// New returns a cache holding at most capacity answers (DefaultCapacity when capacity <= 0).
func New(capacity int) *ResponseCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &ResponseCache{capacity: capacity}
	c.lru = gcache.New(capacity).
		LRU().
		EvictedFunc(func(_, _ interface{}) {
			c.evictions.Add(1)
		}).
		Build()
	return c
}

// Get returns the cached answer and marks it most recently used.
func (c *ResponseCache) Get(key Key) (string, bool) {
	v, err := c.lru.Get(key.String())
	if err != nil {
		return "", false
	}
	return v.(string), true
}

// Put stores answer, evicting the least recently used entry when full.
func (c *ResponseCache) Put(key Key, answer string) {
	_ = c.lru.Set(key.String(), answer)
}

// Evict removes key and reports whether it was present.
func (c *ResponseCache) Evict(key Key) bool {
	return c.lru.Remove(key.String())
}

// Len returns the number of cached answers.
func (c *ResponseCache) Len() int {
	return c.lru.Len(false)
}

// Capacity returns the maximum number of cached answers.
func (c *ResponseCache) Capacity() int {
	return c.capacity
}

// Evictions counts entries dropped to make room or removed with Evict.
func (c *ResponseCache) Evictions() int64 {
	return c.evictions.Load()
}

// Do runs fn for key unless a computation for the same key is already in
// flight, in which case the caller waits for that one. fn runs on its own
// goroutine, so the caller can stop waiting at any time and the computation
// still completes for the other waiters. Do does not store the result.
func (c *ResponseCache) Do(key Key, fn func() (string, error)) <-chan Result {
	out := make(chan Result, 1)
	ch := c.group.DoChan(key.String(), func() (interface{}, error) {
		return fn()
	})
	go func() {
		r := <-ch
		answer, _ := r.Val.(string)
		out <- Result{Answer: answer, Err: r.Err, Shared: r.Shared}
	}()
	return out
}
