package crawl

import "sync/atomic"

// Budget is a counter of crawl permits shared by all tasks of one crawl.
// A task takes a permit before fetching and gives it back unless the page
// ends up in the result, so the number of credited pages never exceeds
// the initial count.
type Budget struct {
	permits atomic.Int64
}

// NewBudget creates a Budget holding n permits.
func NewBudget(n int) *Budget {
	b := &Budget{}
	b.permits.Store(int64(n))
	return b
}

// TryAcquire takes a permit without blocking and reports whether it did.
func (b *Budget) TryAcquire() bool {
	for {
		cur := b.permits.Load()
		if cur <= 0 {
			return false
		}
		if b.permits.CompareAndSwap(cur, cur-1) {
			return true
		}
	}
}

// Release returns a permit.
func (b *Budget) Release() {
	b.permits.Add(1)
}

// Available returns the current number of permits.
func (b *Budget) Available() int {
	return int(b.permits.Load())
}
