package sales

import "sync"

// productLocks hands out one mutex per product ID. Entries are dropped once
// nobody holds or waits for them.
type productLocks struct {
	mu    sync.Mutex
	locks map[int64]*productLock
}

type productLock struct {
	mu   sync.Mutex
	refs int
}

func newProductLocks() *productLocks {
	return &productLocks{locks: map[int64]*productLock{}}
}

// lock blocks until the caller owns id and returns the matching unlock func.
func (p *productLocks) lock(id int64) func() {
	p.mu.Lock()
	l, ok := p.locks[id]
	if !ok {
		l = &productLock{}
		p.locks[id] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, id)
		}
		p.mu.Unlock()
	}
}
