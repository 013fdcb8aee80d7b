package job

import "context"

// Pool bounds how many heavyweight jobs run at once. Pitch estimation is
// CPU-bound and can take seconds per request; running it through a Pool
// keeps concurrent requests from serializing the whole server behind it.
// The segmenter and encoder are fast linear scans and run inline.
type Pool struct {
	sem chan struct{}
}

func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: make(chan struct{}, size)}
}

// Do runs fn once a worker slot is free. If ctx is canceled while
// waiting, fn never runs and the context's error is returned.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-p.sem }()
	return fn()
}
