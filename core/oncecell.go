package core

import "sync"

// oncecell is a one-shot completion cell: the first caller runs work while
// later concurrent callers block on the same outcome. On failure the cell
// resets so a subsequent call retries.
type oncecell struct {
	mu      sync.Mutex
	running bool
	done    bool
	err     error
	waiters []chan error
}

// do runs fn if no attempt is in flight and none has succeeded; otherwise it
// waits for the in-flight or already-completed outcome.
func (c *oncecell) do(fn func() error) error {
	c.mu.Lock()
	if c.done {
		err := c.err
		c.mu.Unlock()
		return err
	}
	if c.running {
		ch := make(chan error, 1)
		c.waiters = append(c.waiters, ch)
		c.mu.Unlock()
		return <-ch
	}
	c.running = true
	c.mu.Unlock()

	err := fn()

	c.mu.Lock()
	c.running = false
	if err == nil {
		c.done = true
	}
	c.err = err
	waiters := c.waiters
	c.waiters = nil
	c.mu.Unlock()

	for _, ch := range waiters {
		ch <- err
	}
	return err
}

// reset clears a completed (successful) cell so the next do retries — used
// by dispose to allow a build/dispose/build cycle.
func (c *oncecell) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done = false
	c.err = nil
}
