package digest

import (
	"fmt"

	"edu/digestkit/pkg/digest/backend"
)

// defaultProvider backs Start, HashMemory and HashBuffer.
var defaultProvider backend.Provider = backend.Portable()

// Context is one in-progress digest computation: an algorithm bound to
// an open backend session. It owns two backend resources, released
// together by Close. A Context is single-threaded; distinct Contexts
// are fully independent.
type Context struct {
	alg      Algorithm
	handle   backend.AlgorithmHandle
	session  backend.Session
	finished bool
}

// Start opens a Context on the default provider.
func Start(alg Algorithm) (*Context, error) {
	return StartWith(defaultProvider, alg)
}

// StartWith opens a Context on an explicit provider. If session
// creation fails after the algorithm handle was acquired, the handle is
// released before the error is returned; a failed StartWith never
// leaks backend state and returns no context to close.
func StartWith(p backend.Provider, alg Algorithm) (*Context, error) {
	d := algorithmByID(alg)
	if d == nil {
		return nil, fmt.Errorf("%w: unsupported algorithm id %d", ErrInvalidArgument, alg)
	}
	h, err := p.Open(d.token)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrBackend, d.name, err)
	}
	s, err := h.NewSession()
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("%w: create %s session: %v", ErrBackend, d.name, err)
	}
	return &Context{alg: alg, handle: h, session: s}, nil
}

// Algorithm returns the algorithm this context was started with, fixed
// for its whole lifetime.
func (c *Context) Algorithm() Algorithm { return c.alg }

// Update feeds message bytes into the open session. It may be called
// any number of times before Final; the slice is not retained.
func (c *Context) Update(p []byte) error {
	if c == nil || c.session == nil {
		return fmt.Errorf("%w: context is closed", ErrInvalidArgument)
	}
	if c.finished {
		return fmt.Errorf("%w: context already finalized", ErrInvalidArgument)
	}
	if err := c.session.Update(p); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	return nil
}

// CopyState duplicates c's accumulated state into dst, which must be a
// live context of the same algorithm. dst's previous session is
// released; afterwards the two contexts are independent.
func (c *Context) CopyState(dst *Context) error {
	if c == nil || c.session == nil || dst == nil || dst.session == nil {
		return fmt.Errorf("%w: context is closed", ErrInvalidArgument)
	}
	if c.finished || dst.finished {
		return fmt.Errorf("%w: context already finalized", ErrInvalidArgument)
	}
	if c.alg != dst.alg {
		return fmt.Errorf("%w: algorithm mismatch (%s vs %s)", ErrInvalidArgument, c.alg, dst.alg)
	}
	dup, err := c.session.Clone()
	if err != nil {
		return fmt.Errorf("%w: duplicate %s state: %v", ErrBackend, c.alg, err)
	}
	dst.session.Close()
	dst.session = dup
	return nil
}

// Final writes the digest into out and retires the context. out must
// hold at least Algorithm().Size() bytes; exactly that many are
// written, never fewer — truncated digests are a refusal, not a fit.
// A second Final fails; Close is still required.
func (c *Context) Final(out []byte) error {
	if c == nil || c.session == nil {
		return fmt.Errorf("%w: context is closed", ErrInvalidArgument)
	}
	if c.finished {
		return fmt.Errorf("%w: context already finalized", ErrInvalidArgument)
	}
	size := c.alg.Size()
	if len(out) < size {
		return fmt.Errorf("%w: output is %d bytes, %s digest needs %d", ErrInvalidArgument, len(out), c.alg, size)
	}
	if err := c.session.Finish(out[:size]); err != nil {
		return fmt.Errorf("%w: %v", ErrBackend, err)
	}
	c.finished = true
	return nil
}

// BlockSize returns the algorithm's internal block size, for callers
// building block-oriented constructions on top. Degrades to 0 if the
// query fails; nothing critical rides on it.
func (c *Context) BlockSize() int {
	if c == nil || c.handle == nil {
		return 0
	}
	n, err := c.handle.BlockSize()
	if err != nil {
		return 0
	}
	return n
}

// Close releases both backend resources and zeroes the context.
// Nil-safe and idempotent.
func (c *Context) Close() error {
	if c == nil || (c.session == nil && c.handle == nil) {
		return nil
	}
	var first error
	if c.session != nil {
		if err := c.session.Close(); err != nil && first == nil {
			first = err
		}
	}
	if c.handle != nil {
		if err := c.handle.Close(); err != nil && first == nil {
			first = err
		}
	}
	*c = Context{}
	if first != nil {
		return fmt.Errorf("%w: %v", ErrBackend, first)
	}
	return nil
}
