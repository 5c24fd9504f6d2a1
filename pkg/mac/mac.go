// Package mac implements HMAC (RFC 2104) directly on the digest
// layer's context operations, the way the original ssh MAC code sits on
// its digest API. The keyed inner and outer states are computed once in
// New; every Sum and Reset replays them through CopyState instead of
// re-keying, which also makes this package the resident exerciser of
// state duplication and block-size queries.
package mac

import (
	"fmt"

	"edu/digestkit/pkg/digest"
)

// MAC is a keyed HMAC instance. Like a digest.Context it is
// single-threaded and must be released with Close.
type MAC struct {
	alg  digest.Algorithm
	ictx *digest.Context // digest state after the keyed inner pad
	octx *digest.Context // digest state after the keyed outer pad
	work *digest.Context // running clone of ictx fed with message bytes
}

// New builds an HMAC over one of the registry's algorithms. Keys longer
// than the algorithm's block size are digested first, per RFC 2104.
func New(alg digest.Algorithm, key []byte) (*MAC, error) {
	ictx, err := digest.Start(alg)
	if err != nil {
		return nil, err
	}
	block := ictx.BlockSize()
	if block == 0 {
		ictx.Close()
		return nil, fmt.Errorf("%w: no block size for %s", digest.ErrBackend, alg)
	}

	kbuf := make([]byte, block)
	if len(key) > block {
		if err := digest.HashMemory(alg, key, kbuf[:alg.Size()]); err != nil {
			ictx.Close()
			return nil, err
		}
	} else {
		copy(kbuf, key)
	}

	pad := make([]byte, block)
	for i := range pad {
		pad[i] = kbuf[i] ^ 0x36
	}
	err = ictx.Update(pad)
	var octx *digest.Context
	if err == nil {
		octx, err = digest.Start(alg)
	}
	if err == nil {
		for i := range pad {
			pad[i] = kbuf[i] ^ 0x5c
		}
		err = octx.Update(pad)
	}
	var work *digest.Context
	if err == nil {
		work, err = digest.Start(alg)
	}
	if err == nil {
		err = ictx.CopyState(work)
	}
	zero(kbuf)
	zero(pad)
	if err != nil {
		ictx.Close()
		octx.Close()
		work.Close()
		return nil, err
	}
	return &MAC{alg: alg, ictx: ictx, octx: octx, work: work}, nil
}

// Size returns the MAC length in bytes, equal to the digest length.
func (m *MAC) Size() int { return m.alg.Size() }

// Write feeds message bytes into the running MAC.
func (m *MAC) Write(p []byte) error {
	if m == nil || m.work == nil {
		return fmt.Errorf("%w: mac is closed", digest.ErrInvalidArgument)
	}
	return m.work.Update(p)
}

// Sum writes the MAC of everything written so far into out, which must
// hold at least Size bytes; exactly Size bytes are written. The running
// state is untouched, so Write/Sum can continue afterwards.
func (m *MAC) Sum(out []byte) error {
	if m == nil || m.work == nil {
		return fmt.Errorf("%w: mac is closed", digest.ErrInvalidArgument)
	}
	if len(out) < m.alg.Size() {
		return fmt.Errorf("%w: output is %d bytes, %s mac needs %d", digest.ErrInvalidArgument, len(out), m.alg, m.alg.Size())
	}

	inner, err := digest.Start(m.alg)
	if err != nil {
		return err
	}
	defer inner.Close()
	if err := m.work.CopyState(inner); err != nil {
		return err
	}
	d := make([]byte, m.alg.Size())
	if err := inner.Final(d); err != nil {
		return err
	}

	outer, err := digest.Start(m.alg)
	if err != nil {
		return err
	}
	defer outer.Close()
	if err := m.octx.CopyState(outer); err != nil {
		return err
	}
	if err := outer.Update(d); err != nil {
		return err
	}
	return outer.Final(out)
}

// Reset discards the written message and rewinds to the keyed state.
func (m *MAC) Reset() error {
	if m == nil || m.ictx == nil {
		return fmt.Errorf("%w: mac is closed", digest.ErrInvalidArgument)
	}
	work, err := digest.Start(m.alg)
	if err != nil {
		return err
	}
	if err := m.ictx.CopyState(work); err != nil {
		work.Close()
		return err
	}
	m.work.Close()
	m.work = work
	return nil
}

// Close releases the three underlying contexts. Nil-safe, idempotent.
func (m *MAC) Close() error {
	if m == nil {
		return nil
	}
	m.ictx.Close()
	m.octx.Close()
	m.work.Close()
	m.ictx, m.octx, m.work = nil, nil, nil
	return nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
