package digest

import (
	"fmt"
	"hash"
	"runtime"

	"edu/digestkit/pkg/digest/backend"
)

// NewHash adapts a Context to the standard hash.Hash contract, so the
// registry's algorithms plug into anything in the ecosystem that takes
// one (HMAC, PBKDF2, io.Copy). Sum does not disturb the accumulated
// state: it finalizes a duplicate of the live session, so the adapter
// only works on providers whose sessions can clone.
//
// hash.Hash has no error returns on Sum and Reset, so backend failures
// there panic; Write reports its error through the io.Writer contract.
func NewHash(alg Algorithm) (hash.Hash, error) {
	return NewHashWith(defaultProvider, alg)
}

// NewHashWith is NewHash on an explicit provider.
func NewHashWith(p backend.Provider, alg Algorithm) (hash.Hash, error) {
	c, err := StartWith(p, alg)
	if err != nil {
		return nil, err
	}
	h := &algHash{alg: alg, prov: p, ctx: c}
	// hash.Hash has no release method, so the backend context rides on
	// the adapter's lifetime; without this the session state is never
	// scrubbed and server-backed providers keep their workers alive
	runtime.SetFinalizer(h, (*algHash).finalize)
	return h, nil
}

type algHash struct {
	alg  Algorithm
	prov backend.Provider
	ctx  *Context
}

func (h *algHash) finalize() {
	h.ctx.Close()
}

func (h *algHash) Write(p []byte) (int, error) {
	if err := h.ctx.Update(p); err != nil {
		return 0, err
	}
	runtime.KeepAlive(h)
	return len(p), nil
}

func (h *algHash) Sum(in []byte) []byte {
	// finalize a throwaway duplicate, same trick as the ctx2 dance in
	// the openssl-backed hashes
	scratch, err := StartWith(h.prov, h.alg)
	if err != nil {
		panic(fmt.Sprintf("digest: %s Sum: %v", h.alg, err))
	}
	defer scratch.Close()
	if err := h.ctx.CopyState(scratch); err != nil {
		panic(fmt.Sprintf("digest: %s Sum: %v", h.alg, err))
	}
	out := make([]byte, h.alg.Size())
	if err := scratch.Final(out); err != nil {
		panic(fmt.Sprintf("digest: %s Sum: %v", h.alg, err))
	}
	runtime.KeepAlive(h)
	return append(in, out...)
}

func (h *algHash) Reset() {
	h.ctx.Close()
	c, err := StartWith(h.prov, h.alg)
	if err != nil {
		panic(fmt.Sprintf("digest: %s Reset: %v", h.alg, err))
	}
	h.ctx = c
}

func (h *algHash) Size() int { return h.alg.Size() }

func (h *algHash) BlockSize() int {
	n := h.ctx.BlockSize()
	runtime.KeepAlive(h)
	return n
}
