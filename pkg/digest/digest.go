// Package digest is a uniform front over a pluggable hashing backend.
// It exposes a small fixed registry of message-digest algorithms and an
// incremental Context bound to one backend session, plus one-shot
// helpers on top. Truncated digests are never produced: every output
// path writes exactly the algorithm's digest length or fails.
//
// The registry is immutable after load and safe for unsynchronized
// reads. Contexts are independent; drive each from one goroutine at a
// time and they need no locking between them.
package digest

import (
	"errors"
	"fmt"
	"strings"

	"edu/digestkit/pkg/digest/backend"
)

// Error kinds. Everything this package returns wraps one of these two;
// test with errors.Is. Backend-specific error values never escape.
var (
	// ErrInvalidArgument covers unknown or unsupported algorithms,
	// undersized output buffers, mismatched algorithms in CopyState,
	// and operations on a spent or closed context.
	ErrInvalidArgument = errors.New("digest: invalid argument")
	// ErrBackend covers any provider or session operation failing for
	// a reason opaque to this layer.
	ErrBackend = errors.New("digest: backend error")
)

// Algorithm identifies one registry entry. The zero value is MD5;
// values outside the registry resolve to nothing.
type Algorithm int

const (
	MD5 Algorithm = iota
	RIPEMD160 // registry slot kept, no backend implements it
	SHA1
	SHA256
	SHA384
	SHA512

	algorithmMax
)

type descriptor struct {
	id    Algorithm
	name  string
	size  int
	token backend.Token // empty when the backend can't do it
}

// Indexed directly by Algorithm.
var digests = [algorithmMax]descriptor{
	{MD5, "MD5", 16, backend.TokenMD5},
	{RIPEMD160, "RIPEMD160", 20, ""},
	{SHA1, "SHA1", 20, backend.TokenSHA1},
	{SHA256, "SHA256", 32, backend.TokenSHA256},
	{SHA384, "SHA384", 48, backend.TokenSHA384},
	{SHA512, "SHA512", 64, backend.TokenSHA512},
}

// algorithmByID is the validated resolver. The id echo check looks
// paranoid but it is what keeps a misordered table edit from silently
// hashing with the wrong algorithm.
func algorithmByID(alg Algorithm) *descriptor {
	if alg < 0 || alg >= algorithmMax {
		return nil
	}
	d := &digests[alg]
	if d.id != alg {
		return nil
	}
	if d.token == "" {
		return nil
	}
	return d
}

// AlgorithmByName resolves a case-insensitive algorithm name.
func AlgorithmByName(name string) (Algorithm, error) {
	for i := range digests {
		if strings.EqualFold(name, digests[i].name) && digests[i].token != "" {
			return digests[i].id, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown algorithm %q", ErrInvalidArgument, name)
}

// String returns the canonical name, or "" for anything the backend
// does not support.
func (a Algorithm) String() string {
	d := algorithmByID(a)
	if d == nil {
		return ""
	}
	return d.name
}

// Size returns the fixed digest length in bytes, or 0 for anything the
// backend does not support.
func (a Algorithm) Size() int {
	d := algorithmByID(a)
	if d == nil {
		return 0
	}
	return d.size
}

// Available reports whether the algorithm can actually be opened.
func (a Algorithm) Available() bool { return algorithmByID(a) != nil }

// List returns the supported algorithm names in registry order.
func List() []string {
	out := make([]string, 0, len(digests))
	for i := range digests {
		if digests[i].token != "" {
			out = append(out, digests[i].name)
		}
	}
	return out
}
