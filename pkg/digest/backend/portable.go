package backend

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding"
	"errors"
	"fmt"
	"hash"
)

// Portable returns the pure-Go provider. Sessions wrap the standard
// library hash states, which all support binary marshaling, so Clone
// works for every algorithm this provider opens.
func Portable() Provider { return portableProvider{} }

type portableProvider struct{}

type factoryEntry struct {
	newHash   func() hash.Hash
	blockSize int
}

var portableFactories = map[Token]factoryEntry{
	TokenMD5:    {md5.New, md5.BlockSize},
	TokenSHA1:   {sha1.New, sha1.BlockSize},
	TokenSHA256: {sha256.New, sha256.BlockSize},
	TokenSHA384: {sha512.New384, sha512.BlockSize},
	TokenSHA512: {sha512.New, sha512.BlockSize},
}

func (portableProvider) Open(tok Token) (AlgorithmHandle, error) {
	f, ok := portableFactories[tok]
	if !ok {
		return nil, errUnknownToken
	}
	return &factoryHandle{entry: f}, nil
}

// factoryHandle is an algorithm handle backed by a hash.Hash factory.
// Shared by the portable provider and the accelerated provider's
// fallback paths.
type factoryHandle struct {
	entry  factoryEntry
	closed bool
}

func (h *factoryHandle) NewSession() (Session, error) {
	if h.closed {
		return nil, errors.New("backend: algorithm handle closed")
	}
	return &hashSession{h: h.entry.newHash(), newHash: h.entry.newHash}, nil
}

func (h *factoryHandle) BlockSize() (int, error) {
	if h.closed {
		return 0, errors.New("backend: algorithm handle closed")
	}
	return h.entry.blockSize, nil
}

func (h *factoryHandle) Close() error {
	h.closed = true
	return nil
}

// hashSession adapts any hash.Hash to the Session contract. newHash
// produces a fresh state of the same algorithm for Clone.
type hashSession struct {
	h       hash.Hash
	newHash func() hash.Hash
}

func (s *hashSession) Update(p []byte) error {
	if s.h == nil {
		return errors.New("backend: session closed")
	}
	_, err := s.h.Write(p)
	return err
}

// Clone duplicates the hash state through its binary marshaling
// support. States that don't marshal (SIMD ones, typically) can't be
// duplicated.
func (s *hashSession) Clone() (Session, error) {
	if s.h == nil {
		return nil, errors.New("backend: session closed")
	}
	m, ok := s.h.(encoding.BinaryMarshaler)
	if !ok {
		return nil, errors.New("backend: hash state is not duplicable")
	}
	state, err := m.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("backend: marshal hash state: %v", err)
	}
	fresh := s.newHash()
	u, ok := fresh.(encoding.BinaryUnmarshaler)
	if !ok {
		return nil, errors.New("backend: hash state is not duplicable")
	}
	if err := u.UnmarshalBinary(state); err != nil {
		return nil, fmt.Errorf("backend: unmarshal hash state: %v", err)
	}
	return &hashSession{h: fresh, newHash: s.newHash}, nil
}

func (s *hashSession) Finish(out []byte) error {
	if s.h == nil {
		return errors.New("backend: session closed")
	}
	if len(out) != s.h.Size() {
		return fmt.Errorf("backend: output is %d bytes, digest is %d", len(out), s.h.Size())
	}
	s.h.Sum(out[:0])
	return nil
}

func (s *hashSession) Close() error {
	if s.h != nil {
		// scrub accumulated state before the allocation goes back
		// to the collector
		s.h.Reset()
		s.h = nil
	}
	return nil
}
