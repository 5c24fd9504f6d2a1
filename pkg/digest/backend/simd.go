package backend

import (
	"errors"
	"fmt"

	md5simd "github.com/minio/md5-simd"
	sha256simd "github.com/minio/sha256-simd"
)

// Accelerated returns a provider that routes MD5 through an md5-simd
// server and SHA-256 through sha256-simd, falling back to the portable
// factories for the rest. SIMD sessions cannot duplicate their state,
// so anything that needs Clone should stay on the portable provider;
// one-shot hashing never does.
func Accelerated() Provider { return simdProvider{} }

type simdProvider struct{}

func (simdProvider) Open(tok Token) (AlgorithmHandle, error) {
	switch tok {
	case TokenMD5:
		return &md5ServerHandle{srv: md5simd.NewServer()}, nil
	case TokenSHA256:
		return &factoryHandle{entry: factoryEntry{sha256simd.New, sha256simd.BlockSize}}, nil
	default:
		return portableProvider{}.Open(tok)
	}
}

// md5ServerHandle maps the md5-simd server model onto the adapter: the
// server is the algorithm handle, the hashers it mints are sessions.
type md5ServerHandle struct {
	srv md5simd.Server
}

func (h *md5ServerHandle) NewSession() (Session, error) {
	if h.srv == nil {
		return nil, errors.New("backend: algorithm handle closed")
	}
	return &md5SimdSession{h: h.srv.NewHash()}, nil
}

func (h *md5ServerHandle) BlockSize() (int, error) {
	if h.srv == nil {
		return 0, errors.New("backend: algorithm handle closed")
	}
	return md5simd.BlockSize, nil
}

func (h *md5ServerHandle) Close() error {
	if h.srv != nil {
		h.srv.Close()
		h.srv = nil
	}
	return nil
}

type md5SimdSession struct {
	h md5simd.Hasher
}

func (s *md5SimdSession) Update(p []byte) error {
	if s.h == nil {
		return errors.New("backend: session closed")
	}
	_, err := s.h.Write(p)
	return err
}

func (s *md5SimdSession) Clone() (Session, error) {
	return nil, errors.New("backend: md5-simd state is not duplicable")
}

func (s *md5SimdSession) Finish(out []byte) error {
	if s.h == nil {
		return errors.New("backend: session closed")
	}
	if len(out) != s.h.Size() {
		return fmt.Errorf("backend: output is %d bytes, digest is %d", len(out), s.h.Size())
	}
	s.h.Sum(out[:0])
	return nil
}

func (s *md5SimdSession) Close() error {
	if s.h != nil {
		s.h.Close()
		s.h = nil
	}
	return nil
}
