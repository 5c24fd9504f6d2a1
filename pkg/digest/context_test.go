package digest

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"edu/digestkit/pkg/digest/backend"
)

// Known-answer vectors: digest of the empty message and of "abc".
var knownVectors = []struct {
	alg   Algorithm
	empty string
	abc   string
}{
	{MD5,
		"d41d8cd98f00b204e9800998ecf8427e",
		"900150983cd24fb0d6963f7d28e17f72"},
	{SHA1,
		"da39a3ee5e6b4b0d3255bfef95601890afd80709",
		"a9993e364706816aba3e25717850c26c9cd0d89d"},
	{SHA256,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	{SHA384,
		"38b060a751ac96384cd9327eb1b1e36a21fdb71114be07434c0cc7bf63f6e1da274edebfe76f65fbd51ad2f14898b95b",
		"cb00753f45a35e8bb5a03d699ac65007272c32ab0eded1631a8b605a43ff5bed8086072ba1e7cc2358baeca134c825a7"},
	{SHA512,
		"cf83e1357eefb8bdf1542850d66d8007d620e4050b5715dc83f4a921d36ce9ce47d0d13c5d85f2b0ff8318d2877eec2f63b931bd47417a81a538327af927da3e",
		"ddaf35a193617abacc417349ae20413112e6fa4e89a97ea20a9eeee64b55d39a2192992a274fc1a836ba3c23a3feebbd454d4423643ce80e2a9ac94fa54ca49f"},
}

func hashMemoryHex(t *testing.T, alg Algorithm, msg []byte) string {
	t.Helper()
	out := make([]byte, alg.Size())
	if err := HashMemory(alg, msg, out); err != nil {
		t.Fatalf("HashMemory(%s): %v", alg, err)
	}
	return hex.EncodeToString(out)
}

func TestHashMemoryVectors(t *testing.T) {
	for _, v := range knownVectors {
		if got := hashMemoryHex(t, v.alg, nil); got != v.empty {
			t.Errorf("%s(empty) = %s, want %s", v.alg, got, v.empty)
		}
		if got := hashMemoryHex(t, v.alg, []byte("abc")); got != v.abc {
			t.Errorf("%s(abc) = %s, want %s", v.alg, got, v.abc)
		}
	}
}

func TestHashMemoryDeterministic(t *testing.T) {
	msg := []byte("the quick brown fox jumps over the lazy dog")
	for _, v := range knownVectors {
		a := hashMemoryHex(t, v.alg, msg)
		b := hashMemoryHex(t, v.alg, msg)
		if a != b {
			t.Errorf("%s: two runs differ: %s vs %s", v.alg, a, b)
		}
	}
}

func TestHashBuffer(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("abc")
	for _, v := range knownVectors {
		out := make([]byte, v.alg.Size())
		if err := HashBuffer(v.alg, &buf, out); err != nil {
			t.Fatalf("HashBuffer(%s): %v", v.alg, err)
		}
		if got := hex.EncodeToString(out); got != v.abc {
			t.Errorf("HashBuffer %s = %s, want %s", v.alg, got, v.abc)
		}
	}
}

func TestIncrementalEquivalence(t *testing.T) {
	msg := make([]byte, 256)
	for i := range msg {
		msg[i] = byte(i)
	}
	splits := []int{0, 1, 17, 128, 255, 256}
	for _, v := range knownVectors {
		whole := hashMemoryHex(t, v.alg, msg)
		for _, cut := range splits {
			c, err := Start(v.alg)
			if err != nil {
				t.Fatalf("Start(%s): %v", v.alg, err)
			}
			if err := c.Update(msg[:cut]); err != nil {
				t.Fatal(err)
			}
			if err := c.Update(msg[cut:]); err != nil {
				t.Fatal(err)
			}
			out := make([]byte, v.alg.Size())
			if err := c.Final(out); err != nil {
				t.Fatal(err)
			}
			c.Close()
			if got := hex.EncodeToString(out); got != whole {
				t.Errorf("%s split at %d: %s, want %s", v.alg, cut, got, whole)
			}
		}
	}
}

func TestCopyState(t *testing.T) {
	for _, v := range knownVectors {
		from, err := Start(v.alg)
		if err != nil {
			t.Fatalf("Start(%s): %v", v.alg, err)
		}
		to, err := Start(v.alg)
		if err != nil {
			t.Fatal(err)
		}

		if err := from.Update([]byte("shared prefix|")); err != nil {
			t.Fatal(err)
		}
		if err := from.CopyState(to); err != nil {
			t.Fatalf("CopyState(%s): %v", v.alg, err)
		}

		// identical updates after the copy produce identical digests
		tail := []byte("identical tail")
		if err := from.Update(tail); err != nil {
			t.Fatal(err)
		}
		if err := to.Update(tail); err != nil {
			t.Fatal(err)
		}
		a := make([]byte, v.alg.Size())
		b := make([]byte, v.alg.Size())
		if err := from.Final(a); err != nil {
			t.Fatal(err)
		}
		if err := to.Final(b); err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(a, b) {
			t.Errorf("%s: clone digest differs from original", v.alg)
		}
		from.Close()
		to.Close()
	}
}

func TestCopyStateIndependence(t *testing.T) {
	from, err := Start(SHA256)
	if err != nil {
		t.Fatal(err)
	}
	defer from.Close()
	to, err := Start(SHA256)
	if err != nil {
		t.Fatal(err)
	}
	defer to.Close()

	if err := from.Update([]byte("base")); err != nil {
		t.Fatal(err)
	}
	if err := from.CopyState(to); err != nil {
		t.Fatal(err)
	}
	// diverge: only the clone sees the extra bytes
	if err := to.Update([]byte("extra")); err != nil {
		t.Fatal(err)
	}
	a := make([]byte, SHA256.Size())
	b := make([]byte, SHA256.Size())
	if err := from.Final(a); err != nil {
		t.Fatal(err)
	}
	if err := to.Final(b); err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a, b) {
		t.Error("diverged contexts produced identical digests")
	}
	want := hashMemoryHex(t, SHA256, []byte("base"))
	if hex.EncodeToString(a) != want {
		t.Error("original context was disturbed by updates to its clone")
	}
}

func TestCopyStateAlgorithmMismatch(t *testing.T) {
	from, err := Start(SHA256)
	if err != nil {
		t.Fatal(err)
	}
	defer from.Close()
	to, err := Start(SHA512)
	if err != nil {
		t.Fatal(err)
	}
	defer to.Close()
	if err := from.CopyState(to); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("CopyState across algorithms: got %v, want ErrInvalidArgument", err)
	}
}

func TestFinalShortBuffer(t *testing.T) {
	for _, v := range knownVectors {
		c, err := Start(v.alg)
		if err != nil {
			t.Fatal(err)
		}
		if err := c.Update([]byte("abc")); err != nil {
			t.Fatal(err)
		}
		out := make([]byte, v.alg.Size()-1)
		for i := range out {
			out[i] = 0xAA
		}
		if err := c.Final(out); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%s: short Final: got %v, want ErrInvalidArgument", v.alg, err)
		}
		for i := range out {
			if out[i] != 0xAA {
				t.Errorf("%s: short Final wrote into the buffer", v.alg)
				break
			}
		}
		// the context is still usable after the rejected call
		full := make([]byte, v.alg.Size())
		if err := c.Final(full); err != nil {
			t.Errorf("%s: Final after rejected Final: %v", v.alg, err)
		}
		if got := hex.EncodeToString(full); got != v.abc {
			t.Errorf("%s = %s, want %s", v.alg, got, v.abc)
		}
		c.Close()
	}
}

func TestFinalIsSingleUse(t *testing.T) {
	c, err := Start(SHA1)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	out := make([]byte, SHA1.Size())
	if err := c.Final(out); err != nil {
		t.Fatal(err)
	}
	if err := c.Final(out); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("second Final: got %v, want ErrInvalidArgument", err)
	}
	if err := c.Update([]byte("late")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Update after Final: got %v, want ErrInvalidArgument", err)
	}
}

func TestHashMemoryShortBuffer(t *testing.T) {
	out := make([]byte, SHA256.Size()-1)
	if err := HashMemory(SHA256, []byte("abc"), out); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("got %v, want ErrInvalidArgument", err)
	}
	// oversized output is fine; only Size bytes are written
	big := make([]byte, SHA256.Size()+8)
	for i := range big {
		big[i] = 0xEE
	}
	if err := HashMemory(SHA256, []byte("abc"), big); err != nil {
		t.Fatal(err)
	}
	for _, b := range big[SHA256.Size():] {
		if b != 0xEE {
			t.Fatal("HashMemory wrote past the digest length")
		}
	}
}

func TestCloseIdempotent(t *testing.T) {
	c, err := Start(MD5)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	var nilCtx *Context
	if err := nilCtx.Close(); err != nil {
		t.Errorf("nil Close: %v", err)
	}
	if err := c.Update([]byte("x")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Update after Close: got %v, want ErrInvalidArgument", err)
	}
	if bs := c.BlockSize(); bs != 0 {
		t.Errorf("BlockSize after Close = %d, want 0", bs)
	}
}

func TestBlockSizes(t *testing.T) {
	want := map[Algorithm]int{MD5: 64, SHA1: 64, SHA256: 64, SHA384: 128, SHA512: 128}
	for alg, bs := range want {
		c, err := Start(alg)
		if err != nil {
			t.Fatal(err)
		}
		if got := c.BlockSize(); got != bs {
			t.Errorf("%s: BlockSize() = %d, want %d", alg, got, bs)
		}
		c.Close()
	}
}

// fakeProvider injects acquisition failures and counts handle traffic
// so the tests can assert that nothing leaks on the failure paths.
type fakeProvider struct {
	failOpen    bool
	failSession bool

	opens, handleCloses  int
	sessions, sessCloses int
}

func (p *fakeProvider) Open(tok backend.Token) (backend.AlgorithmHandle, error) {
	if p.failOpen {
		return nil, errors.New("induced open failure")
	}
	p.opens++
	return &fakeHandle{p: p}, nil
}

type fakeHandle struct{ p *fakeProvider }

func (h *fakeHandle) NewSession() (backend.Session, error) {
	if h.p.failSession {
		return nil, errors.New("induced session failure")
	}
	h.p.sessions++
	return &fakeSession{p: h.p}, nil
}

func (h *fakeHandle) BlockSize() (int, error) { return 64, nil }

func (h *fakeHandle) Close() error {
	h.p.handleCloses++
	return nil
}

type fakeSession struct{ p *fakeProvider }

func (s *fakeSession) Update(p []byte) error { return nil }

func (s *fakeSession) Clone() (backend.Session, error) {
	return nil, errors.New("no clone")
}

func (s *fakeSession) Finish(out []byte) error { return nil }

func (s *fakeSession) Close() error {
	s.p.sessCloses++
	return nil
}

func TestStartProviderOpenFailure(t *testing.T) {
	p := &fakeProvider{failOpen: true}
	c, err := StartWith(p, SHA256)
	if !errors.Is(err, ErrBackend) {
		t.Fatalf("got %v, want ErrBackend", err)
	}
	if c != nil {
		t.Fatal("failed StartWith returned a context")
	}
	if p.opens != 0 || p.handleCloses != 0 {
		t.Errorf("handle traffic on open failure: %+v", p)
	}
}

func TestStartSessionFailureUnwindsHandle(t *testing.T) {
	p := &fakeProvider{failSession: true}
	_, err := StartWith(p, SHA256)
	if !errors.Is(err, ErrBackend) {
		t.Fatalf("got %v, want ErrBackend", err)
	}
	if p.opens != 1 || p.handleCloses != 1 {
		t.Errorf("algorithm handle leaked: opens=%d closes=%d", p.opens, p.handleCloses)
	}
}

func TestCloseReleasesEverything(t *testing.T) {
	p := &fakeProvider{}
	c, err := StartWith(p, SHA256)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if p.opens != p.handleCloses || p.sessions != p.sessCloses {
		t.Errorf("resource accounting off: %+v", p)
	}
}

func TestAcceleratedOneShot(t *testing.T) {
	// the SIMD provider handles the start/update/final path for the
	// whole registry; MD5 state duplication is the documented gap
	p := backend.Accelerated()
	for _, v := range knownVectors {
		c, err := StartWith(p, v.alg)
		if err != nil {
			t.Fatalf("StartWith(accel, %s): %v", v.alg, err)
		}
		if err := c.Update([]byte("abc")); err != nil {
			t.Fatal(err)
		}
		out := make([]byte, v.alg.Size())
		if err := c.Final(out); err != nil {
			t.Fatal(err)
		}
		c.Close()
		if got := hex.EncodeToString(out); got != v.abc {
			t.Errorf("accel %s = %s, want %s", v.alg, got, v.abc)
		}
	}
}

func TestAcceleratedMD5CloneIsBackendError(t *testing.T) {
	p := backend.Accelerated()
	from, err := StartWith(p, MD5)
	if err != nil {
		t.Fatal(err)
	}
	defer from.Close()
	to, err := StartWith(p, MD5)
	if err != nil {
		t.Fatal(err)
	}
	defer to.Close()
	if err := from.CopyState(to); !errors.Is(err, ErrBackend) {
		t.Errorf("got %v, want ErrBackend", err)
	}
}
