package digest

import (
	"fmt"
	"hash"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2Key derives a key of keyLen bytes from password and salt using
// PBKDF2 with one of the registry's algorithms as the PRF core. This is
// the KDF shape the layer's consumers want; it runs entirely through
// the hash.Hash adapter, so whatever backend is configured does the
// work.
func PBKDF2Key(password, salt []byte, iter, keyLen int, alg Algorithm) ([]byte, error) {
	if !alg.Available() {
		return nil, fmt.Errorf("%w: unsupported algorithm id %d", ErrInvalidArgument, alg)
	}
	if iter < 1 || keyLen < 1 {
		return nil, fmt.Errorf("%w: iterations and key length must be positive", ErrInvalidArgument)
	}
	return pbkdf2.Key(password, salt, iter, keyLen, func() hash.Hash {
		h, err := NewHash(alg)
		if err != nil {
			// alg was validated above; only a backend fault lands here
			panic(fmt.Sprintf("digest: %s PRF: %v", alg, err))
		}
		return h
	}), nil
}
