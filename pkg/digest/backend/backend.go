// Package backend is the seam between the digest layer and whatever
// actually performs the hashing math. A Provider hands out algorithm
// handles for opaque tokens, an algorithm handle mints sessions, and a
// session accumulates message bytes until Finish. Callers above this
// package never see provider-specific error values; the digest layer
// maps everything crossing this boundary into its own taxonomy.
package backend

import "errors"

// Token identifies an algorithm to a concrete provider. The registry
// stores one token per algorithm; an empty token marks an algorithm the
// provider does not implement.
type Token string

const (
	TokenMD5    Token = "md5"
	TokenSHA1   Token = "sha1"
	TokenSHA256 Token = "sha256"
	TokenSHA384 Token = "sha384"
	TokenSHA512 Token = "sha512"
)

var errUnknownToken = errors.New("backend: unknown algorithm token")

// Provider opens algorithm handles. Implementations must be safe for
// concurrent use; the handles and sessions they produce are not.
type Provider interface {
	Open(tok Token) (AlgorithmHandle, error)
}

// AlgorithmHandle is an open handle on one algorithm. It stays valid
// until Close and outlives the sessions it creates.
type AlgorithmHandle interface {
	NewSession() (Session, error)
	BlockSize() (int, error)
	Close() error
}

// Session is one in-progress digest computation.
type Session interface {
	// Update feeds more message bytes. The slice is not retained.
	Update(p []byte) error
	// Clone duplicates the accumulated state into an independent
	// session. Providers without state duplication return an error.
	Clone() (Session, error)
	// Finish computes the digest into out, which must be exactly the
	// algorithm's digest length. The session is spent afterwards.
	Finish(out []byte) error
	// Close releases the session. Safe to call after Finish.
	Close() error
}
