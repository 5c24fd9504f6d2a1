package digest

// Buffer is the byte-container contract accepted by HashBuffer: a
// read-only view of the bytes and their count, both O(1), no ownership
// transfer. *bytes.Buffer satisfies it.
type Buffer interface {
	Bytes() []byte
	Len() int
}

// HashMemory is the one-shot form of Start/Update/Final/Close over a
// byte slice. Same output rules as Final; the context is released on
// every path, including mid-failure ones.
func HashMemory(alg Algorithm, msg, out []byte) error {
	c, err := Start(alg)
	if err != nil {
		return err
	}
	defer c.Close()
	if err := c.Update(msg); err != nil {
		return err
	}
	return c.Final(out)
}

// HashBuffer is HashMemory sourced from a Buffer.
func HashBuffer(alg Algorithm, b Buffer, out []byte) error {
	return HashMemory(alg, b.Bytes()[:b.Len()], out)
}
