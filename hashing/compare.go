package hashing

// byteSeq is the read-only view constantTimeEqual works over. Byte slices
// satisfy it through bytesView; tests substitute a counting implementation.
type byteSeq interface {
	Len() int
	At(i int) byte
}

type bytesView []byte

func (b bytesView) Len() int { return len(b) }
func (b bytesView) At(i int) byte { return b[i] }

// constantTimeEqual reports whether a and b hold the same bytes. Every byte
// pair is visited regardless of where the first difference sits, so the
// running time depends only on the length. Lengths are not secret.
func constantTimeEqual(a, b byteSeq) bool {
	n := a.Len()
	if n != b.Len() {
		return false
	}
	var acc byte
	for i := 0; i < n; i++ {
		acc |= a.At(i) ^ b.At(i)
	}
	return acc == 0
}
